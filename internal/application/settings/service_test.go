package settings

import (
	"context"
	"testing"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/inbound"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"github.com/giuseppemarasca93/dietcoach/pkg/errors"
	"github.com/giuseppemarasca93/dietcoach/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	profiles *testutils.MockMacroProfileRepository
	prefs    *testutils.MockPreferencesRepository
	intents  *testutils.MockWeeklyIntentRepository
	svc      *Service
}

func newFixture(policy mealplan.IntentPolicy) *fixture {
	f := &fixture{
		profiles: &testutils.MockMacroProfileRepository{},
		prefs:    &testutils.MockPreferencesRepository{},
		intents:  &testutils.MockWeeklyIntentRepository{},
	}
	f.svc = NewService(f.profiles, f.prefs, f.intents, policy, zap.NewNop())
	return f
}

func TestSaveMacroProfileReusesExistingID(t *testing.T) {
	f := newFixture(mealplan.IntentOnOrBefore)
	f.profiles.On("Get", mock.Anything).Return(&mealplan.MacroProfile{ID: "profile-1"}, nil)
	f.profiles.On("Save", mock.Anything, mock.MatchedBy(func(p *mealplan.MacroProfile) bool {
		return p.ID == "profile-1"
	})).Return(nil)

	saved, err := f.svc.SaveMacroProfile(context.Background(), &mealplan.MacroProfile{
		ID:        "ignored",
		Breakfast: mealplan.MacroTarget{Protein: 30, Carbs: 50, Fat: 15},
	})

	require.NoError(t, err)
	assert.Equal(t, "profile-1", saved.ID)
	f.profiles.AssertExpectations(t)
}

func TestSaveMacroProfileRejectsNegativeTargets(t *testing.T) {
	f := newFixture(mealplan.IntentOnOrBefore)

	_, err := f.svc.SaveMacroProfile(context.Background(), &mealplan.MacroProfile{
		Lunch: mealplan.MacroTarget{Protein: -5},
	})

	assert.True(t, errors.Is(err, errors.CodeValidationFailed))
	f.profiles.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestGetMissingSettingsIsNotFound(t *testing.T) {
	f := newFixture(mealplan.IntentOnOrBefore)
	f.profiles.On("Get", mock.Anything).Return(nil, outbound.ErrNotFound)
	f.prefs.On("Get", mock.Anything).Return(nil, outbound.ErrNotFound)

	_, err := f.svc.GetMacroProfile(context.Background())
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	_, err = f.svc.GetPreferences(context.Background())
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestSavePreferencesNormalizesLists(t *testing.T) {
	f := newFixture(mealplan.IntentOnOrBefore)
	f.prefs.On("Get", mock.Anything).Return(nil, outbound.ErrNotFound)
	f.prefs.On("Save", mock.Anything, mock.Anything).Return(nil)

	saved, err := f.svc.SavePreferences(context.Background(), &mealplan.Preferences{
		ExcludedIngredients: []string{" Peanut", "SHELLFISH ", ""},
		SatietyLevel:        "HIGH",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"peanut", "shellfish"}, saved.ExcludedIngredients)
	assert.Equal(t, "high", saved.SatietyLevel)
}

func TestCreateWeeklyIntent(t *testing.T) {
	f := newFixture(mealplan.IntentOnOrBefore)
	f.intents.On("Create", mock.Anything, mock.AnythingOfType("*mealplan.WeeklyIntent")).Return(nil)

	intent, err := f.svc.CreateWeeklyIntent(context.Background(), inbound.CreateIntentCommand{
		WeekStart: "2024-03-04",
		Goal:      " Lose_Weight ",
		Notes:     "travel on friday",
	})
	require.NoError(t, err)
	assert.Equal(t, "lose_weight", intent.Goal)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), intent.WeekStart)

	_, err = f.svc.CreateWeeklyIntent(context.Background(), inbound.CreateIntentCommand{WeekStart: "next monday"})
	assert.True(t, errors.Is(err, errors.CodeValidationFailed))
}

func TestIntentForHonoursPolicy(t *testing.T) {
	week := func(day int) time.Time { return time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC) }
	intents := []mealplan.WeeklyIntent{
		{ID: "past", WeekStart: week(4)},
		{ID: "future", WeekStart: week(18)},
	}

	onOrBefore := newFixture(mealplan.IntentOnOrBefore)
	onOrBefore.intents.On("List", mock.Anything).Return(intents, nil)
	got, err := onOrBefore.svc.IntentFor(context.Background(), week(11))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "past", got.ID)

	latest := newFixture(mealplan.IntentLatest)
	latest.intents.On("List", mock.Anything).Return(intents, nil)
	got, err = latest.svc.IntentFor(context.Background(), week(11))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "future", got.ID)
}
