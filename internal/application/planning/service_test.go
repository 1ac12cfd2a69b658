package planning

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/application/aiplan"
	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/inbound"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"github.com/giuseppemarasca93/dietcoach/pkg/errors"
	"github.com/giuseppemarasca93/dietcoach/test/testutils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type PlanningServiceTestSuite struct {
	suite.Suite

	recipes  *testutils.MockRecipeRepository
	profiles *testutils.MockMacroProfileRepository
	prefs    *testutils.MockPreferencesRepository
	intents  *testutils.MockWeeklyIntentRepository
	plans    *testutils.MockMealPlanRepository
	events   *testutils.MockEventPublisher
	metrics  *testutils.RecordingMetrics

	profile *mealplan.MacroProfile
	oats    *mealplan.Recipe
}

func TestPlanningServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PlanningServiceTestSuite))
}

func (s *PlanningServiceTestSuite) SetupTest() {
	s.recipes = testutils.NewMockRecipeRepository()
	s.profiles = &testutils.MockMacroProfileRepository{}
	s.prefs = &testutils.MockPreferencesRepository{}
	s.intents = &testutils.MockWeeklyIntentRepository{}
	s.plans = &testutils.MockMealPlanRepository{}
	s.events = testutils.NewMockEventPublisher()
	s.metrics = testutils.NewRecordingMetrics()

	s.profile = testutils.NewMacroProfile(mealplan.MacroTarget{Protein: 30, Carbs: 50, Fat: 15})
	s.oats = testutils.NewRecipeBuilderWithSeed(1).
		WithTitle("Overnight Oats").
		WithMacros(28, 48, 14).
		WithMealType(mealplan.MealTypeBreakfast).
		WithIngredients("Rolled oats", "milk").
		Build()
}

func (s *PlanningServiceTestSuite) newService(gen outbound.TextGenerator) *Service {
	repos := Repositories{
		Recipes:     s.recipes,
		Profiles:    s.profiles,
		Preferences: s.prefs,
		Intents:     s.intents,
		Plans:       s.plans,
	}
	var generator *aiplan.Generator
	if gen != nil {
		generator = aiplan.NewGenerator(gen, s.recipes, aiplan.DefaultConfig(), zap.NewNop(),
			aiplan.WithSleeper(func(context.Context, time.Duration) error { return nil }))
	}
	assembler := mealplan.NewAssembler(mealplan.NewMatcher(mealplan.DefaultMatcherConfig()))
	return NewService(repos, assembler, generator, s.events, s.metrics, Config{DefaultMealsPerDay: 3}, zap.NewNop())
}

func (s *PlanningServiceTestSuite) configured() {
	s.profiles.On("Get", mock.Anything).Return(s.profile, nil)
	s.prefs.On("Get", mock.Anything).Return(nil, outbound.ErrNotFound)
	s.intents.On("List", mock.Anything).Return([]mealplan.WeeklyIntent{}, nil)
}

func (s *PlanningServiceTestSuite) TestLocalStrategyPersistsFullWeek() {
	// Arrange
	s.configured()
	s.recipes.On("FindAll", mock.Anything).Return([]*mealplan.Recipe{s.oats}, nil)
	s.plans.On("SavePlan", mock.Anything, mock.AnythingOfType("*mealplan.MealPlan"), []*mealplan.Recipe(nil)).Return(nil)

	// Act
	plan, err := s.newService(nil).Generate(context.Background(), inbound.GenerateCommand{WeekStart: "2024-03-04"})

	// Assert
	s.Require().NoError(err)
	s.Len(plan.Meals, 21)
	s.Equal(mealplan.StrategyLocal, plan.Strategy)

	breakfast := plan.Meals[0]
	s.Require().NotNil(breakfast.RecipeID)
	s.Equal(s.oats.ID, *breakfast.RecipeID)

	lunch := plan.Meals[1]
	s.Nil(lunch.RecipeID)
	s.Equal(455.0, lunch.Calories)

	events := s.events.GetPublishedEvents()
	s.Require().Len(events, 1)
	s.Equal("mealplan.generated", events[0].EventName())
	s.Equal(plan.ID, events[0].AggregateID())
	s.Equal(1, s.metrics.Plans["local"])
	s.plans.AssertExpectations(s.T())
}

func (s *PlanningServiceTestSuite) TestMissingProfileIsMissingConfiguration() {
	s.profiles.On("Get", mock.Anything).Return(nil, outbound.ErrNotFound)

	_, err := s.newService(nil).Generate(context.Background(), inbound.GenerateCommand{WeekStart: "2024-03-04", MealsPerDay: 4})

	s.True(errors.Is(err, errors.CodeMissingConfiguration))
	s.plans.AssertNotCalled(s.T(), "SavePlan", mock.Anything, mock.Anything, mock.Anything)
	s.Empty(s.events.GetPublishedEvents())
}

func (s *PlanningServiceTestSuite) TestInvalidInput() {
	cases := []inbound.GenerateCommand{
		{WeekStart: "2024-02-30"},
		{WeekStart: "04/03/2024"},
		{WeekStart: "2024-03-04", MealsPerDay: 7},
		{WeekStart: "2024-03-04", MealsPerDay: 2},
		{WeekStart: "2024-03-04", Strategy: "random"},
	}

	for _, cmd := range cases {
		s.Run(fmt.Sprintf("%s_%d_%s", cmd.WeekStart, cmd.MealsPerDay, cmd.Strategy), func() {
			s.SetupTest()
			s.configured()

			_, err := s.newService(nil).Generate(context.Background(), cmd)

			s.True(errors.Is(err, errors.CodeValidationFailed), "got %v", err)
		})
	}
}

func (s *PlanningServiceTestSuite) TestIntentPolicyAndExclusionsApply() {
	// Arrange
	s.profiles.On("Get", mock.Anything).Return(s.profile, nil)
	s.prefs.On("Get", mock.Anything).Return(&mealplan.Preferences{ExcludedIngredients: []string{"OATS"}}, nil)
	current := mealplan.WeeklyIntent{ID: "intent-1", WeekStart: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), Goal: "lose_weight"}
	future := mealplan.WeeklyIntent{ID: "intent-2", WeekStart: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), Goal: "gain_muscle"}
	s.intents.On("List", mock.Anything).Return([]mealplan.WeeklyIntent{current, future}, nil)
	s.recipes.On("FindAll", mock.Anything).Return([]*mealplan.Recipe{s.oats}, nil)
	s.plans.On("SavePlan", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// Act
	plan, err := s.newService(nil).Generate(context.Background(), inbound.GenerateCommand{WeekStart: "2024-03-04"})

	// Assert
	s.Require().NoError(err)
	s.Equal("lose_weight", plan.Goal)
	s.Require().NotNil(plan.WeeklyIntentID)
	s.Equal("intent-1", *plan.WeeklyIntentID)
	for _, meal := range plan.Meals {
		s.Nil(meal.RecipeID, "excluded recipe must never be assigned")
	}
}

func (s *PlanningServiceTestSuite) TestSaveFailureReturnsDatabaseErrorWithoutEvents() {
	s.configured()
	s.recipes.On("FindAll", mock.Anything).Return([]*mealplan.Recipe{}, nil)
	s.plans.On("SavePlan", mock.Anything, mock.Anything, mock.Anything).Return(stderrors.New("disk full"))

	_, err := s.newService(nil).Generate(context.Background(), inbound.GenerateCommand{WeekStart: "2024-03-04"})

	s.True(errors.Is(err, errors.CodeDatabaseError))
	s.Empty(s.events.GetPublishedEvents())
	s.Empty(s.metrics.Plans)
}

func (s *PlanningServiceTestSuite) TestPublishFailureDoesNotFailGeneration() {
	s.configured()
	s.events.Err = stderrors.New("broker down")
	s.recipes.On("FindAll", mock.Anything).Return([]*mealplan.Recipe{}, nil)
	s.plans.On("SavePlan", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	plan, err := s.newService(nil).Generate(context.Background(), inbound.GenerateCommand{WeekStart: "2024-03-04", MealsPerDay: 5})

	s.Require().NoError(err)
	s.Len(plan.Meals, 35)
}

func (s *PlanningServiceTestSuite) TestAIStrategyPersistsNewRecipes() {
	// Arrange
	s.configured()
	s.recipes.SetupStandardMockBehavior()
	gen := testutils.NewScriptedTextGenerator("openai", testutils.Reply{Text: aiReply(3)})
	var saved []*mealplan.Recipe
	s.plans.On("SavePlan", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(2).([]*mealplan.Recipe) }).
		Return(nil)

	// Act
	plan, err := s.newService(gen).Generate(context.Background(), inbound.GenerateCommand{
		WeekStart: "2024-03-04",
		Strategy:  mealplan.StrategyAI,
	})

	// Assert
	s.Require().NoError(err)
	s.Equal(mealplan.StrategyAI, plan.Strategy)
	s.Len(plan.Meals, 21)
	s.Len(saved, 3, "one recipe per slot title")
	s.Equal(1, s.metrics.Plans["ai"])
	s.recipes.AssertNotCalled(s.T(), "FindAll", mock.Anything)
}

func (s *PlanningServiceTestSuite) TestAIStrategyWithoutProvider() {
	s.configured()

	_, err := s.newService(nil).Generate(context.Background(), inbound.GenerateCommand{
		WeekStart: "2024-03-04",
		Strategy:  mealplan.StrategyAI,
	})

	s.True(errors.Is(err, errors.CodeUpstreamUnavailable))
}

// aiReply returns a valid week where every day repeats the same recipe per slot
func aiReply(mealsPerDay int) string {
	slots, _ := mealplan.SlotsFor(mealsPerDay)
	days := make([]map[string]interface{}, 0, mealplan.DaysPerWeek)
	for d := 0; d < mealplan.DaysPerWeek; d++ {
		meals := make([]map[string]interface{}, 0, len(slots))
		for _, slot := range slots {
			meals = append(meals, map[string]interface{}{
				"type": slot.Name,
				"recipe": map[string]interface{}{
					"title":       "House " + slot.Name,
					"ingredients": []string{"eggs", "spinach"},
					"calories":    400,
					"protein":     30,
					"carbs":       40,
					"fat":         12,
				},
			})
		}
		days = append(days, map[string]interface{}{"date": fmt.Sprintf("day %d", d+1), "meals": meals})
	}
	body, _ := json.Marshal(map[string]interface{}{"days": days})
	return string(body)
}
