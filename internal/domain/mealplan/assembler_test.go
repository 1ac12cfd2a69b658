package mealplan_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssembler() *mealplan.Assembler {
	return mealplan.NewAssembler(mealplan.NewMatcher(mealplan.DefaultMatcherConfig()))
}

func breakfastProfile() *mealplan.MacroProfile {
	profile := testutils.NewMacroProfile(mealplan.MacroTarget{Protein: 40, Carbs: 60, Fat: 20})
	profile.Breakfast = mealplan.MacroTarget{Protein: 30, Carbs: 50, Fat: 15}
	return profile
}

func TestAssembleCompleteness(t *testing.T) {
	assembler := newAssembler()
	pool := testutils.NewRecipePool(40, 7)

	for mealsPerDay := mealplan.MinMealsPerDay; mealsPerDay <= mealplan.MaxMealsPerDay; mealsPerDay++ {
		t.Run(fmt.Sprintf("%d_meals", mealsPerDay), func(t *testing.T) {
			// Act
			plan, err := assembler.Assemble(pool, mealplan.AssembleInput{
				WeekStart:   "2024-03-04",
				MealsPerDay: mealsPerDay,
				Profile:     breakfastProfile(),
			})

			// Assert
			require.NoError(t, err)
			require.Len(t, plan.Meals, 7*mealsPerDay)

			slots, err := mealplan.SlotsFor(mealsPerDay)
			require.NoError(t, err)

			weekStart := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
			assert.Equal(t, weekStart, plan.WeekStart)
			assert.Equal(t, weekStart.AddDate(0, 0, 6), plan.WeekEnd)

			for i, meal := range plan.Meals {
				day := i / mealsPerDay
				slot := slots[i%mealsPerDay]
				assert.Equal(t, weekStart.AddDate(0, 0, day), meal.Date)
				assert.Equal(t, slot.Name, meal.Type)
				assert.Equal(t, plan.ID, meal.MealPlanID)
			}
		})
	}
}

func TestAssembleConcreteMatch(t *testing.T) {
	recipe := testutils.NewRecipeBuilder().
		WithMealType(mealplan.MealTypeBreakfast).
		WithMacros(28, 48, 14).
		WithTags().
		Build()

	plan, err := newAssembler().Assemble([]*mealplan.Recipe{recipe}, mealplan.AssembleInput{
		WeekStart:   "2024-01-01",
		MealsPerDay: 3,
		Profile:     breakfastProfile(),
		Preferences: &mealplan.Preferences{},
	})
	require.NoError(t, err)

	for _, meal := range plan.Meals {
		if meal.Type != "breakfast" {
			assert.Nil(t, meal.RecipeID, "breakfast-only recipe must not fill %s", meal.Type)
			continue
		}
		require.NotNil(t, meal.RecipeID)
		assert.Equal(t, recipe.ID, *meal.RecipeID)
		assert.Equal(t, 30.0, meal.Protein)
		assert.Equal(t, 50.0, meal.Carbs)
		assert.Equal(t, 15.0, meal.Fat)
	}
}

func TestAssembleNoMatchUsesAnalyticCalories(t *testing.T) {
	recipe := testutils.NewRecipeBuilder().
		WithMealType(mealplan.MealTypeBreakfast).
		WithMacros(200, 200, 200).
		Build()

	plan, err := newAssembler().Assemble([]*mealplan.Recipe{recipe}, mealplan.AssembleInput{
		WeekStart:   "2024-01-01",
		MealsPerDay: 3,
		Profile:     breakfastProfile(),
	})
	require.NoError(t, err)

	breakfast := plan.Meals[0]
	assert.Equal(t, "breakfast", breakfast.Type)
	assert.Nil(t, breakfast.RecipeID)
	assert.Equal(t, 30.0*4+50.0*4+15.0*9, breakfast.Calories)
}

func TestAssembleHonoursExclusions(t *testing.T) {
	beans := testutils.NewRecipeBuilder().
		WithIngredients("black beans", "rice").
		WithMacros(30, 50, 15).
		Build()

	plan, err := newAssembler().Assemble([]*mealplan.Recipe{beans}, mealplan.AssembleInput{
		WeekStart:   "2024-01-01",
		MealsPerDay: 4,
		Profile:     breakfastProfile(),
		Preferences: &mealplan.Preferences{ExcludedIngredients: []string{"beans"}},
	})
	require.NoError(t, err)

	for _, meal := range plan.Meals {
		assert.Nil(t, meal.RecipeID)
	}
}

func TestAssembleCarriesIntent(t *testing.T) {
	intent := &mealplan.WeeklyIntent{ID: "intent-1", Goal: "gain_muscle"}

	plan, err := newAssembler().Assemble(nil, mealplan.AssembleInput{
		WeekStart:   "2024-01-01",
		MealsPerDay: 3,
		Profile:     breakfastProfile(),
		Intent:      intent,
	})
	require.NoError(t, err)

	assert.Equal(t, "gain_muscle", plan.Goal)
	require.NotNil(t, plan.WeeklyIntentID)
	assert.Equal(t, "intent-1", *plan.WeeklyIntentID)
	assert.Equal(t, mealplan.StrategyLocal, plan.Strategy)
}

func TestAssembleErrors(t *testing.T) {
	assembler := newAssembler()

	cases := []struct {
		name string
		in   mealplan.AssembleInput
		want error
	}{
		{"malformed date", mealplan.AssembleInput{WeekStart: "03/04/2024", MealsPerDay: 3, Profile: breakfastProfile()}, mealplan.ErrInvalidWeekStart},
		{"impossible date", mealplan.AssembleInput{WeekStart: "2023-02-30", MealsPerDay: 3, Profile: breakfastProfile()}, mealplan.ErrInvalidWeekStart},
		{"too few meals", mealplan.AssembleInput{WeekStart: "2024-01-01", MealsPerDay: 2, Profile: breakfastProfile()}, mealplan.ErrMealsPerDayOutOfRange},
		{"too many meals", mealplan.AssembleInput{WeekStart: "2024-01-01", MealsPerDay: 7, Profile: breakfastProfile()}, mealplan.ErrMealsPerDayOutOfRange},
		{"missing profile", mealplan.AssembleInput{WeekStart: "2024-01-01", MealsPerDay: 3}, mealplan.ErrMissingMacroProfile},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := assembler.Assemble(nil, tc.in)
			assert.Nil(t, plan)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAssembleDoesNotMutatePool(t *testing.T) {
	pool := testutils.NewRecipePool(10, 3)
	before := make([]mealplan.Recipe, len(pool))
	for i, r := range pool {
		before[i] = *r
	}

	_, err := newAssembler().Assemble(pool, mealplan.AssembleInput{
		WeekStart:   "2024-01-01",
		MealsPerDay: 5,
		Profile:     breakfastProfile(),
	})
	require.NoError(t, err)

	for i, r := range pool {
		assert.Equal(t, before[i], *r)
	}
}
