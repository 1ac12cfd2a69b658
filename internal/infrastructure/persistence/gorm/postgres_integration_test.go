//go:build integration

package gorm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/test/testutils"
)

// Runs the repositories against the migrated PostgreSQL schema rather than
// the auto-migrated SQLite one.
func TestPostgresRepositories(t *testing.T) {
	ctx := context.Background()
	td := testutils.SetupTestDatabase(t)
	recipes := NewRecipeRepository(td.GormDB)
	plans := NewMealPlanRepository(td.GormDB)
	profiles := NewMacroProfileRepository(td.GormDB)

	t.Run("plan round trip", func(t *testing.T) {
		require.NoError(t, td.TruncateAllTables())

		oats := testutils.NewRecipeBuilderWithSeed(11).
			WithMacros(28, 48, 14).
			WithMealType(mealplan.MealTypeBreakfast).
			WithIngredients("rolled oats", "milk").
			Build()
		plan := assemble(t, []*mealplan.Recipe{oats}, "2024-03-04")

		require.NoError(t, plans.SavePlan(ctx, plan, []*mealplan.Recipe{oats}))

		loaded, err := plans.FindByID(ctx, plan.ID)
		require.NoError(t, err)
		assert.Len(t, loaded.Meals, 21)
		assert.Equal(t, "2024-03-10", loaded.WeekEnd.Format(mealplan.DateLayout))

		stored, err := recipes.FindByID(ctx, oats.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"rolled oats", "milk"}, stored.Ingredients)
	})

	t.Run("check constraints reject a bad meal type", func(t *testing.T) {
		require.NoError(t, td.TruncateAllTables())

		bad := testutils.NewRecipeBuilderWithSeed(12).Build()
		bad.MealType = "brunch"

		assert.Error(t, recipes.Create(ctx, bad))
	})

	t.Run("profile upsert", func(t *testing.T) {
		require.NoError(t, td.TruncateAllTables())

		profile := testutils.NewMacroProfile(mealplan.MacroTarget{Protein: 30, Carbs: 50, Fat: 15})
		require.NoError(t, profiles.Save(ctx, profile))

		loaded, err := profiles.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, 30.0, loaded.Breakfast.Protein)
	})
}
