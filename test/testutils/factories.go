// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/google/uuid"
)

// RecipeBuilder provides a fluent interface for building test recipes
type RecipeBuilder struct {
	recipe mealplan.Recipe
}

// NewRecipeBuilder creates a builder with random but valid values
func NewRecipeBuilder() *RecipeBuilder {
	return NewRecipeBuilderWithSeed(time.Now().UnixNano())
}

// NewRecipeBuilderWithSeed creates a builder whose random values are reproducible
func NewRecipeBuilderWithSeed(seed int64) *RecipeBuilder {
	faker := gofakeit.New(seed)

	return &RecipeBuilder{
		recipe: mealplan.Recipe{
			ID:                uuid.NewString(),
			Title:             faker.Dessert() + " " + faker.Noun(),
			Ingredients:       []string{faker.Vegetable(), faker.Fruit(), faker.Noun()},
			Instructions:      faker.Sentence(12),
			ProteinPerServing: float64(faker.Number(5, 40)),
			CarbsPerServing:   float64(faker.Number(5, 80)),
			FatPerServing:     float64(faker.Number(1, 30)),
			Source:            mealplan.SourceManual,
			Servings:          faker.Number(1, 6),
			Tags:              []string{},
		},
	}
}

// WithTitle sets the recipe title
func (rb *RecipeBuilder) WithTitle(title string) *RecipeBuilder {
	rb.recipe.Title = title
	return rb
}

// WithMacros sets per-serving protein, carbs and fat
func (rb *RecipeBuilder) WithMacros(protein, carbs, fat float64) *RecipeBuilder {
	rb.recipe.ProteinPerServing = protein
	rb.recipe.CarbsPerServing = carbs
	rb.recipe.FatPerServing = fat
	return rb
}

// WithMealType sets the meal type, empty means any slot
func (rb *RecipeBuilder) WithMealType(mt mealplan.MealType) *RecipeBuilder {
	rb.recipe.MealType = mt
	return rb
}

// WithIngredients sets the ingredient lines
func (rb *RecipeBuilder) WithIngredients(ingredients ...string) *RecipeBuilder {
	rb.recipe.Ingredients = ingredients
	return rb
}

// WithTags sets the recipe tags
func (rb *RecipeBuilder) WithTags(tags ...string) *RecipeBuilder {
	rb.recipe.Tags = tags
	return rb
}

// WithSource sets the recipe source
func (rb *RecipeBuilder) WithSource(source mealplan.Source) *RecipeBuilder {
	rb.recipe.Source = source
	return rb
}

// Build returns a normalized copy of the recipe
func (rb *RecipeBuilder) Build() *mealplan.Recipe {
	r := rb.recipe
	r.Ingredients = append([]string(nil), rb.recipe.Ingredients...)
	r.Tags = append([]string(nil), rb.recipe.Tags...)
	r.CaloriesPerServing = r.Macros().Calories()
	r.Normalize()
	return &r
}

// NewMacroProfile returns a profile with the same target for every meal type
func NewMacroProfile(target mealplan.MacroTarget) *mealplan.MacroProfile {
	return &mealplan.MacroProfile{
		ID:        uuid.NewString(),
		Breakfast: target,
		Lunch:     target,
		Snack:     target,
		Dinner:    target,
		UpdatedAt: time.Now(),
	}
}

// NewRecipePool builds n random recipes with a fixed seed
func NewRecipePool(n int, seed int64) []*mealplan.Recipe {
	pool := make([]*mealplan.Recipe, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, NewRecipeBuilderWithSeed(seed+int64(i)).Build())
	}
	return pool
}
