// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
)

// PlanningService generates weekly meal plans.
// Both strategies converge on the same persisted shape.
type PlanningService interface {
	Generate(ctx context.Context, cmd GenerateCommand) (*mealplan.MealPlan, error)
}

// GenerateCommand requests a new plan. MealsPerDay zero means the configured default.
type GenerateCommand struct {
	WeekStart   string
	MealsPerDay int
	Strategy    mealplan.Strategy
}

// RecipeService manages stored recipes and external search
type RecipeService interface {
	CreateRecipe(ctx context.Context, recipe *mealplan.Recipe) (*mealplan.Recipe, error)
	UpdateRecipe(ctx context.Context, id string, recipe *mealplan.Recipe) (*mealplan.Recipe, error)
	DeleteRecipe(ctx context.Context, id string) error
	GetRecipe(ctx context.Context, id string) (*mealplan.Recipe, error)
	ListRecipes(ctx context.Context, params PaginationParams) (*RecipeList, error)
	// ListRecipesByMealType returns every recipe usable for the slot, untyped ones included
	ListRecipesByMealType(ctx context.Context, mealType mealplan.MealType) (*RecipeList, error)

	SearchExternal(ctx context.Context, query SearchQuery) (*SearchResult, error)
}

// SearchQuery is an external recipe search request
type SearchQuery struct {
	Query string
	Limit int
}

// SearchResult carries external hits. Degraded is set when the upstream failed
// and the result is an empty fallback.
type SearchResult struct {
	Recipes  []*mealplan.Recipe
	Degraded bool
	Cached   bool
}

// SettingsService manages the configuration the planner reads
type SettingsService interface {
	GetMacroProfile(ctx context.Context) (*mealplan.MacroProfile, error)
	SaveMacroProfile(ctx context.Context, profile *mealplan.MacroProfile) (*mealplan.MacroProfile, error)
	GetPreferences(ctx context.Context) (*mealplan.Preferences, error)
	SavePreferences(ctx context.Context, prefs *mealplan.Preferences) (*mealplan.Preferences, error)
	ListWeeklyIntents(ctx context.Context) ([]mealplan.WeeklyIntent, error)
	CreateWeeklyIntent(ctx context.Context, cmd CreateIntentCommand) (*mealplan.WeeklyIntent, error)
	// IntentFor applies the configured selection policy; nil means no intent applies
	IntentFor(ctx context.Context, weekStart time.Time) (*mealplan.WeeklyIntent, error)
}

// CreateIntentCommand contains data for a new weekly intent
type CreateIntentCommand struct {
	WeekStart string
	Goal      string
	Notes     string
}

// MealPlanService is the passthrough CRUD surface over stored plans
type MealPlanService interface {
	GetPlan(ctx context.Context, id string) (*mealplan.MealPlan, error)
	ListPlans(ctx context.Context, params PaginationParams) (*MealPlanList, error)
	CreatePlan(ctx context.Context, cmd CreatePlanCommand) (*mealplan.MealPlan, error)
	DeletePlan(ctx context.Context, id string) error

	ListMeals(ctx context.Context, planID string) ([]mealplan.Meal, error)
	AddMeal(ctx context.Context, planID string, cmd AddMealCommand) (*mealplan.Meal, error)
	DeleteMeal(ctx context.Context, planID, mealID string) error
}

// CreatePlanCommand creates an empty, manually curated plan
type CreatePlanCommand struct {
	WeekStart   string
	MealsPerDay int
	Goal        string
}

// AddMealCommand adds one meal to an existing plan
type AddMealCommand struct {
	Date     string
	Type     string
	Protein  float64
	Carbs    float64
	Fat      float64
	RecipeID *string
}

// PaginationParams for list queries
type PaginationParams struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the page
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// RecipeList is a page of recipes
type RecipeList struct {
	Recipes []*mealplan.Recipe `json:"recipes"`
	Total   int                `json:"total"`
	Page    int                `json:"page"`
	Limit   int                `json:"limit"`
}

// MealPlanList is a page of plan headers
type MealPlanList struct {
	Plans []*mealplan.MealPlan `json:"plans"`
	Total int                  `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}
