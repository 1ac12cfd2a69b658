// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
)

// ErrNotFound is returned by repositories when a record does not exist
var ErrNotFound = errors.New("record not found")

// ErrCacheMiss is returned by caches when a key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// RecipeRepository defines the interface for recipe persistence
type RecipeRepository interface {
	Create(ctx context.Context, recipe *mealplan.Recipe) error
	Update(ctx context.Context, recipe *mealplan.Recipe) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*mealplan.Recipe, error)

	// FindAll returns the full pool in creation order
	FindAll(ctx context.Context) ([]*mealplan.Recipe, error)
	// FindByMealType returns recipes of the given type plus recipes with no type
	FindByMealType(ctx context.Context, mealType mealplan.MealType) ([]*mealplan.Recipe, error)
	// FindByTitle matches the title case-insensitively and exactly
	FindByTitle(ctx context.Context, title string) (*mealplan.Recipe, error)
	List(ctx context.Context, offset, limit int) ([]*mealplan.Recipe, int, error)
}

// MacroProfileRepository stores the single active macro profile
type MacroProfileRepository interface {
	// Get returns the most recently updated profile or ErrNotFound
	Get(ctx context.Context) (*mealplan.MacroProfile, error)
	Save(ctx context.Context, profile *mealplan.MacroProfile) error
}

// PreferencesRepository stores the single active preferences record
type PreferencesRepository interface {
	Get(ctx context.Context) (*mealplan.Preferences, error)
	Save(ctx context.Context, prefs *mealplan.Preferences) error
}

// WeeklyIntentRepository stores weekly intents
type WeeklyIntentRepository interface {
	Create(ctx context.Context, intent *mealplan.WeeklyIntent) error
	// List returns all intents ordered by week start
	List(ctx context.Context) ([]mealplan.WeeklyIntent, error)
}

// MealPlanRepository defines the interface for meal plan persistence
type MealPlanRepository interface {
	// SavePlan persists the header, every meal and the given new recipes in
	// one transaction. Nothing is written when any insert fails.
	SavePlan(ctx context.Context, plan *mealplan.MealPlan, newRecipes []*mealplan.Recipe) error
	// FindByID loads a plan with its meals ordered by date then slot and their recipes
	FindByID(ctx context.Context, id string) (*mealplan.MealPlan, error)
	List(ctx context.Context, offset, limit int) ([]*mealplan.MealPlan, int, error)
	Delete(ctx context.Context, id string) error

	ListMeals(ctx context.Context, planID string) ([]mealplan.Meal, error)
	AddMeal(ctx context.Context, meal *mealplan.Meal) error
	DeleteMeal(ctx context.Context, planID, mealID string) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	// Get returns ErrCacheMiss when the key is absent or expired
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
