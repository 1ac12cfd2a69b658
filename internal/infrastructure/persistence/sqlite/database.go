// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	gormModels "github.com/giuseppemarasca93/dietcoach/internal/infrastructure/persistence/gorm"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupDatabase opens the SQLite database and migrates the schema
func SetupDatabase(dbPath string, gormLogger logger.Interface) (*gorm.DB, error) {
	// Use an in-memory database if no path provided
	if dbPath == "" {
		dbPath = "file::memory:?cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps in-memory data alive
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(gormModels.Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// SeedDatabase populates an empty recipe table with a starter pool
func SeedDatabase(ctx context.Context, db *gorm.DB) (int, error) {
	var recipeCount int64
	if err := db.WithContext(ctx).Model(&gormModels.RecipeModel{}).Count(&recipeCount).Error; err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	if recipeCount > 0 {
		return 0, nil // Already seeded
	}

	repo := gormModels.NewRecipeRepository(db)
	seeded := 0
	for _, r := range starterRecipes() {
		r.Normalize()
		r.CaloriesPerServing = r.Macros().Calories()
		if err := repo.Create(ctx, r); err != nil {
			return seeded, fmt.Errorf("failed to create demo recipe %q: %w", r.Title, err)
		}
		seeded++
	}

	return seeded, nil
}

func starterRecipes() []*mealplan.Recipe {
	recipe := func(title string, mt mealplan.MealType, p, c, f float64, ingredients, tags []string) *mealplan.Recipe {
		return &mealplan.Recipe{
			Title:             title,
			MealType:          mt,
			ProteinPerServing: p,
			CarbsPerServing:   c,
			FatPerServing:     f,
			Ingredients:       ingredients,
			Tags:              tags,
			Source:            mealplan.SourceManual,
			Servings:          1,
		}
	}

	return []*mealplan.Recipe{
		recipe("Greek Yogurt Parfait", mealplan.MealTypeBreakfast, 28, 45, 10,
			[]string{"greek yogurt", "granola", "blueberries", "honey"}, []string{"vegetarian", "quick"}),
		recipe("Spinach Omelette with Toast", mealplan.MealTypeBreakfast, 30, 35, 18,
			[]string{"eggs", "spinach", "feta", "wholegrain bread"}, []string{"vegetarian", "high_satiety"}),
		recipe("Overnight Oats", mealplan.MealTypeBreakfast, 22, 60, 12,
			[]string{"rolled oats", "milk", "chia seeds", "banana"}, []string{"vegetarian", "meal_prep", "high_satiety"}),
		recipe("Chicken Quinoa Bowl", mealplan.MealTypeLunch, 42, 55, 14,
			[]string{"chicken breast", "quinoa", "cucumber", "cherry tomatoes", "olive oil"}, []string{"high_protein", "high_satiety"}),
		recipe("Tuna Nicoise Salad", mealplan.MealTypeLunch, 35, 30, 16,
			[]string{"tuna", "green beans", "potatoes", "eggs", "olives"}, []string{"gluten_free"}),
		recipe("Lentil Soup", mealplan.MealTypeLunch, 24, 52, 8,
			[]string{"red lentils", "carrots", "onion", "cumin", "vegetable stock"}, []string{"vegan", "high_satiety"}),
		recipe("Salmon with Roasted Vegetables", mealplan.MealTypeDinner, 40, 30, 22,
			[]string{"salmon fillet", "broccoli", "sweet potato", "olive oil"}, []string{"gluten_free", "high_satiety"}),
		recipe("Turkey Chili", mealplan.MealTypeDinner, 38, 45, 12,
			[]string{"ground turkey", "kidney beans", "tomatoes", "peppers", "chili powder"}, []string{"high_protein", "meal_prep"}),
		recipe("Tofu Stir Fry", mealplan.MealTypeDinner, 26, 50, 15,
			[]string{"firm tofu", "rice", "broccoli", "soy sauce", "ginger"}, []string{"vegan"}),
		recipe("Apple with Peanut Butter", mealplan.MealTypeSnack, 8, 25, 16,
			[]string{"apple", "peanut butter"}, []string{"vegetarian", "quick"}),
		recipe("Cottage Cheese and Berries", mealplan.MealTypeSnack, 20, 15, 4,
			[]string{"cottage cheese", "strawberries"}, []string{"vegetarian", "high_protein"}),
		recipe("Hummus Veggie Wrap", "", 15, 45, 14,
			[]string{"wholegrain tortilla", "hummus", "carrots", "lettuce"}, []string{"vegan", "quick"}),
	}
}
