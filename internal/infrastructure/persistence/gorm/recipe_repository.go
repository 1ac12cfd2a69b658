// Package gorm provides GORM-based repository implementations
package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"gorm.io/gorm"
)

// RecipeRepository implements the recipe repository interface using GORM
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// Create creates a new recipe and copies the generated id and timestamps back
func (r *RecipeRepository) Create(ctx context.Context, recipe *mealplan.Recipe) error {
	model := RecipeToModel(recipe)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("create recipe: %w", err)
	}

	recipe.ID = model.ID
	recipe.CreatedAt = model.CreatedAt
	recipe.UpdatedAt = model.UpdatedAt
	return nil
}

// Update replaces every mutable column of an existing recipe
func (r *RecipeRepository) Update(ctx context.Context, recipe *mealplan.Recipe) error {
	model := RecipeToModel(recipe)
	model.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Model(&RecipeModel{}).
		Where("id = ?", recipe.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("update recipe: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return outbound.ErrNotFound
	}

	recipe.UpdatedAt = model.UpdatedAt
	return nil
}

// Delete removes a recipe and unlinks the meals that referenced it
func (r *RecipeRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&MealModel{}).
			Where("recipe_id = ?", id).
			Update("recipe_id", nil).Error; err != nil {
			return fmt.Errorf("unlink meals: %w", err)
		}

		result := tx.Delete(&RecipeModel{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("delete recipe: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			return outbound.ErrNotFound
		}
		return nil
	})
}

// FindByID finds a recipe by ID
func (r *RecipeRepository) FindByID(ctx context.Context, id string) (*mealplan.Recipe, error) {
	var model RecipeModel

	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrNotFound
		}
		return nil, fmt.Errorf("find recipe: %w", result.Error)
	}

	return RecipeFromModel(&model), nil
}

// FindAll returns the whole pool in insertion order
func (r *RecipeRepository) FindAll(ctx context.Context) ([]*mealplan.Recipe, error) {
	var models []RecipeModel

	if err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}

	return recipesFromModels(models), nil
}

// FindByMealType returns recipes of the given type and untyped recipes.
// It backs GET /recipes?mealType=; the planner loads FindAll and filters per slot in memory.
func (r *RecipeRepository) FindByMealType(ctx context.Context, mealType mealplan.MealType) ([]*mealplan.Recipe, error) {
	var models []RecipeModel

	if err := r.db.WithContext(ctx).
		Where("meal_type = ? OR meal_type IS NULL", string(mealType)).
		Order("created_at ASC, id ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("load recipes for %s: %w", mealType, err)
	}

	return recipesFromModels(models), nil
}

// FindByTitle returns the oldest recipe whose title matches case-insensitively
func (r *RecipeRepository) FindByTitle(ctx context.Context, title string) (*mealplan.Recipe, error) {
	var model RecipeModel

	result := r.db.WithContext(ctx).
		Where("title_key = ?", mealplan.TitleKey(title)).
		Order("created_at ASC").
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrNotFound
		}
		return nil, fmt.Errorf("find recipe by title: %w", result.Error)
	}

	return RecipeFromModel(&model), nil
}

// List returns a page of recipes, newest first, with the total count
func (r *RecipeRepository) List(ctx context.Context, offset, limit int) ([]*mealplan.Recipe, int, error) {
	var models []RecipeModel
	var total int64

	// Count total
	if err := r.db.WithContext(ctx).Model(&RecipeModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}

	return recipesFromModels(models), int(total), nil
}

func recipesFromModels(models []RecipeModel) []*mealplan.Recipe {
	recipes := make([]*mealplan.Recipe, 0, len(models))
	for i := range models {
		recipes = append(recipes, RecipeFromModel(&models[i]))
	}
	return recipes
}
