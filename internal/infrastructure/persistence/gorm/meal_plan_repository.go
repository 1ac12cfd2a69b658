package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MealPlanRepository implements the meal plan repository interface using GORM
type MealPlanRepository struct {
	db *gorm.DB
}

// NewMealPlanRepository creates a new meal plan repository
func NewMealPlanRepository(db *gorm.DB) *MealPlanRepository {
	return &MealPlanRepository{db: db}
}

// SavePlan writes the new recipes, the plan header and every meal in one
// transaction. Any failed insert rolls back all of them.
func (r *MealPlanRepository) SavePlan(ctx context.Context, plan *mealplan.MealPlan, newRecipes []*mealplan.Recipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, recipe := range newRecipes {
			model := RecipeToModel(recipe)
			if err := tx.Create(model).Error; err != nil {
				return fmt.Errorf("create recipe %q: %w", recipe.Title, err)
			}
			recipe.ID = model.ID
			recipe.CreatedAt = model.CreatedAt
			recipe.UpdatedAt = model.UpdatedAt
		}

		header := PlanToModel(plan)
		if err := tx.Omit(clause.Associations).Create(header).Error; err != nil {
			return fmt.Errorf("create plan header: %w", err)
		}
		plan.ID = header.ID
		plan.CreatedAt = header.CreatedAt

		for i := range plan.Meals {
			meal := &plan.Meals[i]
			meal.MealPlanID = plan.ID

			model := MealToModel(meal)
			if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
				return fmt.Errorf("create meal %d: %w", i, err)
			}
			meal.ID = model.ID
		}
		return nil
	})
}

// FindByID loads a plan with its meals and their recipes
func (r *MealPlanRepository) FindByID(ctx context.Context, id string) (*mealplan.MealPlan, error) {
	var model MealPlanModel

	result := r.db.WithContext(ctx).
		Preload("Meals", orderedMeals).
		Preload("Meals.Recipe").
		First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, outbound.ErrNotFound
		}
		return nil, fmt.Errorf("find meal plan: %w", result.Error)
	}

	return PlanFromModel(&model), nil
}

// List returns a page of plan headers, newest week first. Meals are not loaded.
func (r *MealPlanRepository) List(ctx context.Context, offset, limit int) ([]*mealplan.MealPlan, int, error) {
	var models []MealPlanModel
	var total int64

	if err := r.db.WithContext(ctx).Model(&MealPlanModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count meal plans: %w", err)
	}

	if err := r.db.WithContext(ctx).
		Order("week_start DESC, created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("list meal plans: %w", err)
	}

	plans := make([]*mealplan.MealPlan, 0, len(models))
	for i := range models {
		plans = append(plans, PlanFromModel(&models[i]))
	}
	return plans, int(total), nil
}

// Delete removes a plan and its meals
func (r *MealPlanRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meal_plan_id = ?", id).Delete(&MealModel{}).Error; err != nil {
			return fmt.Errorf("delete meals: %w", err)
		}

		result := tx.Delete(&MealPlanModel{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("delete meal plan: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return outbound.ErrNotFound
		}
		return nil
	})
}

// ListMeals returns the meals of a plan ordered by date then slot
func (r *MealPlanRepository) ListMeals(ctx context.Context, planID string) ([]mealplan.Meal, error) {
	if err := r.ensurePlan(ctx, planID); err != nil {
		return nil, err
	}

	var models []MealModel
	if err := orderedMeals(r.db.WithContext(ctx)).
		Preload("Recipe").
		Where("meal_plan_id = ?", planID).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}

	meals := make([]mealplan.Meal, 0, len(models))
	for i := range models {
		meals = append(meals, MealFromModel(&models[i]))
	}
	return meals, nil
}

// AddMeal appends a meal to an existing plan
func (r *MealPlanRepository) AddMeal(ctx context.Context, meal *mealplan.Meal) error {
	if err := r.ensurePlan(ctx, meal.MealPlanID); err != nil {
		return err
	}

	model := MealToModel(meal)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return fmt.Errorf("add meal: %w", err)
	}
	meal.ID = model.ID
	return nil
}

// DeleteMeal removes one meal from a plan
func (r *MealPlanRepository) DeleteMeal(ctx context.Context, planID, mealID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND meal_plan_id = ?", mealID, planID).
		Delete(&MealModel{})
	if result.Error != nil {
		return fmt.Errorf("delete meal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return outbound.ErrNotFound
	}
	return nil
}

func (r *MealPlanRepository) ensurePlan(ctx context.Context, planID string) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&MealPlanModel{}).
		Where("id = ?", planID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check meal plan: %w", err)
	}
	if count == 0 {
		return outbound.ErrNotFound
	}
	return nil
}

func orderedMeals(db *gorm.DB) *gorm.DB {
	return db.Order("date ASC, position ASC")
}
