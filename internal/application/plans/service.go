// Package plans exposes stored meal plans and their meals for manual curation
package plans

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/inbound"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"github.com/giuseppemarasca93/dietcoach/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// List limits
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service implements inbound.MealPlanService
type Service struct {
	plans   outbound.MealPlanRepository
	recipes outbound.RecipeRepository
	logger  *zap.Logger
	now     func() time.Time
}

var _ inbound.MealPlanService = (*Service)(nil)

// NewService creates a new meal plan service
func NewService(plans outbound.MealPlanRepository, recipes outbound.RecipeRepository, logger *zap.Logger) *Service {
	return &Service{
		plans:   plans,
		recipes: recipes,
		logger:  logger.Named("mealplan-service"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetPlan loads a plan with its meals
func (s *Service) GetPlan(ctx context.Context, id string) (*mealplan.MealPlan, error) {
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, planError(err, "find meal plan")
	}
	return plan, nil
}

// ListPlans returns a page of plan headers, newest week first
func (s *Service) ListPlans(ctx context.Context, params inbound.PaginationParams) (*inbound.MealPlanList, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = DefaultPageSize
	}
	if params.Limit > MaxPageSize {
		params.Limit = MaxPageSize
	}

	items, total, err := s.plans.List(ctx, params.Offset(), params.Limit)
	if err != nil {
		return nil, errors.NewDatabaseError("list meal plans", err)
	}

	return &inbound.MealPlanList{Plans: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// CreatePlan stores an empty plan header for manual curation
func (s *Service) CreatePlan(ctx context.Context, cmd inbound.CreatePlanCommand) (*mealplan.MealPlan, error) {
	weekStart, err := mealplan.ParseWeekStart(cmd.WeekStart)
	if err != nil {
		return nil, errors.NewValidationError(err.Error()).WithCause(err)
	}
	mealsPerDay := cmd.MealsPerDay
	if mealsPerDay == 0 {
		mealsPerDay = mealplan.MinMealsPerDay
	}
	if _, err := mealplan.SlotsFor(mealsPerDay); err != nil {
		return nil, errors.NewValidationError(err.Error()).WithCause(err)
	}

	plan := mealplan.NewMealPlan(uuid.NewString(), weekStart, mealsPerDay, mealplan.StrategyManual, nil)
	plan.Goal = strings.TrimSpace(cmd.Goal)
	plan.CreatedAt = s.now()

	if err := s.plans.SavePlan(ctx, plan, nil); err != nil {
		return nil, errors.NewDatabaseError("create meal plan", err)
	}

	s.logger.Info("Manual meal plan created",
		zap.String("plan_id", plan.ID),
		zap.String("week_start", cmd.WeekStart),
	)
	return plan, nil
}

// DeletePlan removes a plan and its meals
func (s *Service) DeletePlan(ctx context.Context, id string) error {
	if err := s.plans.Delete(ctx, id); err != nil {
		return planError(err, "delete meal plan")
	}
	s.logger.Info("Meal plan deleted", zap.String("plan_id", id))
	return nil
}

// ListMeals returns the meals of a plan in date and slot order
func (s *Service) ListMeals(ctx context.Context, planID string) ([]mealplan.Meal, error) {
	meals, err := s.plans.ListMeals(ctx, planID)
	if err != nil {
		return nil, planError(err, "list meals")
	}
	return meals, nil
}

// AddMeal appends a meal to a plan. The date must fall inside the plan week
// and a referenced recipe must exist.
func (s *Service) AddMeal(ctx context.Context, planID string, cmd inbound.AddMealCommand) (*mealplan.Meal, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		return nil, planError(err, "find meal plan")
	}

	date, err := time.Parse(mealplan.DateLayout, cmd.Date)
	if err != nil {
		return nil, errors.NewValidationError("date must be a calendar date in YYYY-MM-DD format")
	}
	if date.Before(plan.WeekStart) || date.After(plan.WeekEnd) {
		return nil, errors.NewValidationError("date must fall within the plan week").
			WithMetadata("weekStart", plan.WeekStart.Format(mealplan.DateLayout)).
			WithMetadata("weekEnd", plan.WeekEnd.Format(mealplan.DateLayout))
	}

	slot := strings.ToLower(strings.TrimSpace(cmd.Type))
	if slot == "" {
		return nil, errors.NewValidationError("meal type is required")
	}

	target := mealplan.MacroTarget{Protein: cmd.Protein, Carbs: cmd.Carbs, Fat: cmd.Fat}
	if err := target.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error()).WithCause(err)
	}

	if cmd.RecipeID != nil {
		if _, err := s.recipes.FindByID(ctx, *cmd.RecipeID); err != nil {
			if stderrors.Is(err, outbound.ErrNotFound) {
				return nil, errors.NewValidationError("recipeId does not reference an existing recipe")
			}
			return nil, errors.NewDatabaseError("find recipe", err)
		}
	}

	position := 0
	for _, m := range plan.Meals {
		if m.Date.Equal(date) && m.Position >= position {
			position = m.Position + 1
		}
	}

	meal := &mealplan.Meal{
		ID:         uuid.NewString(),
		MealPlanID: plan.ID,
		Date:       date,
		Type:       slot,
		Position:   position,
		Protein:    target.Protein,
		Carbs:      target.Carbs,
		Fat:        target.Fat,
		Calories:   target.Calories(),
		RecipeID:   cmd.RecipeID,
	}
	if err := s.plans.AddMeal(ctx, meal); err != nil {
		return nil, planError(err, "add meal")
	}

	return meal, nil
}

// DeleteMeal removes one meal from a plan
func (s *Service) DeleteMeal(ctx context.Context, planID, mealID string) error {
	if err := s.plans.DeleteMeal(ctx, planID, mealID); err != nil {
		if stderrors.Is(err, outbound.ErrNotFound) {
			return errors.NewNotFoundError("meal")
		}
		return errors.NewDatabaseError("delete meal", err)
	}
	return nil
}

func planError(err error, operation string) error {
	if stderrors.Is(err, outbound.ErrNotFound) {
		return errors.NewNotFoundError("meal plan")
	}
	return errors.NewDatabaseError(operation, err)
}
