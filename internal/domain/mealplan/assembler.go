package mealplan

import (
	"github.com/google/uuid"
)

// AssembleInput is everything the assembler needs for one week
type AssembleInput struct {
	WeekStart   string
	MealsPerDay int
	Profile     *MacroProfile
	Preferences *Preferences
	Intent      *WeeklyIntent
}

// Assembler fills a week of slots using the matcher
type Assembler struct {
	matcher *Matcher
}

// NewAssembler creates an assembler around a matcher
func NewAssembler(matcher *Matcher) *Assembler {
	return &Assembler{matcher: matcher}
}

// Matcher exposes the matcher used for slot selection
func (a *Assembler) Matcher() *Matcher {
	return a.matcher
}

// Assemble builds an unsaved plan of 7 x mealsPerDay meals. Unmatched slots
// keep a nil RecipeID and analytic calories. The pool is not modified.
func (a *Assembler) Assemble(pool []*Recipe, in AssembleInput) (*MealPlan, error) {
	weekStart, err := ParseWeekStart(in.WeekStart)
	if err != nil {
		return nil, err
	}
	slots, err := SlotsFor(in.MealsPerDay)
	if err != nil {
		return nil, err
	}
	if in.Profile == nil {
		return nil, ErrMissingMacroProfile
	}

	plan := NewMealPlan(uuid.NewString(), weekStart, in.MealsPerDay, StrategyLocal, in.Intent)
	for day := 0; day < DaysPerWeek; day++ {
		date := weekStart.AddDate(0, 0, day)
		for pos, slot := range slots {
			target := in.Profile.TargetFor(slot.MealType)
			meal := Meal{
				ID:         uuid.NewString(),
				MealPlanID: plan.ID,
				Date:       date,
				Type:       slot.Name,
				Position:   pos,
				Protein:    target.Protein,
				Carbs:      target.Carbs,
				Fat:        target.Fat,
				Calories:   target.Calories(),
			}
			if match, ok := a.matcher.Select(pool, CriteriaFor(slot.MealType, target, in.Preferences)); ok {
				recipeID := match.Recipe.ID
				meal.RecipeID = &recipeID
				meal.Recipe = match.Recipe
			}
			plan.Meals = append(plan.Meals, meal)
		}
	}
	return plan, nil
}
