package mealplan

import (
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/shared"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// DaysPerWeek is the length of a plan
const DaysPerWeek = 7

// Meals per day bounds
const (
	MinMealsPerDay = 3
	MaxMealsPerDay = 6
)

// Slot is a named meal occasion within a day
type Slot struct {
	Name     string
	MealType MealType
}

var slotLayouts = map[int][]Slot{
	3: {
		{"breakfast", MealTypeBreakfast},
		{"lunch", MealTypeLunch},
		{"dinner", MealTypeDinner},
	},
	4: {
		{"breakfast", MealTypeBreakfast},
		{"lunch", MealTypeLunch},
		{"snack", MealTypeSnack},
		{"dinner", MealTypeDinner},
	},
	5: {
		{"breakfast", MealTypeBreakfast},
		{"morning_snack", MealTypeSnack},
		{"lunch", MealTypeLunch},
		{"afternoon_snack", MealTypeSnack},
		{"dinner", MealTypeDinner},
	},
	6: {
		{"breakfast", MealTypeBreakfast},
		{"morning_snack", MealTypeSnack},
		{"lunch", MealTypeLunch},
		{"afternoon_snack", MealTypeSnack},
		{"dinner", MealTypeDinner},
		{"evening_snack", MealTypeSnack},
	},
}

// SlotsFor resolves the ordered slot list for a meal count
func SlotsFor(mealsPerDay int) ([]Slot, error) {
	slots, ok := slotLayouts[mealsPerDay]
	if !ok {
		return nil, ErrMealsPerDayOutOfRange
	}
	out := make([]Slot, len(slots))
	copy(out, slots)
	return out, nil
}

// ParseWeekStart parses a YYYY-MM-DD date, rejecting impossible dates like 2024-02-30
func ParseWeekStart(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidWeekStart
	}
	return t, nil
}

// Strategy names how a plan was produced
type Strategy string

const (
	StrategyLocal  Strategy = "local"
	StrategyAI     Strategy = "ai"
	StrategyManual Strategy = "manual"
)

// Meal is one slot of a plan. Macro fields hold the slot target.
type Meal struct {
	ID         string    `json:"id"`
	MealPlanID string    `json:"mealPlanId"`
	Date       time.Time `json:"date"`
	Type       string    `json:"type"`
	Position   int       `json:"position"`
	Protein    float64   `json:"protein"`
	Carbs      float64   `json:"carbs"`
	Fat        float64   `json:"fat"`
	Calories   float64   `json:"calories"`
	RecipeID   *string   `json:"recipeId"`
	Recipe     *Recipe   `json:"recipe,omitempty"`
}

// Target returns the macro target recorded on the meal
func (m Meal) Target() MacroTarget {
	return MacroTarget{Protein: m.Protein, Carbs: m.Carbs, Fat: m.Fat}
}

// MealPlan is a week of meals, persisted as one unit
type MealPlan struct {
	shared.AggregateRoot `json:"-"`

	ID             string    `json:"id"`
	WeekStart      time.Time `json:"weekStart"`
	WeekEnd        time.Time `json:"weekEnd"`
	Goal           string    `json:"goal"`
	WeeklyIntentID *string   `json:"weeklyIntentId"`
	MealsPerDay    int       `json:"mealsPerDay"`
	Strategy       Strategy  `json:"strategy"`
	Meals          []Meal    `json:"meals"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewMealPlan creates an empty plan header for the week starting at weekStart
func NewMealPlan(id string, weekStart time.Time, mealsPerDay int, strategy Strategy, intent *WeeklyIntent) *MealPlan {
	plan := &MealPlan{
		ID:          id,
		WeekStart:   weekStart,
		WeekEnd:     weekStart.AddDate(0, 0, DaysPerWeek-1),
		MealsPerDay: mealsPerDay,
		Strategy:    strategy,
		Meals:       make([]Meal, 0, DaysPerWeek*mealsPerDay),
	}
	if intent != nil {
		plan.Goal = intent.Goal
		intentID := intent.ID
		plan.WeeklyIntentID = &intentID
	}
	return plan
}

// MarkGenerated raises the generation event once the plan is complete
func (p *MealPlan) MarkGenerated(at time.Time) {
	unmatched := 0
	for _, m := range p.Meals {
		if m.RecipeID == nil {
			unmatched++
		}
	}
	p.AddEvent(PlanGeneratedEvent{
		PlanID:         p.ID,
		WeekStart:      p.WeekStart.Format(DateLayout),
		Strategy:       p.Strategy,
		MealCount:      len(p.Meals),
		UnmatchedMeals: unmatched,
		At:             at,
	})
}

// PlanGeneratedEvent is raised when a generated plan has been assembled
type PlanGeneratedEvent struct {
	PlanID         string    `json:"planId"`
	WeekStart      string    `json:"weekStart"`
	Strategy       Strategy  `json:"strategy"`
	MealCount      int       `json:"mealCount"`
	UnmatchedMeals int       `json:"unmatchedMeals"`
	At             time.Time `json:"occurredAt"`
}

func (e PlanGeneratedEvent) EventName() string { return "mealplan.generated" }
func (e PlanGeneratedEvent) AggregateID() string { return e.PlanID }
func (e PlanGeneratedEvent) OccurredAt() time.Time { return e.At }
