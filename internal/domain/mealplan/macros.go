package mealplan

import (
	"math"
	"time"
)

// Energy density in kcal per gram
const (
	KcalPerGramProtein = 4
	KcalPerGramCarbs   = 4
	KcalPerGramFat     = 9
)

// MacroTarget is the desired grams of protein, carbohydrate and fat for one meal
type MacroTarget struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

// Calories derives energy from the macro grams
func (m MacroTarget) Calories() float64 {
	return m.Protein*KcalPerGramProtein + m.Carbs*KcalPerGramCarbs + m.Fat*KcalPerGramFat
}

// Validate rejects negative or non-finite values
func (m MacroTarget) Validate() error {
	for _, v := range []float64{m.Protein, m.Carbs, m.Fat} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNegativeMacro
		}
	}
	return nil
}

// MealType classifies which occasion a recipe or slot belongs to
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeSnack     MealType = "snack"
	MealTypeDinner    MealType = "dinner"
)

// ParseMealType parses a meal type name case-insensitively
func ParseMealType(s string) (MealType, error) {
	switch mt := MealType(normalizeToken(s)); mt {
	case MealTypeBreakfast, MealTypeLunch, MealTypeSnack, MealTypeDinner:
		return mt, nil
	default:
		return "", ErrInvalidMealType
	}
}

// MacroProfile holds one target per meal type. Snack slots share the snack target.
type MacroProfile struct {
	ID        string      `json:"id"`
	Breakfast MacroTarget `json:"breakfast"`
	Lunch     MacroTarget `json:"lunch"`
	Snack     MacroTarget `json:"snack"`
	Dinner    MacroTarget `json:"dinner"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// TargetFor returns the target configured for a meal type
func (p MacroProfile) TargetFor(mt MealType) MacroTarget {
	switch mt {
	case MealTypeBreakfast:
		return p.Breakfast
	case MealTypeLunch:
		return p.Lunch
	case MealTypeDinner:
		return p.Dinner
	default:
		return p.Snack
	}
}

// Validate checks every target
func (p MacroProfile) Validate() error {
	for _, t := range []MacroTarget{p.Breakfast, p.Lunch, p.Snack, p.Dinner} {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}
