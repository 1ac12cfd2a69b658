package aiplan

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidResponse marks a generated payload that does not match the plan schema
var ErrInvalidResponse = stderrors.New("generated plan does not match the expected schema")

type planResponse struct {
	Days []dayResponse `json:"days" validate:"required,len=7,dive"`
}

type dayResponse struct {
	Date  string         `json:"date"`
	Meals []mealResponse `json:"meals" validate:"required,min=1,dive"`
}

type mealResponse struct {
	Type   string         `json:"type" validate:"required"`
	Recipe recipeResponse `json:"recipe"`
}

type recipeResponse struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Ingredients  []string `json:"ingredients" validate:"required,min=1,dive,required"`
	Instructions string   `json:"instructions"`
	Calories     float64  `json:"calories" validate:"gte=0"`
	Protein      float64  `json:"protein" validate:"gte=0"`
	Carbs        float64  `json:"carbs" validate:"gte=0"`
	Fat          float64  `json:"fat" validate:"gte=0"`
	Tags         []string `json:"tags"`
}

// extractJSON trims prose or code fences around the outermost JSON object
func extractJSON(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// parseResponse decodes and validates a generated plan. On success the meals
// of every day are returned in slot order.
func parseResponse(v *validator.Validate, raw string, slots []mealplan.Slot) (*planResponse, error) {
	body, ok := extractJSON(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrInvalidResponse)
	}

	var resp planResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := v.Struct(&resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	for i := range resp.Days {
		ordered, err := orderMeals(resp.Days[i].Meals, slots)
		if err != nil {
			return nil, fmt.Errorf("%w: day %d: %v", ErrInvalidResponse, i+1, err)
		}
		resp.Days[i].Meals = ordered
	}
	return &resp, nil
}

// orderMeals requires exactly one meal per slot and returns them in slot order
func orderMeals(meals []mealResponse, slots []mealplan.Slot) ([]mealResponse, error) {
	if len(meals) != len(slots) {
		return nil, fmt.Errorf("expected %d meals, got %d", len(slots), len(meals))
	}
	byType := make(map[string]mealResponse, len(meals))
	for _, m := range meals {
		key := strings.ToLower(strings.TrimSpace(m.Type))
		if _, dup := byType[key]; dup {
			return nil, fmt.Errorf("meal %q appears twice", key)
		}
		byType[key] = m
	}
	ordered := make([]mealResponse, 0, len(slots))
	for _, slot := range slots {
		m, ok := byType[slot.Name]
		if !ok {
			return nil, fmt.Errorf("missing meal %q", slot.Name)
		}
		ordered = append(ordered, m)
	}
	return ordered, nil
}
