package mealplan

import (
	"strings"
	"time"
)

// Source records where a recipe came from
type Source string

const (
	SourceManual Source = "manual"
	SourceOpenAI Source = "openai"
	SourceGemini Source = "gemini"
	SourceEdamam Source = "edamam"
)

// Valid reports whether the source is known
func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceOpenAI, SourceGemini, SourceEdamam:
		return true
	}
	return false
}

// Recipe is a dish with per-serving macros. An empty MealType fits any slot.
// Ingredients and Tags hold normalized lowercase tokens.
type Recipe struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Ingredients        []string  `json:"ingredients"`
	Instructions       string    `json:"instructions"`
	CaloriesPerServing float64   `json:"caloriesPerServing"`
	ProteinPerServing  float64   `json:"proteinPerServing"`
	CarbsPerServing    float64   `json:"carbsPerServing"`
	FatPerServing      float64   `json:"fatPerServing"`
	MealType           MealType  `json:"mealType,omitempty"`
	Tags               []string  `json:"tags"`
	Source             Source    `json:"source"`
	Servings           int       `json:"servings"`
	ExternalID         string    `json:"externalId,omitempty"`
	SourceURL          string    `json:"sourceUrl,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Normalize applies the token normalization and defaults used everywhere a
// recipe enters the system
func (r *Recipe) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Ingredients = NormalizeTokens(r.Ingredients)
	r.Tags = NormalizeTokens(r.Tags)
	r.MealType = MealType(normalizeToken(string(r.MealType)))
	if r.Source == "" {
		r.Source = SourceManual
	}
	if r.Servings == 0 {
		r.Servings = 1
	}
}

// Validate checks the recipe invariants
func (r *Recipe) Validate() error {
	if r.Title == "" {
		return ErrTitleRequired
	}
	if len(r.Title) > 200 {
		return ErrTitleTooLong
	}
	if r.Servings < 0 {
		return ErrInvalidServings
	}
	if !r.Source.Valid() {
		return ErrInvalidSource
	}
	if r.MealType != "" {
		if _, err := ParseMealType(string(r.MealType)); err != nil {
			return err
		}
	}
	if r.CaloriesPerServing < 0 {
		return ErrNegativeMacro
	}
	return r.Macros().Validate()
}

// Macros returns the per-serving macros
func (r *Recipe) Macros() MacroTarget {
	return MacroTarget{Protein: r.ProteinPerServing, Carbs: r.CarbsPerServing, Fat: r.FatPerServing}
}

// FitsMealType reports whether the recipe may fill a slot of the given type
func (r *Recipe) FitsMealType(mt MealType) bool {
	return r.MealType == "" || r.MealType == mt
}

// TitleKey is the case-insensitive de-duplication key
func (r *Recipe) TitleKey() string {
	return TitleKey(r.Title)
}

// TitleKey normalizes a title for case-insensitive exact matching
func TitleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
