package handlers

import (
	"encoding/json"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
)

// GenerateRequest is the body of both generation endpoints
type GenerateRequest struct {
	WeekStart   string `json:"weekStart" binding:"required"`
	MealsPerDay *int   `json:"mealsPerDay" binding:"omitempty,min=3,max=6"`
}

// RecipeRequest creates or replaces a recipe
type RecipeRequest struct {
	Title              string     `json:"title" binding:"required,max=200"`
	Ingredients        StringList `json:"ingredients"`
	Instructions       string     `json:"instructions"`
	CaloriesPerServing float64    `json:"caloriesPerServing" binding:"gte=0"`
	ProteinPerServing  float64    `json:"proteinPerServing" binding:"gte=0"`
	CarbsPerServing    float64    `json:"carbsPerServing" binding:"gte=0"`
	FatPerServing      float64    `json:"fatPerServing" binding:"gte=0"`
	MealType           *string    `json:"mealType" binding:"omitempty,mealtype"`
	Tags               StringList `json:"tags"`
	Source             string     `json:"source" binding:"omitempty,oneof=manual openai gemini edamam"`
	Servings           int        `json:"servings" binding:"gte=0"`
	ExternalID         string     `json:"externalId"`
	SourceURL          string     `json:"sourceUrl" binding:"omitempty,url"`
}

func (r RecipeRequest) toDomain() *mealplan.Recipe {
	recipe := &mealplan.Recipe{
		Title:              r.Title,
		Ingredients:        r.Ingredients,
		Instructions:       r.Instructions,
		CaloriesPerServing: r.CaloriesPerServing,
		ProteinPerServing:  r.ProteinPerServing,
		CarbsPerServing:    r.CarbsPerServing,
		FatPerServing:      r.FatPerServing,
		Tags:               r.Tags,
		Source:             mealplan.Source(r.Source),
		Servings:           r.Servings,
		ExternalID:         r.ExternalID,
		SourceURL:          r.SourceURL,
	}
	if r.MealType != nil {
		recipe.MealType = mealplan.MealType(*r.MealType)
	}
	return recipe
}

// MacroTargetRequest is one meal's target in grams
type MacroTargetRequest struct {
	Protein float64 `json:"protein" binding:"gte=0"`
	Carbs   float64 `json:"carbs" binding:"gte=0"`
	Fat     float64 `json:"fat" binding:"gte=0"`
}

func (m MacroTargetRequest) toDomain() mealplan.MacroTarget {
	return mealplan.MacroTarget{Protein: m.Protein, Carbs: m.Carbs, Fat: m.Fat}
}

// MacroProfileRequest upserts the macro profile
type MacroProfileRequest struct {
	Breakfast MacroTargetRequest `json:"breakfast"`
	Lunch     MacroTargetRequest `json:"lunch"`
	Snack     MacroTargetRequest `json:"snack"`
	Dinner    MacroTargetRequest `json:"dinner"`
}

func (r MacroProfileRequest) toDomain() *mealplan.MacroProfile {
	return &mealplan.MacroProfile{
		Breakfast: r.Breakfast.toDomain(),
		Lunch:     r.Lunch.toDomain(),
		Snack:     r.Snack.toDomain(),
		Dinner:    r.Dinner.toDomain(),
	}
}

// PreferencesRequest upserts the preferences. List fields accept either a JSON
// array or comma separated text.
type PreferencesRequest struct {
	ExcludedIngredients StringList `json:"excludedIngredients"`
	PreferredCuisines   StringList `json:"preferredCuisines"`
	PreferredTags       StringList `json:"preferredTags"`
	AvoidedTags         StringList `json:"avoidedTags"`
	RequiredTags        StringList `json:"requiredTags"`
	SatietyLevel        string     `json:"satietyLevel" binding:"max=32"`
	CookingEffort       string     `json:"cookingEffort" binding:"max=32"`
}

func (r PreferencesRequest) toDomain() *mealplan.Preferences {
	return &mealplan.Preferences{
		ExcludedIngredients: r.ExcludedIngredients,
		PreferredCuisines:   r.PreferredCuisines,
		PreferredTags:       r.PreferredTags,
		AvoidedTags:         r.AvoidedTags,
		RequiredTags:        r.RequiredTags,
		SatietyLevel:        r.SatietyLevel,
		CookingEffort:       r.CookingEffort,
	}
}

// WeeklyIntentRequest creates a weekly intent
type WeeklyIntentRequest struct {
	WeekStart string `json:"weekStart" binding:"required"`
	Goal      string `json:"goal" binding:"max=64"`
	Notes     string `json:"notes" binding:"max=1000"`
}

// CreatePlanRequest creates an empty plan
type CreatePlanRequest struct {
	WeekStart   string `json:"weekStart" binding:"required"`
	MealsPerDay int    `json:"mealsPerDay" binding:"omitempty,min=3,max=6"`
	Goal        string `json:"goal" binding:"max=64"`
}

// AddMealRequest adds a meal to a plan
type AddMealRequest struct {
	Date     string  `json:"date" binding:"required"`
	Type     string  `json:"type" binding:"required,max=32"`
	Protein  float64 `json:"protein" binding:"gte=0"`
	Carbs    float64 `json:"carbs" binding:"gte=0"`
	Fat      float64 `json:"fat" binding:"gte=0"`
	RecipeID *string `json:"recipeId" binding:"omitempty,uuid"`
}

// StringList decodes from a JSON array of strings or from comma separated text
type StringList []string

// UnmarshalJSON implements json.Unmarshaler
func (l *StringList) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*l = mealplan.SplitList(text)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}
