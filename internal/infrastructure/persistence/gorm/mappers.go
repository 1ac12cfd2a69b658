// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
)

// RecipeToModel converts a domain recipe to a GORM model
func RecipeToModel(r *mealplan.Recipe) *RecipeModel {
	model := &RecipeModel{
		ID:           r.ID,
		Title:        r.Title,
		TitleKey:     r.TitleKey(),
		Ingredients:  StringSlice(r.Ingredients),
		Instructions: r.Instructions,
		Tags:         StringSlice(r.Tags),
		Calories:     r.CaloriesPerServing,
		Protein:      r.ProteinPerServing,
		Carbs:        r.CarbsPerServing,
		Fat:          r.FatPerServing,
		Source:       string(r.Source),
		Servings:     r.Servings,
		ExternalID:   r.ExternalID,
		SourceURL:    r.SourceURL,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.MealType != "" {
		mt := string(r.MealType)
		model.MealType = &mt
	}
	return model
}

// RecipeFromModel converts a GORM model to a domain recipe
func RecipeFromModel(m *RecipeModel) *mealplan.Recipe {
	r := &mealplan.Recipe{
		ID:                 m.ID,
		Title:              m.Title,
		Ingredients:        nonNil(m.Ingredients),
		Instructions:       m.Instructions,
		Tags:               nonNil(m.Tags),
		CaloriesPerServing: m.Calories,
		ProteinPerServing:  m.Protein,
		CarbsPerServing:    m.Carbs,
		FatPerServing:      m.Fat,
		Source:             mealplan.Source(m.Source),
		Servings:           m.Servings,
		ExternalID:         m.ExternalID,
		SourceURL:          m.SourceURL,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.MealType != nil {
		r.MealType = mealplan.MealType(*m.MealType)
	}
	return r
}

// ProfileToModel converts a macro profile to a GORM model
func ProfileToModel(p *mealplan.MacroProfile) *MacroProfileModel {
	return &MacroProfileModel{
		ID:               p.ID,
		BreakfastProtein: p.Breakfast.Protein,
		BreakfastCarbs:   p.Breakfast.Carbs,
		BreakfastFat:     p.Breakfast.Fat,
		LunchProtein:     p.Lunch.Protein,
		LunchCarbs:       p.Lunch.Carbs,
		LunchFat:         p.Lunch.Fat,
		SnackProtein:     p.Snack.Protein,
		SnackCarbs:       p.Snack.Carbs,
		SnackFat:         p.Snack.Fat,
		DinnerProtein:    p.Dinner.Protein,
		DinnerCarbs:      p.Dinner.Carbs,
		DinnerFat:        p.Dinner.Fat,
		UpdatedAt:        p.UpdatedAt,
	}
}

// ProfileFromModel converts a GORM model to a macro profile
func ProfileFromModel(m *MacroProfileModel) *mealplan.MacroProfile {
	return &mealplan.MacroProfile{
		ID:        m.ID,
		Breakfast: mealplan.MacroTarget{Protein: m.BreakfastProtein, Carbs: m.BreakfastCarbs, Fat: m.BreakfastFat},
		Lunch:     mealplan.MacroTarget{Protein: m.LunchProtein, Carbs: m.LunchCarbs, Fat: m.LunchFat},
		Snack:     mealplan.MacroTarget{Protein: m.SnackProtein, Carbs: m.SnackCarbs, Fat: m.SnackFat},
		Dinner:    mealplan.MacroTarget{Protein: m.DinnerProtein, Carbs: m.DinnerCarbs, Fat: m.DinnerFat},
		UpdatedAt: m.UpdatedAt,
	}
}

// PreferencesToModel converts preferences to a GORM model
func PreferencesToModel(p *mealplan.Preferences) *PreferencesModel {
	return &PreferencesModel{
		ID:                  p.ID,
		ExcludedIngredients: StringSlice(p.ExcludedIngredients),
		PreferredCuisines:   StringSlice(p.PreferredCuisines),
		PreferredTags:       StringSlice(p.PreferredTags),
		AvoidedTags:         StringSlice(p.AvoidedTags),
		RequiredTags:        StringSlice(p.RequiredTags),
		SatietyLevel:        p.SatietyLevel,
		CookingEffort:       p.CookingEffort,
		UpdatedAt:           p.UpdatedAt,
	}
}

// PreferencesFromModel converts a GORM model to preferences
func PreferencesFromModel(m *PreferencesModel) *mealplan.Preferences {
	return &mealplan.Preferences{
		ID:                  m.ID,
		ExcludedIngredients: nonNil(m.ExcludedIngredients),
		PreferredCuisines:   nonNil(m.PreferredCuisines),
		PreferredTags:       nonNil(m.PreferredTags),
		AvoidedTags:         nonNil(m.AvoidedTags),
		RequiredTags:        nonNil(m.RequiredTags),
		SatietyLevel:        m.SatietyLevel,
		CookingEffort:       m.CookingEffort,
		UpdatedAt:           m.UpdatedAt,
	}
}

// IntentToModel converts a weekly intent to a GORM model
func IntentToModel(i *mealplan.WeeklyIntent) *WeeklyIntentModel {
	return &WeeklyIntentModel{
		ID:        i.ID,
		WeekStart: dateOnly(i.WeekStart),
		Goal:      i.Goal,
		Notes:     i.Notes,
		CreatedAt: i.CreatedAt,
	}
}

// IntentFromModel converts a GORM model to a weekly intent
func IntentFromModel(m *WeeklyIntentModel) mealplan.WeeklyIntent {
	return mealplan.WeeklyIntent{
		ID:        m.ID,
		WeekStart: dateOnly(m.WeekStart),
		Goal:      m.Goal,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
	}
}

// PlanToModel converts a plan header to a GORM model; meals are mapped separately
func PlanToModel(p *mealplan.MealPlan) *MealPlanModel {
	return &MealPlanModel{
		ID:             p.ID,
		WeekStart:      dateOnly(p.WeekStart),
		WeekEnd:        dateOnly(p.WeekEnd),
		Goal:           p.Goal,
		WeeklyIntentID: p.WeeklyIntentID,
		MealsPerDay:    p.MealsPerDay,
		Strategy:       string(p.Strategy),
		CreatedAt:      p.CreatedAt,
	}
}

// PlanFromModel converts a GORM model and its loaded meals to a domain plan
func PlanFromModel(m *MealPlanModel) *mealplan.MealPlan {
	plan := &mealplan.MealPlan{
		ID:             m.ID,
		WeekStart:      dateOnly(m.WeekStart),
		WeekEnd:        dateOnly(m.WeekEnd),
		Goal:           m.Goal,
		WeeklyIntentID: m.WeeklyIntentID,
		MealsPerDay:    m.MealsPerDay,
		Strategy:       mealplan.Strategy(m.Strategy),
		CreatedAt:      m.CreatedAt,
		Meals:          make([]mealplan.Meal, 0, len(m.Meals)),
	}
	for i := range m.Meals {
		plan.Meals = append(plan.Meals, MealFromModel(&m.Meals[i]))
	}
	return plan
}

// MealToModel converts a meal to a GORM model
func MealToModel(m *mealplan.Meal) *MealModel {
	return &MealModel{
		ID:         m.ID,
		MealPlanID: m.MealPlanID,
		Date:       dateOnly(m.Date),
		Type:       m.Type,
		Position:   m.Position,
		Protein:    m.Protein,
		Carbs:      m.Carbs,
		Fat:        m.Fat,
		Calories:   m.Calories,
		RecipeID:   m.RecipeID,
	}
}

// MealFromModel converts a GORM model to a meal, including its recipe when loaded
func MealFromModel(m *MealModel) mealplan.Meal {
	meal := mealplan.Meal{
		ID:         m.ID,
		MealPlanID: m.MealPlanID,
		Date:       dateOnly(m.Date),
		Type:       m.Type,
		Position:   m.Position,
		Protein:    m.Protein,
		Carbs:      m.Carbs,
		Fat:        m.Fat,
		Calories:   m.Calories,
		RecipeID:   m.RecipeID,
	}
	if m.Recipe != nil {
		meal.Recipe = RecipeFromModel(m.Recipe)
	}
	return meal
}

func dateOnly(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func nonNil(s StringSlice) []string {
	if s == nil {
		return []string{}
	}
	return []string(s)
}
