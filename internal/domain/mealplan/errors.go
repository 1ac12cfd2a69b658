package mealplan

import "errors"

var (
	// Input errors
	ErrInvalidWeekStart      = errors.New("weekStart must be a calendar date in YYYY-MM-DD format")
	ErrMealsPerDayOutOfRange = errors.New("mealsPerDay must be between 3 and 6")
	ErrNegativeMacro         = errors.New("macro values must not be negative")
	ErrInvalidMealType       = errors.New("meal type must be one of breakfast, lunch, snack, dinner")
	ErrTitleRequired         = errors.New("recipe title is required")
	ErrTitleTooLong          = errors.New("recipe title must not exceed 200 characters")
	ErrInvalidServings       = errors.New("servings must be greater than 0")
	ErrInvalidSource         = errors.New("recipe source must be one of manual, openai, gemini, edamam")

	// Configuration errors
	ErrMissingMacroProfile = errors.New("no macro profile exists")

	// Generation errors
	ErrExcludedIngredient = errors.New("generated meal contains an excluded ingredient")
)
