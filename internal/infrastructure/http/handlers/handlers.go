// Package handlers exposes the meal planning services over HTTP
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/http/middleware"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/inbound"
	"github.com/giuseppemarasca93/dietcoach/pkg/errors"
	"github.com/giuseppemarasca93/dietcoach/pkg/logger"
)

// Handlers groups the HTTP endpoints
type Handlers struct {
	planning inbound.PlanningService
	recipes  inbound.RecipeService
	settings inbound.SettingsService
	plans    inbound.MealPlanService
	logger   *zap.Logger
}

// New creates the HTTP handlers
func New(
	planning inbound.PlanningService,
	recipes inbound.RecipeService,
	settings inbound.SettingsService,
	plans inbound.MealPlanService,
	log *zap.Logger,
) *Handlers {
	RegisterValidators()
	return &Handlers{
		planning: planning,
		recipes:  recipes,
		settings: settings,
		plans:    plans,
		logger:   log.Named("handlers"),
	}
}

// RegisterRoutes mounts every endpoint on r. guard protects mutating routes.
func (h *Handlers) RegisterRoutes(r gin.IRouter, guard gin.HandlerFunc) {
	if guard == nil {
		guard = func(c *gin.Context) { c.Next() }
	}

	r.POST("/generate-week", guard, h.GenerateWeek)

	ai := r.Group("/api/ai/mealplan")
	ai.POST("/generate", guard, h.GenerateAIPlan)
	ai.GET("/:id", h.GetPlan)

	r.GET("/api/recipes/search", h.SearchRecipes)

	r.GET("/macro-profile", h.GetMacroProfile)
	r.POST("/macro-profile", guard, h.SaveMacroProfile)
	r.PUT("/macro-profile", guard, h.SaveMacroProfile)

	r.GET("/preferences", h.GetPreferences)
	r.POST("/preferences", guard, h.SavePreferences)
	r.PUT("/preferences", guard, h.SavePreferences)

	r.GET("/weekly-intent", h.ListWeeklyIntents)
	r.POST("/weekly-intent", guard, h.CreateWeeklyIntent)

	recipes := r.Group("/recipes")
	recipes.GET("", h.ListRecipes)
	recipes.POST("", guard, h.CreateRecipe)
	recipes.GET("/:id", h.GetRecipe)
	recipes.PUT("/:id", guard, h.UpdateRecipe)
	recipes.DELETE("/:id", guard, h.DeleteRecipe)

	plans := r.Group("/meal-plans")
	plans.GET("", h.ListPlans)
	plans.POST("", guard, h.CreatePlan)
	plans.GET("/:id", h.GetPlan)
	plans.DELETE("/:id", guard, h.DeletePlan)
	plans.GET("/:id/meals", h.ListMeals)
	plans.POST("/:id/meals", guard, h.AddMeal)
	plans.DELETE("/:id/meals/:mealId", guard, h.DeleteMeal)
}

// GenerateWeek builds a plan with the deterministic matcher
func (h *Handlers) GenerateWeek(c *gin.Context) {
	h.generate(c, mealplan.StrategyLocal)
}

// GenerateAIPlan builds a plan through the text generation provider
func (h *Handlers) GenerateAIPlan(c *gin.Context) {
	h.generate(c, mealplan.StrategyAI)
}

func (h *Handlers) generate(c *gin.Context, strategy mealplan.Strategy) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}

	cmd := inbound.GenerateCommand{WeekStart: req.WeekStart, Strategy: strategy}
	if req.MealsPerDay != nil {
		cmd.MealsPerDay = *req.MealsPerDay
	}

	plan, err := h.planning.Generate(c.Request.Context(), cmd)
	if err != nil {
		_ = c.Error(err)
		return
	}

	logger.FromContext(c.Request.Context(), h.logger).Info("Meal plan generated",
		zap.String("plan_id", plan.ID),
		zap.String("strategy", string(strategy)),
		zap.Int("meals", len(plan.Meals)),
	)
	c.JSON(http.StatusCreated, plan)
}

// SearchRecipes queries the external recipe provider. Upstream failures
// degrade to an empty list flagged in the status header.
func (h *Handlers) SearchRecipes(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		query = c.Query("query")
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			_ = c.Error(errors.NewValidationError("limit must be an integer"))
			return
		}
		limit = n
	}

	result, err := h.recipes.SearchExternal(c.Request.Context(), inbound.SearchQuery{Query: query, Limit: limit})
	if err != nil {
		_ = c.Error(err)
		return
	}

	status := "ok"
	if result.Degraded {
		status = "degraded"
	}
	c.Header(middleware.ExternalAPIStatusHeader, status)

	recipes := result.Recipes
	if recipes == nil {
		recipes = []*mealplan.Recipe{}
	}
	c.JSON(http.StatusOK, recipes)
}

// GetMacroProfile returns the active macro profile
func (h *Handlers) GetMacroProfile(c *gin.Context) {
	profile, err := h.settings.GetMacroProfile(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// SaveMacroProfile creates or replaces the macro profile
func (h *Handlers) SaveMacroProfile(c *gin.Context) {
	var req MacroProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}

	profile, err := h.settings.SaveMacroProfile(c.Request.Context(), req.toDomain())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetPreferences returns the active preferences
func (h *Handlers) GetPreferences(c *gin.Context) {
	prefs, err := h.settings.GetPreferences(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// SavePreferences creates or replaces the preferences
func (h *Handlers) SavePreferences(c *gin.Context) {
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}

	prefs, err := h.settings.SavePreferences(c.Request.Context(), req.toDomain())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// ListWeeklyIntents returns every weekly intent ordered by week
func (h *Handlers) ListWeeklyIntents(c *gin.Context) {
	intents, err := h.settings.ListWeeklyIntents(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if intents == nil {
		intents = []mealplan.WeeklyIntent{}
	}
	c.JSON(http.StatusOK, intents)
}

// CreateWeeklyIntent records the goal for a week
func (h *Handlers) CreateWeeklyIntent(c *gin.Context) {
	var req WeeklyIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}

	intent, err := h.settings.CreateWeeklyIntent(c.Request.Context(), inbound.CreateIntentCommand{
		WeekStart: req.WeekStart,
		Goal:      req.Goal,
		Notes:     req.Notes,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, intent)
}

// ListRecipes returns a page of stored recipes
func (h *Handlers) ListRecipes(c *gin.Context) {
	if raw := c.Query("mealType"); raw != "" {
		mealType, err := mealplan.ParseMealType(raw)
		if err != nil {
			_ = c.Error(errors.NewValidationError(err.Error()))
			return
		}
		list, err := h.recipes.ListRecipesByMealType(c.Request.Context(), mealType)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, list)
		return
	}

	page, ok := pagination(c)
	if !ok {
		return
	}

	list, err := h.recipes.ListRecipes(c.Request.Context(), page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetRecipe returns one recipe
func (h *Handlers) GetRecipe(c *gin.Context) {
	recipe, err := h.recipes.GetRecipe(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// CreateRecipe stores a new recipe
func (h *Handlers) CreateRecipe(c *gin.Context) {
	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}

	recipe, err := h.recipes.CreateRecipe(c.Request.Context(), req.toDomain())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

// UpdateRecipe replaces a stored recipe
func (h *Handlers) UpdateRecipe(c *gin.Context) {
	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}

	recipe, err := h.recipes.UpdateRecipe(c.Request.Context(), c.Param("id"), req.toDomain())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// DeleteRecipe removes a recipe
func (h *Handlers) DeleteRecipe(c *gin.Context) {
	if err := h.recipes.DeleteRecipe(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListPlans returns a page of plan headers
func (h *Handlers) ListPlans(c *gin.Context) {
	page, ok := pagination(c)
	if !ok {
		return
	}

	list, err := h.plans.ListPlans(c.Request.Context(), page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetPlan returns a plan with its meals and recipes
func (h *Handlers) GetPlan(c *gin.Context) {
	plan, err := h.plans.GetPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// CreatePlan creates an empty plan for manual curation
func (h *Handlers) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}

	plan, err := h.plans.CreatePlan(c.Request.Context(), inbound.CreatePlanCommand{
		WeekStart:   req.WeekStart,
		MealsPerDay: req.MealsPerDay,
		Goal:        req.Goal,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// DeletePlan removes a plan and its meals
func (h *Handlers) DeletePlan(c *gin.Context) {
	if err := h.plans.DeletePlan(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMeals returns the meals of a plan
func (h *Handlers) ListMeals(c *gin.Context) {
	meals, err := h.plans.ListMeals(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if meals == nil {
		meals = []mealplan.Meal{}
	}
	c.JSON(http.StatusOK, meals)
}

// AddMeal appends a meal to a plan
func (h *Handlers) AddMeal(c *gin.Context) {
	var req AddMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}

	meal, err := h.plans.AddMeal(c.Request.Context(), c.Param("id"), inbound.AddMealCommand{
		Date:     req.Date,
		Type:     req.Type,
		Protein:  req.Protein,
		Carbs:    req.Carbs,
		Fat:      req.Fat,
		RecipeID: req.RecipeID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, meal)
}

// DeleteMeal removes one meal from a plan
func (h *Handlers) DeleteMeal(c *gin.Context) {
	if err := h.plans.DeleteMeal(c.Request.Context(), c.Param("id"), c.Param("mealId")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pagination(c *gin.Context) (inbound.PaginationParams, bool) {
	var params inbound.PaginationParams
	for name, dst := range map[string]*int{"page": &params.Page, "limit": &params.Limit} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			_ = c.Error(errors.NewValidationError(name + " must be a non-negative integer"))
			return params, false
		}
		*dst = n
	}
	return params, true
}
