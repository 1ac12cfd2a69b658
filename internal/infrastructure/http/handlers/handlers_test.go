package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/config"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/http/middleware"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/inbound"
	"github.com/giuseppemarasca93/dietcoach/pkg/errors"
)

type mockPlanning struct{ mock.Mock }

func (m *mockPlanning) Generate(ctx context.Context, cmd inbound.GenerateCommand) (*mealplan.MealPlan, error) {
	args := m.Called(ctx, cmd)
	if plan := args.Get(0); plan != nil {
		return plan.(*mealplan.MealPlan), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRecipes struct{ mock.Mock }

func (m *mockRecipes) CreateRecipe(ctx context.Context, r *mealplan.Recipe) (*mealplan.Recipe, error) {
	args := m.Called(ctx, r)
	if v := args.Get(0); v != nil {
		return v.(*mealplan.Recipe), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRecipes) UpdateRecipe(ctx context.Context, id string, r *mealplan.Recipe) (*mealplan.Recipe, error) {
	args := m.Called(ctx, id, r)
	if v := args.Get(0); v != nil {
		return v.(*mealplan.Recipe), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRecipes) DeleteRecipe(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRecipes) GetRecipe(ctx context.Context, id string) (*mealplan.Recipe, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*mealplan.Recipe), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRecipes) ListRecipesByMealType(ctx context.Context, mt mealplan.MealType) (*inbound.RecipeList, error) {
	args := m.Called(ctx, mt)
	if v := args.Get(0); v != nil {
		return v.(*inbound.RecipeList), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRecipes) ListRecipes(ctx context.Context, p inbound.PaginationParams) (*inbound.RecipeList, error) {
	args := m.Called(ctx, p)
	if v := args.Get(0); v != nil {
		return v.(*inbound.RecipeList), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRecipes) SearchExternal(ctx context.Context, q inbound.SearchQuery) (*inbound.SearchResult, error) {
	args := m.Called(ctx, q)
	if v := args.Get(0); v != nil {
		return v.(*inbound.SearchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSettings struct{ mock.Mock }

func (m *mockSettings) GetMacroProfile(ctx context.Context) (*mealplan.MacroProfile, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*mealplan.MacroProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSettings) SaveMacroProfile(ctx context.Context, p *mealplan.MacroProfile) (*mealplan.MacroProfile, error) {
	args := m.Called(ctx, p)
	if v := args.Get(0); v != nil {
		return v.(*mealplan.MacroProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSettings) GetPreferences(ctx context.Context) (*mealplan.Preferences, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.(*mealplan.Preferences), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSettings) SavePreferences(ctx context.Context, p *mealplan.Preferences) (*mealplan.Preferences, error) {
	args := m.Called(ctx, p)
	if v := args.Get(0); v != nil {
		return v.(*mealplan.Preferences), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSettings) ListWeeklyIntents(ctx context.Context) ([]mealplan.WeeklyIntent, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]mealplan.WeeklyIntent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSettings) CreateWeeklyIntent(ctx context.Context, cmd inbound.CreateIntentCommand) (*mealplan.WeeklyIntent, error) {
	args := m.Called(ctx, cmd)
	if v := args.Get(0); v != nil {
		return v.(*mealplan.WeeklyIntent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSettings) IntentFor(ctx context.Context, weekStart time.Time) (*mealplan.WeeklyIntent, error) {
	args := m.Called(ctx, weekStart)
	if v := args.Get(0); v != nil {
		return v.(*mealplan.WeeklyIntent), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPlans struct{ mock.Mock }

func (m *mockPlans) GetPlan(ctx context.Context, id string) (*mealplan.MealPlan, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*mealplan.MealPlan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlans) ListPlans(ctx context.Context, p inbound.PaginationParams) (*inbound.MealPlanList, error) {
	args := m.Called(ctx, p)
	if v := args.Get(0); v != nil {
		return v.(*inbound.MealPlanList), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlans) CreatePlan(ctx context.Context, cmd inbound.CreatePlanCommand) (*mealplan.MealPlan, error) {
	args := m.Called(ctx, cmd)
	if v := args.Get(0); v != nil {
		return v.(*mealplan.MealPlan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlans) DeletePlan(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockPlans) ListMeals(ctx context.Context, planID string) ([]mealplan.Meal, error) {
	args := m.Called(ctx, planID)
	if v := args.Get(0); v != nil {
		return v.([]mealplan.Meal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlans) AddMeal(ctx context.Context, planID string, cmd inbound.AddMealCommand) (*mealplan.Meal, error) {
	args := m.Called(ctx, planID, cmd)
	if v := args.Get(0); v != nil {
		return v.(*mealplan.Meal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPlans) DeleteMeal(ctx context.Context, planID, mealID string) error {
	return m.Called(ctx, planID, mealID).Error(0)
}

type fixture struct {
	router   *gin.Engine
	planning *mockPlanning
	recipes  *mockRecipes
	settings *mockSettings
	plans    *mockPlans
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		planning: &mockPlanning{},
		recipes:  &mockRecipes{},
		settings: &mockSettings{},
		plans:    &mockPlans{},
	}
	t.Cleanup(func() {
		f.planning.AssertExpectations(t)
		f.recipes.AssertExpectations(t)
		f.settings.AssertExpectations(t)
		f.plans.AssertExpectations(t)
	})

	mw := middleware.New(&config.Config{App: config.AppConfig{Name: "dietcoach"}}, zap.NewNop())
	f.router = gin.New()
	f.router.Use(mw.RequestID(), mw.Recovery(), mw.ErrorHandler())
	New(f.planning, f.recipes, f.settings, f.plans, zap.NewNop()).RegisterRoutes(f.router, nil)
	return f
}

func (f *fixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) errors.ErrorCode {
	t.Helper()
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error.Code
}

func samplePlan() *mealplan.MealPlan {
	weekStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	plan := mealplan.NewMealPlan("plan-1", weekStart, 3, mealplan.StrategyLocal, nil)
	plan.Meals = append(plan.Meals, mealplan.Meal{ID: "meal-1", MealPlanID: "plan-1", Date: weekStart, Type: "breakfast"})
	return plan
}

func TestGenerateWeek(t *testing.T) {
	f := newFixture(t)
	f.planning.On("Generate", mock.Anything, inbound.GenerateCommand{
		WeekStart: "2024-01-01", MealsPerDay: 4, Strategy: mealplan.StrategyLocal,
	}).Return(samplePlan(), nil)

	w := f.do(http.MethodPost, "/generate-week", map[string]interface{}{"weekStart": "2024-01-01", "mealsPerDay": 4})

	assert.Equal(t, http.StatusCreated, w.Code)
	var plan mealplan.MealPlan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Equal(t, "plan-1", plan.ID)
	assert.Len(t, plan.Meals, 1)
}

func TestGenerateAIPlanUsesAIStrategyAndDefaultMeals(t *testing.T) {
	f := newFixture(t)
	f.planning.On("Generate", mock.Anything, inbound.GenerateCommand{
		WeekStart: "2024-01-01", Strategy: mealplan.StrategyAI,
	}).Return(samplePlan(), nil)

	w := f.do(http.MethodPost, "/api/ai/mealplan/generate", map[string]interface{}{"weekStart": "2024-01-01"})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		body interface{}
		code errors.ErrorCode
	}{
		{"missing week start", map[string]interface{}{"mealsPerDay": 3}, errors.CodeValidationFailed},
		{"too many meals", map[string]interface{}{"weekStart": "2024-01-01", "mealsPerDay": 7}, errors.CodeValidationFailed},
		{"too few meals", map[string]interface{}{"weekStart": "2024-01-01", "mealsPerDay": 2}, errors.CodeValidationFailed},
		{"malformed json", "{", errors.CodeBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			w := f.do(http.MethodPost, "/generate-week", tc.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.code, errorCode(t, w))
		})
	}
}

func TestGenerateSurfacesServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"missing profile", errors.NewMissingConfigurationError("macro profile"), http.StatusPreconditionFailed},
		{"excluded ingredient", errors.NewConstraintViolationError("peanut"), http.StatusUnprocessableEntity},
		{"upstream down", errors.NewUpstreamUnavailableError("openai", nil), http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.planning.On("Generate", mock.Anything, mock.Anything).Return(nil, tc.err)

			w := f.do(http.MethodPost, "/api/ai/mealplan/generate", map[string]interface{}{"weekStart": "2024-01-01"})

			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestGetPlan(t *testing.T) {
	f := newFixture(t)
	f.plans.On("GetPlan", mock.Anything, "plan-1").Return(samplePlan(), nil)
	f.plans.On("GetPlan", mock.Anything, "nope").Return(nil, errors.NewNotFoundError("meal plan"))

	w := f.do(http.MethodGet, "/api/ai/mealplan/plan-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/meal-plans/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.CodeNotFound, errorCode(t, w))
}

func TestSearchRecipes(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		f := newFixture(t)
		f.recipes.On("SearchExternal", mock.Anything, inbound.SearchQuery{Query: "chicken", Limit: 5}).
			Return(&inbound.SearchResult{Recipes: []*mealplan.Recipe{{Title: "Chicken Salad"}}}, nil)

		w := f.do(http.MethodGet, "/api/recipes/search?q=chicken&limit=5", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Header().Get(middleware.ExternalAPIStatusHeader))
		var recipes []mealplan.Recipe
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recipes))
		assert.Len(t, recipes, 1)
	})

	t.Run("degraded returns empty array", func(t *testing.T) {
		f := newFixture(t)
		f.recipes.On("SearchExternal", mock.Anything, inbound.SearchQuery{Query: "tofu"}).
			Return(&inbound.SearchResult{Degraded: true}, nil)

		w := f.do(http.MethodGet, "/api/recipes/search?query=tofu", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "degraded", w.Header().Get(middleware.ExternalAPIStatusHeader))
		assert.JSONEq(t, "[]", w.Body.String())
	})

	t.Run("non numeric limit", func(t *testing.T) {
		f := newFixture(t)

		w := f.do(http.MethodGet, "/api/recipes/search?q=tofu&limit=ten", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("blank query", func(t *testing.T) {
		f := newFixture(t)
		f.recipes.On("SearchExternal", mock.Anything, inbound.SearchQuery{}).
			Return(nil, errors.NewValidationError("query parameter q is required"))

		w := f.do(http.MethodGet, "/api/recipes/search", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSaveMacroProfile(t *testing.T) {
	f := newFixture(t)
	f.settings.On("SaveMacroProfile", mock.Anything, mock.MatchedBy(func(p *mealplan.MacroProfile) bool {
		return p.Breakfast.Protein == 30 && p.Dinner.Fat == 20
	})).Return(&mealplan.MacroProfile{ID: "profile-1"}, nil)

	w := f.do(http.MethodPost, "/macro-profile", map[string]interface{}{
		"breakfast": map[string]float64{"protein": 30, "carbs": 50, "fat": 15},
		"lunch":     map[string]float64{"protein": 40, "carbs": 60, "fat": 20},
		"snack":     map[string]float64{"protein": 15, "carbs": 20, "fat": 5},
		"dinner":    map[string]float64{"protein": 40, "carbs": 50, "fat": 20},
	})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSaveMacroProfileRejectsNegativeTargets(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/macro-profile", map[string]interface{}{
		"breakfast": map[string]float64{"protein": -1},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.CodeValidationFailed, errorCode(t, w))
}

func TestSavePreferencesAcceptsCommaSeparatedText(t *testing.T) {
	f := newFixture(t)
	f.settings.On("SavePreferences", mock.Anything, mock.MatchedBy(func(p *mealplan.Preferences) bool {
		return len(p.ExcludedIngredients) == 2 && len(p.PreferredTags) == 1
	})).Return(&mealplan.Preferences{ID: "prefs-1"}, nil)

	w := f.do(http.MethodPut, "/preferences", `{"excludedIngredients":"peanut, shellfish","preferredTags":["vegan"]}`)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetPreferencesNotFound(t *testing.T) {
	f := newFixture(t)
	f.settings.On("GetPreferences", mock.Anything).Return(nil, errors.NewNotFoundError("preferences"))

	w := f.do(http.MethodGet, "/preferences", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWeeklyIntents(t *testing.T) {
	f := newFixture(t)
	f.settings.On("ListWeeklyIntents", mock.Anything).Return(nil, nil)
	f.settings.On("CreateWeeklyIntent", mock.Anything, inbound.CreateIntentCommand{
		WeekStart: "2024-01-01", Goal: "lose_weight",
	}).Return(&mealplan.WeeklyIntent{ID: "intent-1", Goal: "lose_weight"}, nil)

	w := f.do(http.MethodGet, "/weekly-intent", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = f.do(http.MethodPost, "/weekly-intent", map[string]string{"weekStart": "2024-01-01", "goal": "lose_weight"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRecipeCRUD(t *testing.T) {
	f := newFixture(t)
	created := &mealplan.Recipe{ID: "r-1", Title: "Oats"}
	f.recipes.On("CreateRecipe", mock.Anything, mock.MatchedBy(func(r *mealplan.Recipe) bool {
		return r.Title == "Oats" && r.MealType == mealplan.MealTypeBreakfast && len(r.Ingredients) == 2
	})).Return(created, nil)
	f.recipes.On("GetRecipe", mock.Anything, "r-1").Return(created, nil)
	f.recipes.On("ListRecipes", mock.Anything, inbound.PaginationParams{Page: 2, Limit: 5}).
		Return(&inbound.RecipeList{Recipes: []*mealplan.Recipe{created}, Total: 6, Page: 2, Limit: 5}, nil)
	f.recipes.On("DeleteRecipe", mock.Anything, "r-1").Return(nil)

	w := f.do(http.MethodPost, "/recipes", map[string]interface{}{
		"title":              "Oats",
		"ingredients":        []string{"oats", "milk"},
		"caloriesPerServing": 350,
		"mealType":           "breakfast",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodGet, "/recipes/r-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/recipes?page=2&limit=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodDelete, "/recipes/r-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCreateRecipeValidation(t *testing.T) {
	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"ingredients": []string{"oats"}}},
		{"unknown meal type", map[string]interface{}{"title": "Oats", "mealType": "brunch"}},
		{"negative calories", map[string]interface{}{"title": "Oats", "caloriesPerServing": -5}},
		{"unknown source", map[string]interface{}{"title": "Oats", "source": "blog"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)

			w := f.do(http.MethodPost, "/recipes", tc.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, errors.CodeValidationFailed, errorCode(t, w))
		})
	}
}

func TestListRecipesFiltersByMealType(t *testing.T) {
	f := newFixture(t)
	oats := &mealplan.Recipe{ID: "r-1", Title: "Oats", MealType: mealplan.MealTypeBreakfast}
	f.recipes.On("ListRecipesByMealType", mock.Anything, mealplan.MealTypeBreakfast).
		Return(&inbound.RecipeList{Recipes: []*mealplan.Recipe{oats}, Total: 1, Page: 1, Limit: 1}, nil)

	w := f.do(http.MethodGet, "/recipes?mealType=Breakfast", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = f.do(http.MethodGet, "/recipes?mealType=brunch", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.CodeValidationFailed, errorCode(t, w))
}

func TestListRecipesRejectsBadPagination(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/recipes?page=abc", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMealPlanCRUD(t *testing.T) {
	f := newFixture(t)
	recipeID := "0b5e8f5c-4d7e-4b71-9a43-3c1f0a7e6a11"
	f.plans.On("CreatePlan", mock.Anything, inbound.CreatePlanCommand{WeekStart: "2024-01-01", MealsPerDay: 4}).
		Return(samplePlan(), nil)
	f.plans.On("ListPlans", mock.Anything, inbound.PaginationParams{}).
		Return(&inbound.MealPlanList{Plans: []*mealplan.MealPlan{samplePlan()}, Total: 1, Page: 1, Limit: 20}, nil)
	f.plans.On("ListMeals", mock.Anything, "plan-1").Return(samplePlan().Meals, nil)
	f.plans.On("AddMeal", mock.Anything, "plan-1", inbound.AddMealCommand{
		Date: "2024-01-02", Type: "lunch", Protein: 40, Carbs: 60, Fat: 20, RecipeID: &recipeID,
	}).Return(&mealplan.Meal{ID: "meal-2"}, nil)
	f.plans.On("DeleteMeal", mock.Anything, "plan-1", "meal-2").Return(nil)
	f.plans.On("DeletePlan", mock.Anything, "plan-1").Return(nil)

	w := f.do(http.MethodPost, "/meal-plans", map[string]interface{}{"weekStart": "2024-01-01", "mealsPerDay": 4})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodGet, "/meal-plans", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/meal-plans/plan-1/meals", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodPost, "/meal-plans/plan-1/meals", map[string]interface{}{
		"date": "2024-01-02", "type": "lunch", "protein": 40, "carbs": 60, "fat": 20, "recipeId": recipeID,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodDelete, "/meal-plans/plan-1/meals/meal-2", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(http.MethodDelete, "/meal-plans/plan-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAddMealRejectsMalformedRecipeID(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/meal-plans/plan-1/meals", map[string]interface{}{
		"date": "2024-01-02", "type": "lunch", "recipeId": "not-a-uuid",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
