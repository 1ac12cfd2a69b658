// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"sync"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/domain/shared"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockRecipeRepository provides a mock implementation of RecipeRepository
type MockRecipeRepository struct {
	mock.Mock
}

// NewMockRecipeRepository creates a new mock recipe repository
func NewMockRecipeRepository() *MockRecipeRepository {
	return &MockRecipeRepository{}
}

func (m *MockRecipeRepository) Create(ctx context.Context, r *mealplan.Recipe) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRecipeRepository) Update(ctx context.Context, r *mealplan.Recipe) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockRecipeRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRecipeRepository) FindByID(ctx context.Context, id string) (*mealplan.Recipe, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*mealplan.Recipe)
	return r, args.Error(1)
}

func (m *MockRecipeRepository) FindAll(ctx context.Context) ([]*mealplan.Recipe, error) {
	args := m.Called(ctx)
	recipes, _ := args.Get(0).([]*mealplan.Recipe)
	return recipes, args.Error(1)
}

func (m *MockRecipeRepository) FindByMealType(ctx context.Context, mt mealplan.MealType) ([]*mealplan.Recipe, error) {
	args := m.Called(ctx, mt)
	recipes, _ := args.Get(0).([]*mealplan.Recipe)
	return recipes, args.Error(1)
}

func (m *MockRecipeRepository) FindByTitle(ctx context.Context, title string) (*mealplan.Recipe, error) {
	args := m.Called(ctx, title)
	r, _ := args.Get(0).(*mealplan.Recipe)
	return r, args.Error(1)
}

func (m *MockRecipeRepository) List(ctx context.Context, offset, limit int) ([]*mealplan.Recipe, int, error) {
	args := m.Called(ctx, offset, limit)
	recipes, _ := args.Get(0).([]*mealplan.Recipe)
	return recipes, args.Int(1), args.Error(2)
}

// SetupStandardMockBehavior makes every title lookup miss
func (m *MockRecipeRepository) SetupStandardMockBehavior() {
	m.On("FindByTitle", mock.Anything, mock.Anything).Return(nil, outbound.ErrNotFound).Maybe()
}

// MockMacroProfileRepository provides a mock MacroProfileRepository
type MockMacroProfileRepository struct {
	mock.Mock
}

func (m *MockMacroProfileRepository) Get(ctx context.Context) (*mealplan.MacroProfile, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).(*mealplan.MacroProfile)
	return p, args.Error(1)
}

func (m *MockMacroProfileRepository) Save(ctx context.Context, p *mealplan.MacroProfile) error {
	return m.Called(ctx, p).Error(0)
}

// MockPreferencesRepository provides a mock PreferencesRepository
type MockPreferencesRepository struct {
	mock.Mock
}

func (m *MockPreferencesRepository) Get(ctx context.Context) (*mealplan.Preferences, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).(*mealplan.Preferences)
	return p, args.Error(1)
}

func (m *MockPreferencesRepository) Save(ctx context.Context, p *mealplan.Preferences) error {
	return m.Called(ctx, p).Error(0)
}

// MockWeeklyIntentRepository provides a mock WeeklyIntentRepository
type MockWeeklyIntentRepository struct {
	mock.Mock
}

func (m *MockWeeklyIntentRepository) Create(ctx context.Context, intent *mealplan.WeeklyIntent) error {
	return m.Called(ctx, intent).Error(0)
}

func (m *MockWeeklyIntentRepository) List(ctx context.Context) ([]mealplan.WeeklyIntent, error) {
	args := m.Called(ctx)
	intents, _ := args.Get(0).([]mealplan.WeeklyIntent)
	return intents, args.Error(1)
}

// MockMealPlanRepository provides a mock MealPlanRepository
type MockMealPlanRepository struct {
	mock.Mock
}

func (m *MockMealPlanRepository) SavePlan(ctx context.Context, plan *mealplan.MealPlan, newRecipes []*mealplan.Recipe) error {
	return m.Called(ctx, plan, newRecipes).Error(0)
}

func (m *MockMealPlanRepository) FindByID(ctx context.Context, id string) (*mealplan.MealPlan, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*mealplan.MealPlan)
	return p, args.Error(1)
}

func (m *MockMealPlanRepository) List(ctx context.Context, offset, limit int) ([]*mealplan.MealPlan, int, error) {
	args := m.Called(ctx, offset, limit)
	plans, _ := args.Get(0).([]*mealplan.MealPlan)
	return plans, args.Int(1), args.Error(2)
}

func (m *MockMealPlanRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockMealPlanRepository) ListMeals(ctx context.Context, planID string) ([]mealplan.Meal, error) {
	args := m.Called(ctx, planID)
	meals, _ := args.Get(0).([]mealplan.Meal)
	return meals, args.Error(1)
}

func (m *MockMealPlanRepository) AddMeal(ctx context.Context, meal *mealplan.Meal) error {
	return m.Called(ctx, meal).Error(0)
}

func (m *MockMealPlanRepository) DeleteMeal(ctx context.Context, planID, mealID string) error {
	return m.Called(ctx, planID, mealID).Error(0)
}

// MockRecipeSearchProvider provides a mock RecipeSearchProvider
type MockRecipeSearchProvider struct {
	mock.Mock
}

func (m *MockRecipeSearchProvider) Search(ctx context.Context, query string, limit int) ([]*mealplan.Recipe, error) {
	args := m.Called(ctx, query, limit)
	recipes, _ := args.Get(0).([]*mealplan.Recipe)
	return recipes, args.Error(1)
}

// Reply is one scripted TextGenerator response
type Reply struct {
	Text string
	Err  error
}

// ScriptedTextGenerator returns its replies in order and records prompts.
// The last reply repeats once the script is exhausted.
type ScriptedTextGenerator struct {
	Provider string
	Replies  []Reply

	mu      sync.Mutex
	prompts []string
}

// NewScriptedTextGenerator creates a generator named provider
func NewScriptedTextGenerator(provider string, replies ...Reply) *ScriptedTextGenerator {
	return &ScriptedTextGenerator{Provider: provider, Replies: replies}
}

func (g *ScriptedTextGenerator) Name() string { return g.Provider }

func (g *ScriptedTextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := len(g.prompts)
	g.prompts = append(g.prompts, prompt)
	if len(g.Replies) == 0 {
		return "", nil
	}
	if i >= len(g.Replies) {
		i = len(g.Replies) - 1
	}
	return g.Replies[i].Text, g.Replies[i].Err
}

// Prompts returns every prompt received so far
func (g *ScriptedTextGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// Calls returns the number of Generate calls
func (g *ScriptedTextGenerator) Calls() int {
	return len(g.Prompts())
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	Err error

	mu     sync.Mutex
	events []shared.DomainEvent
}

// NewMockEventPublisher creates a new mock event publisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(ctx context.Context, event shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MockEventPublisher) Close() error { return nil }

// GetPublishedEvents returns every event published so far
func (m *MockEventPublisher) GetPublishedEvents() []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]shared.DomainEvent(nil), m.events...)
}

// RecordingMetrics counts calls for assertions
type RecordingMetrics struct {
	mu       sync.Mutex
	Plans    map[string]int
	Attempts map[string]int
	Searches map[string]int
	Hits     int
	Misses   int
}

// NewRecordingMetrics creates empty counters
func NewRecordingMetrics() *RecordingMetrics {
	return &RecordingMetrics{
		Plans:    map[string]int{},
		Attempts: map[string]int{},
		Searches: map[string]int{},
	}
}

func (r *RecordingMetrics) PlanGenerated(strategy string, meals, unmatched int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Plans[strategy]++
}

func (r *RecordingMetrics) AIAttempt(provider, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Attempts[outcome]++
}

func (r *RecordingMetrics) ExternalSearch(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Searches[status]++
}

func (r *RecordingMetrics) CacheLookup(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.Hits++
	} else {
		r.Misses++
	}
}
