package plans

import (
	"context"
	"testing"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/inbound"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"github.com/giuseppemarasca93/dietcoach/pkg/errors"
	"github.com/giuseppemarasca93/dietcoach/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type PlanServiceTestSuite struct {
	suite.Suite
	plans   *testutils.MockMealPlanRepository
	recipes *testutils.MockRecipeRepository
	svc     *Service
	ctx     context.Context
	monday  time.Time
}

func (s *PlanServiceTestSuite) SetupTest() {
	s.plans = &testutils.MockMealPlanRepository{}
	s.recipes = testutils.NewMockRecipeRepository()
	s.svc = NewService(s.plans, s.recipes, zap.NewNop())
	s.ctx = context.Background()
	s.monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
}

func (s *PlanServiceTestSuite) TearDownTest() {
	s.plans.AssertExpectations(s.T())
	s.recipes.AssertExpectations(s.T())
}

func (s *PlanServiceTestSuite) plan() *mealplan.MealPlan {
	p := mealplan.NewMealPlan("plan-1", s.monday, 3, mealplan.StrategyManual, nil)
	p.Meals = append(p.Meals,
		mealplan.Meal{ID: "m1", Date: s.monday, Type: "breakfast", Position: 0},
		mealplan.Meal{ID: "m2", Date: s.monday, Type: "lunch", Position: 1},
	)
	return p
}

func (s *PlanServiceTestSuite) TestCreatePlanDefaultsToThreeMeals() {
	s.plans.On("SavePlan", s.ctx, mock.AnythingOfType("*mealplan.MealPlan"), []*mealplan.Recipe(nil)).Return(nil)

	plan, err := s.svc.CreatePlan(s.ctx, inbound.CreatePlanCommand{WeekStart: "2024-03-04", Goal: " maintain "})

	s.Require().NoError(err)
	s.Equal(3, plan.MealsPerDay)
	s.Equal(mealplan.StrategyManual, plan.Strategy)
	s.Equal("maintain", plan.Goal)
	s.Equal(s.monday.AddDate(0, 0, 6), plan.WeekEnd)
	s.Empty(plan.Meals)
}

func (s *PlanServiceTestSuite) TestCreatePlanRejectsBadInput() {
	_, err := s.svc.CreatePlan(s.ctx, inbound.CreatePlanCommand{WeekStart: "2024-02-30"})
	s.True(errors.Is(err, errors.CodeValidationFailed))

	_, err = s.svc.CreatePlan(s.ctx, inbound.CreatePlanCommand{WeekStart: "2024-03-04", MealsPerDay: 7})
	s.True(errors.Is(err, errors.CodeValidationFailed))
}

func (s *PlanServiceTestSuite) TestGetAndDeleteMissingPlan() {
	s.plans.On("FindByID", s.ctx, "missing").Return(nil, outbound.ErrNotFound)
	s.plans.On("Delete", s.ctx, "missing").Return(outbound.ErrNotFound)

	_, err := s.svc.GetPlan(s.ctx, "missing")
	s.True(errors.Is(err, errors.CodeNotFound))

	err = s.svc.DeletePlan(s.ctx, "missing")
	s.True(errors.Is(err, errors.CodeNotFound))
}

func (s *PlanServiceTestSuite) TestListPlansClampsPage() {
	s.plans.On("List", s.ctx, 0, MaxPageSize).Return([]*mealplan.MealPlan{s.plan()}, 1, nil)

	list, err := s.svc.ListPlans(s.ctx, inbound.PaginationParams{Page: 0, Limit: 1000})

	s.Require().NoError(err)
	s.Equal(1, list.Total)
	s.Equal(1, list.Page)
	s.Len(list.Plans, 1)
}

func (s *PlanServiceTestSuite) TestAddMealAppendsAfterExistingSlots() {
	recipeID := "recipe-1"
	s.plans.On("FindByID", s.ctx, "plan-1").Return(s.plan(), nil)
	s.recipes.On("FindByID", s.ctx, recipeID).Return(&mealplan.Recipe{ID: recipeID}, nil)
	s.plans.On("AddMeal", s.ctx, mock.AnythingOfType("*mealplan.Meal")).Return(nil)

	meal, err := s.svc.AddMeal(s.ctx, "plan-1", inbound.AddMealCommand{
		Date: "2024-03-04", Type: "Dinner", Protein: 30, Carbs: 50, Fat: 15, RecipeID: &recipeID,
	})

	s.Require().NoError(err)
	s.Equal("dinner", meal.Type)
	s.Equal(2, meal.Position)
	s.Equal(455.0, meal.Calories)
	s.Equal("plan-1", meal.MealPlanID)
	s.NotEmpty(meal.ID)
}

func (s *PlanServiceTestSuite) TestAddMealValidation() {
	s.plans.On("FindByID", s.ctx, "plan-1").Return(s.plan(), nil)
	ghost := "ghost"
	s.recipes.On("FindByID", s.ctx, ghost).Return(nil, outbound.ErrNotFound)

	cases := map[string]inbound.AddMealCommand{
		"outside week":   {Date: "2024-03-11", Type: "lunch"},
		"bad date":       {Date: "04/03/2024", Type: "lunch"},
		"missing type":   {Date: "2024-03-05"},
		"negative macro": {Date: "2024-03-05", Type: "lunch", Fat: -1},
		"unknown recipe": {Date: "2024-03-05", Type: "lunch", RecipeID: &ghost},
	}
	for name, cmd := range cases {
		s.Run(name, func() {
			_, err := s.svc.AddMeal(s.ctx, "plan-1", cmd)
			s.True(errors.Is(err, errors.CodeValidationFailed), "got %v", err)
		})
	}
	s.plans.AssertNotCalled(s.T(), "AddMeal", mock.Anything, mock.Anything)
}

func (s *PlanServiceTestSuite) TestDeleteMealNotFound() {
	s.plans.On("DeleteMeal", s.ctx, "plan-1", "nope").Return(outbound.ErrNotFound)

	err := s.svc.DeleteMeal(s.ctx, "plan-1", "nope")

	s.True(errors.Is(err, errors.CodeNotFound))
}

func TestPlanServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PlanServiceTestSuite))
}

func TestListMealsMapsMissingPlan(t *testing.T) {
	plans := &testutils.MockMealPlanRepository{}
	plans.On("ListMeals", mock.Anything, "gone").Return(nil, outbound.ErrNotFound)
	svc := NewService(plans, testutils.NewMockRecipeRepository(), zap.NewNop())

	meals, err := svc.ListMeals(context.Background(), "gone")

	require.Error(t, err)
	assert.Nil(t, meals)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}
