// Package planning implements weekly plan generation. The local strategy
// scores stored recipes, the ai strategy asks a text-generation provider.
// Both persist the plan, its meals and any new recipes in one transaction.
package planning

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/application/aiplan"
	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/inbound"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"github.com/giuseppemarasca93/dietcoach/pkg/errors"
	"go.uber.org/zap"
)

// Config holds the planner defaults
type Config struct {
	DefaultMealsPerDay int
	IntentPolicy       mealplan.IntentPolicy
}

// Repositories groups the stores the service reads and writes
type Repositories struct {
	Recipes     outbound.RecipeRepository
	Profiles    outbound.MacroProfileRepository
	Preferences outbound.PreferencesRepository
	Intents     outbound.WeeklyIntentRepository
	Plans       outbound.MealPlanRepository
}

// Service implements inbound.PlanningService
type Service struct {
	repos     Repositories
	assembler *mealplan.Assembler
	generator *aiplan.Generator
	events    outbound.EventPublisher
	metrics   outbound.Metrics
	cfg       Config
	now       func() time.Time
	logger    *zap.Logger
}

var _ inbound.PlanningService = (*Service)(nil)

// NewService creates a new planning service. A nil generator disables the ai strategy.
func NewService(
	repos Repositories,
	assembler *mealplan.Assembler,
	generator *aiplan.Generator,
	events outbound.EventPublisher,
	metrics outbound.Metrics,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.DefaultMealsPerDay == 0 {
		cfg.DefaultMealsPerDay = 3
	}
	if !cfg.IntentPolicy.Valid() {
		cfg.IntentPolicy = mealplan.IntentOnOrBefore
	}
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	return &Service{
		repos:     repos,
		assembler: assembler,
		generator: generator,
		events:    events,
		metrics:   metrics,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger.Named("planning-service"),
	}
}

// planInputs is what both strategies read before generating
type planInputs struct {
	weekStart   time.Time
	mealsPerDay int
	profile     *mealplan.MacroProfile
	prefs       *mealplan.Preferences
	intent      *mealplan.WeeklyIntent
}

// Generate builds, persists and announces a plan for the requested week
func (s *Service) Generate(ctx context.Context, cmd inbound.GenerateCommand) (*mealplan.MealPlan, error) {
	strategy := cmd.Strategy
	if strategy == "" {
		strategy = mealplan.StrategyLocal
	}
	if cmd.MealsPerDay == 0 {
		cmd.MealsPerDay = s.cfg.DefaultMealsPerDay
	}

	in, err := s.loadInputs(ctx, cmd)
	if err != nil {
		return nil, err
	}

	start := s.now()
	var (
		plan       *mealplan.MealPlan
		newRecipes []*mealplan.Recipe
	)
	switch strategy {
	case mealplan.StrategyLocal:
		plan, err = s.generateLocal(ctx, cmd.WeekStart, in)
	case mealplan.StrategyAI:
		plan, newRecipes, err = s.generateAI(ctx, in)
	default:
		return nil, errors.NewValidationError("strategy must be local or ai").
			WithMetadata("strategy", string(strategy))
	}
	if err != nil {
		return nil, err
	}

	if err := s.repos.Plans.SavePlan(ctx, plan, newRecipes); err != nil {
		s.logger.Error("Failed to persist meal plan",
			zap.String("plan_id", plan.ID),
			zap.String("strategy", string(strategy)),
			zap.Error(err),
		)
		return nil, errors.NewDatabaseError("save meal plan", err)
	}

	plan.MarkGenerated(s.now())
	s.publishEvents(ctx, plan)

	unmatched := countUnmatched(plan)
	s.metrics.PlanGenerated(string(strategy), len(plan.Meals), unmatched)
	s.logger.Info("Meal plan generated",
		zap.String("plan_id", plan.ID),
		zap.String("week_start", plan.WeekStart.Format(mealplan.DateLayout)),
		zap.String("strategy", string(strategy)),
		zap.Int("meals", len(plan.Meals)),
		zap.Int("unmatched", unmatched),
		zap.Int("new_recipes", len(newRecipes)),
		zap.Duration("duration", s.now().Sub(start)),
	)

	return plan, nil
}

func (s *Service) loadInputs(ctx context.Context, cmd inbound.GenerateCommand) (*planInputs, error) {
	weekStart, err := mealplan.ParseWeekStart(cmd.WeekStart)
	if err != nil {
		return nil, mapDomainError(err)
	}
	if _, err := mealplan.SlotsFor(cmd.MealsPerDay); err != nil {
		return nil, mapDomainError(err)
	}

	profile, err := s.repos.Profiles.Get(ctx)
	if err != nil {
		if stderrors.Is(err, outbound.ErrNotFound) {
			return nil, errors.NewMissingConfigurationError("macro profile")
		}
		return nil, errors.NewDatabaseError("load macro profile", err)
	}

	prefs, err := s.repos.Preferences.Get(ctx)
	switch {
	case err == nil:
		prefs.Normalize()
	case stderrors.Is(err, outbound.ErrNotFound):
		prefs = nil
	default:
		return nil, errors.NewDatabaseError("load preferences", err)
	}

	intents, err := s.repos.Intents.List(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("load weekly intents", err)
	}

	return &planInputs{
		weekStart:   weekStart,
		mealsPerDay: cmd.MealsPerDay,
		profile:     profile,
		prefs:       prefs,
		intent:      mealplan.SelectIntent(intents, weekStart, s.cfg.IntentPolicy),
	}, nil
}

func (s *Service) generateLocal(ctx context.Context, weekStart string, in *planInputs) (*mealplan.MealPlan, error) {
	pool, err := s.repos.Recipes.FindAll(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("load recipe pool", err)
	}

	plan, err := s.assembler.Assemble(pool, mealplan.AssembleInput{
		WeekStart:   weekStart,
		MealsPerDay: in.mealsPerDay,
		Profile:     in.profile,
		Preferences: in.prefs,
		Intent:      in.intent,
	})
	if err != nil {
		return nil, mapDomainError(err)
	}
	return plan, nil
}

func (s *Service) generateAI(ctx context.Context, in *planInputs) (*mealplan.MealPlan, []*mealplan.Recipe, error) {
	if s.generator == nil {
		return nil, nil, errors.NewUpstreamUnavailableError("ai provider", nil).
			WithMetadata("reason", "not_configured")
	}

	result, err := s.generator.Generate(ctx, aiplan.Request{
		WeekStart:   in.weekStart,
		MealsPerDay: in.mealsPerDay,
		Profile:     in.profile,
		Preferences: in.prefs,
		Intent:      in.intent,
	})
	if err != nil {
		return nil, nil, err
	}
	return result.Plan, result.NewRecipes, nil
}

// publishEvents runs after the commit; failures are logged and never fail the request
func (s *Service) publishEvents(ctx context.Context, plan *mealplan.MealPlan) {
	for _, event := range plan.Events() {
		if s.events == nil {
			continue
		}
		if err := s.events.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish event",
				zap.String("event", event.EventName()),
				zap.String("plan_id", plan.ID),
				zap.Error(err),
			)
		}
	}
}

func countUnmatched(plan *mealplan.MealPlan) int {
	n := 0
	for _, m := range plan.Meals {
		if m.RecipeID == nil {
			n++
		}
	}
	return n
}

// mapDomainError translates domain sentinels into application errors
func mapDomainError(err error) error {
	switch {
	case stderrors.Is(err, mealplan.ErrInvalidWeekStart),
		stderrors.Is(err, mealplan.ErrMealsPerDayOutOfRange):
		return errors.NewValidationError(err.Error()).WithCause(err)
	case stderrors.Is(err, mealplan.ErrMissingMacroProfile):
		return errors.NewMissingConfigurationError("macro profile").WithCause(err)
	default:
		return errors.Wrap(err, "failed to assemble meal plan")
	}
}
