// Package aiplan generates weekly meal plans with a text-generation provider.
// Replies are validated against the plan schema and re-checked for excluded
// ingredients before anything is handed back for persistence.
package aiplan

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/application/retry"
	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"github.com/giuseppemarasca93/dietcoach/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config controls the retry policy around the provider call
type Config = retry.Policy

// DefaultConfig makes 3 attempts, waiting 2s and then 4s between them
func DefaultConfig() Config {
	return retry.DefaultPolicy()
}

// Request carries everything needed to generate one week
type Request struct {
	WeekStart   time.Time
	MealsPerDay int
	Profile     *mealplan.MacroProfile
	Preferences *mealplan.Preferences
	Intent      *mealplan.WeeklyIntent
}

// Result is an unsaved plan plus the recipes that do not exist yet
type Result struct {
	Plan       *mealplan.MealPlan
	NewRecipes []*mealplan.Recipe
	Attempts   int
}

// Generator produces meal plans through a TextGenerator
type Generator struct {
	textGen  outbound.TextGenerator
	recipes  outbound.RecipeRepository
	metrics  outbound.Metrics
	validate *validator.Validate
	cfg      Config
	sleep    retry.Sleeper
	logger   *zap.Logger
}

// Option customizes a Generator
type Option func(*Generator)

// WithSleeper replaces the backoff wait, mostly for tests
func WithSleeper(s retry.Sleeper) Option {
	return func(g *Generator) { g.sleep = s }
}

// WithMetrics records attempt outcomes
func WithMetrics(m outbound.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// NewGenerator creates a new plan generator
func NewGenerator(
	textGen outbound.TextGenerator,
	recipes outbound.RecipeRepository,
	cfg Config,
	logger *zap.Logger,
	opts ...Option,
) *Generator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	g := &Generator{
		textGen:  textGen,
		recipes:  recipes,
		metrics:  outbound.NopMetrics{},
		validate: validator.New(),
		cfg:      cfg,
		sleep:    retry.Sleep,
		logger:   logger.Named("aiplan"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate asks the provider for a week of meals and turns the reply into a
// plan. The returned error is always an *errors.AppError.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	slots, err := mealplan.SlotsFor(req.MealsPerDay)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if req.Profile == nil {
		return nil, errors.NewMissingConfigurationError("macro profile")
	}

	prompt, err := buildPrompt(req, slots)
	if err != nil {
		return nil, errors.NewInternalError("failed to render plan prompt").WithCause(err)
	}

	raw, attempts, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	resp, err := parseResponse(g.validate, raw, slots)
	if err != nil {
		g.logger.Warn("Generated plan rejected by schema validation",
			zap.String("provider", g.textGen.Name()),
			zap.Error(err),
		)
		return nil, errors.NewExternalServiceError(g.textGen.Name(), err).
			WithMetadata("reason", "invalid_response")
	}

	if err := checkExclusions(resp, slots, req.Preferences.Exclusions()); err != nil {
		g.logger.Warn("Generated plan contains an excluded ingredient", zap.Error(err))
		return nil, errors.NewConstraintViolationError(err.Error()).WithCause(err)
	}

	result, err := g.buildPlan(ctx, req, slots, resp, req.Preferences.Exclusions())
	if err != nil {
		return nil, err
	}
	result.Attempts = attempts
	return result, nil
}

func (g *Generator) callWithRetry(ctx context.Context, prompt string) (string, int, error) {
	provider := g.textGen.Name()

	var raw string
	attempts, err := retry.Do(ctx, g.cfg, g.sleep,
		func(attempt int, wait time.Duration, err error) {
			g.logger.Warn("Provider call failed, retrying",
				zap.String("provider", provider),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait),
				zap.Error(err),
			)
		},
		func(ctx context.Context, attempt int) error {
			start := time.Now()
			text, err := g.textGen.Generate(ctx, prompt)
			switch {
			case err == nil:
				raw = text
				g.metrics.AIAttempt(provider, "success")
				g.logger.Info("Plan generated by provider",
					zap.String("provider", provider),
					zap.Int("attempt", attempt),
					zap.Duration("duration", time.Since(start)),
				)
			case outbound.IsRetryable(err):
				g.metrics.AIAttempt(provider, "retryable_error")
			default:
				g.metrics.AIAttempt(provider, "permanent_error")
			}
			return err
		},
	)
	if err == nil {
		return raw, attempts, nil
	}

	if outbound.IsRetryable(err) {
		g.logger.Error("Provider retries exhausted",
			zap.String("provider", provider),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return "", attempts, errors.NewUpstreamUnavailableError(provider, err)
	}

	g.logger.Error("Provider call failed", zap.String("provider", provider), zap.Error(err))
	if ctx.Err() != nil {
		return "", attempts, errors.NewUpstreamUnavailableError(provider, err)
	}
	return "", attempts, errors.NewExternalServiceError(provider, err)
}

func checkExclusions(resp *planResponse, slots []mealplan.Slot, exclusions []string) error {
	if len(exclusions) == 0 {
		return nil
	}
	for d, day := range resp.Days {
		for i, meal := range day.Meals {
			ingredients := mealplan.NormalizeTokens(meal.Recipe.Ingredients)
			if term, found := mealplan.ContainsAnySubstring(ingredients, exclusions); found {
				return fmt.Errorf("%w: %q in %s of day %d (%q)",
					mealplan.ErrExcludedIngredient, term, slots[i].Name, d+1, meal.Recipe.Title)
			}
		}
	}
	return nil
}

func (g *Generator) buildPlan(
	ctx context.Context,
	req Request,
	slots []mealplan.Slot,
	resp *planResponse,
	exclusions []string,
) (*Result, error) {
	source := sourceFor(g.textGen.Name())
	plan := mealplan.NewMealPlan(uuid.NewString(), req.WeekStart, req.MealsPerDay, mealplan.StrategyAI, req.Intent)

	known := make(map[string]*mealplan.Recipe)
	var created []*mealplan.Recipe

	for d, day := range resp.Days {
		date := req.WeekStart.AddDate(0, 0, d)
		for pos, meal := range day.Meals {
			slot := slots[pos]
			recipe, isNew, err := g.resolveRecipe(ctx, known, meal.Recipe, slot, source)
			if err != nil {
				return nil, err
			}
			// a title match may resolve to a stored recipe the reply never described
			if term, found := mealplan.ContainsAnySubstring(mealplan.NormalizeTokens(recipe.Ingredients), exclusions); found {
				err := fmt.Errorf("%w: %q in stored recipe %q used for %s of day %d",
					mealplan.ErrExcludedIngredient, term, recipe.Title, slot.Name, d+1)
				g.logger.Warn("Reused recipe contains an excluded ingredient", zap.Error(err))
				return nil, errors.NewConstraintViolationError(err.Error()).WithCause(err)
			}
			if isNew {
				created = append(created, recipe)
			}

			target := req.Profile.TargetFor(slot.MealType)
			calories := target.Calories()
			if recipe.CaloriesPerServing > 0 {
				calories = recipe.CaloriesPerServing
			}
			recipeID := recipe.ID
			plan.Meals = append(plan.Meals, mealplan.Meal{
				ID:         uuid.NewString(),
				MealPlanID: plan.ID,
				Date:       date,
				Type:       slot.Name,
				Position:   pos,
				Protein:    target.Protein,
				Carbs:      target.Carbs,
				Fat:        target.Fat,
				Calories:   calories,
				RecipeID:   &recipeID,
				Recipe:     recipe,
			})
		}
	}

	return &Result{Plan: plan, NewRecipes: created}, nil
}

// resolveRecipe reuses a stored or already generated recipe with the same
// title, otherwise builds a new one
func (g *Generator) resolveRecipe(
	ctx context.Context,
	known map[string]*mealplan.Recipe,
	in recipeResponse,
	slot mealplan.Slot,
	source mealplan.Source,
) (*mealplan.Recipe, bool, error) {
	key := mealplan.TitleKey(in.Title)
	if r, ok := known[key]; ok {
		return r, false, nil
	}

	existing, err := g.recipes.FindByTitle(ctx, in.Title)
	switch {
	case err == nil:
		known[key] = existing
		return existing, false, nil
	case !stderrors.Is(err, outbound.ErrNotFound):
		return nil, false, errors.NewDatabaseError("look up recipe by title", err)
	}

	r := &mealplan.Recipe{
		ID:                 uuid.NewString(),
		Title:              in.Title,
		Ingredients:        in.Ingredients,
		Instructions:       in.Instructions,
		CaloriesPerServing: in.Calories,
		ProteinPerServing:  in.Protein,
		CarbsPerServing:    in.Carbs,
		FatPerServing:      in.Fat,
		MealType:           slot.MealType,
		Tags:               in.Tags,
		Source:             source,
		Servings:           1,
	}
	r.Normalize()
	if r.CaloriesPerServing == 0 {
		r.CaloriesPerServing = r.Macros().Calories()
	}
	known[key] = r
	return r, true, nil
}

func sourceFor(provider string) mealplan.Source {
	if s := mealplan.Source(provider); s.Valid() {
		return s
	}
	return mealplan.SourceOpenAI
}
