// Package recipe provides the application layer for recipe management
// This implements the use cases defined in the inbound ports
package recipe

import (
	"context"
	stderrors "errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giuseppemarasca93/dietcoach/internal/application/search"
	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/inbound"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"github.com/giuseppemarasca93/dietcoach/pkg/errors"
	"go.uber.org/zap"
)

// Search limits
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
	MaxQueryLength     = 200
)

// List limits
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Searcher runs external recipe searches
type Searcher interface {
	Search(ctx context.Context, query string, limit int) search.Result
}

// RecipeService implements the recipe use cases
type RecipeService struct {
	recipeRepo outbound.RecipeRepository
	searcher   Searcher
	logger     *zap.Logger
}

var _ inbound.RecipeService = (*RecipeService)(nil)

// NewRecipeService creates a new recipe service
func NewRecipeService(
	recipeRepo outbound.RecipeRepository,
	searcher Searcher,
	logger *zap.Logger,
) *RecipeService {
	return &RecipeService{
		recipeRepo: recipeRepo,
		searcher:   searcher,
		logger:     logger.Named("recipe-service"),
	}
}

// CreateRecipe validates and stores a new recipe
func (s *RecipeService) CreateRecipe(ctx context.Context, r *mealplan.Recipe) (*mealplan.Recipe, error) {
	r.ID = ""
	if err := prepare(r); err != nil {
		return nil, err
	}

	if err := s.recipeRepo.Create(ctx, r); err != nil {
		return nil, errors.NewDatabaseError("create recipe", err)
	}

	s.logger.Info("Recipe created",
		zap.String("recipe_id", r.ID),
		zap.String("title", r.Title),
	)
	return r, nil
}

// UpdateRecipe replaces an existing recipe
func (s *RecipeService) UpdateRecipe(ctx context.Context, id string, r *mealplan.Recipe) (*mealplan.Recipe, error) {
	r.ID = id
	if err := prepare(r); err != nil {
		return nil, err
	}

	if err := s.recipeRepo.Update(ctx, r); err != nil {
		if stderrors.Is(err, outbound.ErrNotFound) {
			return nil, errors.NewNotFoundError("recipe")
		}
		return nil, errors.NewDatabaseError("update recipe", err)
	}

	return s.GetRecipe(ctx, id)
}

// DeleteRecipe removes a recipe; meals that used it keep their targets and lose the link
func (s *RecipeService) DeleteRecipe(ctx context.Context, id string) error {
	if err := s.recipeRepo.Delete(ctx, id); err != nil {
		if stderrors.Is(err, outbound.ErrNotFound) {
			return errors.NewNotFoundError("recipe")
		}
		return errors.NewDatabaseError("delete recipe", err)
	}

	s.logger.Info("Recipe deleted", zap.String("recipe_id", id))
	return nil
}

// GetRecipe retrieves a recipe by ID
func (s *RecipeService) GetRecipe(ctx context.Context, id string) (*mealplan.Recipe, error) {
	r, err := s.recipeRepo.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, outbound.ErrNotFound) {
			return nil, errors.NewNotFoundError("recipe")
		}
		return nil, errors.NewDatabaseError("find recipe", err)
	}
	return r, nil
}

// ListRecipes returns a page of stored recipes
func (s *RecipeService) ListRecipes(ctx context.Context, params inbound.PaginationParams) (*inbound.RecipeList, error) {
	params = normalizePage(params)

	recipes, total, err := s.recipeRepo.List(ctx, params.Offset(), params.Limit)
	if err != nil {
		return nil, errors.NewDatabaseError("list recipes", err)
	}

	return &inbound.RecipeList{
		Recipes: recipes,
		Total:   total,
		Page:    params.Page,
		Limit:   params.Limit,
	}, nil
}

// ListRecipesByMealType returns the recipes a slot can draw from, unpaged
func (s *RecipeService) ListRecipesByMealType(ctx context.Context, mealType mealplan.MealType) (*inbound.RecipeList, error) {
	recipes, err := s.recipeRepo.FindByMealType(ctx, mealType)
	if err != nil {
		return nil, errors.NewDatabaseError("list recipes by meal type", err)
	}

	return &inbound.RecipeList{
		Recipes: recipes,
		Total:   len(recipes),
		Page:    1,
		Limit:   len(recipes),
	}, nil
}

// SearchExternal queries the external provider. Upstream failures come back
// as a degraded empty result, never as an error.
func (s *RecipeService) SearchExternal(ctx context.Context, q inbound.SearchQuery) (*inbound.SearchResult, error) {
	query := strings.TrimSpace(q.Query)
	if query == "" {
		return nil, errors.NewValidationError("query parameter q is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, errors.NewValidationError("query must not exceed 200 characters")
	}

	limit := q.Limit
	switch {
	case limit == 0:
		limit = DefaultSearchLimit
	case limit < 1:
		limit = 1
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	start := time.Now()
	result := s.searcher.Search(ctx, query, limit)
	s.logger.Debug("External search served",
		zap.String("query", query),
		zap.Int("limit", limit),
		zap.Int("results", len(result.Recipes)),
		zap.Bool("degraded", result.Degraded),
		zap.Bool("cached", result.Cached),
		zap.Duration("duration", time.Since(start)),
	)

	return &inbound.SearchResult{
		Recipes:  result.Recipes,
		Degraded: result.Degraded,
		Cached:   result.Cached,
	}, nil
}

func prepare(r *mealplan.Recipe) error {
	r.Normalize()
	if r.CaloriesPerServing == 0 {
		r.CaloriesPerServing = r.Macros().Calories()
	}
	if err := r.Validate(); err != nil {
		return errors.NewValidationError(err.Error()).WithCause(err)
	}
	return nil
}

func normalizePage(p inbound.PaginationParams) inbound.PaginationParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}
