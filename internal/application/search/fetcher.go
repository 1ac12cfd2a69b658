// Package search fronts the external recipe search provider with a cache.
// Transient upstream failures are retried; once retries run out the search
// degrades to an empty result instead of an error.
package search

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/application/retry"
	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config for the fetcher
type Config struct {
	CacheTTL time.Duration
	// RequestsPerSecond throttles upstream calls; zero disables the throttle
	RequestsPerSecond float64
	// Retry bounds upstream attempts; zero MaxAttempts uses DefaultRetry
	Retry retry.Policy
}

// DefaultRetry makes 3 attempts, waiting 500ms and then 1s between them
func DefaultRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 3, BaseBackoff: 500 * time.Millisecond}
}

// Result is the outcome of one search
type Result struct {
	Recipes  []*mealplan.Recipe
	Degraded bool
	Cached   bool
}

// Fetcher queries the search provider through a cache keyed by (query, limit)
type Fetcher struct {
	provider outbound.RecipeSearchProvider
	cache    outbound.CacheRepository
	limiter  *rate.Limiter
	metrics  outbound.Metrics
	policy   retry.Policy
	sleep    retry.Sleeper
	ttl      time.Duration
	logger   *zap.Logger
}

// Option customizes a Fetcher
type Option func(*Fetcher)

// WithSleeper replaces the backoff wait between upstream attempts
func WithSleeper(s retry.Sleeper) Option {
	return func(f *Fetcher) { f.sleep = s }
}

// NewFetcher creates a new fetcher
func NewFetcher(
	provider outbound.RecipeSearchProvider,
	cache outbound.CacheRepository,
	metrics outbound.Metrics,
	cfg Config,
	logger *zap.Logger,
	opts ...Option,
) *Fetcher {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry = DefaultRetry()
	}
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	f := &Fetcher{
		provider: provider,
		cache:    cache,
		metrics:  metrics,
		policy:   cfg.Retry,
		sleep:    retry.Sleep,
		ttl:      cfg.CacheTTL,
		logger:   logger.Named("recipe-search"),
	}
	if cfg.RequestsPerSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CacheKey builds the cache key for a normalized query and limit
func CacheKey(query string, limit int) string {
	return fmt.Sprintf("recipe-search:%s:%d", strings.ToLower(strings.TrimSpace(query)), limit)
}

// Search returns normalized recipes for the query. It never returns an error
// for upstream failures; those produce an empty, degraded result that is not cached.
func (f *Fetcher) Search(ctx context.Context, query string, limit int) Result {
	key := CacheKey(query, limit)

	if recipes, ok := f.fromCache(ctx, key); ok {
		f.metrics.ExternalSearch("cached")
		return Result{Recipes: recipes, Cached: true}
	}

	start := time.Now()
	var recipes []*mealplan.Recipe
	attempts, err := retry.Do(ctx, f.policy, f.sleep,
		func(attempt int, wait time.Duration, err error) {
			f.logger.Warn("External recipe search failed, retrying",
				zap.String("query", query),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait),
				zap.Error(err),
			)
		},
		func(ctx context.Context, attempt int) error {
			if f.limiter != nil {
				if err := f.limiter.Wait(ctx); err != nil {
					return fmt.Errorf("upstream throttle: %w", err)
				}
			}
			var err error
			recipes, err = f.provider.Search(ctx, query, limit)
			return err
		},
	)
	if err != nil {
		f.logger.Warn("External recipe search failed, returning degraded result",
			zap.String("query", query),
			zap.Int("limit", limit),
			zap.Int("attempts", attempts),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		f.metrics.ExternalSearch("degraded")
		return Result{Recipes: []*mealplan.Recipe{}, Degraded: true}
	}
	if recipes == nil {
		recipes = []*mealplan.Recipe{}
	}
	if len(recipes) > limit {
		recipes = recipes[:limit]
	}

	f.toCache(ctx, key, recipes)
	f.metrics.ExternalSearch("ok")
	f.logger.Info("External recipe search completed",
		zap.String("query", query),
		zap.Int("results", len(recipes)),
		zap.Int("attempts", attempts),
		zap.Duration("duration", time.Since(start)),
	)
	return Result{Recipes: recipes}
}

func (f *Fetcher) fromCache(ctx context.Context, key string) ([]*mealplan.Recipe, bool) {
	data, err := f.cache.Get(ctx, key)
	if err != nil {
		if !stderrors.Is(err, outbound.ErrCacheMiss) {
			f.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		f.metrics.CacheLookup(false)
		f.logger.Debug("Cache miss", zap.String("key", key))
		return nil, false
	}

	var recipes []*mealplan.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		f.logger.Warn("Discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		_ = f.cache.Delete(ctx, key)
		f.metrics.CacheLookup(false)
		return nil, false
	}
	f.metrics.CacheLookup(true)
	f.logger.Debug("Cache hit", zap.String("key", key))
	return recipes, true
}

func (f *Fetcher) toCache(ctx context.Context, key string, recipes []*mealplan.Recipe) {
	data, err := json.Marshal(recipes)
	if err != nil {
		f.logger.Warn("Failed to encode search result for cache", zap.Error(err))
		return
	}
	if err := f.cache.Set(ctx, key, data, f.ttl); err != nil {
		f.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}
