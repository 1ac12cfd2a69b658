package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/infrastructure/persistence/memory"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"github.com/giuseppemarasca93/dietcoach/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newFetcher(t *testing.T) (*Fetcher, *testutils.MockRecipeSearchProvider, *memory.CacheRepository, *testutils.RecordingMetrics) {
	t.Helper()
	provider := &testutils.MockRecipeSearchProvider{}
	cache := memory.NewCacheRepository(memory.DefaultMaxEntries, time.Hour, 0)
	t.Cleanup(func() { _ = cache.Close() })
	metrics := testutils.NewRecordingMetrics()
	return NewFetcher(provider, cache, metrics, Config{CacheTTL: time.Hour}, zap.NewNop(), WithSleeper(noWait)), provider, cache, metrics
}

func noWait(ctx context.Context, d time.Duration) error { return nil }

var unavailable = &outbound.ProviderError{Provider: "edamam", Kind: outbound.ProviderTransient, StatusCode: 503, Err: errors.New("unavailable")}

func sampleHits(n int) []*mealplan.Recipe {
	hits := make([]*mealplan.Recipe, 0, n)
	for i := 0; i < n; i++ {
		hits = append(hits, testutils.NewRecipeBuilderWithSeed(int64(i)).WithSource(mealplan.SourceEdamam).Build())
	}
	return hits
}

func TestCacheKeyNormalizesQuery(t *testing.T) {
	assert.Equal(t, "recipe-search:chicken curry:10", CacheKey("  Chicken Curry ", 10))
	assert.NotEqual(t, CacheKey("chicken", 10), CacheKey("chicken", 5))
}

func TestSearchCachesByQueryAndLimit(t *testing.T) {
	ctx := context.Background()
	fetcher, provider, _, metrics := newFetcher(t)
	provider.On("Search", mock.Anything, "chicken", 3).Return(sampleHits(3), nil).Once()
	provider.On("Search", mock.Anything, "chicken", 2).Return(sampleHits(2), nil).Once()

	// Act
	first := fetcher.Search(ctx, "chicken", 3)
	second := fetcher.Search(ctx, "chicken", 3)
	otherLimit := fetcher.Search(ctx, "chicken", 2)

	// Assert
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.False(t, otherLimit.Cached)
	require.Len(t, second.Recipes, 3)
	assert.Equal(t, first.Recipes[0].Title, second.Recipes[0].Title)
	assert.Len(t, otherLimit.Recipes, 2)

	provider.AssertExpectations(t)
	assert.Equal(t, 2, metrics.Searches["ok"])
	assert.Equal(t, 1, metrics.Searches["cached"])
	assert.Equal(t, 1, metrics.Hits)
	assert.Equal(t, 2, metrics.Misses)
}

func TestSearchTruncatesToLimit(t *testing.T) {
	fetcher, provider, _, _ := newFetcher(t)
	provider.On("Search", mock.Anything, "soup", 2).Return(sampleHits(5), nil)

	result := fetcher.Search(context.Background(), "soup", 2)

	assert.Len(t, result.Recipes, 2)
	assert.False(t, result.Degraded)
}

func TestSearchRetriesTransientFailure(t *testing.T) {
	fetcher, provider, cache, metrics := newFetcher(t)
	provider.On("Search", mock.Anything, "tofu", 10).Return(nil, unavailable).Once()
	provider.On("Search", mock.Anything, "tofu", 10).Return(sampleHits(1), nil).Once()

	// Act
	result := fetcher.Search(context.Background(), "tofu", 10)

	// Assert
	assert.False(t, result.Degraded)
	assert.Len(t, result.Recipes, 1)
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, 1, metrics.Searches["ok"])
	provider.AssertExpectations(t)
	provider.AssertNumberOfCalls(t, "Search", 2)
}

func TestSearchDegradesWhenRetriesRunOut(t *testing.T) {
	ctx := context.Background()
	provider := &testutils.MockRecipeSearchProvider{}
	cache := memory.NewCacheRepository(10, time.Hour, 0)
	defer cache.Close()
	metrics := testutils.NewRecordingMetrics()
	var waits []time.Duration
	fetcher := NewFetcher(provider, cache, metrics, Config{}, zap.NewNop(),
		WithSleeper(func(ctx context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}))
	provider.On("Search", mock.Anything, "tofu", 10).Return(nil, unavailable).Times(3)
	provider.On("Search", mock.Anything, "tofu", 10).Return(sampleHits(1), nil).Once()

	// Act
	degraded := fetcher.Search(ctx, "tofu", 10)

	// Assert: empty, flagged, and not cached
	assert.True(t, degraded.Degraded)
	assert.NotNil(t, degraded.Recipes)
	assert.Empty(t, degraded.Recipes)
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, 1, metrics.Searches["degraded"])
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, waits)

	recovered := fetcher.Search(ctx, "tofu", 10)
	assert.False(t, recovered.Degraded)
	assert.Len(t, recovered.Recipes, 1)
	provider.AssertExpectations(t)
}

func TestSearchDoesNotRetryPermanentFailure(t *testing.T) {
	fetcher, provider, _, _ := newFetcher(t)
	denied := &outbound.ProviderError{Provider: "edamam", Kind: outbound.ProviderPermanent, StatusCode: 401, Err: errors.New("bad app key")}
	provider.On("Search", mock.Anything, "tofu", 10).Return(nil, denied).Once()

	result := fetcher.Search(context.Background(), "tofu", 10)

	assert.True(t, result.Degraded)
	provider.AssertNumberOfCalls(t, "Search", 1)
}

func TestSearchDropsUnreadableCacheEntries(t *testing.T) {
	ctx := context.Background()
	fetcher, provider, cache, _ := newFetcher(t)
	require.NoError(t, cache.Set(ctx, CacheKey("oats", 1), []byte("not json"), time.Hour))
	provider.On("Search", mock.Anything, "oats", 1).Return(sampleHits(1), nil).Once()

	result := fetcher.Search(ctx, "oats", 1)

	assert.False(t, result.Cached)
	assert.Len(t, result.Recipes, 1)
	provider.AssertExpectations(t)
}

func TestSearchDegradesWhenThrottledPastDeadline(t *testing.T) {
	provider := &testutils.MockRecipeSearchProvider{}
	cache := memory.NewCacheRepository(10, time.Hour, 0)
	defer cache.Close()
	fetcher := NewFetcher(provider, cache, nil, Config{RequestsPerSecond: 0.001}, zap.NewNop())
	provider.On("Search", mock.Anything, "rice", 1).Return(sampleHits(1), nil).Once()

	// The first call spends the only token
	require.False(t, fetcher.Search(context.Background(), "rice", 1).Degraded)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	result := fetcher.Search(ctx, "beans", 1)

	assert.True(t, result.Degraded)
	provider.AssertExpectations(t)
}
