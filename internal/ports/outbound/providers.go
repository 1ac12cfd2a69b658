package outbound

import (
	"context"
	"errors"
	"fmt"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/domain/shared"
)

// TextGenerator sends a prompt to a text-generation provider and returns the raw reply
type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// RecipeSearchProvider queries a third-party recipe search API. Results are
// already normalized to per-serving values.
type RecipeSearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]*mealplan.Recipe, error)
}

// EventPublisher publishes domain events to a message bus
type EventPublisher interface {
	Publish(ctx context.Context, event shared.DomainEvent) error
	Close() error
}

// ProviderErrorKind classifies an upstream failure for retry decisions
type ProviderErrorKind string

const (
	ProviderRateLimited ProviderErrorKind = "rate_limited"
	ProviderTransient   ProviderErrorKind = "transient"
	ProviderPermanent   ProviderErrorKind = "permanent"
)

// ProviderError wraps a failure returned by an external provider
type ProviderError struct {
	Provider   string
	Kind       ProviderErrorKind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ClassifyStatus maps an HTTP status to a provider error kind
func ClassifyStatus(status int) ProviderErrorKind {
	switch {
	case status == 429:
		return ProviderRateLimited
	case status == 408 || status >= 500:
		return ProviderTransient
	default:
		return ProviderPermanent
	}
}

// IsRetryable reports whether err is a rate-limit or transient provider failure
func IsRetryable(err error) bool {
	var perr *ProviderError
	if !errors.As(err, &perr) {
		return false
	}
	return perr.Kind == ProviderRateLimited || perr.Kind == ProviderTransient
}
