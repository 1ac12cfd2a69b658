// Package settings manages the macro profile, preferences and weekly intents
// that plan generation reads
package settings

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/inbound"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"github.com/giuseppemarasca93/dietcoach/pkg/errors"
	"go.uber.org/zap"
)

// Service implements inbound.SettingsService
type Service struct {
	profiles outbound.MacroProfileRepository
	prefs    outbound.PreferencesRepository
	intents  outbound.WeeklyIntentRepository
	policy   mealplan.IntentPolicy
	logger   *zap.Logger
}

var _ inbound.SettingsService = (*Service)(nil)

// NewService creates a new settings service
func NewService(
	profiles outbound.MacroProfileRepository,
	prefs outbound.PreferencesRepository,
	intents outbound.WeeklyIntentRepository,
	policy mealplan.IntentPolicy,
	logger *zap.Logger,
) *Service {
	if !policy.Valid() {
		policy = mealplan.IntentOnOrBefore
	}
	return &Service{
		profiles: profiles,
		prefs:    prefs,
		intents:  intents,
		policy:   policy,
		logger:   logger.Named("settings-service"),
	}
}

// GetMacroProfile returns the active profile
func (s *Service) GetMacroProfile(ctx context.Context) (*mealplan.MacroProfile, error) {
	profile, err := s.profiles.Get(ctx)
	if err != nil {
		return nil, notFoundOr(err, "macro profile", "load macro profile")
	}
	return profile, nil
}

// SaveMacroProfile upserts the single active profile
func (s *Service) SaveMacroProfile(ctx context.Context, profile *mealplan.MacroProfile) (*mealplan.MacroProfile, error) {
	if err := profile.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error()).WithCause(err)
	}

	existing, err := s.profiles.Get(ctx)
	switch {
	case err == nil:
		profile.ID = existing.ID
	case stderrors.Is(err, outbound.ErrNotFound):
		profile.ID = ""
	default:
		return nil, errors.NewDatabaseError("load macro profile", err)
	}

	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, errors.NewDatabaseError("save macro profile", err)
	}

	s.logger.Info("Macro profile saved", zap.String("profile_id", profile.ID))
	return profile, nil
}

// GetPreferences returns the active preferences
func (s *Service) GetPreferences(ctx context.Context) (*mealplan.Preferences, error) {
	prefs, err := s.prefs.Get(ctx)
	if err != nil {
		return nil, notFoundOr(err, "preferences", "load preferences")
	}
	return prefs, nil
}

// SavePreferences normalizes and upserts the single active preferences record
func (s *Service) SavePreferences(ctx context.Context, prefs *mealplan.Preferences) (*mealplan.Preferences, error) {
	prefs.Normalize()

	existing, err := s.prefs.Get(ctx)
	switch {
	case err == nil:
		prefs.ID = existing.ID
	case stderrors.Is(err, outbound.ErrNotFound):
		prefs.ID = ""
	default:
		return nil, errors.NewDatabaseError("load preferences", err)
	}

	if err := s.prefs.Save(ctx, prefs); err != nil {
		return nil, errors.NewDatabaseError("save preferences", err)
	}

	s.logger.Info("Preferences saved",
		zap.String("preferences_id", prefs.ID),
		zap.Int("excluded_ingredients", len(prefs.ExcludedIngredients)),
	)
	return prefs, nil
}

// ListWeeklyIntents returns every intent ordered by week start
func (s *Service) ListWeeklyIntents(ctx context.Context) ([]mealplan.WeeklyIntent, error) {
	intents, err := s.intents.List(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("list weekly intents", err)
	}
	return intents, nil
}

// CreateWeeklyIntent stores a goal for a week
func (s *Service) CreateWeeklyIntent(ctx context.Context, cmd inbound.CreateIntentCommand) (*mealplan.WeeklyIntent, error) {
	weekStart, err := mealplan.ParseWeekStart(cmd.WeekStart)
	if err != nil {
		return nil, errors.NewValidationError(err.Error()).WithCause(err)
	}

	intent := &mealplan.WeeklyIntent{
		WeekStart: weekStart,
		Goal:      strings.ToLower(strings.TrimSpace(cmd.Goal)),
		Notes:     strings.TrimSpace(cmd.Notes),
	}
	if err := s.intents.Create(ctx, intent); err != nil {
		return nil, errors.NewDatabaseError("create weekly intent", err)
	}
	return intent, nil
}

// IntentFor applies the configured selection policy
func (s *Service) IntentFor(ctx context.Context, weekStart time.Time) (*mealplan.WeeklyIntent, error) {
	intents, err := s.ListWeeklyIntents(ctx)
	if err != nil {
		return nil, err
	}
	return mealplan.SelectIntent(intents, weekStart, s.policy), nil
}

func notFoundOr(err error, resource, operation string) error {
	if stderrors.Is(err, outbound.ErrNotFound) {
		return errors.NewNotFoundError(resource)
	}
	return errors.NewDatabaseError(operation, err)
}
