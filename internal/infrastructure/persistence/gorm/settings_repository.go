package gorm

import (
	"context"
	"fmt"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
	"gorm.io/gorm"
)

// MacroProfileRepository persists macro profiles
type MacroProfileRepository struct {
	db *gorm.DB
}

// NewMacroProfileRepository creates a new macro profile repository
func NewMacroProfileRepository(db *gorm.DB) *MacroProfileRepository {
	return &MacroProfileRepository{db: db}
}

// Get returns the most recently updated profile
func (r *MacroProfileRepository) Get(ctx context.Context) (*mealplan.MacroProfile, error) {
	var model MacroProfileModel
	if err := latest(r.db.WithContext(ctx), &model); err != nil {
		return nil, err
	}
	return ProfileFromModel(&model), nil
}

// Save updates the profile in place when it exists and inserts it otherwise
func (r *MacroProfileRepository) Save(ctx context.Context, profile *mealplan.MacroProfile) error {
	model := ProfileToModel(profile)
	if err := upsert(r.db.WithContext(ctx), model, &model.ID, &model.UpdatedAt); err != nil {
		return fmt.Errorf("save macro profile: %w", err)
	}
	profile.ID = model.ID
	profile.UpdatedAt = model.UpdatedAt
	return nil
}

// PreferencesRepository persists dietary preferences
type PreferencesRepository struct {
	db *gorm.DB
}

// NewPreferencesRepository creates a new preferences repository
func NewPreferencesRepository(db *gorm.DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// Get returns the most recently updated preferences
func (r *PreferencesRepository) Get(ctx context.Context) (*mealplan.Preferences, error) {
	var model PreferencesModel
	if err := latest(r.db.WithContext(ctx), &model); err != nil {
		return nil, err
	}
	return PreferencesFromModel(&model), nil
}

// Save updates the preferences in place when they exist and inserts them otherwise
func (r *PreferencesRepository) Save(ctx context.Context, prefs *mealplan.Preferences) error {
	model := PreferencesToModel(prefs)
	if err := upsert(r.db.WithContext(ctx), model, &model.ID, &model.UpdatedAt); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	prefs.ID = model.ID
	prefs.UpdatedAt = model.UpdatedAt
	return nil
}

// WeeklyIntentRepository persists weekly intents
type WeeklyIntentRepository struct {
	db *gorm.DB
}

// NewWeeklyIntentRepository creates a new weekly intent repository
func NewWeeklyIntentRepository(db *gorm.DB) *WeeklyIntentRepository {
	return &WeeklyIntentRepository{db: db}
}

// Create stores a new intent
func (r *WeeklyIntentRepository) Create(ctx context.Context, intent *mealplan.WeeklyIntent) error {
	model := IntentToModel(intent)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("create weekly intent: %w", err)
	}
	intent.ID = model.ID
	intent.CreatedAt = model.CreatedAt
	return nil
}

// List returns every intent ordered by week start then creation time
func (r *WeeklyIntentRepository) List(ctx context.Context) ([]mealplan.WeeklyIntent, error) {
	var models []WeeklyIntentModel
	if err := r.db.WithContext(ctx).
		Order("week_start ASC, created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list weekly intents: %w", err)
	}

	intents := make([]mealplan.WeeklyIntent, 0, len(models))
	for i := range models {
		intents = append(intents, IntentFromModel(&models[i]))
	}
	return intents, nil
}

func latest(db *gorm.DB, dest interface{}) error {
	result := db.Order("updated_at DESC").Limit(1).Find(dest)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return outbound.ErrNotFound
	}
	return nil
}

// upsert updates the row identified by *id or creates it when no row matches
func upsert(db *gorm.DB, model interface{}, id *string, updatedAt *time.Time) error {
	*updatedAt = time.Now().UTC()

	if *id != "" {
		result := db.Model(model).
			Where("id = ?", *id).
			Select("*").
			Omit("id", "created_at").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
	}

	return db.Create(model).Error
}
