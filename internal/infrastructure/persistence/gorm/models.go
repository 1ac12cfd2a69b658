// Package gorm provides GORM model definitions and repositories for the application
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipeModel represents the GORM model for recipes
type RecipeModel struct {
	ID       string `gorm:"type:char(36);primaryKey"`
	Title    string `gorm:"type:varchar(200);not null"`
	TitleKey string `gorm:"type:varchar(200);not null;index"`

	Ingredients  StringSlice `gorm:"type:json"`
	Instructions string      `gorm:"type:text"`
	Tags         StringSlice `gorm:"type:json"`

	// Per serving values
	Calories float64 `gorm:"column:calories_per_serving;default:0"`
	Protein  float64 `gorm:"column:protein_per_serving;default:0"`
	Carbs    float64 `gorm:"column:carbs_per_serving;default:0"`
	Fat      float64 `gorm:"column:fat_per_serving;default:0"`

	// Nil fits any meal slot
	MealType *string `gorm:"type:varchar(20);index"`

	Source     string `gorm:"type:varchar(20);not null;default:'manual'"`
	Servings   int    `gorm:"default:1"`
	ExternalID string `gorm:"type:varchar(255)"`
	SourceURL  string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName overrides the table name
func (RecipeModel) TableName() string { return "recipes" }

// MacroProfileModel stores one macro target per meal type
type MacroProfileModel struct {
	ID string `gorm:"type:char(36);primaryKey"`

	BreakfastProtein float64
	BreakfastCarbs   float64
	BreakfastFat     float64
	LunchProtein     float64
	LunchCarbs       float64
	LunchFat         float64
	SnackProtein     float64
	SnackCarbs       float64
	SnackFat         float64
	DinnerProtein    float64
	DinnerCarbs      float64
	DinnerFat        float64

	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

// TableName overrides the table name
func (MacroProfileModel) TableName() string { return "macro_profiles" }

// PreferencesModel stores the dietary preferences
type PreferencesModel struct {
	ID                  string      `gorm:"type:char(36);primaryKey"`
	ExcludedIngredients StringSlice `gorm:"type:json"`
	PreferredCuisines   StringSlice `gorm:"type:json"`
	PreferredTags       StringSlice `gorm:"type:json"`
	AvoidedTags         StringSlice `gorm:"type:json"`
	RequiredTags        StringSlice `gorm:"type:json"`
	SatietyLevel        string      `gorm:"type:varchar(20)"`
	CookingEffort       string      `gorm:"type:varchar(20)"`
	CreatedAt           time.Time
	UpdatedAt           time.Time `gorm:"index"`
}

// TableName overrides the table name
func (PreferencesModel) TableName() string { return "preferences" }

// WeeklyIntentModel stores a goal for one week
type WeeklyIntentModel struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	WeekStart time.Time `gorm:"type:date;not null;index"`
	Goal      string    `gorm:"type:varchar(50)"`
	Notes     string    `gorm:"type:text"`
	CreatedAt time.Time
}

// TableName overrides the table name
func (WeeklyIntentModel) TableName() string { return "weekly_intents" }

// MealPlanModel represents the GORM model for plan headers
type MealPlanModel struct {
	ID             string    `gorm:"type:char(36);primaryKey"`
	WeekStart      time.Time `gorm:"type:date;not null;index"`
	WeekEnd        time.Time `gorm:"type:date;not null"`
	Goal           string    `gorm:"type:varchar(50)"`
	WeeklyIntentID *string   `gorm:"type:char(36)"`
	MealsPerDay    int       `gorm:"not null"`
	Strategy       string    `gorm:"type:varchar(20);not null"`
	CreatedAt      time.Time `gorm:"index"`

	// Relationships
	Meals []MealModel `gorm:"foreignKey:MealPlanID"`
}

// TableName overrides the table name
func (MealPlanModel) TableName() string { return "meal_plans" }

// MealModel represents one slot of a plan
type MealModel struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	MealPlanID string    `gorm:"type:char(36);not null;index"`
	Date       time.Time `gorm:"type:date;not null"`
	Type       string    `gorm:"type:varchar(30);not null"`
	Position   int       `gorm:"not null;default:0"`
	Protein    float64
	Carbs      float64
	Fat        float64
	Calories   float64
	RecipeID   *string `gorm:"type:char(36);index"`

	// Relationships
	Recipe *RecipeModel `gorm:"foreignKey:RecipeID"`
}

// TableName overrides the table name
func (MealModel) TableName() string { return "meals" }

// Models lists every model for auto-migration
func Models() []interface{} {
	return []interface{}{
		&RecipeModel{},
		&MacroProfileModel{},
		&PreferencesModel{},
		&WeeklyIntentModel{},
		&MealPlanModel{},
		&MealModel{},
	}
}

// StringSlice custom type for handling string slices in JSON
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// BeforeCreate hook for RecipeModel
func (r *RecipeModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate hook for MealPlanModel
func (p *MealPlanModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate hook for MealModel
func (m *MealModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate hook for MacroProfileModel
func (p *MacroProfileModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate hook for PreferencesModel
func (p *PreferencesModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate hook for WeeklyIntentModel
func (i *WeeklyIntentModel) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
