package mealplan

import (
	"errors"
	"fmt"
	"math"
)

// DistanceMetric measures how far a recipe's macros are from a target
type DistanceMetric string

const (
	MetricEuclidean DistanceMetric = "euclidean"
	MetricManhattan DistanceMetric = "manhattan"
)

// Distance computes the metric between two macro triples
func (d DistanceMetric) Distance(a, b MacroTarget) float64 {
	dp := a.Protein - b.Protein
	dc := a.Carbs - b.Carbs
	df := a.Fat - b.Fat
	if d == MetricManhattan {
		return math.Abs(dp) + math.Abs(dc) + math.Abs(df)
	}
	return math.Sqrt(dp*dp + dc*dc + df*df)
}

// MatcherConfig holds the scoring weights
type MatcherConfig struct {
	Metric         DistanceMetric
	TagBonus       float64
	TagPenalty     float64
	SatietyPenalty float64
	Threshold      float64
}

// DefaultMatcherConfig returns the reference weights
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		Metric:         MetricEuclidean,
		TagBonus:       5,
		TagPenalty:     5,
		SatietyPenalty: 10,
		Threshold:      80,
	}
}

// Validate checks the configuration
func (c MatcherConfig) Validate() error {
	if c.Metric != MetricEuclidean && c.Metric != MetricManhattan {
		return fmt.Errorf("unknown distance metric %q", c.Metric)
	}
	if c.TagBonus < 0 || c.TagPenalty < 0 || c.SatietyPenalty < 0 {
		return errors.New("tag and satiety weights must not be negative")
	}
	if c.Threshold <= 0 {
		return errors.New("acceptance threshold must be positive")
	}
	return nil
}

// MatchCriteria describes one slot to fill. Lists must be normalized tokens.
type MatchCriteria struct {
	MealType            MealType
	Target              MacroTarget
	ExcludedIngredients []string
	RequiredTags        []string
	PreferredTags       []string
	AvoidedTags         []string
	SatietyLevel        string
}

// CriteriaFor builds the criteria for a slot from the user's preferences.
// Nil preferences mean no constraints.
func CriteriaFor(mt MealType, target MacroTarget, prefs *Preferences) MatchCriteria {
	c := MatchCriteria{MealType: mt, Target: target}
	if prefs != nil {
		c.ExcludedIngredients = prefs.ExcludedIngredients
		c.RequiredTags = prefs.RequiredTags
		c.PreferredTags = prefs.PreferredTags
		c.AvoidedTags = prefs.AvoidedTags
		c.SatietyLevel = prefs.SatietyLevel
	}
	return c
}

// Match is a selected recipe with its score
type Match struct {
	Recipe *Recipe
	Score  float64
}

// Matcher picks the recipe that best fits a macro target
type Matcher struct {
	cfg MatcherConfig
}

// NewMatcher creates a matcher with the given weights
func NewMatcher(cfg MatcherConfig) *Matcher {
	return &Matcher{cfg: cfg}
}

// Config returns the matcher weights
func (m *Matcher) Config() MatcherConfig {
	return m.cfg
}

// Candidates filters the pool by meal type, exclusions and required tags,
// keeping pool order
func (m *Matcher) Candidates(pool []*Recipe, c MatchCriteria) []*Recipe {
	out := make([]*Recipe, 0, len(pool))
	for _, r := range pool {
		if r == nil || !r.FitsMealType(c.MealType) {
			continue
		}
		if _, excluded := ContainsAnySubstring(r.Ingredients, c.ExcludedIngredients); excluded {
			continue
		}
		if len(c.RequiredTags) > 0 && !NewTagSet(r.Tags).HasAll(c.RequiredTags) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Score computes the fit of a recipe; lower is better
func (m *Matcher) Score(r *Recipe, c MatchCriteria) float64 {
	tags := NewTagSet(r.Tags)

	score := m.cfg.Metric.Distance(c.Target, r.Macros())
	score -= m.cfg.TagBonus * float64(tags.CountOf(c.PreferredTags))
	score += m.cfg.TagPenalty * float64(tags.CountOf(c.AvoidedTags))
	if c.SatietyLevel == SatietyHigh && !tags.Has(HighSatietyTag) {
		score += m.cfg.SatietyPenalty
	}
	return score
}

// Select returns the lowest scoring candidate. It reports false when no
// candidate survives filtering or the best score exceeds the threshold.
// Ties go to the earliest recipe in the pool.
func (m *Matcher) Select(pool []*Recipe, c MatchCriteria) (Match, bool) {
	var best Match
	found := false
	for _, r := range m.Candidates(pool, c) {
		score := m.Score(r, c)
		if !found || score < best.Score {
			best = Match{Recipe: r, Score: score}
			found = true
		}
	}
	if !found || best.Score > m.cfg.Threshold {
		return Match{}, false
	}
	return best, true
}
