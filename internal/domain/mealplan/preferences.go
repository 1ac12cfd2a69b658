package mealplan

import "time"

// SatietyHigh asks the matcher to prefer filling recipes
const SatietyHigh = "high"

// HighSatietyTag marks recipes that satisfy a high satiety preference
const HighSatietyTag = "high_satiety"

// Preferences holds the user's dietary constraints
type Preferences struct {
	ID                  string    `json:"id"`
	ExcludedIngredients []string  `json:"excludedIngredients"`
	PreferredCuisines   []string  `json:"preferredCuisines"`
	PreferredTags       []string  `json:"preferredTags"`
	AvoidedTags         []string  `json:"avoidedTags"`
	RequiredTags        []string  `json:"requiredTags"`
	SatietyLevel        string    `json:"satietyLevel"`
	CookingEffort       string    `json:"cookingEffort"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Normalize lowercases every list
func (p *Preferences) Normalize() {
	p.ExcludedIngredients = NormalizeTokens(p.ExcludedIngredients)
	p.PreferredCuisines = NormalizeTokens(p.PreferredCuisines)
	p.PreferredTags = NormalizeTokens(p.PreferredTags)
	p.AvoidedTags = NormalizeTokens(p.AvoidedTags)
	p.RequiredTags = NormalizeTokens(p.RequiredTags)
	p.SatietyLevel = normalizeToken(p.SatietyLevel)
	p.CookingEffort = normalizeToken(p.CookingEffort)
}

// Exclusions returns the excluded ingredients, tolerating a nil receiver
func (p *Preferences) Exclusions() []string {
	if p == nil {
		return nil
	}
	return p.ExcludedIngredients
}

// WeeklyIntent describes what the user wants out of a given week
type WeeklyIntent struct {
	ID        string    `json:"id"`
	WeekStart time.Time `json:"weekStart"`
	Goal      string    `json:"goal"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// IntentPolicy selects which weekly intent applies to a plan
type IntentPolicy string

const (
	// IntentOnOrBefore picks the most recent intent whose week starts on or before the plan week
	IntentOnOrBefore IntentPolicy = "on_or_before"
	// IntentLatest picks the most recent intent regardless of its week
	IntentLatest IntentPolicy = "latest"
)

// Valid reports whether the policy is known
func (p IntentPolicy) Valid() bool {
	return p == IntentOnOrBefore || p == IntentLatest
}

// SelectIntent applies the policy to a list of intents
func SelectIntent(intents []WeeklyIntent, weekStart time.Time, policy IntentPolicy) *WeeklyIntent {
	var best *WeeklyIntent
	for i := range intents {
		candidate := &intents[i]
		if policy == IntentOnOrBefore && candidate.WeekStart.After(weekStart) {
			continue
		}
		if best == nil || candidate.WeekStart.After(best.WeekStart) ||
			(candidate.WeekStart.Equal(best.WeekStart) && candidate.CreatedAt.After(best.CreatedAt)) {
			best = candidate
		}
	}
	return best
}
