package aiplan

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"github.com/giuseppemarasca93/dietcoach/internal/domain/mealplan"
)

//go:embed prompt.tmpl
var promptSource string

var promptTemplate = template.Must(template.New("mealplan").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(promptSource))

var goalGuidance = map[string]string{
	"lose_weight": "lose weight with a moderate calorie deficit; favour lean protein, vegetables and fibre",
	"maintain":    "maintain current weight with balanced, varied meals",
	"gain_muscle": "build muscle; keep protein high at every meal and spread it across the day",
}

const defaultGuidance = "eat balanced, varied meals that hit the macro targets"

// GoalGuidance returns the prompt guidance for a weekly intent goal
func GoalGuidance(goal string) string {
	if text, ok := goalGuidance[strings.ToLower(strings.TrimSpace(goal))]; ok {
		return text
	}
	return defaultGuidance
}

type promptSlot struct {
	Name   string
	Target mealplan.MacroTarget
}

type promptData struct {
	WeekStart     string
	WeekEnd       string
	Days          []string
	Slots         []promptSlot
	Guidance      string
	Notes         string
	Exclusions    []string
	Cuisines      []string
	RequiredTags  []string
	PreferredTags []string
	AvoidedTags   []string
	HighSatiety   bool
}

func buildPrompt(req Request, slots []mealplan.Slot) (string, error) {
	data := promptData{
		WeekStart: req.WeekStart.Format(mealplan.DateLayout),
		WeekEnd:   req.WeekStart.AddDate(0, 0, mealplan.DaysPerWeek-1).Format(mealplan.DateLayout),
		Guidance:  defaultGuidance,
	}
	for i := 0; i < mealplan.DaysPerWeek; i++ {
		data.Days = append(data.Days, req.WeekStart.AddDate(0, 0, i).Format(mealplan.DateLayout))
	}
	for _, slot := range slots {
		data.Slots = append(data.Slots, promptSlot{Name: slot.Name, Target: req.Profile.TargetFor(slot.MealType)})
	}
	if req.Intent != nil {
		data.Guidance = GoalGuidance(req.Intent.Goal)
		data.Notes = req.Intent.Notes
	}
	if p := req.Preferences; p != nil {
		data.Exclusions = p.ExcludedIngredients
		data.Cuisines = p.PreferredCuisines
		data.RequiredTags = p.RequiredTags
		data.PreferredTags = p.PreferredTags
		data.AvoidedTags = p.AvoidedTags
		data.HighSatiety = p.SatietyLevel == mealplan.SatietyHigh
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
