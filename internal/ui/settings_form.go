package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/mcao2/careops-triage/internal/triage"
)

// thresholdCategories are the categories with a tunable threshold
var thresholdCategories = []triage.Category{
	triage.CategoryEmergency,
	triage.CategoryClinical,
	triage.CategoryAdministrative,
	triage.CategoryRoutine,
}

type settingsValues struct {
	Algorithm        triage.Algorithm
	Thresholds       map[triage.Category]*string
	Recency          string
	Sender           string
	Content          string
	Interaction      string
	Department       string
	ImportantSenders string
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func settingsValuesFrom(s triage.Settings) *settingsValues {
	v := &settingsValues{
		Algorithm:        s.Algorithm,
		Thresholds:       make(map[triage.Category]*string, len(thresholdCategories)),
		Recency:          formatFloat(s.Weights.Recency),
		Sender:           formatFloat(s.Weights.Sender),
		Content:          formatFloat(s.Weights.Content),
		Interaction:      formatFloat(s.Weights.Interaction),
		Department:       formatFloat(s.Weights.Department),
		ImportantSenders: strings.Join(s.ImportantSenders, ", "),
	}
	for _, c := range thresholdCategories {
		t, ok := s.Thresholds[c]
		if !ok {
			t = triage.DefaultSettings().Thresholds[c]
		}
		str := formatFloat(t)
		v.Thresholds[c] = &str
	}
	return v
}

// Apply writes the form state over a copy of base. Range and weight-sum checks
// are left to the settings store so they surface as configuration errors.
func (v *settingsValues) Apply(base triage.Settings) (triage.Settings, error) {
	s := base.Clone()
	s.Algorithm = v.Algorithm
	if s.Thresholds == nil {
		s.Thresholds = make(map[triage.Category]float64, len(thresholdCategories))
	}
	for _, c := range thresholdCategories {
		str, ok := v.Thresholds[c]
		if !ok {
			continue
		}
		f, err := parseSetting(*str, "threshold."+string(c))
		if err != nil {
			return triage.Settings{}, err
		}
		s.Thresholds[c] = f
	}

	weights := []struct {
		raw  string
		name string
		dst  *float64
	}{
		{v.Recency, "recency", &s.Weights.Recency},
		{v.Sender, "sender", &s.Weights.Sender},
		{v.Content, "content", &s.Weights.Content},
		{v.Interaction, "interaction", &s.Weights.Interaction},
		{v.Department, "department", &s.Weights.Department},
	}
	for _, w := range weights {
		f, err := parseSetting(w.raw, "weights."+w.name)
		if err != nil {
			return triage.Settings{}, err
		}
		*w.dst = f
	}

	s.ImportantSenders = splitList(v.ImportantSenders)
	return s, nil
}

func parseSetting(raw, field string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, triage.ConfigurationError("%s: %q is not a number", field, raw).WithDetail("field", field)
	}
	return f, nil
}

func validateNumber(s string) error {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return triage.ConfigurationError("%q is not a number", s)
	}
	return nil
}

// NewSettingsForm builds the classifier settings form bound to values
func NewSettingsForm(values *settingsValues) *huh.Form {
	algOpts := make([]huh.Option[triage.Algorithm], len(triage.Algorithms))
	for i, a := range triage.Algorithms {
		algOpts[i] = huh.NewOption(string(a), a)
	}

	thresholds := make([]huh.Field, 0, len(thresholdCategories))
	for _, c := range thresholdCategories {
		thresholds = append(thresholds, huh.NewInput().
			Title(string(c)+" threshold").
			Validate(validateUnit).
			Value(values.Thresholds[c]))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[triage.Algorithm]().
				Title("Algorithm").
				Description("custom scores items with the weights on the next page").
				Options(algOpts...).
				Value(&values.Algorithm),

			huh.NewText().
				Title("Important senders").
				Description("Comma separated").
				Value(&values.ImportantSenders),
		),
		huh.NewGroup(thresholds...).Title("Thresholds"),
		huh.NewGroup(
			huh.NewInput().Title("Recency").Validate(validateNumber).Value(&values.Recency),
			huh.NewInput().Title("Sender").Validate(validateNumber).Value(&values.Sender),
			huh.NewInput().Title("Content").Validate(validateNumber).Value(&values.Content),
			huh.NewInput().Title("Interaction").Validate(validateNumber).Value(&values.Interaction),
			huh.NewInput().Title("Department").Validate(validateNumber).Value(&values.Department),
		).Title("Custom weights").Description("Must sum to 1.0"),
	).WithShowHelp(true)
}
