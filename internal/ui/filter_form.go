package ui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/mcao2/careops-triage/internal/triage"
)

// rangeLayout is the accepted format for custom window bounds
const rangeLayout = "2006-01-02 15:04"

const (
	flagActionRequired = "action"
	flagUnread         = "unread"
	flagOnline         = "online"
)

// filterValues holds the editable form state. Numeric and list facets are kept
// as text so huh inputs can bind to them directly.
type filterValues struct {
	Tiers         []triage.Tier
	Categories    []triage.Category
	Departments   string
	Senders       string
	MinConfidence string
	MaxConfidence string
	Keyword       string
	Window        triage.Window
	From          string
	Until         string
	Flags         []string
}

func filterValuesFrom(spec triage.FilterSpec) *filterValues {
	v := &filterValues{
		Tiers:         slices.Clone(spec.Tiers),
		Categories:    slices.Clone(spec.Categories),
		Departments:   strings.Join(spec.Departments, ", "),
		Senders:       strings.Join(spec.Senders, ", "),
		MinConfidence: strconv.FormatFloat(spec.MinConfidence, 'f', -1, 64),
		MaxConfidence: strconv.FormatFloat(spec.MaxConfidence, 'f', -1, 64),
		Keyword:       spec.Keyword,
		Window:        spec.Window,
	}
	if spec.MaxConfidence == 0 && spec.MinConfidence == 0 {
		v.MaxConfidence = "1"
	}
	if v.Window == "" {
		v.Window = triage.WindowToday
	}
	if spec.Start != nil {
		v.From = spec.Start.Local().Format(rangeLayout)
	}
	if spec.End != nil {
		v.Until = spec.End.Local().Format(rangeLayout)
	}
	if spec.ActionRequiredOnly {
		v.Flags = append(v.Flags, flagActionRequired)
	}
	if spec.UnreadOnly {
		v.Flags = append(v.Flags, flagUnread)
	}
	if spec.OnlineOnly {
		v.Flags = append(v.Flags, flagOnline)
	}
	return v
}

// Spec converts the form state back into a filter
func (v *filterValues) Spec() (triage.FilterSpec, error) {
	spec := triage.FilterSpec{
		Tiers:              slices.Clone(v.Tiers),
		Categories:         slices.Clone(v.Categories),
		Departments:        splitList(v.Departments),
		Senders:            splitList(v.Senders),
		Keyword:            strings.TrimSpace(v.Keyword),
		Window:             v.Window,
		ActionRequiredOnly: slices.Contains(v.Flags, flagActionRequired),
		UnreadOnly:         slices.Contains(v.Flags, flagUnread),
		OnlineOnly:         slices.Contains(v.Flags, flagOnline),
	}

	var err error
	if spec.MinConfidence, err = parseUnit(v.MinConfidence, 0); err != nil {
		return triage.FilterSpec{}, fmt.Errorf("min confidence: %w", err)
	}
	if spec.MaxConfidence, err = parseUnit(v.MaxConfidence, 1); err != nil {
		return triage.FilterSpec{}, fmt.Errorf("max confidence: %w", err)
	}
	if spec.MinConfidence > spec.MaxConfidence {
		return triage.FilterSpec{}, fmt.Errorf("min confidence %.2f exceeds max %.2f", spec.MinConfidence, spec.MaxConfidence)
	}

	if spec.Window == triage.WindowCustom {
		if spec.Start, err = parseRangeBound(v.From); err != nil {
			return triage.FilterSpec{}, fmt.Errorf("from: %w", err)
		}
		if spec.End, err = parseRangeBound(v.Until); err != nil {
			return triage.FilterSpec{}, fmt.Errorf("until: %w", err)
		}
		if spec.Start != nil && spec.End != nil && !spec.Start.Before(*spec.End) {
			return triage.FilterSpec{}, fmt.Errorf("custom range start must be before its end")
		}
	}
	return spec, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseUnit parses a value in [0,1]; blank input yields def
func parseUnit(s string, def float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if f < 0 || f > 1 {
		return 0, fmt.Errorf("%v is outside [0,1]", f)
	}
	return f, nil
}

func validateUnit(s string) error {
	_, err := parseUnit(s, 0)
	return err
}

func parseRangeBound(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(rangeLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%q does not match %s", s, rangeLayout)
	}
	return &t, nil
}

func validateRangeBound(s string) error {
	_, err := parseRangeBound(s)
	return err
}

// NewFilterForm builds the multi-facet filter form bound to values
func NewFilterForm(values *filterValues) *huh.Form {
	tierOpts := make([]huh.Option[triage.Tier], len(triage.Tiers))
	for i, t := range triage.Tiers {
		tierOpts[i] = huh.NewOption(string(t), t).Selected(slices.Contains(values.Tiers, t))
	}
	catOpts := make([]huh.Option[triage.Category], len(triage.Categories))
	for i, c := range triage.Categories {
		catOpts[i] = huh.NewOption(string(c), c).Selected(slices.Contains(values.Categories, c))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[triage.Tier]().
				Title("Tiers").
				Description("None selected means all").
				Options(tierOpts...).
				Value(&values.Tiers),

			huh.NewMultiSelect[triage.Category]().
				Title("Categories").
				Options(catOpts...).
				Value(&values.Categories),

			huh.NewMultiSelect[string]().
				Title("Only").
				Options(
					huh.NewOption("Action required", flagActionRequired).Selected(slices.Contains(values.Flags, flagActionRequired)),
					huh.NewOption("Unread", flagUnread).Selected(slices.Contains(values.Flags, flagUnread)),
					huh.NewOption("Sender online", flagOnline).Selected(slices.Contains(values.Flags, flagOnline)),
				).
				Value(&values.Flags),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Departments").
				Placeholder("icu, pharmacy").
				Value(&values.Departments),

			huh.NewInput().
				Title("Senders").
				Placeholder("dr.smith@hospital.org").
				Value(&values.Senders),

			huh.NewInput().
				Title("Keyword").
				Value(&values.Keyword),

			huh.NewInput().
				Title("Min confidence").
				Validate(validateUnit).
				Value(&values.MinConfidence),

			huh.NewInput().
				Title("Max confidence").
				Validate(validateUnit).
				Value(&values.MaxConfidence),
		),
		huh.NewGroup(
			huh.NewSelect[triage.Window]().
				Title("Time window").
				Options(
					huh.NewOption("Last 24 hours", triage.WindowToday),
					huh.NewOption("Last 7 days", triage.WindowWeek),
					huh.NewOption("Last 30 days", triage.WindowMonth),
					huh.NewOption("All time", triage.WindowAll),
					huh.NewOption("Custom range", triage.WindowCustom),
				).
				Value(&values.Window),

			huh.NewInput().
				Title("From").
				Description("Custom range only, "+rangeLayout).
				Validate(validateRangeBound).
				Value(&values.From),

			huh.NewInput().
				Title("Until (exclusive)").
				Validate(validateRangeBound).
				Value(&values.Until),
		),
	).WithShowHelp(true)
}
