package triage

import (
	"slices"
	"strings"
	"time"
)

// Window selects the time range a filter accepts
type Window string

const (
	WindowToday  Window = "today"
	WindowWeek   Window = "week"
	WindowMonth  Window = "month"
	WindowAll    Window = "all"
	WindowCustom Window = "custom"
)

// Windows lists the preset windows in cycling order
var Windows = []Window{WindowToday, WindowWeek, WindowMonth, WindowAll}

// Duration returns the lookback of a preset window; zero means unbounded
func (w Window) Duration() time.Duration {
	switch w {
	case WindowToday:
		return 24 * time.Hour
	case WindowWeek:
		return 7 * 24 * time.Hour
	case WindowMonth:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// FilterSpec is a declarative multi-facet filter. An empty set on a facet
// means the facet is unrestricted.
type FilterSpec struct {
	Tiers       []Tier     `json:"tiers,omitempty"`
	Categories  []Category `json:"categories,omitempty"`
	Departments []string   `json:"departments,omitempty"`
	Senders     []string   `json:"senders,omitempty"`

	MinConfidence float64 `json:"min_confidence"`
	MaxConfidence float64 `json:"max_confidence"`

	Keyword string `json:"keyword,omitempty"`

	Window Window     `json:"window"`
	Start  *time.Time `json:"start,omitempty"`
	End    *time.Time `json:"end,omitempty"`

	ActionRequiredOnly bool `json:"action_required_only,omitempty"`
	OnlineOnly         bool `json:"online_only,omitempty"`
	UnreadOnly         bool `json:"unread_only,omitempty"`
}

// DefaultFilter accepts everything within today's window
func DefaultFilter() FilterSpec {
	return FilterSpec{
		MinConfidence: 0,
		MaxConfidence: 1,
		Window:        WindowToday,
	}
}

// usesRange reports whether the explicit [Start, End) range applies
func (f FilterSpec) usesRange() bool {
	return f.Window == WindowCustom || f.Start != nil || f.End != nil
}

// Filter returns the items matching every facet of spec, in input order
func Filter(items []ClassifiedItem, spec FilterSpec, now time.Time) []ClassifiedItem {
	m := newMatcher(spec, now)
	out := make([]ClassifiedItem, 0, len(items))
	for _, ci := range items {
		if m.match(ci) {
			out = append(out, ci)
		}
	}
	return out
}

type matcher struct {
	spec        FilterSpec
	keyword     string
	departments []string
	senders     []string
	from, until time.Time
	hasFrom     bool
	hasUntil    bool
	maxConf     float64
}

func newMatcher(spec FilterSpec, now time.Time) matcher {
	m := matcher{
		spec:        spec,
		keyword:     strings.ToLower(strings.TrimSpace(spec.Keyword)),
		departments: lowerAll(spec.Departments),
		senders:     lowerAll(spec.Senders),
		maxConf:     spec.MaxConfidence,
	}
	// An unset upper bound means no upper bound
	if m.maxConf == 0 {
		m.maxConf = 1
	}

	if spec.usesRange() {
		if spec.Start != nil {
			m.from, m.hasFrom = *spec.Start, true
		}
		if spec.End != nil {
			m.until, m.hasUntil = *spec.End, true
		}
	} else if d := spec.Window.Duration(); d > 0 {
		m.from, m.hasFrom = now.Add(-d), true
	}
	return m
}

func (m matcher) match(ci ClassifiedItem) bool {
	item, cls := ci.Item, ci.Classification

	if len(m.spec.Tiers) > 0 && !slices.Contains(m.spec.Tiers, cls.Tier) {
		return false
	}
	if len(m.spec.Categories) > 0 && !slices.Contains(m.spec.Categories, cls.Category) {
		return false
	}
	if len(m.departments) > 0 && !slices.Contains(m.departments, strings.ToLower(item.Department)) {
		return false
	}
	if len(m.senders) > 0 && !slices.Contains(m.senders, strings.ToLower(item.Sender)) {
		return false
	}
	if cls.Confidence < m.spec.MinConfidence || cls.Confidence > m.maxConf {
		return false
	}
	if m.spec.ActionRequiredOnly && !cls.ActionRequired {
		return false
	}
	if m.spec.OnlineOnly && !item.Online {
		return false
	}
	if m.spec.UnreadOnly && item.Read {
		return false
	}
	if m.hasFrom && item.Timestamp.Before(m.from) {
		return false
	}
	if m.hasUntil && !item.Timestamp.Before(m.until) {
		return false
	}
	if m.keyword != "" && !m.matchKeyword(ci) {
		return false
	}
	return true
}

func (m matcher) matchKeyword(ci ClassifiedItem) bool {
	fields := []string{ci.Item.Subject, ci.Item.Content, ci.Item.Sender}
	fields = append(fields, ci.Item.Tags...)
	fields = append(fields, ci.Classification.Matched...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), m.keyword) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
