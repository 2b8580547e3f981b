package triage

import (
	"testing"
	"time"
)

func classified(id string, tier Tier, action bool, age time.Duration) ClassifiedItem {
	cat := CategoryInformational
	for _, c := range Categories {
		if c.Tier() == tier {
			cat = c
			break
		}
	}
	return ClassifiedItem{
		Item: Item{
			ID:        id,
			Sender:    "ward" + id + "@hospital.org",
			Subject:   "subject " + id,
			Timestamp: testNow.Add(-age),
		},
		Classification: Classification{
			Category:       cat,
			Tier:           tier,
			Urgency:        tier.Urgency(),
			Confidence:     0.6,
			ActionRequired: action,
		},
	}
}

func ids(items []ClassifiedItem) []string {
	out := make([]string, len(items))
	for i, ci := range items {
		out[i] = ci.Item.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterTierAndAction(t *testing.T) {
	items := []ClassifiedItem{
		classified("1", TierLow, false, time.Hour),
		classified("2", TierCritical, true, 2*time.Hour),
		classified("3", TierHigh, false, 3*time.Hour),
		classified("4", TierMedium, true, 4*time.Hour),
		classified("5", TierCritical, true, 5*time.Hour),
		classified("6", TierInformational, false, 6*time.Hour),
	}

	spec := DefaultFilter()
	spec.Tiers = []Tier{TierCritical, TierHigh}
	spec.ActionRequiredOnly = true

	got := ids(Filter(items, spec, testNow))
	want := []string{"2", "5"}
	if !equalIDs(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestFilterEmptySetsAreUnrestricted(t *testing.T) {
	items := []ClassifiedItem{
		classified("1", TierCritical, true, time.Minute),
		classified("2", TierLow, false, time.Minute),
		classified("3", TierInformational, false, time.Minute),
	}
	items[1].Item.Department = "Radiology"

	specs := []FilterSpec{
		DefaultFilter(),
		{Window: WindowAll},
		{Window: WindowToday, Tiers: []Tier{}, Categories: []Category{}, Departments: []string{}, Senders: []string{}},
	}
	for i, spec := range specs {
		if got := Filter(items, spec, testNow); len(got) != len(items) {
			t.Errorf("spec %d: expected all %d items, got %d", i, len(items), len(got))
		}
	}
}

func TestFilterFacets(t *testing.T) {
	base := []ClassifiedItem{
		classified("1", TierCritical, true, 30*time.Minute),
		classified("2", TierHigh, false, 3*24*time.Hour),
		classified("3", TierMedium, false, 20*24*time.Hour),
		classified("4", TierLow, true, 60*24*time.Hour),
	}
	base[0].Item.Department = "ICU"
	base[0].Item.Online = true
	base[1].Item.Read = true
	base[1].Item.Content = "Potassium level CRITICAL"
	base[2].Classification.Confidence = 0.2
	base[3].Item.Tags = []string{"Billing"}

	start := testNow.Add(-4 * 24 * time.Hour)
	end := testNow.Add(-30 * time.Minute)

	tests := []struct {
		name string
		spec FilterSpec
		want []string
	}{
		{name: "today", spec: FilterSpec{Window: WindowToday}, want: []string{"1"}},
		{name: "week", spec: FilterSpec{Window: WindowWeek}, want: []string{"1", "2"}},
		{name: "month", spec: FilterSpec{Window: WindowMonth}, want: []string{"1", "2", "3"}},
		{name: "all", spec: FilterSpec{Window: WindowAll}, want: []string{"1", "2", "3", "4"}},
		{
			name: "custom range excludes end",
			spec: FilterSpec{Window: WindowCustom, Start: &start, End: &end},
			want: []string{"2"},
		},
		{name: "department case insensitive", spec: FilterSpec{Window: WindowAll, Departments: []string{"icu"}}, want: []string{"1"}},
		{name: "sender", spec: FilterSpec{Window: WindowAll, Senders: []string{"WARD3@hospital.org"}}, want: []string{"3"}},
		{name: "online only", spec: FilterSpec{Window: WindowAll, OnlineOnly: true}, want: []string{"1"}},
		{name: "unread only", spec: FilterSpec{Window: WindowAll, UnreadOnly: true}, want: []string{"1", "3", "4"}},
		{name: "confidence range", spec: FilterSpec{Window: WindowAll, MinConfidence: 0.5, MaxConfidence: 1}, want: []string{"1", "2", "4"}},
		{name: "keyword in content", spec: FilterSpec{Window: WindowAll, Keyword: "critical"}, want: []string{"2"}},
		{name: "keyword in tags", spec: FilterSpec{Window: WindowAll, Keyword: "billing"}, want: []string{"4"}},
		{name: "categories", spec: FilterSpec{Window: WindowAll, Categories: []Category{CategoryRoutine, CategoryEmergency}}, want: []string{"1", "4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(base, tt.spec, testNow))
			if !equalIDs(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestDefaultFilterWindow(t *testing.T) {
	recent := classified("1", TierHigh, true, time.Hour)
	old := classified("2", TierHigh, true, 48*time.Hour)
	got := ids(Filter([]ClassifiedItem{recent, old}, DefaultFilter(), testNow))
	if !equalIDs(got, []string{"1"}) {
		t.Errorf("default filter should keep only the last day, got %v", got)
	}
}

func TestFilterMinConfidenceOnly(t *testing.T) {
	low := classified("low", TierHigh, true, time.Hour)
	low.Classification.Confidence = 0.2
	high := classified("high", TierHigh, true, time.Hour)
	high.Classification.Confidence = 0.8

	spec := FilterSpec{MinConfidence: 0.3, Window: WindowAll}
	got := ids(Filter([]ClassifiedItem{low, high}, spec, testNow))
	if !equalIDs(got, []string{"high"}) {
		t.Errorf("expected a lower bound alone to keep high, got %v", got)
	}
}

func TestWindowDuration(t *testing.T) {
	tests := []struct {
		w    Window
		want time.Duration
	}{
		{WindowToday, 24 * time.Hour},
		{WindowWeek, 7 * 24 * time.Hour},
		{WindowMonth, 30 * 24 * time.Hour},
		{WindowAll, 0},
		{WindowCustom, 0},
	}
	for _, tt := range tests {
		if got := tt.w.Duration(); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.w, tt.want, got)
		}
	}
}
