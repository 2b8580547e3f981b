package triage

import (
	"testing"
	"time"
)

func TestRankOrder(t *testing.T) {
	items := []ClassifiedItem{
		classified("low-new", TierLow, false, time.Minute),
		classified("crit-old", TierCritical, true, 3*time.Hour),
		classified("crit-new", TierCritical, true, time.Hour),
		classified("high", TierHigh, true, 2*time.Hour),
	}

	got := ids(Rank(items))
	want := []string{"crit-new", "crit-old", "high", "low-new"}
	if !equalIDs(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if items[0].Item.ID != "low-new" {
		t.Error("Rank must not reorder its input")
	}
}

func TestRankStableForEqualKeys(t *testing.T) {
	items := []ClassifiedItem{
		classified("a", TierMedium, false, time.Hour),
		classified("b", TierHigh, false, time.Hour),
		classified("c", TierMedium, false, time.Hour),
		classified("d", TierMedium, false, time.Hour),
	}

	got := ids(Rank(items))
	want := []string{"b", "a", "c", "d"}
	if !equalIDs(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRankIdempotent(t *testing.T) {
	items := []ClassifiedItem{
		classified("1", TierLow, false, time.Minute),
		classified("2", TierHigh, false, time.Hour),
		classified("3", TierHigh, false, time.Hour),
		classified("4", TierCritical, true, 5*time.Hour),
		classified("5", TierInformational, false, time.Second),
	}

	once := Rank(items)
	twice := Rank(once)
	if !equalIDs(ids(once), ids(twice)) {
		t.Errorf("ranking is not idempotent: %v then %v", ids(once), ids(twice))
	}
}

func TestRankEmpty(t *testing.T) {
	if got := Rank(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %d items", len(got))
	}
}
