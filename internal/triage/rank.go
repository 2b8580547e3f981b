package triage

import (
	"cmp"
	"slices"
)

// Rank returns a copy of items ordered by urgency (highest first), then by
// timestamp (newest first). Equal keys keep their input order.
func Rank(items []ClassifiedItem) []ClassifiedItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, compareRank)
	return out
}

func compareRank(a, b ClassifiedItem) int {
	if c := cmp.Compare(b.Classification.Urgency, a.Classification.Urgency); c != 0 {
		return c
	}
	return b.Item.Timestamp.Compare(a.Item.Timestamp)
}
