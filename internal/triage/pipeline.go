package triage

import "time"

// Result is the output of one pipeline run
type Result struct {
	Ordered  []ClassifiedItem `json:"ordered"`
	Insights Insights         `json:"insights"`
	Totals   Insights         `json:"totals"`
}

// Process classifies, filters, ranks and aggregates raw items in one call.
// Insights cover the filtered set, Totals the whole classified set. Input
// errors are returned alongside a usable result; configuration errors return
// an empty result.
func Process(items []Item, s Settings, spec FilterSpec, now time.Time) (Result, error) {
	classified, err := ClassifyAllAt(items, s, now)
	if err != nil && IsConfigurationError(err) {
		return Result{}, err
	}
	return Derive(classified, spec, now), err
}

// Derive runs the filter, rank and aggregate stages over already classified items
func Derive(classified []ClassifiedItem, spec FilterSpec, now time.Time) Result {
	filtered := Filter(classified, spec, now)
	return Result{
		Ordered:  Rank(filtered),
		Insights: Aggregate(filtered),
		Totals:   Aggregate(classified),
	}
}
