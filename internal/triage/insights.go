package triage

import (
	"slices"
	"strings"
)

// Insights is a read-only summary of a collection of classified items
type Insights struct {
	Total           int              `json:"total"`
	ByTier          map[Tier]int     `json:"by_tier"`
	ByCategory      map[Category]int `json:"by_category"`
	ActionRequired  int              `json:"action_required"`
	Unread          int              `json:"unread"`
	MeanConfidence  float64          `json:"mean_confidence"`
	MeanCompliance  float64          `json:"mean_compliance"`
	ComplianceItems int              `json:"compliance_items"`
	ActiveEmergency bool             `json:"active_emergency"`
}

// Aggregate summarises items in a single pass
func Aggregate(items []ClassifiedItem) Insights {
	in := Insights{
		ByTier:     make(map[Tier]int, len(Tiers)),
		ByCategory: make(map[Category]int, len(Categories)),
	}
	for _, t := range Tiers {
		in.ByTier[t] = 0
	}
	for _, c := range Categories {
		in.ByCategory[c] = 0
	}

	var confSum, compSum float64
	for _, ci := range items {
		in.Total++
		in.ByTier[ci.Classification.Tier]++
		in.ByCategory[ci.Classification.Category]++
		if ci.Classification.ActionRequired {
			in.ActionRequired++
		}
		if !ci.Item.Read {
			in.Unread++
		}
		confSum += ci.Classification.Confidence
		if ci.Item.Compliance != nil {
			compSum += *ci.Item.Compliance
			in.ComplianceItems++
		}
		if isActiveEmergency(ci) {
			in.ActiveEmergency = true
		}
	}

	if in.Total > 0 {
		in.MeanConfidence = confSum / float64(in.Total)
	}
	if in.ComplianceItems > 0 {
		in.MeanCompliance = compSum / float64(in.ComplianceItems)
	}
	return in
}

// isActiveEmergency reports whether an item signals an emergency that has
// not been cleared
func isActiveEmergency(ci ClassifiedItem) bool {
	code := strings.ToLower(strings.TrimSpace(ci.Item.Code))
	if code == CodeCleared {
		return false
	}
	if ci.Classification.Category == CategoryEmergency || code != "" {
		return true
	}
	return slices.ContainsFunc(ci.Item.Tags, func(tag string) bool {
		return strings.EqualFold(strings.TrimSpace(tag), string(CategoryEmergency))
	})
}
