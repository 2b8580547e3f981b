package triage

import (
	"maps"
	"math"
	"slices"
)

// weightTolerance absorbs float rounding when checking that weights sum to 1
const weightTolerance = 1e-6

// Weights are the custom-algorithm factor weights. They must sum to 1.0.
type Weights struct {
	Recency     float64 `json:"recency" yaml:"recency"`
	Sender      float64 `json:"sender" yaml:"sender"`
	Content     float64 `json:"content" yaml:"content"`
	Interaction float64 `json:"interaction" yaml:"interaction"`
	Department  float64 `json:"department" yaml:"department"`
}

// Sum returns the total of all five weights
func (w Weights) Sum() float64 {
	return w.Recency + w.Sender + w.Content + w.Interaction + w.Department
}

func (w Weights) isZero() bool {
	return w == Weights{}
}

// Settings holds the classifier and filter configuration. Values are treated
// as immutable once handed to a Store; use Clone before modifying a copy.
type Settings struct {
	Version            uint64                `json:"version" yaml:"-"`
	Algorithm          Algorithm             `json:"algorithm" yaml:"algorithm"`
	Thresholds         map[Category]float64  `json:"thresholds" yaml:"thresholds"`
	Keywords           map[Category][]string `json:"keywords" yaml:"keywords"`
	ActionKeywords     []string              `json:"action_keywords" yaml:"action_keywords"`
	UrgencyKeywords    []string              `json:"urgency_keywords" yaml:"urgency_keywords"`
	ImportantSenders   []string              `json:"important_senders" yaml:"important_senders"`
	DepartmentPriority map[string]float64    `json:"department_priority" yaml:"department_priority"`
	Weights            Weights               `json:"weights" yaml:"weights"`
}

// DefaultSettings returns the documented defaults
func DefaultSettings() Settings {
	return Settings{
		Algorithm: AlgorithmStandard,
		Thresholds: map[Category]float64{
			CategoryEmergency:      0.35,
			CategoryClinical:       0.5,
			CategoryAdministrative: 0.5,
			CategoryRoutine:        0.5,
		},
		Keywords: map[Category][]string{
			CategoryEmergency: {
				"code blue", "code red", "cardiac arrest", "rapid response",
				"stat", "respiratory arrest", "mass casualty", "stroke alert",
				"trauma activation", "sepsis alert",
			},
			CategoryClinical: {
				"lab result", "critical value", "medication", "patient",
				"vitals", "allergy", "discharge", "admission", "consult", "imaging",
			},
			CategoryAdministrative: {
				"schedule", "shift", "compliance", "audit", "credential",
				"policy", "training", "staffing", "billing", "approval",
			},
			CategoryRoutine: {
				"reminder", "newsletter", "meeting", "update", "fyi",
				"lunch", "survey", "announcement", "appointment", "follow-up",
			},
		},
		ActionKeywords: []string{
			"action required", "please respond", "please review", "sign off",
			"approve", "acknowledge", "confirm", "respond by",
		},
		UrgencyKeywords: []string{"urgent", "asap", "immediately", "stat", "now", "critical"},
		DepartmentPriority: map[string]float64{
			"emergency":  1.0,
			"icu":        0.9,
			"cardiology": 0.8,
			"surgery":    0.8,
			"pharmacy":   0.6,
			"radiology":  0.6,
			"admin":      0.3,
		},
		Weights: Weights{
			Recency:     0.2,
			Sender:      0.2,
			Content:     0.35,
			Interaction: 0.1,
			Department:  0.15,
		},
	}
}

// Clone returns a deep copy so callers can edit settings without touching a
// published snapshot
func (s Settings) Clone() Settings {
	out := s
	out.Thresholds = maps.Clone(s.Thresholds)
	out.DepartmentPriority = maps.Clone(s.DepartmentPriority)
	out.ActionKeywords = slices.Clone(s.ActionKeywords)
	out.UrgencyKeywords = slices.Clone(s.UrgencyKeywords)
	out.ImportantSenders = slices.Clone(s.ImportantSenders)
	if s.Keywords != nil {
		out.Keywords = make(map[Category][]string, len(s.Keywords))
		for c, kws := range s.Keywords {
			out.Keywords[c] = slices.Clone(kws)
		}
	}
	return out
}

// Validate checks the settings invariants
func (s Settings) Validate() error {
	if !s.Algorithm.Valid() {
		return ConfigurationError("unknown algorithm %q", s.Algorithm).WithDetail("field", "algorithm")
	}
	for c, t := range s.Thresholds {
		if !c.Valid() {
			return ConfigurationError("threshold for unknown category %q", c).WithDetail("field", "thresholds")
		}
		if math.IsNaN(t) || t < 0 || t > 1 {
			return ConfigurationError("threshold for %s must be within [0,1], got %v", c, t).
				WithDetail("field", "thresholds").
				WithDetail("category", string(c))
		}
	}
	for c := range s.Keywords {
		if !c.Valid() {
			return ConfigurationError("keywords for unknown category %q", c).WithDetail("field", "keywords")
		}
	}
	for dept, p := range s.DepartmentPriority {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return ConfigurationError("department priority for %q must be within [0,1], got %v", dept, p).
				WithDetail("field", "department_priority")
		}
	}
	return s.validateWeights()
}

// validateWeights requires a 1.0 sum when the custom algorithm is active or
// when any weight has been set at all
func (s Settings) validateWeights() error {
	w := s.Weights
	if s.Algorithm != AlgorithmCustom && w.isZero() {
		return nil
	}
	for _, v := range []float64{w.Recency, w.Sender, w.Content, w.Interaction, w.Department} {
		if math.IsNaN(v) || v < 0 {
			return ConfigurationError("custom weights must be non-negative").WithDetail("field", "weights")
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > weightTolerance {
		return ConfigurationError("custom weights must sum to 1.0, got %.4f", sum).
			WithDetail("field", "weights").
			WithDetail("sum", sum)
	}
	return nil
}

// threshold returns the configured threshold for a category. Missing entries
// fall back to the default table so partial settings stay usable.
func (s Settings) threshold(c Category) float64 {
	if t, ok := s.Thresholds[c]; ok {
		return t
	}
	return DefaultSettings().Thresholds[c]
}

// effectiveThreshold applies the algorithm's shift to a category threshold
func (s Settings) effectiveThreshold(c Category) float64 {
	t := s.threshold(c)
	switch s.Algorithm {
	case AlgorithmAggressive:
		return t * 0.7
	case AlgorithmConservative:
		return math.Min(1, t*1.3)
	default:
		return t
	}
}
