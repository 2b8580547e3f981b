package triage

import "time"

// Kind identifies the channel an item arrived through
type Kind string

const (
	KindNotification Kind = "notification"
	KindEmail        Kind = "email"
	KindChat         Kind = "chat"
	KindAppointment  Kind = "appointment"
)

// Category is the domain bucket an item is classified into
type Category string

const (
	CategoryEmergency      Category = "emergency"
	CategoryClinical       Category = "clinical"
	CategoryAdministrative Category = "administrative"
	CategoryRoutine        Category = "routine"
	CategoryInformational  Category = "informational"
)

// Categories lists every category from most to least severe
var Categories = []Category{
	CategoryEmergency,
	CategoryClinical,
	CategoryAdministrative,
	CategoryRoutine,
	CategoryInformational,
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryEmergency, CategoryClinical, CategoryAdministrative, CategoryRoutine, CategoryInformational:
		return true
	}
	return false
}

// Tier returns the fixed priority tier for the category
func (c Category) Tier() Tier {
	switch c {
	case CategoryEmergency:
		return TierCritical
	case CategoryClinical:
		return TierHigh
	case CategoryAdministrative:
		return TierMedium
	case CategoryRoutine:
		return TierLow
	default:
		return TierInformational
	}
}

// Tier is the discrete priority bucket of a classified item
type Tier string

const (
	TierCritical      Tier = "critical"
	TierHigh          Tier = "high"
	TierMedium        Tier = "medium"
	TierLow           Tier = "low"
	TierInformational Tier = "informational"
)

// Tiers lists every tier from most to least severe
var Tiers = []Tier{TierCritical, TierHigh, TierMedium, TierLow, TierInformational}

// Valid reports whether t is one of the known tiers
func (t Tier) Valid() bool {
	return t.Urgency() > 0
}

// Urgency maps a tier onto the 1-5 urgency scale. The mapping is the only
// source of urgency values, which keeps tier and urgency monotonic.
func (t Tier) Urgency() int {
	switch t {
	case TierCritical:
		return 5
	case TierHigh:
		return 4
	case TierMedium:
		return 3
	case TierLow:
		return 2
	case TierInformational:
		return 1
	default:
		return 0
	}
}

// EstimatedResponse is the display label for the expected response time
func (t Tier) EstimatedResponse() string {
	switch t {
	case TierCritical:
		return "immediate"
	case TierHigh:
		return "within 15 minutes"
	case TierMedium:
		return "within 1 hour"
	case TierLow:
		return "within 4 hours"
	default:
		return "no response needed"
	}
}

// Algorithm selects how category thresholds are applied
type Algorithm string

const (
	AlgorithmStandard     Algorithm = "standard"
	AlgorithmAggressive   Algorithm = "aggressive"
	AlgorithmConservative Algorithm = "conservative"
	AlgorithmCustom       Algorithm = "custom"
)

// Algorithms lists the selectable algorithms in cycling order
var Algorithms = []Algorithm{AlgorithmStandard, AlgorithmAggressive, AlgorithmConservative, AlgorithmCustom}

// Valid reports whether a is one of the known algorithms
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmStandard, AlgorithmAggressive, AlgorithmConservative, AlgorithmCustom:
		return true
	}
	return false
}

// CodeCleared marks an emergency code that has been stood down
const CodeCleared = "cleared"

// Item is a unit of inbound communication supplied by a data source
type Item struct {
	ID           string    `json:"id" yaml:"id"`
	Kind         Kind      `json:"kind,omitempty" yaml:"kind,omitempty"`
	Sender       string    `json:"sender" yaml:"sender"`
	Subject      string    `json:"subject" yaml:"subject"`
	Content      string    `json:"content" yaml:"content"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
	Read         bool      `json:"read" yaml:"read"`
	Attachments  int       `json:"attachments,omitempty" yaml:"attachments,omitempty"`
	Department   string    `json:"department,omitempty" yaml:"department,omitempty"`
	Tags         []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	Compliance   *float64  `json:"compliance,omitempty" yaml:"compliance,omitempty"`
	Online       bool      `json:"online,omitempty" yaml:"online,omitempty"`
	Interactions int       `json:"interactions,omitempty" yaml:"interactions,omitempty"`
	Code         string    `json:"code,omitempty" yaml:"code,omitempty"`
}

// Classification is the derived triage decision for one item
type Classification struct {
	Category          Category `json:"category"`
	Tier              Tier     `json:"tier"`
	Urgency           int      `json:"urgency"`
	Confidence        float64  `json:"confidence"`
	ActionRequired    bool     `json:"action_required"`
	EstimatedResponse string   `json:"estimated_response"`
	Matched           []string `json:"matched,omitempty"`
}

// ClassifiedItem pairs an item with its classification
type ClassifiedItem struct {
	Item           Item           `json:"item"`
	Classification Classification `json:"classification"`
}
