package triage

import (
	"errors"
	"math"
	"slices"
	"strings"
	"time"
	"unicode"
)

const (
	// keywordHitWeight is the confidence contributed by each distinct keyword
	// hit; confidence saturates as 1 - (1-w)^hits
	keywordHitWeight = 0.35

	// recencyHorizon is the age at which the recency factor reaches zero
	recencyHorizon = 24 * time.Hour

	// interactionSaturation is the interaction count that maxes out the
	// interaction-history factor
	interactionSaturation = 10

	defaultSenderImportance = 0.3
	defaultDepartmentWeight = 0.5
)

// Classifier classifies items against a settings snapshot. Now supplies the
// reference time for the recency factor; nil means time.Now.
type Classifier struct {
	Now func() time.Time
}

// Classify classifies one item using the classifier's clock
func (c Classifier) Classify(item Item, s Settings) (Classification, error) {
	return ClassifyAt(item, s, c.now())
}

// ClassifyAll classifies a batch. Malformed items are skipped and reported as
// joined input errors while the rest are still classified. A configuration
// error aborts the whole batch.
func (c Classifier) ClassifyAll(items []Item, s Settings) ([]ClassifiedItem, error) {
	return ClassifyAllAt(items, s, c.now())
}

func (c Classifier) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// ClassifyAllAt is ClassifyAll with an explicit reference time
func ClassifyAllAt(items []Item, s Settings, now time.Time) ([]ClassifiedItem, error) {
	if s.Algorithm == AlgorithmCustom {
		if err := s.validateWeights(); err != nil {
			return nil, err
		}
	}

	out := make([]ClassifiedItem, 0, len(items))
	var errs []error
	for _, item := range items {
		cls, err := ClassifyAt(item, s, now)
		if err != nil {
			if IsConfigurationError(err) {
				return nil, err
			}
			errs = append(errs, err)
			continue
		}
		out = append(out, ClassifiedItem{Item: item, Classification: cls})
	}
	return out, errors.Join(errs...)
}

// ClassifyAt classifies one item. It is a pure function of its arguments.
func ClassifyAt(item Item, s Settings, now time.Time) (Classification, error) {
	if strings.TrimSpace(item.ID) == "" {
		return Classification{}, InputError("", "id")
	}
	if item.Timestamp.IsZero() {
		return Classification{}, InputError(item.ID, "timestamp")
	}
	if s.Algorithm == AlgorithmCustom {
		if err := s.validateWeights(); err != nil {
			return Classification{}, err
		}
	}

	text := normalizeText(item)
	if text == "" {
		return fallback(0), nil
	}

	var (
		best       Category
		bestConf   float64
		bestSeen   float64
		bestHits   []string
		haveWinner bool
	)
	for _, cat := range Categories {
		keywords := s.Keywords[cat]
		hits := matchKeywords(text, keywords)
		if len(hits) == 0 {
			continue
		}

		conf := keywordConfidence(len(hits))
		if s.Algorithm == AlgorithmCustom {
			conf = customScore(item, s, text, conf, now)
		}
		conf = clamp01(conf)
		bestSeen = math.Max(bestSeen, conf)

		if conf < s.effectiveThreshold(cat) {
			continue
		}
		// Categories iterate from most to least severe, so a strict
		// comparison hands ties to the more severe tier.
		if !haveWinner || conf > bestConf {
			best, bestConf, bestHits, haveWinner = cat, conf, hits, true
		}
	}

	if !haveWinner {
		return fallback(bestSeen), nil
	}

	tier := best.Tier()
	action := tier == TierCritical || tier == TierHigh
	actionHits := matchKeywords(text, s.ActionKeywords)
	if len(actionHits) > 0 && tier != TierInformational {
		action = true
	}

	return Classification{
		Category:          best,
		Tier:              tier,
		Urgency:           tier.Urgency(),
		Confidence:        bestConf,
		ActionRequired:    action,
		EstimatedResponse: tier.EstimatedResponse(),
		Matched:           append(bestHits, actionHits...),
	}, nil
}

func fallback(confidence float64) Classification {
	return Classification{
		Category:          CategoryInformational,
		Tier:              TierInformational,
		Urgency:           TierInformational.Urgency(),
		Confidence:        clamp01(confidence),
		ActionRequired:    false,
		EstimatedResponse: TierInformational.EstimatedResponse(),
	}
}

func keywordConfidence(hits int) float64 {
	if hits <= 0 {
		return 0
	}
	return 1 - math.Pow(1-keywordHitWeight, float64(hits))
}

// customScore is the weighted sum of the five normalised factors. The
// content factor is the category's keyword confidence boosted by generic
// urgency words.
func customScore(item Item, s Settings, text string, keywordConf float64, now time.Time) float64 {
	w := s.Weights

	content := keywordConf
	if urgent := len(matchKeywords(text, s.UrgencyKeywords)); urgent > 0 {
		content = 1 - (1-content)*math.Pow(1-keywordHitWeight, float64(urgent))
	}

	return w.Recency*recencyFactor(item.Timestamp, now) +
		w.Sender*senderFactor(item.Sender, s.ImportantSenders) +
		w.Content*clamp01(content) +
		w.Interaction*interactionFactor(item.Interactions) +
		w.Department*departmentFactor(item.Department, s.DepartmentPriority)
}

func recencyFactor(ts, now time.Time) float64 {
	age := now.Sub(ts)
	if age <= 0 {
		return 1
	}
	if age >= recencyHorizon {
		return 0
	}
	return 1 - float64(age)/float64(recencyHorizon)
}

func senderFactor(sender string, important []string) float64 {
	sender = strings.ToLower(strings.TrimSpace(sender))
	if sender == "" {
		return 0
	}
	for _, s := range important {
		if strings.EqualFold(strings.TrimSpace(s), sender) {
			return 1
		}
	}
	return defaultSenderImportance
}

func interactionFactor(n int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Min(1, float64(n)/interactionSaturation)
}

func departmentFactor(dept string, priorities map[string]float64) float64 {
	if p, ok := priorities[strings.ToLower(strings.TrimSpace(dept))]; ok {
		return clamp01(p)
	}
	return defaultDepartmentWeight
}

// normalizeText joins the searchable text of an item in lower case
func normalizeText(item Item) string {
	parts := make([]string, 0, 2+len(item.Tags))
	for _, p := range append([]string{item.Subject, item.Content}, item.Tags...) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// matchKeywords returns the distinct keywords found in text as whole words
// or phrases, in keyword-list order
func matchKeywords(text string, keywords []string) []string {
	var hits []string
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || slices.Contains(hits, kw) {
			continue
		}
		if containsPhrase(text, kw) {
			hits = append(hits, kw)
		}
	}
	return hits
}

// containsPhrase reports whether phrase occurs in text bounded by non-word
// characters, so "stat" does not match "status"
func containsPhrase(text, phrase string) bool {
	for start := 0; start <= len(text)-len(phrase); {
		idx := strings.Index(text[start:], phrase)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(phrase)
		if isBoundary(text, idx-1) && isBoundary(text, end) {
			return true
		}
		start = idx + 1
	}
	return false
}

func isBoundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	r := rune(text[i])
	return r < 0x80 && !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
