// Package report renders a ranked triage view for handover: JSON for other
// tools, a terminal table, and an XLSX shift report.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mcao2/careops-triage/internal/triage"
)

// Report is one ranked, filtered view together with its summary
type Report struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Source      string                  `json:"source"`
	Algorithm   triage.Algorithm        `json:"algorithm"`
	Filter      triage.FilterSpec       `json:"filter"`
	Insights    triage.Insights         `json:"insights"`
	Totals      triage.Insights         `json:"totals"`
	Items       []triage.ClassifiedItem `json:"items"`
}

// New captures res as produced with the given source, algorithm and filter
func New(res triage.Result, source string, alg triage.Algorithm, spec triage.FilterSpec, now time.Time) Report {
	items := res.Ordered
	if items == nil {
		items = []triage.ClassifiedItem{}
	}
	return Report{
		GeneratedAt: now.UTC(),
		Source:      source,
		Algorithm:   alg,
		Filter:      spec,
		Insights:    res.Insights,
		Totals:      res.Totals,
		Items:       items,
	}
}

// MarshalIndent renders r as indented JSON
func (r Report) MarshalIndent() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

// WriteJSON writes r to w as indented JSON followed by a newline
func WriteJSON(w io.Writer, r Report) error {
	data, err := r.MarshalIndent()
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
