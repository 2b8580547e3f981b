package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/mcao2/careops-triage/internal/triage"
)

const subjectWidth = 48

var tierColors = map[triage.Tier]lipgloss.Color{
	triage.TierCritical:      lipgloss.Color("#FF5F87"),
	triage.TierHigh:          lipgloss.Color("#FFAF00"),
	triage.TierMedium:        lipgloss.Color("#5FAFFF"),
	triage.TierLow:           lipgloss.Color("#87D787"),
	triage.TierInformational: lipgloss.Color("#8A8A8A"),
}

// WriteTable prints r as a bordered table followed by a one-line summary
func WriteTable(w io.Writer, r Report) error {
	rows := make([][]string, 0, len(r.Items))
	for i, ci := range r.Items {
		c := ci.Classification
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			string(c.Tier),
			string(c.Category),
			fmt.Sprintf("%.2f", c.Confidence),
			c.EstimatedResponse,
			ci.Item.Sender,
			runewidth.Truncate(ci.Item.Subject, subjectWidth, "…"),
		})
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Tier", "Category", "Conf", "Respond", "Sender", "Subject").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 && row >= 0 && row < len(r.Items) {
				return cellStyle.Foreground(tierColors[r.Items[row].Classification.Tier])
			}
			return cellStyle
		})

	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, Summary(r))
	return err
}

// Summary is a single line describing the view
func Summary(r Report) string {
	in := r.Insights
	parts := make([]string, 0, len(triage.Tiers))
	for _, t := range triage.Tiers {
		if n := in.ByTier[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", t, n))
		}
	}
	line := fmt.Sprintf("%d of %d items (%s) · %d need action · %d unread",
		in.Total, r.Totals.Total, strings.Join(parts, ", "), in.ActionRequired, in.Unread)
	if len(parts) == 0 {
		line = fmt.Sprintf("%d of %d items · %d need action · %d unread",
			in.Total, r.Totals.Total, in.ActionRequired, in.Unread)
	}
	if r.Totals.ActiveEmergency {
		line += " · ACTIVE EMERGENCY"
	}
	return line
}
