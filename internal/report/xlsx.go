package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mcao2/careops-triage/internal/triage"
)

// Sheet names in the shift report
const (
	QueueSheet   = "Queue"
	SummarySheet = "Summary"
)

const timeLayout = "2006-01-02 15:04"

var queueHeader = []any{
	"Rank", "Tier", "Urgency", "Category", "Confidence", "Action required",
	"Respond within", "Received", "Sender", "Department", "Subject", "Read", "ID",
}

var tierFills = map[triage.Tier]string{
	triage.TierCritical: "#F8CBAD",
	triage.TierHigh:     "#FFE699",
	triage.TierMedium:   "#DDEBF7",
}

// WriteXLSX writes r as a workbook with the ranked queue on the first sheet
// and the counts on the second.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", QueueSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeQueue(f, r); err != nil {
		return err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}
	if err := writeSummary(f, r); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeQueue(f *excelize.File, r Report) error {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#1F4E78"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	fills := make(map[triage.Tier]int, len(tierFills))
	for tier, color := range tierFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return err
		}
		fills[tier] = id
	}

	if err := f.SetSheetRow(QueueSheet, "A1", &queueHeader); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(queueHeader), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(QueueSheet, "A1", last, header); err != nil {
		return err
	}

	for i, ci := range r.Items {
		row := i + 2
		c := ci.Classification
		values := []any{
			i + 1,
			string(c.Tier),
			c.Urgency,
			string(c.Category),
			c.Confidence,
			yesNo(c.ActionRequired),
			c.EstimatedResponse,
			ci.Item.Timestamp.Format(timeLayout),
			ci.Item.Sender,
			ci.Item.Department,
			ci.Item.Subject,
			yesNo(ci.Item.Read),
			ci.Item.ID,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(QueueSheet, start, &values); err != nil {
			return err
		}
		if style, ok := fills[c.Tier]; ok {
			end, _ := excelize.CoordinatesToCellName(len(queueHeader), row)
			if err := f.SetCellStyle(QueueSheet, start, end, style); err != nil {
				return err
			}
		}
	}

	widths := map[string]float64{"B": 14, "D": 16, "F": 10, "G": 14, "H": 17, "I": 24, "J": 14, "K": 60, "M": 14}
	for col, width := range widths {
		if err := f.SetColWidth(QueueSheet, col, col, width); err != nil {
			return err
		}
	}

	return f.SetPanes(QueueSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummary(f *excelize.File, r Report) error {
	rows := [][]any{
		{"Generated", r.GeneratedAt.Format(timeLayout) + " UTC"},
		{"Source", r.Source},
		{"Algorithm", string(r.Algorithm)},
		{"Items shown", r.Insights.Total},
		{"Items total", r.Totals.Total},
		{"Action required", r.Insights.ActionRequired},
		{"Unread", r.Insights.Unread},
		{"Mean confidence", r.Insights.MeanConfidence},
		{"Active emergency", yesNo(r.Totals.ActiveEmergency)},
	}
	if r.Insights.ComplianceItems > 0 {
		rows = append(rows, []any{"Mean compliance", r.Insights.MeanCompliance})
	}
	rows = append(rows, []any{})
	for _, t := range triage.Tiers {
		rows = append(rows, []any{"Tier " + string(t), r.Insights.ByTier[t]})
	}
	rows = append(rows, []any{})
	for _, c := range triage.Categories {
		rows = append(rows, []any{"Category " + string(c), r.Insights.ByCategory[c]})
	}

	for i, values := range rows {
		if len(values) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SetColWidth(SummarySheet, "A", "A", 28)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
