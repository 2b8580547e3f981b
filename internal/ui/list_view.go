package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/mcao2/careops-triage/internal/triage"
)

// ListView renders the ranked items as a scrolling table
type ListView struct {
	table       table.Model
	items       []triage.ClassifiedItem
	cursor      int
	width       int
	height      int
	visibleRows int // data rows visible, excluding the header
	now         func() time.Time

	headerStyle   lipgloss.Style
	cellStyle     lipgloss.Style
	selectedStyle lipgloss.Style
	columns       []table.Column
}

// reservedRows covers the insights header, banner, detail pane, status and footer
const reservedRows = 14

func listColumns(width int) []table.Column {
	// Each cell has Padding(0,1), 8 columns, plus a 2 char safety margin
	fixedWidth := 2 + 9 + 3 + 14 + 5 + 12 + 18
	padding := 8*2 + 2
	subjectWidth := width - fixedWidth - padding
	if subjectWidth < 20 {
		subjectWidth = 20
	}
	return []table.Column{
		{Title: " ", Width: 2},
		{Title: "Tier", Width: 9},
		{Title: "Urg", Width: 3},
		{Title: "Category", Width: 14},
		{Title: "Conf", Width: 5},
		{Title: "Age", Width: 12},
		{Title: "Sender", Width: 18},
		{Title: "Subject", Width: subjectWidth},
	}
}

func visibleRowsFor(height int) int {
	rows := height - reservedRows - 2
	if rows < 3 {
		rows = 3
	}
	return rows
}

// NewListView creates a list sized for the terminal
func NewListView(width, height int) ListView {
	columns := listColumns(width)
	visibleRows := visibleRowsFor(height)

	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(visibleRows+2),
		table.WithFocused(true),
	)

	return ListView{
		table:       t,
		width:       width,
		height:      height,
		visibleRows: visibleRows,
		now:         time.Now,
		headerStyle: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true),
		cellStyle: lipgloss.NewStyle().Padding(0, 1),
		selectedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")),
		columns: columns,
	}
}

// UpdateTableStyles updates the styles to match the current theme
func (lv *ListView) UpdateTableStyles(theme Theme) {
	lv.headerStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(theme.Subtle)).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color(theme.Primary))
	lv.selectedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Background)).
		Background(lipgloss.Color(theme.Primary))

	s := table.DefaultStyles()
	s.Header = s.Header.Foreground(lipgloss.Color(theme.Primary))
	s.Selected = lv.selectedStyle
	lv.table.SetStyles(s)
}

// SetItems replaces the rows, keeping the cursor on the same item ID when it
// is still present
func (lv *ListView) SetItems(items []triage.ClassifiedItem) {
	var currentID string
	if cur := lv.GetItem(lv.cursor); cur != nil {
		currentID = cur.Item.ID
	}

	lv.items = items
	lv.cursor = 0
	for i, ci := range items {
		if ci.Item.ID == currentID {
			lv.cursor = i
			break
		}
	}
	lv.updateRows()
	lv.table.SetCursor(lv.cursor)
}

func (lv *ListView) updateRows() {
	now := lv.now()
	subjectWidth := lv.columns[len(lv.columns)-1].Width
	rows := make([]table.Row, len(lv.items))
	for i, ci := range lv.items {
		unread := " "
		if !ci.Item.Read {
			unread = "●"
		}
		rows[i] = table.Row{
			unread,
			tierText(ci.Classification.Tier),
			fmt.Sprintf("%d", ci.Classification.Urgency),
			string(ci.Classification.Category),
			fmt.Sprintf("%.2f", ci.Classification.Confidence),
			ageText(ci.Item.Timestamp, now),
			Truncate(ci.Item.Sender, 18),
			Truncate(ci.Item.Subject, subjectWidth),
		}
	}
	lv.table.SetRows(rows)
}

// Truncate shortens s to maxLen display cells
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) > maxLen {
		return runewidth.Truncate(s, maxLen, "…")
	}
	return s
}

func tierText(t triage.Tier) string {
	switch t {
	case triage.TierCritical:
		return "!! CRIT"
	case triage.TierHigh:
		return "!  HIGH"
	case triage.TierMedium:
		return "   MED"
	case triage.TierLow:
		return "   LOW"
	default:
		return "   INFO"
	}
}

func ageText(ts, now time.Time) string {
	if ts.IsZero() {
		return "—"
	}
	return humanize.RelTime(ts, now, "ago", "from now")
}

// detailPaneHeight is the fixed number of lines the detail pane always occupies
const detailPaneHeight = 4

// DetailView renders the selected item, padded to a fixed height
func (lv *ListView) DetailView(width int, styles Styles) string {
	ci := lv.GetItem(lv.cursor)
	if ci == nil {
		return strings.Repeat("\n", detailPaneHeight-1)
	}

	maxWidth := width - 4
	if maxWidth < 20 {
		maxWidth = 20
	}

	cls := ci.Classification
	lines := []string{
		styles.TierStyle(cls.Tier).Render(Truncate(ci.Item.Subject, maxWidth)),
	}

	meta := []string{"from:" + ci.Item.Sender}
	if ci.Item.Department != "" {
		meta = append(meta, "dept:"+ci.Item.Department)
	}
	meta = append(meta, "respond "+cls.EstimatedResponse)
	if cls.ActionRequired {
		meta = append(meta, "action required")
	}
	if ci.Item.Code != "" {
		meta = append(meta, "code:"+ci.Item.Code)
	}
	if ci.Item.Attachments > 0 {
		meta = append(meta, humanize.Comma(int64(ci.Item.Attachments))+" attachments")
	}
	if len(ci.Item.Tags) > 0 {
		meta = append(meta, "tags:"+strings.Join(ci.Item.Tags, ","))
	}
	lines = append(lines, styles.Normal.Render(Truncate(strings.Join(meta, " · "), maxWidth)))

	if len(cls.Matched) > 0 {
		lines = append(lines, styles.Help.Render(Truncate("matched: "+strings.Join(cls.Matched, ", "), maxWidth)))
	}
	if ci.Item.Content != "" {
		content := strings.Join(strings.Fields(ci.Item.Content), " ")
		lines = append(lines, styles.HelpDesc.Render(Truncate(content, maxWidth)))
	}

	for len(lines) < detailPaneHeight {
		lines = append(lines, "")
	}
	return strings.Join(lines[:detailPaneHeight], "\n")
}

// Cursor returns the index of the highlighted row
func (lv ListView) Cursor() int {
	return lv.cursor
}

// Len returns the number of rows
func (lv ListView) Len() int {
	return len(lv.items)
}

func (lv *ListView) SetCursor(pos int) {
	if pos >= 0 && pos < len(lv.items) {
		lv.cursor = pos
		lv.table.SetCursor(pos)
	}
}

func (lv *ListView) MoveCursor(delta int) {
	newPos := lv.cursor + delta
	if newPos >= 0 && newPos < len(lv.items) {
		lv.cursor = newPos
		lv.table.SetCursor(newPos)
	}
}

// GetItem returns the item at index, or nil when out of range
func (lv ListView) GetItem(index int) *triage.ClassifiedItem {
	if index >= 0 && index < len(lv.items) {
		return &lv.items[index]
	}
	return nil
}

func (lv *ListView) renderCell(value string, colWidth int) string {
	style := lipgloss.NewStyle().Width(colWidth).MaxWidth(colWidth).Inline(true)
	return lv.cellStyle.Render(style.Render(runewidth.Truncate(value, colWidth, "…")))
}

// View renders the table with its own scrolling window instead of the
// bubbles viewport, whose offset drifts when rows are replaced.
func (lv ListView) View() string {
	rows := lv.table.Rows()

	headerCells := make([]string, 0, len(lv.columns))
	for _, col := range lv.columns {
		if col.Width <= 0 {
			continue
		}
		style := lipgloss.NewStyle().Width(col.Width).MaxWidth(col.Width).Inline(true)
		cell := style.Render(runewidth.Truncate(col.Title, col.Width, "…"))
		headerCells = append(headerCells, lv.headerStyle.Render(lv.cellStyle.Render(cell)))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, headerCells...)

	visibleRows := lv.visibleRows
	if visibleRows <= 0 {
		visibleRows = 10
	}

	start := 0
	if lv.cursor >= visibleRows {
		start = lv.cursor - visibleRows + 1
	}
	end := start + visibleRows
	if end > len(rows) {
		end = len(rows)
		start = max(end-visibleRows, 0)
	}

	rendered := make([]string, 0, visibleRows)
	for i := start; i < end; i++ {
		cells := make([]string, 0, len(lv.columns))
		for ci, value := range rows[i] {
			if lv.columns[ci].Width <= 0 {
				continue
			}
			cells = append(cells, lv.renderCell(value, lv.columns[ci].Width))
		}
		row := lipgloss.JoinHorizontal(lipgloss.Top, cells...)
		if i == lv.cursor {
			row = lv.selectedStyle.Render(row)
		}
		rendered = append(rendered, row)
	}

	if len(rows) == 0 {
		rendered = append(rendered, lv.cellStyle.Render("No items match the current filter"))
	}
	for len(rendered) < visibleRows {
		rendered = append(rendered, "")
	}

	return header + "\n" + strings.Join(rendered, "\n")
}

func (lv *ListView) SetWidthHeight(width, height int) {
	lv.width = width
	lv.height = height
	lv.columns = listColumns(width)
	lv.visibleRows = visibleRowsFor(height)

	lv.table.SetHeight(lv.visibleRows + 2)
	lv.table.SetColumns(lv.columns)
	lv.updateRows()
}

func (lv ListView) Update(msg tea.Msg) (ListView, tea.Cmd) {
	var cmd tea.Cmd
	lv.table, cmd = lv.table.Update(msg)
	return lv, cmd
}
