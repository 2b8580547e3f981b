package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/mcao2/careops-triage/internal/triage"
)

func (m *Model) loadingView() string {
	status := fmt.Sprintf("%s Loading from %s...", m.spinner.View(), m.engine.SourceName())
	content := m.styles.Border.Render(
		lipgloss.JoinVertical(lipgloss.Center,
			m.styles.Title.Render("CareOps Triage"),
			"",
			m.styles.Normal.Render(status),
		),
	)
	help := m.renderHelpLine([]helpEntry{{"q", "quit"}})
	return lipgloss.JoinVertical(lipgloss.Center, "", content, "", help)
}

func (m *Model) dashboardView() string {
	parts := []string{m.renderHeader(), m.renderInsights()}
	if m.result.Totals.ActiveEmergency {
		parts = append(parts, m.renderBanner())
	}
	parts = append(parts, m.listView.View())

	if m.listView.Len() > 0 {
		divW := max(m.width-1, 1)
		parts = append(parts,
			m.styles.HelpSep.Render(strings.Repeat("─", divW)),
			m.listView.DetailView(m.width, m.styles),
		)
	}

	switch m.state {
	case StateKeyword:
		parts = append(parts, m.styles.Normal.Render("  search: ")+m.keyword.View())
	case StatePresetName:
		parts = append(parts, m.styles.Normal.Render("  save preset as: ")+m.presetInput.View())
	default:
		if m.statusMessage != "" {
			parts = append(parts, m.styles.Help.Render("  "+m.statusMessage))
		}
	}

	if m.showHelp {
		parts = append(parts, m.renderFullHelp())
	} else {
		parts = append(parts, m.renderFooter())
	}

	content := strings.Join(parts, "\n")

	// Pad to exactly m.height lines so the alternate screen repaints cleanly
	if m.height > 0 {
		rendered := strings.Split(content, "\n")
		for len(rendered) < m.height {
			rendered = append(rendered, "")
		}
		return strings.Join(rendered[:m.height], "\n")
	}
	return content
}

func (m *Model) renderHeader() string {
	s := m.engine.Settings()
	left := m.styles.HelpKey.Render("CareOps Triage") +
		m.styles.HelpDesc.Render(fmt.Sprintf(" [%s] %s · %s", m.engine.SourceName(), s.Algorithm, windowLabel(m.filter)))

	var right string
	if m.refreshing {
		right = m.spinner.View() + " "
	}
	if last := m.engine.LastRefresh(); !last.IsZero() {
		right += m.styles.HelpDesc.Render("updated " + humanize.RelTime(last, m.now(), "ago", "from now"))
	}
	if n := m.listView.Len(); n > 0 {
		right += m.styles.HelpDesc.Render(fmt.Sprintf("  %d/%d", m.listView.Cursor()+1, n))
	}

	gap := ""
	if m.width > 0 {
		if w := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4; w > 0 {
			gap = strings.Repeat(" ", w)
		}
	}
	return m.styles.HeaderBar.Width(max(m.width-1, 1)).Render(left + gap + right)
}

func (m *Model) renderInsights() string {
	in := m.result.Insights

	tiers := make([]string, 0, len(triage.Tiers))
	for _, t := range triage.Tiers {
		tiers = append(tiers, m.styles.TierStyle(t).Render(fmt.Sprintf("%s %d", t, in.ByTier[t])))
	}

	stats := []string{
		m.stat("shown", fmt.Sprintf("%d/%d", in.Total, m.result.Totals.Total)),
		m.stat("action", humanize.Comma(int64(in.ActionRequired))),
		m.stat("unread", humanize.Comma(int64(in.Unread))),
		m.stat("confidence", m.confidence.ViewAs(in.MeanConfidence)+fmt.Sprintf(" %.2f", in.MeanConfidence)),
	}
	if in.ComplianceItems > 0 {
		stats = append(stats, m.stat("compliance", fmt.Sprintf("%.0f%%", in.MeanCompliance*100)))
	}

	sep := m.styles.HelpSep.Render(" · ")
	return "  " + strings.Join(tiers, sep) + "\n  " + strings.Join(stats, sep)
}

func (m *Model) stat(label, value string) string {
	return m.styles.StatLabel.Render(label+" ") + m.styles.Stat.Render(value)
}

func (m *Model) renderBanner() string {
	text := "ACTIVE EMERGENCY"
	for _, ci := range m.result.Ordered {
		if ci.Classification.Category == triage.CategoryEmergency {
			text += ": " + ci.Item.Subject
			break
		}
	}
	return m.styles.Banner.Width(max(m.width-1, 1)).Render(Truncate(text, max(m.width-4, 20)))
}

func windowLabel(spec triage.FilterSpec) string {
	switch {
	case spec.Window == triage.WindowCustom || spec.Start != nil || spec.End != nil:
		return "custom range"
	case spec.Window == triage.WindowToday:
		return "last 24h"
	case spec.Window == triage.WindowWeek:
		return "last 7d"
	case spec.Window == triage.WindowMonth:
		return "last 30d"
	default:
		return "all time"
	}
}

func (m *Model) formView(title string) string {
	if m.form == nil {
		return ""
	}
	content := m.styles.Card.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.styles.Title.Render(title),
			"",
			m.form.View(),
		),
	)
	help := m.renderHelpLine([]helpEntry{{"enter", "next"}, {"shift+tab", "back"}, {"esc", "cancel"}})
	return lipgloss.JoinVertical(lipgloss.Center, content, "", help)
}

func (m *Model) messageView() string {
	icon, title, titleStyle := "✓", "Success", m.styles.Success
	if m.messageType == "error" {
		icon, title, titleStyle = "✗", "Error", m.styles.Error
	}

	content := m.styles.Border.Render(
		lipgloss.JoinVertical(lipgloss.Center,
			titleStyle.Render(icon+" "+title),
			"",
			m.styles.Normal.Render(m.statusMessage),
		),
	)
	help := m.renderHelpLine([]helpEntry{{"any key", "continue"}})
	return lipgloss.JoinVertical(lipgloss.Center, "", content, "", help)
}

type helpEntry struct {
	key  string
	desc string
}

func (m *Model) renderHelpLine(entries []helpEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, m.styles.HelpKey.Render(e.key)+" "+m.styles.HelpDesc.Render(e.desc))
	}
	return strings.Join(parts, m.styles.HelpSep.Render(" · "))
}

func (m *Model) renderFooter() string {
	line1 := []helpEntry{
		{"j/k", "navigate"},
		{"enter", "mark read"},
		{"f", "filter"},
		{"w", "window"},
		{"a u o", "toggles"},
		{"/", "search"},
		{"c", "clear"},
	}
	line2 := []helpEntry{
		{"g", "algorithm"},
		{"s", "settings"},
		{"p/P", "presets"},
		{"R", "refresh"},
		{"e/i", "export/import"},
		{"t", "theme"},
		{"?", "help"},
		{"q", "quit"},
	}
	return m.styles.FooterBar.Width(max(m.width-1, 1)).Render(
		m.renderHelpLine(line1) + "\n" + m.renderHelpLine(line2),
	)
}

func (m *Model) renderFullHelp() string {
	k := m.keys
	sections := []struct {
		title    string
		bindings []key.Binding
	}{
		{"Navigation", []key.Binding{k.Up, k.Down, k.MarkRead}},
		{"Filter", []key.Binding{
			k.Filter, k.ClearFilter, k.CycleWindow,
			k.ActionOnly, k.UnreadOnly, k.OnlineOnly, k.Keyword,
			k.SavePreset, k.LoadPreset,
		}},
		{"Classifier", []key.Binding{k.CycleAlgorithm, k.Settings, k.ResetSettings}},
		{"Data", []key.Binding{k.Refresh, k.Export, k.Import}},
		{"General", []key.Binding{k.CycleTheme, k.Help, k.Quit}},
	}

	var lines []string
	for _, sec := range sections {
		lines = append(lines, m.styles.HelpKey.Render("  "+sec.title))
		for _, b := range sec.bindings {
			h := b.Help()
			lines = append(lines, fmt.Sprintf("    %s  %s",
				m.styles.HelpKey.Render(fmt.Sprintf("%-10s", h.Key)),
				m.styles.HelpDesc.Render(h.Desc),
			))
		}
	}
	return m.styles.FooterBar.Width(max(m.width-1, 1)).Render(strings.Join(lines, "\n"))
}
