package ui

import (
	"sort"

	"github.com/charmbracelet/lipgloss"

	"github.com/mcao2/careops-triage/internal/triage"
)

// Theme is a named color palette
type Theme struct {
	Name       string
	Primary    string
	Secondary  string
	Subtle     string
	Text       string
	Muted      string
	Background string
	Error      string
	Success    string
	Warning    string

	// Tier colors, most to least severe
	Critical      string
	High          string
	Medium        string
	Low           string
	Informational string
}

// Themes holds the built-in palettes keyed by name
var Themes = map[string]Theme{
	"default": {
		Name: "default", Primary: "#7D56F4", Secondary: "#04B575", Subtle: "240",
		Text: "#FAFAFA", Muted: "#737373", Background: "#1A1A1A",
		Error: "#FF5F87", Success: "#04B575", Warning: "#FFB454",
		Critical: "#FF0040", High: "#FF8700", Medium: "#FFD75F", Low: "#5FAFFF", Informational: "#8A8A8A",
	},
	"catppuccin": {
		Name: "catppuccin", Primary: "#CBA6F7", Secondary: "#A6E3A1", Subtle: "#585B70",
		Text: "#CDD6F4", Muted: "#7F849C", Background: "#1E1E2E",
		Error: "#F38BA8", Success: "#A6E3A1", Warning: "#F9E2AF",
		Critical: "#F38BA8", High: "#FAB387", Medium: "#F9E2AF", Low: "#89B4FA", Informational: "#9399B2",
	},
	"dracula": {
		Name: "dracula", Primary: "#BD93F9", Secondary: "#50FA7B", Subtle: "#44475A",
		Text: "#F8F8F2", Muted: "#6272A4", Background: "#282A36",
		Error: "#FF5555", Success: "#50FA7B", Warning: "#F1FA8C",
		Critical: "#FF5555", High: "#FFB86C", Medium: "#F1FA8C", Low: "#8BE9FD", Informational: "#6272A4",
	},
	"nord": {
		Name: "nord", Primary: "#88C0D0", Secondary: "#A3BE8C", Subtle: "#4C566A",
		Text: "#ECEFF4", Muted: "#7B88A1", Background: "#2E3440",
		Error: "#BF616A", Success: "#A3BE8C", Warning: "#EBCB8B",
		Critical: "#BF616A", High: "#D08770", Medium: "#EBCB8B", Low: "#81A1C1", Informational: "#7B88A1",
	},
	"gruvbox": {
		Name: "gruvbox", Primary: "#FE8019", Secondary: "#B8BB26", Subtle: "#504945",
		Text: "#EBDBB2", Muted: "#928374", Background: "#282828",
		Error: "#FB4934", Success: "#B8BB26", Warning: "#FABD2F",
		Critical: "#FB4934", High: "#FE8019", Medium: "#FABD2F", Low: "#83A598", Informational: "#928374",
	},
}

// GetThemeNames returns the theme names with "default" first
func GetThemeNames() []string {
	names := make([]string, 0, len(Themes))
	for name := range Themes {
		if name != "default" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{"default"}, names...)
}

// Styles holds all the UI styles for one theme
type Styles struct {
	theme Theme

	Title     lipgloss.Style
	Normal    lipgloss.Style
	Help      lipgloss.Style
	HelpKey   lipgloss.Style
	HelpDesc  lipgloss.Style
	HelpSep   lipgloss.Style
	Highlight lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Border    lipgloss.Style
	Card      lipgloss.Style
	HeaderBar lipgloss.Style
	FooterBar lipgloss.Style
	Banner    lipgloss.Style
	Stat      lipgloss.Style
	StatLabel lipgloss.Style
}

// NewStyles builds the style set for a theme
func NewStyles(t Theme) Styles {
	return Styles{
		theme: t,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Primary)),

		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),

		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			Italic(true),

		HelpKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Primary)),

		HelpDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		HelpSep: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Subtle)),

		Highlight: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Secondary)),

		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Error)),

		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)),

		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),

		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Primary)).
			Padding(1, 3),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Subtle)).
			Padding(0, 2),

		HeaderBar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color(t.Subtle)).
			Padding(0, 1),

		FooterBar: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color(t.Subtle)).
			Padding(0, 1),

		Banner: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Background)).
			Background(lipgloss.Color(t.Critical)).
			Padding(0, 1),

		Stat: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(t.Text)),

		StatLabel: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),
	}
}

// TierStyle colors text by priority tier
func (s Styles) TierStyle(tier triage.Tier) lipgloss.Style {
	color := s.theme.Informational
	switch tier {
	case triage.TierCritical:
		color = s.theme.Critical
	case triage.TierHigh:
		color = s.theme.High
	case triage.TierMedium:
		color = s.theme.Medium
	case triage.TierLow:
		color = s.theme.Low
	}
	st := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	if tier == triage.TierCritical {
		st = st.Bold(true)
	}
	return st
}
