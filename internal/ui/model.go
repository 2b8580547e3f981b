package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/mcao2/careops-triage/internal/config"
	"github.com/mcao2/careops-triage/internal/triage"
)

// Engine is the triage state the dashboard drives
type Engine interface {
	SourceName() string
	Refresh(ctx context.Context) error
	Import(items []triage.Item) (int, error)
	View(spec triage.FilterSpec) triage.Result
	MarkRead(ctx context.Context, id string) error
	Settings() triage.Settings
	UpdateSettings(s triage.Settings) (triage.Settings, error)
	ResetSettings() (triage.Settings, error)
	SavePreset(name string, spec triage.FilterSpec) error
	LoadPreset(name string) (triage.FilterSpec, error)
	Presets() ([]string, error)
	LastRefresh() time.Time
}

type State int

const (
	StateLoading State = iota
	StateDashboard
	StateFilter
	StateSettings
	StateKeyword
	StatePresetName
	StateMessage
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "Loading"
	case StateDashboard:
		return "Dashboard"
	case StateFilter:
		return "Filter"
	case StateSettings:
		return "Settings"
	case StateKeyword:
		return "Keyword"
	case StatePresetName:
		return "PresetName"
	case StateMessage:
		return "Message"
	default:
		return "Unknown"
	}
}

type Model struct {
	state  State
	width  int
	height int
	styles Styles
	keys   KeyMap

	themeIndex int
	showHelp   bool

	ctx     context.Context
	engine  Engine
	cfg     *config.Config
	persist bool
	log     logrus.FieldLogger
	now     func() time.Time

	filter      triage.FilterSpec
	result      triage.Result
	presetIndex int
	refreshing  bool
	changes     <-chan struct{}

	listView    ListView
	spinner     spinner.Model
	confidence  progress.Model
	keyword     textinput.Model
	presetInput textinput.Model

	form           *huh.Form
	filterValues   *filterValues
	settingsValues *settingsValues

	statusMessage string
	messageType   string
}

type refreshDoneMsg struct {
	err error
}

type tickMsg time.Time

type sourceChangedMsg struct{}

type markReadMsg struct {
	id  string
	err error
}

// NewModel builds the dashboard around engine. cfg may be nil, in which case
// defaults apply and theme changes are not persisted.
func NewModel(ctx context.Context, engine Engine, cfg *config.Config, log logrus.FieldLogger) *Model {
	persist := cfg != nil
	if cfg == nil {
		cfg = &config.Config{Theme: "default", DefaultWindow: string(triage.WindowToday)}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	themeNames := GetThemeNames()
	themeIndex := slices.Index(themeNames, cfg.Theme)
	if themeIndex < 0 {
		themeIndex = 0
	}
	theme := Themes[themeNames[themeIndex]]

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Primary))

	keyword := textinput.New()
	keyword.Placeholder = "keyword"
	keyword.CharLimit = 64

	presetInput := textinput.New()
	presetInput.Placeholder = "preset name"
	presetInput.CharLimit = 32

	m := &Model{
		state:       StateLoading,
		styles:      NewStyles(theme),
		keys:        DefaultKeyMap(),
		themeIndex:  themeIndex,
		ctx:         ctx,
		engine:      engine,
		cfg:         cfg,
		persist:     persist,
		log:         log,
		now:         time.Now,
		filter:      defaultFilter(cfg),
		spinner:     s,
		confidence:  progress.New(progress.WithSolidFill(theme.Secondary), progress.WithoutPercentage(), progress.WithWidth(12)),
		keyword:     keyword,
		presetInput: presetInput,
	}
	m.listView = NewListView(80, 24)
	m.listView.now = m.clock
	m.listView.UpdateTableStyles(theme)
	return m
}

func (m *Model) clock() time.Time {
	return m.now()
}

func defaultFilter(cfg *config.Config) triage.FilterSpec {
	spec := triage.DefaultFilter()
	w := triage.Window(cfg.DefaultWindow)
	if slices.Contains(triage.Windows, w) {
		spec.Window = w
	}
	return spec
}

func (m *Model) cycleTheme() {
	themeNames := GetThemeNames()
	m.themeIndex = (m.themeIndex + 1) % len(themeNames)
	name := themeNames[m.themeIndex]
	theme := Themes[name]
	m.styles = NewStyles(theme)
	m.listView.UpdateTableStyles(theme)
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Primary))
	m.confidence = progress.New(progress.WithSolidFill(theme.Secondary), progress.WithoutPercentage(), progress.WithWidth(12))

	m.cfg.Theme = name
	m.saveConfig()
}

func (m *Model) saveConfig() {
	if !m.persist {
		return
	}
	if err := m.cfg.Save(); err != nil {
		m.log.WithError(err).Warn("failed to save config")
	}
}

// WatchChanges refreshes the dashboard whenever changes fires, in addition
// to the periodic refresh.
func (m *Model) WatchChanges(changes <-chan struct{}) {
	m.changes = changes
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRefresh(), m.scheduleTick(), m.waitForChange())
}

func (m *Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	changes := m.changes
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return sourceChangedMsg{}
	}
}

func (m *Model) startRefresh() tea.Cmd {
	if m.refreshing {
		return nil
	}
	m.refreshing = true
	return func() tea.Msg {
		return refreshDoneMsg{err: m.engine.Refresh(m.ctx)}
	}
}

func (m *Model) scheduleTick() tea.Cmd {
	if m.cfg.RefreshInterval <= 0 {
		return nil
	}
	return tea.Tick(m.cfg.RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// reloadView recomputes the ranked result for the active filter
func (m *Model) reloadView() {
	m.result = m.engine.View(m.filter)
	m.listView.SetItems(m.result.Ordered)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.listView.SetWidthHeight(msg.Width, msg.Height)
		if m.form != nil {
			m.form = m.form.WithWidth(min(msg.Width-8, 80))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		return m, tea.Batch(m.startRefresh(), m.scheduleTick())

	case sourceChangedMsg:
		m.log.Debug("source changed, refreshing")
		return m, tea.Batch(m.startRefresh(), m.waitForChange())

	case refreshDoneMsg:
		m.handleRefreshDone(msg.err)
		return m, nil

	case markReadMsg:
		m.reloadView()
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("Marked %s read locally; acknowledgement failed: %v", msg.id, msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	if m.form != nil && (m.state == StateFilter || m.state == StateSettings) {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m *Model) handleRefreshDone(err error) {
	m.refreshing = false
	if m.state == StateLoading {
		m.state = StateDashboard
	}
	m.reloadView()

	switch {
	case err == nil:
		m.statusMessage = fmt.Sprintf("Refreshed %d items from %s", m.result.Totals.Total, m.engine.SourceName())
	case triage.IsDataSourceError(err):
		m.statusMessage = fmt.Sprintf("Refresh failed, showing last data: %v", err)
	case triage.IsInputError(err):
		m.statusMessage = fmt.Sprintf("Refreshed %d items, skipped %d malformed", m.result.Totals.Total, countErrors(err))
	default:
		m.statusMessage = fmt.Sprintf("Refresh failed: %v", err)
	}
}

// countErrors counts the leaves of a joined error
func countErrors(err error) int {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return len(j.Unwrap())
	}
	return 1
}

func (m *Model) View() string {
	var content string
	centered := true

	switch m.state {
	case StateLoading:
		content = m.loadingView()
	case StateDashboard, StateKeyword, StatePresetName:
		content = m.dashboardView()
		centered = false
	case StateFilter:
		content = m.formView("Filter")
	case StateSettings:
		content = m.formView("Classifier Settings")
	case StateMessage:
		content = m.messageView()
	default:
		return "Unknown state"
	}

	if centered && m.width > 0 && m.height > 0 {
		content = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	return content
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case StateMessage:
		m.state = StateDashboard
		return m, nil
	case StateFilter, StateSettings:
		if keyMatches(msg, m.keys.Back) {
			m.closeForm("Cancelled")
			return m, nil
		}
		return m.updateForm(msg)
	case StateKeyword:
		return m.handleKeywordKeys(msg)
	case StatePresetName:
		return m.handlePresetNameKeys(msg)
	}

	switch {
	case keyMatches(msg, m.keys.Quit):
		return m, tea.Quit
	case keyMatches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	}

	if m.state == StateDashboard {
		return m.handleDashboardKeys(msg)
	}
	return m, nil
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, m.keys.Up):
		m.listView.MoveCursor(-1)
	case keyMatches(msg, m.keys.Down):
		m.listView.MoveCursor(1)
	case keyMatches(msg, m.keys.MarkRead):
		return m, m.markSelectedRead()
	case keyMatches(msg, m.keys.Filter):
		m.filterValues = filterValuesFrom(m.filter)
		return m, m.openForm(StateFilter, NewFilterForm(m.filterValues))
	case keyMatches(msg, m.keys.ClearFilter):
		m.filter = defaultFilter(m.cfg)
		m.statusMessage = "Filter cleared"
		m.reloadView()
	case keyMatches(msg, m.keys.CycleWindow):
		m.cycleWindow()
	case keyMatches(msg, m.keys.ActionOnly):
		m.filter.ActionRequiredOnly = !m.filter.ActionRequiredOnly
		m.reloadView()
	case keyMatches(msg, m.keys.UnreadOnly):
		m.filter.UnreadOnly = !m.filter.UnreadOnly
		m.reloadView()
	case keyMatches(msg, m.keys.OnlineOnly):
		m.filter.OnlineOnly = !m.filter.OnlineOnly
		m.reloadView()
	case keyMatches(msg, m.keys.Keyword):
		m.keyword.SetValue(m.filter.Keyword)
		m.keyword.CursorEnd()
		m.state = StateKeyword
		return m, m.keyword.Focus()
	case keyMatches(msg, m.keys.CycleAlgorithm):
		m.cycleAlgorithm()
	case keyMatches(msg, m.keys.Settings):
		m.settingsValues = settingsValuesFrom(m.engine.Settings())
		return m, m.openForm(StateSettings, NewSettingsForm(m.settingsValues))
	case keyMatches(msg, m.keys.ResetSettings):
		if _, err := m.engine.ResetSettings(); err != nil {
			m.showMessage("error", fmt.Sprintf("Reset failed: %v", err))
			return m, nil
		}
		m.statusMessage = "Settings reset to defaults"
		m.reloadView()
	case keyMatches(msg, m.keys.SavePreset):
		m.presetInput.SetValue("")
		m.state = StatePresetName
		return m, m.presetInput.Focus()
	case keyMatches(msg, m.keys.LoadPreset):
		m.loadNextPreset()
	case keyMatches(msg, m.keys.Refresh):
		m.statusMessage = "Refreshing..."
		return m, m.startRefresh()
	case keyMatches(msg, m.keys.Export):
		n, err := m.ExportViewToClipboard()
		if err != nil {
			m.showMessage("error", fmt.Sprintf("Export failed: %v", err))
		} else {
			m.showMessage("success", fmt.Sprintf("Exported %d items to clipboard", n))
		}
	case keyMatches(msg, m.keys.Import):
		n, err := m.ImportItemsFromClipboard()
		switch {
		case err != nil && n == 0:
			m.showMessage("error", fmt.Sprintf("Import failed: %v", err))
		case err != nil:
			m.showMessage("success", fmt.Sprintf("Imported %d items, some were skipped: %v", n, err))
		default:
			m.showMessage("success", fmt.Sprintf("Imported %d items from clipboard", n))
		}
	case keyMatches(msg, m.keys.CycleTheme):
		m.cycleTheme()
	}
	return m, nil
}

func (m *Model) markSelectedRead() tea.Cmd {
	ci := m.listView.GetItem(m.listView.Cursor())
	if ci == nil || ci.Item.Read {
		return nil
	}
	id := ci.Item.ID
	return func() tea.Msg {
		return markReadMsg{id: id, err: m.engine.MarkRead(m.ctx, id)}
	}
}

func (m *Model) cycleWindow() {
	idx := slices.Index(triage.Windows, m.filter.Window)
	m.filter.Window = triage.Windows[(idx+1)%len(triage.Windows)]
	m.filter.Start, m.filter.End = nil, nil
	m.statusMessage = "Window: " + windowLabel(m.filter)
	m.reloadView()
}

func (m *Model) cycleAlgorithm() {
	s := m.engine.Settings().Clone()
	idx := slices.Index(triage.Algorithms, s.Algorithm)
	s.Algorithm = triage.Algorithms[(idx+1)%len(triage.Algorithms)]
	updated, err := m.engine.UpdateSettings(s)
	if err != nil {
		m.showMessage("error", fmt.Sprintf("Cannot switch to %s: %v", s.Algorithm, err))
		return
	}
	m.statusMessage = "Algorithm: " + string(updated.Algorithm)
	m.reloadView()
}

func (m *Model) loadNextPreset() {
	names, err := m.engine.Presets()
	if err != nil {
		m.showMessage("error", fmt.Sprintf("Presets unavailable: %v", err))
		return
	}
	if len(names) == 0 {
		m.statusMessage = "No saved presets"
		return
	}
	m.presetIndex %= len(names)
	name := names[m.presetIndex]
	m.presetIndex++

	spec, err := m.engine.LoadPreset(name)
	if err != nil {
		m.showMessage("error", fmt.Sprintf("Failed to load preset %q: %v", name, err))
		return
	}
	m.filter = spec
	m.statusMessage = fmt.Sprintf("Preset %q loaded", name)
	m.reloadView()
}

func (m *Model) handleKeywordKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.filter.Keyword = strings.TrimSpace(m.keyword.Value())
		m.keyword.Blur()
		m.state = StateDashboard
		m.reloadView()
		return m, nil
	case tea.KeyEsc:
		m.keyword.Blur()
		m.state = StateDashboard
		return m, nil
	}
	var cmd tea.Cmd
	m.keyword, cmd = m.keyword.Update(msg)
	return m, cmd
}

func (m *Model) handlePresetNameKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		name := strings.TrimSpace(m.presetInput.Value())
		m.presetInput.Blur()
		m.state = StateDashboard
		if name == "" {
			return m, nil
		}
		if err := m.engine.SavePreset(name, m.filter); err != nil {
			m.showMessage("error", fmt.Sprintf("Failed to save preset: %v", err))
			return m, nil
		}
		m.statusMessage = fmt.Sprintf("Preset %q saved", name)
		return m, nil
	case tea.KeyEsc:
		m.presetInput.Blur()
		m.state = StateDashboard
		return m, nil
	}
	var cmd tea.Cmd
	m.presetInput, cmd = m.presetInput.Update(msg)
	return m, cmd
}

func (m *Model) openForm(state State, form *huh.Form) tea.Cmd {
	if m.width > 0 {
		form = form.WithWidth(min(m.width-8, 80))
	}
	m.form = form
	m.state = state
	return m.form.Init()
}

func (m *Model) closeForm(status string) {
	m.form = nil
	m.state = StateDashboard
	m.statusMessage = status
}

func (m *Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.form.Update(msg)
	if f, ok := next.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		// The form's own submit command would quit the program
		if m.state == StateFilter {
			m.applyFilterForm()
		} else {
			m.applySettingsForm()
		}
		return m, nil
	case huh.StateAborted:
		m.closeForm("Cancelled")
		return m, nil
	}
	return m, cmd
}

func (m *Model) applyFilterForm() {
	spec, err := m.filterValues.Spec()
	m.form = nil
	if err != nil {
		m.showMessage("error", fmt.Sprintf("Invalid filter: %v", err))
		return
	}
	m.filter = spec
	m.state = StateDashboard
	m.statusMessage = "Filter applied"
	m.reloadView()
}

func (m *Model) applySettingsForm() {
	m.form = nil
	s, err := m.settingsValues.Apply(m.engine.Settings())
	if err == nil {
		_, err = m.engine.UpdateSettings(s)
	}
	if err != nil {
		m.showMessage("error", describeSettingsError(err))
		return
	}
	m.state = StateDashboard
	m.statusMessage = "Settings saved"
	m.reloadView()
}

func describeSettingsError(err error) string {
	if te, ok := triage.AsError(err); ok && te.Kind == triage.KindConfiguration {
		return "Settings rejected: " + te.Message
	}
	return fmt.Sprintf("Settings not saved: %v", err)
}

func (m *Model) showMessage(kind, text string) {
	m.messageType = kind
	m.statusMessage = text
	m.state = StateMessage
}

func keyMatches(msg tea.KeyMsg, target key.Binding) bool {
	return slices.Contains(target.Keys(), msg.String())
}
