package ui

import (
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/mcao2/careops-triage/internal/report"
	"github.com/mcao2/careops-triage/internal/triage"
)

// Clipboard access, replaced in tests
var (
	clipboardWrite = clipboard.WriteAll
	clipboardRead  = clipboard.ReadAll
)

// ExportViewToJSON renders the ranked, filtered view with its insights
func (m *Model) ExportViewToJSON() (string, error) {
	if len(m.result.Ordered) == 0 {
		return "", fmt.Errorf("no items in the current view")
	}

	r := report.New(m.result, m.engine.SourceName(), m.engine.Settings().Algorithm, m.filter, m.now())
	data, err := r.MarshalIndent()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ExportViewToClipboard copies the current view to the clipboard
func (m *Model) ExportViewToClipboard() (int, error) {
	data, err := m.ExportViewToJSON()
	if err != nil {
		return 0, err
	}
	if err := clipboardWrite(data); err != nil {
		return 0, fmt.Errorf("failed to write clipboard: %w", err)
	}
	return len(m.result.Ordered), nil
}

// ImportItemsFromClipboard reads a JSON array of items from the clipboard and
// merges them into the engine
func (m *Model) ImportItemsFromClipboard() (int, error) {
	content, err := clipboardRead()
	if err != nil {
		return 0, fmt.Errorf("failed to read clipboard: %w", err)
	}
	return m.ImportItemsFromText(content)
}

// ImportItemsFromText parses items from free-form text and merges them in
func (m *Model) ImportItemsFromText(content string) (int, error) {
	items, err := triage.ParseItems(content)
	if err != nil {
		return 0, err
	}
	n, err := m.engine.Import(items)
	m.reloadView()
	return n, err
}
