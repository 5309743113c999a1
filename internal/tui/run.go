package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/datafog/datafog-go/internal/redaction"
)

// ErrCancelled is returned when the user leaves the review without
// confirming.
var ErrCancelled = errors.New("review cancelled")

// Review shows the detections in set and returns the subset the user keeps.
func Review(doc string, set *redaction.DetectionSet, reextract ExtractFunc) (*redaction.DetectionSet, error) {
	m := NewModel(doc, set, reextract, LoadPrefs())
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}
	fm, ok := final.(Model)
	if !ok || !fm.Accepted() {
		return nil, ErrCancelled
	}
	return fm.Selected()
}
