package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/datafog/datafog-go/internal/redaction"
	"github.com/datafog/datafog-go/internal/report"
)

var (
	tableBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(1, 4)

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const defaultStatus = "space: toggle | a: all | v: values | r: re-extract | enter: redact | q: cancel"

// ExtractFunc re-runs extraction, bypassing any cache.
type ExtractFunc func() (*redaction.DetectionSet, error)

type detectionsMsg struct{ set *redaction.DetectionSet }

type statusMsg string

// Model lets the user choose which detections to apply while previewing the
// redacted document.
type Model struct {
	table     table.Model
	viewport  viewport.Model
	spinner   spinner.Model
	doc       string
	dets      []redaction.Detection
	excluded  map[int]bool
	prefs     Prefs
	reextract ExtractFunc

	extracting bool
	ready      bool
	accepted   bool
	quitting   bool
	width      int
	height     int
	status     string
}

// NewModel builds a review model over set. reextract may be nil.
func NewModel(doc string, set *redaction.DetectionSet, reextract ExtractFunc, prefs Prefs) Model {
	columns := []table.Column{
		{Title: "Use", Width: 4},
		{Title: "Category", Width: 16},
		{Title: "Value", Width: 32},
		{Title: "Span", Width: 12},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	s := table.DefaultStyles()
	s.Header = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("15")).
		Bold(true).
		Padding(0, 1)
	s.Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(lipgloss.Color("208")).
		Bold(true).
		Padding(0, 1)
	s.Cell = lipgloss.NewStyle().Padding(0, 1)
	t.SetStyles(s)

	// Line spinner avoids Braille characters that render poorly on some terminals
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	m := Model{
		table:     t,
		viewport:  viewport.New(80, 10),
		spinner:   sp,
		doc:       doc,
		prefs:     prefs,
		reextract: reextract,
		status:    defaultStatus,
	}
	m.setDetections(set)
	return m
}

func (m *Model) setDetections(set *redaction.DetectionSet) {
	m.dets = nil
	if set != nil {
		m.dets = set.Detections()
	}
	m.excluded = make(map[int]bool)
	m.rebuildRows()
	m.table.SetCursor(0)
}

func (m *Model) rebuildRows() {
	rows := make([]table.Row, len(m.dets))
	for i, d := range m.dets {
		use := "[x]"
		if m.excluded[i] {
			use = "[ ]"
		}
		value := d.Value()
		if !m.prefs.ShowValues {
			value = report.MaskValue(value)
		}
		span := "-"
		if start, end, ok := d.Offsets(); ok {
			span = strconv.Itoa(start) + ":" + strconv.Itoa(end)
		}
		rows[i] = table.Row{use, d.Category(), value, span}
	}
	m.table.SetRows(rows)
	m.updatePreview()
}

// Selected returns the detections left enabled.
func (m Model) Selected() (*redaction.DetectionSet, error) {
	var ds []redaction.Detection
	for i, d := range m.dets {
		if !m.excluded[i] {
			ds = append(ds, d)
		}
	}
	return redaction.NewDetectionSet(ds...)
}

// Accepted reports whether the user confirmed the selection.
func (m Model) Accepted() bool { return m.accepted }

func (m *Model) updatePreview() {
	set, err := m.Selected()
	switch {
	case errors.Is(err, redaction.ErrEmptyDetectionSet):
		m.viewport.SetContent(m.doc)
		return
	case err != nil:
		m.viewport.SetContent(errorStyle.Render(err.Error()))
		return
	}
	res, err := set.Redact(m.doc)
	if err != nil {
		m.viewport.SetContent(errorStyle.Render(err.Error()))
		return
	}
	m.viewport.SetContent(res.Text)
}

func (m *Model) toggle() {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.dets) {
		return
	}
	m.excluded[i] = !m.excluded[i]
	m.rebuildRows()
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) runExtract() tea.Cmd {
	fn := m.reextract
	return func() tea.Msg {
		set, err := fn()
		if err != nil {
			return statusMsg(fmt.Sprintf("Extraction error: %v", err))
		}
		return detectionsMsg{set: set}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.extracting && msg.String() != "ctrl+c" {
			return m, nil
		}
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			if _, err := m.Selected(); err != nil {
				m.status = "Nothing selected | " + defaultStatus
				return m, nil
			}
			m.accepted = true
			m.quitting = true
			return m, tea.Quit
		case " ", "x":
			m.toggle()
			return m, nil
		case "a":
			m.excluded = make(map[int]bool)
			m.rebuildRows()
			return m, nil
		case "v":
			m.prefs.ShowValues = !m.prefs.ShowValues
			m.rebuildRows()
			if err := SavePrefs(m.prefs); err != nil {
				m.status = "Could not save preferences: " + err.Error()
			}
			return m, nil
		case "r":
			if m.reextract == nil {
				m.status = "Re-extraction not available"
				return m, nil
			}
			m.extracting = true
			return m, tea.Batch(m.spinner.Tick, m.runExtract())
		case "pgdown", "pgup":
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		tableHeight := msg.Height/2 - 4
		if tableHeight < 3 {
			tableHeight = 3
		}
		m.table.SetHeight(tableHeight)
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = msg.Height - tableHeight - 8
		if m.viewport.Height < 3 {
			m.viewport.Height = 3
		}
		return m, nil
	case detectionsMsg:
		m.extracting = false
		m.setDetections(msg.set)
		m.status = fmt.Sprintf("Extracted %d detections | %s", len(m.dets), defaultStatus)
		return m, nil
	case statusMsg:
		m.extracting = false
		m.status = string(msg)
		return m, nil
	case spinner.TickMsg:
		if m.extracting {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}
	if m.extracting {
		box := popupStyle.Width(50).Align(lipgloss.Center).
			Render(m.spinner.View() + "  Extracting...\n\nPlease wait")
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	enabled := len(m.dets)
	for _, off := range m.excluded {
		if off {
			enabled--
		}
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Review detections (%d of %d enabled)", enabled, len(m.dets))))
	b.WriteString("\n")
	b.WriteString(tableBorderStyle.Render(m.table.View()))
	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Preview"))
	b.WriteString("\n")
	b.WriteString(tableBorderStyle.Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(statusStyle.Width(m.width).Render(m.status))
	return b.String()
}
