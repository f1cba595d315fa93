// Package historyui provides the Bubble Tea run history browser.
package historyui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/gpxmerge/internal/model"
	"github.com/verte-zerg/gpxmerge/internal/report"
	"github.com/verte-zerg/gpxmerge/internal/store"
)

const (
	timeLayout      = "2006-01-02 15:04:05"
	minDetailHeight = 6
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	detailStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea history UI.
type Model struct {
	store *store.Store
	limit int

	runs     []model.RunRecord
	failures map[string][]model.SourceFailure
	errMsg   string

	runTable    table.Model
	detail      viewport.Model
	focusDetail bool
	selectedID  string

	width  int
	height int
}

// NewModel constructs a history UI model listing up to limit runs
// (limit <= 0 lists all).
func NewModel(st *store.Store, limit int) *Model {
	m := &Model{
		store:    st,
		limit:    limit,
		failures: map[string][]model.SourceFailure{},
		detail:   viewport.New(0, 0),
	}
	m.runTable = table.New(
		table.WithColumns(runColumns(80)),
		table.WithHeight(1),
		table.WithFocused(true),
	)
	m.runTable.SetStyles(runTableStyles())
	m.refreshRuns()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.refreshDetail()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			m.focusDetail = !m.focusDetail
			if m.focusDetail {
				m.runTable.Blur()
			} else {
				m.runTable.Focus()
			}
			return m, nil
		case "r":
			m.refreshRuns()
			m.updateLayout()
			return m, nil
		case "g", "home":
			if m.focusDetail {
				m.detail.GotoTop()
			} else {
				m.runTable.GotoTop()
				m.refreshDetail()
			}
			return m, nil
		case "G", "end":
			if m.focusDetail {
				m.detail.GotoBottom()
			} else {
				m.runTable.GotoBottom()
				m.refreshDetail()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.focusDetail {
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
		m.runTable, cmd = m.runTable.Update(msg)
		m.refreshDetail()
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, tableHeight, detailHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	var body string
	if len(m.runs) == 0 {
		body = fitLines("No runs recorded yet.", m.width, tableHeight+detailHeight)
	} else {
		runs := fitLines(tableMutedStyle.Render(m.runTable.View()), m.width, tableHeight)
		detail := fitLines(detailStyle.Width(maxInt(1, m.width-2)).Render(m.detail.View()), m.width, detailHeight)
		body = runs + "\n" + detail
	}
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// Selected returns the run under the cursor.
func (m *Model) Selected() (model.RunRecord, bool) {
	idx := m.runTable.Cursor()
	if idx < 0 || idx >= len(m.runs) {
		return model.RunRecord{}, false
	}
	return m.runs[idx], true
}

func (m *Model) refreshRuns() {
	runs, err := m.store.ListRuns(context.Background(), m.limit)
	if err != nil {
		m.errMsg = err.Error()
		m.runs = nil
		m.runTable.SetRows(nil)
		m.detail.SetContent("Failed to load history.")
		return
	}
	m.errMsg = ""
	m.runs = runs
	m.failures = map[string][]model.SourceFailure{}
	m.selectedID = ""
	m.runTable.SetRows(runRows(runs))
	if m.runTable.Cursor() >= len(runs) {
		m.runTable.GotoTop()
	}
	m.refreshDetail()
}

func (m *Model) refreshDetail() {
	rec, ok := m.Selected()
	if !ok {
		m.detail.SetContent("")
		return
	}
	failures, ok := m.failures[rec.ID]
	if !ok && rec.FailureCount > 0 {
		loaded, err := m.store.ListFailures(context.Background(), rec.ID)
		if err != nil {
			m.errMsg = err.Error()
		} else {
			failures = loaded
			m.failures[rec.ID] = loaded
		}
	}
	m.detail.SetContent(renderDetail(rec, failures, m.detail.Width))
	if rec.ID != m.selectedID {
		m.selectedID = rec.ID
		m.detail.GotoTop()
	}
}

func (m *Model) layoutHeights() (headerHeight, tableHeight, detailHeight, footerHeight int) {
	headerHeight = lipgloss.Height(titleStyle.Render("X"))
	footerHeight = 1
	if m.errMsg != "" {
		footerHeight++
	}
	body := maxInt(2, m.height-headerHeight-footerHeight)
	detailHeight = maxInt(minDetailHeight, body*2/5)
	if detailHeight >= body {
		detailHeight = body / 2
	}
	tableHeight = maxInt(1, body-detailHeight)
	return headerHeight, tableHeight, detailHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, tableHeight, detailHeight, _ := m.layoutHeights()
	m.runTable.SetColumns(runColumns(m.width))
	m.runTable.SetWidth(m.width)
	m.runTable.SetHeight(maxInt(1, tableHeight-1))
	// Border takes two rows and columns, padding two columns.
	m.detail.Width = maxInt(1, m.width-4)
	m.detail.Height = maxInt(1, detailHeight-2)
}

func (m *Model) renderHeader() string {
	title := titleStyle.Render("Run history")
	count := headerStyle.Render(fmt.Sprintf("  %d runs", len(m.runs)))
	return lipgloss.JoinHorizontal(lipgloss.Center, title, count)
}

func (m *Model) renderFooter() string {
	help := "Select: up/down  Switch pane: tab  Top/Bottom: g/G  Reload: r  Quit: q"
	if m.focusDetail {
		help = "Scroll: up/down/pgup/pgdn  Switch pane: tab  Reload: r  Quit: q"
	}
	out := headerStyle.Render(truncateLine(help, m.width))
	if m.errMsg != "" {
		out += "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	}
	return out
}

func runColumns(width int) []table.Column {
	cols := []table.Column{
		{Title: "Started", Width: 16},
		{Title: "Status", Width: 6},
		{Title: "Sources", Width: 7},
		{Title: "Failed", Width: 6},
		{Title: "Wpts", Width: 5},
		{Title: "Rtes", Width: 5},
		{Title: "Trks", Width: 5},
		{Title: "Output", Width: 10},
	}
	used := 0
	for _, c := range cols[:len(cols)-1] {
		used += c.Width + 1
	}
	cols[len(cols)-1].Width = maxInt(10, width-used-1)
	return cols
}

func runRows(runs []model.RunRecord) []table.Row {
	rows := make([]table.Row, 0, len(runs))
	for _, run := range runs {
		r := run.Report
		rows = append(rows, table.Row{
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			report.Status(r),
			strconv.Itoa(r.Sources),
			strconv.Itoa(run.FailureCount),
			strconv.Itoa(r.Waypoints),
			strconv.Itoa(r.Routes),
			strconv.Itoa(r.Tracks),
			r.OutputPath,
		})
	}
	return rows
}

func runTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func renderDetail(rec model.RunRecord, failures []model.SourceFailure, width int) string {
	r := rec.Report
	status := errorStyle.Render("failed")
	if r.Success {
		status = okStyle.Render("ok")
	}
	field := func(label, value string) string {
		return labelStyle.Render(fmt.Sprintf("%-11s", label)) + " " + value
	}
	lines := []string{
		field("Run", rec.ID),
		field("Status", status),
		field("Started", r.StartedAt.Local().Format(timeLayout)),
		field("Finished", r.FinishedAt.Local().Format(timeLayout)),
		field("Duration", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()),
		field("Output", r.OutputPath),
		field("Filter", r.Filter),
		field("Sources", fmt.Sprintf("%d loaded, %d failed", r.Loaded(), rec.FailureCount)),
		field("Waypoints", fmt.Sprintf("%d included, %d excluded", r.Waypoints, r.WaypointsExcluded)),
		field("Routes", strconv.Itoa(r.Routes)),
		field("Tracks", fmt.Sprintf("%d included, %d excluded", r.Tracks, r.TracksExcluded)),
	}
	if r.BadTimestamps > 0 {
		lines = append(lines, field("Timestamps", fmt.Sprintf("%d unparseable", r.BadTimestamps)))
	}
	if len(failures) > 0 {
		lines = append(lines, "", labelStyle.Render("Failed sources:"))
		for _, f := range failures {
			lines = append(lines, truncateLine("  "+f.SourceID+": "+f.Reason, width))
		}
	}
	return strings.Join(lines, "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
