// Package report renders run summaries and history tables for the console.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/verte-zerg/gpxmerge/internal/model"
)

const (
	terminalWidthBackup = 80
	runTimeLayout       = "2006-01-02 15:04"
)

// Printer writes human-facing progress and summaries. Styling is enabled
// only when the destination is a terminal.
type Printer struct {
	w      io.Writer
	styled bool
	width  int

	ok   lipgloss.Style
	warn lipgloss.Style
	fail lipgloss.Style
	box  lipgloss.Style
}

// NewPrinter returns a Printer for f, detecting terminal support.
func NewPrinter(f *os.File) *Printer {
	fd := int(f.Fd())
	styled := term.IsTerminal(fd)
	width := terminalWidthBackup
	if styled {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
	}
	return newPrinter(f, styled, width)
}

// NewPlainPrinter returns a Printer that never emits styling.
func NewPlainPrinter(w io.Writer) *Printer {
	return newPrinter(w, false, terminalWidthBackup)
}

func newPrinter(w io.Writer, styled bool, width int) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:      w,
		styled: styled,
		width:  width,
		ok:     r.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true),
		warn:   r.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true),
		fail:   r.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true),
		box:    r.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A")),
	}
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

func (p *Printer) println(s string) {
	if _, err := fmt.Fprintln(p.w, s); err != nil {
		// Best-effort console output.
		_ = err
	}
}

// Infof prints a progress line.
func (p *Printer) Infof(format string, args ...any) {
	p.println(fmt.Sprintf(format, args...))
}

// Warnf prints a warning line.
func (p *Printer) Warnf(format string, args ...any) {
	p.println(p.render(p.warn, "warning:") + " " + fmt.Sprintf(format, args...))
}

// Errorf prints an error line.
func (p *Printer) Errorf(format string, args ...any) {
	p.println(p.render(p.fail, "error:") + " " + fmt.Sprintf(format, args...))
}

// Summary prints the outcome of a run.
func (p *Printer) Summary(r model.Report) {
	for _, line := range p.SummaryLines(r) {
		p.println(line)
	}
}

// SummaryLines renders the outcome of a run as lines.
func (p *Printer) SummaryLines(r model.Report) []string {
	var out []string
	if r.Success {
		out = append(out, p.render(p.ok, "Successfully created consolidated file: ")+r.OutputPath)
	} else {
		out = append(out, p.render(p.fail, "Consolidation failed"))
	}

	counts := formatTable(
		[]string{"", "Included", "Excluded"},
		[][]string{
			{"Waypoints", strconv.Itoa(r.Waypoints), strconv.Itoa(r.WaypointsExcluded)},
			{"Routes", strconv.Itoa(r.Routes), "0"},
			{"Tracks", strconv.Itoa(r.Tracks), strconv.Itoa(r.TracksExcluded)},
		},
		map[int]bool{1: true, 2: true},
	)
	body := []string{
		fmt.Sprintf("Sources: %d loaded, %d failed", r.Loaded(), len(r.Failures)),
		"Filter:  " + r.Filter,
	}
	if r.BadTimestamps > 0 {
		body = append(body, fmt.Sprintf("Unparseable timestamps: %d", r.BadTimestamps))
	}
	body = append(body, "")
	body = append(body, counts...)
	if p.styled {
		out = append(out, strings.Split(p.box.MaxWidth(p.width).Render(strings.Join(body, "\n")), "\n")...)
	} else {
		out = append(out, body...)
	}
	return out
}

// RunTable renders history records as plain table lines.
func RunTable(runs []model.RunRecord) []string {
	headers := []string{"Started", "Status", "Sources", "Failed", "Wpts", "Rtes", "Trks", "Filter", "Output"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		r := run.Report
		rows = append(rows, []string{
			r.StartedAt.Local().Format(runTimeLayout),
			Status(r),
			strconv.Itoa(r.Sources),
			strconv.Itoa(run.FailureCount),
			strconv.Itoa(r.Waypoints),
			strconv.Itoa(r.Routes),
			strconv.Itoa(r.Tracks),
			r.Filter,
			r.OutputPath,
		})
	}
	return formatTable(headers, rows, map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true})
}

// Status labels a run for listings.
func Status(r model.Report) string {
	if r.Success {
		return "ok"
	}
	return "failed"
}
