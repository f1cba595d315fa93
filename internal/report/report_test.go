package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/gpxmerge/internal/model"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	lines := formatTable(
		[]string{"Name", "N"},
		[][]string{{"Grünberg", "7"}, {"X", "12"}},
		map[int]bool{1: true},
	)
	want := []string{
		"Name       N",
		"Grünberg   7",
		"X         12",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestSummaryPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)
	p.Summary(model.Report{
		OutputPath:     "out.gpx",
		Filter:         "on 2024-08-20",
		Sources:        3,
		Tracks:         2,
		Waypoints:      1,
		TracksExcluded: 4,
		BadTimestamps:  2,
		Failures:       []model.SourceFailure{{SourceID: "bad", Reason: "failed to parse bad: EOF"}},
		Success:        true,
	})
	out := buf.String()
	for _, want := range []string{
		"Successfully created consolidated file: out.gpx",
		"Sources: 2 loaded, 1 failed",
		"Filter:  on 2024-08-20",
		"Unparseable timestamps: 2",
		"Tracks            2         4",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected summary to contain %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no styling in plain output")
	}
}

func TestWarnfPrefix(t *testing.T) {
	var buf bytes.Buffer
	NewPlainPrinter(&buf).Warnf("%s: %s", "bad", "oops")
	if buf.String() != "warning: bad: oops\n" {
		t.Fatalf("unexpected warning %q", buf.String())
	}
}

func TestRunTable(t *testing.T) {
	started := time.Date(2024, 8, 20, 10, 0, 0, 0, time.Local)
	lines := RunTable([]model.RunRecord{
		{ID: "1", Report: model.Report{StartedAt: started, Sources: 2, Tracks: 3, Filter: "no filter", OutputPath: "a.gpx", Success: true}},
		{ID: "2", Report: model.Report{StartedAt: started, Sources: 1, Filter: "no filter", OutputPath: "b.gpx"}, FailureCount: 1},
	})
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Started") || !strings.HasSuffix(lines[0], "Output") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "2024-08-20 10:00") || !strings.Contains(lines[1], "ok") || !strings.HasSuffix(lines[1], "a.gpx") {
		t.Fatalf("unexpected row %q", lines[1])
	}
	if !strings.Contains(lines[2], "failed") {
		t.Fatalf("unexpected row %q", lines[2])
	}
}
