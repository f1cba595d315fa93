package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/gpxmerge/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestInsertAndListRuns(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 8, 20, 10, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		report := model.Report{
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + 1500*time.Millisecond),
			OutputPath: "/tmp/out.gpx",
			Filter:     "no filter",
			Sources:    4,
			Tracks:     i,
			Waypoints:  2,
			Routes:     1,
			Success:    i != 1,
		}
		if i == 1 {
			report.Failures = []model.SourceFailure{
				{SourceID: "b", Reason: "failed to parse b: unexpected EOF"},
				{SourceID: "a", Reason: "failed to parse a: missing root element"},
			}
		}
		id, err := st.InsertRun(ctx, report)
		if err != nil {
			t.Fatalf("insert run: %v", err)
		}
		if id == "" {
			t.Fatalf("expected run id")
		}
		ids = append(ids, id)
	}

	runs, err := st.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != ids[2] || runs[2].ID != ids[0] {
		t.Fatalf("expected newest first, got %s, %s, %s", runs[0].ID, runs[1].ID, runs[2].ID)
	}
	mid := runs[1]
	if mid.FailureCount != 2 || mid.Report.Success {
		t.Fatalf("unexpected middle run %+v", mid)
	}
	if !mid.Report.StartedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("expected started_at to round trip, got %v", mid.Report.StartedAt)
	}
	if got := mid.Report.FinishedAt.Sub(mid.Report.StartedAt); got != 1500*time.Millisecond {
		t.Fatalf("expected 1.5s duration, got %v", got)
	}

	limited, err := st.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list limited runs: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(limited))
	}

	failures, err := st.ListFailures(ctx, mid.ID)
	if err != nil {
		t.Fatalf("list failures: %v", err)
	}
	if len(failures) != 2 || failures[0].SourceID != "b" || failures[1].SourceID != "a" {
		t.Fatalf("expected failures in report order, got %+v", failures)
	}
}

func TestListRunsEmpty(t *testing.T) {
	st := openTestStore(t)
	runs, err := st.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs, got %d", len(runs))
	}
}
