// Package merge consolidates many GPX sources into one document.
package merge

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/verte-zerg/gpxmerge/internal/gpx"
	"github.com/verte-zerg/gpxmerge/internal/model"
	"github.com/verte-zerg/gpxmerge/internal/window"
)

// Options controls a merge run.
type Options struct {
	Window   window.Window
	Workers  int
	Metadata gpx.Metadata
	Logger   *slog.Logger
	Now      func() time.Time
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// Merge loads sources in parallel, then filters, names and assembles them
// sequentially in the order given. Sources that fail to load are reported
// in the returned Report and skipped. The error is non-nil only when ctx
// ends the run.
func Merge(ctx context.Context, sources []Source, opts Options) (*gpx.Document, model.Report, error) {
	logger := opts.logger()
	report := model.Report{
		StartedAt: opts.now(),
		Filter:    opts.Window.String(),
		Sources:   len(sources),
	}

	results, err := loadAll(ctx, sources, opts.Workers, logger)
	if err != nil {
		return nil, report, err
	}

	asm := NewAssembler(opts.Window)
	for _, res := range results {
		if res.err != nil {
			report.Failures = append(report.Failures, model.SourceFailure{
				SourceID: res.source.ID,
				Reason:   res.err.Error(),
			})
			logger.Warn("source.skipped", "source", res.source.ID, "error", res.err)
			continue
		}
		report.BadTimestamps += res.file.BadTimestamps
		asm.Add(res.file)
	}

	meta := opts.Metadata
	if meta.Time.IsZero() {
		meta.Time = opts.now()
	}
	doc := asm.Document(meta)

	report.Tracks = len(doc.Tracks)
	report.Waypoints = len(doc.Waypoints)
	report.Routes = len(doc.Routes)
	report.TracksExcluded = asm.tracksExcluded
	report.WaypointsExcluded = asm.waypointsExcluded
	logger.Info("merge.done",
		"sources", report.Sources,
		"failed", len(report.Failures),
		"tracks", report.Tracks,
		"waypoints", report.Waypoints,
		"routes", report.Routes,
	)
	return doc, report, nil
}

// Consolidate merges sources and writes the result to outPath atomically.
// Report.Success is set only when the document was fully written; a write
// failure is returned as *gpx.WriteError.
func Consolidate(ctx context.Context, sources []Source, opts Options, outPath string) (model.Report, error) {
	doc, report, err := Merge(ctx, sources, opts)
	if err != nil {
		report.FinishedAt = opts.now()
		return report, err
	}
	report.OutputPath = outPath
	if err := gpx.WriteFile(outPath, doc); err != nil {
		report.FinishedAt = opts.now()
		opts.logger().Error("write.failed", "path", outPath, "error", err)
		return report, err
	}
	report.Success = true
	report.FinishedAt = opts.now()
	return report, nil
}
