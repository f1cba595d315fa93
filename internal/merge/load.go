package merge

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/gpxmerge/internal/gpx"
)

// loaded is the parse outcome of one source.
type loaded struct {
	source Source
	file   *gpx.File
	err    error
}

// loadAll parses every source on a bounded worker pool. Results keep the
// order of sources regardless of completion order. A failing source never
// cancels its siblings; only ctx does.
func loadAll(ctx context.Context, sources []Source, workers int, logger *slog.Logger) ([]loaded, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]loaded, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range sources {
		i, src := i, src
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			file, err := loadSource(src)
			results[i] = loaded{source: src, file: file, err: err}
			if err != nil {
				logger.Debug("source.failed", "source", src.ID, "error", err)
			} else {
				logger.Debug("source.loaded", "source", src.ID,
					"tracks", len(file.Tracks), "waypoints", len(file.Waypoints), "routes", len(file.Routes))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func loadSource(src Source) (*gpx.File, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, &gpx.ParseError{SourceID: src.ID, Err: fmt.Errorf("failed to open: %w", err)}
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			// Best-effort close for read-only source.
			_ = cerr
		}
	}()
	return gpx.Load(rc, src.ID)
}
