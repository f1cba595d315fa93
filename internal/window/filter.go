package window

import "github.com/verte-zerg/gpxmerge/internal/gpx"

// FilterTrack returns the part of t inside the window. Segments left without
// points are dropped; ok is false when no segment survives. t is not modified.
func (w Window) FilterTrack(t gpx.Track) (gpx.Track, bool) {
	out := t
	out.Segments = nil
	for _, seg := range t.Segments {
		kept := make([]gpx.Point, 0, len(seg.Points))
		for _, p := range seg.Points {
			if w.Contains(p.Time) {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			continue
		}
		seg.Points = kept
		out.Segments = append(out.Segments, seg)
	}
	return out, len(out.Segments) > 0
}

// KeepWaypoint reports whether wpt falls inside the window.
func (w Window) KeepWaypoint(wpt gpx.Waypoint) bool {
	return w.Contains(wpt.Time)
}
