package merge

import (
	"github.com/verte-zerg/gpxmerge/internal/gpx"
	"github.com/verte-zerg/gpxmerge/internal/naming"
	"github.com/verte-zerg/gpxmerge/internal/window"
)

// Assembler filters, names and buckets entities in the order they are added.
// It owns the run's name registry and must be driven by a single goroutine.
type Assembler struct {
	window   window.Window
	registry *naming.Registry

	waypoints []gpx.Waypoint
	routes    []gpx.Route
	tracks    []gpx.Track

	tracksExcluded    int
	waypointsExcluded int
}

// NewAssembler returns an empty assembler applying w.
func NewAssembler(w window.Window) *Assembler {
	return &Assembler{window: w, registry: naming.NewRegistry()}
}

// Add merges one source. Waypoints are named before routes and routes before
// tracks, matching the order they are laid out in the document.
func (a *Assembler) Add(f *gpx.File) {
	for _, wpt := range f.Waypoints {
		if !a.window.KeepWaypoint(wpt) {
			a.waypointsExcluded++
			continue
		}
		name := a.registry.Assign(naming.Waypoint, wpt.Name, wpt.SourceID, a.window.Date)
		a.waypoints = append(a.waypoints, wpt.Renamed(name))
	}
	for _, rte := range f.Routes {
		name := a.registry.Assign(naming.Route, rte.Name, rte.SourceID, a.window.Date)
		a.routes = append(a.routes, rte.Renamed(name))
	}
	for _, trk := range f.Tracks {
		filtered, ok := a.window.FilterTrack(trk)
		if !ok {
			a.tracksExcluded++
			continue
		}
		name := a.registry.Assign(naming.Track, filtered.Name, filtered.SourceID, a.window.Date)
		a.tracks = append(a.tracks, filtered.Renamed(name))
	}
}

// Document lays the buckets out as waypoints, then routes, then tracks.
func (a *Assembler) Document(meta gpx.Metadata) *gpx.Document {
	return &gpx.Document{
		Metadata:  meta,
		Waypoints: a.waypoints,
		Routes:    a.routes,
		Tracks:    a.tracks,
	}
}
