// Package gpx models GPX 1.1 documents and reads and writes them.
package gpx

import (
	"encoding/xml"
	"strings"
	"time"
)

// Namespaces the writer always declares.
const (
	NamespaceGPX = "http://www.topografix.com/GPX/1/1"
	NamespaceXSI = "http://www.w3.org/2001/XMLSchema-instance"
)

const (
	defaultDocumentName = "Consolidated GPX Tracks and Waypoints"
	defaultCreator      = "GPSMAP 64st"
	defaultLinkHref     = "http://www.garmin.com"
	defaultLinkText     = "Garmin International"
)

// Point is a track point. Time is zero when the point has no usable <time>.
type Point struct {
	Time time.Time
	Node Node
}

// Segment is a run of points inside a track.
type Segment struct {
	Attrs  []xml.Attr
	Points []Point
	Extra  []Node
}

// Track is a <trk>. Extra holds every non-segment child in document order,
// including the original <name>.
type Track struct {
	SourceID string
	Name     string
	Attrs    []xml.Attr
	Extra    []Node
	Segments []Segment
}

// PointCount returns the number of points across all segments.
func (t Track) PointCount() int {
	n := 0
	for _, s := range t.Segments {
		n += len(s.Points)
	}
	return n
}

// Renamed returns a copy of t carrying name as its <name>.
func (t Track) Renamed(name string) Track {
	t.Name = name
	t.Extra = withName(t.Extra, name)
	return t
}

// Waypoint is a <wpt>.
type Waypoint struct {
	SourceID string
	Name     string
	Time     time.Time
	Node     Node
}

// Renamed returns a copy of w carrying name as its <name>.
func (w Waypoint) Renamed(name string) Waypoint {
	w.Name = name
	w.Node.Children = withName(w.Node.Children, name, "ele", "time", "magvar", "geoidheight")
	return w
}

// Route is a <rte>; its route points are never inspected.
type Route struct {
	SourceID string
	Name     string
	Node     Node
}

// Renamed returns a copy of r carrying name as its <name>.
func (r Route) Renamed(name string) Route {
	r.Name = name
	r.Node.Children = withName(r.Node.Children, name)
	return r
}

// File is the content of one loaded source.
type File struct {
	SourceID      string
	Waypoints     []Waypoint
	Routes        []Route
	Tracks        []Track
	BadTimestamps int
}

// Metadata is the header of a consolidated document.
type Metadata struct {
	Name     string
	Creator  string
	LinkHref string
	LinkText string
	Time     time.Time
}

// DefaultMetadata returns the Garmin-compatible header values.
func DefaultMetadata() Metadata {
	return Metadata{
		Name:     defaultDocumentName,
		Creator:  defaultCreator,
		LinkHref: defaultLinkHref,
		LinkText: defaultLinkText,
	}
}

// Document is a consolidated GPX document ready to be written.
type Document struct {
	Metadata  Metadata
	Waypoints []Waypoint
	Routes    []Route
	Tracks    []Track
}

// ParseTime parses a GPX <time> value. Values without a zone are taken as UTC.
func ParseTime(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, &TimestampError{Value: value, Err: errEmptyTimestamp}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	if t, lerr := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC); lerr == nil {
		return t, nil
	}
	return time.Time{}, &TimestampError{Value: value, Err: err}
}
