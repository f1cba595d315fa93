package gpx

import (
	"fmt"
	"io"
	"time"
)

// Load parses one GPX source. Failures are returned as *ParseError; a
// well-formed document without entities yields an empty File.
func Load(r io.Reader, sourceID string) (*File, error) {
	root, err := decodeRoot(r)
	if err != nil {
		return nil, &ParseError{SourceID: sourceID, Err: err}
	}
	if root.Name.Local != "gpx" {
		return nil, &ParseError{SourceID: sourceID, Err: fmt.Errorf("root element is <%s>, expected <gpx>", root.Name.Local)}
	}
	normalize(&root, root.Name.Space)

	f := &File{SourceID: sourceID}
	for _, child := range root.Children {
		switch {
		case child.is("wpt"):
			f.Waypoints = append(f.Waypoints, f.waypoint(child))
		case child.is("rte"):
			f.Routes = append(f.Routes, Route{
				SourceID: sourceID,
				Name:     child.ChildText("name"),
				Node:     child,
			})
		case child.is("trk"):
			f.Tracks = append(f.Tracks, f.track(child))
		}
	}
	return f, nil
}

func (f *File) waypoint(n Node) Waypoint {
	return Waypoint{
		SourceID: f.SourceID,
		Name:     n.ChildText("name"),
		Time:     f.timeOf(n),
		Node:     n,
	}
}

func (f *File) track(n Node) Track {
	t := Track{
		SourceID: f.SourceID,
		Name:     n.ChildText("name"),
		Attrs:    n.Attrs,
	}
	for _, c := range n.Children {
		if !c.is("trkseg") {
			t.Extra = append(t.Extra, c)
			continue
		}
		seg := Segment{Attrs: c.Attrs}
		for _, p := range c.Children {
			if !p.is("trkpt") {
				seg.Extra = append(seg.Extra, p)
				continue
			}
			seg.Points = append(seg.Points, Point{Time: f.timeOf(p), Node: p})
		}
		t.Segments = append(t.Segments, seg)
	}
	return t
}

// timeOf returns the parsed <time> of n, counting values that fail to parse.
func (f *File) timeOf(n Node) time.Time {
	tn, ok := n.Child("time")
	if !ok {
		return time.Time{}
	}
	t, err := ParseTime(tn.Text)
	if err != nil {
		f.BadTimestamps++
		return time.Time{}
	}
	return t
}
