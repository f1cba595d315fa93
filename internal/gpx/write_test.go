package gpx

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteLayoutAndMetadata(t *testing.T) {
	f, err := Load(strings.NewReader(sampleGPX), "alps")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	meta := DefaultMetadata()
	meta.Time = time.Date(2024, 8, 21, 9, 30, 0, 0, time.FixedZone("CEST", 2*60*60))
	doc := &Document{
		Metadata:  meta,
		Tracks:    f.Tracks,
		Routes:    f.Routes,
		Waypoints: f.Waypoints,
	}

	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Fatalf("expected xml declaration, got %q", out[:40])
	}
	for _, want := range []string{
		`xmlns="http://www.topografix.com/GPX/1/1"`,
		`xmlns:gpxtpx="http://www.garmin.com/xmlschemas/TrackPointExtension/v1"`,
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"`,
		`creator="GPSMAP 64st"`,
		`version="1.1"`,
		`<name>Consolidated GPX Tracks and Waypoints</name>`,
		`<link href="http://www.garmin.com">`,
		`<text>Garmin International</text>`,
		`<time>2024-08-21T07:30:00Z</time>`,
		`<gpxtpx:hr>121</gpxtpx:hr>`,
		`<sym>Flag, Blue</sym>`,
		`<type>hiking</type>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %s\n%s", want, out)
		}
	}
	if strings.Contains(out, "gpxx=") {
		t.Fatalf("expected unused vendor namespaces to be omitted\n%s", out)
	}

	wpt := strings.Index(out, "<wpt")
	rte := strings.Index(out, "<rte>")
	trk := strings.Index(out, "<trk>")
	if wpt < 0 || rte < wpt || trk < rte {
		t.Fatalf("expected waypoints, routes, tracks order (%d, %d, %d)", wpt, rte, trk)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	f, err := Load(strings.NewReader(sampleGPX), "alps")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, &Document{Metadata: DefaultMetadata(), Waypoints: f.Waypoints, Routes: f.Routes, Tracks: f.Tracks}); err != nil {
		t.Fatalf("write: %v", err)
	}
	again, err := Load(&buf, "again")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(again.Tracks) != 1 || again.Tracks[0].PointCount() != 2 {
		t.Fatalf("expected track with 2 points after round trip, got %+v", again.Tracks)
	}
	ext, ok := again.Tracks[0].Segments[0].Points[0].Node.Child("extensions")
	if !ok || len(ext.Children) != 1 {
		t.Fatalf("expected extensions to survive round trip")
	}
	if ext.Children[0].Name.Space != "http://www.garmin.com/xmlschemas/TrackPointExtension/v1" {
		t.Fatalf("expected vendor namespace to survive, got %q", ext.Children[0].Name.Space)
	}
}

func TestWriteUnknownNamespacePrefix(t *testing.T) {
	doc := `<gpx xmlns="http://www.topografix.com/GPX/1/1" xmlns:x="urn:example:ext">
  <wpt lat="1" lon="2"><extensions><x:note x:lang="en">hi</x:note></extensions></wpt>
</gpx>`
	f, err := Load(strings.NewReader(doc), "ext")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, &Document{Waypoints: f.Waypoints}); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `xmlns:ns1="urn:example:ext"`) || !strings.Contains(out, `<ns1:note ns1:lang="en">hi</ns1:note>`) {
		t.Fatalf("expected ns1 prefix for unknown namespace\n%s", out)
	}
}

func TestWriteFileReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.gpx")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("seed output: %v", err)
	}
	if err := WriteFile(path, &Document{Metadata: DefaultMetadata()}); err != nil {
		t.Fatalf("write file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), "<gpx") {
		t.Fatalf("expected gpx document, got %q", data)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the output file, got %d entries", len(entries))
	}
}

func TestWriteFileMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.gpx")
	err := WriteFile(path, &Document{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
	var werr *WriteError
	if !errors.As(err, &werr) || werr.Path != path {
		t.Fatalf("expected WriteError for %s, got %v", path, err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteReportsWriterFailure(t *testing.T) {
	err := Write(failingWriter{}, &Document{Metadata: DefaultMetadata()})
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
}
