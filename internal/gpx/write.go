package gpx

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	gpxVersion     = "1.1"
	gpxSchema      = "http://www.topografix.com/GPX/1/1/gpx.xsd"
	namespaceXML   = "http://www.w3.org/XML/1998/namespace"
	metadataTime   = "2006-01-02T15:04:05Z"
	xmlDeclaration = `version="1.0" encoding="UTF-8"`
)

type vendorNamespace struct {
	uri    string
	prefix string
	schema string
}

// Vendor namespaces with well-known prefixes, in declaration order.
var knownNamespaces = []vendorNamespace{
	{uri: "http://www.garmin.com/xmlschemas/GpxExtensions/v3", prefix: "gpxx", schema: "http://www8.garmin.com/xmlschemas/GpxExtensionsv3.xsd"},
	{uri: "http://www.garmin.com/xmlschemas/TrackStatsExtension/v1", prefix: "gpxtrkx", schema: "http://www8.garmin.com/xmlschemas/TrackStatsExtension.xsd"},
	{uri: "http://www.garmin.com/xmlschemas/WaypointExtension/v1", prefix: "wptx1", schema: "http://www8.garmin.com/xmlschemas/WaypointExtensionv1.xsd"},
	{uri: "http://www.garmin.com/xmlschemas/TrackPointExtension/v1", prefix: "gpxtpx", schema: "http://www8.garmin.com/xmlschemas/TrackPointExtensionv1.xsd"},
}

// namespaces maps URIs used by a document to output prefixes.
type namespaces struct {
	prefix   map[string]string
	declared []vendorNamespace
}

func collectNamespaces(doc *Document) *namespaces {
	used := map[string]bool{}
	var order []string
	mark := func(uri string) {
		if uri == "" || uri == NamespaceGPX || uri == NamespaceXSI || uri == namespaceXML || used[uri] {
			return
		}
		used[uri] = true
		order = append(order, uri)
	}
	var walk func(n Node)
	walk = func(n Node) {
		mark(n.Name.Space)
		markAttrs(n.Attrs, mark)
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, w := range doc.Waypoints {
		walk(w.Node)
	}
	for _, r := range doc.Routes {
		walk(r.Node)
	}
	for _, t := range doc.Tracks {
		markAttrs(t.Attrs, mark)
		for _, n := range t.Extra {
			walk(n)
		}
		for _, s := range t.Segments {
			markAttrs(s.Attrs, mark)
			for _, p := range s.Points {
				walk(p.Node)
			}
			for _, n := range s.Extra {
				walk(n)
			}
		}
	}

	ns := &namespaces{prefix: map[string]string{
		NamespaceGPX: "",
		NamespaceXSI: "xsi",
		namespaceXML: "xml",
	}}
	for _, k := range knownNamespaces {
		if used[k.uri] {
			ns.prefix[k.uri] = k.prefix
			ns.declared = append(ns.declared, k)
		}
	}
	next := 1
	for _, uri := range order {
		if _, ok := ns.prefix[uri]; ok {
			continue
		}
		p := fmt.Sprintf("ns%d", next)
		next++
		ns.prefix[uri] = p
		ns.declared = append(ns.declared, vendorNamespace{uri: uri, prefix: p})
	}
	return ns
}

func markAttrs(attrs []xml.Attr, mark func(string)) {
	for _, a := range attrs {
		mark(a.Name.Space)
	}
}

func (ns *namespaces) qualify(name xml.Name) xml.Name {
	p := ns.prefix[name.Space]
	if p == "" {
		return xml.Name{Local: name.Local}
	}
	return xml.Name{Local: p + ":" + name.Local}
}

func (ns *namespaces) attrs(attrs []xml.Attr) []xml.Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]xml.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = xml.Attr{Name: ns.qualify(a.Name), Value: a.Value}
	}
	return out
}

func (ns *namespaces) rootAttrs(meta Metadata) []xml.Attr {
	attrs := []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: NamespaceGPX}}
	locations := []string{NamespaceGPX, gpxSchema}
	for _, d := range ns.declared {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "xmlns:" + d.prefix}, Value: d.uri})
		if d.schema != "" {
			locations = append(locations, d.uri, d.schema)
		}
	}
	attrs = append(attrs,
		xml.Attr{Name: xml.Name{Local: "xmlns:xsi"}, Value: NamespaceXSI},
		xml.Attr{Name: xml.Name{Local: "creator"}, Value: meta.Creator},
		xml.Attr{Name: xml.Name{Local: "version"}, Value: gpxVersion},
		xml.Attr{Name: xml.Name{Local: "xsi:schemaLocation"}, Value: strings.Join(locations, " ")},
	)
	return attrs
}

// Write serializes doc as an indented GPX 1.1 document with waypoints first,
// then routes, then tracks.
func Write(w io.Writer, doc *Document) error {
	if err := write(w, doc); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

func write(w io.Writer, doc *Document) error {
	ns := collectNamespaces(doc)
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	if err := enc.EncodeToken(xml.ProcInst{Target: "xml", Inst: []byte(xmlDeclaration)}); err != nil {
		return err
	}
	root := xml.StartElement{Name: xml.Name{Local: "gpx"}, Attr: ns.rootAttrs(doc.Metadata)}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}
	if err := writeMetadata(enc, doc.Metadata); err != nil {
		return err
	}
	for _, wpt := range doc.Waypoints {
		if err := ns.encodeNode(enc, wpt.Node); err != nil {
			return err
		}
	}
	for _, rte := range doc.Routes {
		if err := ns.encodeNode(enc, rte.Node); err != nil {
			return err
		}
	}
	for _, trk := range doc.Tracks {
		if err := ns.encodeTrack(enc, trk); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func writeMetadata(enc *xml.Encoder, meta Metadata) error {
	start := xml.StartElement{Name: xml.Name{Local: "metadata"}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if meta.Name != "" {
		if err := encodeText(enc, xml.Name{Local: "name"}, meta.Name, nil); err != nil {
			return err
		}
	}
	if meta.LinkHref != "" {
		link := xml.StartElement{
			Name: xml.Name{Local: "link"},
			Attr: []xml.Attr{{Name: xml.Name{Local: "href"}, Value: meta.LinkHref}},
		}
		if err := enc.EncodeToken(link); err != nil {
			return err
		}
		if meta.LinkText != "" {
			if err := encodeText(enc, xml.Name{Local: "text"}, meta.LinkText, nil); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(link.End()); err != nil {
			return err
		}
	}
	if !meta.Time.IsZero() {
		if err := encodeText(enc, xml.Name{Local: "time"}, meta.Time.UTC().Format(metadataTime), nil); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func encodeText(enc *xml.Encoder, name xml.Name, text string, attrs []xml.Attr) error {
	start := xml.StartElement{Name: name, Attr: attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if text != "" {
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func (ns *namespaces) encodeNode(enc *xml.Encoder, n Node) error {
	name := ns.qualify(n.Name)
	if len(n.Children) == 0 {
		return encodeText(enc, name, n.Text, ns.attrs(n.Attrs))
	}
	start := xml.StartElement{Name: name, Attr: ns.attrs(n.Attrs)}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if n.Text != "" {
		if err := enc.EncodeToken(xml.CharData(n.Text)); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := ns.encodeNode(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func (ns *namespaces) encodeTrack(enc *xml.Encoder, t Track) error {
	start := xml.StartElement{Name: xml.Name{Local: "trk"}, Attr: ns.attrs(t.Attrs)}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, n := range t.Extra {
		if err := ns.encodeNode(enc, n); err != nil {
			return err
		}
	}
	for _, s := range t.Segments {
		seg := xml.StartElement{Name: xml.Name{Local: "trkseg"}, Attr: ns.attrs(s.Attrs)}
		if err := enc.EncodeToken(seg); err != nil {
			return err
		}
		for _, p := range s.Points {
			if err := ns.encodeNode(enc, p.Node); err != nil {
				return err
			}
		}
		for _, n := range s.Extra {
			if err := ns.encodeNode(enc, n); err != nil {
				return err
			}
		}
		if err := enc.EncodeToken(seg.End()); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// WriteFile writes doc to path through a temporary file in the same
// directory, renamed into place only after everything was written.
func WriteFile(path string, doc *Document) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".gpxmerge-*.gpx")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := write(tmpFile, doc); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := tmpFile.Sync(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := tmpFile.Close(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
