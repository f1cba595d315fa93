package gpx

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Node is an XML element carried through a merge without interpretation.
// Element names hold the resolved namespace URI in Name.Space.
type Node struct {
	Name     xml.Name
	Attrs    []xml.Attr
	Text     string
	Children []Node
}

// Child returns the first GPX-namespace child with the given local name.
func (n Node) Child(local string) (Node, bool) {
	for _, c := range n.Children {
		if c.Name.Space == NamespaceGPX && c.Name.Local == local {
			return c, true
		}
	}
	return Node{}, false
}

// ChildText returns the trimmed text of the named child, or "" when absent.
func (n Node) ChildText(local string) string {
	c, ok := n.Child(local)
	if !ok {
		return ""
	}
	return strings.TrimSpace(c.Text)
}

func (n Node) is(local string) bool {
	return n.Name.Space == NamespaceGPX && n.Name.Local == local
}

// decodeRoot reads a whole document and returns its root element.
func decodeRoot(r io.Reader) (Node, error) {
	dec := xml.NewDecoder(r)
	var root Node
	found := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Node{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if found {
				return Node{}, fmt.Errorf("unexpected second root element <%s>", t.Name.Local)
			}
			root, err = decodeElement(dec, t)
			if err != nil {
				return Node{}, err
			}
			found = true
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return Node{}, fmt.Errorf("unexpected text outside the root element")
			}
		}
	}
	if !found {
		return Node{}, fmt.Errorf("missing root element")
	}
	return root, nil
}

func decodeElement(dec *xml.Decoder, start xml.StartElement) (Node, error) {
	n := Node{Name: start.Name, Attrs: payloadAttrs(start.Attr)}
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return Node{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec, t)
			if err != nil {
				return Node{}, err
			}
			n.Children = append(n.Children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(n.Children) > 0 {
				n.Text = strings.TrimSpace(text.String())
			} else {
				n.Text = text.String()
			}
			return n, nil
		}
	}
}

// payloadAttrs drops namespace declarations; the writer declares its own.
func payloadAttrs(attrs []xml.Attr) []xml.Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]xml.Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalize moves elements of the document's base namespace (GPX 1.0,
// GPX 1.1 or none) into the GPX 1.1 namespace.
func normalize(n *Node, base string) {
	if n.Name.Space == base || n.Name.Space == "" {
		n.Name.Space = NamespaceGPX
	}
	for i := range n.Children {
		normalize(&n.Children[i], base)
	}
}

// withName returns a copy of children whose GPX <name> holds name. A missing
// <name> is inserted after the leading elements the schema orders before it.
func withName(children []Node, name string, leading ...string) []Node {
	out := make([]Node, 0, len(children)+1)
	out = append(out, children...)
	nameNode := Node{Name: xml.Name{Space: NamespaceGPX, Local: "name"}, Text: name}
	for i, c := range out {
		if c.is("name") {
			nameNode.Attrs = c.Attrs
			out[i] = nameNode
			return out
		}
	}
	pos := 0
	for pos < len(out) && isAny(out[pos], leading) {
		pos++
	}
	out = append(out, Node{})
	copy(out[pos+1:], out[pos:])
	out[pos] = nameNode
	return out
}

func isAny(n Node, locals []string) bool {
	for _, l := range locals {
		if n.is(l) {
			return true
		}
	}
	return false
}
