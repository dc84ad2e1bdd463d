package mtlx

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	elemRoot           = "materialx"
	elemInput          = "input"
	elemLook           = "look"
	elemMaterialAssign = "materialassign"
)

var errNotMaterialX = errors.New("mtlx: root element is not materialx")

// elements that describe libraries rather than document content
var skippedElements = map[string]bool{
	"nodedef":   true,
	"nodegraph": true,
	"typedef":   true,
	"include":   true,
	"backdrop":  true,
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func attrValue(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// WriteFile writes the document as MaterialX XML.
func (d *Document) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := d.Write(w); err != nil {
		return err
	}
	return w.Flush()
}

func (d *Document) Write(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	version := d.Version
	if version == "" {
		version = DefaultVersion
	}
	root := xml.StartElement{Name: xml.Name{Local: elemRoot}, Attr: []xml.Attr{attr("version", version)}}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}
	for _, n := range d.nodes {
		if err := encodeNode(enc, n); err != nil {
			return err
		}
	}
	for _, l := range d.looks {
		if err := encodeLook(enc, l); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func encodeNode(enc *xml.Encoder, n *Node) error {
	start := xml.StartElement{Name: xml.Name{Local: n.Category}}
	start.Attr = append(start.Attr, attr("name", n.Name), attr("type", n.Type))
	if n.NodeDef != "" {
		start.Attr = append(start.Attr, attr("nodedef", n.NodeDef))
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, in := range n.inputs {
		if err := encodeInput(enc, in); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func encodeInput(enc *xml.Encoder, in *Input) error {
	start := xml.StartElement{Name: xml.Name{Local: elemInput}}
	start.Attr = append(start.Attr, attr("name", in.Name), attr("type", in.Type))
	switch b := in.binding.(type) {
	case Literal:
		start.Attr = append(start.Attr, attr("value", b.Value.String()))
	case Connection:
		start.Attr = append(start.Attr, attr("nodename", b.NodeName))
		if b.Output != "" {
			start.Attr = append(start.Attr, attr("output", b.Output))
		}
		if b.Channels != "" {
			start.Attr = append(start.Attr, attr("channels", b.Channels))
		}
	}
	for _, k := range in.attributeNames() {
		start.Attr = append(start.Attr, attr(k, in.attrs[k]))
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}

func encodeLook(enc *xml.Encoder, l *Look) error {
	start := xml.StartElement{Name: xml.Name{Local: elemLook}, Attr: []xml.Attr{attr("name", l.Name)}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, ma := range l.assigns {
		el := xml.StartElement{Name: xml.Name{Local: elemMaterialAssign}, Attr: []xml.Attr{
			attr("name", ma.Name),
			attr("material", ma.Material),
			attr("geom", ma.Geom),
		}}
		if err := enc.EncodeToken(el); err != nil {
			return err
		}
		if err := enc.EncodeToken(el.End()); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("mtlx: read %s: %w", path, err)
	}
	return doc, nil
}

// Read parses a MaterialX document. Library elements (node definitions, node
// graphs) are skipped. An input carrying both a value and a nodename keeps the
// connection.
func Read(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	var root *xml.StartElement
	for root == nil {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil, errNotMaterialX
			}
			return nil, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local != elemRoot {
				return nil, errNotMaterialX
			}
			root = &se
		}
	}

	doc := NewDocument()
	if v := attrValue(root.Attr, "version"); v != "" {
		doc.Version = v
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return doc, nil
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case skippedElements[t.Name.Local]:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			case t.Name.Local == elemLook:
				if err := decodeLook(dec, doc, t); err != nil {
					return nil, err
				}
			default:
				if err := decodeNode(dec, doc, t); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			return doc, nil
		}
	}
}

func decodeNode(dec *xml.Decoder, doc *Document, start xml.StartElement) error {
	n := doc.AddNode(start.Name.Local, attrValue(start.Attr, "name"), attrValue(start.Attr, "type"))
	n.NodeDef = attrValue(start.Attr, "nodedef")
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != elemInput {
				if err := dec.Skip(); err != nil {
					return err
				}
				continue
			}
			if err := decodeInput(n, t); err != nil {
				return err
			}
			if err := dec.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func decodeInput(n *Node, start xml.StartElement) error {
	in := n.AddInput(attrValue(start.Attr, "name"), attrValue(start.Attr, "type"))
	var value, nodeName, output, channels string
	var hasValue bool
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "name", "type":
		case "value":
			value, hasValue = a.Value, true
		case "nodename":
			nodeName = a.Value
		case "output":
			output = a.Value
		case "channels":
			channels = a.Value
		default:
			in.SetAttribute(a.Name.Local, a.Value)
		}
	}
	if nodeName != "" {
		in.binding = Connection{NodeName: nodeName, Output: output, Channels: channels}
		return nil
	}
	if hasValue {
		v, err := ParseValue(in.Type, value)
		switch {
		case errors.Is(err, errValueType):
			// keep types this package does not model as opaque text
			in.binding = Literal{Value: Value{typ: in.Type, str: value}}
		case err != nil:
			return fmt.Errorf("input %s.%s: %w", n.Name, in.Name, err)
		default:
			in.SetValue(v)
		}
	}
	return nil
}

func decodeLook(dec *xml.Decoder, doc *Document, start xml.StartElement) error {
	l := doc.AddLook(attrValue(start.Attr, "name"))
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == elemMaterialAssign {
				ma := l.AddMaterialAssign(attrValue(t.Attr, "name"), attrValue(t.Attr, "material"))
				ma.Geom = attrValue(t.Attr, "geom")
			}
			if err := dec.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}
