// Package mtlx is a small MaterialX document model: nodes with typed inputs,
// looks with material assignments, a built-in set of node definitions for the
// glTF shading nodes, and XML reading and writing.
package mtlx

import (
	"strconv"
	"strings"
)

const DefaultVersion = "1.38"

type Document struct {
	Version string

	nodes []*Node
	looks []*Look
	names map[string]bool
}

func NewDocument() *Document {
	return &Document{Version: DefaultVersion, names: make(map[string]bool)}
}

func (d *Document) Nodes() []*Node {
	return d.nodes
}

func (d *Document) Node(name string) *Node {
	for _, n := range d.nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// AddNode appends a node. An empty or taken name is replaced by a valid unique one.
func (d *Document) AddNode(category, name, typ string) *Node {
	if name == "" {
		name = category + "1"
	}
	if d.names[name] || CreateValidName(name) != name {
		name = d.CreateValidChildName(name)
	}
	n := &Node{Category: category, Name: name, Type: typ, doc: d}
	d.nodes = append(d.nodes, n)
	d.names[name] = true
	return n
}

func (d *Document) RemoveNode(name string) {
	for i, n := range d.nodes {
		if n.Name == name {
			d.nodes = append(d.nodes[:i], d.nodes[i+1:]...)
			delete(d.names, name)
			n.doc = nil
			return
		}
	}
}

// CreateValidChildName sanitises name and increments its numeric suffix until
// no child of the document uses it.
func (d *Document) CreateValidChildName(name string) string {
	name = CreateValidName(name)
	if name == "" {
		name = "_"
	}
	for d.names[name] {
		name = incrementName(name)
	}
	return name
}

// MaterialNodes returns the nodes of material type in document order.
func (d *Document) MaterialNodes() []*Node {
	var out []*Node
	for _, n := range d.nodes {
		if n.Type == TypeMaterial {
			out = append(out, n)
		}
	}
	return out
}

// ShaderNodes returns the shader nodes bound to a material node's inputs.
func (d *Document) ShaderNodes(material *Node) []*Node {
	var out []*Node
	for _, in := range material.inputs {
		if in.Type != TypeSurfaceShader {
			continue
		}
		if n := material.ConnectedNode(in.Name); n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (d *Document) Looks() []*Look {
	return d.looks
}

func (d *Document) AddLook(name string) *Look {
	if name == "" {
		name = "look1"
	}
	name = d.CreateValidChildName(name)
	l := &Look{Name: name}
	d.looks = append(d.looks, l)
	d.names[name] = true
	return l
}

type Look struct {
	Name    string
	assigns []*MaterialAssign
}

// MaterialAssign binds a material to a geometry expression: one path or a
// comma separated list of paths.
type MaterialAssign struct {
	Name     string
	Material string
	Geom     string
}

func (l *Look) MaterialAssigns() []*MaterialAssign {
	return l.assigns
}

func (l *Look) AddMaterialAssign(name, material string) *MaterialAssign {
	if name == "" {
		name = "materialassign1"
	}
	for l.hasAssign(name) {
		name = incrementName(name)
	}
	ma := &MaterialAssign{Name: name, Material: material}
	l.assigns = append(l.assigns, ma)
	return ma
}

func (l *Look) hasAssign(name string) bool {
	for _, ma := range l.assigns {
		if ma.Name == name {
			return true
		}
	}
	return false
}

// CreateValidName replaces every character that is not an ASCII letter, digit
// or underscore with an underscore.
func CreateValidName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, name)
}

// incrementName bumps a trailing integer: "img" -> "img2", "img2" -> "img3".
func incrementName(name string) string {
	split := len(name)
	for split > 0 && name[split-1] >= '0' && name[split-1] <= '9' {
		split--
	}
	if split < len(name) {
		if n, err := strconv.Atoi(name[split:]); err == nil {
			return name[:split] + strconv.Itoa(n+1)
		}
	}
	return name + "2"
}
