package mtlx

// Node is a shading node: a category (gltf_pbr, tiledimage, ...), a unique name
// within its document, an output type and an ordered list of inputs.
type Node struct {
	Category string
	Name     string
	Type     string
	NodeDef  string

	inputs []*Input
	doc    *Document
}

func (n *Node) Document() *Document {
	return n.doc
}

func (n *Node) Inputs() []*Input {
	return n.inputs
}

func (n *Node) Input(name string) *Input {
	for _, in := range n.inputs {
		if in.Name == name {
			return in
		}
	}
	return nil
}

// AddInput returns the named input, creating it when missing.
func (n *Node) AddInput(name, typ string) *Input {
	if in := n.Input(name); in != nil {
		if typ != "" {
			in.Type = typ
		}
		return in
	}
	in := &Input{Name: name, Type: typ}
	n.inputs = append(n.inputs, in)
	return in
}

// Definition resolves the node definition from the nodedef attribute, falling
// back to a match on category and type.
func (n *Node) Definition() *NodeDef {
	if n.NodeDef != "" {
		if def := LookupNodeDef(n.NodeDef); def != nil {
			return def
		}
	}
	return MatchNodeDef(n.Category, n.Type)
}

// AddInputFromNodeDef adds the named input with the type and default value of
// the node definition. It returns nil when the definition has no such input.
func (n *Node) AddInputFromNodeDef(name string) *Input {
	if in := n.Input(name); in != nil {
		return in
	}
	def := n.Definition()
	if def == nil {
		return nil
	}
	idef := def.Input(name)
	if idef == nil {
		return nil
	}
	in := n.AddInput(idef.Name, idef.Type)
	if !idef.Default.IsZero() {
		in.SetValue(idef.Default)
	}
	return in
}

// AddInputsFromNodeDef adds every input of the node definition.
func (n *Node) AddInputsFromNodeDef() {
	def := n.Definition()
	if def == nil {
		return
	}
	for _, idef := range def.Inputs {
		n.AddInputFromNodeDef(idef.Name)
	}
}

// InputValue returns the literal bound to the input, or the definition default
// when the input is absent.
func (n *Node) InputValue(name string) (Value, bool) {
	if in := n.Input(name); in != nil {
		return in.Value()
	}
	if def := n.Definition(); def != nil {
		if idef := def.Input(name); idef != nil && !idef.Default.IsZero() {
			return idef.Default, true
		}
	}
	return Value{}, false
}

// ConnectedNode returns the upstream node of the named input.
func (n *Node) ConnectedNode(name string) *Node {
	in := n.Input(name)
	if in == nil || n.doc == nil {
		return nil
	}
	c, ok := in.Connection()
	if !ok {
		return nil
	}
	return n.doc.Node(c.NodeName)
}

// NamePath is the node's path from the document root.
func (n *Node) NamePath() string {
	return n.Name
}
