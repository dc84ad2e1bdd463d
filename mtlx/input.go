package mtlx

import "sort"

// Binding is what an input is bound to: either a Literal or a Connection.
type Binding interface {
	binding()
}

type Literal struct {
	Value Value
}

// Connection references an upstream node. Output selects one output of a
// multi-output node and Channels extracts components from it ("x", "rgb", "a").
type Connection struct {
	NodeName string
	Output   string
	Channels string
}

func (Literal) binding()    {}
func (Connection) binding() {}

// Input is a typed slot of a node. It holds at most one binding, so a
// connected input never carries a stale literal.
type Input struct {
	Name    string
	Type    string
	binding Binding
	attrs   map[string]string
}

func (in *Input) Binding() Binding {
	return in.binding
}

// SetValue binds a literal, dropping any connection.
func (in *Input) SetValue(v Value) {
	if in.Type == "" {
		in.Type = v.Type()
	}
	in.binding = Literal{Value: v}
}

// Connect binds the input to an upstream node, dropping any literal.
func (in *Input) Connect(node *Node, output, channels string) {
	in.binding = Connection{NodeName: node.Name, Output: output, Channels: channels}
}

func (in *Input) Value() (Value, bool) {
	if l, ok := in.binding.(Literal); ok {
		return l.Value, true
	}
	return Value{}, false
}

func (in *Input) Connection() (Connection, bool) {
	c, ok := in.binding.(Connection)
	return c, ok
}

func (in *Input) IsConnected() bool {
	_, ok := in.binding.(Connection)
	return ok
}

func (in *Input) SetAttribute(name, value string) {
	if in.attrs == nil {
		in.attrs = make(map[string]string)
	}
	in.attrs[name] = value
}

func (in *Input) Attribute(name string) string {
	return in.attrs[name]
}

func (in *Input) attributeNames() []string {
	names := make([]string, 0, len(in.attrs))
	for k := range in.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
