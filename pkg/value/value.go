// Package value provides the generic document tree consumed by the flow
// parser: scalars, sequences, and order-preserving mappings, each tagged
// with a source position. The tree is produced by a front end (see
// decode.go for the YAML one) and is never mutated by consumers.
package value

import "fmt"

// Pos is a source position. The zero value means "unknown".
type Pos struct {
	Line int
	Col  int
}

// Known reports whether the position carries real location data.
func (p Pos) Known() bool { return p.Line > 0 }

func (p Pos) String() string {
	if !p.Known() {
		return "?"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// ScalarType identifies the resolved type of a scalar node.
type ScalarType int

// Scalar type constants.
const (
	StringType ScalarType = iota
	IntType
	FloatType
	BoolType
	NullType
)

func (t ScalarType) String() string {
	switch t {
	case StringType:
		return "string"
	case IntType:
		return "int"
	case FloatType:
		return "float"
	case BoolType:
		return "bool"
	case NullType:
		return "null"
	}
	return "unknown"
}

// Node is one node of the document tree: *Scalar, *Sequence or *Mapping.
type Node interface {
	Pos() Pos
	node()
}

// Scalar is a leaf node. Raw always holds the source text form, so callers
// can coerce any scalar to a string without caring about the resolved type.
type Scalar struct {
	Position Pos
	Type     ScalarType
	Raw      string
	Int      int64
	Float    float64
	Bool     bool
}

// Sequence is an ordered list of nodes.
type Sequence struct {
	Position Pos
	Items    []Node
}

// Entry is one key/value pair of a Mapping.
type Entry struct {
	Key    string
	KeyPos Pos
	Value  Node
}

// Mapping is an ordered list of unique-key entries. Order is preserved
// exactly as written; several flow constructs depend on it.
type Mapping struct {
	Position Pos
	Entries  []Entry
}

func (s *Scalar) Pos() Pos { return s.Position }
func (s *Sequence) Pos() Pos { return s.Position }
func (m *Mapping) Pos() Pos { return m.Position }

func (s *Scalar) node() {}
func (s *Sequence) node() {}
func (m *Mapping) node() {}

// IsNull reports whether the scalar is a YAML null.
func (s *Scalar) IsNull() bool { return s.Type == NullType }

// StringValue returns the string form of the scalar. Non-string scalars
// are coerced to their source text.
func (s *Scalar) StringValue() string {
	if s.Type == NullType {
		return ""
	}
	return s.Raw
}

// Get returns the value for key, or nil if the key is absent.
func (m *Mapping) Get(key string) Node {
	for _, e := range m.Entries {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

// Has reports whether the mapping contains key.
func (m *Mapping) Has(key string) bool { return m.Get(key) != nil }

// Keys returns the mapping keys in declaration order.
func (m *Mapping) Keys() []string {
	keys := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		keys[i] = e.Key
	}
	return keys
}

// KindName returns a human-readable name for the node kind, for diagnostics.
func KindName(n Node) string {
	switch v := n.(type) {
	case *Scalar:
		return v.Type.String() + " scalar"
	case *Sequence:
		return "sequence"
	case *Mapping:
		return "mapping"
	case nil:
		return "nothing"
	}
	return "unknown"
}

// AsScalar returns n as a *Scalar, or nil.
func AsScalar(n Node) *Scalar {
	s, _ := n.(*Scalar)
	return s
}

// AsSequence returns n as a *Sequence, or nil.
func AsSequence(n Node) *Sequence {
	s, _ := n.(*Sequence)
	return s
}

// AsMapping returns n as a *Mapping, or nil.
func AsMapping(n Node) *Mapping {
	m, _ := n.(*Mapping)
	return m
}
