package value

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DecodeError is a front-end decoding failure (bad YAML, duplicate keys).
type DecodeError struct {
	Position Pos
	Message  string
}

func (e *DecodeError) Error() string {
	if e.Position.Known() {
		return fmt.Sprintf("%s: %s", e.Position, e.Message)
	}
	return e.Message
}

// Decode parses a single YAML document into a value tree.
func Decode(data []byte) (Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &DecodeError{Message: err.Error()}
	}
	if root.Kind == 0 {
		// Empty input decodes to nothing at all; treat it as null.
		return &Scalar{Type: NullType}, nil
	}
	return FromYAML(&root)
}

// DecodeAll parses a multi-document YAML stream into one tree per document.
func DecodeAll(data []byte) ([]Node, error) {
	var nodes []Node
	// yaml.Unmarshal only surfaces the first document; re-split on the
	// decoder to get the rest.
	dec := newDocumentDecoder(data)
	for {
		doc, err := dec.next()
		if err != nil {
			return nodes, err
		}
		if doc == nil {
			return nodes, nil
		}
		nodes = append(nodes, doc)
	}
}

type documentDecoder struct {
	dec *yaml.Decoder
}

func newDocumentDecoder(data []byte) *documentDecoder {
	return &documentDecoder{dec: yaml.NewDecoder(bytes.NewReader(data))}
}

func (d *documentDecoder) next() (Node, error) {
	var n yaml.Node
	if err := d.dec.Decode(&n); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &DecodeError{Message: err.Error()}
	}
	return FromYAML(&n)
}

// FromYAML converts a decoded yaml.Node into a value tree. Aliases are
// resolved in place; duplicate mapping keys are rejected.
func FromYAML(n *yaml.Node) (Node, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return &Scalar{Position: posOf(n), Type: NullType}, nil
		}
		return FromYAML(n.Content[0])

	case yaml.AliasNode:
		return FromYAML(n.Alias)

	case yaml.ScalarNode:
		return scalarFromYAML(n), nil

	case yaml.SequenceNode:
		seq := &Sequence{Position: posOf(n)}
		for _, item := range n.Content {
			child, err := FromYAML(item)
			if err != nil {
				return nil, err
			}
			seq.Items = append(seq.Items, child)
		}
		return seq, nil

	case yaml.MappingNode:
		m := &Mapping{Position: posOf(n)}
		seen := make(map[string]bool)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode := n.Content[i]
			if keyNode.Kind == yaml.AliasNode {
				keyNode = keyNode.Alias
			}
			key := keyNode.Value
			if seen[key] {
				return nil, &DecodeError{
					Position: posOf(keyNode),
					Message:  fmt.Sprintf("duplicate mapping key %q", key),
				}
			}
			seen[key] = true
			child, err := FromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Entries = append(m.Entries, Entry{
				Key:    key,
				KeyPos: posOf(keyNode),
				Value:  child,
			})
		}
		return m, nil
	}

	return nil, &DecodeError{
		Position: posOf(n),
		Message:  fmt.Sprintf("unsupported node kind %d", n.Kind),
	}
}

func scalarFromYAML(n *yaml.Node) *Scalar {
	s := &Scalar{Position: posOf(n), Raw: n.Value}

	switch n.Tag {
	case "!!null":
		s.Type = NullType
	case "!!bool":
		s.Type = BoolType
		s.Bool = n.Value == "true" || n.Value == "True" || n.Value == "TRUE"
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			s.Type = IntType
			s.Int = i
		} else {
			s.Type = StringType
		}
	case "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			s.Type = FloatType
			s.Float = f
		} else {
			s.Type = StringType
		}
	default:
		s.Type = StringType
	}

	return s
}

func posOf(n *yaml.Node) Pos {
	return Pos{Line: n.Line, Col: n.Column}
}
