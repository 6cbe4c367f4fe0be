// Package flow parses flow-language documents into a typed AST.
//
// The input is a generic value tree (pkg/value) as produced by any
// YAML-shaped front end. Parsing is fail-soft: problems are collected as
// diagnostics and parsing continues with siblings, so one call surfaces
// as many findings as possible.
package flow

import (
	"strings"

	"github.com/flowlang-dev/flowlang/pkg/value"
)

// Document is a parsed flow-language document.
type Document struct {
	Configuration *Configuration
	Flows         []Flow
	Forms         []Form
	PublicFlows   []string
}

// Flow looks up a flow by name. Returns nil if not declared.
func (d *Document) Flow(name string) *Flow {
	for i := range d.Flows {
		if d.Flows[i].Name == name {
			return &d.Flows[i]
		}
	}
	return nil
}

// Form looks up a form by name. Returns nil if not declared.
func (d *Document) Form(name string) *Form {
	for i := range d.Forms {
		if d.Forms[i].Name == name {
			return &d.Forms[i]
		}
	}
	return nil
}

// Flow is a named, ordered program of steps. Step order is execution order
// and is preserved exactly as written.
type Flow struct {
	Name     string
	Position value.Pos
	Steps    []Step
}

// Form is a reusable named set of input field declarations.
type Form struct {
	Name     string
	Position value.Pos
	Fields   []Field
}

// Field is one form field. Type holds the raw descriptor as written
// (e.g. "int+"); BaseType and Required hold the parsed pair. The type
// vocabulary is open-ended, so BaseType is not validated against a fixed
// set. Options keeps the full option mapping for the out-of-scope renderer.
type Field struct {
	Name     string
	Position value.Pos
	Type     string
	BaseType string
	Required bool
	Options  *value.Mapping
}

// splitTypeDescriptor parses a raw field type descriptor into its base
// type and required flag (trailing '+').
func splitTypeDescriptor(raw string) (base string, required bool) {
	if strings.HasSuffix(raw, "+") {
		return strings.TrimSuffix(raw, "+"), true
	}
	return raw, false
}

// Configuration is the document's configuration block, stored opaque.
// Accessors read through well-known keys and report absence or shape
// mismatch via their ok result instead of failing.
type Configuration struct {
	Position value.Pos
	Values   *value.Mapping
}

func (c *Configuration) get(key string) value.Node {
	if c == nil || c.Values == nil {
		return nil
	}
	return c.Values.Get(key)
}

func (c *Configuration) scalar(key string) (string, bool) {
	s := value.AsScalar(c.get(key))
	if s == nil || s.IsNull() {
		return "", false
	}
	return s.StringValue(), true
}

// Runtime returns the configured runtime name.
func (c *Configuration) Runtime() (string, bool) { return c.scalar("runtime") }

// ProcessTimeout returns the configured process timeout, as written.
func (c *Configuration) ProcessTimeout() (string, bool) { return c.scalar("processTimeout") }

// Debug returns the debug toggle.
func (c *Configuration) Debug() (bool, bool) {
	s := value.AsScalar(c.get("debug"))
	if s == nil || s.Type != value.BoolType {
		return false, false
	}
	return s.Bool, true
}

// Dependencies returns the declared dependency list.
func (c *Configuration) Dependencies() ([]string, bool) {
	seq := value.AsSequence(c.get("dependencies"))
	if seq == nil {
		return nil, false
	}
	deps := make([]string, 0, len(seq.Items))
	for _, item := range seq.Items {
		s := value.AsScalar(item)
		if s == nil {
			return nil, false
		}
		deps = append(deps, s.StringValue())
	}
	return deps, true
}

// Arguments returns the default process arguments mapping.
func (c *Configuration) Arguments() (*value.Mapping, bool) {
	m := value.AsMapping(c.get("arguments"))
	return m, m != nil
}

// Requirements returns the agent requirements mapping.
func (c *Configuration) Requirements() (*value.Mapping, bool) {
	m := value.AsMapping(c.get("requirements"))
	return m, m != nil
}
