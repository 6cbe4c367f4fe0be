package flow

import (
	"fmt"
	"strings"

	"github.com/flowlang-dev/flowlang/pkg/value"
)

// DefaultMaxDepth bounds step-sequence nesting. Inputs nested deeper are
// rejected with a NestingTooDeep diagnostic instead of growing the stack.
const DefaultMaxDepth = 128

// Option configures a parse.
type Option func(*parser)

// WithMaxDepth overrides the nesting guard.
func WithMaxDepth(n int) Option {
	return func(p *parser) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// Parse converts a value tree into a Document plus the ordered list of
// diagnostics found along the way. Parsing is best-effort: when errors
// exist the Document covers everything that did parse, with unparsable
// steps represented as InvalidStep placeholders. Parse keeps no state
// between invocations and is safe to call concurrently.
func Parse(root value.Node, opts ...Option) (*Document, Diagnostics) {
	p := &parser{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	doc := p.parseDocument(root)
	return doc, p.diags
}

type parser struct {
	diags    Diagnostics
	maxDepth int
	depth    int
}

func (p *parser) errorf(kind Kind, pos value.Pos, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{
		Severity: SeverityError,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Position: pos,
	})
}

func (p *parser) warnf(kind Kind, pos value.Pos, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{
		Severity: SeverityWarning,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Position: pos,
	})
}

func (p *parser) parseDocument(root value.Node) *Document {
	doc := &Document{}

	if s := value.AsScalar(root); s != nil && s.IsNull() {
		return doc
	}
	m := value.AsMapping(root)
	if m == nil {
		pos := value.Pos{}
		if root != nil {
			pos = root.Pos()
		}
		p.errorf(KindMalformedField, pos,
			"document root must be a mapping, got %s", value.KindName(root))
		return doc
	}

	var publicFlowsEntry *value.Entry
	for i := range m.Entries {
		e := m.Entries[i]
		switch e.Key {
		case "configuration":
			cm := value.AsMapping(e.Value)
			if cm == nil {
				p.errorf(KindMalformedField, nodePos(e),
					"'configuration' must be a mapping, got %s", value.KindName(e.Value))
				continue
			}
			doc.Configuration = &Configuration{Position: e.Value.Pos(), Values: cm}

		case "flows":
			p.parseFlows(e, doc)

		case "forms":
			p.parseForms(e, doc)

		case "publicFlows":
			publicFlowsEntry = &m.Entries[i]
			p.parsePublicFlows(e, doc)

		default:
			p.warnf(KindUnknownTopLevelKey, e.KeyPos, "unknown top-level key '%s'", e.Key)
		}
	}

	// publicFlows may precede flows in the source, so cross-check last.
	if publicFlowsEntry != nil {
		for _, name := range doc.PublicFlows {
			if doc.Flow(name) == nil {
				p.warnf(KindDanglingReference, nodePos(*publicFlowsEntry),
					"publicFlows references undeclared flow '%s'", name)
			}
		}
	}

	return doc
}

func (p *parser) parseFlows(e value.Entry, doc *Document) {
	m := value.AsMapping(e.Value)
	if m == nil {
		p.errorf(KindMalformedField, nodePos(e),
			"'flows' must be a mapping of flow name to step sequence, got %s", value.KindName(e.Value))
		return
	}

	for _, fe := range m.Entries {
		seq := value.AsSequence(fe.Value)
		if seq == nil {
			// The flow is omitted; its steps never existed.
			p.errorf(KindMalformedField, nodePos(fe),
				"flow '%s' must be a sequence of steps, got %s", fe.Key, value.KindName(fe.Value))
			continue
		}
		doc.Flows = append(doc.Flows, Flow{
			Name:     fe.Key,
			Position: fe.KeyPos,
			Steps:    p.parseStepList(seq),
		})
	}
}

func (p *parser) parseForms(e value.Entry, doc *Document) {
	m := value.AsMapping(e.Value)
	if m == nil {
		p.errorf(KindMalformedField, nodePos(e),
			"'forms' must be a mapping of form name to field list, got %s", value.KindName(e.Value))
		return
	}

	for _, fe := range m.Entries {
		seq := value.AsSequence(fe.Value)
		if seq == nil {
			p.errorf(KindMalformedField, nodePos(fe),
				"form '%s' must be a sequence of fields, got %s", fe.Key, value.KindName(fe.Value))
			continue
		}
		doc.Forms = append(doc.Forms, Form{
			Name:     fe.Key,
			Position: fe.KeyPos,
			Fields:   p.parseFieldList(seq),
		})
	}
}

func (p *parser) parsePublicFlows(e value.Entry, doc *Document) {
	seq := value.AsSequence(e.Value)
	if seq == nil {
		p.errorf(KindMalformedField, nodePos(e),
			"'publicFlows' must be a sequence of flow names, got %s", value.KindName(e.Value))
		return
	}

	for _, item := range seq.Items {
		s := value.AsScalar(item)
		if s == nil || s.IsNull() {
			p.errorf(KindMalformedField, item.Pos(),
				"'publicFlows' entries must be flow names, got %s", value.KindName(item))
			continue
		}
		doc.PublicFlows = append(doc.PublicFlows, s.StringValue())
	}
}

// parseFieldList parses a sequence of form field declarations. Each item
// is a single-entry mapping of field name to an option mapping; the two
// equivalent source encodings land on this same shape.
func (p *parser) parseFieldList(seq *value.Sequence) []Field {
	fields := make([]Field, 0, len(seq.Items))
	for _, item := range seq.Items {
		if f, ok := p.parseField(item); ok {
			fields = append(fields, f)
		}
	}
	return fields
}

func (p *parser) parseField(item value.Node) (Field, bool) {
	m := value.AsMapping(item)
	if m == nil || len(m.Entries) != 1 {
		p.errorf(KindMalformedField, item.Pos(),
			"form field must be a single-entry mapping of name to options, got %s", value.KindName(item))
		return Field{}, false
	}

	e := m.Entries[0]
	opts := value.AsMapping(e.Value)
	if opts == nil {
		p.errorf(KindMalformedField, nodePos(e),
			"options of field '%s' must be a mapping, got %s", e.Key, value.KindName(e.Value))
		return Field{}, false
	}

	typ := value.AsScalar(opts.Get("type"))
	if typ == nil || typ.IsNull() {
		p.errorf(KindMissingField, nodePos(e), "field '%s' is missing the 'type' descriptor", e.Key)
		return Field{}, false
	}

	raw := typ.StringValue()
	base, required := splitTypeDescriptor(raw)
	return Field{
		Name:     e.Key,
		Position: e.KeyPos,
		Type:     raw,
		BaseType: base,
		Required: required,
		Options:  opts,
	}, true
}

// parseStepList is the single recursive entry point for every nested step
// sequence: flow bodies, then/else branches, switch cases and defaults,
// parallel/block/try bodies and error handlers. Non-mapping elements are
// reported and skipped; siblings keep parsing.
func (p *parser) parseStepList(seq *value.Sequence) []Step {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > p.maxDepth {
		p.errorf(KindNestingTooDeep, seq.Pos(),
			"step nesting exceeds the maximum depth of %d", p.maxDepth)
		return nil
	}

	steps := make([]Step, 0, len(seq.Items))
	for _, item := range seq.Items {
		m := value.AsMapping(item)
		if m == nil {
			p.errorf(KindMalformedStep, item.Pos(),
				"step must be a mapping, got %s", value.KindName(item))
			continue
		}
		steps = append(steps, p.parseStep(m))
	}
	return steps
}

// parseStep extracts the shared modifiers, identifies exactly one
// discriminant key among the remaining entries, and routes to the variant
// builder. Failures produce an InvalidStep placeholder.
func (p *parser) parseStep(m *value.Mapping) Step {
	base, rest, modsOK := p.extractModifiers(m)

	var discs []value.Entry
	for _, e := range rest {
		if isDiscriminant(e.Key) {
			discs = append(discs, e)
		}
	}

	switch {
	case len(discs) == 0:
		p.errorf(KindMissingDiscriminant, m.Pos(), "step has no discriminant key")
		return &InvalidStep{StepBase: *base, Reason: "no discriminant key"}

	case len(discs) > 1:
		keys := make([]string, len(discs))
		for i, d := range discs {
			keys[i] = d.Key
		}
		joined := strings.Join(keys, ", ")
		p.errorf(KindAmbiguousStep, m.Pos(), "ambiguous step: conflicting discriminant keys %s", joined)
		return &InvalidStep{StepBase: *base, Reason: "conflicting discriminant keys: " + joined}
	}

	disc := discs[0]
	if !modsOK {
		return &InvalidStep{StepBase: *base, Reason: "malformed modifier on '" + disc.Key + "' step"}
	}

	step := p.buildStep(disc, rest, base)
	if step == nil {
		return &InvalidStep{StepBase: *base, Reason: "malformed '" + disc.Key + "' step"}
	}
	return step
}
