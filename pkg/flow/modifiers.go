package flow

import (
	"github.com/flowlang-dev/flowlang/pkg/value"
)

// The eight cross-cutting modifier keys shared by every step variant.
var modifierKeys = map[string]bool{
	"name":         true,
	"meta":         true,
	"in":           true,
	"out":          true,
	"error":        true,
	"ignoreErrors": true,
	"loop":         true,
	"retry":        true,
}

// extractModifiers pulls the shared modifier keys off a step mapping,
// validating each independently, and returns the remaining entries for
// variant discrimination. ok is false when any modifier failed; the step
// is then invalid, but siblings keep parsing.
func (p *parser) extractModifiers(m *value.Mapping) (base *StepBase, rest []value.Entry, ok bool) {
	base = &StepBase{Position: m.Pos()}
	ok = true

	for _, e := range m.Entries {
		if !modifierKeys[e.Key] {
			rest = append(rest, e)
			continue
		}

		switch e.Key {
		case "name":
			s := value.AsScalar(e.Value)
			if s == nil || s.IsNull() {
				p.malformedModifier(e, "name")
				ok = false
				continue
			}
			base.Name = s.StringValue()

		case "meta":
			mm := value.AsMapping(e.Value)
			if mm == nil {
				p.malformedModifier(e, "meta")
				ok = false
				continue
			}
			base.Meta = mm

		case "in":
			mm := value.AsMapping(e.Value)
			if mm == nil {
				p.malformedModifier(e, "in")
				ok = false
				continue
			}
			base.In = mm

		case "out":
			out, outOK := p.parseOut(e)
			if !outOK {
				ok = false
				continue
			}
			base.Out = out

		case "error":
			seq := value.AsSequence(e.Value)
			if seq == nil {
				p.malformedModifier(e, "error")
				ok = false
				continue
			}
			base.Error = p.parseStepList(seq)

		case "ignoreErrors":
			s := value.AsScalar(e.Value)
			if s == nil || s.Type != value.BoolType {
				p.malformedModifier(e, "ignoreErrors")
				ok = false
				continue
			}
			base.IgnoreErrors = s.Bool

		case "loop":
			lp, loopOK := p.parseLoop(e)
			if !loopOK {
				ok = false
				continue
			}
			base.Loop = lp

		case "retry":
			r, retryOK := p.parseRetry(e)
			if !retryOK {
				ok = false
				continue
			}
			base.Retry = r
		}
	}

	return base, rest, ok
}

func (p *parser) malformedModifier(e value.Entry, field string) {
	p.errorf(KindMalformedModifier, nodePos(e),
		"'%s' modifier has unexpected shape: got %s", field, value.KindName(e.Value))
}

// parseOut accepts the three out shapes: a single binding name, an ordered
// list of names, or an ordered name->expression mapping.
func (p *parser) parseOut(e value.Entry) (*Out, bool) {
	switch v := e.Value.(type) {
	case *value.Scalar:
		if v.IsNull() {
			p.malformedModifier(e, "out")
			return nil, false
		}
		return &Out{Kind: OutSingle, Name: v.StringValue()}, true

	case *value.Sequence:
		names := make([]string, 0, len(v.Items))
		for _, item := range v.Items {
			s := value.AsScalar(item)
			if s == nil || s.IsNull() {
				p.errorf(KindMalformedModifier, item.Pos(),
					"'out' list entries must be scalar binding names, got %s", value.KindName(item))
				return nil, false
			}
			names = append(names, s.StringValue())
		}
		return &Out{Kind: OutList, Names: names}, true

	case *value.Mapping:
		bindings := make([]OutBinding, 0, len(v.Entries))
		for _, be := range v.Entries {
			s := value.AsScalar(be.Value)
			if s == nil || s.IsNull() {
				p.errorf(KindMalformedModifier, nodePos(be),
					"'out' mapping values must be scalar expressions, got %s", value.KindName(be.Value))
				return nil, false
			}
			bindings = append(bindings, OutBinding{Name: be.Key, Expr: s.StringValue()})
		}
		return &Out{Kind: OutMapping, Bindings: bindings}, true
	}

	p.malformedModifier(e, "out")
	return nil, false
}

// parseLoop validates the loop modifier: required 'items' (sequence or
// expression scalar), optional 'mode' (serial|parallel, default serial)
// and 'parallelism' (positive integer).
func (p *parser) parseLoop(e value.Entry) (*Loop, bool) {
	m := value.AsMapping(e.Value)
	if m == nil {
		p.malformedModifier(e, "loop")
		return nil, false
	}

	lp := &Loop{Mode: LoopSerial}
	ok := true
	hasItems := false

	for _, le := range m.Entries {
		switch le.Key {
		case "items":
			switch le.Value.(type) {
			case *value.Sequence:
				lp.Items = le.Value
				hasItems = true
			case *value.Scalar:
				lp.Items = le.Value
				hasItems = true
			default:
				p.malformedModifier(le, "loop.items")
				ok = false
			}

		case "mode":
			s := value.AsScalar(le.Value)
			if s == nil {
				p.malformedModifier(le, "loop.mode")
				ok = false
				continue
			}
			switch s.StringValue() {
			case string(LoopSerial):
				lp.Mode = LoopSerial
			case string(LoopParallel):
				lp.Mode = LoopParallel
			default:
				p.errorf(KindInvalidEnum, nodePos(le),
					"unexpected loop mode %q: only 'serial' and 'parallel' are supported", s.StringValue())
				ok = false
			}

		case "parallelism":
			s := value.AsScalar(le.Value)
			if s == nil || s.Type != value.IntType || s.Int <= 0 {
				p.malformedModifier(le, "loop.parallelism")
				ok = false
				continue
			}
			lp.Parallelism = int(s.Int)

		default:
			p.errorf(KindMalformedModifier, le.KeyPos, "unexpected loop element '%s'", le.Key)
			ok = false
		}
	}

	if !hasItems && ok {
		p.errorf(KindMissingField, nodePos(e), "the 'items' field is required in the loop")
		ok = false
	}

	if !ok {
		return nil, false
	}
	return lp, true
}

// parseRetry validates the retry modifier: optional non-negative 'times'
// and 'delay', optional opaque 'in' override applied on retried attempts.
func (p *parser) parseRetry(e value.Entry) (*Retry, bool) {
	m := value.AsMapping(e.Value)
	if m == nil {
		p.malformedModifier(e, "retry")
		return nil, false
	}

	r := &Retry{}
	ok := true

	for _, re := range m.Entries {
		switch re.Key {
		case "times":
			s := value.AsScalar(re.Value)
			if s == nil || s.Type != value.IntType || s.Int < 0 {
				p.malformedModifier(re, "retry.times")
				ok = false
				continue
			}
			r.Times = int(s.Int)

		case "delay":
			s := value.AsScalar(re.Value)
			switch {
			case s != nil && s.Type == value.IntType && s.Int >= 0:
				r.Delay = float64(s.Int)
			case s != nil && s.Type == value.FloatType && s.Float >= 0:
				r.Delay = s.Float
			default:
				p.malformedModifier(re, "retry.delay")
				ok = false
			}

		case "in":
			mm := value.AsMapping(re.Value)
			if mm == nil {
				p.malformedModifier(re, "retry.in")
				ok = false
				continue
			}
			r.In = mm

		default:
			p.errorf(KindMalformedModifier, re.KeyPos, "unexpected retry element '%s'", re.Key)
			ok = false
		}
	}

	if !ok {
		return nil, false
	}
	return r, true
}

// nodePos prefers the value's own position and falls back to the key's.
func nodePos(e value.Entry) value.Pos {
	if e.Value != nil && e.Value.Pos().Known() {
		return e.Value.Pos()
	}
	return e.KeyPos
}
