package flow

import (
	"github.com/flowlang-dev/flowlang/pkg/value"
)

// The fixed discriminant key set. Exactly one of these must be present
// among a step's non-modifier keys.
var discriminantKeys = map[string]bool{
	"log":        true,
	"logYaml":    true,
	"throw":      true,
	"return":     true,
	"set":        true,
	"expr":       true,
	"task":       true,
	"script":     true,
	"call":       true,
	"checkpoint": true,
	"suspend":    true,
	"form":       true,
	"if":         true,
	"switch":     true,
	"parallel":   true,
	"block":      true,
	"try":        true,
}

func isDiscriminant(key string) bool { return discriminantKeys[key] }

// buildStep routes the step to its variant builder. Builders re-read
// their own sibling keys from rest; a nil result means the variant failed
// validation and the caller substitutes an InvalidStep.
func (p *parser) buildStep(disc value.Entry, rest []value.Entry, base *StepBase) Step {
	switch disc.Key {
	case "log":
		msg, ok := p.stringValue(disc, "log")
		if !ok {
			return nil
		}
		p.rejectUnknownFields(rest, disc.Key)
		return &LogStep{StepBase: *base, Message: msg}

	case "logYaml":
		p.rejectUnknownFields(rest, disc.Key)
		return &LogYamlStep{StepBase: *base, Value: disc.Value}

	case "throw":
		msg, ok := p.stringValue(disc, "throw")
		if !ok {
			return nil
		}
		p.rejectUnknownFields(rest, disc.Key)
		return &ThrowStep{StepBase: *base, Message: msg}

	case "return":
		// Tolerates both a bare 'return' key and 'return: null'.
		p.rejectUnknownFields(rest, disc.Key)
		return &ReturnStep{StepBase: *base}

	case "set":
		return p.buildSet(disc, rest, base)

	case "expr":
		expr, ok := p.stringValue(disc, "expr")
		if !ok {
			return nil
		}
		p.rejectUnknownFields(rest, disc.Key)
		return &ExprStep{StepBase: *base, Expr: expr}

	case "task":
		name, ok := p.stringValue(disc, "task")
		if !ok {
			return nil
		}
		p.rejectUnknownFields(rest, disc.Key)
		return &TaskStep{StepBase: *base, Task: name}

	case "script":
		return p.buildScript(disc, rest, base)

	case "call":
		target, ok := p.stringValue(disc, "call")
		if !ok {
			return nil
		}
		p.rejectUnknownFields(rest, disc.Key)
		return &CallStep{StepBase: *base, Flow: target}

	case "checkpoint":
		name, ok := p.stringValue(disc, "checkpoint")
		if !ok {
			return nil
		}
		p.rejectUnknownFields(rest, disc.Key)
		return &CheckpointStep{StepBase: *base, Checkpoint: name}

	case "suspend":
		event, ok := p.stringValue(disc, "suspend")
		if !ok {
			return nil
		}
		p.rejectUnknownFields(rest, disc.Key)
		return &SuspendStep{StepBase: *base, Event: event}

	case "form":
		return p.buildForm(disc, rest, base)

	case "if":
		return p.buildIf(disc, rest, base)

	case "switch":
		return p.buildSwitch(disc, rest, base)

	case "parallel":
		body, ok := p.stepSequence(disc, "parallel")
		if !ok {
			return nil
		}
		p.rejectUnknownFields(rest, disc.Key)
		return &ParallelStep{StepBase: *base, Steps: body}

	case "block":
		body, ok := p.stepSequence(disc, "block")
		if !ok {
			return nil
		}
		p.rejectUnknownFields(rest, disc.Key)
		return &BlockStep{StepBase: *base, Steps: body}

	case "try":
		body, ok := p.stepSequence(disc, "try")
		if !ok {
			return nil
		}
		p.rejectUnknownFields(rest, disc.Key)
		return &TryStep{StepBase: *base, Steps: body}
	}

	return nil
}

func (p *parser) buildSet(disc value.Entry, rest []value.Entry, base *StepBase) Step {
	m := value.AsMapping(disc.Value)
	if m == nil {
		p.errorf(KindMalformedField, nodePos(disc),
			"'set' must be a mapping of variable names to expressions, got %s", value.KindName(disc.Value))
		return nil
	}

	vars := make([]SetVar, 0, len(m.Entries))
	for _, e := range m.Entries {
		s := value.AsScalar(e.Value)
		if s == nil {
			p.errorf(KindMalformedField, nodePos(e),
				"set variable '%s' must be a scalar expression, got %s", e.Key, value.KindName(e.Value))
			continue
		}
		vars = append(vars, SetVar{Name: e.Key, Expr: s.StringValue(), Position: e.KeyPos})
	}

	p.rejectUnknownFields(rest, disc.Key)
	return &SetStep{StepBase: *base, Vars: vars}
}

func (p *parser) buildScript(disc value.Entry, rest []value.Entry, base *StepBase) Step {
	lang, ok := p.stringValue(disc, "script")
	if !ok {
		return nil
	}

	var body *value.Scalar
	for _, e := range rest {
		if e.Key != "body" {
			continue
		}
		body = value.AsScalar(e.Value)
		if body == nil || body.IsNull() {
			p.errorf(KindMalformedField, nodePos(e),
				"script 'body' must be text, got %s", value.KindName(e.Value))
			return nil
		}
	}
	if body == nil {
		p.errorf(KindMissingField, nodePos(disc), "script step is missing the 'body' field")
		return nil
	}

	p.rejectUnknownFields(rest, disc.Key, "body")
	return &ScriptStep{StepBase: *base, Language: lang, Body: body.StringValue()}
}

func (p *parser) buildForm(disc value.Entry, rest []value.Entry, base *StepBase) Step {
	name, ok := p.stringValue(disc, "form")
	if !ok {
		return nil
	}

	step := &FormStep{StepBase: *base, Form: name}
	for _, e := range rest {
		switch e.Key {
		case "fields":
			seq := value.AsSequence(e.Value)
			if seq == nil {
				p.errorf(KindMalformedField, nodePos(e),
					"form 'fields' must be a sequence, got %s", value.KindName(e.Value))
				continue
			}
			step.Fields = p.parseFieldList(seq)

		case "values":
			m := value.AsMapping(e.Value)
			if m == nil {
				p.errorf(KindMalformedField, nodePos(e),
					"form 'values' must be a mapping, got %s", value.KindName(e.Value))
				continue
			}
			step.Values = m

		case "runAs":
			m := value.AsMapping(e.Value)
			if m == nil {
				p.errorf(KindMalformedField, nodePos(e),
					"form 'runAs' must be a mapping, got %s", value.KindName(e.Value))
				continue
			}
			step.RunAs = m

		case "yield":
			if b, bok := p.boolValue(e, "yield"); bok {
				step.Yield = b
			}

		case "saveSubmittedBy":
			if b, bok := p.boolValue(e, "saveSubmittedBy"); bok {
				step.SaveSubmittedBy = b
			}
		}
	}

	p.rejectUnknownFields(rest, disc.Key, "fields", "values", "runAs", "yield", "saveSubmittedBy")
	return step
}

func (p *parser) buildIf(disc value.Entry, rest []value.Entry, base *StepBase) Step {
	cond, ok := p.stringValue(disc, "if")
	if !ok {
		return nil
	}

	var thenSteps, elseSteps []Step
	hasThen := false
	for _, e := range rest {
		switch e.Key {
		case "then":
			seq := value.AsSequence(e.Value)
			if seq == nil {
				p.errorf(KindMalformedField, nodePos(e),
					"'then' must be a sequence of steps, got %s", value.KindName(e.Value))
				return nil
			}
			thenSteps = p.parseStepList(seq)
			hasThen = true

		case "else":
			seq := value.AsSequence(e.Value)
			if seq == nil {
				p.errorf(KindMalformedField, nodePos(e),
					"'else' must be a sequence of steps, got %s", value.KindName(e.Value))
				return nil
			}
			elseSteps = p.parseStepList(seq)
		}
	}

	if !hasThen {
		p.errorf(KindMissingField, nodePos(disc), "'if' step is missing the 'then' branch")
		return nil
	}

	p.rejectUnknownFields(rest, disc.Key, "then", "else")
	return &IfStep{StepBase: *base, Condition: cond, Then: thenSteps, Else: elseSteps}
}

func (p *parser) buildSwitch(disc value.Entry, rest []value.Entry, base *StepBase) Step {
	expr, ok := p.stringValue(disc, "switch")
	if !ok {
		return nil
	}

	step := &SwitchStep{StepBase: *base, Expr: expr}

	// Every remaining key is a case label, except the fixed 'default'
	// key. Labels keep their raw source form and source order; duplicates
	// are accepted and resolved by declaration order at evaluation time.
	for _, e := range rest {
		if e.Key == disc.Key {
			continue
		}

		seq := value.AsSequence(e.Value)
		if seq == nil {
			p.errorf(KindMalformedField, nodePos(e),
				"switch branch '%s' must be a sequence of steps, got %s", e.Key, value.KindName(e.Value))
			continue
		}

		if e.Key == "default" {
			step.Default = p.parseStepList(seq)
			continue
		}
		step.Cases = append(step.Cases, SwitchCase{
			Label:    e.Key,
			Position: e.KeyPos,
			Steps:    p.parseStepList(seq),
		})
	}

	if len(step.Cases) == 0 && step.Default == nil {
		p.errorf(KindMissingField, nodePos(disc),
			"'switch' step requires at least one case or a 'default' branch")
		return nil
	}
	return step
}

// stringValue requires a non-null scalar and coerces it to string form.
func (p *parser) stringValue(e value.Entry, field string) (string, bool) {
	s := value.AsScalar(e.Value)
	if s == nil || s.IsNull() {
		p.errorf(KindMalformedField, nodePos(e),
			"'%s' must be a scalar, got %s", field, value.KindName(e.Value))
		return "", false
	}
	return s.StringValue(), true
}

// boolValue requires a boolean scalar.
func (p *parser) boolValue(e value.Entry, field string) (bool, bool) {
	s := value.AsScalar(e.Value)
	if s == nil || s.Type != value.BoolType {
		p.errorf(KindMalformedField, nodePos(e),
			"'%s' must be a boolean, got %s", field, value.KindName(e.Value))
		return false, false
	}
	return s.Bool, true
}

// stepSequence requires a sequence value and parses it as a step list.
func (p *parser) stepSequence(e value.Entry, field string) ([]Step, bool) {
	seq := value.AsSequence(e.Value)
	if seq == nil {
		p.errorf(KindMalformedField, nodePos(e),
			"'%s' must be a sequence of steps, got %s", field, value.KindName(e.Value))
		return nil, false
	}
	return p.parseStepList(seq), true
}

// rejectUnknownFields reports leftover step keys that neither the
// discriminant nor the variant's sibling fields account for. The step is
// still produced; the unknown field alone is the error.
func (p *parser) rejectUnknownFields(rest []value.Entry, disc string, allowed ...string) {
	for _, e := range rest {
		if e.Key == disc {
			continue
		}
		known := false
		for _, a := range allowed {
			if e.Key == a {
				known = true
				break
			}
		}
		if !known {
			p.errorf(KindUnknownField, e.KeyPos, "unexpected '%s' element '%s'", disc, e.Key)
		}
	}
}
