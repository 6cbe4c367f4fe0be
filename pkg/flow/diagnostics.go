package flow

import (
	"fmt"

	"github.com/flowlang-dev/flowlang/pkg/value"
)

// Severity classifies a diagnostic.
type Severity int

// Severity levels.
const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Kind is the machine-readable diagnostic tag.
type Kind string

// Diagnostic kinds. MalformedField and UnknownField extend the base
// taxonomy for wrong-shaped variant fields and leftover step keys.
const (
	KindMalformedStep       Kind = "MalformedStep"
	KindMissingDiscriminant Kind = "MissingDiscriminant"
	KindAmbiguousStep       Kind = "AmbiguousStep"
	KindMalformedModifier   Kind = "MalformedModifier"
	KindInvalidEnum         Kind = "InvalidEnum"
	KindMissingField        Kind = "MissingField"
	KindMalformedField      Kind = "MalformedField"
	KindUnknownField        Kind = "UnknownField"
	KindDanglingReference   Kind = "DanglingReference"
	KindNestingTooDeep      Kind = "NestingTooDeep"
	KindUnknownTopLevelKey  Kind = "UnknownTopLevelKey"
)

// Diagnostic is a structured, non-fatal record of a parse problem.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Message  string
	Position value.Pos
}

func (d Diagnostic) String() string {
	if d.Position.Known() {
		return fmt.Sprintf("%s: %s: %s", d.Position, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Diagnostics is an ordered list of findings from one parse.
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic is error-severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity diagnostics.
func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}
