package flow

import (
	"fmt"

	"github.com/flowlang-dev/flowlang/pkg/value"
)

// StepKind identifies a step variant.
type StepKind string

// Step kind constants. Each matches the discriminant key that selects the
// variant, except StepInvalid which marks steps that failed to parse.
const (
	StepLog        StepKind = "log"
	StepLogYaml    StepKind = "logYaml"
	StepThrow      StepKind = "throw"
	StepReturn     StepKind = "return"
	StepSet        StepKind = "set"
	StepExpr       StepKind = "expr"
	StepTask       StepKind = "task"
	StepScript     StepKind = "script"
	StepCall       StepKind = "call"
	StepCheckpoint StepKind = "checkpoint"
	StepSuspend    StepKind = "suspend"
	StepForm       StepKind = "form"
	StepIf         StepKind = "if"
	StepSwitch     StepKind = "switch"
	StepParallel   StepKind = "parallel"
	StepBlock      StepKind = "block"
	StepTry        StepKind = "try"
	StepInvalid    StepKind = "invalid"
)

// Step is the interface for all flow steps. Exactly one variant struct
// backs every step; the shared modifiers live on StepBase.
type Step interface {
	Kind() StepKind
	Base() *StepBase
	Describe() string
}

// OutKind distinguishes the three accepted shapes of the 'out' modifier.
type OutKind int

// Out shapes.
const (
	OutSingle OutKind = iota
	OutList
	OutMapping
)

// OutBinding is one name->expression pair of a mapping-shaped 'out'.
type OutBinding struct {
	Name string
	Expr string
}

// Out is a step's output binding: a single name, an ordered name list, or
// an ordered name->expression mapping.
type Out struct {
	Kind     OutKind
	Name     string       // OutSingle
	Names    []string     // OutList
	Bindings []OutBinding // OutMapping, source order
}

// LoopMode selects serial or parallel iteration.
type LoopMode string

// Loop modes.
const (
	LoopSerial   LoopMode = "serial"
	LoopParallel LoopMode = "parallel"
)

// Loop describes the 'loop' modifier. Items is either a literal sequence
// or an expression scalar, stored opaque. Parallelism 0 means unbounded.
type Loop struct {
	Items       value.Node
	Mode        LoopMode
	Parallelism int
}

// Retry describes the 'retry' modifier. In, when present, overrides the
// step's input on retried attempts only.
type Retry struct {
	Times int
	Delay float64
	In    *value.Mapping
}

// StepBase holds the cross-cutting modifiers shared by every variant.
type StepBase struct {
	Position     value.Pos
	Name         string
	Meta         *value.Mapping
	In           *value.Mapping
	Out          *Out
	Error        []Step
	IgnoreErrors bool
	Loop         *Loop
	Retry        *Retry
}

// Base returns the shared modifier record.
func (b *StepBase) Base() *StepBase { return b }

// Pos returns the step's source position.
func (b *StepBase) Pos() value.Pos { return b.Position }

// LogStep logs an interpolated message.
type LogStep struct {
	StepBase
	Message string
}

// LogYamlStep logs an arbitrary value rendered as YAML. The value is
// recorded, not interpreted.
type LogYamlStep struct {
	StepBase
	Value value.Node
}

// ThrowStep raises an error with the given message or expression.
type ThrowStep struct {
	StepBase
	Message string
}

// ReturnStep stops the current flow.
type ReturnStep struct {
	StepBase
}

// SetVar is one variable assignment of a 'set' step.
type SetVar struct {
	Name     string
	Expr     string
	Position value.Pos
}

// SetStep assigns variables in declaration order.
type SetStep struct {
	StepBase
	Vars []SetVar
}

// ExprStep evaluates a bare expression.
type ExprStep struct {
	StepBase
	Expr string
}

// TaskStep invokes an external task. The name may itself be an expression.
type TaskStep struct {
	StepBase
	Task string
}

// ScriptStep runs an inline script. Language is the language tag or an
// external script reference; Body is the inline source text.
type ScriptStep struct {
	StepBase
	Language string
	Body     string
}

// CallStep invokes another flow by name.
type CallStep struct {
	StepBase
	Flow string
}

// CheckpointStep records a named checkpoint.
type CheckpointStep struct {
	StepBase
	Checkpoint string
}

// SuspendStep suspends the process until the named event is delivered.
type SuspendStep struct {
	StepBase
	Event string
}

// FormStep presents a form and collects its values.
type FormStep struct {
	StepBase
	Form            string
	Fields          []Field // per-call field overrides, declaration order
	Values          *value.Mapping
	RunAs           *value.Mapping
	Yield           bool
	SaveSubmittedBy bool
}

// IfStep branches on a condition. Else is nil when no else branch was
// written; an empty written branch parses to an empty non-nil slice.
type IfStep struct {
	StepBase
	Condition string
	Then      []Step
	Else      []Step
}

// SwitchCase is one case of a switch step. The label is kept as the raw
// source string; it may be a literal or an expression.
type SwitchCase struct {
	Label    string
	Position value.Pos
	Steps    []Step
}

// SwitchStep branches on a discriminant expression. Cases preserve source
// order; the fixed 'default' key is never a case label. Default is nil
// when no default branch was written.
type SwitchStep struct {
	StepBase
	Expr    string
	Cases   []SwitchCase
	Default []Step
}

// ParallelStep runs its body concurrently.
type ParallelStep struct {
	StepBase
	Steps []Step
}

// BlockStep groups steps into one unit, e.g. to loop or retry them
// together.
type BlockStep struct {
	StepBase
	Steps []Step
}

// TryStep groups steps for error handling.
type TryStep struct {
	StepBase
	Steps []Step
}

// InvalidStep is the placeholder for a step that failed to parse. It lets
// consumers distinguish "flow with zero steps" from "flow with unparsable
// steps"; the matching diagnostics carry the details.
type InvalidStep struct {
	StepBase
	Reason string
}

func (s *LogStep) Kind() StepKind { return StepLog }
func (s *LogYamlStep) Kind() StepKind { return StepLogYaml }
func (s *ThrowStep) Kind() StepKind { return StepThrow }
func (s *ReturnStep) Kind() StepKind { return StepReturn }
func (s *SetStep) Kind() StepKind { return StepSet }
func (s *ExprStep) Kind() StepKind { return StepExpr }
func (s *TaskStep) Kind() StepKind { return StepTask }
func (s *ScriptStep) Kind() StepKind { return StepScript }
func (s *CallStep) Kind() StepKind { return StepCall }
func (s *CheckpointStep) Kind() StepKind { return StepCheckpoint }
func (s *SuspendStep) Kind() StepKind { return StepSuspend }
func (s *FormStep) Kind() StepKind { return StepForm }
func (s *IfStep) Kind() StepKind { return StepIf }
func (s *SwitchStep) Kind() StepKind { return StepSwitch }
func (s *ParallelStep) Kind() StepKind { return StepParallel }
func (s *BlockStep) Kind() StepKind { return StepBlock }
func (s *TryStep) Kind() StepKind { return StepTry }
func (s *InvalidStep) Kind() StepKind { return StepInvalid }

// Describe renders a one-line summary of the step for listings.
func (s *LogStep) Describe() string { return fmt.Sprintf("log: %q", s.Message) }
func (s *LogYamlStep) Describe() string { return "logYaml" }
func (s *ThrowStep) Describe() string { return fmt.Sprintf("throw: %q", s.Message) }
func (s *ReturnStep) Describe() string { return "return" }
func (s *SetStep) Describe() string { return fmt.Sprintf("set (%d vars)", len(s.Vars)) }
func (s *ExprStep) Describe() string { return "expr: " + s.Expr }
func (s *TaskStep) Describe() string { return "task: " + s.Task }
func (s *ScriptStep) Describe() string { return "script: " + s.Language }
func (s *CallStep) Describe() string { return "call: " + s.Flow }
func (s *CheckpointStep) Describe() string { return "checkpoint: " + s.Checkpoint }
func (s *SuspendStep) Describe() string { return "suspend: " + s.Event }
func (s *FormStep) Describe() string { return "form: " + s.Form }
func (s *IfStep) Describe() string { return "if: " + s.Condition }
func (s *SwitchStep) Describe() string { return "switch: " + s.Expr }
func (s *ParallelStep) Describe() string { return fmt.Sprintf("parallel (%d steps)", len(s.Steps)) }
func (s *BlockStep) Describe() string { return fmt.Sprintf("block (%d steps)", len(s.Steps)) }
func (s *TryStep) Describe() string { return fmt.Sprintf("try (%d steps)", len(s.Steps)) }
func (s *InvalidStep) Describe() string { return "invalid step (" + s.Reason + ")" }
