// Package validator validates flow-language documents on disk. It parses
// every file upfront, accumulates all parser diagnostics, and adds
// cross-reference checks that need a whole document in hand: call
// targets, form references, and call cycles.
package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flowlang-dev/flowlang/pkg/flow"
	"github.com/flowlang-dev/flowlang/pkg/logger"
	"github.com/flowlang-dev/flowlang/pkg/value"
)

// Finding is one validation finding, tied to the file it came from.
type Finding struct {
	File     string
	Severity flow.Severity
	Message  string
	Position value.Pos
}

func (f Finding) String() string {
	if f.Position.Known() {
		return fmt.Sprintf("%s:%s: %s: %s", f.File, f.Position, f.Severity, f.Message)
	}
	return fmt.Sprintf("%s: %s: %s", f.File, f.Severity, f.Message)
}

// Result contains the validation outcome for a file or directory.
type Result struct {
	// Files lists the validated flow files in walk order.
	Files []string
	// Findings contains every finding from every file.
	Findings []Finding
}

// IsValid returns true when no error-severity findings exist.
func (r *Result) IsValid() bool {
	for _, f := range r.Findings {
		if f.Severity == flow.SeverityError {
			return false
		}
	}
	return true
}

// Errors returns only the error-severity findings.
func (r *Result) Errors() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == flow.SeverityError {
			out = append(out, f)
		}
	}
	return out
}

// Validator validates flow documents.
type Validator struct {
	// MaxDepth overrides the parser's nesting guard when positive.
	MaxDepth int
	// CheckScripts enables syntax checking of JavaScript script bodies.
	CheckScripts bool
}

// New creates a Validator with default settings.
func New() *Validator {
	return &Validator{CheckScripts: true}
}

// Validate validates a file or a directory of .yaml/.yml files.
func (v *Validator) Validate(path string) *Result {
	result := &Result{}

	info, err := os.Stat(path)
	if err != nil {
		result.Findings = append(result.Findings, Finding{
			File:     path,
			Severity: flow.SeverityError,
			Message:  fmt.Sprintf("cannot access: %v", err),
		})
		return result
	}

	var files []string
	if info.IsDir() {
		files, err = collectFlowFiles(path)
		if err != nil {
			result.Findings = append(result.Findings, Finding{
				File:     path,
				Severity: flow.SeverityError,
				Message:  fmt.Sprintf("failed to scan directory: %v", err),
			})
			return result
		}
	} else {
		files = []string{path}
	}

	for _, file := range files {
		v.validateFile(file, result)
	}

	return result
}

// collectFlowFiles finds all .yaml/.yml files in a directory.
func collectFlowFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// validateFile parses one document and runs all checks on it.
func (v *Validator) validateFile(path string, result *Result) {
	logger.Debug("validating %s", path)
	result.Files = append(result.Files, path)

	data, err := os.ReadFile(path) //#nosec G304 -- path is a user-provided flow file
	if err != nil {
		result.Findings = append(result.Findings, Finding{
			File:     path,
			Severity: flow.SeverityError,
			Message:  fmt.Sprintf("cannot read: %v", err),
		})
		return
	}

	root, err := value.Decode(data)
	if err != nil {
		finding := Finding{File: path, Severity: flow.SeverityError, Message: err.Error()}
		if de, ok := err.(*value.DecodeError); ok {
			finding.Position = de.Position
			finding.Message = de.Message
		}
		result.Findings = append(result.Findings, finding)
		return
	}

	var opts []flow.Option
	if v.MaxDepth > 0 {
		opts = append(opts, flow.WithMaxDepth(v.MaxDepth))
	}
	doc, diags := flow.Parse(root, opts...)

	for _, d := range diags {
		result.Findings = append(result.Findings, Finding{
			File:     path,
			Severity: d.Severity,
			Message:  d.Message,
			Position: d.Position,
		})
	}

	v.checkReferences(path, doc, result)
	v.checkCallCycles(path, doc, result)
	if v.CheckScripts {
		v.checkScripts(path, doc, result)
	}
}

// checkReferences warns about call targets and form names that resolve to
// nothing in the document. Expression-valued names are skipped; they are
// only resolvable at run time.
func (v *Validator) checkReferences(path string, doc *flow.Document, result *Result) {
	for i := range doc.Flows {
		walkSteps(doc.Flows[i].Steps, func(step flow.Step) {
			switch s := step.(type) {
			case *flow.CallStep:
				if isExpression(s.Flow) {
					return
				}
				if doc.Flow(s.Flow) == nil {
					result.Findings = append(result.Findings, Finding{
						File:     path,
						Severity: flow.SeverityWarning,
						Message:  fmt.Sprintf("call references undeclared flow '%s'", s.Flow),
						Position: s.Position,
					})
				}

			case *flow.FormStep:
				// A form call with inline field overrides may define the
				// whole form at the call site.
				if isExpression(s.Form) || len(s.Fields) > 0 {
					return
				}
				if doc.Form(s.Form) == nil {
					result.Findings = append(result.Findings, Finding{
						File:     path,
						Severity: flow.SeverityWarning,
						Message:  fmt.Sprintf("form call references undeclared form '%s'", s.Form),
						Position: s.Position,
					})
				}
			}
		})
	}
}

// checkCallCycles reports direct and indirect call cycles between flows.
func (v *Validator) checkCallCycles(path string, doc *flow.Document, result *Result) {
	targets := make(map[string][]string)
	for i := range doc.Flows {
		name := doc.Flows[i].Name
		walkSteps(doc.Flows[i].Steps, func(step flow.Step) {
			if s, ok := step.(*flow.CallStep); ok && !isExpression(s.Flow) {
				targets[name] = append(targets[name], s.Flow)
			}
		})
	}

	reported := make(map[string]bool)
	var visit func(name string, chain []string)
	visit = func(name string, chain []string) {
		for i, ancestor := range chain {
			if ancestor == name {
				cycle := append(append([]string{}, chain[i:]...), name)
				// Key on the member set so the same cycle is reported
				// once regardless of which flow the walk entered from.
				members := append([]string{}, chain[i:]...)
				sort.Strings(members)
				key := strings.Join(members, "\x00")
				if !reported[key] {
					reported[key] = true
					result.Findings = append(result.Findings, Finding{
						File:     path,
						Severity: flow.SeverityWarning,
						Message:  "circular flow call detected: " + strings.Join(cycle, " -> "),
					})
				}
				return
			}
		}
		next := append(append([]string{}, chain...), name)
		for _, target := range targets[name] {
			visit(target, next)
		}
	}
	for i := range doc.Flows {
		visit(doc.Flows[i].Name, nil)
	}
}

// walkSteps visits every step including nested branches and error
// handlers, in source order.
func walkSteps(steps []flow.Step, fn func(flow.Step)) {
	for _, step := range steps {
		fn(step)
		walkSteps(step.Base().Error, fn)

		switch s := step.(type) {
		case *flow.IfStep:
			walkSteps(s.Then, fn)
			walkSteps(s.Else, fn)
		case *flow.SwitchStep:
			for _, c := range s.Cases {
				walkSteps(c.Steps, fn)
			}
			walkSteps(s.Default, fn)
		case *flow.ParallelStep:
			walkSteps(s.Steps, fn)
		case *flow.BlockStep:
			walkSteps(s.Steps, fn)
		case *flow.TryStep:
			walkSteps(s.Steps, fn)
		}
	}
}

func isExpression(s string) bool { return strings.Contains(s, "${") }
