package validator

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/flowlang-dev/flowlang/pkg/flow"
)

// checkScripts compiles JavaScript script bodies to catch syntax errors
// before a runtime ever sees them. Bodies are compiled only, never run;
// other script languages are left to their own runtimes.
func (v *Validator) checkScripts(path string, doc *flow.Document, result *Result) {
	for i := range doc.Flows {
		flowName := doc.Flows[i].Name
		walkSteps(doc.Flows[i].Steps, func(step flow.Step) {
			s, ok := step.(*flow.ScriptStep)
			if !ok || !isJavaScript(s.Language) {
				return
			}
			if _, err := goja.Compile(fmt.Sprintf("%s/%s", path, flowName), s.Body, false); err != nil {
				result.Findings = append(result.Findings, Finding{
					File:     path,
					Severity: flow.SeverityWarning,
					Message:  fmt.Sprintf("script body does not compile: %v", err),
					Position: s.Position,
				})
			}
		})
	}
}

func isJavaScript(language string) bool {
	return language == "js" || language == "javascript"
}
