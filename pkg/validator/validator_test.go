package validator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFlowFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func findingWith(result *Result, fragment string) *Finding {
	for i := range result.Findings {
		if strings.Contains(result.Findings[i].Message, fragment) {
			return &result.Findings[i]
		}
	}
	return nil
}

func TestValidate_CleanFile(t *testing.T) {
	path := writeFlowFile(t, t.TempDir(), "flow.yaml", `
flows:
  main:
    - log: hello
    - call: helper
  helper:
    - task: doWork
`)
	result := New().Validate(path)
	if !result.IsValid() {
		t.Fatalf("expected valid, got %v", result.Findings)
	}
	if len(result.Findings) != 0 {
		t.Errorf("expected no findings, got %v", result.Findings)
	}
	if len(result.Files) != 1 {
		t.Errorf("expected 1 file, got %v", result.Files)
	}
}

func TestValidate_ParserErrorsSurface(t *testing.T) {
	path := writeFlowFile(t, t.TempDir(), "flow.yaml", `
flows:
  main:
    - log: hello
      task: conflict
`)
	result := New().Validate(path)
	if result.IsValid() {
		t.Fatal("expected errors")
	}
	if findingWith(result, "conflicting discriminant keys") == nil {
		t.Errorf("expected an ambiguity finding, got %v", result.Findings)
	}
}

func TestValidate_UndeclaredCallTarget(t *testing.T) {
	path := writeFlowFile(t, t.TempDir(), "flow.yaml", `
flows:
  main:
    - call: nowhere
`)
	result := New().Validate(path)
	if !result.IsValid() {
		t.Fatalf("dangling calls are warnings, not errors: %v", result.Findings)
	}
	if findingWith(result, "undeclared flow 'nowhere'") == nil {
		t.Errorf("expected a dangling call warning, got %v", result.Findings)
	}
}

func TestValidate_ExpressionCallTargetSkipped(t *testing.T) {
	path := writeFlowFile(t, t.TempDir(), "flow.yaml", `
flows:
  main:
    - call: "${dynamicTarget}"
`)
	result := New().Validate(path)
	if len(result.Findings) != 0 {
		t.Errorf("expression targets resolve at run time, got %v", result.Findings)
	}
}

func TestValidate_UndeclaredForm(t *testing.T) {
	path := writeFlowFile(t, t.TempDir(), "flow.yaml", `
flows:
  main:
    - form: ghost
`)
	result := New().Validate(path)
	if findingWith(result, "undeclared form 'ghost'") == nil {
		t.Errorf("expected a dangling form warning, got %v", result.Findings)
	}
}

func TestValidate_InlineFormFieldsSkipLookup(t *testing.T) {
	path := writeFlowFile(t, t.TempDir(), "flow.yaml", `
flows:
  main:
    - form: adHoc
      fields:
        - name: { type: string }
`)
	result := New().Validate(path)
	if len(result.Findings) != 0 {
		t.Errorf("inline fields define the form at the call site, got %v", result.Findings)
	}
}

func TestValidate_CallCycle(t *testing.T) {
	path := writeFlowFile(t, t.TempDir(), "flow.yaml", `
flows:
  a:
    - call: b
  b:
    - call: c
  c:
    - call: a
`)
	result := New().Validate(path)
	var cycles int
	for _, f := range result.Findings {
		if strings.Contains(f.Message, "circular flow call") {
			cycles++
		}
	}
	if cycles != 1 {
		t.Fatalf("expected the cycle reported exactly once, got %d: %v", cycles, result.Findings)
	}
}

func TestValidate_SelfCall(t *testing.T) {
	path := writeFlowFile(t, t.TempDir(), "flow.yaml", `
flows:
  recurse:
    - call: recurse
`)
	result := New().Validate(path)
	if findingWith(result, "circular flow call detected: recurse -> recurse") == nil {
		t.Errorf("expected a self-call cycle warning, got %v", result.Findings)
	}
}

func TestValidate_CallInsideNestedBranches(t *testing.T) {
	path := writeFlowFile(t, t.TempDir(), "flow.yaml", `
flows:
  main:
    - if: ${x}
      then:
        - try:
            - call: missing
      error:
        - call: alsoMissing
`)
	result := New().Validate(path)
	if findingWith(result, "undeclared flow 'missing'") == nil {
		t.Error("calls inside branches should be checked")
	}
	if findingWith(result, "undeclared flow 'alsoMissing'") == nil {
		t.Error("calls inside error handlers should be checked")
	}
}

func TestValidate_ScriptSyntax(t *testing.T) {
	path := writeFlowFile(t, t.TempDir(), "flow.yaml", `
flows:
  main:
    - script: js
      body: |
        var x = ;
`)
	result := New().Validate(path)
	if findingWith(result, "does not compile") == nil {
		t.Errorf("expected a script syntax warning, got %v", result.Findings)
	}
	if !result.IsValid() {
		t.Error("script syntax problems are warnings")
	}
}

func TestValidate_ScriptCheckDisabled(t *testing.T) {
	v := New()
	v.CheckScripts = false
	path := writeFlowFile(t, t.TempDir(), "flow.yaml", `
flows:
  main:
    - script: js
      body: "var x = ;"
`)
	result := v.Validate(path)
	if findingWith(result, "does not compile") != nil {
		t.Errorf("script check should be off, got %v", result.Findings)
	}
}

func TestValidate_OtherScriptLanguagesIgnored(t *testing.T) {
	path := writeFlowFile(t, t.TempDir(), "flow.yaml", `
flows:
  main:
    - script: groovy
      body: "def x = ["
`)
	result := New().Validate(path)
	if len(result.Findings) != 0 {
		t.Errorf("non-JavaScript bodies are opaque, got %v", result.Findings)
	}
}

func TestValidate_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFlowFile(t, dir, "good.yaml", "flows:\n  a:\n    - log: ok\n")
	writeFlowFile(t, dir, "bad.yml", "flows:\n  b: not a sequence\n")
	writeFlowFile(t, dir, "ignored.txt", "not yaml at all {{{")

	result := New().Validate(dir)
	if len(result.Files) != 2 {
		t.Fatalf("expected 2 flow files, got %v", result.Files)
	}
	if result.IsValid() {
		t.Error("the malformed flow should make the result invalid")
	}
	if len(result.Errors()) != 1 {
		t.Errorf("expected 1 error finding, got %v", result.Errors())
	}
}

func TestValidate_UnreadablePath(t *testing.T) {
	result := New().Validate(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if result.IsValid() {
		t.Fatal("expected an error for a missing path")
	}
	if findingWith(result, "cannot access") == nil {
		t.Errorf("unexpected findings: %v", result.Findings)
	}
}

func TestValidate_BadYAML(t *testing.T) {
	path := writeFlowFile(t, t.TempDir(), "flow.yaml", "flows: [unclosed\n")
	result := New().Validate(path)
	if result.IsValid() {
		t.Fatal("expected a decode error")
	}
}

func TestValidate_MaxDepthOverride(t *testing.T) {
	var b strings.Builder
	b.WriteString("flows:\n  deep:\n")
	for i := 0; i < 10; i++ {
		pad := strings.Repeat("  ", 2+2*i)
		b.WriteString(pad + "- if: ${x}\n")
		b.WriteString(pad + "  then:\n")
	}
	b.WriteString(strings.Repeat("  ", 22) + "- return:\n")

	path := writeFlowFile(t, t.TempDir(), "flow.yaml", b.String())

	v := New()
	v.MaxDepth = 5
	if result := v.Validate(path); result.IsValid() {
		t.Error("10 levels should exceed a max depth of 5")
	}
	if result := New().Validate(path); !result.IsValid() {
		t.Error("10 levels should be fine at the default depth")
	}
}
