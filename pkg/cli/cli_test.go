package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"flowlang"}, args...))
	return out.String(), err
}

func writeFlow(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateCommand_CleanFile(t *testing.T) {
	path := writeFlow(t, "flows:\n  main:\n    - log: hello\n")
	out, err := runApp(t, "validate", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "no errors") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestValidateCommand_ReportsFindings(t *testing.T) {
	path := writeFlow(t, "flows:\n  main:\n    - log: a\n      task: b\n")
	out, err := runApp(t, "validate", path)
	if err == nil {
		t.Fatal("expected a non-nil error for an invalid file")
	}
	if !strings.Contains(out, "conflicting discriminant keys") {
		t.Errorf("finding not printed: %q", out)
	}
}

func TestValidateCommand_QuietHidesWarnings(t *testing.T) {
	path := writeFlow(t, "flows:\n  main:\n    - call: nowhere\n")
	out, err := runApp(t, "validate", "--quiet", path)
	if err != nil {
		t.Fatalf("warnings alone should not fail: %v", err)
	}
	if strings.Contains(out, "undeclared flow") {
		t.Errorf("quiet mode should suppress warnings: %q", out)
	}
}

func TestValidateCommand_RequiresArgument(t *testing.T) {
	if _, err := runApp(t, "validate"); err == nil {
		t.Fatal("expected an error without a path argument")
	}
}

func TestInspectCommand_PrintsOutline(t *testing.T) {
	path := writeFlow(t, `
configuration:
  runtime: concord-v2
flows:
  main:
    - name: greet
      log: hello
    - if: ${x}
      then:
        - return:
forms:
  survey:
    - age: { type: "int+" }
publicFlows:
  - main
`)
	out, err := runApp(t, "inspect", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"runtime: concord-v2",
		"flow main (2 steps)",
		"greet [",
		"form survey",
		"age: int (required)",
		"public flows: main",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectCommand_InvalidFileFails(t *testing.T) {
	path := writeFlow(t, "flows:\n  main:\n    - name: only\n")
	if _, err := runApp(t, "inspect", path); err == nil {
		t.Fatal("expected an error for an invalid document")
	}
}
