package flow

import (
	"testing"

	"github.com/flowlang-dev/flowlang/pkg/value"
)

func TestStep_SetKeepsDeclarationOrder(t *testing.T) {
	doc, diags := mustParse(t, `
flows:
  main:
    - set:
        z: 1
        a: "${z + 1}"
        m: hello
`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags)
	}
	s, ok := firstStep(t, doc, "main").(*SetStep)
	if !ok {
		t.Fatalf("expected SetStep, got %T", firstStep(t, doc, "main"))
	}
	if len(s.Vars) != 3 {
		t.Fatalf("expected 3 vars, got %d", len(s.Vars))
	}
	want := []string{"z", "a", "m"}
	for i, v := range s.Vars {
		if v.Name != want[i] {
			t.Errorf("var %d: expected %q, got %q", i, want[i], v.Name)
		}
	}
	if s.Vars[1].Expr != "${z + 1}" {
		t.Errorf("unexpected expr: %q", s.Vars[1].Expr)
	}
}

func TestStep_SetSkipsNonScalarVar(t *testing.T) {
	doc, diags := mustParse(t, `
flows:
  main:
    - set:
        good: 1
        bad:
          nested: value
`)
	if n := countKind(diags, KindMalformedField); n != 1 {
		t.Fatalf("expected 1 MalformedField diagnostic, got %d: %v", n, diags)
	}
	s := firstStep(t, doc, "main").(*SetStep)
	if len(s.Vars) != 1 || s.Vars[0].Name != "good" {
		t.Errorf("expected only the good var to survive, got %+v", s.Vars)
	}
}

func TestStep_Script(t *testing.T) {
	doc, diags := mustParse(t, `
flows:
  main:
    - script: js
      body: |
        var x = 1;
        result = x + 1;
`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags)
	}
	s := firstStep(t, doc, "main").(*ScriptStep)
	if s.Language != "js" {
		t.Errorf("expected language js, got %q", s.Language)
	}
	if s.Body != "var x = 1;\nresult = x + 1;\n" {
		t.Errorf("block scalar body mangled: %q", s.Body)
	}
}

func TestStep_ScriptRequiresBody(t *testing.T) {
	doc, diags := mustParse(t, `
flows:
  main:
    - script: groovy
`)
	if n := countKind(diags, KindMissingField); n != 1 {
		t.Fatalf("expected 1 MissingField diagnostic, got %d: %v", n, diags)
	}
	if _, ok := firstStep(t, doc, "main").(*InvalidStep); !ok {
		t.Errorf("expected InvalidStep, got %T", firstStep(t, doc, "main"))
	}
}

func TestStep_FormWithInlineFields(t *testing.T) {
	doc, diags := mustParse(t, `
flows:
  main:
    - form: survey
      yield: true
      saveSubmittedBy: true
      fields:
        - name: { type: "string+", label: "Your name" }
        - age: { type: int }
      values:
        name: prefilled
`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags)
	}
	s := firstStep(t, doc, "main").(*FormStep)
	if s.Form != "survey" {
		t.Errorf("expected form survey, got %q", s.Form)
	}
	if !s.Yield || !s.SaveSubmittedBy {
		t.Error("yield/saveSubmittedBy flags not set")
	}
	if len(s.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(s.Fields))
	}
	name := s.Fields[0]
	if name.Name != "name" || name.BaseType != "string" || !name.Required {
		t.Errorf("unexpected field: %+v", name)
	}
	age := s.Fields[1]
	if age.Name != "age" || age.BaseType != "int" || age.Required {
		t.Errorf("unexpected field: %+v", age)
	}
	if s.Values == nil || s.Values.Get("name") == nil {
		t.Error("values not captured")
	}
}

func TestStep_FormFieldEncodingsNormalize(t *testing.T) {
	inline, d1 := mustParse(t, `
forms:
  f:
    - age: { type: "int+" }
`)
	block, d2 := mustParse(t, `
forms:
  f:
    - age:
        type: "int+"
`)
	if d1.HasErrors() || d2.HasErrors() {
		t.Fatalf("unexpected errors: %v %v", d1, d2)
	}
	a := inline.Form("f").Fields[0]
	b := block.Form("f").Fields[0]
	if a.Name != b.Name || a.Type != b.Type || a.BaseType != b.BaseType || a.Required != b.Required {
		t.Errorf("the two encodings should normalize identically: %+v vs %+v", a, b)
	}
	if !a.Required || a.BaseType != "int" {
		t.Errorf("unexpected field: %+v", a)
	}
}

func TestStep_FormFieldRequiresType(t *testing.T) {
	doc, diags := mustParse(t, `
forms:
  f:
    - age: { label: "Age" }
    - name: { type: string }
`)
	if n := countKind(diags, KindMissingField); n != 1 {
		t.Fatalf("expected 1 MissingField diagnostic, got %d: %v", n, diags)
	}
	f := doc.Form("f")
	if len(f.Fields) != 1 || f.Fields[0].Name != "name" {
		t.Errorf("expected only the valid field to survive, got %+v", f.Fields)
	}
}

func TestStep_LogYamlKeepsOpaqueValue(t *testing.T) {
	doc, diags := mustParse(t, `
flows:
  main:
    - logYaml:
        status: ok
        items: [1, 2]
`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags)
	}
	s := firstStep(t, doc, "main").(*LogYamlStep)
	m := value.AsMapping(s.Value)
	if m == nil || len(m.Entries) != 2 {
		t.Fatalf("expected the full value tree, got %+v", s.Value)
	}
}

func TestStep_ScalarVariants(t *testing.T) {
	doc, diags := mustParse(t, `
flows:
  main:
    - throw: boom
    - expr: "${x.y}"
    - call: other
    - checkpoint: phase1
    - suspend: approvalEvent
    - return:
`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags)
	}
	steps := doc.Flow("main").Steps
	if len(steps) != 6 {
		t.Fatalf("expected 6 steps, got %d", len(steps))
	}
	if s := steps[0].(*ThrowStep); s.Message != "boom" {
		t.Errorf("throw: %q", s.Message)
	}
	if s := steps[1].(*ExprStep); s.Expr != "${x.y}" {
		t.Errorf("expr: %q", s.Expr)
	}
	if s := steps[2].(*CallStep); s.Flow != "other" {
		t.Errorf("call: %q", s.Flow)
	}
	if s := steps[3].(*CheckpointStep); s.Checkpoint != "phase1" {
		t.Errorf("checkpoint: %q", s.Checkpoint)
	}
	if s := steps[4].(*SuspendStep); s.Event != "approvalEvent" {
		t.Errorf("suspend: %q", s.Event)
	}
	if _, ok := steps[5].(*ReturnStep); !ok {
		t.Errorf("return: got %T", steps[5])
	}
}

func TestStep_TaskWithNonScalarValue(t *testing.T) {
	doc, diags := mustParse(t, `
flows:
  main:
    - task: [not, a, name]
`)
	if n := countKind(diags, KindMalformedField); n != 1 {
		t.Fatalf("expected 1 MalformedField diagnostic, got %d: %v", n, diags)
	}
	if _, ok := firstStep(t, doc, "main").(*InvalidStep); !ok {
		t.Errorf("expected InvalidStep, got %T", firstStep(t, doc, "main"))
	}
}

func TestStep_KindsAndDescribe(t *testing.T) {
	doc, diags := mustParse(t, `
flows:
  main:
    - log: hello
    - task: doWork
`)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags)
	}
	steps := doc.Flow("main").Steps
	if steps[0].Kind() != StepLog || steps[1].Kind() != StepTask {
		t.Errorf("unexpected kinds: %s, %s", steps[0].Kind(), steps[1].Kind())
	}
	if steps[0].Describe() == "" || steps[1].Describe() == "" {
		t.Error("Describe should never be empty")
	}
}
