package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/flowlang-dev/flowlang/pkg/flow"
	"github.com/flowlang-dev/flowlang/pkg/value"
)

var inspectCommand = &cli.Command{
	Name:      "inspect",
	Usage:     "Parse one document and print its outline",
	ArgsUsage: "<file>",
	Action:    runInspect,
}

func runInspect(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	data, err := os.ReadFile(path) //#nosec G304 -- path is a user-provided flow file
	if err != nil {
		return err
	}
	root, err := value.Decode(data)
	if err != nil {
		return err
	}

	var opts []flow.Option
	if d := c.Int("max-depth"); d > 0 {
		opts = append(opts, flow.WithMaxDepth(d))
	}
	doc, diags := flow.Parse(root, opts...)

	printOutline(c.App.Writer, doc)

	for _, d := range diags {
		fmt.Fprintf(c.App.Writer, "%s:%s\n", path, d)
	}
	if diags.HasErrors() {
		return fmt.Errorf("%d error(s)", len(diags.Errors()))
	}
	return nil
}

func printOutline(w io.Writer, doc *flow.Document) {
	if doc.Configuration != nil {
		fmt.Fprintln(w, "configuration:")
		if runtime, ok := doc.Configuration.Runtime(); ok {
			fmt.Fprintf(w, "  runtime: %s\n", runtime)
		}
		if deps, ok := doc.Configuration.Dependencies(); ok {
			fmt.Fprintf(w, "  dependencies: %d\n", len(deps))
		}
	}

	for i := range doc.Flows {
		f := &doc.Flows[i]
		fmt.Fprintf(w, "flow %s (%d steps)\n", f.Name, len(f.Steps))
		printSteps(w, f.Steps, 1)
	}

	for i := range doc.Forms {
		f := &doc.Forms[i]
		fmt.Fprintf(w, "form %s\n", f.Name)
		for _, field := range f.Fields {
			req := ""
			if field.Required {
				req = " (required)"
			}
			fmt.Fprintf(w, "  %s: %s%s\n", field.Name, field.BaseType, req)
		}
	}

	if len(doc.PublicFlows) > 0 {
		fmt.Fprintf(w, "public flows: %s\n", strings.Join(doc.PublicFlows, ", "))
	}
}

func printSteps(w io.Writer, steps []flow.Step, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, step := range steps {
		label := step.Describe()
		if name := step.Base().Name; name != "" {
			label = name + " [" + label + "]"
		}
		fmt.Fprintln(w, indent+label)

		switch s := step.(type) {
		case *flow.IfStep:
			printSteps(w, s.Then, depth+1)
			if s.Else != nil {
				fmt.Fprintln(w, indent+"else:")
				printSteps(w, s.Else, depth+1)
			}
		case *flow.SwitchStep:
			for _, cs := range s.Cases {
				fmt.Fprintf(w, "%scase %s:\n", indent, cs.Label)
				printSteps(w, cs.Steps, depth+1)
			}
			if s.Default != nil {
				fmt.Fprintln(w, indent+"default:")
				printSteps(w, s.Default, depth+1)
			}
		case *flow.ParallelStep:
			printSteps(w, s.Steps, depth+1)
		case *flow.BlockStep:
			printSteps(w, s.Steps, depth+1)
		case *flow.TryStep:
			printSteps(w, s.Steps, depth+1)
		}
	}
}
