package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/flowlang-dev/flowlang/pkg/validator"
)

var validateCommand = &cli.Command{
	Name:      "validate",
	Usage:     "Validate flow files and report every finding",
	ArgsUsage: "<file-or-directory>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-scripts",
			Usage: "Skip syntax checking of JavaScript script bodies",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Only report errors, not warnings",
		},
	},
	Action: runValidate,
}

func runValidate(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one path argument")
	}

	v := validator.New()
	v.MaxDepth = c.Int("max-depth")
	v.CheckScripts = !c.Bool("no-scripts")

	result := v.Validate(c.Args().First())

	findings := result.Findings
	if c.Bool("quiet") {
		findings = result.Errors()
	}
	for _, f := range findings {
		fmt.Fprintln(c.App.Writer, f)
	}

	if !result.IsValid() {
		return fmt.Errorf("%d file(s) checked, %d error(s)", len(result.Files), len(result.Errors()))
	}
	fmt.Fprintf(c.App.Writer, "%d file(s) checked, no errors\n", len(result.Files))
	return nil
}
