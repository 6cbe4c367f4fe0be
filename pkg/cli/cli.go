// Package cli provides the command-line interface for flowlang.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/flowlang-dev/flowlang/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.IntFlag{
		Name:    "max-depth",
		Usage:   "Maximum step nesting depth",
		EnvVars: []string{"FLOWLANG_MAX_DEPTH"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging to stderr",
		EnvVars: []string{"FLOWLANG_VERBOSE"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Write logs to a file",
		EnvVars: []string{"FLOWLANG_LOG_FILE"},
	},
}

// Execute runs the CLI.
func Execute() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "flowlang",
		Usage:   "Parse and validate flow-language documents",
		Version: Version,
		Description: `Flowlang parses workflow definition documents into a typed AST and
reports every problem it finds in one pass.

Examples:
  flowlang validate flow.concord.yaml
  flowlang validate flows/
  flowlang inspect flow.concord.yaml`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if path := c.String("log-file"); path != "" {
				return logger.Init(path)
			}
			if c.Bool("verbose") {
				logger.InitStderr()
			}
			return nil
		},
		After: func(c *cli.Context) error {
			logger.Close()
			return nil
		},
		Commands: []*cli.Command{
			validateCommand,
			inspectCommand,
		},
	}
}
