package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"expenses/internal/config"
	"expenses/internal/log"
)

// app is the state shared by every command once the root has bootstrapped.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configFile string
	cfg        *config.Config
	logger     *log.Logger
}

// NewRootCommand builds the command tree bound to the given streams.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "expenses",
		Short: "Personal expense tracking API",
		Long: `expenses serves a JSON API for recording expenses and grouping them
into categories. Every user sees and changes only their own data.

Configuration comes from the environment (and an optional .env file),
optionally overlaid on a YAML file given with --config or CONFIG_FILE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.bootstrap()
		},
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "YAML configuration file (takes precedence over CONFIG_FILE)")

	root.AddCommand(newServeCommand(a))
	root.AddCommand(newMigrateCommand(a))
	root.AddCommand(newUsersCommand(a))
	root.AddCommand(newTokenCommand(a))
	root.AddCommand(newVersionCommand())
	return root
}

// Execute runs the command line against the process streams.
func Execute() {
	if err := NewRootCommand(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) bootstrap() error {
	LoadEnvFile()

	cfg, err := LoadAndValidateConfig(a.configFile)
	if err != nil {
		return err
	}
	logger, err := SetupLogger(cfg, a.stderr)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}
