package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information, set at build time using ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Args:  cobra.NoArgs,
		// Needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "expenses version %s\n", Version)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  Built:      %s\n", BuildDate)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
		},
	}
}
