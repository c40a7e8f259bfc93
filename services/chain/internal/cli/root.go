// Package cli defines the chainctl command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set via -ldflags at build time.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chainctl",
		Short: "Inspect and exercise the BingeHouse chat pipeline",
		Long: `chainctl runs pieces of the BingeHouse chat pipeline from a terminal.

'classify' and 'resolve' apply the offline rules only. 'ask' runs the full
pipeline with the configured catalog and generation providers against an
in-memory store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newClassifyCmd(),
		newResolveCmd(),
		newAskCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute(v string) {
	if v != "" {
		version = v
	}
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chainctl %s\n", version)
		},
	}
}
