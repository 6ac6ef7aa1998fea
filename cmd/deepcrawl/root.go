package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for deepcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deepcrawl",
		Short: "Deep-crawl research and evidence scoring",
		Long: `deepcrawl crawls seed sites for a research topic, extracts keyword evidence
for each of the topic's categories, and grades how well the evidence supports
the idea under study (Strong, Partial, Minimal or Unresolved).

Topics are defined in a YAML research file. Two built-in topics are always
available: architecture-theory and architecture-gaps.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewResearchCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
