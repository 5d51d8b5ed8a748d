// Package main provides the entry point for the topfang CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/topfang/cmd/topfang/commands"
	"github.com/Sumatoshi-tech/topfang/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "topfang",
		Short: "Topfang - adaptive distributed top-n estimation",
		Long: `Topfang estimates the heavy hitters of partitioned, windowed streams
with Space-Saving sketches and adaptive capacity control.

Commands:
  generate  Generate a synthetic partitioned workload with ground truth
  run       Run an estimation method over a stored dataset and score it`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(commands.NewGenerateCommand())
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "topfang %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
