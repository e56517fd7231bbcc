// Package cmd wires the sxs CLI's cobra subcommands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

var (
	verbose     bool
	dbPath      string
	workingDir  string
	includePath []string
)

var rootCmd = &cobra.Command{
	Use:     "sxs",
	Short:   "sxs S-expression runtime",
	Version: Version,
	Long: `sxs runs and inspects programs in the sxs S-expression language:
a parser, static checker, tree-walking evaluator, dynamic kernel
loader, topic-addressed event bus, and entity-scoped session layer.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("sxs version {{.Version}}\nCommit: %s\n", GitCommit))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "accepted; has no effect on output")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "sxs.db", "SQLite database path for entity persistence")
	rootCmd.PersistentFlags().StringVar(&workingDir, "dir", ".", "working directory kernel/import paths resolve against")
	rootCmd.PersistentFlags().StringSliceVar(&includePath, "include", nil, "kernel/import search paths, tried in order")
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
