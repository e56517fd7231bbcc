package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sxslang/sxs/internal/perror"
	"github.com/sxslang/sxs/pkg/sxs"
)

var (
	evalExpr    string
	memoryStore bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run an sxs program from a file, expression, or stdin",
	Long: `Execute an sxs program.

Examples:
  sxs run script.sxs
  sxs run -e "(eq 1 1)"
  cat script.sxs | sxs run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline source instead of reading a file")
	runCmd.Flags().BoolVar(&memoryStore, "memory", false, "use an in-memory store instead of the SQLite database")
}

func runScript(_ *cobra.Command, args []string) error {
	var input, file string
	switch {
	case evalExpr != "":
		input = evalExpr
	case len(args) == 1:
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
		input = string(content)
		file = args[0]
	default:
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		input = string(content)
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.Eval(input)
	if err != nil {
		exitWithError("%s", perror.Format(err, input, file))
		return nil // unreachable: exitWithError terminates the process
	}
	if result != "" {
		fmt.Println(result)
	}
	return nil
}

func newRuntime() (*sxs.Runtime, error) {
	opts := []sxs.Option{
		sxs.WithWorkingDirectory(workingDir),
		sxs.WithIncludePaths(includePath...),
	}
	if memoryStore {
		opts = append(opts, sxs.WithMemoryStore())
	} else {
		opts = append(opts, sxs.WithSQLiteStore(dbPath))
	}
	return sxs.New(opts...)
}
