package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sxslang/sxs/internal/perror"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive sxs session",
	Long: `Start a read-eval-print loop. Each top-level form is evaluated as
soon as it is entered; a line ending in "\" continues onto the next
line before evaluation.`,
	RunE: runREPL,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runREPL(_ *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	fmt.Println("sxs REPL (Ctrl+D to exit)")

	reader := bufio.NewReader(os.Stdin)
	var pending strings.Builder
	continuing := false

	for {
		if continuing {
			fmt.Print("... ")
		} else {
			fmt.Print(">>> ")
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		line = strings.TrimRight(line, "\r\n")

		if strings.HasSuffix(line, "\\") {
			pending.WriteString(strings.TrimSuffix(line, "\\"))
			pending.WriteString("\n")
			continuing = true
			continue
		}

		var input string
		if continuing {
			pending.WriteString(line)
			input = pending.String()
			pending.Reset()
			continuing = false
		} else {
			input = line
		}

		if strings.TrimSpace(input) == "" {
			continue
		}

		out, err := rt.Eval(input)
		if err != nil {
			fmt.Print(perror.Format(err, input, ""))
			fmt.Println()
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
}
