// Command sxs is the sxs runtime CLI: run scripts, drop into a REPL,
// or manage kernels.
package main

import (
	"fmt"
	"os"

	"github.com/sxslang/sxs/cmd/sxs/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
