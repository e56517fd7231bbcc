package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sxslang/sxs/pkg/sxs"
)

var kernelsCmd = &cobra.Command{
	Use:   "kernels",
	Short: "Load and inspect kernels",
}

var kernelsLoadCmd = &cobra.Command{
	Use:   "load <name>...",
	Short: "Resolve, link, and register one or more kernels",
	Args:  cobra.MinimumNArgs(1),
	RunE:  kernelsLoad,
}

// kernelsListCmd exists for completeness but a bare `sxs kernels list`
// always reports none loaded: kernel state lives only for the
// lifetime of the process that linked it (spec §4.K), not in the
// persisted store, so a later invocation starts from a clean Manager.
var kernelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List kernels loaded so far in this process",
	Args:  cobra.NoArgs,
	RunE:  kernelsList,
}

func init() {
	rootCmd.AddCommand(kernelsCmd)
	kernelsCmd.AddCommand(kernelsLoadCmd)
	kernelsCmd.AddCommand(kernelsListCmd)
}

func kernelsLoad(_ *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	for _, name := range args {
		if err := rt.LoadKernel(name); err != nil {
			return fmt.Errorf("failed to load kernel %q: %w", name, err)
		}
	}
	return printLoadedKernels(rt)
}

func kernelsList(_ *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	return printLoadedKernels(rt)
}

func printLoadedKernels(rt *sxs.Runtime) error {
	loaded := rt.LoadedKernels()
	if len(loaded) == 0 {
		fmt.Println("no kernels loaded")
		return nil
	}
	for _, desc := range loaded {
		fmt.Printf("%s: %s (%s, %d function(s), %d form(s))\n",
			desc.Name, desc.State, desc.Directory, len(desc.DeclaredFunctions), len(desc.DeclaredForms))
	}
	return nil
}
