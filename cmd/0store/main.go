// Command 0store is a thin exerciser over the store, manifest and
// archive packages: enough surface to drive the core operations for
// manual testing, not the full Zero Install CLI (see SPEC_FULL.md
// component J).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "0store",
		Short: "content-addressed implementation store exerciser",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a config.yaml (defaults omitted if absent)")

	cmd.AddCommand(
		newAddCmd(&configPath),
		newFindCmd(&configPath),
		newVerifyCmd(&configPath),
		newOptimiseCmd(&configPath),
		newListCmd(&configPath),
		newManifestCmd(),
	)
	return cmd
}
