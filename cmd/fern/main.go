// Command fern resolves uploaded organization names against a reference registry
// and enriches the matches from a remote lookup service.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "fern",
		Short:         "Organization name resolution and enrichment",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCommand(),
		newEnrichCommand(),
		newMigrateCommand(),
		newRegistryCommand(),
	)
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func seconds(s int) time.Duration {
	return time.Duration(s) * time.Second
}
