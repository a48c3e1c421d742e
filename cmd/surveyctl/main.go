package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "surveyctl:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "surveyctl",
		Short:         "Create, run and export survey extraction jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addFlags(root)
	root.AddCommand(
		newMigrateCmd(),
		newDBCmd(),
		newJobCmd(),
		newRunCmd("process", "Run a pending job", false),
		newRunCmd("retry", "Re-run a job, replacing its responses", true),
		newResponsesCmd(),
		newExportCmd(),
		newSettingsCmd(),
		newIngestCmd(),
		newExtractCmd(),
	)
	return root
}
