package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"nupatch/internal/patch"
)

type statusOptions struct {
	jsonOutput bool
}

func newStatusCmd(root *rootFlags) *cobra.Command {
	opts := &statusOptions{}

	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"s"},
		Short:   "Show current patch status for CLI and IDE agents",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}

			status := patch.Status(app.Paths)
			out := cmd.OutOrStdout()

			if opts.jsonOutput {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(status)
			}

			renderComponentStatus(out, "CLI agent", status.CLI)
			renderComponentStatus(out, "IDE agent", status.IDE)
			renderIntegrityStatus(out, status.Integrity)
			if app.Paths.AppDir == "" && app.Paths.CLIAgentDir == "" {
				fmt.Fprintln(out, skipStyle.Render("no Cursor installation detected"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
