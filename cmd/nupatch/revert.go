package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nupatch/internal/patch"
)

func newRevertCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revert",
		Short: "Restore all patched files from backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result := patch.RevertAll(app.Paths)
			if len(result.Files) == 0 {
				fmt.Fprintln(out, skipStyle.Render("nothing to revert"))
				return nil
			}

			for _, f := range result.Files {
				if f.Restored {
					fmt.Fprintf(out, "  %s  restored %s\n", okStyle.Render("  OK"), f.Filename)
				} else {
					fmt.Fprintf(out, "  %s  no backup for %s\n", skipStyle.Render("SKIP"), f.Filename)
				}
			}
			return nil
		},
	}
	return cmd
}
