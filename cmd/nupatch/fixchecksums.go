package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nupatch/internal/integrity"
)

func newFixChecksumsCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fix-checksums",
		Aliases: []string{"fc"},
		Short:   "Recalculate all product manifest checksums",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}
			if app.Paths.ProductJSON == "" || app.Paths.AppDir == "" {
				return fmt.Errorf("product manifest not found; is Cursor installed?")
			}

			result, err := integrity.FixChecksums(app.Paths.ProductJSON, app.Paths.AppDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range result.Entries {
				switch e.Status {
				case integrity.FixUpdated:
					fmt.Fprintf(out, "  %s  %s\n", okStyle.Render("  OK"), e.RelPath+" (updated)")
				case integrity.FixMissing:
					fmt.Fprintf(out, "  %s  %s\n", skipStyle.Render("MISS"), e.RelPath)
				default:
					fmt.Fprintf(out, "  %s  %s\n", skipStyle.Render("SKIP"), e.RelPath)
				}
			}
			fmt.Fprintf(out, "updated %d checksum(s)\n", result.ChangedCount)
			return nil
		},
	}
	return cmd
}
