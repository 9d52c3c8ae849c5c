package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nupatch/internal/integrity"
)

type verifyOptions struct {
	jsonOutput bool
}

func newVerifyCmd(root *rootFlags) *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:     "verify",
		Aliases: []string{"v"},
		Short:   "Verify product manifest checksums against files on disk",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext(root)
			if err != nil {
				return err
			}
			if app.Paths.ProductJSON == "" || app.Paths.AppDir == "" {
				return fmt.Errorf("product manifest not found; is Cursor installed?")
			}

			result, err := integrity.VerifyChecksums(app.Paths.ProductJSON, app.Paths.AppDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(result); err != nil {
					return err
				}
			} else {
				for _, e := range result.Entries {
					switch {
					case e.Missing:
						fmt.Fprintf(out, "  %s  %s (missing)\n", skipStyle.Render("MISS"), e.RelPath)
					case e.Matches:
						fmt.Fprintf(out, "  %s  %s\n", okStyle.Render("  OK"), e.RelPath)
					default:
						fmt.Fprintf(out, "  %s  %s\n              expected %s\n              actual   %s\n",
							failStyle.Render("FAIL"), e.RelPath, e.Expected, e.Actual)
					}
				}
				renderOutcome(out, "Checksums", result.AllMatch)
			}

			if !result.AllMatch {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
