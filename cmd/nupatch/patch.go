package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nupatch/internal/integrity"
	"nupatch/internal/patch"
)

type patchOptions struct {
	cliOnly bool
	ideOnly bool
}

func newPatchCmd(root *rootFlags) *cobra.Command {
	opts := patchOptions{}

	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Apply nushell patches to Cursor agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cliOnly && opts.ideOnly {
				return fmt.Errorf("--cli-only and --ide-only are mutually exclusive")
			}
			return runPatch(cmd, root, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.cliOnly, "cli-only", false, "Patch CLI agent only")
	cmd.Flags().BoolVar(&opts.ideOnly, "ide-only", false, "Patch IDE agent only")

	return cmd
}

func runPatch(cmd *cobra.Command, root *rootFlags, opts patchOptions) error {
	app, err := newAppContext(root)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	showDetail := root.dryRun || root.verbose

	if root.dryRun {
		fmt.Fprintln(out, skipStyle.Render("dry run: no files will be modified"))
	}

	allOK := true

	if !opts.ideOnly {
		renderTitle(out, "CLI agent")
		if app.Paths.CLIIndex == "" {
			fmt.Fprintln(out, skipStyle.Render("  CLI agent not found, skipping"))
		} else {
			result := patch.Run(app.Paths.CLIIndex, root.dryRun, patch.CLIPlan, app.Log)
			renderSteps(out, result, showDetail)
			renderOutcome(out, "CLI agent", result.Success)
			allOK = allOK && result.Success
		}
	}

	if !opts.cliOnly {
		renderTitle(out, "IDE agent")
		if app.Paths.IDEMain == "" {
			fmt.Fprintln(out, skipStyle.Render("  IDE agent not found, skipping"))
		} else {
			result := patch.Run(app.Paths.IDEMain, root.dryRun, patch.IDEPlan, app.Log)
			renderSteps(out, result, showDetail)
			renderOutcome(out, "IDE agent", result.Success)
			allOK = allOK && result.Success

			// The integrity chain is reconciled by the caller after every
			// successful live IDE run, even an all-skipped one: the agent may
			// already be patched while the host hash or manifest is stale.
			// A dry run must not touch it.
			if result.Success && !root.dryRun {
				renderTitle(out, "Integrity")
				p := app.Paths
				ir := integrity.UpdateIntegrity(p.IDEMain, p.ExtHost, p.ProductJSON, p.AppDir, false)
				renderSteps(out, ir, showDetail)
				renderOutcome(out, "Integrity", ir.Success)
				allOK = allOK && ir.Success
			}
		}
	}

	if !allOK {
		os.Exit(1)
	}
	return nil
}
