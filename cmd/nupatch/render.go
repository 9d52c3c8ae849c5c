package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"nupatch/internal/model"
)

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func stepIcon(res model.StepResult) string {
	switch {
	case res.Skipped():
		return skipStyle.Render("SKIP")
	case res.OK():
		return okStyle.Render("  OK")
	default:
		return failStyle.Render("FAIL")
	}
}

func renderTitle(out io.Writer, title string) {
	fmt.Fprintln(out, titleStyle.Render(title))
}

// renderSteps prints one row per step; detail payloads print beneath their
// step when requested (dry-run preview or verbose).
func renderSteps(out io.Writer, result model.PatchResult, showDetail bool) {
	for _, step := range result.Steps {
		fmt.Fprintf(out, "  %s  %s: %s\n", stepIcon(step), step.Name, step.Message)
		if showDetail && step.Detail != "" {
			for _, line := range strings.Split(step.Detail, "\n") {
				fmt.Fprintln(out, detailStyle.Render(line))
			}
		}
	}
}

func renderOutcome(out io.Writer, label string, success bool) {
	if success {
		fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("%s: success", label)))
		return
	}
	fmt.Fprintln(out, failStyle.Render(fmt.Sprintf("%s: failed", label)))
}

func yesNo(v bool) string {
	if v {
		return okStyle.Render("yes")
	}
	return failStyle.Render("no")
}

func optionalCheck(v *bool) string {
	if v == nil {
		return skipStyle.Render("n/a")
	}
	if *v {
		return okStyle.Render("match")
	}
	return failStyle.Render("mismatch")
}

func renderComponentStatus(out io.Writer, label string, cs model.ComponentStatus) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(label))
	if !cs.Exists {
		fmt.Fprintf(&b, "  not found\n")
		fmt.Fprintln(out, panelStyle.Render(strings.TrimRight(b.String(), "\n")))
		return
	}
	fmt.Fprintf(&b, "  file:    %s\n", cs.Path)
	fmt.Fprintf(&b, "  backup:  %s\n", yesNo(cs.BackupExists))
	for _, name := range orderedPatchNames(cs.Patches) {
		fmt.Fprintf(&b, "  %-24s %s\n", name+":", yesNo(cs.Patches[name]))
	}
	fmt.Fprintln(out, panelStyle.Render(strings.TrimRight(b.String(), "\n")))
}

func orderedPatchNames(patches map[string]bool) []string {
	// Stable display order matching the plans.
	known := []string{"Nu detection", "System nu detection", "Naive case", "userTerminalHint"}
	var names []string
	for _, n := range known {
		if _, ok := patches[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

func renderIntegrityStatus(out io.Writer, is model.IntegrityStatus) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render("Integrity"))
	fmt.Fprintf(&b, "  host hash:          %s\n", optionalCheck(is.HostHashMatches))
	fmt.Fprintf(&b, "  manifest checksums: %s\n", optionalCheck(is.ManifestChecksumsOK))
	fmt.Fprintln(out, panelStyle.Render(strings.TrimRight(b.String(), "\n")))
}
