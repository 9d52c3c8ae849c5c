package patch

import (
	"os"
	"path/filepath"
	"strings"

	"nupatch/internal/discover"
	"nupatch/internal/integrity"
	"nupatch/internal/model"
	"nupatch/internal/paths"
)

// Status assembles a read-only snapshot of the current patch and integrity
// state. It never modifies files.
func Status(p paths.Paths) model.PatchStatus {
	var status model.PatchStatus

	if p.CLIIndex != "" {
		status.CLI = componentStatus(p.CLIIndex, CLIPlan)
	}
	if p.IDEMain != "" {
		status.IDE = componentStatus(p.IDEMain, IDEPlan)
	}

	if p.IDEMain != "" && p.ExtHost != "" {
		if mainHash, err := integrity.Sha256Hex(p.IDEMain); err == nil {
			if hostRaw, err := os.ReadFile(p.ExtHost); err == nil {
				matches := strings.Contains(string(hostRaw), mainHash)
				status.Integrity.HostHashMatches = &matches
			}
		}
	}
	if p.ProductJSON != "" && p.AppDir != "" {
		status.Integrity.ManifestChecksumsOK = integrity.ChecksumsAllMatch(p.ProductJSON, p.AppDir)
	}

	return status
}

func componentStatus(path string, plan Plan) model.ComponentStatus {
	cs := model.ComponentStatus{Path: filepath.Base(path)}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cs
	}
	cs.Exists = true

	if _, err := os.Stat(integrity.BakPath(path)); err == nil {
		cs.BackupExists = true
	}

	flags, ok := discover.QuickDetect(string(raw))
	if !ok {
		return cs
	}

	cs.Patches = map[string]bool{}
	for _, st := range plan.Steps {
		if present, known := flagForStep(st.Name, flags); known {
			cs.Patches[st.Name] = present
		}
	}
	return cs
}

// flagForStep maps a step name to its presence flag. The shell-path-fallback
// step has no independent flag; its presence folds into the quick-detect
// predicate via the resolution-call marker, so it is omitted here.
func flagForStep(name string, f discover.Flags) (bool, bool) {
	switch name {
	case StepNuDetection:
		return f.NuDetection, true
	case StepSystemNuDetection:
		return f.SystemNu, true
	case StepNaiveCase:
		return f.NaiveCase, true
	case StepUserTerminalHint:
		return f.UserTerminalHint, true
	default:
		return false, false
	}
}

// RevertAll restores every patched file from its `.bak` backup.
func RevertAll(p paths.Paths) model.RevertResult {
	var result model.RevertResult
	for _, target := range []string{p.CLIIndex, p.IDEMain, p.ExtHost, p.ProductJSON} {
		if target == "" {
			continue
		}
		restored, err := integrity.RestoreFromBackup(target)
		if err != nil {
			restored = false
		}
		result.Files = append(result.Files, model.RevertFileResult{
			Filename: filepath.Base(target),
			Restored: restored,
		})
	}
	return result
}
