package patch

import (
	"fmt"
	"os"
	"path/filepath"

	"nupatch/internal/discover"
	"nupatch/internal/integrity"
	"nupatch/internal/logger"
	"nupatch/internal/model"
	"nupatch/pkg/diff"
	nuerrors "nupatch/pkg/errors"
)

const discoveryStepName = "Pattern discovery"

// Run applies a plan to one target file. The run is synchronous and owns the
// text buffer exclusively; the only disk mutations are the one-time backup
// copy and the single final write, so partial application never reaches
// disk. In dry-run mode nothing on disk changes, but all discovery and step
// computation still executes.
func Run(path string, dryRun bool, plan Plan, log *logger.Logger) model.PatchResult {
	liveRaw, err := os.ReadFile(path)
	if err != nil {
		return model.Fail(model.NewFailed("Read", fmt.Sprintf("failed to read %s agent: %v", plan.Label, err)))
	}

	// Quick short-circuit when already fully patched: no backup, no restore,
	// no write, even outside dry-run.
	if flags, ok := discover.QuickDetect(string(liveRaw)); ok && plan.FullyPatched(flags) {
		log.WithFields(map[string]any{"plan": plan.Label, "path": path}).Debug("target already fully patched")
		steps := []model.StepResult{model.NewSuccess(discoveryStepName, "discovered minified variable names")}
		for _, st := range plan.Steps {
			steps = append(steps, model.NewSkipped(st.Name, "already present, skipped"))
		}
		return model.PatchResult{Success: true, Steps: steps}
	}

	if !dryRun {
		if _, err := integrity.Backup(path); err != nil {
			return model.Fail(model.NewFailed("Backup", fmt.Sprintf("failed to create backup: %v", err)))
		}
		if plan.RestoreBeforePatch {
			if _, err := integrity.RestoreFromBackup(path); err != nil {
				return model.Fail(model.NewFailed("Restore", fmt.Sprintf("failed to restore from backup: %v", err)))
			}
		}
	}

	// Re-read: the file may have been restored from backup, and symbols must
	// come from the restored content.
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Fail(model.NewFailed("Read", fmt.Sprintf("failed to read %s agent: %v", plan.Label, err)))
	}
	original := string(raw)

	sym, err := discover.Discover(original)
	if err != nil {
		return model.Fail(model.NewFailed(discoveryStepName, err.Error()))
	}
	log.WithFields(map[string]any{"plan": plan.Label, "symbols": sym.Describe()}).Debug("discovered minified symbols")

	steps := []model.StepResult{
		model.NewSuccess(discoveryStepName, "discovered minified variable names").WithDetail(sym.Describe()),
	}

	code := original
	for _, st := range plan.Steps {
		next, res := st.Fn(code, sym)
		steps = append(steps, res)
		log.WithFields(map[string]any{"step": st.Name, "status": res.Status}).Debug(res.Message)
		if !res.OK() {
			return model.PatchResult{Success: false, Steps: steps}
		}
		code = next
	}

	name := filepath.Base(path)
	if dryRun {
		write := model.NewSkipped("Write", "would write: "+name)
		if snippet := diff.Snippet(original, code); snippet != "" {
			write = write.WithDetail(snippet)
		}
		steps = append(steps, write)
		return model.PatchResult{Success: true, Steps: steps}
	}

	if err := writeFileAtomic(path, []byte(code)); err != nil {
		log.WithFields(map[string]any{"plan": plan.Label, "path": path}).Error(err, "failed to write patched agent")
		steps = append(steps, model.NewFailed("Write", fmt.Sprintf("failed to write %s agent: %v", plan.Label, err)))
		return model.PatchResult{Success: false, Steps: steps}
	}
	steps = append(steps, model.NewSuccess("Write", "written: "+name))

	return model.PatchResult{Success: true, Steps: steps}
}

// writeFileAtomic writes through a temp file and rename so the target is
// never partially written. Preserves the target's existing permissions.
func writeFileAtomic(path string, data []byte) error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".nupatch-*")
	if err != nil {
		return nuerrors.NewWriteError(path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nuerrors.NewWriteError(path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nuerrors.NewWriteError(path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nuerrors.NewWriteError(path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nuerrors.NewWriteError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return nuerrors.NewWriteError(path, err)
	}
	return nil
}
