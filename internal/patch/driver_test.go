package patch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"nupatch/internal/integrity"
	"nupatch/internal/model"
)

func writeTarget(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readTarget(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func stepNames(res model.PatchResult) []string {
	names := make([]string, 0, len(res.Steps))
	for _, s := range res.Steps {
		names = append(names, s.Name)
	}
	return names
}

func TestRunCLIPlan(t *testing.T) {
	t.Parallel()

	t.Run("patches an unpatched bundle", func(t *testing.T) {
		t.Parallel()
		path := writeTarget(t, "index.js", cliBundle)

		res := Run(path, false, CLIPlan, nil)
		require.True(t, res.Success)
		require.Equal(t, []string{
			"Pattern discovery", StepNuDetection, StepSystemNuDetection, StepNaiveCase, "Write",
		}, stepNames(res))
		for _, s := range res.Steps {
			require.Equal(t, model.StatusSuccess, s.Status, s.Name)
		}

		patched := readTarget(t, path)
		require.Contains(t, patched, `n.includes("nu")?y.Naive:n.includes("pwsh")`)
		require.Contains(t, patched, `Fe("nu")?y.Naive:y.Naive}`)
		require.Contains(t, patched, `case y.Naive:{const _np=`)

		// One backup alongside the target, holding the pre-run content.
		require.Equal(t, cliBundle, readTarget(t, integrity.BakPath(path)))
	})

	t.Run("second run short-circuits without touching disk", func(t *testing.T) {
		t.Parallel()
		path := writeTarget(t, "index.js", cliBundle)
		require.True(t, Run(path, false, CLIPlan, nil).Success)
		patched := readTarget(t, path)

		res := Run(path, false, CLIPlan, nil)
		require.True(t, res.Success)
		require.Equal(t, []string{
			"Pattern discovery", StepNuDetection, StepSystemNuDetection, StepNaiveCase,
		}, stepNames(res))
		for _, s := range res.Steps[1:] {
			require.Equal(t, model.StatusSkipped, s.Status, s.Name)
		}

		require.Equal(t, patched, readTarget(t, path))
		require.Equal(t, cliBundle, readTarget(t, integrity.BakPath(path)))
	})

	t.Run("dry run leaves disk untouched", func(t *testing.T) {
		t.Parallel()
		path := writeTarget(t, "index.js", cliBundle)

		res := Run(path, true, CLIPlan, nil)
		require.True(t, res.Success)

		last := res.Steps[len(res.Steps)-1]
		require.Equal(t, "Write", last.Name)
		require.Equal(t, model.StatusSkipped, last.Status)
		require.Contains(t, last.Message, "would write")
		require.Contains(t, last.Detail, "{+")

		require.Equal(t, cliBundle, readTarget(t, path))
		_, err := os.Stat(integrity.BakPath(path))
		require.True(t, os.IsNotExist(err))
	})

	t.Run("dry run computes the same step outcomes as a live run", func(t *testing.T) {
		t.Parallel()
		dryPath := writeTarget(t, "index.js", cliBundle)
		livePath := writeTarget(t, "index.js", cliBundle)

		dry := Run(dryPath, true, CLIPlan, nil)
		live := Run(livePath, false, CLIPlan, nil)
		require.True(t, dry.Success)
		require.True(t, live.Success)
		require.Equal(t, len(live.Steps), len(dry.Steps))
		for i := range dry.Steps[:len(dry.Steps)-1] {
			require.Equal(t, live.Steps[i].Name, dry.Steps[i].Name)
			require.Equal(t, live.Steps[i].Status, dry.Steps[i].Status)
		}
	})

	t.Run("missing target fails at the read step", func(t *testing.T) {
		t.Parallel()
		res := Run(filepath.Join(t.TempDir(), "absent.js"), false, CLIPlan, nil)
		require.False(t, res.Success)
		require.Len(t, res.Steps, 1)
		require.Equal(t, "Read", res.Steps[0].Name)
		require.Equal(t, model.StatusFailed, res.Steps[0].Status)
	})

	t.Run("discovery failure is the sole failing step", func(t *testing.T) {
		t.Parallel()
		path := writeTarget(t, "index.js", "var x=1;")

		res := Run(path, false, CLIPlan, nil)
		require.False(t, res.Success)
		require.Len(t, res.Steps, 1)
		require.Equal(t, "Pattern discovery", res.Steps[0].Name)
		require.Equal(t, model.StatusFailed, res.Steps[0].Status)

		require.Equal(t, "var x=1;", readTarget(t, path))
	})

	t.Run("a mid-sequence failure never reaches disk", func(t *testing.T) {
		t.Parallel()
		// Degrading the helper body breaks its anchor, so the System nu step
		// fails after Nu detection already rewrote the in-memory buffer.
		broken := strings.Replace(cliBundle, "function Fe(e){try{return", "function Fe(e){return", 1)
		path := writeTarget(t, "index.js", broken)

		res := Run(path, false, CLIPlan, nil)
		require.False(t, res.Success)
		require.Equal(t, []string{
			"Pattern discovery", StepNuDetection, StepSystemNuDetection,
		}, stepNames(res))
		require.Equal(t, model.StatusSuccess, res.Steps[1].Status)
		require.Equal(t, model.StatusFailed, res.Steps[2].Status)

		require.Equal(t, broken, readTarget(t, path))
	})
}

func TestRunIDEPlan(t *testing.T) {
	t.Parallel()

	t.Run("patches and is idempotent", func(t *testing.T) {
		t.Parallel()
		path := writeTarget(t, "main.js", ideBundle)

		first := Run(path, false, IDEPlan, nil)
		require.True(t, first.Success)
		require.Equal(t, []string{
			"Pattern discovery", StepNuDetection, StepSystemNuDetection,
			StepUserTerminalHint, StepShellPathFallback, "Write",
		}, stepNames(first))
		patched := readTarget(t, path)
		require.Contains(t, patched, `e?.shell??e?.userTerminalHint??`)
		require.Contains(t, patched, `("nu",[]).cmd;if(_np!=="nu")return _np}default:`)

		second := Run(path, false, IDEPlan, nil)
		require.True(t, second.Success)
		require.Equal(t, []string{
			"Pattern discovery", StepNuDetection, StepSystemNuDetection,
			StepUserTerminalHint, StepShellPathFallback,
		}, stepNames(second))
		for _, s := range second.Steps[1:] {
			require.Equal(t, model.StatusSkipped, s.Status, s.Name)
		}
		require.Equal(t, patched, readTarget(t, path))
	})

	t.Run("restores from backup before patching", func(t *testing.T) {
		t.Parallel()
		path := writeTarget(t, "main.js", ideBundle)
		require.True(t, Run(path, false, IDEPlan, nil).Success)
		patched := readTarget(t, path)

		// A tampered live file (say, mangled by an update or another tool)
		// is thrown away in favor of the pristine backup.
		require.NoError(t, os.WriteFile(path, []byte("/* tampered */"), 0o644))

		res := Run(path, false, IDEPlan, nil)
		require.True(t, res.Success)
		require.Equal(t, patched, readTarget(t, path))
		require.Equal(t, ideBundle, readTarget(t, integrity.BakPath(path)))
	})

	t.Run("dry run does not restore", func(t *testing.T) {
		t.Parallel()
		path := writeTarget(t, "main.js", ideBundle)
		require.True(t, Run(path, false, IDEPlan, nil).Success)

		require.NoError(t, os.WriteFile(path, []byte("/* tampered */"), 0o644))
		res := Run(path, true, IDEPlan, nil)
		require.False(t, res.Success)
		require.Equal(t, "/* tampered */", readTarget(t, path))
	})
}

func TestRunDoesNotRestoreForCLIPlan(t *testing.T) {
	t.Parallel()

	path := writeTarget(t, "index.js", cliBundle)
	require.True(t, Run(path, false, CLIPlan, nil).Success)

	require.NoError(t, os.WriteFile(path, []byte("/* tampered */"), 0o644))

	res := Run(path, false, CLIPlan, nil)
	require.False(t, res.Success)
	require.Equal(t, "/* tampered */", readTarget(t, path))
	require.Equal(t, cliBundle, readTarget(t, integrity.BakPath(path)))
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	t.Run("preserves existing permissions", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "main.js")
		require.NoError(t, os.WriteFile(path, []byte("before"), 0o755))

		require.NoError(t, writeFileAtomic(path, []byte("after")))
		require.Equal(t, "after", readTarget(t, path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, "main.js")
		require.NoError(t, writeFileAtomic(path, []byte("content")))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "main.js", entries[0].Name())
	})
}
