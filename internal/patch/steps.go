// Package patch implements the patch steps, plan configuration, and the
// shared driver that sequences them over a target file.
package patch

import (
	"fmt"
	"strings"

	"nupatch/internal/discover"
	"nupatch/internal/model"
	"nupatch/internal/pattern"
)

// Step names are fixed; they key the plan configuration, the idempotency
// predicates, and the status output.
const (
	StepNuDetection       = "Nu detection"
	StepSystemNuDetection = "System nu detection"
	StepUserTerminalHint  = "userTerminalHint"
	StepNaiveCase         = "Naive case"
	StepShellPathFallback = "Shell path fallback"
)

// StepFunc is one idempotent text transformation. It returns the input text
// unchanged together with a failed or skipped result, or a newly allocated
// replacement together with a successful one.
type StepFunc func(code string, sym *discover.Symbols) (string, model.StepResult)

// splice inserts text at a byte offset.
func splice(code string, at int, insertion string) string {
	var b strings.Builder
	b.Grow(len(code) + len(insertion))
	b.WriteString(code[:at])
	b.WriteString(insertion)
	b.WriteString(code[at:])
	return b.String()
}

// contextSlice clamps [start, end) to the text bounds.
func contextSlice(code string, start, end int) string {
	return code[max(start, 0):min(end, len(code))]
}

func insertionDetail(newCode, insertion string, at int) string {
	ctx := contextSlice(newCode, at-40, at+len(insertion)+60)
	return fmt.Sprintf("Insertion: %s\nContext:   ...%s...", insertion, ctx)
}

// nuDetection splices an includes("nu") check into detectShellType,
// immediately before the PowerShell condition.
func nuDetection(code string, sym *discover.Symbols) (string, model.StepResult) {
	if sym.Flags.NuDetection {
		return code, model.NewSkipped(StepNuDetection, "already present, skipped")
	}

	zshIdx := strings.Index(code, sym.HintVar+`.includes("zsh")`)
	if zshIdx < 0 {
		return code, model.NewFailed(StepNuDetection, "cannot locate detectShellType region")
	}

	// The pwsh check follows the zsh check within the same detection chain;
	// the window keeps the search from drifting into unrelated code.
	region := code[zshIdx:min(zshIdx+2000, len(code))]
	psIncludes := sym.HintVar + `.includes("pwsh")`
	psIdx := strings.Index(region, psIncludes)
	if psIdx < 0 {
		return code, model.NewFailed(StepNuDetection, fmt.Sprintf("cannot find %s in detectShellType", psIncludes))
	}

	insertAt := zshIdx + psIdx
	insertion := fmt.Sprintf(`%s.includes("nu")?%s.Naive:`, sym.HintVar, sym.EnumVar)

	// Guard against a previous non-idempotent partial application.
	if strings.HasPrefix(code[insertAt:], insertion) {
		return code, model.NewSkipped(StepNuDetection, "already present at insertion point, skipped")
	}

	newCode := splice(code, insertAt, insertion)
	return newCode, model.NewSuccess(StepNuDetection, "inserted before PowerShell check").
		WithDetail(insertionDetail(newCode, insertion, insertAt))
}

// systemNuDetection splices a <cmdExists>("nu") PATH check before the final
// fallback of detectShellType, so nushell-on-PATH wins over the fallback
// even when the hint and environment don't mention it.
func systemNuDetection(code string, sym *discover.Symbols) (string, model.StepResult) {
	if sym.Flags.SystemNu {
		return code, model.NewSkipped(StepSystemNuDetection, "already present, skipped")
	}
	if sym.CmdExistsFn == "" {
		return code, model.NewFailed(StepSystemNuDetection, "cannot find commandExists helper function")
	}

	// The detection chain ends with ?<enum>.PowerShell:<enum>.Naive}. The
	// last occurrence targets the final fallback, not an earlier duplicate.
	tail := fmt.Sprintf("%s.PowerShell:%s.Naive}", sym.EnumVar, sym.EnumVar)
	tailIdx := strings.LastIndex(code, tail)
	if tailIdx < 0 {
		return code, model.NewFailed(StepSystemNuDetection, fmt.Sprintf("cannot find `%s` at end of detectShellType", tail))
	}

	insertAt := tailIdx + len(sym.EnumVar+".PowerShell:")
	insertion := fmt.Sprintf(`%s("nu")?%s.Naive:`, sym.CmdExistsFn, sym.EnumVar)

	newCode := splice(code, insertAt, insertion)
	ctx := contextSlice(newCode, insertAt-40, insertAt+len(insertion)+40)
	detail := fmt.Sprintf("Insertion: %s\nContext:   ...%s...", insertion, ctx)
	return newCode, model.NewSuccess(StepSystemNuDetection, "inserted PATH-based nu check before final fallback").
		WithDetail(detail)
}

// userTerminalHint widens the shell resolution fallback chain so the agent
// respects the user's configured default terminal: X?.shell?? becomes
// X?.shell??X?.userTerminalHint??.
func userTerminalHint(code string, sym *discover.Symbols) (string, model.StepResult) {
	if sym.Flags.UserTerminalHint {
		return code, model.NewSkipped(StepUserTerminalHint, "already present, skipped")
	}

	re := pattern.Fixed(`(\w+)\?\.shell\?\?(?!\w+\?\.userTerminalHint)`)
	m, ok := pattern.FirstMatch(re, code)
	if !ok {
		return code, model.NewFailed(StepUserTerminalHint, "cannot find ?.shell?? pattern")
	}

	shellVar := pattern.Group(m, 1)
	find := shellVar + "?.shell??"
	replace := find + shellVar + "?.userTerminalHint??"

	newCode := strings.Replace(code, find, replace, 1)
	detail := fmt.Sprintf("Find:    %s\nReplace: %s", find, replace)
	return newCode, model.NewSuccess(StepUserTerminalHint, fmt.Sprintf("%s -> %s", find, replace)).
		WithDetail(detail)
}

// naiveCase adds a case <enum>.Naive: branch to the executor factory. The
// shell path resolves through a layered fallback chain: explicit hint, then
// PATH-resolved nu, then $SHELL, then /bin/sh.
func naiveCase(code string, sym *discover.Symbols) (string, model.StepResult) {
	if sym.Flags.NaiveCase {
		return code, model.NewSkipped(StepNaiveCase, "already exists, skipped")
	}
	if sym.LazyExec == "" || sym.NaiveExec == "" {
		return code, model.NewFailed(StepNaiveCase, fmt.Sprintf(
			"cannot construct Naive case (lazyExec=%q, naiveExec=%q)", sym.LazyExec, sym.NaiveExec))
	}
	if sym.FindExecCall == "" {
		return code, model.NewFailed(StepNaiveCase, "cannot find executable-resolution call pattern")
	}

	// The options variable from the surrounding switch context.
	optsVar := "t"
	if m, ok := pattern.FirstMatch(pattern.Fixed(`switch\(\w+\((\w+)\?\.userTerminalHint`), code); ok {
		optsVar = pattern.Group(m, 1)
	}

	// The resolution call returns {cmd: "nu"} when nu is NOT on PATH (cmd
	// equals the input), so _np!=="nu" distinguishes found from not-found.
	insertion := fmt.Sprintf(
		`case %[1]s.Naive:{const _np=%[2]s("nu",[]).cmd;return new %[3]s(Promise.resolve(new %[4]s(process.cwd(),{shell:%[5]s?.userTerminalHint||(_np!=="nu"?_np:void 0)||process.env.SHELL||"/bin/sh",...%[5]s})))}`,
		sym.EnumVar, sym.FindExecCall, sym.LazyExec, sym.NaiveExec, optsVar,
	)

	zshCase := fmt.Sprintf("case %s.Zsh:", sym.EnumVar)
	searchFrom := strings.Index(code, zshCase)
	if searchFrom < 0 {
		return code, model.NewFailed(StepNaiveCase, "cannot find executor factory")
	}

	// Two-tier insertion point: before default: when it appears within the
	// lookahead window (an unrelated later default: must not match), else
	// before the ZshLight case.
	var insertAt int
	var label string
	defaultIdx := strings.Index(code[searchFrom:], "default:")
	zshLightIdx := strings.Index(code[searchFrom:], fmt.Sprintf("case %s.ZshLight:", sym.EnumVar))
	switch {
	case defaultIdx >= 0 && defaultIdx < 10000:
		insertAt = searchFrom + defaultIdx
		label = "before default:"
	case zshLightIdx >= 0:
		insertAt = searchFrom + zshLightIdx
		label = "before ZshLight"
	default:
		return code, model.NewFailed(StepNaiveCase, "cannot find insertion point for Naive case")
	}

	newCode := splice(code, insertAt, insertion)
	return newCode, model.NewSuccess(StepNaiveCase, "inserted "+label).
		WithDetail("Insertion: " + insertion)
}

// shellPathFallback fixes getShellExecutablePath: adds a Naive case that
// resolves nushell from PATH, and replaces the default branch with one that
// returns a Windows-appropriate shell instead of /bin/sh.
func shellPathFallback(code string, sym *discover.Symbols) (string, model.StepResult) {
	if sym.FindExecCall == "" {
		return code, model.NewFailed(StepShellPathFallback, "cannot find executable-resolution call pattern")
	}

	// Already patched when the Naive branch's resolution call is present.
	if strings.Contains(code, sym.FindExecCall+`("nu",[])`) {
		return code, model.NewSkipped(StepShellPathFallback, "already patched, skipped")
	}

	find := `default:return process.env.SHELL||"/bin/sh"`
	switch n := strings.Count(code, find); {
	case n == 0:
		return code, model.NewFailed(StepShellPathFallback, fmt.Sprintf("cannot find `%s` pattern", find))
	case n > 1:
		return code, model.NewFailed(StepShellPathFallback, fmt.Sprintf("pattern `%s` is ambiguous (%d occurrences)", find, n))
	}

	// Guard against a coincidental literal elsewhere: the enclosing function
	// mentions the resolution helper or the PowerShell branch just before it.
	idx := strings.Index(code, find)
	window := contextSlice(code, idx-500, idx)
	if !strings.Contains(window, "findActualExecutable") && !strings.Contains(window, "PowerShell") {
		return code, model.NewFailed(StepShellPathFallback, "found pattern but not in getShellExecutablePath context")
	}

	replace := fmt.Sprintf(
		`case %[1]s.Naive:{const _np=%[2]s("nu",[]).cmd;if(_np!=="nu")return _np}default:return process.env.SHELL||("win32"===process.platform?ne():"/bin/sh")`,
		sym.EnumVar, sym.FindExecCall,
	)

	newCode := strings.Replace(code, find, replace, 1)
	detail := fmt.Sprintf("Find:    %s\nReplace: %s", find, replace)
	return newCode, model.NewSuccess(StepShellPathFallback, "added Naive case with PATH-based nu discovery").
		WithDetail(detail)
}
