// Package discover recovers the minified identifiers the patch steps must
// reference. Identifier names are unstable across builds, so discovery keys
// off structural anchors that survive minification and renaming.
package discover

import (
	"fmt"
	"strings"

	"nupatch/internal/pattern"
	nuerrors "nupatch/pkg/errors"
)

const (
	// The detectShellType ternary: <hint>.includes("zsh")?<enum>.Zsh
	zshTernaryExpr = `(\w+)\.includes\("zsh"\)\?(\w+)\.Zsh`

	// The "command exists on PATH" helper:
	// function <name>(<arg>){try{return(0,<mod>.<fn>)(<arg>,[]).cmd!==<arg>}
	cmdExistsExpr = `function\s+(\w+)\(\w+\)\{try\{return(\(0,\w+\.\w+\))\(\w+,\[\]\)\.cmd!==\w+\}`

	// The userTerminalHint wiring installed by the patch. The trailing ??
	// distinguishes it from the original .userTerminalHint usage inside the
	// switch statement.
	userHintExpr = `\.shell\?\?\w+\?\.userTerminalHint\?\?`
)

// Flags are independent per-behavior presence booleans derived from the live
// file. A file may have any subset set.
type Flags struct {
	NaiveCase        bool
	NuDetection      bool
	SystemNu         bool
	UserTerminalHint bool
}

// Symbols records the identifiers and flags recovered from one build of the
// target file. Constructed fresh per patch run; never cached across files or
// across a restore-then-retry, because identifiers may legitimately differ
// between builds. All fields except HintVar and EnumVar are optional; ""
// means "helper not found in this build".
type Symbols struct {
	HintVar   string
	EnumVar   string
	LazyExec  string
	NaiveExec string
	// CmdExistsFn is the minified name of the "command exists on PATH"
	// helper function.
	CmdExistsFn string
	// FindExecCall is the verbatim `(0,<mod>.<fn>)` executable-resolution
	// call text, needed as-is for later insertions.
	FindExecCall string
	Flags        Flags
}

// Describe renders the discovered names for step detail output.
func (s *Symbols) Describe() string {
	return fmt.Sprintf(
		"hint=%s enum=%s lazyExec=%q naiveExec=%q cmdExists=%q findExec=%q naiveCase=%t nu=%t systemNu=%t userTerminalHint=%t",
		s.HintVar, s.EnumVar, s.LazyExec, s.NaiveExec,
		s.CmdExistsFn, s.FindExecCall,
		s.Flags.NaiveCase, s.Flags.NuDetection, s.Flags.SystemNu, s.Flags.UserTerminalHint,
	)
}

// Discover runs the full anchor sequence over the source text. The zsh
// ternary anchor is required; every other capture is optional and its
// absence only disables the steps that need it.
func Discover(code string) (*Symbols, error) {
	m, ok := pattern.FirstMatch(pattern.Fixed(zshTernaryExpr), code)
	if !ok {
		return nil, nuerrors.NewDiscoveryError("zsh ternary", `cannot find includes("zsh")?<enum>.Zsh pattern`)
	}

	s := &Symbols{
		HintVar: pattern.Group(m, 1),
		EnumVar: pattern.Group(m, 2),
	}
	enumEsc := pattern.Escape(s.EnumVar)

	// Lazy executor class from the Zsh factory case.
	reZshCase, err := pattern.Compile(`case\s*` + enumEsc + `\.Zsh\s*:.*?new\s+(\w+)\(`)
	if err != nil {
		return nil, err
	}
	if cm, ok := pattern.FirstMatch(reZshCase, code); ok {
		s.LazyExec = pattern.Group(cm, 1)
	}

	// Naive executor class. Three structural shapes, tried in order; the
	// first that matches wins.
	if strings.Contains(code, naiveCaseLiteral(s.EnumVar)) {
		reNaive, err := pattern.Compile(`case\s*` + enumEsc + `\.Naive\s*:.*?new\s+\w+\(.*?new\s+(\w+)\(`)
		if err != nil {
			return nil, err
		}
		if cm, ok := pattern.FirstMatch(reNaive, code); ok {
			s.NaiveExec = pattern.Group(cm, 1)
		}
	}
	if s.NaiveExec == "" {
		if cm, ok := pattern.FirstMatch(pattern.Fixed(`new\s+(\w+)\(process\.cwd\(\)\s*,\s*\{shell:`), code); ok {
			s.NaiveExec = pattern.Group(cm, 1)
		}
	}
	if s.NaiveExec == "" {
		if cm, ok := pattern.FirstMatch(pattern.Fixed(`new\s+(\w+)\(\w+,\s*\{\.\.\.\w+\s*,\s*shell\s*:`), code); ok {
			s.NaiveExec = pattern.Group(cm, 1)
		}
	}

	// Command-exists helper plus the verbatim resolution-call text.
	if cm, ok := pattern.FirstMatch(pattern.Fixed(cmdExistsExpr), code); ok {
		s.CmdExistsFn = pattern.Group(cm, 1)
		s.FindExecCall = pattern.Group(cm, 2)
	}

	s.Flags = deriveFlags(code, s.EnumVar, s.CmdExistsFn)
	return s, nil
}

// QuickDetect recovers only the presence flags, cheaply deciding whether a
// file is already in the target state without reconstructing the optional
// identifiers. Returns false when the required zsh anchor is absent.
func QuickDetect(code string) (Flags, bool) {
	m, ok := pattern.FirstMatch(pattern.Fixed(zshTernaryExpr), code)
	if !ok {
		return Flags{}, false
	}
	enumVar := pattern.Group(m, 2)

	cmdExistsFn := ""
	if cm, ok := pattern.FirstMatch(pattern.Fixed(cmdExistsExpr), code); ok {
		cmdExistsFn = pattern.Group(cm, 1)
	}

	return deriveFlags(code, enumVar, cmdExistsFn), true
}

func naiveCaseLiteral(enumVar string) string {
	return "case " + enumVar + ".Naive:"
}

// deriveFlags uses literal containment keyed off discovered names rather
// than separate regexes; the substring is unique once parameterized, which
// keeps false-positive risk low.
func deriveFlags(code, enumVar, cmdExistsFn string) Flags {
	f := Flags{
		NaiveCase:        strings.Contains(code, naiveCaseLiteral(enumVar)),
		NuDetection:      strings.Contains(code, `.includes("nu")?`+enumVar+`.Naive`),
		UserTerminalHint: pattern.Matches(pattern.Fixed(userHintExpr), code),
	}
	if cmdExistsFn != "" {
		f.SystemNu = strings.Contains(code, cmdExistsFn+`("nu")`)
	}
	return f
}
