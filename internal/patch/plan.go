package patch

import (
	"nupatch/internal/discover"
)

// NamedStep pairs a step's fixed display name with its transformation.
type NamedStep struct {
	Name string
	Fn   StepFunc
}

// Plan is the static configuration for one category of target file: which
// ordered steps apply, how to decide the file is already fully patched, and
// whether to restore from backup first. The driver is configuration over
// behavior; both plans share it.
type Plan struct {
	Label string
	Steps []NamedStep
	// FullyPatched decides from the presence flags alone whether every
	// configured step is already applied.
	FullyPatched func(discover.Flags) bool
	// RestoreBeforePatch overwrites the live file from its backup before
	// patching, so patches always apply to a known-pristine baseline and
	// edits never compound across runs with different tool versions.
	RestoreBeforePatch bool
}

// CLIPlan patches the CLI agent: nu detection plus the Naive executor case.
var CLIPlan = Plan{
	Label: "CLI",
	Steps: []NamedStep{
		{StepNuDetection, nuDetection},
		{StepSystemNuDetection, systemNuDetection},
		{StepNaiveCase, naiveCase},
	},
	FullyPatched: func(f discover.Flags) bool {
		return f.NuDetection && f.SystemNu && f.NaiveCase
	},
	RestoreBeforePatch: false,
}

// IDEPlan patches the IDE agent: nu detection plus userTerminalHint wiring
// and the legacy shell-path fallback.
var IDEPlan = Plan{
	Label: "IDE",
	Steps: []NamedStep{
		{StepNuDetection, nuDetection},
		{StepSystemNuDetection, systemNuDetection},
		{StepUserTerminalHint, userTerminalHint},
		{StepShellPathFallback, shellPathFallback},
	},
	FullyPatched: func(f discover.Flags) bool {
		return f.NuDetection && f.SystemNu && f.UserTerminalHint
	},
	RestoreBeforePatch: true,
}
