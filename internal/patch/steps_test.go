package patch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"nupatch/internal/discover"
	"nupatch/internal/model"
)

// cliBundle mimics the shell-detection region of a minified CLI agent:
// enum IIFE, command-exists helper, detectShellType, naive executor
// constructor, and the executor factory switch.
const cliBundle = `var y=(e=>(e[e.Zsh=0]="Zsh",e[e.Bash=1]="Bash",e[e.PowerShell=2]="PowerShell",e[e.Naive=3]="Naive",e))(y||{});function Fe(e){try{return(0,a0.findActualExecutable)(e,[]).cmd!==e}catch{return!1}}function Qe(e){const n=(e??process.env.TERM_PROGRAM??"").toLowerCase();return n.includes("zsh")?y.Zsh:n.includes("bash")?y.Bash:n.includes("pwsh")||n.includes("powershell")?y.PowerShell:Fe("pwsh")||Fe("powershell")?y.PowerShell:y.Naive}function tt(e){const r=e?.shell??process.env.SHELL??"/bin/bash";return new He(process.cwd(),{shell:r,...e})}function it(e,i){switch(Qe(i?.userTerminalHint??e)){case y.Zsh:return new We(Promise.resolve(tt(i)));case y.Bash:return new We(Promise.resolve(tt(i)));default:return new We(Promise.resolve(tt(i)))}}`

// ideBundle adds the getShellExecutablePath switch the IDE agent carries.
const ideBundle = `var y=(e=>(e[e.Zsh=0]="Zsh",e[e.Bash=1]="Bash",e[e.PowerShell=2]="PowerShell",e[e.Naive=3]="Naive",e))(y||{});function Fe(e){try{return(0,a0.findActualExecutable)(e,[]).cmd!==e}catch{return!1}}function Qe(e){const n=(e??process.env.TERM_PROGRAM??"").toLowerCase();return n.includes("zsh")?y.Zsh:n.includes("bash")?y.Bash:n.includes("pwsh")||n.includes("powershell")?y.PowerShell:Fe("pwsh")||Fe("powershell")?y.PowerShell:y.Naive}function tt(e){const r=e?.shell??process.env.SHELL??"/bin/bash";return new He(process.cwd(),{shell:r,...e})}function rt(e){switch(e){case y.Zsh:return"/bin/zsh";case y.Bash:return"/bin/bash";case y.PowerShell:return ot();default:return process.env.SHELL||"/bin/sh"}}function it(e,i){switch(Qe(i?.userTerminalHint??e)){case y.Zsh:return new We(Promise.resolve(tt(i)));case y.Bash:return new We(Promise.resolve(tt(i)));default:return new We(Promise.resolve(tt(i)))}}`

func mustDiscover(t *testing.T, code string) *discover.Symbols {
	t.Helper()
	sym, err := discover.Discover(code)
	require.NoError(t, err)
	return sym
}

func TestNuDetection(t *testing.T) {
	t.Parallel()

	t.Run("inserts the nu check before the pwsh check", func(t *testing.T) {
		t.Parallel()
		sym := mustDiscover(t, cliBundle)
		out, res := nuDetection(cliBundle, sym)
		require.Equal(t, model.StatusSuccess, res.Status)
		require.Contains(t, out, `n.includes("nu")?y.Naive:n.includes("pwsh")`)
		require.NotEmpty(t, res.Detail)
	})

	t.Run("skips once the check is present", func(t *testing.T) {
		t.Parallel()
		out, res := nuDetection(cliBundle, mustDiscover(t, cliBundle))
		require.Equal(t, model.StatusSuccess, res.Status)

		again, res2 := nuDetection(out, mustDiscover(t, out))
		require.Equal(t, model.StatusSkipped, res2.Status)
		require.Equal(t, out, again)
	})

	t.Run("fails when the pwsh check is missing", func(t *testing.T) {
		t.Parallel()
		code := `const n=e.toLowerCase();return n.includes("zsh")?y.Zsh:y.Naive`
		out, res := nuDetection(code, mustDiscover(t, code))
		require.Equal(t, model.StatusFailed, res.Status)
		require.Equal(t, code, out)
	})
}

func TestSystemNuDetection(t *testing.T) {
	t.Parallel()

	t.Run("inserts the PATH check before the final fallback", func(t *testing.T) {
		t.Parallel()
		out, res := systemNuDetection(cliBundle, mustDiscover(t, cliBundle))
		require.Equal(t, model.StatusSuccess, res.Status)
		require.Contains(t, out, `y.PowerShell:Fe("nu")?y.Naive:y.Naive}`)
	})

	t.Run("skips once the check is present", func(t *testing.T) {
		t.Parallel()
		out, res := systemNuDetection(cliBundle, mustDiscover(t, cliBundle))
		require.Equal(t, model.StatusSuccess, res.Status)

		again, res2 := systemNuDetection(out, mustDiscover(t, out))
		require.Equal(t, model.StatusSkipped, res2.Status)
		require.Equal(t, out, again)
	})

	t.Run("fails without the commandExists helper", func(t *testing.T) {
		t.Parallel()
		code := `const n=e;return n.includes("zsh")?y.Zsh:y.PowerShell:y.Naive}`
		out, res := systemNuDetection(code, mustDiscover(t, code))
		require.Equal(t, model.StatusFailed, res.Status)
		require.Equal(t, code, out)
		require.Contains(t, res.Message, "commandExists")
	})

	t.Run("fails without the fallback tail", func(t *testing.T) {
		t.Parallel()
		code := `function Fe(e){try{return(0,a0.findActualExecutable)(e,[]).cmd!==e}catch{return!1}}const n=e;return n.includes("zsh")?y.Zsh:y.Naive`
		out, res := systemNuDetection(code, mustDiscover(t, code))
		require.Equal(t, model.StatusFailed, res.Status)
		require.Equal(t, code, out)
	})
}

func TestUserTerminalHint(t *testing.T) {
	t.Parallel()

	t.Run("widens the shell fallback chain", func(t *testing.T) {
		t.Parallel()
		out, res := userTerminalHint(ideBundle, mustDiscover(t, ideBundle))
		require.Equal(t, model.StatusSuccess, res.Status)
		require.Contains(t, out, `e?.shell??e?.userTerminalHint??process.env.SHELL`)
	})

	t.Run("skips once the chain is widened", func(t *testing.T) {
		t.Parallel()
		out, res := userTerminalHint(ideBundle, mustDiscover(t, ideBundle))
		require.Equal(t, model.StatusSuccess, res.Status)

		again, res2 := userTerminalHint(out, mustDiscover(t, out))
		require.Equal(t, model.StatusSkipped, res2.Status)
		require.Equal(t, out, again)
		require.Equal(t, 1, strings.Count(again, "?.userTerminalHint??process.env.SHELL"))
	})

	t.Run("fails without a shell fallback read", func(t *testing.T) {
		t.Parallel()
		code := `const n=e;return n.includes("zsh")?y.Zsh:y.Naive`
		out, res := userTerminalHint(code, mustDiscover(t, code))
		require.Equal(t, model.StatusFailed, res.Status)
		require.Equal(t, code, out)
	})
}

func TestNaiveCase(t *testing.T) {
	t.Parallel()

	t.Run("inserts the Naive branch before default", func(t *testing.T) {
		t.Parallel()
		out, res := naiveCase(cliBundle, mustDiscover(t, cliBundle))
		require.Equal(t, model.StatusSuccess, res.Status)
		require.Contains(t, res.Message, "before default:")
		require.Contains(t, out, `case y.Naive:{const _np=(0,a0.findActualExecutable)("nu",[]).cmd;return new We(Promise.resolve(new He(process.cwd(),{shell:i?.userTerminalHint||(_np!=="nu"?_np:void 0)||process.env.SHELL||"/bin/sh",...i})))}default:`)
	})

	t.Run("skips once the branch exists", func(t *testing.T) {
		t.Parallel()
		out, res := naiveCase(cliBundle, mustDiscover(t, cliBundle))
		require.Equal(t, model.StatusSuccess, res.Status)

		again, res2 := naiveCase(out, mustDiscover(t, out))
		require.Equal(t, model.StatusSkipped, res2.Status)
		require.Equal(t, out, again)
	})

	t.Run("falls back to the ZshLight case when default is out of range", func(t *testing.T) {
		t.Parallel()
		code := `t.includes("zsh")?y.Zsh:y.Naive;function Fe(e){try{return(0,a0.findActualExecutable)(e,[]).cmd!==e}catch{return!1}}new He(process.cwd(),{shell:r});switch(e){case y.Zsh:return new We(mk());case y.ZshLight:return new We(lt())` +
			strings.Repeat(";", 10000) + `default:return new We(ot())}`
		out, res := naiveCase(code, mustDiscover(t, code))
		require.Equal(t, model.StatusSuccess, res.Status)
		require.Contains(t, res.Message, "before ZshLight")
		naiveIdx := strings.Index(out, "case y.Naive:")
		lightIdx := strings.Index(out, "case y.ZshLight:")
		require.True(t, naiveIdx >= 0 && naiveIdx < lightIdx)
	})

	t.Run("fails when the executor classes are unknown", func(t *testing.T) {
		t.Parallel()
		code := `const n=e;return n.includes("zsh")?y.Zsh:y.Naive`
		out, res := naiveCase(code, mustDiscover(t, code))
		require.Equal(t, model.StatusFailed, res.Status)
		require.Equal(t, code, out)
	})
}

func TestShellPathFallback(t *testing.T) {
	t.Parallel()

	t.Run("rewrites the default branch of getShellExecutablePath", func(t *testing.T) {
		t.Parallel()
		out, res := shellPathFallback(ideBundle, mustDiscover(t, ideBundle))
		require.Equal(t, model.StatusSuccess, res.Status)
		require.Contains(t, out, `case y.Naive:{const _np=(0,a0.findActualExecutable)("nu",[]).cmd;if(_np!=="nu")return _np}default:return process.env.SHELL||("win32"===process.platform?ne():"/bin/sh")`)
		require.NotContains(t, out, `default:return process.env.SHELL||"/bin/sh"`)
	})

	t.Run("skips once the Naive resolution call is present", func(t *testing.T) {
		t.Parallel()
		sym := mustDiscover(t, ideBundle)
		out, res := shellPathFallback(ideBundle, sym)
		require.Equal(t, model.StatusSuccess, res.Status)

		again, res2 := shellPathFallback(out, sym)
		require.Equal(t, model.StatusSkipped, res2.Status)
		require.Equal(t, out, again)
	})

	t.Run("fails when the default branch literal is missing", func(t *testing.T) {
		t.Parallel()
		out, res := shellPathFallback(cliBundle, mustDiscover(t, cliBundle))
		require.Equal(t, model.StatusFailed, res.Status)
		require.Equal(t, cliBundle, out)
	})

	t.Run("fails when the literal occurs more than once", func(t *testing.T) {
		t.Parallel()
		code := ideBundle + `;function zt(){switch(e){case y.PowerShell:return ot();default:return process.env.SHELL||"/bin/sh"}}`
		out, res := shellPathFallback(code, mustDiscover(t, code))
		require.Equal(t, model.StatusFailed, res.Status)
		require.Equal(t, code, out)
		require.Contains(t, res.Message, "ambiguous")
	})

	t.Run("fails when the literal sits outside the expected context", func(t *testing.T) {
		t.Parallel()
		code := `t.includes("zsh")?y.Zsh:y.Naive;function Fe(e){try{return(0,a0.findActualExecutable)(e,[]).cmd!==e}catch{return!1}}` +
			strings.Repeat("x;", 300) + `default:return process.env.SHELL||"/bin/sh"`
		out, res := shellPathFallback(code, mustDiscover(t, code))
		require.Equal(t, model.StatusFailed, res.Status)
		require.Equal(t, code, out)
		require.Contains(t, res.Message, "context")
	})
}
