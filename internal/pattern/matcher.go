// Package pattern wraps the backtracking regex engine used to locate anchors
// in minified source text. The target files are single lines that can exceed
// a million characters, and several anchors use look-around, so matchers are
// built on regexp2 rather than the stdlib RE2 engine, with a generous match
// budget instead of the default unbounded run.
package pattern

import (
	"sync"
	"time"

	"github.com/dlclark/regexp2"

	nuerrors "nupatch/pkg/errors"
)

// MatchBudget bounds a single match attempt. A pathological input runs to
// the budget, after which the match call fails and surfaces as a normal
// discovery or step failure, not a crash.
const MatchBudget = 10 * time.Second

// Compile builds a matcher for a pattern that interpolates runtime values.
// Interpolated identifiers must be escaped with Escape first.
func Compile(expr string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, nuerrors.NewPatternError(expr, err)
	}
	re.MatchTimeout = MatchBudget
	return re, nil
}

var fixedCache struct {
	mu sync.Mutex
	m  map[string]*regexp2.Regexp
}

// Fixed returns the process-wide cached matcher for a constant pattern,
// compiling it on first use. Panics on an invalid pattern; constant patterns
// are part of the program text, so failure is a programming error.
func Fixed(expr string) *regexp2.Regexp {
	fixedCache.mu.Lock()
	defer fixedCache.mu.Unlock()

	if fixedCache.m == nil {
		fixedCache.m = make(map[string]*regexp2.Regexp)
	}
	if re, ok := fixedCache.m[expr]; ok {
		return re
	}

	re, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	fixedCache.m[expr] = re
	return re
}

// Escape quotes regex metacharacters in a discovered identifier so it can be
// interpolated into a pattern without meta-character injection.
func Escape(s string) string {
	return regexp2.Escape(s)
}

// FirstMatch runs a matcher and folds regexp2's (match, error) pair into an
// option: a budget overrun reads the same as "anchor not found".
func FirstMatch(re *regexp2.Regexp, text string) (*regexp2.Match, bool) {
	m, err := re.FindStringMatch(text)
	if err != nil || m == nil {
		return nil, false
	}
	return m, true
}

// Group returns the text captured by group n, or "" if the group is absent.
func Group(m *regexp2.Match, n int) string {
	if m == nil {
		return ""
	}
	g := m.GroupByNumber(n)
	if g == nil {
		return ""
	}
	return g.String()
}

// Matches reports whether the matcher finds any match in text.
func Matches(re *regexp2.Regexp, text string) bool {
	ok, err := re.MatchString(text)
	return err == nil && ok
}
