// Package diff renders compact change previews. The patched files are
// single-line, megabyte-scale text, so a line-oriented unified diff would
// show one unreadable line; instead changes render word-diff style with
// elided context between hunks.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const defaultContext = 48

// Snippet returns a compact preview of the changes from before to after:
// insertions as {+text+}, deletions as [-text-], with long unchanged runs
// elided. Empty when the inputs are identical.
func Snippet(before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			b.WriteString(elide(d.Text))
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-")
			b.WriteString(d.Text)
			b.WriteString("-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+")
			b.WriteString(d.Text)
			b.WriteString("+}")
		}
	}
	return b.String()
}

func elide(text string) string {
	if len(text) <= 2*defaultContext {
		return text
	}
	return text[:defaultContext] + " ... " + text[len(text)-defaultContext:]
}
