// Package integrity recomputes and persists the downstream hash chain after
// a successful patch: the agent hash embedded in the extension host
// bootstrap, and the product manifest checksums. It also owns the
// backup/restore primitives the patch driver relies on.
package integrity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"nupatch/internal/model"
	"nupatch/internal/pattern"
)

// The agent hash entry inside the extension host bootstrap:
// ...cursor-agent-exec...dist:{..."main.js":"<64 hex>"...
const hostHashExpr = `(cursor-agent-exec[^}]*dist:\{[^}]*"main\.js":")([a-f0-9]{64})(")`

// tabIndent converts 2-space indentation to tabs, only in leading
// whitespace, matching the manifest's original formatting. String values
// containing double spaces are left alone.
func tabIndent(jsonText string) string {
	lines := strings.Split(jsonText, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		depth := (len(line) - len(trimmed)) / 2
		lines[i] = strings.Repeat("\t", depth) + trimmed
	}
	return strings.Join(lines, "\n")
}

func loadManifest(productJSON string) (map[string]any, map[string]string, error) {
	data, err := os.ReadFile(productJSON)
	if err != nil {
		return nil, nil, err
	}
	var product map[string]any
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, nil, err
	}

	checksums := map[string]string{}
	if raw, ok := product["checksums"].(map[string]any); ok {
		for k, v := range raw {
			s, _ := v.(string)
			checksums[k] = s
		}
	}
	return product, checksums, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeManifest rewrites product.json without HTML-escaping, so string
// values holding URLs (`&`, `<`, `>`) survive the round trip verbatim.
func writeManifest(productJSON string, product map[string]any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(product); err != nil {
		return err
	}
	out := strings.TrimRight(buf.String(), "\n")
	return os.WriteFile(productJSON, []byte(tabIndent(out)), 0o644)
}

// UpdateIntegrity reconciles the hash chain after the IDE agent was patched:
// replaces the agent hash in the extension host bootstrap, then recomputes
// the product manifest checksums for files under the app's out/ directory.
// Returns a PatchResult in the same shape as the patch driver so callers
// handle one failure channel.
func UpdateIntegrity(ideMain, extHost, productJSON, appDir string, dryRun bool) model.PatchResult {
	var steps []model.StepResult

	if extHost == "" || productJSON == "" || appDir == "" {
		return model.Fail(model.NewFailed("Integrity", "missing extension host / manifest / app path"))
	}

	newMainHash, err := Sha256Hex(ideMain)
	if err != nil {
		return model.Fail(model.NewFailed("Compute hash", fmt.Sprintf("failed to hash agent: %v", err)))
	}
	steps = append(steps, model.NewSuccess("Compute hash", fmt.Sprintf("agent SHA-256: %s...", newMainHash[:16])))

	if !dryRun {
		if _, err := Backup(extHost); err != nil {
			return model.Fail(model.NewFailed("Host backup", fmt.Sprintf("failed to back up extension host: %v", err)))
		}
		if _, err := RestoreFromBackup(extHost); err != nil {
			return model.Fail(model.NewFailed("Host restore", fmt.Sprintf("failed to restore extension host: %v", err)))
		}
	}

	raw, err := os.ReadFile(extHost)
	if err != nil {
		return model.Fail(model.NewFailed("Host read", fmt.Sprintf("failed to read extension host: %v", err)))
	}
	hostCode := string(raw)

	if m, ok := pattern.FirstMatch(pattern.Fixed(hostHashExpr), hostCode); ok {
		oldHash := pattern.Group(m, 2)
		hostCode = strings.Replace(hostCode, oldHash, newMainHash, 1)
		steps = append(steps, model.NewSuccess("Host hash", "replaced agent hash in extension host"))
	} else {
		// Fallback: compute the old hash from the agent's backup and replace
		// it wherever it appears exactly once.
		bak := BakPath(ideMain)
		if _, statErr := os.Stat(bak); statErr != nil {
			steps = append(steps, model.NewFailed("Host hash", "cannot find hash map pattern or backup file"))
			return model.PatchResult{Success: false, Steps: steps}
		}
		oldHash, hashErr := Sha256Hex(bak)
		if hashErr != nil {
			steps = append(steps, model.NewFailed("Host hash", fmt.Sprintf("failed to hash backup: %v", hashErr)))
			return model.PatchResult{Success: false, Steps: steps}
		}
		if count := strings.Count(hostCode, oldHash); count != 1 {
			steps = append(steps, model.NewFailed("Host hash", fmt.Sprintf("old hash found %d time(s) (expected 1)", count)))
			return model.PatchResult{Success: false, Steps: steps}
		}
		hostCode = strings.Replace(hostCode, oldHash, newMainHash, 1)
		steps = append(steps, model.NewSuccess("Host hash", "replaced agent hash via backup comparison"))
	}

	if !dryRun {
		if err := os.WriteFile(extHost, []byte(hostCode), 0o644); err != nil {
			steps = append(steps, model.NewFailed("Host write", fmt.Sprintf("failed to write extension host: %v", err)))
			return model.PatchResult{Success: false, Steps: steps}
		}
	}

	if !dryRun {
		if _, err := Backup(productJSON); err != nil {
			steps = append(steps, model.NewFailed("Manifest backup", fmt.Sprintf("failed to back up manifest: %v", err)))
			return model.PatchResult{Success: false, Steps: steps}
		}
	}

	product, checksums, err := loadManifest(productJSON)
	if err != nil {
		steps = append(steps, model.NewFailed("Manifest checksums", fmt.Sprintf("failed to load manifest: %v", err)))
		return model.PatchResult{Success: false, Steps: steps}
	}
	checksumsOut, ok := product["checksums"].(map[string]any)
	if !ok {
		steps = append(steps, model.NewFailed("Manifest checksums", "no checksums section in manifest"))
		return model.PatchResult{Success: false, Steps: steps}
	}

	changed := 0
	for _, relPath := range sortedKeys(checksums) {
		full := filepath.Join(appDir, "out", filepath.FromSlash(relPath))
		info, statErr := os.Stat(full)
		if statErr != nil || info.IsDir() {
			continue
		}
		newHash, hashErr := Sha256Base64Stripped(full)
		if hashErr != nil {
			steps = append(steps, model.NewFailed("Manifest checksums", fmt.Sprintf("failed to hash %s: %v", relPath, hashErr)))
			return model.PatchResult{Success: false, Steps: steps}
		}
		if checksums[relPath] != newHash {
			checksumsOut[relPath] = newHash
			changed++
		}
	}

	if changed > 0 && !dryRun {
		if err := writeManifest(productJSON, product); err != nil {
			steps = append(steps, model.NewFailed("Manifest checksums", fmt.Sprintf("failed to write manifest: %v", err)))
			return model.PatchResult{Success: false, Steps: steps}
		}
	}
	steps = append(steps, model.NewSuccess("Manifest checksums", fmt.Sprintf("updated %d checksum(s)", changed)))

	return model.PatchResult{Success: true, Steps: steps}
}

// ChecksumsAllMatch reports whether every manifest checksum matches the file
// on disk. Nil when the manifest cannot be read or has no checksums section.
func ChecksumsAllMatch(productJSON, appDir string) *bool {
	_, checksums, err := loadManifest(productJSON)
	if err != nil || len(checksums) == 0 {
		return nil
	}
	result := true
	for rel, expected := range checksums {
		full := filepath.Join(appDir, "out", filepath.FromSlash(rel))
		info, statErr := os.Stat(full)
		if statErr != nil || info.IsDir() {
			continue
		}
		actual, hashErr := Sha256Base64Stripped(full)
		if hashErr == nil && actual != expected {
			result = false
			break
		}
	}
	return &result
}

// VerifyEntry is one checksum comparison.
type VerifyEntry struct {
	RelPath  string `json:"rel_path"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Matches  bool   `json:"matches"`
	Missing  bool   `json:"missing"`
}

// VerifyResult aggregates checksum verification.
type VerifyResult struct {
	Entries  []VerifyEntry `json:"entries"`
	AllMatch bool          `json:"all_match"`
}

// VerifyChecksums compares every manifest checksum against disk.
func VerifyChecksums(productJSON, appDir string) (*VerifyResult, error) {
	_, checksums, err := loadManifest(productJSON)
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{AllMatch: true}
	for _, rel := range sortedKeys(checksums) {
		expected := checksums[rel]
		full := filepath.Join(appDir, "out", filepath.FromSlash(rel))

		if info, statErr := os.Stat(full); statErr != nil || info.IsDir() {
			result.Entries = append(result.Entries, VerifyEntry{RelPath: rel, Expected: expected, Missing: true})
			result.AllMatch = false
			continue
		}

		actual, hashErr := Sha256Base64Stripped(full)
		if hashErr != nil {
			return nil, hashErr
		}
		matches := actual == expected
		if !matches {
			result.AllMatch = false
		}
		result.Entries = append(result.Entries, VerifyEntry{RelPath: rel, Expected: expected, Actual: actual, Matches: matches})
	}
	return result, nil
}

// Fix statuses for a single checksum entry.
const (
	FixOK      = "ok"
	FixUpdated = "updated"
	FixMissing = "missing"
)

// FixEntry is one checksum fix outcome.
type FixEntry struct {
	RelPath string `json:"rel_path"`
	Status  string `json:"status"`
}

// FixResult aggregates a fix-checksums run.
type FixResult struct {
	Entries      []FixEntry `json:"entries"`
	ChangedCount int        `json:"changed_count"`
}

// FixChecksums recomputes every manifest checksum and rewrites the manifest
// when any changed.
func FixChecksums(productJSON, appDir string) (*FixResult, error) {
	product, checksums, err := loadManifest(productJSON)
	if err != nil {
		return nil, err
	}
	checksumsOut, ok := product["checksums"].(map[string]any)
	if !ok {
		return &FixResult{}, nil
	}

	result := &FixResult{}
	for _, rel := range sortedKeys(checksums) {
		full := filepath.Join(appDir, "out", filepath.FromSlash(rel))

		if info, statErr := os.Stat(full); statErr != nil || info.IsDir() {
			result.Entries = append(result.Entries, FixEntry{RelPath: rel, Status: FixMissing})
			continue
		}

		newHash, hashErr := Sha256Base64Stripped(full)
		if hashErr != nil {
			return nil, hashErr
		}
		if checksums[rel] == newHash {
			result.Entries = append(result.Entries, FixEntry{RelPath: rel, Status: FixOK})
		} else {
			checksumsOut[rel] = newHash
			result.Entries = append(result.Entries, FixEntry{RelPath: rel, Status: FixUpdated})
			result.ChangedCount++
		}
	}

	if result.ChangedCount > 0 {
		if err := writeManifest(productJSON, product); err != nil {
			return nil, err
		}
	}
	return result, nil
}
