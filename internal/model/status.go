package model

// ComponentStatus is a read-only snapshot of one patch target (CLI or IDE).
type ComponentStatus struct {
	Path         string          `json:"path,omitempty"`
	Exists       bool            `json:"exists"`
	BackupExists bool            `json:"backup_exists"`
	Patches      map[string]bool `json:"patches,omitempty"`
}

// IntegrityStatus reports the downstream hash checks. Nil means the check
// could not be performed (missing files).
type IntegrityStatus struct {
	HostHashMatches     *bool `json:"host_hash_matches,omitempty"`
	ManifestChecksumsOK *bool `json:"manifest_checksums_ok,omitempty"`
}

// PatchStatus is the full status snapshot assembled by the status query.
type PatchStatus struct {
	CLI       ComponentStatus `json:"cli"`
	IDE       ComponentStatus `json:"ide"`
	Integrity IntegrityStatus `json:"integrity"`
}

// RevertFileResult reports whether one file was restored from its backup.
type RevertFileResult struct {
	Filename string `json:"filename"`
	Restored bool   `json:"restored"`
}

// RevertResult aggregates per-file restore outcomes.
type RevertResult struct {
	Files []RevertFileResult `json:"files"`
}
