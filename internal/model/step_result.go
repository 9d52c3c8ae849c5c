package model

const (
	// StatusSuccess marks a step that applied its change.
	StatusSuccess = "success"
	// StatusSkipped marks a step whose change was already present.
	StatusSkipped = "skipped"
	// StatusFailed marks a step that could not locate or apply its change.
	StatusFailed = "failed"
)

// StepResult captures the outcome of a single patch step.
type StepResult struct {
	Name    string
	Status  string
	Message string
	// Detail holds the literal inserted/replaced text plus surrounding
	// context for preview. Only successful steps carry detail.
	Detail string
}

// OK reports whether the step left the pipeline in a good state.
// Skipped steps count as OK.
func (r StepResult) OK() bool {
	return r.Status != StatusFailed
}

// Skipped reports whether the step found its change already applied.
func (r StepResult) Skipped() bool {
	return r.Status == StatusSkipped
}

// NewSuccess builds a successful StepResult.
func NewSuccess(name, message string) StepResult {
	return StepResult{Name: name, Status: StatusSuccess, Message: message}
}

// NewSkipped builds a skipped StepResult.
func NewSkipped(name, message string) StepResult {
	return StepResult{Name: name, Status: StatusSkipped, Message: message}
}

// NewFailed builds a failed StepResult.
func NewFailed(name, message string) StepResult {
	return StepResult{Name: name, Status: StatusFailed, Message: message}
}

// WithDetail returns a copy of the result carrying a preview payload.
func (r StepResult) WithDetail(detail string) StepResult {
	r.Detail = detail
	return r
}

// PatchResult aggregates the steps actually attempted during one run.
// Steps never attempted because of an earlier failure are absent.
type PatchResult struct {
	Success bool
	Steps   []StepResult
}

// Fail builds a failed PatchResult from the steps attempted so far.
func Fail(steps ...StepResult) PatchResult {
	return PatchResult{Success: false, Steps: steps}
}
