package run

// StepStatus is the terminal or in-flight state of one step.
type StepStatus string

const (
	StepRunning   StepStatus = "RUNNING"
	StepPaused    StepStatus = "PAUSED"
	StepStopped   StepStatus = "STOPPED"
	StepSucceeded StepStatus = "SUCCEEDED"
	StepFailed    StepStatus = "FAILED"
)

// StepStatuses lists every step status, for schema export and
// validation.
var StepStatuses = []StepStatus{
	StepRunning, StepPaused, StepStopped, StepSucceeded, StepFailed,
}

// RunStatus is the overall state of a flow run.
type RunStatus string

const (
	RunRunning       RunStatus = "RUNNING"
	RunSucceeded     RunStatus = "SUCCEEDED"
	RunStopped       RunStatus = "STOPPED"
	RunFailed        RunStatus = "FAILED"
	RunPaused        RunStatus = "PAUSED"
	RunQuotaExceeded RunStatus = "QUOTA_EXCEEDED"
	RunInternalError RunStatus = "INTERNAL_ERROR"
	RunTimeout       RunStatus = "TIMEOUT"
)

// RunStatuses lists every run status, for schema export and validation.
var RunStatuses = []RunStatus{
	RunRunning, RunSucceeded, RunStopped, RunFailed,
	RunPaused, RunQuotaExceeded, RunInternalError, RunTimeout,
}

// Severity is the presentation class a status maps to. Renderers pick
// one visual indicator per class and nothing else.
type Severity string

const (
	SeverityNeutral Severity = "neutral"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Severity maps a step status to its presentation class. STOPPED is a
// deliberate early termination and renders as success.
func (s StepStatus) Severity() Severity {
	switch s {
	case StepRunning, StepPaused:
		return SeverityNeutral
	case StepStopped, StepSucceeded:
		return SeveritySuccess
	case StepFailed:
		return SeverityError
	}
	// Unknown statuses come only from hand-edited snapshots.
	return SeverityNeutral
}

// Severity maps a run status to its presentation class.
func (s RunStatus) Severity() Severity {
	switch s {
	case RunRunning, RunPaused:
		return SeverityNeutral
	case RunStopped, RunSucceeded:
		return SeveritySuccess
	case RunFailed, RunQuotaExceeded, RunInternalError, RunTimeout:
		return SeverityError
	}
	return SeverityNeutral
}
