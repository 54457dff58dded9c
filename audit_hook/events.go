package audithook

// Audit event actions. Each constant corresponds to one lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionRunStarted     = "run.started"
	ActionStageCompleted = "run.stage_completed"
	ActionRunSuspended   = "run.suspended"
	ActionRunResumed     = "run.resumed"
	ActionRunCompleted   = "run.completed"
	ActionRunFailed      = "run.failed"
	ActionRunCancelled   = "run.cancelled"
)

// CategoryRun groups all run lifecycle actions.
const CategoryRun = "invoiceflow.run"

// ResourceRun is the Resource field used in audit events.
const ResourceRun = "invoice_run"

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionRunStarted,
		ActionStageCompleted,
		ActionRunSuspended,
		ActionRunResumed,
		ActionRunCompleted,
		ActionRunFailed,
		ActionRunCancelled,
	}
}
