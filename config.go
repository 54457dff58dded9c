package invoiceflow

import "time"

// Config holds configuration for the workflow engine.
type Config struct {
	// AutoApproveThreshold is the minimum two-way match score for a run to
	// bypass human review. Runs scoring below it suspend at the decision
	// stage.
	AutoApproveThreshold float64

	// CollaboratorTimeout bounds each external collaborator call. A timeout
	// degrades the stage result; it never fails the run.
	CollaboratorTimeout time.Duration

	// CollaboratorAttempts is the number of tries per collaborator call
	// (initial attempt plus retries) before the stage degrades.
	CollaboratorAttempts int

	// StageTimeout bounds the execution of a single stage, collaborator
	// retries included. Zero means unbounded.
	StageTimeout time.Duration

	// ReviewBaseURL is the base for review links handed to human reviewers.
	ReviewBaseURL string

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		AutoApproveThreshold: 0.90,
		CollaboratorTimeout:  10 * time.Second,
		CollaboratorAttempts: 3,
		StageTimeout:         time.Minute,
		ReviewBaseURL:        "http://internal/review",
		ShutdownTimeout:      30 * time.Second,
	}
}
