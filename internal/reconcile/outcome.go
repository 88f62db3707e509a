package reconcile

import "fmt"

type OutcomeStatus string

const (
	// OutcomeApplied means the patch was accepted and, when
	// verification ran, the decisive fields matched
	OutcomeApplied OutcomeStatus = "applied"

	// OutcomeUnverifiable means the write was accepted but the
	// post-write state didn't match within the settling window,
	// distinct from both success and hard failure
	OutcomeUnverifiable OutcomeStatus = "unverifiable"

	// OutcomeFailed means a step of the reconciliation failed and
	// the target was aborted
	OutcomeFailed OutcomeStatus = "failed"
)

type Outcome struct {
	Status OutcomeStatus

	// NoChange is set when the compiled patch was empty and no
	// write was issued
	NoChange bool

	// Err carries the failure reason when Status is OutcomeFailed,
	// or the verification detail when OutcomeUnverifiable
	Err error
}

type TargetError struct {
	ProjectKey     string
	EnvironmentKey string
	Err            error
}

// BatchOutcome aggregates per-target outcomes across one
// orchestrator run; counts are always reported even when every
// target errored
type BatchOutcome struct {
	// RunId correlates the log stream of one run
	RunId string

	Updated      int
	Skipped      int
	Unverifiable int
	Errored      int

	Errors []TargetError
}

// Summary renders the human-readable per-run report
func (b BatchOutcome) Summary() string {
	return fmt.Sprintf(
		"updated[%v] skipped[%v] unverifiable[%v] errored[%v]",
		b.Updated,
		b.Skipped,
		b.Unverifiable,
		b.Errored,
	)
}
