package ledger

import (
	"fmt"

	"moneta/internal/core"
)

// ValidationError is a client-side rejection: a required field is
// missing or a reference cannot be resolved locally. No network call was
// attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PartialError reports a write that committed its earlier stages and
// then failed. The transaction (and, past the budget stage, the budget
// update) already exists server-side and is not rolled back.
type PartialError struct {
	Stage       Stage
	Transaction core.Transaction // the committed ledger record
	Err         error
}

func (e *PartialError) Error() string {
	switch e.Stage {
	case StageBudget:
		return fmt.Sprintf("transaction %s recorded, but budget update failed: %v", e.Transaction.UUID, e.Err)
	case StageGoal:
		return fmt.Sprintf("transaction %s recorded and budget updated, but goal update failed: %v", e.Transaction.UUID, e.Err)
	}
	return fmt.Sprintf("partial completion at stage %s: %v", e.Stage, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }
