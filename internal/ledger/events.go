package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Stage identifies one step of the write path.
type Stage string

const (
	StageTransaction Stage = "transaction"
	StageBudget      Stage = "budget"
	StageGoal        Stage = "goal"
)

// Outcome of a stage.
const (
	OutcomeCommitted = "committed"
	OutcomeFailed    = "failed"
)

// StageEvent records the outcome of one write-path stage. The three
// stages are not wrapped in a distributed transaction; the event stream
// is what makes partial completion observable instead of silent.
type StageEvent struct {
	Stage           Stage     `json:"stage"`
	Outcome         string    `json:"outcome"`
	TransactionUUID uuid.UUID `json:"transactionUuid,omitempty"`
	BudgetID        int64     `json:"budgetId,omitempty"`
	GoalID          int64     `json:"goalId,omitempty"`
	AmountCents     int64     `json:"amountCents"`
	Error           string    `json:"error,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// EventSink receives stage events. Sink failures are logged by the
// recorder and never fail the write itself.
type EventSink interface {
	PublishStageEvent(ctx context.Context, ev StageEvent) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) PublishStageEvent(context.Context, StageEvent) error { return nil }
