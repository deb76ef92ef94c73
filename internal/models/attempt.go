package models

import "time"

// AttemptOutcome is the recorded result of one publish attempt.
type AttemptOutcome string

const (
	AttemptSucceeded AttemptOutcome = "succeeded"
	AttemptConflict  AttemptOutcome = "conflict"
	AttemptFailed    AttemptOutcome = "failed"
)

// Attempt is a single invocation of a publish strategy, kept in the history store.
type Attempt struct {
	ID          string
	ProjectName string
	Domain      string
	Method      PublishMethod
	Number      int
	Outcome     AttemptOutcome
	Message     string
	URL         string
	CreatedAt   time.Time
}
