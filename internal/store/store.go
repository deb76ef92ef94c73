package store

import (
	"context"

	"github.com/joescharf/mdb/internal/models"
)

// AttemptFilter narrows ListAttempts.
type AttemptFilter struct {
	ProjectName string
	Limit       int
}

// Store defines the persistence interface for the publish history.
type Store interface {
	RecordAttempt(ctx context.Context, a *models.Attempt) error
	ListAttempts(ctx context.Context, filter AttemptFilter) ([]*models.Attempt, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
