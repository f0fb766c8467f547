package storage

import (
	"context"

	"github.com/iudanet/zonesync/internal/models"
)

//go:generate moq -out journal_mock.go . Journal

// Journal defines an append-only history of sync state transitions and sessions.
type Journal interface {
	// RecordTransition appends one state transition
	RecordTransition(ctx context.Context, tr models.Transition) error

	// RecordSession appends the summary of a finished sync session
	RecordSession(ctx context.Context, s models.SessionSummary) error

	// Transitions returns the latest transitions, newest first
	Transitions(ctx context.Context, limit int) ([]models.Transition, error)

	// Sessions returns the latest session summaries, newest first
	Sessions(ctx context.Context, limit int) ([]models.SessionSummary, error)
}
