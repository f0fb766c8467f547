package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/zonesync/internal/client/storage"
	"github.com/iudanet/zonesync/internal/models"
)

var _ storage.Journal = (*Journal)(nil)

// RecordTransition appends one sync state transition
func (j *Journal) RecordTransition(ctx context.Context, tr models.Transition) error {
	if j.closed.Load() {
		return storage.ErrJournalClosed
	}

	query := `
		INSERT INTO state_transitions (session_id, field, old_value, new_value, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := j.db.ExecContext(ctx, query,
		tr.SessionID,
		string(tr.Field),
		tr.Old,
		tr.New,
		tr.Reason,
		tr.At.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transition: %w", err)
	}

	return nil
}

// RecordSession appends the summary of a finished session.
// Повторная запись с тем же ID заменяет предыдущую.
func (j *Journal) RecordSession(ctx context.Context, s models.SessionSummary) error {
	if j.closed.Load() {
		return storage.ErrJournalClosed
	}

	query := `
		INSERT OR REPLACE INTO sync_sessions (
			id, kind, started_at, finished_at, uploaded, changed, deleted, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := j.db.ExecContext(ctx, query,
		s.ID,
		string(s.Kind),
		s.StartedAt.UnixNano(),
		s.FinishedAt.UnixNano(),
		s.Uploaded,
		s.Changed,
		s.Deleted,
		s.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Transitions returns the latest transitions, newest first
func (j *Journal) Transitions(ctx context.Context, limit int) ([]models.Transition, error) {
	if j.closed.Load() {
		return nil, storage.ErrJournalClosed
	}

	query := `
		SELECT id, session_id, field, old_value, new_value, reason, created_at
		FROM state_transitions
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := j.db.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Transition
	for rows.Next() {
		var (
			tr    models.Transition
			field string
			at    int64
		)
		if err := rows.Scan(&tr.ID, &tr.SessionID, &field, &tr.Old, &tr.New, &tr.Reason, &at); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		tr.Field = models.StateField(field)
		tr.At = time.Unix(0, at).UTC()
		result = append(result, tr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Sessions returns the latest session summaries, newest first
func (j *Journal) Sessions(ctx context.Context, limit int) ([]models.SessionSummary, error) {
	if j.closed.Load() {
		return nil, storage.ErrJournalClosed
	}

	query := `
		SELECT id, kind, started_at, finished_at, uploaded, changed, deleted, error
		FROM sync_sessions
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := j.db.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.SessionSummary
	for rows.Next() {
		var (
			s                 models.SessionSummary
			kind              string
			started, finished int64
		)
		if err := rows.Scan(&s.ID, &kind, &started, &finished, &s.Uploaded, &s.Changed, &s.Deleted, &s.Error); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.Kind = models.SessionKind(kind)
		s.StartedAt = time.Unix(0, started).UTC()
		s.FinishedAt = time.Unix(0, finished).UTC()
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// normalizeLimit: неположительный limit означает "без ограничения"
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
