package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/temirov/llm-interpreter/internal/workflow"
)

// EventLog appends workflow events to session_events. It implements workflow.Recorder.
type EventLog struct {
	db *sql.DB
}

func NewEventLog(db *sql.DB) *EventLog {
	return &EventLog{db: db}
}

// SessionSummary describes one recorded Solve call.
type SessionSummary struct {
	ID        string
	Task      string
	Result    string
	Rounds    int
	StartedAt time.Time
}

func (l *EventLog) Record(ctx context.Context, event workflow.Event) error {
	const q = `INSERT INTO session_events (event_id, session_id, round, kind, step, speaker, content, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	createdAt := event.Time
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx, q,
		uuid.NewString(),
		event.SessionID,
		event.Round,
		string(event.Kind),
		event.Step,
		event.Speaker,
		event.Content,
		createdAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record session event: %w", err)
	}
	return nil
}

// ListBySession returns the events of one session in recording order.
func (l *EventLog) ListBySession(ctx context.Context, sessionID string) ([]workflow.Event, error) {
	const q = `SELECT session_id, round, kind, step, speaker, content, created_at
FROM session_events
WHERE session_id = ?
ORDER BY seq_no ASC`

	rows, err := l.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session events: %w", err)
	}
	defer rows.Close()

	var events []workflow.Event
	for rows.Next() {
		var (
			event     workflow.Event
			kind      string
			createdAt int64
		)
		if err := rows.Scan(&event.SessionID, &event.Round, &kind, &event.Step, &event.Speaker, &event.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		event.Kind = workflow.EventKind(kind)
		event.Time = time.Unix(0, createdAt).UTC()
		events = append(events, event)
	}
	return events, rows.Err()
}

// Sessions returns the most recent sessions first, at most limit of them.
func (l *EventLog) Sessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	const q = `SELECT session_id,
	COALESCE(MAX(CASE WHEN kind = 'start' THEN content END), ''),
	COALESCE(MAX(CASE WHEN kind = 'result' THEN step END), ''),
	MAX(round),
	MIN(created_at)
FROM session_events
GROUP BY session_id
ORDER BY MIN(seq_no) DESC
LIMIT ?`

	rows, err := l.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionSummary
	for rows.Next() {
		var (
			summary   SessionSummary
			startedAt int64
		)
		if err := rows.Scan(&summary.ID, &summary.Task, &summary.Result, &summary.Rounds, &startedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		summary.StartedAt = time.Unix(0, startedAt).UTC()
		sessions = append(sessions, summary)
	}
	return sessions, rows.Err()
}
