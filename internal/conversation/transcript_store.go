package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/thepaulgroup/lead-assistant/internal/qualification"
)

const defaultTranscriptLimit = 500

// TranscriptEntry is one stored message.
type TranscriptEntry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Channel   string    `json:"channel"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// TranscriptRecorder appends committed messages to an audit log.
type TranscriptRecorder interface {
	Append(ctx context.Context, sessionID string, channel qualification.Channel, msgs ...qualification.Message) error
}

// TranscriptStore keeps an append-only copy of every committed message in Postgres.
type TranscriptStore struct {
	db *sql.DB
}

func NewTranscriptStore(db *sql.DB) *TranscriptStore {
	if db == nil {
		panic("conversation: transcript store requires a database")
	}
	return &TranscriptStore{db: db}
}

func (s *TranscriptStore) Append(ctx context.Context, sessionID string, channel qualification.Channel, msgs ...qualification.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("conversation: begin transcript tx: %w", err)
	}
	for _, m := range msgs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO conversation_messages (id, session_id, channel, sender, body, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.NewString(), sessionID, string(channel), string(m.Sender), m.Text, m.Timestamp.UTC())
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("conversation: insert transcript message: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("conversation: commit transcript: %w", err)
	}
	return nil
}

// List returns messages for the given sessions in chronological order. No ids means every
// session, capped at limit.
func (s *TranscriptStore) List(ctx context.Context, sessionIDs []string, limit int) ([]TranscriptEntry, error) {
	if limit <= 0 || limit > defaultTranscriptLimit {
		limit = defaultTranscriptLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if len(sessionIDs) > 0 {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, session_id, channel, sender, body, created_at
			FROM conversation_messages
			WHERE session_id = ANY($1)
			ORDER BY session_id, created_at
			LIMIT $2`, pq.Array(sessionIDs), limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, session_id, channel, sender, body, created_at
			FROM conversation_messages
			ORDER BY session_id, created_at
			LIMIT $1`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: list transcripts: %w", err)
	}
	defer rows.Close()

	out := []TranscriptEntry{}
	for rows.Next() {
		var e TranscriptEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Channel, &e.Sender, &e.Text, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("conversation: scan transcript: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
