package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/thepaulgroup/lead-assistant/internal/qualification"
)

// PgxPool is the subset of pgxpool.Pool the repository uses.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ SessionRepository     = (*PostgresRepository)(nil)
	_ AppointmentRepository = (*PostgresRepository)(nil)
)

// PostgresRepository stores sessions as versioned JSON documents and appointments as rows.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Load fetches and decodes one session.
func (r *PostgresRepository) Load(ctx context.Context, id string) (*qualification.Session, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT payload FROM lead_sessions WHERE id = $1`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("leads: select session failed: %w", err)
	}
	return DecodeSession(payload)
}

// Save upserts the whole session. There is no version guard; the last write wins.
func (r *PostgresRepository) Save(ctx context.Context, s *qualification.Session) error {
	if s == nil || strings.TrimSpace(s.ID) == "" {
		return ErrInvalidSessionID
	}
	payload, err := EncodeSession(s)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO lead_sessions (id, channel, stage, is_recruiting, schema_version, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			stage = EXCLUDED.stage,
			is_recruiting = EXCLUDED.is_recruiting,
			schema_version = EXCLUDED.schema_version,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.pool.Exec(ctx, query,
		s.ID,
		string(s.Channel),
		string(s.Stage),
		s.IsRecruitingInquiry(),
		SchemaVersion,
		payload,
		s.CreatedAt.UTC(),
		s.LastActiveAt.UTC(),
	); err != nil {
		return fmt.Errorf("leads: upsert session failed: %w", err)
	}
	return nil
}

// List returns sessions ordered by most recent activity.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*qualification.Session, error) {
	filter = filter.normalized()
	query := `SELECT payload FROM lead_sessions`
	if filter.RecruitingOnly {
		query += ` WHERE is_recruiting = TRUE`
	}
	query += ` ORDER BY updated_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("leads: list sessions failed: %w", err)
	}
	defer rows.Close()

	sessions := []*qualification.Session{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("leads: scan session failed: %w", err)
		}
		s, err := DecodeSession(payload)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: iterate sessions failed: %w", err)
	}
	return sessions, nil
}

// RecordBooking inserts the appointment. A second insert for the same ticket is rejected.
func (r *PostgresRepository) RecordBooking(ctx context.Context, b qualification.Booking) error {
	appt := appointmentFromBooking(uuid.NewString(), b)
	query := `
		INSERT INTO appointments (id, session_id, name, age, state, booking_slot, ticket_number, confirmed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (ticket_number) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query,
		appt.ID,
		appt.SessionID,
		appt.Name,
		appt.Age,
		appt.State,
		appt.BookingSlot,
		appt.TicketNumber,
		appt.Confirmed,
		appt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("leads: insert appointment failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentExists
	}
	return nil
}

// ListAppointments returns the newest appointments first.
func (r *PostgresRepository) ListAppointments(ctx context.Context, limit int) ([]Appointment, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, name, age, state, booking_slot, ticket_number, confirmed, created_at
		FROM appointments
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("leads: list appointments failed: %w", err)
	}
	defer rows.Close()

	out := []Appointment{}
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.SessionID, &a.Name, &a.Age, &a.State, &a.BookingSlot, &a.TicketNumber, &a.Confirmed, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("leads: scan appointment failed: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: iterate appointments failed: %w", err)
	}
	return out, nil
}
