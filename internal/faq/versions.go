package faq

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DatasetVersion describes one uploaded FAQ dataset.
type DatasetVersion struct {
	Label        string    `json:"version_label"`
	Description  string    `json:"description,omitempty"`
	TotalRecords int       `json:"total_records"`
	ObjectKey    string    `json:"object_key"`
	UploadedAt   time.Time `json:"upload_timestamp"`
	Active       bool      `json:"is_active"`
	CreatedBy    string    `json:"created_by,omitempty"`
}

// VersionRepository tracks dataset versions. At most one version is active.
type VersionRepository interface {
	// Create stores v as the only active version.
	Create(ctx context.Context, v DatasetVersion) error
	Activate(ctx context.Context, label string) error
	Active(ctx context.Context) (DatasetVersion, error)
	List(ctx context.Context) ([]DatasetVersion, error)
}

// MemoryVersionRepository keeps versions in process memory.
type MemoryVersionRepository struct {
	mu       sync.RWMutex
	versions map[string]DatasetVersion
}

func NewMemoryVersionRepository() *MemoryVersionRepository {
	return &MemoryVersionRepository{versions: make(map[string]DatasetVersion)}
}

func (r *MemoryVersionRepository) Create(_ context.Context, v DatasetVersion) error {
	if strings.TrimSpace(v.Label) == "" {
		return ErrInvalidLabel
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.versions[v.Label]; ok {
		return ErrVersionExists
	}
	r.deactivateLocked()
	v.Active = true
	r.versions[v.Label] = v
	return nil
}

func (r *MemoryVersionRepository) Activate(_ context.Context, label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.versions[label]
	if !ok {
		return ErrVersionNotFound
	}
	r.deactivateLocked()
	v.Active = true
	r.versions[label] = v
	return nil
}

func (r *MemoryVersionRepository) Active(_ context.Context) (DatasetVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, v := range r.versions {
		if v.Active {
			return v, nil
		}
	}
	return DatasetVersion{}, ErrNoActiveVersion
}

func (r *MemoryVersionRepository) List(_ context.Context) ([]DatasetVersion, error) {
	r.mu.RLock()
	out := make([]DatasetVersion, 0, len(r.versions))
	for _, v := range r.versions {
		out = append(out, v)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (r *MemoryVersionRepository) deactivateLocked() {
	for label, v := range r.versions {
		v.Active = false
		r.versions[label] = v
	}
}

// PgxPool is the subset of pgxpool.Pool used by PostgresVersionRepository.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	versionColumns = `version_label, description, total_records, object_key, upload_timestamp, is_active, created_by`
	selectVersion  = `SELECT version_label, COALESCE(description, ''), total_records, object_key, upload_timestamp, is_active, COALESCE(created_by, '') FROM dataset_versions`
)

// PostgresVersionRepository persists versions in the dataset_versions table.
type PostgresVersionRepository struct {
	pool PgxPool
}

func NewPostgresVersionRepository(pool PgxPool) *PostgresVersionRepository {
	if pool == nil {
		panic("faq: pgx pool required")
	}
	return &PostgresVersionRepository{pool: pool}
}

func (r *PostgresVersionRepository) Create(ctx context.Context, v DatasetVersion) error {
	if strings.TrimSpace(v.Label) == "" {
		return ErrInvalidLabel
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE dataset_versions SET is_active = FALSE WHERE is_active = TRUE`); err != nil {
			return fmt.Errorf("faq: deactivate versions: %w", err)
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO dataset_versions (`+versionColumns+`)
			VALUES ($1, $2, $3, $4, $5, TRUE, $6)
			ON CONFLICT (version_label) DO NOTHING
		`, v.Label, v.Description, v.TotalRecords, v.ObjectKey, v.UploadedAt, v.CreatedBy)
		if err != nil {
			return fmt.Errorf("faq: insert version: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrVersionExists
		}
		return nil
	})
}

func (r *PostgresVersionRepository) Activate(ctx context.Context, label string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE dataset_versions SET is_active = FALSE WHERE is_active = TRUE`); err != nil {
			return fmt.Errorf("faq: deactivate versions: %w", err)
		}
		tag, err := tx.Exec(ctx, `UPDATE dataset_versions SET is_active = TRUE WHERE version_label = $1`, label)
		if err != nil {
			return fmt.Errorf("faq: activate version: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrVersionNotFound
		}
		return nil
	})
}

func (r *PostgresVersionRepository) Active(ctx context.Context) (DatasetVersion, error) {
	row := r.pool.QueryRow(ctx, selectVersion+` WHERE is_active = TRUE LIMIT 1`)
	v, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DatasetVersion{}, ErrNoActiveVersion
		}
		return DatasetVersion{}, fmt.Errorf("faq: select active version: %w", err)
	}
	return v, nil
}

func (r *PostgresVersionRepository) List(ctx context.Context) ([]DatasetVersion, error) {
	rows, err := r.pool.Query(ctx, selectVersion+` ORDER BY upload_timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("faq: list versions: %w", err)
	}
	defer rows.Close()

	var out []DatasetVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("faq: scan version: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("faq: list versions: %w", err)
	}
	return out, nil
}

func (r *PostgresVersionRepository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("faq: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("faq: commit tx: %w", err)
	}
	return nil
}

func scanVersion(row pgx.Row) (DatasetVersion, error) {
	var v DatasetVersion
	err := row.Scan(&v.Label, &v.Description, &v.TotalRecords, &v.ObjectKey, &v.UploadedAt, &v.Active, &v.CreatedBy)
	return v, err
}
