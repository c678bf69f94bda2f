package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"reportmill/pkg/database"
)

// PostgresRepository stores reports in PostgreSQL.
type PostgresRepository struct {
	db database.DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a repository over an open connection pool.
func NewPostgresRepository(db database.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new report.
func (r *PostgresRepository) Create(ctx context.Context, params *CreateParams) (*Report, error) {
	report := &Report{
		ID:               uuid.New(),
		Title:            params.Title,
		Format:           params.Format,
		Content:          params.Content,
		ContentType:      params.ContentType,
		Filename:         params.Filename,
		SizeBytes:        int64(len(params.Content)),
		PageCount:        params.PageCount,
		GenerationTimeMs: params.GenerationTimeMs,
		CreatedAt:        time.Now().UTC(),
	}

	if params.TTL > 0 {
		expiresAt := report.CreatedAt.Add(params.TTL)
		report.ExpiresAt = &expiresAt
	}

	query := `
		INSERT INTO reports (
			id, title, format,
			content, content_type, filename, size_bytes,
			page_count, generation_time_ms,
			created_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)`

	_, err := r.db.Exec(ctx, query,
		report.ID, report.Title, report.Format,
		report.Content, report.ContentType, report.Filename, report.SizeBytes,
		report.PageCount, report.GenerationTimeMs,
		report.CreatedAt, report.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert report: %w", err)
	}

	return report, nil
}

// Get returns a report by id, content included.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	query := `
		SELECT
			id, title, format,
			content, content_type, filename, size_bytes,
			page_count, generation_time_ms,
			created_at, expires_at, deleted_at
		FROM reports
		WHERE id = $1 AND deleted_at IS NULL`

	report := &Report{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&report.ID, &report.Title, &report.Format,
		&report.Content, &report.ContentType, &report.Filename, &report.SizeBytes,
		&report.PageCount, &report.GenerationTimeMs,
		&report.CreatedAt, &report.ExpiresAt, &report.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return report, nil
}

// GetContent returns only the artifact bytes.
func (r *PostgresRepository) GetContent(ctx context.Context, id uuid.UUID) ([]byte, error) {
	query := `SELECT content FROM reports WHERE id = $1 AND deleted_at IS NULL`

	var content []byte
	if err := r.db.QueryRow(ctx, query, id).Scan(&content); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	return content, nil
}

// Delete soft-deletes a report.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE reports SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired removes reports past their expiry.
func (r *PostgresRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM reports WHERE expires_at < NOW() AND deleted_at IS NULL`

	result, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reports: %w", err)
	}
	return result.RowsAffected(), nil
}

// Ping verifies the connection.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// Close closes the underlying pool.
func (r *PostgresRepository) Close() error {
	r.db.Close()
	return nil
}
