package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pgxMockAdapter struct {
	mock pgxmock.PgxPoolIface
}

func (a *pgxMockAdapter) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return a.mock.Exec(ctx, sql, args...)
}

func (a *pgxMockAdapter) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return a.mock.Query(ctx, sql, args...)
}

func (a *pgxMockAdapter) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return a.mock.QueryRow(ctx, sql, args...)
}

func (a *pgxMockAdapter) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	return a.mock.BeginTx(ctx, txOptions)
}

func (a *pgxMockAdapter) Close() {
	a.mock.Close()
}

func (a *pgxMockAdapter) Ping(ctx context.Context) error {
	return a.mock.Ping(ctx)
}

func setupMockDB(t *testing.T) (pgxmock.PgxPoolIface, *PostgresRepository) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	return mock, NewPostgresRepository(&pgxMockAdapter{mock: mock})
}

func TestPostgresRepository_Create(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	params := &CreateParams{
		Title:            "Weekly Stats",
		Format:           "pdf",
		Content:          []byte("%PDF-1.3 fake"),
		ContentType:      "application/pdf",
		Filename:         "weekly_stats.pdf",
		PageCount:        3,
		GenerationTimeMs: 42,
		TTL:              24 * time.Hour,
	}

	mock.ExpectExec(`INSERT INTO reports`).
		WithArgs(
			pgxmock.AnyArg(), // generated uuid
			params.Title,
			params.Format,
			params.Content,
			params.ContentType,
			params.Filename,
			int64(len(params.Content)),
			params.PageCount,
			params.GenerationTimeMs,
			pgxmock.AnyArg(), // created_at
			pgxmock.AnyArg(), // expires_at
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	report, err := repo.Create(context.Background(), params)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, report.ID)
	assert.Equal(t, int64(len(params.Content)), report.SizeBytes)
	require.NotNil(t, report.ExpiresAt)
	assert.WithinDuration(t, report.CreatedAt.Add(24*time.Hour), *report.ExpiresAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_CreateNoTTL(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO reports`).
		WithArgs(
			pgxmock.AnyArg(), "t", "pdf", []byte("x"), "application/pdf", "t.pdf",
			int64(1), 1, int64(0), pgxmock.AnyArg(), (*time.Time)(nil),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	report, err := repo.Create(context.Background(), &CreateParams{
		Title: "t", Format: "pdf", Content: []byte("x"),
		ContentType: "application/pdf", Filename: "t.pdf", PageCount: 1,
	})

	require.NoError(t, err)
	assert.Nil(t, report.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Get(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	id := uuid.New()
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{
		"id", "title", "format",
		"content", "content_type", "filename", "size_bytes",
		"page_count", "generation_time_ms",
		"created_at", "expires_at", "deleted_at",
	}).AddRow(
		id, "Weekly Stats", "pdf",
		[]byte("%PDF-"), "application/pdf", "weekly_stats.pdf", int64(5),
		3, int64(42),
		now, (*time.Time)(nil), (*time.Time)(nil),
	)

	mock.ExpectQuery(`SELECT (.+) FROM reports`).WithArgs(id).WillReturnRows(rows)

	report, err := repo.Get(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, id, report.ID)
	assert.Equal(t, "Weekly Stats", report.Title)
	assert.Equal(t, 3, report.PageCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_GetNotFound(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM reports`).WithArgs(id).WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresRepository_GetContent(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	id := uuid.New()
	rows := pgxmock.NewRows([]string{"content"}).AddRow([]byte("artifact"))
	mock.ExpectQuery(`SELECT content FROM reports`).WithArgs(id).WillReturnRows(rows)

	content, err := repo.GetContent(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, []byte("artifact"), content)
}

func TestPostgresRepository_Delete(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`UPDATE reports SET deleted_at`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_DeleteNotFound(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`UPDATE reports SET deleted_at`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrNotFound)
}

func TestPostgresRepository_DeleteExpired(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM reports WHERE expires_at`).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := repo.DeleteExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestPostgresRepository_CreateError(t *testing.T) {
	mock, repo := setupMockDB(t)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO reports`).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Create(context.Background(), &CreateParams{
		Title: "t", Format: "pdf", Content: []byte("x"),
	})
	assert.Error(t, err)
}
