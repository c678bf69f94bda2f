// Package archive stores generated report artifacts with their metadata.
package archive

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no live report matches the id.
	ErrNotFound = errors.New("report not found")
)

// Report is one archived artifact.
type Report struct {
	ID               uuid.UUID
	Title            string
	Format           string
	Content          []byte
	ContentType      string
	Filename         string
	SizeBytes        int64
	PageCount        int
	GenerationTimeMs int64
	CreatedAt        time.Time
	ExpiresAt        *time.Time
	DeletedAt        *time.Time
}

// CreateParams describes a report to archive.
type CreateParams struct {
	Title            string
	Format           string
	Content          []byte
	ContentType      string
	Filename         string
	PageCount        int
	GenerationTimeMs int64
	TTL              time.Duration
}

// Repository is the report archive.
type Repository interface {
	// Create stores a new report and returns it with id and timestamps set.
	Create(ctx context.Context, params *CreateParams) (*Report, error)

	// Get returns a report by id, content included.
	Get(ctx context.Context, id uuid.UUID) (*Report, error)

	// GetContent returns only the artifact bytes.
	GetContent(ctx context.Context, id uuid.UUID) ([]byte, error)

	// Delete soft-deletes a report.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteExpired removes reports past their expiry and reports how many.
	DeleteExpired(ctx context.Context) (int64, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases connections.
	Close() error
}
