package ports

import (
	"context"
	"time"

	"journalAnalytics/internal/domain"
)

// RunRepository stores analysis runs and the journal text they were computed from.
type RunRepository interface {
	// SaveRun persists a run. An empty ID is replaced with a new UUID; the stored ID is returned.
	SaveRun(ctx context.Context, run *domain.AnalysisRun) (string, error)
	// FindByID retrieves a run by its ID.
	// Returns nil, nil if not found.
	FindByID(ctx context.Context, id string) (*domain.AnalysisRun, error)
	// FindRecent retrieves the newest runs first, up to limit.
	FindRecent(ctx context.Context, limit int) ([]*domain.AnalysisRun, error)
	// LatestInput returns the raw journal of the most recent run.
	// Returns "", nil when nothing has been stored yet.
	LatestInput(ctx context.Context) (string, error)
	// DeleteOlderThan removes runs created before cutoff and returns how many were deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
