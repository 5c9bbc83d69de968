package financials

import (
	"context"

	"github.com/google/uuid"
)

// SnapshotCache stores the latest snapshot of each project.
// Get returns nil, nil on a miss.
type SnapshotCache interface {
	Get(ctx context.Context, projectID uuid.UUID) (*ProjectFinancials, error)
	Set(ctx context.Context, snapshot *ProjectFinancials) error
	Delete(ctx context.Context, projectID uuid.UUID) error
}
