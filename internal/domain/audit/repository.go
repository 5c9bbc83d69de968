package audit

import (
	"context"
)

// Repository is the append-only store of audit entries
type Repository interface {
	// Append stores a new entry
	Append(ctx context.Context, entry *Entry) error

	// Find returns entries matching the filter, newest first
	Find(ctx context.Context, filter Filter) ([]Entry, error)
}
