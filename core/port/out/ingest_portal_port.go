package out

import (
	"context"

	"ingest_server/core/domain"
)

// RosterSourcePort abstracts the school portal student listing.
type RosterSourcePort interface {
	// FetchRoster logs in if needed and returns the complete current
	// student list.
	FetchRoster(ctx context.Context) ([]*domain.ScrapedStudent, error)
}

// RunLockPort provides distributed mutual exclusion for long jobs.
type RunLockPort interface {
	// Acquire takes the named lock, returning false when already held.
	Acquire(ctx context.Context, name string, ttlSec int) (bool, error)
	Release(ctx context.Context, name string) error
}
