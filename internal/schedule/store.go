package schedule

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned for unknown schedule IDs.
	ErrNotFound = errors.New("schedule not found")
	// ErrForbidden is returned when a caller asks for a schedule they
	// don't own.
	ErrForbidden = errors.New("schedule access forbidden")
)

// Store persists schedules. Implementations must treat the passed schedule
// as a snapshot (copy on write) so the coordinator can keep mutating its
// own instance.
type Store interface {
	Create(ctx context.Context, s *Schedule) error
	Update(ctx context.Context, s *Schedule) error
	Get(ctx context.Context, id string) (*Schedule, error)
	ListByOwner(ctx context.Context, owner string) ([]*Schedule, error)
	Close() error
}
