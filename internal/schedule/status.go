package schedule

import (
	"context"
	"errors"
	"sort"
)

// Reporter is the read-only projection over the store. It enforces that
// only the owning principal sees a schedule's detail.
type Reporter struct {
	store Store
}

func NewReporter(store Store) *Reporter {
	return &Reporter{store: store}
}

// SchedulesFor lists the owner's schedules, newest first.
func (r *Reporter) SchedulesFor(ctx context.Context, owner string) ([]Summary, error) {
	scheds, err := r.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(scheds))
	for _, s := range scheds {
		out = append(out, s.Summarize())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Detail returns one schedule's full record. ErrForbidden when the caller
// is not the owner, ErrNotFound for unknown IDs.
func (r *Reporter) Detail(ctx context.Context, id, owner string) (*Schedule, error) {
	s, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Owner != owner {
		return nil, ErrForbidden
	}
	return s, nil
}

// IsNotFound reports whether err is the store's missing-record error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsForbidden reports whether err is the ownership error.
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }
