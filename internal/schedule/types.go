package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes whether every step reuses one target or consumes a list.
type Kind string

const (
	KindSingleTarget Kind = "single-target"
	KindMultiTarget  Kind = "multi-target"
)

// Status is the job lifecycle state. The only transition is
// active -> completed, exactly once.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// ResponseRecord is the outcome of one attempted step.
type ResponseRecord struct {
	Step      int       `json:"step"` // 1-based
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`

	// Success fields. ReplyID may be empty when the publish response
	// omits an identifier.
	TargetID string `json:"target_id,omitempty"`
	Text     string `json:"text,omitempty"`
	ReplyID  string `json:"reply_id,omitempty"`

	// Failure field; generated text is never persisted for failures.
	Error string `json:"error,omitempty"`
}

// Schedule is the durable record of one multi-step reply job.
//
// Invariants:
//   - CompletedSteps counts attempts (success or failure) and never exceeds
//     TotalSteps.
//   - Responses is append-only, one record per attempt, never reordered.
//   - ID, Kind, Owner, Targets, TotalSteps, Provider are immutable after
//     creation; the coordinator is the sole mutator of the rest until
//     Status flips to completed, after which the record is read-only.
type Schedule struct {
	ID             string           `json:"id"`
	Kind           Kind             `json:"kind"`
	Owner          string           `json:"owner"`
	Targets        []Target         `json:"targets"`
	TotalSteps     int              `json:"total_steps"`
	CompletedSteps int              `json:"completed_steps"`
	Responses      []ResponseRecord `json:"responses"`
	Status         Status           `json:"status"`
	Provider       string           `json:"provider,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// New builds an active schedule with a fresh ID and no attempts yet.
func New(kind Kind, owner string, targets []Target, totalSteps int, provider string, now time.Time) *Schedule {
	return &Schedule{
		ID:         uuid.NewString(),
		Kind:       kind,
		Owner:      owner,
		Targets:    append([]Target(nil), targets...),
		TotalSteps: totalSteps,
		Responses:  []ResponseRecord{},
		Status:     StatusActive,
		Provider:   provider,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Clone returns a deep copy safe to hand across goroutine boundaries.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Targets = append([]Target(nil), s.Targets...)
	cp.Responses = append([]ResponseRecord(nil), s.Responses...)
	return &cp
}

// TargetFor returns the target a given 1-based step operates on.
func (s *Schedule) TargetFor(step int) Target {
	if s.Kind == KindMultiTarget && step-1 < len(s.Targets) {
		return s.Targets[step-1]
	}
	if len(s.Targets) > 0 {
		return s.Targets[0]
	}
	return Target{}
}

// Summary is the owner-facing listing projection of a schedule.
type Summary struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	Status         Status    `json:"status"`
	TotalSteps     int       `json:"total_steps"`
	CompletedSteps int       `json:"completed_steps"`
	Provider       string    `json:"provider,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Summarize projects a schedule into its listing form.
func (s *Schedule) Summarize() Summary {
	return Summary{
		ID:             s.ID,
		Kind:           s.Kind,
		Status:         s.Status,
		TotalSteps:     s.TotalSteps,
		CompletedSteps: s.CompletedSteps,
		Provider:       s.Provider,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
