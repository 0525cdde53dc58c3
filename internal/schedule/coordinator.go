package schedule

import (
	"context"
	"time"

	"replybot/internal/eventbus"
	logx "replybot/pkg/logx"
)

// Runner executes one generate-and-publish step. Implemented by the agent.
type Runner interface {
	RunStep(ctx context.Context, target Target, step int, provider string) ResponseRecord
}

// CoordinatorConfig tunes the timeline.
type CoordinatorConfig struct {
	// Interval between steps after the first. Default 16m.
	Interval time.Duration
	// MaxReplies bounds single-target repeated-reply jobs. Default 10.
	MaxReplies int

	// NewTicker overrides tick production (tests). Nil means time.Ticker.
	NewTicker TickerFactory
	// Now overrides the clock (tests).
	Now func() time.Time
}

func (c CoordinatorConfig) withDefaults() CoordinatorConfig {
	if c.Interval <= 0 {
		c.Interval = 16 * time.Minute
	}
	if c.MaxReplies <= 0 {
		c.MaxReplies = 10
	}
	if c.NewTicker == nil {
		c.NewTicker = NewTicker
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Coordinator owns schedule timelines: it runs the first step synchronously,
// then one step per tick until the step counter reaches TotalSteps.
//
// Steps are serialized per schedule: each job runs in its own goroutine and
// a step finishes before the next tick is consumed. Distinct jobs interleave
// freely. At most one coordinator drives a given schedule; the trigger path
// guarantees it.
type Coordinator struct {
	cfg    CoordinatorConfig
	runner Runner
	store  Store
	reg    *JobRegistry
	bus    eventbus.Bus
	log    logx.Logger
}

func NewCoordinator(cfg CoordinatorConfig, runner Runner, store Store, reg *JobRegistry, bus eventbus.Bus, log logx.Logger) *Coordinator {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Coordinator{
		cfg:    cfg.withDefaults(),
		runner: runner,
		store:  store,
		reg:    reg,
		bus:    bus,
		log:    log.With(logx.String("svc", "coordinator")),
	}
}

// StartRepeat launches a single-target repeated-reply job: MaxReplies steps
// against the same target, one per interval. The first step runs before
// StartRepeat returns; the returned snapshot carries its record.
func (c *Coordinator) StartRepeat(ctx context.Context, target Target, owner, provider string) (*Schedule, error) {
	s := New(KindSingleTarget, owner, []Target{target}, c.cfg.MaxReplies, provider, c.cfg.Now())
	return c.start(ctx, s)
}

// StartMulti launches a multi-target job: one step per target, one per
// interval. The first step runs before StartMulti returns.
func (c *Coordinator) StartMulti(ctx context.Context, targets []Target, owner, provider string) (*Schedule, error) {
	s := New(KindMultiTarget, owner, targets, len(targets), provider, c.cfg.Now())
	return c.start(ctx, s)
}

func (c *Coordinator) start(ctx context.Context, s *Schedule) (*Schedule, error) {
	c.persist(ctx, s, true)
	c.publish(eventbus.TypeScheduleCreated, s)
	c.log.Info("schedule started",
		logx.String("schedule_id", s.ID),
		logx.String("kind", string(s.Kind)),
		logx.Int("total_steps", s.TotalSteps),
	)

	// First step runs synchronously so the trigger's caller learns
	// immediately whether it succeeded.
	c.step(ctx, s)

	if s.Status == StatusCompleted {
		return s.Clone(), nil
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	c.reg.add(s.ID, cancel)
	go c.run(jobCtx, s)

	return s.Clone(), nil
}

// run drives the remaining steps from ticks. It owns s exclusively.
func (c *Coordinator) run(ctx context.Context, s *Schedule) {
	defer c.reg.finish(s.ID)

	t := c.cfg.NewTicker(c.cfg.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Debug("schedule job cancelled", logx.String("schedule_id", s.ID))
			return
		case <-t.C():
			if c.step(ctx, s); s.Status == StatusCompleted {
				return
			}
		}
	}
}

// step runs one attempt and updates the schedule. Every attempt, success or
// failure, appends exactly one record and advances the step counter;
// success is only distinguished inside Responses.
func (c *Coordinator) step(ctx context.Context, s *Schedule) {
	if s.Status == StatusCompleted {
		return
	}
	step := s.CompletedSteps + 1
	if step > s.TotalSteps {
		c.complete(ctx, s)
		return
	}

	rec := c.runner.RunStep(ctx, s.TargetFor(step), step, s.Provider)
	rec.Step = step
	if rec.Timestamp.IsZero() {
		rec.Timestamp = c.cfg.Now()
	}

	s.Responses = append(s.Responses, rec)
	s.CompletedSteps = step
	s.UpdatedAt = c.cfg.Now()

	if !rec.Success {
		c.log.Warn("schedule step failed",
			logx.String("schedule_id", s.ID),
			logx.Int("step", step),
			logx.String("err", rec.Error),
		)
	} else {
		c.log.Info("schedule step published",
			logx.String("schedule_id", s.ID),
			logx.Int("step", step),
			logx.String("reply_id", rec.ReplyID),
		)
	}
	c.publish(eventbus.TypeScheduleStep, s)

	if s.CompletedSteps >= s.TotalSteps {
		c.complete(ctx, s)
		return
	}
	c.persist(ctx, s, false)
}

// complete flips active -> completed exactly once and persists a final time.
func (c *Coordinator) complete(ctx context.Context, s *Schedule) {
	if s.Status == StatusCompleted {
		return
	}
	s.Status = StatusCompleted
	s.UpdatedAt = c.cfg.Now()
	c.persist(ctx, s, false)
	c.publish(eventbus.TypeScheduleCompleted, s)
	c.log.Info("schedule completed",
		logx.String("schedule_id", s.ID),
		logx.Int("steps", s.CompletedSteps),
	)
}

// persist writes through the store. Write failures are logged and swallowed:
// the job's value is the published replies, not the bookkeeping record.
func (c *Coordinator) persist(ctx context.Context, s *Schedule, create bool) {
	var err error
	if create {
		err = c.store.Create(ctx, s)
	} else {
		err = c.store.Update(ctx, s)
	}
	if err != nil {
		c.log.Warn("schedule persist failed",
			logx.String("schedule_id", s.ID),
			logx.Bool("create", create),
			logx.Err(err),
		)
	}
}

func (c *Coordinator) publish(typ string, s *Schedule) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(eventbus.Event{Type: typ, Data: s.Summarize()})
}
