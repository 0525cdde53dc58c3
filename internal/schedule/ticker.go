package schedule

import "time"

// Ticker produces the timeline's ticks. The indirection keeps tick
// production out of the coordinator so tests can drive the timeline
// from a plain channel.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds one Ticker per running job.
type TickerFactory func(d time.Duration) Ticker

// NewTicker wraps time.Ticker; the production factory.
func NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }
