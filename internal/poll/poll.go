// Package poll drives an asynchronous backend operation to a terminal state
// by checking its status on a fixed interval.
//
// A run moves idle → pending → success|failed. Pending repeats once per
// tick. The run stops on the first terminal state, on a failed check or when
// its context is cancelled; no check is issued after any of those.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type State string

const (
	Idle    State = "IDLE"
	Pending State = "PENDING"
	Success State = "SUCCESS"
	Failed  State = "FAILED"
)

func (s State) Terminal() bool { return s == Success || s == Failed }

var (
	ErrCheckFailed     = errors.New("poll: status check failed")
	ErrTooManyAttempts = errors.New("poll: attempt limit reached")
)

// Tick is one observation of the operation.
type Tick struct {
	Attempt int
	State   State
	Payload any
}

// CheckFunc asks the backend once. attempt starts at 1.
type CheckFunc func(ctx context.Context, attempt int) (State, any, error)

// TickFunc observes every tick, terminal ones included. It is called from
// the polling goroutine and must not block for long.
type TickFunc func(Tick)

type Poller struct {
	Interval time.Duration
	// Immediate issues the first check without waiting one interval.
	Immediate bool
	// MaxAttempts bounds the number of checks; 0 polls until terminal.
	MaxAttempts int
}

// Result is the terminal tick of a run. Err explains a Failed state that
// did not come from the backend (check error, attempt limit).
type Result struct {
	Tick
	Err error
}

// Run polls until a terminal state. It returns ctx.Err() if cancelled
// before that, in which case onTick never sees a terminal state.
func (p Poller) Run(ctx context.Context, check CheckFunc, onTick TickFunc) (Result, error) {
	if p.Interval <= 0 {
		return Result{}, fmt.Errorf("poll: interval must be positive, got %s", p.Interval)
	}
	if onTick == nil {
		onTick = func(Tick) {}
	}

	timer := time.NewTimer(p.Interval)
	defer timer.Stop()
	if p.Immediate {
		if !timer.Stop() {
			<-timer.C
		}
		timer.Reset(0)
	}

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-timer.C:
		}

		state, payload, err := check(ctx, attempt)
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}

		res := Result{Tick: Tick{Attempt: attempt, State: state, Payload: payload}}
		switch {
		case err != nil:
			res.State = Failed
			res.Err = fmt.Errorf("%w: %v", ErrCheckFailed, err)
		case !state.Terminal() && p.MaxAttempts > 0 && attempt >= p.MaxAttempts:
			res.State = Failed
			res.Err = ErrTooManyAttempts
		}

		onTick(res.Tick)
		if res.State.Terminal() {
			return res, nil
		}
		timer.Reset(p.Interval)
	}
}
