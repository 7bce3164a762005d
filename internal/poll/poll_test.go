package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func pendingThen(n int, final State) (CheckFunc, *atomic.Int32) {
	var calls atomic.Int32
	return func(ctx context.Context, attempt int) (State, any, error) {
		c := calls.Add(1)
		if int(c) <= n {
			return Pending, nil, nil
		}
		return final, "done", nil
	}, &calls
}

func TestRun_PendingThenSuccessOnce(t *testing.T) {
	check, calls := pendingThen(3, Success)
	var terminal, pending int
	var attempts []int

	res, err := Poller{Interval: time.Millisecond}.Run(context.Background(), check, func(tk Tick) {
		attempts = append(attempts, tk.Attempt)
		if tk.State.Terminal() {
			terminal++
		} else {
			pending++
		}
	})
	require.NoError(t, err)

	assert.Equal(t, Success, res.State)
	assert.Equal(t, 4, res.Attempt)
	assert.Equal(t, "done", res.Payload)
	assert.NoError(t, res.Err)
	assert.Equal(t, 1, terminal)
	assert.Equal(t, 3, pending)
	assert.Equal(t, []int{1, 2, 3, 4}, attempts)

	time.Sleep(10 * time.Millisecond)
	assert.EqualValues(t, 4, calls.Load(), "no checks after the terminal state")
}

func TestRun_FailedIsTerminal(t *testing.T) {
	check, calls := pendingThen(1, Failed)
	res, err := Poller{Interval: time.Millisecond}.Run(context.Background(), check, nil)
	require.NoError(t, err)
	assert.Equal(t, Failed, res.State)
	assert.NoError(t, res.Err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestRun_ImmediateFirstCheck(t *testing.T) {
	check, calls := pendingThen(0, Success)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, err := Poller{Interval: time.Hour, Immediate: true}.Run(ctx, check, nil)
	require.NoError(t, err)
	assert.Equal(t, Success, res.State)
	assert.EqualValues(t, 1, calls.Load())
}

func TestRun_WaitsOneIntervalWithoutImmediate(t *testing.T) {
	check, calls := pendingThen(0, Success)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Poller{Interval: time.Hour}.Run(ctx, check, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, calls.Load())
}

func TestRun_CancelStopsPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	check := func(ctx context.Context, attempt int) (State, any, error) {
		if calls.Add(1) == 2 {
			cancel()
		}
		return Pending, nil, nil
	}

	var sawTerminal bool
	_, err := Poller{Interval: time.Millisecond}.Run(ctx, check, func(tk Tick) {
		sawTerminal = sawTerminal || tk.State.Terminal()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, sawTerminal)

	time.Sleep(10 * time.Millisecond)
	assert.EqualValues(t, 2, calls.Load())
}

func TestRun_CheckErrorFailsWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("connection reset")
	check := func(ctx context.Context, attempt int) (State, any, error) {
		calls.Add(1)
		return Idle, nil, boom
	}

	res, err := Poller{Interval: time.Millisecond}.Run(context.Background(), check, nil)
	require.NoError(t, err)
	assert.Equal(t, Failed, res.State)
	assert.ErrorIs(t, res.Err, ErrCheckFailed)
	assert.EqualValues(t, 1, calls.Load())
}

func TestRun_MaxAttempts(t *testing.T) {
	check, calls := pendingThen(100, Success)
	res, err := Poller{Interval: time.Millisecond, MaxAttempts: 3}.Run(context.Background(), check, nil)
	require.NoError(t, err)
	assert.Equal(t, Failed, res.State)
	assert.ErrorIs(t, res.Err, ErrTooManyAttempts)
	assert.EqualValues(t, 3, calls.Load())
}

func TestRun_RejectsZeroInterval(t *testing.T) {
	_, err := Poller{}.Run(context.Background(), nil, nil)
	assert.Error(t, err)
}
