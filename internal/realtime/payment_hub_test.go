package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"energyshare/internal/apiclient"
	"energyshare/internal/models"
	"energyshare/internal/services"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type trackFunc func(ctx context.Context, kind models.PaymentKind, id string, onUpdate func(models.PaymentUpdate)) (*models.PaymentUpdate, error)

// fakeTracker runs fn for Track and counts the calls.
type fakeTracker struct {
	fn    trackFunc
	calls atomic.Int32
}

func (f *fakeTracker) Track(ctx context.Context, kind models.PaymentKind, id string, onUpdate func(models.PaymentUpdate)) (*models.PaymentUpdate, error) {
	f.calls.Add(1)
	return f.fn(ctx, kind, id, onUpdate)
}

func (f *fakeTracker) Status(ctx context.Context, kind models.PaymentKind, id string) (*models.PaymentUpdate, error) {
	return nil, services.ErrNotFound
}

func update(state string, attempt int) models.PaymentUpdate {
	return models.PaymentUpdate{Kind: models.PaymentPurchase, CorrelationID: "tx-1", State: state, Attempt: attempt}
}

func drain(t *testing.T, s *Subscriber) []string {
	t.Helper()
	var states []string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case u, ok := <-s.Updates():
			if !ok {
				return states
			}
			states = append(states, u.State)
		case <-timeout:
			t.Fatal("subscriber was never closed")
		}
	}
}

func TestPaymentHub_SharesOneTracker(t *testing.T) {
	release := make(chan struct{})
	tracker := &fakeTracker{fn: func(ctx context.Context, kind models.PaymentKind, id string, onUpdate func(models.PaymentUpdate)) (*models.PaymentUpdate, error) {
		<-release
		onUpdate(update("PENDING", 1))
		final := update("SUCCESS", 2)
		onUpdate(final)
		return &final, nil
	}}
	hub := NewPaymentHub(tracker, zap.NewNop())
	defer hub.Close()

	alice := apiclient.WithToken(context.Background(), "alice-token")
	a, err := hub.Subscribe(alice, models.PaymentPurchase, "tx-1")
	require.NoError(t, err)
	b, err := hub.Subscribe(alice, models.PaymentPurchase, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Watching())
	close(release)

	assert.Equal(t, []string{"PENDING", "SUCCESS"}, drain(t, a))
	assert.Equal(t, []string{"PENDING", "SUCCESS"}, drain(t, b))
	final, err := a.Result()
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", final.State)
	assert.EqualValues(t, 1, tracker.calls.Load())

	hub.Unsubscribe(a)
	hub.Unsubscribe(b)
	assert.Eventually(t, func() bool { return hub.Watching() == 0 }, time.Second, 10*time.Millisecond)
}

func TestPaymentHub_LastUnsubscribeStopsTracking(t *testing.T) {
	stopped := make(chan error, 1)
	tracker := &fakeTracker{fn: func(ctx context.Context, kind models.PaymentKind, id string, onUpdate func(models.PaymentUpdate)) (*models.PaymentUpdate, error) {
		<-ctx.Done()
		stopped <- ctx.Err()
		return nil, ctx.Err()
	}}
	hub := NewPaymentHub(tracker, zap.NewNop())
	defer hub.Close()

	a, err := hub.Subscribe(context.Background(), models.PaymentRepayment, "ext-1")
	require.NoError(t, err)
	b, err := hub.Subscribe(context.Background(), models.PaymentRepayment, "ext-1")
	require.NoError(t, err)

	hub.Unsubscribe(a)
	select {
	case <-stopped:
		t.Fatal("tracking stopped while a subscriber remained")
	case <-time.After(50 * time.Millisecond):
	}

	hub.Unsubscribe(b)
	select {
	case err := <-stopped:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("tracking did not stop")
	}
	assert.Equal(t, 0, hub.Watching())
}

func TestPaymentHub_KeepsContextValues(t *testing.T) {
	type key struct{}
	got := make(chan any, 1)
	tracker := &fakeTracker{fn: func(ctx context.Context, kind models.PaymentKind, id string, onUpdate func(models.PaymentUpdate)) (*models.PaymentUpdate, error) {
		got <- ctx.Value(key{})
		final := update("FAILED", 1)
		return &final, nil
	}}
	hub := NewPaymentHub(tracker, zap.NewNop())
	defer hub.Close()

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "token"))
	s, err := hub.Subscribe(ctx, models.PaymentPurchase, "tx-1")
	require.NoError(t, err)
	cancel()

	assert.Equal(t, "token", <-got)
	drain(t, s)
	final, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, "FAILED", final.State)
}

func TestPaymentHub_InvalidInput(t *testing.T) {
	hub := NewPaymentHub(&fakeTracker{}, zap.NewNop())
	defer hub.Close()

	_, err := hub.Subscribe(context.Background(), "refund", "x")
	assert.ErrorIs(t, err, services.ErrInvalidInput)
	_, err = hub.Subscribe(context.Background(), models.PaymentPurchase, "")
	assert.ErrorIs(t, err, services.ErrInvalidInput)
	assert.Equal(t, 0, hub.Watching())
}

func TestPaymentHub_UsersDoNotShareTrackers(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	tokens := map[string]int{}
	tracker := &fakeTracker{fn: func(ctx context.Context, kind models.PaymentKind, id string, onUpdate func(models.PaymentUpdate)) (*models.PaymentUpdate, error) {
		mu.Lock()
		tokens[apiclient.TokenFrom(ctx)]++
		mu.Unlock()
		<-release
		final := update("SUCCESS", 1)
		final.Token = "for-" + apiclient.TokenFrom(ctx)
		onUpdate(final)
		return &final, nil
	}}
	hub := NewPaymentHub(tracker, zap.NewNop())
	defer hub.Close()

	a, err := hub.Subscribe(apiclient.WithToken(context.Background(), "alice-token"), models.PaymentPurchase, "41")
	require.NoError(t, err)
	m, err := hub.Subscribe(apiclient.WithToken(context.Background(), "mallory-token"), models.PaymentPurchase, "41")
	require.NoError(t, err)
	assert.Equal(t, 2, hub.Watching())
	close(release)

	drain(t, a)
	drain(t, m)
	fa, err := a.Result()
	require.NoError(t, err)
	fm, err := m.Result()
	require.NoError(t, err)
	assert.Equal(t, "for-alice-token", fa.Token)
	assert.Equal(t, "for-mallory-token", fm.Token)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"alice-token": 1, "mallory-token": 1}, tokens)
}
