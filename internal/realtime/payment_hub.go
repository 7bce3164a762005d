package realtime

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"energyshare/internal/apiclient"
	"energyshare/internal/models"
	"energyshare/internal/services"
	"energyshare/internal/session"
)

const subscriberBuffer = 16

// PaymentHub fans the updates of one tracked payment out to every socket
// watching it. A payment is tracked once per user no matter how many of
// that user's sockets watch; tracking stops when the last one leaves.
// Sockets of different users never share a tracker, since each tracker
// checks the backend with its first subscriber's token.
type PaymentHub struct {
	tracker services.PaymentTracker
	log     *zap.Logger

	mu     sync.Mutex
	topics map[string]*topic
	wg     sync.WaitGroup
}

type topic struct {
	key    string
	subs   map[*Subscriber]struct{}
	cancel context.CancelFunc
}

// Subscriber receives the updates of one payment. Updates is closed when
// tracking ends; Result then holds the outcome.
type Subscriber struct {
	t       *topic
	updates chan models.PaymentUpdate
	final   *models.PaymentUpdate
	err     error
}

func (s *Subscriber) Updates() <-chan models.PaymentUpdate { return s.updates }

// Result is only meaningful after Updates is closed.
func (s *Subscriber) Result() (*models.PaymentUpdate, error) { return s.final, s.err }

func NewPaymentHub(tracker services.PaymentTracker, log *zap.Logger) *PaymentHub {
	return &PaymentHub{
		tracker: tracker,
		log:     log,
		topics:  make(map[string]*topic),
	}
}

// Subscribe joins the payment's topic, starting the tracker if nobody is
// watching yet. The tracker keeps ctx's values (the caller's token) but
// not its cancellation.
func (h *PaymentHub) Subscribe(ctx context.Context, kind models.PaymentKind, id string) (*Subscriber, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown payment kind %q", services.ErrInvalidInput, kind)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: correlation id is required", services.ErrInvalidInput)
	}

	key := session.Owner(apiclient.TokenFrom(ctx)) + "|" + string(kind) + ":" + id
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.topics[key]
	if !ok {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		t = &topic{key: key, subs: make(map[*Subscriber]struct{}), cancel: cancel}
		h.topics[key] = t
		h.wg.Add(1)
		go h.run(runCtx, t, kind, id)
	}
	s := &Subscriber{t: t, updates: make(chan models.PaymentUpdate, subscriberBuffer)}
	t.subs[s] = struct{}{}
	return s, nil
}

// Unsubscribe leaves the topic. The last subscriber out stops the tracker.
func (h *PaymentHub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t := s.t
	if _, ok := t.subs[s]; !ok {
		return
	}
	delete(t.subs, s)
	if len(t.subs) == 0 {
		t.cancel()
		if h.topics[t.key] == t {
			delete(h.topics, t.key)
		}
	}
}

func (h *PaymentHub) run(ctx context.Context, t *topic, kind models.PaymentKind, id string) {
	defer h.wg.Done()
	defer t.cancel()

	final, err := h.tracker.Track(ctx, kind, id, func(u models.PaymentUpdate) {
		h.broadcast(t, u)
	})
	if err != nil && ctx.Err() == nil {
		h.log.Info("[payments][hub] tracking ended", zap.String("key", t.key), zap.Error(err))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range t.subs {
		s.final, s.err = final, err
		close(s.updates)
		delete(t.subs, s)
	}
	if h.topics[t.key] == t {
		delete(h.topics, t.key)
	}
}

func (h *PaymentHub) broadcast(t *topic, u models.PaymentUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range t.subs {
		select {
		case s.updates <- u:
		default:
			// slow reader; the terminal update is still available via Result
			h.log.Debug("[payments][hub] update dropped", zap.String("key", t.key), zap.Int("attempt", u.Attempt))
		}
	}
}

// Watching reports how many payments are currently tracked.
func (h *PaymentHub) Watching() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics)
}

// Close stops every tracker and waits for them to return.
func (h *PaymentHub) Close() {
	h.mu.Lock()
	for _, t := range h.topics {
		t.cancel()
	}
	h.mu.Unlock()
	h.wg.Wait()
}
