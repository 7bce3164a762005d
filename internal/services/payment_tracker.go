package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"energyshare/internal/apiclient"
	"energyshare/internal/config"
	"energyshare/internal/models"
	"energyshare/internal/poll"
	"energyshare/internal/repositories"
	"energyshare/internal/session"
)

const (
	msgPurchaseDone   = "Payment completed successfully!"
	msgRepaymentDone  = "Payment successful! check your account balance to confirm."
	msgPaymentFailed  = "Payment failed"
	msgCannotVerify   = "Unable to verify payment. Please check your transactions."
	msgCheckingStatus = "Checking payment status...."
)

// PaymentTracker follows a pending purchase or repayment until the backend
// reports a terminal outcome. Outcomes are cached per caller: the owner of
// the token in ctx is the only one a cached outcome is served to.
type PaymentTracker interface {
	// Track polls until a terminal state or until ctx is done. onUpdate sees
	// every tick, the terminal one exactly once. A cached outcome is
	// reported once without polling.
	Track(ctx context.Context, kind models.PaymentKind, id string, onUpdate func(models.PaymentUpdate)) (*models.PaymentUpdate, error)
	// Status is a one-shot check: the cached outcome if any, else the backend.
	Status(ctx context.Context, kind models.PaymentKind, id string) (*models.PaymentUpdate, error)
}

type paymentTracker struct {
	api     Backend
	repo    repositories.PaymentStatusRepository
	polling config.PollingConfig
	sandbox config.SandboxConfig
	log     *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	active map[string]struct{}
}

func NewPaymentTracker(api Backend, repo repositories.PaymentStatusRepository, polling config.PollingConfig, sandbox config.SandboxConfig, log *zap.Logger) PaymentTracker {
	return &paymentTracker{
		api:     api,
		repo:    repo,
		polling: polling,
		sandbox: sandbox,
		log:     log,
		now:     time.Now,
		active:  make(map[string]struct{}),
	}
}

func trackKey(owner string, kind models.PaymentKind, id string) string {
	return owner + "|" + string(kind) + ":" + id
}

func (t *paymentTracker) acquire(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.active[key]; busy {
		return false
	}
	t.active[key] = struct{}{}
	return true
}

func (t *paymentTracker) release(key string) {
	t.mu.Lock()
	delete(t.active, key)
	t.mu.Unlock()
}

func (t *paymentTracker) cached(ctx context.Context, owner string, kind models.PaymentKind, id string) *models.PaymentUpdate {
	if owner == "" {
		return nil
	}
	u, ok, err := t.repo.Get(ctx, owner, kind, id)
	if err != nil {
		t.log.Warn("[payments][cache] read failed", zap.String("kind", string(kind)), zap.String("id", id), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return u
}

func (t *paymentTracker) Track(ctx context.Context, kind models.PaymentKind, id string, onUpdate func(models.PaymentUpdate)) (*models.PaymentUpdate, error) {
	if !kind.Valid() {
		return nil, invalid("kind", fmt.Sprintf("unknown payment kind %q", kind))
	}
	if id == "" {
		return nil, invalid("id", "correlation id is required")
	}
	if onUpdate == nil {
		onUpdate = func(models.PaymentUpdate) {}
	}

	owner := session.Owner(apiclient.TokenFrom(ctx))
	if u := t.cached(ctx, owner, kind, id); u != nil {
		onUpdate(*u)
		return u, nil
	}

	key := trackKey(owner, kind, id)
	if !t.acquire(key) {
		return nil, ErrAlreadyTracking
	}
	defer t.release(key)

	p := t.poller(kind)
	t.log.Info("[payments][track] start",
		zap.String("kind", string(kind)),
		zap.String("id", id),
		zap.Duration("interval", p.Interval),
	)

	res, err := p.Run(ctx, t.check(kind, id), func(tk poll.Tick) {
		if !tk.State.Terminal() {
			onUpdate(t.update(kind, id, tk, nil))
		}
	})
	if err != nil {
		t.log.Info("[payments][track] stopped", zap.String("kind", string(kind)), zap.String("id", id), zap.Error(err))
		return nil, err
	}

	final := t.update(kind, id, res.Tick, res.Err)
	onUpdate(final)

	// Only outcomes the backend reported are cached; a failed check may
	// still settle later.
	if res.Err == nil {
		t.save(ctx, owner, &final)
	}
	t.log.Info("[payments][track] done",
		zap.String("kind", string(kind)),
		zap.String("id", id),
		zap.String("state", final.State),
		zap.Int("attempts", final.Attempt),
	)
	return &final, nil
}

func (t *paymentTracker) Status(ctx context.Context, kind models.PaymentKind, id string) (*models.PaymentUpdate, error) {
	if !kind.Valid() {
		return nil, invalid("kind", fmt.Sprintf("unknown payment kind %q", kind))
	}
	owner := session.Owner(apiclient.TokenFrom(ctx))
	if u := t.cached(ctx, owner, kind, id); u != nil {
		return u, nil
	}
	st, payload, err := t.fetch(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	u := t.update(kind, id, poll.Tick{Attempt: 1, State: st, Payload: payload}, nil)
	if st.Terminal() {
		t.save(ctx, owner, &u)
	}
	return &u, nil
}

func (t *paymentTracker) save(ctx context.Context, owner string, u *models.PaymentUpdate) {
	if owner == "" {
		return
	}
	if err := t.repo.Save(ctx, owner, u); err != nil {
		t.log.Warn("[payments][cache] write failed", zap.String("kind", string(u.Kind)), zap.String("id", u.CorrelationID), zap.Error(err))
	}
}

func (t *paymentTracker) poller(kind models.PaymentKind) poll.Poller {
	if kind == models.PaymentPurchase {
		// the purchase screen checks at once, then every interval
		return poll.Poller{Interval: t.polling.PurchaseInterval, Immediate: true, MaxAttempts: t.polling.MaxAttempts}
	}
	return poll.Poller{Interval: t.polling.RepaymentInterval, MaxAttempts: t.polling.MaxAttempts}
}

func (t *paymentTracker) simulated(kind models.PaymentKind) bool {
	return kind == models.PaymentRepayment && t.sandbox.SimulateRepaymentAfter > 0
}

func (t *paymentTracker) check(kind models.PaymentKind, id string) poll.CheckFunc {
	if t.simulated(kind) {
		after := t.sandbox.SimulateRepaymentAfter
		return func(ctx context.Context, attempt int) (poll.State, any, error) {
			if attempt > after {
				return poll.Success, &models.PaymentStatus{PaymentStatus: "SUCCESS", Message: msgRepaymentDone}, nil
			}
			return poll.Pending, nil, nil
		}
	}
	return func(ctx context.Context, attempt int) (poll.State, any, error) {
		return t.fetch(ctx, kind, id)
	}
}

// fetch asks the backend once and maps its answer to a polling state.
func (t *paymentTracker) fetch(ctx context.Context, kind models.PaymentKind, id string) (poll.State, any, error) {
	var st models.PaymentStatus
	var err error
	switch kind {
	case models.PaymentPurchase:
		resp, rerr := t.api.Post(ctx, "transactions/check-payment-status/", map[string]string{"transaction_id": id})
		err = result(resp, rerr, &st)
	default:
		resp, rerr := t.api.Get(ctx, "loans/payment-status/"+url.PathEscape(id)+"/")
		err = result(resp, rerr, &st)
	}
	if err != nil {
		// a settled failure may come back as a 4xx carrying the status
		if reported, ok := reportedStatus(err); ok {
			return PaymentState(reported.State()), reported, nil
		}
		if ctx.Err() == nil {
			t.log.Warn("[payments][check] failed", zap.String("kind", string(kind)), zap.String("id", id), zap.Error(err))
		}
		return poll.Idle, nil, err
	}
	return PaymentState(st.State()), &st, nil
}

// reportedStatus recovers a terminal payment status from a backend error
// body such as {"status": "FAILED", "message": "Payment failed"}.
func reportedStatus(err error) (*models.PaymentStatus, bool) {
	ae, ok := apiclient.AsAPIError(err)
	if !ok || len(ae.Raw) == 0 {
		return nil, false
	}
	var st models.PaymentStatus
	if json.Unmarshal(ae.Raw, &st) != nil || !PaymentState(st.State()).Terminal() {
		return nil, false
	}
	return &st, true
}

// PaymentState maps a backend payment status to a polling state. Anything
// unknown keeps polling.
func PaymentState(raw string) poll.State {
	switch raw {
	case "SUCCESS", "SUCCESSFUL", "COMPLETED":
		return poll.Success
	case "FAILED", "CANCELLED", "REJECTED", "EXPIRED":
		return poll.Failed
	default:
		return poll.Pending
	}
}

func (t *paymentTracker) update(kind models.PaymentKind, id string, tk poll.Tick, runErr error) models.PaymentUpdate {
	u := models.PaymentUpdate{
		Kind:          kind,
		CorrelationID: id,
		State:         string(tk.State),
		Attempt:       tk.Attempt,
		UpdatedAt:     t.now().UTC(),
	}
	st, _ := tk.Payload.(*models.PaymentStatus)
	if st != nil {
		u.Message = st.Message
		u.Token = st.Token
		u.Units = st.Units()
		u.Transaction = st.Transaction
	}

	switch {
	case runErr != nil:
		u.State = string(poll.Failed)
		u.Message = msgCannotVerify
	case tk.State == poll.Success:
		if kind == models.PaymentRepayment {
			u.Message = msgRepaymentDone
		} else {
			u.Message = msgPurchaseDone
		}
	case tk.State == poll.Failed:
		if u.Message == "" {
			u.Message = msgPaymentFailed
		}
	default:
		u.State = string(poll.Pending)
		u.Message = msgCheckingStatus
	}
	return u
}
