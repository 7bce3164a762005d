package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"energyshare/internal/models"
)

// PaymentStatusRepository keeps terminal payment outcomes so a finished
// payment is reported once and later queries skip the backend. Outcomes
// carry meter tokens, so every entry belongs to one owner and is only
// found again under that owner.
type PaymentStatusRepository interface {
	Get(ctx context.Context, owner string, kind models.PaymentKind, id string) (*models.PaymentUpdate, bool, error)
	Save(ctx context.Context, owner string, u *models.PaymentUpdate) error
}

func statusKey(owner string, kind models.PaymentKind, id string) string {
	return "payment:" + owner + ":" + string(kind) + ":" + id
}

type redisPaymentStatusRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPaymentStatusRepository(client *redis.Client, ttl time.Duration) PaymentStatusRepository {
	return &redisPaymentStatusRepository{client: client, ttl: ttl}
}

func (r *redisPaymentStatusRepository) Get(ctx context.Context, owner string, kind models.PaymentKind, id string) (*models.PaymentUpdate, bool, error) {
	val, err := r.client.Get(ctx, statusKey(owner, kind, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s:%s: %w", kind, id, err)
	}
	var u models.PaymentUpdate
	if err := json.Unmarshal(val, &u); err != nil {
		return nil, false, fmt.Errorf("decode cached status %s:%s: %w", kind, id, err)
	}
	return &u, true, nil
}

func (r *redisPaymentStatusRepository) Save(ctx context.Context, owner string, u *models.PaymentUpdate) error {
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	if err := r.client.Set(ctx, statusKey(owner, u.Kind, u.CorrelationID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s:%s: %w", u.Kind, u.CorrelationID, err)
	}
	return nil
}

type memoryEntry struct {
	update  models.PaymentUpdate
	expires time.Time
}

// memoryPaymentStatusRepository is used when no redis address is
// configured. Entries expire lazily on read.
type memoryPaymentStatusRepository struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryPaymentStatusRepository(ttl time.Duration) PaymentStatusRepository {
	return &memoryPaymentStatusRepository{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (r *memoryPaymentStatusRepository) Get(_ context.Context, owner string, kind models.PaymentKind, id string) (*models.PaymentUpdate, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := statusKey(owner, kind, id)
	e, ok := r.entries[key]
	if !ok {
		return nil, false, nil
	}
	if r.ttl > 0 && r.now().After(e.expires) {
		delete(r.entries, key)
		return nil, false, nil
	}
	u := e.update
	return &u, true, nil
}

func (r *memoryPaymentStatusRepository) Save(_ context.Context, owner string, u *models.PaymentUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[statusKey(owner, u.Kind, u.CorrelationID)] = memoryEntry{update: *u, expires: r.now().Add(r.ttl)}
	return nil
}
