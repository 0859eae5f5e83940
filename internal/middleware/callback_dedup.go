package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const duplicateKey = "callback_duplicate"

// CallbackDeduper tracks gateway callbacks that were already received.
type CallbackDeduper interface {
	Seen(ctx context.Context, key string) (bool, error)
}

type redisCallbackDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (d *redisCallbackDeduper) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+":"+key, "1", d.ttl).Result()
	if err != nil {
		return false, err
	}
	// false => already exists => duplicate
	return !ok, nil
}

type memoryCallbackDeduper struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	ttl    time.Duration
	nextGC time.Time
	now    func() time.Time
}

func newMemoryCallbackDeduper(ttl time.Duration) *memoryCallbackDeduper {
	now := time.Now()
	return &memoryCallbackDeduper{
		seen:   make(map[string]time.Time),
		ttl:    ttl,
		nextGC: now.Add(ttl),
		now:    time.Now,
	}
}

func (d *memoryCallbackDeduper) Seen(_ context.Context, key string) (bool, error) {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.seen[key]; ok && exp.After(now) {
		return true, nil
	}

	d.seen[key] = now.Add(d.ttl)
	if now.After(d.nextGC) {
		for k, exp := range d.seen {
			if exp.Before(now) {
				delete(d.seen, k)
			}
		}
		d.nextGC = now.Add(d.ttl)
	}

	return false, nil
}

// NewCallbackDeduper uses Redis when client is non-nil and process memory otherwise.
func NewCallbackDeduper(client *redis.Client, ttl time.Duration) CallbackDeduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if client == nil {
		return newMemoryCallbackDeduper(ttl)
	}
	return &redisCallbackDeduper{
		client: client,
		prefix: "payment:callback",
		ttl:    ttl,
	}
}

// CallbackDedup flags repeated gateway callbacks for the same transaction,
// validation id and route. Handlers check IsDuplicateCallback and answer
// from stored state instead of processing again.
func CallbackDedup(deduper CallbackDeduper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if deduper == nil {
				return next(c)
			}

			tranID := c.FormValue("tran_id")
			if tranID == "" {
				tranID = c.QueryParam("tran_id")
			}
			if tranID == "" {
				return next(c)
			}
			valID := c.FormValue("val_id")
			if valID == "" {
				valID = c.QueryParam("val_id")
			}

			sum := sha256.Sum256([]byte(c.Path() + "|" + tranID + "|" + valID))
			isDuplicate, err := deduper.Seen(c.Request().Context(), hex.EncodeToString(sum[:16]))
			if err != nil {
				return next(c)
			}
			if isDuplicate {
				c.Set(duplicateKey, true)
			}
			return next(c)
		}
	}
}

// IsDuplicateCallback reports whether CallbackDedup saw this callback before.
func IsDuplicateCallback(c echo.Context) bool {
	dup, _ := c.Get(duplicateKey).(bool)
	return dup
}
