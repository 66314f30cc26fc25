package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	lnsms "github.com/lnsms/go"
)

const (
	defaultKeyPrefix         = "lnsms"
	defaultLockTTL           = 2 * time.Minute
	defaultLockRetryInterval = 50 * time.Millisecond
	maxWatchRetries          = 5
)

// unlockScript deletes the lock only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisStore provides a Redis-backed implementation of lnsms.Store.
//
// Each request is stored as a JSON document under <prefix>:charge:<id>.
// Locks live under <prefix>:lock:<id> and carry a random token so that an
// instance only ever releases its own lock. A lock expires after the lock TTL
// if its holder dies, which bounds how long a crashed instance can block a
// charge.
type RedisStore struct {
	client            redis.UniversalClient
	prefix            string
	ttl               time.Duration
	lockTTL           time.Duration
	lockRetryInterval time.Duration
	logger            *slog.Logger
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the key namespace. Default: "lnsms"
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL expires request documents after ttl. Zero keeps them forever (the default).
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithLockTTL sets how long an abandoned lock survives. Default: 2 minutes
//
// It must exceed the longest fulfillment call (two provider round trips).
func WithLockTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithLockRetryInterval sets the polling interval while waiting for a lock.
func WithLockRetryInterval(interval time.Duration) RedisOption {
	return func(s *RedisStore) {
		if interval > 0 {
			s.lockRetryInterval = interval
		}
	}
}

// WithRedisLogger sets the logger used for lock release failures.
func WithRedisLogger(logger *slog.Logger) RedisOption {
	return func(s *RedisStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRedisStore creates a registry over an existing Redis client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:            client,
		prefix:            defaultKeyPrefix,
		lockTTL:           defaultLockTTL,
		lockRetryInterval: defaultLockRetryInterval,
		logger:            slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *RedisStore) chargeKey(chargeID string) string {
	return fmt.Sprintf("%s:charge:%s", s.prefix, chargeID)
}

func (s *RedisStore) lockKey(chargeID string) string {
	return fmt.Sprintf("%s:lock:%s", s.prefix, chargeID)
}

// Insert adds a request with SET NX, failing with lnsms.ErrDuplicateKey if present.
func (s *RedisStore) Insert(ctx context.Context, req *lnsms.PaymentRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal payment request: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.chargeKey(req.ChargeID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis insert failed: %w", err)
	}
	if !ok {
		return lnsms.ErrDuplicateKey
	}
	return nil
}

// Get loads and decodes the request stored under chargeID.
func (s *RedisStore) Get(ctx context.Context, chargeID string) (*lnsms.PaymentRequest, error) {
	data, err := s.client.Get(ctx, s.chargeKey(chargeID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, lnsms.NotFoundError(chargeID)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return decodeRequest(data)
}

// UpdateOnDelivery applies the delivery inside a WATCH transaction, keeping
// the key's remaining TTL.
func (s *RedisStore) UpdateOnDelivery(ctx context.Context, chargeID string, delivery lnsms.Delivery) (*lnsms.PaymentRequest, error) {
	key := s.chargeKey(chargeID)
	var updated *lnsms.PaymentRequest

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return lnsms.NotFoundError(chargeID)
		}
		if err != nil {
			return fmt.Errorf("redis get failed: %w", err)
		}

		req, err := decodeRequest(data)
		if err != nil {
			return err
		}
		if req.Delivered {
			return lnsms.ErrAlreadyDelivered
		}

		applyDelivery(req, delivery)
		encoded, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal payment request: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, redis.KeepTTL)
			return nil
		})
		if err != nil {
			return err
		}
		updated = req
		return nil
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("redis update of charge %s kept conflicting", chargeID)
}

// Lock acquires the distributed per-charge lock, polling until ctx is done.
func (s *RedisStore) Lock(ctx context.Context, chargeID string) (func(), error) {
	key := s.lockKey(chargeID)
	token := uuid.NewString()

	ticker := time.NewTicker(s.lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := s.client.SetNX(ctx, key, token, s.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock failed: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := unlockScript.Run(releaseCtx, s.client, []string{key}, token).Err(); err != nil {
			s.logger.Warn("failed to release charge lock", "charge_id", chargeID, "error", err)
		}
	}, nil
}

func decodeRequest(data []byte) (*lnsms.PaymentRequest, error) {
	var req lnsms.PaymentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to decode payment request: %w", err)
	}
	return &req, nil
}

// Ensure RedisStore implements lnsms.Store
var _ lnsms.Store = (*RedisStore)(nil)
