package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RunLocker serialises work keyed by name across callers.
type RunLocker interface {
	// Acquire takes the lock for key. ok is false when another holder owns it.
	// The returned release func is safe to call once the lock was taken.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

const lockKeyPrefix = "helpdesk:lock:"

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0`)

type redisLocker struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisLocker returns a RunLocker backed by Redis SET NX.
func NewRedisLocker(client *redis.Client, logger *zap.Logger) RunLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisLocker{client: client, logger: logger}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	fullKey := lockKeyPrefix + key
	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release := func() { l.release(fullKey, token, ttl) }
	return release, true, nil
}

// release drops the key if we still own it. A failed release leaves the key
// in place until its TTL runs out.
func (l *redisLocker) release(fullKey, token string, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil {
		l.logger.Warn("failed to release run lock",
			zap.String("key", fullKey),
			zap.Duration("expires_within", ttl),
			zap.Error(err))
	}
}

// LocalLocker is an in-process RunLocker for single-instance deployments.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	nowFn func() time.Time
}

// NewLocalLocker creates an empty in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time), nowFn: time.Now}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFn()
	if expires, exists := l.held[key]; exists && now.Before(expires) {
		return nil, false, nil
	}
	expires := now.Add(ttl)
	l.held[key] = expires
	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.held[key].Equal(expires) {
			delete(l.held, key)
		}
	}
	return release, true, nil
}

// NewRunLocker picks the Redis locker when a client is configured.
func NewRunLocker(r *Redis) RunLocker {
	if r.Enabled() {
		return NewRedisLocker(r.Client, r.logger)
	}
	return NewLocalLocker()
}
