// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package redislock is a dedup.KeyLocker shared by every process that talks
// to the same Redis. Each key is a SET NX entry holding a random token with a
// TTL, so a crashed holder frees its keys once the TTL lapses.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pii-linkage/internal/dedup"
	"pii-linkage/internal/resilience"
)

const (
	DefaultPrefix = "pii-linkage:lock:"
	DefaultTTL    = 30 * time.Second
)

// ErrLockTimeout is returned when a key stays held past the retry budget.
var ErrLockTimeout = errors.New("timed out waiting for lock")

var errContended = errors.New("lock held by another writer")

// Deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Option configures a Locker.
type Option func(*Locker)

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) Option {
	return func(l *Locker) { l.prefix = prefix }
}

// WithTTL sets how long a key may be held before Redis expires it.
func WithTTL(ttl time.Duration) Option {
	return func(l *Locker) { l.ttl = ttl }
}

// WithRetry sets the backoff used while a key is contended.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(l *Locker) { l.retry = cfg }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Locker) { l.logger = logger }
}

// Locker implements dedup.KeyLocker on Redis.
type Locker struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	retry  resilience.RetryConfig
	logger *zap.Logger
}

var _ dedup.KeyLocker = (*Locker)(nil)

// New creates a Locker over client.
func New(client redis.Cmdable, opts ...Option) *Locker {
	l := &Locker{
		client: client,
		prefix: DefaultPrefix,
		ttl:    DefaultTTL,
		retry:  resilience.LockRetryConfig(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.ttl <= 0 {
		l.ttl = DefaultTTL
	}
	return l
}

// Lock acquires every key in sorted order under one token. On failure the
// keys already taken are released before returning.
func (l *Locker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = dedup.SortedKeys(keys)
	token := uuid.NewString()
	held := make([]string, 0, len(keys))

	for _, k := range keys {
		redisKey := l.prefix + k
		err := resilience.RetryWithBackoff(ctx, l.retry, func(ctx context.Context) error {
			ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
			if err != nil {
				return err
			}
			if !ok {
				return resilience.NewTransientError("lock contended", errContended)
			}
			return nil
		})
		if err != nil {
			l.release(held, token)
			if errors.Is(err, errContended) {
				return nil, ErrLockTimeout
			}
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		held = append(held, redisKey)
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(held, token) }) }, nil
}

// release runs on its own context so a cancelled caller still frees its keys.
func (l *Locker) release(keys []string, token string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(keys) - 1; i >= 0; i-- {
		if err := releaseScript.Run(ctx, l.client, []string{keys[i]}, token).Err(); err != nil {
			// The key expires on its own after the TTL.
			l.logger.Warn("failed to release lock", zap.Error(err))
		}
	}
}
