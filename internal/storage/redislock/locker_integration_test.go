// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

//go:build integration

package redislock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"pii-linkage/internal/dedup"
	"pii-linkage/internal/resilience"
	"pii-linkage/internal/resolver"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxRetries:      5,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     20 * time.Millisecond,
		Multiplier:      1.0,
	}
}

func TestLockAndRelease(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	l := New(client)

	unlock, err := l.Lock(ctx, "email:b", "email:a", "email:a")
	require.NoError(t, err)

	n, err := client.Exists(ctx, DefaultPrefix+"email:a", DefaultPrefix+"email:b").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ttl, err := client.TTL(ctx, DefaultPrefix+"email:a").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	unlock()
	unlock()
	n, err = client.Exists(ctx, DefaultPrefix+"email:a", DefaultPrefix+"email:b").Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLockContention(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	holder := New(client)
	waiter := New(client, WithRetry(fastRetry()))

	unlock, err := holder.Lock(ctx, "phone:x")
	require.NoError(t, err)

	_, err = waiter.Lock(ctx, "email:a", "phone:x")
	assert.ErrorIs(t, err, ErrLockTimeout)

	n, err := client.Exists(ctx, DefaultPrefix+"email:a").Result()
	require.NoError(t, err)
	assert.Zero(t, n, "partially acquired keys are released")

	unlock()
	unlock2, err := waiter.Lock(ctx, "email:a", "phone:x")
	require.NoError(t, err)
	unlock2()
}

func TestReleaseKeepsForeignToken(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	l := New(client, WithTTL(50*time.Millisecond))

	unlock, err := l.Lock(ctx, "email:a")
	require.NoError(t, err)

	// The key expires and another writer takes it before we release.
	require.NoError(t, client.Set(ctx, DefaultPrefix+"email:a", "someone-else", 0).Err())
	unlock()

	val, err := client.Get(ctx, DefaultPrefix+"email:a").Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val)
}

func TestMutualExclusion(t *testing.T) {
	ctx := context.Background()
	l := New(newTestClient(t))

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "email:shared")
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestDeduplicatorWithRedisLocker(t *testing.T) {
	ctx := context.Background()
	store := dedup.NewMemoryStore()
	d := dedup.New(store, dedup.WithLocker(New(newTestClient(t))), dedup.WithWorkers(8))

	var groups []resolver.ResolvedGroup
	for i := range 10 {
		groups = append(groups, resolver.ResolvedGroup{
			GroupID:         string(rune('a' + i)),
			MergeConfidence: 1.0,
			Records: []resolver.LinkageRecord{{
				RecordID: string(rune('a' + i)), EntityType: "EMAIL",
				NormalizedValue: "jane@example.com", RawEmail: "jane@example.com",
			}},
		})
	}
	_, err := d.BuildSubjects(ctx, groups)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
	assert.Len(t, store.All()[0].SourceRecords, 10)
}
