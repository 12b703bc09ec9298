// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap/zaptest"

	"pii-linkage/internal/dedup"
	"pii-linkage/internal/normalize"
	"pii-linkage/internal/policy"
	"pii-linkage/internal/resolver"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("linkage"),
		tcpostgres.WithUsername("linkage"),
		tcpostgres.WithPassword("test_password"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	require.NoError(t, RunMigrations(connStr, logger))
	require.NoError(t, RunMigrations(connStr, logger), "migrations are idempotent")

	pool, err := Connect(ctx, Config{URL: connStr, MaxConnections: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func subject(email, phone string, created time.Time) *dedup.Subject {
	return &dedup.Subject{
		SubjectID:       uuid.NewString(),
		CanonicalName:   "Jane Doe",
		CanonicalEmail:  email,
		CanonicalPhone:  phone,
		PIITypesFound:   []string{"EMAIL", "PERSON"},
		SourceRecords:   []string{"r1", "r2"},
		MergeConfidence: 0.85,
		ReviewStatus:    dedup.ReviewAIPending,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

func TestStoreSubjects(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestPool(t))
	now := time.Now().UTC().Truncate(time.Microsecond)

	first := subject("jane@example.com", "", now)
	first.CanonicalAddress = &normalize.Address{Street: "1 Main St", City: "Springfield", State: "IL", Zip: "62701", Country: "US"}
	require.NoError(t, store.Insert(ctx, first))
	require.NoError(t, store.Insert(ctx, subject("jane@example.com", "+14155550100", now.Add(time.Second))))

	t.Run("get round trips every field", func(t *testing.T) {
		got, err := store.Get(ctx, first.SubjectID)
		require.NoError(t, err)
		got.CreatedAt, got.UpdatedAt = got.CreatedAt.UTC(), got.UpdatedAt.UTC()
		assert.Equal(t, first, got)
	})

	t.Run("find by email returns oldest", func(t *testing.T) {
		got, err := store.FindByEmail(ctx, "jane@example.com")
		require.NoError(t, err)
		assert.Equal(t, first.SubjectID, got.SubjectID)
	})

	t.Run("find by phone", func(t *testing.T) {
		got, err := store.FindByPhone(ctx, "+14155550100")
		require.NoError(t, err)
		assert.NotEqual(t, first.SubjectID, got.SubjectID)
	})

	t.Run("misses", func(t *testing.T) {
		_, err := store.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, dedup.ErrSubjectNotFound)
		_, err = store.FindByPhone(ctx, "")
		assert.ErrorIs(t, err, dedup.ErrSubjectNotFound)
		_, err = store.Get(ctx, uuid.NewString())
		assert.ErrorIs(t, err, dedup.ErrSubjectNotFound)
	})

	t.Run("update", func(t *testing.T) {
		merged := first.MergedWith(subject("", "", now), now.Add(time.Minute))
		require.NoError(t, store.Update(ctx, merged))
		got, err := store.Get(ctx, first.SubjectID)
		require.NoError(t, err)
		assert.Equal(t, merged.SourceRecords, got.SourceRecords)
		assert.True(t, merged.UpdatedAt.Equal(got.UpdatedAt))

		missing := subject("x@example.com", "", now)
		assert.ErrorIs(t, store.Update(ctx, missing), dedup.ErrSubjectNotFound)
	})
}

func TestStoreWithDeduplicator(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestPool(t))
	d := dedup.New(store)

	group := func(id, email string) resolver.ResolvedGroup {
		return resolver.ResolvedGroup{
			GroupID:         uuid.NewString(),
			MergeConfidence: 0.9,
			Records: []resolver.LinkageRecord{{
				RecordID: id, EntityType: "EMAIL", NormalizedValue: email, RawEmail: email,
			}},
		}
	}
	subjects, err := d.BuildSubjects(ctx, []resolver.ResolvedGroup{
		group("a", "jane@example.com"),
		group("b", "jane@example.com"),
	})
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, subjects[0].SubjectID, subjects[1].SubjectID)

	got, err := store.FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, got.SourceRecords)
}

func TestStorePayloads(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	store := NewStore(pool)

	past := time.Now().UTC().Add(-time.Hour)
	entries := []policy.Entry{
		{RecordID: "r1", DocumentID: "doc", Payload: policy.Payload{
			EntityType: "EMAIL", NormalizedValue: "j**e", HashedValue: hash64('a'),
			StoragePolicy: policy.PolicyHash, WrittenAt: past,
		}},
		{RecordID: "r2", DocumentID: "doc", Payload: policy.Payload{
			EntityType: "SSN", NormalizedValue: "123456789", HashedValue: hash64('b'),
			RawValueEncrypted: "v1.token", StoragePolicy: policy.PolicyEncrypted,
			RetentionUntil: &past, WrittenAt: past,
		}},
	}
	require.NoError(t, store.SavePayloads(ctx, entries))
	require.NoError(t, store.SavePayloads(ctx, nil))

	purged, err := store.PurgeExpiredPayloads(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	var encrypted int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM storage_payloads WHERE raw_value_encrypted IS NOT NULL`).Scan(&encrypted))
	assert.Zero(t, encrypted)
}

func hash64(c byte) string {
	b := make([]byte, 64)
	for i := range b {
		b[i] = c
	}
	return string(b)
}
