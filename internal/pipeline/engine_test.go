// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"pii-linkage/internal/catalog"
	"pii-linkage/internal/dedup"
	"pii-linkage/internal/detector"
	"pii-linkage/internal/metrics"
	"pii-linkage/internal/policy"
	"pii-linkage/internal/readers"
	"pii-linkage/internal/resilience"
	"pii-linkage/internal/resolver"
)

type recordingSink struct {
	mu      sync.Mutex
	calls   int
	fail    []error
	entries []policy.Entry
}

func (s *recordingSink) SavePayloads(_ context.Context, entries []policy.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.fail) > 0 {
		err := s.fail[0]
		s.fail = s.fail[1:]
		return err
	}
	s.entries = append(s.entries, entries...)
	return nil
}

type reverseEncrypter struct{}

func (reverseEncrypter) Encrypt(s string) (string, error) {
	r := []rune(s)
	slices.Reverse(r)
	return "v1." + string(r), nil
}

func (reverseEncrypter) Decrypt(s string) (string, error) {
	r := []rune(s[3:])
	slices.Reverse(r)
	return string(r), nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// fixtures writes a memo and a spreadsheet that mention the same person.
func fixtures(t *testing.T) []Document {
	dir := t.TempDir()
	memo := writeFile(t, dir, "memo.txt", "Please contact jane.doe@example.com about the renewal.\n")
	sheet := writeFile(t, dir, "people.csv", "Name,Email,Phone\nJane Doe,JANE.DOE@example.com,(415) 555-0132\n")
	return DocumentsFromPaths([]string{memo, sheet})
}

type engineSetup struct {
	mode     policy.Mode
	enc      policy.Encryption
	sink     PayloadSink
	logger   *zap.Logger
	metrics  *metrics.Metrics
	store    *dedup.MemoryStore
	progress func(completed, total int, jobID string)
}

func newTestEngine(t *testing.T, s engineSetup) *Engine {
	t.Helper()
	if s.mode == "" {
		s.mode = policy.ModeStrict
	}
	if s.store == nil {
		s.store = dedup.NewMemoryStore()
	}
	res, err := resolver.New(nil, resolver.WithMetrics(s.metrics))
	require.NoError(t, err)
	pol, err := policy.NewEngine(policy.DefaultConfig(s.mode), "tenant-salt", s.enc, policy.WithMetrics(s.metrics))
	require.NoError(t, err)

	eng, err := NewEngine(Components{
		Readers:      readers.NewRegistry(),
		Catalog:      catalog.Default(),
		Geographies:  []catalog.Geography{catalog.GeographyUS},
		Resolver:     res,
		Deduplicator: dedup.New(s.store, dedup.WithMetrics(s.metrics)),
		Policy:       pol,
		Payloads:     s.sink,
	},
		WithWorkers(2),
		WithLogger(s.logger),
		WithMetrics(s.metrics),
		WithProgress(s.progress),
		WithRetry(resilience.RetryConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1}),
	)
	require.NoError(t, err)
	return eng
}

func groupSpanning(r *Report, docs []Document) *GroupSummary {
	for i := range r.Groups {
		g := &r.Groups[i]
		if len(g.Documents) < len(docs) {
			continue
		}
		all := true
		for _, d := range docs {
			all = all && slices.Contains(g.Documents, d.ID)
		}
		if all {
			return g
		}
	}
	return nil
}

func TestNewEngineRequiresComponents(t *testing.T) {
	_, err := NewEngine(Components{})
	assert.Error(t, err)
}

func TestRunLinksAcrossDocuments(t *testing.T) {
	docs := fixtures(t)
	sink := &recordingSink{}
	store := dedup.NewMemoryStore()
	eng := newTestEngine(t, engineSetup{sink: sink, store: store})

	report, err := eng.Run(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Documents)
	assert.Empty(t, report.Failures)
	assert.GreaterOrEqual(t, report.Detections, 3)
	assert.GreaterOrEqual(t, report.Records, 3)

	g := groupSpanning(report, docs)
	require.NotNil(t, g, "the memo and the spreadsheet row describe one person")
	assert.Contains(t, g.EntityTypes, "EMAIL")
	assert.Contains(t, g.EntityTypes, "EMAIL_ADDRESS")
	assert.Contains(t, g.EntityTypes, "PHONE_NUMBER")
	assert.True(t, g.NeedsHumanReview, "an email-only link is below the review threshold")
	assert.Less(t, g.MergeConfidence, resolver.ReviewThreshold)

	var subject *dedup.Subject
	for _, s := range report.Subjects {
		if s.SubjectID == g.SubjectID {
			subject = s
		}
	}
	require.NotNil(t, subject)
	assert.Equal(t, "jane.doe@example.com", subject.CanonicalEmail)
	assert.Equal(t, "+14155550132", subject.CanonicalPhone)
	assert.Equal(t, len(report.Subjects), store.Len())

	require.Len(t, report.Payloads, report.Records)
	assert.Equal(t, map[string]int{policy.PolicyHash: report.Records}, report.PayloadsByPolicy())
	for _, p := range report.Payloads {
		assert.Empty(t, p.RawValueEncrypted)
		assert.NotEmpty(t, p.HashedValue)
		assert.NotEmpty(t, p.RecordID)
	}
	assert.Equal(t, 1, sink.calls)
	assert.Equal(t, report.Payloads, sink.entries)
}

func TestRunIsIdempotentAgainstTheStore(t *testing.T) {
	docs := fixtures(t)
	store := dedup.NewMemoryStore()
	eng := newTestEngine(t, engineSetup{store: store})

	first, err := eng.Run(context.Background(), docs)
	require.NoError(t, err)
	second, err := eng.Run(context.Background(), docs)
	require.NoError(t, err)

	g1, g2 := groupSpanning(first, docs), groupSpanning(second, docs)
	require.NotNil(t, g1)
	require.NotNil(t, g2)
	assert.Equal(t, g1.SubjectID, g2.SubjectID, "the second run merges into the stored subject")
}

func TestRunReportsUnreadableDocuments(t *testing.T) {
	dir := t.TempDir()
	docs := append(fixtures(t),
		Document{ID: "missing", Path: filepath.Join(dir, "missing.txt")},
		Document{ID: "binary", Path: writeFile(t, dir, "blob.bin", "\x00\x01")},
	)

	var progressed []string
	var mu sync.Mutex
	eng := newTestEngine(t, engineSetup{progress: func(_, _ int, id string) {
		mu.Lock()
		progressed = append(progressed, id)
		mu.Unlock()
	}})

	report, err := eng.Run(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "missing", report.Failures[0].DocumentID)
	assert.Equal(t, "binary", report.Failures[1].DocumentID)
	assert.Contains(t, report.Failures[1].Error, readers.ErrUnsupportedFormat.Error())
	assert.NotNil(t, groupSpanning(report, docs[:2]))
	assert.Len(t, progressed, len(docs))
}

func TestRunInvestigationMode(t *testing.T) {
	docs := fixtures(t)
	eng := newTestEngine(t, engineSetup{mode: policy.ModeInvestigation, enc: policy.EncryptionFrom(reverseEncrypter{})})

	report, err := eng.Run(context.Background(), docs)
	require.NoError(t, err)
	require.NotEmpty(t, report.Payloads)
	for _, p := range report.Payloads {
		assert.Equal(t, policy.PolicyEncrypted, p.StoragePolicy)
		assert.NotEmpty(t, p.RawValueEncrypted)
		require.NotNil(t, p.RetentionUntil)
	}
}

func TestRunFailsClosedWithoutEncryption(t *testing.T) {
	sink := &recordingSink{}
	store := dedup.NewMemoryStore()
	m := metrics.New(prometheus.NewRegistry())
	eng := newTestEngine(t, engineSetup{mode: policy.ModeInvestigation, sink: sink, store: store, metrics: m})

	report, err := eng.Run(context.Background(), fixtures(t))
	require.ErrorIs(t, err, policy.ErrEncryptionUnavailable)
	assert.Nil(t, report)
	assert.Zero(t, sink.calls, "no payload is written when the policy refuses a record")
	assert.Zero(t, store.Len(), "no subject is written when the policy refuses a record")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PolicyFailures.WithLabelValues("encryption_unavailable")))
}

func TestRunRetriesTransientSinkErrors(t *testing.T) {
	sink := &recordingSink{fail: []error{errors.New("LOADING Redis is loading the dataset in memory")}}
	eng := newTestEngine(t, engineSetup{sink: sink})

	report, err := eng.Run(context.Background(), fixtures(t))
	require.NoError(t, err)
	assert.Equal(t, 2, sink.calls)
	assert.Equal(t, report.Payloads, sink.entries)
}

func TestRunStopsOnPermanentSinkErrors(t *testing.T) {
	sink := &recordingSink{fail: []error{resilience.NewPermanentError("constraint violated", nil)}}
	eng := newTestEngine(t, engineSetup{sink: sink})

	_, err := eng.Run(context.Background(), fixtures(t))
	require.Error(t, err)
	assert.Equal(t, 1, sink.calls)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	eng := newTestEngine(t, engineSetup{})

	_, err := eng.Run(ctx, fixtures(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunNeverLeaksValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	eng := newTestEngine(t, engineSetup{logger: zap.New(core)})

	report, err := eng.Run(context.Background(), fixtures(t))
	require.NoError(t, err)

	secrets := []string{"jane.doe@example.com", "JANE.DOE@example.com", "555-0132", "Jane Doe"}
	for _, e := range logs.All() {
		for _, s := range secrets {
			assert.NotContains(t, e.Message, s)
			for _, v := range e.ContextMap() {
				assert.NotContains(t, fmt.Sprint(v), s)
			}
		}
	}

	out, err := json.Marshal(report)
	require.NoError(t, err)
	for _, s := range secrets {
		assert.NotContains(t, string(out), s)
	}
}

func TestRunUsesRecognizerPerWorker(t *testing.T) {
	var mu sync.Mutex
	created := 0
	factory := func() (detector.Recognizer, error) {
		mu.Lock()
		created++
		mu.Unlock()
		return personRecognizer(), nil
	}

	eng := newTestEngine(t, engineSetup{})
	eng.c.Recognizer = factory
	_, err := eng.Run(context.Background(), fixtures(t))
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	eng.c.Recognizer = func() (detector.Recognizer, error) { return nil, errors.New("model missing") }
	_, err = eng.Run(context.Background(), fixtures(t))
	assert.Error(t, err)
}

func TestReportReviewCount(t *testing.T) {
	r := &Report{Groups: []GroupSummary{{NeedsHumanReview: true}, {}, {NeedsHumanReview: true}}}
	assert.Equal(t, 2, r.ReviewCount())
}
