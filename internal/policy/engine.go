// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"fmt"
	"time"

	"pii-linkage/internal/metrics"
	"pii-linkage/internal/security"
)

// Payload is what gets written for one detected value. It is built fresh on
// every write and never edited afterwards. RawValueEncrypted is empty and
// RetentionUntil nil under the hash policy.
type Payload struct {
	EntityType        string     `json:"entity_type" yaml:"entity_type"`
	NormalizedValue   string     `json:"normalized_value" yaml:"normalized_value"`
	HashedValue       string     `json:"hashed_value" yaml:"hashed_value"`
	RawValueEncrypted string     `json:"raw_value_encrypted,omitempty" yaml:"raw_value_encrypted,omitempty"`
	StoragePolicy     string     `json:"storage_policy" yaml:"storage_policy"`
	RetentionUntil    *time.Time `json:"retention_until,omitempty" yaml:"retention_until,omitempty"`
	WrittenAt         time.Time  `json:"written_at" yaml:"written_at"`
}

// Entry ties a payload to the linkage record and document it was built for.
type Entry struct {
	RecordID   string `json:"record_id" yaml:"record_id"`
	DocumentID string `json:"document_id" yaml:"document_id"`
	Payload    `yaml:",inline"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine applies a storage policy. It has no mutable state and is safe for
// concurrent use.
type Engine struct {
	cfg        Config
	salt       *security.SecureString
	encryption Encryption
	now        func() time.Time
	metrics    *metrics.Metrics
}

// NewEngine validates cfg and creates an Engine. The encryption capability is
// only consulted in investigation mode.
func NewEngine(cfg Config, tenantSalt string, enc Encryption, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tenantSalt == "" {
		return nil, ErrMissingSalt
	}
	if enc == nil {
		enc = NoEncryption{}
	}
	e := &Engine{
		cfg:        cfg,
		salt:       security.NewSecureString(tenantSalt),
		encryption: enc,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Mode returns the engine's storage mode.
func (e *Engine) Mode() Mode { return e.cfg.Mode }

// Apply builds the payload for one value. The hash covers the normalized
// value, or the raw value when there is no normalized form. Errors never
// include either value.
func (e *Engine) Apply(entityType, rawValue, normalizedValue string) (Payload, error) {
	if rawValue == "" {
		e.metrics.ObservePolicyFailure("empty_value")
		return Payload{}, ErrEmptyValue
	}
	normalized := normalizedValue
	if normalized == "" {
		normalized = rawValue
	}
	now := e.now().UTC()
	p := Payload{
		EntityType:  entityType,
		HashedValue: security.HashWithTenantSalt(normalized, e.salt.Bytes()),
		WrittenAt:   now,
	}

	switch e.cfg.Mode {
	case ModeStrict:
		p.NormalizedValue = normalized
		if e.cfg.MaskNormalizedInStrict {
			p.NormalizedValue = Mask(normalized)
		}
		p.StoragePolicy = PolicyHash

	case ModeInvestigation:
		var enc Encrypter
		switch c := e.encryption.(type) {
		case WithEncryption:
			enc = c.Encrypter
		case NoEncryption:
		}
		if enc == nil {
			e.metrics.ObservePolicyFailure("encryption_unavailable")
			return Payload{}, ErrEncryptionUnavailable
		}
		token, err := enc.Encrypt(rawValue)
		if err != nil {
			e.metrics.ObservePolicyFailure("encryption_failed")
			return Payload{}, fmt.Errorf("failed to encrypt raw value: %w", err)
		}
		until := now.Add(time.Duration(e.cfg.RetentionDays) * 24 * time.Hour)
		p.NormalizedValue = normalized
		p.RawValueEncrypted = token
		p.StoragePolicy = PolicyEncrypted
		p.RetentionUntil = &until

	default:
		return Payload{}, fmt.Errorf("%w: %q", ErrUnsupportedMode, e.cfg.Mode)
	}

	e.metrics.ObservePayload(p.StoragePolicy)
	return p, nil
}
