// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package policy decides how a detected value is stored. STRICT keeps only a
// tenant-salted hash and an optional masked value; INVESTIGATION also keeps
// the raw value encrypted until a retention deadline.
package policy

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyValue is returned for an empty raw value.
	ErrEmptyValue = errors.New("raw value is required")
	// ErrEncryptionUnavailable is returned when investigation storage is
	// requested without an encryption capability.
	ErrEncryptionUnavailable = errors.New("investigation storage requires an encryption capability")
	// ErrUnsupportedMode is returned for an unknown storage mode.
	ErrUnsupportedMode = errors.New("unsupported storage mode")
	// ErrMissingSalt is returned when no tenant salt is configured.
	ErrMissingSalt = errors.New("tenant salt is required")
)

// Mode selects the storage policy for an ingestion run.
type Mode string

const (
	ModeStrict        Mode = "strict"
	ModeInvestigation Mode = "investigation"
)

// ParseMode parses a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeStrict, ModeInvestigation:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMode, s)
	}
}

// Storage policy tags recorded on every payload.
const (
	PolicyHash      = "hash"
	PolicyEncrypted = "encrypted"
)

// DefaultRetentionDays is how long investigation payloads keep the raw value.
const DefaultRetentionDays = 30

// Config is the storage policy for one run.
type Config struct {
	Mode                   Mode
	MaskNormalizedInStrict bool
	RetentionDays          int
}

// DefaultConfig returns the defaults for mode: masking on and 30 days
// retention.
func DefaultConfig(mode Mode) Config {
	return Config{Mode: mode, MaskNormalizedInStrict: true, RetentionDays: DefaultRetentionDays}
}

// Validate checks the mode and retention window.
func (c Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention days must be positive, got %d", c.RetentionDays)
	}
	return nil
}

// Mask hides all but the first and last character of values longer than
// four characters and every character of shorter ones. Characters are runes.
func Mask(value string) string {
	r := []rune(value)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return string(r[0]) + strings.Repeat("*", len(r)-2) + string(r[len(r)-1])
}
