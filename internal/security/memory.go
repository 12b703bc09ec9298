// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package security

// Redacted is what a SecureString prints as.
const Redacted = "[REDACTED]"

// SecureString wraps key material or a tenant salt with best-effort memory
// scrubbing on Clear. Its String and GoString forms are redacted so a secret
// passed to a logger or fmt never prints; use Reveal or Bytes to read it.
//
// Limitations: Go's garbage collector may move or copy memory at any time, and
// string-to-[]byte conversions (e.g. in Reveal()) create immutable copies that
// cannot be zeroed. Clear() zeroes the internal byte slice, which reduces the
// window of exposure, but cannot guarantee that no copies exist elsewhere in
// the heap. Do not rely on this for cryptographic-strength memory protection.
type SecureString struct {
	data []byte
}

// NewSecureString creates a new SecureString by copying s into a mutable byte slice.
func NewSecureString(s string) *SecureString {
	data := make([]byte, len(s))
	copy(data, s)
	return &SecureString{data: data}
}

// NewSecureBytes takes ownership of b; the caller must not reuse it.
func NewSecureBytes(b []byte) *SecureString {
	return &SecureString{data: b}
}

// Reveal returns the secret as a string. Use sparingly: each call creates an
// immutable copy that cannot be zeroed by Clear.
func (ss *SecureString) Reveal() string {
	if ss == nil {
		return ""
	}
	return string(ss.data)
}

// Bytes returns the backing slice without copying. It is zeroed by Clear.
func (ss *SecureString) Bytes() []byte {
	if ss == nil {
		return nil
	}
	return ss.data
}

// Len returns the secret's length in bytes.
func (ss *SecureString) Len() int {
	if ss == nil {
		return 0
	}
	return len(ss.data)
}

// String implements fmt.Stringer with a redacted value.
func (ss *SecureString) String() string { return Redacted }

// GoString implements fmt.GoStringer with a redacted value.
func (ss *SecureString) GoString() string { return Redacted }

// MarshalText keeps the secret out of JSON and YAML output.
func (ss *SecureString) MarshalText() ([]byte, error) { return []byte(Redacted), nil }

// Clear overwrites the internal byte slice with zeros and releases it.
// This reduces the window of exposure but cannot guarantee all copies are erased.
func (ss *SecureString) Clear() {
	if ss == nil || ss.data == nil {
		return
	}
	clear(ss.data)
	ss.data = nil
}
