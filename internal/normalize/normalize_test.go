// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"reversed western", "Smith, John", "John Smith"},
		{"honorific and spacing", "  dr.  jane   doe ", "Jane Doe"},
		{"honorific inside reversed", "Doe, Mr. John", "John Doe"},
		{"place is not reversed", "Mumbai, India", "Mumbai, India"},
		{"apostrophe", "o'brien", "O'Brien"},
		{"hyphen", "MARY-JANE watson", "Mary-Jane Watson"},
		{"single initial kept", "M Smith", "M Smith"},
		{"french honorific needs period", "M. Dupont", "Dupont"},
		{"non latin untouched", "王  伟", "王 伟"},
		{"blank", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.raw))
		})
	}
}

func TestIsWesternReversed(t *testing.T) {
	assert.True(t, IsWesternReversed("Doe, Jane"))
	assert.False(t, IsWesternReversed("Doe Jane"))
	assert.False(t, IsWesternReversed("Paris, France"))
	assert.False(t, IsWesternReversed("Apt 4, Main"))
	assert.False(t, IsWesternReversed("a, b, c"))
	assert.False(t, IsWesternReversed("张, 伟"))
}

func TestHasNonLatin(t *testing.T) {
	assert.True(t, HasNonLatin("Zhang 伟"))
	assert.True(t, HasNonLatin("محمد"))
	assert.False(t, HasNonLatin("José Müller"))
}

func TestEmail(t *testing.T) {
	assert.Equal(t, "jdoe@gmail.com", Email("  J.Doe@GMail.com "))
	assert.Equal(t, "jdoe@googlemail.com", Email("j.doe@googlemail.com"))
	assert.Equal(t, "j.doe+tag@example.com", Email("J.Doe+tag@Example.com"))
	assert.Equal(t, "not-an-email", Email("Not-An-Email"))
	assert.Equal(t, "", Email("  "))
}

func TestPhone(t *testing.T) {
	got, ok := Phone("(650) 253-0000", "US")
	require.True(t, ok)
	assert.Equal(t, "+16502530000", got)

	got, ok = Phone("+1 650 253 0000", "")
	require.True(t, ok)
	assert.Equal(t, "+16502530000", got)

	for _, raw := range []string{"", "  ", "12", "not a phone"} {
		_, ok := Phone(raw, "US")
		assert.False(t, ok, "input %q", raw)
	}
}

func TestParseAddress(t *testing.T) {
	t.Run("us with state and zip", func(t *testing.T) {
		a, ok := ParseAddress("123 Main St, Springfield, IL 62704")
		require.True(t, ok)
		assert.Equal(t, &Address{Street: "123 main st", City: "springfield", State: "IL", Zip: "62704", Country: "US"}, a)
	})

	t.Run("us zip plus four", func(t *testing.T) {
		a, ok := ParseAddress("500 Oak Ave, Austin, Texas 78701-1234")
		require.True(t, ok)
		assert.Equal(t, "TX", a.State)
		assert.Equal(t, "78701", a.Zip)
		assert.Equal(t, "austin", a.City)
	})

	t.Run("uk postcode", func(t *testing.T) {
		a, ok := ParseAddress("10 Downing Street, London SW1A 2AA, UK")
		require.True(t, ok)
		assert.Equal(t, "GB", a.Country)
		assert.Equal(t, "SW1A2AA", a.Zip)
		assert.Equal(t, "10 downing street", a.Street)
		assert.Equal(t, "london", a.City)
		assert.Empty(t, a.State)
	})

	t.Run("no signal", func(t *testing.T) {
		a, ok := ParseAddress("somewhere over the rainbow")
		assert.False(t, ok)
		assert.Nil(t, a)
	})

	t.Run("blank", func(t *testing.T) {
		_, ok := ParseAddress("")
		assert.False(t, ok)
	})
}

func TestDetectCountry(t *testing.T) {
	assert.Equal(t, "CA", DetectCountry("Toronto ON M5V 3L9"))
	assert.Equal(t, "US", DetectCountry("Austin, Texas"))
	assert.Equal(t, "IN", DetectCountry("Bengaluru, India"))
	assert.Equal(t, "", DetectCountry("nowhere"))
}

func TestNormalizedZip(t *testing.T) {
	assert.Equal(t, "SW1A2AA", NormalizedZip("sw1a 2aa"))
}
