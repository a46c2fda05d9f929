package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/birthdayd/internal/engine"
)

// fixedClock pins "now" for deterministic year range checks.
type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newNormalizer() *engine.Normalizer {
	return &engine.Normalizer{Clock: fixedClock{now: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}}
}

func TestNormalize_CanonicalFastPath(t *testing.T) {
	n := newNormalizer()

	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{"plain canonical", "1990-03-15", "1990-03-15"},
		{"canonical with time", "1990-03-15 00:00:00", "1990-03-15"},
		{"canonical with T time", "1990-03-15T08:30:00", "1990-03-15"},
		{"leap day birth", "2000-02-29", "2000-02-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(engine.RawString(tt.value), "YYYY-MM-DD")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, engine.CanonicalString(got))
		})
	}
}

func TestNormalize_ConfiguredFormatFirst(t *testing.T) {
	n := newNormalizer()

	// DD/MM/YYYY wins over the MM/DD/YYYY fallback for an ambiguous value.
	got, err := n.Normalize(engine.RawString("15/03/1990"), "DD/MM/YYYY")
	require.NoError(t, err)
	assert.Equal(t, "1990-03-15", engine.CanonicalString(got))

	// The ambiguous value 03/04/1990 resolves per the configured format.
	got, err = n.Normalize(engine.RawString("03/04/1990"), "MM/DD/YYYY")
	require.NoError(t, err)
	assert.Equal(t, "1990-03-04", engine.CanonicalString(got))

	got, err = n.Normalize(engine.RawString("03/04/1990"), "DD/MM/YYYY")
	require.NoError(t, err)
	assert.Equal(t, "1990-04-03", engine.CanonicalString(got))
}

func TestNormalize_FallbackFormats(t *testing.T) {
	n := newNormalizer()

	tests := []struct {
		value    string
		expected string
	}{
		{"1990/03/15", "1990-03-15"},
		{"15.03.1990", "1990-03-15"},
		{"1990.03.15", "1990-03-15"},
		{"15-03-1990", "1990-03-15"},
	}

	for _, tt := range tests {
		got, err := n.Normalize(engine.RawString(tt.value), "YYYY-MM-DD")
		require.NoError(t, err, "value %q", tt.value)
		assert.Equal(t, tt.expected, engine.CanonicalString(got))
	}
}

func TestNormalize_FreeFormLastResort(t *testing.T) {
	n := newNormalizer()

	got, err := n.Normalize(engine.RawString("January 2, 1990"), "YYYY-MM-DD")
	require.NoError(t, err)
	assert.Equal(t, "1990-01-02", engine.CanonicalString(got))
}

func TestNormalize_Rejections(t *testing.T) {
	n := newNormalizer()

	tests := []struct {
		name  string
		value string
	}{
		{"invalid calendar date", "1990-02-30"},
		{"garbage", "not-a-date"},
		{"empty", ""},
		{"whitespace only", "   "},
		{"year below range", "1899-12-31"},
		{"year in the future", "2026-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(engine.RawString(tt.value), "YYYY-MM-DD")
			assert.ErrorIs(t, err, engine.ErrRejected)
		})
	}
}

func TestNormalize_RawShapes(t *testing.T) {
	n := newNormalizer()

	// List shape: first positional element carries the date.
	got, err := n.Normalize(engine.RawList("1990-03-15", "ignored"), "YYYY-MM-DD")
	require.NoError(t, err)
	assert.Equal(t, "1990-03-15", engine.CanonicalString(got))

	// Object shape: the date key is preferred.
	got, err = n.Normalize(engine.RawObject(map[string]string{"date": "1990-03-15"}, nil), "YYYY-MM-DD")
	require.NoError(t, err)
	assert.Equal(t, "1990-03-15", engine.CanonicalString(got))

	// Object without a date key and without string conversion is rejected.
	_, err = n.Normalize(engine.RawObject(map[string]string{"other": "x"}, nil), "YYYY-MM-DD")
	assert.ErrorIs(t, err, engine.ErrRejected)

	// Empty list is rejected, not an error surfaced to the caller.
	_, err = n.Normalize(engine.RawList(), "YYYY-MM-DD")
	assert.ErrorIs(t, err, engine.ErrRejected)
}

func TestNormalize_RoundTripStrictness(t *testing.T) {
	n := newNormalizer()

	// "5/3/1990" parses leniently under 02/01/2006 but fails the
	// reformat-and-compare round trip, so only the free-form pass may take
	// it; none of the free-form layouts match, so it is rejected.
	_, err := n.Normalize(engine.RawString("5/3/1990"), "DD/MM/YYYY")
	assert.ErrorIs(t, err, engine.ErrRejected)
}

func TestRawValue_IsEmpty(t *testing.T) {
	assert.True(t, engine.RawValue{}.IsEmpty())
	assert.True(t, engine.RawString("  ").IsEmpty())
	assert.False(t, engine.RawString("1990-01-01").IsEmpty())
	assert.False(t, engine.RawList("1990-01-01").IsEmpty())
	assert.True(t, engine.RawObject(nil, nil).IsEmpty())
}
