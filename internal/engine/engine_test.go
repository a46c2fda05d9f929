package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/birthdayd/internal/config"
	"github.com/tartampluch/birthdayd/internal/engine"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

// fakeProfiles serves birthday values and visibility levels from maps.
// Values present only in `direct` simulate the secondary lookup path.
type fakeProfiles struct {
	values     map[string]engine.RawValue
	direct     map[string]engine.RawValue
	visibility map[string]string
	format     string
}

func (p *fakeProfiles) FieldValue(_ context.Context, _, userID string) (engine.RawValue, error) {
	return p.values[userID], nil
}

func (p *fakeProfiles) FieldValueDirect(_ context.Context, _, userID string) (engine.RawValue, error) {
	return p.direct[userID], nil
}

func (p *fakeProfiles) FieldVisibility(_ context.Context, _, userID string) (string, error) {
	if v, ok := p.visibility[userID]; ok {
		return v, nil
	}
	return config.VisibilityPublic, nil
}

func (p *fakeProfiles) FieldFormat(_ context.Context, _ string) (string, error) {
	return p.format, nil
}

type fakeRelations struct {
	friends   map[string][]string
	following map[string][]string
}

func (r *fakeRelations) FriendsOf(_ context.Context, userID string) ([]string, error) {
	return r.friends[userID], nil
}

func (r *fakeRelations) FollowingOf(_ context.Context, userID string) ([]string, error) {
	return r.following[userID], nil
}

func (r *fakeRelations) AreFriends(_ context.Context, a, b string) (bool, error) {
	for _, f := range r.friends[a] {
		if f == b {
			return true, nil
		}
	}
	return false, nil
}

type fakeMembers struct{ ids []string }

func (m *fakeMembers) ListMemberIDs(_ context.Context, limit int) ([]string, error) {
	if limit < len(m.ids) {
		return m.ids[:limit], nil
	}
	return m.ids, nil
}

func bday(value string) engine.RawValue { return engine.RawString(value) }

// -----------------------------------------------------------------------------
// Test Cases
// -----------------------------------------------------------------------------

// TestCompute_Scenario covers the reference ordering scenario: a birthday
// today, one within the monthly window, and one already passed this year.
func TestCompute_Scenario(t *testing.T) {
	today := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	profiles := &fakeProfiles{
		values: map[string]engine.RawValue{
			"a": bday("1990-06-15"),
			"b": bday("1990-06-20"),
			"c": bday("1990-06-10"),
		},
	}
	eng := engine.New(fixedClock{now: today}, profiles, nil, &fakeMembers{ids: []string{"a", "b", "c"}})

	results, err := eng.Compute(context.Background(), engine.QueryConfig{
		Scope:    config.ScopeAll,
		FieldRef: "birthday",
		Range:    config.RangeMonthly,
	}, today)
	require.NoError(t, err)

	require.Len(t, results, 2, "user c's next occurrence (2026-06-10) is outside the 30-day window")
	assert.Equal(t, "a", results[0].UserID)
	assert.True(t, results[0].IsToday)
	assert.Equal(t, 35, results[0].AgeTurning)
	assert.Equal(t, "b", results[1].UserID)
	assert.False(t, results[1].IsToday)
	assert.Equal(t, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC), results[1].NextOccurrence)
}

// TestCompute_OrderingInvariant checks that today-entries always precede
// future entries and future entries ascend by next occurrence.
func TestCompute_OrderingInvariant(t *testing.T) {
	today := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	profiles := &fakeProfiles{
		values: map[string]engine.RawValue{
			"late":   bday("1991-07-01"),
			"soon":   bday("1992-06-18"),
			"today1": bday("1990-06-15"),
			"mid":    bday("1993-06-25"),
			"today2": bday("1985-06-15"),
		},
	}
	eng := engine.New(fixedClock{now: today}, profiles, nil,
		&fakeMembers{ids: []string{"late", "soon", "today1", "mid", "today2"}})

	results, err := eng.Compute(context.Background(), engine.QueryConfig{
		Scope:    config.ScopeAll,
		FieldRef: "birthday",
		Range:    config.RangeMonthly,
	}, today)
	require.NoError(t, err)
	require.Len(t, results, 5)

	sawFuture := false
	for i, r := range results {
		if !r.IsToday {
			sawFuture = true
		} else {
			assert.False(t, sawFuture, "entry %d: today entries must precede future entries", i)
		}
		assert.GreaterOrEqual(t, r.AgeTurning, 1)
	}
	// Future entries ascend by next occurrence.
	assert.Equal(t, []string{"soon", "mid", "late"},
		[]string{results[2].UserID, results[3].UserID, results[4].UserID})
	// Same-day entries keep candidate order (stable sort).
	assert.Equal(t, "today1", results[0].UserID)
	assert.Equal(t, "today2", results[1].UserID)
}

// TestCompute_WindowBounds verifies inclusive window ends per range.
func TestCompute_WindowBounds(t *testing.T) {
	today := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	profiles := &fakeProfiles{
		values: map[string]engine.RawValue{
			"edge":    bday("1990-06-08"), // exactly today+7
			"outside": bday("1990-06-09"), // today+8
		},
	}
	eng := engine.New(fixedClock{now: today}, profiles, nil, &fakeMembers{ids: []string{"edge", "outside"}})

	results, err := eng.Compute(context.Background(), engine.QueryConfig{
		Scope:    config.ScopeAll,
		FieldRef: "birthday",
		Range:    config.RangeWeekly,
	}, today)
	require.NoError(t, err)

	require.Len(t, results, 1, "the window end is inclusive")
	assert.Equal(t, "edge", results[0].UserID)
}

func TestCompute_ScopeFriendsAndViewerExclusion(t *testing.T) {
	today := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	profiles := &fakeProfiles{
		values: map[string]engine.RawValue{
			"viewer": bday("1990-06-16"),
			"friend": bday("1991-06-17"),
		},
	}
	relations := &fakeRelations{friends: map[string][]string{
		// Defensive self-reference in the friend list must not leak through.
		"viewer": {"friend", "viewer"},
	}}
	eng := engine.New(fixedClock{now: today}, profiles, relations, nil)

	results, err := eng.Compute(context.Background(), engine.QueryConfig{
		Scope:    config.ScopeFriends,
		FieldRef: "birthday",
		Range:    config.RangeWeekly,
		Viewer:   engine.ViewerContext{ViewerID: "viewer", LoggedIn: true},
	}, today)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "friend", results[0].UserID)
}

func TestCompute_ScopedWithoutRelationsFailsSoft(t *testing.T) {
	today := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	eng := engine.New(fixedClock{now: today}, &fakeProfiles{}, nil, nil)

	results, err := eng.Compute(context.Background(), engine.QueryConfig{
		Scope:    config.ScopeFriends,
		FieldRef: "birthday",
		Range:    config.RangeWeekly,
		Viewer:   engine.ViewerContext{ViewerID: "viewer", LoggedIn: true},
	}, today)

	require.NoError(t, err, "missing relationship subsystem is not an error")
	assert.Empty(t, results)
}

func TestCompute_UnsetFieldReturnsEmpty(t *testing.T) {
	today := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	eng := engine.New(fixedClock{now: today}, &fakeProfiles{}, nil, &fakeMembers{ids: []string{"a"}})

	results, err := eng.Compute(context.Background(), engine.QueryConfig{
		Scope: config.ScopeAll,
		Range: config.RangeWeekly,
	}, today)

	require.NoError(t, err)
	assert.Empty(t, results, "misconfiguration reads the same as no birthdays")
}

func TestCompute_OnlyMeAlwaysExcluded(t *testing.T) {
	today := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	profiles := &fakeProfiles{
		values:     map[string]engine.RawValue{"hidden": bday("1990-06-15")},
		visibility: map[string]string{"hidden": config.VisibilityOnlyMe},
	}
	admin := engine.ViewerContext{ViewerID: "root", LoggedIn: true, IsAdmin: true}
	eng := engine.New(fixedClock{now: today}, profiles, nil, &fakeMembers{ids: []string{"hidden"}})

	results, err := eng.Compute(context.Background(), engine.QueryConfig{
		Scope:    config.ScopeAll,
		FieldRef: "birthday",
		Range:    config.RangeWeekly,
		Viewer:   admin,
	}, today)
	require.NoError(t, err)
	assert.Empty(t, results, "onlyme is excluded even for admins")
}

func TestCompute_SecondaryLookupFallback(t *testing.T) {
	today := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	profiles := &fakeProfiles{
		// Primary accessor yields nothing; the direct lookup carries the value.
		direct: map[string]engine.RawValue{"fallback": bday("1990-06-16")},
	}
	eng := engine.New(fixedClock{now: today}, profiles, nil, &fakeMembers{ids: []string{"fallback"}})

	results, err := eng.Compute(context.Background(), engine.QueryConfig{
		Scope:    config.ScopeAll,
		FieldRef: "birthday",
		Range:    config.RangeWeekly,
	}, today)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "fallback", results[0].UserID)
}

func TestCompute_MalformedDatesSkippedSilently(t *testing.T) {
	today := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	profiles := &fakeProfiles{
		values: map[string]engine.RawValue{
			"bad":   bday("not-a-date"),
			"worse": bday("1990-02-30"),
			"good":  bday("1990-06-16"),
		},
	}
	eng := engine.New(fixedClock{now: today}, profiles, nil, &fakeMembers{ids: []string{"bad", "worse", "good"}})

	results, err := eng.Compute(context.Background(), engine.QueryConfig{
		Scope:    config.ScopeAll,
		FieldRef: "birthday",
		Range:    config.RangeWeekly,
	}, today)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "good", results[0].UserID)
}

func TestCompute_ZodiacAttached(t *testing.T) {
	today := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	profiles := &fakeProfiles{values: map[string]engine.RawValue{"gem": bday("1990-06-15")}}
	eng := engine.New(fixedClock{now: today}, profiles, nil, &fakeMembers{ids: []string{"gem"}})

	results, err := eng.Compute(context.Background(), engine.QueryConfig{
		Scope:    config.ScopeAll,
		FieldRef: "birthday",
		Range:    config.RangeWeekly,
	}, today)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "Gemini", results[0].Zodiac.Name)
}

func TestCompute_ContextCancellation(t *testing.T) {
	today := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	profiles := &fakeProfiles{values: map[string]engine.RawValue{"a": bday("1990-06-16")}}
	eng := engine.New(fixedClock{now: today}, profiles, nil, &fakeMembers{ids: []string{"a"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Compute(ctx, engine.QueryConfig{
		Scope:    config.ScopeAll,
		FieldRef: "birthday",
		Range:    config.RangeWeekly,
	}, today)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompute_MaxResultsTruncatesAfterOrdering(t *testing.T) {
	today := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	profiles := &fakeProfiles{
		values: map[string]engine.RawValue{
			"far":   bday("1990-06-25"),
			"near":  bday("1990-06-17"),
			"today": bday("1990-06-15"),
		},
	}
	eng := engine.New(fixedClock{now: today}, profiles, nil,
		&fakeMembers{ids: []string{"far", "near", "today"}})

	results, err := eng.Compute(context.Background(), engine.QueryConfig{
		Scope:      config.ScopeAll,
		FieldRef:   "birthday",
		Range:      config.RangeMonthly,
		MaxResults: 2,
	}, today)
	require.NoError(t, err)

	// Truncation happens after sorting, so the kept entries are the ranked head.
	require.Len(t, results, 2)
	assert.Equal(t, "today", results[0].UserID)
	assert.Equal(t, "near", results[1].UserID)
}
