package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/birthdayd/internal/cache"
	"github.com/tartampluch/birthdayd/internal/config"
	"github.com/tartampluch/birthdayd/internal/engine"
	"github.com/tartampluch/birthdayd/internal/store"
	"github.com/tartampluch/birthdayd/internal/store/memory"
)

func sampleResult(userID string) []engine.UpcomingBirthday {
	return []engine.UpcomingBirthday{{
		UserID:         userID,
		BirthDate:      time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC),
		NextOccurrence: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		AgeTurning:     35,
		IsToday:        true,
	}}
}

func TestGetOrCompute_MissThenHit(t *testing.T) {
	c := cache.New(memory.New())
	cfg := engine.QueryConfig{Scope: config.ScopeAll, FieldRef: "birthday", Range: config.RangeWeekly}

	calls := 0
	compute := func(context.Context) ([]engine.UpcomingBirthday, error) {
		calls++
		return sampleResult("a"), nil
	}

	first, err := c.GetOrCompute(context.Background(), cfg, compute)
	require.NoError(t, err)
	second, err := c.GetOrCompute(context.Background(), cfg, compute)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second call must be served from cache")
	assert.Equal(t, first, second)
}

// TestKey_ViewerSeparation checks that identical configs with different
// viewers never share a friends/followers-scoped entry.
func TestKey_ViewerSeparation(t *testing.T) {
	base := engine.QueryConfig{Scope: config.ScopeFriends, FieldRef: "birthday", Range: config.RangeWeekly}

	alice := base
	alice.Viewer = engine.ViewerContext{ViewerID: "alice", LoggedIn: true}
	bob := base
	bob.Viewer = engine.ViewerContext{ViewerID: "bob", LoggedIn: true}

	assert.NotEqual(t, cache.Key(alice), cache.Key(bob))

	// Unscoped queries share one entry regardless of viewer.
	all := engine.QueryConfig{Scope: config.ScopeAll, FieldRef: "birthday", Range: config.RangeWeekly}
	allViewed := all
	allViewed.Viewer = engine.ViewerContext{ViewerID: "alice", LoggedIn: true}
	assert.Equal(t, cache.Key(all), cache.Key(allViewed))
}

func TestGetOrCompute_ViewerIsolation(t *testing.T) {
	c := cache.New(memory.New())
	base := engine.QueryConfig{Scope: config.ScopeFriends, FieldRef: "birthday", Range: config.RangeWeekly}

	alice := base
	alice.Viewer = engine.ViewerContext{ViewerID: "alice", LoggedIn: true}
	bob := base
	bob.Viewer = engine.ViewerContext{ViewerID: "bob", LoggedIn: true}

	forAlice, err := c.GetOrCompute(context.Background(), alice,
		func(context.Context) ([]engine.UpcomingBirthday, error) { return sampleResult("friend-of-alice"), nil })
	require.NoError(t, err)

	forBob, err := c.GetOrCompute(context.Background(), bob,
		func(context.Context) ([]engine.UpcomingBirthday, error) { return sampleResult("friend-of-bob"), nil })
	require.NoError(t, err)

	assert.Equal(t, "friend-of-alice", forAlice[0].UserID)
	assert.Equal(t, "friend-of-bob", forBob[0].UserID)
}

func TestInvalidate_FlushesNamespace(t *testing.T) {
	c := cache.New(memory.New())
	cfg := engine.QueryConfig{Scope: config.ScopeAll, FieldRef: "birthday", Range: config.RangeWeekly}

	calls := 0
	compute := func(context.Context) ([]engine.UpcomingBirthday, error) {
		calls++
		return sampleResult("a"), nil
	}

	_, err := c.GetOrCompute(context.Background(), cfg, compute)
	require.NoError(t, err)

	c.Invalidate(context.Background(), store.ReasonProfileWrite)

	_, err = c.GetOrCompute(context.Background(), cfg, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "invalidation must force a recompute")
}

func TestInvalidate_ThroughStoreMutationHook(t *testing.T) {
	kv := memory.New()
	c := cache.New(kv)
	kv.OnMutate = func(reason string) { c.Invalidate(context.Background(), reason) }

	cfg := engine.QueryConfig{Scope: config.ScopeAll, FieldRef: "birthday", Range: config.RangeWeekly}
	calls := 0
	compute := func(context.Context) ([]engine.UpcomingBirthday, error) {
		calls++
		return sampleResult("a"), nil
	}

	_, err := c.GetOrCompute(context.Background(), cfg, compute)
	require.NoError(t, err)

	// A profile date write anywhere clears every cached result.
	kv.SetFieldValue("birthday", "someone", engine.RawString("1990-01-01"))

	_, err = c.GetOrCompute(context.Background(), cfg, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGetOrCompute_EmptyResultIsCached(t *testing.T) {
	c := cache.New(memory.New())
	cfg := engine.QueryConfig{Scope: config.ScopeAll, FieldRef: "birthday", Range: config.RangeWeekly}

	calls := 0
	compute := func(context.Context) ([]engine.UpcomingBirthday, error) {
		calls++
		return nil, nil
	}

	_, err := c.GetOrCompute(context.Background(), cfg, compute)
	require.NoError(t, err)
	_, err = c.GetOrCompute(context.Background(), cfg, compute)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "an empty list is a valid cacheable value")
}
