// Package cache memoizes birthday query results behind the generic key/value
// collaborator, keyed by the serialized query configuration.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"

	"github.com/tartampluch/birthdayd/internal/config"
	"github.com/tartampluch/birthdayd/internal/engine"
	"github.com/tartampluch/birthdayd/internal/store"
)

// ComputeFunc produces the value on a cache miss.
type ComputeFunc func(ctx context.Context) ([]engine.UpcomingBirthday, error)

// ResultCache memoizes BirthdayQueryEngine invocations with a fixed TTL.
// Invalidation is coarse: every trigger flushes the whole namespace rather
// than chasing individual keys.
type ResultCache struct {
	KV store.KV
}

// New wraps a key/value store in a result cache.
func New(kv store.KV) *ResultCache { return &ResultCache{KV: kv} }

// Key derives the stable cache key for a query: a hash of the serialized
// configuration, suffixed with the viewer id when the scope is viewer-bound,
// so two viewers never share a friends/followers entry.
func Key(cfg engine.QueryConfig) string {
	serialized, _ := json.Marshal(cfg)
	sum := sha256.Sum256(serialized)
	key := hex.EncodeToString(sum[:])

	if cfg.Scope == config.ScopeFriends || cfg.Scope == config.ScopeFollowers {
		key += config.ViewerKeySuffix + cfg.Viewer.ViewerID
	}
	return key
}

// GetOrCompute returns the cached result for the query, computing and storing
// it on a miss. Cached values are returned unchanged; staleness within the
// TTL window is accepted. A broken cache store degrades to computing every
// time rather than failing the query.
func (c *ResultCache) GetOrCompute(ctx context.Context, cfg engine.QueryConfig, compute ComputeFunc) ([]engine.UpcomingBirthday, error) {
	key := Key(cfg)
	log := slog.With(
		config.LogKeyComponent, config.CompCache,
		config.LogKeyKey, key,
	)

	if data, ok, err := c.KV.Get(ctx, config.CacheNamespace, key); err == nil && ok {
		var cached []engine.UpcomingBirthday
		if err := json.Unmarshal(data, &cached); err == nil {
			log.Debug(config.MsgCacheHit)
			return cached, nil
		}
	}

	log.Debug(config.MsgCacheMiss)
	result, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := c.KV.Set(ctx, config.CacheNamespace, key, data, config.CacheTTL); err != nil {
			log.Warn(config.MsgCacheMiss, config.LogKeyError, err)
		}
	}
	return result, nil
}

// Invalidate clears the entire cache namespace. It is wired to every trigger
// that can change a result: profile date writes, friendship and follow
// changes, registrations, deletions, and the daily safety net.
func (c *ResultCache) Invalidate(ctx context.Context, reason string) {
	if err := c.KV.Flush(ctx, config.CacheNamespace); err != nil {
		slog.Warn(config.MsgCacheFlushed,
			config.LogKeyComponent, config.CompCache,
			config.LogKeyError, err,
		)
		return
	}
	slog.Info(config.MsgCacheFlushed,
		config.LogKeyComponent, config.CompCache,
		config.LogKeyValue, reason,
	)
}
