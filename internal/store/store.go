// Package store defines the generic key/value contract shared by the result
// cache and the notification scheduler state, plus its backend
// implementations in subpackages.
package store

import (
	"context"
	"time"
)

// KV is a namespaced key/value store with per-entry TTL. A zero TTL means no
// expiry. Implementations must tolerate concurrent readers and writers of the
// same key; last-writer-wins on racing writes is acceptable.
type KV interface {
	// Get returns the stored value and whether a live (non-expired) entry exists.
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)

	// Set writes a value, replacing any previous entry under the same key.
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error

	// Delete removes a single entry. Deleting a missing key is not an error.
	Delete(ctx context.Context, namespace, key string) error

	// Flush removes every entry in the namespace.
	Flush(ctx context.Context, namespace string) error
}

// Mutation reasons reported to invalidation hooks. Each corresponds to a
// trigger that must clear the result cache immediately.
const (
	ReasonProfileWrite = "profile_field_write"
	ReasonFriendship   = "friendship_change"
	ReasonFollow       = "follow_change"
	ReasonRegistration = "user_registered"
	ReasonDeletion     = "user_deleted"
	ReasonDaily        = "daily_safety_net"
)
