// Package memory provides the in-process backing store: profile data,
// relationships, the member roster and the key/value store behind the result
// cache and scheduler state. It is the default backend and the one the test
// suites run against.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tartampluch/birthdayd/internal/engine"
	"github.com/tartampluch/birthdayd/internal/store"
)

// Profile holds the per-member directory data the notification channels need.
type Profile struct {
	ID          string
	DisplayName string
	Email       string
}

type kvEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// Store is the in-memory implementation of every collaborator contract:
// engine.ProfileStore, engine.RelationshipStore, engine.MemberDirectory,
// the notify user directory and store.KV.
type Store struct {
	mu sync.RWMutex

	members    []string
	profiles   map[string]Profile
	values     map[string]map[string]engine.RawValue // fieldRef -> userID -> value
	direct     map[string]map[string]engine.RawValue // secondary-lookup rows
	visibility map[string]map[string]string
	formats    map[string]string
	friends    map[string]map[string]bool
	following  map[string]map[string]bool
	kv         map[string]kvEntry

	// OnMutate, when set, is invoked after every cache-relevant mutation
	// with one of the store.Reason* values. The wiring points it at the
	// result cache's invalidation.
	OnMutate func(reason string)
}

// New returns an empty store.
func New() *Store {
	return &Store{
		profiles:   make(map[string]Profile),
		values:     make(map[string]map[string]engine.RawValue),
		direct:     make(map[string]map[string]engine.RawValue),
		visibility: make(map[string]map[string]string),
		formats:    make(map[string]string),
		friends:    make(map[string]map[string]bool),
		following:  make(map[string]map[string]bool),
		kv:         make(map[string]kvEntry),
	}
}

func (s *Store) mutated(reason string) {
	if s.OnMutate != nil {
		s.OnMutate(reason)
	}
}

// -----------------------------------------------------------------------------
// Member directory & mutators
// -----------------------------------------------------------------------------

// Register adds a member to the roster.
func (s *Store) Register(p Profile) {
	s.mu.Lock()
	if _, exists := s.profiles[p.ID]; !exists {
		s.members = append(s.members, p.ID)
	}
	s.profiles[p.ID] = p
	s.mu.Unlock()
	s.mutated(store.ReasonRegistration)
}

// Remove deletes a member, their profile values and their relationships.
func (s *Store) Remove(userID string) {
	s.mu.Lock()
	for i, id := range s.members {
		if id == userID {
			s.members = append(s.members[:i], s.members[i+1:]...)
			break
		}
	}
	delete(s.profiles, userID)
	for _, byUser := range s.values {
		delete(byUser, userID)
	}
	for _, byUser := range s.direct {
		delete(byUser, userID)
	}
	delete(s.friends, userID)
	delete(s.following, userID)
	for _, set := range s.friends {
		delete(set, userID)
	}
	for _, set := range s.following {
		delete(set, userID)
	}
	s.mu.Unlock()
	s.mutated(store.ReasonDeletion)
}

// ListMemberIDs returns up to limit member ids in registration order.
func (s *Store) ListMemberIDs(_ context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.members
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

// -----------------------------------------------------------------------------
// Profile store
// -----------------------------------------------------------------------------

// SetFieldValue writes the primary profile value for a field.
func (s *Store) SetFieldValue(fieldRef, userID string, value engine.RawValue) {
	s.mu.Lock()
	if s.values[fieldRef] == nil {
		s.values[fieldRef] = make(map[string]engine.RawValue)
	}
	s.values[fieldRef][userID] = value
	s.mu.Unlock()
	s.mutated(store.ReasonProfileWrite)
}

// SeedDirectValue plants a row only reachable through the secondary lookup.
func (s *Store) SeedDirectValue(fieldRef, userID string, value engine.RawValue) {
	s.mu.Lock()
	if s.direct[fieldRef] == nil {
		s.direct[fieldRef] = make(map[string]engine.RawValue)
	}
	s.direct[fieldRef][userID] = value
	s.mu.Unlock()
	s.mutated(store.ReasonProfileWrite)
}

// SetFieldVisibility records a member's visibility level for a field.
func (s *Store) SetFieldVisibility(fieldRef, userID, level string) {
	s.mu.Lock()
	if s.visibility[fieldRef] == nil {
		s.visibility[fieldRef] = make(map[string]string)
	}
	s.visibility[fieldRef][userID] = level
	s.mu.Unlock()
}

// SetFieldFormat records the configured date format of a field.
func (s *Store) SetFieldFormat(fieldRef, format string) {
	s.mu.Lock()
	s.formats[fieldRef] = format
	s.mu.Unlock()
}

// FieldValue implements the primary profile accessor.
func (s *Store) FieldValue(_ context.Context, fieldRef, userID string) (engine.RawValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[fieldRef][userID], nil
}

// FieldValueDirect implements the secondary row lookup.
func (s *Store) FieldValueDirect(_ context.Context, fieldRef, userID string) (engine.RawValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.direct[fieldRef][userID], nil
}

// FieldVisibility returns the stored level, defaulting to public.
func (s *Store) FieldVisibility(_ context.Context, fieldRef, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visibility[fieldRef][userID], nil
}

// FieldFormat returns the configured date format of a field.
func (s *Store) FieldFormat(_ context.Context, fieldRef string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.formats[fieldRef], nil
}

// -----------------------------------------------------------------------------
// Relationship store
// -----------------------------------------------------------------------------

// Befriend records an accepted mutual friendship.
func (s *Store) Befriend(a, b string) {
	s.mu.Lock()
	if s.friends[a] == nil {
		s.friends[a] = make(map[string]bool)
	}
	if s.friends[b] == nil {
		s.friends[b] = make(map[string]bool)
	}
	s.friends[a][b] = true
	s.friends[b][a] = true
	s.mu.Unlock()
	s.mutated(store.ReasonFriendship)
}

// Unfriend removes a friendship in both directions.
func (s *Store) Unfriend(a, b string) {
	s.mu.Lock()
	delete(s.friends[a], b)
	delete(s.friends[b], a)
	s.mu.Unlock()
	s.mutated(store.ReasonFriendship)
}

// Follow records a one-directional follow.
func (s *Store) Follow(follower, followed string) {
	s.mu.Lock()
	if s.following[follower] == nil {
		s.following[follower] = make(map[string]bool)
	}
	s.following[follower][followed] = true
	s.mu.Unlock()
	s.mutated(store.ReasonFollow)
}

// Unfollow removes a follow edge.
func (s *Store) Unfollow(follower, followed string) {
	s.mu.Lock()
	delete(s.following[follower], followed)
	s.mu.Unlock()
	s.mutated(store.ReasonFollow)
}

// FriendsOf lists the accepted friends of a member.
func (s *Store) FriendsOf(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return setToSlice(s.friends[userID]), nil
}

// FollowingOf lists the members a user follows.
func (s *Store) FollowingOf(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return setToSlice(s.following[userID]), nil
}

// AreFriends reports an accepted friendship between two members.
func (s *Store) AreFriends(_ context.Context, a, b string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.friends[a][b], nil
}

// -----------------------------------------------------------------------------
// User directory (notification channels)
// -----------------------------------------------------------------------------

// DisplayName returns the member's display name.
func (s *Store) DisplayName(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profiles[userID].DisplayName, nil
}

// EmailAddress returns the member's email address.
func (s *Store) EmailAddress(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profiles[userID].Email, nil
}

// -----------------------------------------------------------------------------
// Key/value store
// -----------------------------------------------------------------------------

func kvKey(namespace, key string) string { return namespace + "\x00" + key }

// Get implements store.KV.
func (s *Store) Get(_ context.Context, namespace, key string) ([]byte, bool, error) {
	s.mu.RLock()
	entry, ok := s.kv[kvKey(namespace, key)]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		// Lazy expiry; the entry is dropped on the next write or flush.
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set implements store.KV.
func (s *Store) Set(_ context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	entry := kvEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.kv[kvKey(namespace, key)] = entry
	s.mu.Unlock()
	return nil
}

// Delete implements store.KV.
func (s *Store) Delete(_ context.Context, namespace, key string) error {
	s.mu.Lock()
	delete(s.kv, kvKey(namespace, key))
	s.mu.Unlock()
	return nil
}

// Flush implements store.KV.
func (s *Store) Flush(_ context.Context, namespace string) error {
	prefix := namespace + "\x00"
	s.mu.Lock()
	for k := range s.kv {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(s.kv, k)
		}
	}
	s.mu.Unlock()
	return nil
}

func setToSlice(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
