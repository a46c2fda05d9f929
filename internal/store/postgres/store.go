package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/tartampluch/birthdayd/internal/config"
	"github.com/tartampluch/birthdayd/internal/engine"
)

// Store implements the profile, relationship, member and user-directory
// contracts over a Postgres database.
type Store struct{ db *DB }

// NewStore constructs a store around an open pool.
func NewStore(db *DB) *Store { return &Store{db: db} }

// -----------------------------------------------------------------------------
// Profile store
// -----------------------------------------------------------------------------

// FieldValue returns the primary stored value for a field, empty when unset.
func (s *Store) FieldValue(ctx context.Context, fieldRef, userID string) (engine.RawValue, error) {
	const q = `SELECT value FROM profile_values WHERE field_ref=$1 AND user_id=$2`
	return s.scanRaw(ctx, q, fieldRef, userID)
}

// FieldValueDirect returns the secondary stored value for a field.
func (s *Store) FieldValueDirect(ctx context.Context, fieldRef, userID string) (engine.RawValue, error) {
	const q = `SELECT value FROM profile_values_direct WHERE field_ref=$1 AND user_id=$2`
	return s.scanRaw(ctx, q, fieldRef, userID)
}

func (s *Store) scanRaw(ctx context.Context, q, fieldRef, userID string) (engine.RawValue, error) {
	var value string
	err := s.db.Pool.QueryRow(ctx, q, fieldRef, userID).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return engine.RawValue{}, nil
	}
	if err != nil {
		return engine.RawValue{}, err
	}
	return engine.RawString(value), nil
}

// FieldVisibility returns the per-user visibility level, defaulting to public.
func (s *Store) FieldVisibility(ctx context.Context, fieldRef, userID string) (string, error) {
	const q = `SELECT level FROM field_visibility WHERE field_ref=$1 AND user_id=$2`
	var level string
	err := s.db.Pool.QueryRow(ctx, q, fieldRef, userID).Scan(&level)
	if errors.Is(err, pgx.ErrNoRows) {
		return config.VisibilityPublic, nil
	}
	if err != nil {
		return "", err
	}
	return level, nil
}

// FieldFormat returns the configured display format of a field, empty when
// none is set.
func (s *Store) FieldFormat(ctx context.Context, fieldRef string) (string, error) {
	const q = `SELECT format FROM field_formats WHERE field_ref=$1`
	var format string
	err := s.db.Pool.QueryRow(ctx, q, fieldRef).Scan(&format)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return format, nil
}

// -----------------------------------------------------------------------------
// Relationship store
// -----------------------------------------------------------------------------

// FriendsOf lists the confirmed friends of a user.
func (s *Store) FriendsOf(ctx context.Context, userID string) ([]string, error) {
	const q = `
		SELECT CASE WHEN user_a=$1 THEN user_b ELSE user_a END
		FROM friendships
		WHERE (user_a=$1 OR user_b=$1) AND confirmed`
	return s.scanIDs(ctx, q, userID)
}

// FollowingOf lists the users the given user follows.
func (s *Store) FollowingOf(ctx context.Context, userID string) ([]string, error) {
	const q = `SELECT followed FROM follows WHERE follower=$1`
	return s.scanIDs(ctx, q, userID)
}

// AreFriends reports whether a confirmed friendship exists between two users.
func (s *Store) AreFriends(ctx context.Context, a, b string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM friendships
			WHERE ((user_a=$1 AND user_b=$2) OR (user_a=$2 AND user_b=$1)) AND confirmed
		)`
	var ok bool
	if err := s.db.Pool.QueryRow(ctx, q, a, b).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Store) scanIDs(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := s.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// -----------------------------------------------------------------------------
// Member and user directory
// -----------------------------------------------------------------------------

// ListMemberIDs returns up to limit member ids in registration order.
func (s *Store) ListMemberIDs(ctx context.Context, limit int) ([]string, error) {
	const q = `SELECT id FROM users ORDER BY registered_at, id LIMIT $1`
	if limit <= 0 {
		limit = config.MemberScanCap
	}
	return s.scanIDs(ctx, q, limit)
}

// DisplayName resolves a user's display name.
func (s *Store) DisplayName(ctx context.Context, userID string) (string, error) {
	const q = `SELECT display_name FROM users WHERE id=$1`
	var name string
	err := s.db.Pool.QueryRow(ctx, q, userID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return name, err
}

// EmailAddress resolves a user's email address.
func (s *Store) EmailAddress(ctx context.Context, userID string) (string, error) {
	const q = `SELECT email FROM users WHERE id=$1`
	var email string
	err := s.db.Pool.QueryRow(ctx, q, userID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return email, err
}
