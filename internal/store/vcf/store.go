// Package vcf backs the profile and member contracts with a vCard roster,
// read from a local file or fetched over HTTP. The roster is immutable once
// loaded; relationship data is not available in this backend.
package vcf

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/birthdayd/internal/config"
	"github.com/tartampluch/birthdayd/internal/engine"
)

// member is one parsed roster entry.
type member struct {
	id       string
	name     string
	email    string
	birthday string
}

// Store serves profile lookups from a parsed vCard roster.
type Store struct {
	order   []string
	members map[string]member
}

// NewFromReader parses a vCard stream into a store. Malformed cards are
// skipped; cards without a UID get a deterministic one derived from their
// formatted name.
func NewFromReader(r io.Reader) (*Store, error) {
	s := &Store{members: make(map[string]member)}
	dec := vcard.NewDecoder(r)

	for {
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn(config.MsgVCFSkippedCard,
				config.LogKeyComponent, config.CompStore,
				config.LogKeyError, err,
			)
			continue
		}

		m := member{name: config.FallbackName}
		if fn := card.Get(config.VCardFN); fn != nil && fn.Value != "" {
			m.name = fn.Value
		} else if n := card.Get(config.VCardN); n != nil && n.Value != "" {
			m.name = n.Value
		}
		if email := card.Get(config.VCardEmail); email != nil {
			m.email = email.Value
		}
		if bday := card.Get(config.VCardBDAY); bday != nil {
			m.birthday = bday.Value
		}

		if uid := card.Get(config.VCardUID); uid != nil && uid.Value != "" {
			m.id = uid.Value
		} else {
			hash := sha256.Sum256([]byte(m.name))
			m.id = fmt.Sprintf("%x", hash[:8])
		}

		if _, dup := s.members[m.id]; dup {
			continue
		}
		s.order = append(s.order, m.id)
		s.members[m.id] = m
	}

	slog.Info(config.MsgVCFLoaded,
		config.LogKeyComponent, config.CompStore,
		config.LogKeyCount, len(s.order),
	)
	return s, nil
}

// LoadFile reads a roster from a local .vcf file.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewFromReader(f)
}

// LoadURL fetches a roster over HTTP with optional basic auth.
func LoadURL(ctx context.Context, fetcher Fetcher, url, user, pass string) (*Store, error) {
	body, err := fetcher.Fetch(ctx, url, user, pass)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return NewFromReader(body)
}

// -----------------------------------------------------------------------------
// Profile store
// -----------------------------------------------------------------------------

// FieldValue returns the card's birthday regardless of the field reference;
// a vCard roster carries exactly one birthday per member.
func (s *Store) FieldValue(_ context.Context, _, userID string) (engine.RawValue, error) {
	m, ok := s.members[userID]
	if !ok || m.birthday == "" {
		return engine.RawValue{}, nil
	}
	return engine.RawString(m.birthday), nil
}

// FieldValueDirect has no secondary source in this backend.
func (s *Store) FieldValueDirect(_ context.Context, _, _ string) (engine.RawValue, error) {
	return engine.RawValue{}, nil
}

// FieldVisibility is always public; a roster file has no per-user privacy.
func (s *Store) FieldVisibility(_ context.Context, _, _ string) (string, error) {
	return config.VisibilityPublic, nil
}

// FieldFormat is unset; vCard dates use their standard shapes.
func (s *Store) FieldFormat(_ context.Context, _ string) (string, error) {
	return "", nil
}

// -----------------------------------------------------------------------------
// Member and user directory
// -----------------------------------------------------------------------------

// ListMemberIDs returns up to limit member ids in roster order.
func (s *Store) ListMemberIDs(_ context.Context, limit int) ([]string, error) {
	ids := s.order
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

// DisplayName resolves a member's formatted name.
func (s *Store) DisplayName(_ context.Context, userID string) (string, error) {
	return s.members[userID].name, nil
}

// EmailAddress resolves a member's email address.
func (s *Store) EmailAddress(_ context.Context, userID string) (string, error) {
	return s.members[userID].email, nil
}
