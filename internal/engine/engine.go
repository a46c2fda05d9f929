package engine

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/tartampluch/birthdayd/internal/config"
)

// ProfileStore is the profile-data collaborator. FieldValue is the primary
// accessor; FieldValueDirect is the secondary lookup tried only when the
// primary yields nothing.
type ProfileStore interface {
	FieldValue(ctx context.Context, fieldRef, userID string) (RawValue, error)
	FieldValueDirect(ctx context.Context, fieldRef, userID string) (RawValue, error)
	FieldVisibility(ctx context.Context, fieldRef, userID string) (string, error)
	FieldFormat(ctx context.Context, fieldRef string) (string, error)
}

// RelationshipStore resolves the social graph for scoped queries.
type RelationshipStore interface {
	FriendshipChecker
	FriendsOf(ctx context.Context, userID string) ([]string, error)
	FollowingOf(ctx context.Context, userID string) ([]string, error)
}

// MemberDirectory enumerates site members for unscoped queries.
type MemberDirectory interface {
	ListMemberIDs(ctx context.Context, limit int) ([]string, error)
}

// QueryConfig is the caller-supplied, immutable query description. Its JSON
// serialization doubles as the cache key material; the viewer context is
// excluded from it and keyed separately.
type QueryConfig struct {
	Scope      string `json:"scope"`
	FieldRef   string `json:"field"`
	Range      string `json:"range"`
	MaxResults int    `json:"max_results"`

	Viewer ViewerContext `json:"-"`
}

// WindowDays maps the configured range to its forward-looking span.
func (c QueryConfig) WindowDays() int {
	switch c.Range {
	case config.RangeWeekly:
		return config.WindowDaysWeekly
	case config.RangeMonthly:
		return config.WindowDaysMonthly
	default:
		return config.WindowDaysDefault
	}
}

// UpcomingBirthday is one ranked entry of engine output.
type UpcomingBirthday struct {
	UserID         string     `json:"user_id"`
	BirthDate      time.Time  `json:"birth_date"`
	NextOccurrence time.Time  `json:"next_occurrence"`
	AgeTurning     int        `json:"age_turning"`
	IsToday        bool       `json:"is_today"`
	DaysUntil      int        `json:"days_until"`
	Zodiac         ZodiacSign `json:"zodiac"`
}

// Engine computes ranked upcoming-birthday lists. Relations may be nil when
// the relationship subsystem is absent; scoped queries then fail soft with an
// empty candidate set.
type Engine struct {
	Clock     Clock
	Profiles  ProfileStore
	Relations RelationshipStore
	Members   MemberDirectory

	normalizer *Normalizer
}

// New constructs an engine around its collaborators.
func New(clock Clock, profiles ProfileStore, relations RelationshipStore, members MemberDirectory) *Engine {
	return &Engine{
		Clock:      clock,
		Profiles:   profiles,
		Relations:  relations,
		Members:    members,
		normalizer: &Normalizer{Clock: clock},
	}
}

// Compute resolves, filters and ranks the upcoming birthdays for the given
// configuration. Per-candidate failures (unparseable dates, missing
// relationship data) are swallowed and the candidate skipped; the only
// global failure mode is an unset field reference, which yields an empty
// sequence rather than an error.
func (e *Engine) Compute(ctx context.Context, cfg QueryConfig, today time.Time) ([]UpcomingBirthday, error) {
	start := time.Now()
	log := slog.With(
		config.LogKeyComponent, config.CompEngine,
		config.LogKeyScope, cfg.Scope,
		config.LogKeyRange, cfg.Range,
	)

	if cfg.FieldRef == "" {
		log.Warn(config.ErrFieldUnset)
		return nil, nil
	}

	candidates := e.resolveCandidates(ctx, cfg, log)
	log.Debug(config.MsgQueryStarted, config.LogKeyTotal, len(candidates))

	format := config.DefaultDateFormat
	if f, err := e.Profiles.FieldFormat(ctx, cfg.FieldRef); err == nil && f != "" {
		format = f
	}

	windowStart := StartOfDay(today)
	windowEnd := EndOfDay(windowStart.AddDate(0, 0, cfg.WindowDays()))

	var results []UpcomingBirthday
	stats := struct{ candidates, found, today int }{len(candidates), 0, 0}

	for _, userID := range candidates {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if userID == cfg.Viewer.ViewerID {
			continue
		}

		raw := e.fetchRaw(ctx, cfg.FieldRef, userID)
		if raw.IsEmpty() {
			continue
		}

		birthDate, err := e.normalizer.Normalize(raw, format)
		if err != nil {
			log.Debug(config.MsgSkippedDate, config.LogKeyUser, userID)
			continue
		}

		visibility, err := e.Profiles.FieldVisibility(ctx, cfg.FieldRef, userID)
		if err != nil {
			visibility = config.VisibilityPublic
		}
		if !IsVisible(ctx, visibility, userID, cfg.Viewer, e.Relations) {
			log.Debug(config.MsgSkippedHidden, config.LogKeyUser, userID)
			continue
		}

		next := NextOccurrence(today, birthDate)
		if next.Before(windowStart) || next.After(windowEnd) {
			continue
		}

		age := AgeTurning(birthDate, next)
		if age <= 0 {
			continue
		}

		isToday := IsBirthdayToday(today, birthDate)
		if isToday {
			stats.today++
			log.Info(config.MsgBdayToday,
				config.LogKeyUser, userID,
				config.LogKeyDOB, CanonicalString(birthDate),
			)
		}

		stats.found++
		results = append(results, UpcomingBirthday{
			UserID:         userID,
			BirthDate:      birthDate,
			NextOccurrence: next,
			AgeTurning:     age,
			IsToday:        isToday,
			DaysUntil:      DaysUntil(today, birthDate),
			Zodiac:         Zodiac(birthDate),
		})
	}

	// Today-first, then soonest next occurrence. The sort is stable so
	// same-day entries keep their insertion order.
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.IsToday != b.IsToday {
			return a.IsToday
		}
		if a.IsToday {
			return false
		}
		return a.NextOccurrence.Before(b.NextOccurrence)
	})

	if cfg.MaxResults > 0 && len(results) > cfg.MaxResults {
		results = results[:cfg.MaxResults]
	}

	log.Debug(config.MsgQueryDone,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyTotal, stats.candidates),
			slog.Int(config.LogKeyFound, stats.found),
			slog.Int(config.LogKeyToday, stats.today),
		),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return results, nil
}

// resolveCandidates selects the candidate user set for the configured scope.
// A missing relationship subsystem or directory failure degrades to an empty
// set, never an error.
func (e *Engine) resolveCandidates(ctx context.Context, cfg QueryConfig, log *slog.Logger) []string {
	switch cfg.Scope {
	case config.ScopeFriends:
		if e.Relations == nil || cfg.Viewer.ViewerID == "" {
			log.Warn(config.MsgRelationsAbsent)
			return nil
		}
		ids, err := e.Relations.FriendsOf(ctx, cfg.Viewer.ViewerID)
		if err != nil {
			log.Warn(config.MsgRelationsAbsent, config.LogKeyError, err)
			return nil
		}
		return ids
	case config.ScopeFollowers:
		if e.Relations == nil || cfg.Viewer.ViewerID == "" {
			log.Warn(config.MsgRelationsAbsent)
			return nil
		}
		ids, err := e.Relations.FollowingOf(ctx, cfg.Viewer.ViewerID)
		if err != nil {
			log.Warn(config.MsgRelationsAbsent, config.LogKeyError, err)
			return nil
		}
		return ids
	default:
		if e.Members == nil {
			return nil
		}
		ids, err := e.Members.ListMemberIDs(ctx, config.MemberScanCap)
		if err != nil {
			log.Warn(config.MsgRelationsAbsent, config.LogKeyError, err)
			return nil
		}
		return ids
	}
}

// fetchRaw reads the birthday value with first-available-source semantics:
// the primary profile accessor, then the direct secondary lookup.
func (e *Engine) fetchRaw(ctx context.Context, fieldRef, userID string) RawValue {
	raw, err := e.Profiles.FieldValue(ctx, fieldRef, userID)
	if err == nil && !raw.IsEmpty() {
		return raw
	}
	raw, err = e.Profiles.FieldValueDirect(ctx, fieldRef, userID)
	if err != nil {
		return RawValue{}
	}
	return raw
}
