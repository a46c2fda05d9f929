package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/tartampluch/birthdayd/internal/config"
	"github.com/tartampluch/birthdayd/internal/engine"
	"github.com/tartampluch/birthdayd/internal/notify"
	"github.com/tartampluch/birthdayd/internal/store"
)

// Summarizer mails the daily digest after a cycle.
type Summarizer interface {
	Send(ctx context.Context, birthdays []engine.UpcomingBirthday) error
}

// Scheduler runs the daily notification cycle: find today's birthdays
// site-wide, dispatch each configured channel once per user per day, and
// record who was processed so repeated ticks within a day are no-ops.
type Scheduler struct {
	Engine   *engine.Engine
	Clock    engine.Clock
	State    store.KV
	Channels []notify.Channel
	Summary  Summarizer
	FieldRef string

	mu sync.Mutex
}

// ShouldReset reports whether the per-day tracking must be cleared because
// the calendar day moved past the last processed date.
func ShouldReset(lastProcessed, today string) bool {
	return lastProcessed != today
}

// TriggerNow runs one notification cycle. A cycle already in progress makes
// this call return immediately.
func (s *Scheduler) TriggerNow(ctx context.Context) error {
	if !s.mu.TryLock() {
		slog.Info(config.MsgCycleSkipped,
			config.LogKeyComponent, config.CompScheduler,
		)
		return nil
	}
	defer s.mu.Unlock()
	return s.runCycle(ctx)
}

func (s *Scheduler) runCycle(ctx context.Context) error {
	today := s.Clock.Now()
	todayKey := today.Format(config.DateFormatCanonical)

	slog.Info(config.MsgCycleStarted,
		config.LogKeyComponent, config.CompScheduler,
		config.LogKeyDate, todayKey,
	)

	sent := s.loadTracking(ctx, todayKey)

	cfg := engine.QueryConfig{
		Scope:    config.ScopeAll,
		FieldRef: s.FieldRef,
		Range:    config.RangeWeekly,
		Viewer:   engine.ViewerContext{LoggedIn: true, IsAdmin: true},
	}
	upcoming, err := s.Engine.Compute(ctx, cfg, today)
	if err != nil {
		return err
	}

	var processed []engine.UpcomingBirthday
	dispatched, skipped := 0, 0
	for _, b := range upcoming {
		if !b.IsToday {
			continue
		}
		if _, done := sent[b.UserID]; done {
			slog.Debug(config.MsgAlreadySent,
				config.LogKeyComponent, config.CompScheduler,
				config.LogKeyUser, b.UserID,
			)
			skipped++
			continue
		}

		s.dispatch(ctx, b)
		sent[b.UserID] = today.Unix()
		processed = append(processed, b)
		dispatched++
	}

	s.saveTracking(ctx, todayKey, sent)

	if s.Summary != nil && len(processed) > 0 {
		if err := s.Summary.Send(ctx, processed); err != nil {
			slog.Error(config.MsgDispatchFailed,
				config.LogKeyComponent, config.CompScheduler,
				config.LogKeyChannel, "summary",
				config.LogKeyError, err,
			)
		} else {
			slog.Info(config.MsgSummarySent,
				config.LogKeyComponent, config.CompScheduler,
				config.LogKeyCount, len(processed),
			)
		}
	}

	slog.Info(config.MsgCycleDone,
		config.LogKeyComponent, config.CompScheduler,
		config.LogKeySent, dispatched,
		config.LogKeySkipped, skipped,
	)
	return nil
}

// dispatch fires every channel for one birthday. Channel failures are
// logged and do not block the remaining channels; the user still counts as
// processed for the day.
func (s *Scheduler) dispatch(ctx context.Context, b engine.UpcomingBirthday) {
	for _, ch := range s.Channels {
		if err := ch.Dispatch(ctx, b); err != nil {
			slog.Error(config.MsgDispatchFailed,
				config.LogKeyComponent, config.CompScheduler,
				config.LogKeyChannel, ch.Name(),
				config.LogKeyUser, b.UserID,
				config.LogKeyError, err,
			)
			continue
		}
		slog.Info(config.MsgDispatched,
			config.LogKeyComponent, config.CompScheduler,
			config.LogKeyChannel, ch.Name(),
			config.LogKeyUser, b.UserID,
		)
	}
}

// loadTracking returns the per-user dispatch map for today, resetting it on
// day rollover. A corrupt record degrades to an empty map.
func (s *Scheduler) loadTracking(ctx context.Context, todayKey string) map[string]int64 {
	lastRaw, ok, _ := s.State.Get(ctx, config.StateNamespace, config.LastCheckKey)
	if !ok || ShouldReset(string(lastRaw), todayKey) {
		if ok {
			slog.Info(config.MsgTrackingReset,
				config.LogKeyComponent, config.CompScheduler,
				config.LogKeyDate, todayKey,
			)
		}
		return make(map[string]int64)
	}

	raw, ok, _ := s.State.Get(ctx, config.StateNamespace, config.TrackingKey)
	if !ok {
		return make(map[string]int64)
	}
	sent := make(map[string]int64)
	if err := json.Unmarshal(raw, &sent); err != nil {
		return make(map[string]int64)
	}
	return sent
}

func (s *Scheduler) saveTracking(ctx context.Context, todayKey string, sent map[string]int64) {
	payload, err := json.Marshal(sent)
	if err != nil {
		return
	}
	_ = s.State.Set(ctx, config.StateNamespace, config.TrackingKey, payload, 48*time.Hour)
	_ = s.State.Set(ctx, config.StateNamespace, config.LastCheckKey, []byte(todayKey), 48*time.Hour)
}
