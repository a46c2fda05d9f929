package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/tartampluch/birthdayd/internal/config"
	"github.com/tartampluch/birthdayd/internal/store"
)

// Flusher clears cached query results. The daily safety-net flush keeps
// served windows from drifting across midnight.
type Flusher interface {
	Invalidate(ctx context.Context, reason string)
}

// ParseSendTime validates an HH:MM send time and returns its components.
func ParseSendTime(sendTime string) (hour, minute int, err error) {
	parts := strings.Split(sendTime, ":")
	if len(parts) != 2 {
		return 0, 0, errors.New(config.ErrSendTimeFormat)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, errors.New(config.ErrSendTimeFormat)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, errors.New(config.ErrSendTimeFormat)
	}
	return hour, minute, nil
}

// StartCron schedules the daily notification pass at sendTime and the
// post-midnight cache flush, then starts the cron runner. The returned cron
// must be stopped by the caller on shutdown.
func StartCron(ctx context.Context, s *Scheduler, flusher Flusher, sendTime string) (*cron.Cron, error) {
	hour, minute, err := ParseSendTime(sendTime)
	if err != nil {
		return nil, err
	}

	c := cron.New()

	dailySpec := fmt.Sprintf(config.CronDailyFormat, minute, hour)
	if _, err := c.AddFunc(dailySpec, func() {
		if err := s.TriggerNow(ctx); err != nil {
			slog.Error(config.ErrCycleFailed,
				config.LogKeyComponent, config.CompScheduler,
				config.LogKeyError, err,
			)
		}
	}); err != nil {
		return nil, err
	}

	if flusher != nil {
		if _, err := c.AddFunc(config.CronCacheFlush, func() {
			flusher.Invalidate(ctx, store.ReasonDaily)
		}); err != nil {
			return nil, err
		}
	}

	c.Start()
	slog.Info(config.MsgCronScheduled,
		config.LogKeyComponent, config.CompScheduler,
		config.LogKeyValue, dailySpec,
	)
	return c, nil
}
