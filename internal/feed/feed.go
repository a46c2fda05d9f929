// Package feed renders engine output as an iCalendar document suitable for
// subscription by calendar clients.
package feed

import (
	"bytes"
	"fmt"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/birthdayd/internal/config"
	"github.com/tartampluch/birthdayd/internal/engine"
)

// NameResolver maps a user id to a display name. A nil resolver or an empty
// result falls back to the id itself.
type NameResolver func(userID string) string

// Renderer builds the ICS document.
type Renderer struct {
	Clock   engine.Clock
	Resolve NameResolver
}

// Render encodes the given birthdays as a VCALENDAR. Each entry becomes one
// all-day VEVENT on its next occurrence. An empty list yields a minimal valid
// calendar so clients keep the subscription alive.
func (r *Renderer) Render(birthdays []engine.UpcomingBirthday) ([]byte, error) {
	if len(birthdays) == 0 {
		return []byte(config.StubVCalendar), nil
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(r.Clock.Now().UTC())

	for _, b := range birthdays {
		event := ical.NewEvent()
		event.Props.SetText(config.PropUID,
			fmt.Sprintf(config.FormatUID, b.UserID, b.NextOccurrence.Year(), config.ICalDomain))
		event.Props.SetText(config.PropSummary, r.summary(b))

		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(b.NextOccurrence)
		event.Props.Set(dtStartProp)
		event.Props.Set(dtStampProp)

		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) summary(b engine.UpcomingBirthday) string {
	name := b.UserID
	if r.Resolve != nil {
		if resolved := r.Resolve(b.UserID); resolved != "" {
			name = resolved
		}
	}
	if b.AgeTurning > 0 {
		return fmt.Sprintf(config.ICalSummaryAgeFormat, name, b.AgeTurning)
	}
	return fmt.Sprintf(config.ICalSummaryFormat, name)
}
