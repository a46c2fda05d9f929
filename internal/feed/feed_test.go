package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/birthdayd/internal/config"
	"github.com/tartampluch/birthdayd/internal/engine"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func newRenderer(names map[string]string) *Renderer {
	return &Renderer{
		Clock: fixedClock{now: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)},
		Resolve: func(id string) string {
			return names[id]
		},
	}
}

func TestRender_EmptyListYieldsValidStub(t *testing.T) {
	r := newRenderer(nil)

	out, err := r.Render(nil)
	require.NoError(t, err)

	ics := string(out)
	assert.True(t, strings.HasPrefix(ics, "BEGIN:VCALENDAR"))
	assert.Contains(t, ics, "END:VCALENDAR")
	assert.NotContains(t, ics, "VEVENT")
}

func TestRender_OneEventPerBirthday(t *testing.T) {
	r := newRenderer(map[string]string{"u1": "Alice", "u2": "Bob"})

	list := []engine.UpcomingBirthday{
		{
			UserID:         "u1",
			NextOccurrence: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			AgeTurning:     35,
			IsToday:        true,
		},
		{
			UserID:         "u2",
			NextOccurrence: time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC),
			AgeTurning:     41,
		},
	}

	out, err := r.Render(list)
	require.NoError(t, err)
	ics := string(out)

	assert.Equal(t, 2, strings.Count(ics, "BEGIN:VEVENT"))
	assert.Contains(t, ics, "SUMMARY:Alice's Birthday (35)")
	assert.Contains(t, ics, "SUMMARY:Bob's Birthday (41)")
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20250615")
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20250620")
}

func TestRender_CalendarHeaders(t *testing.T) {
	r := newRenderer(map[string]string{"u1": "Alice"})

	out, err := r.Render([]engine.UpcomingBirthday{{
		UserID:         "u1",
		NextOccurrence: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		AgeTurning:     1,
	}})
	require.NoError(t, err)
	ics := string(out)

	assert.Contains(t, ics, "VERSION:2.0")
	assert.Contains(t, ics, "PRODID:"+config.ICalProdid)
	assert.Contains(t, ics, "X-WR-CALNAME:"+config.ICalCalName)
	assert.Contains(t, ics, "UID:u1-2025@"+config.ICalDomain)
}

func TestRender_UnresolvedNameFallsBackToID(t *testing.T) {
	r := newRenderer(nil)

	out, err := r.Render([]engine.UpcomingBirthday{{
		UserID:         "u9",
		NextOccurrence: time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC),
		AgeTurning:     20,
	}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "SUMMARY:u9's Birthday (20)")
}
