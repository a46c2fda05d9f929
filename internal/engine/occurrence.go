package engine

import "time"

// NextOccurrence computes the nearest calendar occurrence of a birth date
// relative to 'today': the month/day projected onto the current year at
// midnight, or onto the following year when that projection is strictly
// before the start of today. Feb-29 births substitute Feb-28 in non-leap
// target years; the substitution is recomputed per projection year, so a
// leapling rolls back to Feb-29 whenever the target year is a leap year.
func NextOccurrence(today, birthDate time.Time) time.Time {
	loc := today.Location()
	todayStart := StartOfDay(today)

	candidate := projectOntoYear(birthDate, today.Year(), loc)
	if candidate.Before(todayStart) {
		candidate = projectOntoYear(birthDate, today.Year()+1, loc)
	}
	return candidate
}

// AgeTurning is the age reached at the next occurrence. Entries where this
// is not positive are never emitted by the engine.
func AgeTurning(birthDate, nextOccurrence time.Time) int {
	return nextOccurrence.Year() - birthDate.Year()
}

// IsBirthdayToday compares month and day only, year-independent.
func IsBirthdayToday(today, birthDate time.Time) bool {
	return birthDate.Month() == today.Month() && birthDate.Day() == today.Day()
}

// DaysUntil counts whole days from the start of today to the next occurrence.
func DaysUntil(today, birthDate time.Time) int {
	next := NextOccurrence(today, birthDate)
	return int(next.Sub(StartOfDay(today)).Hours() / 24)
}

// StartOfDay normalizes a timestamp to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay normalizes a timestamp to the last second of its calendar day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// projectOntoYear places the birth month/day into the target year at midnight.
// Without the explicit leap check, time.Date would normalize Feb 29 to Mar 1
// in non-leap years; the engine substitutes Feb 28 for that year instead.
func projectOntoYear(birthDate time.Time, year int, loc *time.Location) time.Time {
	month, day := birthDate.Month(), birthDate.Day()
	if month == time.February && day == 29 && !isLeapYear(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}
