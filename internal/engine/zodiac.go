package engine

import (
	"fmt"
	"time"
)

// ZodiacSign is the western zodiac sign derived from a birth month/day.
type ZodiacSign struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// zodiacRange bounds a sign by inclusive "MM-DD" strings. Capricorn spans the
// year boundary and is handled separately.
type zodiacRange struct {
	sign       ZodiacSign
	start, end string
}

var zodiacRanges = []zodiacRange{
	{ZodiacSign{"Aquarius", "♒"}, "01-20", "02-18"},
	{ZodiacSign{"Pisces", "♓"}, "02-19", "03-20"},
	{ZodiacSign{"Aries", "♈"}, "03-21", "04-19"},
	{ZodiacSign{"Taurus", "♉"}, "04-20", "05-20"},
	{ZodiacSign{"Gemini", "♊"}, "05-21", "06-20"},
	{ZodiacSign{"Cancer", "♋"}, "06-21", "07-22"},
	{ZodiacSign{"Leo", "♌"}, "07-23", "08-22"},
	{ZodiacSign{"Virgo", "♍"}, "08-23", "09-22"},
	{ZodiacSign{"Libra", "♎"}, "09-23", "10-22"},
	{ZodiacSign{"Scorpio", "♏"}, "10-23", "11-21"},
	{ZodiacSign{"Sagittarius", "♐"}, "11-22", "12-21"},
}

var capricorn = ZodiacSign{"Capricorn", "♑"}

// Zodiac returns the sign for a birth date.
func Zodiac(birthDate time.Time) ZodiacSign {
	monthDay := fmt.Sprintf("%02d-%02d", birthDate.Month(), birthDate.Day())

	// Capricorn wraps the year boundary (Dec 22 through Jan 19).
	if monthDay >= "12-22" || monthDay <= "01-19" {
		return capricorn
	}

	for _, r := range zodiacRanges {
		if monthDay >= r.start && monthDay <= r.end {
			return r.sign
		}
	}
	return capricorn
}
