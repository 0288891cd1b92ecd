// Package scoring converts raw interaction statistics into 0-100
// relationship-strength scores. Both generations are pure functions; the
// batch job writes results back onto KNOWS edges.
package scoring

import "time"

// DefaultDaysSinceContact is the conservative fallback when an edge has no
// usable last-contact date
const DefaultDaysSinceContact = 365

// ScoreV1 is the first-generation strength formula: email volume (0-40),
// linear recency decay reaching zero at 900 days (0-30), and a flat bonus
// when both directions have emailed (0 or 30).
func ScoreV1(emailCount, daysSinceContact int, bidirectional bool) int {
	if emailCount <= 0 {
		return 0
	}

	base := float64(emailCount * 5)
	if base > 40 {
		base = 40
	}

	recency := 30 - float64(daysSinceContact)/30
	if recency < 0 {
		recency = 0
	}

	bonus := 0.0
	if bidirectional {
		bonus = 30
	}

	return clamp(int(base + recency + bonus))
}

// DaysSince returns whole days since t, or DefaultDaysSinceContact when t
// is missing
func DaysSince(t time.Time) int {
	if t.IsZero() {
		return DefaultDaysSinceContact
	}
	days := int(time.Since(t).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
