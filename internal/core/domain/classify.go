package domain

import "time"

// DateLayout is the ISO calendar date format used on the wire and in
// LastVisitedOn.
const DateLayout = "2006-01-02"

// Midnight truncates t to its calendar date in UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EffectiveStatus derives the territory status reported to readers. An
// assigned territory whose active assignment carries a due date in the
// past reports Late; the stored status and the assignment record stay
// untouched until return, cancel or extend. Every other combination
// reports the stored status unchanged.
func EffectiveStatus(stored Status, active *Assignment, now time.Time) Status {
	if stored != StatusAssigned || active == nil || active.DueDate == nil {
		return stored
	}
	if active.DueDate.Before(Midnight(now)) {
		return StatusLate
	}
	return stored
}

// ReferenceDate returns the cutoff for the non-visited classification:
// the most recent September 1 that is itself at least one full season in
// the past. From September onward that is September 1 of the previous
// year; before September it is September 1 of the year before that.
func ReferenceDate(now time.Time) time.Time {
	year := now.Year() - 2
	if now.Month() >= time.September {
		year = now.Year() - 1
	}
	return time.Date(year, time.September, 1, 0, 0, 0, 0, time.UTC)
}

// NonVisited reports whether the territory counts as non-visited at
// now. Territories whose effective status is Assigned or Late are
// excluded outright, even when their visit date is malformed. For the
// rest, an absent or unparseable LastVisitedOn counts as never visited.
func NonVisited(t Territory, active *Assignment, now time.Time) bool {
	switch EffectiveStatus(t.Status, active, now) {
	case StatusAvailable, StatusPending:
	default:
		return false
	}
	if t.LastVisitedOn == "" {
		return true
	}
	visited, err := time.Parse(DateLayout, t.LastVisitedOn)
	if err != nil {
		return true
	}
	return visited.Before(ReferenceDate(now))
}
