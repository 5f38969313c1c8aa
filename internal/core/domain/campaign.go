package domain

import (
	"time"

	"github.com/google/uuid"
)

// Campaign is a named, time-boxed reservation of a set of territories.
// Territories and Remaining hold territory ids by value so campaign
// state never aliases registry state. Remaining is mutable only while
// the campaign is open; Closed is a one-way transition. After closure
// Remaining is frozen and records exactly the territories that were not
// converted into assignments.
type Campaign struct {
	ID          uuid.UUID
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Closed      bool
	Territories []uuid.UUID
	Remaining   []uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Contains reports whether id belongs to the campaign's reserved set.
func (c Campaign) Contains(id uuid.UUID) bool {
	for _, t := range c.Territories {
		if t == id {
			return true
		}
	}
	return false
}

// Used returns the territories that were taken during the campaign,
// i.e. reserved but no longer in Remaining, in reservation order. These
// are the territories closure materializes assignments for.
func (c Campaign) Used() []uuid.UUID {
	remaining := make(map[uuid.UUID]struct{}, len(c.Remaining))
	for _, id := range c.Remaining {
		remaining[id] = struct{}{}
	}
	used := make([]uuid.UUID, 0, len(c.Territories))
	for _, id := range c.Territories {
		if _, ok := remaining[id]; !ok {
			used = append(used, id)
		}
	}
	return used
}
