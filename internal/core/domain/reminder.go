package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reminder records that a person was notified about an overdue
// territory. Historical reminders accumulate; "has an open reminder"
// collapses to the existence of at least one record for the
// (territory, person) pair.
type Reminder struct {
	ID          uuid.UUID
	TerritoryID uuid.UUID
	PersonID    uuid.UUID
	IssuedByID  uuid.UUID
	Note        string
	CreatedAt   time.Time
}
