package domain

import (
	"time"

	"github.com/google/uuid"
)

// HolderKind discriminates who occupies a territory.
type HolderKind string

const (
	HolderPerson   HolderKind = "PERSON"
	HolderCampaign HolderKind = "CAMPAIGN"
)

// Holder is the occupant of a territory: exactly one of a person or a
// campaign. Consumers switch on Kind rather than probing nullable ids.
type Holder struct {
	Kind HolderKind
	ID   uuid.UUID
}

// PersonHolder returns a Holder for a person reference.
func PersonHolder(personID uuid.UUID) Holder {
	return Holder{Kind: HolderPerson, ID: personID}
}

// CampaignHolder returns a Holder for a campaign reference.
func CampaignHolder(campaignID uuid.UUID) Holder {
	return Holder{Kind: HolderCampaign, ID: campaignID}
}

// Assignment is one time-bounded occupation of a territory. Records are
// append-only: they are closed by setting ReturnDate, never deleted.
// At most one assignment per territory has ReturnDate == nil at any time.
// CreatedAt preserves insertion order for history tie-breaks.
type Assignment struct {
	ID             uuid.UUID
	TerritoryID    uuid.UUID
	Holder         Holder
	AssignmentDate time.Time
	DueDate        *time.Time
	ReturnDate     *time.Time
	CreatedAt      time.Time
}

// Active reports whether the assignment is still open.
func (a Assignment) Active() bool {
	return a.ReturnDate == nil
}
