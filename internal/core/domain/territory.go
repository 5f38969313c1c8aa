package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a territory. Only Available, Assigned
// and Pending are ever stored; Late is derived at read time from the
// active assignment's due date (see EffectiveStatus) and never written.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusAssigned  Status = "ASSIGNED"
	StatusPending   Status = "PENDING"
	StatusLate      Status = "LATE"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusAssigned, StatusPending, StatusLate:
		return true
	}
	return false
}

// Storable reports whether s may be persisted. Late is display-only.
func (s Status) Storable() bool {
	return s == StatusAvailable || s == StatusAssigned || s == StatusPending
}

// CanAssign reports whether a territory with stored status s accepts a
// new person assignment.
func (s Status) CanAssign() bool {
	return s == StatusAvailable || s == StatusPending
}

// Territory is a geographic assignment unit tracked through a visitation
// lifecycle. Status holds the stored state machine value; LastVisitedOn
// is kept as the raw ISO calendar date string exactly as recorded, since
// historic imports contain malformed values the classifier must tolerate.
// Geometry is an opaque polygon payload the core never interprets.
type Territory struct {
	ID                 uuid.UUID
	Name               string
	CityID             uuid.UUID
	Status             Status
	LastVisitedOn      string
	Note               string
	Geometry           []byte
	ActiveAssignmentID *uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// City is the owning locality of a territory. It exists so listings can
// group and order territories by locality name.
type City struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// TerritoryUpdate carries the mutable descriptive fields of a territory.
// Nil pointers mean "leave unchanged". Status is deliberately absent:
// status only moves through ledger operations.
type TerritoryUpdate struct {
	Name     *string
	CityID   *uuid.UUID
	Note     *string
	Geometry []byte
}
