package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"terrafield/internal/core/domain"
)

// TerritorySnapshot is one consistent read of the registry: every
// territory, the open assignment per territory id and the city list,
// all taken from the same state so classification over a listing never
// observes a half-applied command.
type TerritorySnapshot struct {
	Territories []domain.Territory
	Active      map[uuid.UUID]domain.Assignment
	Cities      []domain.City
}

// TerritoryStore is the persistence port for the territory registry and
// the assignment ledger. The two are one port because every ledger
// command also moves the owning territory's status, and the pair must
// commit or roll back together. Implementations must serialize racing
// commands on the same territory so the loser fails deterministically
// with ErrConflict or ErrInvalidTransition instead of losing an update.
type TerritoryStore interface {
	// SnapshotTerritory reads a territory together with its open
	// assignment (nil when none) from one consistent state.
	SnapshotTerritory(ctx context.Context, id uuid.UUID) (*domain.Territory, *domain.Assignment, error)
	// SnapshotTerritories reads all territories, open assignments and
	// cities from one consistent state, in storage order; callers apply
	// presentation ordering.
	SnapshotTerritories(ctx context.Context) (*TerritorySnapshot, error)
	CreateTerritory(ctx context.Context, t domain.Territory) error
	// UpdateTerritory applies descriptive field changes only; it never
	// touches status or the ledger.
	UpdateTerritory(ctx context.Context, id uuid.UUID, upd domain.TerritoryUpdate) (*domain.Territory, error)
	// DeleteTerritory fails with ErrConflict while an active assignment
	// references the territory.
	DeleteTerritory(ctx context.Context, id uuid.UUID) error

	// Assignments returns the full ledger history for a territory,
	// newest first by assignment date, ties broken by insertion order.
	Assignments(ctx context.Context, territoryID uuid.UUID) ([]domain.Assignment, error)

	// AssignTerritory atomically opens a person assignment and moves the
	// territory to Assigned. Fails with ErrInvalidTransition unless the
	// stored status accepts assignment, and with ErrConflict when an
	// open assignment already exists.
	AssignTerritory(ctx context.Context, territoryID, personID uuid.UUID, dueDate *time.Time, today time.Time) (*domain.Assignment, error)
	// ReturnTerritory atomically closes the open assignment, stamps the
	// territory's last visit with today and moves it to Pending. Fails
	// with ErrNoActiveAssignment when nothing is open.
	ReturnTerritory(ctx context.Context, territoryID uuid.UUID, today time.Time) (*domain.Assignment, error)
	// CancelTerritory closes the open assignment as an undo: the
	// territory returns to Available and its last visit is untouched.
	CancelTerritory(ctx context.Context, territoryID uuid.UUID, today time.Time) (*domain.Assignment, error)
	// ExtendTerritory replaces the due date on the open assignment
	// without closing it; the territory stays Assigned.
	ExtendTerritory(ctx context.Context, territoryID uuid.UUID, newDue time.Time) (*domain.Assignment, error)
	// ReclassifyPending resolves Pending to Available; the hook for the
	// external verification sweep. Any other stored status fails with
	// ErrInvalidTransition.
	ReclassifyPending(ctx context.Context, territoryID uuid.UUID) (*domain.Territory, error)

	// CreateCity stores a city; a duplicate name fails with ErrConflict.
	CreateCity(ctx context.Context, c domain.City) error
	ListCities(ctx context.Context) ([]domain.City, error)
}

// CampaignStore is the persistence port for campaigns. CloseCampaign
// owns the whole closure transaction, assignments included, so closure
// is all-or-nothing and a concurrent second close observes the closed
// flag under lock.
type CampaignStore interface {
	GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	// ListCampaigns returns campaigns newest start date first.
	ListCampaigns(ctx context.Context) ([]domain.Campaign, error)
	// CreateCampaign stores the campaign; every reserved territory id
	// must exist, otherwise ErrNotFound.
	CreateCampaign(ctx context.Context, c domain.Campaign) error
	// SetRemaining replaces the remaining set. ErrInvalidState once
	// closed; ErrInvalidArgument when an id is outside the reserved set.
	SetRemaining(ctx context.Context, id uuid.UUID, territoryIDs []uuid.UUID) (*domain.Campaign, error)
	// CloseCampaign materializes one completed campaign-held assignment
	// per used territory, stamps those territories' last visit with
	// today, and sets the closed flag, all in one transaction. A second
	// close fails with ErrInvalidState and writes nothing.
	CloseCampaign(ctx context.Context, id uuid.UUID, today time.Time) (*domain.Campaign, error)
	// DeleteCampaign removes the campaign in any state; materialized
	// assignments are never undone.
	DeleteCampaign(ctx context.Context, id uuid.UUID) error
}

// ReminderStore is the persistence port for overdue-territory
// reminders.
type ReminderStore interface {
	// HasReminder reports whether any reminder exists for the pair.
	HasReminder(ctx context.Context, territoryID, personID uuid.UUID) (bool, error)
	// CreateReminder stores a reminder; ErrAlreadyReminded when the pair
	// already has one, ErrNotFound for an unknown territory.
	CreateReminder(ctx context.Context, r domain.Reminder) error
	// RemindersForTerritory returns reminders newest first.
	RemindersForTerritory(ctx context.Context, territoryID uuid.UUID) ([]domain.Reminder, error)
}

// Store aggregates the three persistence ports; both the postgres and
// the in-memory adapters implement all of them on one value.
type Store interface {
	TerritoryStore
	CampaignStore
	ReminderStore
}
