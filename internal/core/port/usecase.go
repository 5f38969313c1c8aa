package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"terrafield/internal/core/domain"
)

// TerritoryView is the read model returned by territory queries: the
// stored record plus the status derived for the evaluation time and the
// open assignment, when any. CityName is carried for display and for
// the listing order.
type TerritoryView struct {
	Territory domain.Territory
	Status    domain.Status
	Active    *domain.Assignment
	CityName  string
}

// CreateTerritoryReq carries the fields of a new territory.
type CreateTerritoryReq struct {
	Name     string
	CityID   uuid.UUID
	Note     string
	Geometry []byte
}

// AssignReq carries a person assignment command. DueDate is optional; a
// territory assigned without one can never classify as late.
type AssignReq struct {
	TerritoryID uuid.UUID
	PersonID    uuid.UUID
	DueDate     *time.Time
}

// TerritoryUseCase is the primary port for the territory registry, the
// assignment ledger and the temporal classifier. All queries take the
// evaluation time explicitly so the verification sweep can re-evaluate
// past or future dates; handlers pass time.Now for interactive calls.
type TerritoryUseCase interface {
	Get(ctx context.Context, id uuid.UUID, now time.Time) (*TerritoryView, error)
	// List returns all territories ordered by city name then territory
	// name, case-insensitively and locale-aware.
	List(ctx context.Context, now time.Time) ([]TerritoryView, error)
	// ListLate returns territories whose derived status is Late.
	ListLate(ctx context.Context, now time.Time) ([]TerritoryView, error)
	// ListNonVisited returns territories not visited since the rolling
	// reference date, per the classifier rules.
	ListNonVisited(ctx context.Context, now time.Time) ([]TerritoryView, error)
	History(ctx context.Context, territoryID uuid.UUID) ([]domain.Assignment, error)

	Create(ctx context.Context, req CreateTerritoryReq) (*domain.Territory, error)
	Update(ctx context.Context, id uuid.UUID, upd domain.TerritoryUpdate) (*domain.Territory, error)
	Delete(ctx context.Context, id uuid.UUID) error

	Assign(ctx context.Context, req AssignReq, now time.Time) (*domain.Assignment, error)
	Return(ctx context.Context, territoryID uuid.UUID, now time.Time) (*domain.Assignment, error)
	Cancel(ctx context.Context, territoryID uuid.UUID, now time.Time) (*domain.Assignment, error)
	Extend(ctx context.Context, territoryID uuid.UUID, newDue time.Time) (*domain.Assignment, error)
	ReclassifyPending(ctx context.Context, territoryID uuid.UUID) (*domain.Territory, error)

	CreateCity(ctx context.Context, name string) (*domain.City, error)
	ListCities(ctx context.Context) ([]domain.City, error)
}

// CreateCampaignReq carries the fields of a new campaign. TerritoryIDs
// is the full reserved set; the remaining set starts equal to it.
type CreateCampaignReq struct {
	Name         string
	Description  string
	StartDate    time.Time
	EndDate      time.Time
	TerritoryIDs []uuid.UUID
}

// CampaignUseCase is the primary port for campaign lifecycle and bulk
// assignment reconciliation.
type CampaignUseCase interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	List(ctx context.Context) ([]domain.Campaign, error)
	Create(ctx context.Context, req CreateCampaignReq) (*domain.Campaign, error)
	// CreateFromPrevious seeds the new campaign's territory set from the
	// previous campaign's frozen remaining set; the previous campaign
	// must be closed.
	CreateFromPrevious(ctx context.Context, previousID uuid.UUID, req CreateCampaignReq) (*domain.Campaign, error)
	SetRemaining(ctx context.Context, id uuid.UUID, territoryIDs []uuid.UUID) (*domain.Campaign, error)
	Close(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Campaign, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateReminderReq carries a reminder command.
type CreateReminderReq struct {
	TerritoryID uuid.UUID
	PersonID    uuid.UUID
	IssuedByID  uuid.UUID
	Note        string
}

// ReminderUseCase is the primary port for overdue-territory reminders.
type ReminderUseCase interface {
	HasOpenReminder(ctx context.Context, territoryID, personID uuid.UUID) (bool, error)
	Create(ctx context.Context, req CreateReminderReq) (*domain.Reminder, error)
	ListForTerritory(ctx context.Context, territoryID uuid.UUID) ([]domain.Reminder, error)
}
