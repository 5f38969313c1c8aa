package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"terrafield/internal/core/domain"
	"terrafield/internal/core/port"
)

// ReminderUseCase implements port.ReminderUseCase. The store enforces
// the at-most-one-open-reminder rule per (territory, person) pair.
type ReminderUseCase struct {
	store port.ReminderStore
}

// NewReminderUseCase creates the reminder service.
func NewReminderUseCase(store port.ReminderStore) *ReminderUseCase {
	return &ReminderUseCase{store: store}
}

var _ port.ReminderUseCase = (*ReminderUseCase)(nil)

func (u *ReminderUseCase) HasOpenReminder(ctx context.Context, territoryID, personID uuid.UUID) (bool, error) {
	return u.store.HasReminder(ctx, territoryID, personID)
}

func (u *ReminderUseCase) Create(ctx context.Context, req port.CreateReminderReq) (*domain.Reminder, error) {
	if req.PersonID == uuid.Nil || req.IssuedByID == uuid.Nil {
		return nil, fmt.Errorf("person and issuer ids are required: %w", port.ErrInvalidArgument)
	}
	r := domain.Reminder{
		ID:          uuid.New(),
		TerritoryID: req.TerritoryID,
		PersonID:    req.PersonID,
		IssuedByID:  req.IssuedByID,
		Note:        req.Note,
		CreatedAt:   time.Now().UTC(),
	}
	if err := u.store.CreateReminder(ctx, r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (u *ReminderUseCase) ListForTerritory(ctx context.Context, territoryID uuid.UUID) ([]domain.Reminder, error) {
	return u.store.RemindersForTerritory(ctx, territoryID)
}
