package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"terrafield/internal/core/domain"
	"terrafield/internal/core/port"
)

func (s *Store) HasReminder(ctx context.Context, territoryID, personID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reminders WHERE territory_id = $1 AND person_id = $2)`,
		territoryID, personID).Scan(&exists)
	return exists, err
}

// CreateReminder serializes on the territory row so two racing reminders
// for the same pair cannot both pass the existence check.
func (s *Store) CreateReminder(ctx context.Context, r domain.Reminder) (err error) {
	tx, done, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer done(&err)

	if _, err = lockTerritory(ctx, tx, r.TerritoryID); err != nil {
		return err
	}
	var exists bool
	if err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reminders WHERE territory_id = $1 AND person_id = $2)`,
		r.TerritoryID, r.PersonID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		err = fmt.Errorf("territory %s person %s: %w", r.TerritoryID, r.PersonID, port.ErrAlreadyReminded)
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO reminders
			(id, territory_id, person_id, issued_by_id, note, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
		r.ID, r.TerritoryID, r.PersonID, r.IssuedByID, r.Note, r.CreatedAt)
	return err
}

func (s *Store) RemindersForTerritory(ctx context.Context, territoryID uuid.UUID) ([]domain.Reminder, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM territories WHERE id = $1)`, territoryID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("territory %s: %w", territoryID, port.ErrNotFound)
	}
	rows, err := s.pool.Query(ctx, `SELECT id, territory_id, person_id, issued_by_id, note, created_at
		FROM reminders WHERE territory_id = $1 ORDER BY created_at DESC`, territoryID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Reminder, error) {
		var r domain.Reminder
		err := row.Scan(&r.ID, &r.TerritoryID, &r.PersonID, &r.IssuedByID, &r.Note, &r.CreatedAt)
		return r, err
	})
}
