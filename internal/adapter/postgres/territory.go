package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"terrafield/internal/core/domain"
	"terrafield/internal/core/port"
)

const territoryColumns = `id, name, city_id, status, last_visited_on, note, geometry, active_assignment_id, created_at, updated_at`

func scanTerritory(row pgx.Row) (domain.Territory, error) {
	var t domain.Territory
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.CityID,
		&t.Status,
		&t.LastVisitedOn,
		&t.Note,
		&t.Geometry,
		&t.ActiveAssignmentID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	return t, err
}

const assignmentColumns = `id, territory_id, person_id, campaign_id, assignment_date, due_date, return_date, created_at`

func scanAssignment(row pgx.Row) (domain.Assignment, error) {
	var (
		a          domain.Assignment
		personID   *uuid.UUID
		campaignID *uuid.UUID
	)
	err := row.Scan(
		&a.ID,
		&a.TerritoryID,
		&personID,
		&campaignID,
		&a.AssignmentDate,
		&a.DueDate,
		&a.ReturnDate,
		&a.CreatedAt,
	)
	if err != nil {
		return a, err
	}
	switch {
	case personID != nil:
		a.Holder = domain.PersonHolder(*personID)
	case campaignID != nil:
		a.Holder = domain.CampaignHolder(*campaignID)
	}
	return a, nil
}

func (s *Store) SnapshotTerritory(ctx context.Context, id uuid.UUID) (_ *domain.Territory, _ *domain.Assignment, err error) {
	tx, done, err := s.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer done(&err)

	t, err := scanTerritory(tx.QueryRow(ctx,
		`SELECT `+territoryColumns+` FROM territories WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("territory %s: %w", id, port.ErrNotFound)
		return nil, nil, err
	}
	if err != nil {
		return nil, nil, err
	}
	a, err := scanAssignment(tx.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE territory_id = $1 AND return_date IS NULL`,
		id))
	if errors.Is(err, pgx.ErrNoRows) {
		err = nil
		return &t, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &t, &a, nil
}

func (s *Store) SnapshotTerritories(ctx context.Context) (_ *port.TerritorySnapshot, err error) {
	tx, done, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer done(&err)

	rows, err := tx.Query(ctx, `SELECT `+territoryColumns+` FROM territories`)
	if err != nil {
		return nil, err
	}
	territories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Territory, error) {
		return scanTerritory(row)
	})
	if err != nil {
		return nil, err
	}
	rows, err = tx.Query(ctx, `SELECT `+assignmentColumns+` FROM assignments WHERE return_date IS NULL`)
	if err != nil {
		return nil, err
	}
	actives, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Assignment, error) {
		return scanAssignment(row)
	})
	if err != nil {
		return nil, err
	}
	rows, err = tx.Query(ctx, `SELECT id, name, created_at FROM cities`)
	if err != nil {
		return nil, err
	}
	cities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.City, error) {
		var c domain.City
		err := row.Scan(&c.ID, &c.Name, &c.CreatedAt)
		return c, err
	})
	if err != nil {
		return nil, err
	}
	snap := port.TerritorySnapshot{
		Territories: territories,
		Active:      make(map[uuid.UUID]domain.Assignment, len(actives)),
		Cities:      cities,
	}
	for _, a := range actives {
		snap.Active[a.TerritoryID] = a
	}
	return &snap, nil
}

func (s *Store) CreateTerritory(ctx context.Context, t domain.Territory) error {
	var cityExists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM cities WHERE id = $1)`, t.CityID).Scan(&cityExists); err != nil {
		return err
	}
	if !cityExists {
		return fmt.Errorf("city %s: %w", t.CityID, port.ErrNotFound)
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO territories
		(id, name, city_id, status, last_visited_on, note, geometry, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		t.ID, t.Name, t.CityID, t.Status, t.LastVisitedOn, t.Note, t.Geometry, t.CreatedAt, t.UpdatedAt)
	return err
}

func (s *Store) UpdateTerritory(ctx context.Context, id uuid.UUID, upd domain.TerritoryUpdate) (_ *domain.Territory, err error) {
	tx, done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done(&err)

	if _, err = lockTerritory(ctx, tx, id); err != nil {
		return nil, err
	}
	if upd.CityID != nil {
		var cityExists bool
		if err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM cities WHERE id = $1)`, *upd.CityID).Scan(&cityExists); err != nil {
			return nil, err
		}
		if !cityExists {
			err = fmt.Errorf("city %s: %w", *upd.CityID, port.ErrNotFound)
			return nil, err
		}
	}
	t, err := scanTerritory(tx.QueryRow(ctx, `UPDATE territories SET
			name = COALESCE($2, name),
			city_id = COALESCE($3, city_id),
			note = COALESCE($4, note),
			geometry = COALESCE($5, geometry),
			updated_at = now()
		WHERE id = $1
		RETURNING `+territoryColumns, id, upd.Name, upd.CityID, upd.Note, upd.Geometry))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) DeleteTerritory(ctx context.Context, id uuid.UUID) (err error) {
	tx, done, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer done(&err)

	if _, err = lockTerritory(ctx, tx, id); err != nil {
		return err
	}
	var held bool
	if err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM assignments WHERE territory_id = $1 AND return_date IS NULL)`,
		id).Scan(&held); err != nil {
		return err
	}
	if held {
		err = fmt.Errorf("territory %s is held: %w", id, port.ErrConflict)
		return err
	}
	_, err = tx.Exec(ctx, `DELETE FROM territories WHERE id = $1`, id)
	return err
}

func (s *Store) Assignments(ctx context.Context, territoryID uuid.UUID) ([]domain.Assignment, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM territories WHERE id = $1)`, territoryID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("territory %s: %w", territoryID, port.ErrNotFound)
	}
	rows, err := s.pool.Query(ctx, `SELECT `+assignmentColumns+`
		FROM assignments WHERE territory_id = $1
		ORDER BY assignment_date DESC, seq DESC`, territoryID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Assignment, error) {
		return scanAssignment(row)
	})
}

func (s *Store) AssignTerritory(ctx context.Context, territoryID, personID uuid.UUID, dueDate *time.Time, today time.Time) (_ *domain.Assignment, err error) {
	tx, done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done(&err)

	status, err := lockTerritory(ctx, tx, territoryID)
	if err != nil {
		return nil, err
	}
	var held bool
	if err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM assignments WHERE territory_id = $1 AND return_date IS NULL)`,
		territoryID).Scan(&held); err != nil {
		return nil, err
	}
	if held {
		err = fmt.Errorf("territory %s already assigned: %w", territoryID, port.ErrConflict)
		return nil, err
	}
	if !status.CanAssign() {
		err = fmt.Errorf("assign from %s: %w", status, port.ErrInvalidTransition)
		return nil, err
	}

	a := domain.Assignment{
		ID:             uuid.New(),
		TerritoryID:    territoryID,
		Holder:         domain.PersonHolder(personID),
		AssignmentDate: domain.Midnight(today),
	}
	if dueDate != nil {
		d := domain.Midnight(*dueDate)
		a.DueDate = &d
	}
	if err = tx.QueryRow(ctx, `INSERT INTO assignments
			(id, territory_id, person_id, assignment_date, due_date)
			VALUES ($1,$2,$3,$4,$5) RETURNING created_at`,
		a.ID, a.TerritoryID, personID, a.AssignmentDate, a.DueDate).Scan(&a.CreatedAt); err != nil {
		return nil, err
	}
	if _, err = tx.Exec(ctx, `UPDATE territories
			SET status = $2, active_assignment_id = $3, updated_at = now()
			WHERE id = $1`,
		territoryID, domain.StatusAssigned, a.ID); err != nil {
		return nil, err
	}
	return &a, nil
}

// closeActive closes the open assignment inside one transaction and
// moves the territory to next; visited stamps last_visited_on.
func (s *Store) closeActive(ctx context.Context, territoryID uuid.UUID, today time.Time, next domain.Status, visited bool) (_ *domain.Assignment, err error) {
	tx, done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done(&err)

	if _, err = lockTerritory(ctx, tx, territoryID); err != nil {
		return nil, err
	}
	returned := domain.Midnight(today)
	a, err := scanAssignment(tx.QueryRow(ctx, `UPDATE assignments SET return_date = $2
			WHERE territory_id = $1 AND return_date IS NULL
			RETURNING `+assignmentColumns, territoryID, returned))
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("territory %s: %w", territoryID, port.ErrNoActiveAssignment)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if visited {
		_, err = tx.Exec(ctx, `UPDATE territories
				SET status = $2, active_assignment_id = NULL, last_visited_on = $3, updated_at = now()
				WHERE id = $1`,
			territoryID, next, returned.Format(domain.DateLayout))
	} else {
		_, err = tx.Exec(ctx, `UPDATE territories
				SET status = $2, active_assignment_id = NULL, updated_at = now()
				WHERE id = $1`,
			territoryID, next)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) ReturnTerritory(ctx context.Context, territoryID uuid.UUID, today time.Time) (*domain.Assignment, error) {
	return s.closeActive(ctx, territoryID, today, domain.StatusPending, true)
}

func (s *Store) CancelTerritory(ctx context.Context, territoryID uuid.UUID, today time.Time) (*domain.Assignment, error) {
	return s.closeActive(ctx, territoryID, today, domain.StatusAvailable, false)
}

func (s *Store) ExtendTerritory(ctx context.Context, territoryID uuid.UUID, newDue time.Time) (_ *domain.Assignment, err error) {
	tx, done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done(&err)

	if _, err = lockTerritory(ctx, tx, territoryID); err != nil {
		return nil, err
	}
	a, err := scanAssignment(tx.QueryRow(ctx, `UPDATE assignments SET due_date = $2
			WHERE territory_id = $1 AND return_date IS NULL
			RETURNING `+assignmentColumns, territoryID, domain.Midnight(newDue)))
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("territory %s: %w", territoryID, port.ErrNoActiveAssignment)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) ReclassifyPending(ctx context.Context, territoryID uuid.UUID) (_ *domain.Territory, err error) {
	tx, done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done(&err)

	status, err := lockTerritory(ctx, tx, territoryID)
	if err != nil {
		return nil, err
	}
	if status != domain.StatusPending {
		err = fmt.Errorf("reclassify from %s: %w", status, port.ErrInvalidTransition)
		return nil, err
	}
	t, err := scanTerritory(tx.QueryRow(ctx, `UPDATE territories
			SET status = $2, updated_at = now()
			WHERE id = $1
			RETURNING `+territoryColumns, territoryID, domain.StatusAvailable))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateCity(ctx context.Context, c domain.City) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cities (id, name, created_at) VALUES ($1,$2,$3)`,
		c.ID, c.Name, c.CreatedAt)
	var pgErr *pgconn.PgError
	// 23505 is unique_violation; the only unique constraint on cities is
	// the name.
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("city %q: %w", c.Name, port.ErrConflict)
	}
	return err
}

func (s *Store) ListCities(ctx context.Context) ([]domain.City, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, created_at FROM cities`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.City, error) {
		var c domain.City
		err := row.Scan(&c.ID, &c.Name, &c.CreatedAt)
		return c, err
	})
}
