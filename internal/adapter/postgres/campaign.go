package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"terrafield/internal/core/domain"
	"terrafield/internal/core/port"
)

const campaignColumns = `id, name, description, start_date, end_date, closed, created_at, updated_at`

func scanCampaign(row pgx.Row) (domain.Campaign, error) {
	var c domain.Campaign
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.StartDate,
		&c.EndDate,
		&c.Closed,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

// loadCampaignTerritories fills Territories and Remaining in
// reservation order. q is either the pool or a transaction.
func loadCampaignTerritories(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, c *domain.Campaign) error {
	rows, err := q.Query(ctx, `SELECT territory_id, remaining
		FROM campaign_territories WHERE campaign_id = $1 ORDER BY position`, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id        uuid.UUID
			remaining bool
		)
		if err := rows.Scan(&id, &remaining); err != nil {
			return err
		}
		c.Territories = append(c.Territories, id)
		if remaining {
			c.Remaining = append(c.Remaining, id)
		}
	}
	return rows.Err()
}

func (s *Store) GetCampaign(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	c, err := scanCampaign(s.pool.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("campaign %s: %w", id, port.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := loadCampaignTerritories(ctx, s.pool, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+campaignColumns+` FROM campaigns ORDER BY start_date DESC, created_at DESC`)
	if err != nil {
		return nil, err
	}
	campaigns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Campaign, error) {
		return scanCampaign(row)
	})
	if err != nil {
		return nil, err
	}
	for i := range campaigns {
		if err := loadCampaignTerritories(ctx, s.pool, &campaigns[i]); err != nil {
			return nil, err
		}
	}
	return campaigns, nil
}

func (s *Store) CreateCampaign(ctx context.Context, c domain.Campaign) (err error) {
	tx, done, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer done(&err)

	var known int
	if err = tx.QueryRow(ctx,
		`SELECT count(*) FROM territories WHERE id = ANY($1)`,
		c.Territories).Scan(&known); err != nil {
		return err
	}
	if known != len(c.Territories) {
		err = fmt.Errorf("campaign references unknown territories: %w", port.ErrNotFound)
		return err
	}
	if _, err = tx.Exec(ctx, `INSERT INTO campaigns
			(id, name, description, start_date, end_date, closed, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,false,$6,$7)`,
		c.ID, c.Name, c.Description, c.StartDate, c.EndDate, c.CreatedAt, c.UpdatedAt); err != nil {
		return err
	}
	remaining := make(map[uuid.UUID]struct{}, len(c.Remaining))
	for _, id := range c.Remaining {
		remaining[id] = struct{}{}
	}
	for i, id := range c.Territories {
		_, isRemaining := remaining[id]
		if _, err = tx.Exec(ctx, `INSERT INTO campaign_territories
				(campaign_id, territory_id, remaining, position)
				VALUES ($1,$2,$3,$4)`,
			c.ID, id, isRemaining, i); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) SetRemaining(ctx context.Context, id uuid.UUID, territoryIDs []uuid.UUID) (_ *domain.Campaign, err error) {
	tx, done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done(&err)

	c, err := scanCampaign(tx.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("campaign %s: %w", id, port.ErrNotFound)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if c.Closed {
		err = fmt.Errorf("campaign %s is closed: %w", id, port.ErrInvalidState)
		return nil, err
	}
	if err = loadCampaignTerritories(ctx, tx, &c); err != nil {
		return nil, err
	}
	for _, tid := range territoryIDs {
		if !c.Contains(tid) {
			err = fmt.Errorf("territory %s not in campaign: %w", tid, port.ErrInvalidArgument)
			return nil, err
		}
	}
	if _, err = tx.Exec(ctx, `UPDATE campaign_territories
			SET remaining = (territory_id = ANY($2))
			WHERE campaign_id = $1`, id, territoryIDs); err != nil {
		return nil, err
	}
	if _, err = tx.Exec(ctx,
		`UPDATE campaigns SET updated_at = now() WHERE id = $1`, id); err != nil {
		return nil, err
	}
	c.Territories, c.Remaining = nil, nil
	if err = loadCampaignTerritories(ctx, tx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CloseCampaign(ctx context.Context, id uuid.UUID, today time.Time) (_ *domain.Campaign, err error) {
	tx, done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done(&err)

	c, err := scanCampaign(tx.QueryRow(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("campaign %s: %w", id, port.ErrNotFound)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if c.Closed {
		err = fmt.Errorf("campaign %s already closed: %w", id, port.ErrInvalidState)
		return nil, err
	}
	if err = loadCampaignTerritories(ctx, tx, &c); err != nil {
		return nil, err
	}

	date := domain.Midnight(today)
	for _, tid := range c.Used() {
		if _, err = lockTerritory(ctx, tx, tid); err != nil {
			return nil, err
		}
		if _, err = tx.Exec(ctx, `INSERT INTO assignments
				(id, territory_id, campaign_id, assignment_date, return_date)
				VALUES ($1,$2,$3,$4,$4)`,
			uuid.New(), tid, id, date); err != nil {
			return nil, err
		}
		if _, err = tx.Exec(ctx, `UPDATE territories
				SET last_visited_on = $2, updated_at = now()
				WHERE id = $1`,
			tid, date.Format(domain.DateLayout)); err != nil {
			return nil, err
		}
	}
	if _, err = tx.Exec(ctx,
		`UPDATE campaigns SET closed = true, updated_at = now() WHERE id = $1`, id); err != nil {
		return nil, err
	}
	c.Closed = true
	return &c, nil
}

func (s *Store) DeleteCampaign(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("campaign %s: %w", id, port.ErrNotFound)
	}
	return nil
}
