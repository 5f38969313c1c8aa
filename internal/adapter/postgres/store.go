// Package postgres implements the persistence ports with pgx. Every
// mutating command runs in one transaction that locks the governing row
// FOR UPDATE before validating, so racing commands serialize and the
// loser fails with the deterministic sentinel instead of losing an
// update.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"terrafield/internal/core/domain"
	"terrafield/internal/core/port"
)

// Store implements port.Store using a pgxpool.Pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ port.Store = (*Store)(nil)

// NewStore returns a new postgres store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// begin opens a transaction; the caller finishes it through the
// returned done func, passing a pointer to its named error.
func (s *Store) begin(ctx context.Context) (pgx.Tx, func(*error), error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	done := func(errp *error) {
		if *errp != nil {
			_ = tx.Rollback(ctx)
			return
		}
		*errp = tx.Commit(ctx)
	}
	return tx, done, nil
}

// snapshot opens a read-only repeatable-read transaction so multi-query
// reads observe one consistent state.
func (s *Store) snapshot(ctx context.Context) (pgx.Tx, func(*error), error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, nil, err
	}
	done := func(errp *error) {
		if *errp != nil {
			_ = tx.Rollback(ctx)
			return
		}
		*errp = tx.Commit(ctx)
	}
	return tx, done, nil
}

// lockTerritory locks the territory row and returns its stored status.
func lockTerritory(ctx context.Context, tx pgx.Tx, id uuid.UUID) (domain.Status, error) {
	var status string
	err := tx.QueryRow(ctx, `SELECT status FROM territories WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("territory %s: %w", id, port.ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return domain.Status(status), nil
}
