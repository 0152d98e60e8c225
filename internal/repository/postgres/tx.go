package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"tripdispatch/internal/repository"
)

// Transactor runs repository work inside a *sql.Tx.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a transactor over db.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx commits if fn returns nil and rolls back otherwise.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &txStore{tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txStore exposes transaction-scoped repositories.
type txStore struct {
	tx *sql.Tx
}

func (s *txStore) Trips() repository.TripRepository {
	return NewTripRepositoryWithTx(s.tx)
}

func (s *txStore) Drivers() repository.DriverRepository {
	return NewDriverRepositoryWithTx(s.tx)
}

func (s *txStore) Vehicles() repository.VehicleRepository {
	return &VehicleRepository{q: s.tx}
}

func (s *txStore) Promotions() repository.PromotionRepository {
	return &PromotionRepository{q: s.tx}
}

func (s *txStore) Ratings() repository.RatingRepository {
	return &RatingRepository{q: s.tx}
}

// Lock takes a transaction-scoped advisory lock on key.
func (s *txStore) Lock(ctx context.Context, key string) error {
	_, err := s.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
	return err
}

var _ repository.Transactor = (*Transactor)(nil)
