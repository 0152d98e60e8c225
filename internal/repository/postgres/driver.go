package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

const driverColumns = `id, COALESCE(name, ''), COALESCE(phone, ''), status, rating, rating_count, trip_count`

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`

	var driver domain.Driver
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&driver.ID,
		&driver.Name,
		&driver.Phone,
		&driver.Status,
		&driver.Rating,
		&driver.RatingCount,
		&driver.TripCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	visits, err := r.provinceVisits(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	driver.ProvinceVisits = visits[id]

	return &driver, nil
}

// GetByIDs retrieves the drivers with the given IDs.
func (r *DriverRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Driver, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = ANY($1)`
	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		var driver domain.Driver
		if err := rows.Scan(
			&driver.ID,
			&driver.Name,
			&driver.Phone,
			&driver.Status,
			&driver.Rating,
			&driver.RatingCount,
			&driver.TripCount,
		); err != nil {
			return nil, err
		}
		drivers = append(drivers, &driver)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	visits, err := r.provinceVisits(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, d := range drivers {
		d.ProvinceVisits = visits[d.ID]
	}
	return drivers, nil
}

func (r *DriverRepository) provinceVisits(ctx context.Context, ids []string) (map[string]map[string]int, error) {
	query := `SELECT driver_id, province, visits FROM driver_province_visits WHERE driver_id = ANY($1)`
	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]map[string]int)
	for rows.Next() {
		var driverID, province string
		var visits int
		if err := rows.Scan(&driverID, &province, &visits); err != nil {
			return nil, err
		}
		if out[driverID] == nil {
			out[driverID] = make(map[string]int)
		}
		out[driverID][province] = visits
	}
	return out, rows.Err()
}

// UpdateStatus updates the availability of a driver.
func (r *DriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	query := `UPDATE drivers SET status = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrNotFound)
}

// RecordCompletedTrip increments experience and the province visit count.
func (r *DriverRepository) RecordCompletedTrip(ctx context.Context, id string, province string) error {
	result, err := r.q.ExecContext(ctx, `UPDATE drivers SET trip_count = trip_count + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if err := expectOneRow(result, repository.ErrNotFound); err != nil {
		return err
	}
	if province == "" {
		return nil
	}

	query := `
		INSERT INTO driver_province_visits (driver_id, province, visits) VALUES ($1, $2, 1)
		ON CONFLICT (driver_id, province) DO UPDATE SET visits = driver_province_visits.visits + 1
	`
	_, err = r.q.ExecContext(ctx, query, id, province)
	return err
}

// AddRating folds a new star score into the driver's average.
func (r *DriverRepository) AddRating(ctx context.Context, id string, stars int) error {
	query := `
		UPDATE drivers
		SET rating = (rating * rating_count + $1) / (rating_count + 1), rating_count = rating_count + 1
		WHERE id = $2
	`
	result, err := r.q.ExecContext(ctx, query, stars, id)
	if err != nil {
		return err
	}
	return expectOneRow(result, repository.ErrNotFound)
}

// Ensure DriverRepository implements repository.DriverRepository.
var _ repository.DriverRepository = (*DriverRepository)(nil)
