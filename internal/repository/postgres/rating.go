package postgres

import (
	"context"
	"database/sql"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/repository"
)

// RatingRepository is a PostgreSQL implementation of repository.RatingRepository.
type RatingRepository struct {
	q Querier
}

// NewRatingRepository creates a new PostgreSQL rating repository.
func NewRatingRepository(db *sql.DB) *RatingRepository {
	return &RatingRepository{q: db}
}

// Create persists a rating, relying on UNIQUE (trip_id, customer_id).
func (r *RatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	query := `
		INSERT INTO ratings (id, trip_id, driver_id, customer_id, stars, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		rating.ID,
		rating.TripID,
		rating.DriverID,
		rating.CustomerID,
		rating.Stars,
		rating.Comment,
		rating.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// Exists reports whether customerID has rated tripID.
func (r *RatingRepository) Exists(ctx context.Context, tripID, customerID string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM ratings WHERE trip_id = $1 AND customer_id = $2)`,
		tripID, customerID,
	).Scan(&exists)
	return exists, err
}

// RatedTripIDs returns the set of trips customerID has rated.
func (r *RatingRepository) RatedTripIDs(ctx context.Context, customerID string) (map[string]bool, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT trip_id FROM ratings WHERE customer_id = $1`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rated := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		rated[id] = true
	}
	return rated, rows.Err()
}

// Ensure RatingRepository implements repository.RatingRepository.
var _ repository.RatingRepository = (*RatingRepository)(nil)
