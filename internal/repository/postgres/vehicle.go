package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/repository"
)

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
type VehicleRepository struct {
	q Querier
}

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

// GetByID retrieves a vehicle by ID, including maintenance windows.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	vehicles, err := r.GetByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(vehicles) == 0 {
		return nil, repository.ErrNotFound
	}
	return vehicles[0], nil
}

// GetByIDs retrieves the vehicles with the given IDs.
func (r *VehicleRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Vehicle, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, COALESCE(plate, ''), COALESCE(model, ''), category, rate_per_km, seats
		FROM vehicles WHERE id = ANY($1) ORDER BY id
	`
	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	byID := make(map[string]*domain.Vehicle)
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.Plate, &v.Model, &v.Category, &v.RatePerKm, &v.Seats); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, &v)
		byID[v.ID] = &v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	mrows, err := r.q.QueryContext(ctx,
		`SELECT vehicle_id, start_at, end_at FROM vehicle_maintenance WHERE vehicle_id = ANY($1) ORDER BY start_at`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	defer mrows.Close()

	for mrows.Next() {
		var vehicleID string
		var m domain.MaintenanceWindow
		if err := mrows.Scan(&vehicleID, &m.Start, &m.End); err != nil {
			return nil, err
		}
		if v, ok := byID[vehicleID]; ok {
			v.Maintenance = append(v.Maintenance, m)
		}
	}
	return vehicles, mrows.Err()
}

// Ensure VehicleRepository implements repository.VehicleRepository.
var _ repository.VehicleRepository = (*VehicleRepository)(nil)
