package postgres

import (
	"context"
	"database/sql"
	"errors"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `
	id, customer_id, COALESCE(driver_id, ''), COALESCE(vehicle_id, ''),
	pickup_lat, pickup_lng, COALESCE(pickup_address, ''), COALESCE(pickup_province, ''),
	dropoff_lat, dropoff_lng, COALESCE(dropoff_address, ''), COALESCE(dropoff_province, ''),
	kind, start_date, end_date, distance_km, base_price, price,
	COALESCE(promo_code, ''), discount_amount, status, COALESCE(notes, ''),
	COALESCE(reject_reason, ''), version, created_at, updated_at`

// activeOverlap matches active trips holding a resource during [$lo, $hi].
// A trip in progress, or an instant trip with no end date, holds its
// resources until it leaves the active statuses.
const activeOverlap = `
	status IN ('PENDING', 'ACCEPTED', 'PROCESSING')
	AND start_date <= $hi
	AND (status = 'PROCESSING'
		OR (kind = 'INSTANT' AND end_date IS NULL)
		OR COALESCE(end_date, start_date) >= $lo)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var endDate sql.NullTime

	err := row.Scan(
		&trip.ID,
		&trip.CustomerID,
		&trip.DriverID,
		&trip.VehicleID,
		&trip.Pickup.Lat,
		&trip.Pickup.Lng,
		&trip.Pickup.Address,
		&trip.Pickup.Province,
		&trip.Dropoff.Lat,
		&trip.Dropoff.Lng,
		&trip.Dropoff.Address,
		&trip.Dropoff.Province,
		&trip.Kind,
		&trip.StartDate,
		&endDate,
		&trip.DistanceKm,
		&trip.BasePrice,
		&trip.Price,
		&trip.PromoCode,
		&trip.DiscountAmount,
		&trip.Status,
		&trip.Notes,
		&trip.RejectReason,
		&trip.Version,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endDate.Valid {
		trip.EndDate = endDate.Time
	}
	return &trip, nil
}

// Create persists a new trip together with its assignments.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (
			id, customer_id, driver_id, vehicle_id,
			pickup_lat, pickup_lng, pickup_address, pickup_province,
			dropoff_lat, dropoff_lng, dropoff_address, dropoff_province,
			kind, start_date, end_date, distance_km, base_price, price,
			promo_code, discount_amount, status, notes, reject_reason,
			version, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.CustomerID,
		nullString(trip.DriverID),
		nullString(trip.VehicleID),
		trip.Pickup.Lat,
		trip.Pickup.Lng,
		trip.Pickup.Address,
		trip.Pickup.Province,
		trip.Dropoff.Lat,
		trip.Dropoff.Lng,
		trip.Dropoff.Address,
		trip.Dropoff.Province,
		trip.Kind,
		trip.StartDate,
		nullTime(trip.EndDate),
		trip.DistanceKm,
		trip.BasePrice,
		trip.Price,
		nullString(trip.PromoCode),
		trip.DiscountAmount,
		trip.Status,
		trip.Notes,
		trip.RejectReason,
		trip.Version,
		trip.CreatedAt,
		trip.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	return r.saveAssignments(ctx, trip)
}

// GetByID retrieves a trip by ID, including its assignment history.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	trip.Assignments, err = r.loadAssignments(ctx, trip.ID)
	if err != nil {
		return nil, err
	}
	return trip, nil
}

// ListByCustomer retrieves a customer's trips, newest first.
func (r *TripRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE customer_id = $1 ORDER BY created_at DESC LIMIT 100`
	return r.list(ctx, query, customerID)
}

// ListByDriver retrieves the trips currently or previously assigned to a driver.
func (r *TripRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + ` FROM trips
		WHERE id IN (SELECT trip_id FROM trip_assignments WHERE driver_id = $1)
		ORDER BY start_date DESC LIMIT 100`
	return r.list(ctx, query, driverID)
}

func (r *TripRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Trip, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// Update stores trip if its persisted version equals expectedVersion.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip, expectedVersion int) error {
	query := `
		UPDATE trips
		SET driver_id = $1, vehicle_id = $2, distance_km = $3, base_price = $4, price = $5,
			promo_code = $6, discount_amount = $7, status = $8, notes = $9, reject_reason = $10,
			end_date = $11, version = version + 1, updated_at = $12
		WHERE id = $13 AND version = $14
	`

	result, err := r.q.ExecContext(ctx, query,
		nullString(trip.DriverID),
		nullString(trip.VehicleID),
		trip.DistanceKm,
		trip.BasePrice,
		trip.Price,
		nullString(trip.PromoCode),
		trip.DiscountAmount,
		trip.Status,
		trip.Notes,
		trip.RejectReason,
		nullTime(trip.EndDate),
		trip.UpdatedAt,
		trip.ID,
		expectedVersion,
	)
	if err != nil {
		return err
	}
	if err := expectOneRow(result, repository.ErrVersionConflict); err != nil {
		return err
	}

	trip.Version = expectedVersion + 1
	return r.saveAssignments(ctx, trip)
}

func (r *TripRepository) saveAssignments(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trip_assignments (trip_id, seq, driver_id, vehicle_id, status, reason, assigned_at, closed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (trip_id, seq) DO UPDATE
		SET status = EXCLUDED.status, reason = EXCLUDED.reason, closed_at = EXCLUDED.closed_at
	`
	for _, a := range trip.Assignments {
		if _, err := r.q.ExecContext(ctx, query,
			trip.ID,
			a.Seq,
			a.DriverID,
			nullString(a.VehicleID),
			a.Status,
			a.Reason,
			a.AssignedAt,
			nullTime(a.ClosedAt),
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *TripRepository) loadAssignments(ctx context.Context, tripID string) ([]domain.Assignment, error) {
	query := `
		SELECT seq, driver_id, COALESCE(vehicle_id, ''), status, COALESCE(reason, ''), assigned_at, closed_at
		FROM trip_assignments WHERE trip_id = $1 ORDER BY seq
	`
	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		var closedAt sql.NullTime
		if err := rows.Scan(&a.Seq, &a.DriverID, &a.VehicleID, &a.Status, &a.Reason, &a.AssignedAt, &closedAt); err != nil {
			return nil, err
		}
		if closedAt.Valid {
			a.ClosedAt = closedAt.Time
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DriverHasConflict reports whether another active trip holds driverID during w.
func (r *TripRepository) DriverHasConflict(ctx context.Context, driverID string, w domain.TimeWindow, excludeTripID string) (bool, error) {
	return r.hasConflict(ctx, "driver_id", driverID, w, excludeTripID)
}

// VehicleHasConflict reports whether another active trip holds vehicleID during w.
func (r *TripRepository) VehicleHasConflict(ctx context.Context, vehicleID string, w domain.TimeWindow, excludeTripID string) (bool, error) {
	return r.hasConflict(ctx, "vehicle_id", vehicleID, w, excludeTripID)
}

func (r *TripRepository) hasConflict(ctx context.Context, column, id string, w domain.TimeWindow, excludeTripID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM trips WHERE ` + column + ` = $1 AND id <> $2 AND ` +
		bind(activeOverlap, "$3", "$4") + `)`

	var exists bool
	err := r.q.QueryRowContext(ctx, query, id, excludeTripID, w.Start, w.End).Scan(&exists)
	return exists, err
}

// BusyDriverIDs returns the drivers held by an active trip during w.
func (r *TripRepository) BusyDriverIDs(ctx context.Context, w domain.TimeWindow) (map[string]bool, error) {
	return r.busy(ctx, "driver_id", w)
}

// BusyVehicleIDs returns the vehicles held by an active trip during w.
func (r *TripRepository) BusyVehicleIDs(ctx context.Context, w domain.TimeWindow) (map[string]bool, error) {
	return r.busy(ctx, "vehicle_id", w)
}

func (r *TripRepository) busy(ctx context.Context, column string, w domain.TimeWindow) (map[string]bool, error) {
	query := `SELECT DISTINCT ` + column + ` FROM trips WHERE ` + column + ` IS NOT NULL AND ` +
		bind(activeOverlap, "$1", "$2")

	rows, err := r.q.QueryContext(ctx, query, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	busy := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		busy[id] = true
	}
	return busy, rows.Err()
}

// AppendEvent adds an entry to the trip's transition log.
func (r *TripRepository) AppendEvent(ctx context.Context, event *domain.TripEvent) error {
	query := `
		INSERT INTO trip_events (trip_id, from_status, to_status, actor_id, actor_role, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return r.q.QueryRowContext(ctx, query,
		event.TripID,
		nullString(string(event.From)),
		event.To,
		event.ActorID,
		event.ActorRole,
		event.Reason,
		event.CreatedAt,
	).Scan(&event.ID)
}

// ListEvents returns the transition log of a trip in order.
func (r *TripRepository) ListEvents(ctx context.Context, tripID string) ([]*domain.TripEvent, error) {
	query := `
		SELECT id, trip_id, COALESCE(from_status, ''), to_status, actor_id, actor_role, COALESCE(reason, ''), created_at
		FROM trip_events WHERE trip_id = $1 ORDER BY id
	`
	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.TripEvent
	for rows.Next() {
		var e domain.TripEvent
		if err := rows.Scan(&e.ID, &e.TripID, &e.From, &e.To, &e.ActorID, &e.ActorRole, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
