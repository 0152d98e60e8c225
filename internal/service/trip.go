package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/redis"
	"tripdispatch/internal/repository"
)

const assignmentLockTTL = 10 * time.Second

// TripService handles the trip lifecycle.
type TripService struct {
	tripRepo     repository.TripRepository
	vehicleRepo  repository.VehicleRepository
	tx           repository.Transactor
	lockStore    redis.LockStoreInterface
	pricing      *PricingService
	notification *NotificationService
	geocoder     Geocoder
	logger       *zap.Logger
	now          Clock
}

// NewTripService creates a new TripService. lockStore may be nil.
func NewTripService(
	tripRepo repository.TripRepository,
	vehicleRepo repository.VehicleRepository,
	tx repository.Transactor,
	lockStore redis.LockStoreInterface,
	pricing *PricingService,
	notification *NotificationService,
	logger *zap.Logger,
) *TripService {
	return &TripService{
		tripRepo:     tripRepo,
		vehicleRepo:  vehicleRepo,
		tx:           tx,
		lockStore:    lockStore,
		pricing:      pricing,
		notification: notification,
		logger:       logger,
		now:          systemClock,
	}
}

// SetClock replaces the time source.
func (s *TripService) SetClock(c Clock) {
	s.now = c
}

// SetGeocoder enables address and province lookup for pickups created
// from bare coordinates.
func (s *TripService) SetGeocoder(g Geocoder) {
	s.geocoder = g
}

// CreateTripRequest contains the parameters for booking a trip.
type CreateTripRequest struct {
	CustomerID string // Defaults to the calling customer.
	Pickup     *domain.Point
	Dropoff    *domain.Point
	Kind       domain.TripKind // Defaults to INSTANT.
	StartDate  time.Time       // Ignored for instant trips.
	EndDate    time.Time
	DriverID   string // Optional: the trip stays unassigned until AssignDriver.
	VehicleID  string
	PromoCode  string
	DistanceKm *float64 // Optional manual distance when routing is unavailable.
	Notes      string
}

// CreateTrip validates, prices and persists a new PENDING trip. Driver and
// vehicle availability and promo usage are committed atomically.
func (s *TripService) CreateTrip(ctx context.Context, actor domain.Actor, req CreateTripRequest) (*domain.Trip, error) {
	customerID := req.CustomerID
	if customerID == "" && actor.Role == domain.RoleCustomer {
		customerID = actor.ID
	}
	if err := domain.CheckCreate(actor, customerID); err != nil {
		return nil, err
	}
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}

	if req.Pickup == nil {
		return nil, ErrPickupRequired
	}
	if req.Dropoff == nil {
		return nil, domain.NewError(domain.KindValidation, "dropoff point is required")
	}
	if !req.Pickup.Valid() || !req.Dropoff.Valid() {
		return nil, ErrInvalidLocation
	}
	if req.VehicleID == "" {
		return nil, ErrVehicleRequired
	}

	kind := req.Kind
	if kind == "" {
		kind = domain.TripKindInstant
	}
	now := s.now()
	start := req.StartDate
	if kind == domain.TripKindInstant {
		start = now
	}
	if err := domain.ValidateSchedule(kind, start, req.EndDate, now); err != nil {
		return nil, err
	}
	pickup := resolveAddress(ctx, s.geocoder, s.logger, *req.Pickup)
	dropoff := resolveAddress(ctx, s.geocoder, s.logger, *req.Dropoff)

	vehicle, err := s.vehicleRepo.GetByID(ctx, req.VehicleID)
	if err != nil {
		return nil, err
	}

	quote, err := s.pricing.Quote(ctx, QuoteRequest{
		Pickup:     pickup,
		Dropoff:    dropoff,
		Vehicle:    vehicle,
		DistanceKm: req.DistanceKm,
	})
	if err != nil {
		return nil, err
	}

	trip := &domain.Trip{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		VehicleID:  vehicle.ID,
		Pickup:     pickup,
		Dropoff:    dropoff,
		Kind:       kind,
		StartDate:  start,
		EndDate:    req.EndDate,
		DistanceKm: quote.DistanceKm,
		BasePrice:  quote.BasePrice,
		Price:      quote.BasePrice,
		Status:     domain.TripStatusPending,
		Notes:      req.Notes,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.DriverID != "" {
		trip.Assign(req.DriverID, vehicle.ID, now)
	}

	release, err := s.holdAssignmentLocks(ctx, req.DriverID, vehicle.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	event := &domain.TripEvent{
		TripID:    trip.ID,
		To:        domain.TripStatusPending,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		CreatedAt: now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		if err := reserve(ctx, st, trip.ID, req.DriverID, vehicle.ID, trip.Window(now)); err != nil {
			return err
		}

		if req.PromoCode != "" {
			applied, err := consumePromo(ctx, st.Promotions(), req.PromoCode, trip.BasePrice, s.now)
			if err != nil {
				return err
			}
			trip.PromoCode = applied.Code
			trip.DiscountAmount = applied.DiscountAmount
			trip.Price = applied.NewTotal
		}

		if err := st.Trips().Create(ctx, trip); err != nil {
			return err
		}
		return st.Trips().AppendEvent(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("trip created",
		zap.String("trip_id", trip.ID),
		zap.String("customer_id", trip.CustomerID),
		zap.String("driver_id", trip.DriverID),
		zap.String("kind", string(trip.Kind)),
		zap.Float64("price", trip.Price),
	)
	s.notification.NotifyTripEvent(ctx, trip, event)

	return trip, nil
}

// AssignDriverRequest contains the parameters for attaching a driver to a
// PENDING trip that has none.
type AssignDriverRequest struct {
	TripID    string
	DriverID  string
	VehicleID string // Optional: keeps the trip's vehicle when empty.
}

// AssignDriver attaches a driver to an unassigned PENDING trip.
func (s *TripService) AssignDriver(ctx context.Context, actor domain.Actor, req AssignDriverRequest) (*domain.Trip, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != domain.TripStatusPending {
		return nil, domain.Errorf(domain.KindIllegalTransition, "cannot assign a driver to a %s trip", trip.Status)
	}
	if trip.DriverID != "" {
		return nil, ErrDriverAlreadyAssigned
	}
	switch {
	case actor.Role == domain.RoleAdmin:
	case actor.Role == domain.RoleCustomer && actor.ID == trip.CustomerID:
	default:
		return nil, domain.NewError(domain.KindIllegalTransition, "only the trip's customer or an admin can assign a driver")
	}

	return s.assign(ctx, actor, trip, req.DriverID, req.VehicleID, "driver assigned")
}

// assign reserves driverID (and optionally a new vehicle) for trip and moves
// it to PENDING under that assignment.
func (s *TripService) assign(ctx context.Context, actor domain.Actor, trip *domain.Trip, driverID, vehicleID, reason string) (*domain.Trip, error) {
	now := s.now()
	updated := trip.Clone()
	updated.Assign(driverID, vehicleID, now)
	updated.Status = domain.TripStatusPending
	updated.RejectReason = ""
	updated.UpdatedAt = now

	release, err := s.holdAssignmentLocks(ctx, driverID, updated.VehicleID)
	if err != nil {
		return nil, err
	}
	defer release()

	event := &domain.TripEvent{
		TripID:    trip.ID,
		From:      trip.Status,
		To:        domain.TripStatusPending,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Reason:    reason,
		CreatedAt: now,
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		vehicleForCheck := ""
		if updated.VehicleID != trip.VehicleID {
			vehicleForCheck = updated.VehicleID
		}
		if err := reserve(ctx, st, trip.ID, driverID, vehicleForCheck, updated.Window(now)); err != nil {
			return err
		}
		if err := s.save(ctx, st, updated, trip.Version); err != nil {
			return err
		}
		return st.Trips().AppendEvent(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("driver assigned",
		zap.String("trip_id", trip.ID),
		zap.String("driver_id", driverID),
		zap.String("from", string(trip.Status)),
	)
	s.notification.NotifyTripEvent(ctx, updated, event)

	return updated, nil
}

// Accept is the driver's acceptance. Trips with an end date move to
// ACCEPTED; trips without one start immediately.
func (s *TripService) Accept(ctx context.Context, actor domain.Actor, tripID string) (*domain.Trip, error) {
	trip, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	to := domain.TripStatusProcessing
	if trip.HasEndDate() {
		to = domain.TripStatusAccepted
	}
	return s.transition(ctx, actor, trip, to, "", nil)
}

// Start moves an ACCEPTED trip to PROCESSING once its start date has passed.
func (s *TripService) Start(ctx context.Context, actor domain.Actor, tripID string) (*domain.Trip, error) {
	trip, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, trip, domain.TripStatusProcessing, "", nil)
}

// Reject is the assigned driver declining a PENDING trip.
func (s *TripService) Reject(ctx context.Context, actor domain.Actor, tripID, reason string) (*domain.Trip, error) {
	trip, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, trip, domain.TripStatusRejected, reason,
		func(_ context.Context, _ repository.Store, t *domain.Trip) error {
			t.RejectReason = reason
			if a, ok := t.ActiveAssignment(); ok {
				a.Status = domain.AssignmentRejected
				a.Reason = reason
				a.ClosedAt = t.UpdatedAt
			}
			return nil
		})
}

// Complete finishes a PROCESSING trip and credits the driver's experience.
func (s *TripService) Complete(ctx context.Context, actor domain.Actor, tripID string) (*domain.Trip, error) {
	trip, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, trip, domain.TripStatusCompleted, "",
		func(ctx context.Context, st repository.Store, t *domain.Trip) error {
			return st.Drivers().RecordCompletedTrip(ctx, t.DriverID, t.Pickup.Province)
		})
}

// Cancel cancels a trip. Who may cancel depends on the trip's status.
func (s *TripService) Cancel(ctx context.Context, actor domain.Actor, tripID, reason string) (*domain.Trip, error) {
	trip, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, trip, domain.TripStatusCancelled, reason, closeAssignment)
}

// MarkPaid settles a COMPLETED trip on behalf of the payment subsystem.
func (s *TripService) MarkPaid(ctx context.Context, tripID, paymentID string) (*domain.Trip, error) {
	trip, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, domain.SystemActor, trip, domain.TripStatusPaid, "payment "+paymentID, closeAssignment)
}

func closeAssignment(_ context.Context, _ repository.Store, t *domain.Trip) error {
	if a, ok := t.ActiveAssignment(); ok {
		a.Status = domain.AssignmentClosed
		a.ClosedAt = t.UpdatedAt
	}
	return nil
}

type mutation func(ctx context.Context, st repository.Store, t *domain.Trip) error

// transition checks and applies a status change in one transaction and
// records it in the trip's event log. trip itself is never modified.
func (s *TripService) transition(ctx context.Context, actor domain.Actor, trip *domain.Trip, to domain.TripStatus, reason string, mutate mutation) (*domain.Trip, error) {
	now := s.now()
	if err := domain.CheckTransition(trip, actor, to, now); err != nil {
		return nil, err
	}

	updated := trip.Clone()
	updated.Status = to
	updated.UpdatedAt = now

	event := &domain.TripEvent{
		TripID:    trip.ID,
		From:      trip.Status,
		To:        to,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Reason:    reason,
		CreatedAt: now,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		if mutate != nil {
			if err := mutate(ctx, st, updated); err != nil {
				return err
			}
		}
		if err := s.save(ctx, st, updated, trip.Version); err != nil {
			return err
		}
		return st.Trips().AppendEvent(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("trip transitioned",
		zap.String("trip_id", trip.ID),
		zap.String("from", string(trip.Status)),
		zap.String("to", string(to)),
		zap.String("actor_id", actor.ID),
		zap.String("actor_role", string(actor.Role)),
	)
	s.notification.NotifyTripEvent(ctx, updated, event)

	return updated, nil
}

func (s *TripService) save(ctx context.Context, st repository.Store, trip *domain.Trip, expectedVersion int) error {
	if err := st.Trips().Update(ctx, trip, expectedVersion); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return ErrConcurrentUpdate
		}
		return err
	}
	return nil
}

// reserve locks driverID and vehicleID for the rest of the transaction and
// verifies that neither is held by another active trip during w. Empty IDs
// are skipped. Locks are always taken driver first.
func reserve(ctx context.Context, st repository.Store, tripID, driverID, vehicleID string, w domain.TimeWindow) error {
	if driverID != "" {
		if err := st.Lock(ctx, redis.DriverLockKey(driverID)); err != nil {
			return err
		}
		driver, err := st.Drivers().GetByID(ctx, driverID)
		if err != nil {
			return err
		}
		if !driver.Available() {
			return domain.Errorf(domain.KindDriverUnavailable, "driver %s is offline", driverID)
		}
		busy, err := st.Trips().DriverHasConflict(ctx, driverID, w, tripID)
		if err != nil {
			return err
		}
		if busy {
			return domain.Errorf(domain.KindDriverUnavailable, "driver %s already has a trip in this window", driverID)
		}
	}

	if vehicleID != "" {
		if err := st.Lock(ctx, redis.VehicleLockKey(vehicleID)); err != nil {
			return err
		}
		vehicle, err := st.Vehicles().GetByID(ctx, vehicleID)
		if err != nil {
			return err
		}
		if vehicle.InMaintenance(w) {
			return domain.Errorf(domain.KindVehicleUnavailable, "vehicle %s is in maintenance during this window", vehicleID)
		}
		busy, err := st.Trips().VehicleHasConflict(ctx, vehicleID, w, tripID)
		if err != nil {
			return err
		}
		if busy {
			return domain.Errorf(domain.KindVehicleUnavailable, "vehicle %s is already booked in this window", vehicleID)
		}
	}
	return nil
}

// holdAssignmentLocks takes the cross-instance Redis locks for a driver and
// vehicle. The returned release func is always safe to call.
func (s *TripService) holdAssignmentLocks(ctx context.Context, driverID, vehicleID string) (func(), error) {
	noop := func() {}
	if s.lockStore == nil {
		return noop, nil
	}

	type held struct{ key, token string }
	var locks []held
	release := func() {
		for _, l := range locks {
			if err := s.lockStore.Release(context.WithoutCancel(ctx), l.key, l.token); err != nil {
				s.logger.Warn("failed to release assignment lock", zap.String("key", l.key), zap.Error(err))
			}
		}
	}

	if driverID != "" {
		key := redis.DriverLockKey(driverID)
		token, err := s.lockStore.Acquire(ctx, key, assignmentLockTTL)
		if err != nil {
			return noop, err
		}
		if token == "" {
			return noop, domain.Errorf(domain.KindDriverUnavailable, "driver %s is being assigned by another request", driverID)
		}
		locks = append(locks, held{key, token})
	}

	if vehicleID != "" {
		key := redis.VehicleLockKey(vehicleID)
		token, err := s.lockStore.Acquire(ctx, key, assignmentLockTTL)
		if err != nil {
			release()
			return noop, err
		}
		if token == "" {
			release()
			return noop, domain.Errorf(domain.KindVehicleUnavailable, "vehicle %s is being assigned by another request", vehicleID)
		}
		locks = append(locks, held{key, token})
	}

	return release, nil
}

func (s *TripService) getTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	return s.tripRepo.GetByID(ctx, tripID)
}

// GetTrip retrieves a trip visible to actor.
func (s *TripService) GetTrip(ctx context.Context, actor domain.Actor, tripID string) (*domain.Trip, error) {
	trip, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, trip) {
		return nil, repository.ErrNotFound
	}
	return trip, nil
}

// ListTrips returns the caller's trips. Admins list a given customer's trips.
func (s *TripService) ListTrips(ctx context.Context, actor domain.Actor, customerID string) ([]*domain.Trip, error) {
	switch actor.Role {
	case domain.RoleCustomer:
		return s.tripRepo.ListByCustomer(ctx, actor.ID)
	case domain.RoleDriver:
		return s.tripRepo.ListByDriver(ctx, actor.ID)
	case domain.RoleAdmin:
		if customerID == "" {
			return nil, ErrInvalidCustomerID
		}
		return s.tripRepo.ListByCustomer(ctx, customerID)
	}
	return nil, domain.NewError(domain.KindValidation, "unknown role")
}

// ListEvents returns the transition log of a trip visible to actor.
func (s *TripService) ListEvents(ctx context.Context, actor domain.Actor, tripID string) ([]*domain.TripEvent, error) {
	if _, err := s.GetTrip(ctx, actor, tripID); err != nil {
		return nil, err
	}
	return s.tripRepo.ListEvents(ctx, tripID)
}

func canView(actor domain.Actor, trip *domain.Trip) bool {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleSystem:
		return true
	case domain.RoleCustomer:
		return trip.CustomerID == actor.ID
	case domain.RoleDriver:
		for _, a := range trip.Assignments {
			if a.DriverID == actor.ID {
				return true
			}
		}
	}
	return false
}
