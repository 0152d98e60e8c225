package service

import (
	"context"

	"go.uber.org/zap"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/ranking"
)

// ReassignmentService resolves trips a driver has rejected, either by
// handing them to another driver or by cancelling them.
type ReassignmentService struct {
	trips      *TripService
	candidates *CandidateService
	logger     *zap.Logger
}

// NewReassignmentService creates a new ReassignmentService.
func NewReassignmentService(trips *TripService, candidates *CandidateService, logger *zap.Logger) *ReassignmentService {
	return &ReassignmentService{
		trips:      trips,
		candidates: candidates,
		logger:     logger,
	}
}

// ListCandidates returns ranked drivers for a rejected trip, using its
// original pickup point and window. Drivers that already rejected the trip
// are left out. An empty list is valid: the trip can still be cancelled.
func (s *ReassignmentService) ListCandidates(ctx context.Context, actor domain.Actor, tripID string, radiusKm float64) ([]domain.DriverCandidate, error) {
	trip, err := s.rejectedTrip(ctx, actor, tripID)
	if err != nil {
		return nil, err
	}

	pickup := trip.Pickup
	found, err := s.candidates.FindNearbyDrivers(ctx, CandidateQuery{
		Point:    &pickup,
		RadiusKm: radiusKm,
		Window:   trip.Window(s.trips.now()),
	})
	if err != nil {
		return nil, err
	}

	found = ranking.ExcludeDrivers(found, trip.RejectedDriverIDs()...)
	return ranking.RankDrivers(found, trip.Pickup.Province), nil
}

// ReassignRequest contains the parameters for handing a rejected trip to a
// new driver.
type ReassignRequest struct {
	TripID    string
	DriverID  string
	VehicleID string // Optional: keeps the trip's vehicle when empty.
}

// Reassign gives a rejected trip to a new driver. The trip returns to
// PENDING under a fresh assignment; the rejection stays in its history.
func (s *ReassignmentService) Reassign(ctx context.Context, actor domain.Actor, req ReassignRequest) (*domain.Trip, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}

	trip, err := s.rejectedTrip(ctx, actor, req.TripID)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckTransition(trip, actor, domain.TripStatusPending, s.trips.now()); err != nil {
		return nil, err
	}
	for _, id := range trip.RejectedDriverIDs() {
		if id == req.DriverID {
			return nil, domain.Errorf(domain.KindDriverUnavailable, "driver %s already rejected this trip", req.DriverID)
		}
	}

	updated, err := s.trips.assign(ctx, actor, trip, req.DriverID, req.VehicleID, "reassigned")
	if err != nil {
		return nil, err
	}

	s.logger.Info("trip reassigned",
		zap.String("trip_id", trip.ID),
		zap.String("previous_driver_id", trip.DriverID),
		zap.String("driver_id", req.DriverID),
	)
	return updated, nil
}

// Cancel gives up on a rejected trip.
func (s *ReassignmentService) Cancel(ctx context.Context, actor domain.Actor, tripID, reason string) (*domain.Trip, error) {
	trip, err := s.rejectedTrip(ctx, actor, tripID)
	if err != nil {
		return nil, err
	}
	return s.trips.transition(ctx, actor, trip, domain.TripStatusCancelled, reason, closeAssignment)
}

func (s *ReassignmentService) rejectedTrip(ctx context.Context, actor domain.Actor, tripID string) (*domain.Trip, error) {
	trip, err := s.trips.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Status != domain.TripStatusRejected {
		return nil, domain.Errorf(domain.KindIllegalTransition, "trip %s is %s, not REJECTED", trip.ID, trip.Status)
	}
	if actor.Role != domain.RoleAdmin {
		return nil, domain.NewError(domain.KindIllegalTransition, "only admins can resolve rejected trips")
	}
	return trip, nil
}
