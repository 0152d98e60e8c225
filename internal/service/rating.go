package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/repository"
)

// RatingService records customer ratings of finished trips. A trip can be
// rated once per customer.
type RatingService struct {
	tripRepo   repository.TripRepository
	ratingRepo repository.RatingRepository
	tx         repository.Transactor
	logger     *zap.Logger
	now        Clock
}

// NewRatingService creates a new RatingService.
func NewRatingService(
	tripRepo repository.TripRepository,
	ratingRepo repository.RatingRepository,
	tx repository.Transactor,
	logger *zap.Logger,
) *RatingService {
	return &RatingService{
		tripRepo:   tripRepo,
		ratingRepo: ratingRepo,
		tx:         tx,
		logger:     logger,
		now:        systemClock,
	}
}

// SetClock replaces the time source.
func (s *RatingService) SetClock(c Clock) {
	s.now = c
}

// IsRated reports whether customerID has rated tripID. It has no side effects.
func (s *RatingService) IsRated(ctx context.Context, tripID, customerID string) (bool, error) {
	if tripID == "" {
		return false, ErrInvalidTripID
	}
	if customerID == "" {
		return false, ErrInvalidCustomerID
	}
	return s.ratingRepo.Exists(ctx, tripID, customerID)
}

// SubmitRatingRequest contains the parameters for rating a trip.
type SubmitRatingRequest struct {
	TripID     string
	DriverID   string // Optional: defaults to the trip's driver.
	CustomerID string
	Stars      int
	Comment    string
}

// SubmitRating stores a rating and folds it into the driver's average.
func (s *RatingService) SubmitRating(ctx context.Context, req SubmitRatingRequest) (*domain.Rating, error) {
	if err := domain.ValidateStars(req.Stars); err != nil {
		return nil, err
	}
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	if req.CustomerID == "" {
		return nil, ErrInvalidCustomerID
	}

	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	if trip.CustomerID != req.CustomerID {
		return nil, ErrNotTripCustomer
	}
	if !trip.Status.IsFinished() {
		return nil, domain.Errorf(domain.KindTripNotEligible, "trip %s is %s and cannot be rated yet", trip.ID, trip.Status)
	}

	driverID := req.DriverID
	if driverID == "" {
		driverID = trip.DriverID
	}
	if driverID != trip.DriverID {
		return nil, ErrRatingDriverMismatch
	}

	rating := &domain.Rating{
		ID:         uuid.New().String(),
		TripID:     trip.ID,
		DriverID:   driverID,
		CustomerID: req.CustomerID,
		Stars:      req.Stars,
		Comment:    req.Comment,
		CreatedAt:  s.now(),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		if err := st.Ratings().Create(ctx, rating); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return domain.Errorf(domain.KindDuplicateRating, "trip %s has already been rated", trip.ID)
			}
			return err
		}
		return st.Drivers().AddRating(ctx, driverID, rating.Stars)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("trip rated",
		zap.String("trip_id", trip.ID),
		zap.String("driver_id", driverID),
		zap.Int("stars", rating.Stars),
	)
	return rating, nil
}

// ListUnratedTrips returns the customer's finished trips that have no rating yet.
func (s *RatingService) ListUnratedTrips(ctx context.Context, customerID string) ([]*domain.Trip, error) {
	if customerID == "" {
		return nil, ErrInvalidCustomerID
	}

	trips, err := s.tripRepo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	rated, err := s.ratingRepo.RatedTripIDs(ctx, customerID)
	if err != nil {
		return nil, err
	}

	unrated := make([]*domain.Trip, 0, len(trips))
	for _, t := range trips {
		if t.Status.IsFinished() && t.DriverID != "" && !rated[t.ID] {
			unrated = append(unrated, t)
		}
	}
	return unrated, nil
}
