package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tripdispatch/internal/booking"
	"tripdispatch/internal/domain"
)

// Geocoder resolves free text and coordinates into places.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]domain.Place, error)
	Reverse(ctx context.Context, lat, lng float64) (domain.Place, error)
}

// QuoteService prepares a booking: it sources and ranks candidates, picks
// defaults and prices the result, the same way a booking form would.
type QuoteService struct {
	candidates *CandidateService
	pricing    *PricingService
	geocoder   Geocoder
	logger     *zap.Logger
	now        Clock
}

// NewQuoteService creates a new QuoteService. geocoder may be nil.
func NewQuoteService(candidates *CandidateService, pricing *PricingService, geocoder Geocoder, logger *zap.Logger) *QuoteService {
	return &QuoteService{
		candidates: candidates,
		pricing:    pricing,
		geocoder:   geocoder,
		logger:     logger,
		now:        systemClock,
	}
}

// SetClock replaces the time source.
func (s *QuoteService) SetClock(c Clock) {
	s.now = c
}

// QuoteBookingRequest describes the booking form state to quote.
type QuoteBookingRequest struct {
	Pickup     *domain.Point
	Dropoff    *domain.Point
	Kind       domain.TripKind
	StartDate  time.Time
	EndDate    time.Time
	Category   domain.VehicleCategory
	DriverID   string // Optional explicit choices.
	VehicleID  string
	PromoCode  string
	RadiusKm   float64
	DistanceKm *float64
}

// BookingQuote is the resolved draft. DistanceError is set when routing
// failed; the price is then unknown and the caller may retry or supply a
// distance.
type BookingQuote struct {
	booking.Draft
	DistanceError error
}

// Quote runs the booking reducer over fresh candidates and a routed distance.
func (s *QuoteService) Quote(ctx context.Context, req QuoteBookingRequest) (*BookingQuote, error) {
	if req.Pickup == nil {
		return nil, ErrPickupRequired
	}
	if !req.Pickup.Valid() {
		return nil, ErrInvalidLocation
	}
	if req.Dropoff != nil && !req.Dropoff.Valid() {
		return nil, ErrInvalidLocation
	}

	now := s.now()
	window, err := requestedWindow(req.Kind, req.StartDate, req.EndDate, now)
	if err != nil {
		return nil, err
	}

	pickup := resolveAddress(ctx, s.geocoder, s.logger, *req.Pickup)

	d := booking.Draft{}
	d = booking.Reduce(d, booking.PickupChanged{Point: &pickup})
	d = booking.Reduce(d, booking.WindowChanged{Window: window})
	d = booking.Reduce(d, booking.CategoryChanged{Category: req.Category})

	query := CandidateQuery{Point: &pickup, RadiusKm: req.RadiusKm, Window: window}
	drivers, err := s.candidates.FindNearbyDrivers(ctx, query)
	if err != nil {
		return nil, err
	}
	vehicles, err := s.candidates.FindNearbyVehicles(ctx, query)
	if err != nil {
		return nil, err
	}
	d = booking.Reduce(d, booking.DriverCandidatesRefreshed{Candidates: drivers})
	d = booking.Reduce(d, booking.VehicleCandidatesRefreshed{Candidates: vehicles})

	if req.DriverID != "" {
		d = booking.Reduce(d, booking.DriverSelected{DriverID: req.DriverID})
	}
	if req.VehicleID != "" {
		d = booking.Reduce(d, booking.VehicleSelected{VehicleID: req.VehicleID})
	}

	out := &BookingQuote{}
	if req.Dropoff != nil || req.DistanceKm != nil {
		var km float64
		if req.Dropoff != nil {
			km, err = s.pricing.Distance(ctx, pickup, *req.Dropoff, req.DistanceKm)
		} else {
			km = *req.DistanceKm
			if km < 0 {
				err = ErrInvalidDistance
			}
		}
		switch {
		case err == nil:
			d = booking.Reduce(d, booking.DistanceResolved{Km: km})
		case domain.IsRetryable(err):
			s.logger.Warn("route distance unavailable", zap.Error(err))
			d = booking.Reduce(d, booking.DistanceUnavailable{})
			out.DistanceError = err
		default:
			return nil, err
		}
	}

	if req.PromoCode != "" && d.PriceKnown {
		applied, err := s.pricing.PreviewPromo(ctx, req.PromoCode, d.BasePrice)
		if err != nil {
			return nil, err
		}
		d = booking.Reduce(d, booking.PromoApplied{Applied: applied})
	}

	out.Draft = d
	return out, nil
}

// resolveAddress fills a missing address or province from the geocoder.
// Failures leave the point as given; ranking then has no locality signal.
func resolveAddress(ctx context.Context, geocoder Geocoder, logger *zap.Logger, p domain.Point) domain.Point {
	if geocoder == nil || (p.Address != "" && p.Province != "") {
		return p
	}
	place, err := geocoder.Reverse(ctx, p.Lat, p.Lng)
	if err != nil {
		logger.Warn("reverse geocoding failed", zap.Float64("lat", p.Lat), zap.Float64("lng", p.Lng), zap.Error(err))
		return p
	}
	if p.Address == "" {
		p.Address = place.Address
	}
	if p.Province == "" {
		p.Province = place.Province
	}
	return p
}

// SearchPlaces resolves a free-text query.
func (s *QuoteService) SearchPlaces(ctx context.Context, query string) ([]domain.Place, error) {
	if query == "" {
		return nil, domain.NewError(domain.KindValidation, "search query is required")
	}
	if s.geocoder == nil {
		return nil, domain.NewError(domain.KindUpstreamTimeout, "geocoding is not configured")
	}
	return s.geocoder.Search(ctx, query)
}

// ReversePlace resolves coordinates to a place.
func (s *QuoteService) ReversePlace(ctx context.Context, lat, lng float64) (domain.Place, error) {
	if !(domain.Point{Lat: lat, Lng: lng}).Valid() {
		return domain.Place{}, ErrInvalidLocation
	}
	if s.geocoder == nil {
		return domain.Place{}, domain.NewError(domain.KindUpstreamTimeout, "geocoding is not configured")
	}
	return s.geocoder.Reverse(ctx, lat, lng)
}

// requestedWindow returns the window a new booking asks for.
func requestedWindow(kind domain.TripKind, start, end, now time.Time) (domain.TimeWindow, error) {
	if kind == "" {
		kind = domain.TripKindInstant
	}
	if kind == domain.TripKindInstant {
		start = now
	}
	if err := domain.ValidateSchedule(kind, start, end, now); err != nil {
		return domain.TimeWindow{}, err
	}
	if kind == domain.TripKindInstant {
		return domain.InstantWindow(now), nil
	}
	return domain.ScheduledWindow(start, end), nil
}
