package service

import (
	"context"
	"errors"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/repository"
)

// Router resolves the road distance between two points.
type Router interface {
	RouteDistanceKm(ctx context.Context, from, to domain.Point) (float64, error)
}

// PricingService computes trip prices and validates promo codes.
type PricingService struct {
	router    Router
	promoRepo repository.PromotionRepository
	now       Clock
}

// NewPricingService creates a new PricingService. router may be nil, in which
// case callers must supply distances themselves.
func NewPricingService(router Router, promoRepo repository.PromotionRepository) *PricingService {
	return &PricingService{
		router:    router,
		promoRepo: promoRepo,
		now:       systemClock,
	}
}

// SetClock replaces the time source.
func (s *PricingService) SetClock(c Clock) {
	s.now = c
}

// QuoteRequest contains the parameters for pricing a trip.
type QuoteRequest struct {
	Pickup  domain.Point
	Dropoff domain.Point
	Vehicle *domain.Vehicle
	// DistanceKm overrides routing when non-nil.
	DistanceKm *float64
}

// Quote is the pre-discount price of a trip.
type Quote struct {
	DistanceKm float64
	RatePerKm  float64
	BasePrice  float64
}

// Distance returns the route distance, or the manual override if given.
func (s *PricingService) Distance(ctx context.Context, from, to domain.Point, manualKm *float64) (float64, error) {
	if manualKm != nil {
		if *manualKm < 0 {
			return 0, ErrInvalidDistance
		}
		return *manualKm, nil
	}
	if s.router == nil {
		return 0, domain.NewError(domain.KindValidation, "routing is unavailable; a distance must be supplied")
	}
	return s.router.RouteDistanceKm(ctx, from, to)
}

// Quote prices a trip as distance times the vehicle's effective rate.
// If the distance cannot be resolved the price is indeterminate and an
// error is returned; a zero price is never substituted.
func (s *PricingService) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if req.Vehicle == nil {
		return nil, ErrVehicleRequired
	}

	km, err := s.Distance(ctx, req.Pickup, req.Dropoff, req.DistanceKm)
	if err != nil {
		return nil, err
	}

	return &Quote{
		DistanceKm: km,
		RatePerKm:  req.Vehicle.EffectiveRate(),
		BasePrice:  domain.BasePrice(km, req.Vehicle),
	}, nil
}

// PreviewPromo validates code against amount without consuming a use.
func (s *PricingService) PreviewPromo(ctx context.Context, code string, amount float64) (domain.AppliedPromo, error) {
	promo, err := lookupPromo(ctx, s.promoRepo, code)
	if err != nil {
		return domain.AppliedPromo{}, err
	}
	return domain.ApplyPromo(promo, amount, s.now())
}

// consumePromo validates code against amount and atomically takes one use.
// promos must belong to the caller's transaction.
func consumePromo(ctx context.Context, promos repository.PromotionRepository, code string, amount float64, now Clock) (domain.AppliedPromo, error) {
	promo, err := lookupPromo(ctx, promos, code)
	if err != nil {
		return domain.AppliedPromo{}, err
	}

	applied, err := domain.ApplyPromo(promo, amount, now())
	if err != nil {
		return domain.AppliedPromo{}, err
	}

	ok, err := promos.ConsumeUsage(ctx, promo.Code, now())
	if err != nil {
		return domain.AppliedPromo{}, err
	}
	if !ok {
		// Lost a race: report why the promotion is no longer usable.
		fresh, err := lookupPromo(ctx, promos, code)
		if err != nil {
			return domain.AppliedPromo{}, err
		}
		if err := fresh.CheckEligible(amount, now()); err != nil {
			return domain.AppliedPromo{}, err
		}
		return domain.AppliedPromo{}, domain.Errorf(domain.KindPromoLimitReached, "promo code %s has reached its usage limit", promo.Code)
	}
	return applied, nil
}

func lookupPromo(ctx context.Context, promos repository.PromotionRepository, code string) (*domain.Promotion, error) {
	code = domain.NormalizePromoCode(code)
	if code == "" {
		return nil, ErrPromoCodeRequired
	}

	promo, err := promos.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Errorf(domain.KindInvalidPromo, "promo code %s does not exist", code)
		}
		return nil, err
	}
	return promo, nil
}
