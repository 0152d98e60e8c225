package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/service"
)

func save10(f *fixture, limit int) *domain.Promotion {
	return &domain.Promotion{
		ID:         "promo-1",
		Code:       "save10",
		Type:       domain.DiscountPercentage,
		Value:      10,
		ExpiresAt:  f.now.Add(24 * time.Hour),
		UsageLimit: limit,
		Active:     true,
	}
}

func TestQuote_BasePriceFromRoute(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	quote, err := f.pricingService.Quote(ctx, service.QuoteRequest{
		Pickup:  pickupPoint,
		Dropoff: dropoffPoint,
		Vehicle: &domain.Vehicle{ID: "v", Category: domain.CategoryStandard},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.DistanceKm != 10 || quote.RatePerKm != 80 || quote.BasePrice != 800 {
		t.Errorf("expected 10 km x 80 = 800, got %+v", quote)
	}

	_, err = f.pricingService.Quote(ctx, service.QuoteRequest{Pickup: pickupPoint, Dropoff: dropoffPoint})
	if !errors.Is(err, service.ErrVehicleRequired) {
		t.Errorf("expected vehicle required, got %v", err)
	}

	negative := -1.0
	_, err = f.pricingService.Quote(ctx, service.QuoteRequest{
		Pickup:     pickupPoint,
		Dropoff:    dropoffPoint,
		Vehicle:    &domain.Vehicle{Category: domain.CategoryEconomy},
		DistanceKm: &negative,
	})
	if !errors.Is(err, service.ErrInvalidDistance) {
		t.Errorf("expected invalid distance, got %v", err)
	}
}

func TestQuote_WithoutRouterNeedsManualDistance(t *testing.T) {
	t.Parallel()

	pricing := service.NewPricingService(nil, NewMockPromotionRepository())
	_, err := pricing.Quote(context.Background(), service.QuoteRequest{
		Vehicle: &domain.Vehicle{Category: domain.CategoryEconomy},
	})
	if domain.KindOf(err) != domain.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestPreviewPromo_DoesNotConsume(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.promos.AddPromotion(save10(f, 1))

	for i := 0; i < 3; i++ {
		applied, err := f.pricingService.PreviewPromo(context.Background(), " Save10 ", 800)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if applied.DiscountAmount != 80 || applied.NewTotal != 720 || applied.Code != "SAVE10" {
			t.Errorf("unexpected preview: %+v", applied)
		}
	}
	if used := f.promos.UsedCount("SAVE10"); used != 0 {
		t.Errorf("preview consumed %d uses", used)
	}
}

func TestPreviewPromo_Errors(t *testing.T) {
	t.Parallel()

	f := newFixture()
	expired := save10(f, 5)
	expired.Code = "OLD"
	expired.ExpiresAt = f.now.Add(-time.Hour)
	exhausted := save10(f, 1)
	exhausted.Code = "GONE"
	exhausted.UsedCount = 1
	minimum := save10(f, 5)
	minimum.Code = "BIGONLY"
	minimum.MinAmount = 1000
	f.promos.AddPromotion(expired)
	f.promos.AddPromotion(exhausted)
	f.promos.AddPromotion(minimum)

	tests := []struct {
		code string
		kind domain.ErrorKind
	}{
		{"", domain.KindInvalidPromo},
		{"UNKNOWN", domain.KindInvalidPromo},
		{"OLD", domain.KindPromoExpired},
		{"GONE", domain.KindPromoLimitReached},
		{"BIGONLY", domain.KindInvalidPromo},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, err := f.pricingService.PreviewPromo(context.Background(), tt.code, 800)
			if domain.KindOf(err) != tt.kind {
				t.Errorf("expected %s, got %v", tt.kind, err)
			}
		})
	}
}

func TestCreateTrip_PromoConsumedOnce(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seedFleet(f)
	f.promos.AddPromotion(save10(f, 5))
	ctx := context.Background()

	req := f.instantRequest("driver-1", "vehicle-1")
	req.PromoCode = "save10"
	trip, err := f.tripService.CreateTrip(ctx, customer, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.BasePrice != 800 || trip.DiscountAmount != 80 || trip.Price != 720 {
		t.Errorf("expected 800 - 80 = 720, got base %.2f discount %.2f price %.2f", trip.BasePrice, trip.DiscountAmount, trip.Price)
	}
	if trip.PromoCode != "SAVE10" {
		t.Errorf("expected normalised code, got %q", trip.PromoCode)
	}
	if used := f.promos.UsedCount("SAVE10"); used != 1 {
		t.Errorf("expected 1 use, got %d", used)
	}
}

func TestCreateTrip_FailedBookingKeepsPromo(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seedFleet(f)
	f.promos.AddPromotion(save10(f, 5))
	ctx := context.Background()

	if _, err := f.tripService.CreateTrip(ctx, customer, f.instantRequest("driver-1", "vehicle-1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := f.instantRequest("driver-1", "vehicle-2")
	req.PromoCode = "SAVE10"
	if _, err := f.tripService.CreateTrip(ctx, customer, req); !errors.Is(err, domain.ErrDriverUnavailable) {
		t.Fatalf("expected driver unavailable, got %v", err)
	}
	if used := f.promos.UsedCount("SAVE10"); used != 0 {
		t.Errorf("failed booking consumed the promo %d times", used)
	}
}

func TestCreateTrip_ConcurrentPromoLimit(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.addVehicle(&domain.Vehicle{ID: "vehicle-1", Category: domain.CategoryStandard})
	f.addVehicle(&domain.Vehicle{ID: "vehicle-2", Category: domain.CategoryStandard})
	f.promos.AddPromotion(save10(f, 1))
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, vehicleID := range []string{"vehicle-1", "vehicle-2"} {
		wg.Add(1)
		go func(i int, vehicleID string) {
			defer wg.Done()
			req := f.instantRequest("", vehicleID)
			req.PromoCode = "SAVE10"
			_, errs[i] = f.tripService.CreateTrip(ctx, customer, req)
		}(i, vehicleID)
	}
	wg.Wait()

	succeeded, limited := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrPromoLimitReached):
			limited++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || limited != 1 {
		t.Errorf("expected one success and one limit error, got %d and %d", succeeded, limited)
	}
	if used := f.promos.UsedCount("SAVE10"); used != 1 {
		t.Errorf("expected 1 use, got %d", used)
	}
}
