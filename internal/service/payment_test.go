package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/service"
)

func TestPayTrip_SettlesCompletedTrip(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seedFleet(f)
	ctx := context.Background()
	trip := completedTrip(t, f)

	result, err := f.paymentService.PayTrip(ctx, customer, service.PayTripRequest{TripID: trip.ID, Method: domain.PaymentMethodCard})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Payment.Status != domain.PaymentStatusSuccess || result.Payment.Amount != 800 {
		t.Errorf("unexpected payment: %+v", result.Payment)
	}
	if result.Trip.Status != domain.TripStatusPaid {
		t.Errorf("expected PAID, got %s", result.Trip.Status)
	}
	if result.Receipt == nil || result.Receipt.Total != 800 || result.Receipt.RatePerKm != 80 {
		t.Errorf("unexpected receipt: %+v", result.Receipt)
	}

	events, _ := f.tripService.ListEvents(ctx, admin, trip.ID)
	last := events[len(events)-1]
	if last.To != domain.TripStatusPaid || last.ActorRole != domain.RoleSystem {
		t.Errorf("expected PAID by system, got %+v", last)
	}

	again, err := f.paymentService.PayTrip(ctx, customer, service.PayTripRequest{TripID: trip.ID, Method: domain.PaymentMethodCard})
	if err != nil {
		t.Fatalf("repeat payment: %v", err)
	}
	if again.Payment.ID != result.Payment.ID {
		t.Error("repeat payment should return the original")
	}
	if f.psp.ChargeCallCount != 1 {
		t.Errorf("expected 1 charge, got %d", f.psp.ChargeCallCount)
	}
}

func TestPayTrip_DeclinedKeepsTripCompleted(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seedFleet(f)
	ctx := context.Background()
	trip := completedTrip(t, f)

	f.psp.Decline = true
	result, err := f.paymentService.PayTrip(ctx, customer, service.PayTripRequest{TripID: trip.ID, Method: domain.PaymentMethodCard})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Payment.Status != domain.PaymentStatusFailed || result.Trip != nil {
		t.Errorf("expected failed payment only, got %+v", result)
	}
	if stored := f.trips.GetTrip(trip.ID); stored.Status != domain.TripStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", stored.Status)
	}

	f.psp.Decline = false
	result, err = f.paymentService.PayTrip(ctx, customer, service.PayTripRequest{TripID: trip.ID, Method: domain.PaymentMethodCard})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if result.Trip == nil || result.Trip.Status != domain.TripStatusPaid {
		t.Errorf("retry should settle the trip, got %+v", result)
	}
	if f.payments.CreateCallCount != 1 {
		t.Errorf("retry should reuse the payment, got %d creates", f.payments.CreateCallCount)
	}
}

func TestPayTrip_Rejections(t *testing.T) {
	t.Parallel()

	f := newFixture()
	seedFleet(f)
	ctx := context.Background()

	pending, err := f.tripService.CreateTrip(ctx, customer, f.instantRequest("driver-1", "vehicle-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = f.paymentService.PayTrip(ctx, customer, service.PayTripRequest{TripID: pending.ID, Method: domain.PaymentMethodCash})
	if !errors.Is(err, domain.ErrIllegalTransition) {
		t.Errorf("expected illegal transition for pending trip, got %v", err)
	}

	_, err = f.paymentService.PayTrip(ctx, customer, service.PayTripRequest{TripID: pending.ID, Method: "BITCOIN"})
	if !errors.Is(err, service.ErrInvalidPaymentMethod) {
		t.Errorf("expected invalid method, got %v", err)
	}

	_, err = f.paymentService.PayTrip(ctx, driverActor("driver-1"), service.PayTripRequest{TripID: pending.ID, Method: domain.PaymentMethodCash})
	if !errors.Is(err, service.ErrNotTripCustomer) {
		t.Errorf("expected not trip customer, got %v", err)
	}
}

func TestFormatReceipt(t *testing.T) {
	t.Parallel()

	receipts := service.NewReceiptService(nil)
	text := receipts.FormatReceipt(&domain.Receipt{
		ID:             "receipt-1",
		TripID:         "trip-1",
		Pickup:         pickupPoint,
		Dropoff:        domain.Point{Lat: 6.9, Lng: 79.9},
		DistanceKm:     10,
		RatePerKm:      80,
		BasePrice:      800,
		PromoCode:      "SAVE10",
		DiscountAmount: 80,
		Total:          720,
		PaymentMethod:  domain.PaymentMethodCash,
		PaymentStatus:  domain.PaymentStatusSuccess,
	})

	for _, want := range []string{"Colombo Fort", "(6.9000, 79.9000)", "Promo (SAVE10):  -80.00", "TOTAL:            720.00"} {
		if !strings.Contains(text, want) {
			t.Errorf("receipt missing %q:\n%s", want, text)
		}
	}
}
