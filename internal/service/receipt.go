package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"tripdispatch/internal/domain"
)

// ReceiptService handles receipt generation.
type ReceiptService struct {
	notificationService *NotificationService
	now                 Clock
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(notificationService *NotificationService) *ReceiptService {
	return &ReceiptService{
		notificationService: notificationService,
		now:                 systemClock,
	}
}

// GenerateReceipt builds the receipt of a paid trip and tells the customer
// it is ready.
func (s *ReceiptService) GenerateReceipt(ctx context.Context, trip *domain.Trip, payment *domain.Payment) *domain.Receipt {
	rate := 0.0
	if trip.DistanceKm > 0 {
		rate = domain.RoundMoney(trip.BasePrice / trip.DistanceKm)
	}

	receipt := &domain.Receipt{
		ID:             uuid.New().String(),
		TripID:         trip.ID,
		PaymentID:      payment.ID,
		CustomerID:     trip.CustomerID,
		DriverID:       trip.DriverID,
		VehicleID:      trip.VehicleID,
		Pickup:         trip.Pickup,
		Dropoff:        trip.Dropoff,
		DistanceKm:     trip.DistanceKm,
		RatePerKm:      rate,
		BasePrice:      trip.BasePrice,
		PromoCode:      trip.PromoCode,
		DiscountAmount: trip.DiscountAmount,
		Total:          payment.Amount,
		PaymentMethod:  payment.Method,
		PaymentStatus:  payment.Status,
		StartDate:      trip.StartDate,
		EndDate:        trip.EndDate,
		CreatedAt:      s.now(),
	}

	if s.notificationService != nil {
		s.notificationService.NotifyReceiptReady(ctx, receipt)
	}

	return receipt
}

// FormatReceipt formats the receipt as plain text (for email/print).
func (s *ReceiptService) FormatReceipt(receipt *domain.Receipt) string {
	discount := ""
	if receipt.PromoCode != "" {
		discount = `Promo (` + receipt.PromoCode + `):  -` + formatFloat(receipt.DiscountAmount) + `
`
	}

	return `
=====================================
        TRIP RECEIPT
=====================================
Receipt ID: ` + receipt.ID + `
Trip ID: ` + receipt.TripID + `
Date: ` + receipt.CreatedAt.Format("Jan 02, 2006 3:04 PM") + `

TRIP DETAILS
-------------------------------------
Pickup:   ` + describe(receipt.Pickup) + `
Dropoff:  ` + describe(receipt.Dropoff) + `
Distance: ` + formatFloat(receipt.DistanceKm) + ` km

FARE BREAKDOWN
-------------------------------------
Rate:             ` + formatFloat(receipt.RatePerKm) + ` / km
Base Price:       ` + formatFloat(receipt.BasePrice) + `
` + discount + `-------------------------------------
TOTAL:            ` + formatFloat(receipt.Total) + `

PAYMENT
-------------------------------------
Method: ` + string(receipt.PaymentMethod) + `
Status: ` + string(receipt.PaymentStatus) + `

=====================================
     Thank you for travelling with us!
=====================================
`
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
