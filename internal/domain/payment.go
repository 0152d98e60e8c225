package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// PaymentMethod represents how the customer settles a trip.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodWallet PaymentMethod = "WALLET"
)

// Payment represents a payment for a trip.
type Payment struct {
	ID             string
	TripID         string
	Amount         float64
	Method         PaymentMethod
	Status         PaymentStatus
	IdempotencyKey string
	CreatedAt      time.Time
}

// Receipt summarises a paid trip.
type Receipt struct {
	ID             string
	TripID         string
	PaymentID      string
	CustomerID     string
	DriverID       string
	VehicleID      string
	Pickup         Point
	Dropoff        Point
	DistanceKm     float64
	RatePerKm      float64
	BasePrice      float64
	PromoCode      string
	DiscountAmount float64
	Total          float64
	PaymentMethod  PaymentMethod
	PaymentStatus  PaymentStatus
	StartDate      time.Time
	EndDate        time.Time
	CreatedAt      time.Time
}
