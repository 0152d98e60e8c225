package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/repository"
)

// PSP is the interface for a Payment Service Provider.
type PSP interface {
	Charge(ctx context.Context, amount float64, method domain.PaymentMethod) (bool, error)
}

// MockPSP is a PSP that accepts every charge.
type MockPSP struct{}

// NewMockPSP creates a new mock PSP.
func NewMockPSP() *MockPSP {
	return &MockPSP{}
}

// Charge simulates a payment charge. Always succeeds.
func (p *MockPSP) Charge(ctx context.Context, amount float64, method domain.PaymentMethod) (bool, error) {
	return true, nil
}

// PaymentService collects payment for completed trips and settles them.
type PaymentService struct {
	paymentRepo  repository.PaymentRepository
	psp          PSP
	trips        *TripService
	receipts     *ReceiptService
	notification *NotificationService
	logger       *zap.Logger
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	paymentRepo repository.PaymentRepository,
	psp PSP,
	trips *TripService,
	receipts *ReceiptService,
	notification *NotificationService,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo:  paymentRepo,
		psp:          psp,
		trips:        trips,
		receipts:     receipts,
		notification: notification,
		logger:       logger,
	}
}

// PayTripRequest contains the parameters for paying a trip.
type PayTripRequest struct {
	TripID         string
	Method         domain.PaymentMethod
	IdempotencyKey string // Optional: defaults to one payment per trip.
}

// PayTripResult is the outcome of a payment attempt. Trip and Receipt are
// set only when the charge succeeded.
type PayTripResult struct {
	Payment *domain.Payment
	Trip    *domain.Trip
	Receipt *domain.Receipt
}

// PayTrip charges the customer for a COMPLETED trip and, on success, moves
// it to PAID. Repeating a request with the same idempotency key returns the
// original payment instead of charging again. A declined charge is not an
// error: the payment comes back FAILED and the trip stays COMPLETED.
func (s *PaymentService) PayTrip(ctx context.Context, actor domain.Actor, req PayTripRequest) (*PayTripResult, error) {
	if req.TripID == "" {
		return nil, ErrInvalidTripID
	}
	switch req.Method {
	case domain.PaymentMethodCash, domain.PaymentMethodCard, domain.PaymentMethodWallet:
	default:
		return nil, ErrInvalidPaymentMethod
	}

	trip, err := s.trips.GetTrip(ctx, actor, req.TripID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin && actor.ID != trip.CustomerID {
		return nil, ErrNotTripCustomer
	}

	idempotencyKey := req.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = fmt.Sprintf("payment:%s", trip.ID)
	}

	existing, err := s.paymentRepo.GetByIdempotencyKey(ctx, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.TripID != trip.ID {
			return nil, domain.NewError(domain.KindValidation, "idempotency key belongs to another trip")
		}
		if existing.Status == domain.PaymentStatusSuccess {
			return s.settle(ctx, trip, existing)
		}
		if existing.Status == domain.PaymentStatusPending {
			return &PayTripResult{Payment: existing}, nil
		}
	}

	if trip.Status != domain.TripStatusCompleted {
		return nil, domain.Errorf(domain.KindIllegalTransition, "trip %s is %s and cannot be paid", trip.ID, trip.Status)
	}
	if trip.Price <= 0 {
		return nil, ErrInvalidPaymentAmount
	}

	payment := existing
	if payment == nil {
		payment = &domain.Payment{
			ID:             uuid.New().String(),
			TripID:         trip.ID,
			Amount:         trip.Price,
			Method:         req.Method,
			Status:         domain.PaymentStatusPending,
			IdempotencyKey: idempotencyKey,
			CreatedAt:      s.trips.now(),
		}
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				// A concurrent request with the same key won.
				winner, err := s.paymentRepo.GetByIdempotencyKey(ctx, idempotencyKey)
				if err != nil {
					return nil, err
				}
				return &PayTripResult{Payment: winner}, nil
			}
			return nil, err
		}
	}

	success, err := s.psp.Charge(ctx, payment.Amount, payment.Method)
	if err != nil {
		s.logger.Warn("payment provider error",
			zap.String("trip_id", trip.ID),
			zap.String("payment_id", payment.ID),
			zap.Error(err),
		)
		success = false
	}

	status := domain.PaymentStatusFailed
	if success {
		status = domain.PaymentStatusSuccess
	}
	if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, status); err != nil {
		return nil, err
	}
	payment.Status = status

	s.notification.NotifyPayment(ctx, trip, payment)
	if !success {
		return &PayTripResult{Payment: payment}, nil
	}
	return s.settle(ctx, trip, payment)
}

// settle moves a trip with a successful payment to PAID and issues the receipt.
func (s *PaymentService) settle(ctx context.Context, trip *domain.Trip, payment *domain.Payment) (*PayTripResult, error) {
	if trip.Status == domain.TripStatusCompleted {
		paid, err := s.trips.MarkPaid(ctx, trip.ID, payment.ID)
		if err != nil {
			return nil, err
		}
		trip = paid
	}

	receipt := s.receipts.GenerateReceipt(ctx, trip, payment)

	s.logger.Info("trip paid",
		zap.String("trip_id", trip.ID),
		zap.String("payment_id", payment.ID),
		zap.Float64("amount", payment.Amount),
	)
	return &PayTripResult{Payment: payment, Trip: trip, Receipt: receipt}, nil
}

// GetPayment retrieves a payment by ID.
func (s *PaymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, ErrInvalidPaymentID
	}

	return s.paymentRepo.GetByID(ctx, paymentID)
}
