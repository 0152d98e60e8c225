package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tripdispatch/internal/broker"
	"tripdispatch/internal/domain"
)

const publishTimeout = 3 * time.Second

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationTripRequested  NotificationType = "TRIP_REQUESTED"
	NotificationDriverAssigned NotificationType = "DRIVER_ASSIGNED"
	NotificationTripAccepted   NotificationType = "TRIP_ACCEPTED"
	NotificationTripStarted    NotificationType = "TRIP_STARTED"
	NotificationTripRejected   NotificationType = "TRIP_REJECTED"
	NotificationTripCompleted  NotificationType = "TRIP_COMPLETED"
	NotificationTripCancelled  NotificationType = "TRIP_CANCELLED"
	NotificationPaymentSuccess NotificationType = "PAYMENT_SUCCESS"
	NotificationPaymentFailed  NotificationType = "PAYMENT_FAILED"
	NotificationReceiptReady   NotificationType = "RECEIPT_READY"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType `json:"type"`
	TripID      string           `json:"trip_id"`
	RecipientID string           `json:"recipient_id"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Data        map[string]any   `json:"data,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NotificationService publishes user-facing trip notifications. Delivery is
// fire-and-forget: failures are logged and never fail the calling operation.
type NotificationService struct {
	publisher broker.Publisher
	logger    *zap.Logger
	now       Clock
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(publisher broker.Publisher, logger *zap.Logger) *NotificationService {
	return &NotificationService{publisher: publisher, logger: logger, now: systemClock}
}

// NotifyTripEvent tells the affected parties about a lifecycle transition.
func (s *NotificationService) NotifyTripEvent(ctx context.Context, trip *domain.Trip, event *domain.TripEvent) {
	switch event.To {
	case domain.TripStatusPending:
		if event.From == "" {
			s.send(ctx, Notification{
				Type:        NotificationTripRequested,
				TripID:      trip.ID,
				RecipientID: trip.DriverID,
				Title:       "New Trip Request",
				Message:     fmt.Sprintf("New trip request. Pickup at %s", describe(trip.Pickup)),
				Data:        map[string]any{"start_date": trip.StartDate, "price": trip.Price},
			})
			return
		}
		s.send(ctx, Notification{
			Type:        NotificationDriverAssigned,
			TripID:      trip.ID,
			RecipientID: trip.CustomerID,
			Title:       "Driver Assigned",
			Message:     "A new driver has been assigned to your trip",
			Data:        map[string]any{"driver_id": trip.DriverID},
		})
		s.send(ctx, Notification{
			Type:        NotificationTripRequested,
			TripID:      trip.ID,
			RecipientID: trip.DriverID,
			Title:       "New Trip Request",
			Message:     fmt.Sprintf("New trip request. Pickup at %s", describe(trip.Pickup)),
		})
	case domain.TripStatusAccepted:
		s.send(ctx, Notification{
			Type:        NotificationTripAccepted,
			TripID:      trip.ID,
			RecipientID: trip.CustomerID,
			Title:       "Trip Accepted",
			Message:     "Your driver has accepted the trip",
			Data:        map[string]any{"driver_id": trip.DriverID},
		})
	case domain.TripStatusProcessing:
		s.send(ctx, Notification{
			Type:        NotificationTripStarted,
			TripID:      trip.ID,
			RecipientID: trip.CustomerID,
			Title:       "Trip Started",
			Message:     "Your trip has started. Enjoy your ride!",
		})
	case domain.TripStatusRejected:
		s.send(ctx, Notification{
			Type:        NotificationTripRejected,
			TripID:      trip.ID,
			RecipientID: trip.CustomerID,
			Title:       "Trip Rejected",
			Message:     "Your driver could not take this trip. Please choose another driver.",
			Data:        map[string]any{"reason": event.Reason},
		})
	case domain.TripStatusCompleted:
		s.send(ctx, Notification{
			Type:        NotificationTripCompleted,
			TripID:      trip.ID,
			RecipientID: trip.CustomerID,
			Title:       "Trip Completed",
			Message:     fmt.Sprintf("Your trip has ended. Total: %.2f", trip.Price),
			Data:        map[string]any{"price": trip.Price},
		})
	case domain.TripStatusCancelled:
		recipient := trip.CustomerID
		if event.ActorID == trip.CustomerID {
			recipient = trip.DriverID
		}
		s.send(ctx, Notification{
			Type:        NotificationTripCancelled,
			TripID:      trip.ID,
			RecipientID: recipient,
			Title:       "Trip Cancelled",
			Message:     "The trip has been cancelled",
			Data:        map[string]any{"reason": event.Reason},
		})
	}
}

// NotifyPayment tells the customer how a payment attempt ended.
func (s *NotificationService) NotifyPayment(ctx context.Context, trip *domain.Trip, payment *domain.Payment) {
	n := Notification{
		Type:        NotificationPaymentSuccess,
		TripID:      trip.ID,
		RecipientID: trip.CustomerID,
		Title:       "Payment Successful",
		Message:     fmt.Sprintf("Payment of %.2f was successful", payment.Amount),
		Data:        map[string]any{"payment_id": payment.ID, "amount": payment.Amount},
	}
	if payment.Status != domain.PaymentStatusSuccess {
		n.Type = NotificationPaymentFailed
		n.Title = "Payment Failed"
		n.Message = fmt.Sprintf("Payment of %.2f failed. Please try again.", payment.Amount)
	}
	s.send(ctx, n)
}

// NotifyReceiptReady tells the customer a receipt is available.
func (s *NotificationService) NotifyReceiptReady(ctx context.Context, receipt *domain.Receipt) {
	s.send(ctx, Notification{
		Type:        NotificationReceiptReady,
		TripID:      receipt.TripID,
		RecipientID: receipt.CustomerID,
		Title:       "Receipt Ready",
		Message:     fmt.Sprintf("Your receipt for %.2f is ready", receipt.Total),
		Data:        map[string]any{"receipt_id": receipt.ID},
	})
}

func (s *NotificationService) send(ctx context.Context, n Notification) {
	if n.RecipientID == "" {
		return
	}
	n.CreatedAt = s.now()

	body, err := json.Marshal(n)
	if err != nil {
		s.logger.Error("failed to encode notification", zap.String("type", string(n.Type)), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, broker.Message{Key: n.TripID, Body: body}); err != nil {
		s.logger.Warn("failed to publish notification",
			zap.String("type", string(n.Type)),
			zap.String("trip_id", n.TripID),
			zap.Error(err),
		)
	}
}

func describe(p domain.Point) string {
	if p.Address != "" {
		return p.Address
	}
	return fmt.Sprintf("(%.4f, %.4f)", p.Lat, p.Lng)
}
