package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
	receiptService *service.ReceiptService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService, receiptService *service.ReceiptService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, receiptService: receiptService}
}

// PayTripRequest is the HTTP request body for paying a trip.
type PayTripRequest struct {
	Method string `json:"method"`
}

// PaymentResponse is the HTTP response for payment operations.
type PaymentResponse struct {
	ID             string  `json:"id"`
	TripID         string  `json:"trip_id"`
	Amount         float64 `json:"amount"`
	Method         string  `json:"method"`
	Status         string  `json:"status"`
	IdempotencyKey string  `json:"idempotency_key"`
}

// ReceiptResponse contains receipt details in the response.
type ReceiptResponse struct {
	ID             string  `json:"id"`
	DistanceKm     float64 `json:"distance_km"`
	RatePerKm      float64 `json:"rate_per_km"`
	BasePrice      float64 `json:"base_price"`
	PromoCode      string  `json:"promo_code,omitempty"`
	DiscountAmount float64 `json:"discount_amount,omitempty"`
	Total          float64 `json:"total"`
	PaymentMethod  string  `json:"payment_method"`
	Text           string  `json:"text"`
}

// PayTripResponse is the HTTP response for a payment attempt.
type PayTripResponse struct {
	Payment PaymentResponse  `json:"payment"`
	Trip    *TripResponse    `json:"trip,omitempty"`
	Receipt *ReceiptResponse `json:"receipt,omitempty"`
}

func paymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:             p.ID,
		TripID:         p.TripID,
		Amount:         p.Amount,
		Method:         string(p.Method),
		Status:         string(p.Status),
		IdempotencyKey: p.IdempotencyKey,
	}
}

// PayTrip handles POST /v1/trips/:id/pay
func (h *PaymentHandler) PayTrip(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req PayTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	result, err := h.paymentService.PayTrip(c.Request.Context(), a, service.PayTripRequest{
		TripID:         c.Param("id"),
		Method:         domain.PaymentMethod(req.Method),
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := PayTripResponse{Payment: paymentResponse(result.Payment)}
	if result.Trip != nil {
		t := tripResponse(result.Trip)
		response.Trip = &t
	}
	if r := result.Receipt; r != nil {
		response.Receipt = &ReceiptResponse{
			ID:             r.ID,
			DistanceKm:     r.DistanceKm,
			RatePerKm:      r.RatePerKm,
			BasePrice:      r.BasePrice,
			PromoCode:      r.PromoCode,
			DiscountAmount: r.DiscountAmount,
			Total:          r.Total,
			PaymentMethod:  string(r.PaymentMethod),
			Text:           h.receiptService.FormatReceipt(r),
		}
	}

	code := http.StatusOK
	if result.Payment.Status == domain.PaymentStatusFailed {
		code = http.StatusPaymentRequired
	}
	respondJSON(c, code, response)
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, paymentResponse(payment))
}
