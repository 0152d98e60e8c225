package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// CreateTripRequest is the HTTP request body for booking a trip.
type CreateTripRequest struct {
	CustomerID string     `json:"customer_id"`
	Pickup     *PointBody `json:"pickup"`
	Dropoff    *PointBody `json:"dropoff"`
	Kind       string     `json:"kind"`
	StartDate  string     `json:"start_date"`
	EndDate    string     `json:"end_date"`
	DriverID   string     `json:"driver_id"`
	VehicleID  string     `json:"vehicle_id"`
	PromoCode  string     `json:"promo_code"`
	DistanceKm *float64   `json:"distance_km"`
	Notes      string     `json:"notes"`
}

// AssignDriverRequest is the HTTP request body for assigning a driver.
type AssignDriverRequest struct {
	DriverID  string `json:"driver_id"`
	VehicleID string `json:"vehicle_id"`
}

// ReasonRequest carries an optional free-text reason.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	ID             string               `json:"id"`
	CustomerID     string               `json:"customer_id"`
	DriverID       string               `json:"driver_id,omitempty"`
	VehicleID      string               `json:"vehicle_id,omitempty"`
	Pickup         PointBody            `json:"pickup"`
	Dropoff        PointBody            `json:"dropoff"`
	Kind           string               `json:"kind"`
	Status         string               `json:"status"`
	StartDate      string               `json:"start_date"`
	EndDate        string               `json:"end_date,omitempty"`
	DistanceKm     float64              `json:"distance_km"`
	BasePrice      float64              `json:"base_price"`
	Price          float64              `json:"price"`
	PromoCode      string               `json:"promo_code,omitempty"`
	DiscountAmount float64              `json:"discount_amount,omitempty"`
	Notes          string               `json:"notes,omitempty"`
	RejectReason   string               `json:"reject_reason,omitempty"`
	Version        int                  `json:"version"`
	CreatedAt      string               `json:"created_at"`
	UpdatedAt      string               `json:"updated_at"`
	Assignments    []AssignmentResponse `json:"assignments,omitempty"`
}

// AssignmentResponse is one entry of a trip's assignment history.
type AssignmentResponse struct {
	Seq        int    `json:"seq"`
	DriverID   string `json:"driver_id"`
	VehicleID  string `json:"vehicle_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	AssignedAt string `json:"assigned_at"`
	ClosedAt   string `json:"closed_at,omitempty"`
}

// TripEventResponse is one lifecycle audit entry.
type TripEventResponse struct {
	From      string `json:"from,omitempty"`
	To        string `json:"to"`
	ActorID   string `json:"actor_id"`
	ActorRole string `json:"actor_role"`
	Reason    string `json:"reason,omitempty"`
	CreatedAt string `json:"created_at"`
}

func tripResponse(t *domain.Trip) TripResponse {
	resp := TripResponse{
		ID:             t.ID,
		CustomerID:     t.CustomerID,
		DriverID:       t.DriverID,
		VehicleID:      t.VehicleID,
		Pickup:         pointBody(t.Pickup),
		Dropoff:        pointBody(t.Dropoff),
		Kind:           string(t.Kind),
		Status:         string(t.Status),
		StartDate:      formatTime(t.StartDate),
		EndDate:        formatTime(t.EndDate),
		DistanceKm:     t.DistanceKm,
		BasePrice:      t.BasePrice,
		Price:          t.Price,
		PromoCode:      t.PromoCode,
		DiscountAmount: t.DiscountAmount,
		Notes:          t.Notes,
		RejectReason:   t.RejectReason,
		Version:        t.Version,
		CreatedAt:      formatTime(t.CreatedAt),
		UpdatedAt:      formatTime(t.UpdatedAt),
	}
	for _, a := range t.Assignments {
		resp.Assignments = append(resp.Assignments, AssignmentResponse{
			Seq:        a.Seq,
			DriverID:   a.DriverID,
			VehicleID:  a.VehicleID,
			Status:     string(a.Status),
			Reason:     a.Reason,
			AssignedAt: formatTime(a.AssignedAt),
			ClosedAt:   formatTime(a.ClosedAt),
		})
	}
	return resp
}

// CreateTrip handles POST /v1/trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	start, err := parseTime(req.StartDate)
	if err != nil {
		respondBadRequest(c, "start_date must be RFC 3339")
		return
	}
	end, err := parseTime(req.EndDate)
	if err != nil {
		respondBadRequest(c, "end_date must be RFC 3339")
		return
	}

	trip, err := h.tripService.CreateTrip(c.Request.Context(), a, service.CreateTripRequest{
		CustomerID: req.CustomerID,
		Pickup:     req.Pickup.toDomain(),
		Dropoff:    req.Dropoff.toDomain(),
		Kind:       domain.TripKind(req.Kind),
		StartDate:  start,
		EndDate:    end,
		DriverID:   req.DriverID,
		VehicleID:  req.VehicleID,
		PromoCode:  req.PromoCode,
		DistanceKm: req.DistanceKm,
		Notes:      req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, tripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	trip, err := h.tripService.GetTrip(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

// ListTrips handles GET /v1/trips
func (h *TripHandler) ListTrips(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	trips, err := h.tripService.ListTrips(c.Request.Context(), a, c.Query("customer_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		response = append(response, tripResponse(t))
	}
	respondJSON(c, http.StatusOK, response)
}

// ListEvents handles GET /v1/trips/:id/events
func (h *TripHandler) ListEvents(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	events, err := h.tripService.ListEvents(c.Request.Context(), a, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripEventResponse, 0, len(events))
	for _, e := range events {
		response = append(response, TripEventResponse{
			From:      string(e.From),
			To:        string(e.To),
			ActorID:   e.ActorID,
			ActorRole: string(e.ActorRole),
			Reason:    e.Reason,
			CreatedAt: formatTime(e.CreatedAt),
		})
	}
	respondJSON(c, http.StatusOK, response)
}

// AssignDriver handles POST /v1/trips/:id/assign
func (h *TripHandler) AssignDriver(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	trip, err := h.tripService.AssignDriver(c.Request.Context(), a, service.AssignDriverRequest{
		TripID:    c.Param("id"),
		DriverID:  req.DriverID,
		VehicleID: req.VehicleID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

// Accept handles POST /v1/trips/:id/accept
func (h *TripHandler) Accept(c *gin.Context) {
	h.lifecycle(c, func(a domain.Actor, id, _ string) (*domain.Trip, error) {
		return h.tripService.Accept(c.Request.Context(), a, id)
	})
}

// Start handles POST /v1/trips/:id/start
func (h *TripHandler) Start(c *gin.Context) {
	h.lifecycle(c, func(a domain.Actor, id, _ string) (*domain.Trip, error) {
		return h.tripService.Start(c.Request.Context(), a, id)
	})
}

// Reject handles POST /v1/trips/:id/reject
func (h *TripHandler) Reject(c *gin.Context) {
	h.lifecycle(c, func(a domain.Actor, id, reason string) (*domain.Trip, error) {
		return h.tripService.Reject(c.Request.Context(), a, id, reason)
	})
}

// Complete handles POST /v1/trips/:id/complete
func (h *TripHandler) Complete(c *gin.Context) {
	h.lifecycle(c, func(a domain.Actor, id, _ string) (*domain.Trip, error) {
		return h.tripService.Complete(c.Request.Context(), a, id)
	})
}

// Cancel handles POST /v1/trips/:id/cancel
func (h *TripHandler) Cancel(c *gin.Context) {
	h.lifecycle(c, func(a domain.Actor, id, reason string) (*domain.Trip, error) {
		return h.tripService.Cancel(c.Request.Context(), a, id, reason)
	})
}

// lifecycle runs a single transition. The body is optional and only carries
// a reason.
func (h *TripHandler) lifecycle(c *gin.Context, run func(a domain.Actor, tripID, reason string) (*domain.Trip, error)) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req ReasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	trip, err := run(a, c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}
