package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/service"
)

// RatingHandler handles HTTP requests for driver ratings.
type RatingHandler struct {
	ratingService *service.RatingService
}

// NewRatingHandler creates a new RatingHandler.
func NewRatingHandler(ratingService *service.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

// SubmitRatingRequest is the HTTP request body for rating a trip.
type SubmitRatingRequest struct {
	DriverID string `json:"driver_id"`
	Stars    int    `json:"stars"`
	Comment  string `json:"comment"`
}

// RatingResponse is the HTTP response for a stored rating.
type RatingResponse struct {
	ID         string `json:"id"`
	TripID     string `json:"trip_id"`
	DriverID   string `json:"driver_id"`
	CustomerID string `json:"customer_id"`
	Stars      int    `json:"stars"`
	Comment    string `json:"comment,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// SubmitRating handles POST /v1/trips/:id/rating
func (h *RatingHandler) SubmitRating(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	rating, err := h.ratingService.SubmitRating(c.Request.Context(), service.SubmitRatingRequest{
		TripID:     c.Param("id"),
		DriverID:   req.DriverID,
		CustomerID: a.ID,
		Stars:      req.Stars,
		Comment:    req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, RatingResponse{
		ID:         rating.ID,
		TripID:     rating.TripID,
		DriverID:   rating.DriverID,
		CustomerID: rating.CustomerID,
		Stars:      rating.Stars,
		Comment:    rating.Comment,
		CreatedAt:  formatTime(rating.CreatedAt),
	})
}

// GetRatingStatus handles GET /v1/trips/:id/rating
func (h *RatingHandler) GetRatingStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	rated, err := h.ratingService.IsRated(c.Request.Context(), c.Param("id"), a.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{"trip_id": c.Param("id"), "rated": rated})
}

// ListUnrated handles GET /v1/ratings/pending
func (h *RatingHandler) ListUnrated(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	customerID := a.ID
	if a.Is(domain.RoleAdmin) {
		customerID = c.Query("customer_id")
	}

	trips, err := h.ratingService.ListUnratedTrips(c.Request.Context(), customerID)
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
