package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/service"
)

// ReassignmentHandler handles admin recovery of rejected trips.
type ReassignmentHandler struct {
	reassignment *service.ReassignmentService
}

// NewReassignmentHandler creates a new ReassignmentHandler.
func NewReassignmentHandler(reassignment *service.ReassignmentService) *ReassignmentHandler {
	return &ReassignmentHandler{reassignment: reassignment}
}

// DriverCandidateResponse is a ranked driver option.
type DriverCandidateResponse struct {
	DriverID    string  `json:"driver_id"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone,omitempty"`
	Rating      float64 `json:"rating"`
	RatingCount int     `json:"rating_count"`
	Experience  int     `json:"experience"`
	DistanceKm  float64 `json:"distance_km"`
}

func driverCandidates(cands []domain.DriverCandidate) []DriverCandidateResponse {
	out := make([]DriverCandidateResponse, 0, len(cands))
	for _, d := range cands {
		out = append(out, DriverCandidateResponse{
			DriverID:    d.DriverID,
			Name:        d.Name,
			Phone:       d.Phone,
			Rating:      d.Rating,
			RatingCount: d.RatingCount,
			Experience:  d.Experience,
			DistanceKm:  d.DistanceKm,
		})
	}
	return out
}

// ListCandidates handles GET /v1/trips/:id/reassignment/candidates
func (h *ReassignmentHandler) ListCandidates(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	radius, err := queryFloat(c, "radius_km")
	if err != nil {
		respondBadRequest(c, "radius_km must be a number")
		return
	}

	cands, err := h.reassignment.ListCandidates(c.Request.Context(), a, c.Param("id"), radius)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, driverCandidates(cands))
}

// Reassign handles POST /v1/trips/:id/reassignment
func (h *ReassignmentHandler) Reassign(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	trip, err := h.reassignment.Reassign(c.Request.Context(), a, service.ReassignRequest{
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

// Cancel handles POST /v1/trips/:id/reassignment/cancel
func (h *ReassignmentHandler) Cancel(c *gin.Context) {
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

	trip, err := h.reassignment.Cancel(c.Request.Context(), a, c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

func queryFloat(c *gin.Context, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
