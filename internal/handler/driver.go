package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/service"
)

// DriverHandler handles HTTP requests for driver and vehicle positions.
type DriverHandler struct {
	driverService *service.DriverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

// UpdateLocationRequest is the HTTP request body for updating a location.
type UpdateLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UpdateLocation handles POST /v1/drivers/:id/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	driverID, ok := h.ownDriver(c)
	if !ok {
		return
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	err := h.driverService.UpdateLocation(c.Request.Context(), service.UpdateLocationRequest{
		ID:  driverID,
		Lat: req.Lat,
		Lng: req.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GoOffline handles POST /v1/drivers/:id/offline
func (h *DriverHandler) GoOffline(c *gin.Context) {
	driverID, ok := h.ownDriver(c)
	if !ok {
		return
	}

	if err := h.driverService.SetDriverOffline(c.Request.Context(), driverID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateVehicleLocation handles POST /v1/vehicles/:id/location
func (h *DriverHandler) UpdateVehicleLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	err := h.driverService.UpdateVehicleLocation(c.Request.Context(), service.UpdateLocationRequest{
		ID:  c.Param("id"),
		Lat: req.Lat,
		Lng: req.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ownDriver returns the path driver ID when the caller is that driver or an admin.
func (h *DriverHandler) ownDriver(c *gin.Context) (string, bool) {
	a, ok := actor(c)
	if !ok {
		return "", false
	}
	driverID := c.Param("id")
	if a.Is(domain.RoleDriver) && a.ID != driverID {
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "drivers can only update themselves"})
		return "", false
	}
	return driverID, true
}
