package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/middleware"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	code := mapErrorToHTTPStatus(err)

	msg := err.Error()
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = "internal error"
	}

	c.JSON(code, ErrorResponse{
		Error:     msg,
		Kind:      string(kind),
		Retryable: domain.IsRetryable(err),
	})
}

// respondBadRequest rejects a request that could not be decoded.
func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Kind: string(domain.KindValidation)})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps the kind of a domain error to an HTTP status code.
// Errors without a kind are internal.
func mapErrorToHTTPStatus(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindInvalidStars:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindIllegalTransition,
		domain.KindDriverUnavailable,
		domain.KindVehicleUnavailable,
		domain.KindDuplicateRating:
		return http.StatusConflict
	case domain.KindInvalidPromo,
		domain.KindPromoExpired,
		domain.KindPromoLimitReached,
		domain.KindTripNotEligible:
		return http.StatusUnprocessableEntity
	case domain.KindUpstreamTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// actor returns the authenticated actor or aborts with 401.
func actor(c *gin.Context) (domain.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated"})
	}
	return a, ok
}

// PointBody is the wire form of a geographic point.
type PointBody struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Address  string  `json:"address,omitempty"`
	Province string  `json:"province,omitempty"`
}

func (p *PointBody) toDomain() *domain.Point {
	if p == nil {
		return nil
	}
	return &domain.Point{Lat: p.Lat, Lng: p.Lng, Address: p.Address, Province: p.Province}
}

func pointBody(p domain.Point) PointBody {
	return PointBody{Lat: p.Lat, Lng: p.Lng, Address: p.Address, Province: p.Province}
}

var timeNow = time.Now

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// parseTime accepts RFC 3339 or an empty string.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
