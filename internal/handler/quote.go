package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tripdispatch/internal/domain"
	"tripdispatch/internal/service"
)

// QuoteHandler serves the read-only booking helpers: candidate search,
// quotes, promo previews and place lookup.
type QuoteHandler struct {
	quoteService     *service.QuoteService
	candidateService *service.CandidateService
	pricingService   *service.PricingService
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(quoteService *service.QuoteService, candidateService *service.CandidateService, pricingService *service.PricingService) *QuoteHandler {
	return &QuoteHandler{
		quoteService:     quoteService,
		candidateService: candidateService,
		pricingService:   pricingService,
	}
}

// QuoteRequest is the HTTP request body for a booking quote.
type QuoteRequest struct {
	Pickup     *PointBody `json:"pickup"`
	Dropoff    *PointBody `json:"dropoff"`
	Kind       string     `json:"kind"`
	StartDate  string     `json:"start_date"`
	EndDate    string     `json:"end_date"`
	Category   string     `json:"category"`
	DriverID   string     `json:"driver_id"`
	VehicleID  string     `json:"vehicle_id"`
	PromoCode  string     `json:"promo_code"`
	RadiusKm   float64    `json:"radius_km"`
	DistanceKm *float64   `json:"distance_km"`
}

// VehicleCandidateResponse is an eligible vehicle option.
type VehicleCandidateResponse struct {
	VehicleID  string  `json:"vehicle_id"`
	Plate      string  `json:"plate"`
	Model      string  `json:"model,omitempty"`
	Category   string  `json:"category"`
	RatePerKm  float64 `json:"rate_per_km"`
	Seats      int     `json:"seats,omitempty"`
	DistanceKm float64 `json:"distance_km"`
}

// PromoResponse describes an applied or previewed discount.
type PromoResponse struct {
	Code              string  `json:"code"`
	PreDiscountAmount float64 `json:"pre_discount_amount"`
	DiscountAmount    float64 `json:"discount_amount"`
	NewTotal          float64 `json:"new_total"`
}

// QuoteResponse is the resolved booking draft.
type QuoteResponse struct {
	Drivers       []DriverCandidateResponse  `json:"drivers"`
	Vehicles      []VehicleCandidateResponse `json:"vehicles"`
	DriverID      string                     `json:"driver_id,omitempty"`
	VehicleID     string                     `json:"vehicle_id,omitempty"`
	DistanceKm    *float64                   `json:"distance_km"`
	BasePrice     *float64                   `json:"base_price"`
	Price         *float64                   `json:"price"`
	Promo         *PromoResponse             `json:"promo,omitempty"`
	DistanceError string                     `json:"distance_error,omitempty"`
}

// PreviewPromoRequest is the HTTP request body for a promo preview.
type PreviewPromoRequest struct {
	Code   string  `json:"code"`
	Amount float64 `json:"amount"`
}

// PlaceResponse is a geocoded place.
type PlaceResponse struct {
	PlaceID string    `json:"place_id,omitempty"`
	Name    string    `json:"name,omitempty"`
	Point   PointBody `json:"point"`
}

func vehicleCandidates(cands []domain.VehicleCandidate) []VehicleCandidateResponse {
	out := make([]VehicleCandidateResponse, 0, len(cands))
	for _, v := range cands {
		out = append(out, VehicleCandidateResponse{
			VehicleID:  v.ID,
			Plate:      v.Plate,
			Model:      v.Model,
			Category:   string(v.Category),
			RatePerKm:  v.EffectiveRate(),
			Seats:      v.Seats,
			DistanceKm: v.DistanceKm,
		})
	}
	return out
}

func promoResponse(p domain.AppliedPromo) *PromoResponse {
	return &PromoResponse{
		Code:              p.Code,
		PreDiscountAmount: p.PreDiscountAmount,
		DiscountAmount:    p.DiscountAmount,
		NewTotal:          p.NewTotal,
	}
}

func placeResponse(p domain.Place) PlaceResponse {
	return PlaceResponse{PlaceID: p.PlaceID, Name: p.Name, Point: pointBody(p.Point)}
}

// Quote handles POST /v1/quotes
func (h *QuoteHandler) Quote(c *gin.Context) {
	var req QuoteRequest
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
	category, ok := domain.ParseCategory(req.Category)
	if !ok {
		respondBadRequest(c, "unknown vehicle category")
		return
	}

	q, err := h.quoteService.Quote(c.Request.Context(), service.QuoteBookingRequest{
		Pickup:     req.Pickup.toDomain(),
		Dropoff:    req.Dropoff.toDomain(),
		Kind:       domain.TripKind(req.Kind),
		StartDate:  start,
		EndDate:    end,
		Category:   category,
		DriverID:   req.DriverID,
		VehicleID:  req.VehicleID,
		PromoCode:  req.PromoCode,
		RadiusKm:   req.RadiusKm,
		DistanceKm: req.DistanceKm,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := QuoteResponse{
		Drivers:   driverCandidates(q.Drivers),
		Vehicles:  vehicleCandidates(q.Vehicles),
		DriverID:  q.DriverID,
		VehicleID: q.VehicleID,
	}
	if q.DistanceKnown {
		km := q.DistanceKm
		resp.DistanceKm = &km
	}
	if q.PriceKnown {
		base, price := q.BasePrice, q.Price
		resp.BasePrice = &base
		resp.Price = &price
	}
	if q.Promo != nil {
		resp.Promo = promoResponse(*q.Promo)
	}
	if q.DistanceError != nil {
		resp.DistanceError = q.DistanceError.Error()
	}

	respondJSON(c, http.StatusOK, resp)
}

// PreviewPromo handles POST /v1/promotions/preview
func (h *QuoteHandler) PreviewPromo(c *gin.Context) {
	var req PreviewPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	applied, err := h.pricingService.PreviewPromo(c.Request.Context(), req.Code, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, promoResponse(applied))
}

// NearbyDrivers handles GET /v1/candidates/drivers
func (h *QuoteHandler) NearbyDrivers(c *gin.Context) {
	query, ok := h.candidateQuery(c)
	if !ok {
		return
	}

	cands, err := h.candidateService.FindNearbyDrivers(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, driverCandidates(cands))
}

// NearbyVehicles handles GET /v1/candidates/vehicles
func (h *QuoteHandler) NearbyVehicles(c *gin.Context) {
	query, ok := h.candidateQuery(c)
	if !ok {
		return
	}

	cands, err := h.candidateService.FindNearbyVehicles(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, vehicleCandidates(cands))
}

// candidateQuery reads lat, lng, radius_km and an optional start/end window.
// Without a start the window is the current instant.
func (h *QuoteHandler) candidateQuery(c *gin.Context) (service.CandidateQuery, bool) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		respondBadRequest(c, "lat and lng are required numbers")
		return service.CandidateQuery{}, false
	}
	radius, err := queryFloat(c, "radius_km")
	if err != nil {
		respondBadRequest(c, "radius_km must be a number")
		return service.CandidateQuery{}, false
	}
	start, err := parseTime(c.Query("start"))
	if err != nil {
		respondBadRequest(c, "start must be RFC 3339")
		return service.CandidateQuery{}, false
	}
	end, err := parseTime(c.Query("end"))
	if err != nil {
		respondBadRequest(c, "end must be RFC 3339")
		return service.CandidateQuery{}, false
	}

	var window domain.TimeWindow
	if start.IsZero() {
		window = domain.InstantWindow(timeNow())
	} else {
		window = domain.ScheduledWindow(start, end)
	}

	return service.CandidateQuery{
		Point:    &domain.Point{Lat: lat, Lng: lng},
		RadiusKm: radius,
		Window:   window,
	}, true
}

// SearchPlaces handles GET /v1/places/search?q=
func (h *QuoteHandler) SearchPlaces(c *gin.Context) {
	places, err := h.quoteService.SearchPlaces(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]PlaceResponse, 0, len(places))
	for _, p := range places {
		response = append(response, placeResponse(p))
	}
	respondJSON(c, http.StatusOK, response)
}

// ReversePlace handles GET /v1/places/reverse?lat=&lng=
func (h *QuoteHandler) ReversePlace(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		respondBadRequest(c, "lat and lng are required numbers")
		return
	}

	place, err := h.quoteService.ReversePlace(c.Request.Context(), lat, lng)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, placeResponse(place))
}
