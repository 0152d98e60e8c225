// Package maps resolves addresses and road distances through the Google Maps
// Platform.
package maps

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"googlemaps.github.io/maps"

	"tripdispatch/internal/domain"
)

const provinceComponent = "administrative_area_level_1"

// api is the subset of *maps.Client used here.
type api interface {
	DistanceMatrix(ctx context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error)
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// Client handles routing and geocoding with a bounded timeout per call.
type Client struct {
	api      api
	timeout  time.Duration
	region   string
	language string
}

// NewClient creates a Client with the given API key.
func NewClient(apiKey string, timeout time.Duration, region, language string) (*Client, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return newClient(c, timeout, region, language), nil
}

func newClient(a api, timeout time.Duration, region, language string) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{api: a, timeout: timeout, region: region, language: language}
}

// RouteDistanceKm returns the driving distance between two points.
func (c *Client) RouteDistanceKm(ctx context.Context, from, to domain.Point) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      []string{latLng(from)},
		Destinations: []string{latLng(to)},
		Mode:         maps.TravelModeDriving,
		Language:     c.language,
	})
	if err != nil {
		return 0, upstreamError(ctx, "routing", err)
	}

	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, domain.NewError(domain.KindValidation, "no route found between pickup and dropoff")
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return 0, domain.Errorf(domain.KindValidation, "no route found between pickup and dropoff (%s)", el.Status)
	}

	return float64(el.Distance.Meters) / 1000, nil
}

// Search geocodes a free-text address.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Place, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results, err := c.api.Geocode(ctx, &maps.GeocodingRequest{
		Address:  query,
		Region:   c.region,
		Language: c.language,
	})
	if err != nil {
		return nil, upstreamError(ctx, "geocoding", err)
	}

	places := make([]domain.Place, 0, len(results))
	for _, r := range results {
		places = append(places, toPlace(r))
	}
	return places, nil
}

// Reverse resolves the address and province of a coordinate.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (domain.Place, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results, err := c.api.Geocode(ctx, &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: lat, Lng: lng},
		Language: c.language,
	})
	if err != nil {
		return domain.Place{}, upstreamError(ctx, "reverse geocoding", err)
	}
	if len(results) == 0 {
		return domain.Place{}, domain.NewError(domain.KindNotFound, "no address found for location")
	}

	place := toPlace(results[0])
	place.Lat, place.Lng = lat, lng
	return place, nil
}

func toPlace(r maps.GeocodingResult) domain.Place {
	p := domain.Place{
		Point: domain.Point{
			Lat:     r.Geometry.Location.Lat,
			Lng:     r.Geometry.Location.Lng,
			Address: r.FormattedAddress,
		},
		PlaceID: r.PlaceID,
	}
	if len(r.AddressComponents) > 0 {
		p.Name = r.AddressComponents[0].LongName
	}
	for _, comp := range r.AddressComponents {
		for _, t := range comp.Types {
			if t == provinceComponent {
				p.Province = comp.LongName
			}
		}
	}
	return p
}

func latLng(p domain.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}

// upstreamError maps any failure of the maps API to a retryable error.
func upstreamError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.WrapError(domain.KindUpstreamTimeout, op+" service timed out", err)
	}
	return domain.WrapError(domain.KindUpstreamTimeout, op+" service unavailable", err)
}
