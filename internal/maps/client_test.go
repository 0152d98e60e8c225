package maps

import (
	"context"
	"errors"
	"testing"
	"time"

	"googlemaps.github.io/maps"

	"tripdispatch/internal/domain"
)

type fakeAPI struct {
	matrix  *maps.DistanceMatrixResponse
	geocode []maps.GeocodingResult
	err     error
	delay   time.Duration
}

func (f *fakeAPI) DistanceMatrix(ctx context.Context, _ *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.matrix, f.err
}

func (f *fakeAPI) Geocode(ctx context.Context, _ *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.geocode, f.err
}

func (f *fakeAPI) wait(ctx context.Context) error {
	if f.delay == 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestRouteDistanceKm(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{matrix: &maps.DistanceMatrixResponse{
		Rows: []maps.DistanceMatrixElementsRow{{
			Elements: []*maps.DistanceMatrixElement{{Status: "OK", Distance: maps.Distance{Meters: 10500}}},
		}},
	}}
	c := newClient(api, time.Second, "lk", "en")

	km, err := c.RouteDistanceKm(context.Background(), domain.Point{Lat: 6.9, Lng: 79.8}, domain.Point{Lat: 7.0, Lng: 79.9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if km != 10.5 {
		t.Errorf("distance = %v, want 10.5", km)
	}
}

func TestRouteDistanceKm_TimeoutIsRetryable(t *testing.T) {
	t.Parallel()

	c := newClient(&fakeAPI{delay: time.Second}, 20*time.Millisecond, "", "")

	_, err := c.RouteDistanceKm(context.Background(), domain.Point{}, domain.Point{})
	if !errors.Is(err, domain.ErrUpstreamTimeout) {
		t.Fatalf("expected upstream timeout, got %v", err)
	}
	if !domain.IsRetryable(err) {
		t.Error("expected retryable error")
	}
}

func TestRouteDistanceKm_NoRoute(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{matrix: &maps.DistanceMatrixResponse{
		Rows: []maps.DistanceMatrixElementsRow{{
			Elements: []*maps.DistanceMatrixElement{{Status: "ZERO_RESULTS"}},
		}},
	}}
	c := newClient(api, time.Second, "", "")

	_, err := c.RouteDistanceKm(context.Background(), domain.Point{}, domain.Point{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReverse_ExtractsProvince(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{geocode: []maps.GeocodingResult{{
		FormattedAddress: "Galle Rd, Colombo, Sri Lanka",
		PlaceID:          "abc",
		AddressComponents: []maps.AddressComponent{
			{LongName: "Galle Road", Types: []string{"route"}},
			{LongName: "Western Province", Types: []string{"administrative_area_level_1", "political"}},
		},
	}}}
	c := newClient(api, time.Second, "", "")

	place, err := c.Reverse(context.Background(), 6.9, 79.85)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.Province != "Western Province" {
		t.Errorf("province = %q", place.Province)
	}
	if place.Lat != 6.9 || place.Lng != 79.85 {
		t.Errorf("coordinates not preserved: %v,%v", place.Lat, place.Lng)
	}
	if place.Address == "" {
		t.Error("expected formatted address")
	}
}

func TestSearch_UpstreamFailure(t *testing.T) {
	t.Parallel()

	c := newClient(&fakeAPI{err: errors.New("connection reset")}, time.Second, "", "")

	_, err := c.Search(context.Background(), "Colombo Fort")
	if !domain.IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}
