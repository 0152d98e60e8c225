package ranking

import (
	"reflect"
	"testing"

	"tripdispatch/internal/domain"
)

func ids(cs []domain.DriverCandidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.DriverID
	}
	return out
}

func TestRankDrivers_LocalityBeatsRating(t *testing.T) {
	t.Parallel()

	a := domain.DriverCandidate{DriverID: "A", Rating: 4.9, Experience: 20, ProvinceVisits: map[string]int{}}
	b := domain.DriverCandidate{DriverID: "B", Rating: 4.0, Experience: 5, ProvinceVisits: map[string]int{"Western": 3}}

	got := ids(RankDrivers([]domain.DriverCandidate{a, b}, "Western"))
	if want := []string{"B", "A"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRankDrivers_TiersThenRatingThenExperience(t *testing.T) {
	t.Parallel()

	in := []domain.DriverCandidate{
		{DriverID: "newbie", Rating: 5.0, Experience: 2},
		{DriverID: "veteran-low", Rating: 4.5, Experience: 10},
		{DriverID: "local-low", Rating: 3.0, Experience: 1, ProvinceVisits: map[string]int{"Central": 1}},
		{DriverID: "veteran-high", Rating: 4.8, Experience: 40},
		{DriverID: "local-high", Rating: 4.2, Experience: 3, ProvinceVisits: map[string]int{"Central": 9}},
		{DriverID: "average", Rating: 4.4, Experience: 50},
		{DriverID: "average-2", Rating: 4.4, Experience: 60},
	}

	got := ids(RankDrivers(in, "Central"))
	want := []string{"local-high", "local-low", "veteran-high", "veteran-low", "newbie", "average-2", "average"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRankDrivers_DeterministicAndStable(t *testing.T) {
	t.Parallel()

	in := []domain.DriverCandidate{
		{DriverID: "x", Rating: 4.0, Experience: 3},
		{DriverID: "y", Rating: 4.0, Experience: 3},
		{DriverID: "z", Rating: 4.0, Experience: 3},
	}
	first := ids(RankDrivers(in, ""))
	for i := 0; i < 10; i++ {
		if got := ids(RankDrivers(in, "")); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: got %v, want %v", i, got, first)
		}
	}
	if !reflect.DeepEqual(first, []string{"x", "y", "z"}) {
		t.Errorf("ties should keep input order, got %v", first)
	}
	if in[0].DriverID != "x" {
		t.Error("input slice was modified")
	}
}

func TestRankDrivers_EmptyProvinceSkipsLocality(t *testing.T) {
	t.Parallel()

	c := domain.DriverCandidate{DriverID: "a", ProvinceVisits: map[string]int{"": 5}}
	if tier := DriverTier(c, ""); tier != TierOther {
		t.Errorf("tier = %d, want %d", tier, TierOther)
	}
}

func TestRankVehicles_FilterAndSortByRate(t *testing.T) {
	t.Parallel()

	in := []domain.VehicleCandidate{
		{Vehicle: domain.Vehicle{ID: "lux", Category: domain.CategoryLuxury}},
		{Vehicle: domain.Vehicle{ID: "std-custom", Category: domain.CategoryStandard, RatePerKm: 70}},
		{Vehicle: domain.Vehicle{ID: "eco", Category: domain.CategoryEconomy}},
		{Vehicle: domain.Vehicle{ID: "std", Category: domain.CategoryStandard}},
	}

	var got []string
	for _, v := range RankVehicles(in, domain.CategoryAll) {
		got = append(got, v.ID)
	}
	if want := []string{"eco", "std-custom", "std", "lux"}; !reflect.DeepEqual(got, want) {
		t.Errorf("all: got %v, want %v", got, want)
	}

	got = nil
	for _, v := range RankVehicles(in, domain.CategoryStandard) {
		got = append(got, v.ID)
	}
	if want := []string{"std-custom", "std"}; !reflect.DeepEqual(got, want) {
		t.Errorf("standard: got %v, want %v", got, want)
	}

	if len(RankVehicles(in, domain.CategoryPremium)) != 0 {
		t.Error("expected no premium vehicles")
	}
}

func TestExcludeDrivers(t *testing.T) {
	t.Parallel()

	in := []domain.DriverCandidate{{DriverID: "a"}, {DriverID: "b"}, {DriverID: "c"}}
	got := ids(ExcludeDrivers(in, "b"))
	if want := []string{"a", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if len(in) != 3 || in[1].DriverID != "b" {
		t.Error("input slice was modified")
	}

	all := ExcludeDrivers(in)
	if !reflect.DeepEqual(ids(all), []string{"a", "b", "c"}) {
		t.Fatalf("expected every candidate without ids, got %v", ids(all))
	}
	all[0].DriverID = "z"
	if in[0].DriverID != "a" {
		t.Error("result without ids must not alias the input")
	}
}
