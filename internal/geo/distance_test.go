package geo

import (
	"math"
	"testing"

	"dronebook/internal/types"
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      types.Point
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         types.Point{Lat: 55.751, Lng: 37.618},
			b:         types.Point{Lat: 55.751, Lng: 37.618},
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name:      "Moscow to Saint Petersburg (~634km)",
			a:         types.Point{Lat: 55.7558, Lng: 37.6173},
			b:         types.Point{Lat: 59.9343, Lng: 30.3351},
			wantKm:    634,
			tolerance: 10,
		},
		{
			name:      "New York to Los Angeles (~3944km)",
			a:         types.Point{Lat: 40.7128, Lng: -74.0060},
			b:         types.Point{Lat: 34.0522, Lng: -118.2437},
			wantKm:    3944,
			tolerance: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("HaversineKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestHaversineKm_Symmetry(t *testing.T) {
	a := types.Point{Lat: 55.0, Lng: 37.0}
	b := types.Point{Lat: 56.0, Lng: 38.0}
	if d1, d2 := HaversineKm(a, b), HaversineKm(b, a); math.Abs(d1-d2) > 0.0001 {
		t.Errorf("haversine is not symmetric: %f vs %f", d1, d2)
	}
}

func TestPathLengthKm_ClosedLoop(t *testing.T) {
	a := types.Point{Lat: 55.0, Lng: 37.0}
	b := types.Point{Lat: 55.01, Lng: 37.0}
	loop := []types.Point{a, b, a}

	got := PathLengthKm(loop)
	want := 2 * HaversineKm(a, b)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("PathLengthKm() = %f, want %f", got, want)
	}
	if PathLengthKm(loop[:1]) != 0 {
		t.Error("single point path should have zero length")
	}
}
