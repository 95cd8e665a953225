package bars

import (
	"math"
	"testing"
)

func TestDistanceIdentity(t *testing.T) {
	points := [][2]float64{
		{48.3904, -4.4861},
		{0, 0},
		{-33.8688, 151.2093},
	}
	for _, p := range points {
		if d := Distance(p[0], p[1], p[0], p[1]); d != 0 {
			t.Errorf("Distance of a point to itself = %f, want 0", d)
		}
	}
}

func TestDistanceSymmetry(t *testing.T) {
	tests := []struct {
		lat1, lon1, lat2, lon2 float64
	}{
		{48.3904, -4.4861, 48.4, -4.5},
		{51.5074, -0.1278, 40.7128, -74.006},
		{-10, 20, 30, -40},
	}
	for _, tt := range tests {
		ab := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
		ba := Distance(tt.lat2, tt.lon2, tt.lat1, tt.lon1)
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("Distance not symmetric: %f vs %f", ab, ba)
		}
		if ab < 0 {
			t.Errorf("Distance negative: %f", ab)
		}
	}
}

func TestDistanceKnown(t *testing.T) {
	// London to New York is roughly 5570 km
	d := Distance(51.5074, -0.1278, 40.7128, -74.006)
	if d < 5500 || d > 5600 {
		t.Errorf("London-New York = %f km, want ~5570", d)
	}

	// Across central Brest, well under 5 km
	d = Distance(48.3904, -4.4861, 48.3833, -4.4953)
	if d <= 0 || d > 5 {
		t.Errorf("cross-town distance = %f km, want (0, 5]", d)
	}
}
