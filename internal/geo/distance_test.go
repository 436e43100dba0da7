package geo

import (
	"math"
	"testing"
)

func TestHaversineMiles_ZeroDistance(t *testing.T) {
	d := HaversineMiles(39.9812, -75.1554, 39.9812, -75.1554)
	if d < 0 || d > 1e-9 {
		t.Fatalf("zero distance expected ~0, got %v", d)
	}
}

func TestHaversineMiles_OneDegreeLatitude(t *testing.T) {
	// One degree along a meridian is R*pi/180.
	want := EarthRadiusMiles * math.Pi / 180
	if got := HaversineMiles(0, 0, 1, 0); math.Abs(got-want) > 1e-9 {
		t.Fatalf("HaversineMiles = %v, want %v", got, want)
	}
}

func TestHaversineMiles_Symmetric(t *testing.T) {
	a := HaversineMiles(39.9812, -75.1554, 39.9526, -75.1652)
	b := HaversineMiles(39.9526, -75.1652, 39.9812, -75.1554)
	if math.Abs(a-b) > 1e-12 {
		t.Fatalf("distance not symmetric: %v vs %v", a, b)
	}
	if a < 1.5 || a > 2.5 {
		t.Fatalf("campus to center city should be about 2 miles, got %v", a)
	}
}

func TestValidCoordinates(t *testing.T) {
	if !ValidCoordinates(39.98, -75.15) {
		t.Fatalf("expected valid coordinates")
	}
	for _, c := range [][2]float64{{91, 0}, {0, 181}, {-90.1, 0}, {math.NaN(), 0}} {
		if ValidCoordinates(c[0], c[1]) {
			t.Fatalf("expected %v to be invalid", c)
		}
	}
}
