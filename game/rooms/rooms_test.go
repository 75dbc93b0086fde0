package rooms

import (
	"errors"
	"math"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		want Coordinates
	}{
		{"E0N0", Coordinates{0, 0}},
		{"W0N0", Coordinates{-1, 0}},
		{"E0S0", Coordinates{0, -1}},
		{"W0S0", Coordinates{-1, -1}},
		{"E1N8", Coordinates{1, 8}},
		{"W50N50", Coordinates{-51, 50}},
		{"e12s3", Coordinates{12, -4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.name)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.name, got, tt.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, name := range []string{"", "sim", "E1", "N8E1", "X1N1", "E-1N2", "E1N8x"} {
		if _, err := Parse(name); !errors.Is(err, ErrInvalidRoomName) {
			t.Errorf("Parse(%q): expected ErrInvalidRoomName, got %v", name, err)
		}
		if Valid(name) {
			t.Errorf("Valid(%q) should be false", name)
		}
	}
}

func TestMeasure(t *testing.T) {
	d, err := Measure("E1N8", "E4N4")
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}

	if d.DeltaX != 3 || d.DeltaY != 4 {
		t.Errorf("Expected deltas 3/4, got %d/%d", d.DeltaX, d.DeltaY)
	}
	if d.Chebyshev != 4 {
		t.Errorf("Expected Chebyshev 4, got %d", d.Chebyshev)
	}
	if d.Manhattan != 7 {
		t.Errorf("Expected Manhattan 7, got %d", d.Manhattan)
	}
	if math.Abs(d.Euclidean-5) > 1e-9 {
		t.Errorf("Expected Euclidean 5, got %f", d.Euclidean)
	}
}

func TestMeasure_AcrossOrigin(t *testing.T) {
	// W0 sits directly west of E0, so the crossing is one room.
	d, err := Measure("W0N0", "E0N0")
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	if d.DeltaX != 1 || d.Chebyshev != 1 {
		t.Errorf("Expected one room apart, got %+v", d)
	}
}

func TestMeasure_InvalidRoom(t *testing.T) {
	if _, err := Measure("E1N8", "nowhere"); err == nil {
		t.Error("Expected error for invalid destination")
	}
	if _, err := Measure("nowhere", "E1N8"); err == nil {
		t.Error("Expected error for invalid source")
	}
}
