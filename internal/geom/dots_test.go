package geom

import "testing"

func TestMmToDots(t *testing.T) {
	cases := []struct {
		mm   float64
		dots int
	}{
		{0, 0},
		{1, 8},
		{5, 40},
		{50, 400},
		{80, 640},
		{0.5, 4},
	}

	for _, c := range cases {
		if got := MmToDots(c.mm); got != c.dots {
			t.Errorf("MmToDots(%v) = %d, expected %d", c.mm, got, c.dots)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	// Dots survive a round trip through millimeters exactly.
	for d := 0; d <= 1000; d++ {
		if got := MmToDots(DotsToMm(d)); got != d {
			t.Fatalf("round trip failed for %d dots: got %d", d, got)
		}
	}
}

func TestInBounds(t *testing.T) {
	if !InBounds(0, 0, 80, 50) {
		t.Error("Expected origin to be in bounds")
	}
	if !InBounds(640, 400, 80, 50) {
		t.Error("Expected far corner to be in bounds")
	}
	if InBounds(641, 0, 80, 50) {
		t.Error("Expected x past label edge to be out of bounds")
	}
	if InBounds(0, -1, 80, 50) {
		t.Error("Expected negative y to be out of bounds")
	}
}
