package interp

import (
	"math"
	"testing"
)

func TestLinearEndpoints(t *testing.T) {
	if got := Linear(0, 2, 8); got != 2 {
		t.Fatalf("t=0: got %v want 2", got)
	}

	if got := Linear(1, 2, 8); got != 8 {
		t.Fatalf("t=1: got %v want 8", got)
	}

	if got := Linear(0.5, 2, 8); got != 5 {
		t.Fatalf("t=0.5: got %v want 5", got)
	}
}

func TestHermite4Ramp(t *testing.T) {
	// On a linear ramp cubic interpolation is exact.
	got := Hermite4(0.25, 1, 2, 3, 4)
	if math.Abs(got-2.25) > 1e-12 {
		t.Fatalf("got %v want 2.25", got)
	}
}

func TestHermite4DC(t *testing.T) {
	got := Hermite4(0.7, 42, 42, 42, 42)
	if math.Abs(got-42) > 1e-12 {
		t.Fatalf("got %v want 42", got)
	}
}

func TestHermite4Endpoints(t *testing.T) {
	if got := Hermite4(0, -1, 5, 9, 3); got != 5 {
		t.Fatalf("t=0: got %v want 5", got)
	}

	if got := Hermite4(1, -1, 5, 9, 3); math.Abs(got-9) > 1e-12 {
		t.Fatalf("t=1: got %v want 9", got)
	}
}
