package onepole

import (
	"math"
	"testing"
)

func TestLowPassCoefficientClamped(t *testing.T) {
	lp := NewLowPass(1.5)
	if lp.Coefficient() != 1 {
		t.Fatalf("got %v want 1", lp.Coefficient())
	}

	lp.SetCoefficient(-0.5)

	if lp.Coefficient() != 0 {
		t.Fatalf("got %v want 0", lp.Coefficient())
	}

	lp.SetCoefficient(math.NaN())

	if lp.Coefficient() != 0 {
		t.Fatalf("NaN accepted: %v", lp.Coefficient())
	}
}

func TestLowPassZeroCoefficientPassesThrough(t *testing.T) {
	lp := NewLowPass(0)

	for _, x := range []float64{1, -0.5, 0.25} {
		if got := lp.ProcessSample(x); got != x {
			t.Fatalf("got %v want %v", got, x)
		}
	}
}

func TestLowPassDCConvergence(t *testing.T) {
	lp := NewLowPass(0.9)

	var y float64
	for i := 0; i < 1000; i++ {
		y = lp.ProcessSample(1)
	}

	if math.Abs(y-1) > 1e-9 {
		t.Fatalf("did not converge to DC: %v", y)
	}
}

func TestLowPassHigherCoefficientIsDarker(t *testing.T) {
	// For an impulse followed by zeros the tail decays by the coefficient
	// each step, so the darker filter has the slower relative decay. The
	// raw tail samples cannot be compared directly: the darker filter also
	// lets less of the impulse through in the first place.
	decayRatio := func(coefficient float64) float64 {
		lp := NewLowPass(coefficient)

		y1 := lp.ProcessSample(1)
		y2 := lp.ProcessSample(0)

		return y2 / y1
	}

	bright := decayRatio(0.3)

	dark := decayRatio(0.9)
	if dark <= bright {
		t.Fatalf("dark decay ratio %v not above bright %v", dark, bright)
	}

	if math.Abs(bright-0.3) > 1e-15 || math.Abs(dark-0.9) > 1e-15 {
		t.Fatalf("decay ratios (%v, %v) do not match coefficients", bright, dark)
	}
}

func TestHighPassValidation(t *testing.T) {
	if _, err := NewHighPass(0, 48000); err == nil {
		t.Fatal("expected error for zero cutoff")
	}

	if _, err := NewHighPass(100, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}

	if _, err := NewHighPass(math.NaN(), 48000); err == nil {
		t.Fatal("expected error for NaN cutoff")
	}
}

func TestHighPassAlphaFormula(t *testing.T) {
	hp, err := NewHighPass(200, 48000)
	if err != nil {
		t.Fatal(err)
	}

	rc := 1 / (2 * math.Pi * 200.0)
	want := rc / (rc + 1/48000.0)

	if math.Abs(hp.Alpha()-want) > 1e-15 {
		t.Fatalf("alpha: got %v want %v", hp.Alpha(), want)
	}
}

func TestHighPassBlocksDC(t *testing.T) {
	hp, err := NewHighPass(200, 48000)
	if err != nil {
		t.Fatal(err)
	}

	var y float64
	for i := 0; i < 48000; i++ {
		y = hp.ProcessSample(1)
	}

	if math.Abs(y) > 1e-6 {
		t.Fatalf("DC not blocked after 1 s: %v", y)
	}
}

func TestHighPassPassesHighFrequency(t *testing.T) {
	hp, err := NewHighPass(10, 48000)
	if err != nil {
		t.Fatal(err)
	}

	// 1 kHz sine, well above cutoff: output amplitude stays close to input.
	var peak float64
	for i := 0; i < 48000; i++ {
		x := math.Sin(2 * math.Pi * 1000 * float64(i) / 48000)
		y := hp.ProcessSample(x)

		if i > 4800 && math.Abs(y) > peak {
			peak = math.Abs(y)
		}
	}

	if peak < 0.95 {
		t.Fatalf("1 kHz attenuated too much: peak %v", peak)
	}
}

func TestReset(t *testing.T) {
	lp := NewLowPass(0.7)
	lp.ProcessSample(1)
	lp.Reset()

	if got := lp.ProcessSample(0); got != 0 {
		t.Fatalf("low-pass state survived reset: %v", got)
	}

	hp, _ := NewHighPass(100, 48000)
	hp.ProcessSample(1)
	hp.Reset()

	if got := hp.ProcessSample(0); got != 0 {
		t.Fatalf("high-pass state survived reset: %v", got)
	}
}
