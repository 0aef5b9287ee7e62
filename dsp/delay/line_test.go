package delay

import (
	"math"
	"testing"
)

func TestNewPromotesSmallSizes(t *testing.T) {
	for _, size := range []int{-4, 0, 1, 7} {
		d := New(size)
		if d.Len() != MinSize {
			t.Fatalf("size %d: got len %d want %d", size, d.Len(), MinSize)
		}
	}

	if got := New(16).Len(); got != 16 {
		t.Fatalf("got len %d want 16", got)
	}
}

func TestReadWrite(t *testing.T) {
	d := New(8)

	for i := 0; i < 8; i++ {
		d.Write(float64(i))
	}
	// tap=1 => most recently written (7)
	if got := d.Read(1); got != 7 {
		t.Fatalf("got %v want 7", got)
	}
	// tap=3 => 3 samples back from write head
	if got := d.Read(3); got != 5 {
		t.Fatalf("got %v want 5", got)
	}
}

func TestReadWraparound(t *testing.T) {
	d := New(8)

	for i := 0; i < 20; i++ {
		d.Write(float64(i))
	}

	if got := d.Read(1); got != 19 {
		t.Fatalf("got %v want 19", got)
	}

	if got := d.Read(7); got != 13 {
		t.Fatalf("got %v want 13", got)
	}
}

func TestReadClampsTap(t *testing.T) {
	d := New(8)

	for i := 0; i < 8; i++ {
		d.Write(float64(i + 1))
	}
	// tap below 1 clamps to 1 (most recent)
	if got := d.Read(0); got != 8 {
		t.Fatalf("tap 0: got %v want 8", got)
	}
	// tap beyond the buffer clamps to size-1
	if got := d.Read(100); got != d.Read(7) {
		t.Fatalf("tap 100: got %v want %v", got, d.Read(7))
	}
}

func fillRamp(d *Line) {
	for i := 0; i < d.Len(); i++ {
		d.Write(float64(i))
	}
}

func TestReadLinearRampExact(t *testing.T) {
	d := New(32)
	fillRamp(d)
	// On a linear ramp interpolation is exact: tap k reads size-k.
	got := d.ReadLinear(5.5)

	want := float64(d.Len()) - 5.5
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestReadLinearIntegerTapMatchesRead(t *testing.T) {
	d := New(32)
	fillRamp(d)

	if got, want := d.ReadLinear(7.0), d.Read(7); got != want {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestReadLinearClamped(t *testing.T) {
	d := New(16)
	fillRamp(d)

	if got := d.ReadLinear(-3.0); math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("negative tap produced %v", got)
	}

	if got := d.ReadLinear(1e9); math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("huge tap produced %v", got)
	}
}

func TestReset(t *testing.T) {
	d := New(8)
	d.Write(1)
	d.Write(2)
	d.Reset()

	for tap := 1; tap < d.Len(); tap++ {
		if got := d.Read(tap); got != 0 {
			t.Fatalf("after reset Read(%d): got %v want 0", tap, got)
		}
	}
}

func BenchmarkWriteRead(b *testing.B) {
	d := New(4096)

	for i := 0; i < b.N; i++ {
		d.Write(float64(i))
		_ = d.Read(1201)
	}
}

func BenchmarkReadLinear(b *testing.B) {
	d := New(4096)
	fillRamp(d)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = d.ReadLinear(423.37)
	}
}
