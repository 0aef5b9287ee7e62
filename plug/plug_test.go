package plug

import (
	"math"
	"testing"
)

func connectStandard(t *testing.T, in *Instance, frames int) (input, left, right []float32) {
	t.Helper()

	input = make([]float32, frames)
	left = make([]float32, frames)
	right = make([]float32, frames)

	for port, buf := range map[int][]float32{
		PortAudioIn:       input,
		PortAudioOutLeft:  left,
		PortAudioOutRight: right,
	} {
		if err := in.ConnectPort(port, buf); err != nil {
			t.Fatalf("ConnectPort(%d): %v", port, err)
		}
	}

	return input, left, right
}

func connectControl(t *testing.T, in *Instance, port int, value float32) *float32 {
	t.Helper()

	v := value
	if err := in.ConnectPort(port, &v); err != nil {
		t.Fatalf("ConnectPort(%d): %v", port, err)
	}

	return &v
}

func TestInstantiateValidation(t *testing.T) {
	if _, err := Instantiate(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}

	if _, err := Instantiate(math.NaN()); err == nil {
		t.Fatal("expected error for NaN sample rate")
	}
}

func TestConnectPortValidation(t *testing.T) {
	in, err := Instantiate(48000)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	if err := in.ConnectPort(-1, make([]float32, 8)); err == nil {
		t.Fatal("expected error for negative port")
	}

	if err := in.ConnectPort(NumPorts, make([]float32, 8)); err == nil {
		t.Fatal("expected error for out-of-range port")
	}

	if err := in.ConnectPort(PortAudioIn, new(float32)); err == nil {
		t.Fatal("expected error for control buffer on audio port")
	}

	if err := in.ConnectPort(PortMix, make([]float32, 8)); err == nil {
		t.Fatal("expected error for audio buffer on control port")
	}

	if err := in.ConnectPort(PortMix, nil); err != nil {
		t.Fatalf("nil disconnect: %v", err)
	}
}

func TestRunDryPassthrough(t *testing.T) {
	in, err := Instantiate(48000)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	input, left, right := connectStandard(t, in, 256)
	connectControl(t, in, PortMix, 0)

	for i := range input {
		input[i] = float32(math.Sin(0.05 * float64(i)))
	}

	in.Activate()
	in.Run(len(input))

	for i := range input {
		if left[i] != input[i] || right[i] != input[i] {
			t.Fatalf("sample %d: (%v, %v) != input %v", i, left[i], right[i], input[i])
		}
	}
}

func TestRunWetOnsetThroughPorts(t *testing.T) {
	in, err := Instantiate(48000)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	const frames = 2048

	input, left, right := connectStandard(t, in, frames)
	connectControl(t, in, PortMix, 1)
	connectControl(t, in, PortPreDelay, 0)

	input[0] = 1

	in.Activate()
	in.Run(frames)

	onset := func(s []float32) int {
		for i, v := range s {
			if v != 0 {
				return i
			}
		}

		return -1
	}

	if got := onset(left); got != 1201 {
		t.Fatalf("left onset = %d, want 1201", got)
	}

	if got := onset(right); got != 1319 {
		t.Fatalf("right onset = %d, want 1319", got)
	}
}

func TestRunUsesDefaultsWhenDisconnected(t *testing.T) {
	in, err := Instantiate(48000)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	connectStandard(t, in, 64)
	in.Activate()
	in.Run(64)

	eng := in.Engine()
	if got := eng.Mix(); got != controlDefaults[PortMix] {
		t.Fatalf("mix = %v, want default %v", got, controlDefaults[PortMix])
	}

	if got := eng.RT60(); got != controlDefaults[PortRT60] {
		t.Fatalf("rt60 = %v, want default %v", got, controlDefaults[PortRT60])
	}
}

func TestRunSanitizesNonFiniteControls(t *testing.T) {
	in, err := Instantiate(48000)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	connectStandard(t, in, 64)
	rt60 := connectControl(t, in, PortRT60, float32(math.NaN()))

	in.Activate()
	in.Run(64)

	if got := in.Engine().RT60(); got != controlDefaults[PortRT60] {
		t.Fatalf("rt60 = %v, want default after NaN control", got)
	}

	*rt60 = float32(math.Inf(1))
	in.Run(64)

	if got := in.Engine().RT60(); got != controlDefaults[PortRT60] {
		t.Fatalf("rt60 = %v, want default after Inf control", got)
	}
}

func TestRunClampsOutOfRangeControls(t *testing.T) {
	in, err := Instantiate(48000)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	connectStandard(t, in, 64)
	connectControl(t, in, PortMix, 7)
	connectControl(t, in, PortSize, -3)

	in.Activate()
	in.Run(64)

	if got := in.Engine().Mix(); got != 1 {
		t.Fatalf("mix = %v, want clamp to 1", got)
	}

	if got := in.Engine().Size(); got != 0.5 {
		t.Fatalf("size = %v, want clamp to 0.5", got)
	}
}

func TestRunWithoutInputProducesSilence(t *testing.T) {
	in, err := Instantiate(48000)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	left := make([]float32, 128)
	right := make([]float32, 128)

	if err := in.ConnectPort(PortAudioOutLeft, left); err != nil {
		t.Fatalf("ConnectPort: %v", err)
	}

	if err := in.ConnectPort(PortAudioOutRight, right); err != nil {
		t.Fatalf("ConnectPort: %v", err)
	}

	in.Activate()
	in.Run(128)

	for i := range left {
		if left[i] != 0 || right[i] != 0 {
			t.Fatalf("sample %d: (%v, %v), want silence", i, left[i], right[i])
		}
	}
}

func TestRunLimitsToShortestBuffer(t *testing.T) {
	in, err := Instantiate(48000)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	input := make([]float32, 64)
	left := make([]float32, 32)
	right := make([]float32, 64)

	for i := range input {
		input[i] = 1
	}

	if err := in.ConnectPort(PortAudioIn, input); err != nil {
		t.Fatalf("ConnectPort: %v", err)
	}

	if err := in.ConnectPort(PortAudioOutLeft, left); err != nil {
		t.Fatalf("ConnectPort: %v", err)
	}

	if err := in.ConnectPort(PortAudioOutRight, right); err != nil {
		t.Fatalf("ConnectPort: %v", err)
	}

	in.Activate()
	in.Run(64)

	for i := 32; i < 64; i++ {
		if right[i] != 0 {
			t.Fatalf("sample %d written past shortest buffer", i)
		}
	}
}

func TestActivateClearsTail(t *testing.T) {
	in, err := Instantiate(48000)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	input, left, right := connectStandard(t, in, 4800)
	connectControl(t, in, PortMix, 1)

	for i := range input {
		input[i] = 0.5
	}

	in.Activate()
	in.Run(4800)

	for i := range input {
		input[i] = 0
	}

	in.Activate()
	in.Run(4800)

	for i := range left {
		if left[i] != 0 || right[i] != 0 {
			t.Fatalf("sample %d after re-activate: (%v, %v), want silence", i, left[i], right[i])
		}
	}
}

func TestCleanupDisconnects(t *testing.T) {
	in, err := Instantiate(48000)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	_, left, _ := connectStandard(t, in, 64)
	in.Activate()
	in.Cleanup()

	// Run after cleanup is a no-op on host buffers.
	in.Run(64)

	for i, v := range left {
		if v != 0 {
			t.Fatalf("sample %d written after cleanup: %v", i, v)
		}
	}
}
