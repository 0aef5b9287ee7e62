// Package plug exposes the plate reverb through a C-plugin style
// lifecycle: instantiate, connect ports, activate, run blocks, cleanup.
// Hosts stream float32 audio and supply float32 control values; the
// package translates both to the float64 engine per block.
package plug

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-plateverb/dsp/reverb"
)

// Port indices. One mono input, a stereo output pair, and one control
// port per reverb parameter.
const (
	PortAudioIn = iota
	PortAudioOutLeft
	PortAudioOutRight
	PortMix
	PortPreDelay
	PortRT60
	PortDamping
	PortDiffusion
	PortSize
	PortGate
	PortModDepth
	PortModRate
	PortLowCut
	PortGrit

	NumPorts
)

// controlDefaults holds the value used when a control port is
// disconnected or carries a non-finite value.
var controlDefaults = [NumPorts]float64{
	PortMix:       0.25,
	PortPreDelay:  20,
	PortRT60:      2.5,
	PortDamping:   0.5,
	PortDiffusion: 0.7,
	PortSize:      1,
	PortGate:      0,
	PortModDepth:  1,
	PortModRate:   0.5,
	PortLowCut:    10,
	PortGrit:      0,
}

// Instance is one plugin instance. It is not safe for concurrent use;
// hosts call Run from a single audio thread.
type Instance struct {
	engine *reverb.Plate

	audioIn  []float32
	outLeft  []float32
	outRight []float32

	controls [NumPorts]*float32

	scratchIn    []float64
	scratchLeft  []float64
	scratchRight []float64
}

// Instantiate creates an instance for a fixed sample rate. Ports start
// disconnected; control ports read their defaults until connected.
func Instantiate(sampleRate float64) (*Instance, error) {
	engine, err := reverb.NewPlate(sampleRate)
	if err != nil {
		return nil, err
	}

	return &Instance{engine: engine}, nil
}

// ConnectPort attaches a host buffer to a port. Audio ports take
// []float32, control ports take *float32; nil disconnects either kind.
// Buffers may be swapped between Run calls.
func (in *Instance) ConnectPort(port int, data any) error {
	if port < 0 || port >= NumPorts {
		return fmt.Errorf("plug: port index out of range: %d", port)
	}

	switch port {
	case PortAudioIn, PortAudioOutLeft, PortAudioOutRight:
		buf, ok := data.([]float32)
		if data != nil && !ok {
			return fmt.Errorf("plug: audio port %d needs []float32, got %T", port, data)
		}

		switch port {
		case PortAudioIn:
			in.audioIn = buf
		case PortAudioOutLeft:
			in.outLeft = buf
		case PortAudioOutRight:
			in.outRight = buf
		}
	default:
		ptr, ok := data.(*float32)
		if data != nil && !ok {
			return fmt.Errorf("plug: control port %d needs *float32, got %T", port, data)
		}

		in.controls[port] = ptr
	}

	return nil
}

// Activate clears all reverb state. Parameter values persist across an
// activate cycle.
func (in *Instance) Activate() {
	in.engine.Reset()
}

// controlValue reads a control port, substituting the default for
// disconnected ports and non-finite values. Range clamping happens in
// the engine setters.
func (in *Instance) controlValue(port int) float64 {
	ptr := in.controls[port]
	if ptr == nil {
		return controlDefaults[port]
	}

	v := float64(*ptr)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return controlDefaults[port]
	}

	return v
}

// applyControls pushes the sanitised control snapshot into the engine.
// Every value is finite by now, so the setters cannot fail.
func (in *Instance) applyControls() {
	_ = in.engine.SetMix(in.controlValue(PortMix))
	_ = in.engine.SetPreDelay(in.controlValue(PortPreDelay))
	_ = in.engine.SetRT60(in.controlValue(PortRT60))
	_ = in.engine.SetDamping(in.controlValue(PortDamping))
	_ = in.engine.SetDiffusion(in.controlValue(PortDiffusion))
	_ = in.engine.SetSize(in.controlValue(PortSize))
	_ = in.engine.SetGateAmount(in.controlValue(PortGate))
	_ = in.engine.SetModDepth(in.controlValue(PortModDepth))
	_ = in.engine.SetModRate(in.controlValue(PortModRate))
	_ = in.engine.SetLowCut(in.controlValue(PortLowCut))
	_ = in.engine.SetGrit(in.controlValue(PortGrit))
}

// Run renders up to frames samples. The frame count is limited to the
// shortest connected audio buffer; a disconnected input reads silence
// and disconnected outputs are skipped.
func (in *Instance) Run(frames int) {
	if frames <= 0 {
		return
	}

	if in.audioIn != nil && len(in.audioIn) < frames {
		frames = len(in.audioIn)
	}

	if in.outLeft != nil && len(in.outLeft) < frames {
		frames = len(in.outLeft)
	}

	if in.outRight != nil && len(in.outRight) < frames {
		frames = len(in.outRight)
	}

	if frames <= 0 {
		return
	}

	in.applyControls()
	in.growScratch(frames)

	src := in.scratchIn[:frames]
	if in.audioIn != nil {
		for i := 0; i < frames; i++ {
			src[i] = float64(in.audioIn[i])
		}
	} else {
		for i := range src {
			src[i] = 0
		}
	}

	left := in.scratchLeft[:frames]
	right := in.scratchRight[:frames]
	in.engine.Process(src, left, right)

	if in.outLeft != nil {
		for i := 0; i < frames; i++ {
			in.outLeft[i] = float32(left[i])
		}
	}

	if in.outRight != nil {
		for i := 0; i < frames; i++ {
			in.outRight[i] = float32(right[i])
		}
	}
}

// growScratch sizes the conversion buffers. Steady-state Run calls with a
// stable block size never allocate.
func (in *Instance) growScratch(frames int) {
	if cap(in.scratchIn) < frames {
		in.scratchIn = make([]float64, frames)
		in.scratchLeft = make([]float64, frames)
		in.scratchRight = make([]float64, frames)
	}
}

// Deactivate pairs with Activate. State cleanup happens on the next
// Activate, so nothing to do here.
func (in *Instance) Deactivate() {}

// Cleanup disconnects every port and drops the conversion buffers. The
// instance must not be run afterwards.
func (in *Instance) Cleanup() {
	in.audioIn = nil
	in.outLeft = nil
	in.outRight = nil

	for i := range in.controls {
		in.controls[i] = nil
	}

	in.scratchIn = nil
	in.scratchLeft = nil
	in.scratchRight = nil
}

// Engine exposes the underlying reverb, mainly for offline rendering
// fronts that want float64 access.
func (in *Instance) Engine() *reverb.Plate {
	return in.engine
}
