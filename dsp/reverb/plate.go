package reverb

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-plateverb/dsp/core"
	"github.com/cwbudde/algo-plateverb/dsp/delay"
	"github.com/cwbudde/algo-plateverb/dsp/filter/onepole"
)

const (
	numCombs     = 4
	numAllpasses = 2

	// Base delay tables are calibrated at 48 kHz and scaled linearly to
	// the instance rate.
	referenceSampleRate = 48000.0

	// Buffer caps, in seconds, plus a small pad. Predelay control tops out
	// at 200 ms; the allpass cap leaves room for the modulation swing.
	maxPreDelaySeconds = 0.220
	maxCombSeconds     = 0.080
	maxAllpassSeconds  = 0.050
	delayBufferPad     = 4

	minCombDelay    = 16
	minAllpassDelay = 8

	// Allpass taps stay this far below the buffer size so the modulation
	// swing never reaches the clamp in ProcessSampleModulated.
	allpassModHeadroom = 250

	defaultMix        = 0.25
	defaultPreDelayMs = 20.0
	defaultRT60       = 2.5
	defaultDamping    = 0.5
	defaultDiffusion  = 0.7
	defaultSize       = 1.0
	defaultGateAmount = 0.0
	defaultModDepthMs = 1.0
	defaultModRateHz  = 0.5
	defaultLowCutHz   = 10.0
	defaultGrit       = 0.0

	minPreDelayMs = 0.0
	maxPreDelayMs = 200.0
	minPlateRT60  = 0.1
	maxPlateRT60  = 20.0
	minSize       = 0.5
	maxSize       = 1.5
	minModDepthMs = 0.0
	maxModDepthMs = 5.0
	minModRateHz  = 0.0
	maxModRateHz  = 5.0
	minLowCutHz   = 10.0
	maxLowCutHz   = 1000.0

	// Gate knob values at or below this leave the gate disabled.
	gateEnableEpsilon = 1e-4

	// Grit values at or below this bypass the saturation stage entirely.
	gritEnableEpsilon = 0.001

	// Drive gain is 1 + gritDriveRange*grit.
	gritDriveRange = 11.0

	// Diffusion knob maps to allpass coefficient 0.3 + 0.55*diffusion.
	diffusionCoeffBase = 0.3
	diffusionCoeffSpan = 0.55

	// Damping knob maps to in-loop low-pass coefficient 0.5 + 0.48*damping.
	dampingCoeffBase = 0.5
	dampingCoeffSpan = 0.48
)

// Base delay lengths in samples at 48 kHz. Pairwise near-coprime to spread
// the comb modes; left and right differ to decorrelate the channels.
var (
	baseCombLeft  = [numCombs]int{1201, 1553, 1867, 2203}
	baseCombRight = [numCombs]int{1319, 1613, 1973, 2411}

	baseAllpassLeft  = [numAllpasses]int{239, 421}
	baseAllpassRight = [numAllpasses]int{263, 463}
)

// Plate is a stereo plate-style reverb.
//
// The wet path is predelay, one-pole high-pass, optional tanh drive, four
// parallel damped combs per channel, two modulated allpass diffusers per
// channel, and an optional gate on the tail. The output is a linear
// dry/wet crossfade against the unprocessed input.
//
// Parameter changes are block-quantised: setters only record the value,
// and the derived per-sample coefficients are refreshed at the start of
// the next Process call (or lazily by ProcessSample). Processing performs
// no allocation; all buffers are sized at construction for the fixed
// sample rate.
type Plate struct {
	sampleRate float64

	mix        float64
	preDelayMs float64
	rt60       float64
	damping    float64
	diffusion  float64
	size       float64
	gateAmount float64
	modDepthMs float64
	modRateHz  float64
	lowCutHz   float64
	grit       float64

	dirty bool

	preDelay *delay.Line
	highpass *onepole.HighPass

	combLeft  [numCombs]*Comb
	combRight [numCombs]*Comb

	allpassLeft  [numAllpasses]*Allpass
	allpassRight [numAllpasses]*Allpass

	gate *TailGate

	scaledCombLeft  [numCombs]int
	scaledCombRight [numCombs]int

	scaledAllpassLeft  [numAllpasses]int
	scaledAllpassRight [numAllpasses]int

	// Block-quantised coefficients.
	preDelaySamples int
	driveGain       float64
	gritActive      bool
	gateActive      bool
	lfoIncrement    float64
	modDepthSamples float64

	lfoPhase float64
}

// NewPlate creates a plate reverb for a fixed sample rate. All delay
// buffers are allocated here; the audio path never allocates.
func NewPlate(sampleRate float64) (*Plate, error) {
	if sampleRate < 1 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("plate reverb sample rate must be >= 1: %f", sampleRate)
	}

	p := &Plate{
		sampleRate: sampleRate,
		mix:        defaultMix,
		preDelayMs: defaultPreDelayMs,
		rt60:       defaultRT60,
		damping:    defaultDamping,
		diffusion:  defaultDiffusion,
		size:       defaultSize,
		gateAmount: defaultGateAmount,
		modDepthMs: defaultModDepthMs,
		modRateHz:  defaultModRateHz,
		lowCutHz:   defaultLowCutHz,
		grit:       defaultGrit,
		dirty:      true,
	}

	p.preDelay = delay.New(int(maxPreDelaySeconds*sampleRate) + delayBufferPad)

	hp, err := onepole.NewHighPass(defaultLowCutHz, sampleRate)
	if err != nil {
		return nil, err
	}

	p.highpass = hp

	combLen := int(maxCombSeconds*sampleRate) + delayBufferPad
	allpassLen := int(maxAllpassSeconds*sampleRate) + delayBufferPad

	for i := 0; i < numCombs; i++ {
		p.combLeft[i] = NewComb(combLen)
		p.combRight[i] = NewComb(combLen)

		p.scaledCombLeft[i] = p.scaleBaseDelay(baseCombLeft[i], minCombDelay)
		p.scaledCombRight[i] = p.scaleBaseDelay(baseCombRight[i], minCombDelay)
	}

	for i := 0; i < numAllpasses; i++ {
		p.allpassLeft[i] = NewAllpass(allpassLen)
		p.allpassRight[i] = NewAllpass(allpassLen)

		p.scaledAllpassLeft[i] = p.scaleBaseDelay(baseAllpassLeft[i], minAllpassDelay)
		p.scaledAllpassRight[i] = p.scaleBaseDelay(baseAllpassRight[i], minAllpassDelay)
	}

	p.gate, err = NewTailGate(sampleRate)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// scaleBaseDelay converts a 48 kHz reference length to the instance rate.
func (p *Plate) scaleBaseDelay(reference, floor int) int {
	d := int(math.Round(float64(reference) * p.sampleRate / referenceSampleRate))
	if d < floor {
		d = floor
	}

	return d
}

// SetMix sets the dry/wet crossfade in [0,1]. Out-of-range values clamp;
// non-finite values are rejected.
func (p *Plate) SetMix(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("plate reverb mix must be finite: %f", v)
	}

	p.mix = core.Clamp(v, 0, 1)
	p.dirty = true

	return nil
}

// SetPreDelay sets the wet-path predelay in milliseconds, clamped to
// [0, 200].
func (p *Plate) SetPreDelay(ms float64) error {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return fmt.Errorf("plate reverb predelay must be finite: %f", ms)
	}

	p.preDelayMs = core.Clamp(ms, minPreDelayMs, maxPreDelayMs)
	p.dirty = true

	return nil
}

// SetRT60 sets the decay time to -60 dB in seconds, clamped to [0.1, 20].
func (p *Plate) SetRT60(seconds float64) error {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("plate reverb RT60 must be finite: %f", seconds)
	}

	p.rt60 = core.Clamp(seconds, minPlateRT60, maxPlateRT60)
	p.dirty = true

	return nil
}

// SetDamping sets high-frequency tail damping in [0,1].
func (p *Plate) SetDamping(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("plate reverb damping must be finite: %f", v)
	}

	p.damping = core.Clamp(v, 0, 1)
	p.dirty = true

	return nil
}

// SetDiffusion sets echo density in [0,1].
func (p *Plate) SetDiffusion(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("plate reverb diffusion must be finite: %f", v)
	}

	p.diffusion = core.Clamp(v, 0, 1)
	p.dirty = true

	return nil
}

// SetSize scales every base delay length, clamped to [0.5, 1.5].
func (p *Plate) SetSize(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("plate reverb size must be finite: %f", v)
	}

	p.size = core.Clamp(v, minSize, maxSize)
	p.dirty = true

	return nil
}

// SetGateAmount sets the gate knob in [0,1]. Zero disables the gate;
// above zero the opening threshold maps linearly from -60 dB to 0 dB.
func (p *Plate) SetGateAmount(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("plate reverb gate amount must be finite: %f", v)
	}

	p.gateAmount = core.Clamp(v, 0, 1)
	p.dirty = true

	return nil
}

// SetModDepth sets the diffuser tap modulation depth in milliseconds,
// clamped to [0, 5].
func (p *Plate) SetModDepth(ms float64) error {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return fmt.Errorf("plate reverb mod depth must be finite: %f", ms)
	}

	p.modDepthMs = core.Clamp(ms, minModDepthMs, maxModDepthMs)
	p.dirty = true

	return nil
}

// SetModRate sets the modulation LFO rate in Hz, clamped to [0, 5].
func (p *Plate) SetModRate(hz float64) error {
	if math.IsNaN(hz) || math.IsInf(hz, 0) {
		return fmt.Errorf("plate reverb mod rate must be finite: %f", hz)
	}

	p.modRateHz = core.Clamp(hz, minModRateHz, maxModRateHz)
	p.dirty = true

	return nil
}

// SetLowCut sets the wet-path high-pass cutoff in Hz, clamped to
// [10, 1000].
func (p *Plate) SetLowCut(hz float64) error {
	if math.IsNaN(hz) || math.IsInf(hz, 0) {
		return fmt.Errorf("plate reverb low cut must be finite: %f", hz)
	}

	p.lowCutHz = core.Clamp(hz, minLowCutHz, maxLowCutHz)
	p.dirty = true

	return nil
}

// SetGrit sets input-stage saturation in [0,1]. Zero bypasses the drive
// stage.
func (p *Plate) SetGrit(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("plate reverb grit must be finite: %f", v)
	}

	p.grit = core.Clamp(v, 0, 1)
	p.dirty = true

	return nil
}

// SampleRate returns the fixed sample rate in Hz.
func (p *Plate) SampleRate() float64 { return p.sampleRate }

// Mix returns the dry/wet crossfade.
func (p *Plate) Mix() float64 { return p.mix }

// PreDelay returns the predelay in milliseconds.
func (p *Plate) PreDelay() float64 { return p.preDelayMs }

// RT60 returns the decay time in seconds.
func (p *Plate) RT60() float64 { return p.rt60 }

// Damping returns the damping amount.
func (p *Plate) Damping() float64 { return p.damping }

// Diffusion returns the diffusion amount.
func (p *Plate) Diffusion() float64 { return p.diffusion }

// Size returns the delay scale factor.
func (p *Plate) Size() float64 { return p.size }

// GateAmount returns the gate knob value.
func (p *Plate) GateAmount() float64 { return p.gateAmount }

// ModDepth returns the modulation depth in milliseconds.
func (p *Plate) ModDepth() float64 { return p.modDepthMs }

// ModRate returns the modulation rate in Hz.
func (p *Plate) ModRate() float64 { return p.modRateHz }

// LowCut returns the high-pass cutoff in Hz.
func (p *Plate) LowCut() float64 { return p.lowCutHz }

// Grit returns the saturation amount.
func (p *Plate) Grit() float64 { return p.grit }

// updateCoefficients maps the current parameter snapshot to per-sample
// coefficients. Within a block everything derived here is constant.
func (p *Plate) updateCoefficients() {
	pre := int(math.Round(p.preDelayMs * 0.001 * p.sampleRate))
	p.preDelaySamples = core.ClampInt(pre, 0, p.preDelay.Len()-1)

	apCoeff := diffusionCoeffBase + diffusionCoeffSpan*p.diffusion
	lpCoeff := dampingCoeffBase + dampingCoeffSpan*p.damping

	for i := 0; i < numCombs; i++ {
		dl := int(math.Round(float64(p.scaledCombLeft[i]) * p.size))
		dr := int(math.Round(float64(p.scaledCombRight[i]) * p.size))

		left := p.combLeft[i]
		right := p.combRight[i]

		left.SetDelay(core.ClampInt(dl, minCombDelay, left.Len()-1))
		right.SetDelay(core.ClampInt(dr, minCombDelay, right.Len()-1))

		left.SetFeedback(CombGainFromRT60(p.rt60, left.Delay(), p.sampleRate))
		right.SetFeedback(CombGainFromRT60(p.rt60, right.Delay(), p.sampleRate))

		left.SetDamping(lpCoeff)
		right.SetDamping(lpCoeff)
	}

	for i := 0; i < numAllpasses; i++ {
		dl := int(math.Round(float64(p.scaledAllpassLeft[i]) * p.size))
		dr := int(math.Round(float64(p.scaledAllpassRight[i]) * p.size))

		left := p.allpassLeft[i]
		right := p.allpassRight[i]

		left.SetDelay(core.ClampInt(dl, minAllpassDelay, left.Len()-allpassModHeadroom))
		right.SetDelay(core.ClampInt(dr, minAllpassDelay, right.Len()-allpassModHeadroom))

		left.SetCoefficient(apCoeff)
		right.SetCoefficient(apCoeff)
	}

	p.gateActive = p.gateAmount > gateEnableEpsilon
	if p.gateActive {
		thresholdDB := -60 + 60*p.gateAmount
		p.gate.SetThreshold(mathPow10(thresholdDB / 20))
	} else {
		// A disabled gate holds unity gain; clearing here also keeps a
		// later enable from resuming a stale closed gain.
		p.gate.Reset()
	}

	// SetCutoff cannot fail here: lowCutHz and sampleRate are clamped
	// positive finite.
	_ = p.highpass.SetCutoff(p.lowCutHz, p.sampleRate)

	p.gritActive = p.grit > gritEnableEpsilon
	p.driveGain = 1 + gritDriveRange*p.grit

	p.lfoIncrement = 2 * math.Pi * p.modRateHz / p.sampleRate
	p.modDepthSamples = p.modDepthMs * 0.001 * p.sampleRate

	p.dirty = false
}

// ProcessSample renders one input sample into a stereo pair.
func (p *Plate) ProcessSample(input float64) (left, right float64) {
	if p.dirty {
		p.updateCoefficients()
	}

	return p.renderSample(input)
}

// Process renders input into the two output buffers. The parameter
// snapshot is mapped to coefficients once for the whole block. All three
// slices should have the same length; extra output samples are left
// untouched.
func (p *Plate) Process(input, outLeft, outRight []float64) {
	p.updateCoefficients()

	n := len(input)
	if len(outLeft) < n {
		n = len(outLeft)
	}

	if len(outRight) < n {
		n = len(outRight)
	}

	for i := 0; i < n; i++ {
		outLeft[i], outRight[i] = p.renderSample(input[i])
	}
}

func (p *Plate) renderSample(x float64) (left, right float64) {
	// Write first, read at tap+1: with zero predelay the read still
	// returns the sample just written instead of a stale slot.
	p.preDelay.Write(x)
	w := p.preDelay.Read(p.preDelaySamples + 1)

	w = p.highpass.ProcessSample(w)

	if p.gritActive {
		w = mathTanh(w * p.driveGain)
	}

	// The previous sample's gate gain also starves the comb loops, so a
	// closed gate cuts the tank instead of merely muting the output.
	scale := 1.0
	if p.gateActive {
		scale = p.gate.Gain()
	}

	var sumLeft, sumRight float64
	for i := 0; i < numCombs; i++ {
		sumLeft += p.combLeft[i].ProcessSample(w, scale)
		sumRight += p.combRight[i].ProcessSample(w, scale)
	}

	sumLeft *= 1.0 / numCombs
	sumRight *= 1.0 / numCombs

	p.lfoPhase += p.lfoIncrement
	if p.lfoPhase >= 2*math.Pi {
		p.lfoPhase -= 2 * math.Pi
	}

	yLeft, yRight := sumLeft, sumRight

	if p.modDepthSamples > 0 {
		// Quadrature modulation (sin left, cos right) widens the image;
		// polarity alternates across the chain.
		modLeft := p.modDepthSamples * math.Sin(p.lfoPhase)
		modRight := p.modDepthSamples * math.Cos(p.lfoPhase)

		polarity := 1.0
		for i := 0; i < numAllpasses; i++ {
			yLeft = p.allpassLeft[i].ProcessSampleModulated(yLeft, polarity*modLeft)
			yRight = p.allpassRight[i].ProcessSampleModulated(yRight, polarity*modRight)
			polarity = -polarity
		}
	} else {
		for i := 0; i < numAllpasses; i++ {
			yLeft = p.allpassLeft[i].ProcessSample(yLeft)
			yRight = p.allpassRight[i].ProcessSample(yRight)
		}
	}

	if p.gateActive {
		trigger := math.Abs(yLeft)
		if r := math.Abs(yRight); r > trigger {
			trigger = r
		}

		gain := p.gate.ProcessSample(trigger)
		yLeft *= gain
		yRight *= gain
	}

	left = (1-p.mix)*x + p.mix*yLeft
	right = (1-p.mix)*x + p.mix*yRight

	return left, right
}

// Reset zeroes every delay buffer and filter memory, reopens the gate,
// and rewinds the LFO. Parameter values are kept.
func (p *Plate) Reset() {
	p.preDelay.Reset()
	p.highpass.Reset()

	for i := 0; i < numCombs; i++ {
		p.combLeft[i].Reset()
		p.combRight[i].Reset()
	}

	for i := 0; i < numAllpasses; i++ {
		p.allpassLeft[i].Reset()
		p.allpassRight[i].Reset()
	}

	p.gate.Reset()
	p.lfoPhase = 0
	p.dirty = true
}
