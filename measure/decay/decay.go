// Package decay measures reverberation decay from rendered impulse
// responses. The decay curve comes from Schroeder backward integration of
// the squared response; reverberation times are linear-regression fits on
// that curve extrapolated to -60 dB.
package decay

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

var (
	ErrEmptyResponse = errors.New("decay: response is empty")
	ErrNoDecay       = errors.New("decay: response does not decay")
)

// Curve floor in dB for bins with no remaining energy.
const curveFloorDB = -200

// Metrics holds decay measurements for one channel of a rendered
// impulse response.
type Metrics struct {
	// RT60 is the reverberation time in seconds, taken from T30 when the
	// response decays far enough and from T20 otherwise.
	RT60 float64

	// EDT is the early decay time: the 0 to -10 dB slope extrapolated
	// to -60 dB.
	EDT float64

	// T20 and T30 are the -5 to -25 dB and -5 to -35 dB slopes
	// extrapolated to -60 dB. Zero means the range was not reached.
	T20 float64
	T30 float64

	// Onset is the index of the first sample within 20 dB of the peak.
	Onset int
}

// Analyzer measures decay metrics at a fixed sample rate.
type Analyzer struct {
	sampleRate float64
}

// NewAnalyzer creates a decay analyzer.
func NewAnalyzer(sampleRate float64) (*Analyzer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("decay: sample rate must be > 0: %v", sampleRate)
	}

	return &Analyzer{sampleRate: sampleRate}, nil
}

// SampleRate returns the analyzer sample rate in Hz.
func (a *Analyzer) SampleRate() float64 { return a.sampleRate }

// Analyze measures one channel. The response should contain the full tail;
// analysis starts at the detected onset.
func (a *Analyzer) Analyze(response []float64) (Metrics, error) {
	if len(response) == 0 {
		return Metrics{}, ErrEmptyResponse
	}

	onset := a.findOnset(response)
	curve := a.decayCurve(response[onset:])

	m := Metrics{
		Onset: onset,
		EDT:   a.fitDecayTime(curve, 0, -10),
		T20:   a.fitDecayTime(curve, -5, -25),
		T30:   a.fitDecayTime(curve, -5, -35),
	}

	if m.T30 > 0 {
		m.RT60 = m.T30
	} else {
		m.RT60 = m.T20
	}

	if m.RT60 <= 0 {
		return Metrics{}, ErrNoDecay
	}

	return m, nil
}

// AnalyzeStereo measures both channels of a stereo render.
func (a *Analyzer) AnalyzeStereo(left, right []float64) (l, r Metrics, err error) {
	l, err = a.Analyze(left)
	if err != nil {
		return Metrics{}, Metrics{}, err
	}

	r, err = a.Analyze(right)
	if err != nil {
		return Metrics{}, Metrics{}, err
	}

	return l, r, nil
}

// DecayCurve returns the Schroeder backward integral of the squared
// response, normalised to 0 dB at the start and floored at -200 dB.
func (a *Analyzer) DecayCurve(response []float64) ([]float64, error) {
	if len(response) == 0 {
		return nil, ErrEmptyResponse
	}

	return a.decayCurve(response), nil
}

func (a *Analyzer) decayCurve(response []float64) []float64 {
	n := len(response)

	curve := make([]float64, n)
	vecmath.MulBlock(curve, response, response)

	var sum float64
	for i := n - 1; i >= 0; i-- {
		sum += curve[i]
		curve[i] = sum
	}

	total := curve[0]
	if total <= 0 {
		for i := range curve {
			curve[i] = curveFloorDB
		}

		return curve
	}

	for i, v := range curve {
		ratio := v / total
		if ratio <= 0 {
			curve[i] = curveFloorDB
		} else {
			curve[i] = 10 * math.Log10(ratio)
		}
	}

	return curve
}

// fitDecayTime fits a line to the curve between startDB and endDB and
// extrapolates the slope to -60 dB. Returns 0 when the range is not
// reached or the fit does not decay.
func (a *Analyzer) fitDecayTime(curve []float64, startDB, endDB float64) float64 {
	start, end := -1, -1

	for i, v := range curve {
		if start < 0 && v <= startDB {
			start = i
		}

		if start >= 0 && v <= endDB {
			end = i
			break
		}
	}

	if start < 0 || end <= start {
		return 0
	}

	var sumX, sumY, sumXX, sumXY float64

	for i := start; i <= end; i++ {
		x := float64(i - start)
		y := curve[i]
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}

	n := float64(end - start + 1)

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}

	slope := (n*sumXY - sumX*sumY) / denom
	if slope >= 0 {
		return 0
	}

	return -60 / (slope * a.sampleRate)
}

// findOnset returns the first index within 20 dB of the response peak.
func (a *Analyzer) findOnset(response []float64) int {
	peak := 0.0

	for _, v := range response {
		if av := math.Abs(v); av > peak {
			peak = av
		}
	}

	threshold := peak * 0.1
	for i, v := range response {
		if math.Abs(v) >= threshold {
			return i
		}
	}

	return 0
}
