package decay

import (
	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// MagnitudeSpectrum returns the magnitudes of the non-negative-frequency
// bins of response, zero-padded to the next power of two. Bin i covers
// frequency i*sampleRate/fftSize with fftSize = 2*(len(result)-1).
func MagnitudeSpectrum(response []float64) ([]float64, error) {
	if len(response) == 0 {
		return nil, ErrEmptyResponse
	}

	size := 1
	for size < len(response) {
		size <<= 1
	}

	in := make([]complex128, size)
	for i, v := range response {
		in[i] = complex(v, 0)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, err
	}

	out := make([]complex128, size)
	if err := plan.Forward(out, in); err != nil {
		return nil, err
	}

	half := size/2 + 1
	re := make([]float64, half)
	im := make([]float64, half)

	for i := 0; i < half; i++ {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}

	mags := make([]float64, half)
	vecmath.Magnitude(mags, re, im)

	return mags, nil
}

// SpectralCentroid returns the magnitude-weighted mean frequency in Hz of
// a spectrum produced by MagnitudeSpectrum. A darker tail gives a lower
// centroid.
func SpectralCentroid(mags []float64, sampleRate float64) float64 {
	if len(mags) < 2 || sampleRate <= 0 {
		return 0
	}

	binWidth := sampleRate / float64(2*(len(mags)-1))

	var weighted, total float64
	for i, m := range mags {
		weighted += float64(i) * binWidth * m
		total += m
	}

	if total <= 0 {
		return 0
	}

	return weighted / total
}
