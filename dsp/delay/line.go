// Package delay implements a fixed-size circular delay line with integer
// and linearly interpolated fractional taps.
package delay

import (
	"math"

	"github.com/cwbudde/algo-plateverb/dsp/interp"
)

// MinSize is the smallest usable line size. Requested sizes below it are
// promoted so that fractional reads always have valid neighbor taps.
const MinSize = 8

// Line is a circular delay line. The size is fixed at construction; the
// line is never resized, so steady-state processing performs no allocation.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line of fixed size. Sizes below MinSize are promoted
// to MinSize.
func New(size int) *Line {
	if size < MinSize {
		size = MinSize
	}

	return &Line{buffer: make([]float64, size)}
}

// Len returns the internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Write stores one sample and advances the write position.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample

	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the sample written tap steps ago. Read(1) is the most
// recently written sample. tap is clamped to [1, Len()-1].
func (d *Line) Read(tap int) float64 {
	size := len(d.buffer)

	if tap < 1 {
		tap = 1
	}

	if tap >= size {
		tap = size - 1
	}

	readPos := d.writePos - tap
	if readPos < 0 {
		readPos += size
	}

	return d.buffer[readPos]
}

// ReadLinear returns the linearly interpolated sample at a fractional tap.
// The tap is clamped to [1, Len()-2] so that both neighbor taps are valid.
func (d *Line) ReadLinear(tap float64) float64 {
	lo := 1.0
	hi := float64(len(d.buffer) - 2)

	if tap < lo {
		tap = lo
	}

	if tap > hi {
		tap = hi
	}

	t := int(math.Floor(tap))
	frac := tap - float64(t)

	return interp.Linear(frac, d.Read(t), d.Read(t+1))
}

// Reset zeroes the buffer and rewinds the write position.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}

	d.writePos = 0
}
