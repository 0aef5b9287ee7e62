// Package reverb implements a stereo plate-style reverb built from
// Schroeder primitives: damped feedback combs, modulated allpass
// diffusers, a predelay line, and a gated wet tail.
//
// Plate is the complete network; Comb, Allpass, and TailGate are exported
// for reuse in custom topologies. All processing is sample-accurate,
// allocation-free after construction, and fixed to the sample rate given
// at construction time.
//
// Build with the fastmath tag to swap the transcendental helpers for
// polynomial approximations.
package reverb
