// Package analysis holds post-run diagnostics for N-body trajectories.
//
//   - [DominantPeriod]: orbital period from an evenly sampled coordinate
//   - [PowerSpectrum]: magnitude spectrum behind it
//   - [LyapunovExponent]: largest exponent by trajectory separation
//
// A positive exponent over a long span indicates chaos:
//
//	lambda, err := analysis.LyapunovExponent(step, s0, 0, dt, steps, 1e-8)
package analysis
