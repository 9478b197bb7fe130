package dsp

import (
	"fmt"
	"math"
	"math/cmplx"
)

// ButterBandpass designs a digital Butterworth band-pass filter of the
// given order via the analog prototype and bilinear transform. low and
// high are the band edges in Hz, fs the sampling rate. The returned b
// (numerator) and a (denominator) coefficients have length 2*order+1.
func ButterBandpass(order int, low, high, fs float64) (b, a []float64, err error) {
	if order < 1 {
		return nil, nil, fmt.Errorf("filter order must be positive, got %d", order)
	}
	nyq := fs / 2
	if low <= 0 || high >= nyq || low >= high {
		return nil, nil, fmt.Errorf("band edges %g..%g Hz invalid for fs=%g", low, high, fs)
	}

	// Prewarped analog band edges. The bilinear transform below uses a
	// normalized fs2 = 4 (two times the conventional fs=2), matching the
	// usual normalized-frequency design.
	const fs2 = 4.0
	wl := fs2 * math.Tan(math.Pi*low/fs)
	wh := fs2 * math.Tan(math.Pi*high/fs)
	bw := wh - wl
	w0 := math.Sqrt(wl * wh)

	// Analog low-pass Butterworth prototype: order poles on the unit
	// circle in the left half-plane, no finite zeros, unit gain.
	proto := make([]complex128, order)
	for k := 0; k < order; k++ {
		theta := math.Pi * float64(2*k+order+1) / float64(2*order)
		proto[k] = cmplx.Exp(complex(0, theta))
	}

	// Low-pass to band-pass: each prototype pole maps to a conjugate pair;
	// order zeros appear at s=0.
	poles := make([]complex128, 0, 2*order)
	for _, p := range proto {
		ps := p * complex(bw/2, 0)
		d := cmplx.Sqrt(ps*ps - complex(w0*w0, 0))
		poles = append(poles, ps+d, ps-d)
	}
	gain := math.Pow(bw, float64(order))

	// Bilinear transform. Analog zeros at s=0 map to z=1; the remaining
	// order zeros at infinity map to z=-1.
	zZeros := make([]complex128, 0, 2*order)
	for i := 0; i < order; i++ {
		zZeros = append(zZeros, 1)
	}
	for i := 0; i < order; i++ {
		zZeros = append(zZeros, -1)
	}

	zPoles := make([]complex128, len(poles))
	gainNum := complex(gain, 0)
	gainDen := complex(1, 0)
	for i, p := range poles {
		zPoles[i] = (complex(fs2, 0) + p) / (complex(fs2, 0) - p)
		gainDen *= complex(fs2, 0) - p
	}
	// Analog zeros at s=0 contribute (fs2 - 0) each.
	for i := 0; i < order; i++ {
		gainNum *= complex(fs2, 0)
	}
	k := real(gainNum / gainDen)

	b = polyFromRoots(zZeros)
	for i := range b {
		b[i] *= k
	}
	a = polyFromRoots(zPoles)
	return b, a, nil
}

// polyFromRoots expands prod(z - r_i) into real polynomial coefficients,
// highest order first. Complex roots must come in conjugate pairs.
func polyFromRoots(roots []complex128) []float64 {
	coeffs := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(coeffs)+1)
		for i, c := range coeffs {
			next[i] += c
			next[i+1] -= c * r
		}
		coeffs = next
	}
	out := make([]float64, len(coeffs))
	for i, c := range coeffs {
		out[i] = real(c)
	}
	return out
}

// lfilter applies the IIR filter (b, a) to x in direct form II transposed
// with zero initial state.
func lfilter(b, a, x []float64) []float64 {
	n := len(b)
	if len(a) > n {
		n = len(a)
	}
	bn := make([]float64, n)
	an := make([]float64, n)
	copy(bn, b)
	copy(an, a)

	// Normalize by a[0].
	a0 := an[0]
	for i := range bn {
		bn[i] /= a0
	}
	for i := range an {
		an[i] /= a0
	}

	y := make([]float64, len(x))
	state := make([]float64, n-1)
	for i, xi := range x {
		yi := bn[0]*xi + state[0]
		for j := 0; j < n-2; j++ {
			state[j] = bn[j+1]*xi + state[j+1] - an[j+1]*yi
		}
		state[n-2] = bn[n-1]*xi - an[n-1]*yi
		y[i] = yi
	}
	return y
}

// FiltFilt applies (b, a) forward and backward for zero phase shift. The
// input is extended at both ends by an odd reflection so the filter state
// settles before the real data begins.
func FiltFilt(b, a, x []float64) ([]float64, error) {
	ntaps := len(b)
	if len(a) > ntaps {
		ntaps = len(a)
	}
	padlen := 3 * (ntaps - 1)
	if len(x) <= padlen {
		return nil, fmt.Errorf("input too short for filtfilt: %d samples, need > %d", len(x), padlen)
	}

	ext := make([]float64, 0, len(x)+2*padlen)
	for i := padlen; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := len(x) - 2; i >= len(x)-1-padlen; i-- {
		ext = append(ext, 2*x[len(x)-1]-x[i])
	}

	y := lfilter(b, a, ext)
	reverse(y)
	y = lfilter(b, a, y)
	reverse(y)

	return y[padlen : padlen+len(x)], nil
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}

// Bandpass designs an order-3 Butterworth band-pass and applies it with
// zero phase. It is the one-call form the analyzers use.
func Bandpass(x []float64, fs, low, high float64) ([]float64, error) {
	b, a, err := ButterBandpass(3, low, high, fs)
	if err != nil {
		return nil, err
	}
	return FiltFilt(b, a, x)
}
