package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Welch estimates the one-sided power spectral density of x sampled at
// fs Hz, averaging modified periodograms over Hann-windowed segments of
// nperseg samples with 50% overlap. It returns the frequency bins and the
// density estimate (length nperseg/2+1). nperseg is clamped to len(x).
func Welch(x []float64, fs float64, nperseg int) (freqs, psd []float64) {
	if len(x) == 0 || fs <= 0 {
		return nil, nil
	}
	if nperseg > len(x) || nperseg <= 0 {
		nperseg = len(x)
	}

	window := make([]float64, nperseg)
	var winSumSq float64
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(nperseg-1)))
		winSumSq += window[i] * window[i]
	}
	if nperseg == 1 {
		window[0] = 1
		winSumSq = 1
	}

	step := nperseg / 2
	if step < 1 {
		step = 1
	}

	fft := fourier.NewFFT(nperseg)
	nbins := nperseg/2 + 1
	psd = make([]float64, nbins)
	seg := make([]float64, nperseg)
	var nsegs int

	for start := 0; start+nperseg <= len(x); start += step {
		copy(seg, x[start:start+nperseg])

		// Constant detrend per segment.
		m := Mean(seg)
		for i := range seg {
			seg[i] = (seg[i] - m) * window[i]
		}

		coeffs := fft.Coefficients(nil, seg)
		for k := 0; k < nbins; k++ {
			c := coeffs[k]
			p := real(c)*real(c) + imag(c)*imag(c)
			// One-sided scaling: double everything except DC and Nyquist.
			if k != 0 && !(nperseg%2 == 0 && k == nbins-1) {
				p *= 2
			}
			psd[k] += p
		}
		nsegs++
	}

	if nsegs == 0 {
		return nil, nil
	}

	scale := 1 / (fs * winSumSq * float64(nsegs))
	for k := range psd {
		psd[k] *= scale
	}

	freqs = make([]float64, nbins)
	for k := range freqs {
		freqs[k] = float64(k) * fs / float64(nperseg)
	}
	return freqs, psd
}
