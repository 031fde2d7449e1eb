package mfcc

import "math"

// Slaney mel scale constants: linear below 1 kHz, logarithmic above.
const (
	melLinearStep = 200.0 / 3
	melLogMinHz   = 1000.0
	melLogMin     = melLogMinHz / melLinearStep // 15
)

var melLogStep = math.Log(6.4) / 27.0

// hannWindow returns a periodic Hann window of length n, the variant used for
// spectral analysis (the window is one sample longer than n and truncated).
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// hzToMel converts a frequency in Hz to the Slaney mel scale.
func hzToMel(hz float64) float64 {
	if hz >= melLogMinHz {
		return melLogMin + math.Log(hz/melLogMinHz)/melLogStep
	}
	return hz / melLinearStep
}

// melToHz converts a Slaney mel value back to Hz.
func melToHz(mel float64) float64 {
	if mel >= melLogMin {
		return melLogMinHz * math.Exp(melLogStep*(mel-melLogMin))
	}
	return mel * melLinearStep
}

// melFilterBank builds area-normalized triangular filters.
// Returns [numMels][fftSize/2+1] weights.
func melFilterBank(numMels, fftSize, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	halfFFT := fftSize/2 + 1

	fftFreqs := make([]float64, halfFFT)
	for k := range fftFreqs {
		fftFreqs[k] = float64(k) * float64(sampleRate) / float64(fftSize)
	}

	// numMels + 2 band edges, equally spaced in mel.
	lowMel := hzToMel(lowFreq)
	highMel := hzToMel(highFreq)
	edges := make([]float64, numMels+2)
	step := (highMel - lowMel) / float64(numMels+1)
	for i := range edges {
		edges[i] = melToHz(lowMel + float64(i)*step)
	}

	bank := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		left, center, right := edges[m], edges[m+1], edges[m+2]
		norm := 2.0 / (right - left)
		filter := make([]float64, halfFFT)
		for k, f := range fftFreqs {
			lower := (f - left) / (center - left)
			upper := (right - f) / (right - center)
			w := math.Min(lower, upper)
			if w > 0 {
				filter[k] = w * norm
			}
		}
		bank[m] = filter
	}
	return bank
}

// dctMatrix returns the orthonormal DCT-II basis truncated to numCoeffs rows.
// Row k applied to an n-vector yields cepstral coefficient k.
func dctMatrix(numCoeffs, n int) [][]float64 {
	basis := make([][]float64, numCoeffs)
	for k := 0; k < numCoeffs; k++ {
		scale := math.Sqrt(2.0 / float64(n))
		if k == 0 {
			scale = math.Sqrt(1.0 / float64(n))
		}
		row := make([]float64, n)
		for i := range row {
			row[i] = scale * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
		basis[k] = row
	}
	return basis
}
