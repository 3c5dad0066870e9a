package pcm

import "math"

// RMS returns the root-mean-square level of samples normalised to [0, 1]
// against the int16 maximum. An empty slice has level 0.
func RMS(samples []int16) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sumSq float64
	for _, s := range samples {
		f := float64(s)
		sumSq += f * f
	}
	rms := math.Sqrt(sumSq / float64(len(samples)))
	return float32(min(rms/math.MaxInt16, 1))
}

// Duration returns the length of n samples at rate in seconds.
func Duration(n, rate int) float64 {
	if rate <= 0 {
		return 0
	}
	return float64(n) / float64(rate)
}
