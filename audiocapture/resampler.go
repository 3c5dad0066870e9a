package audiocapture

// Resampler converts a stream of 16-bit samples between sample rates by
// nearest-neighbour decimation. It carries a fractional accumulator across
// calls, so one Resampler must be used for the whole stream it converts.
//
// There is no low-pass filter: downsampling aliases content above the target
// Nyquist and upsampling never emits more than one output per input.
type Resampler struct {
	sourceRate int
	targetRate int
	ratio      float64
	acc        float64
}

// NewResampler creates a Resampler from sourceRate to targetRate.
func NewResampler(sourceRate, targetRate int) *Resampler {
	r := &Resampler{sourceRate: sourceRate, targetRate: targetRate}
	if sourceRate > 0 && targetRate > 0 {
		r.ratio = float64(sourceRate) / float64(targetRate)
	}
	return r
}

// NeedsResampling reports whether the rates differ.
func (r *Resampler) NeedsResampling() bool {
	return r.sourceRate != r.targetRate && r.ratio > 0
}

// Resample returns the input converted to the target rate. The returned
// slice never aliases in.
func (r *Resampler) Resample(in []int16) []int16 {
	if !r.NeedsResampling() {
		out := make([]int16, len(in))
		copy(out, in)
		return out
	}

	out := make([]int16, 0, int(float64(len(in))/r.ratio)+1)
	for _, s := range in {
		r.acc++
		if r.acc >= r.ratio {
			r.acc -= r.ratio
			out = append(out, s)
		}
	}
	return out
}
