package audiocapture

import (
	"math"
	"slices"
	"testing"
)

func TestResamplerIdentity(t *testing.T) {
	r := NewResampler(16000, 16000)
	if r.NeedsResampling() {
		t.Fatal("NeedsResampling() = true for equal rates")
	}

	in := []int16{100, 200, 300}
	out := r.Resample(in)
	if !slices.Equal(out, in) {
		t.Fatalf("Resample = %v, want %v", out, in)
	}

	out[0] = 0
	if in[0] != 100 {
		t.Fatal("output aliases input")
	}
}

func TestResamplerLengths(t *testing.T) {
	tests := []struct {
		name   string
		src    int
		dst    int
		inLen  int
		minOut int
		maxOut int
	}{
		{"48k_to_16k_480", 48000, 16000, 480, 159, 161},
		{"48k_to_16k_48", 48000, 16000, 48, 15, 17},
		{"44k1_to_16k", 44100, 16000, 441, 159, 161},
		{"upsample_8k", 8000, 16000, 100, 100, 100},
		{"empty", 48000, 16000, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResampler(tt.src, tt.dst)
			out := r.Resample(make([]int16, tt.inLen))
			if len(out) < tt.minOut || len(out) > tt.maxOut {
				t.Errorf("len = %d, want [%d, %d]", len(out), tt.minOut, tt.maxOut)
			}

			ratio := float64(tt.src) / float64(tt.dst)
			if bound := int(math.Ceil(float64(tt.inLen)/ratio)) + 1; len(out) > bound {
				t.Errorf("len = %d exceeds bound %d", len(out), bound)
			}
		})
	}
}

func TestResamplerCarriesState(t *testing.T) {
	// 10 chunks of 47 samples at 3:1 must yield the same total as one
	// 470-sample chunk when the accumulator carries over.
	whole := NewResampler(48000, 16000)
	want := len(whole.Resample(make([]int16, 470)))

	split := NewResampler(48000, 16000)
	got := 0
	for range 10 {
		got += len(split.Resample(make([]int16, 47)))
	}

	if got != want {
		t.Fatalf("split total = %d, want %d", got, want)
	}
}

func TestResamplerPicksSamples(t *testing.T) {
	r := NewResampler(48000, 16000)
	in := make([]int16, 9)
	for i := range in {
		in[i] = int16(i)
	}
	// the accumulator reaches the ratio on every third sample
	if got, want := r.Resample(in), []int16{2, 5, 8}; !slices.Equal(got, want) {
		t.Fatalf("Resample = %v, want %v", got, want)
	}
}
