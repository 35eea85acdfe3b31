package dsp

// minCutoffRatio keeps the RC coefficient finite for zero or negative cutoffs
const minCutoffRatio = 1e-9

// RCFilter is a one-pole RC filter with simultaneous lowpass and highpass taps.
type RCFilter struct {
	c  float64
	x1 float64
	y1 float64
}

// SetCutoff sets the cutoff as a fraction of the sample rate (f / sampleRate).
func (f *RCFilter) SetCutoff(ratio float64) {
	if ratio < minCutoffRatio {
		ratio = minCutoffRatio
	}
	f.c = 2 / ratio
}

func (f *RCFilter) Process(x float64) {
	y := (x + f.x1 - f.y1*(1-f.c)) / (1 + f.c)
	f.x1 = x
	f.y1 = y
}

func (f *RCFilter) Lowpass() float64 {
	return f.y1
}

func (f *RCFilter) Highpass() float64 {
	return f.x1 - f.y1
}
