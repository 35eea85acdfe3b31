package dsp

// Clamp limits x to [lo, hi]
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Crossfade blends a into b by t (0 = a, 1 = b)
func Crossfade(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// Source supplies uniform random numbers in [0,1).
// *math/rand/v2.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Bipolar maps a uniform draw to [-1,1)
func Bipolar(src Source) float64 {
	return (src.Float64() - 0.5) * 2
}
