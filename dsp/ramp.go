package dsp

// Ramp is a phase/envelope driver in [0,1] that saturates at 1.
// It never wraps; owners call Reset on a new trigger.
type Ramp struct {
	value float64
}

// Advance adds delta and clamps the result to [0,1].
func (r *Ramp) Advance(delta float64) float64 {
	r.value = Clamp(r.value+delta, 0, 1)
	return r.value
}

func (r *Ramp) Value() float64 {
	return r.value
}

func (r *Ramp) Reset() {
	r.value = 0
}

// Set forces the ramp to v (clamped)
func (r *Ramp) Set(v float64) {
	r.value = Clamp(v, 0, 1)
}
