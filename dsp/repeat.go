package dsp

// RepeatRate is how many times per second a held control re-fires
const RepeatRate = 4.0

// Repeater gates a held control: it acts on the first tick of a press and
// then again every 1/RepeatRate seconds while the control stays active.
type Repeater struct {
	prev float64 // control value on the previous tick
	rest float64 // samples left before a held control may act again
}

// Fire is called on every tick the control is active and reports whether
// the owner should act on this tick.
func (r *Repeater) Fire(sampleRate float64) bool {
	if r.prev == 0 || r.rest <= 0 {
		r.rest = sampleRate / RepeatRate
		return true
	}
	r.rest = Clamp(r.rest-1, 0, sampleRate)
	return false
}

// Latch stores the control value seen this tick
func (r *Repeater) Latch(v float64) {
	r.prev = v
}
