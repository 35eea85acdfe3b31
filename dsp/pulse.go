package dsp

// TrigTime is the standard trigger pulse length in seconds
const TrigTime = 1e-3

// PulseGenerator emits a high gate for a fixed duration after Trigger.
type PulseGenerator struct {
	remaining float64
}

// Trigger arms the pulse. A longer pending pulse is never shortened.
func (p *PulseGenerator) Trigger(duration float64) {
	if duration > p.remaining {
		p.remaining = duration
	}
}

// Process advances by dt and returns 1 while the pulse is active.
func (p *PulseGenerator) Process(dt float64) float64 {
	if p.remaining > 0 {
		p.remaining -= dt
		return 1
	}
	return 0
}

func (p *PulseGenerator) Reset() {
	p.remaining = 0
}
