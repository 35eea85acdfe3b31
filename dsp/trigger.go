package dsp

// SchmittTrigger detects rising edges with hysteresis.
// It starts high, so a signal must fall to the low threshold before the
// first rising edge is reported.
type SchmittTrigger struct {
	low bool
}

// Trigger thresholds in volts
const (
	TriggerLow  = 0.0
	TriggerHigh = 1.0
)

// Process returns true on the sample where in crosses TriggerHigh from below.
func (s *SchmittTrigger) Process(in float64) bool {
	if s.low {
		if in >= TriggerHigh {
			s.low = false
			return true
		}
		return false
	}
	if in <= TriggerLow {
		s.low = true
	}
	return false
}

// IsHigh reports the current state
func (s *SchmittTrigger) IsHigh() bool {
	return !s.low
}

// Reset puts the trigger back in its initial (high) state
func (s *SchmittTrigger) Reset() {
	s.low = false
}
