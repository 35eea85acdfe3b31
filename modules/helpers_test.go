package modules

import (
	"go-modular/rack"
)

// scripted returns queued values, then fallback forever
type scripted struct {
	vals     []float64
	fallback float64
	calls    int
}

func (s *scripted) Float64() float64 {
	s.calls++
	if len(s.vals) > 0 {
		v := s.vals[0]
		s.vals = s.vals[1:]
		return v
	}
	return s.fallback
}

func constant(v float64) *scripted {
	return &scripted{fallback: v}
}

func connectInputs(m *rack.Module, ids ...int) {
	for _, id := range ids {
		m.Inputs[id].SetConnected(true)
	}
}

func connectOutputs(m *rack.Module, ids ...int) {
	for _, id := range ids {
		m.Outputs[id].SetConnected(true)
	}
}

// edge drives input id high for one tick and low for the next
func edge(p rack.Processor, id int, args rack.ProcessArgs) {
	in := &p.Base().Inputs[id]
	in.SetVoltage(10)
	p.Process(args)
	in.SetVoltage(0)
	p.Process(args)
}

func run(p rack.Processor, args rack.ProcessArgs, ticks int) {
	for i := 0; i < ticks; i++ {
		p.Process(args)
	}
}
