package engine

import (
	"go-modular/modules"
	"go-modular/rack"
)

// PortState is a port as seen by the UI
type PortState struct {
	Name      string
	Voltage   float64
	Connected bool
}

// ParamState is a parameter as seen by the UI
type ParamState struct {
	Name      string
	Value     float64
	Min, Max  float64
	Label     string
	Snap      bool
	Momentary bool
}

// ModuleState is a copy of one module's host-visible state
type ModuleState struct {
	Name    string
	Slug    string
	Params  []ParamState
	Outputs []PortState
	Lights  []float64
	Grid    *GridState // set for sequencers
}

// Snapshot is a consistent copy of the rack between two samples
type Snapshot struct {
	Frame   int64
	Tap     float64 // audio tap voltage
	Modules []ModuleState
}

// Snapshot copies lights, parameters and output voltages
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		Frame:   e.args.Frame,
		Modules: make([]ModuleState, len(e.nodes)),
	}
	if e.tap != nil {
		s.Tap = e.tap.Voltage()
	}
	for i, n := range e.nodes {
		s.Modules[i] = moduleState(n)
	}
	return s
}

func moduleState(n *node) ModuleState {
	m := n.proc.Base()
	st := ModuleState{
		Name:    n.name,
		Slug:    n.slug,
		Params:  make([]ParamState, len(m.Params)),
		Outputs: make([]PortState, len(m.Outputs)),
		Lights:  make([]float64, len(m.Lights)),
	}
	for i := range m.Params {
		p := &m.Params[i]
		st.Params[i] = ParamState{
			Name:      p.Name,
			Value:     p.Value(),
			Min:       p.Min,
			Max:       p.Max,
			Label:     p.Label(),
			Snap:      p.Snap,
			Momentary: p.Momentary,
		}
	}
	for i := range m.Outputs {
		st.Outputs[i] = portState(&m.Outputs[i])
	}
	for i := range m.Lights {
		st.Lights[i] = m.Lights[i].Brightness()
	}
	if s, ok := n.proc.(*modules.Secu); ok {
		g := gridState(s)
		st.Grid = &g
	}
	return st
}

func portState(p *rack.Port) PortState {
	return PortState{Name: p.Name, Voltage: p.Voltage(), Connected: p.IsConnected()}
}

// Module returns the state of the named module
func (s Snapshot) Module(name string) (ModuleState, bool) {
	for _, m := range s.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return ModuleState{}, false
}
