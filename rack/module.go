package rack

import (
	"math"
	"strconv"
	"strings"
)

// ProcessArgs is the per-sample context supplied by the host
type ProcessArgs struct {
	SampleRate float64
	SampleTime float64 // 1 / SampleRate
	Frame      int64
}

// NewProcessArgs builds args for a given sample rate
func NewProcessArgs(sampleRate float64) ProcessArgs {
	return ProcessArgs{
		SampleRate: sampleRate,
		SampleTime: 1 / sampleRate,
	}
}

// Processor is implemented by every module. The host calls Process exactly
// once per sample after writing inputs and before reading outputs.
type Processor interface {
	Process(args ProcessArgs)
	Base() *Module
}

// Module holds the host-visible state of a processor: parameters, input and
// output ports and lights. Processors embed it.
type Module struct {
	Params  []Param
	Inputs  []Port
	Outputs []Port
	Lights  []Light
}

// Config allocates the parameter, port and light slots
func (m *Module) Config(params, inputs, outputs, lights int) {
	m.Params = make([]Param, params)
	m.Inputs = make([]Port, inputs)
	m.Outputs = make([]Port, outputs)
	m.Lights = make([]Light, lights)
}

// Base returns the embedded module
func (m *Module) Base() *Module {
	return m
}

// ConfigParam declares a continuous parameter and sets it to its default
func (m *Module) ConfigParam(id int, min, max, def float64, name string, unit ...string) *Param {
	p := &m.Params[id]
	*p = Param{Name: name, Min: min, Max: max, Default: def}
	if len(unit) > 0 {
		p.Unit = unit[0]
	}
	p.SetValue(def)
	return p
}

// ConfigButton declares a momentary 0/1 parameter
func (m *Module) ConfigButton(id int, name string) *Param {
	p := m.ConfigParam(id, 0, 1, 0, name)
	p.Momentary = true
	p.Snap = true
	return p
}

// ConfigSwitch declares a snapped parameter with one label per position
func (m *Module) ConfigSwitch(id int, min, max, def float64, name string, labels ...string) *Param {
	p := m.ConfigParam(id, min, max, def, name)
	p.Snap = true
	p.Labels = labels
	p.SetValue(def)
	return p
}

func (m *Module) ConfigInput(id int, name string) {
	m.Inputs[id] = Port{Name: name}
}

func (m *Module) ConfigOutput(id int, name string) {
	m.Outputs[id] = Port{Name: name}
}

// ParamID finds a parameter by name (case-insensitive)
func (m *Module) ParamID(name string) (int, bool) {
	for i := range m.Params {
		if strings.EqualFold(m.Params[i].Name, name) {
			return i, true
		}
	}
	return -1, false
}

// InputID finds an input by name (case-insensitive), then by index
func (m *Module) InputID(name string) (int, bool) {
	return portID(m.Inputs, name)
}

// OutputID finds an output by name (case-insensitive), then by index
func (m *Module) OutputID(name string) (int, bool) {
	return portID(m.Outputs, name)
}

func portID(ports []Port, name string) (int, bool) {
	for i := range ports {
		if strings.EqualFold(ports[i].Name, name) {
			return i, true
		}
	}
	if id, err := strconv.Atoi(name); err == nil && id >= 0 && id < len(ports) {
		return id, true
	}
	return -1, false
}

// Param is a host-owned scalar with a fixed range
type Param struct {
	Name      string
	Unit      string
	Min       float64
	Max       float64
	Default   float64
	Snap      bool     // round to integers
	Momentary bool     // buttons spring back to Min
	Labels    []string // switch position names

	value float64
}

func (p *Param) Value() float64 {
	return p.value
}

// SetValue stores v clamped to [Min, Max], rounded when Snap is set
func (p *Param) SetValue(v float64) {
	if p.Snap {
		v = math.Round(v)
	}
	if v < p.Min {
		v = p.Min
	}
	if v > p.Max {
		v = p.Max
	}
	p.value = v
}

// Reset restores the default value
func (p *Param) Reset() {
	p.SetValue(p.Default)
}

// Label returns the switch label for the current value, or "" if none
func (p *Param) Label() string {
	idx := int(p.value - p.Min)
	if idx < 0 || idx >= len(p.Labels) {
		return ""
	}
	return p.Labels[idx]
}

// Port is an input or output jack. Disconnected inputs read 0 V.
type Port struct {
	Name string

	voltage   float64
	connected bool
}

func (p *Port) Voltage() float64 {
	return p.voltage
}

func (p *Port) SetVoltage(v float64) {
	p.voltage = v
}

func (p *Port) IsConnected() bool {
	return p.connected
}

// SetConnected updates the cable state; disconnecting zeroes the voltage
func (p *Port) SetConnected(c bool) {
	p.connected = c
	if !c {
		p.voltage = 0
	}
}

// lightLambda is the fade-out rate of smoothed lights
const lightLambda = 30.0

// Light is a brightness value in [0,1] read by the host
type Light struct {
	brightness float64
}

func (l *Light) Brightness() float64 {
	return l.brightness
}

func (l *Light) SetBrightness(b float64) {
	l.brightness = b
}

// SetSmoothBrightness lights up instantly and fades out exponentially
func (l *Light) SetSmoothBrightness(target, deltaTime float64) {
	if target < l.brightness {
		l.brightness += (target - l.brightness) * lightLambda * deltaTime
		return
	}
	l.brightness = target
}
