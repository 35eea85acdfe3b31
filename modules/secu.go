package modules

import (
	"math"
	"strconv"

	"go-modular/dsp"
	"go-modular/rack"
)

// Grid dimensions
const (
	SecuSteps   = 8
	SecuColumns = 5
)

// Parameter ids. The gate for (step, column) is SecuGate + column*SecuSteps + step.
const (
	SecuRandomize = iota
	SecuSparseness
	SecuProbability
	SecuLength
	SecuGate
	secuParams = SecuGate + SecuSteps*SecuColumns
)

// Input ids
const (
	SecuResetInput = iota
	SecuTriggerInput
	SecuProbabilityInput
	SecuRandomizeInput
	secuInputs
)

// Secu is an 8 step, 5 lane gate sequencer. Each trigger may jump to a
// random step with the configured probability.
type Secu struct {
	rack.Module

	step    int // sequential position
	stepOut int // position actually played after the jump check

	trigger   dsp.SchmittTrigger
	reset     dsp.SchmittTrigger
	randomize dsp.SchmittTrigger
	repeat    dsp.Repeater

	rnd dsp.Source
}

func NewSecu(rnd dsp.Source) *Secu {
	s := &Secu{rnd: rnd}
	s.Config(secuParams, secuInputs, SecuColumns, SecuSteps)

	s.ConfigButton(SecuRandomize, "Randomize steps")
	s.ConfigParam(SecuSparseness, 0, 1, 0.3, "Randomization sparseness")
	s.ConfigParam(SecuProbability, 0, 1, 0.2, "Glitch probability")
	s.ConfigSwitch(SecuLength, 1, SecuSteps, SecuSteps, "Sequence steps")

	for step := 0; step < SecuSteps; step++ {
		for col := 0; col < SecuColumns; col++ {
			name := "Set gate " + strconv.Itoa(col) + "-" + strconv.Itoa(step)
			s.ConfigSwitch(GateParam(step, col), 0, 1, 0, name, "Off", "On")
		}
	}

	s.ConfigInput(SecuResetInput, "Reset")
	s.ConfigInput(SecuTriggerInput, "Trigger")
	s.ConfigInput(SecuProbabilityInput, "Probability")
	s.ConfigInput(SecuRandomizeInput, "Randomize")

	for i := 0; i < SecuColumns; i++ {
		s.ConfigOutput(i, "Trigger "+strconv.Itoa(i)+" Out")
	}
	return s
}

// GateParam returns the parameter id of a grid cell
func GateParam(step, col int) int {
	return SecuGate + col*SecuSteps + step
}

// Gate reports whether a grid cell is on
func (s *Secu) Gate(step, col int) bool {
	return s.Params[GateParam(step, col)].Value() >= 0.1
}

// StepOut returns the step currently driving the outputs
func (s *Secu) StepOut() int {
	return s.stepOut
}

// Length returns the number of active steps
func (s *Secu) Length() int {
	return int(s.Params[SecuLength].Value())
}

// Randomize redraws every cell, each on with probability = sparseness
func (s *Secu) Randomize() {
	density := s.Params[SecuSparseness].Value()
	for step := 0; step < SecuSteps; step++ {
		for col := 0; col < SecuColumns; col++ {
			on := 0.0
			if density > s.rnd.Float64() {
				on = 1
			}
			s.Params[GateParam(step, col)].SetValue(on)
		}
	}
}

func (s *Secu) Process(args rack.ProcessArgs) {
	inV := s.Inputs[SecuTriggerInput].Voltage()
	triggered := s.trigger.Process(inV)
	length := s.Length()

	if s.reset.Process(s.Inputs[SecuResetInput].Voltage()) {
		s.step = 0
	}

	button := s.Params[SecuRandomize].Value()
	if button > 0.1 && s.repeat.Fire(args.SampleRate) {
		s.Randomize()
	}

	if s.randomize.Process(s.Inputs[SecuRandomizeInput].Voltage()) {
		s.Randomize()
	}

	if triggered {
		chance := dsp.Clamp(s.Params[SecuProbability].Value()+s.Inputs[SecuProbabilityInput].Voltage(), 0, 1)
		if chance > s.rnd.Float64() {
			s.stepOut = int(math.Floor(s.rnd.Float64() * float64(length)))
		} else {
			s.stepOut = s.step
		}

		for i := 0; i < SecuSteps; i++ {
			if i == s.stepOut {
				s.Lights[i].SetSmoothBrightness(1, blinkFade)
			} else {
				s.Lights[i].SetBrightness(0)
			}
		}

		s.step = (s.step + 1) % length
	}

	for col := 0; col < SecuColumns; col++ {
		o := &s.Outputs[col]
		if s.Gate(s.stepOut, col) && o.IsConnected() {
			o.SetVoltage(inV)
		} else {
			o.SetVoltage(0)
		}
	}
	s.repeat.Latch(button)
}
