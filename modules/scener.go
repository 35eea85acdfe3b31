package modules

import (
	"strconv"

	"go-modular/dsp"
	"go-modular/rack"
)

// Scener dimensions
const (
	ScenerColumns  = 5
	ScenerScenes   = 6
	ScenerMaxSteps = 16
	ScenerAlerts   = 2
	scenerSignals  = ScenerColumns * ScenerScenes
)

// Parameter ids
const (
	ScenerLoop = iota
	ScenerTransition
	ScenerReset
	ScenerSceneCount
	ScenerAlert
	ScenerSteps  = ScenerAlert + ScenerAlerts
	scenerParams = ScenerSteps + ScenerScenes
)

// Input ids. Scene s column c reads ScenerSignalInput + s*ScenerColumns + c.
const (
	ScenerTriggerInput = iota
	ScenerResetInput
	ScenerSignalInput
	scenerInputs = ScenerSignalInput + scenerSignals
)

// Output ids
const (
	ScenerAlertOutput  = 0
	ScenerSignalOutput = ScenerAlertOutput + ScenerAlerts
	scenerOutputs      = ScenerSignalOutput + ScenerColumns
)

// Light ids
const (
	ScenerTriggerLight = 0
	ScenerAlertLight   = 1
	ScenerSceneLight   = ScenerAlertLight + ScenerAlerts
	scenerLights       = ScenerSceneLight + ScenerScenes
)

// triggerBlink is how long the trigger light stays on
const triggerBlink = 0.1

// Scener steps through up to six scenes on trigger edges and crossfades
// five signal columns from the previous scene to the current one.
type Scener struct {
	rack.Module

	trigger dsp.SchmittTrigger
	reset   dsp.SchmittTrigger
	alerts  [ScenerAlerts]dsp.PulseGenerator
	blink   dsp.PulseGenerator

	stepCount      int
	sceneStepCount int
	currentScene   int
	prevScene      int
	ramp           dsp.Ramp
	finished       bool
	starting       bool
}

func NewScener() *Scener {
	s := &Scener{starting: true}
	s.Config(scenerParams, scenerInputs, scenerOutputs, scenerLights)

	for i := 0; i < scenerSignals; i++ {
		name := "Signal " + strconv.Itoa(i%ScenerColumns) + " scene " + strconv.Itoa(i/ScenerColumns)
		s.ConfigInput(ScenerSignalInput+i, name)
	}
	for i := 0; i < ScenerColumns; i++ {
		s.ConfigOutput(ScenerSignalOutput+i, "Signal "+strconv.Itoa(i))
	}
	for i := 0; i < ScenerScenes; i++ {
		s.ConfigSwitch(ScenerSteps+i, 1, ScenerMaxSteps, 1, "Steps scene "+strconv.Itoa(i))
	}
	for i := 0; i < ScenerAlerts; i++ {
		s.ConfigParam(ScenerAlert+i, 0, 1, 1, "Alert "+strconv.Itoa(i))
		s.ConfigOutput(ScenerAlertOutput+i, "Alert "+strconv.Itoa(i))
	}

	s.ConfigInput(ScenerTriggerInput, "Trigger")
	s.ConfigSwitch(ScenerLoop, 0, 1, 0, "Loop toggle", "Once", "Loop")
	s.ConfigParam(ScenerTransition, 0, 3, 0, "Crossfade transition time", "s")
	s.ConfigInput(ScenerResetInput, "Reset")
	s.ConfigButton(ScenerReset, "Reset")
	s.ConfigSwitch(ScenerSceneCount, 1, ScenerScenes, ScenerScenes, "Scenes")

	s.Lights[ScenerSceneLight].SetBrightness(1)
	return s
}

// SignalInput returns the input id for a scene column
func SignalInput(scene, col int) int {
	return ScenerSignalInput + scene*ScenerColumns + col
}

// alertStep is the step within the current scene where alert i fires
func (s *Scener) alertStep(i int) int {
	return int(s.Params[ScenerSteps+s.currentScene].Value() * s.Params[ScenerAlert+i].Value())
}

func (s *Scener) Process(args rack.ProcessArgs) {
	triggered := s.trigger.Process(s.Inputs[ScenerTriggerInput].Voltage())

	if s.starting {
		s.starting = false
		for i := 0; i < ScenerAlerts; i++ {
			alert := s.alertStep(i)
			s.Lights[ScenerAlertLight+i].SetBrightness(boolLight(alert == s.sceneStepCount))
			if alert == 0 {
				s.alerts[i].Trigger(dsp.TrigTime)
			}
		}
	}

	if triggered {
		s.advance()
	}

	s.advanceRamp(args.SampleTime)

	for col := 0; col < ScenerColumns; col++ {
		a := s.Inputs[SignalInput(s.prevScene, col)].Voltage()
		b := s.Inputs[SignalInput(s.currentScene, col)].Voltage()
		out := &s.Outputs[ScenerSignalOutput+col]
		if s.finished {
			out.SetVoltage(a * (1 - s.ramp.Value()))
		} else {
			out.SetVoltage(dsp.Crossfade(a, b, s.ramp.Value()))
		}
	}

	for i := 0; i < ScenerAlerts; i++ {
		s.Outputs[ScenerAlertOutput+i].SetVoltage(10 * s.alerts[i].Process(args.SampleTime))
	}
	s.Lights[ScenerTriggerLight].SetBrightness(s.blink.Process(args.SampleTime))

	if s.Params[ScenerReset].Value() != 0 || s.reset.Process(s.Inputs[ScenerResetInput].Voltage()) {
		s.stepCount = 0
		s.currentScene = 0
		s.finished = false
	}
}

// advance handles one trigger edge
func (s *Scener) advance() {
	s.stepCount++
	s.sceneStepCount++
	s.prevScene = s.currentScene
	s.currentScene = 0

	s.blink.Trigger(triggerBlink)

	// Later scenes win while the counter is past their start
	total := 0
	scenes := int(s.Params[ScenerSceneCount].Value())
	for i := 0; i < scenes; i++ {
		if s.stepCount > total {
			s.currentScene = i
		}
		total += int(s.Params[ScenerSteps+i].Value())
	}

	if s.Params[ScenerLoop].Value() != 0 {
		s.stepCount %= total
	} else if s.stepCount >= total && !s.finished {
		s.finished = true
		s.ramp.Reset()
	}

	if s.currentScene != s.prevScene {
		s.sceneStepCount = 0
		s.ramp.Reset()
	}

	for i := 0; i < ScenerAlerts; i++ {
		hit := s.alertStep(i) == s.sceneStepCount
		s.Lights[ScenerAlertLight+i].SetBrightness(boolLight(hit))
		if hit {
			s.alerts[i].Trigger(dsp.TrigTime)
		}
	}

	for i := 0; i < ScenerScenes; i++ {
		s.Lights[ScenerSceneLight+i].SetBrightness(boolLight(i == s.currentScene))
	}
}

// advanceRamp moves the crossfade. A zero transition time is an instant cut.
func (s *Scener) advanceRamp(dt float64) {
	transition := s.Params[ScenerTransition].Value()
	if transition <= 0 {
		s.ramp.Set(1)
		return
	}
	s.ramp.Advance(dt / transition)
}

func boolLight(on bool) float64 {
	if on {
		return 1
	}
	return 0
}
