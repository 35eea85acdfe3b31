package modules

import (
	"strconv"

	"go-modular/dsp"
	"go-modular/rack"
)

// KlokModOutputs is the number of divided clock outputs
const KlokModOutputs = 8

// Parameter ids
const (
	KlokRun = iota
	KlokTempo
	klokParams
)

// Output ids. KlokModOutput+i divides the clock by i+1.
const (
	KlokResetOutput = iota
	KlokModOutput
	klokOutputs = KlokModOutput + KlokModOutputs
)

// Light ids
const (
	KlokBlinkLight = iota
	klokLights
)

// blinkFade is the deltaTime used for the blink light decay
const blinkFade = 5e-6

// Klok is a tempo clock with a reset pulse and a bank of clock dividers.
type Klok struct {
	rack.Module

	pulse      dsp.PulseGenerator
	resetPulse dsp.PulseGenerator

	counter float64 // samples since the last tick
	period  float64 // samples per half beat
	step    int     // tick index modulo KlokModOutputs
	armed   bool    // fire the reset pulse on the next running tick
}

func NewKlok() *Klok {
	k := &Klok{armed: true}
	k.Config(klokParams, 0, klokOutputs, klokLights)

	k.ConfigSwitch(KlokRun, 0, 1, 0, "Run clock", "Stopped", "Running")
	k.ConfigParam(KlokTempo, 30, 360, 120, "Set tempo", "BPM")
	k.ConfigOutput(KlokResetOutput, "Reset")
	for i := 0; i < KlokModOutputs; i++ {
		k.ConfigOutput(KlokModOutput+i, "Modulo "+strconv.Itoa(i))
	}
	return k
}

// Running reports whether the run switch is on
func (k *Klok) Running() bool {
	return k.Params[KlokRun].Value() != 0
}

func (k *Klok) Process(args rack.ProcessArgs) {
	if !k.Running() {
		k.counter, k.period, k.step = 0, 0, 0
		k.armed = true
		for i := range k.Outputs {
			k.Outputs[i].SetVoltage(0)
		}
		k.Lights[KlokBlinkLight].SetSmoothBrightness(0, blinkFade)
		return
	}

	if k.armed {
		k.resetPulse.Trigger(dsp.TrigTime)
		k.armed = false
	}
	k.Outputs[KlokResetOutput].SetVoltage(10 * k.resetPulse.Process(args.SampleTime))

	bpm := k.Params[KlokTempo].Value()
	k.period = 60 * args.SampleRate / (bpm * 2)

	if k.counter > k.period {
		k.pulse.Trigger(dsp.TrigTime)
		k.counter -= k.period // keep the fractional remainder
		k.step = (k.step + 1) % KlokModOutputs
	}
	k.counter++

	out := k.pulse.Process(args.SampleTime)
	for i := 0; i < KlokModOutputs; i++ {
		o := &k.Outputs[KlokModOutput+i]
		if k.step%(i+1) == 0 && o.IsConnected() {
			o.SetVoltage(10 * out)
		} else {
			o.SetVoltage(0)
		}
	}
	k.Lights[KlokBlinkLight].SetSmoothBrightness(out, blinkFade)
}
