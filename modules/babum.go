package modules

import (
	"math"

	"go-modular/dsp"
	"go-modular/rack"
)

// BaBum is a five voice percussion synthesizer: kick, snare, closed and
// open hihat and an fx voice, each with its own output plus a mix bus.
type BaBum struct {
	rack.Module

	voices      [BaBumVoices]babumVoice
	noiseFilter dsp.RCFilter
	rnd         dsp.Source
}

// BaBumVoices is the fixed voice count
const BaBumVoices = 5

// Voice indices
const (
	VoiceKick = iota
	VoiceSnare
	VoiceHiHatClosed
	VoiceHiHatOpen
	VoiceFX
)

// Parameter ids
const (
	BaBumTuneKick = iota
	BaBumTuneSnare
	BaBumTuneHiHat
	BaBumTuneFX
	BaBumLengthKick
	BaBumLengthSnare
	BaBumLengthHiHat
	BaBumLengthFX
	BaBumDriveKick
	BaBumDriveSnare
	BaBumDriveHiHat // unused slot, keeps the drive block aligned with the tune block
	BaBumDriveFX
	BaBumTrigKick
	BaBumTrigSnare
	BaBumTrigHiHat
	BaBumTrigHiHatOpen
	BaBumTrigFX
	BaBumMixKick
	BaBumMixSnare
	BaBumMixHiHat
	BaBumMixHiHatOpen
	BaBumMixFX
	babumParams
)

// Input ids
const (
	BaBumTuneKickInput = iota
	BaBumTuneSnareInput
	BaBumTuneHiHatInput
	BaBumTuneFXInput
	BaBumKickInput
	BaBumSnareInput
	BaBumHiHatInput
	BaBumHiHatOpenInput
	BaBumFXInput
	babumInputs
)

// Output ids
const (
	BaBumKickOutput = iota
	BaBumSnareOutput
	BaBumHiHatOutput
	BaBumHiHatOpenOutput
	BaBumFXOutput
	BaBumMixOutput
	babumOutputs
)

const (
	clipRatio  = 0.02 // short linear attack to avoid clicks
	baseFreq   = 10.0 // oscillator ramp rate in Hz
	mixEpsilon = 1e-10
)

// babumVoice is the per-voice trigger and envelope state
type babumVoice struct {
	osc    dsp.Ramp
	amp    dsp.Ramp
	repeat dsp.Repeater
	edge   dsp.SchmittTrigger
	pulse  dsp.PulseGenerator
}

// voiceFrame carries the per-tick values every voice shape reads
type voiceFrame struct {
	b        *BaBum
	osc      float64 // oscillator ramp
	ramp     float64 // amplitude ramp
	noise    float64 // raw white noise
	filtered float64 // highpassed noise shared by both hihats
}

// voiceShape synthesizes one voice sample and returns it with its envelope level
type voiceShape func(f voiceFrame) (sample, env float64)

// voiceRole binds a voice to its controls and shape
type voiceRole struct {
	name    string
	trigger int
	length  int
	mix     int
	shape   voiceShape
}

var babumRoles = [BaBumVoices]voiceRole{
	VoiceKick:        {"Kick", BaBumTrigKick, BaBumLengthKick, BaBumMixKick, shapeKick},
	VoiceSnare:       {"Snare", BaBumTrigSnare, BaBumLengthSnare, BaBumMixSnare, shapeSnare},
	VoiceHiHatClosed: {"HiHat Closed", BaBumTrigHiHat, BaBumLengthHiHat, BaBumMixHiHat, shapeHiHatClosed},
	VoiceHiHatOpen:   {"HiHat Open", BaBumTrigHiHatOpen, BaBumLengthHiHat, BaBumMixHiHatOpen, shapeHiHatOpen},
	VoiceFX:          {"FX Sound", BaBumTrigFX, BaBumLengthFX, BaBumMixFX, shapeFX},
}

// NewBaBum creates the percussion module. rnd drives the noise source.
func NewBaBum(rnd dsp.Source) *BaBum {
	b := &BaBum{rnd: rnd}
	b.Config(babumParams, babumInputs, babumOutputs, BaBumVoices)

	b.ConfigParam(BaBumTuneKick, 0, 1, 0, "Tune Kick")
	b.ConfigParam(BaBumTuneSnare, 0, 1, 0, "Tune Snare")
	b.ConfigParam(BaBumTuneHiHat, 1, 20000, 1, "HiHat HP Filter", "Hz")
	b.ConfigParam(BaBumTuneFX, 0, 1, 0, "Tune FX")

	b.ConfigParam(BaBumLengthKick, .001, 5, 2.5, "Kick Length")
	b.ConfigParam(BaBumLengthSnare, .001, 5, 2.5, "Snare Length")
	b.ConfigParam(BaBumLengthHiHat, .001, 5, 2.5, "HiHat Length")
	b.ConfigParam(BaBumLengthFX, .001, 5, 2.5, "FX Length")

	b.ConfigParam(BaBumDriveKick, 1, 10, 1, "Kick distortion")
	b.ConfigParam(BaBumDriveSnare, 1, 10, 1, "Snare distortion")
	b.ConfigParam(BaBumDriveHiHat, 1, 10, 1, "HiHat distortion")
	b.ConfigParam(BaBumDriveFX, 1, 49, 1, "FX distortion")

	b.ConfigButton(BaBumTrigKick, "Trigger Kick")
	b.ConfigButton(BaBumTrigSnare, "Trigger Snare")
	b.ConfigButton(BaBumTrigHiHat, "Trigger HiHat Closed")
	b.ConfigButton(BaBumTrigHiHatOpen, "Trigger HiHat Open")
	b.ConfigButton(BaBumTrigFX, "Trigger FX sound")

	b.ConfigParam(BaBumMixKick, 0, 1, 0.5, "BassDrum Mix")
	b.ConfigParam(BaBumMixSnare, 0, 1, 0.5, "Snare Mix")
	b.ConfigParam(BaBumMixHiHat, 0, 1, 0.5, "HiHat Closed Mix")
	b.ConfigParam(BaBumMixHiHatOpen, 0, 1, 0.5, "HiHat Open Mix")
	b.ConfigParam(BaBumMixFX, 0, 1, 0.5, "FX Mix")

	b.ConfigInput(BaBumTuneKickInput, "Tune Kick")
	b.ConfigInput(BaBumTuneSnareInput, "Tune Snare")
	b.ConfigInput(BaBumTuneHiHatInput, "Filter HiHat")
	b.ConfigInput(BaBumTuneFXInput, "Tune FX Sound")

	for i, role := range babumRoles {
		b.ConfigInput(BaBumKickInput+i, "Trigger "+role.name)
		b.ConfigOutput(BaBumKickOutput+i, role.name)
	}
	b.ConfigOutput(BaBumMixOutput, "Mix")

	return b
}

func (b *BaBum) Process(args rack.ProcessArgs) {
	noise := dsp.Bipolar(b.rnd)

	// The hihat cutoff follows the kick tune input, not the hihat one.
	noiseTune := b.Params[BaBumTuneHiHat].Value() + b.Inputs[BaBumTuneKickInput].Voltage()*1000
	b.noiseFilter.SetCutoff(noiseTune / args.SampleRate)
	b.noiseFilter.Process(noise)
	filtered := b.noiseFilter.Highpass()

	connected := 0.0
	mix := 0.0

	for i := range b.voices {
		b.Lights[i].SetBrightness(0)
		if !b.Inputs[BaBumKickInput+i].IsConnected() {
			continue
		}
		connected++

		v := &b.voices[i]
		role := &babumRoles[i]

		triggerValue := b.Params[role.trigger].Value()
		gateRatio := 7 - b.Params[role.length].Value()

		if triggerValue >= 0.01 || v.edge.Process(b.Inputs[BaBumKickInput+i].Voltage()) {
			if v.repeat.Fire(args.SampleRate) {
				v.osc.Reset()
				v.amp.Reset()
				v.pulse.Trigger(1 / gateRatio)
			}
		}
		v.repeat.Latch(triggerValue)

		v.amp.Advance(args.SampleTime * gateRatio)
		v.osc.Advance(args.SampleTime * baseFreq)

		gate := v.pulse.Process(args.SampleTime)
		sample, env := role.shape(voiceFrame{
			b:        b,
			osc:      v.osc.Value(),
			ramp:     v.amp.Value(),
			noise:    noise,
			filtered: filtered,
		})

		out := sample * b.Params[role.mix].Value() * 10 * gate
		mix += out

		b.Outputs[BaBumKickOutput+i].SetVoltage(out)
		b.Lights[i].SetBrightness(env)
	}

	b.Outputs[BaBumMixOutput].SetVoltage(mix / (connected + mixEpsilon))
}

// envelope is the percussive shape: linear attack over clipRatio then a
// power-curve decay with exponent k, clamped to [0,1].
func envelope(ramp, k float64) float64 {
	if ramp < clipRatio {
		return dsp.Clamp(ramp/clipRatio, 0, 1)
	}
	return dsp.Clamp(math.Pow(1-ramp+clipRatio, k), 0, 1)
}

// tune combines a 0..1 knob with a 0..10 V CV
func (b *BaBum) tune(param, input int) float64 {
	cv := dsp.Clamp(b.Inputs[input].Voltage()/10, 0, 1)
	return dsp.Clamp(b.Params[param].Value()+cv, 0, 1)
}

// sweptSine is a sine whose phase is warped by the oscillator ramp
func sweptSine(warp, span, drive float64) float64 {
	return dsp.Clamp(math.Sin(warp*span)*drive, -1, 1)
}

func shapeKick(f voiceFrame) (float64, float64) {
	b := f.b
	tune := b.tune(BaBumTuneKick, BaBumTuneKickInput)
	env := envelope(f.ramp, 2)
	osc := sweptSine(math.Sqrt(f.osc), tune*200+50, b.Params[BaBumDriveKick].Value())
	return osc * env, env
}

func shapeSnare(f voiceFrame) (float64, float64) {
	b := f.b
	tune := b.tune(BaBumTuneSnare, BaBumTuneSnareInput)
	env := envelope(f.ramp, 2)
	snap := envelope(f.ramp, 6)
	osc := sweptSine(math.Sqrt(f.osc), tune*100+100, b.Params[BaBumDriveSnare].Value())
	return osc*env + f.noise*0.5*snap, env
}

func shapeHiHatClosed(f voiceFrame) (float64, float64) {
	env := envelope(f.ramp, 10)
	return f.filtered * env, env
}

func shapeHiHatOpen(f voiceFrame) (float64, float64) {
	env := envelope(f.ramp, 2)
	return f.filtered * env, env
}

func shapeFX(f voiceFrame) (float64, float64) {
	b := f.b
	tune := b.tune(BaBumTuneFX, BaBumTuneFXInput)
	env := envelope(f.ramp, 2)
	// cubic warp, the sweep stays low longer than the kick's
	osc := sweptSine(math.Sqrt(f.osc*f.osc*f.osc), tune*1000+80, b.Params[BaBumDriveFX].Value())
	return osc * env, env
}
