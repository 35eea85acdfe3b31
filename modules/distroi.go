package modules

import (
	"math"

	"go-modular/dsp"
	"go-modular/rack"
)

// DistroiEffects is the number of independent effect lanes
const DistroiEffects = 5

// Effect lanes
const (
	EffectBitcrush = iota
	EffectDecimate
	EffectDistort
	EffectGlitch
	EffectCrop
)

// Parameters per lane, lane n starts at n*distroiLaneParams
const (
	DistroiQuantity = iota
	DistroiCVAmount
	DistroiDryWet
	distroiLaneParams
)

// Inputs: DistroiInput+n is lane n's signal, DistroiCVInput+n its CV
const (
	DistroiInput   = 0
	DistroiCVInput = DistroiEffects
)

// MaxGlitchSamples is the glitch buffer capacity (0.5 s at 48 kHz)
const MaxGlitchSamples = 48000 / 2

var effectNames = [DistroiEffects]string{"Bitcrush", "Decimate", "Distort", "Glitch", "Crop"}

// Distroi is a bank of five destructive effects, each with its own
// input, CV, output, quantity, CV attenuator and dry/wet.
type Distroi struct {
	rack.Module

	decimateCounter int
	heldSample      float64

	glitch glitchBuffer

	cropRamp      int
	cropThreshold int

	rnd dsp.Source
}

// glitchBuffer records the input once, then replays random-length slices
// of it while overwriting each played slot with the live signal.
type glitchBuffer struct {
	samples   [MaxGlitchSamples]float64
	write     int // fill cursor, only advances while filling
	read      int // replay cursor, only advances while replaying
	threshold int // end of the current replay window
}

func (g *glitchBuffer) filling() bool {
	return g.write < MaxGlitchSamples
}

func (g *glitchBuffer) replaying() bool {
	return !g.filling() && g.read < g.threshold
}

// NewDistroi creates the effects module. rnd drives the glitch and crop
// decisions.
func NewDistroi(rnd dsp.Source) *Distroi {
	d := &Distroi{rnd: rnd}
	d.Config(DistroiEffects*distroiLaneParams, DistroiEffects*2, DistroiEffects, 0)

	for i, name := range effectNames {
		base := i * distroiLaneParams
		d.ConfigParam(base+DistroiQuantity, 0, 1, 0, name+" effect quantity")
		d.ConfigParam(base+DistroiCVAmount, 0, 1, 0, name+" CV attenuator")
		d.ConfigParam(base+DistroiDryWet, 0, 1, 0.5, name+" dry/wet")
		d.ConfigInput(DistroiInput+i, name+" input")
		d.ConfigInput(DistroiCVInput+i, name+" CV input")
		d.ConfigOutput(i, name+" output")
	}
	return d
}

// LaneParam returns the parameter id of p for lane
func LaneParam(lane, p int) int {
	return lane*distroiLaneParams + p
}

func (d *Distroi) Process(args rack.ProcessArgs) {
	for i := 0; i < DistroiEffects; i++ {
		if !d.Inputs[DistroiInput+i].IsConnected() || !d.Outputs[i].IsConnected() {
			continue
		}

		in := d.Inputs[DistroiInput+i].Voltage()
		cv := 0.0
		if d.Inputs[DistroiCVInput+i].IsConnected() {
			cv = d.Inputs[DistroiCVInput+i].Voltage() / 10 * d.Params[LaneParam(i, DistroiCVAmount)].Value()
		}
		quantity := dsp.Clamp(d.Params[LaneParam(i, DistroiQuantity)].Value()+cv, 0, 1)
		dw := d.Params[LaneParam(i, DistroiDryWet)].Value()

		var result float64
		switch i {
		case EffectBitcrush:
			result = bitcrush(in, quantity)
		case EffectDecimate:
			result = d.decimate(in, quantity)
		case EffectDistort:
			result = distort(in, quantity)
		case EffectGlitch:
			result = d.glitchProcess(in, quantity)
		case EffectCrop:
			result = d.crop(in, quantity, args.SampleRate)
		}

		d.Outputs[i].SetVoltage(dsp.Crossfade(in, result, dw))
	}
}

// bitcrush quantizes to steps of 1/scale; scale shrinks as quantity grows
func bitcrush(in, quantity float64) float64 {
	scale := math.Pow(2, 8-(0.2+quantity)*8)
	return math.Round(in*scale) / scale
}

func (d *Distroi) decimate(in, quantity float64) float64 {
	d.decimateCounter++
	if float64(d.decimateCounter) >= quantity*32 {
		d.heldSample = in
		d.decimateCounter = 0
	}
	return d.heldSample
}

func distort(in, quantity float64) float64 {
	drive := quantity * 10
	return math.Tanh(in * (1 + drive))
}

func (d *Distroi) glitchProcess(in, quantity float64) float64 {
	g := &d.glitch
	if g.filling() {
		g.samples[g.write] = in
		g.write++
		return in
	}
	if g.replaying() {
		out := g.samples[g.read]
		g.samples[g.read] = in
		g.read++
		return out
	}
	if d.rnd.Float64() < quantity {
		g.threshold = int(d.rnd.Float64() * (MaxGlitchSamples - quantity*0.9*MaxGlitchSamples))
		g.read = 0
	}
	return in
}

func (d *Distroi) crop(in, quantity, sampleRate float64) float64 {
	if d.cropRamp < d.cropThreshold {
		d.cropRamp++
		return in * 0.01
	}
	if d.rnd.Float64() < quantity*0.001 {
		d.cropThreshold = int(d.rnd.Float64() * sampleRate * 0.1)
		d.cropRamp = 0
	}
	return in
}
