package engine

import (
	"fmt"
	"strconv"

	"go-modular/config"
	"go-modular/modules"
	"go-modular/rack"
)

// Cable routes one output to one input. The value read on the input lags
// the output by one sample.
type Cable struct {
	From config.Endpoint
	To   config.Endpoint
}

func (c Cable) String() string {
	return fmt.Sprintf("%s:%s -> %s:%s", c.From.Module, c.From.Port, c.To.Module, c.To.Port)
}

// wire is a cable resolved to port pointers
type wire struct {
	cable Cable
	from  *rack.Port
	to    *rack.Port
}

// CablesFromConfig converts configured cables
func CablesFromConfig(cfg []config.CableConfig) []Cable {
	cables := make([]Cable, len(cfg))
	for i, c := range cfg {
		cables[i] = Cable{From: c.From, To: c.To}
	}
	return cables
}

// DefaultPatch wires the five modules into a self-playing rack
func DefaultPatch() []Cable {
	cables := []Cable{
		{From: ep("klok", "Modulo 0"), To: ep("secu", "Trigger")},
		{From: ep("klok", "Reset"), To: ep("secu", "Reset")},
	}
	drums := []string{"Kick", "Snare", "HiHat Closed", "HiHat Open", "FX Sound"}
	for i, drum := range drums {
		cables = append(cables, Cable{
			From: ep("secu", "Trigger "+strconv.Itoa(i)+" Out"),
			To:   ep("babum", "Trigger "+drum),
		})
	}
	return append(cables,
		Cable{From: ep("babum", "Mix"), To: ep("distroi", "Bitcrush input")},
		Cable{From: ep("babum", "Mix"), To: ep("distroi", "Glitch input")},
		Cable{From: ep("klok", "Modulo 3"), To: ep("scener", "Trigger")},
		Cable{From: ep("distroi", "Bitcrush output"), To: ep("scener", "Signal 0 scene 0")},
		Cable{From: ep("distroi", "Glitch output"), To: ep("scener", "Signal 0 scene 1")},
	)
}

func ep(module, port string) config.Endpoint {
	return config.Endpoint{Module: module, Port: port}
}

// setting is a parameter value applied when the default rack is built
type setting struct {
	module string
	param  int
	value  float64
}

// defaultSettings starts the clock and gives the rack a groove
func defaultSettings() []setting {
	s := []setting{
		{"klok", modules.KlokRun, 1},
		{"klok", modules.KlokTempo, 120},
		{"secu", modules.SecuProbability, 0.1},
		{"distroi", modules.LaneParam(modules.EffectBitcrush, modules.DistroiQuantity), 0.3},
		{"distroi", modules.LaneParam(modules.EffectGlitch, modules.DistroiQuantity), 0.5},
		{"scener", modules.ScenerSceneCount, 2},
		{"scener", modules.ScenerLoop, 1},
		{"scener", modules.ScenerTransition, 0.5},
		{"scener", modules.ScenerSteps, 4},
		{"scener", modules.ScenerSteps + 1, 4},
	}

	// kick on the beat, snare on the backbeat, closed hats between
	pattern := map[int][]int{
		modules.VoiceKick:        {0, 4},
		modules.VoiceSnare:       {2, 6},
		modules.VoiceHiHatClosed: {1, 3, 5},
		modules.VoiceHiHatOpen:   {7},
	}
	for col := 0; col < modules.SecuColumns; col++ {
		for _, step := range pattern[col] {
			s = append(s, setting{"secu", modules.GateParam(step, col), 1})
		}
	}
	return s
}
