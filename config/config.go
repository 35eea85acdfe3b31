package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Endpoint names a port on a module instance. Port is matched against the
// port names case-insensitively, or read as a numeric port index.
type Endpoint struct {
	Module string `json:"module"`
	Port   string `json:"port"`
}

// CableConfig is one patch cable from an output to an input
type CableConfig struct {
	From Endpoint `json:"from"`
	To   Endpoint `json:"to"`
}

// AudioConfig selects the output port played on the sound card
type AudioConfig struct {
	Enabled bool     `json:"enabled"`
	Output  Endpoint `json:"output"`
	Gain    float64  `json:"gain"`
}

// NoteBinding presses a module parameter when a MIDI note arrives
type NoteBinding struct {
	Note   uint8  `json:"note"`
	Module string `json:"module"`
	Param  string `json:"param"`
}

// KnobBinding sweeps a module parameter across its range with a MIDI
// control change
type KnobBinding struct {
	CC     uint8  `json:"cc"`
	Module string `json:"module"`
	Param  string `json:"param"`
}

// GateBinding turns gate edges on a module output into MIDI notes
type GateBinding struct {
	Module string `json:"module"`
	Port   string `json:"port"`
	Note   uint8  `json:"note"`
}

// MIDIConfig holds MIDI port selection and routing
type MIDIConfig struct {
	InputPort  string        `json:"inputPort,omitempty"`  // substring match, empty = every input
	OutputPort string        `json:"outputPort,omitempty"` // substring match, empty = no output
	Channel    int           `json:"channel"`              // 1-16
	Notes      []NoteBinding `json:"notes,omitempty"`
	Knobs      []KnobBinding `json:"knobs,omitempty"`
	Gates      []GateBinding `json:"gates,omitempty"`
	Grid       string        `json:"grid,omitempty"` // sequencer module played from a Launchpad
}

// Config is the main configuration structure
type Config struct {
	SampleRate int           `json:"sampleRate"`
	Audio      AudioConfig   `json:"audio"`
	MIDI       MIDIConfig    `json:"midi"`
	Palette    string        `json:"palette,omitempty"` // GPL file, empty = built-in colors
	Debug      bool          `json:"debug,omitempty"`
	Cables     []CableConfig `json:"cables,omitempty"` // replaces the default patch when set
}

// Sample rate limits
const (
	MinSampleRate = 8000
	MaxSampleRate = 192000
	MaxGain       = 10
)

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		SampleRate: 48000,
		Audio: AudioConfig{
			Enabled: true,
			Output:  Endpoint{Module: "scener", Port: "Signal 0"},
			Gain:    1,
		},
		MIDI: MIDIConfig{
			Channel: 10,
			Grid:    "secu",
			Notes: []NoteBinding{
				{Note: 36, Module: "babum", Param: "Trigger Kick"},
				{Note: 38, Module: "babum", Param: "Trigger Snare"},
				{Note: 42, Module: "babum", Param: "Trigger HiHat Closed"},
				{Note: 46, Module: "babum", Param: "Trigger HiHat Open"},
				{Note: 49, Module: "babum", Param: "Trigger FX sound"},
				{Note: 48, Module: "secu", Param: "Randomize steps"},
				{Note: 50, Module: "klok", Param: "Run clock"},
				{Note: 51, Module: "scener", Param: "Reset"},
			},
			Knobs: []KnobBinding{
				{CC: 1, Module: "klok", Param: "Set tempo"},
				{CC: 71, Module: "secu", Param: "Glitch probability"},
				{CC: 72, Module: "distroi", Param: "Bitcrush effect quantity"},
				{CC: 73, Module: "scener", Param: "Crossfade transition time"},
			},
			Gates: []GateBinding{
				{Module: "secu", Port: "Trigger 0 Out", Note: 36},
				{Module: "secu", Port: "Trigger 1 Out", Note: 38},
				{Module: "secu", Port: "Trigger 2 Out", Note: 42},
			},
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-modular"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config file. Fields missing from the file keep their
// default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Binding lists in the file replace the defaults. Decoding into the
	// default slices would merge them element by element.
	cfg := DefaultConfig()
	def := cfg.MIDI
	cfg.MIDI.Notes, cfg.MIDI.Knobs, cfg.MIDI.Gates = nil, nil, nil
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.MIDI.Notes == nil {
		cfg.MIDI.Notes = def.Notes
	}
	if cfg.MIDI.Knobs == nil {
		cfg.MIDI.Knobs = def.Knobs
	}
	if cfg.MIDI.Gates == nil {
		cfg.MIDI.Gates = def.Gates
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and required fields
func (c *Config) Validate() error {
	var errs []error

	if c.SampleRate < MinSampleRate || c.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("sampleRate %d outside %d-%d", c.SampleRate, MinSampleRate, MaxSampleRate))
	}
	if c.Audio.Gain < 0 || c.Audio.Gain > MaxGain {
		errs = append(errs, fmt.Errorf("audio gain %v outside 0-%d", c.Audio.Gain, MaxGain))
	}
	if c.Audio.Enabled && (c.Audio.Output.Module == "" || c.Audio.Output.Port == "") {
		errs = append(errs, errors.New("audio output needs a module and a port"))
	}
	if c.MIDI.Channel < 1 || c.MIDI.Channel > 16 {
		errs = append(errs, fmt.Errorf("midi channel %d outside 1-16", c.MIDI.Channel))
	}
	for i, n := range c.MIDI.Notes {
		if n.Note > 127 {
			errs = append(errs, fmt.Errorf("notes[%d]: note %d outside 0-127", i, n.Note))
		}
		if n.Module == "" || n.Param == "" {
			errs = append(errs, fmt.Errorf("notes[%d]: module and param are required", i))
		}
	}
	for i, k := range c.MIDI.Knobs {
		if k.CC > 119 {
			errs = append(errs, fmt.Errorf("knobs[%d]: cc %d is a channel mode message", i, k.CC))
		}
		if k.Module == "" || k.Param == "" {
			errs = append(errs, fmt.Errorf("knobs[%d]: module and param are required", i))
		}
	}
	for i, g := range c.MIDI.Gates {
		if g.Note > 127 {
			errs = append(errs, fmt.Errorf("gates[%d]: note %d outside 0-127", i, g.Note))
		}
		if g.Module == "" || g.Port == "" {
			errs = append(errs, fmt.Errorf("gates[%d]: module and port are required", i))
		}
	}
	for i, cable := range c.Cables {
		if cable.From.Module == "" || cable.To.Module == "" {
			errs = append(errs, fmt.Errorf("cables[%d]: both ends need a module", i))
		}
	}
	return errors.Join(errs...)
}

// FindNote returns the bindings for a MIDI note
func (c *Config) FindNote(note uint8) []NoteBinding {
	var result []NoteBinding
	for _, n := range c.MIDI.Notes {
		if n.Note == note {
			result = append(result, n)
		}
	}
	return result
}
