package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-modular/audio"
	"go-modular/config"
	"go-modular/debug"
	"go-modular/engine"
	"go-modular/midi"
	"go-modular/theme"
	"go-modular/tui"
)

// output is either the sound card player or the silent clock
type output interface {
	Start()
	Close()
}

func main() {
	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Debug {
		if err := debug.Enable(); err != nil {
			return err
		}
		defer debug.Disable()
	}

	palette, err := theme.Load(cfg.Palette)
	if err != nil {
		return err
	}
	th := theme.New(palette)

	eng, err := engine.New(float64(cfg.SampleRate), cfg)
	if err != nil {
		return err
	}

	var out output = audio.NewClock(cfg.SampleRate, eng)
	if cfg.Audio.Enabled {
		player, err := audio.NewPlayer(cfg.SampleRate, eng)
		if err != nil {
			return err
		}
		out = player
	}
	defer out.Close()
	defer gomidi.CloseDriver()

	// Create MIDI device manager (handles hot-plug)
	deviceMgr := midi.NewDeviceManager(cfg.MIDI.InputPort)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deviceMgr.Run(ctx)

	if cfg.MIDI.OutputPort != "" {
		midiOut, err := midi.OpenOutput(cfg.MIDI.OutputPort, uint8(cfg.MIDI.Channel-1))
		if err != nil {
			fmt.Printf("Warning: %v (gate notes disabled)\n", err)
		} else {
			eng.SetMIDIOutput(midiOut)
			debug.Log("midi", "output %s ch=%d", midiOut.Name(), cfg.MIDI.Channel)
		}
	}

	eng.Start()
	defer eng.Stop()
	out.Start()

	m := tui.NewModel(eng, deviceMgr, th)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
