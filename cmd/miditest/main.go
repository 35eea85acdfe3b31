package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-modular/config"
	rackmidi "go-modular/midi"
	"go-modular/modules"
)

func main() {
	defer midi.CloseDriver()

	if len(os.Args) < 2 {
		usage()
		return
	}

	filter := ""
	var rest []string
	if len(os.Args) > 2 {
		filter = os.Args[2]
		rest = os.Args[3:]
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "monitor":
		monitor(filter)
	case "send":
		sendNotes(filter, rest)
	case "poll":
		pollDevices()
	case "params":
		listParams(filter)
	case "note":
		showNote(filter)
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                   - List all MIDI ports")
	fmt.Println("  monitor [port]         - Print notes arriving on matching inputs")
	fmt.Println("  send <port> [notes..]  - Send test notes (default 36 38 42) on channel 10")
	fmt.Println("  poll                   - Poll for device changes")
	fmt.Println("  params [module]        - Parameter and port names for config bindings")
	fmt.Println("  note <number>          - What a note does under the current config")
}

// showNote prints the configured bindings of one note
func showNote(arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 || n > 127 {
		fmt.Printf("Bad note %q\n", arg)
		return
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	bindings := cfg.FindNote(uint8(n))
	if len(bindings) == 0 {
		fmt.Printf("note %d is unbound\n", n)
	}
	for _, b := range bindings {
		fmt.Printf("note %d -> %s: %s\n", n, b.Module, b.Param)
	}
	for _, g := range cfg.MIDI.Gates {
		if g.Note == uint8(n) {
			fmt.Printf("note %d <- gate %s: %s\n", n, g.Module, g.Port)
		}
	}
}

// listParams prints what a note, knob or gate binding can name
func listParams(slug string) {
	slugs := modules.ModelSlugs()
	if slug != "" {
		slugs = []string{slug}
	}
	for _, s := range slugs {
		proc, err := modules.New(s, nil)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		m := proc.Base()
		fmt.Printf("=== %s ===\n", s)
		for i, p := range m.Params {
			kind := "knob"
			if p.Momentary {
				kind = "button"
			} else if p.Snap {
				kind = "switch"
			}
			fmt.Printf("  param  %3d  %-6s %-32s %g..%g\n", i, kind, p.Name, p.Min, p.Max)
		}
		for i, in := range m.Inputs {
			fmt.Printf("  input  %3d  %s\n", i, in.Name)
		}
		for i, out := range m.Outputs {
			fmt.Printf("  output %3d  %s\n", i, out.Name)
		}
	}
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ins := midi.GetInPorts()
		outs := midi.GetOutPorts()
		ch <- result{ins: ins, outs: outs}
	}()

	select {
	case r := <-ch:
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
	}
}

func monitor(filter string) {
	var stops []func()
	for _, in := range midi.GetInPorts() {
		if !rackmidi.MatchPort(in.String(), filter) {
			continue
		}
		name := in.String()
		stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
			fmt.Printf("[%8dms] %-30s %s\n", timestampms, name, msg)
		})
		if err != nil {
			fmt.Printf("Error opening %s: %v\n", name, err)
			continue
		}
		fmt.Printf("Listening on %s\n", name)
		stops = append(stops, stop)
	}

	if len(stops) == 0 {
		fmt.Println("No matching inputs")
		return
	}

	fmt.Println("Ctrl+C to exit.")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig

	for _, stop := range stops {
		stop()
	}
}

func sendNotes(filter string, args []string) {
	notes := []uint8{36, 38, 42}
	if len(args) > 0 {
		notes = notes[:0]
		for _, a := range args {
			n, err := strconv.Atoi(a)
			if err != nil || n < 0 || n > 127 {
				fmt.Printf("Bad note %q\n", a)
				return
			}
			notes = append(notes, uint8(n))
		}
	}

	out, err := rackmidi.OpenOutput(filter, 9)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("Using output: %s\n", out.Name())

	for _, n := range notes {
		fmt.Printf("  note %d\n", n)
		if err := out.Send(rackmidi.Event{Type: rackmidi.NoteOn, Note: n, Velocity: 100}); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		time.Sleep(150 * time.Millisecond)
		out.Send(rackmidi.Event{Type: rackmidi.NoteOff, Note: n})
		time.Sleep(100 * time.Millisecond)
	}

	fmt.Println("Done!")
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect a controller to test. Ctrl+C to exit.")

	lastIn := ""
	lastOut := ""

	for {
		ins := midi.GetInPorts()
		outs := midi.GetOutPorts()

		var inNames, outNames []string
		for _, p := range ins {
			inNames = append(inNames, p.String())
		}
		for _, p := range outs {
			outNames = append(outNames, p.String())
		}

		currentIn := strings.Join(inNames, ",")
		currentOut := strings.Join(outNames, ",")

		if currentIn != lastIn || currentOut != lastOut {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", inNames)
			fmt.Printf("  Outputs: %v\n", outNames)

			for _, name := range inNames {
				if rackmidi.MatchPort(name, "") {
					fmt.Printf("  -> would listen on %s\n", name)
				}
			}

			lastIn = currentIn
			lastOut = currentOut
		}

		time.Sleep(2 * time.Second)
	}
}
