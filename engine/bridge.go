package engine

import (
	"fmt"
	"runtime"

	"go-modular/config"
	"go-modular/debug"
	"go-modular/dsp"
	"go-modular/midi"
	"go-modular/rack"
)

// gateVelocity is the note-on velocity for gate edges
const gateVelocity = 100

// paramTarget is a parameter driven by a MIDI note or knob
type paramTarget struct {
	module string
	name   string
	param  *rack.Param
}

// gate turns edges on an output into note-on/note-off pairs
type gate struct {
	port *rack.Port
	note uint8
	trig dsp.SchmittTrigger
	on   bool
}

// Sender delivers gate events to a MIDI port
type Sender interface {
	Send(evt midi.Event) error
}

// BindNote makes a MIDI note press (or toggle) a module parameter
func (e *Engine) BindNote(note uint8, module, param string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.param(module, param)
	if err != nil {
		return fmt.Errorf("note %d: %w", note, err)
	}
	e.notes[note] = append(e.notes[note], paramTarget{module: module, name: param, param: p})
	return nil
}

// BindKnob makes a MIDI control change sweep a parameter from Min to Max
func (e *Engine) BindKnob(cc uint8, module, param string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.param(module, param)
	if err != nil {
		return fmt.Errorf("cc %d: %w", cc, err)
	}
	e.knobs[cc] = append(e.knobs[cc], paramTarget{module: module, name: param, param: p})
	return nil
}

// BindGate emits notes when the output crosses the trigger thresholds
func (e *Engine) BindGate(module, port string, note uint8) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.output(config.Endpoint{Module: module, Port: port})
	if err != nil {
		return fmt.Errorf("gate note %d: %w", note, err)
	}
	e.gates = append(e.gates, gate{port: p, note: note})
	e.refreshConnections()
	return nil
}

// HandleNote routes an incoming note to the bound parameters. Buttons are
// held for ButtonHold, switches toggle.
func (e *Engine) HandleNote(evt midi.NoteEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	targets := e.notes[evt.Note]
	if len(targets) == 0 {
		debug.Log("midi", "note %d ch=%d unbound", evt.Note, evt.Channel+1)
		return
	}
	for _, t := range targets {
		if t.param.Momentary {
			e.press(t.param, ButtonHold)
		} else {
			toggle(t.param)
		}
		debug.Log("midi", "note %d -> %s:%s = %.2f", evt.Note, t.module, t.name, t.param.Value())
	}
}

// HandleCC moves the bound parameters to the knob position
func (e *Engine) HandleCC(evt midi.CCEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, t := range e.knobs[evt.Controller] {
		t.param.SetValue(t.param.Min + evt.Amount()*(t.param.Max-t.param.Min))
		debug.LogEvery(20, "midi", "cc %d -> %s:%s = %.2f", evt.Controller, t.module, t.name, t.param.Value())
	}
}

// scanGates runs once per sample, mu held
func (e *Engine) scanGates() {
	for i := range e.gates {
		g := &e.gates[i]
		rising := g.trig.Process(g.port.Voltage())
		switch {
		case rising:
			g.on = true
			e.emit(midi.Event{Type: midi.NoteOn, Channel: e.channel, Note: g.note, Velocity: gateVelocity})
		case g.on && !g.trig.IsHigh():
			g.on = false
			e.emit(midi.Event{Type: midi.NoteOff, Channel: e.channel, Note: g.note})
		}
	}
}

// emit never blocks the render loop
func (e *Engine) emit(evt midi.Event) {
	select {
	case e.gateChan <- evt:
	default:
		debug.LogEvery(100, "midi", "gate queue full, dropped note %d", evt.Note)
	}
}

// SetMIDIInput forwards a controller's notes and knobs to the input loop.
// Events are dropped while the loop is behind.
func (e *Engine) SetMIDIInput(ctrl midi.Controller) {
	go func() {
		for evt := range ctrl.NoteEvents() {
			select {
			case e.midiInputChan <- evt:
			default:
			}
		}
	}()
	go func() {
		for evt := range ctrl.CCEvents() {
			select {
			case e.midiCCChan <- evt:
			default:
			}
		}
	}()
	debug.Log("midi", "input %s attached", ctrl.ID())
}

// midiInputLoop applies controller input to the rack
func (e *Engine) midiInputLoop() {
	for {
		select {
		case <-e.stopChan:
			return
		case evt := <-e.midiInputChan:
			e.HandleNote(evt)
		case evt := <-e.midiCCChan:
			e.HandleCC(evt)
		}
	}
}

// SetMIDIOutput starts draining gate events into out
func (e *Engine) SetMIDIOutput(out Sender) {
	go e.midiOutputLoop(out)
}

func (e *Engine) midiOutputLoop(out Sender) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-e.stopChan:
			return
		case evt := <-e.gateChan:
			if err := out.Send(evt); err != nil {
				debug.LogEvery(100, "midi", "send failed: %v", err)
				continue
			}
			debug.Log("dispatch", "type=%#x ch=%d note=%d vel=%d", evt.Type, evt.Channel+1, evt.Note, evt.Velocity)
		}
	}
}
