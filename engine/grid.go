package engine

import (
	"fmt"
	"time"

	"go-modular/debug"
	"go-modular/midi"
	"go-modular/modules"
)

// GridState is a copy of a sequencer's gate matrix and playhead
type GridState struct {
	Gates  [modules.SecuSteps][modules.SecuColumns]bool
	Step   int // step driving the outputs
	Length int // active steps
}

// GridController is a pad grid with LED feedback
type GridController interface {
	PadEvents() <-chan midi.PadEvent
	SetLEDs(updates []midi.LEDUpdate) error
}

func gridState(s *modules.Secu) GridState {
	g := GridState{Step: s.StepOut(), Length: s.Length()}
	for step := range g.Gates {
		for lane := range g.Gates[step] {
			g.Gates[step][lane] = s.Gate(step, lane)
		}
	}
	return g
}

// Pads map steps to columns and lanes to rows, lane 0 on the top row
func padToGate(row, col int) (step, lane int, ok bool) {
	lane = midi.GridSize - 1 - row
	if col < 0 || col >= modules.SecuSteps || lane < 0 || lane >= modules.SecuColumns {
		return 0, 0, false
	}
	return col, lane, true
}

func gateToPad(step, lane int) (row, col int) {
	return midi.GridSize - 1 - lane, step
}

// GridLEDs colors every gate pad. The playhead column is white where a gate
// is on and blue where it is off; steps past the length are dimmed.
func GridLEDs(g GridState) []midi.LEDUpdate {
	updates := make([]midi.LEDUpdate, 0, modules.SecuSteps*modules.SecuColumns)
	for step := range g.Gates {
		for lane, on := range g.Gates[step] {
			color := midi.ColorOff
			switch {
			case step == g.Step && on:
				color = midi.ColorBrightWhite
			case step == g.Step:
				color = midi.ColorDimBlue
			case on && step >= g.Length:
				color = midi.ColorDimGreen
			case on:
				color = midi.ColorGreen
			}
			row, col := gateToPad(step, lane)
			updates = append(updates, midi.LEDUpdate{Row: row, Col: col, Color: color})
		}
	}
	return updates
}

// SetGridModule picks the sequencer shown on pad grids
func (e *Engine) SetGridModule(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok := e.index[name]
	if !ok {
		return fmt.Errorf("grid: no module named %q", name)
	}
	if _, ok := n.proc.(*modules.Secu); !ok {
		return fmt.Errorf("grid: %s is a %s, not a sequencer", name, n.slug)
	}
	e.grid = name
	return nil
}

// GridModule returns the sequencer shown on pad grids, or ""
func (e *Engine) GridModule() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grid
}

func (e *Engine) secu(name string) (*modules.Secu, error) {
	n, ok := e.index[name]
	if !ok {
		return nil, fmt.Errorf("no module named %q", name)
	}
	s, ok := n.proc.(*modules.Secu)
	if !ok {
		return nil, fmt.Errorf("module %q is not a sequencer", name)
	}
	return s, nil
}

// ToggleGate flips one cell of a sequencer's gate matrix
func (e *Engine) ToggleGate(module string, step, lane int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.secu(module)
	if err != nil {
		return err
	}
	if step < 0 || step >= modules.SecuSteps || lane < 0 || lane >= modules.SecuColumns {
		return fmt.Errorf("gate %d,%d outside the grid", step, lane)
	}
	toggle(&s.Params[modules.GateParam(step, lane)])
	return nil
}

// HandlePad toggles the gate under a pad of the grid module
func (e *Engine) HandlePad(evt midi.PadEvent) {
	step, lane, ok := padToGate(evt.Row, evt.Col)
	module := e.GridModule()
	if !ok || module == "" {
		return
	}
	if err := e.ToggleGate(module, step, lane); err != nil {
		debug.Log("grid", "pad %d,%d: %v", evt.Row, evt.Col, err)
		return
	}
	debug.Log("grid", "pad %d,%d -> %s step %d lane %d", evt.Row, evt.Col, module, step, lane)
}

// AttachGrid routes pad presses to the grid module and keeps the LEDs in
// step with its gates until the engine stops or the pads close.
func (e *Engine) AttachGrid(ctrl GridController) error {
	if e.GridModule() == "" {
		return fmt.Errorf("grid: no sequencer selected")
	}
	go e.gridLoop(ctrl)
	return nil
}

func (e *Engine) gridLoop(ctrl GridController) {
	ticker := time.NewTicker(time.Second / uiFPS)
	defer ticker.Stop()

	var shown []midi.LEDUpdate
	refresh := func() {
		s, ok := e.GridState()
		if !ok {
			return
		}
		next := GridLEDs(s)
		changed := changedLEDs(shown, next)
		if len(changed) == 0 {
			return
		}
		if err := ctrl.SetLEDs(changed); err != nil {
			debug.LogEvery(100, "grid", "leds: %v", err)
			return
		}
		shown = next
	}
	refresh()

	for {
		select {
		case <-e.stopChan:
			return
		case evt, ok := <-ctrl.PadEvents():
			if !ok {
				return
			}
			e.HandlePad(evt)
			refresh()
		case <-ticker.C:
			refresh()
		}
	}
}

// GridState copies the grid module's matrix
func (e *Engine) GridState() (GridState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.grid == "" {
		return GridState{}, false
	}
	s, err := e.secu(e.grid)
	if err != nil {
		return GridState{}, false
	}
	return gridState(s), true
}

// changedLEDs returns the pads of next that differ from prev
func changedLEDs(prev, next []midi.LEDUpdate) []midi.LEDUpdate {
	if len(prev) != len(next) {
		return next
	}
	var out []midi.LEDUpdate
	for i := range next {
		if next[i] != prev[i] {
			out = append(out, next[i])
		}
	}
	return out
}
