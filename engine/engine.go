package engine

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go-modular/config"
	"go-modular/debug"
	"go-modular/dsp"
	"go-modular/midi"
	"go-modular/modules"
	"go-modular/rack"
)

// ButtonHold is how long a MIDI note keeps a button pressed
const ButtonHold = 10 * time.Millisecond

// UI refresh rate
const uiFPS = 30

// Engine owns the module instances and the patch, and renders audio one
// sample at a time. All module state is touched with mu held.
type Engine struct {
	mu sync.Mutex

	args  rack.ProcessArgs
	rnd   dsp.Source
	nodes []*node
	index map[string]*node
	wires []wire

	tap    *rack.Port
	tapRef config.Endpoint
	gain   float64

	holds   []hold
	gates   []gate
	notes   map[uint8][]paramTarget
	knobs   map[uint8][]paramTarget
	channel uint8  // 0-based MIDI channel for gate notes
	grid    string // sequencer shown on pad grids

	gateChan      chan midi.Event
	midiInputChan chan midi.NoteEvent
	midiCCChan    chan midi.CCEvent
	stopChan      chan struct{}
	stopOnce      sync.Once

	// Notify TUI of updates
	UpdateChan chan struct{}
}

type node struct {
	name string
	slug string
	proc rack.Processor
}

// hold releases a pressed button after a number of samples
type hold struct {
	param     *rack.Param
	remaining int
}

// Empty creates an engine with no modules
func Empty(sampleRate float64, rnd dsp.Source) *Engine {
	return &Engine{
		args:          rack.NewProcessArgs(sampleRate),
		rnd:           rnd,
		index:         make(map[string]*node),
		notes:         make(map[uint8][]paramTarget),
		knobs:         make(map[uint8][]paramTarget),
		gain:          1,
		gateChan:      make(chan midi.Event, 64),
		midiInputChan: make(chan midi.NoteEvent, 32),
		midiCCChan:    make(chan midi.CCEvent, 32),
		stopChan:      make(chan struct{}),
		UpdateChan:    make(chan struct{}, 1),
	}
}

// New builds the full rack described by cfg: one instance of every module
// named after its slug, the configured (or default) patch, the audio tap
// and the MIDI bindings. A nil cfg uses the defaults.
func New(sampleRate float64, cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	seed := uint64(time.Now().UnixNano())
	e := Empty(sampleRate, rand.New(rand.NewPCG(seed, seed>>1|1)))
	e.channel = uint8(cfg.MIDI.Channel - 1)

	for _, slug := range modules.ModelSlugs() {
		if err := e.AddModule(slug, slug); err != nil {
			return nil, err
		}
	}
	for _, s := range defaultSettings() {
		e.index[s.module].proc.Base().Params[s.param].SetValue(s.value)
	}

	cables := DefaultPatch()
	if len(cfg.Cables) > 0 {
		cables = CablesFromConfig(cfg.Cables)
	}
	for _, c := range cables {
		if err := e.Connect(c); err != nil {
			return nil, fmt.Errorf("patch: %w", err)
		}
	}

	if cfg.Audio.Output.Module != "" {
		if err := e.SetAudioOutput(cfg.Audio.Output, cfg.Audio.Gain); err != nil {
			return nil, fmt.Errorf("audio output: %w", err)
		}
	}
	for _, n := range cfg.MIDI.Notes {
		if err := e.BindNote(n.Note, n.Module, n.Param); err != nil {
			return nil, fmt.Errorf("midi notes: %w", err)
		}
	}
	for _, k := range cfg.MIDI.Knobs {
		if err := e.BindKnob(k.CC, k.Module, k.Param); err != nil {
			return nil, fmt.Errorf("midi knobs: %w", err)
		}
	}
	if cfg.MIDI.Grid != "" {
		if err := e.SetGridModule(cfg.MIDI.Grid); err != nil {
			return nil, err
		}
	}
	for _, g := range cfg.MIDI.Gates {
		if err := e.BindGate(g.Module, g.Port, g.Note); err != nil {
			return nil, fmt.Errorf("midi gates: %w", err)
		}
	}
	return e, nil
}

// SampleRate returns the render rate in Hz
func (e *Engine) SampleRate() float64 {
	return e.args.SampleRate
}

// AddModule instantiates a module by slug under a unique name
func (e *Engine) AddModule(name, slug string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.index[name]; ok {
		return fmt.Errorf("module %q already exists", name)
	}
	proc, err := modules.New(slug, e.rnd)
	if err != nil {
		return err
	}
	n := &node{name: name, slug: slug, proc: proc}
	e.nodes = append(e.nodes, n)
	e.index[name] = n
	debug.Log("patch", "add %s (%s)", name, slug)
	return nil
}

// Module returns the processor registered under name, or nil
func (e *Engine) Module(name string) rack.Processor {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n, ok := e.index[name]; ok {
		return n.proc
	}
	return nil
}

// lookup finds a module, mu held
func (e *Engine) lookup(name string) (*rack.Module, error) {
	n, ok := e.index[name]
	if !ok {
		return nil, fmt.Errorf("no module named %q", name)
	}
	return n.proc.Base(), nil
}

func (e *Engine) output(ep config.Endpoint) (*rack.Port, error) {
	m, err := e.lookup(ep.Module)
	if err != nil {
		return nil, err
	}
	id, ok := m.OutputID(ep.Port)
	if !ok {
		return nil, fmt.Errorf("module %q has no output %q", ep.Module, ep.Port)
	}
	return &m.Outputs[id], nil
}

func (e *Engine) input(ep config.Endpoint) (*rack.Port, error) {
	m, err := e.lookup(ep.Module)
	if err != nil {
		return nil, err
	}
	id, ok := m.InputID(ep.Port)
	if !ok {
		return nil, fmt.Errorf("module %q has no input %q", ep.Module, ep.Port)
	}
	return &m.Inputs[id], nil
}

func (e *Engine) param(module, name string) (*rack.Param, error) {
	m, err := e.lookup(module)
	if err != nil {
		return nil, err
	}
	id, ok := m.ParamID(name)
	if !ok {
		return nil, fmt.Errorf("module %q has no parameter %q", module, name)
	}
	return &m.Params[id], nil
}

// Connect adds a cable. An input accepts a single cable.
func (e *Engine) Connect(c Cable) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	from, err := e.output(c.From)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c, err)
	}
	to, err := e.input(c.To)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c, err)
	}
	for _, w := range e.wires {
		if w.to == to {
			return fmt.Errorf("connect %s: input already patched from %s:%s", c, w.cable.From.Module, w.cable.From.Port)
		}
	}

	e.wires = append(e.wires, wire{cable: c, from: from, to: to})
	e.refreshConnections()
	debug.Log("patch", "connect %s", c)
	return nil
}

// Disconnect removes the cable between the same two ports
func (e *Engine) Disconnect(c Cable) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	from, err := e.output(c.From)
	if err != nil {
		return fmt.Errorf("disconnect %s: %w", c, err)
	}
	to, err := e.input(c.To)
	if err != nil {
		return fmt.Errorf("disconnect %s: %w", c, err)
	}
	for i, w := range e.wires {
		if w.from == from && w.to == to {
			e.wires = append(e.wires[:i], e.wires[i+1:]...)
			e.refreshConnections()
			debug.Log("patch", "disconnect %s", c)
			return nil
		}
	}
	return fmt.Errorf("disconnect %s: no such cable", c)
}

// Cables returns the current patch in connection order
func (e *Engine) Cables() []Cable {
	e.mu.Lock()
	defer e.mu.Unlock()
	cables := make([]Cable, len(e.wires))
	for i, w := range e.wires {
		cables[i] = w.cable
	}
	return cables
}

// SetAudioOutput selects the output port rendered to the sound card
func (e *Engine) SetAudioOutput(ep config.Endpoint, gain float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	port, err := e.output(ep)
	if err != nil {
		return err
	}
	e.tap = port
	e.tapRef = ep
	e.gain = gain
	e.refreshConnections()
	debug.Log("audio", "tap %s:%s gain=%.2f", ep.Module, ep.Port, gain)
	return nil
}

// refreshConnections derives every port's connected flag from the patch.
// Outputs read by the audio tap or a gate binding count as connected.
func (e *Engine) refreshConnections() {
	used := make(map[*rack.Port]bool)
	for _, w := range e.wires {
		used[w.from] = true
		used[w.to] = true
	}
	if e.tap != nil {
		used[e.tap] = true
	}
	for _, g := range e.gates {
		used[g.port] = true
	}

	for _, n := range e.nodes {
		m := n.proc.Base()
		for i := range m.Inputs {
			setConnected(&m.Inputs[i], used)
		}
		for i := range m.Outputs {
			setConnected(&m.Outputs[i], used)
		}
	}
}

func setConnected(p *rack.Port, used map[*rack.Port]bool) {
	if p.IsConnected() != used[p] {
		p.SetConnected(used[p])
	}
}

// PressButton sets a parameter to its maximum and releases it to its
// minimum after d has been rendered.
func (e *Engine) PressButton(module, param string, d time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.param(module, param)
	if err != nil {
		return err
	}
	e.press(p, d)
	return nil
}

// press assumes mu is held
func (e *Engine) press(p *rack.Param, d time.Duration) {
	samples := int(d.Seconds() * e.args.SampleRate)
	if samples < 1 {
		samples = 1
	}
	p.SetValue(p.Max)
	for i := range e.holds {
		if e.holds[i].param == p {
			e.holds[i].remaining = samples
			return
		}
	}
	e.holds = append(e.holds, hold{param: p, remaining: samples})
}

// SetParam sets a parameter value, clamped to its range
func (e *Engine) SetParam(module, param string, v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.param(module, param)
	if err != nil {
		return err
	}
	p.SetValue(v)
	return nil
}

// ToggleParam flips a switch between its minimum and maximum
func (e *Engine) ToggleParam(module, param string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.param(module, param)
	if err != nil {
		return err
	}
	toggle(p)
	return nil
}

func toggle(p *rack.Param) {
	if p.Value() > (p.Min+p.Max)/2 {
		p.SetValue(p.Min)
	} else {
		p.SetValue(p.Max)
	}
}

// Render fills buf with mono samples in [-1, 1]
func (e *Engine) Render(buf []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range buf {
		buf[i] = e.step()
	}
	debug.LogEvery(1000, "render", "block of %d frames, frame=%d", len(buf), e.args.Frame)
}

// step runs one sample, mu held
func (e *Engine) step() float32 {
	for _, w := range e.wires {
		w.to.SetVoltage(w.from.Voltage())
	}
	for _, n := range e.nodes {
		n.proc.Process(e.args)
	}
	e.args.Frame++

	e.releaseHolds()
	e.scanGates()

	if e.tap == nil {
		return 0
	}
	return float32(dsp.Clamp(e.tap.Voltage()*e.gain/10, -1, 1))
}

func (e *Engine) releaseHolds() {
	kept := e.holds[:0]
	for _, h := range e.holds {
		h.remaining--
		if h.remaining <= 0 {
			h.param.SetValue(h.param.Min)
			continue
		}
		kept = append(kept, h)
	}
	e.holds = kept
}

// Frame returns the number of samples rendered
func (e *Engine) Frame() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.args.Frame
}

// Start launches the UI notifier and the MIDI input loop
func (e *Engine) Start() {
	go e.uiLoop()
	go e.midiInputLoop()
	debug.Log("engine", "started at %.0f Hz with %d modules", e.args.SampleRate, len(e.nodes))
}

// Stop ends every runtime goroutine
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopChan)
		debug.Log("engine", "stopped after %d frames", e.Frame())
	})
}

func (e *Engine) uiLoop() {
	ticker := time.NewTicker(time.Second / uiFPS)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			select {
			case e.UpdateChan <- struct{}{}:
			default:
			}
		}
	}
}
