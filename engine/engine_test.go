package engine

import (
	"math"
	"strings"
	"testing"
	"time"

	"go-modular/config"
	"go-modular/midi"
	"go-modular/modules"
)

type fixed float64

func (f fixed) Float64() float64 { return float64(f) }

// clockRack is a klok driving a secu with the first gate cell on
func clockRack(t *testing.T) *Engine {
	t.Helper()
	e := Empty(1000, fixed(0.5))
	for _, m := range [][2]string{{"clock", "klok"}, {"seq", "secu"}} {
		if err := e.AddModule(m[0], m[1]); err != nil {
			t.Fatal(err)
		}
	}
	e.Module("clock").Base().Params[modules.KlokRun].SetValue(1)
	e.Module("seq").Base().Params[modules.GateParam(0, 0)].SetValue(1)
	if err := e.Connect(Cable{From: ep("clock", "Modulo 0"), To: ep("seq", "Trigger")}); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestNew_DefaultRack(t *testing.T) {
	e, err := New(48000, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, want := len(e.Cables()), len(DefaultPatch()); got != want {
		t.Errorf("%d cables, want %d", got, want)
	}

	snap := e.Snapshot()
	for i, slug := range modules.ModelSlugs() {
		if snap.Modules[i].Slug != slug {
			t.Errorf("module %d = %s, want %s", i, snap.Modules[i].Slug, slug)
		}
	}

	secu := e.Module("secu").Base()
	if !secu.Inputs[modules.SecuTriggerInput].IsConnected() {
		t.Error("secu trigger not connected")
	}
	if !secu.Outputs[0].IsConnected() {
		t.Error("secu output 0 not connected")
	}
	distroi := e.Module("distroi").Base()
	if distroi.Inputs[modules.DistroiInput+modules.EffectDecimate].IsConnected() {
		t.Error("decimate input connected without a cable")
	}
	scener := e.Module("scener").Base()
	if !scener.Outputs[modules.ScenerSignalOutput].IsConnected() {
		t.Error("audio tap output not marked connected")
	}
}

func TestNew_DefaultRackMakesSound(t *testing.T) {
	e, err := New(48000, nil)
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]float32, 4800)
	peak := 0.0
	for block := 0; block < 30; block++ {
		e.Render(buf)
		for _, v := range buf {
			f := float64(v)
			if math.IsNaN(f) || f < -1 || f > 1 {
				t.Fatalf("sample %v out of range", v)
			}
			peak = math.Max(peak, math.Abs(f))
		}
	}
	if peak == 0 {
		t.Error("three seconds of silence from the default rack")
	}
	if e.Frame() != 30*4800 {
		t.Errorf("frame = %d", e.Frame())
	}
}

func TestNew_ConfigCablesReplaceDefault(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Cables = []config.CableConfig{{From: ep("klok", "Reset"), To: ep("scener", "Reset")}}
	e, err := New(48000, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if cables := e.Cables(); len(cables) != 1 || cables[0].To.Module != "scener" {
		t.Errorf("cables = %v", cables)
	}

	cfg.Cables = []config.CableConfig{{From: ep("klok", "Nope"), To: ep("scener", "Reset")}}
	if _, err := New(48000, cfg); err == nil || !strings.Contains(err.Error(), "no output") {
		t.Errorf("bad cable error = %v", err)
	}
}

func TestConnect_Errors(t *testing.T) {
	e := clockRack(t)
	tests := []struct {
		name  string
		cable Cable
		want  string
	}{
		{"unknown module", Cable{From: ep("vco", "Out"), To: ep("seq", "Reset")}, "no module"},
		{"unknown output", Cable{From: ep("clock", "Sine"), To: ep("seq", "Reset")}, "no output"},
		{"unknown input", Cable{From: ep("clock", "Reset"), To: ep("seq", "Pitch")}, "no input"},
		{"index out of range", Cable{From: ep("clock", "42"), To: ep("seq", "Reset")}, "no output"},
		{"double patched", Cable{From: ep("clock", "Modulo 1"), To: ep("seq", "Trigger")}, "already patched"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.Connect(tt.cable)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
	if err := e.AddModule("clock", "klok"); err == nil {
		t.Error("duplicate module name accepted")
	}
}

func TestConnect_NumericPorts(t *testing.T) {
	e := clockRack(t)
	// output 0 is Reset, input 0 is Reset
	if err := e.Connect(Cable{From: ep("clock", "0"), To: ep("seq", "0")}); err != nil {
		t.Fatal(err)
	}
	if !e.Module("seq").Base().Inputs[modules.SecuResetInput].IsConnected() {
		t.Error("reset input not connected")
	}
}

func TestDisconnect(t *testing.T) {
	e := clockRack(t)
	c := Cable{From: ep("clock", "Modulo 0"), To: ep("seq", "Trigger")}
	if err := e.Disconnect(c); err != nil {
		t.Fatal(err)
	}
	if e.Module("seq").Base().Inputs[modules.SecuTriggerInput].IsConnected() {
		t.Error("input still connected")
	}
	if e.Module("clock").Base().Outputs[modules.KlokModOutput].IsConnected() {
		t.Error("output still connected")
	}
	if err := e.Disconnect(c); err == nil {
		t.Error("second disconnect succeeded")
	}
}

func TestRender_OneSampleCableDelay(t *testing.T) {
	e := clockRack(t)
	if err := e.SetAudioOutput(ep("seq", "Trigger 0 Out"), 1); err != nil {
		t.Fatal(err)
	}
	buf := make([]float32, 300)
	e.Render(buf)

	// 120 BPM at 1 kHz: the clock fires on frame 251
	if buf[251] != 0 {
		t.Errorf("sequencer saw the clock without a cable delay: %v", buf[251])
	}
	if buf[252] != 1 {
		t.Errorf("frame 252 = %v, want 1", buf[252])
	}
	if buf[253] != 0 {
		t.Errorf("frame 253 = %v, want 0", buf[253])
	}
}

func TestRender_TapGain(t *testing.T) {
	e := clockRack(t)
	if err := e.SetAudioOutput(ep("seq", "Trigger 0 Out"), 0.5); err != nil {
		t.Fatal(err)
	}
	buf := make([]float32, 300)
	e.Render(buf)
	if buf[252] != 0.5 {
		t.Errorf("10 V at gain 0.5 = %v, want 0.5", buf[252])
	}

	if err := e.SetAudioOutput(ep("seq", "Nope"), 1); err == nil {
		t.Error("unknown tap accepted")
	}
}

func TestPressButton_ReleasesAfterHold(t *testing.T) {
	e := Empty(1000, fixed(0.5))
	if err := e.AddModule("drums", "babum"); err != nil {
		t.Fatal(err)
	}
	if err := e.PressButton("drums", "trigger kick", 5*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	p := &e.Module("drums").Base().Params[modules.BaBumTrigKick]

	buf := make([]float32, 4)
	e.Render(buf)
	if p.Value() != 1 {
		t.Fatalf("released after 4 of 5 samples")
	}
	e.Render(buf[:1])
	if p.Value() != 0 {
		t.Errorf("still pressed after the hold")
	}

	if err := e.PressButton("drums", "Cowbell", time.Millisecond); err == nil {
		t.Error("unknown parameter accepted")
	}
}

func TestSetAndToggleParam(t *testing.T) {
	e := clockRack(t)
	if err := e.SetParam("clock", "Set tempo", 1000); err != nil {
		t.Fatal(err)
	}
	if got := e.Module("clock").Base().Params[modules.KlokTempo].Value(); got != 360 {
		t.Errorf("tempo = %v, want clamp to 360", got)
	}
	if err := e.ToggleParam("clock", "Run clock"); err != nil {
		t.Fatal(err)
	}
	if e.Module("clock").Base().Params[modules.KlokRun].Value() != 0 {
		t.Error("toggle did not stop the clock")
	}
}

func TestHandleNote(t *testing.T) {
	e := clockRack(t)
	if err := e.AddModule("drums", "babum"); err != nil {
		t.Fatal(err)
	}
	if err := e.BindNote(36, "drums", "Trigger Kick"); err != nil {
		t.Fatal(err)
	}
	if err := e.BindNote(50, "clock", "Run clock"); err != nil {
		t.Fatal(err)
	}
	if err := e.BindNote(51, "clock", "Swing"); err == nil {
		t.Error("unknown parameter bound")
	}

	e.HandleNote(midi.NoteEvent{Note: 36, Velocity: 100})
	kick := &e.Module("drums").Base().Params[modules.BaBumTrigKick]
	if kick.Value() != 1 {
		t.Error("kick button not pressed")
	}
	e.Render(make([]float32, int(ButtonHold.Seconds()*1000)))
	if kick.Value() != 0 {
		t.Error("kick button not released")
	}

	run := &e.Module("clock").Base().Params[modules.KlokRun]
	e.HandleNote(midi.NoteEvent{Note: 50, Velocity: 100})
	if run.Value() != 0 {
		t.Error("run switch not toggled off")
	}
	e.HandleNote(midi.NoteEvent{Note: 50, Velocity: 100})
	if run.Value() != 1 {
		t.Error("run switch not toggled on")
	}

	e.HandleNote(midi.NoteEvent{Note: 99, Velocity: 100}) // unbound, ignored
}

func TestGateBridge(t *testing.T) {
	e := Empty(1000, fixed(0.5))
	if err := e.AddModule("clock", "klok"); err != nil {
		t.Fatal(err)
	}
	e.Module("clock").Base().Params[modules.KlokRun].SetValue(1)
	if err := e.BindGate("clock", "Modulo 0", 60); err != nil {
		t.Fatal(err)
	}
	if err := e.BindGate("clock", "Modulo 9", 61); err == nil {
		t.Error("unknown gate port bound")
	}

	e.Render(make([]float32, 300))

	want := []midi.Event{
		{Type: midi.NoteOn, Note: 60, Velocity: gateVelocity},
		{Type: midi.NoteOff, Note: 60},
	}
	for i, w := range want {
		select {
		case got := <-e.gateChan:
			if got != w {
				t.Errorf("event %d = %+v, want %+v", i, got, w)
			}
		default:
			t.Fatalf("missing event %d", i)
		}
	}
	select {
	case extra := <-e.gateChan:
		t.Errorf("unexpected event %+v", extra)
	default:
	}
}

type chanSender chan midi.Event

func (c chanSender) Send(evt midi.Event) error {
	c <- evt
	return nil
}

func TestMIDIOutputLoop(t *testing.T) {
	e := Empty(1000, fixed(0.5))
	if err := e.AddModule("clock", "klok"); err != nil {
		t.Fatal(err)
	}
	e.Module("clock").Base().Params[modules.KlokRun].SetValue(1)
	if err := e.BindGate("clock", "Modulo 0", 42); err != nil {
		t.Fatal(err)
	}

	out := make(chanSender, 4)
	e.SetMIDIOutput(out)
	defer e.Stop()

	e.Render(make([]float32, 300))

	select {
	case evt := <-out:
		if evt.Type != midi.NoteOn || evt.Note != 42 {
			t.Errorf("sent %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("gate event never sent")
	}
}

type fakeKeyboard struct {
	notes chan midi.NoteEvent
	ccs   chan midi.CCEvent
}

func newFakeKeyboard() *fakeKeyboard {
	return &fakeKeyboard{notes: make(chan midi.NoteEvent, 1), ccs: make(chan midi.CCEvent, 1)}
}

func (f *fakeKeyboard) ID() string                        { return "fake" }
func (f *fakeKeyboard) NoteEvents() <-chan midi.NoteEvent { return f.notes }
func (f *fakeKeyboard) CCEvents() <-chan midi.CCEvent     { return f.ccs }
func (f *fakeKeyboard) Close() error {
	close(f.notes)
	close(f.ccs)
	return nil
}

func TestMIDIInputLoop(t *testing.T) {
	e := clockRack(t)
	if err := e.BindNote(50, "clock", "Run clock"); err != nil {
		t.Fatal(err)
	}
	if err := e.BindKnob(1, "clock", "Set tempo"); err != nil {
		t.Fatal(err)
	}
	e.Start()
	defer e.Stop()

	kb := newFakeKeyboard()
	e.SetMIDIInput(kb)
	kb.notes <- midi.NoteEvent{Note: 50, Velocity: 127}
	kb.ccs <- midi.CCEvent{Controller: 1, Value: 127}
	defer kb.Close()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		params := e.Snapshot().Modules[0].Params
		if params[modules.KlokRun].Value == 0 && params[modules.KlokTempo].Value == 360 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Error("note and knob never reached the clock")
}

func TestHandleCC(t *testing.T) {
	e := clockRack(t)
	if err := e.BindKnob(7, "clock", "Set tempo"); err != nil {
		t.Fatal(err)
	}
	if err := e.BindKnob(7, "clock", "Swing"); err == nil {
		t.Error("unknown parameter bound")
	}
	tempo := &e.Module("clock").Base().Params[modules.KlokTempo]

	tests := []struct {
		value uint8
		want  float64
	}{
		{0, 30},
		{127, 360},
	}
	for _, tt := range tests {
		e.HandleCC(midi.CCEvent{Controller: 7, Value: tt.value})
		if got := tempo.Value(); got != tt.want {
			t.Errorf("cc value %d: tempo = %v, want %v", tt.value, got, tt.want)
		}
	}

	e.HandleCC(midi.CCEvent{Controller: 8, Value: 0})
	if tempo.Value() != 360 {
		t.Error("unbound cc moved the tempo")
	}
}

func TestSnapshot(t *testing.T) {
	e := clockRack(t)
	if err := e.SetAudioOutput(ep("clock", "Modulo 0"), 1); err != nil {
		t.Fatal(err)
	}
	e.Render(make([]float32, 252))

	snap := e.Snapshot()
	if snap.Frame != 252 {
		t.Errorf("frame = %d", snap.Frame)
	}
	if snap.Tap != 10 {
		t.Errorf("tap = %v, want 10 on the pulse frame", snap.Tap)
	}
	clock, ok := snap.Module("clock")
	if !ok {
		t.Fatal("clock missing from snapshot")
	}
	if clock.Params[modules.KlokRun].Label != "Running" {
		t.Errorf("run label = %q", clock.Params[modules.KlokRun].Label)
	}
	if !clock.Outputs[modules.KlokModOutput].Connected {
		t.Error("modulo 0 not connected in snapshot")
	}
	if clock.Lights[modules.KlokBlinkLight] != 1 {
		t.Errorf("blink light = %v", clock.Lights[modules.KlokBlinkLight])
	}
	if _, ok := snap.Module("nope"); ok {
		t.Error("found a module that does not exist")
	}
}

func TestStart_NotifiesUI(t *testing.T) {
	e := Empty(1000, fixed(0.5))
	e.Start()
	defer e.Stop()

	select {
	case <-e.UpdateChan:
	case <-time.After(time.Second):
		t.Fatal("no UI update within a second")
	}
	e.Stop() // second stop is a no-op
}
