package rack

import "testing"

func TestParam_SetValueClampsAndSnaps(t *testing.T) {
	var m Module
	m.Config(2, 0, 0, 0)
	m.ConfigParam(0, 30, 360, 120, "Set tempo", "BPM")
	m.ConfigSwitch(1, 1, 8, 8, "Sequence steps")

	tests := []struct {
		id   int
		in   float64
		want float64
	}{
		{0, 500, 360},
		{0, 10, 30},
		{0, 99.5, 99.5},
		{1, 3.4, 3},
		{1, 3.6, 4},
		{1, 0, 1},
	}
	for _, tt := range tests {
		m.Params[tt.id].SetValue(tt.in)
		if got := m.Params[tt.id].Value(); got != tt.want {
			t.Errorf("param %d SetValue(%v) = %v, want %v", tt.id, tt.in, got, tt.want)
		}
	}

	if m.Params[0].Unit != "BPM" {
		t.Errorf("unit = %q", m.Params[0].Unit)
	}
	m.Params[0].Reset()
	if got := m.Params[0].Value(); got != 120 {
		t.Errorf("Reset = %v, want 120", got)
	}
}

func TestParam_Label(t *testing.T) {
	var m Module
	m.Config(1, 0, 0, 0)
	p := m.ConfigSwitch(0, 0, 1, 0, "Gate", "Off", "On")
	if p.Label() != "Off" {
		t.Errorf("Label = %q, want Off", p.Label())
	}
	p.SetValue(1)
	if p.Label() != "On" {
		t.Errorf("Label = %q, want On", p.Label())
	}
}

func TestModule_LookupByName(t *testing.T) {
	var m Module
	m.Config(1, 2, 1, 0)
	m.ConfigButton(0, "Reset")
	m.ConfigInput(0, "Trigger")
	m.ConfigInput(1, "Reset")
	m.ConfigOutput(0, "Signal 0")

	if id, ok := m.InputID("reset"); !ok || id != 1 {
		t.Errorf("InputID(reset) = %d, %v", id, ok)
	}
	if id, ok := m.OutputID("SIGNAL 0"); !ok || id != 0 {
		t.Errorf("OutputID = %d, %v", id, ok)
	}
	if id, ok := m.ParamID("Reset"); !ok || id != 0 {
		t.Errorf("ParamID = %d, %v", id, ok)
	}
	if _, ok := m.InputID("nope"); ok {
		t.Error("unknown input should not resolve")
	}
	if id, ok := m.InputID("1"); !ok || id != 1 {
		t.Errorf("InputID(1) = %d, %v", id, ok)
	}
	if _, ok := m.OutputID("1"); ok {
		t.Error("index past the outputs should not resolve")
	}
	if !m.Params[0].Momentary {
		t.Error("button should be momentary")
	}
}

func TestPort_DisconnectZeroesVoltage(t *testing.T) {
	var p Port
	p.SetConnected(true)
	p.SetVoltage(5)
	p.SetConnected(false)
	if p.Voltage() != 0 || p.IsConnected() {
		t.Errorf("disconnected port: v=%v connected=%v", p.Voltage(), p.IsConnected())
	}
}

func TestLight_SmoothBrightness(t *testing.T) {
	var l Light
	l.SetSmoothBrightness(1, 0.001)
	if l.Brightness() != 1 {
		t.Fatalf("rise should be instant, got %v", l.Brightness())
	}

	l.SetSmoothBrightness(0, 0.01)
	want := 1 - 1*lightLambda*0.01
	if l.Brightness() != want {
		t.Errorf("fade = %v, want %v", l.Brightness(), want)
	}
}
