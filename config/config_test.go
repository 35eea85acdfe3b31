package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SampleRate != 48000 {
		t.Errorf("sample rate = %d", cfg.SampleRate)
	}
	if cfg.Audio.Output.Module != "scener" {
		t.Errorf("audio output = %+v", cfg.Audio.Output)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad_OverridesKeepDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "go-modular")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data := `{"sampleRate": 44100, "midi": {"channel": 2}, "cables": [{"from": {"module": "klok", "port": "Reset"}, "to": {"module": "scener", "port": "Reset"}}]}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SampleRate != 44100 || cfg.MIDI.Channel != 2 {
		t.Errorf("overrides not applied: rate=%d channel=%d", cfg.SampleRate, cfg.MIDI.Channel)
	}
	if cfg.Audio.Gain != 1 {
		t.Errorf("gain default lost: %v", cfg.Audio.Gain)
	}
	if len(cfg.MIDI.Notes) == 0 {
		t.Error("note bindings default lost")
	}
	if len(cfg.Cables) != 1 || cfg.Cables[0].To.Port != "Reset" {
		t.Errorf("cables = %+v", cfg.Cables)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"bad json", `{"sampleRate": `, "parse"},
		{"low rate", `{"sampleRate": 100}`, "sampleRate"},
		{"channel", `{"midi": {"channel": 17}}`, "channel"},
		{"gain", `{"audio": {"enabled": true, "gain": 20, "output": {"module": "scener", "port": "0"}}}`, "gain"},
		{"no tap", `{"audio": {"enabled": true, "output": {"module": ""}}}`, "audio output"},
		{"note range", `{"midi": {"channel": 1, "notes": [{"note": 200, "module": "babum", "param": "x"}]}}`, "note 200"},
		{"knob cc", `{"midi": {"channel": 1, "knobs": [{"cc": 123, "module": "klok", "param": "Set tempo"}]}}`, "knobs[0]"},
		{"gate port", `{"midi": {"channel": 1, "gates": [{"module": "secu", "note": 36}]}}`, "gates[0]"},
		{"cable", `{"cables": [{"from": {"port": "0"}, "to": {"module": "secu", "port": "0"}}]}`, "cables[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".json")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFile_ListsReplaceDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"midi": {"channel": 1, "gates": [{"module": "klok", "port": "Reset", "note": 60}], "knobs": []}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(cfg.MIDI.Gates) != 1 || cfg.MIDI.Gates[0] != (GateBinding{Module: "klok", Port: "Reset", Note: 60}) {
		t.Errorf("gates = %+v", cfg.MIDI.Gates)
	}
	if len(cfg.MIDI.Knobs) != 0 {
		t.Errorf("empty knob list not kept: %+v", cfg.MIDI.Knobs)
	}
	if len(cfg.MIDI.Notes) != len(DefaultConfig().MIDI.Notes) {
		t.Errorf("notes = %d, want the defaults", len(cfg.MIDI.Notes))
	}
}

func TestFindNote(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MIDI.Notes = append(cfg.MIDI.Notes, NoteBinding{Note: 36, Module: "secu", Param: "Randomize steps"})

	got := cfg.FindNote(36)
	if len(got) != 2 {
		t.Fatalf("FindNote(36) = %+v", got)
	}
	if got[0].Module != "babum" || got[1].Module != "secu" {
		t.Errorf("bindings out of order: %+v", got)
	}
	if len(cfg.FindNote(127)) != 0 {
		t.Error("unbound note returned bindings")
	}
}
