package modules

import (
	"testing"

	"go-modular/rack"
)

func newRunningKlok(sr float64) (*Klok, rack.ProcessArgs) {
	k := NewKlok()
	for i := 0; i < klokOutputs; i++ {
		k.Outputs[i].SetConnected(true)
	}
	k.Params[KlokRun].SetValue(1)
	return k, rack.NewProcessArgs(sr)
}

func TestKlok_StoppedIsSilent(t *testing.T) {
	k := NewKlok()
	args := rack.NewProcessArgs(1000)
	for i := 0; i < klokOutputs; i++ {
		k.Outputs[i].SetConnected(true)
	}
	for tick := 0; tick < 2000; tick++ {
		k.Process(args)
		for i := range k.Outputs {
			if v := k.Outputs[i].Voltage(); v != 0 {
				t.Fatalf("tick %d output %d = %v while stopped", tick, i, v)
			}
		}
	}
	if k.step != 0 {
		t.Errorf("step while stopped = %d", k.step)
	}
}

func TestKlok_ResetPulseOnStart(t *testing.T) {
	k, args := newRunningKlok(48000)

	k.Process(args)
	if got := k.Outputs[KlokResetOutput].Voltage(); got != 10 {
		t.Fatalf("reset output on first running tick = %v, want 10", got)
	}
	run(k, args, 100)
	if got := k.Outputs[KlokResetOutput].Voltage(); got != 0 {
		t.Errorf("reset output after 2ms = %v, want 0", got)
	}

	// Stop and restart re-arms the reset pulse
	k.Params[KlokRun].SetValue(0)
	k.Process(args)
	k.Params[KlokRun].SetValue(1)
	k.Process(args)
	if got := k.Outputs[KlokResetOutput].Voltage(); got != 10 {
		t.Errorf("reset output after restart = %v, want 10", got)
	}
}

// countPulses runs the clock and records, for each modulo output, the
// master pulse numbers on which it fired.
func countPulses(k *Klok, args rack.ProcessArgs, ticks int) (master int, fired [KlokModOutputs][]int) {
	var prev [KlokModOutputs]float64
	for tick := 0; tick < ticks; tick++ {
		before := k.step
		k.Process(args)
		if k.step != before {
			master++
		}
		for i := 0; i < KlokModOutputs; i++ {
			v := k.Outputs[KlokModOutput+i].Voltage()
			if v > 0 && prev[i] == 0 {
				fired[i] = append(fired[i], master)
			}
			prev[i] = v
		}
	}
	return master, fired
}

func TestKlok_DividerBank(t *testing.T) {
	// 120 BPM at 1 kHz: 250 samples per tick, 1 sample pulses
	k, args := newRunningKlok(1000)
	ticks := 251 + 250*79 + 10
	master, fired := countPulses(k, args, ticks)

	if master != 80 {
		t.Fatalf("master pulses = %d, want 80", master)
	}

	// step cycles 1..7,0 so divisors of 8 are exact and others follow the cycle
	want := [KlokModOutputs]int{80, 40, 30, 20, 20, 20, 20, 10}
	for i, w := range want {
		if got := len(fired[i]); got != w {
			t.Errorf("output %d fired %d times, want %d", i, got, w)
		}
	}

	for _, i := range []int{0, 1, 3, 7} {
		for j := 1; j < len(fired[i]); j++ {
			if gap := fired[i][j] - fired[i][j-1]; gap != i+1 {
				t.Errorf("output %d: gap %d between pulses %d and %d, want %d", i, gap, j-1, j, i+1)
				break
			}
		}
	}
}

func TestKlok_UnconnectedModuloStaysLow(t *testing.T) {
	k, args := newRunningKlok(1000)
	k.Outputs[KlokModOutput].SetConnected(false)
	for tick := 0; tick < 1000; tick++ {
		k.Process(args)
		if v := k.Outputs[KlokModOutput].Voltage(); v != 0 {
			t.Fatalf("unconnected output driven to %v", v)
		}
	}
}

func TestKlok_PeriodCompensatesFraction(t *testing.T) {
	// 130 BPM at 48 kHz: 11076.92 samples per tick
	k, args := newRunningKlok(48000)
	k.Params[KlokTempo].SetValue(130)

	var starts []int
	for tick := 0; tick < 48000*20; tick++ {
		before := k.step
		k.Process(args)
		if k.step != before {
			starts = append(starts, tick)
		}
	}

	n := len(starts) - 1
	avg := float64(starts[n]-starts[0]) / float64(n)
	period := 60 * 48000.0 / 260
	if d := avg - period; d > 0.05 || d < -0.05 {
		t.Errorf("average interval %v, want %v", avg, period)
	}
}

func TestKlok_BlinkLightFollowsPulse(t *testing.T) {
	k, args := newRunningKlok(1000)
	run(k, args, 252)
	if got := k.Lights[KlokBlinkLight].Brightness(); got <= 0.9 {
		t.Errorf("blink light right after a pulse = %v", got)
	}
}
