package audio

import (
	"encoding/binary"
	"math"
	"sync/atomic"
	"testing"
	"time"
)

type ramp struct {
	frames atomic.Int64
}

// Render continues the ramp across calls
func (r *ramp) Render(buf []float32) {
	start := r.frames.Load()
	for i := range buf {
		buf[i] = float32(start+int64(i)) / 4
	}
	r.frames.Add(int64(len(buf)))
}

func sampleAt(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func TestReader_EncodesFloat32LE(t *testing.T) {
	src := &ramp{}
	r := NewReader(src)

	p := make([]byte, 4*3000+2) // larger than the initial buffer, odd tail
	n, err := r.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(p) {
		t.Fatalf("read %d bytes", n)
	}
	for _, i := range []int{0, 1, 2999} {
		if got, want := sampleAt(p[i*4:]), float32(i)/4; got != want {
			t.Errorf("sample %d = %v, want %v", i, got, want)
		}
	}
	if src.frames.Load() != 3001 {
		t.Errorf("rendered %d frames", src.frames.Load())
	}
}

func TestReader_SplitFrames(t *testing.T) {
	src := &ramp{}
	r := NewReader(src)

	var stream []byte
	for _, size := range []int{2, 1, 3, 6, 4} {
		p := make([]byte, size)
		n, err := r.Read(p)
		if err != nil || n != size {
			t.Fatalf("read(%d) n=%d err=%v", size, n, err)
		}
		stream = append(stream, p...)
	}

	// 16 bytes delivered from 4 whole frames
	if len(stream) != 16 {
		t.Fatalf("stream is %d bytes", len(stream))
	}
	for i := 0; i < 4; i++ {
		if got, want := sampleAt(stream[i*4:]), float32(i)/4; got != want {
			t.Errorf("sample %d = %v, want %v", i, got, want)
		}
	}
	if src.frames.Load() != 4 {
		t.Errorf("rendered %d frames", src.frames.Load())
	}
}

func TestReader_NilSourceIsSilent(t *testing.T) {
	p := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	n, err := NewReader(nil).Read(p)
	if err != nil || n != 8 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	for i, b := range p {
		if b != 0 {
			t.Fatalf("byte %d = %d", i, b)
		}
	}
}

func TestClock_RendersUntilClosed(t *testing.T) {
	src := &ramp{}
	c := NewClock(48000, src)
	c.Start()
	c.Start() // already running
	if !c.IsStarted() {
		t.Fatal("not started")
	}

	deadline := time.Now().Add(2 * time.Second)
	for src.frames.Load() < 2*clockBlock && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Close()

	rendered := src.frames.Load()
	if rendered < 2*clockBlock {
		t.Fatalf("rendered %d frames in 2s", rendered)
	}
	if rendered%clockBlock != 0 {
		t.Errorf("partial block: %d frames", rendered)
	}
	time.Sleep(30 * time.Millisecond)
	if src.frames.Load() != rendered {
		t.Error("clock kept rendering after Close")
	}
	c.Close() // second close is a no-op
}
