package audio

import (
	"encoding/binary"
	"math"
)

// Source renders mono float32 samples in [-1, 1]
type Source interface {
	Render(buf []float32)
}

// Reader adapts a Source to the little-endian float32 byte stream the
// player pulls. A nil source plays silence. Reads of any size are filled
// completely; the bytes of a frame split across reads are held until the
// next one.
type Reader struct {
	src     Source
	buf     []float32
	enc     []byte
	pending []byte
}

func NewReader(src Source) *Reader {
	// 4096 bytes = 1024 samples covers the usual player request
	return &Reader{src: src, buf: make([]float32, 1024), enc: make([]byte, 4096)}
}

func (r *Reader) Read(p []byte) (int, error) {
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	if n == len(p) {
		return n, nil
	}

	enc := r.render((len(p) - n + 3) / 4)
	m := copy(p[n:], enc)
	r.pending = enc[m:]
	return n + m, nil
}

// render encodes the next frames into r.enc
func (r *Reader) render(frames int) []byte {
	if len(r.buf) < frames {
		r.buf = make([]float32, frames)
		r.enc = make([]byte, frames*4)
	}
	samples := r.buf[:frames]
	if r.src == nil {
		clear(samples)
	} else {
		r.src.Render(samples)
	}

	enc := r.enc[:frames*4]
	for i, s := range samples {
		binary.LittleEndian.PutUint32(enc[i*4:], math.Float32bits(s))
	}
	return enc
}
