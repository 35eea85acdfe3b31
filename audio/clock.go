package audio

import (
	"sync"
	"time"
)

// clockBlock is the number of frames rendered per tick (10 ms at 48 kHz)
const clockBlock = 480

// Clock pulls a Source at the sample rate with a ticker and discards the
// samples. It keeps the rack running when no sound card is used.
type Clock struct {
	src        Source
	sampleRate int

	mu      sync.Mutex
	started bool
	stop    chan struct{}
	done    chan struct{}
}

func NewClock(sampleRate int, src Source) *Clock {
	return &Clock{src: src, sampleRate: sampleRate}
}

func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.started = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.loop(c.stop, c.done)
}

func (c *Clock) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	period := time.Duration(clockBlock) * time.Second / time.Duration(c.sampleRate)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	buf := make([]float32, clockBlock)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.src.Render(buf)
		}
	}
}

// Close stops the loop and waits for the last block
func (c *Clock) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	close(c.stop)
	<-c.done
	c.started = false
}

func (c *Clock) IsStarted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}
