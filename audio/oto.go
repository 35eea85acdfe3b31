//go:build !headless

package audio

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// Player streams a Source to the default sound card
type Player struct {
	ctx     *oto.Context
	player  *oto.Player
	started bool
	mutex   sync.Mutex // only for setup/control operations
}

func NewPlayer(sampleRate int, src Source) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	return &Player{
		ctx:    ctx,
		player: ctx.NewPlayer(NewReader(src)),
	}, nil
}

func (p *Player) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.started && p.player != nil {
		p.player.Play()
		p.started = true
	}
}

func (p *Player) Close() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.player != nil {
		p.player.Close()
		p.player = nil
	}
	p.started = false
}

func (p *Player) IsStarted() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.started
}
