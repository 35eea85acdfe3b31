//go:build headless

package audio

// Player renders in real time without a sound card
type Player struct {
	clock *Clock
}

func NewPlayer(sampleRate int, src Source) (*Player, error) {
	return &Player{clock: NewClock(sampleRate, src)}, nil
}

func (p *Player) Start() {
	p.clock.Start()
}

func (p *Player) Close() {
	p.clock.Close()
}

func (p *Player) IsStarted() bool {
	return p.clock.IsStarted()
}
