package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Output sends rack events to one MIDI out port on a fixed channel
type Output struct {
	name    string
	channel uint8

	mu   sync.Mutex
	send func(gomidi.Message) error
}

// NewOutput wraps a send function. channel is 0-based.
func NewOutput(name string, channel uint8, send func(gomidi.Message) error) *Output {
	return &Output{name: name, channel: channel, send: send}
}

// OpenOutput opens the first out port whose name matches filter
func OpenOutput(filter string, channel uint8) (*Output, error) {
	outs, err := listPorts()
	if err != nil {
		return nil, err
	}
	for _, port := range outs.outs {
		if !MatchPort(port.String(), filter) {
			continue
		}
		send, err := gomidi.SendTo(port)
		if err != nil {
			return nil, fmt.Errorf("open output %s: %w", port.String(), err)
		}
		return NewOutput(port.String(), channel, send), nil
	}
	return nil, fmt.Errorf("no MIDI output matching %q", filter)
}

// Name returns the port name
func (o *Output) Name() string {
	return o.name
}

// Send writes evt on the output channel
func (o *Output) Send(evt Event) error {
	evt.Channel = o.channel
	msg := evt.Message()
	if msg == nil {
		return fmt.Errorf("unsupported event type %#x", evt.Type)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	return o.send(msg)
}
