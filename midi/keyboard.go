package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// eventBuffer is the per-device queue length; events past it are dropped
const eventBuffer = 32

// KeyboardController reads notes and control changes from a keyboard, pad
// or knob box. It has no output side.
type KeyboardController struct {
	id   string
	stop func()

	notes chan NoteEvent
	ccs   chan CCEvent
}

// NewKeyboardController listens on in. A nil port gives a controller that
// never emits events.
func NewKeyboardController(id string, in drivers.In) (*KeyboardController, error) {
	kb := &KeyboardController{
		id:    id,
		notes: make(chan NoteEvent, eventBuffer),
		ccs:   make(chan CCEvent, eventBuffer),
	}
	if in == nil {
		return kb, nil
	}

	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
		kb.handle(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", id, err)
	}
	kb.stop = stop
	return kb, nil
}

// handle sorts a message onto the note or CC queue. Note-ons with zero
// velocity are note-offs and are ignored, as is everything else.
func (kb *KeyboardController) handle(msg gomidi.Message) {
	var ch, a, b uint8
	switch {
	case msg.GetNoteOn(&ch, &a, &b):
		if b == 0 {
			return
		}
		select {
		case kb.notes <- NoteEvent{Note: a, Velocity: b, Channel: ch}:
		default:
		}
	case msg.GetControlChange(&ch, &a, &b):
		select {
		case kb.ccs <- CCEvent{Controller: a, Value: b, Channel: ch}:
		default:
		}
	}
}

func (kb *KeyboardController) ID() string {
	return kb.id
}

func (kb *KeyboardController) NoteEvents() <-chan NoteEvent {
	return kb.notes
}

func (kb *KeyboardController) CCEvents() <-chan CCEvent {
	return kb.ccs
}

func (kb *KeyboardController) Close() error {
	if kb.stop != nil {
		kb.stop()
	}
	close(kb.notes)
	close(kb.ccs)
	return nil
}
