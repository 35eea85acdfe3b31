package midi

// NoteEvent is a note-on from an input device
type NoteEvent struct {
	Note     uint8
	Velocity uint8
	Channel  uint8
}

// CCEvent is a control change from a knob or fader
type CCEvent struct {
	Controller uint8
	Value      uint8 // 0-127
	Channel    uint8
}

// Amount maps the controller value onto [0,1]
func (c CCEvent) Amount() float64 {
	return float64(c.Value) / 127
}

// Controller is a MIDI input device. Both channels are closed by Close.
type Controller interface {
	ID() string
	NoteEvents() <-chan NoteEvent
	CCEvents() <-chan CCEvent
	Close() error
}
