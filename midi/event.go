package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Event is a channel message produced by the rack
type Event struct {
	Type     uint8 // NoteOn, NoteOff, CC
	Channel  uint8 // 0-15
	Note     uint8 // controller number for CC
	Velocity uint8 // value for CC
}

// Message encodes the event for a gomidi sender. Unknown types give nil.
func (e Event) Message() gomidi.Message {
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return gomidi.NoteOff(e.Channel, e.Note)
	case CC:
		return gomidi.ControlChange(e.Channel, e.Note, e.Velocity)
	}
	return nil
}
