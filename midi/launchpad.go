package midi

import (
	"fmt"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-modular/debug"
)

// GridSize is the Launchpad pad grid edge (row 0 at the bottom)
const GridSize = 8

// PadEvent is a pad press on the 8x8 grid
type PadEvent struct {
	Row, Col int
	Velocity uint8
}

// LEDUpdate sets one pad to a palette color
type LEDUpdate struct {
	Row, Col int
	Color    uint8
}

// Launchpad X palette velocities
const (
	ColorOff         uint8 = 0
	ColorWhite       uint8 = 3
	ColorRed         uint8 = 5
	ColorDimGreen    uint8 = 19
	ColorGreen       uint8 = 21
	ColorDimBlue     uint8 = 43
	ColorBrightWhite uint8 = 119
)

// Programmer mode, full brightness, external LED feedback
var launchpadSetup = [][]byte{
	{0x00, 0x20, 0x29, 0x02, 0x0C, 0x00, 0x7F},
	{0x00, 0x20, 0x29, 0x02, 0x0C, 0x08, 0x7F},
	{0x00, 0x20, 0x29, 0x02, 0x0C, 0x0A, 0x01, 0x01},
}

// LaunchpadController drives a Novation Launchpad X in programmer mode.
// Pads arrive on PadEvents; it sends no keyboard notes or knobs.
type LaunchpadController struct {
	id   string
	send func(msg gomidi.Message) error
	stop func()

	pads  chan PadEvent
	notes chan NoteEvent
	ccs   chan CCEvent
}

// NewLaunchpadController opens both ports. A nil out port gives a
// controller without LED feedback.
func NewLaunchpadController(id string, in drivers.In, out drivers.Out) (*LaunchpadController, error) {
	var send func(gomidi.Message) error
	if out != nil {
		s, err := gomidi.SendTo(out)
		if err != nil {
			return nil, fmt.Errorf("open output %s: %w", id, err)
		}
		send = s
	}
	lp := newLaunchpad(id, send)

	if in != nil {
		stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
			lp.handle(msg)
		})
		if err != nil {
			return nil, fmt.Errorf("open input %s: %w", id, err)
		}
		lp.stop = stop
	}
	return lp, nil
}

func newLaunchpad(id string, send func(gomidi.Message) error) *LaunchpadController {
	lp := &LaunchpadController{
		id:    id,
		send:  send,
		pads:  make(chan PadEvent, eventBuffer),
		notes: make(chan NoteEvent),
		ccs:   make(chan CCEvent),
	}
	if send != nil {
		for _, msg := range launchpadSetup {
			send(gomidi.SysEx(msg))
		}
	}
	return lp
}

// handle turns grid note-ons into pad events
func (lp *LaunchpadController) handle(msg gomidi.Message) {
	var ch, note, vel uint8
	if !msg.GetNoteOn(&ch, &note, &vel) || vel == 0 {
		return
	}
	row, col, ok := noteToPad(note)
	if !ok {
		return
	}
	select {
	case lp.pads <- PadEvent{Row: row, Col: col, Velocity: vel}:
	default:
	}
}

func (lp *LaunchpadController) ID() string {
	return lp.id
}

func (lp *LaunchpadController) PadEvents() <-chan PadEvent {
	return lp.pads
}

func (lp *LaunchpadController) NoteEvents() <-chan NoteEvent {
	return lp.notes
}

func (lp *LaunchpadController) CCEvents() <-chan CCEvent {
	return lp.ccs
}

// SetLEDs lights pads with static colors
func (lp *LaunchpadController) SetLEDs(updates []LEDUpdate) error {
	if lp.send == nil {
		return nil
	}
	for _, u := range updates {
		if err := lp.send(gomidi.NoteOn(0, padToNote(u.Row, u.Col), u.Color)); err != nil {
			return fmt.Errorf("led %d,%d: %w", u.Row, u.Col, err)
		}
	}
	debug.LogEvery(100, "lp-send", "batch of %d", len(updates))
	return nil
}

// Close darkens the grid before releasing the ports
func (lp *LaunchpadController) Close() error {
	if lp.send != nil {
		var off []LEDUpdate
		for row := 0; row < GridSize; row++ {
			for col := 0; col < GridSize; col++ {
				off = append(off, LEDUpdate{Row: row, Col: col, Color: ColorOff})
			}
		}
		lp.SetLEDs(off)
	}
	if lp.stop != nil {
		lp.stop()
	}
	close(lp.pads)
	close(lp.notes)
	close(lp.ccs)
	return nil
}

// Programmer mode numbers pads 11-18 on the bottom row up to 81-88 on top
func padToNote(row, col int) uint8 {
	return uint8((row+1)*10 + col + 1)
}

func noteToPad(note uint8) (row, col int, ok bool) {
	row = int(note/10) - 1
	col = int(note%10) - 1
	if row < 0 || row >= GridSize || col < 0 || col >= GridSize {
		return -1, -1, false
	}
	return row, col, true
}

// IsLaunchpad reports whether a port belongs to a Launchpad
func IsLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}
