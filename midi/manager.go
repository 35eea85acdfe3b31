package midi

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-modular/debug"
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// ErrPortsTimeout is returned when the driver does not answer a port query
var ErrPortsTimeout = errors.New("MIDI port query timed out")

// portQueryTimeout bounds a port listing (CoreMIDI can hang)
const portQueryTimeout = 3 * time.Second

// DeviceManager handles hot-plug detection of MIDI inputs
type DeviceManager struct {
	filter      string
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration
}

// NewDeviceManager creates a device manager for inputs matching filter
func NewDeviceManager(filter string) *DeviceManager {
	return &DeviceManager{
		filter:      filter,
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
	}
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan()

	for {
		select {
		case <-ctx.Done():
			dm.closeAll()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan()
		}
	}
}

type ports struct {
	ins  []drivers.In
	outs []drivers.Out
}

// listPorts queries the driver with a timeout
func listPorts() (ports, error) {
	ch := make(chan ports, 1)
	go func() {
		ch <- ports{ins: gomidi.GetInPorts(), outs: gomidi.GetOutPorts()}
	}()

	select {
	case p := <-ch:
		return p, nil
	case <-time.After(portQueryTimeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return ports{}, ErrPortsTimeout
	}
}

func (dm *DeviceManager) scan() {
	p, err := listPorts()
	if err != nil {
		debug.LogEvery(10, "midi", "scan: %v", err)
		return
	}

	seen := make(map[string]drivers.In)
	for _, in := range p.ins {
		name := in.String()
		if !MatchPort(name, dm.filter) {
			continue
		}
		// The Launchpad DAW port carries nothing a player presses
		if strings.Contains(strings.ToLower(name), "launchpad") && !IsLaunchpad(name) {
			continue
		}
		seen[name] = in
	}
	for _, id := range dm.diff(seen) {
		ctrl, err := openController(id, seen[id], p.outs)
		if err != nil {
			debug.Log("midi", "skip %s: %v", id, err)
			continue
		}
		debug.Log("midi", "connected %s", id)

		dm.mu.Lock()
		dm.controllers[id] = ctrl
		dm.mu.Unlock()

		dm.events <- DeviceEvent{
			Type:       DeviceConnected,
			Controller: ctrl,
			ID:         id,
		}
	}
}

// openController picks the controller type from the port name. A Launchpad
// gets the output port of the same name for its LEDs.
func openController(id string, in drivers.In, outs []drivers.Out) (Controller, error) {
	if !IsLaunchpad(id) {
		return NewKeyboardController(id, in)
	}
	var out drivers.Out
	for _, o := range outs {
		if strings.EqualFold(o.String(), id) {
			out = o
			break
		}
	}
	return NewLaunchpadController(id, in, out)
}

// diff drops controllers whose port vanished and returns the new port ids
func (dm *DeviceManager) diff(seen map[string]drivers.In) []string {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	for id, c := range dm.controllers {
		if _, ok := seen[id]; ok {
			continue
		}
		c.Close()
		delete(dm.controllers, id)
		debug.Log("midi", "disconnected %s", id)
		dm.events <- DeviceEvent{
			Type: DeviceDisconnected,
			ID:   id,
		}
	}

	var added []string
	for id := range seen {
		if _, ok := dm.controllers[id]; !ok {
			added = append(added, id)
		}
	}
	slices.Sort(added)
	return added
}

func (dm *DeviceManager) closeAll() {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for _, c := range dm.controllers {
		c.Close()
	}
	dm.controllers = make(map[string]Controller)
}

// MatchPort reports whether a port name matches a case-insensitive
// substring filter. An empty filter matches everything except the ALSA
// loopback port.
func MatchPort(name, filter string) bool {
	name = strings.ToLower(name)
	if filter == "" {
		return !strings.Contains(name, "midi through")
	}
	return strings.Contains(name, strings.ToLower(filter))
}
