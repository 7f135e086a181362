package input

import (
	"fmt"
	"log"
)

// Mapping assigns raw buttons to logical buttons. Several raw buttons may
// drive the same logical button.
type Mapping map[RawButton]Button

// DefaultMapping pairs the face buttons the usual way; both Circle and Square
// act as B.
func DefaultMapping() Mapping {
	return Mapping{
		RawUp:     ButtonUp,
		RawDown:   ButtonDown,
		RawLeft:   ButtonLeft,
		RawRight:  ButtonRight,
		RawCross:  ButtonA,
		RawCircle: ButtonB,
		RawSquare: ButtonB,
		RawStart:  ButtonStart,
		RawSelect: ButtonSelect,
	}
}

// DefaultExit is the raw button that ends the session.
const DefaultExit = RawTriangle

type binding struct {
	raw    RawButton
	button Button
}

// Mapper samples raw controller state once per frame and updates the
// joypad on press and release edges. A logical button stays pressed while
// any raw button mapped to it is held. Within one sample, releases are
// applied before presses. A button made and broken within one native read
// stays pressed for that sample and is released on the next one.
type Mapper struct {
	latch    Latch
	bindings []binding
	sources  map[Button]RawButtons
	joypad   *Joypad
	exit     RawButton
	taps     RawButtons

	exitRequested bool
	debugEnabled  bool
	samples       uint64
}

// NewMapper creates a mapper driving joypad. The exit button must not also
// appear in the mapping.
func NewMapper(joypad *Joypad, mapping Mapping, exit RawButton) (*Mapper, error) {
	if joypad == nil {
		return nil, fmt.Errorf("joypad is nil")
	}
	if _, ok := mapping[exit]; ok && exit != 0 {
		return nil, fmt.Errorf("exit button %s is also mapped to %s", exit, mapping[exit])
	}

	m := &Mapper{
		joypad:  joypad,
		exit:    exit,
		sources: make(map[Button]RawButtons),
	}
	// Iterate in bit order so processing is deterministic.
	for _, raw := range AllRawButtons() {
		button, ok := mapping[raw]
		if !ok {
			continue
		}
		m.bindings = append(m.bindings, binding{raw: raw, button: button})
		m.sources[button] |= raw
	}
	return m, nil
}

// Sample consumes one controller read and returns its edges.
func (m *Mapper) Sample(state RawState) (pressed, released RawButtons) {
	pressed, released = m.latch.Update(state)
	held := m.latch.Held()
	m.samples++

	deferred := m.taps &^ held
	m.taps = pressed & released &^ held
	released |= deferred

	if pressed&m.exit != 0 {
		m.exitRequested = true
	}

	for _, b := range m.bindings {
		if released&b.raw == 0 {
			continue
		}
		if held&m.sources[b.button] != 0 {
			continue
		}
		m.joypad.Release(b.button)
	}
	for _, b := range m.bindings {
		if pressed&b.raw != 0 {
			m.joypad.Press(b.button)
		}
	}

	if m.debugEnabled && (pressed|released) != 0 {
		log.Printf("[INPUT_DEBUG] sample %d: pressed=%s released=%s joypad=0x%02X",
			m.samples, pressed, released, m.joypad.Bits())
	}
	return pressed, released
}

// ExitRequested reports whether the exit button has been pressed.
func (m *Mapper) ExitRequested() bool {
	return m.exitRequested
}

// Joypad returns the driven joypad.
func (m *Mapper) Joypad() *Joypad {
	return m.joypad
}

// Reset clears edge history and releases every button.
func (m *Mapper) Reset() {
	m.latch.Reset()
	m.taps = 0
	m.joypad.Reset()
	m.exitRequested = false
}

// EnableDebug enables edge logging.
func (m *Mapper) EnableDebug(enable bool) {
	m.debugEnabled = enable
	m.joypad.EnableDebug(enable)
}
