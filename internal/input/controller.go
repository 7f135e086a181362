// Package input implements the joypad bitmask consumed by the emulation core
// and the edge-triggered mapper that drives it from raw controller state.
package input

import (
	"log"
	"strings"
)

// Button is a logical joypad button. Values are the bit positions the core
// expects.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonRight
	ButtonLeft
	ButtonUp
	ButtonDown
)

// Convenience constants for shorter names
const (
	A      = ButtonA
	B      = ButtonB
	Select = ButtonSelect
	Start  = ButtonStart
	Right  = ButtonRight
	Left   = ButtonLeft
	Up     = ButtonUp
	Down   = ButtonDown
)

var buttonNames = map[Button]string{
	ButtonA:      "A",
	ButtonB:      "B",
	ButtonSelect: "Select",
	ButtonStart:  "Start",
	ButtonRight:  "Right",
	ButtonLeft:   "Left",
	ButtonUp:     "Up",
	ButtonDown:   "Down",
}

func (b Button) String() string {
	if name, ok := buttonNames[b]; ok {
		return name
	}
	return "Unknown"
}

// ParseButton resolves a button name case-insensitively.
func ParseButton(name string) (Button, bool) {
	for b, n := range buttonNames {
		if strings.EqualFold(n, name) {
			return b, true
		}
	}
	return 0, false
}

// Joypad is the active-low button byte read by the core: a 0 bit means the
// button is held.
type Joypad struct {
	bits uint8

	debugEnabled bool
}

// NewJoypad returns a joypad with every button released.
func NewJoypad() *Joypad {
	return &Joypad{bits: 0xFF}
}

// Press clears the button's bit.
func (j *Joypad) Press(button Button) {
	old := j.bits
	j.bits &^= uint8(button)
	if j.debugEnabled && old != j.bits {
		log.Printf("[BUTTON_DEBUG] Press %s: 0x%02X -> 0x%02X", button, old, j.bits)
	}
}

// Release sets the button's bit.
func (j *Joypad) Release(button Button) {
	old := j.bits
	j.bits |= uint8(button)
	if j.debugEnabled && old != j.bits {
		log.Printf("[BUTTON_DEBUG] Release %s: 0x%02X -> 0x%02X", button, old, j.bits)
	}
}

// IsPressed reports whether the button is held.
func (j *Joypad) IsPressed(button Button) bool {
	return j.bits&uint8(button) == 0
}

// Bits returns the raw active-low byte.
func (j *Joypad) Bits() uint8 {
	return j.bits
}

// Reset releases every button.
func (j *Joypad) Reset() {
	j.bits = 0xFF
}

// EnableDebug enables logging of bit changes.
func (j *Joypad) EnableDebug(enable bool) {
	j.debugEnabled = enable
}
