package input

import (
	"strings"
)

// RawButton is one bit of the host controller state.
type RawButton uint32

// RawButtons is a set of raw buttons.
type RawButtons = RawButton

const (
	RawUp RawButton = 1 << iota
	RawDown
	RawLeft
	RawRight
	RawCross
	RawCircle
	RawSquare
	RawTriangle
	RawStart
	RawSelect
)

var rawNames = []struct {
	button RawButton
	name   string
}{
	{RawUp, "up"},
	{RawDown, "down"},
	{RawLeft, "left"},
	{RawRight, "right"},
	{RawCross, "cross"},
	{RawCircle, "circle"},
	{RawSquare, "square"},
	{RawTriangle, "triangle"},
	{RawStart, "start"},
	{RawSelect, "select"},
}

// AllRawButtons lists every raw button in bit order.
func AllRawButtons() []RawButton {
	out := make([]RawButton, len(rawNames))
	for i, r := range rawNames {
		out[i] = r.button
	}
	return out
}

func (r RawButton) String() string {
	var names []string
	for _, rn := range rawNames {
		if r&rn.button != 0 {
			names = append(names, rn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

// ParseRawButton resolves a single raw button name.
func ParseRawButton(name string) (RawButton, bool) {
	for _, rn := range rawNames {
		if strings.EqualFold(rn.name, name) {
			return rn.button, true
		}
	}
	return 0, false
}

// RawState is one controller read. Sources that report make/break natively
// set HasTransitions and fill Make and Break.
type RawState struct {
	Held           RawButtons
	Make           RawButtons
	Break          RawButtons
	HasTransitions bool
}

// Latch derives press and release edges from consecutive reads.
type Latch struct {
	previous RawButtons
}

// Update consumes a read and returns the buttons pressed and released since
// the previous one.
func (l *Latch) Update(state RawState) (pressed, released RawButtons) {
	if state.HasTransitions {
		pressed, released = state.Make, state.Break
	} else {
		pressed = state.Held &^ l.previous
		released = l.previous &^ state.Held
	}
	l.previous = state.Held
	return pressed, released
}

// Held returns the buttons held at the last read.
func (l *Latch) Held() RawButtons {
	return l.previous
}

// Reset forgets the previous read.
func (l *Latch) Reset() {
	l.previous = 0
}
