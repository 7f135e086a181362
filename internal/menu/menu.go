// Package menu holds the ROM selection screen state.
package menu

import (
	"fmt"

	"dmgview/internal/input"
	"dmgview/internal/rom"
)

// Title is the default first line of the selection screen.
const Title = "dmgview"

// Selection is a cursor over count items that wraps at both ends.
type Selection struct {
	index int
	count int
}

// NewSelection creates a cursor at item 0.
func NewSelection(count int) *Selection {
	return &Selection{count: max(count, 0)}
}

// Next moves down one item, wrapping to the first.
func (s *Selection) Next() {
	if s.count == 0 {
		return
	}
	s.index = (s.index + 1) % s.count
}

// Previous moves up one item, wrapping to the last.
func (s *Selection) Previous() {
	if s.count == 0 {
		return
	}
	s.index = (s.index - 1 + s.count) % s.count
}

// Index returns the selected item.
func (s *Selection) Index() int {
	return s.index
}

// Count returns the number of items.
func (s *Selection) Count() int {
	return s.count
}

// Action is the outcome of one menu input sample.
type Action int

const (
	ActionNone Action = iota
	ActionMoved
	ActionConfirm
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionMoved:
		return "moved"
	case ActionConfirm:
		return "confirm"
	case ActionQuit:
		return "quit"
	default:
		return "none"
	}
}

// Menu lists ROM entries and reacts to raw press edges.
type Menu struct {
	entries   []rom.Entry
	selection *Selection
	header    string
}

// New creates a menu over entries.
func New(entries []rom.Entry) *Menu {
	return &Menu{entries: entries, selection: NewSelection(len(entries)), header: Title}
}

// SetHeader replaces the first line of the screen.
func (m *Menu) SetHeader(header string) {
	m.header = header
}

// Handle applies one sample of press edges. Start quits, Cross confirms
// (only when something is listed), Up and Down move the cursor.
func (m *Menu) Handle(pressed input.RawButtons) Action {
	if pressed&input.RawStart != 0 {
		return ActionQuit
	}
	if pressed&input.RawCross != 0 && len(m.entries) > 0 {
		return ActionConfirm
	}

	moved := false
	if pressed&input.RawDown != 0 {
		m.selection.Next()
		moved = true
	}
	if pressed&input.RawUp != 0 {
		m.selection.Previous()
		moved = true
	}
	if moved {
		return ActionMoved
	}
	return ActionNone
}

// Selected returns the highlighted entry.
func (m *Menu) Selected() (rom.Entry, bool) {
	if len(m.entries) == 0 {
		return rom.Entry{}, false
	}
	return m.entries[m.selection.Index()], true
}

// Selection returns the cursor.
func (m *Menu) Selection() *Selection {
	return m.selection
}

// Lines renders the screen as text. The selected entry is prefixed with "> ".
func (m *Menu) Lines() []string {
	lines := []string{m.header, ""}
	if len(m.entries) == 0 {
		lines = append(lines, "No roms found")
	}
	for i, e := range m.entries {
		prefix := "  "
		if i == m.selection.Index() {
			prefix = "> "
		}
		lines = append(lines, prefix+e.Name)
	}
	lines = append(lines, "", fmt.Sprintf("Rom files found: %d", len(m.entries)))
	return lines
}

// LoadingLines is shown while an entry is loaded.
func LoadingLines(name string) []string {
	return []string{fmt.Sprintf("Loading %s...", name)}
}

// ErrorLines is the blocking error prompt.
func ErrorLines(err error) []string {
	return []string{"Failed: " + err.Error(), "", "Press A to exit."}
}
