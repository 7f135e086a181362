package graphics

import (
	"fmt"
	"maps"
	"slices"

	"dmgview/internal/input"
)

// DefaultKeyBindings maps raw buttons to keyboard key names.
func DefaultKeyBindings() map[string][]string {
	return map[string][]string{
		"up":       {"ArrowUp", "W"},
		"down":     {"ArrowDown", "S"},
		"left":     {"ArrowLeft", "A"},
		"right":    {"ArrowRight", "D"},
		"cross":    {"X", "J"},
		"circle":   {"Z", "K"},
		"square":   {"C", "L"},
		"triangle": {"Escape"},
		"start":    {"Enter"},
		"select":   {"Space", "Backspace"},
	}
}

// DefaultPadBindings maps raw buttons to standard gamepad button names.
func DefaultPadBindings() map[string][]string {
	return map[string][]string{
		"up":       {"DpadUp"},
		"down":     {"DpadDown"},
		"left":     {"DpadLeft"},
		"right":    {"DpadRight"},
		"cross":    {"A"},
		"circle":   {"B"},
		"square":   {"X"},
		"triangle": {"Y"},
		"start":    {"Start"},
		"select":   {"Select"},
	}
}

// resolveBindings converts raw button names to raw buttons, calling resolve
// for every bound name. Unknown raw button names are errors; unknown key
// names are reported by resolve.
func resolveBindings(bindings map[string][]string, resolve func(raw input.RawButton, name string) error) error {
	for _, rawName := range slices.Sorted(maps.Keys(bindings)) {
		raw, ok := input.ParseRawButton(rawName)
		if !ok {
			return fmt.Errorf("unknown button %q in bindings", rawName)
		}
		for _, name := range bindings[rawName] {
			if err := resolve(raw, name); err != nil {
				return fmt.Errorf("binding for %s: %w", rawName, err)
			}
		}
	}
	return nil
}
