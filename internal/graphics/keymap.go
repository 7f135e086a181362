//go:build !headless
// +build !headless

package graphics

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"dmgview/internal/input"
)

// keyNameMap maps key name strings to ebiten.Key values.
var keyNameMap = map[string]ebiten.Key{
	"A": ebiten.KeyA, "B": ebiten.KeyB, "C": ebiten.KeyC, "D": ebiten.KeyD,
	"E": ebiten.KeyE, "F": ebiten.KeyF, "G": ebiten.KeyG, "H": ebiten.KeyH,
	"I": ebiten.KeyI, "J": ebiten.KeyJ, "K": ebiten.KeyK, "L": ebiten.KeyL,
	"M": ebiten.KeyM, "N": ebiten.KeyN, "O": ebiten.KeyO, "P": ebiten.KeyP,
	"Q": ebiten.KeyQ, "R": ebiten.KeyR, "S": ebiten.KeyS, "T": ebiten.KeyT,
	"U": ebiten.KeyU, "V": ebiten.KeyV, "W": ebiten.KeyW, "X": ebiten.KeyX,
	"Y": ebiten.KeyY, "Z": ebiten.KeyZ,
	"0": ebiten.Key0, "1": ebiten.Key1, "2": ebiten.Key2, "3": ebiten.Key3,
	"4": ebiten.Key4, "5": ebiten.Key5, "6": ebiten.Key6, "7": ebiten.Key7,
	"8": ebiten.Key8, "9": ebiten.Key9,
	"Enter":      ebiten.KeyEnter,
	"Backspace":  ebiten.KeyBackspace,
	"Space":      ebiten.KeySpace,
	"Tab":        ebiten.KeyTab,
	"Escape":     ebiten.KeyEscape,
	"Shift":      ebiten.KeyShift,
	"ArrowUp":    ebiten.KeyArrowUp,
	"ArrowDown":  ebiten.KeyArrowDown,
	"ArrowLeft":  ebiten.KeyArrowLeft,
	"ArrowRight": ebiten.KeyArrowRight,
	"F11":        ebiten.KeyF11,
	"F12":        ebiten.KeyF12,
}

// padNameMap maps gamepad button names to ebiten StandardGamepadButton values.
var padNameMap = map[string]ebiten.StandardGamepadButton{
	"A":         ebiten.StandardGamepadButtonRightBottom,
	"B":         ebiten.StandardGamepadButtonRightRight,
	"X":         ebiten.StandardGamepadButtonRightLeft,
	"Y":         ebiten.StandardGamepadButtonRightTop,
	"L1":        ebiten.StandardGamepadButtonFrontTopLeft,
	"R1":        ebiten.StandardGamepadButtonFrontTopRight,
	"Start":     ebiten.StandardGamepadButtonCenterRight,
	"Select":    ebiten.StandardGamepadButtonCenterLeft,
	"DpadUp":    ebiten.StandardGamepadButtonLeftTop,
	"DpadDown":  ebiten.StandardGamepadButtonLeftBottom,
	"DpadLeft":  ebiten.StandardGamepadButtonLeftLeft,
	"DpadRight": ebiten.StandardGamepadButtonLeftRight,
}

// reservedKeys are used by the window itself and cannot be bound.
var reservedKeys = map[ebiten.Key]bool{
	ebiten.KeyF11: true, // Fullscreen
	ebiten.KeyF12: true, // Screenshot
}

type padBinding struct {
	button ebiten.StandardGamepadButton
	raw    input.RawButton
}

type keyBinding struct {
	key ebiten.Key
	raw input.RawButton
}

// inputMapping maps host keys and gamepad buttons to raw buttons.
type inputMapping struct {
	keys []keyBinding
	pads []padBinding
}

func buildInputMapping(keys, pads map[string][]string) (inputMapping, error) {
	var m inputMapping
	err := resolveBindings(keys, func(raw input.RawButton, name string) error {
		k, ok := keyNameMap[name]
		if !ok {
			return fmt.Errorf("unknown key %q", name)
		}
		if reservedKeys[k] {
			return fmt.Errorf("key %q is reserved", name)
		}
		m.keys = append(m.keys, keyBinding{key: k, raw: raw})
		return nil
	})
	if err != nil {
		return inputMapping{}, err
	}
	err = resolveBindings(pads, func(raw input.RawButton, name string) error {
		b, ok := padNameMap[name]
		if !ok {
			return fmt.Errorf("unknown gamepad button %q", name)
		}
		m.pads = append(m.pads, padBinding{button: b, raw: raw})
		return nil
	})
	if err != nil {
		return inputMapping{}, err
	}
	return m, nil
}

// held reads the current keyboard and first gamepad state.
func (m inputMapping) held() input.RawButtons {
	var held input.RawButtons
	for _, b := range m.keys {
		if ebiten.IsKeyPressed(b.key) {
			held |= b.raw
		}
	}

	gamepadIDs := ebiten.AppendGamepadIDs(nil)
	if len(gamepadIDs) == 0 {
		return held
	}
	id := gamepadIDs[0]
	if !ebiten.IsStandardGamepadLayoutAvailable(id) {
		return held
	}
	for _, b := range m.pads {
		if ebiten.IsStandardGamepadButtonPressed(id, b.button) {
			held |= b.raw
		}
	}

	// Left stick doubles as the d-pad.
	axisX := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
	axisY := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
	switch {
	case axisX < -0.5:
		held |= input.RawLeft
	case axisX > 0.5:
		held |= input.RawRight
	}
	switch {
	case axisY < -0.5:
		held |= input.RawUp
	case axisY > 0.5:
		held |= input.RawDown
	}
	return held
}
