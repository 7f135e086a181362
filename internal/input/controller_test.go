package input

import (
	"testing"
)

func TestNewJoypad_ShouldStartWithEveryButtonReleased(t *testing.T) {
	joypad := NewJoypad()

	if joypad.Bits() != 0xFF {
		t.Errorf("Expected initial bits 0xFF, got 0x%02X", joypad.Bits())
	}
	for _, b := range []Button{A, B, Select, Start, Right, Left, Up, Down} {
		if joypad.IsPressed(b) {
			t.Errorf("Button %s should not be pressed initially", b)
		}
	}
}

func TestJoypad_PressRelease_ShouldBeActiveLow(t *testing.T) {
	joypad := NewJoypad()

	joypad.Press(ButtonStart)
	if joypad.Bits() != 0xFF&^uint8(ButtonStart) {
		t.Errorf("Expected 0x%02X, got 0x%02X", 0xFF&^uint8(ButtonStart), joypad.Bits())
	}
	if !joypad.IsPressed(ButtonStart) {
		t.Error("Start should be pressed")
	}

	joypad.Release(ButtonStart)
	if joypad.Bits() != 0xFF {
		t.Errorf("Expected 0xFF after release, got 0x%02X", joypad.Bits())
	}
}

func TestButton_BitLayout_ShouldMatchCoreExpectation(t *testing.T) {
	expected := map[Button]uint8{
		ButtonA:      0x01,
		ButtonB:      0x02,
		ButtonSelect: 0x04,
		ButtonStart:  0x08,
		ButtonRight:  0x10,
		ButtonLeft:   0x20,
		ButtonUp:     0x40,
		ButtonDown:   0x80,
	}
	for button, bit := range expected {
		if uint8(button) != bit {
			t.Errorf("%s = 0x%02X, want 0x%02X", button, uint8(button), bit)
		}
	}
}

func TestParseButton_ShouldIgnoreCase(t *testing.T) {
	b, ok := ParseButton("select")
	if !ok || b != ButtonSelect {
		t.Errorf("ParseButton(select) = %v, %v", b, ok)
	}
	if _, ok := ParseButton("turbo"); ok {
		t.Error("unknown button should not parse")
	}
}

func TestLatch_ShouldDeriveReleaseEdge(t *testing.T) {
	var latch Latch
	latch.Update(RawState{Held: 0b0000_0001})

	pressed, released := latch.Update(RawState{Held: 0b0000_0000})

	if released != 0b0000_0001 {
		t.Errorf("released = %08b, want 00000001", released)
	}
	if pressed != 0 {
		t.Errorf("pressed = %08b, want 0", pressed)
	}
}

func TestLatch_ShouldBeIdempotentWithoutChange(t *testing.T) {
	var latch Latch
	latch.Update(RawState{Held: RawCross | RawUp})

	for i := 0; i < 2; i++ {
		pressed, released := latch.Update(RawState{Held: RawCross | RawUp})
		if pressed != 0 || released != 0 {
			t.Errorf("sample %d: pressed=%s released=%s, want no edges", i, pressed, released)
		}
	}
}

func TestLatch_ShouldPreferNativeTransitions(t *testing.T) {
	var latch Latch
	pressed, released := latch.Update(RawState{
		Held:           RawCross,
		Make:           RawCross,
		Break:          RawCircle,
		HasTransitions: true,
	})
	if pressed != RawCross || released != RawCircle {
		t.Errorf("pressed=%s released=%s", pressed, released)
	}
}

func newTestMapper(t *testing.T) (*Mapper, *Joypad) {
	t.Helper()
	joypad := NewJoypad()
	m, err := NewMapper(joypad, DefaultMapping(), DefaultExit)
	if err != nil {
		t.Fatalf("NewMapper failed: %v", err)
	}
	return m, joypad
}

func TestMapper_ReleaseEdge_ShouldSetJoypadBit(t *testing.T) {
	m, joypad := newTestMapper(t)

	m.Sample(RawState{Held: RawUp})
	if !joypad.IsPressed(ButtonUp) {
		t.Fatal("Up should be pressed after press edge")
	}

	pressed, released := m.Sample(RawState{})
	if released != RawUp || pressed != 0 {
		t.Errorf("pressed=%s released=%s", pressed, released)
	}
	if joypad.IsPressed(ButtonUp) {
		t.Error("Up should be released after release edge")
	}
}

func TestMapper_DuplicateMapping_ShouldStayPressedWhileAnySourceHeld(t *testing.T) {
	m, joypad := newTestMapper(t)

	m.Sample(RawState{Held: RawCircle | RawSquare})
	if !joypad.IsPressed(ButtonB) {
		t.Fatal("B should be pressed")
	}

	m.Sample(RawState{Held: RawSquare})
	if !joypad.IsPressed(ButtonB) {
		t.Error("B should stay pressed while Square is held")
	}

	m.Sample(RawState{})
	if joypad.IsPressed(ButtonB) {
		t.Error("B should be released once both sources are released")
	}
}

func TestMapper_DuplicateMapping_PressAndReleaseInSameTick_ShouldPress(t *testing.T) {
	m, joypad := newTestMapper(t)

	m.Sample(RawState{Held: RawCircle})
	// Circle released and Square pressed in the same frame.
	m.Sample(RawState{Held: RawSquare})

	if !joypad.IsPressed(ButtonB) {
		t.Error("B should be pressed: Square is held")
	}
}

func TestMapper_NativeTapWithinTick_ShouldPreferPress(t *testing.T) {
	m, joypad := newTestMapper(t)

	m.Sample(RawState{Make: RawCross, Break: RawCross, HasTransitions: true})
	if !joypad.IsPressed(ButtonA) {
		t.Error("press edges are applied after release edges")
	}
}

func TestMapper_NativeTap_ShouldReleaseOnNextSample(t *testing.T) {
	m, joypad := newTestMapper(t)

	m.Sample(RawState{Make: RawCross, Break: RawCross, HasTransitions: true})
	_, released := m.Sample(RawState{HasTransitions: true})

	if joypad.IsPressed(ButtonA) {
		t.Errorf("A still pressed after the tap, bits=0x%02X", joypad.Bits())
	}
	if released&RawCross == 0 {
		t.Errorf("released = %s, want Cross", released)
	}

	for i := 0; i < 3; i++ {
		m.Sample(RawState{HasTransitions: true})
	}
	if joypad.Bits() != 0xFF {
		t.Errorf("joypad = 0x%02X after idle samples, want 0xFF", joypad.Bits())
	}
}

func TestMapper_NativeTap_ShouldStayPressedWhileOtherSourceHeld(t *testing.T) {
	m, joypad := newTestMapper(t)

	// Circle taps while Square, also mapped to B, is held down.
	m.Sample(RawState{Held: RawSquare, Make: RawSquare, HasTransitions: true})
	m.Sample(RawState{Held: RawSquare, Make: RawCircle, Break: RawCircle, HasTransitions: true})
	m.Sample(RawState{Held: RawSquare, HasTransitions: true})

	if !joypad.IsPressed(ButtonB) {
		t.Error("B should stay pressed while Square is held")
	}
}

func TestMapper_RepeatedNativeTaps_ShouldPressEachSample(t *testing.T) {
	m, joypad := newTestMapper(t)

	for i := 0; i < 3; i++ {
		m.Sample(RawState{Make: RawCross, Break: RawCross, HasTransitions: true})
		if !joypad.IsPressed(ButtonA) {
			t.Fatalf("tap %d: A should be pressed", i)
		}
	}
	m.Sample(RawState{HasTransitions: true})
	if joypad.IsPressed(ButtonA) {
		t.Error("A should be released after the last tap")
	}
}

func TestMapper_ExitButton_ShouldNotReachJoypad(t *testing.T) {
	m, joypad := newTestMapper(t)

	m.Sample(RawState{Held: RawTriangle})

	if !m.ExitRequested() {
		t.Error("exit should be requested")
	}
	if joypad.Bits() != 0xFF {
		t.Errorf("joypad changed to 0x%02X", joypad.Bits())
	}
}

func TestNewMapper_ShouldRejectMappedExitButton(t *testing.T) {
	mapping := DefaultMapping()
	mapping[RawTriangle] = ButtonA

	if _, err := NewMapper(NewJoypad(), mapping, RawTriangle); err == nil {
		t.Error("expected error when exit is also mapped")
	}
}

func TestMapper_Reset_ShouldReleaseEverything(t *testing.T) {
	m, joypad := newTestMapper(t)
	m.Sample(RawState{Held: RawCross | RawTriangle})

	m.Reset()

	if joypad.Bits() != 0xFF || m.ExitRequested() {
		t.Error("reset should release buttons and clear exit")
	}
}

func TestRawButton_String_ShouldJoinNames(t *testing.T) {
	if got := (RawCross | RawStart).String(); got != "cross+start" {
		t.Errorf("String() = %q", got)
	}
	if got := RawButton(0).String(); got != "none" {
		t.Errorf("String() = %q", got)
	}
	if b, ok := ParseRawButton("Triangle"); !ok || b != RawTriangle {
		t.Errorf("ParseRawButton(Triangle) = %v, %v", b, ok)
	}
}
