package tileview

import (
	"errors"
	"testing"

	"dmgview/internal/core"
	"dmgview/internal/input"
)

// testCart implements core.Callbacks over in-memory buffers.
type testCart struct {
	rom    []byte
	save   []byte
	fatals []core.FatalEmulationError
}

func (c *testCart) ROMByteAt(addr uint32) uint8 {
	if int(addr) >= len(c.rom) {
		return 0xFF
	}
	return c.rom[addr]
}

func (c *testCart) SaveByteAt(addr uint32) uint8 {
	if int(addr) >= len(c.save) {
		return 0xFF
	}
	return c.save[addr]
}

func (c *testCart) WriteSaveByte(addr uint32, value uint8) {
	if int(addr) < len(c.save) {
		c.save[addr] = value
	}
}

func (c *testCart) OnFatalError(kind core.FatalKind, context uint16) {
	c.fatals = append(c.fatals, core.FatalEmulationError{Kind: kind, Context: context})
}

func buildROM(size int, cartType, romCode, ramCode byte) []byte {
	rom := make([]byte, size)
	copy(rom[0x134:], "TILEVIEW")
	rom[headerType] = cartType
	rom[headerROMSize] = romCode
	rom[headerRAMSize] = ramCode
	var sum uint8
	for i := headerStart; i <= headerEnd; i++ {
		sum = sum - rom[i] - 1
	}
	rom[headerChecksum] = sum
	return rom
}

func newCore(t *testing.T, cart *testCart) *Core {
	t.Helper()
	c := New()
	if err := c.Init(cart, len(cart.rom)); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if size := c.SaveSize(); size > 0 && cart.save == nil {
		cart.save = make([]byte, size)
	}
	return c
}

func collect(c *Core) (lines []int, rows [][]uint8) {
	for ly, row := range c.Frame() {
		lines = append(lines, ly)
		rows = append(rows, append([]uint8(nil), row...))
	}
	return lines, rows
}

func TestInit_ShouldRejectSmallImage(t *testing.T) {
	cart := &testCart{rom: make([]byte, 0x4000)}

	err := New().Init(cart, len(cart.rom))

	var initErr *core.InitError
	if !errors.As(err, &initErr) || initErr.Reason != core.InitImageTooSmall {
		t.Errorf("Init error = %v, want image too small", err)
	}
}

func TestInit_ShouldRejectBadChecksum(t *testing.T) {
	rom := buildROM(0x8000, 0x00, 0, 0)
	rom[headerChecksum]++
	cart := &testCart{rom: rom}

	err := New().Init(cart, len(rom))

	var initErr *core.InitError
	if !errors.As(err, &initErr) || initErr.Reason != core.InitInvalidChecksum {
		t.Errorf("Init error = %v, want invalid checksum", err)
	}
}

func TestInit_ShouldRejectUnsupportedCartridge(t *testing.T) {
	cart := &testCart{rom: buildROM(0x8000, 0xFC, 0, 0)}

	err := New().Init(cart, len(cart.rom))

	var initErr *core.InitError
	if !errors.As(err, &initErr) || initErr.Reason != core.InitUnsupportedCartridge {
		t.Errorf("Init error = %v, want unsupported cartridge", err)
	}
}

func TestInit_SaveSize_ShouldFollowHeader(t *testing.T) {
	tests := []struct {
		name     string
		cartType byte
		ramCode  byte
		want     int
	}{
		{"rom only", 0x00, 0, 0},
		{"mbc1 8k", 0x03, 2, 0x2000},
		{"mbc3 32k", 0x13, 3, 0x8000},
		{"mbc5 128k", 0x1B, 4, 0x20000},
		{"mbc2 built in", 0x06, 0, 0x200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := &testCart{rom: buildROM(0x8000, tt.cartType, 0, tt.ramCode)}
			c := newCore(t, cart)
			if c.SaveSize() != tt.want {
				t.Errorf("SaveSize() = 0x%X, want 0x%X", c.SaveSize(), tt.want)
			}
		})
	}
}

func TestFrame_ShouldYieldAllLinesInOrder(t *testing.T) {
	c := newCore(t, &testCart{rom: buildROM(0x8000, 0x00, 0, 0)})

	lines, rows := collect(c)

	if len(lines) != core.ScreenHeight {
		t.Fatalf("got %d lines, want %d", len(lines), core.ScreenHeight)
	}
	for i, ly := range lines {
		if ly != i {
			t.Fatalf("line %d yielded as %d", i, ly)
		}
		if len(rows[i]) != core.ScreenWidth {
			t.Fatalf("line %d has width %d", i, len(rows[i]))
		}
		for _, px := range rows[i] {
			if px > 3 {
				t.Fatalf("line %d has out-of-range index %d", i, px)
			}
		}
	}
	if c.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", c.Frames())
	}
}

func TestFrame_ShouldDecode2bppTiles(t *testing.T) {
	rom := buildROM(0x8000, 0x00, 0, 0)
	// Tile 0 row 0: lo=0b1010_0000 hi=0b1100_0000 gives 3,2,1,0,...
	rom[0] = 0xA0
	rom[1] = 0xC0
	c := newCore(t, &testCart{rom: rom})

	_, rows := collect(c)

	want := []uint8{3, 2, 1, 0, 0, 0, 0, 0}
	for x, w := range want {
		if rows[0][x] != w {
			t.Errorf("pixel %d = %d, want %d", x, rows[0][x], w)
		}
	}
}

func TestFrame_ShouldStopWhenIterationBreaks(t *testing.T) {
	c := newCore(t, &testCart{rom: buildROM(0x8000, 0x00, 0, 0)})

	n := 0
	for range c.Frame() {
		n++
		if n == 5 {
			break
		}
	}
	if n != 5 {
		t.Errorf("iterated %d lines, want 5", n)
	}
	if c.Frames() != 0 {
		t.Error("a broken frame should not count as complete")
	}
}

func TestFrame_JoypadEdges_ShouldScroll(t *testing.T) {
	c := newCore(t, &testCart{rom: buildROM(0x8000, 0x00, 0, 0)})
	joypad := c.Joypad()

	joypad.Press(input.ButtonDown)
	collect(c)
	if c.Row() != 1 {
		t.Fatalf("Row() = %d after Down, want 1", c.Row())
	}

	// Held without a new edge does not scroll again.
	collect(c)
	if c.Row() != 1 {
		t.Errorf("Row() = %d while Down held, want 1", c.Row())
	}

	joypad.Release(input.ButtonDown)
	joypad.Press(input.ButtonA)
	collect(c)
	if c.Row() != 1+pageRows {
		t.Errorf("Row() = %d after A, want %d", c.Row(), 1+pageRows)
	}

	joypad.Release(input.ButtonA)
	joypad.Press(input.ButtonStart)
	collect(c)
	if c.Row() != 0 {
		t.Errorf("Row() = %d after Start, want 0", c.Row())
	}
}

func TestFrame_ScrollUp_ShouldClampAtZero(t *testing.T) {
	c := newCore(t, &testCart{rom: buildROM(0x8000, 0x00, 0, 0)})

	c.Joypad().Press(input.ButtonB)
	collect(c)

	if c.Row() != 0 {
		t.Errorf("Row() = %d, want 0", c.Row())
	}
}

func TestFrame_ShouldPersistAndRestoreScroll(t *testing.T) {
	rom := buildROM(0x8000, 0x03, 0, 2)
	cart := &testCart{rom: rom}
	c := newCore(t, cart)

	c.Joypad().Press(input.ButtonDown)
	collect(c)

	if cart.save[saveMagicAddr] != saveMagic || cart.save[saveRowLo] != 1 {
		t.Fatalf("save bytes = % X", cart.save[:saveStateLen])
	}

	restored := newCore(t, &testCart{rom: rom, save: cart.save})
	collect(restored)
	if restored.Row() != 1 {
		t.Errorf("restored Row() = %d, want 1", restored.Row())
	}
}

func TestFrame_ReadPastImage_ShouldReportFatalAndStop(t *testing.T) {
	// Header declares 64KB but only 32KB is present.
	rom := buildROM(0x8000, 0x01, 1, 0)
	cart := &testCart{rom: rom}
	c := newCore(t, cart)

	for i := 0; i < 20; i++ {
		c.Joypad().Press(input.ButtonA)
		collect(c)
		c.Joypad().Release(input.ButtonA)
		if len(cart.fatals) > 0 {
			break
		}
	}

	if len(cart.fatals) != 1 {
		t.Fatalf("got %d fatal reports, want 1", len(cart.fatals))
	}
	if cart.fatals[0].Kind != core.FatalInvalidRead {
		t.Errorf("fatal kind = %s, want INVALID READ", cart.fatals[0].Kind)
	}

	lines, _ := collect(c)
	if len(lines) != 0 {
		t.Errorf("core yielded %d lines after a fatal error", len(lines))
	}
}

func TestFrame_WithoutInit_ShouldYieldNothing(t *testing.T) {
	lines, _ := collect(New())
	if len(lines) != 0 {
		t.Errorf("uninitialised core yielded %d lines", len(lines))
	}
}
