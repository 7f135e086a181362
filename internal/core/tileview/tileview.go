// Package tileview is a small cartridge core that renders the 2bpp tile data
// of a ROM image as a scrollable 20x18 tile grid. It implements the full core
// contract (header checks, save RAM sizing, joypad, fatal reads) and is used
// to exercise the harness.
package tileview

import (
	"fmt"
	"iter"

	"dmgview/internal/core"
	"dmgview/internal/input"
)

// Cartridge header fields.
const (
	headerStart    = 0x134
	headerEnd      = 0x14C
	headerType     = 0x147
	headerROMSize  = 0x148
	headerRAMSize  = 0x149
	headerChecksum = 0x14D

	minImageSize = 0x8000
)

const (
	tileBytes   = 16
	tilesPerRow = core.ScreenWidth / 8
	tileRows    = core.ScreenHeight / 8
	pageRows    = tileRows
)

// ramSizes maps header byte 0x149 to cartridge RAM size.
var ramSizes = map[uint8]int{
	0x00: 0,
	0x01: 0x800,
	0x02: 0x2000,
	0x03: 0x8000,
	0x04: 0x20000,
	0x05: 0x10000,
}

// cartridgeMBC maps supported cartridge types to their controller family.
var cartridgeMBC = map[uint8]int{
	0x00: 0,
	0x01: 1, 0x02: 1, 0x03: 1,
	0x05: 2, 0x06: 2,
	0x08: 0, 0x09: 0,
	0x0F: 3, 0x10: 3, 0x11: 3, 0x12: 3, 0x13: 3,
	0x19: 5, 0x1A: 5, 0x1B: 5, 0x1C: 5, 0x1D: 5, 0x1E: 5,
}

// Saved viewer state layout in cartridge RAM.
const (
	saveMagic     = 0xD6
	saveMagicAddr = 0
	saveRowLo     = 1
	saveRowHi     = 2
	saveStateLen  = 3
)

// Core renders ROM tile data.
type Core struct {
	cb       core.Callbacks
	romSize  int
	declared int
	saveSize int

	joypad   *input.Joypad
	previous uint8

	row      int // first visible tile row
	column   int // horizontal tile offset
	invert   bool
	restored bool
	failed   bool
	frames   uint64

	line [core.ScreenWidth]uint8
}

// New creates an uninitialised core.
func New() *Core {
	return &Core{
		joypad:   input.NewJoypad(),
		previous: 0xFF,
	}
}

// Init validates the cartridge header.
func (c *Core) Init(cb core.Callbacks, romSize int) error {
	if romSize < minImageSize {
		return &core.InitError{
			Reason: core.InitImageTooSmall,
			Detail: fmt.Sprintf("%d bytes, need at least %d", romSize, minImageSize),
		}
	}

	var sum uint8
	for addr := uint32(headerStart); addr <= headerEnd; addr++ {
		sum = sum - cb.ROMByteAt(addr) - 1
	}
	if stored := cb.ROMByteAt(headerChecksum); stored != sum {
		return &core.InitError{
			Reason: core.InitInvalidChecksum,
			Detail: fmt.Sprintf("header says 0x%02X, computed 0x%02X", stored, sum),
		}
	}

	cartType := cb.ROMByteAt(headerType)
	mbc, ok := cartridgeMBC[cartType]
	if !ok {
		return &core.InitError{
			Reason: core.InitUnsupportedCartridge,
			Detail: fmt.Sprintf("type 0x%02X", cartType),
		}
	}

	c.cb = cb
	c.romSize = romSize
	c.declared = minImageSize << cb.ROMByteAt(headerROMSize)
	c.saveSize = ramSizes[cb.ROMByteAt(headerRAMSize)]
	if mbc == 2 {
		c.saveSize = 0x200
	}
	c.row, c.column = 0, 0
	c.failed = false
	c.restored = false
	return nil
}

// SaveSize returns the cartridge RAM size declared by the header.
func (c *Core) SaveSize() int {
	return c.saveSize
}

// Joypad returns the button state read each frame.
func (c *Core) Joypad() *input.Joypad {
	return c.joypad
}

// Frames returns the number of completed frames.
func (c *Core) Frames() uint64 {
	return c.frames
}

// Row returns the first visible tile row.
func (c *Core) Row() int {
	return c.row
}

// Frame produces the scanlines of one frame.
func (c *Core) Frame() iter.Seq2[int, []uint8] {
	return func(yield func(int, []uint8) bool) {
		if c.cb == nil || c.failed {
			return
		}
		c.restore()
		c.handleJoypad()

		for ly := 0; ly < core.ScreenHeight; ly++ {
			if !c.renderLine(ly) {
				return
			}
			if !yield(ly, c.line[:]) {
				return
			}
		}
		c.frames++
		c.persist()
	}
}

// restore reads the saved scroll position on the first frame, once the
// harness has filled cartridge RAM.
func (c *Core) restore() {
	if c.restored {
		return
	}
	c.restored = true
	if c.saveSize < saveStateLen || c.cb.SaveByteAt(saveMagicAddr) != saveMagic {
		return
	}
	row := int(c.cb.SaveByteAt(saveRowLo)) | int(c.cb.SaveByteAt(saveRowHi))<<8
	c.row = min(row, c.maxRow())
}

func (c *Core) persist() {
	if c.saveSize < saveStateLen {
		return
	}
	c.cb.WriteSaveByte(saveMagicAddr, saveMagic)
	c.cb.WriteSaveByte(saveRowLo, uint8(c.row))
	c.cb.WriteSaveByte(saveRowHi, uint8(c.row>>8))
}

func (c *Core) maxRow() int {
	totalRows := c.declared / tileBytes / tilesPerRow
	return max(totalRows-tileRows, 0)
}

// handleJoypad applies buttons newly pressed since the previous frame.
func (c *Core) handleJoypad() {
	current := c.joypad.Bits()
	// Active low: a bit that went from 1 to 0 is a new press.
	pressed := c.previous &^ current
	c.previous = current

	switch {
	case pressed&uint8(input.ButtonDown) != 0:
		c.row++
	case pressed&uint8(input.ButtonUp) != 0:
		c.row--
	case pressed&uint8(input.ButtonA) != 0:
		c.row += pageRows
	case pressed&uint8(input.ButtonB) != 0:
		c.row -= pageRows
	case pressed&uint8(input.ButtonStart) != 0:
		c.row, c.column = 0, 0
	}
	if pressed&uint8(input.ButtonRight) != 0 {
		c.column = (c.column + 1) % tilesPerRow
	}
	if pressed&uint8(input.ButtonLeft) != 0 {
		c.column = (c.column + tilesPerRow - 1) % tilesPerRow
	}
	if pressed&uint8(input.ButtonSelect) != 0 {
		c.invert = !c.invert
	}
	c.row = max(0, min(c.row, c.maxRow()))
}

// renderLine decodes one scanline. It reports false after a fatal read.
func (c *Core) renderLine(ly int) bool {
	tileRow := c.row + ly/8
	fineY := uint32(ly%8) * 2

	for tx := 0; tx < tilesPerRow; tx++ {
		tile := tileRow*tilesPerRow + (tx+c.column)%tilesPerRow
		addr := uint32(tile*tileBytes) + fineY
		if int(addr)+1 >= c.romSize {
			c.failed = true
			c.cb.OnFatalError(core.FatalInvalidRead, uint16(addr))
			return false
		}

		lo := c.cb.ROMByteAt(addr)
		hi := c.cb.ROMByteAt(addr + 1)
		for bit := 7; bit >= 0; bit-- {
			ci := ((hi>>bit)&1)<<1 | (lo>>bit)&1
			if c.invert {
				ci = 3 - ci
			}
			c.line[tx*8+7-bit] = ci
		}
	}
	return true
}
