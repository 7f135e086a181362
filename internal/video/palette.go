// Package video implements the frame-synchronized scanline compositor: the
// palette table, the multi-slot frame store, the per-line compositor and the
// front/back synchronizer that hands finished frames to a display.
package video

import (
	"fmt"
	"strings"
)

// Native pixels are 32-bit ABGR8888 values (0xAABBGGRR). Stored little-endian
// the bytes read R, G, B, A, which is what the display backends upload.

// Shade indices produced by the emulation core. Index 0 is the lightest shade
// and index 3 the darkest; every preset below follows that orientation.
const (
	ShadeLightest uint8 = 0
	ShadeLight    uint8 = 1
	ShadeDark     uint8 = 2
	ShadeDarkest  uint8 = 3

	shadeMask = 0x03
)

// Built-in palette presets.
var (
	// GreyPalette is the neutral 4-shade ramp.
	GreyPalette = [4]uint32{0xFFFFFFFF, 0xFFA5A5A5, 0xFF525252, 0xFF000000}

	// GreenPalette approximates the original DMG LCD tint.
	GreenPalette = [4]uint32{0xFFD0F8E0, 0xFF70C088, 0xFF566834, 0xFF201808}
)

var palettePresets = map[string][4]uint32{
	"grey":  GreyPalette,
	"gray":  GreyPalette,
	"green": GreenPalette,
}

// PalettePreset returns the entries of a named preset.
func PalettePreset(name string) ([4]uint32, error) {
	entries, ok := palettePresets[strings.ToLower(name)]
	if !ok {
		return [4]uint32{}, fmt.Errorf("unknown palette preset %q", name)
	}
	return entries, nil
}

// Palette maps a 2-bit colour index to a native pixel value. The table is
// fixed at construction.
type Palette struct {
	entries [4]uint32
}

// NewPalette creates a palette from four native pixel values, lightest first.
func NewPalette(entries [4]uint32) *Palette {
	return &Palette{entries: entries}
}

// Resolve returns the native pixel for index. Bits above the low two are
// ignored.
func (p *Palette) Resolve(index uint8) uint32 {
	return p.entries[index&shadeMask]
}

// Entries returns a copy of the table.
func (p *Palette) Entries() [4]uint32 {
	return p.entries
}

// Expand converts a row of 2-bit indices into native pixels. dst must be at
// least as long as row.
func (p *Palette) Expand(dst []uint32, row []uint8) {
	dst = dst[:len(row)]
	for i, index := range row {
		dst[i] = p.entries[index&shadeMask]
	}
}
