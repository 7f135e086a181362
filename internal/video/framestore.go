package video

import (
	"errors"
	"fmt"
)

// ErrReleased is returned when a released frame store is written to.
var ErrReleased = errors.New("frame store released")

// Geometry describes the physical surface and the emulated display placed
// at its centre.
type Geometry struct {
	SurfaceWidth  int // visible surface width in pixels
	SurfaceHeight int // visible surface height in pixels
	Stride        int // pixels per stored row, >= SurfaceWidth
	Width         int // emulated display width
	Height        int // emulated display height
}

// DefaultGeometry centres a 160x144 display on a 480x272 surface with a
// 512-pixel row stride.
var DefaultGeometry = Geometry{
	SurfaceWidth:  480,
	SurfaceHeight: 272,
	Stride:        512,
	Width:         160,
	Height:        144,
}

// Validate checks that the emulated display fits inside the surface.
func (g Geometry) Validate() error {
	switch {
	case g.Width <= 0 || g.Height <= 0:
		return fmt.Errorf("invalid display size %dx%d", g.Width, g.Height)
	case g.SurfaceWidth < g.Width || g.SurfaceHeight < g.Height:
		return fmt.Errorf("display %dx%d does not fit surface %dx%d",
			g.Width, g.Height, g.SurfaceWidth, g.SurfaceHeight)
	case g.Stride < g.SurfaceWidth:
		return fmt.Errorf("stride %d smaller than surface width %d", g.Stride, g.SurfaceWidth)
	}
	return nil
}

// OffsetX is the left margin of the emulated display.
func (g Geometry) OffsetX() int {
	return (g.SurfaceWidth - g.Width) / 2
}

// OffsetY is the top margin of the emulated display.
func (g Geometry) OffsetY() int {
	return (g.SurfaceHeight - g.Height) / 2
}

// BaseOffset is the pixel offset of the first emulated pixel in a slot.
func (g Geometry) BaseOffset() int {
	return g.OffsetY()*g.Stride + g.OffsetX()
}

// SlotSize is the number of pixels held by one slot.
func (g Geometry) SlotSize() int {
	return g.Stride * g.SurfaceHeight
}

// Span is a half-open range of pixel offsets inside a slot.
type Span struct {
	Start int
	End   int
}

// Empty reports whether the span covers nothing.
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// Len returns the number of pixels covered.
func (s Span) Len() int {
	if s.Empty() {
		return 0
	}
	return s.End - s.Start
}

// Union returns the smallest span covering both s and o.
func (s Span) Union(o Span) Span {
	if s.Empty() {
		return o
	}
	if o.Empty() {
		return s
	}
	return Span{Start: min(s.Start, o.Start), End: max(s.End, o.End)}
}

// Flusher makes a written range of a slot visible to the display.
type Flusher interface {
	Flush(slot int, span Span)
}

// FlushFunc adapts a function to the Flusher interface.
type FlushFunc func(slot int, span Span)

// Flush calls f(slot, span).
func (f FlushFunc) Flush(slot int, span Span) {
	f(slot, span)
}

// RangeError reports a write that does not fit in a slot.
type RangeError struct {
	Offset int
	Length int
	Size   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("write of %d pixels at offset %d exceeds slot size %d", e.Length, e.Offset, e.Size)
}

// Frame is a read-only view of a presented slot.
type Frame struct {
	Pixels   []uint32
	Slot     int
	Sequence uint64
	Geometry Geometry
	Dirty    Span
}

// At returns the pixel at surface coordinates (x, y).
func (f Frame) At(x, y int) uint32 {
	return f.Pixels[y*f.Geometry.Stride+x]
}

// Row returns the visible part of surface row y.
func (f Frame) Row(y int) []uint32 {
	start := y * f.Geometry.Stride
	return f.Pixels[start : start+f.Geometry.SurfaceWidth]
}

// FrameStore holds the display slots. Exactly one slot is front and one is
// back at any time; writes only ever reach the back slot.
type FrameStore struct {
	geometry   Geometry
	slots      [][]uint32
	dirty      []Span
	front      int
	back       int
	background uint32
	flusher    Flusher
	swaps      uint64
	released   bool
}

// NewFrameStore allocates count slots (at least two) for geometry g.
func NewFrameStore(g Geometry, count int, background uint32) (*FrameStore, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if count < 2 {
		return nil, fmt.Errorf("frame store needs at least 2 slots, got %d", count)
	}

	fs := &FrameStore{
		geometry:   g,
		slots:      make([][]uint32, count),
		dirty:      make([]Span, count),
		front:      count - 1,
		back:       0,
		background: background,
	}
	for i := range fs.slots {
		fs.slots[i] = make([]uint32, g.SlotSize())
	}
	fs.Clear()
	return fs, nil
}

// SetFlusher installs a hook invoked after every write.
func (fs *FrameStore) SetFlusher(f Flusher) {
	fs.flusher = f
}

// Geometry returns the store geometry.
func (fs *FrameStore) Geometry() Geometry {
	return fs.geometry
}

// Slots returns the number of slots.
func (fs *FrameStore) Slots() int {
	return len(fs.slots)
}

// Front returns the index of the slot being displayed.
func (fs *FrameStore) Front() int {
	return fs.front
}

// Back returns the index of the slot being written.
func (fs *FrameStore) Back() int {
	return fs.back
}

// Swaps returns how many times the roles have been exchanged.
func (fs *FrameStore) Swaps() uint64 {
	return fs.swaps
}

// Background returns the clear value.
func (fs *FrameStore) Background() uint32 {
	return fs.background
}

// Write copies pixels into the back slot at offset and flushes exactly the
// written range.
func (fs *FrameStore) Write(offset int, pixels []uint32) error {
	if fs.released {
		return ErrReleased
	}
	size := fs.geometry.SlotSize()
	if offset < 0 || offset+len(pixels) > size {
		return &RangeError{Offset: offset, Length: len(pixels), Size: size}
	}

	copy(fs.slots[fs.back][offset:], pixels)

	span := Span{Start: offset, End: offset + len(pixels)}
	fs.dirty[fs.back] = fs.dirty[fs.back].Union(span)
	if fs.flusher != nil {
		fs.flusher.Flush(fs.back, span)
	}
	return nil
}

// Swap makes the back slot the new front and rotates the next slot into the
// back role. With two slots the previous front becomes the back.
func (fs *FrameStore) Swap() {
	if fs.released {
		return
	}
	fs.front = fs.back
	fs.back = (fs.back + 1) % len(fs.slots)
	fs.dirty[fs.back] = Span{}
	fs.swaps++
}

// Clear fills every slot with the background value.
func (fs *FrameStore) Clear() {
	if fs.released {
		return
	}
	full := Span{Start: 0, End: fs.geometry.SlotSize()}
	for i, slot := range fs.slots {
		for j := range slot {
			slot[j] = fs.background
		}
		fs.dirty[i] = full
	}
}

// FrontFrame returns a view of the front slot.
func (fs *FrameStore) FrontFrame() Frame {
	return fs.frame(fs.front)
}

// BackFrame returns a view of the back slot.
func (fs *FrameStore) BackFrame() Frame {
	return fs.frame(fs.back)
}

func (fs *FrameStore) frame(slot int) Frame {
	f := Frame{
		Slot:     slot,
		Sequence: fs.swaps,
		Geometry: fs.geometry,
		Dirty:    fs.dirty[slot],
	}
	if !fs.released {
		f.Pixels = fs.slots[slot]
	}
	return f
}

// Release drops the slot memory. The store is unusable afterwards.
func (fs *FrameStore) Release() {
	fs.slots = nil
	fs.released = true
}

// Released reports whether Release has been called.
func (fs *FrameStore) Released() bool {
	return fs.released
}
