package video

import (
	"fmt"
)

// ScanlineOrderError reports a scanline delivered out of order, out of range
// or with the wrong width. A conforming core never causes one.
type ScanlineOrderError struct {
	Line     int
	Expected int
	Height   int
	Width    int
	Got      int
}

func (e *ScanlineOrderError) Error() string {
	if e.Got != e.Width {
		return fmt.Sprintf("scanline %d has %d pixels, want %d", e.Line, e.Got, e.Width)
	}
	if e.Line < 0 || e.Line >= e.Height {
		return fmt.Sprintf("scanline %d outside [0, %d)", e.Line, e.Height)
	}
	return fmt.Sprintf("scanline %d delivered, expected %d", e.Line, e.Expected)
}

// IncompleteFrameError is returned when a frame ends before every line
// arrived.
type IncompleteFrameError struct {
	Lines  int
	Height int
}

func (e *IncompleteFrameError) Error() string {
	return fmt.Sprintf("frame ended after %d of %d scanlines", e.Lines, e.Height)
}

// Compositor expands 2-bit scanlines into the back slot of a FrameStore.
type Compositor struct {
	store      *FrameStore
	palette    *Palette
	width      int
	height     int
	stride     int
	baseOffset int

	next int
	row  []uint32

	onViolation func(error)
}

// NewCompositor creates a compositor writing into store through palette.
func NewCompositor(store *FrameStore, palette *Palette) *Compositor {
	g := store.Geometry()
	return &Compositor{
		store:       store,
		palette:     palette,
		width:       g.Width,
		height:      g.Height,
		stride:      g.Stride,
		baseOffset:  g.BaseOffset(),
		row:         make([]uint32, g.Width),
		onViolation: panicOnViolation,
	}
}

func panicOnViolation(err error) {
	panic(err)
}

// SetViolationHandler replaces the default handler, which panics. The
// offending scanline is dropped after the handler returns.
func (c *Compositor) SetViolationHandler(handler func(error)) {
	if handler == nil {
		handler = panicOnViolation
	}
	c.onViolation = handler
}

// BeginFrame resets the expected line counter.
func (c *Compositor) BeginFrame() {
	c.next = 0
}

// OnScanline writes one line of 2-bit pixels. Lines must arrive in order
// 0..H-1 within a frame.
func (c *Compositor) OnScanline(row []uint8, line int) {
	if line != c.next || line < 0 || line >= c.height || len(row) != c.width {
		c.onViolation(&ScanlineOrderError{
			Line:     line,
			Expected: c.next,
			Height:   c.height,
			Width:    c.width,
			Got:      len(row),
		})
		return
	}

	c.palette.Expand(c.row, row)
	if err := c.store.Write(c.baseOffset+c.stride*line, c.row); err != nil {
		c.onViolation(err)
		return
	}
	c.next++
}

// Lines returns how many lines of the current frame have been written.
func (c *Compositor) Lines() int {
	return c.next
}

// EndFrame checks that the whole frame was delivered.
func (c *Compositor) EndFrame() error {
	if c.next != c.height {
		return &IncompleteFrameError{Lines: c.next, Height: c.height}
	}
	return nil
}
