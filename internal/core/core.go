// Package core defines the contract between the harness and an emulation
// core: the memory callbacks the core reads through, the per-frame scanline
// sequence it produces and the errors it reports.
package core

import (
	"fmt"
	"iter"

	"dmgview/internal/input"
)

// Display dimensions of a monochrome handheld core.
const (
	ScreenWidth  = 160
	ScreenHeight = 144
)

// Callbacks are the services the harness provides to a core.
type Callbacks interface {
	// ROMByteAt returns the ROM byte at addr.
	ROMByteAt(addr uint32) uint8

	// SaveByteAt returns the cartridge RAM byte at addr.
	SaveByteAt(addr uint32) uint8

	// WriteSaveByte stores value in cartridge RAM at addr.
	WriteSaveByte(addr uint32, value uint8)

	// OnFatalError is invoked once on an unrecoverable condition. The core
	// stops producing scanlines afterwards.
	OnFatalError(kind FatalKind, context uint16)
}

// Core is an emulation core driven one frame at a time.
type Core interface {
	// Init validates the ROM of romSize bytes reachable through cb.
	Init(cb Callbacks, romSize int) error

	// SaveSize returns the cartridge RAM size required after Init.
	SaveSize() int

	// Joypad returns the active-low button state the core reads.
	Joypad() *input.Joypad

	// Frame returns the scanlines of one frame as (line, pixels) pairs in
	// order 0..ScreenHeight-1. Pixels are 2-bit shade indices and are only
	// valid until the next iteration step.
	Frame() iter.Seq2[int, []uint8]
}

// ScanlineSink receives scanlines as the core produces them.
type ScanlineSink interface {
	OnScanline(row []uint8, line int)
}

// RunFrame drains one frame of c into sink and returns the number of lines
// delivered.
func RunFrame(c Core, sink ScanlineSink) int {
	lines := 0
	for line, row := range c.Frame() {
		sink.OnScanline(row, line)
		lines++
	}
	return lines
}

// FatalKind classifies unrecoverable core conditions.
type FatalKind int

const (
	FatalUnknown FatalKind = iota
	FatalInvalidOpcode
	FatalInvalidRead
	FatalInvalidWrite
	FatalHaltForever
)

var fatalNames = [...]string{
	FatalUnknown:       "UNKNOWN",
	FatalInvalidOpcode: "INVALID OPCODE",
	FatalInvalidRead:   "INVALID READ",
	FatalInvalidWrite:  "INVALID WRITE",
	FatalHaltForever:   "HALT FOREVER",
}

func (k FatalKind) String() string {
	if k < 0 || int(k) >= len(fatalNames) {
		return fatalNames[FatalUnknown]
	}
	return fatalNames[k]
}

// FatalEmulationError is a core-reported unrecoverable condition.
type FatalEmulationError struct {
	Kind    FatalKind
	Context uint16
}

func (e *FatalEmulationError) Error() string {
	return fmt.Sprintf("error %d occurred: %s at %04X", int(e.Kind), e.Kind, e.Context)
}

// InitReason classifies ROM images a core refuses.
type InitReason int

const (
	InitUnsupportedCartridge InitReason = iota + 1
	InitInvalidChecksum
	InitImageTooSmall
)

func (r InitReason) String() string {
	switch r {
	case InitUnsupportedCartridge:
		return "unsupported cartridge"
	case InitInvalidChecksum:
		return "invalid header checksum"
	case InitImageTooSmall:
		return "image too small"
	default:
		return "unknown"
	}
}

// InitError reports a ROM image rejected by Init.
type InitError struct {
	Reason InitReason
	Detail string
}

func (e *InitError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("core init failed (%d): %s", int(e.Reason), e.Reason)
	}
	return fmt.Sprintf("core init failed (%d): %s: %s", int(e.Reason), e.Reason, e.Detail)
}
