// Package graphics provides an abstraction layer for different rendering backends
package graphics

import (
	"errors"

	"dmgview/internal/debug"
	"dmgview/internal/input"
	"dmgview/internal/video"
)

// ErrWindowClosed is returned by Present and ShowText once the window has
// been closed by the user or by Cleanup.
var ErrWindowClosed = errors.New("window closed")

// Backend represents a graphics rendering backend (Ebitengine, terminal, headless)
type Backend interface {
	// Initialize initializes the graphics backend
	Initialize(config Config) error

	// CreateWindow creates a window for rendering
	CreateWindow(title string, width, height int) (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if running in headless mode
	IsHeadless() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Window is the display and controller boundary of the harness.
type Window interface {
	// SetTitle sets the window title
	SetTitle(title string)

	// GetSize returns window dimensions
	GetSize() (width, height int)

	// ShouldClose returns true if window should close
	ShouldClose() bool

	// Present submits a completed frame and blocks until the display has
	// taken it. The frame's pixels stay untouched until the next Present.
	Present(frame video.Frame) error

	// ShowText replaces the picture with lines of text until the next
	// Present. It is paced like Present.
	ShowText(lines []string) error

	// Poll returns the controller state since the previous poll. A button
	// pressed and released between polls is reported as held once.
	Poll() input.RawState

	// Run executes loop with the display active and returns loop's error.
	// Backends that must own the main goroutine run loop on another one.
	Run(loop func() error) error

	// Cleanup releases window resources
	Cleanup() error
}

// Config contains configuration for graphics backends
type Config struct {
	// Window configuration
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Fullscreen   bool
	VSync        bool

	// Rendering configuration
	Filter      string // "nearest", "linear"
	AspectRatio string // "keep", "stretch"
	Geometry    video.Geometry
	FrameRate   int

	// Input bindings, raw button name to key or pad button names
	KeyBindings map[string][]string
	PadBindings map[string][]string

	// Backend-specific options
	Headless      bool
	Debug         bool
	MaxFrames     int    // headless: close after this many presents, 0 runs forever
	ScreenshotDir string // F12 screenshots and the headless final frame
	DumpScale     int    // integer upscale of written PNGs
	DumpSurface   bool   // write the whole surface instead of the display
}

// newScreenshotDumper returns the dumper for F12 and final-frame images.
func newScreenshotDumper(config Config) *debug.FrameDumper {
	d := debug.NewFrameDumper(config.ScreenshotDir)
	d.SetScale(config.DumpScale)
	d.SetFullSurface(config.DumpSurface)
	return d
}

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
	BackendTerminal   BackendType = "terminal"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine:
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	case BackendTerminal:
		return NewTerminalBackend(), nil
	default:
		// Default to Ebitengine for GUI mode
		return NewEbitengineBackend(), nil
	}
}
