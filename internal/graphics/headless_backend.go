package graphics

import (
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"dmgview/internal/debug"
	"dmgview/internal/input"
	"dmgview/internal/video"
)

// HeadlessBackend implements the Backend interface for headless operation
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow implements the Window interface without a display. Input
// comes from a script of controller states and presented frames are kept
// for inspection.
type HeadlessWindow struct {
	mu sync.Mutex

	title      string
	width      int
	height     int
	running    bool
	frameCount int
	textCount  int
	maxFrames  int

	script []input.RawState
	idle   input.RawState
	polls  int

	recordLimit int
	frames      []video.Frame
	texts       [][]string

	ticker    *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
	dumper    *debug.FrameDumper
	dumped    string
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates a headless "window" (no actual window)
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	w := &HeadlessWindow{
		title:       title,
		width:       width,
		height:      height,
		running:     true,
		maxFrames:   b.config.MaxFrames,
		recordLimit: 1,
		done:        make(chan struct{}),
	}
	if b.config.VSync && b.config.FrameRate > 0 {
		w.ticker = time.NewTicker(time.Second / time.Duration(b.config.FrameRate))
	}
	if b.config.ScreenshotDir != "" {
		w.dumper = newScreenshotDumper(b.config)
	}
	return w, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true (this is a headless backend)
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// HeadlessWindow implementation

// SetTitle sets the window title (for logging purposes)
func (w *HeadlessWindow) SetTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.title = title
}

// Title returns the last title set
func (w *HeadlessWindow) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

// GetSize returns window dimensions
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *HeadlessWindow) ShouldClose() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.running
}

// Present records a copy of frame. Once the frame limit is reached the last
// frame is written to the screenshot directory and the window closes.
func (w *HeadlessWindow) Present(frame video.Frame) error {
	if !w.wait() {
		return ErrWindowClosed
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return ErrWindowClosed
	}

	kept := frame
	kept.Pixels = slices.Clone(frame.Pixels)
	w.frames = append(w.frames, kept)
	if w.recordLimit > 0 && len(w.frames) > w.recordLimit {
		w.frames = slices.Delete(w.frames, 0, len(w.frames)-w.recordLimit)
	}
	w.frameCount++

	if w.maxFrames > 0 && w.frameCount >= w.maxFrames {
		w.running = false
		if w.dumper != nil {
			path, err := w.dumper.Screenshot(kept)
			if err != nil {
				return fmt.Errorf("dump final frame: %w", err)
			}
			w.dumped = path
			log.Printf("[Headless] Final frame %d written to %s", w.frameCount, path)
		}
	}
	return nil
}

// ShowText records lines. Text screens count toward the frame limit
// separately so an unattended menu still terminates.
func (w *HeadlessWindow) ShowText(lines []string) error {
	if !w.wait() {
		return ErrWindowClosed
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return ErrWindowClosed
	}
	w.texts = append(w.texts, slices.Clone(lines))
	if w.recordLimit > 0 && len(w.texts) > w.recordLimit {
		w.texts = slices.Delete(w.texts, 0, len(w.texts)-w.recordLimit)
	}
	w.textCount++
	if w.maxFrames > 0 && w.textCount >= w.maxFrames {
		w.running = false
	}
	return nil
}

// wait paces to the frame rate. It returns false once the window is closed.
func (w *HeadlessWindow) wait() bool {
	if w.ShouldClose() {
		return false
	}
	if w.ticker == nil {
		return true
	}
	select {
	case <-w.ticker.C:
		return true
	case <-w.done:
		return false
	}
}

// Poll returns the next scripted state, or the idle state once the script
// is exhausted.
func (w *HeadlessWindow) Poll() input.RawState {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.polls++
	if len(w.script) == 0 {
		return w.idle
	}
	state := w.script[0]
	w.script = w.script[1:]
	return state
}

// Script appends controller states returned by successive polls.
func (w *HeadlessWindow) Script(states ...input.RawState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.script = append(w.script, states...)
}

// SetIdleState sets the state returned after the script runs out.
func (w *HeadlessWindow) SetIdleState(state input.RawState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.idle = state
}

// SetRecordLimit sets how many frames and text screens are kept; 0 keeps all.
func (w *HeadlessWindow) SetRecordLimit(limit int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.recordLimit = limit
}

// SetMaxFrames closes the window after n presents; 0 disables the limit.
func (w *HeadlessWindow) SetMaxFrames(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.maxFrames = n
}

// Run executes loop on the calling goroutine
func (w *HeadlessWindow) Run(loop func() error) error {
	return loop()
}

// Cleanup releases window resources
func (w *HeadlessWindow) Cleanup() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = false
	w.closeOnce.Do(func() {
		if w.ticker != nil {
			w.ticker.Stop()
		}
		close(w.done)
	})
	return nil
}

// GetFrameCount returns the number of presented frames
func (w *HeadlessWindow) GetFrameCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frameCount
}

// Polls returns the number of controller reads
func (w *HeadlessWindow) Polls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.polls
}

// Frames returns the recorded frames, oldest first
func (w *HeadlessWindow) Frames() []video.Frame {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.frames)
}

// LastFrame returns the most recent recorded frame
func (w *HeadlessWindow) LastFrame() (video.Frame, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.frames) == 0 {
		return video.Frame{}, false
	}
	return w.frames[len(w.frames)-1], true
}

// Texts returns the recorded text screens, oldest first
func (w *HeadlessWindow) Texts() [][]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.texts)
}

// DumpedPath returns the final frame file, if one was written
func (w *HeadlessWindow) DumpedPath() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dumped
}
