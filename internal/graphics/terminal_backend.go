package graphics

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"dmgview/internal/input"
	"dmgview/internal/video"
)

// asciiRamp orders characters from dark to light.
const asciiRamp = " .:-=+*#%@"

// TerminalBackend implements the Backend interface for terminal-based rendering
type TerminalBackend struct {
	initialized bool
	config      Config
}

// TerminalWindow renders frames as ASCII art and reads keys from stdin in
// raw mode. Terminals report key presses only, so every key is held for
// exactly one poll.
type TerminalWindow struct {
	title   string
	width   int
	height  int
	out     *bufio.Writer
	fd      int
	restore *term.State
	ticker  *time.Ticker
	done    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	running bool
	latched input.RawButtons
	decoder keyDecoder
}

// NewTerminalBackend creates a new terminal graphics backend
func NewTerminalBackend() Backend {
	return &TerminalBackend{}
}

// Initialize initializes the terminal backend
func (b *TerminalBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("terminal backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow switches stdin to raw mode and starts reading keys
func (b *TerminalBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	w := &TerminalWindow{
		title:   title,
		out:     bufio.NewWriter(os.Stdout),
		fd:      int(os.Stdin.Fd()),
		running: true,
		done:    make(chan struct{}),
	}

	w.width, w.height = 80, 40
	if cols, rows, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		w.width, w.height = cols, rows
	}

	if term.IsTerminal(w.fd) {
		state, err := term.MakeRaw(w.fd)
		if err != nil {
			return nil, fmt.Errorf("set raw mode: %w", err)
		}
		w.restore = state
	}
	if b.config.FrameRate > 0 {
		w.ticker = time.NewTicker(time.Second / time.Duration(b.config.FrameRate))
	}

	go w.readKeys(os.Stdin)
	w.SetTitle(title)
	return w, nil
}

// Cleanup releases all terminal resources
func (b *TerminalBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false (terminal has basic output)
func (b *TerminalBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *TerminalBackend) GetName() string {
	return "Terminal"
}

// TerminalWindow implementation

// SetTitle sets the window title (for terminal title)
func (w *TerminalWindow) SetTitle(title string) {
	w.title = title
	fmt.Fprintf(w.out, "\033]0;%s\007", title)
	w.out.Flush()
}

// GetSize returns the terminal size in characters
func (w *TerminalWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true once Ctrl-C was read or the window was cleaned up
func (w *TerminalWindow) ShouldClose() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.running
}

// Present draws the display region as ASCII art
func (w *TerminalWindow) Present(frame video.Frame) error {
	if !w.wait() {
		return ErrWindowClosed
	}
	if frame.Pixels == nil {
		return nil
	}

	w.out.WriteString("\033[H")
	renderASCII(w.out, frame, w.width, w.height-1)
	return w.out.Flush()
}

// ShowText clears the terminal and prints lines
func (w *TerminalWindow) ShowText(lines []string) error {
	if !w.wait() {
		return ErrWindowClosed
	}
	w.out.WriteString("\033[2J\033[H")
	for _, line := range lines {
		// Raw mode does not translate newlines.
		w.out.WriteString(line)
		w.out.WriteString("\r\n")
	}
	return w.out.Flush()
}

// wait paces to the frame rate. It returns false once the window is closed.
func (w *TerminalWindow) wait() bool {
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

// Poll returns the keys read since the previous poll as held
func (w *TerminalWindow) Poll() input.RawState {
	w.mu.Lock()
	defer w.mu.Unlock()
	state := input.RawState{Held: w.latched}
	w.latched = 0
	return state
}

// Run executes loop on the calling goroutine
func (w *TerminalWindow) Run(loop func() error) error {
	return loop()
}

// Cleanup restores the terminal
func (w *TerminalWindow) Cleanup() error {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.once.Do(func() {
		if w.ticker != nil {
			w.ticker.Stop()
		}
		close(w.done)
	})
	w.out.WriteString("\033[0m\r\n")
	w.out.Flush()
	if w.restore != nil {
		if err := term.Restore(w.fd, w.restore); err != nil {
			return fmt.Errorf("restore terminal: %w", err)
		}
		w.restore = nil
	}
	return nil
}

func (w *TerminalWindow) readKeys(r io.Reader) {
	buf := make([]byte, 32)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			w.feed(buf[:n])
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("[Terminal] stdin read failed: %v", err)
			}
			return
		}
	}
}

func (w *TerminalWindow) feed(data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range data {
		raw, interrupt := w.decoder.decode(b)
		w.latched |= raw
		if interrupt {
			w.running = false
		}
	}
	// Escape sequences arrive in a single read, so a trailing escape was
	// pressed on its own.
	w.latched |= w.decoder.flush()
}

// keyDecoder turns a raw-mode byte stream into raw buttons, recognising
// ANSI cursor key sequences.
type keyDecoder struct {
	state int
}

const (
	keyStateGround = iota
	keyStateEscape
	keyStateCSI
)

var terminalKeys = map[byte]input.RawButton{
	'w': input.RawUp, 'a': input.RawLeft, 's': input.RawDown, 'd': input.RawRight,
	'x': input.RawCross, 'j': input.RawCross,
	'z': input.RawCircle, 'k': input.RawCircle,
	'c': input.RawSquare, 'l': input.RawSquare,
	'q':  input.RawTriangle,
	'\r': input.RawStart, '\n': input.RawStart,
	' ': input.RawSelect,
}

var cursorKeys = map[byte]input.RawButton{
	'A': input.RawUp,
	'B': input.RawDown,
	'C': input.RawRight,
	'D': input.RawLeft,
}

// decode consumes one byte. interrupt is set for Ctrl-C.
func (d *keyDecoder) decode(b byte) (raw input.RawButton, interrupt bool) {
	switch d.state {
	case keyStateEscape:
		if b == '[' || b == 'O' {
			d.state = keyStateCSI
			return 0, false
		}
		// A lone escape acts as the exit button.
		d.state = keyStateGround
		return input.RawTriangle | d.ground(b), false
	case keyStateCSI:
		// Parameters and intermediates continue the sequence.
		if b >= 0x20 && b <= 0x3F {
			return 0, false
		}
		d.state = keyStateGround
		return cursorKeys[b], false
	}

	switch b {
	case 0x03:
		return 0, true
	case 0x1B:
		d.state = keyStateEscape
		return 0, false
	}
	return d.ground(b), false
}

// flush ends a pending lone escape, which acts as the exit button.
func (d *keyDecoder) flush() input.RawButton {
	if d.state != keyStateEscape {
		return 0
	}
	d.state = keyStateGround
	return input.RawTriangle
}

func (d *keyDecoder) ground(b byte) input.RawButton {
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	return terminalKeys[b]
}

// renderASCII writes the display region of frame scaled to fit cols x rows
// characters. Characters are about twice as tall as wide.
func renderASCII(w io.Writer, frame video.Frame, cols, rows int) {
	g := frame.Geometry
	step := max(1, (g.Width+cols-1)/max(cols, 1))
	for rows > 0 && g.Height/(step*2) > rows {
		step++
	}
	stepY := step * 2

	var line strings.Builder
	for y := 0; y < g.Height; y += stepY {
		line.Reset()
		for x := 0; x < g.Width; x += step {
			l := int(video.Luminance(frame.At(g.OffsetX()+x, g.OffsetY()+y)))
			line.WriteByte(asciiRamp[l*(len(asciiRamp)-1)/255])
		}
		line.WriteString("\r\n")
		io.WriteString(w, line.String())
	}
}
