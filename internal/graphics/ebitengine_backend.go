//go:build !headless
// +build !headless

package graphics

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"

	"dmgview/internal/debug"
	"dmgview/internal/input"
	"dmgview/internal/video"
)

// EbitengineBackend implements the Backend interface using Ebitengine
type EbitengineBackend struct {
	initialized bool
	config      Config
	mapping     inputMapping
	game        *EbitengineGame
}

// EbitengineWindow implements the Window interface for Ebitengine. Present,
// ShowText and Poll are called from the harness goroutine; the game methods
// run on the main goroutine owned by ebiten.RunGame.
type EbitengineWindow struct {
	backend *EbitengineBackend
	title   string
	width   int
	height  int
	game    *EbitengineGame

	frames    chan video.Frame
	texts     chan []string
	closed    chan struct{}
	closeOnce sync.Once
	loopDone  chan struct{}

	mu      sync.Mutex
	held    input.RawButtons
	latched input.RawButtons
}

// EbitengineGame implements ebiten.Game for the harness
type EbitengineGame struct {
	window       *EbitengineWindow
	frameImage   *ebiten.Image
	pixels       []byte
	lastFrame    video.Frame
	hasFrame     bool
	text         []string
	surface      image.Rectangle
	windowWidth  int
	windowHeight int
	keepAspect   bool
	drawCount    int
	dumper       *debug.FrameDumper
	debug        bool
}

// NewEbitengineBackend creates a new Ebitengine graphics backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("Ebitengine backend already initialized")
	}
	if err := config.Geometry.Validate(); err != nil {
		return fmt.Errorf("invalid geometry: %w", err)
	}

	keys, pads := config.KeyBindings, config.PadBindings
	if len(keys) == 0 {
		keys = DefaultKeyBindings()
	}
	if len(pads) == 0 {
		pads = DefaultPadBindings()
	}
	mapping, err := buildInputMapping(keys, pads)
	if err != nil {
		return err
	}

	b.config = config
	b.mapping = mapping
	b.initialized = true
	return nil
}

// CreateWindow creates an Ebitengine window
func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	if b.config.Headless {
		return nil, fmt.Errorf("cannot create window in headless mode")
	}

	g := b.config.Geometry
	game := &EbitengineGame{
		frameImage:   ebiten.NewImage(g.SurfaceWidth, g.SurfaceHeight),
		surface:      image.Rect(0, 0, g.SurfaceWidth, g.SurfaceHeight),
		windowWidth:  width,
		windowHeight: height,
		keepAspect:   b.config.AspectRatio != "stretch",
		dumper:       newScreenshotDumper(b.config),
		debug:        b.config.Debug,
	}

	window := &EbitengineWindow{
		backend:  b,
		title:    title,
		width:    width,
		height:   height,
		game:     game,
		frames:   make(chan video.Frame),
		texts:    make(chan []string),
		closed:   make(chan struct{}),
		loopDone: make(chan struct{}),
	}

	game.window = window
	b.game = game

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetVsyncEnabled(b.config.VSync)
	if b.config.FrameRate > 0 {
		ebiten.SetTPS(b.config.FrameRate)
	}

	if b.config.Fullscreen {
		ebiten.SetFullscreen(true)
	}

	if b.config.Filter == "linear" {
		ebiten.SetScreenFilterEnabled(true)
	} else {
		ebiten.SetScreenFilterEnabled(false)
	}

	return window, nil
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true if running in headless mode
func (b *EbitengineBackend) IsHeadless() bool {
	return b.config.Headless
}

// GetName returns the backend name
func (b *EbitengineBackend) GetName() string {
	return "Ebitengine"
}

// EbitengineWindow implementation

// SetTitle sets the window title
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// GetSize returns window dimensions
func (w *EbitengineWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *EbitengineWindow) ShouldClose() bool {
	select {
	case <-w.closed:
		return true
	default:
		return false
	}
}

// Present hands frame to the next Update and returns once it was taken.
func (w *EbitengineWindow) Present(frame video.Frame) error {
	select {
	case w.frames <- frame:
		return nil
	case <-w.closed:
		return ErrWindowClosed
	}
}

// ShowText hands lines to the next Update and returns once they were taken.
func (w *EbitengineWindow) ShowText(lines []string) error {
	select {
	case w.texts <- lines:
		return nil
	case <-w.closed:
		return ErrWindowClosed
	}
}

// Poll returns the buttons held now or at any tick since the last poll.
func (w *EbitengineWindow) Poll() input.RawState {
	w.mu.Lock()
	defer w.mu.Unlock()
	state := input.RawState{Held: w.held | w.latched}
	w.latched = 0
	return state
}

// Run starts loop on a worker goroutine and the Ebitengine game loop on the
// calling one, which must be the main goroutine.
func (w *EbitengineWindow) Run(loop func() error) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}

	loopErr := make(chan error, 1)
	go func() {
		defer close(w.loopDone)
		loopErr <- loop()
	}()

	runErr := ebiten.RunGame(w.game)
	w.close()
	err := <-loopErr
	if runErr != nil {
		return runErr
	}
	return err
}

func (w *EbitengineWindow) close() {
	w.closeOnce.Do(func() { close(w.closed) })
}

// Cleanup releases window resources
func (w *EbitengineWindow) Cleanup() error {
	w.close()
	return nil
}

// EbitengineGame implementation

// Update implements ebiten.Game.Update
func (g *EbitengineGame) Update() error {
	if g.window == nil {
		return nil
	}

	if ebiten.IsWindowBeingClosed() {
		g.window.close()
		return ebiten.Termination
	}
	select {
	case <-g.window.loopDone:
		return ebiten.Termination
	case <-g.window.closed:
		return ebiten.Termination
	default:
	}

	g.processInput()

	select {
	case frame := <-g.window.frames:
		g.upload(frame)
	case lines := <-g.window.texts:
		g.text = lines
	default:
	}
	return nil
}

// upload copies the rows written since the slot was last presented into
// the texture. Rows outside the dirty region hold the background in every
// slot, so the texture already matches them.
func (g *EbitengineGame) upload(frame video.Frame) {
	if frame.Pixels == nil {
		return
	}
	rect := uploadRect(frame, g.surface)
	if !rect.Empty() {
		g.pixels = frame.AppendRGBA(g.pixels[:0], rect)
		g.frameImage.SubImage(rect).(*ebiten.Image).WritePixels(g.pixels)
	}
	g.lastFrame = frame
	g.hasFrame = true
	g.text = nil

	if g.debug && frame.Sequence%1800 == 0 {
		log.Printf("[Ebitengine] Uploaded frame %d from slot %d", frame.Sequence, frame.Slot)
	}
}

func uploadRect(frame video.Frame, surface image.Rectangle) image.Rectangle {
	return frame.DirtyRect().Intersect(surface)
}

// processInput samples the controller and handles window keys
func (g *EbitengineGame) processInput() {
	held := g.window.backend.mapping.held()

	w := g.window
	w.mu.Lock()
	w.held = held
	w.latched |= held
	w.mu.Unlock()

	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) && g.hasFrame {
		path, err := g.dumper.Screenshot(g.lastFrame)
		if err != nil {
			log.Printf("[Ebitengine] Screenshot failed: %v", err)
		} else {
			log.Printf("[Ebitengine] Screenshot saved to %s", path)
		}
	}
}

// Draw implements ebiten.Game.Draw
func (g *EbitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 0, G: 0, B: 0, A: 255})

	if g.text != nil {
		g.drawText(screen)
		return
	}
	if !g.hasFrame {
		return
	}

	op := &ebiten.DrawImageOptions{}

	sw, sh := float64(g.surface.Dx()), float64(g.surface.Dy())
	scaleX := float64(g.windowWidth) / sw
	scaleY := float64(g.windowHeight) / sh
	if g.keepAspect {
		scale := min(scaleX, scaleY)
		scaleX, scaleY = scale, scale
	}

	offsetX := (float64(g.windowWidth) - sw*scaleX) / 2
	offsetY := (float64(g.windowHeight) - sh*scaleY) / 2

	op.GeoM.Scale(scaleX, scaleY)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(g.frameImage, op)

	g.drawCount++
	if g.debug && g.drawCount%1800 == 0 {
		log.Printf("[Ebitengine] Drawing frame %d - %dx%d scaled %.2fx%.2f at offset (%.1f,%.1f)",
			g.drawCount, g.surface.Dx(), g.surface.Dy(), scaleX, scaleY, offsetX, offsetY)
	}
}

func (g *EbitengineGame) drawText(screen *ebiten.Image) {
	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil() + 3
	y := 24
	for _, line := range g.text {
		text.Draw(screen, line, face, 16, y, color.White)
		y += lineHeight
	}
}

// Layout implements ebiten.Game.Layout
func (g *EbitengineGame) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	g.windowWidth = outsideWidth
	g.windowHeight = outsideHeight
	return outsideWidth, outsideHeight
}
