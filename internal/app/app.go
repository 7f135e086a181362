// Package app implements the dmgview harness: ROM selection, the per-frame
// loop and the error prompt.
package app

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"dmgview/internal/core"
	"dmgview/internal/graphics"
	"dmgview/internal/input"
	"dmgview/internal/menu"
	"dmgview/internal/rom"
	"dmgview/internal/version"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// Application is the harness context: it owns the display, the loaded
// title and the session statistics.
type Application struct {
	// Graphics backend
	graphicsBackend graphics.Backend
	window          graphics.Window
	videoProcessor  *graphics.VideoProcessor
	palette         [4]uint32

	// Application state
	build    version.Info
	config   *Config
	emulator *Emulator
	latch    input.Latch

	// Control flags
	stopped     atomic.Bool
	initialized bool
	headless    bool

	// Performance tracking
	frameCount uint64
	startTime  time.Time
	endTime    time.Time

	// ROM management
	romPath string
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("Application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication creates a new application
func NewApplication(configPath string) (*Application, error) {
	return NewApplicationWithMode(configPath, false)
}

// NewApplicationWithMode creates a new application, loading configuration
// from configPath and optionally forcing the headless backend
func NewApplicationWithMode(configPath string, headless bool) (*Application, error) {
	config := NewConfig()
	if configPath != "" {
		if err := config.LoadFromFile(configPath); err != nil {
			log.Printf("[APP_WARNING] Could not load config from %s, using defaults: %v", configPath, err)
			config = NewConfig()
		}
	}
	return NewApplicationWithConfig(config, headless)
}

// NewApplicationWithConfig creates a new application from an in-memory
// configuration
func NewApplicationWithConfig(config *Config, headless bool) (*Application, error) {
	app := &Application{
		build:     version.Read(),
		config:    config,
		headless:  headless,
		startTime: time.Now(),
	}

	if err := app.initializeComponents(); err != nil {
		return nil, &ApplicationError{
			Component: "initialization",
			Operation: "component setup",
			Err:       err,
		}
	}

	return app, nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	if err := app.config.createDirectories(); err != nil {
		return err
	}

	preset, err := app.config.PaletteEntries()
	if err != nil {
		return err
	}

	app.videoProcessor = graphics.NewVideoProcessor(
		app.config.Video.Brightness,
		app.config.Video.Contrast,
		app.config.Video.Saturation,
	)
	app.palette = app.videoProcessor.ProcessPalette(preset)

	if err := app.initializeGraphicsBackend(); err != nil {
		return fmt.Errorf("failed to initialize graphics backend: %w", err)
	}

	if app.config.Debug.EnableLogging {
		log.Printf("[APP_DEBUG] %s", app.build)
		if app.config.IsLoaded() {
			log.Printf("[APP_DEBUG] Configuration loaded from %s", app.config.GetConfigPath())
		}
	}

	app.initialized = true
	return nil
}

// initializeGraphicsBackend initializes the graphics backend based on configuration
func (app *Application) initializeGraphicsBackend() error {
	var backendType graphics.BackendType
	if app.headless {
		backendType = graphics.BackendHeadless
	} else {
		switch app.config.Video.Backend {
		case "ebitengine":
			backendType = graphics.BackendEbitengine
		case "headless":
			backendType = graphics.BackendHeadless
		case "terminal":
			backendType = graphics.BackendTerminal
		default:
			backendType = graphics.BackendEbitengine
		}
	}

	var err error
	app.graphicsBackend, err = graphics.CreateBackend(backendType)
	if err != nil {
		return fmt.Errorf("failed to create graphics backend: %w", err)
	}

	width, height := app.config.GetWindowResolution()
	graphicsConfig := graphics.Config{
		WindowTitle:   app.build.Title(""),
		WindowWidth:   width,
		WindowHeight:  height,
		Fullscreen:    app.config.Window.Fullscreen,
		VSync:         app.config.Video.VSync,
		Filter:        app.config.Video.Filter,
		AspectRatio:   app.config.Video.AspectRatio,
		Geometry:      app.config.Geometry(),
		FrameRate:     app.config.Emulation.FrameRate,
		KeyBindings:   app.config.Input.Keys,
		PadBindings:   app.config.Input.Pad,
		Headless:      backendType == graphics.BackendHeadless,
		Debug:         app.config.Debug.EnableLogging,
		MaxFrames:     app.config.Debug.MaxFrames,
		ScreenshotDir: app.config.Paths.Screenshots,
		DumpScale:     app.config.Debug.DumpScale,
		DumpSurface:   app.config.Debug.DumpSurface,
	}

	if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
		if backendType != graphics.BackendEbitengine {
			return fmt.Errorf("failed to initialize graphics backend: %w", err)
		}
		log.Printf("[APP_WARNING] Ebitengine backend failed (%v), falling back to headless mode", err)
		app.graphicsBackend = graphics.NewHeadlessBackend()
		graphicsConfig.Headless = true
		if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
			return fmt.Errorf("failed to initialize fallback headless backend: %w", err)
		}
	}

	app.window, err = app.graphicsBackend.CreateWindow(
		graphicsConfig.WindowTitle,
		graphicsConfig.WindowWidth,
		graphicsConfig.WindowHeight,
	)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}

	if app.config.Debug.EnableLogging {
		log.Printf("[APP_DEBUG] Using %s backend", app.graphicsBackend.GetName())
	}
	return nil
}

// SetROMPath selects the ROM loaded by Run instead of showing the menu
func (app *Application) SetROMPath(path string) {
	app.romPath = path
}

// LoadROM loads a ROM image and initializes the core with it. I/O failures
// wrap *rom.IoError and core rejections wrap *core.InitError.
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	image, err := rom.Load(romPath)
	if err != nil {
		return &ApplicationError{Component: "rom", Operation: "load ROM", Err: err}
	}

	c, err := newCore(app.config.Emulation.Core)
	if err != nil {
		image.Release()
		return &ApplicationError{Component: "core", Operation: "select core", Err: err}
	}

	emulator, err := NewEmulator(c, image, app.window, app.palette, app.config)
	if err != nil {
		image.Release()
		return &ApplicationError{Component: "core", Operation: "initialize", Err: err}
	}

	app.emulator = emulator
	app.romPath = romPath
	app.window.SetTitle(app.build.Title(image.Name))
	return nil
}

// Run shows the menu (unless a ROM was selected up front), runs the chosen
// title and returns the process exit code. The error reports display
// failures that are not part of normal operation.
func (app *Application) Run() (int, error) {
	if !app.initialized {
		return ExitFailure, errors.New("application not initialized")
	}

	app.startTime = time.Now()
	code := ExitOK
	err := app.window.Run(func() error {
		var err error
		code, err = app.session()
		return err
	})
	app.endTime = time.Now()

	if err != nil && code == ExitOK {
		code = ExitFailure
	}
	if app.config.Debug.EnableLogging {
		log.Printf("[APP_DEBUG] Session ended with exit code %d", code)
	}
	return code, err
}

// session is the body of Run executed with the display active.
func (app *Application) session() (int, error) {
	if app.emulator == nil {
		path := app.romPath
		if path == "" {
			selected, ok, err := app.selectROM()
			if err != nil {
				return ExitFailure, err
			}
			if !ok {
				return ExitOK, nil
			}
			path = selected
		}

		if err := app.window.ShowText(menu.LoadingLines(filepath.Base(path))); errors.Is(err, graphics.ErrWindowClosed) {
			return ExitOK, nil
		}
		if err := app.LoadROM(path); err != nil {
			return app.reportError(err), nil
		}
	}

	return app.runEmulator()
}

// selectROM runs the selection menu. ok is false when the user quit.
func (app *Application) selectROM() (path string, ok bool, err error) {
	extensions := slices.Concat(rom.ROMExtensions, rom.ArchiveExtensions)
	entries, err := rom.Scan(app.config.Paths.ROMs, extensions)
	if err != nil {
		log.Printf("[APP_WARNING] Could not list %s: %v", app.config.Paths.ROMs, err)
	}

	m := menu.New(entries)
	m.SetHeader(app.build.Title(""))
	for !app.stopped.Load() {
		if err := app.window.ShowText(m.Lines()); err != nil {
			if errors.Is(err, graphics.ErrWindowClosed) {
				return "", false, nil
			}
			return "", false, err
		}

		pressed, _ := app.latch.Update(app.window.Poll())
		switch m.Handle(pressed) {
		case menu.ActionQuit:
			return "", false, nil
		case menu.ActionConfirm:
			entry, _ := m.Selected()
			return entry.Path, true, nil
		}
	}
	return "", false, nil
}

// reportError shows err and blocks until the user acknowledges it with a
// Cross press. It always returns ExitFailure.
func (app *Application) reportError(err error) int {
	log.Printf("[APP_ERROR] %v", err)

	shown := err
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		shown = appErr.Err
	}
	lines := menu.ErrorLines(shown)

	for !app.stopped.Load() {
		if err := app.window.ShowText(lines); err != nil {
			break
		}
		pressed, _ := app.latch.Update(app.window.Poll())
		if pressed&input.RawCross != 0 {
			break
		}
	}
	return ExitFailure
}

// runEmulator runs the loaded title until the user leaves. A fatal core
// error releases the title without writing save RAM and fails the process.
func (app *Application) runEmulator() (int, error) {
	emulator := app.emulator
	err := emulator.Run(app.stopped.Load)
	app.frameCount = emulator.GetFrameCount()

	var fatal *core.FatalEmulationError
	if errors.As(err, &fatal) {
		log.Printf("[APP_ERROR] Core stopped after %d frames: %v", app.frameCount, fatal)
		emulator.Shutdown(false)
		return ExitFailure, nil
	}
	if err != nil {
		emulator.Shutdown(false)
		return ExitFailure, &ApplicationError{Component: "emulator", Operation: "run", Err: err}
	}

	if err := emulator.Shutdown(true); err != nil {
		log.Printf("[APP_WARNING] Could not write save RAM: %v", err)
	}
	return ExitOK, nil
}

// Stop requests the session to end at the next frame boundary
func (app *Application) Stop() {
	app.stopped.Store(true)
}

// IsRunning returns whether a stop has not been requested
func (app *Application) IsRunning() bool {
	return !app.stopped.Load()
}

// GetFPS returns the average FPS over the session
func (app *Application) GetFPS() float64 {
	uptime := app.GetUptime().Seconds()
	if uptime <= 0 {
		return 0
	}
	return float64(app.frameCount) / uptime
}

// GetFrameCount returns the total frame count
func (app *Application) GetFrameCount() uint64 {
	return app.frameCount
}

// GetUptime returns the session duration
func (app *Application) GetUptime() time.Duration {
	if app.endTime.IsZero() {
		return time.Since(app.startTime)
	}
	return app.endTime.Sub(app.startTime)
}

// GetROMPath returns the currently loaded ROM path
func (app *Application) GetROMPath() string {
	return app.romPath
}

// GetWindow returns the display window
func (app *Application) GetWindow() graphics.Window {
	return app.window
}

// GetEmulator returns the loaded title, or nil before LoadROM
func (app *Application) GetEmulator() *Emulator {
	return app.emulator
}

// Palette returns the processed palette entries
func (app *Application) Palette() [4]uint32 {
	return app.palette
}

// ApplyDebugSettings applies debug settings to all components
func (app *Application) ApplyDebugSettings() {
	if app.config == nil {
		return
	}
	if app.emulator != nil {
		app.emulator.ApplyDebugSettings()
	}
	if app.config.Debug.EnableLogging {
		log.Printf("[INPUT_DEBUG] Input debug logging enabled")
	}
}

// Cleanup releases all resources and shuts down the application
func (app *Application) Cleanup() error {
	if app.config != nil && app.config.Debug.EnableLogging {
		log.Println("[APP_DEBUG] Cleaning up application resources...")
	}

	var lastErr error

	if app.emulator != nil {
		if err := app.emulator.Shutdown(false); err != nil {
			lastErr = err
			log.Printf("[APP_ERROR] Emulator cleanup error: %v", err)
		}
	}

	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			lastErr = err
			log.Printf("[APP_ERROR] Window cleanup error: %v", err)
		}
	}

	if app.graphicsBackend != nil {
		if err := app.graphicsBackend.Cleanup(); err != nil {
			lastErr = err
			log.Printf("[APP_ERROR] Graphics backend cleanup error: %v", err)
		}
	}

	app.initialized = false
	return lastErr
}
