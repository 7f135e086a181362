// Package app provides emulator integration for the main application.
package app

import (
	"errors"
	"fmt"
	"log"
	"time"

	"dmgview/internal/core"
	"dmgview/internal/core/tileview"
	"dmgview/internal/debug"
	"dmgview/internal/graphics"
	"dmgview/internal/input"
	"dmgview/internal/rom"
	"dmgview/internal/video"
)

// errExitRequested ends the frame loop after the exit button was pressed.
var errExitRequested = errors.New("exit requested")

// coreFactories lists the cores selectable with emulation.core.
var coreFactories = map[string]func() core.Core{
	"tileview": func() core.Core { return tileview.New() },
}

func newCore(name string) (core.Core, error) {
	factory, ok := coreFactories[name]
	if !ok {
		return nil, fmt.Errorf("unknown core %q", name)
	}
	return factory(), nil
}

// Emulator runs one loaded title: it owns the ROM image, the save RAM and
// the frame store, and serves the core's memory callbacks.
type Emulator struct {
	core   core.Core
	image  *rom.Image
	save   *rom.SaveRAM
	config *Config

	store      *video.FrameStore
	compositor *video.Compositor
	sync       *video.Synchronizer
	mapper     *input.Mapper
	window     graphics.Window
	dumper     *debug.FrameDumper

	fatal      *core.FatalEmulationError
	frameCount uint64
	startTime  time.Time
	released   bool
}

// NewEmulator initialises c with image and allocates everything the frame
// loop needs. Core rejections are returned as *core.InitError; image is not
// released on failure.
func NewEmulator(c core.Core, image *rom.Image, window graphics.Window, palette [4]uint32, config *Config) (*Emulator, error) {
	e := &Emulator{
		core:   c,
		image:  image,
		config: config,
		window: window,
	}

	if err := c.Init(e, image.Size()); err != nil {
		return nil, err
	}

	save, err := rom.NewSaveRAM(rom.SavePath(config.Paths.SaveData, image.Name), c.SaveSize())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare save RAM: %w", err)
	}
	e.save = save

	store, err := video.NewFrameStore(config.Geometry(), config.Video.Buffers, palette[video.ShadeLightest])
	if err != nil {
		return nil, fmt.Errorf("failed to create frame store: %w", err)
	}
	e.store = store
	e.compositor = video.NewCompositor(store, video.NewPalette(palette))
	e.sync = video.NewSynchronizer(store, e.compositor, window)

	mapping, exit, err := config.InputMapping()
	if err != nil {
		return nil, err
	}
	e.mapper, err = input.NewMapper(c.Joypad(), mapping, exit)
	if err != nil {
		return nil, err
	}

	if config.Debug.DumpFrames {
		e.dumper = debug.NewFrameDumper(config.Paths.Dumps)
		e.dumper.SetDumpInterval(config.Debug.DumpInterval)
		e.dumper.SetMaxDumps(config.Debug.MaxDumps)
		e.dumper.SetScale(config.Debug.DumpScale)
		e.dumper.SetFullSurface(config.Debug.DumpSurface)
		if err := e.dumper.Enable(); err != nil {
			return nil, err
		}
	}

	e.ApplyDebugSettings()
	return e, nil
}

// ROMByteAt implements core.Callbacks.
func (e *Emulator) ROMByteAt(addr uint32) uint8 {
	return e.image.ByteAt(addr)
}

// SaveByteAt implements core.Callbacks.
func (e *Emulator) SaveByteAt(addr uint32) uint8 {
	if e.save == nil {
		return 0xFF
	}
	return e.save.At(addr)
}

// WriteSaveByte implements core.Callbacks.
func (e *Emulator) WriteSaveByte(addr uint32, value uint8) {
	if e.save != nil {
		e.save.Set(addr, value)
	}
}

// OnFatalError implements core.Callbacks. Only the first report is kept.
func (e *Emulator) OnFatalError(kind core.FatalKind, context uint16) {
	if e.fatal == nil {
		e.fatal = &core.FatalEmulationError{Kind: kind, Context: context}
	}
}

// ApplyDebugSettings propagates the debug flags to the input path.
func (e *Emulator) ApplyDebugSettings() {
	e.mapper.EnableDebug(e.config.Debug.EnableLogging)
}

// Start clears the frame store and arms the compositor.
func (e *Emulator) Start() {
	e.sync.Start()
	e.startTime = time.Now()
}

// Step runs exactly one frame: sample input, let the core produce its
// scanlines into the back slot, then present.
func (e *Emulator) Step() error {
	e.mapper.Sample(e.window.Poll())
	if e.mapper.ExitRequested() {
		return errExitRequested
	}

	core.RunFrame(e.core, e.compositor)
	if e.fatal != nil {
		return e.fatal
	}

	if err := e.sync.PresentFrame(); err != nil {
		return err
	}
	e.frameCount++

	if e.dumper != nil {
		path, err := e.dumper.DumpFrame(e.store.FrontFrame(), e.frameCount)
		if err != nil {
			log.Printf("[APP_WARNING] Frame dump failed: %v", err)
		} else if path != "" && e.config.Debug.EnableLogging {
			log.Printf("[APP_DEBUG] Dumped frame %d to %s", e.frameCount, path)
		}
	}

	if e.config.Debug.ShowFPS && e.frameCount%600 == 0 {
		log.Printf("[APP] %d frames, %.1f FPS", e.frameCount, e.GetFPS())
	}
	return nil
}

// Run steps frames until the exit button is pressed, the window closes or
// the core reports a fatal error, which is returned.
func (e *Emulator) Run(stop func() bool) error {
	e.Start()
	for {
		if e.window.ShouldClose() || (stop != nil && stop()) {
			return nil
		}
		err := e.Step()
		switch {
		case err == nil:
		case errors.Is(err, errExitRequested), errors.Is(err, graphics.ErrWindowClosed):
			return nil
		default:
			return err
		}
	}
}

// Shutdown releases the ROM image, the save RAM and the frame store. With
// persist set and auto-save enabled the save RAM is written first. Only the
// first call has any effect.
func (e *Emulator) Shutdown(persist bool) error {
	if e.released {
		return nil
	}
	e.released = true

	var err error
	if persist && e.config.Emulation.AutoSave && e.save != nil {
		err = e.save.Flush()
	}
	if e.save != nil {
		e.save.Release()
	}
	e.image.Release()
	e.store.Release()
	return err
}

// Fatal returns the core's fatal report, if any.
func (e *Emulator) Fatal() *core.FatalEmulationError {
	return e.fatal
}

// Store returns the frame store.
func (e *Emulator) Store() *video.FrameStore {
	return e.store
}

// SaveRAM returns the save RAM buffer.
func (e *Emulator) SaveRAM() *rom.SaveRAM {
	return e.save
}

// GetFrameCount returns the number of presented frames.
func (e *Emulator) GetFrameCount() uint64 {
	return e.frameCount
}

// GetFPS returns the average frame rate since Start.
func (e *Emulator) GetFPS() float64 {
	elapsed := time.Since(e.startTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(e.frameCount) / elapsed
}
