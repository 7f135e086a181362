// Package app provides configuration management for the dmgview harness.
package app

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"dmgview/internal/graphics"
	"dmgview/internal/input"
	"dmgview/internal/video"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	// Internal state
	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration. A zero Width or
// Height sizes the window as the surface times Scale.
type WindowConfig struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Fullscreen bool `json:"fullscreen"`
	Scale      int  `json:"scale"` // surface resolution multiplier
}

// VideoConfig contains video rendering configuration
type VideoConfig struct {
	Backend       string  `json:"backend"` // "ebitengine", "headless", "terminal"
	VSync         bool    `json:"vsync"`
	Filter        string  `json:"filter"`       // "nearest", "linear"
	AspectRatio   string  `json:"aspect_ratio"` // "keep", "stretch"
	Palette       string  `json:"palette"`      // "grey", "green"
	Brightness    float32 `json:"brightness"`
	Contrast      float32 `json:"contrast"`
	Saturation    float32 `json:"saturation"`
	Buffers       int     `json:"buffers"`
	SurfaceWidth  int     `json:"surface_width"`
	SurfaceHeight int     `json:"surface_height"`
	Stride        int     `json:"stride"`
}

// InputConfig contains input configuration. Keys and Pad bind host keys
// and gamepad buttons to raw buttons; Mapping assigns raw buttons to
// joypad buttons.
type InputConfig struct {
	Keys    map[string][]string `json:"keys"`
	Pad     map[string][]string `json:"pad"`
	Mapping map[string]string   `json:"mapping"`
	Exit    string              `json:"exit"`
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	Core      string `json:"core"`
	FrameRate int    `json:"frame_rate"` // Target frame rate
	AutoSave  bool   `json:"auto_save"`  // Write save RAM on exit
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	ShowFPS       bool `json:"show_fps"`
	EnableLogging bool `json:"enable_logging"`
	DumpFrames    bool `json:"dump_frames"`
	DumpInterval  int  `json:"dump_interval"`
	MaxDumps      int  `json:"max_dumps"`
	DumpScale     int  `json:"dump_scale"`   // upscale of dumps and screenshots
	DumpSurface   bool `json:"dump_surface"` // dump the whole surface, not just the display
	MaxFrames     int  `json:"max_frames"`   // headless: stop after this many frames
}

// PathsConfig contains file and directory paths
type PathsConfig struct {
	ROMs        string `json:"roms"`
	SaveData    string `json:"save_data"`
	Screenshots string `json:"screenshots"`
	Dumps       string `json:"dumps"`
	Config      string `json:"config"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	g := video.DefaultGeometry
	return &Config{
		Window: WindowConfig{
			Fullscreen: false,
			Scale:      2, // 960x544 (480x272 * 2)
		},
		Video: VideoConfig{
			Backend:       "ebitengine",
			VSync:         true,
			Filter:        "nearest",
			AspectRatio:   "keep",
			Palette:       "grey",
			Brightness:    1.0,
			Contrast:      1.0,
			Saturation:    1.0,
			Buffers:       2,
			SurfaceWidth:  g.SurfaceWidth,
			SurfaceHeight: g.SurfaceHeight,
			Stride:        g.Stride,
		},
		Input: InputConfig{
			Keys:    graphics.DefaultKeyBindings(),
			Pad:     graphics.DefaultPadBindings(),
			Mapping: mappingNames(input.DefaultMapping()),
			Exit:    "triangle",
		},
		Emulation: EmulationConfig{
			Core:      "tileview",
			FrameRate: 60,
			AutoSave:  true,
		},
		Debug: DebugConfig{
			DumpInterval: 60,
			MaxDumps:     10,
			DumpScale:    2,
		},
		Paths: PathsConfig{
			ROMs:        "./roms",
			SaveData:    "./saves",
			Screenshots: "./screenshots",
			Dumps:       "./dumps",
			Config:      "./config",
		},
	}
}

func mappingNames(m input.Mapping) map[string]string {
	names := make(map[string]string, len(m))
	for raw, button := range m {
		names[raw.String()] = button.String()
	}
	return names
}

// LoadFromFile loads configuration from a JSON file. A missing file is
// created with the current values. Binding and mapping tables in the file
// replace the defaults; tables left out or empty keep them.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	keys, pad, mapping := c.Input.Keys, c.Input.Pad, c.Input.Mapping
	c.Input.Keys, c.Input.Pad, c.Input.Mapping = nil, nil, nil
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if len(c.Input.Keys) == 0 {
		c.Input.Keys = keys
	}
	if len(c.Input.Pad) == 0 {
		c.Input.Pad = pad
	}
	if len(c.Input.Mapping) == 0 {
		c.Input.Mapping = mapping
	}

	if err := c.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// validate rejects unusable values and clamps out-of-range ones
func (c *Config) validate() error {
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return &ConfigError{Field: "window", Value: fmt.Sprintf("%dx%d", c.Window.Width, c.Window.Height),
			Err: fmt.Errorf("invalid window dimensions")}
	}

	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}

	if c.Video.Brightness < 0.1 || c.Video.Brightness > 3.0 {
		c.Video.Brightness = 1.0
	}

	if c.Video.Contrast < 0.1 || c.Video.Contrast > 3.0 {
		c.Video.Contrast = 1.0
	}

	if c.Video.Saturation < 0.0 || c.Video.Saturation > 3.0 {
		c.Video.Saturation = 1.0
	}

	if c.Video.Buffers < 2 {
		c.Video.Buffers = 2
	}

	if err := c.Geometry().Validate(); err != nil {
		return &ConfigError{Field: "video", Value: c.Geometry(), Err: err}
	}

	if _, err := video.PalettePreset(c.Video.Palette); err != nil {
		return &ConfigError{Field: "video.palette", Value: c.Video.Palette, Err: err}
	}

	if _, _, err := c.InputMapping(); err != nil {
		return &ConfigError{Field: "input", Value: c.Input.Mapping, Err: err}
	}

	if c.Emulation.FrameRate <= 0 {
		c.Emulation.FrameRate = 60
	}

	if c.Debug.DumpInterval <= 0 {
		c.Debug.DumpInterval = 60
	}

	if c.Debug.DumpScale <= 0 {
		c.Debug.DumpScale = 1
	}

	if c.Debug.MaxFrames < 0 {
		c.Debug.MaxFrames = 0
	}

	return nil
}

// createDirectories creates the directories the harness writes to
func (c *Config) createDirectories() error {
	dirs := []string{
		c.Paths.SaveData,
		c.Paths.Screenshots,
	}
	if c.Debug.DumpFrames {
		dirs = append(dirs, c.Paths.Dumps)
	}

	for _, dir := range dirs {
		if dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// Geometry returns the frame store geometry for the configured surface
func (c *Config) Geometry() video.Geometry {
	g := video.DefaultGeometry
	g.SurfaceWidth = c.Video.SurfaceWidth
	g.SurfaceHeight = c.Video.SurfaceHeight
	g.Stride = c.Video.Stride
	return g
}

// PaletteEntries returns the configured preset before processing
func (c *Config) PaletteEntries() ([4]uint32, error) {
	return video.PalettePreset(c.Video.Palette)
}

// InputMapping resolves the configured raw-to-joypad mapping and the exit
// button.
func (c *Config) InputMapping() (input.Mapping, input.RawButton, error) {
	exit, ok := input.ParseRawButton(c.Input.Exit)
	if !ok {
		return nil, 0, fmt.Errorf("unknown exit button %q", c.Input.Exit)
	}

	mapping := make(input.Mapping, len(c.Input.Mapping))
	for _, rawName := range slices.Sorted(maps.Keys(c.Input.Mapping)) {
		raw, ok := input.ParseRawButton(rawName)
		if !ok {
			return nil, 0, fmt.Errorf("unknown raw button %q", rawName)
		}
		button, ok := input.ParseButton(c.Input.Mapping[rawName])
		if !ok {
			return nil, 0, fmt.Errorf("unknown joypad button %q for %s", c.Input.Mapping[rawName], rawName)
		}
		if raw == exit {
			return nil, 0, fmt.Errorf("exit button %s cannot also be mapped", rawName)
		}
		mapping[raw] = button
	}
	return mapping, exit, nil
}

// GetWindowResolution returns the configured window size, or the surface
// size times Scale when no explicit size is set.
func (c *Config) GetWindowResolution() (int, int) {
	if c.Window.Width > 0 && c.Window.Height > 0 {
		return c.Window.Width, c.Window.Height
	}
	scale := max(c.Window.Scale, 1)
	return c.Video.SurfaceWidth * scale, c.Video.SurfaceHeight * scale
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// UpdateDebug updates debug configuration
func (c *Config) UpdateDebug(showFPS, enableLogging bool) {
	c.Debug.ShowFPS = showFPS
	c.Debug.EnableLogging = enableLogging
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/dmgview.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
