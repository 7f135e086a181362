// Package main implements the dmgview executable.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"dmgview/internal/app"
	"dmgview/internal/version"
)

func main() {
	var (
		romFile    = flag.String("rom", "", "Path to a ROM image or archive (skips the selection menu)")
		configFile = flag.String("config", "", "Path to configuration file")
		backend    = flag.String("backend", "", "Display backend: ebitengine, terminal or headless")
		debug      = flag.Bool("debug", false, "Enable debug mode")
		frames     = flag.Int("frames", 0, "Headless: stop after this many frames and write the last one")
		help       = flag.Bool("help", false, "Show help message")
		version    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(app.ExitOK)
	}

	if *version {
		printVersion()
		os.Exit(app.ExitOK)
	}

	configPath := *configFile
	if configPath == "" {
		configPath = app.GetDefaultConfigPath()
	}

	config := app.NewConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		log.Printf("[APP_WARNING] Could not load config from %s, using defaults: %v", configPath, err)
		config = app.NewConfig()
	}
	if *backend != "" {
		config.Video.Backend = *backend
	}
	if *frames > 0 {
		config.Debug.MaxFrames = *frames
	}
	if *debug {
		config.UpdateDebug(true, true)
		fmt.Println("Debug mode enabled")
	}

	application, err := app.NewApplicationWithConfig(config, false)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	setupGracefulShutdown(application)

	if *romFile != "" {
		fmt.Printf("Loading ROM: %s\n", *romFile)
		application.SetROMPath(*romFile)
	}

	code, err := application.Run()
	if err != nil {
		log.Printf("Application run failed: %v", err)
	}

	if config.Debug.ShowFPS || config.Debug.EnableLogging {
		fmt.Printf("Session Statistics:\n")
		fmt.Printf("   Frames rendered: %d\n", application.GetFrameCount())
		fmt.Printf("   Session time: %v\n", application.GetUptime())
		fmt.Printf("   Average FPS: %.1f\n", application.GetFPS())
	}

	if err := application.Cleanup(); err != nil {
		log.Printf("Application cleanup error: %v", err)
	}
	os.Exit(code)
}

// setupGracefulShutdown stops the session at the next frame boundary on
// SIGINT or SIGTERM
func setupGracefulShutdown(application *app.Application) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Println("\nInterrupt received, shutting down gracefully...")
		application.Stop()
	}()
}

func printVersion() {
	if err := version.Read().Write(os.Stdout); err != nil {
		log.Printf("write version: %v", err)
	}
}

func printUsage() {
	fmt.Println("dmgview - monochrome handheld presentation harness")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  dmgview [options]                  # Pick a ROM from the menu")
	fmt.Println("  dmgview -rom <file> [options]      # Start with ROM loaded")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  dmgview -rom game.gb")
	fmt.Println("  dmgview -rom games.zip -backend terminal")
	fmt.Println("  dmgview -rom game.gb -backend headless -frames 120")
	fmt.Println()
	fmt.Println("CONTROLS (Default):")
	fmt.Println("    Arrow Keys / WASD - D-Pad")
	fmt.Println("    X / J             - A Button (confirm in menus)")
	fmt.Println("    Z / K, C / L      - B Button")
	fmt.Println("    Enter             - Start (quit from the menu)")
	fmt.Println("    Space             - Select")
	fmt.Println("    Escape            - Exit")
	fmt.Println("    F11               - Toggle Fullscreen")
	fmt.Println("    F12               - Screenshot")
	fmt.Println()
	fmt.Println("CONFIGURATION:")
	fmt.Printf("  Config file: %s\n", app.GetDefaultConfigPath())
	fmt.Println("  ROMs:        ./roms/")
	fmt.Println("  Saves:       ./saves/")
	fmt.Println("  Screenshots: ./screenshots/")
	fmt.Println()
	fmt.Println("SUPPORTED FORMATS:")
	fmt.Println("  .gb, .gbc, optionally inside .zip, .7z, .gz, .tar.gz or .rar")
	fmt.Println()
	fmt.Println("EXIT CODES:")
	fmt.Println("  0 on user exit, 1 when a ROM cannot be loaded or the core fails")
}
