// Package debug provides frame buffer dumping utilities
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	xdraw "golang.org/x/image/draw"

	"dmgview/internal/video"
)

// FrameDumper writes presented frames to PNG files
type FrameDumper struct {
	outputDir    string
	dumpEnabled  bool
	dumpCount    uint64
	maxDumps     int
	dumpInterval int // Dump every N frames
	scale        int
	fullSurface  bool
	now          func() time.Time
}

// NewFrameDumper creates a new frame dumper
func NewFrameDumper(outputDir string) *FrameDumper {
	return &FrameDumper{
		outputDir:    outputDir,
		maxDumps:     10,
		dumpInterval: 1,
		scale:        1,
		now:          time.Now,
	}
}

// Enable activates frame dumping
func (fd *FrameDumper) Enable() error {
	if err := os.MkdirAll(fd.outputDir, 0755); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}
	fd.dumpEnabled = true
	return nil
}

// SetMaxDumps sets the maximum number of frames to dump; 0 means unlimited
func (fd *FrameDumper) SetMaxDumps(max int) {
	fd.maxDumps = max
}

// SetDumpInterval sets the interval between frame dumps
func (fd *FrameDumper) SetDumpInterval(interval int) {
	fd.dumpInterval = max(interval, 1)
}

// SetScale sets the integer upscale factor
func (fd *FrameDumper) SetScale(scale int) {
	fd.scale = max(scale, 1)
}

// SetFullSurface selects dumping the whole surface instead of the display region
func (fd *FrameDumper) SetFullSurface(full bool) {
	fd.fullSurface = full
}

// Dumps returns the number of files written
func (fd *FrameDumper) Dumps() uint64 {
	return fd.dumpCount
}

// DumpFrame writes frame when dumping is enabled and frameNum falls on the
// dump interval. It returns the written path, or "" when nothing was written.
func (fd *FrameDumper) DumpFrame(frame video.Frame, frameNum uint64) (string, error) {
	if !fd.dumpEnabled {
		return "", nil
	}
	if frameNum%uint64(fd.dumpInterval) != 0 {
		return "", nil
	}
	if fd.maxDumps > 0 && fd.dumpCount >= uint64(fd.maxDumps) {
		return "", nil
	}

	filename := fmt.Sprintf("frame_%06d_%s.png", frameNum, fd.now().Format("150405"))
	path := filepath.Join(fd.outputDir, filename)
	if err := fd.WritePNG(path, frame); err != nil {
		return "", err
	}
	fd.dumpCount++
	return path, nil
}

// Screenshot writes frame regardless of the dump schedule
func (fd *FrameDumper) Screenshot(frame video.Frame) (string, error) {
	if err := os.MkdirAll(fd.outputDir, 0755); err != nil {
		return "", fmt.Errorf("create screenshot directory: %w", err)
	}
	path := filepath.Join(fd.outputDir, fmt.Sprintf("%d.png", fd.now().UnixNano()))
	if err := fd.WritePNG(path, frame); err != nil {
		return "", err
	}
	return path, nil
}

// WritePNG encodes frame to path at the configured scale
func (fd *FrameDumper) WritePNG(path string, frame video.Frame) error {
	if frame.Pixels == nil {
		return fmt.Errorf("frame %d has no pixels", frame.Sequence)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create frame dump file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, fd.render(frame)); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return nil
}

func (fd *FrameDumper) render(frame video.Frame) image.Image {
	var src *image.RGBA
	if fd.fullSurface {
		src = frame.SurfaceImage()
	} else {
		src = frame.DisplayImage()
	}
	if fd.scale == 1 {
		return src
	}

	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*fd.scale, bounds.Dy()*fd.scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, bounds, xdraw.Src, nil)
	return dst
}
