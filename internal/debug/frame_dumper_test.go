package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dmgview/internal/video"
)

func testFrame(t *testing.T) video.Frame {
	t.Helper()
	store, err := video.NewFrameStore(video.DefaultGeometry, 2, video.GreyPalette[video.ShadeDarkest])
	if err != nil {
		t.Fatalf("NewFrameStore failed: %v", err)
	}
	g := store.Geometry()
	if err := store.Write(g.BaseOffset(), []uint32{video.GreyPalette[video.ShadeLightest]}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	store.Swap()
	return store.FrontFrame()
}

func newTestDumper(t *testing.T) (*FrameDumper, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "frames")
	fd := NewFrameDumper(dir)
	fd.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return fd, dir
}

func TestFrameDumper_Disabled_ShouldWriteNothing(t *testing.T) {
	fd, dir := newTestDumper(t)

	path, err := fd.DumpFrame(testFrame(t), 0)
	if err != nil || path != "" {
		t.Errorf("DumpFrame = %q, %v; want nothing", path, err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("output directory should not exist while disabled")
	}
}

func TestFrameDumper_ShouldWriteScaledDisplayPNG(t *testing.T) {
	fd, _ := newTestDumper(t)
	if err := fd.Enable(); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	fd.SetScale(2)

	path, err := fd.DumpFrame(testFrame(t), 4)
	if err != nil {
		t.Fatalf("DumpFrame failed: %v", err)
	}
	if filepath.Base(path) != "frame_000004_030405.png" {
		t.Errorf("file name = %q", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open dump: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode dump: %v", err)
	}

	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 288 {
		t.Fatalf("bounds = %v, want 320x288", img.Bounds())
	}
	// The lightest pixel at display (0,0) covers a 2x2 block.
	for _, p := range [][2]int{{0, 0}, {1, 1}} {
		r, _, _, _ := img.At(p[0], p[1]).RGBA()
		if r>>8 != 0xFF {
			t.Errorf("pixel %v red = %d, want 255", p, r>>8)
		}
	}
	if r, _, _, _ := img.At(2, 0).RGBA(); r != 0 {
		t.Errorf("pixel (2,0) red = %d, want 0", r>>8)
	}
}

func TestFrameDumper_ShouldHonourIntervalAndLimit(t *testing.T) {
	fd, _ := newTestDumper(t)
	fd.Enable()
	fd.SetDumpInterval(2)
	fd.SetMaxDumps(1)
	frame := testFrame(t)

	if path, _ := fd.DumpFrame(frame, 1); path != "" {
		t.Error("frame 1 is off the interval")
	}
	if path, _ := fd.DumpFrame(frame, 2); path == "" {
		t.Error("frame 2 should be dumped")
	}
	if path, _ := fd.DumpFrame(frame, 4); path != "" {
		t.Error("limit of one dump exceeded")
	}
	if fd.Dumps() != 1 {
		t.Errorf("Dumps() = %d, want 1", fd.Dumps())
	}
}

func TestFrameDumper_FullSurface(t *testing.T) {
	fd, dir := newTestDumper(t)
	fd.SetFullSurface(true)

	path, err := fd.Screenshot(testFrame(t))
	if err != nil {
		t.Fatalf("Screenshot failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("screenshot written to %q", path)
	}
	f, _ := os.Open(path)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Width != 480 || cfg.Height != 272 {
		t.Errorf("size = %dx%d, want 480x272", cfg.Width, cfg.Height)
	}
}

func TestFrameDumper_ReleasedFrame_ShouldFail(t *testing.T) {
	fd, dir := newTestDumper(t)
	os.MkdirAll(dir, 0755)

	if err := fd.WritePNG(filepath.Join(dir, "x.png"), video.Frame{}); err == nil {
		t.Error("expected error for a frame without pixels")
	}
}
