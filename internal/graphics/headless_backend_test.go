package graphics

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dmgview/internal/input"
	"dmgview/internal/video"
)

func newTestHeadlessWindow(t *testing.T, config Config) *HeadlessWindow {
	t.Helper()
	backend, err := CreateBackend(BackendHeadless)
	if err != nil {
		t.Fatalf("CreateBackend failed: %v", err)
	}
	if err := backend.Initialize(config); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	window, err := backend.CreateWindow("Headless", 480, 272)
	if err != nil {
		t.Fatalf("CreateWindow failed: %v", err)
	}
	return window.(*HeadlessWindow)
}

func testStoreFrame(t *testing.T, fill uint32) video.Frame {
	t.Helper()
	store, err := video.NewFrameStore(video.DefaultGeometry, 2, fill)
	if err != nil {
		t.Fatalf("NewFrameStore failed: %v", err)
	}
	return store.FrontFrame()
}

func TestHeadlessBackend_Properties(t *testing.T) {
	backend := NewHeadlessBackend()
	if !backend.IsHeadless() || backend.GetName() != "Headless" {
		t.Error("unexpected headless backend identity")
	}
	if _, err := backend.CreateWindow("x", 1, 1); err == nil {
		t.Error("CreateWindow before Initialize should fail")
	}
	backend.Initialize(Config{})
	if err := backend.Initialize(Config{}); err == nil {
		t.Error("double initialization should fail")
	}
}

func TestHeadlessWindow_Present_ShouldRecordCopy(t *testing.T) {
	window := newTestHeadlessWindow(t, Config{})
	frame := testStoreFrame(t, 0xFF000000)

	if err := window.Present(frame); err != nil {
		t.Fatalf("Present failed: %v", err)
	}
	frame.Pixels[0] = 0xFFFFFFFF

	last, ok := window.LastFrame()
	if !ok {
		t.Fatal("no frame recorded")
	}
	if last.Pixels[0] != 0xFF000000 {
		t.Error("recorded frame should not alias the slot")
	}
	if window.GetFrameCount() != 1 {
		t.Errorf("GetFrameCount() = %d, want 1", window.GetFrameCount())
	}
}

func TestHeadlessWindow_RecordLimit(t *testing.T) {
	window := newTestHeadlessWindow(t, Config{})
	window.SetRecordLimit(2)
	frame := testStoreFrame(t, 0)

	for i := 0; i < 5; i++ {
		frame.Sequence = uint64(i)
		window.Present(frame)
	}

	frames := window.Frames()
	if len(frames) != 2 || frames[0].Sequence != 3 || frames[1].Sequence != 4 {
		t.Errorf("kept frames %v", frames)
	}
}

func TestHeadlessWindow_MaxFrames_ShouldCloseAndDump(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	window := newTestHeadlessWindow(t, Config{MaxFrames: 2, ScreenshotDir: dir})
	frame := testStoreFrame(t, 0xFF525252)

	window.Present(frame)
	if window.ShouldClose() {
		t.Fatal("window closed too early")
	}
	window.Present(frame)
	if !window.ShouldClose() {
		t.Fatal("window should close after the frame limit")
	}
	if _, err := os.Stat(window.DumpedPath()); err != nil {
		t.Errorf("final frame not written: %v", err)
	}
	if err := window.Present(frame); !errors.Is(err, ErrWindowClosed) {
		t.Errorf("Present after close = %v, want ErrWindowClosed", err)
	}
}

func TestHeadlessWindow_Poll_ShouldFollowScriptThenIdle(t *testing.T) {
	window := newTestHeadlessWindow(t, Config{})
	window.Script(input.RawState{Held: input.RawUp}, input.RawState{Held: input.RawCross})
	window.SetIdleState(input.RawState{Held: input.RawTriangle})

	want := []input.RawButtons{input.RawUp, input.RawCross, input.RawTriangle, input.RawTriangle}
	for i, w := range want {
		if got := window.Poll().Held; got != w {
			t.Errorf("poll %d = %s, want %s", i, got, w)
		}
	}
	if window.Polls() != len(want) {
		t.Errorf("Polls() = %d", window.Polls())
	}
}

func TestHeadlessWindow_ShowText(t *testing.T) {
	window := newTestHeadlessWindow(t, Config{MaxFrames: 1})

	if err := window.ShowText([]string{"hello"}); err != nil {
		t.Fatalf("ShowText failed: %v", err)
	}
	texts := window.Texts()
	if len(texts) != 1 || texts[0][0] != "hello" {
		t.Errorf("Texts() = %v", texts)
	}
	if !window.ShouldClose() {
		t.Error("text screens should count toward the limit")
	}
}

func TestHeadlessWindow_Run_ShouldReturnLoopError(t *testing.T) {
	window := newTestHeadlessWindow(t, Config{})
	want := errors.New("boom")

	if err := window.Run(func() error { return want }); !errors.Is(err, want) {
		t.Errorf("Run error = %v", err)
	}
}

func TestHeadlessWindow_FinalFrame_ShouldUseDumpScale(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	window := newTestHeadlessWindow(t, Config{MaxFrames: 1, ScreenshotDir: dir, DumpScale: 2})

	if err := window.Present(testStoreFrame(t, 0xFF000000)); err != nil {
		t.Fatalf("Present failed: %v", err)
	}

	f, err := os.Open(window.DumpedPath())
	if err != nil {
		t.Fatalf("final frame not written: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("DecodeConfig failed: %v", err)
	}
	if cfg.Width != 320 || cfg.Height != 288 {
		t.Errorf("final frame is %dx%d, want 320x288", cfg.Width, cfg.Height)
	}
}

func TestHeadlessWindow_AfterCleanup_ShouldNotBlock(t *testing.T) {
	// One tick per second, so an unpaced call would hang the test.
	window := newTestHeadlessWindow(t, Config{VSync: true, FrameRate: 1})
	frame := testStoreFrame(t, 0)
	window.Cleanup()

	done := make(chan error, 2)
	go func() { done <- window.Present(frame) }()
	go func() { done <- window.ShowText([]string{"bye"}) }()

	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			if !errors.Is(err, ErrWindowClosed) {
				t.Errorf("call after Cleanup = %v, want ErrWindowClosed", err)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatal("call after Cleanup blocked")
		}
	}
}

func TestHeadlessWindow_CleanupDuringWait_ShouldUnblock(t *testing.T) {
	window := newTestHeadlessWindow(t, Config{VSync: true, FrameRate: 1})

	done := make(chan error, 1)
	go func() { done <- window.ShowText([]string{"waiting"}) }()
	time.Sleep(50 * time.Millisecond)
	window.Cleanup()

	select {
	case err := <-done:
		if !errors.Is(err, ErrWindowClosed) {
			t.Errorf("ShowText = %v, want ErrWindowClosed", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("ShowText still blocked after Cleanup")
	}
}
