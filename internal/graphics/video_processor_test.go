package graphics

import (
	"testing"

	"dmgview/internal/video"
)

func TestVideoProcessor_Identity_ShouldKeepPalette(t *testing.T) {
	vp := NewVideoProcessor(1.0, 1.0, 1.0)
	if got := vp.ProcessPalette(video.GreenPalette); got != video.GreenPalette {
		t.Errorf("identity changed palette to %08X", got)
	}
}

func TestVideoProcessor_Brightness_ShouldDarkenAndKeepAlpha(t *testing.T) {
	vp := NewVideoProcessor(0.5, 1.0, 1.0)

	got := vp.ProcessPixel(0xFFFFFFFF)

	if got>>24 != 0xFF {
		t.Errorf("alpha = %02X, want FF", got>>24)
	}
	if r := got & 0xFF; r < 0x7E || r > 0x80 {
		t.Errorf("red = %02X, want about 7F", r)
	}
}

func TestVideoProcessor_ShouldKeepShadeOrder(t *testing.T) {
	vp := NewVideoProcessor(1.1, 1.3, 0.8)
	processed := vp.ProcessPalette(video.GreyPalette)

	for i := 1; i < len(processed); i++ {
		if video.Luminance(processed[i]) > video.Luminance(processed[i-1]) {
			t.Errorf("shade %d brighter than shade %d after processing", i, i-1)
		}
	}
}

func TestVideoProcessor_ChannelsStayInPlace(t *testing.T) {
	vp := NewVideoProcessor(1.0, 1.0, 1.01)
	// Pure red in ABGR keeps red in the low byte.
	got := vp.ProcessPixel(0xFF0000FF)
	if got&0xFF < 0xF0 || (got>>16)&0xFF > 0x10 {
		t.Errorf("red pixel became %08X", got)
	}
}
