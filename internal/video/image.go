package video

import (
	"image"
	"image/color"
)

// RGBA converts a native ABGR8888 pixel.
func RGBA(pixel uint32) color.RGBA {
	return color.RGBA{
		R: uint8(pixel),
		G: uint8(pixel >> 8),
		B: uint8(pixel >> 16),
		A: uint8(pixel >> 24),
	}
}

// Luminance returns the perceived brightness of a native pixel in 0..255.
func Luminance(pixel uint32) uint8 {
	c := RGBA(pixel)
	return uint8((299*uint32(c.R) + 587*uint32(c.G) + 114*uint32(c.B)) / 1000)
}

// SurfaceImage copies the whole visible surface into an RGBA image.
func (f Frame) SurfaceImage() *image.RGBA {
	return f.crop(image.Rect(0, 0, f.Geometry.SurfaceWidth, f.Geometry.SurfaceHeight))
}

// DisplayImage copies only the emulated display region.
func (f Frame) DisplayImage() *image.RGBA {
	g := f.Geometry
	return f.crop(image.Rect(g.OffsetX(), g.OffsetY(), g.OffsetX()+g.Width, g.OffsetY()+g.Height))
}

// DirtyRect returns the surface rows touched by the Dirty span. A span
// within one row keeps its columns; otherwise the rows are full width.
func (f Frame) DirtyRect() image.Rectangle {
	if f.Dirty.Empty() {
		return image.Rectangle{}
	}
	g := f.Geometry
	top := f.Dirty.Start / g.Stride
	bottom := (f.Dirty.End + g.Stride - 1) / g.Stride
	surface := image.Rect(0, 0, g.SurfaceWidth, g.SurfaceHeight)
	if bottom-top == 1 {
		left := f.Dirty.Start - top*g.Stride
		right := f.Dirty.End - top*g.Stride
		return image.Rect(left, top, right, bottom).Intersect(surface)
	}
	return image.Rect(0, top, g.SurfaceWidth, bottom).Intersect(surface)
}

// AppendRGBA appends the bytes of rect in RGBA order to dst. The native
// pixel layout already matches, so rows are copied byte for byte.
func (f Frame) AppendRGBA(dst []byte, rect image.Rectangle) []byte {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := f.Pixels[y*f.Geometry.Stride+rect.Min.X : y*f.Geometry.Stride+rect.Max.X]
		for _, p := range row {
			dst = append(dst, uint8(p), uint8(p>>8), uint8(p>>16), uint8(p>>24))
		}
	}
	return dst
}

func (f Frame) crop(rect image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	if f.Pixels == nil {
		return img
	}
	img.Pix = f.AppendRGBA(img.Pix[:0], rect)
	return img
}
