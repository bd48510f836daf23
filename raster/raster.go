// Package raster converts between encoded image files and the float image
// batches the pipeline host passes between nodes.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

var ErrEmptyFrame = errors.New("frame has no pixels")

// Frame is one image with three channels per pixel, stored row by row,
// each channel in [0, 1].
type Frame struct {
	Width  int
	Height int
	Pix    []float32
}

// Batch is an ordered list of frames.
type Batch []Frame

// Mask holds one value in [0, 1] per pixel, 1 marking fully transparent.
type Mask struct {
	Width  int
	Height int
	Pix    []float32
}

// NewFrame returns a black frame of the given size.
func NewFrame(width, height int) Frame {
	return Frame{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*3),
	}
}

// NewMask returns an all-zero mask of the given size.
func NewMask(width, height int) Mask {
	return Mask{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height),
	}
}

// Validate checks that the pixel buffer matches the frame's dimensions.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return ErrEmptyFrame
	}

	if len(f.Pix) != f.Width*f.Height*3 {
		return fmt.Errorf("frame of %dx%d needs %d values, has %d", f.Width, f.Height, f.Width*f.Height*3, len(f.Pix))
	}

	return nil
}

// At returns the red, green and blue values of a pixel.
func (f Frame) At(x, y int) (r, g, b float32) {
	i := (y*f.Width + x) * 3

	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Image converts the frame to 8-bit RGB, clamping values outside [0, 1].
func (f Frame) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b := f.At(x, y)
			img.SetNRGBA(x, y, color.NRGBA{
				R: toByte(r),
				G: toByte(g),
				B: toByte(b),
				A: 0xff,
			})
		}
	}

	return img
}

// Image converts the mask to 8-bit grayscale.
func (m Mask) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))

	for i, v := range m.Pix {
		img.Pix[i] = toByte(v)
	}

	return img
}

// FromImage converts any decoded image to a frame and its transparency mask.
// Images without an alpha channel yield an all-zero mask.
func FromImage(img image.Image) (Frame, Mask) {
	bounds := img.Bounds()
	frame := NewFrame(bounds.Dx(), bounds.Dy())
	mask := NewMask(bounds.Dx(), bounds.Dy())

	at := straightAt(img)
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			c := at(bounds.Min.X+x, bounds.Min.Y+y)

			i := (y*frame.Width + x) * 3
			frame.Pix[i] = float32(c.R) / 0xffff
			frame.Pix[i+1] = float32(c.G) / 0xffff
			frame.Pix[i+2] = float32(c.B) / 0xffff

			mask.Pix[y*frame.Width+x] = 1 - float32(c.A)/0xffff
		}
	}

	return frame, mask
}

// straightAt returns a non-premultiplied pixel reader for img. Sources that
// store straight alpha keep the colour of fully transparent pixels.
func straightAt(img image.Image) func(x, y int) color.NRGBA64 {
	switch src := img.(type) {
	case *image.NRGBA:
		return func(x, y int) color.NRGBA64 {
			return widen(src.NRGBAAt(x, y))
		}
	case *image.NRGBA64:
		return src.NRGBA64At
	case *image.Paletted:
		return func(x, y int) color.NRGBA64 {
			if len(src.Palette) == 0 {
				return color.NRGBA64{}
			}

			c := src.Palette[int(src.ColorIndexAt(x, y))%len(src.Palette)]
			if n, ok := c.(color.NRGBA); ok {
				return widen(n)
			}

			return color.NRGBA64Model.Convert(c).(color.NRGBA64)
		}
	default:
		return func(x, y int) color.NRGBA64 {
			return color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
		}
	}
}

func widen(c color.NRGBA) color.NRGBA64 {
	return color.NRGBA64{
		R: uint16(c.R) * 0x101,
		G: uint16(c.G) * 0x101,
		B: uint16(c.B) * 0x101,
		A: uint16(c.A) * 0x101,
	}
}

// toByte scales v to 0-255, truncating like a float to uint8 cast.
func toByte(v float32) uint8 {
	s := v * 255
	switch {
	case s <= 0 || s != s:
		return 0
	case s >= 255:
		return 255
	default:
		return uint8(s)
	}
}
