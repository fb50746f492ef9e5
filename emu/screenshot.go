package emu

import (
	"image"
	"image/png"
	"io"
	"os"

	"nescore/hw"
)

// FrameImage converts a frame of palette indices into an RGBA image, each
// pixel being scaled by a factor of scale.
func FrameImage(frame *hw.Frame, scale int) *image.RGBA {
	scale = max(scale, 1)
	img := image.NewRGBA(image.Rect(0, 0, hw.ScreenWidth*scale, hw.ScreenHeight*scale))
	for y := range hw.ScreenHeight {
		for x := range hw.ScreenWidth {
			c := hw.PixelColor(frame[y*hw.ScreenWidth+x])
			for dy := range scale {
				for dx := range scale {
					img.SetRGBA(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}
	return img
}

// EncodeScreenshot writes frame as a PNG image to w.
func EncodeScreenshot(w io.Writer, frame *hw.Frame, scale int) error {
	return png.Encode(w, FrameImage(frame, scale))
}

// SaveScreenshot writes frame as a PNG file at path.
func SaveScreenshot(path string, frame *hw.Frame, scale int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeScreenshot(f, frame, scale); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
