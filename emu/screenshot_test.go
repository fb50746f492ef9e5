package emu

import (
	"bytes"
	"image/png"
	"testing"

	"nescore/hw"
)

func TestScreenshot(t *testing.T) {
	rom := testRom(nil)
	putCode(rom, 0x8000,
		0xA9, 0x3F, // LDA #$3F
		0x8D, 0x06, 0x20, // STA $2006
		0xA9, 0x00, // LDA #$00
		0x8D, 0x06, 0x20, // STA $2006
		0xA9, 0x16, // LDA #$16 (red)
		0x8D, 0x07, 0x20, // STA $2007
		0x4C, 0x0F, 0x80, // JMP $800F
	)
	nes := powerUpTest(t, rom)
	nes.RunFrames(2)

	img := FrameImage(nes.PPU.Frame(), 2)
	if b := img.Bounds(); b.Dx() != 512 || b.Dy() != 480 {
		t.Fatalf("image size = %v, want 512x480", b)
	}
	// Rendering is disabled, the backdrop color fills the screen.
	want := hw.PixelColor(0x16)
	for _, pt := range [][2]int{{0, 0}, {511, 479}, {256, 240}} {
		if got := img.RGBAAt(pt[0], pt[1]); got != want {
			t.Errorf("pixel %v = %v, want %v", pt, got, want)
		}
	}
}

func TestEncodeScreenshot(t *testing.T) {
	var frame hw.Frame
	for i := range frame {
		frame[i] = uint16(i % 64)
	}

	var buf bytes.Buffer
	if err := EncodeScreenshot(&buf, &frame, 1); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	for _, i := range []int{0, 1, 63, 256*239 + 255} {
		x, y := i%hw.ScreenWidth, i/hw.ScreenWidth
		r, g, b, _ := img.At(x, y).RGBA()
		want := hw.PixelColor(frame[i])
		if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
			t.Errorf("pixel (%d,%d) = %v, want %v", x, y, img.At(x, y), want)
		}
	}
}
