package hw

import "image/color"

// Palette holds the RGB colors of the 64 palette indices of the 2C02.
var Palette [64]color.RGBA

func init() {
	colors := [64]uint32{
		0x666666, 0x002A88, 0x1412A7, 0x3B00A4, 0x5C007E, 0x6E0040, 0x6C0600, 0x561D00,
		0x333500, 0x0B4800, 0x005200, 0x004F08, 0x00404D, 0x000000, 0x000000, 0x000000,
		0xADADAD, 0x155FD9, 0x4240FF, 0x7527FE, 0xA01ACC, 0xB71E7B, 0xB53120, 0x994E00,
		0x6B6D00, 0x388700, 0x0C9300, 0x008F32, 0x007C8D, 0x000000, 0x000000, 0x000000,
		0xFFFEFF, 0x64B0FF, 0x9290FF, 0xC676FF, 0xF36AFF, 0xFE6ECC, 0xFE8170, 0xEA9E22,
		0xBCBE00, 0x88D800, 0x5CE430, 0x45E082, 0x48CDDE, 0x4F4F4F, 0x000000, 0x000000,
		0xFFFEFF, 0xC0DFFF, 0xD3D2FF, 0xE8C8FF, 0xFBC2FF, 0xFEC4EA, 0xFECCC5, 0xF7D8A5,
		0xE4E594, 0xCFEF96, 0xBDF4AB, 0xB3F3CC, 0xB5EBF2, 0xB8B8B8, 0x000000, 0x000000,
	}
	for i, c := range colors {
		Palette[i] = color.RGBA{R: byte(c >> 16), G: byte(c >> 8), B: byte(c), A: 0xFF}
	}
}

// PixelColor converts a pixel of a Frame to RGBA. Emphasized channels are
// kept while the others are attenuated.
func PixelColor(pix uint16) color.RGBA {
	c := Palette[pix&0x3F]
	emph := uint8(pix>>6) & 0x07
	if emph == 0 {
		return c
	}
	dim := func(v uint8, bit uint8) uint8 {
		if emph&bit != 0 {
			return v
		}
		return uint8(uint16(v) * 816 / 1000)
	}
	c.R = dim(c.R, 1)
	c.G = dim(c.G, 2)
	c.B = dim(c.B, 4)
	return c
}
