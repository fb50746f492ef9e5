package hw

import "nescore/hw/hwio"

// render runs the background and sprite pipelines for the current dot.
func (p *PPU) render(visibleLine, renderLine, preLine bool) {
	visibleCycle := p.Cycle >= 1 && p.Cycle <= 256
	prefetchCycle := p.Cycle >= 321 && p.Cycle <= 336
	fetchCycle := visibleCycle || prefetchCycle

	if visibleLine && visibleCycle {
		p.renderPixel()
	}

	if renderLine && fetchCycle {
		p.tileData <<= 4
		switch p.Cycle % 8 {
		case 1:
			p.ntByte = p.read(p.v.tileAddr())
		case 3:
			p.atByte = (p.read(p.v.attrAddr()) >> p.v.attrShift()) & 0x03
		case 5:
			p.loTile = p.read(p.bgPatternAddr())
		case 7:
			p.hiTile = p.read(p.bgPatternAddr() + 8)
		case 0:
			p.storeTileData()
			p.v.incrementX()
		}
	}

	if renderLine {
		switch {
		case p.Cycle == 256:
			p.v.incrementY()
		case p.Cycle == 257:
			p.v.copyX(p.t)
		case preLine && p.Cycle >= 280 && p.Cycle <= 304:
			p.v.copyY(p.t)
		}
	}

	// Sprites are evaluated, and their patterns fetched, at once. The sprite
	// pipeline then holds the sprites of the next scanline.
	if p.Cycle == 257 {
		if visibleLine {
			p.evaluateSprites()
		} else {
			p.spriteCount = 0
		}
	}
}

func (p *PPU) bgPatternAddr() uint16 {
	table := uint16(p.PPUCTRL.Value>>backgroundAddr&1) * 0x1000
	return table + uint16(p.ntByte)*16 + p.v.fineY()
}

// storeTileData pushes the 8 pixels of the fetched tile into the low 32 bits
// of the background shift register.
func (p *PPU) storeTileData() {
	var data uint32
	lo, hi := p.loTile, p.hiTile
	attr := p.atByte << 2
	for range 8 {
		p1 := (lo & 0x80) >> 7
		p2 := (hi & 0x80) >> 6
		lo <<= 1
		hi <<= 1
		data = data<<4 | uint32(attr|p1|p2)
	}
	p.tileData |= uint64(data)
}

func (p *PPU) backgroundPixel() uint8 {
	if p.PPUMASK.Value&(1<<showBg) == 0 {
		return 0
	}
	data := uint32(p.tileData>>32) >> ((7 - p.x) * 4)
	return uint8(data & 0x0F)
}

// spritePixel returns the index in the sprite buffer and the color of the
// first opaque sprite pixel at the current dot.
func (p *PPU) spritePixel() (int, uint8) {
	if p.PPUMASK.Value&(1<<showSprites) == 0 {
		return 0, 0
	}
	for i := range p.spriteCount {
		off := (p.Cycle - 1) - int(p.sprites[i].x)
		if off < 0 || off > 7 {
			continue
		}
		color := uint8(p.sprites[i].pattern>>((7-off)*4)) & 0x0F
		if color%4 == 0 {
			continue
		}
		return i, color
	}
	return 0, 0
}

func (p *PPU) renderPixel() {
	x, y := p.Cycle-1, p.Scanline

	bg := p.backgroundPixel()
	i, spr := p.spritePixel()
	if x < 8 {
		if p.PPUMASK.Value&(1<<leftmostBg) == 0 {
			bg = 0
		}
		if p.PPUMASK.Value&(1<<leftmostSprites) == 0 {
			spr = 0
		}
	}

	opaqueBg := bg%4 != 0
	opaqueSpr := spr%4 != 0

	var color uint8
	switch {
	case !opaqueBg && !opaqueSpr:
		color = 0
	case !opaqueBg:
		color = spr | 0x10
	case !opaqueSpr:
		color = bg
	default:
		if p.sprites[i].index == 0 && x != 255 {
			p.PPUSTATUS.Value |= 1 << sprite0Hit
		}
		if p.sprites[i].priority == 0 {
			color = spr | 0x10
		} else {
			color = bg
		}
	}
	p.output(x, y, p.palette[paletteIndex(uint16(color))])
}

func (p *PPU) spriteHeight() int {
	if p.PPUCTRL.Value&(1<<spriteSize) != 0 {
		return 16
	}
	return 8
}

// evaluateSprites fills the sprite buffer with the first 8 sprites in OAM
// intersecting the current scanline.
func (p *PPU) evaluateSprites() {
	h := p.spriteHeight()
	count := 0
	for i := range 64 {
		y := p.OAM[i*4]
		row := p.Scanline - int(y)
		if row < 0 || row >= h {
			continue
		}
		if count < len(p.sprites) {
			attr := p.OAM[i*4+2]
			p.sprites[count] = sprite{
				pattern:  p.fetchSpritePattern(i, row),
				x:        p.OAM[i*4+3],
				priority: (attr >> 5) & 1,
				index:    uint8(i),
			}
		}
		count++
	}
	if count > len(p.sprites) {
		count = len(p.sprites)
		p.PPUSTATUS.Value |= 1 << spriteOverflow
	}
	p.spriteCount = count
}

func (p *PPU) fetchSpritePattern(i, row int) uint32 {
	tile := uint16(p.OAM[i*4+1])
	attr := p.OAM[i*4+2]

	var addr uint16
	if p.spriteHeight() == 8 {
		if attr&0x80 != 0 {
			row = 7 - row
		}
		table := uint16(p.PPUCTRL.Value>>spriteAddr&1) * 0x1000
		addr = table + tile*16 + uint16(row)
	} else {
		if attr&0x80 != 0 {
			row = 15 - row
		}
		// 8x16 sprites select their pattern table with bit 0 of the tile.
		table := (tile & 1) * 0x1000
		tile &= 0xFE
		if row > 7 {
			tile++
			row -= 8
		}
		addr = table + tile*16 + uint16(row)
	}

	lo := p.read(addr)
	hi := p.read(addr + 8)
	if attr&0x40 != 0 {
		lo = hwio.Reverse8(lo)
		hi = hwio.Reverse8(hi)
	}

	pal := (attr & 0x03) << 2
	var data uint32
	for range 8 {
		p1 := (lo & 0x80) >> 7
		p2 := (hi & 0x80) >> 6
		lo <<= 1
		hi <<= 1
		data = data<<4 | uint32(pal|p1|p2)
	}
	return data
}
