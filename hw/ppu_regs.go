package hw

import "nescore/emu/log"

// Number of PPU cycles a bit of the I/O latch holds its value without being
// refreshed (about 1 frame).
const openBusDecayCycles = NumScanlines * NumCycles

// refreshOpenBus updates the bits of the I/O latch selected by mask.
func (p *PPU) refreshOpenBus(val, mask uint8) {
	p.openBus = p.openBus&^mask | val&mask
	for i := range 8 {
		if mask&(1<<i) != 0 {
			p.openBusStamp[i] = p.ticks
		}
	}
}

// readOpenBus returns the I/O latch, bits that were not refreshed recently
// have decayed to 0.
func (p *PPU) readOpenBus() uint8 {
	for i := range 8 {
		if p.ticks-p.openBusStamp[i] > openBusDecayCycles {
			p.openBus &^= 1 << i
		}
	}
	return p.openBus
}

// Reads of the write-only registers return the I/O latch.
func (p *PPU) ReadPPUCTRL(uint8) uint8   { return p.readOpenBus() }
func (p *PPU) ReadPPUMASK(uint8) uint8   { return p.readOpenBus() }
func (p *PPU) ReadOAMADDR(uint8) uint8   { return p.readOpenBus() }
func (p *PPU) ReadPPUSCROLL(uint8) uint8 { return p.readOpenBus() }
func (p *PPU) ReadPPUADDR(uint8) uint8   { return p.readOpenBus() }

// PPUCTRL: $2000
func (p *PPU) WritePPUCTRL(old, val uint8) {
	p.refreshOpenBus(val, 0xFF)
	log.ModPPU.DebugZ("Write to PPUCTRL").Hex8("val", val).End()

	// Enabling NMI during vblank generates an NMI immediately.
	if old&(1<<nmi) == 0 && val&(1<<nmi) != 0 && p.PPUSTATUS.Value&(1<<vblank) != 0 {
		p.nmiEdge = true
	}

	// Transfer the nametable bits.
	p.t = p.t&^(ntXMask|ntYMask) | loopy(val&ntselect)<<10
}

// PPUMASK: $2001
func (p *PPU) WritePPUMASK(old, val uint8) {
	p.refreshOpenBus(val, 0xFF)
	log.ModPPU.DebugZ("Write to PPUMASK").Hex8("val", val).End()
}

// PPUSTATUS: $2002
func (p *PPU) ReadPPUSTATUS(val uint8) uint8 {
	ret := val&0xE0 | p.readOpenBus()&0x1F
	p.refreshOpenBus(ret, 0xE0)

	p.PPUSTATUS.Value &^= 1 << vblank
	p.w = false

	// Reading status just before vblank starts prevents the flag from being
	// set, and so the NMI, for this frame.
	if p.Scanline == 241 && p.Cycle == 1 {
		p.preventVBlank = true
	}
	return ret
}

func (p *PPU) PeekPPUSTATUS(val uint8) uint8 {
	return val&0xE0 | p.openBus&0x1F
}

// Writes to PPUSTATUS only fill the I/O latch.
func (p *PPU) WritePPUSTATUS(old, val uint8) {
	p.PPUSTATUS.Value = old
	p.refreshOpenBus(val, 0xFF)
}

// OAMADDR: $2003
func (p *PPU) WriteOAMADDR(_, val uint8) {
	p.refreshOpenBus(val, 0xFF)
}

// OAMDATA: $2004
func (p *PPU) ReadOAMDATA(uint8) uint8 {
	val := p.PeekOAMDATA(0)
	p.refreshOpenBus(val, 0xFF)
	return val
}

func (p *PPU) PeekOAMDATA(uint8) uint8 {
	addr := p.OAMADDR.Value
	val := p.OAM[addr]
	if addr&0x03 == 2 {
		// Bits 2-4 of the attribute byte are unimplemented.
		val &= 0xE3
	}
	return val
}

func (p *PPU) WriteOAMDATA(_, val uint8) {
	p.refreshOpenBus(val, 0xFF)
	p.OAM[p.OAMADDR.Value] = val
	p.OAMADDR.Value++
}

// PPUSCROLL: $2005
func (p *PPU) WritePPUSCROLL(old, val uint8) {
	p.refreshOpenBus(val, 0xFF)
	log.ModPPU.DebugZ("Write to PPUSCROLL").Hex8("val", val).Bool("w", p.w).End()

	if !p.w { // first write
		p.x = val & 0b111
		p.t = p.t&^coarseXMask | loopy(val>>3)
	} else { // second write
		p.t = p.t&^(fineYMask|coarseYMask) | loopy(val&0b111)<<12 | loopy(val>>3)<<5
	}
	p.w = !p.w
}

// To read/write VRAM from CPU, PPUADDR is set to the address of the operation.
// It's a 16-bit register so 2 writes are necessary.
// PPUADDR: $2006
func (p *PPU) WritePPUADDR(old, val uint8) {
	p.refreshOpenBus(val, 0xFF)

	if !p.w { // first write, the 15th bit is cleared
		p.t = p.t&0x00FF | loopy(val&0x3F)<<8
	} else { // second write
		p.t = p.t&0xFF00 | loopy(val)
		p.v = p.t
	}
	p.w = !p.w
}

// PPUDATA: $2007
func (p *PPU) ReadPPUDATA(uint8) uint8 {
	addr := uint16(p.v) & 0x3FFF

	var val uint8
	if addr < 0x3F00 {
		// Reading VRAM is too slow so the actual data
		// will be returned at the next read.
		val = p.readBuf
		p.readBuf = p.read(addr)
		p.refreshOpenBus(val, 0xFF)
	} else {
		// Reading palette data is immediate, the 2 upper bits come from the
		// I/O latch. The buffer is filled with the nametable byte 'under'
		// the palette.
		val = p.read(addr)&0x3F | p.readOpenBus()&0xC0
		p.readBuf = p.read(addr - 0x1000)
		p.refreshOpenBus(val, 0x3F)
	}

	p.incVRAMaddr()
	log.ModPPU.DebugZ("VRAM read").
		Hex16("addr", addr).
		Hex8("val", val).
		End()
	return val
}

func (p *PPU) PeekPPUDATA(uint8) uint8 {
	addr := uint16(p.v) & 0x3FFF
	if addr < 0x3F00 {
		return p.readBuf
	}
	return p.Bus.Peek8(addr)
}

// PPUDATA: $2007
func (p *PPU) WritePPUDATA(old, val uint8) {
	p.refreshOpenBus(val, 0xFF)

	addr := uint16(p.v) & 0x3FFF
	p.Bus.Write8(addr, val)
	p.incVRAMaddr()

	log.ModPPU.DebugZ("VRAM write").
		Hex16("addr", addr).
		Hex8("val", val).
		End()
}

// After each i/o on PPUDATA, the VRAM address is incremented.
func (p *PPU) incVRAMaddr() {
	if p.PPUCTRL.Value&(1<<vramIncr) != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x7FFF
}
