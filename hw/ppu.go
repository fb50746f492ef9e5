package hw

import (
	"nescore/emu/log"
	"nescore/hw/hwio"
)

const (
	NumScanlines = 262 // Number of scanlines per frame.
	NumCycles    = 341 // Number of PPU cycles per scanline.

	ScreenWidth  = 256
	ScreenHeight = 240
)

const (
	// PPUCTRL bits
	// $2000

	// Nametable selection mask
	// (0 = $2000; 1 = $2400; 2 = $2800; 3 = $2C00)
	ntselect = 0b11

	// VRAM address increment per CPU read/write of PPUDATA
	// (0: +1 i.e. horizontal; 1: +32 i.e. vertical)
	vramIncr = 2

	// Sprite pattern table address for 8x8 sprites
	// (0: $0000; 1: $1000; ignored in 8x16 mode)
	spriteAddr = 3

	// Background pattern table address (0: $0000; 1: $1000)
	backgroundAddr = 4

	// Sprite size (0: 8x8 pixels; 1: 8x16 pixels)
	spriteSize = 5

	// Generate an NMI at the start of the
	// vertical blanking interval (0: off; 1: on)
	nmi = 7
)

const (
	// PPUMASK bits
	// $2001

	// Greyscale
	// (0: normal color, 1: produce a greyscale display)
	greyscale = 0

	// Show background in leftmost 8 pixels of screen
	// 1: Show, 0: Hide
	leftmostBg = 1

	// Show sprites in leftmost 8 pixels of screen
	// 1: Show, 0: Hide
	leftmostSprites = 2

	// Show background
	showBg = 3

	// Show sprites
	showSprites = 4

	// Bits 5-7 emphasize red, green and blue.
	emphasisShift = 5
)

const (
	// PPUSTATUS bits
	// $2002

	// Sprite overflow. Set during sprite evaluation when more than 8
	// sprites are found on a scanline, cleared at dot 1 of the pre-render
	// line.
	spriteOverflow = 5

	// Sprite 0 Hit. Set when a nonzero pixel of sprite 0 overlaps a
	// nonzero background pixel; cleared at dot 0 of the pre-render line.
	sprite0Hit = 6

	// Vertical blank has started (0: not in vblank; 1: in vblank).
	// Set at dot 1 of line 241 (the line *after* the post-render
	// line); cleared after reading $2002 and at dot 1 of the
	// pre-render line.
	vblank = 7
)

// Frame is the picture produced by the PPU. Each pixel holds a palette index
// in bits 0-5 and the PPUMASK color emphasis bits in bits 6-8.
type Frame [ScreenWidth * ScreenHeight]uint16

type PPU struct {
	Bus    *hwio.Table // PPU bus
	mapper Mapper

	Cycle    int // Next dot to process in current scanline (0-340)
	Scanline int // Scanline of next dot to process (0-261)

	// Number of completed frames.
	FrameCount uint64

	// $0000-$1FFF	Pattern tables (cartridge)
	Patterns hwio.Device `hwio:"offset=0x0000,size=0x2000,rcb,pcb,wcb"`
	// $2000-$2FFF	Nametables, mirrored according to the cartridge
	// $3000-$3EFF	Mirrors of $2000-$2EFF
	Nametables hwio.Device `hwio:"offset=0x2000,size=0x1F00,rcb,pcb,wcb"`
	// $3F00-$3F1F	Palette RAM indexes
	// $3F20-$3FFF	Mirrors of $3F00-$3F1F
	Palettes hwio.Device `hwio:"offset=0x3F00,size=0x100,rcb,pcb,wcb"`

	// CPU-exposed memory-mapped PPU registers
	// mapped from $2000 to $2007, mirrored up to $3fff
	PPUCTRL   hwio.Reg8 `hwio:"bank=1,offset=0x0,rcb,wcb"`
	PPUMASK   hwio.Reg8 `hwio:"bank=1,offset=0x1,rcb,wcb"`
	PPUSTATUS hwio.Reg8 `hwio:"bank=1,offset=0x2,rcb,pcb,wcb"`
	OAMADDR   hwio.Reg8 `hwio:"bank=1,offset=0x3,rcb,wcb"`
	OAMDATA   hwio.Reg8 `hwio:"bank=1,offset=0x4,rcb,pcb,wcb"`
	PPUSCROLL hwio.Reg8 `hwio:"bank=1,offset=0x5,rcb,wcb"`
	PPUADDR   hwio.Reg8 `hwio:"bank=1,offset=0x6,rcb,wcb"`
	PPUDATA   hwio.Reg8 `hwio:"bank=1,offset=0x7,rcb,pcb,wcb"`

	OAM     [256]byte
	ciram   [0x800]byte // nametable RAM
	palette [32]byte

	// Scrolling/VRAM address registers
	v, t loopy
	x    uint8 // fine X scroll
	w    bool  // write toggle

	readBuf uint8 // PPUDATA read buffer

	// I/O latch, returned by reads of write-only registers.
	openBus      uint8
	openBusStamp [8]uint64

	ticks         uint64 // elapsed PPU cycles
	preventVBlank bool
	nmiEdge       bool

	// Background pipeline
	ntByte   uint8
	atByte   uint8
	loTile   uint8
	hiTile   uint8
	tileData uint64 // 16 pixels, 4 bits each (palette|pattern)

	// Sprites of the next scanline
	spriteCount int
	sprites     [8]sprite

	frames     [2]Frame
	back       int // index of frame being drawn
	frameReady bool
}

type sprite struct {
	pattern  uint32 // 8 pixels, 4 bits each
	x        uint8
	priority uint8 // 0: in front of background
	index    uint8 // index in OAM
}

func NewPPU() *PPU {
	return &PPU{
		Bus: hwio.NewTable("ppu"),
	}
}

// InitBus binds the PPU registers and memories, pattern tables and
// nametable mirroring are provided by the cartridge mapper.
func (p *PPU) InitBus(mapper Mapper) {
	p.mapper = mapper
	hwio.MustInitRegs(p)
	p.Bus.MapBank(0x0000, p, 0)
}

// MapRegisters maps the CPU-exposed registers on the CPU bus, mirrored every
// 8 bytes from $2000 to $3FFF.
func (p *PPU) MapRegisters(cpubus *hwio.Table) {
	for addr := 0x2000; addr < 0x4000; addr += 8 {
		cpubus.MapBank(uint16(addr), p, 1)
	}
}

// Reset puts the PPU in its power-up state.
func (p *PPU) Reset() {
	p.PPUCTRL.Value = 0
	p.PPUMASK.Value = 0
	p.PPUSTATUS.Value = 0
	p.OAMADDR.Value = 0
	p.Scanline = 0
	p.Cycle = 0
	p.FrameCount = 0
	p.ticks = 0
	p.v, p.t, p.x, p.w = 0, 0, 0, false
	p.readBuf = 0
	p.openBus = 0
	p.preventVBlank = false
	p.nmiEdge = false
	p.spriteCount = 0
	p.tileData = 0
}

// Position returns the scanline and the dot the PPU is about to process.
func (p *PPU) Position() (scanline, dot int) {
	return p.Scanline, p.Cycle
}

// FrameTick returns the index of the next dot to process within the frame.
func (p *PPU) FrameTick() int {
	return p.Scanline*NumCycles + p.Cycle
}

// Frame returns the last complete frame.
func (p *PPU) Frame() *Frame {
	return &p.frames[p.back^1]
}

// FrameReady reports whether a new frame has been completed since the last
// call.
func (p *PPU) FrameReady() bool {
	ready := p.frameReady
	p.frameReady = false
	return ready
}

// PollNMI reports whether the PPU asserted the NMI line since the last call.
func (p *PPU) PollNMI() bool {
	edge := p.nmiEdge
	p.nmiEdge = false
	return edge
}

func (p *PPU) renderingEnabled() bool {
	return p.PPUMASK.Value&(1<<showBg|1<<showSprites) != 0
}

// Tick processes the current dot and moves to the next one.
func (p *PPU) Tick() {
	p.ticks++

	preLine := p.Scanline == 261
	visibleLine := p.Scanline < 240
	renderLine := preLine || visibleLine

	if p.renderingEnabled() {
		p.render(visibleLine, renderLine, preLine)
	} else if visibleLine && p.Cycle >= 1 && p.Cycle <= 256 {
		p.output(p.Cycle-1, p.Scanline, p.palette[0])
	}

	switch {
	case p.Scanline == 241 && p.Cycle == 1:
		p.startVBlank()
	case preLine && p.Cycle == 0:
		p.PPUSTATUS.Value &^= 1 << sprite0Hit
	case preLine && p.Cycle == 1:
		p.PPUSTATUS.Value &^= 1<<vblank | 1<<spriteOverflow
	}

	p.advance(preLine)
}

func (p *PPU) advance(preLine bool) {
	// Odd frames are one dot shorter when rendering is enabled.
	if preLine && p.Cycle == 339 && p.FrameCount&1 == 1 && p.renderingEnabled() {
		p.Cycle = NumCycles
	}

	p.Cycle++
	if p.Cycle >= NumCycles {
		p.Cycle = 0
		p.Scanline++
		if p.Scanline >= NumScanlines {
			p.Scanline = 0
			p.FrameCount++
			p.preventVBlank = false
		}
	}
}

func (p *PPU) startVBlank() {
	p.back ^= 1
	p.frameReady = true

	if p.preventVBlank {
		log.ModPPU.DebugZ("vblank suppressed by status read").
			Uint64("frame", p.FrameCount).
			End()
		return
	}
	p.PPUSTATUS.Value |= 1 << vblank
	if p.PPUCTRL.Value&(1<<nmi) != 0 {
		p.nmiEdge = true
	}
}

// output stores a pixel of the frame being drawn.
func (p *PPU) output(x, y int, color uint8) {
	pix := uint16(color & 0x3F)
	if p.PPUMASK.Value&(1<<greyscale) != 0 {
		pix &= 0x30
	}
	pix |= uint16(p.PPUMASK.Value>>emphasisShift) << 6
	p.frames[p.back][y*ScreenWidth+x] = pix
}

/* PPU bus */

func (p *PPU) ReadPATTERNS(addr uint16) uint8 {
	return p.mapper.ReadPPU(addr)
}

func (p *PPU) PeekPATTERNS(addr uint16) uint8 {
	return p.mapper.ReadPPU(addr)
}

func (p *PPU) WritePATTERNS(addr uint16, val uint8) {
	p.mapper.WritePPU(addr, val)
}

func (p *PPU) ReadNAMETABLES(addr uint16) uint8 {
	return p.ciram[p.mapper.NametableAddress(addr)&0x7FF]
}

func (p *PPU) PeekNAMETABLES(addr uint16) uint8 {
	return p.ReadNAMETABLES(addr)
}

func (p *PPU) WriteNAMETABLES(addr uint16, val uint8) {
	p.ciram[p.mapper.NametableAddress(addr)&0x7FF] = val
}

// paletteIndex applies palette mirroring: $3F10/$3F14/$3F18/$3F1C mirror
// $3F00/$3F04/$3F08/$3F0C and the 32 entries repeat up to $3FFF.
func paletteIndex(addr uint16) uint16 {
	idx := addr & 0x1F
	if idx >= 0x10 && idx&0x03 == 0 {
		idx -= 0x10
	}
	return idx
}

func (p *PPU) ReadPALETTES(addr uint16) uint8 {
	return p.palette[paletteIndex(addr)]
}

func (p *PPU) PeekPALETTES(addr uint16) uint8 {
	return p.ReadPALETTES(addr)
}

func (p *PPU) WritePALETTES(addr uint16, val uint8) {
	p.palette[paletteIndex(addr)] = val & 0x3F
	log.ModPPU.DebugZ("write palette").
		Hex16("addr", addr).
		Hex8("val", val).
		End()
}

func (p *PPU) read(addr uint16) uint8 {
	return p.Bus.Read8(addr&0x3FFF, false)
}
