package hw

import (
	"nescore/emu/log"
	"nescore/hw/hwio"
)

// Bus is the CPU address space.
//
//	$0000-$07FF	2KB internal RAM
//	$0800-$1FFF	Mirrors of $0000-$07FF
//	$2000-$2007	PPU registers
//	$2008-$3FFF	Mirrors of $2000-$2007
//	$4000-$4017	APU, OAM DMA and I/O registers
//	$4018-$401F	Disabled APU test registers (open bus)
//	$4020-$FFFF	Cartridge space
type Bus struct {
	*hwio.Table

	RAM       hwio.Mem    `hwio:"offset=0x0000,size=0x800,vsize=0x2000"`
	Cartridge hwio.Device `hwio:"offset=0x4020,size=0xBFE0,rcb,pcb,wcb"`

	PPU    *PPU
	Mapper Mapper
	Input  InputPorts
	APU    APURegs

	dma     oamDMA
	openBus uint8
}

// NewBus builds the CPU bus. Reads of undecoded addresses return openBus.
func NewBus(ppu *PPU, mapper Mapper, openBus uint8) *Bus {
	b := &Bus{
		Table:   hwio.NewTable("cpu"),
		PPU:     ppu,
		Mapper:  mapper,
		openBus: openBus,
	}
	b.Unmapped = hwio.OpenBus(openBus)

	hwio.MustInitRegs(b)
	b.MapBank(0x0000, b, 0)
	ppu.MapRegisters(b.Table)

	b.APU.initBus(openBus)
	b.MapBank(0x4000, &b.APU, 0)
	b.dma.initBus(b)
	b.MapBank(0x4000, &b.dma, 0)
	b.Input.initBus()
	b.Input.writeFrameCounter = b.APU.writeFrameCounter
	b.MapBank(0x4000, &b.Input, 0)
	return b
}

// ReadByte reads the byte at addr, with side effects.
func (b *Bus) ReadByte(addr uint16) uint8 {
	return b.Read8(addr, false)
}

func (b *Bus) WriteByte(addr uint16, val uint8) {
	b.Write8(addr, val)
}

func (b *Bus) Read16(addr uint16) uint16 {
	return hwio.Read16(b, addr)
}

func (b *Bus) Write16(addr uint16, val uint16) {
	hwio.Write16(b, addr, val)
}

// CopyPage copies the 256 bytes of CPU page $XX00-$XXFF into dst, starting at
// index start and wrapping around.
func (b *Bus) CopyPage(page uint8, dst *[256]byte, start uint8) {
	base := uint16(page) << 8
	for i := range 256 {
		dst[start+uint8(i)] = b.Read8(base+uint16(i), false)
	}
}

// DMAStall reports whether an OAM DMA transfer occurred since the last call,
// the CPU must then be stalled.
func (b *Bus) DMAStall() bool {
	pending := b.dma.pending
	b.dma.pending = false
	return pending
}

/* cartridge space */

func (b *Bus) ReadCARTRIDGE(addr uint16) uint8 {
	if val, ok := b.Mapper.ReadCPU(addr); ok {
		return val
	}
	return b.openBus
}

func (b *Bus) PeekCARTRIDGE(addr uint16) uint8 {
	return b.ReadCARTRIDGE(addr)
}

func (b *Bus) WriteCARTRIDGE(addr uint16, val uint8) {
	log.ModMapper.DebugZ("cartridge write").
		Hex16("addr", addr).
		Hex8("val", val).
		End()
	b.Mapper.WriteCPU(addr, val)
}
