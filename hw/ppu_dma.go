package hw

import (
	"nescore/emu/log"
	"nescore/hw/hwio"
)

// Number of cycles the CPU is suspended by an OAM DMA transfer, plus one when
// the transfer starts on an odd cycle.
const OAMDMACycles = 513

// oamDMA handles the DMA transfer of OAM (sprites attributes) to the PPU.
type oamDMA struct {
	bus *Bus

	OAMDMA hwio.Reg8 `hwio:"offset=0x14,rcb,pcb,wcb"`

	pending bool
}

func (dma *oamDMA) initBus(bus *Bus) {
	hwio.MustInitRegs(dma)
	dma.bus = bus
}

// $4014 is write-only, reads return the open bus value.
func (dma *oamDMA) ReadOAMDMA(uint8) uint8 { return dma.bus.openBus }
func (dma *oamDMA) PeekOAMDMA(uint8) uint8 { return dma.bus.openBus }

// OAMDMA: $4014
func (dma *oamDMA) WriteOAMDMA(_, val uint8) {
	ppu := dma.bus.PPU
	dma.bus.CopyPage(val, &ppu.OAM, ppu.OAMADDR.Value)
	dma.pending = true

	log.ModDMA.DebugZ("OAM DMA transfer").
		Hex8("page", val).
		Hex8("oamaddr", ppu.OAMADDR.Value).
		Blob("bytes", ppu.OAM[:]).
		End()
}
