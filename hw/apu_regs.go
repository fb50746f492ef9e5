package hw

import (
	"nescore/emu/log"
	"nescore/hw/hwio"
)

// APURegs is the register file of the audio unit. Waveform generation is not
// emulated: writes are stored and reported to an optional listener.
type APURegs struct {
	// $4000-$4013: pulse 1 & 2, triangle, noise and DMC channels.
	CHANNELS hwio.Device `hwio:"offset=0x00,size=0x14,rcb,pcb,wcb"`
	STATUS   hwio.Reg8   `hwio:"offset=0x15,rcb,wcb"`

	// Values last written to $4000-$4017.
	Regs [0x18]uint8

	openBus  uint8
	listener func(addr uint16, val uint8)
}

func (a *APURegs) initBus(openBus uint8) {
	hwio.MustInitRegs(a)
	a.openBus = openBus
}

// SetListener registers fn to be called on every APU register write.
func (a *APURegs) SetListener(fn func(addr uint16, val uint8)) {
	a.listener = fn
}

func (a *APURegs) write(addr uint16, val uint8) {
	a.Regs[addr&0x1F] = val
	log.ModSound.DebugZ("write APU register").
		Hex16("addr", addr).
		Hex8("val", val).
		End()
	if a.listener != nil {
		a.listener(addr, val)
	}
}

// The channel registers are write-only.
func (a *APURegs) ReadCHANNELS(uint16) uint8      { return a.openBus }
func (a *APURegs) PeekCHANNELS(addr uint16) uint8 { return a.Regs[addr&0x1F] }
func (a *APURegs) WriteCHANNELS(addr uint16, val uint8) {
	a.write(addr, val)
}

// STATUS: $4015. Without channel generators no length counter is ever
// active.
func (a *APURegs) ReadSTATUS(uint8) uint8 { return 0 }

func (a *APURegs) WriteSTATUS(_, val uint8) {
	a.write(0x4015, val)
}

// FRAMECOUNTER: $4017 (write)
func (a *APURegs) writeFrameCounter(val uint8) {
	a.write(0x4017, val)
}
