package mappers

import (
	"nescore/hw"
	"nescore/ines"
)

var MMC1 = MapperDesc{
	Name:        "MMC1",
	Number:      1,
	New:         newMMC1,
	PRGBankSize: 0x4000,
	CHRBankSize: 0x1000,
	MaxPRGPages: 16,
	MaxCHRPages: 16,
}

type mmc1 struct {
	*base

	serial  uint8 // shift register
	counter uint8 // count of bits shifted

	control uint8 // $8000-$9FFF
	chr0    uint8 // $A000-$BFFF
	chr1    uint8 // $C000-$DFFF
	prg     uint8 // $E000-$FFFF
}

func newMMC1(desc MapperDesc, rom *ines.Rom) (hw.Mapper, error) {
	b, err := newBase(desc, rom)
	if err != nil {
		return nil, err
	}
	b.prgRAM = make([]byte, 0x2000)

	m := &mmc1{base: b}
	// At power-up the last bank is fixed at $C000.
	m.control = 0x0C
	m.remap()
	return m, nil
}

func (m *mmc1) prgRAMEnabled() bool {
	return m.prg&0x10 == 0
}

func (m *mmc1) ReadCPU(addr uint16) (uint8, bool) {
	if addr >= 0x6000 && addr < 0x8000 && !m.prgRAMEnabled() {
		return 0, false
	}
	return m.base.ReadCPU(addr)
}

func (m *mmc1) WriteCPU(addr uint16, val uint8) {
	if addr < 0x8000 {
		if m.prgRAMEnabled() {
			m.base.WriteCPU(addr, val)
		}
		return
	}

	if val&0x80 != 0 {
		// Reset the shift register, so that the next write is the first
		// one. PRG mode 3 (fixed last bank at $C000) is selected.
		m.serial = 0
		m.counter = 0
		m.control |= 0x0C
		m.remap()
		return
	}

	// Bits are shifted in LSB first.
	m.serial |= (val & 1) << m.counter
	m.counter++
	if m.counter < 5 {
		return
	}

	switch (addr >> 13) & 0b11 {
	case 0:
		m.control = m.serial
	case 1:
		m.chr0 = m.serial
	case 2:
		m.chr1 = m.serial
	case 3:
		m.prg = m.serial
	}
	modMapper.DebugZ("register write").
		String("mapper", m.desc.Name).
		Hex16("addr", addr).
		Hex8("val", m.serial).
		End()

	m.serial = 0
	m.counter = 0
	m.remap()
}

// remap updates the bank slots and mirroring from the registers.
func (m *mmc1) remap() {
	// 4bit0
	// -----
	// CPPMM
	// |||||
	// |||++- Mirroring (0: one-screen, lower bank; 1: one-screen, upper bank;
	// |||               2: vertical; 3: horizontal)
	// |++--- PRG ROM bank mode (0, 1: switch 32 KB at $8000, ignoring low bit of bank number;
	// |                         2: fix first bank at $8000 and switch 16 KB bank at $C000;
	// |                         3: fix last bank at $C000 and switch 16 KB bank at $8000)
	// +----- CHR ROM bank mode (0: switch 8 KB at a time; 1: switch two separate 4 KB banks)
	switch m.control & 0b11 {
	case 0:
		m.setMirroring(hw.OnlyAScreen)
	case 1:
		m.setMirroring(hw.OnlyBScreen)
	case 2:
		m.setMirroring(hw.VertMirroring)
	case 3:
		m.setMirroring(hw.HorzMirroring)
	}

	bank := int(m.prg & 0x0F)
	switch (m.control >> 2) & 0b11 {
	case 0, 1:
		m.selectPRG(0, bank&^1)
		m.selectPRG(1, bank|1)
	case 2:
		m.selectPRG(0, 0)
		m.selectPRG(1, bank)
	case 3:
		m.selectPRG(0, bank)
		m.selectPRG(1, -1)
	}

	if m.control&0x10 == 0 {
		m.selectCHR(0, int(m.chr0&^1))
		m.selectCHR(1, int(m.chr0|1))
	} else {
		m.selectCHR(0, int(m.chr0))
		m.selectCHR(1, int(m.chr1))
	}
}
