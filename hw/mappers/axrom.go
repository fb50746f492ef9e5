package mappers

import (
	"nescore/hw"
	"nescore/ines"
)

var AxROM = MapperDesc{
	Name:        "AxROM",
	Number:      7,
	New:         newAxROM,
	PRGBankSize: 0x8000,
	CHRBankSize: 0x2000,
	MaxPRGPages: 16,
	MaxCHRPages: 1,
}

type axrom struct {
	*base
}

func newAxROM(desc MapperDesc, rom *ines.Rom) (hw.Mapper, error) {
	b, err := newBase(desc, rom)
	if err != nil {
		return nil, err
	}
	b.mirroring = hw.OnlyAScreen
	return &axrom{base: b}, nil
}

func (m *axrom) WriteCPU(addr uint16, val uint8) {
	if addr < 0x8000 {
		m.base.WriteCPU(addr, val)
		return
	}

	// 7  bit  0
	// ---- ----
	// xxxM xPPP
	//    |  |||
	//    |  +++- Select 32 KB PRG ROM bank for CPU $8000-$FFFF
	//    +------ Select 1 KB VRAM page for all 4 nametables
	m.selectPRG(0, int(val&0x07))
	if val&0x10 != 0 {
		m.setMirroring(hw.OnlyBScreen)
	} else {
		m.setMirroring(hw.OnlyAScreen)
	}
}
