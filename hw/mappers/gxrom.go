package mappers

import (
	"nescore/hw"
	"nescore/ines"
)

var GxROM = MapperDesc{
	Name:        "GxROM",
	Number:      66,
	New:         newGxROM,
	PRGBankSize: 0x8000,
	CHRBankSize: 0x2000,
	MaxPRGPages: 8,
	MaxCHRPages: 4,
}

type gxrom struct {
	*base
}

func newGxROM(desc MapperDesc, rom *ines.Rom) (hw.Mapper, error) {
	b, err := newBase(desc, rom)
	if err != nil {
		return nil, err
	}
	return &gxrom{base: b}, nil
}

func (m *gxrom) WriteCPU(addr uint16, val uint8) {
	if addr < 0x8000 {
		m.base.WriteCPU(addr, val)
		return
	}

	// 7  bit  0
	// ---- ----
	// xxPP xxCC
	//   ||   ||
	//   ||   ++- Select 8 KB CHR ROM bank for PPU $0000-$1FFF
	//   ++------ Select 32 KB PRG ROM bank for CPU $8000-$FFFF
	val = m.busConflict(addr, val)
	m.selectPRG(0, int(val>>4&0b11))
	m.selectCHR(0, int(val&0b11))
}
