package mappers

import (
	"nescore/hw"
	"nescore/ines"
)

var UxROM = MapperDesc{
	Name:        "UxROM",
	Number:      2,
	New:         newUxROM,
	PRGBankSize: 0x4000,
	CHRBankSize: 0x2000,
	MaxPRGPages: 16,
	MaxCHRPages: 1,
}

type uxrom struct {
	*base
}

func newUxROM(desc MapperDesc, rom *ines.Rom) (hw.Mapper, error) {
	b, err := newBase(desc, rom)
	if err != nil {
		return nil, err
	}
	b.selectPRG(0, 0)
	b.selectPRG(1, -1)
	return &uxrom{base: b}, nil
}

func (m *uxrom) WriteCPU(addr uint16, val uint8) {
	if addr < 0x8000 {
		m.base.WriteCPU(addr, val)
		return
	}

	// 7  bit  0
	// ---- ----
	// xxxx pPPP
	//      ||||
	//      ++++- Select 16 KB PRG ROM bank for CPU $8000-$BFFF
	//            (UNROM uses bits 2-0; UOROM uses bits 3-0)
	val = m.busConflict(addr, val)
	m.selectPRG(0, int(val&0x0F))
	modMapper.DebugZ("PRG bank switch").
		String("mapper", m.desc.Name).
		Int("bank", m.prgSlots[0]).
		End()
}
