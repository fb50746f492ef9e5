package mappers

import (
	"nescore/hw"
	"nescore/ines"
)

var CNROM = MapperDesc{
	Name:        "CNROM",
	Number:      3,
	New:         newCNROM,
	PRGBankSize: 0x4000,
	CHRBankSize: 0x2000,
	MaxPRGPages: 2,
	MaxCHRPages: 4,
}

type cnrom struct {
	*base
}

func newCNROM(desc MapperDesc, rom *ines.Rom) (hw.Mapper, error) {
	b, err := newBase(desc, rom)
	if err != nil {
		return nil, err
	}
	return &cnrom{base: b}, nil
}

func (m *cnrom) WriteCPU(addr uint16, val uint8) {
	if addr < 0x8000 {
		m.base.WriteCPU(addr, val)
		return
	}

	// 7  bit  0
	// ---- ----
	// cccc ccCC
	// |||| ||||
	// ++++-++++- Select 8 KB CHR ROM bank for PPU $0000-$1FFF
	// CNROM only uses lowest 2 bits
	val = m.busConflict(addr, val)
	prev := m.chrSlots[0]
	m.selectCHR(0, int(val&0b11))
	if prev != m.chrSlots[0] {
		modMapper.DebugZ("CHR bank switch").
			String("mapper", m.desc.Name).
			Int("prev", prev).
			Int("new", m.chrSlots[0]).
			End()
	}
}
