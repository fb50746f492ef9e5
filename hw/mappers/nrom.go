package mappers

import (
	"nescore/hw"
	"nescore/ines"
)

var NROM = MapperDesc{
	Name:        "NROM",
	Number:      0,
	New:         newNROM,
	PRGBankSize: 0x4000,
	CHRBankSize: 0x2000,
	MaxPRGPages: 2,
	MaxCHRPages: 1,
}

// nrom has no bank switching: NROM-128 mirrors its 16KiB at $C000.
type nrom struct {
	*base
}

func newNROM(desc MapperDesc, rom *ines.Rom) (hw.Mapper, error) {
	b, err := newBase(desc, rom)
	if err != nil {
		return nil, err
	}
	b.prgRAM = make([]byte, 0x2000)
	return &nrom{base: b}, nil
}
