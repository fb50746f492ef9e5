package mappers

import (
	"fmt"

	"nescore/emu/log"
	"nescore/hw"
	"nescore/ines"
)

var modMapper = log.ModMapper

type MapperDesc struct {
	Name   string
	Number uint8
	New    func(MapperDesc, *ines.Rom) (hw.Mapper, error)

	PRGBankSize int
	CHRBankSize int

	// Maximum number of 16KiB PRG pages and 8KiB CHR pages.
	MaxPRGPages int
	MaxCHRPages int
}

var All = map[uint8]MapperDesc{
	0:  NROM,
	1:  MMC1,
	2:  UxROM,
	3:  CNROM,
	7:  AxROM,
	66: GxROM,
}

// Load validates the cartridge image and builds the mapper it declares.
func Load(rom *ines.Rom) (hw.Mapper, error) {
	if err := rom.Validate(); err != nil {
		return nil, err
	}
	desc, ok := All[rom.Mapper()]
	if !ok {
		return nil, fmt.Errorf("%w: mapper %d", ines.ErrUnsupportedFormat, rom.Mapper())
	}
	m, err := desc.New(desc, rom)
	if err != nil {
		return nil, fmt.Errorf("mapper %s: %w", desc.Name, err)
	}

	modMapper.InfoZ("mapper loaded").
		String("name", desc.Name).
		Int("prg", len(rom.PRG)).
		Int("chr", len(rom.CHR)).
		Stringer("mirroring", m.Mirroring()).
		End()
	return m, nil
}
