package mappers

import (
	"fmt"

	"nescore/hw"
	"nescore/nsf"
)

var NSF = MapperDesc{
	Name:        "NSF",
	PRGBankSize: 0x1000,
	CHRBankSize: 0x2000,
}

// Locations of the driver routines, in cartridge space below the bank
// registers.
const (
	NSFDriverInit = 0x5000 // JSR INIT
	NSFDriverIdle = 0x5003 // JMP *
	NSFDriverPlay = 0x5006 // JSR PLAY, then back to idle
)

// NSFMapper maps the program of an NSF file as 4KiB banks at $8000-$FFFF,
// switched by writing to $5FF8-$5FFF. It also provides 8KiB of work RAM at
// $6000 and a tiny driver calling the INIT and PLAY routines.
type NSFMapper struct {
	*base

	driver [12]byte
}

// NewNSF builds the mapper for an NSF file. Files that do not use banking are
// loaded linearly at their load address.
func NewNSF(f *nsf.File) (*NSFMapper, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var (
		image []byte
		banks [8]uint8
	)
	if f.UsesBanking {
		// Data is aligned on the load address within its bank.
		pad := int(f.LoadAddr & 0x0FFF)
		size := (pad + len(f.Data) + 0x0FFF) &^ 0x0FFF
		if size/0x1000 > 256 {
			return nil, fmt.Errorf("%w: %d banks", nsf.ErrUnsupportedFormat, size/0x1000)
		}
		image = make([]byte, size)
		copy(image[pad:], f.Data)
		banks = f.Banks
	} else {
		image = make([]byte, 0x8000)
		copy(image[f.LoadAddr-0x8000:], f.Data)
		banks = [8]uint8{0, 1, 2, 3, 4, 5, 6, 7}
	}

	b := &base{
		desc:      NSF,
		prg:       image,
		chr:       make([]byte, 0x2000),
		chrRAM:    true,
		prgRAM:    make([]byte, 0x2000),
		prgSlots:  make([]int, 8),
		chrSlots:  make([]int, 1),
		mirroring: hw.HorzMirroring,
	}
	for i, bank := range banks {
		b.selectPRG(i, int(bank))
	}

	m := &NSFMapper{base: b}
	m.driver = [12]byte{
		0x20, uint8(f.InitAddr), uint8(f.InitAddr >> 8), // JSR INIT
		0x4C, uint8(NSFDriverIdle & 0xFF), uint8(NSFDriverIdle >> 8), // JMP idle
		0x20, uint8(f.PlayAddr), uint8(f.PlayAddr >> 8), // JSR PLAY
		0x4C, uint8(NSFDriverIdle & 0xFF), uint8(NSFDriverIdle >> 8), // JMP idle
	}

	modMapper.InfoZ("NSF loaded").
		Bool("banking", f.UsesBanking).
		Int("banks", b.prgBanks()).
		Hex16("load", f.LoadAddr).
		End()
	return m, nil
}

func (m *NSFMapper) ReadCPU(addr uint16) (uint8, bool) {
	if addr >= NSFDriverInit && addr < NSFDriverInit+uint16(len(m.driver)) {
		return m.driver[addr-NSFDriverInit], true
	}
	return m.base.ReadCPU(addr)
}

func (m *NSFMapper) WriteCPU(addr uint16, val uint8) {
	if addr >= 0x5FF8 && addr <= 0x5FFF {
		slot := int(addr - 0x5FF8)
		m.selectPRG(slot, int(val))
		modMapper.DebugZ("NSF bank switch").
			Int("slot", slot).
			Int("bank", m.prgSlots[slot]).
			End()
		return
	}
	m.base.WriteCPU(addr, val)
}
