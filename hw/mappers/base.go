package mappers

import (
	"fmt"

	"nescore/hw"
	"nescore/ines"
)

// base holds the banks of a cartridge and the bank currently selected in
// each slot of the CPU ($8000-$FFFF) and PPU ($0000-$1FFF) windows.
type base struct {
	desc MapperDesc

	prg    []byte
	chr    []byte
	chrRAM bool
	prgRAM []byte // 8KiB at $6000 if present

	prgSlots []int
	chrSlots []int

	mirroring hw.Mirroring
}

func newBase(desc MapperDesc, rom *ines.Rom) (*base, error) {
	if rom.Mapper() != desc.Number {
		return nil, fmt.Errorf("%w: mapper number is %d, want %d", ines.ErrUnsupportedFormat, rom.Mapper(), desc.Number)
	}
	if n := rom.PRGPages(); n > desc.MaxPRGPages {
		return nil, fmt.Errorf("%w: %d PRG pages, at most %d supported", ines.ErrUnsupportedFormat, n, desc.MaxPRGPages)
	}
	if n := rom.CHRPages(); n > desc.MaxCHRPages {
		return nil, fmt.Errorf("%w: %d CHR pages, at most %d supported", ines.ErrUnsupportedFormat, n, desc.MaxCHRPages)
	}
	if len(rom.PRG)%desc.PRGBankSize != 0 {
		return nil, fmt.Errorf("%w: PRG size %d is not a multiple of the %d bytes bank size", ines.ErrInvalidFormat, len(rom.PRG), desc.PRGBankSize)
	}
	if len(rom.CHR)%desc.CHRBankSize != 0 {
		return nil, fmt.Errorf("%w: CHR size %d is not a multiple of the %d bytes bank size", ines.ErrInvalidFormat, len(rom.CHR), desc.CHRBankSize)
	}

	b := &base{
		desc:     desc,
		prg:      rom.PRG,
		chr:      rom.CHR,
		prgSlots: make([]int, 0x8000/desc.PRGBankSize),
		chrSlots: make([]int, 0x2000/desc.CHRBankSize),
	}
	if len(b.chr) == 0 {
		b.chr = make([]byte, 0x2000)
		b.chrRAM = true
	}

	switch rom.Mirroring() {
	case ines.Horizontal:
		b.mirroring = hw.HorzMirroring
	case ines.Vertical:
		b.mirroring = hw.VertMirroring
	default:
		return nil, fmt.Errorf("%w: %s mirroring", ines.ErrUnsupportedFormat, rom.Mirroring())
	}

	// Default layout: consecutive banks, last PRG bank mirrored when the
	// cartridge is smaller than the window.
	for i := range b.prgSlots {
		b.selectPRG(i, i)
	}
	for i := range b.chrSlots {
		b.selectCHR(i, i)
	}
	return b, nil
}

func (b *base) Name() string { return b.desc.Name }

func (b *base) prgBanks() int { return len(b.prg) / b.desc.PRGBankSize }
func (b *base) chrBanks() int { return len(b.chr) / b.desc.CHRBankSize }

// selectPRG maps PRG bank in slot. Negative banks count from the last one.
func (b *base) selectPRG(slot, bank int) {
	b.prgSlots[slot] = wrapBank(bank, b.prgBanks())
}

func (b *base) selectCHR(slot, bank int) {
	b.chrSlots[slot] = wrapBank(bank, b.chrBanks())
}

func wrapBank(bank, count int) int {
	bank %= count
	if bank < 0 {
		bank += count
	}
	return bank
}

func (b *base) setMirroring(m hw.Mirroring) {
	if m != b.mirroring {
		modMapper.DebugZ("select NT mirroring").
			String("mapper", b.desc.Name).
			Stringer("prev", b.mirroring).
			Stringer("new", m).
			End()
	}
	b.mirroring = m
}

func (b *base) Mirroring() hw.Mirroring { return b.mirroring }

func (b *base) NametableAddress(addr uint16) uint16 {
	return b.mirroring.NametableAddress(addr)
}

func (b *base) TranslateCPU(addr uint16) (hw.BankAddr, bool) {
	if addr < 0x8000 {
		return hw.BankAddr{}, false
	}
	off := int(addr - 0x8000)
	size := b.desc.PRGBankSize
	return hw.BankAddr{Bank: b.prgSlots[off/size], Offset: uint16(off % size)}, true
}

func (b *base) TranslatePPU(addr uint16) hw.BankAddr {
	off := int(addr & 0x1FFF)
	size := b.desc.CHRBankSize
	return hw.BankAddr{Bank: b.chrSlots[off/size], Offset: uint16(off % size)}
}

func (b *base) readPRG(addr uint16) uint8 {
	ba, _ := b.TranslateCPU(addr)
	return b.prg[ba.Bank*b.desc.PRGBankSize+int(ba.Offset)]
}

func (b *base) ReadCPU(addr uint16) (uint8, bool) {
	switch {
	case addr >= 0x8000:
		return b.readPRG(addr), true
	case addr >= 0x6000 && b.prgRAM != nil:
		return b.prgRAM[addr-0x6000], true
	}
	return 0, false
}

// WriteCPU only handles PRG RAM, mappers with registers override it.
func (b *base) WriteCPU(addr uint16, val uint8) {
	if addr >= 0x6000 && addr < 0x8000 && b.prgRAM != nil {
		b.prgRAM[addr-0x6000] = val
		return
	}
	modMapper.DebugZ("ignored write").
		String("mapper", b.desc.Name).
		Hex16("addr", addr).
		Hex8("val", val).
		End()
}

// busConflict returns the value seen by the mapper when the CPU writes val
// to PRG ROM: ROM drives the bus at the same time.
func (b *base) busConflict(addr uint16, val uint8) uint8 {
	return val & b.readPRG(addr)
}

func (b *base) ReadPPU(addr uint16) uint8 {
	ba := b.TranslatePPU(addr)
	return b.chr[ba.Bank*b.desc.CHRBankSize+int(ba.Offset)]
}

// WritePPU writes to CHR RAM, CHR ROM is read-only.
func (b *base) WritePPU(addr uint16, val uint8) {
	if !b.chrRAM {
		return
	}
	ba := b.TranslatePPU(addr)
	b.chr[ba.Bank*b.desc.CHRBankSize+int(ba.Offset)] = val
}
