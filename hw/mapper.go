package hw

import "fmt"

// Mirroring is the arrangement of the 4 logical nametables over the 2 KiB of
// nametable RAM.
type Mirroring uint8

const (
	HorzMirroring Mirroring = iota // $2000=$2400, $2800=$2C00
	VertMirroring                  // $2000=$2800, $2400=$2C00
	OnlyAScreen                    // all nametables map to the first KiB
	OnlyBScreen                    // all nametables map to the second KiB
)

var mirroringNames = [...]string{"horizontal", "vertical", "single-screen A", "single-screen B"}

func (m Mirroring) String() string {
	if int(m) < len(mirroringNames) {
		return mirroringNames[m]
	}
	return fmt.Sprintf("Mirroring(%d)", m)
}

// NametableAddress maps a PPU address in $2000-$3EFF to an offset in the
// 2 KiB nametable RAM.
func (m Mirroring) NametableAddress(addr uint16) uint16 {
	addr = (addr - 0x2000) & 0x0FFF
	table, off := addr/0x400, addr%0x400
	switch m {
	case HorzMirroring:
		return (table/2)*0x400 + off
	case VertMirroring:
		return (table%2)*0x400 + off
	case OnlyBScreen:
		return 0x400 + off
	}
	return off
}

// BankAddr is a location within the PRG or CHR banks of a cartridge.
type BankAddr struct {
	Bank   int
	Offset uint16
}

func (ba BankAddr) String() string {
	return fmt.Sprintf("%d:%04X", ba.Bank, ba.Offset)
}

// A Mapper is the bank-switching hardware of a cartridge. It decodes CPU
// accesses from $4020 to $FFFF and the pattern tables of the PPU space.
type Mapper interface {
	Name() string

	// TranslateCPU returns the PRG bank location of a CPU address, ok is false
	// when addr isn't backed by PRG ROM.
	TranslateCPU(addr uint16) (ba BankAddr, ok bool)

	// TranslatePPU returns the CHR bank location of a PPU address in
	// $0000-$1FFF.
	TranslatePPU(addr uint16) BankAddr

	// NametableAddress maps a PPU address in $2000-$3EFF to an offset in
	// nametable RAM, according to the current mirroring.
	NametableAddress(addr uint16) uint16

	// ReadCPU reads cartridge space. ok is false for addresses the
	// cartridge does not drive (open bus).
	ReadCPU(addr uint16) (val uint8, ok bool)
	WriteCPU(addr uint16, val uint8)

	ReadPPU(addr uint16) uint8
	WritePPU(addr uint16, val uint8)

	Mirroring() Mirroring
}
