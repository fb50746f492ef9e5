package hwio

import (
	"fmt"

	"nescore/emu/log"
)

// BankIO8 is implemented by anything that can be mapped into a Table.
type BankIO8 interface {
	// Read8 reads a byte at addr. If peek is true the read has no side
	// effects (used by tracers and disassemblers).
	Read8(addr uint16, peek bool) uint8
	Write8(addr uint16, val uint8)
}

func Read16(b BankIO8, addr uint16) uint16 {
	lo := b.Read8(addr, false)
	hi := b.Read8(addr+1, false)
	return uint16(hi)<<8 | uint16(lo)
}

func Write16(b BankIO8, addr uint16, val uint16) {
	b.Write8(addr, uint8(val))
	b.Write8(addr+1, uint8(val>>8))
}

// Table is a 64KiB address decoder. Each address is bound to at most one
// BankIO8; accesses to unbound addresses are forwarded to Unmapped.
type Table struct {
	Name     string
	Unmapped BankIO8

	slots [0x10000]BankIO8
}

func NewTable(name string) *Table {
	return &Table{Name: name, Unmapped: OpenBus(0)}
}

// Reset unmaps everything.
func (t *Table) Reset() {
	clear(t.slots[:])
}

func (t *Table) mapRange(addr uint16, size int, io BankIO8, what string) {
	if size <= 0 || int(addr)+size > len(t.slots) {
		panic(fmt.Sprintf("hwio: %s: invalid range %04x+%x on bus %s", what, addr, size, t.Name))
	}
	for i := range size {
		a := int(addr) + i
		if t.slots[a] != nil {
			panic(fmt.Sprintf("hwio: %s: address %04x already mapped on bus %s", what, a, t.Name))
		}
		t.slots[a] = io
	}
	log.ModHwIo.DebugZ("mapped").
		String("bus", t.Name).
		String("what", what).
		Hex16("addr", addr).
		Int("size", size).
		End()
}

// MapBank maps all the fields of bank carrying a hwio struct tag with the given
// bank number. bank must be a pointer to a struct previously initialized with
// InitRegs.
func (t *Table) MapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}
	for _, reg := range regs {
		switch r := reg.ptr.(type) {
		case *Mem:
			t.MapMem(addr+reg.offset, r)
		case *Reg8:
			t.MapReg8(addr+reg.offset, r)
		case *Device:
			t.MapDevice(addr+reg.offset, r)
		default:
			panic(fmt.Errorf("hwio: invalid reg type: %T", r))
		}
	}
}

func (t *Table) UnmapBank(addr uint16, bank any, bankNum int) {
	regs, err := bankGetRegs(bank, bankNum)
	if err != nil {
		panic(err)
	}
	for _, reg := range regs {
		start := addr + reg.offset
		switch r := reg.ptr.(type) {
		case *Mem:
			t.Unmap(start, start+uint16(r.VSize-1))
		case *Reg8:
			t.Unmap(start, start)
		case *Device:
			t.Unmap(start, start+uint16(r.Size-1))
		}
	}
}

func (t *Table) MapReg8(addr uint16, r *Reg8) {
	t.mapRange(addr, 1, r, r.Name)
}

func (t *Table) MapDevice(addr uint16, d *Device) {
	t.mapRange(addr, d.Size, d, d.Name)
}

func (t *Table) MapMem(addr uint16, m *Mem) {
	vsize := m.VSize
	if vsize == 0 {
		vsize = len(m.Data)
	}
	t.mapRange(addr, vsize, m.BankIO8(addr), m.Name)
}

// MapSlice maps buf over [addr, end], mirroring it if the range is larger.
func (t *Table) MapSlice(addr, end uint16, buf []byte, readonly bool) {
	var flags MemFlags
	if readonly {
		flags = MemFlagReadOnly
	}
	t.MapMem(addr, &Mem{
		Name:  fmt.Sprintf("slice@%04x", addr),
		Data:  buf,
		VSize: int(end) - int(addr) + 1,
		Flags: flags,
	})
}

// Unmap removes any mapping in [begin, end].
func (t *Table) Unmap(begin, end uint16) {
	for a := int(begin); a <= int(end); a++ {
		t.slots[a] = nil
	}
}

func (t *Table) Read8(addr uint16, peek bool) uint8 {
	if io := t.slots[addr]; io != nil {
		return io.Read8(addr, peek)
	}
	return t.Unmapped.Read8(addr, peek)
}

func (t *Table) Peek8(addr uint16) uint8 {
	return t.Read8(addr, true)
}

func (t *Table) Write8(addr uint16, val uint8) {
	if io := t.slots[addr]; io != nil {
		io.Write8(addr, val)
		return
	}
	t.Unmapped.Write8(addr, val)
}

// OpenBus is a BankIO8 returning a fixed value on reads and ignoring writes.
type OpenBus uint8

func (ob OpenBus) Read8(uint16, bool) uint8 { return uint8(ob) }
func (ob OpenBus) Write8(uint16, uint8)     {}
