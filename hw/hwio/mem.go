package hwio

import "nescore/emu/log"

type MemFlags int

const (
	MemFlagReadWrite MemFlags = 0
	MemFlagReadOnly  MemFlags = 1 << (iota - 1)
	MemFlagNoROLog            // readonly, silently ignore writes
)

// Mem is a linear memory area. Data length must be a power of 2; when the
// mapped area (VSize) is larger, Data is mirrored over it.
type Mem struct {
	Name    string
	Data    []byte
	VSize   int
	Flags   MemFlags
	WriteCb func(addr uint16, val uint8) // called after each successful write
}

// BankIO8 returns an accessor for m mapped at base.
func (m *Mem) BankIO8(base uint16) BankIO8 {
	if len(m.Data) == 0 || len(m.Data)&(len(m.Data)-1) != 0 {
		panic("hwio: memory buffer size is not pow2: " + m.Name)
	}
	return &memIO{
		m:    m,
		base: base,
		mask: uint16(len(m.Data) - 1),
	}
}

type memIO struct {
	m    *Mem
	base uint16
	mask uint16
}

func (io *memIO) Read8(addr uint16, _ bool) uint8 {
	return io.m.Data[(addr-io.base)&io.mask]
}

func (io *memIO) Write8(addr uint16, val uint8) {
	switch io.m.Flags {
	case MemFlagReadOnly:
		log.ModHwIo.WarnZ("write to readonly memory").
			String("name", io.m.Name).
			Hex16("addr", addr).
			Hex8("val", val).
			End()
		return
	case MemFlagNoROLog:
		return
	}
	io.m.Data[(addr-io.base)&io.mask] = val
	if io.m.WriteCb != nil {
		io.m.WriteCb(addr, val)
	}
}
