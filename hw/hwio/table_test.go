package hwio_test

import (
	"bytes"
	"testing"

	"nescore/hw/hwio"
)

type testBus struct {
	t   testing.TB
	Bus *hwio.Table

	// $0000-$07FF mirrored up to $1FFF
	RAM hwio.Mem `hwio:"bank=0,offset=0x0,size=0x800,vsize=0x2000"`

	// $2000
	Reg0 hwio.Reg8 `hwio:"bank=1,offset=0x0,reset=0x77"`
	// $2001
	Reg1 hwio.Reg8 `hwio:"bank=1,offset=0x1,rwmask=0xF0,rcb,reset=0x99"`
	// $2002
	Reg2 hwio.Reg8 `hwio:"bank=1,offset=0x2,readonly,pcb=PeekStatus"`
	// $2003
	Reg3 hwio.Reg8 `hwio:"bank=1,offset=0x3,wcb"`

	// $4000-$40FF
	Plain hwio.Device `hwio:"bank=2,offset=0x0,size=0x100"`
	// $4100-$41FF
	DEV hwio.Device `hwio:"bank=2,offset=0x100,size=0x100,rcb,wcb"`
	// $4200-$42FF
	RoDEV hwio.Device `hwio:"bank=2,offset=0x200,size=0x100,rcb,pcb,readonly"`

	devval  uint8
	lastOld uint8
}

func newTestBus(tb testing.TB) *testBus {
	b := &testBus{t: tb}
	hwio.MustInitRegs(b)

	b.Bus = hwio.NewTable("bus")
	b.Bus.Unmapped = hwio.OpenBus(0xD3)
	b.Bus.MapBank(0x0000, b, 0)
	b.Bus.MapBank(0x2000, b, 1)
	b.Bus.MapBank(0x4000, b, 2)
	return b
}

func (b *testBus) ReadREG1(val uint8) uint8        { return val + 1 }
func (b *testBus) PeekStatus(val uint8) uint8      { return 0x12 }
func (b *testBus) WriteREG3(old, val uint8)        { b.lastOld = old }
func (b *testBus) ReadDEV(addr uint16) uint8       { return 0xE1 }
func (b *testBus) WriteDEV(addr uint16, val uint8) { b.devval = uint8(addr) & val }
func (b *testBus) ReadRODEV(addr uint16) uint8     { return 0xC5 }
func (b *testBus) PeekRODEV(addr uint16) uint8     { return 0xC8 }

func (b *testBus) wantRead8(addr uint16, want uint8) {
	b.t.Helper()
	if got := b.Bus.Read8(addr, false); got != want {
		b.t.Errorf("Read8(%04X) = %02X, want %02X", addr, got, want)
	}
}

func (b *testBus) wantPeek8(addr uint16, want uint8) {
	b.t.Helper()
	if got := b.Bus.Peek8(addr); got != want {
		b.t.Errorf("Peek8(%04X) = %02X, want %02X", addr, got, want)
	}
}

func TestTableMem(t *testing.T) {
	b := newTestBus(t)

	b.wantRead8(0x00, 0)
	b.Bus.Write8(0x00, 0x12)
	b.wantRead8(0x00, 0x12)
	b.wantRead8(0x800, 0x12)
	b.wantRead8(0x1800, 0x12)

	b.Bus.Write8(0x1FFF, 0x34)
	b.wantRead8(0x07FF, 0x34)
}

func TestTableRegs(t *testing.T) {
	b := newTestBus(t)

	b.wantRead8(0x2000, 0x77)

	b.wantRead8(0x2001, 0x9a)
	b.Bus.Write8(0x2001, 0xff)
	b.wantRead8(0x2001, 0xfa)
	b.Bus.Write8(0x2001, 0x0F)
	b.wantRead8(0x2001, 0x0a)

	b.wantRead8(0x2002, 0x00)
	b.wantPeek8(0x2002, 0x12)
	b.Bus.Write8(0x2002, 0x9b)
	b.wantRead8(0x2002, 0x00)

	b.Bus.Write8(0x2003, 0x01)
	b.Bus.Write8(0x2003, 0x02)
	if b.lastOld != 0x01 {
		t.Errorf("write callback old value = %02x, want 01", b.lastOld)
	}
}

func TestTableDevice(t *testing.T) {
	b := newTestBus(t)

	b.Bus.Write8(0x4000, 0xff)
	b.wantRead8(0x4000, 0x00)

	b.wantRead8(0x4100, 0xe1)
	b.wantPeek8(0x4100, 0x00)
	b.Bus.Write8(0x4120, 0x27)
	if b.devval != 0x20 {
		t.Errorf("devval = %02X, want 20", b.devval)
	}

	b.wantRead8(0x4200, 0xc5)
	b.wantPeek8(0x4200, 0xc8)
	b.Bus.Write8(0x4200, 0xff)
	if b.devval != 0x20 {
		t.Errorf("devval = %02X after readonly write, want 20", b.devval)
	}
}

func TestTableUnmapped(t *testing.T) {
	b := newTestBus(t)
	b.wantRead8(0x2020, 0xd3)
	b.wantPeek8(0x5000, 0xd3)
}

func TestTableMapSlice(t *testing.T) {
	b := newTestBus(t)

	rom := bytes.Repeat([]byte{0x12, 0x34}, 0x100)
	b.Bus.MapSlice(0x8000, 0xBFFF, rom, true)

	b.wantRead8(0x8000, 0x12)
	b.wantRead8(0x8001, 0x34)
	b.wantRead8(0x8200, 0x12)
	b.wantRead8(0xBFFF, 0x34)
	b.wantRead8(0xC000, 0xd3)

	b.Bus.Write8(0x8000, 0xAA)
	b.wantRead8(0x8000, 0x12)
}

func TestTableUnmap(t *testing.T) {
	t.Run("bank", func(t *testing.T) {
		b := newTestBus(t)
		b.Bus.UnmapBank(0x2000, b, 1)
		b.wantRead8(0x2001, 0xd3)
		b.wantRead8(0x0000, 0x00)
	})
	t.Run("partial", func(t *testing.T) {
		b := newTestBus(t)
		b.Bus.Write8(0x40, 0x12)
		b.Bus.Unmap(0x0000, 0x003F)
		b.wantRead8(0x00, 0xd3)
		b.wantRead8(0x40, 0x12)
	})
	t.Run("remap", func(t *testing.T) {
		b := newTestBus(t)
		b.Bus.Unmap(0x4100, 0x41FF)
		b.Bus.MapSlice(0x4100, 0x41FF, make([]byte, 0x100), false)
		b.Bus.Write8(0x4105, 0x55)
		b.wantRead8(0x4105, 0x55)
	})
}

func TestTableDoubleMapPanics(t *testing.T) {
	b := newTestBus(t)
	defer func() {
		if recover() == nil {
			t.Errorf("mapping over an existing range did not panic")
		}
	}()
	b.Bus.MapSlice(0x2000, 0x2000, make([]byte, 1), false)
}

func TestHelpers16(t *testing.T) {
	b := newTestBus(t)
	hwio.Write16(b.Bus, 0x0003, 0xBEEF)
	b.wantRead8(0x0003, 0xEF)
	b.wantRead8(0x0004, 0xBE)
	if got := hwio.Read16(b.Bus, 0x0003); got != 0xBEEF {
		t.Errorf("Read16 = %04x, want BEEF", got)
	}
}

func TestInitRegsErrors(t *testing.T) {
	type missingCb struct {
		R hwio.Reg8 `hwio:"offset=0,rcb"`
	}
	type badOpt struct {
		R hwio.Reg8 `hwio:"offset=0,bogus"`
	}
	type badSize struct {
		M hwio.Mem `hwio:"offset=0"`
	}

	for name, v := range map[string]any{
		"missing callback": &missingCb{},
		"unknown option":   &badOpt{},
		"mem without size": &badSize{},
		"not a pointer":    badOpt{},
	} {
		if err := hwio.InitRegs(v); err == nil {
			t.Errorf("%s: InitRegs succeeded, want error", name)
		}
	}
}
