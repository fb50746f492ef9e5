package hw

import (
	"testing"

	"nescore/hw/hwio"
)

// testMapper is an NROM-like cartridge with 8KiB of CHR RAM.
type testMapper struct {
	prg       [0x8000]byte
	chr       [0x2000]byte
	mirroring Mirroring
}

func (m *testMapper) Name() string { return "test" }
func (m *testMapper) TranslateCPU(addr uint16) (BankAddr, bool) {
	if addr < 0x8000 {
		return BankAddr{}, false
	}
	return BankAddr{Bank: 0, Offset: addr & 0x7FFF}, true
}
func (m *testMapper) TranslatePPU(addr uint16) BankAddr {
	return BankAddr{Bank: 0, Offset: addr & 0x1FFF}
}
func (m *testMapper) NametableAddress(addr uint16) uint16 {
	return m.mirroring.NametableAddress(addr)
}
func (m *testMapper) ReadCPU(addr uint16) (uint8, bool) {
	if addr < 0x8000 {
		return 0, false
	}
	return m.prg[addr&0x7FFF], true
}
func (m *testMapper) WriteCPU(addr uint16, val uint8) {}
func (m *testMapper) ReadPPU(addr uint16) uint8       { return m.chr[addr&0x1FFF] }
func (m *testMapper) WritePPU(addr uint16, val uint8) { m.chr[addr&0x1FFF] = val }
func (m *testMapper) Mirroring() Mirroring            { return m.mirroring }

// newTestPPU returns a PPU whose registers are mapped on a CPU bus.
func newTestPPU(mirroring Mirroring) (*PPU, *hwio.Table) {
	ppu := NewPPU()
	ppu.InitBus(&testMapper{mirroring: mirroring})
	ppu.Reset()
	cpubus := hwio.NewTable("cpu")
	ppu.MapRegisters(cpubus)
	return ppu, cpubus
}

// tickUntil runs the PPU until it has processed the dot at the given frame
// tick (scanline*341 + dot) of the current frame.
func tickUntil(ppu *PPU, tick int) {
	for ppu.FrameTick() != tick+1 {
		ppu.Tick()
	}
}

func setVRAMAddr(cpubus *hwio.Table, addr uint16) {
	cpubus.Write8(0x2006, uint8(addr>>8))
	cpubus.Write8(0x2006, uint8(addr))
}

func TestPPUScroll(t *testing.T) {
	ppu, cpu := newTestPPU(HorzMirroring)
	ppu.t = 0x7FFF

	// Write to PPUCTRL
	cpu.Write8(0x2000, 0)
	if got := ppu.t & (ntXMask | ntYMask); got != 0 {
		t.Errorf("t nametable = 0b%02b, want 0b00", got>>10)
	}

	// Read from PPUSTATUS
	_ = cpu.Read8(0x2002, false)
	if ppu.w {
		t.Errorf("w = %t, want false", ppu.w)
	}

	// First write to PPUSCROLL
	cpu.Write8(0x2005, 0b01111_101)
	if got := ppu.t.coarseX(); got != 0b01111 {
		t.Errorf("t.coarseX = 0b%08b, want 0b01111", got)
	}
	if ppu.x != 0b101 {
		t.Errorf("x = 0b%08b, want 0b101", ppu.x)
	}
	if !ppu.w {
		t.Errorf("w = %t, want true", ppu.w)
	}

	// Second write to PPUSCROLL
	cpu.Write8(0x2005, 0b01_011_110)
	if got := ppu.t.coarseY(); got != 0b01011 {
		t.Errorf("t.coarseY = 0b%08b, want 0b01011", got)
	}
	if got := ppu.t.fineY(); got != 0b110 {
		t.Errorf("t.fineY = 0b%08b, want 0b110", got)
	}
	if ppu.w {
		t.Errorf("w = %t, want false", ppu.w)
	}

	// First write to PPUADDR, bit 14 of t gets set to zero.
	cpu.Write8(0x2006, 0b00_111101)
	if ppu.t != 0b0111101_01101111 {
		t.Errorf("t = %015b, want 0b0111101_01101111", ppu.t)
	}

	// Second write to PPUADDR, t is copied into v.
	cpu.Write8(0x2006, 0b11110000)
	if ppu.t != 0b0111101_11110000 {
		t.Errorf("t = %015b, want 0b0111101_11110000", ppu.t)
	}
	if ppu.t != ppu.v {
		t.Errorf("v = %015b, want %015b", ppu.v, ppu.t)
	}
}

func TestLoopyIncrements(t *testing.T) {
	tests := []struct {
		name string
		v    loopy
		f    func(*loopy)
		want loopy
	}{
		{"incrementX", 0x0005, (*loopy).incrementX, 0x0006},
		{"incrementX wrap", 0x001F, (*loopy).incrementX, 0x0400},
		{"incrementX wrap nt1", 0x041F, (*loopy).incrementX, 0x0000},
		{"incrementY fine", 0x1000, (*loopy).incrementY, 0x2000},
		{"incrementY coarse", 0x7000, (*loopy).incrementY, 0x0020},
		{"incrementY row 29", 0x7000 | 29<<5, (*loopy).incrementY, 0x0800},
		{"incrementY row 31", 0x7000 | 31<<5, (*loopy).incrementY, 0x0000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.v
			tt.f(&v)
			if v != tt.want {
				t.Errorf("got %04X, want %04X", uint16(v), uint16(tt.want))
			}
		})
	}
}

func TestPPUDATABufferedReads(t *testing.T) {
	ppu, cpu := newTestPPU(VertMirroring)

	setVRAMAddr(cpu, 0x2400)
	for _, b := range []byte{0x11, 0x22, 0x33} {
		cpu.Write8(0x2007, b)
	}
	// $2C00 mirrors $2400 with vertical mirroring.
	if got := ppu.Bus.Peek8(0x2C01); got != 0x22 {
		t.Errorf("$2C01 = %02X, want 22", got)
	}

	setVRAMAddr(cpu, 0x2400)
	if got := cpu.Read8(0x2007, false); got != 0x00 {
		t.Errorf("first read = %02X, want the stale buffer (00)", got)
	}
	for _, want := range []byte{0x11, 0x22, 0x33} {
		if got := cpu.Read8(0x2007, false); got != want {
			t.Errorf("read = %02X, want %02X", got, want)
		}
	}

	// VRAM increment of 32.
	cpu.Write8(0x2000, 1<<vramIncr)
	setVRAMAddr(cpu, 0x2000)
	cpu.Write8(0x2007, 0xAA)
	cpu.Write8(0x2007, 0xBB)
	if got := ppu.Bus.Peek8(0x2020); got != 0xBB {
		t.Errorf("$2020 = %02X, want BB", got)
	}

	// Palette reads are immediate and fill the buffer with the nametable
	// byte underneath.
	cpu.Write8(0x2000, 0)
	setVRAMAddr(cpu, 0x2F00)
	cpu.Write8(0x2007, 0x5A)
	setVRAMAddr(cpu, 0x3F00)
	cpu.Write8(0x2007, 0x2C)
	setVRAMAddr(cpu, 0x3F00)
	if got := cpu.Read8(0x2007, false) & 0x3F; got != 0x2C {
		t.Errorf("palette read = %02X, want 2C", got)
	}
	if ppu.readBuf != 0x5A {
		t.Errorf("read buffer = %02X, want 5A", ppu.readBuf)
	}
}

func TestPaletteMirroring(t *testing.T) {
	ppu, cpu := newTestPPU(HorzMirroring)

	setVRAMAddr(cpu, 0x3F10)
	cpu.Write8(0x2007, 0x21)
	setVRAMAddr(cpu, 0x3F14)
	cpu.Write8(0x2007, 0x22)
	setVRAMAddr(cpu, 0x3F05)
	cpu.Write8(0x2007, 0xFF) // only 6 bits are stored

	tests := []struct {
		addr uint16
		want uint8
	}{
		{0x3F00, 0x21},
		{0x3F10, 0x21},
		{0x3F04, 0x22},
		{0x3F05, 0x3F},
		{0x3F25, 0x3F},
		{0x3FE0, 0x21},
		{0x3F15, 0x00},
	}
	for _, tt := range tests {
		if got := ppu.Bus.Peek8(tt.addr); got != tt.want {
			t.Errorf("$%04X = %02X, want %02X", tt.addr, got, tt.want)
		}
	}
}

func TestOAMRegisters(t *testing.T) {
	ppu, cpu := newTestPPU(HorzMirroring)

	cpu.Write8(0x2003, 0x10)
	for _, b := range []byte{0x20, 0x01, 0xFF, 0x30} {
		cpu.Write8(0x2004, b)
	}
	if ppu.OAMADDR.Value != 0x14 {
		t.Errorf("OAMADDR = %02X, want 14", ppu.OAMADDR.Value)
	}

	cpu.Write8(0x2003, 0x12)
	// Bits 2-4 of the attribute byte don't exist. Reads don't increment.
	for range 2 {
		if got := cpu.Read8(0x2004, false); got != 0xE3 {
			t.Errorf("OAMDATA = %02X, want E3", got)
		}
	}
}

func TestOpenBus(t *testing.T) {
	ppu, cpu := newTestPPU(HorzMirroring)

	cpu.Write8(0x2001, 0x00)
	cpu.Write8(0x2000, 0x1F)
	if got := cpu.Read8(0x2005, false); got != 0x1F {
		t.Errorf("write-only register read = %02X, want the latch (1F)", got)
	}
	// Status bits 0-4 come from the latch.
	if got := cpu.Read8(0x2002, false); got != 0x1F {
		t.Errorf("PPUSTATUS = %02X, want 1F", got)
	}

	// The latch decays after about a frame.
	for range openBusDecayCycles + 1 {
		ppu.Tick()
	}
	if got := cpu.Read8(0x2000, false); got != 0 {
		t.Errorf("latch = %02X after decay, want 00", got)
	}
}

func TestVBlankAndNMI(t *testing.T) {
	ppu, cpu := newTestPPU(HorzMirroring)
	cpu.Write8(0x2000, 1<<nmi)

	vblankStart := 241*NumCycles + 1
	tickUntil(ppu, vblankStart-1)
	if ppu.PollNMI() || ppu.PPUSTATUS.Value&(1<<vblank) != 0 {
		t.Fatalf("vblank before (241,1)")
	}
	ppu.Tick()
	if !ppu.PollNMI() {
		t.Errorf("no NMI at vblank start")
	}
	if ppu.PollNMI() {
		t.Errorf("NMI edge should be reported once")
	}
	if !ppu.FrameReady() {
		t.Errorf("frame should be ready at vblank start")
	}

	// Toggling NMI enable during vblank triggers another NMI.
	cpu.Write8(0x2000, 0)
	cpu.Write8(0x2000, 1<<nmi)
	if !ppu.PollNMI() {
		t.Errorf("no NMI when enabling NMI during vblank")
	}

	if got := cpu.Read8(0x2002, false); got&0x80 == 0 {
		t.Errorf("PPUSTATUS = %02X, want vblank set", got)
	}
	if got := cpu.Read8(0x2002, false); got&0x80 != 0 {
		t.Errorf("PPUSTATUS = %02X, reading should clear vblank", got)
	}

	// Cleared at dot 1 of the pre-render line.
	ppu.PPUSTATUS.Value |= 1<<vblank | 1<<spriteOverflow | 1<<sprite0Hit
	tickUntil(ppu, 261*NumCycles)
	if st := ppu.PPUSTATUS.Value; st&(1<<sprite0Hit) != 0 || st&(1<<vblank) == 0 {
		t.Errorf("after (261,0) PPUSTATUS = %08b, want sprite 0 hit cleared only", st)
	}
	ppu.Tick()
	if st := ppu.PPUSTATUS.Value; st != 0 {
		t.Errorf("after (261,1) PPUSTATUS = %08b, want 0", st)
	}
}

func TestStatusReadRace(t *testing.T) {
	// (241,0) is frame tick 82181, the last dot before the vblank flag is
	// set.
	const raceTick = 241 * NumCycles

	tests := []struct {
		name       string
		readAfter  int
		wantNMI    bool
		wantVBlank bool // vblank flag seen by the read
	}{
		{"before", raceTick - 1, true, false},
		{"race", raceTick, false, false},
		{"after", raceTick + 1, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ppu, cpu := newTestPPU(HorzMirroring)
			cpu.Write8(0x2000, 1<<nmi)

			tickUntil(ppu, tt.readAfter)
			st := cpu.Read8(0x2002, false)
			if got := st&0x80 != 0; got != tt.wantVBlank {
				t.Errorf("read vblank = %t, want %t", got, tt.wantVBlank)
			}

			nmi := false
			tickUntil(ppu, 260*NumCycles)
			for ppu.FrameTick() != 0 {
				nmi = ppu.PollNMI() || nmi
				ppu.Tick()
			}
			nmi = ppu.PollNMI() || nmi
			if nmi != tt.wantNMI {
				t.Errorf("NMI = %t, want %t", nmi, tt.wantNMI)
			}
		})
	}
}

func TestOddFrameSkip(t *testing.T) {
	frameLen := func(ppu *PPU) int {
		n := 0
		start := ppu.FrameCount
		for ppu.FrameCount == start {
			ppu.Tick()
			n++
		}
		return n
	}

	t.Run("rendering", func(t *testing.T) {
		ppu, cpu := newTestPPU(HorzMirroring)
		cpu.Write8(0x2001, 1<<showBg)
		for i, want := range []int{89342, 89341, 89342, 89341} {
			if got := frameLen(ppu); got != want {
				t.Errorf("frame %d: %d ticks, want %d", i, got, want)
			}
		}
	})
	t.Run("disabled", func(t *testing.T) {
		ppu, _ := newTestPPU(HorzMirroring)
		for i := range 3 {
			if got := frameLen(ppu); got != 89342 {
				t.Errorf("frame %d: %d ticks, want 89342", i, got)
			}
		}
	})
}

// setupSprite0 fills the nametables with an opaque tile and places sprite 0,
// made of the same tile, at (x, y).
func setupSprite0(x, y, mask uint8) (*PPU, *hwio.Table) {
	ppu, cpu := newTestPPU(HorzMirroring)
	mapper := ppu.mapper.(*testMapper)
	for i := range 8 {
		mapper.chr[16+i] = 0xFF // tile 1, plane 0
	}
	for i := range ppu.ciram {
		ppu.ciram[i] = 1
	}
	// Attribute tables select palette 0.
	for i := range 64 {
		ppu.ciram[0x3C0+i] = 0
		ppu.ciram[0x7C0+i] = 0
	}
	for i := 4; i < 256; i++ {
		ppu.OAM[i] = 0xFF // hide other sprites
	}
	ppu.OAM[0], ppu.OAM[1], ppu.OAM[2], ppu.OAM[3] = y, 1, 0, x
	cpu.Write8(0x2001, mask)
	return ppu, cpu
}

func TestSprite0Hit(t *testing.T) {
	const all = 1<<showBg | 1<<showSprites | 1<<leftmostBg | 1<<leftmostSprites

	t.Run("hit", func(t *testing.T) {
		// Sprite at OAM Y=30 is displayed from scanline 31.
		ppu, cpu := setupSprite0(100, 30, all)

		hitDot := 31*NumCycles + 101
		tickUntil(ppu, hitDot-1)
		if ppu.PPUSTATUS.Value&(1<<sprite0Hit) != 0 {
			t.Fatalf("sprite 0 hit before the first overlapping pixel")
		}
		ppu.Tick()
		if ppu.PPUSTATUS.Value&(1<<sprite0Hit) == 0 {
			t.Fatalf("no sprite 0 hit at (31,101)")
		}
		if cpu.Read8(0x2002, false)&0x40 == 0 {
			t.Errorf("sprite 0 hit not reported in PPUSTATUS")
		}

		// Reading status doesn't clear it, the pre-render line does.
		tickUntil(ppu, 261*NumCycles-1)
		if ppu.PPUSTATUS.Value&(1<<sprite0Hit) == 0 {
			t.Errorf("sprite 0 hit cleared before (261,0)")
		}
		ppu.Tick()
		if ppu.PPUSTATUS.Value&(1<<sprite0Hit) != 0 {
			t.Errorf("sprite 0 hit not cleared at (261,0)")
		}
	})

	tests := []struct {
		name string
		x    uint8
		mask uint8
	}{
		{"x=255", 255, all},
		{"left clipped", 0, 1<<showBg | 1<<showSprites},
		{"sprites hidden", 100, 1 << showBg},
		{"background hidden", 100, 1 << showSprites},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ppu, _ := setupSprite0(tt.x, 30, tt.mask)
			tickUntil(ppu, 240*NumCycles)
			if ppu.PPUSTATUS.Value&(1<<sprite0Hit) != 0 {
				t.Errorf("unexpected sprite 0 hit")
			}
		})
	}
}

func TestSpriteOverflow(t *testing.T) {
	ppu, _ := setupSprite0(0, 50, 1<<showSprites)
	for i := range 9 {
		ppu.OAM[i*4] = 50
		ppu.OAM[i*4+3] = uint8(i * 10)
	}
	tickUntil(ppu, 49*NumCycles+340)
	if ppu.PPUSTATUS.Value&(1<<spriteOverflow) != 0 {
		t.Fatalf("sprite overflow set too early")
	}
	tickUntil(ppu, 50*NumCycles+257)
	if ppu.PPUSTATUS.Value&(1<<spriteOverflow) == 0 {
		t.Errorf("sprite overflow not set with 9 sprites on a scanline")
	}
	if ppu.spriteCount != 8 {
		t.Errorf("sprite count = %d, want 8", ppu.spriteCount)
	}
}

func TestRenderedFrame(t *testing.T) {
	ppu, cpu := setupSprite0(100, 30, 1<<showBg|1<<showSprites|1<<leftmostBg|1<<leftmostSprites)
	setVRAMAddr(cpu, 0x3F00)
	for _, c := range []uint8{0x0F, 0x01, 0x02, 0x03} { // background palette 0
		cpu.Write8(0x2007, c)
	}
	setVRAMAddr(cpu, 0x3F10)
	for _, c := range []uint8{0x0F, 0x16, 0x17, 0x18} { // sprite palette 0
		cpu.Write8(0x2007, c)
	}
	// Greyscale off, emphasize red.
	cpu.Write8(0x2001, ppu.PPUMASK.Value|1<<emphasisShift)
	setVRAMAddr(cpu, 0)

	// Skip the first frame, scrolling registers are only valid after a
	// pre-render line.
	for !ppu.FrameReady() {
		ppu.Tick()
	}
	for !ppu.FrameReady() {
		ppu.Tick()
	}
	frame := ppu.Frame()

	const red = 1 << 6
	if got := frame[10*ScreenWidth+10]; got != 0x01|red {
		t.Errorf("background pixel = %03X, want %03X", got, 0x01|red)
	}
	if got := frame[31*ScreenWidth+100]; got != 0x16|red {
		t.Errorf("sprite pixel = %03X, want %03X", got, 0x16|red)
	}
}
