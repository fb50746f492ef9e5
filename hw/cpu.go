package hw

import (
	"io"

	"nescore/emu/log"
	"nescore/hw/hwio"
)

// Locations reserved for vector pointers.
const (
	NMIVector   = uint16(0xFFFA) // Non-Maskable Interrupt
	ResetVector = uint16(0xFFFC) // Reset
	IRQVector   = uint16(0xFFFE) // Interrupt Request
)

// Cycles taken by the reset sequence and by interrupts.
const (
	resetCycles     = 7
	interruptCycles = 7
)

// IRQSource identifies a device holding the IRQ line.
type IRQSource uint8

const (
	IRQExternal IRQSource = 1 << iota // cartridge
	IRQFrameCounter
	IRQDMC
)

// CPU is a 6502 core without decimal mode. Each instruction is executed as a
// whole on the first cycle it occupies, then the following Tick calls only
// drain the cycles it costs.
type CPU struct {
	Bus hwio.BankIO8

	A, X, Y, SP uint8
	PC          uint16
	P           P

	Cycles int64 // elapsed cycles

	remaining int // cycles left before the next instruction
	extra     int // cycles added by the current instruction (branches)

	nmiPending bool
	irqLines   IRQSource
	halted     bool

	// Non-nil when execution tracing is enabled.
	tracer *tracer

	// CDL, when non-nil, records the address of every executed opcode.
	CDL *hwio.Bitset
}

// NewCPU returns a CPU wired to bus. PowerUp must be called before Tick.
func NewCPU(bus hwio.BankIO8) *CPU {
	return &CPU{Bus: bus}
}

// PowerUp puts the CPU in its power-on state and runs the reset sequence.
func (c *CPU) PowerUp() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFD
	c.P = Unused | IntDisable
	c.irqLines = 0
	c.Cycles = 0
	c.reset()
}

// Reset performs a soft reset, as the console reset button does.
func (c *CPU) Reset() {
	c.SP -= 3
	c.P.set(IntDisable, true)
	c.reset()
}

func (c *CPU) reset() {
	c.nmiPending = false
	c.halted = false
	c.PC = hwio.Read16(c.Bus, ResetVector)
	c.remaining = resetCycles

	log.ModCPU.InfoZ("reset").Hex16("pc", c.PC).End()
}

// Tick advances the CPU by one cycle.
func (c *CPU) Tick() {
	if c.remaining == 0 {
		c.remaining = c.begin()
	}
	c.remaining--
	c.Cycles++
}

// Step runs the CPU up to the next instruction boundary and returns the number
// of cycles it took.
func (c *CPU) Step() int {
	n := 0
	for {
		c.Tick()
		n++
		if c.remaining == 0 {
			return n
		}
	}
}

// AtBoundary reports whether the next Tick starts a new instruction (or an
// interrupt sequence).
func (c *CPU) AtBoundary() bool {
	return c.remaining == 0
}

// Stall suspends instruction execution for n cycles, as DMA transfers do.
func (c *CPU) Stall(n int) {
	c.remaining += n
}

// NextBoundary returns the cycle at which the next instruction begins.
func (c *CPU) NextBoundary() int64 {
	return c.Cycles + int64(c.remaining)
}

func (c *CPU) IsHalted() bool {
	return c.halted
}

// SetNMI signals a falling edge on the NMI line. The interrupt is serviced at
// the next instruction boundary.
func (c *CPU) SetNMI() {
	c.nmiPending = true
}

func (c *CPU) SetIRQ(src IRQSource)   { c.irqLines |= src }
func (c *CPU) ClearIRQ(src IRQSource) { c.irqLines &^= src }

// begin starts the next instruction or interrupt sequence and returns the
// number of cycles it takes.
func (c *CPU) begin() int {
	switch {
	case c.halted:
		return 1
	case c.nmiPending:
		c.nmiPending = false
		c.interrupt(NMIVector)
		return interruptCycles
	case c.irqLines != 0 && !c.P.has(IntDisable):
		c.interrupt(IRQVector)
		return interruptCycles
	}
	return c.execute()
}

func (c *CPU) execute() int {
	pc := c.PC
	if c.tracer != nil {
		c.traceOp()
	}
	if c.CDL != nil {
		c.CDL.Set(pc)
	}

	op := &opcodes[c.read8(pc)]
	addr, crossed := c.resolve(op.Mode, pc)
	c.PC = pc + uint16(op.Size)
	c.extra = 0
	ops[op.Kind](c, addr, op.Mode)

	cycles := int(op.Cycles) + c.extra
	if crossed && op.PageCycle {
		cycles++
	}
	return cycles
}

// interrupt runs the NMI/IRQ sequence.
func (c *CPU) interrupt(vector uint16) {
	c.push16(c.PC)
	c.push8(c.P.pushed(false))
	c.P.set(IntDisable, true)
	prevpc := c.PC
	c.PC = c.read16(vector)

	log.ModCPU.DebugZ("interrupt").
		Hex16("from", prevpc).
		Hex16("to", c.PC).
		Bool("nmi", vector == NMIVector).
		End()
}

func (c *CPU) halt() {
	c.halted = true
	log.ModCPU.WarnZ("CPU halted").
		Hex16("pc", c.PC-1).
		Int64("cycles", c.Cycles).
		End()
}

func (c *CPU) read8(addr uint16) uint8 {
	return c.Bus.Read8(addr, false)
}

func (c *CPU) write8(addr uint16, val uint8) {
	c.Bus.Write8(addr, val)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := c.read8(addr)
	hi := c.read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// read16wrap reads a 16-bit pointer whose high byte is fetched from the same
// page as the low byte.
func (c *CPU) read16wrap(addr uint16) uint16 {
	lo := c.read8(addr)
	hi := c.read8(addr&0xFF00 | uint16(uint8(addr)+1))
	return uint16(hi)<<8 | uint16(lo)
}

/* stack operations */

func (c *CPU) push8(val uint8) {
	c.write8(0x0100|uint16(c.SP), val)
	c.SP--
}

func (c *CPU) push16(val uint16) {
	c.push8(uint8(val >> 8))
	c.push8(uint8(val))
}

func (c *CPU) pull8() uint8 {
	c.SP++
	return c.read8(0x0100 | uint16(c.SP))
}

func (c *CPU) pull16() uint16 {
	lo := c.pull8()
	hi := c.pull8()
	return uint16(hi)<<8 | uint16(lo)
}

/* introspection */

// State is a snapshot of the CPU registers.
type State struct {
	PC         uint16
	SP         uint8
	A, X, Y    uint8
	P          uint8
	Cycles     int64
	Halted     bool
	NMIPending bool
}

func (c *CPU) State() State {
	return State{
		PC:         c.PC,
		SP:         c.SP,
		A:          c.A,
		X:          c.X,
		Y:          c.Y,
		P:          uint8(c.P | Unused),
		Cycles:     c.Cycles,
		Halted:     c.halted,
		NMIPending: c.nmiPending,
	}
}

// AddLogContext adds the program counter and cycle count to log entries.
func (c *CPU) AddLogContext(z *log.EntryZ) {
	z.Hex16("pc", c.PC).Int64("cycles", c.Cycles)
}

/* tracing */

// PPUPosition is implemented by the PPU to annotate the execution trace.
type PPUPosition interface {
	Position() (scanline, dot int)
}

// SetTraceOutput enables the execution trace, one line per instruction is
// written to w. ppu is optional. A nil writer disables the trace.
func (c *CPU) SetTraceOutput(w io.Writer, ppu PPUPosition) {
	if w == nil {
		c.tracer = nil
		return
	}
	c.tracer = &tracer{w: w, d: c, ppu: ppu}
}

func (c *CPU) traceOp() {
	state := cpuState{
		A:     c.A,
		X:     c.X,
		Y:     c.Y,
		P:     c.P | Unused,
		SP:    c.SP,
		Clock: c.Cycles,
		PC:    c.PC,
	}
	if c.tracer.ppu != nil {
		state.Scanline, state.PPUCycle = c.tracer.ppu.Position()
	}
	c.tracer.write(state)
}
