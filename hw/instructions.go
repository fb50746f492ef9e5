package hw

// resolve computes the effective address of the instruction at pc, and
// whether indexing crossed a page boundary.
func (c *CPU) resolve(mode Mode, pc uint16) (addr uint16, crossed bool) {
	switch mode {
	case Implied, Accumulator:
		return 0, false
	case Immediate:
		return pc + 1, false
	case ZeroPage:
		return uint16(c.read8(pc + 1)), false
	case ZeroPageX:
		return uint16(c.read8(pc+1) + c.X), false
	case ZeroPageY:
		return uint16(c.read8(pc+1) + c.Y), false
	case Relative:
		off := int8(c.read8(pc + 1))
		return pc + 2 + uint16(off), false
	case Absolute:
		return c.read16(pc + 1), false
	case AbsoluteX:
		base := c.read16(pc + 1)
		addr = base + uint16(c.X)
		return addr, pagesDiffer(base, addr)
	case AbsoluteY:
		base := c.read16(pc + 1)
		addr = base + uint16(c.Y)
		return addr, pagesDiffer(base, addr)
	case Indirect:
		return c.read16wrap(c.read16(pc + 1)), false
	case IndexedIndirect:
		return c.read16wrap(uint16(c.read8(pc+1) + c.X)), false
	case IndirectIndexed:
		base := c.read16wrap(uint16(c.read8(pc + 1)))
		addr = base + uint16(c.Y)
		return addr, pagesDiffer(base, addr)
	}
	panic("unknown addressing mode")
}

func pagesDiffer(a, b uint16) bool {
	return a&0xFF00 != b&0xFF00
}

var ops = [numKinds]func(c *CPU, addr uint16, mode Mode){
	ADC: (*CPU).ADC,
	AND: (*CPU).AND,
	ASL: (*CPU).ASL,
	BCC: func(c *CPU, addr uint16, _ Mode) { c.branch(addr, !c.P.has(Carry)) },
	BCS: func(c *CPU, addr uint16, _ Mode) { c.branch(addr, c.P.has(Carry)) },
	BEQ: func(c *CPU, addr uint16, _ Mode) { c.branch(addr, c.P.has(Zero)) },
	BMI: func(c *CPU, addr uint16, _ Mode) { c.branch(addr, c.P.has(Negative)) },
	BNE: func(c *CPU, addr uint16, _ Mode) { c.branch(addr, !c.P.has(Zero)) },
	BPL: func(c *CPU, addr uint16, _ Mode) { c.branch(addr, !c.P.has(Negative)) },
	BVC: func(c *CPU, addr uint16, _ Mode) { c.branch(addr, !c.P.has(Overflow)) },
	BVS: func(c *CPU, addr uint16, _ Mode) { c.branch(addr, c.P.has(Overflow)) },
	BIT: (*CPU).BIT,
	BRK: (*CPU).BRK,
	CLC: func(c *CPU, _ uint16, _ Mode) { c.P.set(Carry, false) },
	CLD: func(c *CPU, _ uint16, _ Mode) { c.P.set(Decimal, false) },
	CLI: func(c *CPU, _ uint16, _ Mode) { c.P.set(IntDisable, false) },
	CLV: func(c *CPU, _ uint16, _ Mode) { c.P.set(Overflow, false) },
	SEC: func(c *CPU, _ uint16, _ Mode) { c.P.set(Carry, true) },
	SED: func(c *CPU, _ uint16, _ Mode) { c.P.set(Decimal, true) },
	SEI: func(c *CPU, _ uint16, _ Mode) { c.P.set(IntDisable, true) },
	CMP: func(c *CPU, addr uint16, _ Mode) { c.compare(c.A, c.read8(addr)) },
	CPX: func(c *CPU, addr uint16, _ Mode) { c.compare(c.X, c.read8(addr)) },
	CPY: func(c *CPU, addr uint16, _ Mode) { c.compare(c.Y, c.read8(addr)) },
	DEC: (*CPU).DEC,
	DEX: func(c *CPU, _ uint16, _ Mode) { c.X--; c.P.setNZ(c.X) },
	DEY: func(c *CPU, _ uint16, _ Mode) { c.Y--; c.P.setNZ(c.Y) },
	EOR: (*CPU).EOR,
	INC: (*CPU).INC,
	INX: func(c *CPU, _ uint16, _ Mode) { c.X++; c.P.setNZ(c.X) },
	INY: func(c *CPU, _ uint16, _ Mode) { c.Y++; c.P.setNZ(c.Y) },
	JMP: func(c *CPU, addr uint16, _ Mode) { c.PC = addr },
	JSR: (*CPU).JSR,
	LDA: func(c *CPU, addr uint16, _ Mode) { c.A = c.read8(addr); c.P.setNZ(c.A) },
	LDX: func(c *CPU, addr uint16, _ Mode) { c.X = c.read8(addr); c.P.setNZ(c.X) },
	LDY: func(c *CPU, addr uint16, _ Mode) { c.Y = c.read8(addr); c.P.setNZ(c.Y) },
	LSR: (*CPU).LSR,
	NOP: func(*CPU, uint16, Mode) {},
	ORA: (*CPU).ORA,
	PHA: func(c *CPU, _ uint16, _ Mode) { c.push8(c.A) },
	PHP: func(c *CPU, _ uint16, _ Mode) { c.push8(c.P.pushed(true)) },
	PLA: func(c *CPU, _ uint16, _ Mode) { c.A = c.pull8(); c.P.setNZ(c.A) },
	PLP: func(c *CPU, _ uint16, _ Mode) { c.P = pulled(c.pull8()) },
	ROL: (*CPU).ROL,
	ROR: (*CPU).ROR,
	RTI: (*CPU).RTI,
	RTS: func(c *CPU, _ uint16, _ Mode) { c.PC = c.pull16() + 1 },
	SBC: (*CPU).SBC,
	STA: func(c *CPU, addr uint16, _ Mode) { c.write8(addr, c.A) },
	STX: func(c *CPU, addr uint16, _ Mode) { c.write8(addr, c.X) },
	STY: func(c *CPU, addr uint16, _ Mode) { c.write8(addr, c.Y) },
	TAX: func(c *CPU, _ uint16, _ Mode) { c.X = c.A; c.P.setNZ(c.X) },
	TAY: func(c *CPU, _ uint16, _ Mode) { c.Y = c.A; c.P.setNZ(c.Y) },
	TSX: func(c *CPU, _ uint16, _ Mode) { c.X = c.SP; c.P.setNZ(c.X) },
	TXA: func(c *CPU, _ uint16, _ Mode) { c.A = c.X; c.P.setNZ(c.A) },
	TXS: func(c *CPU, _ uint16, _ Mode) { c.SP = c.X },
	TYA: func(c *CPU, _ uint16, _ Mode) { c.A = c.Y; c.P.setNZ(c.A) },

	ALR: (*CPU).ALR,
	ANC: (*CPU).ANC,
	ANE: (*CPU).ANE,
	ARR: (*CPU).ARR,
	DCP: (*CPU).DCP,
	ISC: (*CPU).ISC,
	LAS: (*CPU).LAS,
	LAX: func(c *CPU, addr uint16, _ Mode) { c.A = c.read8(addr); c.X = c.A; c.P.setNZ(c.A) },
	LXA: (*CPU).LXA,
	RLA: (*CPU).RLA,
	RRA: (*CPU).RRA,
	SAX: func(c *CPU, addr uint16, _ Mode) { c.write8(addr, c.A&c.X) },
	SBX: (*CPU).SBX,
	SHA: func(c *CPU, addr uint16, _ Mode) { c.storeHigh(addr, c.Y, c.A&c.X) },
	SHX: func(c *CPU, addr uint16, _ Mode) { c.storeHigh(addr, c.Y, c.X) },
	SHY: func(c *CPU, addr uint16, _ Mode) { c.storeHigh(addr, c.X, c.Y) },
	SLO: (*CPU).SLO,
	SRE: (*CPU).SRE,
	STP: func(c *CPU, _ uint16, _ Mode) { c.PC--; c.halt() },
	TAS: func(c *CPU, addr uint16, _ Mode) { c.SP = c.A & c.X; c.storeHigh(addr, c.Y, c.SP) },
}

// rmw applies f to the operand, which is either the accumulator or the byte
// at addr, stores the result back and returns it.
func (c *CPU) rmw(addr uint16, mode Mode, f func(*CPU, uint8) uint8) uint8 {
	if mode == Accumulator {
		c.A = f(c, c.A)
		return c.A
	}
	val := f(c, c.read8(addr))
	c.write8(addr, val)
	return val
}

func (c *CPU) branch(addr uint16, taken bool) {
	if !taken {
		return
	}
	c.extra++
	if pagesDiffer(c.PC, addr) {
		c.extra++
	}
	c.PC = addr
}

func (c *CPU) compare(reg, val uint8) {
	c.P.set(Carry, reg >= val)
	c.P.setNZ(reg - val)
}

// add performs A+val+C, decimal mode is not implemented.
func (c *CPU) add(val uint8) {
	sum := uint16(c.A) + uint16(val) + uint16(b2u8(c.P.has(Carry)))
	res := uint8(sum)
	c.P.set(Carry, sum > 0xFF)
	c.P.set(Overflow, (c.A^res)&(val^res)&0x80 != 0)
	c.A = res
	c.P.setNZ(res)
}

// storeHigh implements the unstable stores (SHA, SHX, SHY, TAS) that AND
// the value with the high byte of the base address plus one.
func (c *CPU) storeHigh(addr uint16, index, val uint8) {
	base := addr - uint16(index)
	val &= uint8(base>>8) + 1
	if pagesDiffer(base, addr) {
		addr = uint16(val)<<8 | addr&0xFF
	}
	c.write8(addr, val)
}

/* shifts and rotations */

func asl(c *CPU, v uint8) uint8 {
	c.P.set(Carry, v&0x80 != 0)
	v <<= 1
	c.P.setNZ(v)
	return v
}

func lsr(c *CPU, v uint8) uint8 {
	c.P.set(Carry, v&0x01 != 0)
	v >>= 1
	c.P.setNZ(v)
	return v
}

func rol(c *CPU, v uint8) uint8 {
	carry := b2u8(c.P.has(Carry))
	c.P.set(Carry, v&0x80 != 0)
	v = v<<1 | carry
	c.P.setNZ(v)
	return v
}

func ror(c *CPU, v uint8) uint8 {
	carry := b2u8(c.P.has(Carry))
	c.P.set(Carry, v&0x01 != 0)
	v = v>>1 | carry<<7
	c.P.setNZ(v)
	return v
}

func dec(c *CPU, v uint8) uint8 {
	v--
	c.P.setNZ(v)
	return v
}

func inc(c *CPU, v uint8) uint8 {
	v++
	c.P.setNZ(v)
	return v
}

/* official */

func (c *CPU) ADC(addr uint16, _ Mode) { c.add(c.read8(addr)) }
func (c *CPU) SBC(addr uint16, _ Mode) { c.add(^c.read8(addr)) }

func (c *CPU) AND(addr uint16, _ Mode) {
	c.A &= c.read8(addr)
	c.P.setNZ(c.A)
}

func (c *CPU) ORA(addr uint16, _ Mode) {
	c.A |= c.read8(addr)
	c.P.setNZ(c.A)
}

func (c *CPU) EOR(addr uint16, _ Mode) {
	c.A ^= c.read8(addr)
	c.P.setNZ(c.A)
}

func (c *CPU) ASL(addr uint16, mode Mode) { c.rmw(addr, mode, asl) }
func (c *CPU) LSR(addr uint16, mode Mode) { c.rmw(addr, mode, lsr) }
func (c *CPU) ROL(addr uint16, mode Mode) { c.rmw(addr, mode, rol) }
func (c *CPU) ROR(addr uint16, mode Mode) { c.rmw(addr, mode, ror) }
func (c *CPU) DEC(addr uint16, mode Mode) { c.rmw(addr, mode, dec) }
func (c *CPU) INC(addr uint16, mode Mode) { c.rmw(addr, mode, inc) }

func (c *CPU) BIT(addr uint16, _ Mode) {
	val := c.read8(addr)
	c.P.set(Zero, c.A&val == 0)
	c.P.set(Overflow, val&0x40 != 0)
	c.P.set(Negative, val&0x80 != 0)
}

func (c *CPU) BRK(_ uint16, _ Mode) {
	// BRK is a 2-byte instruction, the padding byte is skipped on return.
	c.push16(c.PC + 1)
	c.push8(c.P.pushed(true))
	c.P.set(IntDisable, true)
	c.PC = c.read16(IRQVector)
}

func (c *CPU) JSR(addr uint16, _ Mode) {
	c.push16(c.PC - 1)
	c.PC = addr
}

func (c *CPU) RTI(_ uint16, _ Mode) {
	c.P = pulled(c.pull8())
	c.PC = c.pull16()
}

/* unofficial */

func (c *CPU) SLO(addr uint16, mode Mode) {
	c.A |= c.rmw(addr, mode, asl)
	c.P.setNZ(c.A)
}

func (c *CPU) RLA(addr uint16, mode Mode) {
	c.A &= c.rmw(addr, mode, rol)
	c.P.setNZ(c.A)
}

func (c *CPU) SRE(addr uint16, mode Mode) {
	c.A ^= c.rmw(addr, mode, lsr)
	c.P.setNZ(c.A)
}

func (c *CPU) RRA(addr uint16, mode Mode) {
	c.add(c.rmw(addr, mode, ror))
}

func (c *CPU) DCP(addr uint16, mode Mode) {
	val := c.read8(addr) - 1
	c.write8(addr, val)
	c.compare(c.A, val)
}

func (c *CPU) ISC(addr uint16, mode Mode) {
	val := c.read8(addr) + 1
	c.write8(addr, val)
	c.add(^val)
}

func (c *CPU) ANC(addr uint16, _ Mode) {
	c.A &= c.read8(addr)
	c.P.setNZ(c.A)
	c.P.set(Carry, c.A&0x80 != 0)
}

func (c *CPU) ALR(addr uint16, _ Mode) {
	c.A = lsr(c, c.A&c.read8(addr))
}

func (c *CPU) ARR(addr uint16, _ Mode) {
	c.A &= c.read8(addr)
	c.A = c.A>>1 | b2u8(c.P.has(Carry))<<7
	c.P.setNZ(c.A)
	c.P.set(Carry, c.A&0x40 != 0)
	c.P.set(Overflow, (c.A>>6^c.A>>5)&1 != 0)
}

func (c *CPU) ANE(addr uint16, _ Mode) {
	c.A = (c.A | 0xEE) & c.X & c.read8(addr)
	c.P.setNZ(c.A)
}

func (c *CPU) LXA(addr uint16, _ Mode) {
	c.A = (c.A | 0xEE) & c.read8(addr)
	c.X = c.A
	c.P.setNZ(c.A)
}

func (c *CPU) SBX(addr uint16, _ Mode) {
	val := c.read8(addr)
	ax := c.A & c.X
	c.P.set(Carry, ax >= val)
	c.X = ax - val
	c.P.setNZ(c.X)
}

func (c *CPU) LAS(addr uint16, _ Mode) {
	c.SP &= c.read8(addr)
	c.A, c.X = c.SP, c.SP
	c.P.setNZ(c.SP)
}
