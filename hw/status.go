package hw

// P is the processor status register.
type P uint8

const (
	Carry P = 1 << iota
	Zero
	IntDisable
	Decimal
	Break  // only exists on the stack
	Unused // always 1 when pushed
	Overflow
	Negative
)

func (p P) String() string {
	const bits = "nvubdizcNVUBDIZC"

	s := make([]byte, 8)
	for i := range 8 {
		ibit := (uint8(p) >> (7 - i)) & 1
		s[i] = bits[i+int(8*ibit)]
	}
	return string(s)
}

func (p P) has(flag P) bool { return p&flag != 0 }

func (p *P) set(flag P, v bool) {
	if v {
		*p |= flag
	} else {
		*p &^= flag
	}
}

func (p *P) setNZ(val uint8) {
	p.set(Zero, val == 0)
	p.set(Negative, val&0x80 != 0)
}

func (p P) Carry() bool      { return p.has(Carry) }
func (p P) Zero() bool       { return p.has(Zero) }
func (p P) IntDisable() bool { return p.has(IntDisable) }
func (p P) Decimal() bool    { return p.has(Decimal) }
func (p P) Overflow() bool   { return p.has(Overflow) }
func (p P) Negative() bool   { return p.has(Negative) }

// pushed returns the byte pushed on the stack by PHP/BRK (brk=true) or by a
// hardware interrupt (brk=false).
func (p P) pushed(brk bool) uint8 {
	v := p | Unused
	v.set(Break, brk)
	return uint8(v)
}

// pulled converts a byte pulled from the stack by PLP/RTI. Break and Unused
// don't exist in the register.
func pulled(v uint8) P {
	return P(v)&^Break | Unused
}

func b2u8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
