package hw

import "fmt"

func (c *CPU) peek8(addr uint16) uint8 {
	return c.Bus.Read8(addr, true)
}

func (c *CPU) peek16(addr uint16) uint16 {
	return uint16(c.peek8(addr+1))<<8 | uint16(c.peek8(addr))
}

// Disasm decodes the instruction at pc without executing it. Memory is
// peeked so that disassembly has no side effect on the hardware.
func (c *CPU) Disasm(pc uint16) DisasmOp {
	op := opcodes[c.peek8(pc)]

	d := DisasmOp{
		PC:     pc,
		Opcode: op.Kind.String(),
		Buf:    make([]byte, op.Size),
	}
	for i := range d.Buf {
		d.Buf[i] = c.peek8(pc + uint16(i))
	}

	switch op.Mode {
	case Accumulator:
		d.Oper = "A"
	case Immediate:
		d.Oper = fmt.Sprintf("#$%02X", d.Buf[1])
	case ZeroPage:
		d.Oper = fmt.Sprintf("$%02X", d.Buf[1])
	case ZeroPageX:
		d.Oper = fmt.Sprintf("$%02X,X", d.Buf[1])
	case ZeroPageY:
		d.Oper = fmt.Sprintf("$%02X,Y", d.Buf[1])
	case Relative:
		d.Oper = fmt.Sprintf("$%04X", pc+2+uint16(int8(d.Buf[1])))
	case Absolute:
		d.Oper = formatAddr(c.peek16(pc + 1))
	case AbsoluteX:
		d.Oper = fmt.Sprintf("$%04X,X", c.peek16(pc+1))
	case AbsoluteY:
		d.Oper = fmt.Sprintf("$%04X,Y", c.peek16(pc+1))
	case Indirect:
		d.Oper = fmt.Sprintf("($%04X)", c.peek16(pc+1))
	case IndexedIndirect:
		d.Oper = fmt.Sprintf("($%02X,X)", d.Buf[1])
	case IndirectIndexed:
		d.Oper = fmt.Sprintf("($%02X),Y", d.Buf[1])
	}
	return d
}

type DisasmOp struct {
	Opcode string
	Oper   string
	Buf    []byte
	PC     uint16
}

func (d DisasmOp) String() string {
	return string(d.Bytes())
}

// Bytes returns the string representation of a DisasmOp, this is optimized
// version, suitable for the execution tracer.
func (d DisasmOp) Bytes() []byte {
	const totalLen = 48
	buf := make([]byte, totalLen)

	hexEncode(buf[0:], byte(d.PC>>8))
	hexEncode(buf[2:], byte(d.PC))
	buf[4] = ' '
	buf[5] = ' '

	off := 6
	for i := range d.Buf {
		hexEncode(buf[off:], d.Buf[i])
		buf[off+2] = ' '
		off += 3
	}

	for ; off < 16; off++ {
		buf[off] = ' '
	}

	off += copy(buf[off:], d.Opcode)
	buf[off] = ' '
	off++

	buf = append(buf[:off], d.Oper...)
	off += len(d.Oper)
	if len(buf) > totalLen {
		buf = append(buf, ' ')
	} else {
		buf = buf[:totalLen]
		for i := off; i < totalLen; i++ {
			buf[i] = ' '
		}
	}

	return buf
}

// Symbolic names for the memory-mapped registers.
var addressLabels = map[uint16]string{
	0x2000: "PpuControl_2000",
	0x2001: "PpuMask_2001",
	0x2002: "PpuStatus_2002",
	0x2003: "OamAddr_2003",
	0x2004: "OamData_2004",
	0x2005: "PpuScroll_2005",
	0x2006: "PpuAddr_2006",
	0x2007: "PpuData_2007",
	0x4000: "Sq0Duty_4000",
	0x4001: "Sq0Sweep_4001",
	0x4002: "Sq0Timer_4002",
	0x4003: "Sq0Length_4003",
	0x4004: "Sq1Duty_4004",
	0x4005: "Sq1Sweep_4005",
	0x4006: "Sq1Timer_4006",
	0x4007: "Sq1Length_4007",
	0x4008: "TrgLinear_4008",
	0x400A: "TrgTimer_400A",
	0x400B: "TrgLength_400B",
	0x400C: "NoiseVolume_400C",
	0x400E: "NoisePeriod_400E",
	0x400F: "NoiseLength_400F",
	0x4010: "DmcFreq_4010",
	0x4011: "DmcCounter_4011",
	0x4012: "DmcAddress_4012",
	0x4013: "DmcLength_4013",
	0x4014: "SpriteDma_4014",
	0x4015: "ApuStatus_4015",
	0x4016: "Ctrl1_4016",
	0x4017: "Ctrl2_FrameCtr_4017",
}

func formatAddr(addr uint16) string {
	if label, ok := addressLabels[addr]; ok {
		return label
	}
	return fmt.Sprintf("$%04X", addr)
}
