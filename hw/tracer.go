package hw

import (
	"fmt"
	"io"
)

// cpuState stores the CPU state for the execution trace.
type cpuState struct {
	A, X, Y uint8
	P       P
	SP      uint8
	PC      uint16

	Clock    int64
	PPUCycle int
	Scanline int
}

type disasmer interface {
	Disasm(pc uint16) DisasmOp
}

type tracer struct {
	d   disasmer
	w   io.Writer
	ppu PPUPosition

	buf []byte
}

func hexEncode(dst []byte, v byte) {
	const hextable = "0123456789ABCDEF"
	dst[0] = hextable[v>>4]
	dst[1] = hextable[v&0x0f]
}

// appendReg appends "name:XX ".
func appendReg(buf []byte, name byte, v uint8) []byte {
	var hex [2]byte
	hexEncode(hex[:], v)
	return append(buf, name, ':', hex[0], hex[1], ' ')
}

// write the execution trace line of the instruction about to be executed.
func (t *tracer) write(state cpuState) {
	const disasmCol = 49

	buf := append(t.buf[:0], t.d.Disasm(state.PC).Bytes()...)
	for len(buf) < disasmCol {
		buf = append(buf, ' ')
	}

	buf = appendReg(buf, 'A', state.A)
	buf = appendReg(buf, 'X', state.X)
	buf = appendReg(buf, 'Y', state.Y)
	buf = appendReg(buf, 'P', uint8(state.P))
	buf = appendReg(buf, 'S', state.SP)

	// The pre-render line is shown as -1.
	scanline := state.Scanline
	if scanline == 261 {
		scanline = -1
	}

	buf = fmt.Appendf(buf, "PPU:%-3d,%-3d %d\n", scanline, state.PPUCycle, state.Clock)
	t.w.Write(buf)
	t.buf = buf
}
