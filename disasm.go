package main

import (
	"bufio"
	"bytes"
	"io"

	"nescore/emu"
	"nescore/hw"
	"nescore/hw/hwio"
	"nescore/ines"
)

// disasmROM runs the rom for a number of frames while logging executed
// opcodes, then lists them.
func disasmROM(w io.Writer, args Disasm, cfg emu.Config) error {
	rom, err := ines.Open(args.RomPath)
	if err != nil {
		return err
	}
	nes, err := emu.PowerUp(rom, cfg.Emulation)
	if err != nil {
		return err
	}

	var cdl hwio.Bitset
	nes.CPU.CDL = &cdl
	nes.RunFrames(args.Frames)
	nes.CPU.CDL = nil

	return listCode(w, nes.CPU, &cdl)
}

// listCode disassembles each address of the code log, in address order.
// Discontinuities are separated by an empty line.
func listCode(w io.Writer, cpu *hw.CPU, cdl *hwio.Bitset) error {
	bw := bufio.NewWriter(w)
	next := -1
	for addr := range 0x10000 {
		if !cdl.Test(uint16(addr)) {
			continue
		}
		if next >= 0 && addr != next {
			bw.WriteByte('\n')
		}
		op := cpu.Disasm(uint16(addr))
		bw.Write(bytes.TrimRight(op.Bytes(), " "))
		bw.WriteByte('\n')
		next = addr + len(op.Buf)
	}
	return bw.Flush()
}
