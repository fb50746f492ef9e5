package emu

import (
	"bytes"
	"path/filepath"
	"testing"

	"nescore/ines"
	"nescore/tests"
)

func loadTestRom(t *testing.T, path string) *NES {
	t.Helper()
	rom, err := ines.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	return powerUpTest(t, rom)
}

func TestNestest(t *testing.T) {
	nes := loadTestRom(t, filepath.Join(tests.RomsPath(t), "other", "nestest.nes"))

	// nestest.nes rom has an 'automation' mode. To enable it,
	// PC must be set to C000 (instead of C004 for graphic mode).
	nes.CPU.PC = 0xC000

	var trace bytes.Buffer
	nes.SetTraceOutput(&trace)

	// The automated run ends with an RTS to $0001 (after popping the
	// return address pushed at reset).
	const maxCycles = 30000
	for nes.CPU.Cycles < maxCycles && nes.CPU.PC != 0x0001 && !nes.CPU.IsHalted() {
		nes.Step()
	}

	official, unofficial := nes.Bus.ReadByte(0x02), nes.Bus.ReadByte(0x03)
	if official != 0 || unofficial != 0 {
		t.Errorf("nestest failed: official=0x%02x unofficial=0x%02x (see nestest.txt)", official, unofficial)
	}

	first, _, _ := bytes.Cut(trace.Bytes(), []byte("\n"))
	const want = "C000  4C F5 C5  JMP $C5F5"
	if !bytes.HasPrefix(first, []byte(want)) {
		t.Errorf("first trace line = %q, want prefix %q", first, want)
	}
}

func TestInstructionsV5(t *testing.T) {
	dir := filepath.Join(tests.RomsPath(t), "instr_test-v5", "rom_singles")
	files := []string{
		"01-basics.nes",
		"02-implied.nes",
		// "03-immediate.nes", uses unstable 0xAB (LXA)
		"04-zero_page.nes",
		"05-zp_xy.nes",
		"06-absolute.nes",
		// "07-abs_xy.nes", uses unstable 0x9C (SHY)
		"08-ind_x.nes",
		"09-ind_y.nes",
		"10-branches.nes",
		"11-stack.nes",
		"12-jmp_jsr.nes",
		"13-rts.nes",
		"14-rti.nes",
		"15-brk.nes",
		"16-special.nes",
	}

	for _, path := range files {
		t.Run(path, runTestRom(filepath.Join(dir, path)))
	}
}

func TestBranchTiming(t *testing.T) {
	dir := filepath.Join(tests.RomsPath(t), "branch_timing_tests")
	for _, path := range []string{"1.Branch_Basics.nes", "2.Backward_Branch.nes", "3.Forward_Branch.nes"} {
		t.Run(path, func(t *testing.T) {
			// These older tests report their result on screen only. Just
			// make sure the CPU survives them.
			nes := loadTestRom(t, filepath.Join(dir, path))
			nes.RunFrames(120)
			if nes.CPU.IsHalted() {
				t.Fatalf("CPU halted at $%04X", nes.CPU.PC)
			}
		})
	}
}

// runTestRom runs a test rom following blargg's protocol.
//
// The test status is written to $6000. $80 means the test is running, $81
// means the test needs the reset button pressed, but delayed by at least 100
// msec from now. $00-$7F means the test has completed and given that result
// code. $DE $B0 $61 is written to $6001-$6003 once the data at $6000+ is
// valid. Text output is a zero-terminated string at $6004.
func runTestRom(path string) func(t *testing.T) {
	return func(t *testing.T) {
		nes := loadTestRom(t, path)

		const maxFrames = 60 * 60
		magic := []byte{0xDE, 0xB0, 0x61}
		started := false
		resetIn := -1

		for range maxFrames {
			nes.RunFrame()

			data := []byte{nes.Bus.Peek8(0x6001), nes.Bus.Peek8(0x6002), nes.Bus.Peek8(0x6003)}
			if !started {
				started = bytes.Equal(data, magic)
				continue
			}
			if !bytes.Equal(data, magic) {
				t.Fatalf("corrupted memory at $6001: % x", data)
			}

			switch result := nes.Bus.Peek8(0x6000); {
			case result <= 0x7F:
				if result != 0 {
					t.Fatalf("test failed: code 0x%02x\n%s", result, memString(nes, 0x6004))
				}
				return
			case result == 0x81 && resetIn < 0:
				resetIn = 6 // about 100ms
			}

			if resetIn > 0 {
				resetIn--
				if resetIn == 0 {
					nes.Reset()
					resetIn = -1
				}
			}
		}
		t.Fatalf("test did not complete after %d frames\n%s", maxFrames, memString(nes, 0x6004))
	}
}

func memString(nes *NES, addr uint16) string {
	var buf []byte
	for a := addr; a < 0x8000; a++ {
		c := nes.Bus.Peek8(a)
		if c == 0 {
			break
		}
		buf = append(buf, c)
	}
	return string(buf)
}

func TestNametableMirroring(t *testing.T) {
	rom, err := ines.Open(filepath.Join(tests.RomsPath(t), "other", "snow.nes"))
	if err != nil {
		t.Fatal(err)
	}
	if rom.Mirroring() != ines.Horizontal {
		t.Errorf("incorrect nt mirroring")
	}
	nes := powerUpTest(t, rom)

	nes.PPU.Bus.Write8(0x2000, 'A')
	nes.PPU.Bus.Write8(0x2800, 'B')

	addrs := []uint16{
		0x2000, // A
		0x2400, // A
		0x2800, // B
		0x2C00, // B
		0x3000, // A
		0x3400, // A
		0x3800, // B
		0x3C00, // B
	}
	var nts []byte
	for _, a := range addrs {
		nts = append(nts, nes.PPU.Bus.Read8(a, false))
	}

	if string(nts) != "AABBAABB" {
		t.Errorf("mirrors = %s", nts)
	}
}
