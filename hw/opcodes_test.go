package hw

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-faster/jx"

	"nescore/tests"
)

func TestAllOpcodesAreImplemented(t *testing.T) {
	for kind, op := range ops {
		if op == nil {
			t.Errorf("instruction %s not implemented", Kind(kind))
		}
	}
	for opcode, op := range Opcodes() {
		if op.Size == 0 || op.Cycles == 0 {
			t.Errorf("opcode %02x: incomplete definition %+v", opcode, op)
		}
	}
}

func TestOpcodeTable(t *testing.T) {
	tests := []struct {
		opcode uint8
		want   Opcode
	}{
		{0x00, Opcode{Kind: BRK, Mode: Implied, Size: 1, Cycles: 7}},
		{0x6C, Opcode{Kind: JMP, Mode: Indirect, Size: 3, Cycles: 5}},
		{0xB1, Opcode{Kind: LDA, Mode: IndirectIndexed, Size: 2, Cycles: 5, PageCycle: true}},
		{0xA7, Opcode{Kind: LAX, Mode: ZeroPage, Size: 2, Cycles: 3, Unofficial: true}},
		{0xEB, Opcode{Kind: SBC, Mode: Immediate, Size: 2, Cycles: 2, Unofficial: true}},
		{0x02, Opcode{Kind: STP, Mode: Implied, Size: 1, Cycles: 2, Unofficial: true}},
	}
	for _, tt := range tests {
		if got := Decode(tt.opcode); got != tt.want {
			t.Errorf("Decode(%02x) = %+v, want %+v", tt.opcode, got, tt.want)
		}
	}

	// Opcodes returns a copy.
	Opcodes()[0x00].Cycles = 0
	if Decode(0x00).Cycles != 7 {
		t.Errorf("decoding table has been modified")
	}
}

// Opcodes whose result depends on analog effects, or that halt the CPU.
var unstableOps = map[uint8]bool{
	0x8B: true, // ANE
	0xAB: true, // LXA
	0x93: true, // SHA (zp),Y
	0x9B: true, // TAS
	0x9C: true, // SHY
	0x9E: true, // SHX
	0x9F: true, // SHA abs,Y
}

// TestOpcodes runs the single-step processor tests, 10000 vectors per
// opcode, from github.com/SingleStepTests/65x02 (nes6502).
func TestOpcodes(t *testing.T) {
	dir := tests.TomHarteProcTestsPath(t)

	for opcode, op := range Opcodes() {
		opstr := fmt.Sprintf("%02x", opcode)
		t.Run(opstr, func(t *testing.T) {
			if unstableOps[uint8(opcode)] || op.Kind == STP {
				t.Skipf("skipping unstable opcode %s", op)
			}
			t.Parallel()
			runOpcodeTests(t, filepath.Join(dir, opstr+".json"))
		})
	}
}

type cpuVector struct {
	PC         uint16
	S, A, X, Y uint8
	P          uint8
	RAM        [][2]int
}

type opcodeTest struct {
	Name    string
	Initial cpuVector
	Final   cpuVector
	Cycles  int
}

func decodeVector(d *jx.Decoder, v *cpuVector) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		if key == "ram" {
			return d.Arr(func(d *jx.Decoder) error {
				var row [2]int
				i := 0
				err := d.Arr(func(d *jx.Decoder) error {
					n, err := d.Int()
					if i < 2 {
						row[i] = n
					}
					i++
					return err
				})
				v.RAM = append(v.RAM, row)
				return err
			})
		}

		n, err := d.Int()
		if err != nil {
			return err
		}
		switch key {
		case "pc":
			v.PC = uint16(n)
		case "s":
			v.S = uint8(n)
		case "a":
			v.A = uint8(n)
		case "x":
			v.X = uint8(n)
		case "y":
			v.Y = uint8(n)
		case "p":
			v.P = uint8(n)
		}
		return nil
	})
}

func decodeOpcodeTests(buf []byte) ([]opcodeTest, error) {
	var all []opcodeTest
	err := jx.DecodeBytes(buf).Arr(func(d *jx.Decoder) error {
		var tt opcodeTest
		err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "name":
				s, err := d.Str()
				tt.Name = s
				return err
			case "initial":
				return decodeVector(d, &tt.Initial)
			case "final":
				return decodeVector(d, &tt.Final)
			case "cycles":
				return d.Arr(func(d *jx.Decoder) error {
					tt.Cycles++
					return d.Skip()
				})
			}
			return d.Skip()
		})
		all = append(all, tt)
		return err
	})
	return all, err
}

func runOpcodeTests(t *testing.T, path string) {
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	vectors, err := decodeOpcodeTests(buf)
	if err != nil {
		t.Fatalf("%s: %v", path, err)
	}

	bus, mem := newFlatBus()
	cpu := NewCPU(bus)

	// B and unused bits have no storage.
	const pmask = 0xCF

	failures := 0
	for _, tt := range vectors {
		clear(mem)
		for _, row := range tt.Initial.RAM {
			mem[row[0]] = uint8(row[1])
		}
		*cpu = CPU{
			Bus: bus,
			PC:  tt.Initial.PC,
			SP:  tt.Initial.S,
			A:   tt.Initial.A,
			X:   tt.Initial.X,
			Y:   tt.Initial.Y,
			P:   P(tt.Initial.P),
		}

		cycles := cpu.Step()

		want, got := tt.Final, cpuVector{
			PC: cpu.PC, S: cpu.SP, A: cpu.A, X: cpu.X, Y: cpu.Y, P: uint8(cpu.P),
		}
		ok := want.PC == got.PC && want.S == got.S && want.A == got.A &&
			want.X == got.X && want.Y == got.Y && want.P&pmask == got.P&pmask
		if !ok {
			t.Errorf("%s: got PC=%04X S=%02X A=%02X X=%02X Y=%02X P=%02X, want PC=%04X S=%02X A=%02X X=%02X Y=%02X P=%02X",
				tt.Name, got.PC, got.S, got.A, got.X, got.Y, got.P, want.PC, want.S, want.A, want.X, want.Y, want.P)
		}
		if cycles != tt.Cycles {
			ok = false
			t.Errorf("%s: took %d cycles, want %d", tt.Name, cycles, tt.Cycles)
		}
		for _, row := range tt.Final.RAM {
			if got := mem[row[0]]; got != uint8(row[1]) {
				ok = false
				t.Errorf("%s: ram[%04X] = %02X, want %02X", tt.Name, row[0], got, row[1])
			}
		}

		if !ok {
			if failures++; failures == 10 {
				t.Fatal("too many failures")
			}
		}
	}
}
