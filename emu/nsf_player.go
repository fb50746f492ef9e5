package emu

import (
	"errors"
	"fmt"

	"nescore/emu/log"
	"nescore/hw/mappers"
	"nescore/nsf"
)

// NTSC CPU clock rate, in Hz.
const cpuClockNTSC = 1789773

// Maximum number of CPU cycles given to the INIT routine to return.
const maxInitCycles = 10 * 29781

var ErrPlayerHalted = errors.New("CPU halted")

// APUEvent is a write to an APU register.
type APUEvent struct {
	Cycle int64 // CPU cycle of the write
	Reg   uint16
	Value uint8
}

// NSFPlayer runs the routines of an NSF file on an emulated console and
// records the APU register writes they perform.
type NSFPlayer struct {
	NES  *NES
	File *nsf.File

	// Events collects APU writes since the last call to Start.
	Events []APUEvent

	song   uint8
	period int // PLAY period, in CPU cycles
}

// NewNSFPlayer builds a console around the NSF mapper for f.
func NewNSFPlayer(f *nsf.File, cfg EmulationConfig) (*NSFPlayer, error) {
	mapper, err := mappers.NewNSF(f)
	if err != nil {
		return nil, err
	}
	nes := newNES(mapper, cfg)
	nes.powerUp()

	p := &NSFPlayer{
		NES:    nes,
		File:   f,
		period: int(int64(f.NTSCSpeed) * cpuClockNTSC / 1_000_000),
	}
	nes.Bus.APU.SetListener(func(addr uint16, val uint8) {
		p.Events = append(p.Events, APUEvent{Cycle: nes.CPU.Cycles, Reg: addr, Value: val})
	})
	return p, nil
}

// PlayPeriod returns the number of CPU cycles between 2 calls to PLAY.
func (p *NSFPlayer) PlayPeriod() int { return p.period }

// Start initializes song (0-based) by running the INIT routine to
// completion.
func (p *NSFPlayer) Start(song uint8) error {
	if song >= p.File.Songs {
		return fmt.Errorf("song %d out of range, file has %d songs", song, p.File.Songs)
	}
	p.song = song

	bus := p.NES.Bus
	for addr := uint16(0); addr < 0x800; addr++ {
		bus.WriteByte(addr, 0)
	}
	for addr := uint16(0x6000); addr < 0x8000; addr++ {
		bus.WriteByte(addr, 0)
	}
	for addr := uint16(0x4000); addr < 0x4014; addr++ {
		bus.WriteByte(addr, 0)
	}
	bus.WriteByte(0x4015, 0x0F)
	bus.WriteByte(0x4017, 0x40)
	if p.File.UsesBanking {
		for i, bank := range p.File.Banks {
			bus.WriteByte(0x5FF8+uint16(i), bank)
		}
	}

	cpu := p.NES.CPU
	cpu.A = song
	cpu.X = 0 // NTSC
	cpu.SP = 0xFD
	cpu.PC = mappers.NSFDriverInit
	p.Events = p.Events[:0]

	for n := 0; n < maxInitCycles; n += p.NES.Step() {
		if cpu.PC == mappers.NSFDriverIdle {
			log.ModSound.InfoZ("INIT returned").
				Uint8("song", song).
				Int64("cycles", cpu.Cycles).
				End()
			return nil
		}
		if cpu.IsHalted() {
			return fmt.Errorf("INIT routine: %w at $%04X", ErrPlayerHalted, cpu.PC)
		}
	}
	return fmt.Errorf("INIT routine did not return after %d cycles", maxInitCycles)
}

// Play calls the PLAY routine n times, one PLAY period apart.
func (p *NSFPlayer) Play(n int) error {
	cpu := p.NES.CPU
	for range n {
		if cpu.PC == mappers.NSFDriverIdle {
			cpu.PC = mappers.NSFDriverPlay
		} else {
			// Real players skip the call when PLAY takes longer than its
			// period.
			log.ModSound.WarnZ("PLAY overrun").Hex16("pc", cpu.PC).End()
		}
		for range p.period {
			p.NES.Tick()
		}
		if cpu.IsHalted() {
			return fmt.Errorf("PLAY routine: %w at $%04X", ErrPlayerHalted, cpu.PC)
		}
	}
	return nil
}
