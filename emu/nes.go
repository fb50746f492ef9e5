package emu

import (
	"fmt"
	"io"

	"nescore/emu/log"
	"nescore/hw"
	"nescore/hw/mappers"
	"nescore/ines"
)

// NES drives the CPU, the PPU and the cartridge mapper in lock-step: each
// Tick runs one CPU cycle then three PPU cycles.
type NES struct {
	CPU    *hw.CPU
	PPU    *hw.PPU
	Bus    *hw.Bus
	Mapper hw.Mapper
	Rom    *ines.Rom

	// Controllers holds the buttons state of both standard pads.
	Controllers hw.StdControllers

	cfg EmulationConfig
}

// PowerUp builds a console around rom and runs the power-up sequence.
func PowerUp(rom *ines.Rom, cfg EmulationConfig) (*NES, error) {
	mapper, err := mappers.Load(rom)
	if err != nil {
		return nil, fmt.Errorf("power up: %w", err)
	}
	nes := newNES(mapper, cfg)
	nes.Rom = rom
	nes.powerUp()
	return nes, nil
}

func newNES(mapper hw.Mapper, cfg EmulationConfig) *NES {
	ppu := hw.NewPPU()
	ppu.InitBus(mapper)
	bus := hw.NewBus(ppu, mapper, cfg.OpenBus)

	nes := &NES{
		CPU:    hw.NewCPU(bus),
		PPU:    ppu,
		Bus:    bus,
		Mapper: mapper,
		cfg:    cfg,
	}
	bus.Input.Connect(&nes.Controllers)
	return nes
}

func (nes *NES) powerUp() {
	nes.PPU.Reset()
	nes.CPU.PowerUp()
	log.ModEmu.InfoZ("power up").
		String("mapper", nes.Mapper.Name()).
		Stringer("mirroring", nes.Mapper.Mirroring()).
		End()
}

// Reset presses the console reset button.
func (nes *NES) Reset() {
	nes.PPU.Reset()
	nes.CPU.Reset()
}

// Tick advances the console by one CPU cycle.
func (nes *NES) Tick() {
	nes.CPU.Tick()
	if nes.Bus.DMAStall() && !nes.cfg.NoDMAStall {
		// One more alignment cycle when the transfer starts on an odd cycle.
		stall := hw.OAMDMACycles
		if nes.CPU.NextBoundary()&1 == 1 {
			stall++
		}
		nes.CPU.Stall(stall)
	}

	for range 3 {
		nes.PPU.Tick()
		if nes.PPU.PollNMI() {
			nes.CPU.SetNMI()
		}
	}
}

// Step runs the console up to the next CPU instruction boundary and returns
// the number of CPU cycles spent.
func (nes *NES) Step() int {
	n := 0
	for {
		nes.Tick()
		n++
		if nes.CPU.AtBoundary() {
			return n
		}
	}
}

// RunFrame runs the console until the PPU has produced a new frame.
func (nes *NES) RunFrame() *hw.Frame {
	// Drop a frame completed by earlier Tick or Step calls.
	nes.PPU.FrameReady()
	for !nes.PPU.FrameReady() {
		nes.Tick()
	}
	return nes.PPU.Frame()
}

// RunFrames runs n frames and returns the last one.
func (nes *NES) RunFrames(n int) *hw.Frame {
	var frame *hw.Frame
	for range n {
		frame = nes.RunFrame()
	}
	return frame
}

// RunUntilHalt runs frames until the CPU halts. It returns the last frame and
// the number of frames run.
func (nes *NES) RunUntilHalt() (*hw.Frame, int) {
	var frame *hw.Frame
	n := 0
	for !nes.CPU.IsHalted() {
		frame = nes.RunFrame()
		n++
	}
	return frame, n
}

// SetTraceOutput enables CPU tracing to w, or disables it if w is nil.
func (nes *NES) SetTraceOutput(w io.Writer) {
	nes.CPU.SetTraceOutput(w, nes.PPU)
}
