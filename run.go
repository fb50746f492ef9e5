package main

import (
	"bufio"
	"fmt"
	"time"

	"github.com/pkg/profile"

	"nescore/emu"
	"nescore/emu/log"
	"nescore/hw"
	"nescore/ines"
)

func runROM(args Run, cfg emu.Config) {
	rom, err := ines.Open(args.RomPath)
	checkf(err, "failed to open rom")

	nes, err := emu.PowerUp(rom, cfg.Emulation)
	checkf(err, "error during power up")
	log.AddContext(nes.CPU)

	frames := cfg.Emulation.Frames
	if args.Frames != 0 {
		frames = args.Frames
	}
	if frames < 0 {
		fatalf("number of frames must not be negative, got %d", frames)
	}

	trace := args.Trace
	if trace == nil && cfg.Trace.Output != "" {
		trace = &outfile{}
		checkf(trace.open(cfg.Trace.Output), "failed to open trace output")
	}
	if trace != nil {
		defer trace.Close()
		bw := bufio.NewWriterSize(trace, 1<<16)
		defer bw.Flush()
		nes.SetTraceOutput(bw)
	}

	switch args.Profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		fatalf("unknown profile mode %q (cpu|mem)", args.Profile)
	}

	start := time.Now()
	var frame *hw.Frame
	if frames == 0 {
		frame, frames = nes.RunUntilHalt()
	} else {
		frame = nes.RunFrames(frames)
	}
	elapsed := time.Since(start)

	log.ModEmu.InfoZ("emulation done").
		Int("frames", frames).
		Int64("cycles", nes.CPU.Cycles).
		Duration("elapsed", elapsed).
		End()

	st := nes.CPU.State()
	fmt.Printf("%d frames, %d CPU cycles in %v\n", frames, st.Cycles, elapsed.Round(time.Millisecond))
	fmt.Printf("PC:%04X A:%02X X:%02X Y:%02X P:%02X SP:%02X\n", st.PC, st.A, st.X, st.Y, st.P, st.SP)
	if nes.CPU.IsHalted() {
		fmt.Println("CPU halted")
	}

	if args.Screenshot != "" {
		err := emu.SaveScreenshot(args.Screenshot, frame, cfg.Video.ScreenshotScale)
		checkf(err, "failed to save screenshot")
	}
}
