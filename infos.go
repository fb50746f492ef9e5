package main

import (
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"nescore/hw/mappers"
	"nescore/ines"
	"nescore/nsf"
)

type romInfo struct {
	path string
	rom  *ines.Rom
	err  error // open or validation error
}

func (ri romInfo) mapperName() string {
	if desc, ok := mappers.All[ri.rom.Mapper()]; ok {
		return desc.Name
	}
	return "unsupported"
}

// readRomInfos opens and validates the roms in parallel.
func readRomInfos(paths []string) []romInfo {
	infos := make([]romInfo, len(paths))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			infos[i].path = path
			rom, err := ines.Open(path)
			if err == nil {
				err = rom.Validate()
			}
			if err == nil {
				if _, ok := mappers.All[rom.Mapper()]; !ok {
					err = fmt.Errorf("%w: mapper %d", ines.ErrUnsupportedFormat, rom.Mapper())
				}
			}
			infos[i].rom, infos[i].err = rom, err
			return nil
		})
	}
	g.Wait()
	return infos
}

// printRomInfos shows the header of each rom, one per line. An error is
// returned if any rom could not be read.
func printRomInfos(w io.Writer, paths []string) error {
	infos := readRomInfos(paths)

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "ROM\tMAPPER\tPRG\tCHR\tMIRRORING\tBATTERY\tTRAINER\tSTATUS")

	nerrs := 0
	for _, ri := range infos {
		if ri.rom == nil {
			nerrs++
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t-\t%v\n", ri.path, ri.err)
			continue
		}

		status := "ok"
		if ri.err != nil {
			nerrs++
			status = ri.err.Error()
		}
		chr := "RAM"
		if len(ri.rom.CHR) > 0 {
			chr = fmt.Sprintf("%dKB", len(ri.rom.CHR)/1024)
		}
		fmt.Fprintf(tw, "%s\t%d (%s)\t%dKB\t%s\t%s\t%t\t%t\t%s\n",
			ri.path, ri.rom.Mapper(), ri.mapperName(),
			len(ri.rom.PRG)/1024, chr, ri.rom.Mirroring(),
			ri.rom.HasBattery(), ri.rom.HasTrainer(), status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if nerrs != 0 {
		return fmt.Errorf("%d of %d roms are invalid or unsupported", nerrs, len(paths))
	}
	return nil
}

func printNSFInfo(w io.Writer, path string) error {
	f, err := nsf.Open(path)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", f.Name)
	fmt.Fprintf(tw, "Artist:\t%s\n", f.Artist)
	fmt.Fprintf(tw, "Copyright:\t%s\n", f.Copyright)
	fmt.Fprintf(tw, "Version:\t%d\n", f.Version)
	fmt.Fprintf(tw, "Songs:\t%d (start at %d)\n", f.Songs, f.StartSong+1)
	fmt.Fprintf(tw, "Load:\t$%04X\n", f.LoadAddr)
	fmt.Fprintf(tw, "Init:\t$%04X\n", f.InitAddr)
	fmt.Fprintf(tw, "Play:\t$%04X\n", f.PlayAddr)
	fmt.Fprintf(tw, "NTSC speed:\t%dus\n", f.NTSCSpeed)
	fmt.Fprintf(tw, "PAL speed:\t%dus\n", f.PALSpeed)
	if f.UsesBanking {
		fmt.Fprintf(tw, "Banks:\t% X\n", f.Banks[:])
	} else {
		fmt.Fprintf(tw, "Banks:\tnone\n")
	}
	fmt.Fprintf(tw, "Chips:\t%s\n", f.Chips)
	if err := tw.Flush(); err != nil {
		return err
	}
	return f.Validate()
}
