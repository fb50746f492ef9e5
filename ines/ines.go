// Package ines reads cartridge images in the iNES file format.
package ines

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrInvalidFormat reports malformed or truncated data.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrUnsupportedFormat reports well-formed data using features outside of
	// the supported hardware subset.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

const (
	Magic      = "NES\x1a"
	HeaderSize = 16

	PRGPageSize = 16 * 1024
	CHRPageSize = 8 * 1024
	TrainerSize = 512
)

// Mirroring is the nametable mirroring declared by the header.
type Mirroring uint8

const (
	Horizontal Mirroring = iota
	Vertical
	FourScreen
)

func (m Mirroring) String() string {
	switch m {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case FourScreen:
		return "four-screen"
	}
	return fmt.Sprintf("Mirroring(%d)", uint8(m))
}

// Header is the decoded 16-byte iNES header.
type Header struct {
	raw [HeaderSize]byte
}

func (hdr *Header) PRGPages() int { return int(hdr.raw[4]) }
func (hdr *Header) CHRPages() int { return int(hdr.raw[5]) }

// Mapper returns the mapper number, built from the high nibbles of bytes 6
// and 7.
func (hdr *Header) Mapper() uint8 {
	return hdr.raw[6]>>4 | hdr.raw[7]&0xF0
}

func (hdr *Header) Mirroring() Mirroring {
	switch {
	case hdr.raw[6]&0x08 != 0:
		return FourScreen
	case hdr.raw[6]&0x01 != 0:
		return Vertical
	}
	return Horizontal
}

func (hdr *Header) HasBattery() bool    { return hdr.raw[6]&0x02 != 0 }
func (hdr *Header) HasTrainer() bool    { return hdr.raw[6]&0x04 != 0 }
func (hdr *Header) IsVSUnisystem() bool { return hdr.raw[7]&0x01 != 0 }
func (hdr *Header) IsPlayChoice() bool  { return hdr.raw[7]&0x02 != 0 }
func (hdr *Header) IsNES2() bool        { return hdr.raw[7]&0x0C == 0x08 }

func (hdr *Header) decode(p []byte) error {
	if len(p) < HeaderSize {
		return fmt.Errorf("%w: header is %d bytes, need %d", ErrInvalidFormat, len(p), HeaderSize)
	}
	if string(p[:4]) != Magic {
		return fmt.Errorf("%w: bad magic %q", ErrInvalidFormat, p[:4])
	}
	copy(hdr.raw[:], p[:HeaderSize])

	if hdr.PRGPages() == 0 {
		return fmt.Errorf("%w: no PRG pages", ErrInvalidFormat)
	}
	if !hdr.IsNES2() {
		for i := 11; i < HeaderSize; i++ {
			if hdr.raw[i] != 0 {
				return fmt.Errorf("%w: header byte %d is %#02x, must be zero", ErrInvalidFormat, i, hdr.raw[i])
			}
		}
	}
	return nil
}

// Rom is a cartridge image.
type Rom struct {
	Header
	Trainer []byte // 512 bytes if present
	PRG     []byte // multiple of 16KiB
	CHR     []byte // multiple of 8KiB, empty if the cartridge uses CHR RAM
}

// Open reads and decodes the cartridge image at path.
func Open(path string) (*Rom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rom := new(Rom)
	if _, err := rom.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rom, nil
}

// Decode decodes a cartridge image from memory.
func Decode(buf []byte) (*Rom, error) {
	rom := new(Rom)
	if err := rom.decode(buf); err != nil {
		return nil, err
	}
	return rom, nil
}

// ReadFrom implements io.ReaderFrom.
func (rom *Rom) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return int64(len(buf)), err
	}
	return int64(len(buf)), rom.decode(buf)
}

func (rom *Rom) decode(buf []byte) error {
	if err := rom.Header.decode(buf); err != nil {
		return err
	}
	off := HeaderSize

	section := func(name string, size int) ([]byte, error) {
		if len(buf) < off+size {
			return nil, fmt.Errorf("%w: truncated %s section (%d bytes, need %d)", ErrInvalidFormat, name, len(buf)-off, size)
		}
		s := buf[off : off+size : off+size]
		off += size
		return s, nil
	}

	var err error
	if rom.HasTrainer() {
		if rom.Trainer, err = section("trainer", TrainerSize); err != nil {
			return err
		}
	}
	if rom.PRG, err = section("PRG", rom.PRGPages()*PRGPageSize); err != nil {
		return err
	}
	if rom.CHR, err = section("CHR", rom.CHRPages()*CHRPageSize); err != nil {
		return err
	}
	if extra := len(buf) - off; extra != 0 {
		return fmt.Errorf("%w: %d trailing bytes after the declared %d PRG and %d CHR pages", ErrInvalidFormat, extra, rom.PRGPages(), rom.CHRPages())
	}
	return nil
}

// Validate reports whether the image only uses supported features. Mapper
// specific checks (mapper number, bank counts) are left to the mappers.
func (rom *Rom) Validate() error {
	unsupported := func(what string) error {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, what)
	}
	switch {
	case rom.IsNES2():
		return unsupported("NES 2.0 header")
	case rom.HasTrainer():
		return unsupported("trainer")
	case rom.HasBattery():
		return unsupported("battery-backed RAM")
	case rom.IsVSUnisystem():
		return unsupported("VS Unisystem")
	case rom.IsPlayChoice():
		return unsupported("PlayChoice-10")
	case rom.Mirroring() == FourScreen:
		return unsupported("four-screen VRAM")
	}
	return nil
}

// Encode returns the binary image of rom.
func (rom *Rom) Encode() []byte {
	buf := make([]byte, 0, HeaderSize+len(rom.Trainer)+len(rom.PRG)+len(rom.CHR))
	buf = append(buf, rom.raw[:]...)
	buf = append(buf, rom.Trainer...)
	buf = append(buf, rom.PRG...)
	return append(buf, rom.CHR...)
}

// New returns an empty image with the given geometry, used to build test
// cartridges.
func New(mapper uint8, prgPages, chrPages int, mirroring Mirroring) *Rom {
	rom := &Rom{
		PRG: make([]byte, prgPages*PRGPageSize),
		CHR: make([]byte, chrPages*CHRPageSize),
	}
	copy(rom.raw[:], Magic)
	rom.raw[4] = uint8(prgPages)
	rom.raw[5] = uint8(chrPages)
	rom.raw[6] = mapper << 4
	rom.raw[7] = mapper & 0xF0
	switch mirroring {
	case Vertical:
		rom.raw[6] |= 0x01
	case FourScreen:
		rom.raw[6] |= 0x08
	}
	return rom
}
