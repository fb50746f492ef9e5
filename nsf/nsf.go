// Package nsf reads NES Sound Format files.
package nsf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"nescore/ines"
)

// Error kinds shared with cartridge images, so that callers can check both
// with a single errors.Is.
var (
	ErrInvalidFormat     = ines.ErrInvalidFormat
	ErrUnsupportedFormat = ines.ErrUnsupportedFormat
)

const (
	Magic      = "NESM\x1a"
	HeaderSize = 0x80
)

// Region support bits.
const (
	RegionPAL  = 1 << 0
	RegionDual = 1 << 1
)

// Chip is an extra sound chip a song may require.
type Chip uint8

const (
	ChipVRC6 Chip = 1 << iota
	ChipVRC7
	ChipFDS
	ChipMMC5
	ChipNamco163
	ChipSunsoft5B

	chipReserved Chip = 0xC0
)

var chipNames = [...]string{"VRC6", "VRC7", "FDS", "MMC5", "N163", "5B"}

func (c Chip) String() string {
	var buf bytes.Buffer
	for i, name := range chipNames {
		if c&(1<<i) != 0 {
			if buf.Len() > 0 {
				buf.WriteByte('|')
			}
			buf.WriteString(name)
		}
	}
	if buf.Len() == 0 {
		return "none"
	}
	return buf.String()
}

// Header is the decoded 128-byte NSF header.
type Header struct {
	Version     uint8
	Songs       uint8
	StartSong   uint8 // 0-based
	LoadAddr    uint16
	InitAddr    uint16
	PlayAddr    uint16
	Name        string
	Artist      string
	Copyright   string
	NTSCSpeed   uint16 // play routine period, in microseconds
	Banks       [8]uint8
	PALSpeed    uint16
	Region      uint8
	Chips       Chip
	UsesBanking bool
}

// File is a decoded NSF file.
type File struct {
	Header
	Data []byte // program data, loaded at LoadAddr (or in banks)
}

func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	nsf, err := Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return nsf, nil
}

func Decode(buf []byte) (*File, error) {
	var f File
	if err := f.Header.decode(buf); err != nil {
		return nil, err
	}
	if len(buf) == HeaderSize {
		return nil, fmt.Errorf("%w: no program data", ErrInvalidFormat)
	}
	f.Data = buf[HeaderSize:]
	return &f, nil
}

func cstring(p []byte) (string, error) {
	i := bytes.IndexByte(p, 0)
	if i < 0 {
		return "", fmt.Errorf("%w: text field is not null-terminated", ErrInvalidFormat)
	}
	return string(p[:i]), nil
}

func (hdr *Header) decode(p []byte) error {
	if len(p) < HeaderSize {
		return fmt.Errorf("%w: header is %d bytes, need %d", ErrInvalidFormat, len(p), HeaderSize)
	}
	if string(p[:5]) != Magic {
		return fmt.Errorf("%w: bad magic %q", ErrInvalidFormat, p[:5])
	}

	le := binary.LittleEndian
	hdr.Version = p[5]
	hdr.Songs = p[6]
	if hdr.Songs == 0 {
		return fmt.Errorf("%w: no songs", ErrInvalidFormat)
	}
	if p[7] == 0 || p[7] > hdr.Songs {
		return fmt.Errorf("%w: starting song %d out of range [1,%d]", ErrInvalidFormat, p[7], hdr.Songs)
	}
	hdr.StartSong = p[7] - 1

	hdr.LoadAddr = le.Uint16(p[0x08:])
	hdr.InitAddr = le.Uint16(p[0x0A:])
	hdr.PlayAddr = le.Uint16(p[0x0C:])
	for _, a := range []struct {
		name string
		addr uint16
	}{{"load", hdr.LoadAddr}, {"init", hdr.InitAddr}, {"play", hdr.PlayAddr}} {
		if a.addr < 0x8000 {
			return fmt.Errorf("%w: %s address %#04x below $8000", ErrInvalidFormat, a.name, a.addr)
		}
	}

	var err error
	if hdr.Name, err = cstring(p[0x0E:0x2E]); err != nil {
		return err
	}
	if hdr.Artist, err = cstring(p[0x2E:0x4E]); err != nil {
		return err
	}
	if hdr.Copyright, err = cstring(p[0x4E:0x6E]); err != nil {
		return err
	}

	hdr.NTSCSpeed = le.Uint16(p[0x6E:])
	copy(hdr.Banks[:], p[0x70:0x78])
	hdr.PALSpeed = le.Uint16(p[0x78:])
	if hdr.NTSCSpeed == 0 || hdr.PALSpeed == 0 {
		return fmt.Errorf("%w: null playback period (ntsc=%d pal=%d)", ErrInvalidFormat, hdr.NTSCSpeed, hdr.PALSpeed)
	}
	hdr.Region = p[0x7A]

	hdr.Chips = Chip(p[0x7B])
	if hdr.Chips&chipReserved != 0 {
		return fmt.Errorf("%w: reserved sound chip bits set (%#02x)", ErrInvalidFormat, p[0x7B])
	}
	for _, b := range hdr.Banks {
		if b != 0 {
			hdr.UsesBanking = true
			break
		}
	}
	return nil
}

// Validate reports whether the file can be played by a stock console.
func (f *File) Validate() error {
	if f.Chips != 0 {
		return fmt.Errorf("%w: requires extra sound chips: %s", ErrUnsupportedFormat, f.Chips)
	}
	return nil
}

// Encode returns the binary image of f.
func (f *File) Encode() []byte {
	p := make([]byte, HeaderSize, HeaderSize+len(f.Data))
	le := binary.LittleEndian
	copy(p, Magic)
	p[5] = f.Version
	p[6] = f.Songs
	p[7] = f.StartSong + 1
	le.PutUint16(p[0x08:], f.LoadAddr)
	le.PutUint16(p[0x0A:], f.InitAddr)
	le.PutUint16(p[0x0C:], f.PlayAddr)
	copy(p[0x0E:0x2D], f.Name)
	copy(p[0x2E:0x4D], f.Artist)
	copy(p[0x4E:0x6D], f.Copyright)
	le.PutUint16(p[0x6E:], f.NTSCSpeed)
	copy(p[0x70:0x78], f.Banks[:])
	le.PutUint16(p[0x78:], f.PALSpeed)
	p[0x7A] = f.Region
	p[0x7B] = uint8(f.Chips)
	return append(p, f.Data...)
}
