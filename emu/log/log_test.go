package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/go-faster/jx"
	"github.com/google/go-cmp/cmp"
)

type pcContext struct{ pc uint16 }

func (c *pcContext) AddLogContext(z *EntryZ) { z.Hex16("pc", c.pc) }

func captureJSON(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	if err := SetFormat("json"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		Disable()
		SetFormat("text")
		DisableDebugModules(ModuleMaskAll)
	})
	return buf
}

func decodeFields(t *testing.T, line []byte) map[string]string {
	t.Helper()
	got := make(map[string]string)
	err := jx.DecodeBytes(line).Obj(func(d *jx.Decoder, key string) error {
		if key == "time" {
			return d.Skip()
		}
		s, err := d.Str()
		got[key] = s
		return err
	})
	if err != nil {
		t.Fatalf("invalid json %q: %v", line, err)
	}
	return got
}

func TestEntryZDisabled(t *testing.T) {
	buf := captureJSON(t)

	var z *EntryZ = ModPPU.DebugZ("not logged")
	if z != nil {
		t.Fatalf("DebugZ on disabled module = %p, want nil", z)
	}
	// All builders must be nil-safe.
	z.String("s", "v").Hex8("h8", 1).Hex16("h16", 2).Uint64("u", 3).
		Bool("b", true).Error("err", errors.New("x")).Blob("blob", []byte{1}).End()

	if buf.Len() != 0 {
		t.Errorf("disabled entry produced output: %q", buf.String())
	}
}

func TestEntryZJSON(t *testing.T) {
	buf := captureJSON(t)
	EnableDebugModules(ModCPU.Mask())

	ctx := &pcContext{pc: 0xC000}
	AddContext(ctx)
	defer RemoveContext(ctx)

	ModCPU.DebugZ("fetch").Hex8("op", 0xA9).Uint16("cycles", 7).Bool("nmi", false).End()

	want := map[string]string{
		"level":  "debug",
		"msg":    "fetch",
		"_mod":   "cpu",
		"op":     "a9",
		"cycles": "7",
		"nmi":    "false",
		"pc":     "c000",
	}
	got := decodeFields(t, bytes.TrimSpace(buf.Bytes()))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestWarningsAlwaysEnabled(t *testing.T) {
	buf := captureJSON(t)

	ModMapper.WarnZ("unsupported write").Hex16("addr", 0x8000).End()
	if !strings.Contains(buf.String(), `"unsupported write"`) {
		t.Errorf("warning not logged: %q", buf.String())
	}
}

func TestParseModules(t *testing.T) {
	tests := []struct {
		list    string
		want    ModuleMask
		wantErr bool
	}{
		{list: "", want: 0},
		{list: "cpu", want: ModCPU.Mask()},
		{list: "cpu,ppu", want: ModCPU.Mask() | ModPPU.Mask()},
		{list: "all", want: ModuleMaskAll},
		{list: "no", want: 0},
		{list: "cpu,bogus", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseModules(tt.list)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseModules(%q) error = %v, wantErr %t", tt.list, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseModules(%q) = %x, want %x", tt.list, got, tt.want)
		}
	}
}
