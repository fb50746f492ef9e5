package hwio

import "testing"

func TestBitset(t *testing.T) {
	var b Bitset
	if n := b.Count(); n != 0 {
		t.Fatalf("zero Bitset has %d bits set", n)
	}

	b.Set(0)
	b.Set(0x8000)
	b.Set(0xFFFF)
	for _, a := range []uint16{0, 0x8000, 0xFFFF} {
		if !b.Test(a) {
			t.Errorf("bit %04x not set", a)
		}
	}
	if b.Test(1) || b.Test(0x7FFF) {
		t.Errorf("unexpected bits set")
	}

	b.Clear(0x8000)
	if b.Test(0x8000) {
		t.Errorf("bit 8000 still set after Clear")
	}
	if n := b.Count(); n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}

	b.Reset()
	b.SetRange(0x10, 0x1FF)
	if n := b.Count(); n != 0x1F0 {
		t.Errorf("Count() after SetRange = %d, want %d", n, 0x1F0)
	}
	if b.Test(0x0F) || !b.Test(0x10) || !b.Test(0x1FF) || b.Test(0x200) {
		t.Errorf("SetRange bounds not respected")
	}

	b.Reset()
	b.SetRange(0xFFF0, 0xFFFF)
	if n := b.Count(); n != 16 {
		t.Errorf("Count() after SetRange at top = %d, want 16", n)
	}
}

func TestReverse8(t *testing.T) {
	tests := map[uint8]uint8{
		0x00: 0x00,
		0x01: 0x80,
		0x80: 0x01,
		0xF0: 0x0F,
		0xA5: 0xA5,
		0x13: 0xC8,
	}
	for in, want := range tests {
		if got := Reverse8(in); got != want {
			t.Errorf("Reverse8(%02x) = %02x, want %02x", in, got, want)
		}
	}
}
