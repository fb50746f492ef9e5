package hwio

import "math/bits"

// Bitset holds one bit per address of a 64KiB address space. The zero value
// is an empty set.
type Bitset struct {
	words [0x10000 / 64]uint64
}

func (b *Bitset) Set(addr uint16) {
	b.words[addr>>6] |= 1 << (addr & 63)
}

func (b *Bitset) Clear(addr uint16) {
	b.words[addr>>6] &^= 1 << (addr & 63)
}

func (b *Bitset) Test(addr uint16) bool {
	return b.words[addr>>6]&(1<<(addr&63)) != 0
}

// SetRange sets all bits in [start, end].
func (b *Bitset) SetRange(start, end uint16) {
	for a := int(start); a <= int(end); {
		if a&63 == 0 && a+63 <= int(end) {
			b.words[a>>6] = ^uint64(0)
			a += 64
			continue
		}
		b.Set(uint16(a))
		a++
	}
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

func (b *Bitset) Reset() {
	clear(b.words[:])
}
