package hwio

func GetBit8(v uint8, n uint) bool {
	return v&(1<<n) != 0
}

func SetBit8(v *uint8, n uint) {
	*v |= 1 << n
}

func ClearBit8(v *uint8, n uint) {
	*v &^= 1 << n
}

// SetBit8To sets or clears bit n of v.
func SetBit8To(v *uint8, n uint, set bool) {
	if set {
		SetBit8(v, n)
	} else {
		ClearBit8(v, n)
	}
}

func GetBit16(v uint16, n uint) bool {
	return v&(1<<n) != 0
}

// Reverse8 reverses the bit order of v (bit 7 becomes bit 0).
func Reverse8(v uint8) uint8 {
	v = (v&0xF0)>>4 | (v&0x0F)<<4
	v = (v&0xCC)>>2 | (v&0x33)<<2
	v = (v&0xAA)>>1 | (v&0x55)<<1
	return v
}
