package hw

// loopy is the layout of the v and t scroll registers:
//
//	yyy NN YYYYY XXXXX
//	||| || ||||| +++++-- coarse X scroll
//	||| || +++++-------- coarse Y scroll
//	||| ++-------------- nametable select
//	+++----------------- fine Y scroll
type loopy uint16

const (
	coarseXMask loopy = 0x001F
	coarseYMask loopy = 0x03E0
	ntXMask     loopy = 0x0400
	ntYMask     loopy = 0x0800
	fineYMask   loopy = 0x7000
)

func (l loopy) coarseX() uint16 { return uint16(l & coarseXMask) }
func (l loopy) coarseY() uint16 { return uint16(l&coarseYMask) >> 5 }
func (l loopy) fineY() uint16   { return uint16(l&fineYMask) >> 12 }

// tileAddr is the nametable address of the current tile.
func (l loopy) tileAddr() uint16 {
	return 0x2000 | uint16(l)&0x0FFF
}

// attrAddr is the attribute table address of the current tile.
func (l loopy) attrAddr() uint16 {
	v := uint16(l)
	return 0x23C0 | v&0x0C00 | (v>>4)&0x38 | (v>>2)&0x07
}

// attrShift is the position of the 2-bit palette of the current tile within
// its attribute byte.
func (l loopy) attrShift() uint8 {
	v := uint16(l)
	return uint8((v>>4)&4 | v&2)
}

// incrementX moves to the next tile, switching horizontal nametable when
// coarse X wraps.
func (l *loopy) incrementX() {
	if *l&coarseXMask == 31 {
		*l &^= coarseXMask
		*l ^= ntXMask
	} else {
		*l++
	}
}

// incrementY moves to the next pixel row. Coarse Y wraps at 29 switching
// vertical nametable; rows 30 and 31 (attribute memory) wrap without switching.
func (l *loopy) incrementY() {
	if *l&fineYMask != fineYMask {
		*l += 0x1000
		return
	}
	*l &^= fineYMask
	y := l.coarseY()
	switch y {
	case 29:
		y = 0
		*l ^= ntYMask
	case 31:
		y = 0
	default:
		y++
	}
	*l = *l&^coarseYMask | loopy(y<<5)
}

// copyX copies the horizontal components of t into l.
func (l *loopy) copyX(t loopy) {
	const mask = coarseXMask | ntXMask
	*l = *l&^mask | t&mask
}

// copyY copies the vertical components of t into l.
func (l *loopy) copyY(t loopy) {
	const mask = coarseYMask | ntYMask | fineYMask
	*l = *l&^mask | t&mask
}
