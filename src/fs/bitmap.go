package fs

import "nucleus/src/defs"

// bitmap is a view over one 512-byte bitmap block (inode or data pool),
// bit index = resource index, LSB-first within each byte (spec.md §3).
// Ported from original_source's layout.rs Bitmap, which overlays a
// mutable byte slice directly rather than copying; this keeps the same
// shape since every caller here already holds a freshly read block
// buffer it intends to write straight back.
type bitmap struct {
	buf []byte
}

func (b bitmap) isSet(idx int) bool {
	byteIdx, bitIdx := idx/8, idx%8
	return b.buf[byteIdx]&(1<<uint(bitIdx)) != 0
}

// set marks idx allocated, returning EALREADYALLOC if it was already set
// (spec.md §8 bitmap invariant).
func (b bitmap) set(idx int) defs.Err_t {
	if b.isSet(idx) {
		return defs.EALREADYALLOC
	}
	byteIdx, bitIdx := idx/8, idx%8
	b.buf[byteIdx] |= 1 << uint(bitIdx)
	return 0
}

// clear marks idx free, returning EALREADYCLEAR if it was already clear.
func (b bitmap) clear(idx int) defs.Err_t {
	if !b.isSet(idx) {
		return defs.EALREADYCLEAR
	}
	byteIdx, bitIdx := idx/8, idx%8
	b.buf[byteIdx] &^= 1 << uint(bitIdx)
	return 0
}

// findAndSetFirstFree scans for the smallest clear bit, sets it, and
// returns its index; ok is false if every bit is already set (spec.md
// §8: "returns the smallest clear index (or none) and leaves that bit
// set").
func (b bitmap) findAndSetFirstFree() (idx int, ok bool) {
	for byteIdx, byteVal := range b.buf {
		if byteVal == 0xFF {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			if byteVal&(1<<uint(bit)) == 0 {
				i := byteIdx*8 + bit
				b.buf[byteIdx] |= 1 << uint(bit)
				return i, true
			}
		}
	}
	return 0, false
}
