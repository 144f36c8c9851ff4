package malloc

import "unsafe"

import "github.com/prataprc/tcmalloc/lib"

// slotbits is a stable-index free-slot allocator: allocate() hands out
// an index in [0, capacity) and marks it used; free(idx) returns it. An
// index is never reused by relocating another live entry into it the
// way a swap-with-last compaction would — it is only handed out again
// after an explicit free() of that same index.
//
// Span trackers get permanently-addressed slots this way, so a reader
// holding an index never races with a retirement relocating a different
// tracker into that slot.
//
// Internally a flat bitmap, one bit per slot, using the same lib.Bit8
// primitives a chunk-tracking bitmap would use to mark free/used blocks
// within a pool; here the "chunks" are tracker table indices instead of
// memory blocks.
type slotbits struct {
	capacity int64
	words    []uint8 // capacity/8 bytes, bit set means free
	scan     int64   // byte offset to resume the next allocate() scan from
}

func newslotbits(capacity int64) *slotbits {
	if (capacity & 0x7) != 0 {
		panicerr("slotbits: capacity must be a multiple of 8")
	}
	sb := &slotbits{
		capacity: capacity,
		words:    make([]uint8, capacity/8),
	}
	for i := range sb.words {
		sb.words[i] = 0xff
	}
	return sb
}

// sizeof returns the byte footprint of this table, for Stats reporting.
func (sb *slotbits) sizeof() int64 {
	return int64(unsafe.Sizeof(*sb)) + int64(len(sb.words))
}

// free_count returns the number of unallocated slots.
func (sb *slotbits) free_count() (n int64) {
	for _, byt := range sb.words {
		n += int64(lib.Bit8(byt).Ones())
	}
	return
}

// allocate returns a free slot index and marks it used, or (-1, false)
// if the table is full.
func (sb *slotbits) allocate() (int64, bool) {
	nwords := int64(len(sb.words))
	for i := int64(0); i < nwords; i++ {
		off := (sb.scan + i) % nwords
		byt := sb.words[off]
		if byt == 0 {
			continue
		}
		n := lib.Bit8(byt).Findfirstset()
		sb.words[off] = uint8(lib.Bit8(byt).Clearbit(uint8(n)))
		sb.scan = off
		return off*8 + int64(n), true
	}
	return -1, false
}

// free returns idx to the pool of allocatable slots.
func (sb *slotbits) free(idx int64) {
	q, r := idx/8, uint8(idx%8)
	sb.words[q] = uint8(lib.Bit8(sb.words[q]).Setbit(r))
	if q < sb.scan {
		sb.scan = q
	}
}
