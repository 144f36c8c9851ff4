package malloc

import "reflect"
import "unsafe"

// This file is the one place this package treats a free block's bytes
// as a pointer. Every other file only ever moves addr/uintptr values
// around; only nextlink/setNextlink dereference memory directly.
//
// A free block's first machine word holds the address of the next free
// block in its list (0 for the terminal block). Live blocks are never
// read this way — the caller owns their bytes exclusively.

// nextlink reads the next-pointer stored in the first word of the free
// block at addr.
func nextlink(addr uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(addr))
}

// setNextlink stores next as the free block at addr's next-pointer.
func setNextlink(addr uintptr, next uintptr) {
	*(*uintptr)(unsafe.Pointer(addr)) = next
}

// blockBytes exposes size bytes at addr as a byte slice, without
// copying. Used only by debug-build poisoning and by tests that need to
// write/read back through a raw address.
func blockBytes(addr uintptr, size int64) []byte {
	var b []byte
	sl := (*reflect.SliceHeader)(unsafe.Pointer(&b))
	sl.Data, sl.Len, sl.Cap = addr, int(size), int(size)
	return b
}

// aligned reports whether addr is a multiple of Alignment.
func aligned(addr uintptr) bool {
	return addr&uintptr(Alignment-1) == 0
}
