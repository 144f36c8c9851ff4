package galloc

//#include <stdlib.h>
import "C"

import "unsafe"

import "github.com/prataprc/tcmalloc/malloc"

var arena = malloc.NewArena()

// Allocate returns a block of n bytes. Requests of malloc.MaxPooled
// bytes or less are served by the ThreadCache/CentralCache/PageCache
// tiers; anything larger bypasses them and goes straight to the OS
// allocator.
func Allocate(n uintptr) unsafe.Pointer {
	if n == 0 {
		return nil
	}
	if int64(n) <= malloc.MaxPooled {
		return arena.Allocate(n)
	}
	return C.malloc(C.size_t(n))
}

// Deallocate returns a block obtained from Allocate. n must be the
// same size originally requested; the caller is responsible for
// remembering it, exactly as with the original C.malloc/C.free pair
// this replaces for the oversized path.
func Deallocate(ptr unsafe.Pointer, n uintptr) {
	if ptr == nil {
		return
	}
	if int64(n) <= malloc.MaxPooled {
		arena.Deallocate(ptr, n)
		return
	}
	C.free(ptr)
}

// Stats reports occupancy for the pooled tiers only; oversized
// allocations are not tracked once handed off to the OS allocator.
func Stats() map[string]interface{} {
	return arena.Stats()
}
