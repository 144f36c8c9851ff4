//go:build !windows

package malloc

import "unsafe"

import "golang.org/x/sys/unix"

// systemAlloc asks the OS for a fresh, zero-filled anonymous mapping of
// numPages pages and returns its base address. Maps with
// mmap(MAP_ANON|MAP_PRIVATE) rather than sbrk, so a mapping can be
// handed back to the OS independently of every other mapping.
func systemAlloc(numPages int64) (uintptr, bool) {
	length := int(numPages * PageSize)
	b, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, false
	}
	// The mapping is anonymous OS memory, not Go-heap allocated; it is
	// safe to keep using addr after the []byte header itself is dropped.
	return uintptr(unsafe.Pointer(&b[0])), true
}
