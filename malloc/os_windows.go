//go:build windows

package malloc

import "golang.org/x/sys/windows"

// systemAlloc asks the OS for a fresh, zero-filled anonymous mapping of
// numPages pages and returns its base address, reserving and committing
// it in one call.
func systemAlloc(numPages int64) (uintptr, bool) {
	length := uintptr(numPages * PageSize)
	addr, err := windows.VirtualAlloc(0, length, windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return 0, false
	}
	return addr, true
}
