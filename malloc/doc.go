// Package malloc implements a thread-caching small/medium block
// allocator, structured as three tiers:
//
//   - ThreadCache, one per goroutine lease, lock-free.
//   - CentralCache, a size-class-sharded pool shared by all threads.
//   - PageCache, a page-granular backing store talking to the OS.
//
// Allocation flows ThreadCache -> CentralCache -> PageCache -> OS mapping;
// deallocation reverses the path with hysteresis at each tier so that a
// short-lived burst of frees doesn't immediately trade locks for pages.
//
// Only blocks of size <= MaxPooled are handled here; oversized requests
// are the caller's responsibility (see the galloc package).
package malloc

// TODO: pages are never returned to the OS once mapped; PageCache only
// coalesces and re-serves them.
