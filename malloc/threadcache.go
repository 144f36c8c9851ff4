package malloc

import "sync"
import "unsafe"

import "github.com/prataprc/tcmalloc/api"
import "github.com/prataprc/tcmalloc/lib"

// ThreadCache is the per-lease free-list tier. Go has no stable
// analogue of OS-thread-local storage, so instead of pinning one
// ThreadCache per OS thread for the life of the process, each
// Allocate/Deallocate call leases one from threadCachePool for the
// duration of that single call only (see lease/unlease below). While
// leased, a ThreadCache is exclusively owned by its caller, so its own
// free lists need no locking at all, just scoped to a call instead of a
// goroutine's lifetime.
type ThreadCache struct {
	lists   [NumSizeClasses]uintptr
	counts  [NumSizeClasses]int64
	central *CentralCache
}

func newThreadCache() *ThreadCache {
	return &ThreadCache{central: theCentralCache()}
}

var threadCachePool = sync.Pool{
	New: func() interface{} { return newThreadCache() },
}

func lease() *ThreadCache {
	return threadCachePool.Get().(*ThreadCache)
}

func unlease(tc *ThreadCache) {
	threadCachePool.Put(tc)
}

// allocate pops one block of size off this class's list, refilling
// from CentralCache first if the list is empty.
func (tc *ThreadCache) allocate(class int64) uintptr {
	if tc.lists[class] == 0 {
		head, n := tc.central.FetchToThreadCache(class)
		tc.lists[class] = head
		tc.counts[class] += n
	}
	addr := tc.lists[class]
	if addr == 0 {
		return 0
	}
	tc.lists[class] = nextlink(addr)
	tc.counts[class]--
	setNextlink(addr, 0)
	return addr
}

// deallocate pushes addr back onto this class's list, then spills most
// of it to CentralCache once the list crosses TRelease, the hysteresis
// that keeps a single hot class from pinning an unbounded number of
// blocks in one lease. The spill keeps a keep-prefix of count/4 blocks
// as the new local list and returns the remaining suffix, so a class
// that just crossed the high-water mark doesn't immediately refill.
func (tc *ThreadCache) deallocate(class int64, addr uintptr) {
	setNextlink(addr, tc.lists[class])
	tc.lists[class] = addr
	tc.counts[class]++

	if tc.counts[class] <= TRelease {
		return
	}
	total := tc.counts[class]
	keep := total / 4
	if keep < 1 {
		keep = 1
	}
	head := tc.lists[class]
	_, kept, returned := detachChain(head, keep)
	tc.counts[class] = kept
	tc.central.ReceiveFromThreadCache(class, returned, total-kept)
}

// Arena is the package's api.Allocator: every call leases a ThreadCache
// for its duration, so the only state Arena itself keeps is a running
// distribution of request sizes, for Stats.
type Arena struct {
	sizeMu  sync.Mutex
	sizeAvg lib.AverageInt64
}

// NewArena returns an Allocator backed by the ThreadCache/CentralCache/
// PageCache tiers. Requests above MaxPooled are refused (nil return);
// package galloc is the facade that falls back to the OS allocator for
// those.
func NewArena() *Arena { return &Arena{} }

// NewArenaFromSettings is NewArena plus a validation pass: setts is
// scoped to its "malloc." namespace and checked against this build's
// compiled-in Alignment/MaxPooled/MaxDelayDuration, so a caller carrying settings meant
// for a different build fails loudly instead of silently misreading
// addresses later.
func NewArenaFromSettings(setts lib.Settings) *Arena {
	validateSettings(setts)
	return NewArena()
}

var _ api.Allocator = (*Arena)(nil)
var _ api.Statser = (*Arena)(nil)

// Allocate returns a block of exactly n bytes rounded up to the
// alignment, or nil if n is zero or exceeds MaxPooled.
func (a *Arena) Allocate(n uintptr) unsafe.Pointer {
	size := int64(n)
	if size <= 0 || size > MaxPooled {
		return nil
	}
	class := classOf(size)

	tc := lease()
	addr := tc.allocate(class)
	unlease(tc)

	if addr == 0 {
		return nil
	}
	a.sizeMu.Lock()
	a.sizeAvg.Add(size)
	a.sizeMu.Unlock()
	assert(aligned(addr), "malloc: allocate returned misaligned address %x", addr)
	return unsafe.Pointer(addr)
}

// Deallocate returns a block obtained from Allocate(n) to its size
// class's free lists. n must match the size originally requested.
func (a *Arena) Deallocate(ptr unsafe.Pointer, n uintptr) {
	if ptr == nil {
		return
	}
	size := int64(n)
	if size <= 0 || size > MaxPooled {
		return
	}
	class := classOf(size)
	addr := uintptr(ptr)
	poison(addr, size)

	tc := lease()
	tc.deallocate(class, addr)
	unlease(tc)
}

// Stats aggregates CentralCache and PageCache occupancy plus a running
// distribution of requested sizes. ThreadCache leases are too
// short-lived and too numerous to usefully report on individually.
func (a *Arena) Stats() map[string]interface{} {
	a.sizeMu.Lock()
	sizeAvg := a.sizeAvg.Clone()
	a.sizeMu.Unlock()

	return map[string]interface{}{
		"central": theCentralCache().Stats(),
		"page":    thePageCache().Stats(),
		"request_size": map[string]interface{}{
			"samples": sizeAvg.Samples(),
			"min":     sizeAvg.Min(),
			"max":     sizeAvg.Max(),
			"mean":    sizeAvg.Mean(),
		},
	}
}
