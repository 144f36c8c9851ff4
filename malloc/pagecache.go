package malloc

import "sync"

import "github.com/prataprc/tcmalloc/internal/xlog"

// pageSpan is PageCache's own record of a span: (a) while free, linked
// into the bucket for its exact page count via next; (b) while served
// to CentralCache, sits only in addrIndex with next == nil.
type pageSpan struct {
	addr     uintptr
	numPages int64
	free     bool
	next     *pageSpan
}

// PageCache hands out whole spans of a requested page count, accepts
// them back, and coalesces a returned span forward with its immediate
// neighbour. One process-wide instance, coarse mutex, because its
// traffic is a small fraction of CentralCache's.
type PageCache struct {
	mu        sync.Mutex
	freeSpans map[int64]*pageSpan // page count -> free-list head
	addrIndex map[uintptr]*pageSpan
	mapped    int64 // total bytes ever obtained from the OS
}

func newPageCache() *PageCache {
	return &PageCache{
		freeSpans: make(map[int64]*pageSpan),
		addrIndex: make(map[uintptr]*pageSpan),
	}
}

var pageCacheOnce sync.Once
var pageCacheSingleton *PageCache

// thePageCache returns the process-wide PageCache, creating it lazily.
func thePageCache() *PageCache {
	pageCacheOnce.Do(func() { pageCacheSingleton = newPageCache() })
	return pageCacheSingleton
}

// AllocateSpan implements api.SpanSource for CentralCache: find the
// smallest free span with >= numPages, splitting off any excess; if
// none exists, obtain a fresh mapping from the OS.
func (pc *PageCache) AllocateSpan(numPages int64) uintptr {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	if best, ok := pc.smallestFit(numPages); ok {
		served := pc.unlinkHead(best)
		if best > numPages {
			remainderAddr := served.addr + uintptr(numPages*PageSize)
			remainder := &pageSpan{
				addr:     remainderAddr,
				numPages: best - numPages,
				free:     true,
			}
			pc.linkFree(remainder)
			pc.addrIndex[remainderAddr] = remainder
		}
		served.numPages = numPages
		served.free = false
		pc.addrIndex[served.addr] = served
		return served.addr
	}

	addr, ok := systemAlloc(numPages)
	if !ok {
		xlog.Warnf("malloc: pagecache: system_alloc(%d pages) failed", numPages)
		return 0
	}
	span := &pageSpan{addr: addr, numPages: numPages}
	pc.addrIndex[addr] = span
	pc.mapped += numPages * PageSize
	return addr
}

// smallestFit finds the smallest bucket key >= numPages with a
// non-empty free list.
func (pc *PageCache) smallestFit(numPages int64) (int64, bool) {
	best, found := int64(0), false
	for pc2, head := range pc.freeSpans {
		if head == nil || pc2 < numPages {
			continue
		}
		if !found || pc2 < best {
			best, found = pc2, true
		}
	}
	return best, found
}

// unlinkHead pops and returns the head of the free bucket for pageCount.
func (pc *PageCache) unlinkHead(pageCount int64) *pageSpan {
	head := pc.freeSpans[pageCount]
	pc.freeSpans[pageCount] = head.next
	if pc.freeSpans[pageCount] == nil {
		delete(pc.freeSpans, pageCount)
	}
	head.next, head.free = nil, false
	return head
}

// linkFree pushes span onto the head of its bucket.
func (pc *PageCache) linkFree(span *pageSpan) {
	span.free = true
	span.next = pc.freeSpans[span.numPages]
	pc.freeSpans[span.numPages] = span
}

// unlinkFree removes span from the middle (or head) of its bucket.
func (pc *PageCache) unlinkFree(span *pageSpan) {
	head := pc.freeSpans[span.numPages]
	if head == span {
		pc.freeSpans[span.numPages] = span.next
		if pc.freeSpans[span.numPages] == nil {
			delete(pc.freeSpans, span.numPages)
		}
		span.next, span.free = nil, false
		return
	}
	for cur := head; cur != nil; cur = cur.next {
		if cur.next == span {
			cur.next = span.next
			span.next, span.free = nil, false
			return
		}
	}
}

// DeallocateSpan implements api.SpanSource for CentralCache. It merges
// forward with the immediately-following span if that span is free.
// Coalescing never looks backward: a span that became free earlier and
// was already linked into its bucket is left alone.
func (pc *PageCache) DeallocateSpan(addr uintptr, numPages int64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	span, ok := pc.addrIndex[addr]
	if !ok {
		xlog.Debugf("malloc: pagecache: deallocate of unknown span %x ignored", addr)
		return
	}
	span.numPages = numPages

	nextAddr := addr + uintptr(numPages*PageSize)
	if next, ok := pc.addrIndex[nextAddr]; ok && next.free {
		pc.unlinkFree(next)
		delete(pc.addrIndex, nextAddr)
		span.numPages += next.numPages
	}
	pc.linkFree(span)
}

// Stats implements api.Statser.
func (pc *PageCache) Stats() map[string]interface{} {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	freeSpans, freePages := 0, int64(0)
	for pageCount, head := range pc.freeSpans {
		for cur := head; cur != nil; cur = cur.next {
			freeSpans++
			freePages += pageCount
		}
	}
	return map[string]interface{}{
		"mapped_bytes": pc.mapped,
		"live_spans":   len(pc.addrIndex),
		"free_spans":   freeSpans,
		"free_pages":   freePages,
	}
}
