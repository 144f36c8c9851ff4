package galloc

import "testing"
import "unsafe"

func TestAllocateDeallocatePooled(t *testing.T) {
	p := Allocate(128)
	if p == nil {
		t.Fatalf("expected a non-nil pointer")
	}
	dst := (*[128]byte)(unsafe.Pointer(p))
	for i := range dst {
		dst[i] = byte(i)
	}
	Deallocate(p, 128)
}

func TestAllocateOversizedFallsBackToOS(t *testing.T) {
	huge := uintptr(1 << 20) // well above malloc.MaxPooled
	p := Allocate(huge)
	if p == nil {
		t.Fatalf("expected the OS allocator to serve an oversized request")
	}
	Deallocate(p, huge)
}

func TestAllocateZeroIsNil(t *testing.T) {
	if p := Allocate(0); p != nil {
		t.Errorf("expected nil for a zero-byte request")
	}
}

func TestStatsReportsPooledTiersOnly(t *testing.T) {
	Allocate(64)
	stats := Stats()
	if _, ok := stats["central"]; !ok {
		t.Errorf("expected a central cache summary in stats")
	}
	if _, ok := stats["page"]; !ok {
		t.Errorf("expected a page cache summary in stats")
	}
}
