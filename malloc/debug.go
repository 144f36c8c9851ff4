//go:build debug

// +build debug

package malloc

import "github.com/prataprc/tcmalloc/internal/xlog"

// assert checks an internal invariant and aborts only in debug builds;
// in release builds it is a no-op, since a violation here indicates a
// bug in this package rather than something a caller did.
func assert(cond bool, fmsg string, args ...interface{}) {
	if !cond {
		panicerr(fmsg, args...)
	}
}

// poison overwrites a freshly-freed block with a recognizable byte
// pattern so a subsequent use-after-free shows up as garbage instead of
// silently reading stale data.
func poison(addr uintptr, size int64) {
	dst := blockBytes(addr, size)
	for i := range dst {
		dst[i] = 0xcc
	}
}

func init() {
	xlog.Debugf("malloc: debug build, assertions and poisoning enabled")
}
