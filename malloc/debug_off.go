//go:build !debug

// +build !debug

package malloc

func assert(cond bool, fmsg string, args ...interface{}) {}

func poison(addr uintptr, size int64) {}
