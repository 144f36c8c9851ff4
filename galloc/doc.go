// Package galloc is the public entry point: Allocate and Deallocate,
// backed by malloc.Arena for anything MaxPooled bytes or smaller, and
// by the OS allocator (cgo malloc/free; the pooled tiers map their own
// pages directly instead) for anything larger. It is
// deliberately thin — the tiered design lives in package malloc, this
// package only routes a request to the tier that can serve it.
package galloc
