package malloc

import "fmt"
import "time"

import s "github.com/prataprc/gosettings"

import "github.com/prataprc/tcmalloc/lib"

// Alignment every pooled block is a multiple of, and every address
// returned to a caller is aligned to.
const Alignment = int64(8)

// NumSizeClasses is the number of size classes C; class k holds blocks
// of exactly (k+1)*Alignment bytes.
const NumSizeClasses = int64(1024)

// MaxPooled is the largest request this package pools; requests above
// this bypass ThreadCache/CentralCache/PageCache entirely.
const MaxPooled = NumSizeClasses * Alignment

// PageSize is the OS page size this package maps in. 4KiB on every
// platform it currently targets.
const PageSize = int64(4096)

// TRelease is ThreadCache's high-water mark: once a size class's free
// list grows past this many blocks, it spills to CentralCache.
const TRelease = int64(1 << 17)

// MaxDelayCount is CentralCache's per-class drain trigger: fire a drain
// once this many blocks have been returned since the last one.
const MaxDelayCount = int64(48)

// MaxDelayDuration is CentralCache's per-class drain trigger: fire a
// drain once this long has elapsed since the last one, regardless of
// delayCount.
const MaxDelayDuration = 1000 * time.Millisecond

// TrackerCapacity bounds the number of live span trackers CentralCache
// can hold across all size classes. Overflow is tolerated: the span is
// still sliced and served, it is simply never returned to PageCache.
const TrackerCapacity = int64(1 << 16)

// sizeband classifies a chunk size into one of the batch/page bands the
// transfer schedule below is keyed by.
type sizeband int

const (
	bandTiny sizeband = iota
	bandSmall
	bandMedium
	bandLarge
	bandHuge
)

func bandOf(size int64) sizeband {
	switch {
	case size <= 64:
		return bandTiny
	case size <= 128:
		return bandSmall
	case size <= 256:
		return bandMedium
	case size <= 512:
		return bandLarge
	case size <= 1024:
		return bandHuge
	default:
		return bandHuge + 1
	}
}

// batchSchedule is the batch(k) table: number of blocks CentralCache
// transfers to ThreadCache (and accepts back) in one locked operation,
// keyed by size(k)'s band. Smaller classes get bigger batches to
// amortize the per-class spinlock.
var batchSchedule = map[sizeband]int64{
	bandTiny:     160,
	bandSmall:    128,
	bandMedium:   64,
	bandLarge:    32,
	bandHuge:     24,
	bandHuge + 1: 8,
}

// pageMultiplier is k_mul(k): a new span targets k_mul(k)*batch(k)
// blocks, expressed as a multiplier on the batch size.
var pageMultiplier = map[sizeband]int64{
	bandTiny:     12,
	bandSmall:    10,
	bandMedium:   8,
	bandLarge:    6,
	bandHuge:     4,
	bandHuge + 1: 4,
}

// maxPagesPerSpan clamps pages(k) from above.
var maxPagesPerSpan = map[sizeband]int64{
	bandTiny:     16,
	bandSmall:    16,
	bandMedium:   8,
	bandLarge:    8,
	bandHuge:     4,
	bandHuge + 1: 4,
}

// batch returns batch(k): how many blocks of this size CentralCache
// moves per locked transfer.
func batch(size int64) int64 {
	return batchSchedule[bandOf(size)]
}

// pages computes pages(k): how many OS pages a freshly carved span of
// this size class should span, clamped to [1, maxPages].
func pages(size int64) int64 {
	band := bandOf(size)
	target := pageMultiplier[band] * batch(size) * size
	p := (target + PageSize - 1) / PageSize
	if p < 1 {
		p = 1
	}
	if max := maxPagesPerSpan[band]; p > max {
		p = max
	}
	return p
}

// Defaultsettings returns the package's tunable constants as a
// gosettings.Settings, for introspection only: every one of these is a
// compile-time constant, never read on the allocate/deallocate fast
// path.
func Defaultsettings() s.Settings {
	return s.Settings{
		"alignment":         Alignment,
		"numsizeclasses":    NumSizeClasses,
		"pagesize":          PageSize,
		"trelease":          TRelease,
		"maxdelaycount":     MaxDelayCount,
		"maxdelaydurationms": int64(MaxDelayDuration / time.Millisecond),
		"trackercapacity":   TrackerCapacity,
	}
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}

// validateSettings scopes setts down to its "malloc." namespace and
// checks it against this build's compiled-in constants. Size classes
// stay compile-time; this only catches a caller linking against a
// different build than the one its settings describe.
func validateSettings(setts lib.Settings) {
	scoped := setts.Section("malloc").Trim("malloc.")
	if len(scoped) == 0 {
		return
	}
	if v, ok := scoped["alignment"]; ok {
		if scoped.Int64("alignment") != Alignment {
			panicerr("malloc: settings alignment %v does not match build's %v", v, Alignment)
		}
	}
	if v, ok := scoped["maxpooled"]; ok {
		if scoped.Int64("maxpooled") != MaxPooled {
			panicerr("malloc: settings maxpooled %v does not match build's %v", v, MaxPooled)
		}
	}
	if v, ok := scoped["maxdelaydurationms"]; ok {
		if scoped.Duration("maxdelaydurationms") != MaxDelayDuration {
			panicerr("malloc: settings maxdelaydurationms %v does not match build's %v", v, MaxDelayDuration)
		}
	}
}
