package malloc

import "testing"
import "time"

import "github.com/prataprc/tcmalloc/lib"

func TestBatchMonotonic(t *testing.T) {
	// Smaller size classes should never get a smaller batch than a
	// larger one -- batch(k) amortizes the per-class spinlock more
	// aggressively for classes that churn faster.
	prev := batch(Alignment)
	for size := int64(2 * Alignment); size <= MaxPooled; size += Alignment {
		b := batch(size)
		if b > prev {
			t.Errorf("batch(%v)=%v exceeds batch of a smaller class (%v)", size, b, prev)
		}
		prev = b
	}
}

func TestPagesAtLeastOne(t *testing.T) {
	for size := Alignment; size <= MaxPooled; size += Alignment {
		if pages(size) < 1 {
			t.Errorf("pages(%v) = %v, expected >= 1", size, pages(size))
		}
	}
}

func TestValidateSettingsAcceptsMatchingBuild(t *testing.T) {
	setts := lib.Settings{
		"malloc.alignment": Alignment,
		"malloc.maxpooled": MaxPooled,
	}
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("unexpected panic for a matching build: %v", r)
		}
	}()
	validateSettings(setts)
}

func TestValidateSettingsRejectsMismatch(t *testing.T) {
	setts := lib.Settings{"malloc.alignment": Alignment + 1}
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic for a mismatched alignment")
		}
	}()
	validateSettings(setts)
}

func TestValidateSettingsIgnoresUnrelatedNamespace(t *testing.T) {
	setts := lib.Settings{"llrb.nodearena.size": int64(96)}
	validateSettings(setts) // must not panic: nothing under "malloc."
}

func TestValidateSettingsAcceptsMatchingDrainDuration(t *testing.T) {
	setts := lib.Settings{
		"malloc.maxdelaydurationms": int64(MaxDelayDuration / time.Millisecond),
	}
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("unexpected panic for a matching drain duration: %v", r)
		}
	}()
	validateSettings(setts)
}

func TestValidateSettingsRejectsMismatchedDrainDuration(t *testing.T) {
	setts := lib.Settings{
		"malloc.maxdelaydurationms": int64(MaxDelayDuration/time.Millisecond) + 1,
	}
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic for a mismatched drain duration")
		}
	}()
	validateSettings(setts)
}
