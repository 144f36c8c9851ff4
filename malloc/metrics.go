package malloc

import humanize "github.com/dustin/go-humanize"
import sigar "github.com/cloudfoundry/gosigar"

// Prettystats renders Arena.Stats() (or any nested stats map) as a flat
// map of human-readable strings, mirroring how llrb_stats.go's
// map[string]interface{} accumulators get formatted for reporting.
// Byte counts are detected by a "bytes" key suffix and run through
// humanize.Bytes.
func Prettystats(stats map[string]interface{}) map[string]string {
	out := make(map[string]string)
	flatten("", stats, out)
	return out
}

func flatten(prefix string, in map[string]interface{}, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch vv := v.(type) {
		case map[string]interface{}:
			flatten(key, vv, out)
		case int64:
			out[key] = formatValue(key, vv)
		case int:
			out[key] = formatValue(key, int64(vv))
		}
	}
}

func formatValue(key string, n int64) string {
	if n < 0 {
		return humanize.Comma(n)
	}
	if isByteMetric(key) {
		return humanize.Bytes(uint64(n))
	}
	return humanize.Comma(n)
}

func isByteMetric(key string) bool {
	for _, suffix := range []string{"bytes", "mapped_bytes"} {
		if len(key) >= len(suffix) && key[len(key)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}

// SystemMemory reports the host's total and free memory via gosigar.
// PageCache has no fixed ceiling of its own, so callers sizing a
// process-wide memory budget need this to pick one externally.
func SystemMemory() (total, free uint64, err error) {
	mem := sigar.Mem{}
	if err = mem.Get(); err != nil {
		return 0, 0, err
	}
	return mem.Total, mem.Free, nil
}
