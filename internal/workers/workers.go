package workers

import (
	"os"
	"runtime"
	"strconv"
)

// scanMultiplier sizes enumeration workers at two per CPU. Directory
// walking is I/O bound; the extra workers keep requests queued at the
// filesystem while others wait on it.
const scanMultiplier = 2.0

// ForScan returns the worker count for parallel library enumeration.
// limit caps the pool; 0 means uncapped. The CRAWL_WORKERS environment
// variable overrides the computed count, still subject to the cap.
func ForScan(limit int) int {
	return Count(scanMultiplier, limit)
}

// Count derives a worker count from the available CPUs. GOMAXPROCS
// reflects the container CPU quota, so the pool shrinks with the
// container rather than the host.
func Count(multiplier float64, limit int) int {
	if env := os.Getenv("CRAWL_WORKERS"); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			return capped(n, limit)
		}
	}

	n := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if n < 1 {
		n = 1
	}
	return capped(n, limit)
}

func capped(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}
