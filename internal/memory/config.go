package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"media-catalog/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The remainder covers ffmpeg frame grabs, libvips buffers, and
// goroutine stacks, none of which count against GOMEMLIMIT.
const DefaultMemoryRatio = 0.85

// ConfigResult reports how the heap limit was derived.
type ConfigResult struct {
	Configured bool

	// Source is "GOMEMLIMIT", "MEMORY_LIMIT", or "none".
	Source string

	// ContainerLimit is the container memory limit in bytes, zero when
	// MEMORY_LIMIT was not supplied.
	ContainerLimit int64

	// GoMemLimit is the heap limit that ended up in effect.
	GoMemLimit int64

	// Ratio is the fraction of ContainerLimit applied.
	Ratio float64
}

// ConfigureFromEnv derives GOMEMLIMIT from the container's memory limit.
// Called first thing in main, before the catalog load allocates.
//
// An explicit GOMEMLIMIT wins. Otherwise MEMORY_LIMIT (bytes, typically
// injected from the container runtime) scaled by MEMORY_RATIO sets the
// limit. With neither present the heap runs unbounded and crawl
// backpressure stays off.
func ConfigureFromEnv() ConfigResult {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		result := ConfigResult{Source: "GOMEMLIMIT"}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return result
	}

	env := os.Getenv("MEMORY_LIMIT")
	if env == "" {
		logging.Debug("MEMORY_LIMIT not set, heap limit left unconfigured")
		return ConfigResult{Source: "none"}
	}
	containerLimit, err := strconv.ParseInt(env, 10, 64)
	if err != nil {
		logging.Warn("Ignoring unparseable MEMORY_LIMIT %q: %v", env, err)
		return ConfigResult{Source: "none"}
	}

	ratio := ratioFromEnv()
	heapLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(heapLimit)

	logging.Info("Heap limit %s (%.0f%% of %s container limit)",
		formatBytes(heapLimit), ratio*100, formatBytes(containerLimit))

	return ConfigResult{
		Configured:     true,
		Source:         "MEMORY_LIMIT",
		ContainerLimit: containerLimit,
		GoMemLimit:     heapLimit,
		Ratio:          ratio,
	}
}

// ratioFromEnv reads MEMORY_RATIO, holding the default on a missing,
// unparseable, or out-of-range value.
func ratioFromEnv() float64 {
	env := os.Getenv("MEMORY_RATIO")
	if env == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(env, 64)
	if err != nil {
		logging.Warn("Ignoring unparseable MEMORY_RATIO %q: %v", env, err)
		return DefaultMemoryRatio
	}
	if ratio <= 0 || ratio > 1.0 {
		logging.Warn("MEMORY_RATIO %v outside (0, 1], using %.2f", ratio, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
