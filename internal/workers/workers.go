// Package workers sizes the checksum worker pool.
package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that pins the worker count
const EnvOverride = "CRC_WORKERS"

// Count returns the number of workers for a task with the given multiplier
// of GOMAXPROCS, which follows container CPU limits.
//
// The limit parameter caps the result; use 0 for no limit. CRC_WORKERS
// overrides the computed value but is still capped by limit.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
// Checksumming ROM images is dominated by disk reads.
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// Resolve returns requested when positive, otherwise ForIO(limit)
func Resolve(requested, limit int) int {
	if requested > 0 {
		return requested
	}
	return ForIO(limit)
}
