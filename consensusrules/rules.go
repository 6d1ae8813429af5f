package consensusrules

import "sort"

// MedianTimePast returns the median of timestamps, which the caller
// supplies as up to MedianTimeSpan most-recent ancestor timestamps (fewer
// for heights below MedianTimeSpan).
func MedianTimePast(timestamps []uint32) uint32 {
	if len(timestamps) == 0 {
		return 0
	}
	sorted := append([]uint32(nil), timestamps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)/2]
}

// IsFutureTimestamp reports whether timestamp sits more than
// MaxFutureDriftSec ahead of wallClockUnix.
func IsFutureTimestamp(timestamp uint32, wallClockUnix int64) bool {
	return int64(timestamp) > wallClockUnix+MaxFutureDriftSec
}
