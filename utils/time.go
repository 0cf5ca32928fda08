package utils

import "time"

// NowMillis returns the current wall clock as unix milliseconds, the
// timestamp unit used on blocks and wire messages.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
