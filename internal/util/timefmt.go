package util

import (
	"fmt"
	"math"
)

// maxFormattableSeconds keeps the int conversion below well defined.
const maxFormattableSeconds = 1 << 52

// TimeInSecondsToString formats seconds as "M:SS", or "H:MM:SS" from one hour
// up. Media that has not loaded reports NaN, live streams report +Inf, and
// neither has a meaningful position, so both (and negatives) format as "0:00".
func TimeInSecondsToString(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 || seconds >= maxFormattableSeconds {
		return "0:00"
	}
	total := int64(math.Floor(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
