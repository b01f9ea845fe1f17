package analysis

import "sort"

// DefaultIntervalMinutes is reported when no sampling period can be inferred.
const DefaultIntervalMinutes = 60

const (
	intervalSampleSize = 100
	maxIntervalMinutes = 240
)

var standardIntervals = []int{1, 5, 10, 15, 30, 60, 120, 180, 240}

// DetectInterval infers the dominant sampling period in minutes from the first
// readings. Duplicate timestamps and gaps longer than four hours are ignored.
func DetectInterval(readings []ParsedReading) int {
	n := len(readings)
	if n > intervalSampleSize {
		n = intervalSampleSize
	}
	if n < 2 {
		return DefaultIntervalMinutes
	}
	stamps := make([]int64, n)
	for i := 0; i < n; i++ {
		stamps[i] = readings[i].Timestamp().minutes()
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	counts := map[int]int{}
	for i := 1; i < n; i++ {
		delta := stamps[i] - stamps[i-1]
		if delta <= 0 || delta > maxIntervalMinutes {
			continue
		}
		counts[nearestStandardInterval(int(delta))]++
	}
	best, bestCount := DefaultIntervalMinutes, 0
	for _, iv := range standardIntervals {
		if counts[iv] > bestCount {
			best, bestCount = iv, counts[iv]
		}
	}
	return best
}

// nearestStandardInterval rounds to the closest standard period; ties go to the
// shorter one.
func nearestStandardInterval(minutes int) int {
	best := standardIntervals[0]
	bestDiff := abs(minutes - best)
	for _, iv := range standardIntervals[1:] {
		if d := abs(minutes - iv); d < bestDiff {
			best, bestDiff = iv, d
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
