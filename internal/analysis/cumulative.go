package analysis

import (
	"fmt"
	"math"
	"strings"
)

// NegativePolicy decides what happens to negative readings (export, reversed CTs).
type NegativePolicy string

const (
	NegativeFilter   NegativePolicy = "filter"
	NegativeAbsolute NegativePolicy = "absolute"
	NegativeKeep     NegativePolicy = "keep"
)

// ParseNegativePolicy accepts filter|absolute|keep; empty means keep.
func ParseNegativePolicy(s string) (NegativePolicy, error) {
	switch NegativePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", NegativeKeep:
		return NegativeKeep, nil
	case NegativeFilter:
		return NegativeFilter, nil
	case NegativeAbsolute, "abs":
		return NegativeAbsolute, nil
	}
	return "", fmt.Errorf("unsupported negative policy: %s (use filter|absolute|keep)", s)
}

// ApplyNegativePolicy returns a new slice; the input is not modified.
func ApplyNegativePolicy(values []float64, policy NegativePolicy) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		switch {
		case v >= 0 || policy == NegativeKeep:
			out = append(out, v)
		case policy == NegativeAbsolute:
			out = append(out, math.Abs(v))
		}
	}
	return out
}

// CumulativeToDeltas turns a running meter total into per-interval consumption.
// The result has one element fewer than the input. A drop in the register is read
// as a meter reset, so the new reading itself is the consumption since the reset.
func CumulativeToDeltas(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		if d < 0 {
			d = values[i]
		}
		out = append(out, d)
	}
	return out
}

// looksCumulative reports whether at least 90% of consecutive pairs strictly
// increase. Fewer than three values never qualify.
func looksCumulative(values []float64) bool {
	if len(values) < 3 {
		return false
	}
	inc := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[i-1] {
			inc++
		}
	}
	return float64(inc)/float64(len(values)-1) >= 0.9
}
