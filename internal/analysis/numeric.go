package analysis

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumeric parses a meter value cell. Plain floats parse directly; otherwise
// everything except digits, separators and a leading sign is stripped and the
// decimal separator is auto-detected (the right-most of ',' and '.' wins when both
// are present, a lone ',' is a decimal comma unless it repeats).
func ParseNumeric(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, finite(f)
	}
	raw = strings.ReplaceAll(raw, " ", "")
	var b strings.Builder
	neg := false
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			neg = true
		case r == '(' && i == 0:
			// accounting style (12.5)
			neg = true
		}
	}
	cleaned := b.String()
	if cleaned == "" || strings.Trim(cleaned, ".,") == "" {
		return 0, false
	}
	cpos := strings.LastIndex(cleaned, ",")
	dpos := strings.LastIndex(cleaned, ".")
	var dec, thou string
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			dec, thou = ",", "."
		} else {
			dec, thou = ".", ","
		}
	case cpos >= 0:
		if strings.Count(cleaned, ",") > 1 {
			dec, thou = ".", ","
		} else {
			dec, thou = ",", ""
		}
	default:
		dec = "."
		if strings.Count(cleaned, ".") > 1 {
			dec, thou = ",", "."
		}
	}
	if thou != "" {
		cleaned = strings.ReplaceAll(cleaned, thou, "")
	}
	if dec != "." {
		cleaned = strings.ReplaceAll(cleaned, dec, ".")
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, finite(f)
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
