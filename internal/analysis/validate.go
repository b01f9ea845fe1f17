package analysis

// ReasonCode classifies a validation verdict.
type ReasonCode string

const (
	ReasonOK              ReasonCode = "ok"
	ReasonNoData          ReasonCode = "no_data"
	ReasonAllZero         ReasonCode = "all_zero"
	ReasonFlatProfile     ReasonCode = "flat_profile"
	ReasonUnrealisticPeak ReasonCode = "unrealistic_peak"
)

// DefaultMaxPeakKW is the implausibility ceiling for a commercial/industrial site.
const DefaultMaxPeakKW = 100000.0

// ValidationVerdict is advisory; callers decide whether to block on it.
type ValidationVerdict struct {
	IsValid    bool       `json:"isValid"`
	ReasonCode ReasonCode `json:"reasonCode"`
	Message    string     `json:"message"`
}

// Validator inspects a finished profile for signatures of extraction failure.
type Validator struct {
	// MaxPeakKW above which the peak is considered a unit mistake; 0 means default.
	MaxPeakKW float64
}

// Validate runs the checks with default settings.
func Validate(p LoadProfile) ValidationVerdict {
	return Validator{}.Validate(p)
}

// Validate runs the checks in order and stops at the first failure.
func (v Validator) Validate(p LoadProfile) ValidationVerdict {
	ceiling := v.MaxPeakKW
	if ceiling <= 0 {
		ceiling = DefaultMaxPeakKW
	}
	switch {
	case p.DataPoints == 0:
		return invalid(ReasonNoData, "no data points parsed")
	case allZero(p.WeekdayProfile) && allZero(p.WeekendProfile):
		return invalid(ReasonAllZero, "all values zero")
	case flatAndIdentical(p):
		return invalid(ReasonFlatProfile, "flat/identical profile, likely extraction failure")
	case p.PeakKw > ceiling:
		return invalid(ReasonUnrealisticPeak, "unrealistic peak, check units")
	}
	return ValidationVerdict{IsValid: true, ReasonCode: ReasonOK, Message: "profile looks plausible"}
}

func invalid(code ReasonCode, msg string) ValidationVerdict {
	return ValidationVerdict{IsValid: false, ReasonCode: code, Message: msg}
}

func allZero(p [24]float64) bool {
	for _, v := range p {
		if v != 0 {
			return false
		}
	}
	return true
}

func constant(p [24]float64) bool {
	for _, v := range p[1:] {
		if v != p[0] {
			return false
		}
	}
	return true
}

// flatAndIdentical flags a single non-zero value repeated across both day types.
// A flat weekday profile that differs from a flat weekend profile passes.
func flatAndIdentical(p LoadProfile) bool {
	return constant(p.WeekdayProfile) && constant(p.WeekendProfile) &&
		p.WeekdayProfile[0] == p.WeekendProfile[0] && p.WeekdayProfile[0] != 0
}
