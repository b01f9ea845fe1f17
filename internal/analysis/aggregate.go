package analysis

import (
	"github.com/shopspring/decimal"
)

// ParsedReading is one successfully parsed row, already in canonical kW or kWh.
// The unit class is tracked per table, not per reading.
type ParsedReading struct {
	Date   CalendarDate
	Hour   int
	Minute int
	Value  float64
}

// Timestamp returns the reading's civil timestamp.
func (r ParsedReading) Timestamp() Timestamp {
	return Timestamp{Date: r.Date, Hour: r.Hour, Minute: r.Minute}
}

// LoadProfile is the canonical 24-hour weekday/weekend profile.
type LoadProfile struct {
	WeekdayProfile          [24]float64   `json:"weekdayProfile" yaml:"weekday_profile"`
	WeekendProfile          [24]float64   `json:"weekendProfile" yaml:"weekend_profile"`
	WeekdayDays             int           `json:"weekdayDays" yaml:"weekday_days"`
	WeekendDays             int           `json:"weekendDays" yaml:"weekend_days"`
	TotalKwh                float64       `json:"totalKwh" yaml:"total_kwh"`
	DateRangeStart          *CalendarDate `json:"dateRangeStart" yaml:"date_range_start"`
	DateRangeEnd            *CalendarDate `json:"dateRangeEnd" yaml:"date_range_end"`
	DataPoints              int           `json:"dataPoints" yaml:"data_points"`
	PeakKw                  float64       `json:"peakKw" yaml:"peak_kw"`
	AvgKw                   float64       `json:"avgKw" yaml:"avg_kw"`
	DetectedIntervalMinutes int           `json:"detectedIntervalMinutes" yaml:"detected_interval_minutes"`
}

// EmptyProfile is the zero-filled result for structural or total parse failure.
func EmptyProfile() LoadProfile {
	return LoadProfile{DetectedIntervalMinutes: DefaultIntervalMinutes}
}

const (
	weekday = 0
	weekend = 1
)

type bucket struct {
	sum   float64
	count int
}

// accumulator is threaded through the fold. The bucket grid is a value array so
// each step returns a new grid; the per-day-type date sets only ever grow.
type accumulator struct {
	buckets [2][24]bucket
	total   decimal.Decimal
	dates   [2]map[string]struct{}
	first   CalendarDate
	last    CalendarDate
	n       int
}

func newAccumulator() accumulator {
	return accumulator{
		total: decimal.Zero,
		dates: [2]map[string]struct{}{{}, {}},
	}
}

// step folds one reading into the accumulator. energyFactor converts a canonical
// value into kWh: 1 for energy tables, interval/60 for power tables.
func step(acc accumulator, r ParsedReading, energyFactor decimal.Decimal) accumulator {
	dt := weekday
	if r.Date.IsWeekend() {
		dt = weekend
	}
	hour := r.Hour
	if hour < 0 || hour > 23 || !finite(r.Value) {
		return acc
	}
	b := acc.buckets[dt][hour]
	acc.buckets[dt][hour] = bucket{sum: b.sum + r.Value, count: b.count + 1}
	acc.total = acc.total.Add(decimal.NewFromFloat(r.Value).Mul(energyFactor))
	acc.dates[dt][r.Date.Key()] = struct{}{}
	if acc.n == 0 || r.Date.Compare(acc.first) < 0 {
		acc.first = r.Date
	}
	if acc.n == 0 || r.Date.Compare(acc.last) > 0 {
		acc.last = r.Date
	}
	acc.n++
	return acc
}

// Aggregate buckets readings into the weekday/weekend x hour grid. Power tables
// average each bucket; energy tables sum it and divide by the number of distinct
// dates of that day type, giving an average per-day energy for the hour.
func Aggregate(readings []ParsedReading, class UnitClass, intervalMinutes int) LoadProfile {
	if intervalMinutes <= 0 {
		intervalMinutes = DefaultIntervalMinutes
	}
	energyFactor := decimal.NewFromInt(1)
	if class == ClassPower {
		energyFactor = decimal.NewFromInt(int64(intervalMinutes)).Div(decimal.NewFromInt(60))
	}
	acc := newAccumulator()
	for _, r := range readings {
		acc = step(acc, r, energyFactor)
	}
	if acc.n == 0 {
		p := EmptyProfile()
		p.DetectedIntervalMinutes = intervalMinutes
		return p
	}

	out := LoadProfile{
		WeekdayDays:             len(acc.dates[weekday]),
		WeekendDays:             len(acc.dates[weekend]),
		TotalKwh:                acc.total.Round(2).InexactFloat64(),
		DataPoints:              acc.n,
		DetectedIntervalMinutes: intervalMinutes,
	}
	first, last := acc.first, acc.last
	out.DateRangeStart, out.DateRangeEnd = &first, &last

	out.WeekdayProfile = profileFor(acc.buckets[weekday], class, out.WeekdayDays)
	out.WeekendProfile = profileFor(acc.buckets[weekend], class, out.WeekendDays)
	out.PeakKw, out.AvgKw = peakAndAverage(out.WeekdayProfile, out.WeekendProfile)
	return out
}

func profileFor(buckets [24]bucket, class UnitClass, days int) [24]float64 {
	var p [24]float64
	divisor := days
	if divisor < 1 {
		divisor = 1
	}
	for h, b := range buckets {
		if b.count == 0 {
			continue
		}
		var v float64
		if class == ClassPower {
			v = b.sum / float64(b.count)
		} else {
			v = b.sum / float64(divisor)
		}
		p[h] = nonNegative(round2(v))
	}
	return p
}

// peakAndAverage treats exact zeros as missing hours rather than zero load.
func peakAndAverage(weekdayProfile, weekendProfile [24]float64) (float64, float64) {
	peak := 0.0
	sum := decimal.Zero
	n := 0
	for _, p := range [][24]float64{weekdayProfile, weekendProfile} {
		for _, v := range p {
			if v == 0 {
				continue
			}
			if v > peak {
				peak = v
			}
			sum = sum.Add(decimal.NewFromFloat(v))
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return peak, sum.Div(decimal.NewFromInt(int64(n))).Round(2).InexactFloat64()
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func nonNegative(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return v
}
