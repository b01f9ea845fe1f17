package analysis

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Unit is the physical unit of a value column.
type Unit string

const (
	UnitKW   Unit = "kW"
	UnitW    Unit = "W"
	UnitMW   Unit = "MW"
	UnitKVA  Unit = "kVA"
	UnitA    Unit = "A"
	UnitKWh  Unit = "kWh"
	UnitWh   Unit = "Wh"
	UnitMWh  Unit = "MWh"
	UnitKVAh Unit = "kVAh"
	UnitAuto Unit = "auto"
)

// UnitClass decides the aggregation rule for a whole table.
type UnitClass string

const (
	ClassPower  UnitClass = "power"
	ClassEnergy UnitClass = "energy"
)

const (
	DefaultVoltageV    = 400.0
	DefaultPowerFactor = 0.9
)

// Electrical holds the constants needed to turn apparent power or current into kW.
type Electrical struct {
	VoltageV    float64
	PowerFactor float64
}

// withDefaults fills non-positive fields.
func (e Electrical) withDefaults() Electrical {
	if e.VoltageV <= 0 {
		e.VoltageV = DefaultVoltageV
	}
	if e.PowerFactor <= 0 {
		e.PowerFactor = DefaultPowerFactor
	}
	return e
}

type unitSpec struct {
	class UnitClass
	// toCanonical converts a raw magnitude into kW or kWh.
	toCanonical func(v float64, e Electrical) float64
	// fromCanonical is the exact inverse of toCanonical.
	fromCanonical func(v float64, e Electrical) float64
}

func scale(k float64) (func(float64, Electrical) float64, func(float64, Electrical) float64) {
	return func(v float64, _ Electrical) float64 { return v * k },
		func(v float64, _ Electrical) float64 { return v / k }
}

func byPowerFactor() (func(float64, Electrical) float64, func(float64, Electrical) float64) {
	return func(v float64, e Electrical) float64 { return v * e.PowerFactor },
		func(v float64, e Electrical) float64 { return v / e.PowerFactor }
}

var unitTable = func() map[Unit]unitSpec {
	t := map[Unit]unitSpec{}
	add := func(u Unit, c UnitClass, to, from func(float64, Electrical) float64) {
		t[u] = unitSpec{class: c, toCanonical: to, fromCanonical: from}
	}
	to, from := scale(1)
	add(UnitKW, ClassPower, to, from)
	add(UnitKWh, ClassEnergy, to, from)
	to, from = scale(0.001)
	add(UnitW, ClassPower, to, from)
	add(UnitWh, ClassEnergy, to, from)
	to, from = scale(1000)
	add(UnitMW, ClassPower, to, from)
	add(UnitMWh, ClassEnergy, to, from)
	to, from = byPowerFactor()
	add(UnitKVA, ClassPower, to, from)
	add(UnitKVAh, ClassEnergy, to, from)
	// three-phase real power: sqrt(3) * V * I * PF / 1000
	add(UnitA, ClassPower,
		func(v float64, e Electrical) float64 { return math.Sqrt(3) * e.VoltageV * v * e.PowerFactor / 1000 },
		func(v float64, e Electrical) float64 { return v * 1000 / (math.Sqrt(3) * e.VoltageV * e.PowerFactor) },
	)
	return t
}()

// Units lists the concrete units in a stable order.
func Units() []Unit {
	return []Unit{UnitKW, UnitW, UnitMW, UnitKVA, UnitA, UnitKWh, UnitWh, UnitMWh, UnitKVAh}
}

// ParseUnit is case-insensitive; empty input means auto.
func ParseUnit(s string) (Unit, error) {
	v := strings.TrimSpace(s)
	if v == "" || strings.EqualFold(v, string(UnitAuto)) {
		return UnitAuto, nil
	}
	for _, u := range Units() {
		if strings.EqualFold(v, string(u)) {
			return u, nil
		}
	}
	return "", fmt.Errorf("unsupported unit: %s", s)
}

// UnmarshalText accepts every spelling ParseUnit does. Empty stays empty.
func (u *Unit) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*u = ""
		return nil
	}
	v, err := ParseUnit(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// Class returns the fixed power/energy classification. Unknown units are energy.
func (u Unit) Class() UnitClass {
	if spec, ok := unitTable[u]; ok {
		return spec.class
	}
	return ClassEnergy
}

// Normalize converts v in unit u into kW (power) or kWh (energy).
func Normalize(v float64, u Unit, e Electrical) float64 {
	spec, ok := unitTable[u]
	if !ok {
		return v
	}
	return spec.toCanonical(v, e.withDefaults())
}

// Denormalize converts a canonical kW/kWh value back into unit u.
func Denormalize(v float64, u Unit, e Electrical) float64 {
	spec, ok := unitTable[u]
	if !ok {
		return v
	}
	return spec.fromCanonical(v, e.withDefaults())
}

var (
	reAmpsToken  = regexp.MustCompile(`[(\[]\s*a\s*[)\]]|\bamps?\b|\bamperes?\b|\bcurrent\b`)
	reWattsToken = regexp.MustCompile(`[(\[]\s*w\s*[)\]]|\bwatts?\b|_w$`)
)

// unitTokens is checked in order; compound tokens precede their looser prefixes.
var unitTokens = []struct {
	token string
	unit  Unit
}{
	{"megawatt hour", UnitMWh},
	{"mwh", UnitMWh},
	{"kvah", UnitKVAh},
	{"kilowatt hour", UnitKWh},
	{"kilowatt-hour", UnitKWh},
	{"kwh", UnitKWh},
	{"watt hour", UnitWh},
	{"watt-hour", UnitWh},
	{"wh", UnitWh},
	{"megawatt", UnitMW},
	{"mw", UnitMW},
	{"kva", UnitKVA},
	{"kilowatt", UnitKW},
	{"kw", UnitKW},
}

// DetectUnit infers the unit from value-column header text. Interval exports are
// energy by default, so no match yields kWh.
func DetectUnit(header string) Unit {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, t := range unitTokens {
		if strings.Contains(h, t.token) {
			return t.unit
		}
	}
	if reAmpsToken.MatchString(h) {
		return UnitA
	}
	if reWattsToken.MatchString(h) {
		return UnitW
	}
	return UnitKWh
}
