package domain

import (
	"bytes"
	"errors"
	"math"
	"strconv"
)

// NumberKind tells how a numeric input was supplied.
type NumberKind int

const (
	KindNone NumberKind = iota
	KindInt
	KindFloat
)

// Number is a numeric input that remembers whether it was an integer or a
// floating point value. Weight and activity must be integers: Float(70) is
// rejected by the calculator even though its value is whole.
type Number struct {
	kind NumberKind
	i    int64
	f    float64
}

func Int(v int) Number {
	return Number{kind: KindInt, i: int64(v)}
}

func Float(v float64) Number {
	return Number{kind: KindFloat, f: v}
}

func (n Number) Kind() NumberKind {
	return n.kind
}

// Int64 returns the integer value and true only for KindInt.
func (n Number) Int64() (int64, bool) {
	if n.kind != KindInt {
		return 0, false
	}
	return n.i, true
}

// Float64 returns the numeric value regardless of kind.
func (n Number) Float64() float64 {
	switch n.kind {
	case KindInt:
		return float64(n.i)
	case KindFloat:
		return n.f
	}
	return 0
}

// UnmarshalJSON keeps the kind of the JSON literal: 70 is an Int, 70.0 and
// 7e1 are Floats. Strings, booleans and null decode to KindNone.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty number")
	}

	c := data[0]
	if c != '-' && (c < '0' || c > '9') {
		*n = Number{}
		return nil
	}

	raw := string(data)
	if !bytes.ContainsAny(data, ".eE") {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			*n = Number{kind: KindInt, i: v}
			return nil
		}
		// Too large for int64: still an integer, saturate so range checks reject it.
		if errors.Is(err, strconv.ErrRange) {
			v = math.MaxInt64
			if c == '-' {
				v = math.MinInt64
			}
			*n = Number{kind: KindInt, i: v}
			return nil
		}
		return err
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	*n = Number{kind: KindFloat, f: f}
	return nil
}

type WaterNormInput struct {
	Weight          Number `json:"weight"`
	ActivityMinutes Number `json:"activity_minutes"`
}

type WaterNormResult struct {
	Milliliters  float64
	TemperatureC float64
	HeatUplift   bool
}

func (r WaterNormResult) Liters() float64 {
	return r.Milliliters / 1000
}
