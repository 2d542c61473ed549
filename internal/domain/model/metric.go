package model

import (
	"encoding/json"
	"math"
	"strconv"
)

// Metric is a ratio or average that may be undefined because its
// denominator was zero. Undefined metrics encode as JSON null.
type Metric struct {
	Value   float64
	Defined bool
}

// Undefined returns a metric with no value.
func Undefined() Metric { return Metric{} }

// DefinedMetric wraps v as a defined metric.
func DefinedMetric(v float64) Metric { return Metric{Value: v, Defined: true} }

// Percent returns num/den*100 rounded to two decimals, or Undefined when den is zero.
func Percent(num, den int) Metric {
	if den == 0 {
		return Undefined()
	}
	return DefinedMetric(Round2(float64(num) / float64(den) * 100))
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (m Metric) String() string {
	if !m.Defined {
		return "N/A"
	}
	return strconv.FormatFloat(m.Value, 'f', 2, 64)
}

// MarshalJSON encodes undefined metrics as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Defined {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON accepts a number or null.
func (m *Metric) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*m = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*m = DefinedMetric(v)
	return nil
}
