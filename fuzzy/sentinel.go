/*
Copyright © 2021 the URC authors.
This file is part of URC.

URC is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

URC is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with URC.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package fuzzy implements the membership curves, rule evaluation, and
// combiner expressions used by the SIMPA scoring stage.
package fuzzy

import "math"

// Value is a measurement that knows whether it represents real data.
// Using a tagged value instead of a magic number keeps legitimately
// extreme measurements from being misread as missing ones.
type Value struct {
	v      float64
	nodata bool
}

// Data returns a Value holding the measurement v.
func Data(v float64) Value { return Value{v: v} }

// NoData returns a Value marking a missing measurement.
func NoData() Value { return Value{nodata: true} }

// IsNoData reports whether the value represents a missing measurement.
func (a Value) IsNoData() bool { return a.nodata }

// Float returns the underlying measurement. It is only meaningful
// when IsNoData is false.
func (a Value) Float() float64 { return a.v }

// Param converts the value to its expression-parameter form: the raw
// measurement, or NaN for missing data.
func (a Value) Param() float64 {
	if a.nodata {
		return math.NaN()
	}
	return a.v
}

// FromParam converts an expression result back into a Value, mapping
// NaN to missing data.
func FromParam(v float64) Value {
	if math.IsNaN(v) {
		return NoData()
	}
	return Data(v)
}

// Mul multiplies two values. Missing data is ignored: the other
// operand is returned unchanged, and the result is only missing when
// both operands are.
func (a Value) Mul(b Value) Value {
	if a.nodata {
		return b
	}
	if b.nodata {
		return a
	}
	return Data(a.v * b.v)
}

// Max returns the largest non-missing value, or a missing value when
// every argument is missing.
func Max(vals ...Value) Value {
	out := NoData()
	for _, v := range vals {
		if v.nodata {
			continue
		}
		if out.nodata || v.v > out.v {
			out = v
		}
	}
	return out
}

// Min returns the smallest non-missing value, or a missing value when
// every argument is missing.
func Min(vals ...Value) Value {
	out := NoData()
	for _, v := range vals {
		if v.nodata {
			continue
		}
		if out.nodata || v.v < out.v {
			out = v
		}
	}
	return out
}
