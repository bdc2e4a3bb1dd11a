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

package fuzzy

import (
	"fmt"
	"math"
)

// defuzzSamples is the sampling resolution used when reducing a
// decision space to a scalar.
const defuzzSamples = 512

// A Set is a family of named membership curves over one input field.
type Set struct {
	Field  string
	Curves map[string]Curve
}

// Membership evaluates the named curve of the set at x.
func (s *Set) Membership(name string, x Value) (Value, error) {
	c, ok := s.Curves[name]
	if !ok {
		return Value{}, fmt.Errorf("fuzzy: set %s has no membership curve %s", s.Field, name)
	}
	if x.IsNoData() {
		return NoData(), nil
	}
	return Data(c.Eval(x.Float())), nil
}

// An Antecedent names one membership test: the grade of curve Curve in
// the set for input field Field.
type Antecedent struct {
	Field string
	Curve string
}

// A Rule produces one implication: the consequent curve clipped by the
// combined strength of the rule's antecedents (minimum over grades).
type Rule struct {
	Name        string // implication name referenced by combiners
	Antecedents []Antecedent
	Consequent  Curve
}

// Implication is a rule's clipped decision space at one pixel.
type Implication struct {
	strength Value
	curve    Curve
}

// NewImplication clips curve at the given strength.
func NewImplication(strength Value, curve Curve) Implication {
	return Implication{strength: strength, curve: curve}
}

// eval returns the clipped decision space height at x.
func (imp Implication) eval(x float64) float64 {
	y := imp.curve.Eval(x)
	if y > imp.strength.Float() {
		y = imp.strength.Float()
	}
	return y
}

// Centroid reduces the decision space to the x-coordinate of its
// center of mass. A space with no area reduces to 0 rather than
// dividing by zero; a missing strength stays missing.
func (imp Implication) Centroid() Value {
	if imp.strength.IsNoData() {
		return NoData()
	}
	var area, moment float64
	for i := 0; i <= defuzzSamples; i++ {
		x := float64(i) / defuzzSamples
		y := imp.eval(x)
		area += y
		moment += x * y
	}
	if area == 0 {
		return Data(0)
	}
	return Data(moment / area)
}

// MeanOfMax reduces the decision space to the mean of the x-values at
// which the clipped curve attains its maximum height.
func (imp Implication) MeanOfMax() Value {
	if imp.strength.IsNoData() {
		return NoData()
	}
	ymax := math.Inf(-1)
	var sum float64
	var n int
	for i := 0; i <= defuzzSamples; i++ {
		x := float64(i) / defuzzSamples
		y := imp.eval(x)
		if y > ymax {
			ymax = y
			sum, n = x, 1
		} else if y == ymax {
			sum += x
			n++
		}
	}
	return Data(sum / float64(n))
}

// SmallestOfMax reduces the decision space to the smallest x-value at
// which the clipped curve attains its maximum height.
func (imp Implication) SmallestOfMax() Value {
	return imp.ofMax(false)
}

// LargestOfMax reduces the decision space to the largest x-value at
// which the clipped curve attains its maximum height.
func (imp Implication) LargestOfMax() Value {
	return imp.ofMax(true)
}

func (imp Implication) ofMax(largest bool) Value {
	if imp.strength.IsNoData() {
		return NoData()
	}
	ymax := math.Inf(-1)
	var at float64
	for i := 0; i <= defuzzSamples; i++ {
		x := float64(i) / defuzzSamples
		y := imp.eval(x)
		if y > ymax || (largest && y == ymax) {
			if y > ymax {
				ymax = y
			}
			at = x
		}
	}
	return Data(at)
}

// Defuzz applies the named defuzzification operator. Supported
// operators are centroid, mean_of_maximum, smallest_of_maximum, and
// largest_of_maximum; centroid is used for an empty name.
func (imp Implication) Defuzz(op string) (Value, error) {
	switch op {
	case "", "centroid":
		return imp.Centroid(), nil
	case "mean_of_maximum":
		return imp.MeanOfMax(), nil
	case "smallest_of_maximum":
		return imp.SmallestOfMax(), nil
	case "largest_of_maximum":
		return imp.LargestOfMax(), nil
	}
	return Value{}, fmt.Errorf("fuzzy: unknown defuzzification operator %s", op)
}
