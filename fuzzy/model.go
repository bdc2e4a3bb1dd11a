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
	"sort"
)

// A Model is a complete inference configuration: membership sets over
// the input fields, rules producing named implications, a
// defuzzification operator, and combiner expressions producing the
// named outputs. A Model holds no per-pixel state; Evaluate may be
// called concurrently.
type Model struct {
	Sets      map[string]*Set
	Rules     []Rule
	Defuzz    string
	Combiners []*Combiner
}

// InputNames lists the input fields the model's sets cover, sorted.
func (m *Model) InputNames() []string {
	names := make([]string, 0, len(m.Sets))
	for name := range m.Sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OutputNames lists the combiner output names in combiner order.
func (m *Model) OutputNames() []string {
	names := make([]string, len(m.Combiners))
	for i, c := range m.Combiners {
		names[i] = c.Name
	}
	return names
}

// Check verifies that every rule antecedent refers to a defined set
// and curve and that every combiner variable matches a rule name.
func (m *Model) Check() error {
	ruleNames := make(map[string]struct{}, len(m.Rules))
	for _, r := range m.Rules {
		if _, ok := ruleNames[r.Name]; ok {
			return fmt.Errorf("fuzzy: duplicate rule name %s", r.Name)
		}
		ruleNames[r.Name] = struct{}{}
		for _, a := range r.Antecedents {
			s, ok := m.Sets[a.Field]
			if !ok {
				return fmt.Errorf("fuzzy: rule %s refers to unknown input field %s", r.Name, a.Field)
			}
			if _, ok := s.Curves[a.Curve]; !ok {
				return fmt.Errorf("fuzzy: rule %s refers to unknown membership %s of field %s", r.Name, a.Curve, a.Field)
			}
		}
	}
	for _, c := range m.Combiners {
		for _, v := range c.Vars() {
			if _, ok := ruleNames[v]; !ok {
				return fmt.Errorf("fuzzy: combiner %s refers to unknown rule %s", c.Name, v)
			}
		}
	}
	return nil
}

// Evaluate runs the model at one pixel. inputs must contain a Value
// for every field named by InputNames; missing inputs are an error
// rather than silently treated as no-data.
func (m *Model) Evaluate(inputs map[string]Value) (map[string]Value, error) {
	results := make(map[string]Value, len(m.Rules))
	for _, r := range m.Rules {
		grades := make([]Value, len(r.Antecedents))
		for i, a := range r.Antecedents {
			x, ok := inputs[a.Field]
			if !ok {
				return nil, fmt.Errorf("fuzzy: no input for field %s", a.Field)
			}
			g, err := m.Sets[a.Field].Membership(a.Curve, x)
			if err != nil {
				return nil, err
			}
			grades[i] = g
		}
		strength := Min(grades...)
		v, err := NewImplication(strength, r.Consequent).Defuzz(m.Defuzz)
		if err != nil {
			return nil, err
		}
		results[r.Name] = v
	}
	outputs := make(map[string]Value, len(m.Combiners))
	for _, c := range m.Combiners {
		v, err := c.Combine(results)
		if err != nil {
			return nil, err
		}
		outputs[c.Name] = v
	}
	return outputs, nil
}

// mechanisms are the emplacement mechanisms scored by the default
// model, in catalog order.
var mechanisms = []string{"Eo", "Fl", "HA", "HP", "MA", "MP"}

// DefaultModel builds the standard PE scoring model. Each mechanism's
// score blends its structural-requirement ratio with proximity
// evidence: a low-distance grade raises the score, an incomplete
// requirement set lowers it, and the two are merged with a gamma
// blend weighted toward the requirement ratio.
func DefaultModel() *Model {
	m := &Model{
		Sets:   make(map[string]*Set),
		Defuzz: "centroid",
	}
	for _, mech := range mechanisms {
		ratioField := fmt.Sprintf("DA_%s_sum_DR", mech)
		distField := fmt.Sprintf("DS_%s_rel", mech)
		m.Sets[ratioField] = &Set{
			Field: ratioField,
			Curves: map[string]Curve{
				"incomplete": LinearCurve{X0: 0, Y0: 1, X1: 0.75, Y1: 0},
				"complete":   LinearCurve{X0: 0.5, Y0: 0, X1: 1, Y1: 1},
			},
		}
		m.Sets[distField] = &Set{
			Field: distField,
			Curves: map[string]Curve{
				// Fused distances are normalized and flipped, so 1
				// means adjacent to the source domain.
				"near": LinearCurve{X0: 0, Y0: 0, X1: 1, Y1: 1},
				"far":  LinearCurve{X0: 0, Y0: 1, X1: 1, Y1: 0},
			},
		}
		favorable := fmt.Sprintf("%s_favorable", mech)
		unfavorable := fmt.Sprintf("%s_unfavorable", mech)
		m.Rules = append(m.Rules,
			Rule{
				Name: favorable,
				Antecedents: []Antecedent{
					{Field: ratioField, Curve: "complete"},
					{Field: distField, Curve: "near"},
				},
				Consequent: LinearCurve{X0: 0, Y0: 0, X1: 1, Y1: 1},
			},
			Rule{
				Name: unfavorable,
				Antecedents: []Antecedent{
					{Field: ratioField, Curve: "incomplete"},
					{Field: distField, Curve: "far"},
				},
				Consequent: LinearCurve{X0: 0, Y0: 1, X1: 1, Y1: 0},
			},
		)
		expr := fmt.Sprintf("gamma(0.8, checknodata(%s, 0.5), 1-checknodata(%s, 0.5))",
			favorable, unfavorable)
		c, err := NewCombiner("PE_"+mech, expr)
		if err != nil {
			// The expression is a compile-time constant.
			panic(err)
		}
		m.Combiners = append(m.Combiners, c)
	}
	return m
}
