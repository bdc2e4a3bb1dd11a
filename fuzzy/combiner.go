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

	"github.com/Knetic/govaluate"
)

// A Combiner evaluates an arithmetic expression over defuzzified rule
// results, producing one named output per pixel. Expressions can use
// the implication names of the owning Model as variables, plus a small
// set of functions. No-data flows through an expression encoded as NaN,
// so ordinary arithmetic propagates it; the aggregate functions skip it
// instead.
//
// Default functions include:
//
// 'max(x, y, ...)' and 'min(x, y, ...)' over their non-missing arguments.
//
// 'sum(x, y, ...)' and 'product(x, y, ...)' over their non-missing
// arguments.
//
// 'gamma(g, x, y)' which blends product and algebraic sum:
// (x*y)^(1-g) * (1-(1-x)*(1-y))^g.
//
// 'checknodata(x, subst)' which replaces a missing x with subst.
type Combiner struct {
	Name       string
	Expression string

	expr *govaluate.EvaluableExpression
}

// combinerFuncs is the function whitelist available to combiner
// expressions.
var combinerFuncs = map[string]govaluate.ExpressionFunction{
	"max": func(args ...interface{}) (interface{}, error) {
		vals, err := paramValues("max", args)
		if err != nil {
			return nil, err
		}
		return Max(vals...).Param(), nil
	},
	"min": func(args ...interface{}) (interface{}, error) {
		vals, err := paramValues("min", args)
		if err != nil {
			return nil, err
		}
		return Min(vals...).Param(), nil
	},
	"sum": func(args ...interface{}) (interface{}, error) {
		return foldSkipNoData("sum", args, 0, func(a, b float64) float64 { return a + b })
	},
	"product": func(args ...interface{}) (interface{}, error) {
		vals, err := paramValues("product", args)
		if err != nil {
			return nil, err
		}
		acc := NoData()
		for _, v := range vals {
			acc = acc.Mul(v)
		}
		return acc.Param(), nil
	},
	"gamma": func(args ...interface{}) (interface{}, error) {
		if len(args) != 3 {
			return nil, fmt.Errorf("fuzzy: got %d arguments for function 'gamma', but needs 3", len(args))
		}
		g := args[0].(float64)
		x := args[1].(float64)
		y := args[2].(float64)
		return math.Pow(x*y, 1-g) * math.Pow(1-(1-x)*(1-y), g), nil
	},
	"checknodata": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("fuzzy: got %d arguments for function 'checknodata', but needs 2", len(args))
		}
		x := args[0].(float64)
		if math.IsNaN(x) {
			return args[1].(float64), nil
		}
		return x, nil
	},
}

// paramValues converts expression arguments back into Values.
func paramValues(name string, args []interface{}) ([]Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("fuzzy: function '%s' needs at least 1 argument", name)
	}
	vals := make([]Value, len(args))
	for i, a := range args {
		f, ok := a.(float64)
		if !ok {
			return nil, fmt.Errorf("fuzzy: function '%s' requires numeric arguments", name)
		}
		vals[i] = FromParam(f)
	}
	return vals, nil
}

// foldSkipNoData folds fn over the non-missing arguments. All
// arguments missing yields a missing result.
func foldSkipNoData(name string, args []interface{}, init float64, fn func(a, b float64) float64) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("fuzzy: function '%s' needs at least 1 argument", name)
	}
	acc := init
	any := false
	for _, a := range args {
		v, ok := a.(float64)
		if !ok {
			return nil, fmt.Errorf("fuzzy: function '%s' requires numeric arguments", name)
		}
		if math.IsNaN(v) {
			continue
		}
		acc = fn(acc, v)
		any = true
	}
	if !any {
		return math.NaN(), nil
	}
	return acc, nil
}

// NewCombiner compiles expression into a combiner producing the named
// output.
func NewCombiner(name, expression string) (*Combiner, error) {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(expression, combinerFuncs)
	if err != nil {
		return nil, fmt.Errorf("fuzzy: parsing combiner %s: %v", name, err)
	}
	return &Combiner{Name: name, Expression: expression, expr: expr}, nil
}

// Vars lists the implication names the combiner's expression refers to.
func (c *Combiner) Vars() []string {
	return c.expr.Vars()
}

// Combine evaluates the expression against the given defuzzified rule
// results. When every result the expression refers to is missing, the
// output is missing regardless of the expression: substitution
// functions fill gaps in partial evidence, not pixels with no
// evidence at all.
func (c *Combiner) Combine(results map[string]Value) (Value, error) {
	vars := c.expr.Vars()
	params := make(map[string]interface{}, len(vars))
	allMissing := len(vars) > 0
	for _, name := range vars {
		v, ok := results[name]
		if !ok {
			return Value{}, fmt.Errorf("fuzzy: combiner %s references unknown result %s", c.Name, name)
		}
		if !v.IsNoData() {
			allMissing = false
		}
		params[name] = v.Param()
	}
	if allMissing {
		return NoData(), nil
	}
	out, err := c.expr.Evaluate(params)
	if err != nil {
		return Value{}, fmt.Errorf("fuzzy: evaluating combiner %s: %v", c.Name, err)
	}
	f, ok := out.(float64)
	if !ok {
		return Value{}, fmt.Errorf("fuzzy: combiner %s produced non-numeric result %v", c.Name, out)
	}
	return FromParam(f), nil
}
