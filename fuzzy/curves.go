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

import "math"

// A Curve maps a normalized input in [0,1] to a membership grade.
type Curve interface {
	Eval(x float64) float64
}

// LinearCurve ramps linearly between two endpoint grades. Inputs left
// of X0 clamp to Y0 and inputs right of X1 clamp to Y1, so a curve
// with Y0 > Y1 is a decreasing membership function.
type LinearCurve struct {
	X0, Y0 float64
	X1, Y1 float64
}

func (c LinearCurve) Eval(x float64) float64 {
	if x <= c.X0 {
		return c.Y0
	}
	if x >= c.X1 {
		return c.Y1
	}
	return c.Y0 + (c.Y1-c.Y0)*(x-c.X0)/(c.X1-c.X0)
}

// TriangleCurve peaks at Mid and falls to YMin at Left and Right.
type TriangleCurve struct {
	Left, Mid, Right float64
	YMin, YMax       float64
}

func (c TriangleCurve) Eval(x float64) float64 {
	if x <= c.Left || x >= c.Right {
		return c.YMin
	}
	if x <= c.Mid {
		return c.YMin + (c.YMax-c.YMin)*(x-c.Left)/(c.Mid-c.Left)
	}
	return c.YMax + (c.YMin-c.YMax)*(x-c.Mid)/(c.Right-c.Mid)
}

// TrapezoidCurve holds YMax on the plateau [MidLeft,MidRight] and
// ramps to YMin at Left and Right.
type TrapezoidCurve struct {
	Left, MidLeft, MidRight, Right float64
	YMin, YMax                     float64
}

func (c TrapezoidCurve) Eval(x float64) float64 {
	switch {
	case x <= c.Left || x >= c.Right:
		return c.YMin
	case x < c.MidLeft:
		return c.YMin + (c.YMax-c.YMin)*(x-c.Left)/(c.MidLeft-c.Left)
	case x <= c.MidRight:
		return c.YMax
	default:
		return c.YMax + (c.YMin-c.YMax)*(x-c.MidRight)/(c.Right-c.MidRight)
	}
}

// GaussianCurve is the bell a·exp(-(x-b)²/2c²) lifted by Y0.
type GaussianCurve struct {
	A  float64 // height of the bell
	B  float64 // center of the bell
	C  float64 // width of the bell
	Y0 float64 // vertical offset
}

func (c GaussianCurve) Eval(x float64) float64 {
	e := -((x - c.B) * (x - c.B)) / (2 * c.C * c.C)
	return (c.A-c.Y0)*math.Exp(e) + c.Y0
}

// SigmoidCurve is the logistic function L/(1+exp(-k(x-x0))) lifted by Y0.
type SigmoidCurve struct {
	X0 float64 // midpoint
	L  float64 // maximum grade
	K  float64 // steepness
	Y0 float64 // vertical offset
}

func (c SigmoidCurve) Eval(x float64) float64 {
	return (c.L-c.Y0)/(1+math.Exp(-c.K*(x-c.X0))) + c.Y0
}

// PiecewiseCurve interpolates linearly between ordered control points.
// Inputs outside the covered x-range clamp to the nearest endpoint.
type PiecewiseCurve struct {
	X, Y []float64
}

func (c PiecewiseCurve) Eval(x float64) float64 {
	n := len(c.X)
	if n == 0 {
		return 0
	}
	if x <= c.X[0] {
		return c.Y[0]
	}
	if x >= c.X[n-1] {
		return c.Y[n-1]
	}
	for i := 1; i < n; i++ {
		if x <= c.X[i] {
			t := (x - c.X[i-1]) / (c.X[i] - c.X[i-1])
			return c.Y[i-1] + t*(c.Y[i]-c.Y[i-1])
		}
	}
	return c.Y[n-1]
}
