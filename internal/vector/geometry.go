/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Basic 2D geometry and transforms in workspace points.

import "math"

// Pt is a 2D point.
type Pt struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"width"`
	H float64 `json:"height"`
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Pt    { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt    { return Pt{r.X + r.W, r.Y + r.H} }
func (r Rect) Center() Pt { return Pt{r.X + r.W/2, r.Y + r.H/2} }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.W, o.X+o.W)
	maxY := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Affine2D represents a 2D affine transform as matrix:
// | a c e |
// | b d f |
// | 0 0 1 |
// stored as [a b c d e f], the same order SVG's matrix() uses.
type Affine2D struct{ A, B, C, D, E, F float64 }

var Identity = Affine2D{A: 1, D: 1}

func (m Affine2D) Mul(n Affine2D) Affine2D {
	return Affine2D{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

func (m Affine2D) Apply(p Pt) Pt {
	return Pt{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

// IsIdentity reports whether m is the identity within eps.
func (m Affine2D) IsIdentity(eps float64) bool {
	return math.Abs(m.A-1) <= eps && math.Abs(m.B) <= eps && math.Abs(m.C) <= eps &&
		math.Abs(m.D-1) <= eps && math.Abs(m.E) <= eps && math.Abs(m.F) <= eps
}

// Angle returns the rotation component of m in degrees, recovered from (a, b).
func (m Affine2D) Angle() float64 {
	return math.Atan2(m.B, m.A) * 180 / math.Pi
}

func Translate(tx, ty float64) Affine2D { return Affine2D{A: 1, D: 1, E: tx, F: ty} }
func Scale(sx, sy float64) Affine2D     { return Affine2D{A: sx, D: sy} }

// Rotate returns a rotation by deg degrees around the origin.
func Rotate(deg float64) Affine2D {
	rad := deg * math.Pi / 180
	c := math.Cos(rad)
	s := math.Sin(rad)
	return Affine2D{A: c, B: s, C: -s, D: c}
}

// RotateAt returns a rotation by deg degrees around p.
func RotateAt(deg float64, p Pt) Affine2D {
	return Translate(p.X, p.Y).Mul(Rotate(deg)).Mul(Translate(-p.X, -p.Y))
}

// FloatRound rounds v to n decimal places deterministically.
func FloatRound(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}

// RotatedRect is the canonical geometry of frame-based objects: a rectangle of
// the given size centered at (CenterX, CenterY), rotated by Angle degrees
// around its own center. Angles recovered from a matrix lie in (-180, 180].
type RotatedRect struct {
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Angle   float64 `json:"angle"`
}

// NewRotatedRect builds a rotated rectangle from an unrotated bounds rect.
func NewRotatedRect(r Rect, angle float64) RotatedRect {
	c := r.Center()
	return RotatedRect{CenterX: c.X, CenterY: c.Y, Width: r.W, Height: r.H, Angle: angle}
}

func (r RotatedRect) Center() Pt { return Pt{r.CenterX, r.CenterY} }

// Bounds returns the unrotated rectangle.
func (r RotatedRect) Bounds() Rect {
	return Rect{X: r.CenterX - r.Width/2, Y: r.CenterY - r.Height/2, W: r.Width, H: r.Height}
}

// Transform returns the rotation about the rectangle's own center.
func (r RotatedRect) Transform() Affine2D {
	if r.Angle == 0 {
		return Identity
	}
	return RotateAt(r.Angle, r.Center())
}

// Equal compares two rotated rectangles within eps.
func (r RotatedRect) Equal(o RotatedRect, eps float64) bool {
	return math.Abs(r.CenterX-o.CenterX) <= eps && math.Abs(r.CenterY-o.CenterY) <= eps &&
		math.Abs(r.Width-o.Width) <= eps && math.Abs(r.Height-o.Height) <= eps &&
		math.Abs(r.Angle-o.Angle) <= eps
}

// FromBoundsAndTransform rebuilds a rotated rectangle from unrotated bounds and
// the rotation matrix written next to them. Only the rotation component of m
// is used; the center is that of the bounds.
func FromBoundsAndTransform(b Rect, m Affine2D) RotatedRect {
	return NewRotatedRect(b, m.Angle())
}
