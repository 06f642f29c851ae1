/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Text-on-path utilities that remain rendering-agnostic.
// These produce deterministic glyph poses (position + tangent angle)
// that a renderer can use to draw text along a vector path.

import (
	"math"

	"gocanvas/internal/vector"
)

// GlyphPose is the placement of one glyph along a path. Pos is the start of
// the glyph on the baseline; Angle is the tangent in degrees, clockwise in
// y-down coordinates.
type GlyphPose struct {
	Rune    rune
	Pos     vector.Pt
	Angle   float64
	Advance float64
}

// PathOptions select the part of the path used and how text fills it.
// Start and End are fractions of the path length.
type PathOptions struct {
	Start, End float64
	Tracking   float64
	// Stretch spreads the glyphs over the whole range when the text is
	// shorter than it.
	Stretch bool
	// CurveSteps is the number of segments used per curve; 0 means 12.
	CurveSteps int
}

// LayoutOnPath places the runes of text along p. Glyphs that do not fit in
// the selected range are dropped. It returns the poses and the length of
// the flattened path.
func LayoutOnPath(m Measurer, text string, p vector.Path, opt PathOptions) ([]GlyphPose, float64) {
	if text == "" || len(p.Cmds) == 0 {
		return nil, 0
	}
	steps := opt.CurveSteps
	if steps <= 0 {
		steps = 12
	}
	segs, total := buildSegments(Flatten(p, steps))
	if total <= 0 {
		return nil, 0
	}
	start, end := opt.Start, opt.End
	if end <= 0 || end > 1 {
		end = 1
	}
	if start < 0 || start >= end {
		start = 0
	}
	from, to := start*total, end*total

	runes := []rune(text)
	advances := make([]float64, len(runes))
	var used float64
	for i, r := range runes {
		advances[i] = m.Width(string(r))
		if i > 0 {
			advances[i] += opt.Tracking
		}
		used += advances[i]
	}
	var extra float64
	if opt.Stretch && len(runes) > 1 && used < to-from {
		extra = (to - from - used) / float64(len(runes)-1)
	}

	var poses []GlyphPose
	s := from
	for i, r := range runes {
		if i > 0 {
			s += extra
		}
		if s+advances[i] > to+1e-9 {
			break
		}
		pos, angle, ok := pointAt(segs, s)
		if !ok {
			break
		}
		poses = append(poses, GlyphPose{Rune: r, Pos: pos, Angle: angle, Advance: advances[i]})
		s += advances[i]
	}
	return poses, total
}

type segment struct {
	A, B       vector.Pt
	Len, Angle float64
}

func buildSegments(pts []vector.Pt) ([]segment, float64) {
	if len(pts) < 2 {
		return nil, 0
	}
	segs := make([]segment, 0, len(pts)-1)
	var total float64
	for i := 0; i < len(pts)-1; i++ {
		a, b := pts[i], pts[i+1]
		l := math.Hypot(b.X-a.X, b.Y-a.Y)
		if l <= 0 {
			continue
		}
		segs = append(segs, segment{A: a, B: b, Len: l, Angle: math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi})
		total += l
	}
	return segs, total
}

// pointAt returns the position and tangent angle at distance s along the
// polyline.
func pointAt(segs []segment, s float64) (vector.Pt, float64, bool) {
	var acc float64
	for i, sg := range segs {
		if s < acc+sg.Len || (i == len(segs)-1 && s <= acc+sg.Len) {
			t := (s - acc) / sg.Len
			return vector.Pt{X: sg.A.X + (sg.B.X-sg.A.X)*t, Y: sg.A.Y + (sg.B.Y-sg.A.Y)*t}, sg.Angle, true
		}
		acc += sg.Len
	}
	return vector.Pt{}, 0, false
}

// Flatten approximates curves with steps segments each. Only the first
// subpath is followed; later MoveTo commands start a jump that is kept as a
// straight segment.
func Flatten(p vector.Path, steps int) []vector.Pt {
	if steps < 2 {
		steps = 2
	}
	var pts []vector.Pt
	var cur, start vector.Pt
	for _, c := range p.Cmds {
		d := c.Data
		switch c.Op {
		case vector.MoveTo:
			cur = vector.Pt{X: d[0], Y: d[1]}
			start = cur
			pts = append(pts, cur)
		case vector.LineTo:
			cur = vector.Pt{X: d[0], Y: d[1]}
			pts = append(pts, cur)
		case vector.QuadTo:
			c1, end := vector.Pt{X: d[0], Y: d[1]}, vector.Pt{X: d[2], Y: d[3]}
			for s := 1; s <= steps; s++ {
				pts = append(pts, quadAt(cur, c1, end, float64(s)/float64(steps)))
			}
			cur = end
		case vector.CubicTo:
			c1, c2, end := vector.Pt{X: d[0], Y: d[1]}, vector.Pt{X: d[2], Y: d[3]}, vector.Pt{X: d[4], Y: d[5]}
			for s := 1; s <= steps; s++ {
				pts = append(pts, cubicAt(cur, c1, c2, end, float64(s)/float64(steps)))
			}
			cur = end
		case vector.Close:
			if cur != start {
				pts = append(pts, start)
				cur = start
			}
		}
	}
	return pts
}

func quadAt(p0, p1, p2 vector.Pt, t float64) vector.Pt {
	u := 1 - t
	return vector.Pt{
		X: u*u*p0.X + 2*u*t*p1.X + t*t*p2.X,
		Y: u*u*p0.Y + 2*u*t*p1.Y + t*t*p2.Y,
	}
}

func cubicAt(p0, p1, p2, p3 vector.Pt, t float64) vector.Pt {
	u := 1 - t
	u2, t2 := u*u, t*t
	return vector.Pt{
		X: u2*u*p0.X + 3*u2*t*p1.X + 3*u*t2*p2.X + t2*t*p3.X,
		Y: u2*u*p0.Y + 3*u2*t*p1.Y + 3*u*t2*p2.Y + t2*t*p3.Y,
	}
}
