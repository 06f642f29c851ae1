/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Path commands and shapes.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	QuadTo  // quadratic bezier (cx, cy, x, y)
	CubicTo // cubic bezier (cx1, cy1, cx2, cy2, x, y)
	Close
)

// argCount is the number of coordinates each op carries.
var argCount = [...]int{MoveTo: 2, LineTo: 2, QuadTo: 4, CubicTo: 6, Close: 0}

type PathCmd struct {
	Op   PathOp
	Data [6]float64 // enough for cubic; unused slots are zero
}

type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, Data: [6]float64{x, y}})
}
func (p *Path) LineTo(x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, Data: [6]float64{x, y}})
}
func (p *Path) QuadTo(cx, cy, x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: QuadTo, Data: [6]float64{cx, cy, x, y}})
}
func (p *Path) CubicTo(cx1, cy1, cx2, cy2, x, y float64) {
	p.Cmds = append(p.Cmds, PathCmd{Op: CubicTo, Data: [6]float64{cx1, cy1, cx2, cy2, x, y}})
}
func (p *Path) Close() { p.Cmds = append(p.Cmds, PathCmd{Op: Close}) }

func (p Path) Empty() bool { return len(p.Cmds) == 0 }

// RectPath returns a closed path tracing r clockwise.
func RectPath(r Rect) Path {
	var p Path
	p.MoveTo(r.X, r.Y)
	p.LineTo(r.X+r.W, r.Y)
	p.LineTo(r.X+r.W, r.Y+r.H)
	p.LineTo(r.X, r.Y+r.H)
	p.Close()
	return p
}

// Transform returns a copy of the path with every point mapped through m.
func (p Path) Transform(m Affine2D) Path {
	out := Path{Cmds: make([]PathCmd, len(p.Cmds))}
	for i, c := range p.Cmds {
		out.Cmds[i].Op = c.Op
		for k := 0; k+1 < argCount[c.Op]; k += 2 {
			q := m.Apply(Pt{c.Data[k], c.Data[k+1]})
			out.Cmds[i].Data[k] = q.X
			out.Cmds[i].Data[k+1] = q.Y
		}
	}
	return out
}

// Bounds returns an axis-aligned bounding box of the path using the control
// points. This is sufficient for selection frames.
func (p Path) Bounds() Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range p.Cmds {
		for k := 0; k+1 < argCount[c.Op]; k += 2 {
			x, y := c.Data[k], c.Data[k+1]
			minX = math.Min(minX, x)
			minY = math.Min(minY, y)
			maxX = math.Max(maxX, x)
			maxY = math.Max(maxY, y)
		}
	}
	if minX > maxX || minY > maxY {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Equal compares two paths command by command within eps.
func (p Path) Equal(o Path, eps float64) bool {
	if len(p.Cmds) != len(o.Cmds) {
		return false
	}
	for i := range p.Cmds {
		if p.Cmds[i].Op != o.Cmds[i].Op {
			return false
		}
		for k := 0; k < argCount[p.Cmds[i].Op]; k++ {
			if math.Abs(p.Cmds[i].Data[k]-o.Cmds[i].Data[k]) > eps {
				return false
			}
		}
	}
	return true
}

// FormatNumber writes v the way path data and attributes expect it: shortest
// representation, no exponent.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// String renders the path as SVG path data using absolute commands.
func (p Path) String() string {
	var b strings.Builder
	for i, c := range p.Cmds {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch c.Op {
		case MoveTo:
			b.WriteByte('M')
		case LineTo:
			b.WriteByte('L')
		case QuadTo:
			b.WriteByte('Q')
		case CubicTo:
			b.WriteByte('C')
		case Close:
			b.WriteByte('Z')
		}
		for k := 0; k < argCount[c.Op]; k++ {
			if k > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(FormatNumber(c.Data[k]))
		}
	}
	return b.String()
}

// MarshalText encodes the path as SVG path data so snapshots stay compact.
func (p Path) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Path) UnmarshalText(b []byte) error {
	q, err := ParsePath(string(b))
	if err != nil {
		return err
	}
	*p = q
	return nil
}

// ParsePath parses SVG path data. Absolute and relative M, L, H, V, Q, C and Z
// are supported; relative commands and H/V are normalised to absolute ones.
func ParsePath(d string) (Path, error) {
	var p Path
	toks, err := tokenizePath(d)
	if err != nil {
		return p, err
	}
	var cur, start Pt
	var cmd byte
	i := 0
	num := func() (float64, error) {
		if i >= len(toks) || toks[i].isCmd {
			return 0, fmt.Errorf("path data: missing number after %q", cmd)
		}
		v := toks[i].num
		i++
		return v, nil
	}
	for i < len(toks) {
		if toks[i].isCmd {
			cmd = toks[i].cmd
			i++
		} else if cmd == 0 {
			return p, fmt.Errorf("path data: number before command")
		}
		rel := cmd >= 'a' && cmd <= 'z'
		off := Pt{}
		if rel {
			off = cur
		}
		switch cmd | 0x20 {
		case 'm':
			x, err := num()
			if err != nil {
				return p, err
			}
			y, err := num()
			if err != nil {
				return p, err
			}
			cur = Pt{x + off.X, y + off.Y}
			start = cur
			p.MoveTo(cur.X, cur.Y)
			// subsequent pairs are implicit lineto
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'l':
			x, err := num()
			if err != nil {
				return p, err
			}
			y, err := num()
			if err != nil {
				return p, err
			}
			cur = Pt{x + off.X, y + off.Y}
			p.LineTo(cur.X, cur.Y)
		case 'h':
			x, err := num()
			if err != nil {
				return p, err
			}
			cur = Pt{x + off.X, cur.Y}
			p.LineTo(cur.X, cur.Y)
		case 'v':
			y, err := num()
			if err != nil {
				return p, err
			}
			cur = Pt{cur.X, y + off.Y}
			p.LineTo(cur.X, cur.Y)
		case 'q':
			var v [4]float64
			for k := range v {
				if v[k], err = num(); err != nil {
					return p, err
				}
			}
			p.QuadTo(v[0]+off.X, v[1]+off.Y, v[2]+off.X, v[3]+off.Y)
			cur = Pt{v[2] + off.X, v[3] + off.Y}
		case 'c':
			var v [6]float64
			for k := range v {
				if v[k], err = num(); err != nil {
					return p, err
				}
			}
			p.CubicTo(v[0]+off.X, v[1]+off.Y, v[2]+off.X, v[3]+off.Y, v[4]+off.X, v[5]+off.Y)
			cur = Pt{v[4] + off.X, v[5] + off.Y}
		case 'z':
			p.Close()
			cur = start
			if i < len(toks) && !toks[i].isCmd {
				return p, fmt.Errorf("path data: number after close")
			}
		default:
			return p, fmt.Errorf("path data: unsupported command %q", cmd)
		}
	}
	return p, nil
}

type pathToken struct {
	isCmd bool
	cmd   byte
	num   float64
}

func tokenizePath(d string) ([]pathToken, error) {
	var toks []pathToken
	for i := 0; i < len(d); {
		ch := d[i]
		switch {
		case ch == ' ' || ch == ',' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case strings.IndexByte("MmLlHhVvQqCcZz", ch) >= 0:
			toks = append(toks, pathToken{isCmd: true, cmd: ch})
			i++
		default:
			j := i
			if d[j] == '-' || d[j] == '+' {
				j++
			}
			seenDot, seenExp := false, false
			for j < len(d) {
				c := d[j]
				if c >= '0' && c <= '9' {
					j++
				} else if c == '.' && !seenDot && !seenExp {
					seenDot = true
					j++
				} else if (c == 'e' || c == 'E') && !seenExp {
					seenExp = true
					j++
					if j < len(d) && (d[j] == '-' || d[j] == '+') {
						j++
					}
				} else {
					break
				}
			}
			if j == i {
				return nil, fmt.Errorf("path data: unexpected %q at %d", ch, i)
			}
			v, err := strconv.ParseFloat(d[i:j], 64)
			if err != nil {
				return nil, fmt.Errorf("path data: %w", err)
			}
			toks = append(toks, pathToken{num: v})
			i = j
		}
	}
	return toks, nil
}

// ParsePoints parses an SVG points list ("x1,y1 x2,y2 ...").
func ParsePoints(s string) ([]Pt, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\n' || r == '\t' })
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("points: odd number of coordinates")
	}
	pts := make([]Pt, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		x, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("points: %w", err)
		}
		y, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("points: %w", err)
		}
		pts = append(pts, Pt{x, y})
	}
	return pts, nil
}

// FormatPoints renders points as an SVG points list.
func FormatPoints(pts []Pt) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = FormatNumber(p.X) + "," + FormatNumber(p.Y)
	}
	return strings.Join(parts, " ")
}
