/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package convert

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"gocanvas/internal/color"
	"gocanvas/internal/scene"
	"gocanvas/internal/svg"
	"gocanvas/internal/vector"
)

// Attribute lists per object layer. Each concrete element concatenates the
// lists of its layers, base first, and uses the same list to write and read.

func baseAttrs(b *scene.Base) []svg.Attribute {
	return []svg.Attribute{
		svg.String(svg.N("id"), "", &b.ID),
		{Name: svg.N("visibility"), Default: "visible",
			Get: func() string {
				if b.Visible {
					return "visible"
				}
				return "hidden"
			},
			Set: func(s string) error { b.Visible = strings.TrimSpace(s) != "hidden"; return nil },
		},
		svg.Bool(svg.VO("locked"), false, &b.Locked),
		svg.String(svg.VO("name"), "", &b.Name),
		svg.RawJSON(svg.VO("tag"), &b.Tag),
		{Name: svg.VO("permissions"), Default: strconv.FormatUint(uint64(scene.PermissionsAll), 10),
			Get: func() string { return strconv.FormatUint(uint64(b.Permissions), 10) },
			Set: func(s string) error {
				v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
				if err != nil {
					return err
				}
				b.Permissions = scene.Permission(v)
				return nil
			},
		},
	}
}

// constant writes a fixed value and ignores it on read.
func constant(name xml.Name, value string) svg.Attribute {
	return svg.Attribute{Name: name,
		Get: func() string { return value },
		Set: func(string) error { return nil },
	}
}

func paintValue(c color.Color) string {
	if c.IsTransparent() {
		return "none"
	}
	return color.Hex(c.Preview)
}

// colorAttrs encodes one color as native paint and opacity (the browser
// preview) plus the exact value as JSON in the vo namespace. Reading applies
// them in that order, so the exact value wins and the native pair is the
// fallback for documents without it. The paint is always written because
// the SVG defaults differ from the object defaults.
func colorAttrs(paint, opacity, exact string, def color.Color, p *color.Color) []svg.Attribute {
	seen, none := false, false
	return []svg.Attribute{
		{Name: svg.N(paint),
			Get: func() string { return paintValue(*p) },
			Set: func(s string) error {
				rgba, ok := color.ParsePaint(s)
				if !ok {
					return fmt.Errorf("invalid paint %q", s)
				}
				seen, none = true, rgba.A == 0
				*p = color.FromPreview(rgba)
				return nil
			},
		},
		{Name: svg.N(opacity), Default: "1",
			Get: func() string {
				if p.IsTransparent() {
					return ""
				}
				return vector.FormatNumber(color.Opacity(p.A))
			},
			Set: func(s string) error {
				if !seen || none {
					return nil
				}
				op, err := svg.ParseNumber(s)
				if err != nil {
					return err
				}
				rgba := p.Preview
				rgba.A = color.AlphaFromOpacity(op)
				*p = color.FromPreview(rgba)
				return nil
			},
		},
		{Name: svg.VO(exact),
			Get: func() string {
				if *p == def {
					return ""
				}
				s, _ := color.Encode(*p)
				return s
			},
			Set: func(s string) error {
				c, err := color.Decode(s)
				if err != nil {
					return err
				}
				*p = c
				return nil
			},
		},
	}
}

// jsonColor stores a color only in the vo namespace, for colors the browser
// does not render (mask colors, text frames).
func jsonColor(name string, def color.Color, p *color.Color) svg.Attribute {
	defStr, _ := color.Encode(def)
	return svg.Attribute{Name: svg.VO(name), Default: defStr,
		Get: func() string {
			s, _ := color.Encode(*p)
			return s
		},
		Set: func(s string) error {
			c, err := color.Decode(s)
			if err != nil {
				return err
			}
			*p = c
			return nil
		},
	}
}

func enumAttr[T ~string](name xml.Name, def T, p *T) svg.Attribute {
	return svg.Attribute{Name: name, Default: string(def),
		Get: func() string { return string(*p) },
		Set: func(s string) error { *p = T(strings.TrimSpace(s)); return nil },
	}
}

func pathAttr(name xml.Name, p *vector.Path, changed func()) svg.Attribute {
	return svg.Attribute{Name: name,
		Get: func() string { return p.String() },
		Set: func(s string) error {
			q, err := vector.ParsePath(s)
			if err != nil {
				return err
			}
			*p = q
			if changed != nil {
				changed()
			}
			return nil
		},
	}
}

// angleOf recovers the rotation written by transformAttr. Rounding removes
// the noise of the sin/cos round trip.
func angleOf(m vector.Affine2D) float64 { return vector.FloatRound(m.Angle(), 9) }

func transformAttr(m *vector.Affine2D, changed func()) svg.Attribute {
	return svg.Attribute{Name: svg.N("transform"),
		Get: func() string {
			if m.IsIdentity(1e-12) {
				return ""
			}
			return vector.FormatMatrix(*m)
		},
		Set: func(s string) error {
			t, err := vector.ParseTransform(s)
			if err != nil {
				return err
			}
			*m = t
			changed()
			return nil
		},
	}
}

// boxAttrs writes a rotated rectangle as its unrotated bounds plus a matrix
// carrying the rotation about the rectangle's center.
func boxAttrs(r *vector.RotatedRect, x, y, w, h xml.Name) []svg.Attribute {
	b := r.Bounds()
	m := r.Transform()
	sync := func() { *r = vector.NewRotatedRect(b, angleOf(m)) }
	num := func(name xml.Name, p *float64) svg.Attribute {
		return svg.Attribute{Name: name, Default: "0",
			Get: func() string { return vector.FormatNumber(*p) },
			Set: func(s string) error {
				v, err := svg.ParseNumber(s)
				if err != nil {
					return err
				}
				*p = v
				sync()
				return nil
			},
		}
	}
	return []svg.Attribute{num(x, &b.X), num(y, &b.Y), num(w, &b.W), num(h, &b.H), transformAttr(&m, sync)}
}

func rectBoxAttrs(r *vector.RotatedRect) []svg.Attribute {
	return boxAttrs(r, svg.N("x"), svg.N("y"), svg.N("width"), svg.N("height"))
}

// outlineAttrs writes a rotated rectangle as path data of its bounds plus the
// rotation matrix.
func outlineAttrs(r *vector.RotatedRect) []svg.Attribute {
	p := vector.RectPath(r.Bounds())
	m := r.Transform()
	sync := func() { *r = vector.NewRotatedRect(p.Bounds(), angleOf(m)) }
	return []svg.Attribute{pathAttr(svg.N("d"), &p, sync), transformAttr(&m, sync)}
}

func ellipseAttrs(r *vector.RotatedRect) []svg.Attribute {
	cx, cy, rx, ry := r.CenterX, r.CenterY, r.Width/2, r.Height/2
	m := r.Transform()
	sync := func() {
		*r = vector.RotatedRect{CenterX: cx, CenterY: cy, Width: 2 * rx, Height: 2 * ry, Angle: angleOf(m)}
	}
	num := func(name string, p *float64) svg.Attribute {
		a := svg.Float(svg.N(name), 0, p)
		set := a.Set
		a.Set = func(s string) error {
			if err := set(s); err != nil {
				return err
			}
			sync()
			return nil
		}
		return a
	}
	return []svg.Attribute{num("cx", &cx), num("cy", &cy), num("rx", &rx), num("ry", &ry), transformAttr(&m, sync)}
}

func fillAttrs(f *scene.Frame) []svg.Attribute {
	return colorAttrs("fill", "fill-opacity", "fill-color", color.Transparent, &f.FillColor)
}

func borderAttrs(f *scene.Frame) []svg.Attribute {
	return append(colorAttrs("stroke", "stroke-opacity", "border-color", color.Black, &f.BorderColor),
		svg.Float(svg.N("stroke-width"), 0, &f.BorderWidth),
		svg.Bool(svg.VO("fixed-stroke-width"), false, &f.FixedBorderWidth),
	)
}

// frameAttrs are the paint attributes of rectangle-like objects.
func frameAttrs(f *scene.Frame) []svg.Attribute {
	out := fillAttrs(f)
	out = append(out, borderAttrs(f)...)
	return append(out, svg.Float(svg.N("opacity"), 1, &f.Opacity))
}

func strokeAttrs(s *scene.Stroke, exact string) []svg.Attribute {
	return append(colorAttrs("stroke", "stroke-opacity", exact, color.Black, &s.Color),
		svg.Float(svg.N("stroke-width"), 1, &s.Width),
		svg.Bool(svg.VO("fixed-stroke-width"), false, &s.Fixed),
	)
}

func lineGeomAttrs(l *scene.Line) []svg.Attribute {
	return []svg.Attribute{
		svg.Float(svg.N("x1"), 0, &l.P1.X),
		svg.Float(svg.N("y1"), 0, &l.P1.Y),
		svg.Float(svg.N("x2"), 0, &l.P2.X),
		svg.Float(svg.N("y2"), 0, &l.P2.Y),
	}
}

func contentAttrs(c *scene.ContentBase) []svg.Attribute {
	return []svg.Attribute{jsonColor("mask-color", color.Transparent, &c.MaskColor)}
}

// textAttrs are shared by all text kinds. The text color is the native fill
// so browsers render it; the frame colors only live in the vo namespace.
func textAttrs(t *scene.TextBase) []svg.Attribute {
	out := baseAttrs(&t.Base)
	out = append(out, boxAttrs(&t.Rect, svg.N("x"), svg.N("y"), svg.VO("width"), svg.VO("height"))...)
	out = append(out, colorAttrs("fill", "fill-opacity", "text-color", color.Black, &t.TextColor)...)
	out = append(out,
		jsonColor("fill-color", color.Transparent, &t.FillColor),
		jsonColor("border-color", color.Transparent, &t.BorderColor),
		svg.Float(svg.VO("border-width"), 0, &t.BorderWidth),
		svg.Bool(svg.VO("fixed-border-width"), false, &t.FixedBorderWidth),
		svg.Float(svg.N("opacity"), 1, &t.Opacity),
	)
	out = append(out, contentAttrs(&t.ContentBase)...)
	def := scene.DefaultFont
	out = append(out,
		svg.String(svg.N("font-family"), def.Family, &t.Font.Family),
		svg.String(svg.VO("font-style"), def.Style, &t.Font.Style),
		svg.String(svg.VO("postscript-name"), def.PostScriptName, &t.Font.PostScriptName),
		svg.Bool(svg.VO("faux-bold"), false, &t.Font.FauxBold),
		svg.Bool(svg.VO("faux-italic"), false, &t.Font.FauxItalic),
		svg.Float(svg.N("font-size"), def.Size, &t.Font.Size),
		enumAttr(svg.VO("alignment"), scene.AlignLeft, &t.Alignment),
		svg.Float(svg.VO("tracking"), 0, &t.Tracking),
		svg.Float(svg.VO("leading"), 0, &t.Leading),
		svg.Bool(svg.VO("rich-text"), false, &t.IsRichText),
		svg.Float(svg.VO("vertical-scale"), 1, &t.VerticalScale),
		svg.Float(svg.VO("horizontal-scale"), 1, &t.HorizontalScale),
		svg.Attribute{Name: svg.N("text-decoration"), Default: "none",
			Get: func() string {
				if t.Underline {
					return "underline"
				}
				return "none"
			},
			Set: func(s string) error { t.Underline = strings.Contains(s, "underline"); return nil },
		},
	)
	return out
}

func paragraphAttrs(p *scene.Paragraph) []svg.Attribute {
	return []svg.Attribute{
		svg.Float(svg.VO("first-line-indent"), 0, &p.FirstLineIndent),
		svg.Float(svg.VO("space-before"), 0, &p.SpaceBefore),
		svg.Float(svg.VO("space-after"), 0, &p.SpaceAfter),
	}
}

func wrappingAttrs(rects *[]vector.RotatedRect, margin *float64) []svg.Attribute {
	return []svg.Attribute{
		svg.JSON(svg.VO("wrapping-rectangles"), rects),
		svg.Float(svg.VO("wrapping-margin"), 0, margin),
	}
}

func imageLeafAttrs(img *scene.Image) []svg.Attribute {
	return []svg.Attribute{
		svg.Int(svg.VO("source-width"), 0, &img.SourceWidth),
		svg.Int(svg.VO("source-height"), 0, &img.SourceHeight),
		svg.Float(svg.VO("source-dpi"), 0, &img.SourceDPI),
		svg.Bool(svg.VO("keep-proportion"), false, &img.KeepProportion),
	}
}
