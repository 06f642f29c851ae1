/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package convert maps vector objects to SVG elements and back, and a whole
// canvas to an <svg> document. Colors are written twice: as native paint for
// browsers and as the exact color-space value in the vo namespace.
package convert

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"

	"gocanvas/internal/color"
	applog "gocanvas/internal/log"
	"gocanvas/internal/scene"
	"gocanvas/internal/storage"
	"gocanvas/internal/svg"
	"gocanvas/internal/vector"
)

// ParseError reports an element whose required parts are missing or
// malformed. It aborts the whole read.
type ParseError struct {
	Element string
	ID      string
	Reason  string
	Err     error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("svg <%s>", e.Element)
	if e.ID != "" {
		msg += fmt.Sprintf(" id=%q", e.ID)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(n *svg.Node, reason string, err error) *ParseError {
	return &ParseError{Element: n.Name.Local, ID: n.ID(), Reason: reason, Err: err}
}

// Converter converts between vector objects and SVG elements. Store is
// consulted when reading images; a nil Store accepts every file id.
type Converter struct {
	Store storage.FileStore
	Log   *slog.Logger
}

func New(store storage.FileStore) *Converter {
	return &Converter{Store: store, Log: applog.WithComponent("convert")}
}

func (c *Converter) log() *slog.Logger {
	if c.Log == nil {
		c.Log = applog.WithComponent("convert")
	}
	return c.Log
}

var (
	typeAttr = svg.VO("type")
	xmlSpace = xml.Name{Space: svg.XMLNS, Local: "space"}
)

// ToSvg returns the element for o. Objects of kinds the converter does not
// know yield a nil node and no error; they are left out of the document.
func (c *Converter) ToSvg(o scene.VObject) (*svg.Node, error) {
	switch v := o.(type) {
	case *scene.Rectangle:
		return svg.Bind(svg.Elem{Name: "rect", Attrs: rectangleAttrs(&v.Frame)}), nil
	case *scene.Ellipse:
		attrs := append(baseAttrs(&v.Base), ellipseAttrs(&v.Rect)...)
		return svg.Bind(svg.Elem{Name: "ellipse", Attrs: append(attrs, frameAttrs(&v.Frame)...)}), nil
	case *scene.Shape:
		return svg.Bind(svg.Elem{Name: "path", Attrs: shapeAttrs(v)}), nil
	case *scene.Line:
		return svg.Bind(svg.Elem{Name: "line", Attrs: lineAttrs(v)}), nil
	case *scene.Polyline:
		return svg.Bind(svg.Elem{Name: "polyline", Attrs: polylineAttrs(v)}), nil
	case *scene.PlainText, *scene.BoundedText, *scene.PathBoundedText, *scene.AutoScaledText:
		return textToSvg(o), nil
	case *scene.DashedLine:
		return dashedLineToSvg(v), nil
	case *scene.Grid:
		return gridToSvg(v), nil
	case *scene.Image:
		return imageToSvg(v), nil
	case *scene.CurvedText:
		return curvedTextToSvg(v), nil
	case *scene.Placeholder:
		return placeholderToSvg(v), nil
	}
	if o != nil {
		c.log().Debug("object kind not serialized", slog.String("kind", string(o.Kind())), slog.String("id", o.Common().ID))
	}
	return nil, nil
}

// FromSvg builds the object described by n. Elements that do not describe an
// object yield nil and no error.
func (c *Converter) FromSvg(ctx context.Context, n *svg.Node) (scene.VObject, error) {
	if n == nil {
		return nil, nil
	}
	kind := scene.Kind(n.Get(typeAttr))
	switch {
	case n.Is("rect") && (kind == "" || kind == scene.KindRectangle):
		r := scene.NewRectangle(vector.RotatedRect{})
		return done(r, read(n, rectangleAttrs(&r.Frame)))
	case n.Is("ellipse"):
		e := scene.NewEllipse(vector.RotatedRect{})
		attrs := append(baseAttrs(&e.Base), ellipseAttrs(&e.Rect)...)
		return done(e, read(n, append(attrs, frameAttrs(&e.Frame)...)))
	case n.Is("path") && (kind == "" || kind == scene.KindShape):
		s := scene.NewShape(vector.Path{}, 0)
		return done(s, read(n, shapeAttrs(s)))
	case n.Is("line"):
		l := scene.NewLine(vector.Pt{}, vector.Pt{}, 1, color.Black)
		return done(l, read(n, lineAttrs(l)))
	case n.Is("polyline"):
		p := scene.NewPolyline(nil, 1, color.Black)
		return done(p, read(n, polylineAttrs(p)))
	case n.Is("text") && isTextKind(kind):
		return textFromSvg(n, kind)
	case n.Is("g"):
		switch kind {
		case scene.KindDashedLine:
			return dashedLineFromSvg(n)
		case scene.KindGrid:
			return gridFromSvg(n)
		case scene.KindImage:
			img, err := c.imageFromSvg(ctx, n)
			if err != nil {
				return nil, err
			}
			return img, nil
		case scene.KindCurvedText:
			return curvedTextFromSvg(n)
		case scene.KindPlaceholder:
			return c.placeholderFromSvg(ctx, n)
		}
	}
	c.log().Debug("svg element skipped", slog.String("element", n.Name.Local), slog.String("type", string(kind)), slog.String("id", n.ID()))
	return nil, nil
}

func done(o scene.VObject, err error) (scene.VObject, error) {
	if err != nil {
		return nil, err
	}
	return o, nil
}

func read(n *svg.Node, attrs []svg.Attribute) error {
	if err := svg.Read(n, attrs); err != nil {
		return parseErr(n, "bad attribute", err)
	}
	return nil
}

func rectangleAttrs(f *scene.Frame) []svg.Attribute {
	attrs := append(baseAttrs(&f.Base), rectBoxAttrs(&f.Rect)...)
	return append(attrs, frameAttrs(f)...)
}

func shapeAttrs(s *scene.Shape) []svg.Attribute {
	m := s.Rect.Transform()
	sync := func() { s.Rect = vector.NewRotatedRect(s.Path.Bounds(), angleOf(m)) }
	attrs := append(baseAttrs(&s.Base), pathAttr(svg.N("d"), &s.Path, sync), transformAttr(&m, sync))
	return append(attrs, frameAttrs(&s.Frame)...)
}

func lineAttrs(l *scene.Line) []svg.Attribute {
	attrs := append(baseAttrs(&l.Base), lineGeomAttrs(l)...)
	attrs = append(attrs, strokeAttrs(&l.Stroke, "stroke-color")...)
	return append(attrs, svg.Float(svg.N("opacity"), 1, &l.Opacity))
}

func polylineAttrs(p *scene.Polyline) []svg.Attribute {
	attrs := append(baseAttrs(&p.Base),
		svg.Attribute{Name: svg.N("points"),
			Get: func() string { return vector.FormatPoints(p.Points) },
			Set: func(s string) error {
				pts, err := vector.ParsePoints(s)
				if err != nil {
					return err
				}
				p.Points = pts
				return nil
			},
		},
		constant(svg.N("fill"), "none"),
	)
	attrs = append(attrs, strokeAttrs(&p.Stroke, "stroke-color")...)
	return append(attrs, svg.Float(svg.N("opacity"), 1, &p.Opacity))
}

func textToSvg(o scene.VObject) *svg.Node {
	n := svg.Bind(svg.Elem{Name: "text", Attrs: textKindAttrs(o)})
	n.SetAttr(typeAttr, string(o.Kind()))
	n.SetAttr(xmlSpace, "preserve")
	n.Text = textOf(o)
	return n
}

func isTextKind(k scene.Kind) bool {
	switch k {
	case "", scene.KindPlainText, scene.KindBoundedText, scene.KindPathBoundedText, scene.KindAutoScaledText:
		return true
	}
	return false
}

// textFromSvg reads a <text> element; one without vo:type is plain text.
func textFromSvg(n *svg.Node, kind scene.Kind) (scene.VObject, error) {
	if kind == "" {
		kind = scene.KindPlainText
	}
	o := scene.New(kind)
	if err := read(n, textKindAttrs(o)); err != nil {
		return nil, err
	}
	setText(o, n.Text)
	return o, nil
}

func textKindAttrs(o scene.VObject) []svg.Attribute {
	switch t := o.(type) {
	case *scene.PlainText:
		return append(textAttrs(&t.TextBase), svg.Bool(svg.VO("vertical"), false, &t.Vertical))
	case *scene.AutoScaledText:
		return append(textAttrs(&t.TextBase), svg.Bool(svg.VO("vertical"), false, &t.Vertical))
	case *scene.BoundedText:
		attrs := append(textAttrs(&t.TextBase),
			svg.Bool(svg.VO("vertical"), false, &t.Vertical),
			enumAttr(svg.VO("vertical-alignment"), scene.VAlignTop, &t.VerticalAlignment),
		)
		attrs = append(attrs, paragraphAttrs(&t.Paragraph)...)
		return append(attrs, wrappingAttrs(&t.WrappingRectangles, &t.WrappingMargin)...)
	case *scene.PathBoundedText:
		attrs := append(textAttrs(&t.TextBase), svg.JSON(svg.VO("bounding-paths"), &t.BoundingPaths))
		attrs = append(attrs, paragraphAttrs(&t.Paragraph)...)
		return append(attrs, wrappingAttrs(&t.WrappingRectangles, &t.WrappingMargin)...)
	case *scene.CurvedText:
		return append(textAttrs(&t.TextBase),
			svg.Bool(svg.VO("fit-to-path"), false, &t.FitToPath),
			svg.Bool(svg.VO("stretch"), false, &t.Stretch),
			svg.Float(svg.VO("fit-to-path-step"), 1, &t.FitToPathStep),
			svg.Float(svg.VO("original-font-size"), scene.DefaultFont.Size, &t.OriginalFontSize),
			svg.Float(svg.VO("start"), 0, &t.Start),
			svg.Float(svg.VO("end"), 1, &t.End),
		)
	}
	return nil
}

func textBaseOf(o scene.VObject) *scene.TextBase {
	switch t := o.(type) {
	case *scene.PlainText:
		return &t.TextBase
	case *scene.AutoScaledText:
		return &t.TextBase
	case *scene.BoundedText:
		return &t.TextBase
	case *scene.PathBoundedText:
		return &t.TextBase
	case *scene.CurvedText:
		return &t.TextBase
	}
	return nil
}

func textOf(o scene.VObject) string {
	if t := textBaseOf(o); t != nil {
		return t.Text
	}
	return ""
}

func setText(o scene.VObject, s string) {
	if t := textBaseOf(o); t != nil {
		t.Text = s
	}
}
