/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package convert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gocanvas/internal/color"
	"gocanvas/internal/scene"
	"gocanvas/internal/svg"
	"gocanvas/internal/vector"
)

// Composite objects are written as a <g vo:type=...> holding several SVG
// primitives. Their readers look the primitives up in written order and fail
// with a ParseError when one is missing.

func group(kind scene.Kind, attrs []svg.Attribute) *svg.Node {
	g := svg.Bind(svg.Elem{Name: "g", Attrs: attrs})
	g.SetAttr(typeAttr, string(kind))
	return g
}

// childWithSuffix returns the first direct child named local whose id ends
// in suffix.
func childWithSuffix(n *svg.Node, local, suffix string) *svg.Node {
	for _, c := range n.ChildrenNamed(local) {
		if strings.HasSuffix(c.ID(), suffix) {
			return c
		}
	}
	return nil
}

// Dashed line: two lines on the same segment. The first draws the main
// dashes, the second the alternate dashes in the gaps of the first.

func dashedGroupAttrs(d *scene.DashedLine) []svg.Attribute {
	return append(baseAttrs(&d.Base),
		svg.Float(svg.VO("dash-width"), 3, &d.DashWidth),
		svg.Float(svg.VO("alt-dash-width"), 3, &d.AltDashWidth),
		svg.Bool(svg.VO("fixed-stroke-width"), false, &d.Stroke.Fixed),
		svg.Float(svg.N("opacity"), 1, &d.Opacity),
	)
}

func dashedMainAttrs(d *scene.DashedLine) []svg.Attribute {
	attrs := append(lineGeomAttrs(&d.Line), colorAttrs("stroke", "stroke-opacity", "stroke-color", color.Black, &d.Stroke.Color)...)
	return append(attrs, svg.Float(svg.N("stroke-width"), 1, &d.Stroke.Width))
}

func dashedAltAttrs(d *scene.DashedLine) []svg.Attribute {
	return colorAttrs("stroke", "stroke-opacity", "alt-color", color.White, &d.AltColor)
}

func dashedLineToSvg(d *scene.DashedLine) *svg.Node {
	dash, alt := vector.FormatNumber(d.DashWidth), vector.FormatNumber(d.AltDashWidth)
	main := svg.Bind(svg.Elem{Name: "line", Attrs: dashedMainAttrs(d)})
	main.SetAttr(svg.N("stroke-dasharray"), dash+" "+alt)

	second := svg.Bind(svg.Elem{Name: "line", Attrs: append(lineGeomAttrs(&d.Line), dashedAltAttrs(d)...)})
	second.SetAttr(svg.N("stroke-width"), vector.FormatNumber(d.Stroke.Width))
	second.SetAttr(svg.N("stroke-dasharray"), alt+" "+dash)
	second.SetAttr(svg.N("stroke-dashoffset"), vector.FormatNumber(-d.DashWidth))

	return group(scene.KindDashedLine, dashedGroupAttrs(d)).Append(main, second)
}

func dashedLineFromSvg(g *svg.Node) (scene.VObject, error) {
	lines := g.ChildrenNamed("line")
	if len(lines) < 2 {
		return nil, parseErr(g, fmt.Sprintf("dashed line needs 2 <line> elements, found %d", len(lines)), nil)
	}
	d := scene.NewDashedLine(vector.Pt{}, vector.Pt{}, 1, color.Black, color.White, 3, 3)
	if err := read(g, dashedGroupAttrs(d)); err != nil {
		return nil, err
	}
	if err := read(lines[0], dashedMainAttrs(d)); err != nil {
		return nil, err
	}
	if err := read(lines[1], dashedAltAttrs(d)); err != nil {
		return nil, err
	}
	return d, nil
}

// Grid: one path with the vertical lines, one with the horizontal lines, in
// unrotated coordinates; the group carries the rotation.

func gridGroupAttrs(g *scene.Grid) []svg.Attribute {
	m := g.Rect().Transform()
	attrs := append(baseAttrs(&g.Base),
		svg.Float(svg.VO("x"), 0, &g.X),
		svg.Float(svg.VO("y"), 0, &g.Y),
		svg.Int(svg.VO("cols"), 0, &g.Cols),
		svg.Int(svg.VO("rows"), 0, &g.Rows),
		svg.Float(svg.VO("step-x"), 0, &g.StepX),
		svg.Float(svg.VO("step-y"), 0, &g.StepY),
		transformAttr(&m, func() { g.Angle = angleOf(m) }),
		constant(svg.N("fill"), "none"),
	)
	attrs = append(attrs, strokeAttrs(&g.Line, "stroke-color")...)
	return append(attrs, svg.Float(svg.N("opacity"), 1, &g.Opacity))
}

func gridPaths(g *scene.Grid) (vertical, horizontal vector.Path) {
	b := g.Bounds()
	for i := 0; i <= g.Cols; i++ {
		x := g.X + float64(i)*g.StepX
		vertical.MoveTo(x, b.Y)
		vertical.LineTo(x, b.Y+b.H)
	}
	for j := 0; j <= g.Rows; j++ {
		y := g.Y + float64(j)*g.StepY
		horizontal.MoveTo(b.X, y)
		horizontal.LineTo(b.X+b.W, y)
	}
	return vertical, horizontal
}

func gridToSvg(g *scene.Grid) *svg.Node {
	v, h := gridPaths(g)
	vp := svg.NewNode("path")
	vp.SetAttr(svg.N("id"), g.ID+"_vertical")
	vp.SetAttr(svg.N("d"), v.String())
	hp := svg.NewNode("path")
	hp.SetAttr(svg.N("id"), g.ID+"_horizontal")
	hp.SetAttr(svg.N("d"), h.String())
	return group(scene.KindGrid, gridGroupAttrs(g)).Append(vp, hp)
}

func gridFromSvg(n *svg.Node) (scene.VObject, error) {
	if childWithSuffix(n, "path", "_vertical") == nil {
		return nil, parseErr(n, "grid without vertical path", nil)
	}
	if childWithSuffix(n, "path", "_horizontal") == nil {
		return nil, parseErr(n, "grid without horizontal path", nil)
	}
	g := scene.NewGrid(0, 0, 0, 0, 0, 0)
	return done(g, read(n, gridGroupAttrs(g)))
}

// Image: the group holds the object attributes, a <rect> the frame and, when
// the image has a source, an <image> referencing the stored file.

func imageGroupAttrs(img *scene.Image) []svg.Attribute {
	attrs := append(baseAttrs(&img.Base), contentAttrs(&img.ContentBase)...)
	attrs = append(attrs, imageLeafAttrs(img)...)
	return append(attrs, svg.Float(svg.N("opacity"), 1, &img.Opacity))
}

func imageFrameAttrs(img *scene.Image) []svg.Attribute {
	attrs := append(rectBoxAttrs(&img.Rect), fillAttrs(&img.Frame)...)
	return append(attrs, borderAttrs(&img.Frame)...)
}

var hrefAttr = svg.XLink("href")

func imageToSvg(img *scene.Image) *svg.Node {
	g := group(scene.KindImage, imageGroupAttrs(img))
	g.Append(svg.Bind(svg.Elem{Name: "rect", Attrs: imageFrameAttrs(img)}))
	if img.FileID != "" {
		r := img.Rect
		ref := svg.Bind(svg.Elem{Name: "image", Attrs: rectBoxAttrs(&r)})
		ref.SetAttr(svg.N("preserveAspectRatio"), "none")
		ref.SetAttr(hrefAttr, img.FileID)
		g.Append(ref)
	}
	return g
}

func (c *Converter) imageFromSvg(ctx context.Context, n *svg.Node) (*scene.Image, error) {
	frame := n.Child("rect")
	if frame == nil {
		return nil, parseErr(n, "image without frame <rect>", nil)
	}
	img := scene.NewImage(vector.RotatedRect{}, "")
	if err := read(n, imageGroupAttrs(img)); err != nil {
		return nil, err
	}
	if err := read(frame, imageFrameAttrs(img)); err != nil {
		return nil, err
	}
	ref := n.Child("image")
	if ref == nil {
		return img, nil
	}
	id := ref.Get(hrefAttr)
	if id == "" {
		id = ref.Get(svg.N("href"))
	}
	if id == "" {
		return img, nil
	}
	if c.Store != nil {
		ok, err := c.Store.Exists(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("check image file %s: %w", id, err)
		}
		if !ok {
			c.log().Warn("image file not in store, reference dropped", slog.String("object", img.ID), slog.String("file", id))
			return img, nil
		}
	}
	img.FileID = id
	return img, nil
}

// Curved text: the curve is a <path> in <defs>, the text sits in a
// <textPath> referencing it.

func curvedTextToSvg(t *scene.CurvedText) *svg.Node {
	pathID := t.ID + "_path"
	curve := svg.NewNode("path")
	curve.SetAttr(svg.N("id"), pathID)
	curve.SetAttr(svg.N("d"), t.TextPath.String())

	tp := svg.NewNode("textPath")
	tp.SetAttr(hrefAttr, "#"+pathID)
	tp.Text = t.Text
	text := svg.NewNode("text")
	text.SetAttr(xmlSpace, "preserve")
	text.Append(tp)

	return group(scene.KindCurvedText, textKindAttrs(t)).Append(svg.NewNode("defs").Append(curve), text)
}

func curvedTextFromSvg(n *svg.Node) (scene.VObject, error) {
	defs := n.Child("defs")
	if defs == nil {
		return nil, parseErr(n, "curved text without <defs>", nil)
	}
	curve := childWithSuffix(defs, "path", "_path")
	if curve == nil {
		return nil, parseErr(n, "curved text without text path", nil)
	}
	text := n.Child("text")
	if text == nil {
		return nil, parseErr(n, "curved text without <text>", nil)
	}
	tp := text.Child("textPath")
	if tp == nil {
		return nil, parseErr(n, "curved text without <textPath>", nil)
	}
	t := scene.NewCurvedText(vector.Path{}, "")
	if err := read(n, textKindAttrs(t)); err != nil {
		return nil, err
	}
	p, err := vector.ParsePath(curve.Get(svg.N("d")))
	if err != nil {
		return nil, parseErr(curve, "bad text path", err)
	}
	t.TextPath = p
	t.Text = tp.Text
	return t, nil
}

// Placeholder: background path (fill only), optional content clipped to the
// frame, border path (stroke only). Older documents use <rect> for the
// background and the border.

func placeholderGroupAttrs(p *scene.Placeholder) []svg.Attribute {
	attrs := append(baseAttrs(&p.Base), contentAttrs(&p.ContentBase)...)
	return append(attrs,
		svg.Bool(svg.VO("is-stub-content"), false, &p.IsStubContent),
		svg.Bool(svg.VO("show-masked-content"), false, &p.ShowMaskedContent),
		svg.Float(svg.N("opacity"), 1, &p.Opacity),
	)
}

func placeholderToSvg(p *scene.Placeholder) *svg.Node {
	g := group(scene.KindPlaceholder, placeholderGroupAttrs(p))

	r := p.Rect
	bg := svg.Bind(svg.Elem{Name: "path", Attrs: append(outlineAttrs(&r), fillAttrs(&p.Frame)...)})
	bg.SetAttr(svg.N("stroke"), "none")
	g.Append(bg)

	if p.Content != nil {
		clipID := p.ID + "_clip"
		clip := svg.NewNode("clipPath")
		clip.SetAttr(svg.N("id"), clipID)
		clip.Append(svg.Bind(svg.Elem{Name: "path", Attrs: outlineAttrs(&r)}))
		content := svg.NewNode("g")
		content.SetAttr(svg.N("clip-path"), "url(#"+clipID+")")
		content.Append(imageToSvg(p.Content))
		g.Append(clip, content)
	}

	border := svg.Bind(svg.Elem{Name: "path", Attrs: append(outlineAttrs(&r), borderAttrs(&p.Frame)...)})
	border.SetAttr(svg.N("fill"), "none")
	return g.Append(border)
}

func (c *Converter) placeholderFromSvg(ctx context.Context, n *svg.Node) (scene.VObject, error) {
	var outlines []*svg.Node
	var content *svg.Node
	for _, ch := range n.Children {
		switch {
		case ch.Is("path") || ch.Is("rect"):
			outlines = append(outlines, ch)
		case ch.Is("g") && ch.Get(svg.N("clip-path")) != "":
			content = ch
		}
	}
	if len(outlines) < 2 {
		return nil, parseErr(n, fmt.Sprintf("placeholder needs background and border, found %d outlines", len(outlines)), nil)
	}
	p := scene.NewPlaceholder(vector.RotatedRect{})
	if err := read(n, placeholderGroupAttrs(p)); err != nil {
		return nil, err
	}
	bg, border := outlines[0], outlines[1]
	if err := read(bg, append(outlineOf(bg, &p.Rect), fillAttrs(&p.Frame)...)); err != nil {
		return nil, err
	}
	if err := read(border, borderAttrs(&p.Frame)); err != nil {
		return nil, err
	}
	if content != nil {
		var ref *svg.Node
		for _, ch := range content.ChildrenNamed("g") {
			if scene.Kind(ch.Get(typeAttr)) == scene.KindImage {
				ref = ch
				break
			}
		}
		if ref == nil {
			return nil, parseErr(n, "placeholder content without image", nil)
		}
		img, err := c.imageFromSvg(ctx, ref)
		if err != nil {
			return nil, err
		}
		p.SetContent(img)
	}
	return p, nil
}

// outlineOf reads the frame geometry from a path or a legacy rect.
func outlineOf(n *svg.Node, r *vector.RotatedRect) []svg.Attribute {
	if n.Is("rect") {
		return rectBoxAttrs(r)
	}
	return outlineAttrs(r)
}
