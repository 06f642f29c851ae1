/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"gocanvas/internal/color"
	"gocanvas/internal/scene"
	"gocanvas/internal/storage"
	"gocanvas/internal/svg"
	"gocanvas/internal/vector"
)

func mustPath(t *testing.T, d string) vector.Path {
	t.Helper()
	p, err := vector.ParsePath(d)
	if err != nil {
		t.Fatalf("parse path %q: %v", d, err)
	}
	return p
}

func rr(cx, cy, w, h, angle float64) vector.RotatedRect {
	return vector.RotatedRect{CenterX: cx, CenterY: cy, Width: w, Height: h, Angle: angle}
}

// sampleObjects returns one object of every kind with non-default values.
func sampleObjects(t *testing.T) []scene.VObject {
	t.Helper()
	cmyk := color.NewCMYK(10, 20, 30, 40, 255)
	gray := color.NewGray(128, 200)

	rect := scene.NewRectangle(rr(36, 36, 20, 10, 15))
	rect.Name = "box"
	rect.Locked = true
	rect.Tag = json.RawMessage(`{"k":1}`)
	rect.Permissions = scene.AllowMove | scene.AllowSelect
	rect.FillColor = cmyk
	rect.BorderColor = color.NewRGB(0, 0, 255, 128)
	rect.BorderWidth = 2
	rect.FixedBorderWidth = true
	rect.Opacity = 0.5

	ell := scene.NewEllipse(rr(100, 50, 40, 20, -30))
	ell.FillColor = gray
	ell.Visible = false

	shape := scene.NewShape(mustPath(t, "M 0 0 L 40 0 Q 50 10 40 20 C 30 30 10 30 0 20 Z"), 45)
	shape.FillColor = color.NewRGB(1, 2, 3, 255)

	line := scene.NewLine(vector.Pt{X: 1, Y: 2}, vector.Pt{X: 30, Y: 40}, 3, cmyk)
	line.Stroke.Fixed = true
	line.Opacity = 0.25

	dashed := scene.NewDashedLine(vector.Pt{X: 0, Y: 100}, vector.Pt{X: 200, Y: 100}, 2, color.NewRGB(255, 0, 0, 255), gray, 5, 7)

	poly := scene.NewPolyline([]vector.Pt{{X: 0, Y: 0}, {X: 10, Y: 5}, {X: 20, Y: 0}}, 1.5, color.NewRGB(0, 128, 0, 255))

	grid := scene.NewGrid(10, 20, 4, 3, 5, 6)
	grid.Angle = 30
	grid.Line = scene.Stroke{Color: gray, Width: 0.5, Fixed: true}

	img := scene.NewImage(rr(50, 60, 80, 40, 10), "file-1")
	img.SourceWidth, img.SourceHeight, img.SourceDPI = 800, 400, 300
	img.KeepProportion = true
	img.MaskColor = color.NewRGB(0, 0, 0, 64)

	plain := scene.NewPlainText(rr(20, 30, 100, 20, 0), "Hello\nworld & <friends>")
	plain.Font = scene.Font{Family: "Times", Style: "Bold", PostScriptName: "Times-Bold", FauxItalic: true, Size: 14}
	plain.Alignment = scene.AlignCenter
	plain.Underline = true
	plain.TextColor = cmyk
	plain.Vertical = true

	bounded := scene.NewBoundedText(rr(60, 60, 100, 80, 5), "wrapped text")
	bounded.VerticalAlignment = scene.VAlignBottom
	bounded.Paragraph = scene.Paragraph{FirstLineIndent: 4, SpaceBefore: 2, SpaceAfter: 3}
	bounded.WrappingRectangles = []vector.RotatedRect{rr(70, 70, 10, 10, 0)}
	bounded.WrappingMargin = 1.5
	bounded.FillColor = color.White
	bounded.Tracking = 20
	bounded.Leading = 12

	pathBounded := scene.NewPathBoundedText([]vector.Path{mustPath(t, "M 0 0 L 50 0 L 50 50 Z")}, "in a triangle")
	pathBounded.IsRichText = true
	pathBounded.HorizontalScale = 1.25

	auto := scene.NewAutoScaledText(rr(10, 10, 20, 20, 0), "fit")
	auto.VerticalScale = 0.75

	curved := scene.NewCurvedText(mustPath(t, "M 0 50 C 20 0 80 0 100 50"), "along the curve")
	curved.FitToPath = true
	curved.Stretch = true
	curved.FitToPathStep = 2
	curved.OriginalFontSize = 18
	curved.Start = 0.1
	curved.End = 0.9

	ph := scene.NewPlaceholder(rr(150, 150, 60, 40, 20))
	ph.FillColor = color.NewRGB(200, 200, 200, 255)
	ph.BorderWidth = 1
	ph.IsStubContent = true
	ph.ShowMaskedContent = true
	content := scene.NewImage(rr(150, 150, 90, 60, 20), "file-2")
	ph.SetContent(content)

	return []scene.VObject{rect, ell, shape, line, dashed, poly, grid, img, plain, bounded, pathBounded, auto, curved, ph}
}

func snapshot(t *testing.T, o scene.VObject) string {
	t.Helper()
	b, err := scene.MarshalObject(o)
	if err != nil {
		t.Fatalf("snapshot %s: %v", o.Kind(), err)
	}
	return string(b)
}

func roundTripDocument(t *testing.T, conv *Converter, cv *scene.Canvas) *scene.Canvas {
	t.Helper()
	root, err := conv.CanvasToSvg(cv)
	if err != nil {
		t.Fatalf("CanvasToSvg: %v", err)
	}
	var buf bytes.Buffer
	if err := svg.Encode(&buf, root); err != nil {
		t.Fatalf("encode: %v", err)
	}
	parsed, err := svg.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out := scene.NewCanvas(1, 1, scene.Options{})
	t.Cleanup(out.Close)
	if err := conv.CanvasFromSvg(context.Background(), parsed, out); err != nil {
		t.Fatalf("CanvasFromSvg: %v", err)
	}
	return out
}

func TestEveryKindRoundTrips(t *testing.T) {
	cv := scene.NewCanvas(400, 300, scene.Options{})
	defer cv.Close()
	cv.ColorSettings = scene.ColorSettings{Enabled: false, RGBProfile: "rgb-1", CMYKProfile: "cmyk-1"}
	cv.Tags["author"] = "ann"

	main := scene.NewLayer("main")
	region := rr(200, 150, 300, 200, 0)
	main.Region = &region
	objs := sampleObjects(t)
	for _, o := range objs {
		if err := main.Objects.Add(o); err != nil {
			t.Fatal(err)
		}
	}
	hidden := scene.NewLayer("hidden")
	hidden.Visible = false
	hidden.Locked = true
	if err := cv.Layers.Add(main); err != nil {
		t.Fatal(err)
	}
	if err := cv.Layers.Add(hidden); err != nil {
		t.Fatal(err)
	}
	cv.CurrentLayerIndex = 1

	out := roundTripDocument(t, New(nil), cv)

	if out.WorkspaceWidth != 400 || out.WorkspaceHeight != 300 {
		t.Fatalf("workspace %vx%v", out.WorkspaceWidth, out.WorkspaceHeight)
	}
	if out.ColorSettings != cv.ColorSettings {
		t.Fatalf("color settings %+v", out.ColorSettings)
	}
	if out.Tags["author"] != "ann" {
		t.Fatalf("tags %+v", out.Tags)
	}
	if out.CurrentLayerIndex != 1 {
		t.Fatalf("current layer %d", out.CurrentLayerIndex)
	}
	if out.History.Len() != 0 {
		t.Fatalf("loading must not record history, got %d entries", out.History.Len())
	}
	if out.Layers.Len() != 2 {
		t.Fatalf("expected 2 layers, got %d", out.Layers.Len())
	}
	l0, _ := out.Layers.At(0)
	l1, _ := out.Layers.At(1)
	if l0.ID != main.ID || l0.Name != "main" || !l0.Visible || l0.Locked || l0.Region == nil || *l0.Region != region {
		t.Fatalf("layer 0 mismatch: %+v", l0)
	}
	if l1.ID != hidden.ID || l1.Visible || !l1.Locked || l1.Region != nil {
		t.Fatalf("layer 1 mismatch: %+v", l1)
	}
	got := l0.Objects.Items()
	if len(got) != len(objs) {
		t.Fatalf("expected %d objects, got %d", len(objs), len(got))
	}
	for i, o := range objs {
		if got[i].Kind() != o.Kind() {
			t.Fatalf("object %d: kind %s, want %s", i, got[i].Kind(), o.Kind())
		}
		if want, have := snapshot(t, o), snapshot(t, got[i]); want != have {
			t.Errorf("%s changed in round trip:\nwant %s\nhave %s", o.Kind(), want, have)
		}
		if got[i].Common().LayerID() != l0.ID {
			t.Errorf("%s not attached to its layer", o.Kind())
		}
	}
}

func TestRotatedRectangleScenario(t *testing.T) {
	cv := scene.NewCanvas(72, 72, scene.Options{})
	defer cv.Close()
	l := scene.NewLayer("layer")
	rect := scene.NewRectangle(rr(36, 36, 20, 10, 15))
	rect.FillColor = color.NewRGB(255, 0, 0, 255)
	rect.BorderColor = color.NewRGB(0, 0, 0, 255)
	rect.BorderWidth = 2
	if err := l.Objects.Add(rect); err != nil {
		t.Fatal(err)
	}
	if err := cv.Layers.Add(l); err != nil {
		t.Fatal(err)
	}

	root, err := New(nil).CanvasToSvg(cv)
	if err != nil {
		t.Fatal(err)
	}
	el := root.Children[0].Children[0]
	if _, ok := el.Attr(svg.VO("angle")); ok {
		t.Fatalf("angle must only be carried by the transform")
	}
	if !strings.HasPrefix(el.Get(svg.N("transform")), "matrix(") {
		t.Fatalf("expected rotation matrix, got %q", el.Get(svg.N("transform")))
	}
	if el.Get(svg.N("x")) != "26" || el.Get(svg.N("width")) != "20" {
		t.Fatalf("expected unrotated bounds, got x=%s width=%s", el.Get(svg.N("x")), el.Get(svg.N("width")))
	}

	out := roundTripDocument(t, New(nil), cv)
	ol, _ := out.Layers.At(0)
	o, _ := ol.Objects.At(0)
	got, ok := o.(*scene.Rectangle)
	if !ok {
		t.Fatalf("expected rectangle, got %T", o)
	}
	want := rr(36, 36, 20, 10, 15)
	if !got.Rect.Equal(want, 1e-4) {
		t.Fatalf("rect %+v, want %+v", got.Rect, want)
	}
	if got.FillColor != rect.FillColor || got.BorderColor != rect.BorderColor {
		t.Fatalf("colors changed: fill %v border %v", got.FillColor, got.BorderColor)
	}
	if math.Abs(got.BorderWidth-2) > 1e-9 {
		t.Fatalf("border width %v", got.BorderWidth)
	}
}

func decodeString(t *testing.T, doc string) *svg.Node {
	t.Helper()
	n, err := svg.Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return n
}

const docHead = `<svg xmlns="http://www.w3.org/2000/svg" xmlns:vo="http://www.aurigma.com/graphicsmill/vectorobjects" xmlns:xlink="http://www.w3.org/1999/xlink" width="100" height="100">`

func TestNativeColorFallback(t *testing.T) {
	doc := decodeString(t, docHead+`<g id="l">
		<rect id="r" x="0" y="0" width="10" height="10" fill="#ff0000" fill-opacity="0.5" stroke="rgb(0,0,255)" stroke-width="1"/>
		<line id="ln" x1="0" y1="0" x2="5" y2="5" stroke="green"/>
	</g></svg>`)
	cv := scene.NewCanvas(1, 1, scene.Options{})
	defer cv.Close()
	if err := New(nil).CanvasFromSvg(context.Background(), doc, cv); err != nil {
		t.Fatal(err)
	}
	l, _ := cv.Layers.At(0)
	o, _ := l.Objects.At(0)
	r := o.(*scene.Rectangle)
	if r.FillColor != color.NewRGB(255, 0, 0, 128) {
		t.Fatalf("fill %v", r.FillColor)
	}
	if r.BorderColor != color.NewRGB(0, 0, 255, 255) {
		t.Fatalf("border %v", r.BorderColor)
	}
	o, _ = l.Objects.At(1)
	if ln := o.(*scene.Line); ln.Stroke.Color != color.NewRGB(0, 128, 0, 255) {
		t.Fatalf("line stroke %v", ln.Stroke.Color)
	}
}

func TestExactColorWinsOverNativePaint(t *testing.T) {
	cmyk := color.NewCMYK(0, 100, 100, 0, 255)
	rect := scene.NewRectangle(rr(5, 5, 10, 10, 0))
	rect.FillColor = cmyk
	n, err := New(nil).ToSvg(rect)
	if err != nil {
		t.Fatal(err)
	}
	if n.Get(svg.N("fill")) != color.Hex(cmyk.Preview) {
		t.Fatalf("native fill should hold the preview, got %q", n.Get(svg.N("fill")))
	}
	if n.Get(svg.VO("fill-color")) == "" {
		t.Fatalf("exact fill color missing")
	}
	o, err := New(nil).FromSvg(context.Background(), n)
	if err != nil {
		t.Fatal(err)
	}
	if got := o.(*scene.Rectangle).FillColor; got != cmyk {
		t.Fatalf("fill %v, want %v", got, cmyk)
	}
}

func TestCompositeReadsFailWithoutPrimitives(t *testing.T) {
	cases := map[string]string{
		"grid":        `<g vo:type="grid" id="g"><path id="g_vertical" d="M 0 0 L 0 10"/></g>`,
		"dashed line": `<g vo:type="dashedline" id="d"><line x1="0" y1="0" x2="1" y2="1"/></g>`,
		"image":       `<g vo:type="image" id="i"><image xlink:href="f"/></g>`,
		"curved text": `<g vo:type="curvedtext" id="c"><defs><path id="c_path" d="M 0 0 L 10 0"/></defs><text/></g>`,
		"placeholder": `<g vo:type="placeholder" id="p"><path d="M 0 0 L 10 0 L 10 10 Z"/></g>`,
	}
	for name, el := range cases {
		t.Run(name, func(t *testing.T) {
			doc := decodeString(t, docHead+`<g id="l">`+el+`</g></svg>`)
			cv := scene.NewCanvas(1, 1, scene.Options{})
			defer cv.Close()
			err := New(nil).CanvasFromSvg(context.Background(), doc, cv)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
		})
	}
}

func TestLegacyPlaceholderRects(t *testing.T) {
	doc := decodeString(t, docHead+`<g id="l">
		<g vo:type="placeholder" id="p">
			<rect x="10" y="20" width="30" height="40" fill="#00ff00" stroke="none"/>
			<rect x="10" y="20" width="30" height="40" fill="none" stroke="#0000ff" stroke-width="2"/>
		</g>
	</g></svg>`)
	cv := scene.NewCanvas(1, 1, scene.Options{})
	defer cv.Close()
	if err := New(nil).CanvasFromSvg(context.Background(), doc, cv); err != nil {
		t.Fatal(err)
	}
	l, _ := cv.Layers.At(0)
	o, _ := l.Objects.At(0)
	p, ok := o.(*scene.Placeholder)
	if !ok {
		t.Fatalf("expected placeholder, got %T", o)
	}
	if !p.Rect.Equal(rr(25, 40, 30, 40, 0), 1e-9) {
		t.Fatalf("rect %+v", p.Rect)
	}
	if p.FillColor != color.NewRGB(0, 255, 0, 255) || p.BorderColor != color.NewRGB(0, 0, 255, 255) || p.BorderWidth != 2 {
		t.Fatalf("paint fill=%v border=%v width=%v", p.FillColor, p.BorderColor, p.BorderWidth)
	}
	if p.Content != nil {
		t.Fatalf("no content expected")
	}
}

func TestUnknownElementsAreSkipped(t *testing.T) {
	doc := decodeString(t, docHead+`<g id="l">
		<circle cx="1" cy="1" r="1"/>
		<g vo:type="hologram"><rect x="0" y="0" width="1" height="1"/></g>
		<rect vo:type="future" x="0" y="0" width="1" height="1"/>
		<text vo:type="poem">roses</text>
		<rect id="kept" x="0" y="0" width="2" height="2"/>
	</g><desc>ignored</desc></svg>`)
	cv := scene.NewCanvas(1, 1, scene.Options{})
	defer cv.Close()
	if err := New(nil).CanvasFromSvg(context.Background(), doc, cv); err != nil {
		t.Fatal(err)
	}
	if cv.Layers.Len() != 1 {
		t.Fatalf("expected 1 layer, got %d", cv.Layers.Len())
	}
	l, _ := cv.Layers.At(0)
	if l.Objects.Len() != 1 || l.ObjectByID("kept") == nil {
		t.Fatalf("expected only the known rect, got %d objects", l.Objects.Len())
	}
	if n, err := New(nil).ToSvg(nil); n != nil || err != nil {
		t.Fatalf("nil object must be dropped silently, got %v %v", n, err)
	}
}

func TestImageReferenceDroppedWhenFileMissing(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.Add(ctx, "present", strings.NewReader("png"), true); err != nil {
		t.Fatal(err)
	}
	conv := New(store)
	for _, tc := range []struct {
		file, want string
	}{{"present", "present"}, {"absent", ""}} {
		img := scene.NewImage(rr(10, 10, 20, 20, 0), tc.file)
		n, err := conv.ToSvg(img)
		if err != nil {
			t.Fatal(err)
		}
		o, err := conv.FromSvg(ctx, n)
		if err != nil {
			t.Fatal(err)
		}
		got := o.(*scene.Image)
		if got.FileID != tc.want {
			t.Fatalf("file %q: got FileID %q, want %q", tc.file, got.FileID, tc.want)
		}
		if !got.Rect.Equal(img.Rect, 1e-9) {
			t.Fatalf("frame lost: %+v", got.Rect)
		}
	}
}

func TestDashedLineWritesComplementaryDashes(t *testing.T) {
	d := scene.NewDashedLine(vector.Pt{}, vector.Pt{X: 100}, 2, color.Black, color.White, 4, 6)
	g, err := New(nil).ToSvg(d)
	if err != nil {
		t.Fatal(err)
	}
	lines := g.ChildrenNamed("line")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Get(svg.N("stroke-dasharray")) != "4 6" || lines[1].Get(svg.N("stroke-dasharray")) != "6 4" {
		t.Fatalf("dash arrays %q / %q", lines[0].Get(svg.N("stroke-dasharray")), lines[1].Get(svg.N("stroke-dasharray")))
	}
	if lines[1].Get(svg.N("stroke-dashoffset")) != "-4" {
		t.Fatalf("dash offset %q", lines[1].Get(svg.N("stroke-dashoffset")))
	}
	if lines[1].Get(svg.N("stroke")) != "#ffffff" {
		t.Fatalf("alternate stroke %q", lines[1].Get(svg.N("stroke")))
	}
}

func TestGridWritesOnePathPerAxis(t *testing.T) {
	g := scene.NewGrid(0, 0, 2, 1, 10, 10)
	n, err := New(nil).ToSvg(g)
	if err != nil {
		t.Fatal(err)
	}
	v := n.FindByID(g.ID + "_vertical")
	h := n.FindByID(g.ID + "_horizontal")
	if v == nil || h == nil {
		t.Fatalf("grid paths missing")
	}
	if got := v.Get(svg.N("d")); got != "M0 0 L0 10 M10 0 L10 10 M20 0 L20 10" {
		t.Fatalf("vertical path %q", got)
	}
	if got := h.Get(svg.N("d")); got != "M0 0 L20 0 M0 10 L20 10" {
		t.Fatalf("horizontal path %q", got)
	}
}

func TestDefaultsAreNotWritten(t *testing.T) {
	r := scene.NewRectangle(rr(5, 5, 10, 10, 0))
	n, err := New(nil).ToSvg(r)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"visibility", "opacity", "transform", "stroke-width"} {
		if _, ok := n.Attr(svg.N(name)); ok {
			t.Errorf("default %s written", name)
		}
	}
	for _, name := range []string{"locked", "permissions", "fill-color", "border-color"} {
		if _, ok := n.Attr(svg.VO(name)); ok {
			t.Errorf("default vo:%s written", name)
		}
	}
}

func TestRootMustBeSvg(t *testing.T) {
	cv := scene.NewCanvas(1, 1, scene.Options{})
	defer cv.Close()
	err := New(nil).CanvasFromSvg(context.Background(), svg.NewNode("g"), cv)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestObjectTagRoundTripsVerbatim(t *testing.T) {
	for _, tag := range []string{"", `{}`, `[]`, `""`, `0`, `{"k":[1,2],"s":"a b"}`} {
		cv := scene.NewCanvas(100, 100, scene.Options{})
		l := scene.NewLayer("layer")
		rect := scene.NewRectangle(rr(50, 50, 10, 10, 0))
		if tag != "" {
			rect.Tag = json.RawMessage(tag)
		}
		if err := l.Objects.Add(rect); err != nil {
			t.Fatal(err)
		}
		if err := cv.Layers.Add(l); err != nil {
			t.Fatal(err)
		}

		out := roundTripDocument(t, New(nil), cv)
		cv.Close()
		ol, _ := out.Layers.At(0)
		o, err := ol.Objects.At(0)
		if err != nil {
			t.Fatal(err)
		}
		if got := string(o.Common().Tag); got != tag {
			t.Errorf("tag %q came back as %q", tag, got)
		}
	}
}

func TestAngleIsNormalizedThroughMatrix(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{15, 15},
		{180, 180},
		{200, -160},
		{-190, 170},
		{360, 0},
	}
	for _, tc := range cases {
		cv := scene.NewCanvas(100, 100, scene.Options{})
		l := scene.NewLayer("layer")
		if err := l.Objects.Add(scene.NewRectangle(rr(50, 50, 20, 10, tc.in))); err != nil {
			t.Fatal(err)
		}
		if err := cv.Layers.Add(l); err != nil {
			t.Fatal(err)
		}
		out := roundTripDocument(t, New(nil), cv)
		cv.Close()
		ol, _ := out.Layers.At(0)
		o, _ := ol.Objects.At(0)
		got := o.(*scene.Rectangle).Rect
		if math.Abs(got.Angle-tc.want) > 1e-6 {
			t.Errorf("angle %v came back as %v, want %v", tc.in, got.Angle, tc.want)
		}
		if math.Abs(got.CenterX-50) > 1e-6 || math.Abs(got.Width-20) > 1e-6 {
			t.Errorf("angle %v: geometry changed to %+v", tc.in, got)
		}
	}
}
