/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a canvas to a single-page vector PDF proof.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"gocanvas/internal/color"
	"gocanvas/internal/scene"
	"gocanvas/internal/textlayout"
	"gocanvas/internal/vector"
)

// PDFOptions controls PDF export behavior. Units are points.
// Text uses the built-in Helvetica so nothing is embedded; bounded text is
// wrapped to its frame and curved text follows its path.
// Images are drawn as crossed frames; pixels are not rendered.
//
//nolint:revive // keep options grouped and explicit for clarity
type PDFOptions struct {
	Title string
	// IncludeGuides draws the workspace border.
	IncludeGuides bool
	GuideColor    color.Color
	// IncludeHidden also draws layers that are switched off.
	IncludeHidden bool
}

// ExportPDF writes cv as a one-page PDF the size of the workspace.
func ExportPDF(cv *scene.Canvas, outPath string, opt PDFOptions) error {
	if cv == nil {
		return errors.New("canvas is nil")
	}
	w, h := cv.WorkspaceWidth, cv.WorkspaceHeight
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid workspace size %vx%v", w, h)
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
	})
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	pdf.SetCreator("gocanvas", false)
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPageFormat("", gofpdf.SizeType{Wd: w, Ht: h})

	if opt.IncludeGuides {
		gc := opt.GuideColor
		if gc.IsTransparent() {
			gc = color.NewRGB(255, 0, 0, 255)
		}
		setDrawColor(pdf, gc)
		pdf.SetLineWidth(0.2)
		pdf.Rect(0, 0, w, h, "D")
	}

	for _, l := range cv.Layers.Items() {
		if !l.Visible && !opt.IncludeHidden {
			continue
		}
		if l.Region != nil {
			pdf.ClipRect(l.Region.Bounds().X, l.Region.Bounds().Y, l.Region.Width, l.Region.Height, false)
		}
		for _, o := range l.Objects.Items() {
			if !o.Common().Visible {
				continue
			}
			drawObject(pdf, o)
		}
		if l.Region != nil {
			pdf.ClipEnd()
		}
	}
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}

	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func drawObject(pdf *gofpdf.Fpdf, o scene.VObject) {
	switch v := o.(type) {
	case *scene.Rectangle:
		rotated(pdf, v.Rect, v.Opacity, func(b vector.Rect) { frameRect(pdf, b, &v.Frame) })
	case *scene.Ellipse:
		rotated(pdf, v.Rect, v.Opacity, func(b vector.Rect) {
			if style := framePaint(pdf, &v.Frame); style != "" {
				c := b.Center()
				pdf.Ellipse(c.X, c.Y, b.W/2, b.H/2, 0, style)
			}
		})
	case *scene.Shape:
		rotated(pdf, v.Rect, v.Opacity, func(vector.Rect) {
			if style := framePaint(pdf, &v.Frame); style != "" {
				tracePath(pdf, v.Path)
				pdf.DrawPath(style)
			}
		})
	case *scene.DashedLine:
		withAlpha(pdf, v.Opacity, func() {
			strokeLine(pdf, v.P1, v.P2, scene.Stroke{Color: v.AltColor, Width: v.Stroke.Width})
			pdf.SetDashPattern([]float64{v.DashWidth, v.AltDashWidth}, 0)
			strokeLine(pdf, v.P1, v.P2, v.Stroke)
			pdf.SetDashPattern([]float64{}, 0)
		})
	case *scene.Line:
		withAlpha(pdf, v.Opacity, func() { strokeLine(pdf, v.P1, v.P2, v.Stroke) })
	case *scene.Polyline:
		withAlpha(pdf, v.Opacity, func() {
			for i := 1; i < len(v.Points); i++ {
				strokeLine(pdf, v.Points[i-1], v.Points[i], v.Stroke)
			}
		})
	case *scene.Grid:
		rotated(pdf, v.Rect(), v.Opacity, func(b vector.Rect) {
			for i := 0; i <= v.Cols; i++ {
				x := b.X + float64(i)*v.StepX
				strokeLine(pdf, vector.Pt{X: x, Y: b.Y}, vector.Pt{X: x, Y: b.Y + b.H}, v.Line)
			}
			for j := 0; j <= v.Rows; j++ {
				y := b.Y + float64(j)*v.StepY
				strokeLine(pdf, vector.Pt{X: b.X, Y: y}, vector.Pt{X: b.X + b.W, Y: y}, v.Line)
			}
		})
	case *scene.Image:
		drawImageFrame(pdf, v)
	case *scene.Placeholder:
		rotated(pdf, v.Rect, v.Opacity, func(b vector.Rect) { frameRect(pdf, b, &v.Frame) })
		if v.Content != nil {
			drawImageFrame(pdf, v.Content)
		}
	case *scene.CurvedText:
		drawCurvedText(pdf, v)
	case *scene.PlainText:
		drawText(pdf, &v.TextBase, textSingleLines)
	case *scene.BoundedText:
		drawText(pdf, &v.TextBase, textWrapped)
	case *scene.PathBoundedText:
		drawText(pdf, &v.TextBase, textWrapped)
	case *scene.AutoScaledText:
		drawText(pdf, &v.TextBase, textScaled)
	}
}

// rotated runs draw with the unrotated bounds of r while the page is rotated
// around its center. PDF angles run counter-clockwise.
func rotated(pdf *gofpdf.Fpdf, r vector.RotatedRect, opacity float64, draw func(b vector.Rect)) {
	withAlpha(pdf, opacity, func() {
		pdf.TransformBegin()
		if r.Angle != 0 {
			pdf.TransformRotate(-r.Angle, r.CenterX, r.CenterY)
		}
		draw(r.Bounds())
		pdf.TransformEnd()
	})
}

func withAlpha(pdf *gofpdf.Fpdf, opacity float64, draw func()) {
	if opacity >= 1 || opacity < 0 {
		draw()
		return
	}
	pdf.SetAlpha(opacity, "Normal")
	draw()
	pdf.SetAlpha(1, "Normal")
}

// framePaint selects fill and border colors and returns the gofpdf style,
// "" when the frame paints nothing.
func framePaint(pdf *gofpdf.Fpdf, f *scene.Frame) string {
	var style string
	if !f.FillColor.IsTransparent() {
		setFillColor(pdf, f.FillColor)
		style += "F"
	}
	if f.BorderWidth > 0 && !f.BorderColor.IsTransparent() {
		setDrawColor(pdf, f.BorderColor)
		pdf.SetLineWidth(f.BorderWidth)
		style += "D"
	}
	return style
}

func frameRect(pdf *gofpdf.Fpdf, b vector.Rect, f *scene.Frame) {
	if style := framePaint(pdf, f); style != "" {
		pdf.Rect(b.X, b.Y, b.W, b.H, style)
	}
}

func strokeLine(pdf *gofpdf.Fpdf, a, b vector.Pt, s scene.Stroke) {
	if s.Width <= 0 || s.Color.IsTransparent() {
		return
	}
	setDrawColor(pdf, s.Color)
	pdf.SetLineWidth(s.Width)
	pdf.Line(a.X, a.Y, b.X, b.Y)
}

func tracePath(pdf *gofpdf.Fpdf, p vector.Path) {
	for _, c := range p.Cmds {
		d := c.Data
		switch c.Op {
		case vector.MoveTo:
			pdf.MoveTo(d[0], d[1])
		case vector.LineTo:
			pdf.LineTo(d[0], d[1])
		case vector.QuadTo:
			pdf.CurveTo(d[0], d[1], d[2], d[3])
		case vector.CubicTo:
			pdf.CurveBezierCubicTo(d[0], d[1], d[2], d[3], d[4], d[5])
		case vector.Close:
			pdf.ClosePath()
		}
	}
}

// drawImageFrame marks the image area with its frame and both diagonals.
func drawImageFrame(pdf *gofpdf.Fpdf, img *scene.Image) {
	rotated(pdf, img.Rect, img.Opacity, func(b vector.Rect) {
		frameRect(pdf, b, &img.Frame)
		setDrawColor(pdf, color.NewRGB(160, 160, 160, 255))
		pdf.SetLineWidth(0.5)
		pdf.Line(b.X, b.Y, b.X+b.W, b.Y+b.H)
		pdf.Line(b.X+b.W, b.Y, b.X, b.Y+b.H)
	})
}

type textMode int

const (
	textSingleLines textMode = iota
	textWrapped
	textScaled
)

func drawText(pdf *gofpdf.Fpdf, t *scene.TextBase, mode textMode) {
	rotated(pdf, t.Rect, t.Opacity, func(b vector.Rect) {
		frameRect(pdf, b, &t.Frame)
		size := t.Font.Size
		if size <= 0 {
			size = scene.DefaultFont.Size
		}
		style := fontStyle(t)
		pdf.SetFont("Helvetica", style, size)
		m := textlayout.MeasureFunc(pdf.GetStringWidth)
		var maxW float64
		if mode == textWrapped {
			maxW = b.W
		}
		lines := textlayout.Wrap(m, t.Text, maxW, 0)
		if w := textlayout.MaxWidth(lines); mode == textScaled && w > 0 && b.W > 0 {
			size *= b.W / w
			pdf.SetFont("Helvetica", style, size)
			lines = textlayout.Wrap(m, t.Text, 0, 0)
		}
		setTextColor(pdf, t.TextColor)
		lineHeight := size * 1.2
		if t.Leading > 0 {
			lineHeight = t.Leading
		}
		y := b.Y + size
		for _, line := range lines {
			x := b.X
			switch t.Alignment {
			case scene.AlignCenter:
				x = b.X + (b.W-line.Width)/2
			case scene.AlignRight:
				x = b.X + b.W - line.Width
			}
			pdf.Text(x, y, line.Text)
			y += lineHeight
		}
	})
}

// drawCurvedText places each glyph along the text path. With FitToPath the
// font shrinks by FitToPathStep until the text fits the path range.
func drawCurvedText(pdf *gofpdf.Fpdf, t *scene.CurvedText) {
	size := t.Font.Size
	if size <= 0 {
		size = scene.DefaultFont.Size
	}
	style := fontStyle(&t.TextBase)
	pdf.SetFont("Helvetica", style, size)
	m := textlayout.MeasureFunc(pdf.GetStringWidth)
	opt := textlayout.PathOptions{Start: t.Start, End: t.End, Stretch: t.Stretch}
	poses, _ := textlayout.LayoutOnPath(m, t.Text, t.TextPath, opt)
	if t.FitToPath && t.FitToPathStep > 0 {
		want := len([]rune(t.Text))
		for len(poses) < want && size-t.FitToPathStep >= 1 {
			size -= t.FitToPathStep
			pdf.SetFont("Helvetica", style, size)
			poses, _ = textlayout.LayoutOnPath(m, t.Text, t.TextPath, opt)
		}
	}
	withAlpha(pdf, t.Opacity, func() {
		setTextColor(pdf, t.TextColor)
		for _, g := range poses {
			pdf.TransformBegin()
			pdf.TransformRotate(-g.Angle, g.Pos.X, g.Pos.Y)
			pdf.Text(g.Pos.X, g.Pos.Y, string(g.Rune))
			pdf.TransformEnd()
		}
	})
}

func fontStyle(t *scene.TextBase) string {
	var s string
	style := strings.ToLower(t.Font.Style)
	if t.Font.FauxBold || strings.Contains(style, "bold") {
		s += "B"
	}
	if t.Font.FauxItalic || strings.Contains(style, "italic") || strings.Contains(style, "oblique") {
		s += "I"
	}
	if t.Underline {
		s += "U"
	}
	return s
}

func setDrawColor(pdf *gofpdf.Fpdf, c color.Color) {
	pdf.SetDrawColor(int(c.Preview.R), int(c.Preview.G), int(c.Preview.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c color.Color) {
	pdf.SetFillColor(int(c.Preview.R), int(c.Preview.G), int(c.Preview.B))
}

func setTextColor(pdf *gofpdf.Fpdf, c color.Color) {
	pdf.SetTextColor(int(c.Preview.R), int(c.Preview.G), int(c.Preview.B))
}
