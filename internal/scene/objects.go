/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"encoding/json"
	"math"

	"github.com/google/uuid"

	"gocanvas/internal/color"
	"gocanvas/internal/vector"
)

// Kind names a concrete vector object type. The set is closed.
type Kind string

const (
	KindRectangle       Kind = "rectangle"
	KindEllipse         Kind = "ellipse"
	KindLine            Kind = "line"
	KindDashedLine      Kind = "dashedline"
	KindPolyline        Kind = "polyline"
	KindGrid            Kind = "grid"
	KindImage           Kind = "image"
	KindPlainText       Kind = "plaintext"
	KindCurvedText      Kind = "curvedtext"
	KindBoundedText     Kind = "boundedtext"
	KindPathBoundedText Kind = "pathboundedtext"
	KindAutoScaledText  Kind = "autoscaledtext"
	KindPlaceholder     Kind = "placeholder"
	KindShape           Kind = "shape"
)

// Kinds lists every object kind in a stable order.
var Kinds = []Kind{
	KindRectangle, KindEllipse, KindLine, KindDashedLine, KindPolyline, KindGrid, KindImage,
	KindPlainText, KindCurvedText, KindBoundedText, KindPathBoundedText, KindAutoScaledText,
	KindPlaceholder, KindShape,
}

// VObject is a vector object owned by a layer. Implementations are the
// pointer types of this package only.
type VObject interface {
	Kind() Kind
	Common() *Base
	// Bounds is the unrotated bounding box in workspace points.
	Bounds() vector.Rect
	vobject()
}

// Permission is a set of user-operation flags stored per object.
type Permission uint32

const (
	AllowMove Permission = 1 << iota
	AllowResize
	AllowRotate
	AllowDelete
	AllowEditContent
	AllowSelect

	PermissionsAll = AllowMove | AllowResize | AllowRotate | AllowDelete | AllowEditContent | AllowSelect
)

func (p Permission) Has(f Permission) bool { return p&f == f }

// Base holds the attributes every object has.
type Base struct {
	ID          string          `json:"id"`
	Name        string          `json:"name,omitempty"`
	Visible     bool            `json:"visible"`
	Locked      bool            `json:"locked,omitempty"`
	Tag         json.RawMessage `json:"tag,omitempty"`
	Permissions Permission      `json:"permissions"`

	// layerID is the id of the layer the object was added to. It does not
	// keep the layer alive.
	layerID string
}

func newBase() Base {
	return Base{ID: uuid.NewString(), Visible: true, Permissions: PermissionsAll}
}

func (b *Base) Common() *Base { return b }
func (b *Base) vobject()      {}

// LayerID returns the id of the owning layer, or "" when detached.
func (b *Base) LayerID() string { return b.layerID }

// Frame is the geometry and paint of objects laid out in a rotated rectangle.
type Frame struct {
	Base
	Rect             vector.RotatedRect `json:"rect"`
	FillColor        color.Color        `json:"fillColor"`
	BorderColor      color.Color        `json:"borderColor"`
	BorderWidth      float64            `json:"borderWidth"`
	FixedBorderWidth bool               `json:"fixedBorderWidth,omitempty"`
	Opacity          float64            `json:"opacity"`
}

func newFrame(r vector.RotatedRect) Frame {
	return Frame{Base: newBase(), Rect: r, FillColor: color.Transparent, BorderColor: color.Black, Opacity: 1}
}

func (f *Frame) Bounds() vector.Rect { return f.Rect.Bounds() }

type Rectangle struct {
	Frame
}

func NewRectangle(r vector.RotatedRect) *Rectangle { return &Rectangle{Frame: newFrame(r)} }
func (*Rectangle) Kind() Kind                       { return KindRectangle }

type Ellipse struct {
	Frame
}

func NewEllipse(r vector.RotatedRect) *Ellipse { return &Ellipse{Frame: newFrame(r)} }
func (*Ellipse) Kind() Kind                     { return KindEllipse }

// Shape is an arbitrary path. Path is kept unrotated in workspace points;
// Rect is its bounding box plus the rotation.
type Shape struct {
	Frame
	Path vector.Path `json:"path"`
}

func NewShape(p vector.Path, angle float64) *Shape {
	return &Shape{Frame: newFrame(vector.NewRotatedRect(p.Bounds(), angle)), Path: p}
}

func (*Shape) Kind() Kind { return KindShape }

// Stroke is the pen of line-like objects.
type Stroke struct {
	Color color.Color `json:"color"`
	Width float64     `json:"width"`
	Fixed bool        `json:"fixed,omitempty"`
}

type Line struct {
	Base
	P1      vector.Pt `json:"p1"`
	P2      vector.Pt `json:"p2"`
	Stroke  Stroke    `json:"stroke"`
	Opacity float64   `json:"opacity"`
}

func NewLine(p1, p2 vector.Pt, width float64, c color.Color) *Line {
	return &Line{Base: newBase(), P1: p1, P2: p2, Stroke: Stroke{Color: c, Width: width}, Opacity: 1}
}

func (*Line) Kind() Kind { return KindLine }

func (l *Line) Bounds() vector.Rect {
	x, y := math.Min(l.P1.X, l.P2.X), math.Min(l.P1.Y, l.P2.Y)
	return vector.R(x, y, math.Abs(l.P2.X-l.P1.X), math.Abs(l.P2.Y-l.P1.Y))
}

// DashedLine alternates dashes of Stroke.Color (DashWidth long) with dashes
// of AltColor (AltDashWidth long).
type DashedLine struct {
	Line
	AltColor     color.Color `json:"altColor"`
	DashWidth    float64     `json:"dashWidth"`
	AltDashWidth float64     `json:"altDashWidth"`
}

func NewDashedLine(p1, p2 vector.Pt, width float64, c, alt color.Color, dash, altDash float64) *DashedLine {
	return &DashedLine{Line: *NewLine(p1, p2, width, c), AltColor: alt, DashWidth: dash, AltDashWidth: altDash}
}

func (*DashedLine) Kind() Kind { return KindDashedLine }

type Polyline struct {
	Base
	Points  []vector.Pt `json:"points"`
	Stroke  Stroke      `json:"stroke"`
	Opacity float64     `json:"opacity"`
}

func NewPolyline(pts []vector.Pt, width float64, c color.Color) *Polyline {
	return &Polyline{Base: newBase(), Points: pts, Stroke: Stroke{Color: c, Width: width}, Opacity: 1}
}

func (*Polyline) Kind() Kind { return KindPolyline }

func (p *Polyline) Bounds() vector.Rect {
	if len(p.Points) == 0 {
		return vector.Rect{}
	}
	r := vector.R(p.Points[0].X, p.Points[0].Y, 0, 0)
	for _, pt := range p.Points[1:] {
		r = r.Union(vector.R(pt.X, pt.Y, 0, 0))
	}
	return r
}

// Grid is Cols x Rows cells of StepX x StepY starting at (X, Y), rotated by
// Angle around its center.
type Grid struct {
	Base
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Cols    int     `json:"cols"`
	Rows    int     `json:"rows"`
	StepX   float64 `json:"stepX"`
	StepY   float64 `json:"stepY"`
	Angle   float64 `json:"angle"`
	Line    Stroke  `json:"line"`
	Opacity float64 `json:"opacity"`
}

func NewGrid(x, y float64, cols, rows int, stepX, stepY float64) *Grid {
	return &Grid{Base: newBase(), X: x, Y: y, Cols: cols, Rows: rows, StepX: stepX, StepY: stepY,
		Line: Stroke{Color: color.Black, Width: 1}, Opacity: 1}
}

func (*Grid) Kind() Kind { return KindGrid }

func (g *Grid) Bounds() vector.Rect {
	return vector.R(g.X, g.Y, float64(g.Cols)*g.StepX, float64(g.Rows)*g.StepY)
}

// Rect returns the grid area as a rotated rectangle.
func (g *Grid) Rect() vector.RotatedRect { return vector.NewRotatedRect(g.Bounds(), g.Angle) }

// ContentBase is the frame of objects that show content (images, text).
type ContentBase struct {
	Frame
	MaskColor color.Color `json:"maskColor"`
}

func newContentBase(r vector.RotatedRect) ContentBase {
	return ContentBase{Frame: newFrame(r), MaskColor: color.Transparent}
}

// Image shows the pixels of a stored file. FileID is empty when the image has
// no source.
type Image struct {
	ContentBase
	FileID         string  `json:"fileId,omitempty"`
	SourceWidth    int     `json:"sourceWidth,omitempty"`
	SourceHeight   int     `json:"sourceHeight,omitempty"`
	SourceDPI      float64 `json:"sourceDpi,omitempty"`
	KeepProportion bool    `json:"keepProportion,omitempty"`
}

func NewImage(r vector.RotatedRect, fileID string) *Image {
	img := &Image{ContentBase: newContentBase(r), FileID: fileID}
	img.BorderColor = color.Transparent
	return img
}

func (*Image) Kind() Kind { return KindImage }

type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "justify"
)

type VerticalAlignment string

const (
	VAlignTop    VerticalAlignment = "top"
	VAlignCenter VerticalAlignment = "center"
	VAlignBottom VerticalAlignment = "bottom"
)

type Font struct {
	Family         string  `json:"family"`
	Style          string  `json:"style,omitempty"`
	PostScriptName string  `json:"postScriptName,omitempty"`
	FauxBold       bool    `json:"fauxBold,omitempty"`
	FauxItalic     bool    `json:"fauxItalic,omitempty"`
	Size           float64 `json:"size"`
}

// DefaultFont is used by new text objects.
var DefaultFont = Font{Family: "Arial", Style: "Regular", PostScriptName: "ArialMT", Size: 10}

// TextBase is shared by all text objects.
type TextBase struct {
	ContentBase
	Text            string      `json:"text"`
	Font            Font        `json:"font"`
	Alignment       Alignment   `json:"alignment"`
	Tracking        float64     `json:"tracking,omitempty"`
	Leading         float64     `json:"leading,omitempty"`
	IsRichText      bool        `json:"isRichText,omitempty"`
	VerticalScale   float64     `json:"verticalScale"`
	HorizontalScale float64     `json:"horizontalScale"`
	Underline       bool        `json:"underline,omitempty"`
	TextColor       color.Color `json:"textColor"`
}

func newTextBase(r vector.RotatedRect, text string) TextBase {
	cb := newContentBase(r)
	cb.BorderColor = color.Transparent
	return TextBase{ContentBase: cb, Text: text, Font: DefaultFont, Alignment: AlignLeft,
		VerticalScale: 1, HorizontalScale: 1, TextColor: color.Black}
}

type PlainText struct {
	TextBase
	Vertical bool `json:"vertical,omitempty"`
}

func NewPlainText(r vector.RotatedRect, text string) *PlainText {
	return &PlainText{TextBase: newTextBase(r, text)}
}

func (*PlainText) Kind() Kind { return KindPlainText }

// Paragraph holds the paragraph settings of wrapped text.
type Paragraph struct {
	FirstLineIndent float64 `json:"firstLineIndent,omitempty"`
	SpaceBefore     float64 `json:"spaceBefore,omitempty"`
	SpaceAfter      float64 `json:"spaceAfter,omitempty"`
}

// BoundedText wraps inside Rect and flows around WrappingRectangles.
type BoundedText struct {
	TextBase
	Vertical           bool                 `json:"vertical,omitempty"`
	VerticalAlignment  VerticalAlignment    `json:"verticalAlignment"`
	Paragraph          Paragraph            `json:"paragraph"`
	WrappingRectangles []vector.RotatedRect `json:"wrappingRectangles,omitempty"`
	WrappingMargin     float64              `json:"wrappingMargin,omitempty"`
}

func NewBoundedText(r vector.RotatedRect, text string) *BoundedText {
	return &BoundedText{TextBase: newTextBase(r, text), VerticalAlignment: VAlignTop}
}

func (*BoundedText) Kind() Kind { return KindBoundedText }

// PathBoundedText wraps inside the union of BoundingPaths.
type PathBoundedText struct {
	TextBase
	BoundingPaths      []vector.Path        `json:"boundingPaths"`
	Paragraph          Paragraph            `json:"paragraph"`
	WrappingRectangles []vector.RotatedRect `json:"wrappingRectangles,omitempty"`
	WrappingMargin     float64              `json:"wrappingMargin,omitempty"`
}

func NewPathBoundedText(paths []vector.Path, text string) *PathBoundedText {
	var b vector.Rect
	for i, p := range paths {
		if i == 0 {
			b = p.Bounds()
			continue
		}
		b = b.Union(p.Bounds())
	}
	return &PathBoundedText{TextBase: newTextBase(vector.NewRotatedRect(b, 0), text), BoundingPaths: paths}
}

func (*PathBoundedText) Kind() Kind { return KindPathBoundedText }

// AutoScaledText scales its font so the text fills Rect.
type AutoScaledText struct {
	TextBase
	Vertical bool `json:"vertical,omitempty"`
}

func NewAutoScaledText(r vector.RotatedRect, text string) *AutoScaledText {
	return &AutoScaledText{TextBase: newTextBase(r, text)}
}

func (*AutoScaledText) Kind() Kind { return KindAutoScaledText }

// CurvedText lays its text out along TextPath.
type CurvedText struct {
	TextBase
	TextPath         vector.Path `json:"textPath"`
	FitToPath        bool        `json:"fitToPath,omitempty"`
	Stretch          bool        `json:"stretch,omitempty"`
	FitToPathStep    float64     `json:"fitToPathStep"`
	OriginalFontSize float64     `json:"originalFontSize"`
	Start            float64     `json:"start"`
	End              float64     `json:"end"`
}

func NewCurvedText(p vector.Path, text string) *CurvedText {
	return &CurvedText{TextBase: newTextBase(vector.NewRotatedRect(p.Bounds(), 0), text), TextPath: p,
		FitToPathStep: 1, OriginalFontSize: DefaultFont.Size, End: 1}
}

func (*CurvedText) Kind() Kind { return KindCurvedText }

// Placeholder is a frame that may hold an image. The content belongs to the
// placeholder and is never attached to a layer by itself.
type Placeholder struct {
	ContentBase
	Content           *Image `json:"content,omitempty"`
	IsStubContent     bool   `json:"isStubContent,omitempty"`
	ShowMaskedContent bool   `json:"showMaskedContent,omitempty"`
}

func NewPlaceholder(r vector.RotatedRect) *Placeholder {
	return &Placeholder{ContentBase: newContentBase(r)}
}

func (*Placeholder) Kind() Kind { return KindPlaceholder }

// SetContent replaces the content; a nil image empties the placeholder.
func (p *Placeholder) SetContent(img *Image) {
	if img != nil {
		img.layerID = ""
	}
	p.Content = img
}

// New returns an object of the given kind with default attributes and a
// fresh id, or nil for an unknown kind.
func New(k Kind) VObject {
	var zero vector.RotatedRect
	switch k {
	case KindRectangle:
		return NewRectangle(zero)
	case KindEllipse:
		return NewEllipse(zero)
	case KindLine:
		return NewLine(vector.Pt{}, vector.Pt{}, 1, color.Black)
	case KindDashedLine:
		return NewDashedLine(vector.Pt{}, vector.Pt{}, 1, color.Black, color.White, 3, 3)
	case KindPolyline:
		return NewPolyline(nil, 1, color.Black)
	case KindGrid:
		return NewGrid(0, 0, 0, 0, 0, 0)
	case KindImage:
		return NewImage(zero, "")
	case KindPlainText:
		return NewPlainText(zero, "")
	case KindCurvedText:
		return NewCurvedText(vector.Path{}, "")
	case KindBoundedText:
		return NewBoundedText(zero, "")
	case KindPathBoundedText:
		return NewPathBoundedText(nil, "")
	case KindAutoScaledText:
		return NewAutoScaledText(zero, "")
	case KindPlaceholder:
		return NewPlaceholder(zero)
	case KindShape:
		return NewShape(vector.Path{}, 0)
	}
	return nil
}
