/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package color holds color-space-tagged colors and the color-management
// service. A Color keeps its exact value in its own space (RGB, CMYK or
// Grayscale) next to an sRGB preview used wherever only RGB can be shown.
package color

import (
	"fmt"
	"math"
)

// Space identifies the color space a Color value is expressed in.
type Space uint8

const (
	RGB Space = iota
	CMYK
	Grayscale
)

func (s Space) String() string {
	switch s {
	case RGB:
		return "rgb"
	case CMYK:
		return "cmyk"
	case Grayscale:
		return "grayscale"
	default:
		return fmt.Sprintf("space(%d)", uint8(s))
	}
}

// ParseSpace is the inverse of Space.String.
func ParseSpace(s string) (Space, error) {
	switch s {
	case "rgb":
		return RGB, nil
	case "cmyk":
		return CMYK, nil
	case "grayscale":
		return Grayscale, nil
	}
	return 0, fmt.Errorf("unknown color space %q", s)
}

// RGBA is an 8-bit sRGB value, used for previews and native SVG paint.
type RGBA struct{ R, G, B, A uint8 }

// Color is a color-space-tagged value. V holds the channels in space order
// (R,G,B for RGB; C,M,Y,K for CMYK; L for Grayscale); unused slots stay zero.
// Preview is the RGB approximation shown by browsers.
type Color struct {
	Space   Space
	V       [4]uint8
	A       uint8
	Preview RGBA
}

var (
	Black       = NewRGB(0, 0, 0, 255)
	White       = NewRGB(255, 255, 255, 255)
	Transparent = NewRGB(0, 0, 0, 0)
)

func NewRGB(r, g, b, a uint8) Color {
	return Color{Space: RGB, V: [4]uint8{r, g, b}, A: a, Preview: RGBA{r, g, b, a}}
}

func NewCMYK(c, m, y, k, a uint8) Color {
	col := Color{Space: CMYK, V: [4]uint8{c, m, y, k}, A: a}
	col.Preview = naivePreview(col)
	return col
}

func NewGray(l, a uint8) Color {
	return Color{Space: Grayscale, V: [4]uint8{l}, A: a, Preview: RGBA{l, l, l, a}}
}

// FromPreview rebuilds an RGB color from a native paint value. This is the
// lossy path used when no exact value was stored.
func FromPreview(p RGBA) Color { return NewRGB(p.R, p.G, p.B, p.A) }

// WithPreview returns c with an explicit preview, e.g. one computed through a
// color profile instead of the naive formula.
func (c Color) WithPreview(p RGBA) Color {
	p.A = c.A
	c.Preview = p
	return c
}

// IsTransparent reports a fully transparent color.
func (c Color) IsTransparent() bool { return c.A == 0 }

func (c Color) String() string {
	switch c.Space {
	case CMYK:
		return fmt.Sprintf("cmyka(%d,%d,%d,%d,%d)", c.V[0], c.V[1], c.V[2], c.V[3], c.A)
	case Grayscale:
		return fmt.Sprintf("graya(%d,%d)", c.V[0], c.A)
	default:
		return fmt.Sprintf("rgba(%d,%d,%d,%d)", c.V[0], c.V[1], c.V[2], c.A)
	}
}

// naivePreview converts to sRGB with the device formulas; no profile applied.
func naivePreview(c Color) RGBA {
	switch c.Space {
	case CMYK:
		k := 1 - float64(c.V[3])/255
		ch := func(v uint8) uint8 {
			return clamp8(255 * (1 - float64(v)/255) * k)
		}
		return RGBA{ch(c.V[0]), ch(c.V[1]), ch(c.V[2]), c.A}
	case Grayscale:
		return RGBA{c.V[0], c.V[0], c.V[0], c.A}
	default:
		return RGBA{c.V[0], c.V[1], c.V[2], c.A}
	}
}

func clamp8(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
