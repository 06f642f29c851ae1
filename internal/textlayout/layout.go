/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout breaks text into lines and places glyphs along paths.
// Measurement is behind the Measurer interface so renderers can plug in
// their own font metrics.
package textlayout

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Measurer returns the advance width of s in points.
type Measurer interface {
	Width(s string) float64
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func(string) float64

func (f MeasureFunc) Width(s string) float64 { return f(s) }

// FaceMeasurer measures with an x/image font face. The face is treated as
// having SizePt points; advances are scaled to Size.
type FaceMeasurer struct {
	Face   font.Face
	SizePt float64
	Size   float64
}

// BasicMeasurer uses basicfont Face7x13 for deterministic tests.
func BasicMeasurer(size float64) FaceMeasurer {
	return FaceMeasurer{Face: basicfont.Face7x13, SizePt: 13, Size: size}
}

func (m FaceMeasurer) Width(s string) float64 {
	d := &font.Drawer{Face: m.Face}
	w := float64(d.MeasureString(s)) / 64
	if m.SizePt > 0 && m.Size > 0 {
		w *= m.Size / m.SizePt
	}
	return w
}

// Line is one laid out line.
type Line struct {
	Text  string
	Width float64
}

// Wrap breaks text on spaces so that no line exceeds maxWidth, except lines
// holding a single word that is wider on its own. Newlines always break.
// tracking is added after every rune but the last of a line. maxWidth <= 0
// disables wrapping.
func Wrap(m Measurer, text string, maxWidth, tracking float64) []Line {
	width := func(s string) float64 {
		w := m.Width(s)
		if n := len([]rune(s)); n > 1 {
			w += tracking * float64(n-1)
		}
		return w
	}
	var out []Line
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, Line{})
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			next := cur + " " + w
			if maxWidth > 0 && width(next) > maxWidth {
				out = append(out, Line{Text: cur, Width: width(cur)})
				cur = w
				continue
			}
			cur = next
		}
		out = append(out, Line{Text: cur, Width: width(cur)})
	}
	return out
}

// MaxWidth returns the width of the widest line.
func MaxWidth(lines []Line) float64 {
	var w float64
	for _, l := range lines {
		if l.Width > w {
			w = l.Width
		}
	}
	return w
}
