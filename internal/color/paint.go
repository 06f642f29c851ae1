/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package color

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Hex formats the RGB part of p as #rrggbb.
func Hex(p RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", p.R, p.G, p.B)
}

// Opacity returns alpha as an SVG opacity value in [0,1].
func Opacity(a uint8) float64 { return float64(a) / 255 }

// AlphaFromOpacity converts an SVG opacity to 8-bit alpha.
func AlphaFromOpacity(op float64) uint8 { return clamp8(op * 255) }

// ParsePaint parses a native SVG paint: #rgb, #rrggbb, rgb(), rgba(), "none"
// or any SVG 1.1 color keyword. Alpha is 255 unless the value says otherwise.
func ParsePaint(s string) (RGBA, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "":
		return RGBA{}, false
	case v == "none" || v == "transparent":
		return RGBA{}, true
	case strings.HasPrefix(v, "#"):
		return parseHex(v[1:])
	case strings.HasPrefix(v, "rgb(") || strings.HasPrefix(v, "rgba("):
		return parseFunc(v)
	}
	if cn, ok := colornames.Map[v]; ok {
		return RGBA{cn.R, cn.G, cn.B, cn.A}, true
	}
	return RGBA{}, false
}

func parseHex(h string) (RGBA, bool) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGBA{}, false
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGBA{}, false
	}
	return RGBA{uint8(n >> 16), uint8(n >> 8), uint8(n), 255}, true
}

func parseFunc(v string) (RGBA, bool) {
	open := strings.IndexByte(v, '(')
	if !strings.HasSuffix(v, ")") {
		return RGBA{}, false
	}
	parts := strings.Split(v[open+1:len(v)-1], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return RGBA{}, false
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		p := strings.TrimSpace(parts[i])
		if strings.HasSuffix(p, "%") {
			f, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
			if err != nil {
				return RGBA{}, false
			}
			ch[i] = clamp8(f * 255 / 100)
			continue
		}
		n, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return RGBA{}, false
		}
		ch[i] = clamp8(n)
	}
	a := uint8(255)
	if len(parts) == 4 {
		f, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil {
			return RGBA{}, false
		}
		a = AlphaFromOpacity(f)
	}
	return RGBA{ch[0], ch[1], ch[2], a}, true
}
