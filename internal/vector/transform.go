/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatMatrix renders m as an SVG matrix() transform.
func FormatMatrix(m Affine2D) string {
	return "matrix(" + strings.Join([]string{
		FormatNumber(m.A), FormatNumber(m.B), FormatNumber(m.C),
		FormatNumber(m.D), FormatNumber(m.E), FormatNumber(m.F),
	}, " ") + ")"
}

// ParseTransform parses an SVG transform list. matrix, translate, scale and
// rotate are understood; the list is composed left to right.
func ParseTransform(s string) (Affine2D, error) {
	m := Identity
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		closing := strings.IndexByte(rest, ')')
		if open < 0 || closing < open {
			return Identity, fmt.Errorf("transform: malformed %q", s)
		}
		name := strings.TrimSpace(strings.Trim(rest[:open], ", "))
		args, err := parseArgs(rest[open+1 : closing])
		if err != nil {
			return Identity, err
		}
		var t Affine2D
		switch name {
		case "matrix":
			if len(args) != 6 {
				return Identity, fmt.Errorf("transform: matrix needs 6 values, got %d", len(args))
			}
			t = Affine2D{A: args[0], B: args[1], C: args[2], D: args[3], E: args[4], F: args[5]}
		case "translate":
			switch len(args) {
			case 1:
				t = Translate(args[0], 0)
			case 2:
				t = Translate(args[0], args[1])
			default:
				return Identity, fmt.Errorf("transform: bad translate")
			}
		case "scale":
			switch len(args) {
			case 1:
				t = Scale(args[0], args[0])
			case 2:
				t = Scale(args[0], args[1])
			default:
				return Identity, fmt.Errorf("transform: bad scale")
			}
		case "rotate":
			switch len(args) {
			case 1:
				t = Rotate(args[0])
			case 3:
				t = RotateAt(args[0], Pt{args[1], args[2]})
			default:
				return Identity, fmt.Errorf("transform: bad rotate")
			}
		default:
			return Identity, fmt.Errorf("transform: unsupported %q", name)
		}
		m = m.Mul(t)
		rest = strings.TrimSpace(rest[closing+1:])
	}
	return m, nil
}

func parseArgs(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("transform: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}
