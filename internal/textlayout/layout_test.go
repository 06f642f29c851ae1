/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "testing"

// fixed measures every rune as 10pt wide.
var fixed = MeasureFunc(func(s string) float64 { return 10 * float64(len([]rune(s))) })

func TestWrap(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		width float64
		want  []string
	}{
		{"fits", "Hello world", 200, []string{"Hello world"}},
		{"wraps", "Hello world from Go", 100, []string{"Hello", "world from", "Go"}},
		{"long word", "internationalization ok", 50, []string{"internationalization", "ok"}},
		{"newlines", "a\n\nb", 100, []string{"a", "", "b"}},
		{"no limit", "one two three", 0, []string{"one two three"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lines := Wrap(fixed, tc.text, tc.width, 0)
			if len(lines) != len(tc.want) {
				t.Fatalf("got %d lines %+v, want %v", len(lines), lines, tc.want)
			}
			for i, l := range lines {
				if l.Text != tc.want[i] {
					t.Fatalf("line %d = %q, want %q", i, l.Text, tc.want[i])
				}
			}
		})
	}
}

func TestWrapTrackingWidens(t *testing.T) {
	lines := Wrap(fixed, "abc", 0, 2)
	if lines[0].Width != 34 {
		t.Fatalf("width %v, want 34", lines[0].Width)
	}
	if MaxWidth(Wrap(fixed, "ab\nabcd", 0, 0)) != 40 {
		t.Fatalf("max width")
	}
}

func TestBasicMeasurerScales(t *testing.T) {
	m13 := BasicMeasurer(13)
	m26 := BasicMeasurer(26)
	if m13.Width("ABC") != 21 {
		t.Fatalf("Face7x13 advance: %v", m13.Width("ABC"))
	}
	if m26.Width("ABC") != 2*m13.Width("ABC") {
		t.Fatalf("scaled width %v", m26.Width("ABC"))
	}
}
