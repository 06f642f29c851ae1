/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRotateAtKeepsCenter(t *testing.T) {
	c := Pt{36, 36}
	m := RotateAt(15, c)
	p := m.Apply(c)
	if !near(p.X, 36) || !near(p.Y, 36) {
		t.Fatalf("center moved: %+v", p)
	}
	if got := m.Angle(); math.Abs(got-15) > 1e-9 {
		t.Fatalf("angle: got %v want 15", got)
	}
}

func TestRotatedRect_BoundsTransformRoundTrip(t *testing.T) {
	rr := RotatedRect{CenterX: 36, CenterY: 36, Width: 20, Height: 10, Angle: -120}
	b := rr.Bounds()
	if b.X != 26 || b.Y != 31 || b.W != 20 || b.H != 10 {
		t.Fatalf("unexpected bounds: %+v", b)
	}
	back := FromBoundsAndTransform(b, rr.Transform())
	if !back.Equal(rr, 1e-9) {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, rr)
	}
}

func TestRotatedRect_ZeroAngleIsIdentity(t *testing.T) {
	rr := RotatedRect{CenterX: 5, CenterY: 5, Width: 2, Height: 2}
	if !rr.Transform().IsIdentity(0) {
		t.Fatalf("expected identity transform")
	}
}

func TestParseTransform(t *testing.T) {
	cases := []struct {
		in   string
		want Affine2D
	}{
		{"matrix(1 0 0 1 5 6)", Translate(5, 6)},
		{"translate(3)", Translate(3, 0)},
		{"scale(2, 3)", Scale(2, 3)},
		{"translate(1,2) scale(2)", Affine2D{A: 2, D: 2, E: 1, F: 2}},
	}
	for _, c := range cases {
		got, err := ParseTransform(c.in)
		if err != nil {
			t.Fatalf("%s: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("%s: got %+v want %+v", c.in, got, c.want)
		}
	}
	if _, err := ParseTransform("skewX(3)"); err == nil {
		t.Fatalf("expected error for skewX")
	}
}

func TestFormatMatrixParses(t *testing.T) {
	m := RotateAt(33, Pt{10, 20})
	got, err := ParseTransform(FormatMatrix(m))
	if err != nil {
		t.Fatal(err)
	}
	if got != m {
		t.Fatalf("matrix did not survive formatting: %+v vs %+v", got, m)
	}
}
