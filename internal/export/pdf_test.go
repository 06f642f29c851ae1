/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"gocanvas/internal/color"
	"gocanvas/internal/scene"
	"gocanvas/internal/vector"
)

func TestExportPDF_CreatesFile(t *testing.T) {
	cv := scene.NewCanvas(595, 842, scene.Options{})
	defer cv.Close()
	l := scene.NewLayer("page")
	region := vector.RotatedRect{CenterX: 297.5, CenterY: 421, Width: 500, Height: 700}
	l.Region = &region

	r := scene.NewRectangle(vector.RotatedRect{CenterX: 100, CenterY: 100, Width: 80, Height: 40, Angle: 15})
	r.FillColor = color.NewCMYK(0, 100, 100, 0, 255)
	r.BorderWidth = 2
	r.Opacity = 0.5
	e := scene.NewEllipse(vector.RotatedRect{CenterX: 300, CenterY: 100, Width: 80, Height: 40})
	e.FillColor = color.NewGray(128, 255)
	path, err := vector.ParsePath("M 0 0 L 40 0 Q 50 10 40 20 C 30 30 10 30 0 20 Z")
	if err != nil {
		t.Fatal(err)
	}
	s := scene.NewShape(path, 30)
	s.BorderWidth = 1
	txt := scene.NewPlainText(vector.RotatedRect{CenterX: 200, CenterY: 300, Width: 200, Height: 40}, "Hello,\nPDF!")
	txt.Alignment = scene.AlignCenter
	txt.Font.Style = "Bold Italic"
	curve, err := vector.ParsePath("M 100 500 C 150 450 250 450 300 500")
	if err != nil {
		t.Fatal(err)
	}
	ph := scene.NewPlaceholder(vector.RotatedRect{CenterX: 400, CenterY: 600, Width: 100, Height: 100, Angle: -10})
	ph.BorderWidth = 1
	ph.SetContent(scene.NewImage(ph.Rect, "file"))

	objs := []scene.VObject{
		r, e, s, txt, ph,
		scene.NewLine(vector.Pt{X: 10, Y: 10}, vector.Pt{X: 200, Y: 10}, 1, color.Black),
		scene.NewDashedLine(vector.Pt{X: 10, Y: 20}, vector.Pt{X: 200, Y: 20}, 2, color.Black, color.White, 4, 4),
		scene.NewPolyline([]vector.Pt{{X: 10, Y: 30}, {X: 50, Y: 60}, {X: 90, Y: 30}}, 1, color.NewRGB(0, 0, 255, 255)),
		scene.NewGrid(50, 700, 4, 2, 20, 20),
		scene.NewCurvedText(curve, "curved"),
		scene.NewImage(vector.RotatedRect{CenterX: 500, CenterY: 200, Width: 60, Height: 60}, ""),
		scene.NewBoundedText(vector.RotatedRect{CenterX: 400, CenterY: 400, Width: 100, Height: 100}, "bounded"),
	}
	for _, o := range objs {
		if err := l.Objects.Add(o); err != nil {
			t.Fatal(err)
		}
	}
	if err := cv.Layers.Add(l); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "exports", "proof.pdf")
	if err := ExportPDF(cv, out, PDFOptions{Title: "Proof", IncludeGuides: true}); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestExportPDF_RejectsEmptyWorkspace(t *testing.T) {
	cv := scene.NewCanvas(0, 0, scene.Options{})
	defer cv.Close()
	if err := ExportPDF(cv, filepath.Join(t.TempDir(), "x.pdf"), PDFOptions{}); err == nil {
		t.Fatalf("expected error for empty workspace")
	}
	if err := ExportPDF(nil, "x.pdf", PDFOptions{}); err == nil {
		t.Fatalf("expected error for nil canvas")
	}
}
