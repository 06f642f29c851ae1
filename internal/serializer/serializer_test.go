/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package serializer

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gocanvas/internal/color"
	"gocanvas/internal/convert"
	"gocanvas/internal/scene"
	"gocanvas/internal/storage"
	"gocanvas/internal/svg"
	"gocanvas/internal/vector"
)

func scenarioCanvas(t *testing.T, colors *color.Manager) (*scene.Canvas, *scene.Rectangle) {
	t.Helper()
	cv := scene.NewCanvas(72, 72, scene.Options{Colors: colors})
	t.Cleanup(cv.Close)
	l := scene.NewLayer("layer")
	r := scene.NewRectangle(vector.RotatedRect{CenterX: 36, CenterY: 36, Width: 20, Height: 10, Angle: 15})
	r.FillColor = color.NewRGB(255, 0, 0, 255)
	r.BorderColor = color.NewRGB(0, 0, 0, 255)
	r.BorderWidth = 2
	if err := l.Objects.Add(r); err != nil {
		t.Fatal(err)
	}
	if err := cv.Layers.Add(l); err != nil {
		t.Fatal(err)
	}
	return cv, r
}

func firstObject(t *testing.T, cv *scene.Canvas) scene.VObject {
	t.Helper()
	l, err := cv.Layers.At(0)
	if err != nil {
		t.Fatal(err)
	}
	o, err := l.Objects.At(0)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func tarEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	out := map[string][]byte{}
	tr := tar.NewReader(bytes.NewReader(data))
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("read tar: %v", err)
		}
		b, _ := io.ReadAll(tr)
		out[hdr.Name] = b
	}
}

func TestRectangleScenarioThroughArchive(t *testing.T) {
	ctx := context.Background()
	colors := color.NewManager("")
	src, want := scenarioCanvas(t, colors)
	s := New(storage.NewMemoryStore(), colors)

	var buf bytes.Buffer
	if err := s.Serialize(ctx, src, &buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	entries := tarEntries(t, buf.Bytes())
	for _, name := range []string{"canvas.svg", "icc_profiles/RgbColorProfile.icm", "icc_profiles/CmykColorProfile.icm", "icc_profiles/GrayscaleColorProfile.icm"} {
		if _, ok := entries[name]; !ok {
			t.Fatalf("archive misses %s; has %d entries", name, len(entries))
		}
	}

	dst := scene.NewCanvas(10, 10, scene.Options{Colors: colors})
	defer dst.Close()
	if err := s.Deserialize(ctx, &buf, dst); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if dst.WorkspaceWidth != 72 || dst.WorkspaceHeight != 72 {
		t.Fatalf("workspace %vx%v", dst.WorkspaceWidth, dst.WorkspaceHeight)
	}
	got, ok := firstObject(t, dst).(*scene.Rectangle)
	if !ok {
		t.Fatalf("expected rectangle")
	}
	if !got.Rect.Equal(want.Rect, 1e-4) {
		t.Fatalf("rect %+v, want %+v", got.Rect, want.Rect)
	}
	if got.FillColor != want.FillColor || got.BorderColor != want.BorderColor {
		t.Fatalf("colors fill=%v border=%v", got.FillColor, got.BorderColor)
	}
	if got.ID != want.ID {
		t.Fatalf("id changed: %s != %s", got.ID, want.ID)
	}
	if dst.History.CanUndo() {
		t.Fatalf("loaded document must have an empty history")
	}
}

func TestImagesTravelWithTheArchive(t *testing.T) {
	ctx := context.Background()
	png := []byte("\x89PNG fake image bytes")
	id := storage.ContentID(png)
	srcStore := storage.NewMemoryStore()
	if err := srcStore.Add(ctx, id, bytes.NewReader(png), true); err != nil {
		t.Fatal(err)
	}

	cv := scene.NewCanvas(100, 100, scene.Options{})
	defer cv.Close()
	l := scene.NewLayer("")
	ph := scene.NewPlaceholder(vector.RotatedRect{CenterX: 50, CenterY: 50, Width: 40, Height: 40})
	ph.SetContent(scene.NewImage(ph.Rect, id))
	if err := l.Objects.Add(ph); err != nil {
		t.Fatal(err)
	}
	if err := l.Objects.Add(scene.NewImage(vector.RotatedRect{CenterX: 10, CenterY: 10, Width: 5, Height: 5}, "missing")); err != nil {
		t.Fatal(err)
	}
	if err := cv.Layers.Add(l); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := New(srcStore, nil).Serialize(ctx, cv, &buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(tarEntries(t, buf.Bytes())[id], png) {
		t.Fatalf("image data not archived under its id")
	}

	dstStore := storage.NewMemoryStore()
	out := scene.NewCanvas(1, 1, scene.Options{})
	defer out.Close()
	if err := New(dstStore, nil).Deserialize(ctx, &buf, out); err != nil {
		t.Fatal(err)
	}
	data, err := storage.ReadAll(ctx, dstStore, id)
	if err != nil || !bytes.Equal(data, png) {
		t.Fatalf("image not stored: %v", err)
	}
	files, _ := dstStore.List(ctx)
	if len(files) != 1 || !files[0].IsSource {
		t.Fatalf("expected one source file, got %+v", files)
	}
	p := firstObject(t, out).(*scene.Placeholder)
	if p.Content == nil || p.Content.FileID != id {
		t.Fatalf("placeholder content lost: %+v", p.Content)
	}
	l0, _ := out.Layers.At(0)
	img, _ := l0.Objects.At(1)
	if img.(*scene.Image).FileID != "" {
		t.Fatalf("reference to a file that is not in the archive must be dropped")
	}
}

// testProfile builds a minimal ICC header for space sig.
func testProfile(sig string, seed byte) []byte {
	data := make([]byte, 132)
	copy(data[16:20], sig)
	copy(data[36:40], "acsp")
	data[131] = seed
	return data
}

func TestCustomProfilesAreRegisteredOnRead(t *testing.T) {
	ctx := context.Background()
	srcColors := color.NewManager("")
	p, err := color.ParseProfile(testProfile("CMYK", 7))
	if err != nil {
		t.Fatal(err)
	}
	srcColors.Register(p)
	cv, _ := scenarioCanvas(t, srcColors)
	cv.ColorSettings.CMYKProfile = p.ID

	var buf bytes.Buffer
	if err := New(nil, srcColors).Serialize(ctx, cv, &buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(tarEntries(t, buf.Bytes())["icc_profiles/CmykColorProfile.icm"], p.Data) {
		t.Fatalf("custom CMYK profile not archived")
	}

	dstColors := color.NewManager("")
	out := scene.NewCanvas(1, 1, scene.Options{Colors: dstColors})
	defer out.Close()
	if err := New(nil, dstColors).Deserialize(ctx, &buf, out); err != nil {
		t.Fatal(err)
	}
	if out.ColorSettings.CMYKProfile != p.ID {
		t.Fatalf("profile id %q", out.ColorSettings.CMYKProfile)
	}
	if got := dstColors.Lookup(p.ID, color.CMYK); !bytes.Equal(got.Data, p.Data) {
		t.Fatalf("profile not registered")
	}
}

func TestDeserializeZip(t *testing.T) {
	ctx := context.Background()
	cv, want := scenarioCanvas(t, nil)
	root, err := convert.New(nil).CanvasToSvg(cv)
	if err != nil {
		t.Fatal(err)
	}
	var doc bytes.Buffer
	if err := svg.Encode(&doc, root); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("canvas.svg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(doc.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	out := scene.NewCanvas(1, 1, scene.Options{})
	defer out.Close()
	if err := New(nil, nil).Deserialize(ctx, &buf, out); err != nil {
		t.Fatalf("Deserialize zip: %v", err)
	}
	if got := firstObject(t, out).(*scene.Rectangle); !got.Rect.Equal(want.Rect, 1e-4) {
		t.Fatalf("rect %+v", got.Rect)
	}
}

func tarOf(t *testing.T, files map[string]string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, body := range files {
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestFailedDeserializeLeavesCanvasUntouched(t *testing.T) {
	broken := `<svg xmlns="http://www.w3.org/2000/svg" xmlns:vo="http://www.aurigma.com/graphicsmill/vectorobjects" width="10" height="10">` +
		`<g id="a"><rect id="r" x="0" y="0" width="1" height="1"/></g>` +
		`<g id="b"><g vo:type="grid" id="g"/></g></svg>`
	cases := []struct {
		name       string
		archive    *bytes.Buffer
		parseError bool
	}{
		{"broken composite", tarOf(t, map[string]string{"canvas.svg": broken}), true},
		{"missing document", tarOf(t, map[string]string{"other.txt": "x"}), false},
		{"garbage", bytes.NewBufferString(strings.Repeat("garbage!", 200)), false},
		{"bad profile", tarOf(t, map[string]string{"canvas.svg": `<svg width="1" height="1"/>`, "icc_profiles/RgbColorProfile.icm": "short"}), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cv, want := scenarioCanvas(t, nil)
			cv.Tags["keep"] = true
			err := New(nil, nil).Deserialize(context.Background(), tc.archive, cv)
			var se *SerializationError
			if !errors.As(err, &se) {
				t.Fatalf("expected SerializationError, got %v", err)
			}
			var pe *convert.ParseError
			if tc.parseError != errors.As(err, &pe) {
				t.Fatalf("ParseError in chain: %v, want %v (%v)", !tc.parseError, tc.parseError, err)
			}
			if cv.Layers.Len() != 1 || cv.WorkspaceWidth != 72 || cv.Tags["keep"] != true {
				t.Fatalf("canvas modified by failed read")
			}
			if firstObject(t, cv) != scene.VObject(want) {
				t.Fatalf("objects replaced by failed read")
			}
		})
	}
}

func TestOpenFileFallsBackToBackup(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "doc.gcv")
	s := New(nil, nil)
	cv, want := scenarioCanvas(t, nil)
	if err := s.SaveFile(ctx, path, cv); err != nil {
		t.Fatal(err)
	}
	// The second save moves the first one into the backups.
	if err := s.SaveFile(ctx, path, cv); err != nil {
		t.Fatal(err)
	}
	if bs, _ := storage.Backups(path); len(bs) != 1 {
		t.Fatalf("expected 1 backup, got %d", len(bs))
	}
	if err := os.WriteFile(path, []byte("corrupted"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := scene.NewCanvas(1, 1, scene.Options{})
	defer out.Close()
	if err := s.OpenFile(ctx, path, out); err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if got := firstObject(t, out); got.Common().ID != want.ID {
		t.Fatalf("restored object %s, want %s", got.Common().ID, want.ID)
	}
}

func TestOpenFileWithoutBackupFails(t *testing.T) {
	out := scene.NewCanvas(1, 1, scene.Options{})
	defer out.Close()
	err := New(nil, nil).OpenFile(context.Background(), filepath.Join(t.TempDir(), "none.gcv"), out)
	var se *SerializationError
	if !errors.As(err, &se) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}
}

func TestFailedDeserializeAddsNoFiles(t *testing.T) {
	ctx := context.Background()
	broken := `<svg xmlns="http://www.w3.org/2000/svg" xmlns:vo="http://www.aurigma.com/graphicsmill/vectorobjects" width="10" height="10">` +
		`<g id="a"><g vo:type="image" id="i"/></g></svg>`
	store := storage.NewMemoryStore()
	cv, _ := scenarioCanvas(t, nil)
	err := New(store, nil).Deserialize(ctx, tarOf(t, map[string]string{"canvas.svg": broken, "img1": "pixels"}), cv)
	if err == nil {
		t.Fatalf("expected error for image without frame")
	}
	if ok, err := store.Exists(ctx, "img1"); err != nil || ok {
		t.Fatalf("asset of a failed read was stored: exists=%v err=%v", ok, err)
	}
}
