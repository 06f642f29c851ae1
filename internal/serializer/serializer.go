/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package serializer writes a canvas as a package archive and reads it back.
//
// An archive holds canvas.svg, the three active color profiles under
// icc_profiles/ and every image file referenced by the document, stored
// under its file id. Archives are written as tar; tar and zip are read.
package serializer

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"time"

	"gocanvas/internal/color"
	"gocanvas/internal/convert"
	applog "gocanvas/internal/log"
	"gocanvas/internal/scene"
	"gocanvas/internal/storage"
	"gocanvas/internal/svg"
)

const (
	DocumentEntry = "canvas.svg"
	ProfilesDir   = "icc_profiles"
)

// SerializationError wraps any failure while writing or reading an archive.
type SerializationError struct {
	Op  string
	Err error
}

func (e *SerializationError) Error() string { return "serializer: " + e.Op + ": " + e.Err.Error() }
func (e *SerializationError) Unwrap() error { return e.Err }

// Serializer moves canvases in and out of archives. Store receives the image
// files of read archives and provides them when writing; Colors resolves the
// profiles. Both may be nil: images are then written without data and the
// canvas color manager is used.
type Serializer struct {
	Store  storage.FileStore
	Colors *color.Manager
	Log    *slog.Logger
}

func New(store storage.FileStore, colors *color.Manager) *Serializer {
	return &Serializer{Store: store, Colors: colors, Log: applog.WithComponent("serializer")}
}

func (s *Serializer) log() *slog.Logger {
	if s.Log == nil {
		s.Log = applog.WithComponent("serializer")
	}
	return s.Log
}

func (s *Serializer) colors(cv *scene.Canvas) *color.Manager {
	if s.Colors != nil {
		return s.Colors
	}
	if m := cv.Colors(); m != nil {
		return m
	}
	return color.NewManager("")
}

func (s *Serializer) fail(ctx context.Context, op string, err error) error {
	applog.WithOperation(s.log(), op).ErrorContext(ctx, "serialization failed", slog.Any("err", err))
	return &SerializationError{Op: op, Err: err}
}

// Serialize writes cv as a tar archive to w.
func (s *Serializer) Serialize(ctx context.Context, cv *scene.Canvas, w io.Writer) error {
	if err := s.serialize(ctx, cv, w); err != nil {
		return s.fail(ctx, "serialize", err)
	}
	return nil
}

func (s *Serializer) serialize(ctx context.Context, cv *scene.Canvas, w io.Writer) error {
	root, err := convert.New(s.Store).CanvasToSvg(cv)
	if err != nil {
		return err
	}
	var doc bytes.Buffer
	if err := svg.Encode(&doc, root); err != nil {
		return fmt.Errorf("encode svg: %w", err)
	}

	tw := tar.NewWriter(w)
	now := time.Now()
	if err := addTarFile(tw, DocumentEntry, doc.Bytes(), now); err != nil {
		return err
	}
	for _, p := range activeProfiles(s.colors(cv), cv.ColorSettings) {
		if err := addTarFile(tw, path.Join(ProfilesDir, color.ProfileFileName(p.Space)), p.Data, now); err != nil {
			return err
		}
	}
	for _, id := range referencedFiles(cv) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.Store == nil {
			break
		}
		data, err := storage.ReadAll(ctx, s.Store, id)
		if errors.Is(err, storage.ErrNotFound) {
			s.log().WarnContext(ctx, "referenced file missing, not archived", slog.String("file", id))
			continue
		}
		if err != nil {
			return fmt.Errorf("read file %s: %w", id, err)
		}
		if err := addTarFile(tw, id, data, now); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}
	return nil
}

func addTarFile(tw *tar.Writer, name string, data []byte, mod time.Time) error {
	hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(data)), ModTime: mod, Typeflag: tar.TypeReg}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("tar header %s: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("tar write %s: %w", name, err)
	}
	return nil
}

// activeProfiles returns the RGB, CMYK and grayscale profiles selected by
// the color settings.
func activeProfiles(m *color.Manager, cs scene.ColorSettings) []*color.Profile {
	return []*color.Profile{
		m.Lookup(cs.RGBProfile, color.RGB),
		m.Lookup(cs.CMYKProfile, color.CMYK),
		m.Lookup(cs.GrayscaleProfile, color.Grayscale),
	}
}

// referencedFiles lists the distinct file ids of images, including
// placeholder content, in sorted order.
func referencedFiles(cv *scene.Canvas) []string {
	seen := map[string]bool{}
	add := func(img *scene.Image) {
		if img != nil && img.FileID != "" {
			seen[img.FileID] = true
		}
	}
	for _, l := range cv.Layers.Items() {
		for _, o := range l.Objects.Items() {
			switch v := o.(type) {
			case *scene.Image:
				add(v)
			case *scene.Placeholder:
				add(v.Content)
			}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Deserialize reads an archive into cv. The document is built on a scratch
// canvas and swapped in only when everything was read, so on error cv keeps
// its previous content.
func (s *Serializer) Deserialize(ctx context.Context, r io.Reader, cv *scene.Canvas) error {
	if err := s.deserialize(ctx, r, cv); err != nil {
		return s.fail(ctx, "deserialize", err)
	}
	return nil
}

func (s *Serializer) deserialize(ctx context.Context, r io.Reader, cv *scene.Canvas) error {
	entries, err := readArchive(r)
	if err != nil {
		return err
	}
	doc, ok := entries[DocumentEntry]
	if !ok {
		return fmt.Errorf("archive has no %s", DocumentEntry)
	}
	root, err := svg.Decode(bytes.NewReader(doc))
	if err != nil {
		return err
	}

	colors := s.colors(cv)
	var profiles []*color.Profile
	for name, data := range entries {
		if path.Dir(name) != ProfilesDir {
			continue
		}
		p, err := color.ParseProfile(data)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		profiles = append(profiles, p)
	}

	assets := pendingAssets(entries)
	var store storage.FileStore
	if s.Store != nil {
		store = &overlayStore{pending: assets, next: s.Store}
	}

	opts := cv.Options()
	opts.Colors = colors
	scratch := scene.NewCanvas(cv.WorkspaceWidth, cv.WorkspaceHeight, opts)
	defer scratch.Close()
	if err := convert.New(store).CanvasFromSvg(ctx, root, scratch); err != nil {
		return err
	}
	if s.Store != nil {
		for _, name := range sortedKeys(assets) {
			if err := s.Store.Add(ctx, name, bytes.NewReader(assets[name]), true); err != nil {
				return fmt.Errorf("store file %s: %w", name, err)
			}
		}
	}
	for _, p := range profiles {
		colors.Register(p)
	}
	cv.ReplaceWith(scratch)
	return nil
}
