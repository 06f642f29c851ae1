/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gocanvas/internal/color"
	"gocanvas/internal/config"
	"gocanvas/internal/convert"
	"gocanvas/internal/crash"
	"gocanvas/internal/export"
	applog "gocanvas/internal/log"
	"gocanvas/internal/scene"
	"gocanvas/internal/serializer"
	"gocanvas/internal/storage"
	"gocanvas/internal/svg"
	"gocanvas/internal/vector"
	"gocanvas/internal/version"
)

func usage() {
	fmt.Println("gocanvas: vector canvas documents")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gocanvas version|-v|--version               Show version")
	fmt.Println("  gocanvas new <file> <width> <height>         Create an empty document (size in points)")
	fmt.Println("  gocanvas info <file>                         Print layers and objects of a document")
	fmt.Println("  gocanvas svg <file> [<out.svg>]              Write the SVG of a document")
	fmt.Println("  gocanvas import <in.svg> <file>              Build a document from an SVG file")
	fmt.Println("  gocanvas add-image <file> <image> <w> <h>    Store an image and place it on the current layer")
	fmt.Println("  gocanvas pdf <file> <out.pdf>                Export a PDF proof")
	fmt.Println("  gocanvas roundtrip <file>                    Serialize and read back, report differences")
}

// app bundles what every command needs.
type app struct {
	cfg    config.AppConfig
	colors *color.Manager
	store  storage.FileStore
	ser    *serializer.Serializer
	log    *slog.Logger
	doc    *crash.Document
}

func (a *app) newCanvas(w, h float64) *scene.Canvas {
	cv := scene.NewCanvas(w, h, scene.Options{
		MaxUndoSteps: a.cfg.History.MaxUndoSteps,
		MaxZoom:      a.cfg.Canvas.MaxZoom,
		ScreenDPI:    a.cfg.Canvas.ScreenDPI,
		Colors:       a.colors,
	})
	cv.History.SetTrackingEnabled(a.cfg.History.Tracking)
	a.doc.Canvas = cv
	return cv
}

func (a *app) open(ctx context.Context, path string) (*scene.Canvas, error) {
	a.doc.Path = path
	cv := a.newCanvas(1, 1)
	if err := a.ser.OpenFile(ctx, path, cv); err != nil {
		return nil, err
	}
	return cv, nil
}

func main() {
	cfg, password, err := config.Load()
	if err != nil {
		fmt.Println("Warning: config:", err)
	}
	applog.Init(applog.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		AddSource:  cfg.Logging.Source,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	l := applog.WithComponent("cli")
	doc := &crash.Document{}
	defer crash.Recover(doc)

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println(version.String())
		return
	case "help", "-h", "--help":
		usage()
		return
	}

	ctx := context.Background()
	colors := color.NewManager(cfg.Color.ProfilesDir)
	if err := colors.Init(); err != nil {
		l.Warn("color profiles", slog.Any("err", err))
	}
	defer colors.Close()
	store, closeStore, err := storage.Open(ctx, cfg.Storage, password)
	if err != nil {
		fail(l, "open storage", err)
	}
	defer func() { _ = closeStore() }()

	ser := serializer.New(store, colors)
	doc.Serializer = ser
	a := &app{cfg: cfg, colors: colors, store: store, ser: ser, log: l, doc: doc}
	if err := a.run(ctx, args[1], args[2:]); err != nil {
		fail(l, args[1], err)
	}
}

func fail(l *slog.Logger, op string, err error) {
	l.Error(op+" failed", slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}

func need(args []string, n int, what string) error {
	if len(args) < n {
		usage()
		return fmt.Errorf("missing arguments: %s", what)
	}
	return nil
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "new":
		if err := need(args, 3, "<file> <width> <height>"); err != nil {
			return err
		}
		w, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("width: %w", err)
		}
		h, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("height: %w", err)
		}
		a.doc.Path = args[0]
		cv := a.newCanvas(w, h)
		if err := cv.Layers.Add(scene.NewLayer("Layer 1")); err != nil {
			return err
		}
		if err := a.ser.SaveFile(ctx, args[0], cv); err != nil {
			return err
		}
		abs, _ := filepath.Abs(args[0])
		fmt.Println("Created document at", abs)
	case "info":
		if err := need(args, 1, "<file>"); err != nil {
			return err
		}
		cv, err := a.open(ctx, args[0])
		if err != nil {
			return err
		}
		printInfo(cv)
	case "svg":
		if err := need(args, 1, "<file>"); err != nil {
			return err
		}
		cv, err := a.open(ctx, args[0])
		if err != nil {
			return err
		}
		root, err := convert.New(a.store).CanvasToSvg(cv)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := svg.Encode(&buf, root); err != nil {
			return err
		}
		if len(args) > 1 {
			return os.WriteFile(args[1], buf.Bytes(), 0o644)
		}
		_, err = os.Stdout.Write(buf.Bytes())
		return err
	case "import":
		if err := need(args, 2, "<in.svg> <file>"); err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		root, err := svg.Decode(f)
		if err != nil {
			return err
		}
		a.doc.Path = args[1]
		cv := a.newCanvas(0, 0)
		if err := convert.New(a.store).CanvasFromSvg(ctx, root, cv); err != nil {
			return err
		}
		if err := a.ser.SaveFile(ctx, args[1], cv); err != nil {
			return err
		}
		fmt.Printf("Imported %d layers, %d objects\n", cv.Layers.Len(), cv.ObjectCount())
	case "add-image":
		if err := need(args, 4, "<file> <image> <w> <h>"); err != nil {
			return err
		}
		return a.addImage(ctx, args)
	case "pdf":
		if err := need(args, 2, "<file> <out.pdf>"); err != nil {
			return err
		}
		cv, err := a.open(ctx, args[0])
		if err != nil {
			return err
		}
		if err := export.ExportPDF(cv, args[1], export.PDFOptions{Title: filepath.Base(args[0])}); err != nil {
			return err
		}
		fmt.Println("Wrote", args[1])
	case "roundtrip":
		if err := need(args, 1, "<file>"); err != nil {
			return err
		}
		cv, err := a.open(ctx, args[0])
		if err != nil {
			return err
		}
		return a.roundTrip(ctx, cv)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func (a *app) addImage(ctx context.Context, args []string) error {
	w, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("width: %w", err)
	}
	h, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("height: %w", err)
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	cv, err := a.open(ctx, args[0])
	if err != nil {
		return err
	}
	id := storage.ContentID(data)
	if err := a.store.Add(ctx, id, bytes.NewReader(data), true); err != nil {
		return err
	}
	l := cv.CurrentLayer()
	if l == nil {
		l = scene.NewLayer("Layer 1")
		if err := cv.Layers.Add(l); err != nil {
			return err
		}
	}
	img := scene.NewImage(vector.NewRotatedRect(vector.R(0, 0, w, h), 0), id)
	if err := l.Objects.Add(img); err != nil {
		return err
	}
	if err := a.ser.SaveFile(ctx, args[0], cv); err != nil {
		return err
	}
	a.log.Info("image added", slog.String("file", id), slog.String("object", img.ID))
	fmt.Println("Added image", id)
	return nil
}

func (a *app) roundTrip(ctx context.Context, cv *scene.Canvas) error {
	var buf bytes.Buffer
	if err := a.ser.Serialize(ctx, cv, &buf); err != nil {
		return err
	}
	size := buf.Len()
	out := a.newCanvas(1, 1)
	defer out.Close()
	if err := a.ser.Deserialize(ctx, &buf, out); err != nil {
		return err
	}
	diffs := 0
	for _, l := range cv.Layers.Items() {
		for _, o := range l.Objects.Items() {
			want, err := scene.MarshalObject(o)
			if err != nil {
				return err
			}
			got, _ := out.FindObject(o.Common().ID)
			if got == nil {
				fmt.Printf("missing: %s %s\n", o.Kind(), o.Common().ID)
				diffs++
				continue
			}
			have, err := scene.MarshalObject(got)
			if err != nil {
				return err
			}
			if !bytes.Equal(want, have) {
				fmt.Printf("changed: %s %s\n", o.Kind(), o.Common().ID)
				diffs++
			}
		}
	}
	fmt.Printf("Archive: %d bytes, %d objects, %d differences\n", size, cv.ObjectCount(), diffs)
	if diffs > 0 {
		return fmt.Errorf("%d objects differ after round trip", diffs)
	}
	return nil
}

func printInfo(cv *scene.Canvas) {
	fmt.Printf("Workspace: %s x %s pt\n", vector.FormatNumber(cv.WorkspaceWidth), vector.FormatNumber(cv.WorkspaceHeight))
	fmt.Printf("Color management: %v\n", cv.ColorSettings.Enabled)
	for i, l := range cv.Layers.Items() {
		flags := ""
		if !l.Visible {
			flags += " hidden"
		}
		if l.Locked {
			flags += " locked"
		}
		marker := " "
		if i == cv.CurrentLayerIndex {
			marker = "*"
		}
		fmt.Printf("%s Layer %d %q (%d objects)%s\n", marker, i, l.Name, l.Objects.Len(), flags)
		counts := map[scene.Kind]int{}
		for _, o := range l.Objects.Items() {
			counts[o.Kind()]++
		}
		kinds := make([]string, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Printf("    %-16s %d\n", k, counts[scene.Kind(k)])
		}
	}
}
