/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene holds the in-memory vector document: a Canvas owns Layers,
// Layers own objects. Every structural mutation goes through the collection
// API, which reports it to the canvas History.
package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"

	"gocanvas/internal/color"
	"gocanvas/internal/history"
	applog "gocanvas/internal/log"
)

var (
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrAlreadyAttached = errors.New("already attached to a collection")
	ErrNotAttached     = errors.New("not attached to this collection")
	ErrObjectNotFound  = errors.New("object not found")
)

const (
	MinZoom = 0.01
	// maxBitmapPixels bounds the zoomed workspace bitmap a viewer has to allocate.
	maxBitmapPixels = 1 << 26
)

// ColorSettings references the color profiles the document was made with.
// Empty ids select the defaults of the color manager.
type ColorSettings struct {
	Enabled          bool
	RGBProfile       string
	CMYKProfile      string
	GrayscaleProfile string
}

type Margin struct {
	Width   float64
	Color   color.Color
	Visible bool
}

type SelectionStyle struct {
	Color color.Color
	Width float64
}

type GripStyle struct {
	Size      float64
	Color     color.Color
	FillColor color.Color
}

// Options configure a new canvas; zero values select defaults.
type Options struct {
	MaxUndoSteps int
	MaxZoom      float64
	ScreenDPI    float64
	// Colors is shared with the caller; when nil the canvas creates and owns
	// a manager for ProfilesDir.
	Colors      *color.Manager
	ProfilesDir string
}

// Canvas is the document root. It is not safe for concurrent use.
type Canvas struct {
	Layers            *LayerCollection
	CurrentLayerIndex int

	WorkspaceWidth  float64
	WorkspaceHeight float64
	ScreenDPI       float64

	Margin    Margin
	Selection SelectionStyle
	Grip      GripStyle

	ColorSettings ColorSettings
	History       *history.History
	Tags          map[string]any

	// Initializing is set while a document is loaded; object callbacks are
	// not fired then.
	Initializing bool

	OnObjectAdded   func(VObject)
	OnObjectRemoved func(VObject)

	zoom       float64
	maxZoom    float64
	colors     *color.Manager
	ownsColors bool
	opts       Options
	log        *slog.Logger
}

// NewCanvas creates an empty canvas with the workspace size in points.
func NewCanvas(width, height float64, opts Options) *Canvas {
	if opts.ScreenDPI <= 0 {
		opts.ScreenDPI = 96
	}
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = 16
	}
	c := &Canvas{
		CurrentLayerIndex: -1,
		WorkspaceWidth:    width,
		WorkspaceHeight:   height,
		ScreenDPI:         opts.ScreenDPI,
		Margin:            Margin{Width: 8, Color: color.NewRGB(255, 0, 0, 128)},
		Selection:         SelectionStyle{Color: color.NewRGB(48, 48, 255, 255), Width: 1},
		Grip:              GripStyle{Size: 8, Color: color.NewRGB(48, 48, 255, 255), FillColor: color.White},
		ColorSettings:     ColorSettings{Enabled: true},
		Tags:              map[string]any{},
		zoom:              1,
		maxZoom:           opts.MaxZoom,
		colors:            opts.Colors,
		opts:              opts,
		log:               applog.WithComponent("scene"),
	}
	if c.colors == nil {
		c.colors = color.NewManager(opts.ProfilesDir)
		c.ownsColors = true
	}
	c.Layers = &LayerCollection{canvas: c}
	c.History = history.New(replayTarget{c}, opts.MaxUndoSteps)
	return c
}

// Options returns the options the canvas was created with, e.g. to build a
// scratch canvas sharing the same color manager.
func (c *Canvas) Options() Options {
	o := c.opts
	o.Colors = c.colors
	return o
}

func (c *Canvas) Colors() *color.Manager { return c.colors }

// Close releases the history and, when owned, the color manager.
func (c *Canvas) Close() {
	c.History.Clear()
	if c.ownsColors && c.colors != nil {
		c.colors.Close()
	}
	c.colors = nil
}

func (c *Canvas) Zoom() float64 { return c.zoom }

// SetZoom sets the zoom factor clamped to [MinZoom, MaxZoom()].
func (c *Canvas) SetZoom(z float64) {
	c.zoom = math.Min(math.Max(z, MinZoom), c.MaxZoom())
}

// MaxZoom is the configured maximum, lowered so that the zoomed workspace
// bitmap stays below the viewer's allocation limit.
func (c *Canvas) MaxZoom() float64 {
	z := c.maxZoom
	px := (c.WorkspaceWidth * c.ScreenDPI / 72) * (c.WorkspaceHeight * c.ScreenDPI / 72)
	if px > 0 {
		z = math.Min(z, math.Sqrt(maxBitmapPixels/px))
	}
	return math.Max(z, MinZoom)
}

// CurrentLayer returns the selected layer, or nil.
func (c *Canvas) CurrentLayer() *Layer {
	l, err := c.Layers.At(c.CurrentLayerIndex)
	if err != nil {
		return nil
	}
	return l
}

// FindObject returns the object with the given id and its layer.
func (c *Canvas) FindObject(id string) (VObject, *Layer) {
	for _, l := range c.Layers.items {
		if o := l.ObjectByID(id); o != nil {
			return o, l
		}
	}
	return nil, nil
}

// SelectedObjects returns the selected object of every layer that has one.
func (c *Canvas) SelectedObjects() []VObject {
	var out []VObject
	for _, l := range c.Layers.items {
		if o, err := l.Objects.At(l.Objects.Selected); err == nil {
			out = append(out, o)
		}
	}
	return out
}

// ObjectCount is the number of objects on all layers.
func (c *Canvas) ObjectCount() int {
	n := 0
	for _, l := range c.Layers.items {
		n += l.Objects.Len()
	}
	return n
}

// Clear removes all layers as one undo step.
func (c *Canvas) Clear() { c.Layers.Clear() }

// locate returns the layer and object index of o, -1s when detached.
func (c *Canvas) locate(o VObject) (int, int) {
	for li, l := range c.Layers.items {
		if l.ID != o.Common().layerID {
			continue
		}
		if oi := l.Objects.IndexOf(o); oi >= 0 {
			return li, oi
		}
	}
	return -1, -1
}

// ChangeObject runs mutate on o and records the change so it can be undone.
// Property changes made outside ChangeObject are not tracked.
func (c *Canvas) ChangeObject(o VObject, mutate func() error) error {
	li, oi := c.locate(o)
	var before []byte
	if li >= 0 && c.History.Recording() {
		b, err := MarshalObject(o)
		if err != nil {
			return err
		}
		before = b
	}
	if err := mutate(); err != nil {
		return err
	}
	if before != nil {
		c.History.AddObjectChanged(li, oi, o.Common().ID, string(o.Kind()), before)
	}
	return nil
}

// MoveObject moves an object to another position, possibly on another layer.
func (c *Canvas) MoveObject(fromLayer, fromIndex, toLayer, toIndex int) error {
	src, err := c.Layers.At(fromLayer)
	if err != nil {
		return err
	}
	dst, err := c.Layers.At(toLayer)
	if err != nil {
		return err
	}
	if src == dst {
		return src.Objects.Move(fromIndex, toIndex)
	}
	if _, err := src.Objects.At(fromIndex); err != nil {
		return err
	}
	if toIndex < 0 || toIndex > dst.Objects.Len() {
		return fmt.Errorf("move object to %d of %d: %w", toIndex, dst.Objects.Len(), ErrIndexOutOfRange)
	}
	o := src.Objects.remove(fromIndex)
	if err := dst.Objects.insert(toIndex, o); err != nil {
		_ = src.Objects.insert(fromIndex, o)
		return err
	}
	c.History.AddObjectMoved(fromLayer, fromIndex, toLayer, toIndex)
	return nil
}

// ReplaceWith moves the whole document of src into c and clears the history.
// src is left empty.
func (c *Canvas) ReplaceWith(src *Canvas) {
	for _, l := range c.Layers.items {
		l.canvas = nil
	}
	c.Layers.items = src.Layers.items
	for _, l := range c.Layers.items {
		l.canvas = c
	}
	src.Layers.items = nil
	c.CurrentLayerIndex = src.CurrentLayerIndex
	src.CurrentLayerIndex = -1
	c.WorkspaceWidth, c.WorkspaceHeight = src.WorkspaceWidth, src.WorkspaceHeight
	c.ColorSettings = src.ColorSettings
	c.Tags = src.Tags
	c.History.Clear()
	c.SetZoom(c.zoom)
}

func (c *Canvas) layerAdded(i int, l *Layer) {
	if !c.History.Recording() {
		return
	}
	snap, err := MarshalLayer(l)
	if err != nil {
		c.log.Error("layer snapshot failed", slog.String("layer", l.ID), slog.Any("err", err))
		return
	}
	c.History.AddLayerAdded(i, snap)
}

func (c *Canvas) layerRemoving(i int, l *Layer) {
	if !c.History.Recording() {
		return
	}
	snap, err := MarshalLayer(l)
	if err != nil {
		c.log.Error("layer snapshot failed", slog.String("layer", l.ID), slog.Any("err", err))
		return
	}
	c.History.AddLayerRemoved(i, snap)
}

func (c *Canvas) objectAdded(l *Layer, i int, o VObject) {
	if !c.Initializing && c.OnObjectAdded != nil {
		c.OnObjectAdded(o)
	}
	if !c.History.Recording() {
		return
	}
	snap, err := MarshalObject(o)
	if err != nil {
		c.log.Error("object snapshot failed", slog.String("object", o.Common().ID), slog.Any("err", err))
		return
	}
	c.History.AddObjectAdded(c.Layers.IndexOf(l), i, string(o.Kind()), snap)
}

func (c *Canvas) objectRemoving(l *Layer, i int, o VObject) {
	if !c.Initializing && c.OnObjectRemoved != nil {
		c.OnObjectRemoved(o)
	}
	if !c.History.Recording() {
		return
	}
	snap, err := MarshalObject(o)
	if err != nil {
		c.log.Error("object snapshot failed", slog.String("object", o.Common().ID), slog.Any("err", err))
		return
	}
	c.History.AddObjectRemoved(c.Layers.IndexOf(l), i, string(o.Kind()), snap)
}

// replayTarget applies history commands to the canvas. The history is
// locked while it runs, so the collection calls below record nothing.
type replayTarget struct{ c *Canvas }

func (r replayTarget) InsertLayer(index int, snapshot []byte) error {
	l, err := UnmarshalLayer(snapshot)
	if err != nil {
		return err
	}
	return r.c.Layers.Insert(index, l)
}

func (r replayTarget) RemoveLayer(index int) error {
	_, err := r.c.Layers.RemoveAt(index)
	return err
}

func (r replayTarget) MoveLayer(from, to int) error { return r.c.Layers.move(from, to) }

func (r replayTarget) InsertObject(layer, index int, snapshot []byte) error {
	l, err := r.c.Layers.At(layer)
	if err != nil {
		return err
	}
	o, err := UnmarshalObject(snapshot)
	if err != nil {
		return err
	}
	return l.Objects.Insert(index, o)
}

func (r replayTarget) RemoveObject(layer, index int) error {
	l, err := r.c.Layers.At(layer)
	if err != nil {
		return err
	}
	_, err = l.Objects.RemoveAt(index)
	return err
}

func (r replayTarget) MoveObject(fromLayer, fromIndex, toLayer, toIndex int) error {
	return r.c.MoveObject(fromLayer, fromIndex, toLayer, toIndex)
}

// SwapObject replaces the object state in place so callers holding the
// object keep seeing the live one.
func (r replayTarget) SwapObject(layer int, id string, snapshot []byte) ([]byte, error) {
	l, err := r.c.Layers.At(layer)
	if err != nil {
		return nil, err
	}
	i := l.Objects.IndexByID(id)
	if i < 0 {
		return nil, fmt.Errorf("swap object %s in layer %d: %w", id, layer, ErrObjectNotFound)
	}
	cur := l.Objects.items[i]
	prev, err := MarshalObject(cur)
	if err != nil {
		return nil, err
	}
	next, err := UnmarshalObject(snapshot)
	if err != nil {
		return nil, err
	}
	next.Common().layerID = l.ID
	if next.Kind() == cur.Kind() {
		reflect.ValueOf(cur).Elem().Set(reflect.ValueOf(next).Elem())
	} else {
		l.Objects.items[i] = next
	}
	return prev, nil
}
