/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"fmt"

	"github.com/google/uuid"

	"gocanvas/internal/vector"
)

// Layer is an ordered group of objects. Region, when set, clips the layer.
type Layer struct {
	ID      string
	Name    string
	Visible bool
	Locked  bool
	Region  *vector.RotatedRect
	Objects *ObjectCollection

	canvas *Canvas
}

func NewLayer(name string) *Layer {
	l := &Layer{ID: uuid.NewString(), Name: name, Visible: true}
	l.Objects = newObjectCollection(l)
	return l
}

// Canvas returns the canvas the layer is attached to, or nil.
func (l *Layer) Canvas() *Canvas { return l.canvas }

// Index returns the position of the layer on its canvas, -1 when detached.
func (l *Layer) Index() int {
	if l.canvas == nil {
		return -1
	}
	return l.canvas.Layers.IndexOf(l)
}

// ObjectByID returns the object with the given id, or nil.
func (l *Layer) ObjectByID(id string) VObject {
	if i := l.Objects.IndexByID(id); i >= 0 {
		return l.Objects.items[i]
	}
	return nil
}

// LayerCollection is the ordered layer list of a canvas.
type LayerCollection struct {
	canvas *Canvas
	items  []*Layer
}

func (lc *LayerCollection) Len() int { return len(lc.items) }

func (lc *LayerCollection) At(i int) (*Layer, error) {
	if i < 0 || i >= len(lc.items) {
		return nil, fmt.Errorf("layer %d of %d: %w", i, len(lc.items), ErrIndexOutOfRange)
	}
	return lc.items[i], nil
}

// Items returns a copy of the layer list.
func (lc *LayerCollection) Items() []*Layer { return append([]*Layer(nil), lc.items...) }

func (lc *LayerCollection) IndexOf(l *Layer) int {
	for i, it := range lc.items {
		if it == l {
			return i
		}
	}
	return -1
}

func (lc *LayerCollection) ByID(id string) *Layer {
	for _, it := range lc.items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

func (lc *LayerCollection) Add(l *Layer) error { return lc.Insert(len(lc.items), l) }

// Insert attaches l at index i. A layer attached elsewhere must be removed first.
func (lc *LayerCollection) Insert(i int, l *Layer) error {
	if l == nil {
		return fmt.Errorf("insert layer: nil")
	}
	if l.canvas != nil {
		return fmt.Errorf("insert layer %s: %w", l.ID, ErrAlreadyAttached)
	}
	if l.Objects == nil {
		l.Objects = newObjectCollection(l)
	}
	if i < 0 || i > len(lc.items) {
		return fmt.Errorf("insert layer at %d of %d: %w", i, len(lc.items), ErrIndexOutOfRange)
	}
	lc.items = append(lc.items, nil)
	copy(lc.items[i+1:], lc.items[i:])
	lc.items[i] = l
	l.canvas = lc.canvas
	switch cur := lc.canvas.CurrentLayerIndex; {
	case cur < 0:
		lc.canvas.CurrentLayerIndex = i
	case cur >= i:
		lc.canvas.CurrentLayerIndex++
	}
	lc.canvas.layerAdded(i, l)
	return nil
}

func (lc *LayerCollection) Remove(l *Layer) error {
	i := lc.IndexOf(l)
	if i < 0 {
		return fmt.Errorf("remove layer: %w", ErrNotAttached)
	}
	_, err := lc.RemoveAt(i)
	return err
}

// RemoveAt detaches the layer at i. Removing the current layer moves the
// selection to the last remaining layer, or -1.
func (lc *LayerCollection) RemoveAt(i int) (*Layer, error) {
	l, err := lc.At(i)
	if err != nil {
		return nil, err
	}
	lc.canvas.layerRemoving(i, l)
	copy(lc.items[i:], lc.items[i+1:])
	lc.items[len(lc.items)-1] = nil
	lc.items = lc.items[:len(lc.items)-1]
	l.canvas = nil
	switch cur := lc.canvas.CurrentLayerIndex; {
	case cur == i:
		lc.canvas.CurrentLayerIndex = len(lc.items) - 1
	case cur > i:
		lc.canvas.CurrentLayerIndex--
	}
	return l, nil
}

// Move changes the position of a layer.
func (lc *LayerCollection) Move(from, to int) error {
	if err := lc.move(from, to); err != nil {
		return err
	}
	if from != to {
		lc.canvas.History.AddLayerMoved(from, to)
	}
	return nil
}

func (lc *LayerCollection) move(from, to int) error {
	l, err := lc.At(from)
	if err != nil {
		return err
	}
	if _, err := lc.At(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if from < to {
		copy(lc.items[from:to], lc.items[from+1:to+1])
	} else {
		copy(lc.items[to+1:from+1], lc.items[to:from])
	}
	lc.items[to] = l
	lc.canvas.CurrentLayerIndex = movedIndex(lc.canvas.CurrentLayerIndex, from, to)
	return nil
}

// Clear removes all layers as one undo step.
func (lc *LayerCollection) Clear() {
	h := lc.canvas.History
	h.StartGroup()
	defer h.EndGroup()
	for len(lc.items) > 0 {
		_, _ = lc.RemoveAt(len(lc.items) - 1)
	}
}
