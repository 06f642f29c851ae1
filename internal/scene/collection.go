/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import "fmt"

// ObjectCollection is the ordered object list of a layer. Selected is the
// index of the selected object, -1 for none.
type ObjectCollection struct {
	layer    *Layer
	items    []VObject
	Selected int
}

func newObjectCollection(l *Layer) *ObjectCollection {
	return &ObjectCollection{layer: l, Selected: -1}
}

func (oc *ObjectCollection) Len() int { return len(oc.items) }

func (oc *ObjectCollection) At(i int) (VObject, error) {
	if i < 0 || i >= len(oc.items) {
		return nil, fmt.Errorf("object %d of %d: %w", i, len(oc.items), ErrIndexOutOfRange)
	}
	return oc.items[i], nil
}

// Items returns a copy of the object list.
func (oc *ObjectCollection) Items() []VObject { return append([]VObject(nil), oc.items...) }

func (oc *ObjectCollection) IndexOf(o VObject) int {
	for i, it := range oc.items {
		if it == o {
			return i
		}
	}
	return -1
}

func (oc *ObjectCollection) IndexByID(id string) int {
	for i, it := range oc.items {
		if it.Common().ID == id {
			return i
		}
	}
	return -1
}

func (oc *ObjectCollection) Add(o VObject) error { return oc.Insert(len(oc.items), o) }

// Insert attaches o at index i. An object attached to a layer must be
// removed from it first.
func (oc *ObjectCollection) Insert(i int, o VObject) error {
	if err := oc.insert(i, o); err != nil {
		return err
	}
	if c := oc.layer.canvas; c != nil {
		c.objectAdded(oc.layer, i, o)
	}
	return nil
}

func (oc *ObjectCollection) insert(i int, o VObject) error {
	if o == nil {
		return fmt.Errorf("insert object: nil")
	}
	b := o.Common()
	if b.layerID != "" || oc.IndexOf(o) >= 0 {
		return fmt.Errorf("insert object %s: %w", b.ID, ErrAlreadyAttached)
	}
	if i < 0 || i > len(oc.items) {
		return fmt.Errorf("insert object at %d of %d: %w", i, len(oc.items), ErrIndexOutOfRange)
	}
	oc.items = append(oc.items, nil)
	copy(oc.items[i+1:], oc.items[i:])
	oc.items[i] = o
	b.layerID = oc.layer.ID
	if oc.Selected >= i && len(oc.items) > 1 {
		oc.Selected++
	}
	return nil
}

func (oc *ObjectCollection) Remove(o VObject) error {
	i := oc.IndexOf(o)
	if i < 0 {
		return fmt.Errorf("remove object: %w", ErrNotAttached)
	}
	_, err := oc.RemoveAt(i)
	return err
}

// RemoveAt detaches the object at i. Removing the selected object moves the
// selection to the last remaining object, or -1.
func (oc *ObjectCollection) RemoveAt(i int) (VObject, error) {
	o, err := oc.At(i)
	if err != nil {
		return nil, err
	}
	if c := oc.layer.canvas; c != nil {
		c.objectRemoving(oc.layer, i, o)
	}
	oc.remove(i)
	return o, nil
}

func (oc *ObjectCollection) remove(i int) VObject {
	o := oc.items[i]
	copy(oc.items[i:], oc.items[i+1:])
	oc.items[len(oc.items)-1] = nil
	oc.items = oc.items[:len(oc.items)-1]
	o.Common().layerID = ""
	switch {
	case oc.Selected == i:
		oc.Selected = len(oc.items) - 1
	case oc.Selected > i:
		oc.Selected--
	}
	return o
}

// Move changes the position of an object inside the layer.
func (oc *ObjectCollection) Move(from, to int) error {
	o, err := oc.At(from)
	if err != nil {
		return err
	}
	if _, err := oc.At(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if from < to {
		copy(oc.items[from:to], oc.items[from+1:to+1])
	} else {
		copy(oc.items[to+1:from+1], oc.items[to:from])
	}
	oc.items[to] = o
	oc.Selected = movedIndex(oc.Selected, from, to)
	if c := oc.layer.canvas; c != nil {
		li := c.Layers.IndexOf(oc.layer)
		c.History.AddObjectMoved(li, from, li, to)
	}
	return nil
}

// Clear removes all objects as one undo step.
func (oc *ObjectCollection) Clear() {
	c := oc.layer.canvas
	if c != nil {
		c.History.StartGroup()
		defer c.History.EndGroup()
	}
	for len(oc.items) > 0 {
		_, _ = oc.RemoveAt(len(oc.items) - 1)
	}
}

// movedIndex returns where the item at index i ends up after the item at from
// was moved to to.
func movedIndex(i, from, to int) int {
	switch {
	case i == from:
		return to
	case from < i && i <= to:
		return i - 1
	case to <= i && i < from:
		return i + 1
	}
	return i
}
