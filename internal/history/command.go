/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package history

// Target is the scene a command replays against. Objects and layers are
// addressed by position and rebuilt from snapshots, never by live reference,
// so commands stay valid against a scene that was reloaded in between.
type Target interface {
	InsertLayer(index int, snapshot []byte) error
	RemoveLayer(index int) error
	MoveLayer(from, to int) error
	InsertObject(layer, index int, snapshot []byte) error
	RemoveObject(layer, index int) error
	MoveObject(fromLayer, fromIndex, toLayer, toIndex int) error
	// SwapObject replaces the state of object id in layer with snapshot and
	// returns the state it had before.
	SwapObject(layer int, id string, snapshot []byte) ([]byte, error)
}

// Command is one recorded, invertible scene mutation.
type Command interface {
	Execute(t Target) error
	Unexecute(t Target) error
	// Valid reports whether every recorded index resolved (> -1).
	Valid() bool
}

// ObjectAdded records an object inserted at Index of layer Layer.
type ObjectAdded struct {
	Layer    int
	Index    int
	Kind     string
	Snapshot []byte
}

func (c *ObjectAdded) Execute(t Target) error   { return t.InsertObject(c.Layer, c.Index, c.Snapshot) }
func (c *ObjectAdded) Unexecute(t Target) error { return t.RemoveObject(c.Layer, c.Index) }
func (c *ObjectAdded) Valid() bool              { return c.Layer > -1 && c.Index > -1 }

// ObjectRemoved is the inverse of ObjectAdded.
type ObjectRemoved struct {
	ObjectAdded
}

func (c *ObjectRemoved) Execute(t Target) error   { return c.ObjectAdded.Unexecute(t) }
func (c *ObjectRemoved) Unexecute(t Target) error { return c.ObjectAdded.Execute(t) }

// ObjectChanged swaps the stored snapshot with the current object state.
// Execute and Unexecute are the same operation: applying it twice restores
// the original state.
type ObjectChanged struct {
	Layer    int
	Index    int
	ID       string
	Kind     string
	Snapshot []byte
}

func (c *ObjectChanged) Execute(t Target) error { return c.swap(t) }

func (c *ObjectChanged) Unexecute(t Target) error { return c.swap(t) }

func (c *ObjectChanged) Valid() bool { return c.Layer > -1 && c.Index > -1 && c.ID != "" }

func (c *ObjectChanged) swap(t Target) error {
	prev, err := t.SwapObject(c.Layer, c.ID, c.Snapshot)
	if err != nil {
		return err
	}
	c.Snapshot = prev
	return nil
}

// ObjectMoved records an object moving within or across layers.
type ObjectMoved struct {
	FromLayer, FromIndex int
	ToLayer, ToIndex     int
}

func (c *ObjectMoved) Execute(t Target) error {
	return t.MoveObject(c.FromLayer, c.FromIndex, c.ToLayer, c.ToIndex)
}

func (c *ObjectMoved) Unexecute(t Target) error {
	return t.MoveObject(c.ToLayer, c.ToIndex, c.FromLayer, c.FromIndex)
}

func (c *ObjectMoved) Valid() bool {
	return c.FromLayer > -1 && c.FromIndex > -1 && c.ToLayer > -1 && c.ToIndex > -1
}

// LayerAdded records a layer (with all its objects) inserted at Index.
type LayerAdded struct {
	Index    int
	Snapshot []byte
}

func (c *LayerAdded) Execute(t Target) error   { return t.InsertLayer(c.Index, c.Snapshot) }
func (c *LayerAdded) Unexecute(t Target) error { return t.RemoveLayer(c.Index) }
func (c *LayerAdded) Valid() bool              { return c.Index > -1 }

// LayerRemoved is the inverse of LayerAdded.
type LayerRemoved struct {
	LayerAdded
}

func (c *LayerRemoved) Execute(t Target) error   { return c.LayerAdded.Unexecute(t) }
func (c *LayerRemoved) Unexecute(t Target) error { return c.LayerAdded.Execute(t) }

type LayerMoved struct {
	From, To int
}

func (c *LayerMoved) Execute(t Target) error   { return t.MoveLayer(c.From, c.To) }
func (c *LayerMoved) Unexecute(t Target) error { return t.MoveLayer(c.To, c.From) }
func (c *LayerMoved) Valid() bool              { return c.From > -1 && c.To > -1 }

// GroupCommand replays its sub-commands forward on Execute and in reverse on
// Unexecute, as one undo step.
type GroupCommand struct {
	Commands []Command
}

func (g *GroupCommand) Execute(t Target) error {
	for _, c := range g.Commands {
		if err := c.Execute(t); err != nil {
			return err
		}
	}
	return nil
}

func (g *GroupCommand) Unexecute(t Target) error {
	for i := len(g.Commands) - 1; i >= 0; i-- {
		if err := g.Commands[i].Unexecute(t); err != nil {
			return err
		}
	}
	return nil
}

// Valid is false for an empty group; such groups are never recorded.
func (g *GroupCommand) Valid() bool { return len(g.Commands) > 0 }
