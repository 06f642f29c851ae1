/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package history implements the bounded undo/redo stack of a canvas.
package history

import (
	"log/slog"

	applog "gocanvas/internal/log"
)

// DefaultMaxUndoSteps is used when a History is created with a non-positive cap.
const DefaultMaxUndoSteps = 50

// History is the ordered command list of one canvas plus the current
// position. It is owned by the canvas and mutated from a single goroutine;
// it is not safe for concurrent use.
type History struct {
	target   Target
	commands []Command
	current  int

	enable     bool
	locked     bool
	tracking   bool
	maxSteps   int
	overflowed bool

	group      *GroupCommand
	groupDepth int

	// Changed is called after every change of the stack or the position.
	Changed func()

	log *slog.Logger
}

// New creates an enabled, tracking History replaying against target.
func New(target Target, maxSteps int) *History {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxUndoSteps
	}
	return &History{
		target:   target,
		current:  -1,
		enable:   true,
		tracking: true,
		maxSteps: maxSteps,
		log:      applog.WithComponent("history"),
	}
}

func (h *History) Enabled() bool             { return h.enable }
func (h *History) SetEnabled(v bool)         { h.enable = v }
func (h *History) TrackingEnabled() bool     { return h.tracking }
func (h *History) SetTrackingEnabled(v bool) { h.tracking = v }

// Locked reports whether a command is being replayed right now.
func (h *History) Locked() bool { return h.locked }

// Overflowed reports whether commands were ever evicted from the oldest end.
func (h *History) Overflowed() bool { return h.overflowed }

func (h *History) MaxUndoStepCount() int { return h.maxSteps }

// SetMaxUndoStepCount changes the cap and evicts the oldest commands when the
// stack is now too long.
func (h *History) SetMaxUndoStepCount(n int) {
	if n <= 0 {
		n = DefaultMaxUndoSteps
	}
	h.maxSteps = n
	if h.evict() {
		h.fireChanged()
	}
}

// Len is the number of recorded commands.
func (h *History) Len() int { return len(h.commands) }

// Current is the index of the last applied command, -1 when none.
func (h *History) Current() int { return h.current }

func (h *History) CanUndo() bool { return h.current >= 0 }
func (h *History) CanRedo() bool { return h.current < len(h.commands)-1 }

// Recording reports whether Add would record a command right now.
func (h *History) Recording() bool { return h.enable && h.tracking && !h.locked }

// Undo reverts the current command. It is a no-op when disabled or when
// there is nothing to undo. Replay errors are returned unchanged and leave
// the position where it was.
func (h *History) Undo() error {
	if !h.enable || !h.CanUndo() {
		return nil
	}
	h.locked = true
	err := h.commands[h.current].Unexecute(h.target)
	h.locked = false
	if err != nil {
		h.log.Error("undo failed", slog.Int("current", h.current), slog.Any("err", err))
		return err
	}
	h.current--
	h.fireChanged()
	return nil
}

// Redo reapplies the command after the current position.
func (h *History) Redo() error {
	if !h.enable || !h.CanRedo() {
		return nil
	}
	h.locked = true
	err := h.commands[h.current+1].Execute(h.target)
	h.locked = false
	if err != nil {
		h.log.Error("redo failed", slog.Int("current", h.current), slog.Any("err", err))
		return err
	}
	h.current++
	h.fireChanged()
	return nil
}

// Add records cmd. It reports whether the command was kept: commands are
// dropped while not recording, when one of their indices is unresolved, and
// go into the open group when one exists.
func (h *History) Add(cmd Command) bool {
	if !h.Recording() || cmd == nil || !cmd.Valid() {
		return false
	}
	if h.group != nil {
		h.group.Commands = append(h.group.Commands, cmd)
		return true
	}
	h.push(cmd)
	return true
}

func (h *History) push(cmd Command) {
	h.clearRedo()
	h.commands = append(h.commands, cmd)
	h.current++
	h.evict()
	h.fireChanged()
}

func (h *History) evict() bool {
	if len(h.commands) <= h.maxSteps {
		return false
	}
	n := len(h.commands) - h.maxSteps
	clear(h.commands[:n])
	h.commands = h.commands[n:]
	h.current -= n
	if h.current < -1 {
		h.current = -1
	}
	if !h.overflowed {
		h.overflowed = true
		h.log.Debug("undo stack overflow, evicting oldest commands", slog.Int("max", h.maxSteps))
	}
	return true
}

// AddObjectAdded records an object inserted at index of layer.
func (h *History) AddObjectAdded(layer, index int, kind string, snapshot []byte) bool {
	return h.Add(&ObjectAdded{Layer: layer, Index: index, Kind: kind, Snapshot: snapshot})
}

// AddObjectRemoved records an object removed from index of layer.
func (h *History) AddObjectRemoved(layer, index int, kind string, snapshot []byte) bool {
	return h.Add(&ObjectRemoved{ObjectAdded{Layer: layer, Index: index, Kind: kind, Snapshot: snapshot}})
}

// AddObjectChanged records a property change; before is the state prior to it.
func (h *History) AddObjectChanged(layer, index int, id, kind string, before []byte) bool {
	return h.Add(&ObjectChanged{Layer: layer, Index: index, ID: id, Kind: kind, Snapshot: before})
}

func (h *History) AddObjectMoved(fromLayer, fromIndex, toLayer, toIndex int) bool {
	return h.Add(&ObjectMoved{FromLayer: fromLayer, FromIndex: fromIndex, ToLayer: toLayer, ToIndex: toIndex})
}

func (h *History) AddLayerAdded(index int, snapshot []byte) bool {
	return h.Add(&LayerAdded{Index: index, Snapshot: snapshot})
}

func (h *History) AddLayerRemoved(index int, snapshot []byte) bool {
	return h.Add(&LayerRemoved{LayerAdded{Index: index, Snapshot: snapshot}})
}

func (h *History) AddLayerMoved(from, to int) bool {
	return h.Add(&LayerMoved{From: from, To: to})
}

// StartGroup opens a group command. Nested calls join the outer group.
func (h *History) StartGroup() {
	h.groupDepth++
	if h.group == nil {
		h.group = &GroupCommand{}
	}
}

// EndGroup closes the group opened by the matching StartGroup. The group is
// pushed as a single command, or discarded when nothing was recorded in it.
func (h *History) EndGroup() {
	if h.groupDepth == 0 {
		return
	}
	h.groupDepth--
	if h.groupDepth > 0 {
		return
	}
	g := h.group
	h.group = nil
	if g.Valid() {
		h.push(g)
	}
}

// InGroup reports whether a group command is open.
func (h *History) InGroup() bool { return h.group != nil }

// Clear drops all commands.
func (h *History) Clear() {
	h.commands = nil
	h.current = -1
	h.group = nil
	h.groupDepth = 0
	h.fireChanged()
}

// ClearUndo drops the commands up to and including the current position.
func (h *History) ClearUndo() {
	if h.current < 0 {
		return
	}
	h.commands = append([]Command(nil), h.commands[h.current+1:]...)
	h.current = -1
	h.fireChanged()
}

// ClearRedo drops the commands after the current position.
func (h *History) ClearRedo() {
	if h.clearRedo() {
		h.fireChanged()
	}
}

func (h *History) clearRedo() bool {
	if !h.CanRedo() {
		return false
	}
	clear(h.commands[h.current+1:])
	h.commands = h.commands[:h.current+1]
	return true
}

func (h *History) fireChanged() {
	if h.Changed != nil {
		h.Changed()
	}
}
