/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"encoding/json"
	"fmt"

	"gocanvas/internal/vector"
)

// objectEnvelope tags a serialized object with its kind.
type objectEnvelope struct {
	Kind   Kind            `json:"kind"`
	Object json.RawMessage `json:"object"`
}

// MarshalObject captures the full state of o, including its id.
func MarshalObject(o VObject) ([]byte, error) {
	if o == nil {
		return nil, fmt.Errorf("marshal object: nil")
	}
	raw, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", o.Kind(), err)
	}
	return json.Marshal(objectEnvelope{Kind: o.Kind(), Object: raw})
}

// UnmarshalObject rebuilds a detached object from MarshalObject output.
func UnmarshalObject(data []byte) (VObject, error) {
	var env objectEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal object envelope: %w", err)
	}
	o := New(env.Kind)
	if o == nil {
		return nil, fmt.Errorf("unmarshal object: unknown kind %q", env.Kind)
	}
	if err := json.Unmarshal(env.Object, o); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", env.Kind, err)
	}
	return o, nil
}

// Clone returns a detached deep copy of o with the same id.
func Clone(o VObject) (VObject, error) {
	data, err := MarshalObject(o)
	if err != nil {
		return nil, err
	}
	return UnmarshalObject(data)
}

type layerSnapshot struct {
	ID      string              `json:"id"`
	Name    string              `json:"name,omitempty"`
	Visible bool                `json:"visible"`
	Locked  bool                `json:"locked,omitempty"`
	Region  *vector.RotatedRect `json:"region,omitempty"`
	Objects []json.RawMessage   `json:"objects"`
}

// MarshalLayer captures a layer with all of its objects.
func MarshalLayer(l *Layer) ([]byte, error) {
	s := layerSnapshot{ID: l.ID, Name: l.Name, Visible: l.Visible, Locked: l.Locked, Region: l.Region}
	for _, o := range l.Objects.items {
		b, err := MarshalObject(o)
		if err != nil {
			return nil, err
		}
		s.Objects = append(s.Objects, b)
	}
	return json.Marshal(s)
}

// UnmarshalLayer rebuilds a detached layer from MarshalLayer output. Objects
// are added without recording history.
func UnmarshalLayer(data []byte) (*Layer, error) {
	var s layerSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal layer: %w", err)
	}
	l := &Layer{ID: s.ID, Name: s.Name, Visible: s.Visible, Locked: s.Locked, Region: s.Region}
	l.Objects = newObjectCollection(l)
	for _, raw := range s.Objects {
		o, err := UnmarshalObject(raw)
		if err != nil {
			return nil, err
		}
		o.Common().layerID = l.ID
		l.Objects.items = append(l.Objects.items, o)
	}
	return l, nil
}
