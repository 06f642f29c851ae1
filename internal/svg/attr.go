/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package svg

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"gocanvas/internal/vector"
)

// Attribute binds one XML attribute to a field. Get returns the current
// value; Set parses a value into the field. Values equal to Default are not
// written, and a missing attribute reads as Default.
type Attribute struct {
	Name    xml.Name
	Default string
	Get     func() string
	Set     func(string) error
}

// Element is an SVG element type exposing its attributes in write order.
type Element interface {
	Tag() string
	Attributes() []Attribute
}

// Elem is an Element assembled from attribute lists.
type Elem struct {
	Name  string
	Attrs []Attribute
}

func (e Elem) Tag() string             { return e.Name }
func (e Elem) Attributes() []Attribute { return e.Attrs }

// Bind creates the node for el with all non-default attributes set.
func Bind(el Element) *Node {
	n := NewNode(el.Tag())
	Write(n, el.Attributes())
	return n
}

// Write sets attrs on n, skipping empty values and values equal to the default.
func Write(n *Node, attrs []Attribute) {
	for _, a := range attrs {
		v := a.Get()
		if v == "" || v == a.Default {
			continue
		}
		n.SetAttr(a.Name, v)
	}
}

// Apply reads the attributes of el from n.
func Apply(n *Node, el Element) error { return Read(n, el.Attributes()) }

// Read sets every attribute in attrs from n, in order. Attributes missing on
// n are set to their default when they have one; attributes of n that attrs
// do not mention are ignored.
func Read(n *Node, attrs []Attribute) error {
	for _, a := range attrs {
		v, ok := n.Attr(a.Name)
		if !ok {
			if a.Default == "" {
				continue
			}
			v = a.Default
		}
		if err := a.Set(v); err != nil {
			return fmt.Errorf("<%s> attribute %s: %w", n.Name.Local, qualified(a.Name), err)
		}
	}
	return nil
}

func qualified(name xml.Name) string {
	if p, ok := prefixes[name.Space]; ok {
		return p + ":" + name.Local
	}
	return name.Local
}

// String binds a string field.
func String(name xml.Name, def string, p *string) Attribute {
	return Attribute{Name: name, Default: def,
		Get: func() string { return *p },
		Set: func(s string) error { *p = s; return nil },
	}
}

// Bool binds a bool field written as "true"/"false".
func Bool(name xml.Name, def bool, p *bool) Attribute {
	return Attribute{Name: name, Default: strconv.FormatBool(def),
		Get: func() string { return strconv.FormatBool(*p) },
		Set: func(s string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(s))
			if err != nil {
				return err
			}
			*p = b
			return nil
		},
	}
}

// Float binds a float64 field.
func Float(name xml.Name, def float64, p *float64) Attribute {
	return Attribute{Name: name, Default: vector.FormatNumber(def),
		Get: func() string { return vector.FormatNumber(*p) },
		Set: func(s string) error {
			f, err := ParseNumber(s)
			if err != nil {
				return err
			}
			*p = f
			return nil
		},
	}
}

// Int binds an int field.
func Int(name xml.Name, def int, p *int) Attribute {
	return Attribute{Name: name, Default: strconv.Itoa(def),
		Get: func() string { return strconv.Itoa(*p) },
		Set: func(s string) error {
			i, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return err
			}
			*p = i
			return nil
		},
	}
}

// JSON binds any JSON-encodable field. Zero-ish encodings (null, {}, [], "")
// are not written.
func JSON(name xml.Name, p any) Attribute {
	return Attribute{Name: name,
		Get: func() string {
			b, err := json.Marshal(p)
			if err != nil {
				return ""
			}
			switch s := string(b); s {
			case "null", "{}", "[]", `""`:
				return ""
			default:
				return s
			}
		},
		Set: func(s string) error { return json.Unmarshal([]byte(s), p) },
	}
}

// RawJSON binds a raw JSON value. Any non-empty value is written verbatim,
// including {}, [] and "".
func RawJSON(name xml.Name, p *json.RawMessage) Attribute {
	return Attribute{Name: name,
		Get: func() string { return string(*p) },
		Set: func(s string) error {
			if !json.Valid([]byte(s)) {
				return fmt.Errorf("%s: invalid JSON", name.Local)
			}
			*p = append(json.RawMessage(nil), s...)
			return nil
		},
	}
}

// ParseNumber parses an SVG number, tolerating a trailing "pt" or "px" unit.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimSuffix(s, "pt"), "px")
	return strconv.ParseFloat(s, 64)
}
