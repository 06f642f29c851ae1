/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package color

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

// colorSchema describes the exact-value color document stored in the
// vectorobjects namespace attributes.
const colorSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["space", "a"],
  "properties": {
    "space":   {"enum": ["rgb", "cmyk", "grayscale"]},
    "r": {"$ref": "#/definitions/channel"},
    "g": {"$ref": "#/definitions/channel"},
    "b": {"$ref": "#/definitions/channel"},
    "c": {"$ref": "#/definitions/channel"},
    "m": {"$ref": "#/definitions/channel"},
    "y": {"$ref": "#/definitions/channel"},
    "k": {"$ref": "#/definitions/channel"},
    "l": {"$ref": "#/definitions/channel"},
    "a": {"$ref": "#/definitions/channel"},
    "preview": {"type": "string", "pattern": "^#[0-9a-fA-F]{6}$"}
  },
  "allOf": [
    {"if": {"properties": {"space": {"const": "rgb"}}}, "then": {"required": ["r", "g", "b"]}},
    {"if": {"properties": {"space": {"const": "cmyk"}}}, "then": {"required": ["c", "m", "y", "k"]}},
    {"if": {"properties": {"space": {"const": "grayscale"}}}, "then": {"required": ["l"]}}
  ],
  "definitions": {
    "channel": {"type": "integer", "minimum": 0, "maximum": 255}
  }
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(colorSchema))
	})
	return schema, schemaErr
}

type colorDoc struct {
	Space   string `json:"space"`
	R       *uint8 `json:"r,omitempty"`
	G       *uint8 `json:"g,omitempty"`
	B       *uint8 `json:"b,omitempty"`
	C       *uint8 `json:"c,omitempty"`
	M       *uint8 `json:"m,omitempty"`
	Y       *uint8 `json:"y,omitempty"`
	K       *uint8 `json:"k,omitempty"`
	L       *uint8 `json:"l,omitempty"`
	A       uint8  `json:"a"`
	Preview string `json:"preview,omitempty"`
}

func u8(v uint8) *uint8 { return &v }

// MarshalJSON writes the exact color value with its space tag.
func (c Color) MarshalJSON() ([]byte, error) {
	d := colorDoc{Space: c.Space.String(), A: c.A}
	switch c.Space {
	case RGB:
		d.R, d.G, d.B = u8(c.V[0]), u8(c.V[1]), u8(c.V[2])
	case CMYK:
		d.C, d.M, d.Y, d.K = u8(c.V[0]), u8(c.V[1]), u8(c.V[2]), u8(c.V[3])
		d.Preview = Hex(c.Preview)
	case Grayscale:
		d.L = u8(c.V[0])
		d.Preview = Hex(c.Preview)
	default:
		return nil, fmt.Errorf("marshal color: unknown space %d", c.Space)
	}
	return json.Marshal(d)
}

// UnmarshalJSON validates data against the color schema before decoding.
func (c *Color) UnmarshalJSON(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("color schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate color: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return errors.New("invalid color: " + strings.Join(msgs, "; "))
	}
	var d colorDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	sp, err := ParseSpace(d.Space)
	if err != nil {
		return err
	}
	switch sp {
	case RGB:
		*c = NewRGB(*d.R, *d.G, *d.B, d.A)
		return nil
	case CMYK:
		*c = NewCMYK(*d.C, *d.M, *d.Y, *d.K, d.A)
	case Grayscale:
		*c = NewGray(*d.L, d.A)
	}
	if d.Preview != "" {
		p, ok := ParsePaint(d.Preview)
		if !ok {
			return fmt.Errorf("invalid color preview %q", d.Preview)
		}
		*c = c.WithPreview(p)
	}
	return nil
}

// Encode returns the JSON form of c as a string, as stored in vo:*-color attributes.
func Encode(c Color) (string, error) {
	b, err := c.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses the JSON form of a color.
func Decode(s string) (Color, error) {
	var c Color
	if err := c.UnmarshalJSON([]byte(s)); err != nil {
		return Color{}, err
	}
	return c, nil
}
