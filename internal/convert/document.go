/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package convert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"gocanvas/internal/scene"
	"gocanvas/internal/svg"
	"gocanvas/internal/vector"
)

func canvasAttrs(cv *scene.Canvas) []svg.Attribute {
	return []svg.Attribute{
		svg.Float(svg.N("width"), 0, &cv.WorkspaceWidth),
		svg.Float(svg.N("height"), 0, &cv.WorkspaceHeight),
		{Name: svg.N("viewBox"),
			Get: func() string {
				return "0 0 " + vector.FormatNumber(cv.WorkspaceWidth) + " " + vector.FormatNumber(cv.WorkspaceHeight)
			},
			Set: func(s string) error {
				f := strings.Fields(strings.ReplaceAll(s, ",", " "))
				if len(f) != 4 {
					return fmt.Errorf("viewBox %q: want 4 numbers", s)
				}
				w, err := svg.ParseNumber(f[2])
				if err != nil {
					return err
				}
				h, err := svg.ParseNumber(f[3])
				if err != nil {
					return err
				}
				// width/height win when present.
				if cv.WorkspaceWidth == 0 {
					cv.WorkspaceWidth = w
				}
				if cv.WorkspaceHeight == 0 {
					cv.WorkspaceHeight = h
				}
				return nil
			},
		},
		svg.Bool(svg.VO("color-management"), true, &cv.ColorSettings.Enabled),
		svg.String(svg.VO("rgb-profile"), "", &cv.ColorSettings.RGBProfile),
		svg.String(svg.VO("cmyk-profile"), "", &cv.ColorSettings.CMYKProfile),
		svg.String(svg.VO("grayscale-profile"), "", &cv.ColorSettings.GrayscaleProfile),
		svg.JSON(svg.VO("tag"), &cv.Tags),
		svg.Int(svg.VO("current-layer"), -1, &cv.CurrentLayerIndex),
	}
}

func layerAttrs(l *scene.Layer) []svg.Attribute {
	return []svg.Attribute{
		svg.String(svg.N("id"), "", &l.ID),
		{Name: svg.N("display"), Default: "inline",
			Get: func() string {
				if l.Visible {
					return "inline"
				}
				return "none"
			},
			Set: func(s string) error { l.Visible = strings.TrimSpace(s) != "none"; return nil },
		},
		svg.Bool(svg.VO("locked"), false, &l.Locked),
		svg.String(svg.VO("name"), "", &l.Name),
		svg.JSON(svg.VO("region"), &l.Region),
	}
}

// CanvasToSvg builds the <svg> document of cv: one <g> per layer holding the
// elements of its objects.
func (c *Converter) CanvasToSvg(cv *scene.Canvas) (*svg.Node, error) {
	root := svg.Bind(svg.Elem{Name: "svg", Attrs: canvasAttrs(cv)})
	for _, l := range cv.Layers.Items() {
		g := svg.Bind(svg.Elem{Name: "g", Attrs: layerAttrs(l)})
		for _, o := range l.Objects.Items() {
			n, err := c.ToSvg(o)
			if err != nil {
				return nil, fmt.Errorf("layer %s object %s: %w", l.ID, o.Common().ID, err)
			}
			g.Append(n)
		}
		root.Append(g)
	}
	return root, nil
}

// CanvasFromSvg reads the document root into cv, appending its layers.
// Callers load into a fresh canvas; on error cv is partially filled and must
// be discarded. Nothing is recorded in the history and object callbacks do
// not fire while loading.
func (c *Converter) CanvasFromSvg(ctx context.Context, root *svg.Node, cv *scene.Canvas) error {
	if !root.Is("svg") {
		return &ParseError{Element: root.Name.Local, Reason: "document root is not <svg>"}
	}
	wasInit, wasEnabled := cv.Initializing, cv.History.Enabled()
	cv.Initializing = true
	cv.History.SetEnabled(false)
	defer func() {
		cv.Initializing = wasInit
		cv.History.SetEnabled(wasEnabled)
	}()

	cv.WorkspaceWidth, cv.WorkspaceHeight = 0, 0
	cv.Tags = map[string]any{}
	current := -1
	attrs := canvasAttrs(cv)
	// The current layer is applied once the layers exist.
	attrs[len(attrs)-1] = svg.Int(svg.VO("current-layer"), -1, &current)
	if err := read(root, attrs); err != nil {
		return err
	}

	for _, g := range root.Children {
		if !g.Is("g") || g.Get(typeAttr) != "" {
			c.log().Debug("non-layer element skipped", slog.String("element", g.Name.Local), slog.String("id", g.ID()))
			continue
		}
		l := scene.NewLayer("")
		if err := read(g, layerAttrs(l)); err != nil {
			return err
		}
		for _, n := range g.Children {
			o, err := c.FromSvg(ctx, n)
			if err != nil {
				return fmt.Errorf("layer %s: %w", l.ID, err)
			}
			if o == nil {
				continue
			}
			if err := l.Objects.Add(o); err != nil {
				return fmt.Errorf("layer %s: %w", l.ID, err)
			}
		}
		if err := cv.Layers.Add(l); err != nil {
			return err
		}
	}
	if current >= 0 && current < cv.Layers.Len() {
		cv.CurrentLayerIndex = current
	}
	return nil
}
