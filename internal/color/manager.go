/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package color

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	applog "gocanvas/internal/log"
)

// Profile is an ICC profile blob tagged with the space it describes.
// ID is derived from the content so equal blobs share an id.
type Profile struct {
	ID    string
	Space Space
	Data  []byte
}

// ProfileFileName returns the archive/disk file name used for the default
// profile of a space.
func ProfileFileName(s Space) string {
	switch s {
	case CMYK:
		return "CmykColorProfile.icm"
	case Grayscale:
		return "GrayscaleColorProfile.icm"
	default:
		return "RgbColorProfile.icm"
	}
}

var iccSignature = [...]string{RGB: "RGB ", CMYK: "CMYK", Grayscale: "GRAY"}

// ParseProfile checks the ICC header and derives the profile space from the
// data color space field.
func ParseProfile(data []byte) (*Profile, error) {
	if len(data) < 128 {
		return nil, errors.New("icc profile: header too short")
	}
	if string(data[36:40]) != "acsp" {
		return nil, errors.New("icc profile: missing acsp signature")
	}
	sig := string(data[16:20])
	for s, want := range iccSignature {
		if sig == want {
			return &Profile{ID: profileID(data), Space: Space(s), Data: data}, nil
		}
	}
	return nil, fmt.Errorf("icc profile: unsupported color space %q", sig)
}

func profileID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// builtinProfile returns a header-only ICC blob for s. It is enough to carry
// the space through archives when no profile directory is configured.
func builtinProfile(s Space) *Profile {
	data := make([]byte, 128)
	binary.BigEndian.PutUint32(data[0:4], 128)
	copy(data[4:8], "gcv ")
	binary.BigEndian.PutUint32(data[8:12], 0x04300000)
	copy(data[12:16], "mntr")
	copy(data[16:20], iccSignature[s])
	copy(data[20:24], "XYZ ")
	copy(data[36:40], "acsp")
	return &Profile{ID: profileID(data), Space: s, Data: data}
}

// Manager resolves color profiles. Defaults are process-wide per space and
// initialised at most once, guarded by a per-space lock.
type Manager struct {
	dir string
	log *slog.Logger

	initMu   [3]sync.Mutex
	defaults [3]atomic.Pointer[Profile]

	mu         sync.RWMutex
	registered map[string]*Profile
}

// NewManager creates a manager that loads default profiles from dir. An empty
// dir selects the built-in profiles.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir, log: applog.WithComponent("color"), registered: make(map[string]*Profile)}
}

// Init resolves all default profiles eagerly. Call it at startup so the
// initialisation does not happen inside a request.
func (m *Manager) Init() error {
	for _, s := range []Space{RGB, CMYK, Grayscale} {
		if _, err := m.defaultProfile(s); err != nil {
			return err
		}
	}
	return nil
}

// Default returns the default profile for s. The first caller loads it; others
// wait on the lock and reuse the cached value. Load failures fall back to the
// built-in profile.
func (m *Manager) Default(s Space) *Profile {
	p, err := m.defaultProfile(s)
	if err != nil {
		m.log.Warn("default profile load failed, using built-in", slog.String("space", s.String()), slog.Any("err", err))
		if m.defaults[s].CompareAndSwap(nil, builtinProfile(s)) {
			m.Register(m.defaults[s].Load())
		}
		return m.defaults[s].Load()
	}
	return p
}

func (m *Manager) defaultProfile(s Space) (*Profile, error) {
	if int(s) >= len(m.defaults) {
		return nil, fmt.Errorf("unknown color space %d", s)
	}
	if p := m.defaults[s].Load(); p != nil {
		return p, nil
	}
	m.initMu[s].Lock()
	defer m.initMu[s].Unlock()
	if p := m.defaults[s].Load(); p != nil {
		return p, nil
	}
	p, err := m.loadDefault(s)
	if err != nil {
		return nil, err
	}
	m.defaults[s].Store(p)
	m.Register(p)
	return p, nil
}

func (m *Manager) loadDefault(s Space) (*Profile, error) {
	if m.dir == "" {
		return builtinProfile(s), nil
	}
	path := filepath.Join(m.dir, ProfileFileName(s))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	p, err := ParseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if p.Space != s {
		return nil, fmt.Errorf("profile %s describes %s, want %s", path, p.Space, s)
	}
	return p, nil
}

// Register makes p resolvable by id.
func (m *Manager) Register(p *Profile) {
	if p == nil {
		return
	}
	m.mu.Lock()
	m.registered[p.ID] = p
	m.mu.Unlock()
}

// Lookup returns the profile with the given id. Empty ids, misses and space
// mismatches fall back to the default for s; misses are logged.
func (m *Manager) Lookup(id string, s Space) *Profile {
	if id == "" {
		return m.Default(s)
	}
	m.mu.RLock()
	p, ok := m.registered[id]
	m.mu.RUnlock()
	if !ok || p.Space != s {
		m.log.Warn("color profile not found, using default", slog.String("id", id), slog.String("space", s.String()))
		return m.Default(s)
	}
	return p
}

// Same reports whether two profiles carry identical data.
func (m *Manager) Same(a, b *Profile) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && bytes.Equal(a.Data, b.Data)
}

// Converter returns a converter from src to dst.
func (m *Manager) Converter(src, dst *Profile) (Converter, error) {
	if src == nil || dst == nil {
		return nil, errors.New("converter: nil profile")
	}
	return formulaConverter{dst: dst.Space, identity: m.Same(src, dst)}, nil
}

// Close drops registered profiles. Defaults stay cached.
func (m *Manager) Close() {
	m.mu.Lock()
	m.registered = make(map[string]*Profile)
	m.mu.Unlock()
	for i := range m.defaults {
		if p := m.defaults[i].Load(); p != nil {
			m.Register(p)
		}
	}
}

// Converter maps colors into a destination space.
type Converter interface {
	Convert(Color) Color
}

type formulaConverter struct {
	dst      Space
	identity bool
}

func (f formulaConverter) Convert(c Color) Color {
	if f.identity && c.Space == f.dst {
		return c
	}
	p := c.Preview
	switch f.dst {
	case RGB:
		return NewRGB(p.R, p.G, p.B, c.A)
	case Grayscale:
		if c.Space == Grayscale {
			return c
		}
		l := clamp8(0.299*float64(p.R) + 0.587*float64(p.G) + 0.114*float64(p.B))
		return NewGray(l, c.A)
	case CMYK:
		if c.Space == CMYK {
			return c
		}
		r, g, b := float64(p.R)/255, float64(p.G)/255, float64(p.B)/255
		k := 1 - max(r, g, b)
		if k >= 1 {
			return NewCMYK(0, 0, 0, 255, c.A)
		}
		ch := func(v float64) uint8 { return clamp8(255 * (1 - v - k) / (1 - k)) }
		return NewCMYK(ch(r), ch(g), ch(b), clamp8(255*k), c.A)
	}
	return c
}
