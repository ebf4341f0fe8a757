package engy

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"path"
)

// Region is a named sub-rectangle of an atlas page.
type Region struct {
	Name  string
	Image string // page image path, relative to the images directory
	Rect  image.Rectangle
}

// Atlas is a sprite sheet: one page image plus named regions on it.
type Atlas struct {
	Resource *Resource
	regions  map[string]Region
}

// Region returns the region called name.
func (a *Atlas) Region(name string) (Region, bool) {
	r, ok := a.regions[name]
	return r, ok
}

// Len returns the number of regions.
func (a *Atlas) Len() int {
	return len(a.regions)
}

// LoadAtlas parses a TexturePacker JSON sheet (hash or array format) at p,
// relative to the images directory, and loads its page image. The page path
// in meta.image is resolved next to the JSON file. Atlases are cached by path
// like images.
func (m *ResourceManager) LoadAtlas(p string) (*Atlas, error) {
	if a, ok := m.atlases[p]; ok {
		return a, nil
	}
	full := path.Join(m.imagesDir, p)
	data, err := fs.ReadFile(m.fsys, full)
	if err != nil {
		return nil, &ResourceError{Kind: "atlas", Path: full, Err: err}
	}
	sheet, err := parseAtlas(data)
	if err != nil {
		return nil, &ResourceError{Kind: "atlas", Path: full, Err: err}
	}

	page := path.Join(path.Dir(p), sheet.Meta.Image)
	res, err := m.Load(page)
	if err != nil {
		return nil, err
	}

	a := &Atlas{Resource: res, regions: make(map[string]Region, len(sheet.frames))}
	bounds := res.Bounds()
	for name, f := range sheet.frames {
		if f.Rotated {
			return nil, &ResourceError{Kind: "atlas", Path: full, Err: fmt.Errorf("region %q: rotated regions are not supported", name)}
		}
		rect := image.Rect(f.Frame.X, f.Frame.Y, f.Frame.X+f.Frame.W, f.Frame.Y+f.Frame.H)
		if !rect.In(bounds) {
			return nil, &ResourceError{Kind: "atlas", Path: full, Err: fmt.Errorf("region %q %v outside page %v", name, rect, bounds)}
		}
		a.regions[name] = Region{Name: name, Image: page, Rect: rect}
	}
	m.atlases[p] = a
	return a, nil
}

// --- JSON structure types ---

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type jsonFrame struct {
	Filename string   `json:"filename"`
	Frame    jsonRect `json:"frame"`
	Rotated  bool     `json:"rotated"`
}

type jsonSheet struct {
	Frames json.RawMessage `json:"frames"`
	Meta   struct {
		Image string `json:"image"`
	} `json:"meta"`

	frames map[string]jsonFrame
}

// parseAtlas accepts both the hash format ({"frames": {"name": {...}}}) and
// the array format ({"frames": [{"filename": "name", ...}]}).
func parseAtlas(data []byte) (*jsonSheet, error) {
	var sheet jsonSheet
	if err := json.Unmarshal(data, &sheet); err != nil {
		return nil, fmt.Errorf("parse atlas: %w", err)
	}
	if len(sheet.Frames) == 0 {
		return nil, errors.New("parse atlas: no \"frames\" key")
	}
	if sheet.Meta.Image == "" {
		return nil, errors.New("parse atlas: no meta.image")
	}

	if sheet.Frames[0] == '[' {
		var list []jsonFrame
		if err := json.Unmarshal(sheet.Frames, &list); err != nil {
			return nil, fmt.Errorf("parse atlas frames: %w", err)
		}
		sheet.frames = make(map[string]jsonFrame, len(list))
		for _, f := range list {
			sheet.frames[f.Filename] = f
		}
		return &sheet, nil
	}
	if err := json.Unmarshal(sheet.Frames, &sheet.frames); err != nil {
		return nil, fmt.Errorf("parse atlas frames: %w", err)
	}
	return &sheet, nil
}
