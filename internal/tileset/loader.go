package tileset

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lafriks/go-tiled"
)

// overlay holds the parts of a TSX document that tiled.Tileset does not
// carry exactly: tile class and probability as written, objectalignment,
// and wang sets including the pre-1.5 color lists and hex wangids.
type overlay struct {
	XMLName         xml.Name      `xml:"tileset"`
	ObjectAlignment string        `xml:"objectalignment,attr"`
	Tiles           []overlayTile `xml:"tile"`
	WangSets        []xmlWangSet  `xml:"wangsets>wangset"`
}

// overlayTile also records whether an <animation> element was present, so
// an empty one is kept and rejected by Validate.
type overlayTile struct {
	ID          uint32    `xml:"id,attr"`
	Class       string    `xml:"class,attr"`
	Probability string    `xml:"probability,attr"`
	Animation   *struct{} `xml:"animation"`
}

type xmlWangSet struct {
	Name         string         `xml:"name,attr"`
	Type         string         `xml:"type,attr"`
	Tile         int            `xml:"tile,attr"`
	Colors       []xmlWangColor `xml:"wangcolor"`
	CornerColors []xmlWangColor `xml:"wangcornercolor"`
	EdgeColors   []xmlWangColor `xml:"wangedgecolor"`
	Tiles        []xmlWangTile  `xml:"wangtile"`
}

type xmlWangColor struct {
	Name        string `xml:"name,attr"`
	Color       string `xml:"color,attr"`
	Tile        int    `xml:"tile,attr"`
	Probability string `xml:"probability,attr"`
}

type xmlWangTile struct {
	TileID uint32 `xml:"tileid,attr"`
	WangID string `xml:"wangid,attr"`
}

// Load reads and validates a .tsx file.
func Load(path string) (*Tileset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tileset: %w", err)
	}
	defer f.Close()

	ts, err := Parse(f, path)
	if err != nil {
		return nil, err
	}
	if err := ts.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", filepath.Base(path), err)
	}
	return ts, nil
}

// Parse decodes TSX from r without validating it. path is recorded on the
// result and used to resolve image sources.
func Parse(r io.Reader, path string) (*Tileset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read tileset: %w", err)
	}
	tt, err := tiled.LoadTilesetReader(filepath.Dir(path), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse tileset XML: %w", err)
	}
	var ov overlay
	if err := xml.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("parse tileset XML: %w", err)
	}

	ts := &Tileset{
		Name:            tt.Name,
		Path:            path,
		TileWidth:       tt.TileWidth,
		TileHeight:      tt.TileHeight,
		Spacing:         tt.Spacing,
		Margin:          tt.Margin,
		TileCount:       tt.TileCount,
		Columns:         tt.Columns,
		ObjectAlignment: ov.ObjectAlignment,
		Tiles:           make(map[TileID]*Tile, len(tt.Tiles)),
	}
	if ts.Name == "" {
		ts.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if tt.Image != nil {
		ts.Image = convertImage(tt.Image)
	}

	for _, tr := range tt.TerrainTypes {
		ts.Terrains = append(ts.Terrains, TerrainType{Name: tr.Name, Tile: int(tr.Tile)})
	}

	extra := make(map[uint32]overlayTile, len(ov.Tiles))
	for _, ot := range ov.Tiles {
		extra[ot.ID] = ot
	}
	for _, tile := range tt.Tiles {
		if tile == nil {
			continue
		}
		t, err := convertTile(tile, extra[uint32(tile.ID)])
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", tile.ID, err)
		}
		if _, dup := ts.Tiles[t.ID]; dup {
			return nil, fmt.Errorf("tile %d declared twice", t.ID)
		}
		ts.Tiles[t.ID] = t
	}

	for _, xws := range ov.WangSets {
		ws, err := convertWangSet(xws)
		if err != nil {
			return nil, fmt.Errorf("wangset %q: %w", xws.Name, err)
		}
		ts.WangSets = append(ts.WangSets, ws)
	}

	return ts, nil
}

// ParseDir parses every .tsx file in dir without validating, indexed by
// tileset name. Files that fail to parse are skipped and their errors
// joined, so one broken file does not hide the others.
func ParseDir(dir string) (map[string]*Tileset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read tileset directory: %w", err)
	}

	all := make(map[string]*Tileset)
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tsx") {
			continue
		}
		ts, err := parseFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			errs = append(errs, fmt.Errorf("load %s: %w", entry.Name(), err))
			continue
		}
		if _, exists := all[ts.Name]; exists {
			errs = append(errs, fmt.Errorf("duplicate tileset name %q in %s", ts.Name, entry.Name()))
			continue
		}
		all[ts.Name] = ts
	}
	return all, errors.Join(errs...)
}

// LoadDir loads every .tsx file in dir, indexed by tileset name. Every
// file that fails to parse or validate is reported.
func LoadDir(dir string) (map[string]*Tileset, error) {
	all, err := ParseDir(dir)
	errs := []error{err}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ts := all[name]
		if verr := ts.Validate(); verr != nil {
			errs = append(errs, fmt.Errorf("load %s: validate: %w", filepath.Base(ts.Path), verr))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return all, nil
}

func parseFile(path string) (*Tileset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tileset: %w", err)
	}
	defer f.Close()
	return Parse(f, path)
}

// ImagePath resolves an image source against the tileset's directory.
func (ts *Tileset) ImagePath(img *Image) string {
	if img == nil {
		return ""
	}
	if filepath.IsAbs(img.Source) {
		return img.Source
	}
	return filepath.Join(filepath.Dir(ts.Path), filepath.FromSlash(img.Source))
}

func convertImage(ti *tiled.Image) *Image {
	return &Image{Source: ti.Source, Width: ti.Width, Height: ti.Height}
}

func convertTile(tt *tiled.TilesetTile, ot overlayTile) (*Tile, error) {
	t := &Tile{
		ID:    TileID(tt.ID),
		Class: ot.Class,
	}
	if t.Class == "" {
		t.Class = tt.Type
	}

	// tiled keeps probability as float32 with no way to tell "0" from
	// absent, so it is read from the attribute as written.
	if ot.Probability != "" {
		p, err := strconv.ParseFloat(ot.Probability, 64)
		if err != nil {
			return nil, fmt.Errorf("probability %q: %w", ot.Probability, err)
		}
		if p <= 0 || p > 1 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProbability, p)
		}
		t.Probability = p
	}

	if tt.Image != nil {
		t.Image = convertImage(tt.Image)
	}

	if len(tt.Animation) > 0 || ot.Animation != nil {
		anim := &Animation{Tile: t.ID, Frames: make([]Frame, 0, len(tt.Animation))}
		for _, f := range tt.Animation {
			if f == nil {
				continue
			}
			anim.Frames = append(anim.Frames, Frame{TileID: TileID(f.TileID), Duration: uint32(f.Duration)})
		}
		t.Animation = anim
	}

	if tt.Terrain != "" {
		terrain, err := parseTerrain(tt.Terrain)
		if err != nil {
			return nil, err
		}
		t.Terrain = terrain
	}

	return t, nil
}

// parseTerrain reads the legacy "tl,tr,bl,br" attribute; empty entries are
// corners without terrain.
func parseTerrain(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("terrain %q: want 4 corners, got %d", s, len(parts))
	}
	out := make([]int, 4)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			out[i] = -1
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("terrain %q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}

func convertWangSet(xws xmlWangSet) (*WangSet, error) {
	ws := &WangSet{
		Name: xws.Name,
		Type: WangSetType(xws.Type),
		Tile: xws.Tile,
	}

	// Pre-1.5 files keep edge and corner colors in separate lists, each
	// indexed from 1. They are merged edges first, so corner slots shift by
	// the number of edge colors.
	cornerOffset := uint8(0)
	switch {
	case len(xws.Colors) > 0:
		for _, xc := range xws.Colors {
			c, err := convertWangColor(xc)
			if err != nil {
				return nil, err
			}
			ws.Colors = append(ws.Colors, c)
		}
	default:
		for _, xc := range xws.EdgeColors {
			c, err := convertWangColor(xc)
			if err != nil {
				return nil, err
			}
			ws.Colors = append(ws.Colors, c)
		}
		cornerOffset = uint8(len(xws.EdgeColors))
		for _, xc := range xws.CornerColors {
			c, err := convertWangColor(xc)
			if err != nil {
				return nil, err
			}
			ws.Colors = append(ws.Colors, c)
		}
	}

	if ws.Type == "" {
		switch {
		case len(xws.EdgeColors) == 0 && len(xws.CornerColors) > 0:
			ws.Type = WangCorner
		case len(xws.CornerColors) == 0 && len(xws.EdgeColors) > 0:
			ws.Type = WangEdge
		default:
			ws.Type = WangMixed
		}
	}

	switch ws.Type {
	case WangCorner, WangEdge, WangMixed:
	default:
		return nil, fmt.Errorf("unknown wangset type %q", ws.Type)
	}

	for _, xwt := range xws.Tiles {
		id, err := ParseWangID(xwt.WangID)
		if err != nil {
			return nil, fmt.Errorf("wangtile %d: %w", xwt.TileID, err)
		}
		if cornerOffset > 0 {
			for _, slot := range []int{SlotTopRight, SlotBottomRight, SlotBottomLeft, SlotTopLeft} {
				if id[slot] != 0 {
					id[slot] += cornerOffset
				}
			}
		}
		ws.Tiles = append(ws.Tiles, WangTile{TileID: TileID(xwt.TileID), WangID: id})
	}

	return ws, nil
}

func convertWangColor(xc xmlWangColor) (WangColor, error) {
	c := WangColor{Name: xc.Name, Color: xc.Color, Tile: xc.Tile, Probability: 1}
	if xc.Probability != "" {
		p, err := strconv.ParseFloat(xc.Probability, 64)
		if err != nil {
			return c, fmt.Errorf("wangcolor %q probability: %w", xc.Name, err)
		}
		c.Probability = p
	}
	return c, nil
}
