package tileset

import (
	"fmt"
	"strconv"
	"strings"
)

// WangSetType is the kind of constraints stored in a wang set.
type WangSetType string

const (
	WangCorner WangSetType = "corner"
	WangEdge   WangSetType = "edge"
	WangMixed  WangSetType = "mixed"
)

// WangID slot order, clockwise from the top edge.
const (
	SlotTop = iota
	SlotTopRight
	SlotRight
	SlotBottomRight
	SlotBottom
	SlotBottomLeft
	SlotLeft
	SlotTopLeft
	WangSlots
)

// WangID is the 8-slot terrain color vector of a wang tile. Color 0 means
// no color; colors are 1-based indices into WangSet.Colors.
type WangID [WangSlots]uint8

// CornerWangID builds the id of a corner tile. Edge slots stay 0.
func CornerWangID(topLeft, topRight, bottomRight, bottomLeft uint8) WangID {
	var id WangID
	id[SlotTopRight] = topRight
	id[SlotBottomRight] = bottomRight
	id[SlotBottomLeft] = bottomLeft
	id[SlotTopLeft] = topLeft
	return id
}

// Corners returns the corner colors in TL, TR, BR, BL order.
func (id WangID) Corners() [4]uint8 {
	return [4]uint8{id[SlotTopLeft], id[SlotTopRight], id[SlotBottomRight], id[SlotBottomLeft]}
}

// HasEdges reports whether any edge slot carries a color.
func (id WangID) HasEdges() bool {
	return id[SlotTop] != 0 || id[SlotRight] != 0 || id[SlotBottom] != 0 || id[SlotLeft] != 0
}

// String formats the id the way Tiled 1.5+ writes it.
func (id WangID) String() string {
	var sb strings.Builder
	for i, c := range id {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(c)))
	}
	return sb.String()
}

// ParseWangID parses both the comma form ("0,1,0,1,0,1,0,1") and the
// pre-1.5 hex form ("0x10101010", one nibble per slot, top edge lowest).
func ParseWangID(s string) (WangID, error) {
	var id WangID
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return id, fmt.Errorf("%w: %q: %v", ErrMalformedWangID, s, err)
		}
		for i := 0; i < WangSlots; i++ {
			id[i] = uint8(v>>(4*i)) & 0xF
		}
		return id, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != WangSlots {
		return id, fmt.Errorf("%w: %q has %d slots, want %d", ErrMalformedWangID, s, len(parts), WangSlots)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return id, fmt.Errorf("%w: %q slot %d: %v", ErrMalformedWangID, s, i, err)
		}
		id[i] = uint8(v)
	}
	return id, nil
}

// WangColor is one terrain color of a wang set.
type WangColor struct {
	Name        string
	Color       string // "#rrggbb", empty for converted legacy terrains
	Tile        int    // representative tile, -1 = none
	Probability float64
}

// WangTile maps a tile to its terrain colors.
type WangTile struct {
	TileID TileID
	WangID WangID
}

// WangSet is an autotiling table.
type WangSet struct {
	Name   string
	Type   WangSetType
	Tile   int // representative tile, -1 = none
	Colors []WangColor
	Tiles  []WangTile
}

// Color returns the color with 1-based index c.
func (ws *WangSet) Color(c uint8) (WangColor, bool) {
	if c == 0 || int(c) > len(ws.Colors) {
		return WangColor{}, false
	}
	return ws.Colors[c-1], true
}

// ColorIndex returns the 1-based index of the named color, 0 if unknown.
func (ws *WangSet) ColorIndex(name string) uint8 {
	for i, c := range ws.Colors {
		if c.Name == name {
			return uint8(i + 1)
		}
	}
	return 0
}

// TerrainWangSet converts legacy terrain="tl,tr,bl,br" declarations into a
// corner wang set named "Terrains". Terrain index i becomes color i+1.
// Returns nil when the tileset declares no terrain types.
func (ts *Tileset) TerrainWangSet() *WangSet {
	if len(ts.Terrains) == 0 {
		return nil
	}

	ws := &WangSet{
		Name: "Terrains",
		Type: WangCorner,
		Tile: -1,
	}
	for _, t := range ts.Terrains {
		ws.Colors = append(ws.Colors, WangColor{Name: t.Name, Tile: t.Tile, Probability: 1})
	}

	for _, id := range ts.TileIDs() {
		t := ts.Tiles[id]
		if len(t.Terrain) != 4 {
			continue
		}
		c := func(i int) uint8 {
			if t.Terrain[i] < 0 {
				return 0
			}
			return uint8(t.Terrain[i] + 1)
		}
		ws.Tiles = append(ws.Tiles, WangTile{
			TileID: id,
			WangID: CornerWangID(c(0), c(1), c(3), c(2)),
		})
	}
	return ws
}

// TerrainSets returns every wang set of the tileset, with the converted
// legacy terrain set appended when the file has no "Terrains" set of its own.
func (ts *Tileset) TerrainSets() []*WangSet {
	sets := append([]*WangSet(nil), ts.WangSets...)
	if ts.WangSet("Terrains") == nil {
		if legacy := ts.TerrainWangSet(); legacy != nil {
			sets = append(sets, legacy)
		}
	}
	return sets
}

// TerrainSet returns the named set among TerrainSets, or nil.
func (ts *Tileset) TerrainSet(name string) *WangSet {
	for _, ws := range ts.TerrainSets() {
		if ws.Name == name {
			return ws
		}
	}
	return nil
}
