package catalog

import (
	"path/filepath"
	"reflect"
	"testing"

	"tilekit/internal/tileset"
)

func openTemp(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func loadFixture(t *testing.T, name string) *tileset.Tileset {
	t.Helper()
	ts, err := tileset.Load(filepath.Join("..", "tileset", "testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestIndexAndQuery(t *testing.T) {
	db, _ := openTemp(t)
	dead := loadFixture(t, "deadworld.tsx")
	over := loadFixture(t, "Overworld.tsx")

	for _, ts := range []*tileset.Tileset{over, dead} {
		if err := db.Index(ts); err != nil {
			t.Fatalf("Index(%s): %v", ts.Name, err)
		}
	}

	rows, err := db.Tilesets()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Name != "Deadworld" || rows[1].Name != "Overworld" {
		t.Fatalf("Tilesets() = %+v", rows)
	}
	if rows[0].TileCount != 1440 || rows[0].Columns != 40 || rows[0].Animations != 16 || rows[0].WangTiles != 68 {
		t.Errorf("Deadworld row = %+v", rows[0])
	}
	// Overworld's legacy terrains come through as one converted set.
	if rows[1].WangSets != 1 || rows[1].WangTiles != 59 {
		t.Errorf("Overworld row = %+v", rows[1])
	}

	anims, err := db.Animations("Deadworld")
	if err != nil {
		t.Fatal(err)
	}
	if len(anims) != 16 || anims[0].TileID != 40 {
		t.Fatalf("Animations() = %d rows, first %+v", len(anims), anims[0])
	}
	if anims[0].CycleMs != 800 || anims[0].Frames != 8 {
		t.Errorf("tile 40 = %+v, want 8 frames over 800ms", anims[0])
	}
	got, err := anims[0].Animation()
	if err != nil {
		t.Fatal(err)
	}
	if want := dead.Tile(40).Animation; !reflect.DeepEqual(&got, want) {
		t.Errorf("decoded animation = %+v, want %+v", got, *want)
	}
}

func TestWangTiles(t *testing.T) {
	db, _ := openTemp(t)
	dead := loadFixture(t, "deadworld.tsx")
	if err := db.Index(dead); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		id    tileset.WangID
		tiles []tileset.TileID
		probs []float64
	}{
		{"water", tileset.CornerWangID(4, 4, 4, 4), []tileset.TileID{40, 283}, []float64{0.2, 1}},
		{"sand", tileset.CornerWangID(3, 3, 3, 3), []tileset.TileID{161}, []float64{1}},
		{"none", tileset.CornerWangID(2, 3, 2, 3), nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := db.WangTiles("Deadworld", "Terrains", tt.id)
			if err != nil {
				t.Fatal(err)
			}
			if len(rows) != len(tt.tiles) {
				t.Fatalf("WangTiles(%v) = %+v, want tiles %v", tt.id, rows, tt.tiles)
			}
			for i, r := range rows {
				if r.TileID != tt.tiles[i] || r.Probability != tt.probs[i] || r.WangID != tt.id.String() {
					t.Errorf("row %d = %+v, want tile %d p=%v", i, r, tt.tiles[i], tt.probs[i])
				}
			}
		})
	}
}

func TestIndexReplacesAndPersists(t *testing.T) {
	db, path := openTemp(t)
	dead := loadFixture(t, "deadworld.tsx")

	for i := 0; i < 2; i++ {
		if err := db.Index(dead); err != nil {
			t.Fatal(err)
		}
	}
	anims, err := db.Animations("Deadworld")
	if err != nil {
		t.Fatal(err)
	}
	if len(anims) != 16 {
		t.Errorf("re-index left %d animations, want 16", len(anims))
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	again, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer again.Close()
	rows, err := again.Tilesets()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Name != "Deadworld" || rows[0].IndexedAt == 0 {
		t.Errorf("reopened Tilesets() = %+v", rows)
	}
	if anims, _ := again.Animations("Nowhere"); len(anims) != 0 {
		t.Errorf("Animations(Nowhere) = %v", anims)
	}
}

func TestEncodeFrames(t *testing.T) {
	tests := []struct {
		name string
		a    tileset.Animation
		want string
	}{
		{"two frames", tileset.Animation{Tile: 7, Frames: []tileset.Frame{{TileID: 7, Duration: 150}, {TileID: 8, Duration: 50}}}, `[{"tile":7,"ms":150},{"tile":8,"ms":50}]`},
		{"no frames", tileset.Animation{Tile: 7}, `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeFrames(tt.a)
			if err != nil {
				t.Fatalf("encodeFrames: %v", err)
			}
			if got != tt.want {
				t.Errorf("encodeFrames() = %s, want %s", got, tt.want)
			}
			back, err := AnimationRow{TileID: tt.a.Tile, Sequence: got}.Animation()
			if err != nil || len(back.Frames) != len(tt.a.Frames) {
				t.Errorf("Animation() = %+v, %v", back, err)
			}
		})
	}
}
