// Package catalog indexes loaded tilesets into a SQLite file so tools can
// query animations and wang tiles without parsing every .tsx again.
package catalog

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"tilekit/internal/anim"
	"tilekit/internal/tileset"
)

// DB wraps a SQLite connection holding the catalog.
type DB struct {
	conn *sqlx.DB
}

// TilesetRow summarizes one indexed tileset.
type TilesetRow struct {
	Name       string `db:"name"`
	Path       string `db:"path"`
	TileWidth  int    `db:"tile_width"`
	TileHeight int    `db:"tile_height"`
	TileCount  int    `db:"tile_count"`
	Columns    int    `db:"columns"`
	Image      string `db:"image"`
	Animations int    `db:"animations"`
	WangSets   int    `db:"wangsets"`
	WangTiles  int    `db:"wangtiles"`
	IndexedAt  int64  `db:"indexed_at"` // unix seconds
}

// AnimationRow is one animated tile.
type AnimationRow struct {
	Tileset  string         `db:"tileset"`
	TileID   tileset.TileID `db:"tile_id"`
	Frames   int            `db:"frames"`
	CycleMs  uint64         `db:"cycle_ms"`
	Sequence string         `db:"sequence_json"`
}

// WangTileRow is one wang tile with its weight.
type WangTileRow struct {
	Tileset     string         `db:"tileset"`
	WangSet     string         `db:"wangset"`
	TileID      tileset.TileID `db:"tile_id"`
	WangID      string         `db:"wangid"`
	Probability float64        `db:"probability"`
}

// frameJSON is the stored form of one frame.
type frameJSON struct {
	Tile     uint32 `json:"tile"`
	Duration uint32 `json:"ms"`
}

// Animation decodes the stored frame sequence.
func (r AnimationRow) Animation() (tileset.Animation, error) {
	var frames []frameJSON
	if err := json.Unmarshal([]byte(r.Sequence), &frames); err != nil {
		return tileset.Animation{}, fmt.Errorf("decode frames of tile %d: %w", r.TileID, err)
	}
	a := tileset.Animation{Tile: r.TileID, Frames: make([]tileset.Frame, len(frames))}
	for i, f := range frames {
		a.Frames[i] = tileset.Frame{TileID: tileset.TileID(f.Tile), Duration: f.Duration}
	}
	return a, nil
}

// encodeFrames is the inverse of AnimationRow.Animation.
func encodeFrames(a tileset.Animation) (string, error) {
	frames := make([]frameJSON, len(a.Frames))
	for i, f := range a.Frames {
		frames[i] = frameJSON{Tile: uint32(f.TileID), Duration: f.Duration}
	}
	seq, err := json.Marshal(frames)
	if err != nil {
		return "", fmt.Errorf("encode frames of tile %d: %w", a.Tile, err)
	}
	return string(seq), nil
}

// Open opens or creates a catalog database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tilesets (
		name TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		tile_width INTEGER NOT NULL,
		tile_height INTEGER NOT NULL,
		tile_count INTEGER NOT NULL,
		columns INTEGER NOT NULL,
		image TEXT NOT NULL,
		animations INTEGER NOT NULL,
		wangsets INTEGER NOT NULL,
		wangtiles INTEGER NOT NULL,
		indexed_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS animations (
		tileset TEXT NOT NULL,
		tile_id INTEGER NOT NULL,
		frames INTEGER NOT NULL,
		cycle_ms INTEGER NOT NULL,
		sequence_json TEXT NOT NULL,
		PRIMARY KEY (tileset, tile_id)
	);

	CREATE TABLE IF NOT EXISTS wangtiles (
		tileset TEXT NOT NULL,
		wangset TEXT NOT NULL,
		tile_id INTEGER NOT NULL,
		wangid TEXT NOT NULL,
		probability REAL NOT NULL,
		seq INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_wangtiles_lookup ON wangtiles(tileset, wangset, wangid);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Index writes ts to the catalog, replacing any earlier entry of the same
// name. Legacy terrains are indexed as the converted "Terrains" wang set.
func (db *DB) Index(ts *tileset.Tileset) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"tilesets", "animations", "wangtiles"} {
		col := "tileset"
		if table == "tilesets" {
			col = "name"
		}
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE "+col+" = ?", ts.Name); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	animated := ts.Animated()
	animStmt, err := tx.Preparex(`INSERT INTO animations
		(tileset, tile_id, frames, cycle_ms, sequence_json)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer animStmt.Close()

	for _, a := range animated {
		seq, err := encodeFrames(*a)
		if err != nil {
			return err
		}
		if _, err := animStmt.Exec(ts.Name, a.Tile, len(a.Frames), anim.CycleLength(*a), seq); err != nil {
			return fmt.Errorf("insert animation %d: %w", a.Tile, err)
		}
	}

	wangStmt, err := tx.Preparex(`INSERT INTO wangtiles
		(tileset, wangset, tile_id, wangid, probability, seq)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer wangStmt.Close()

	sets := ts.TerrainSets()
	wangTiles := 0
	for _, ws := range sets {
		for i, wt := range ws.Tiles {
			if _, err := wangStmt.Exec(ts.Name, ws.Name, wt.TileID, wt.WangID.String(), ts.Tile(wt.TileID).Weight(), i); err != nil {
				return fmt.Errorf("insert wang tile %d of %q: %w", wt.TileID, ws.Name, err)
			}
			wangTiles++
		}
	}

	image := ""
	if ts.Image != nil {
		image = ts.Image.Source
	}
	if _, err := tx.Exec(`INSERT INTO tilesets
		(name, path, tile_width, tile_height, tile_count, columns, image, animations, wangsets, wangtiles, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.Name, ts.Path, ts.TileWidth, ts.TileHeight, ts.TileCount, ts.Columns, image,
		len(animated), len(sets), wangTiles, time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("insert tileset: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Printf("Indexed %s: %d animations, %d wang tiles", ts.Name, len(animated), wangTiles)
	return nil
}

// Tilesets returns every indexed tileset ordered by name.
func (db *DB) Tilesets() ([]TilesetRow, error) {
	var rows []TilesetRow
	err := db.conn.Select(&rows, "SELECT * FROM tilesets ORDER BY name")
	return rows, err
}

// Animations returns the animated tiles of one tileset in id order.
func (db *DB) Animations(tilesetName string) ([]AnimationRow, error) {
	var rows []AnimationRow
	err := db.conn.Select(&rows,
		"SELECT tileset, tile_id, frames, cycle_ms, sequence_json FROM animations WHERE tileset = ? ORDER BY tile_id",
		tilesetName,
	)
	return rows, err
}

// WangTiles returns the tiles of a wang set matching id, in declaration
// order.
func (db *DB) WangTiles(tilesetName, wangSet string, id tileset.WangID) ([]WangTileRow, error) {
	var rows []WangTileRow
	err := db.conn.Select(&rows,
		`SELECT tileset, wangset, tile_id, wangid, probability FROM wangtiles
		WHERE tileset = ? AND wangset = ? AND wangid = ? ORDER BY seq`,
		tilesetName, wangSet, id.String(),
	)
	return rows, err
}
