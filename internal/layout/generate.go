package layout

import (
	"fmt"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"tilekit/internal/tileset"
)

// GenConfig controls layout generation.
type GenConfig struct {
	Name     string
	Tileset  string
	WangSet  string
	Fallback tileset.TileID

	// Terrains are the bands from low to high noise values.
	Terrains []string

	Width, Height int     // in tiles
	Seed          int64   // 0 = random
	Frequency     float64 // 0 = 0.08
	Octaves       int     // 0 = 3
}

// ConfigFor returns a generator config that bands every color of ws in
// declaration order.
func ConfigFor(tilesetName string, ws *tileset.WangSet, w, h int, seed int64) GenConfig {
	cfg := GenConfig{
		Name:    fmt.Sprintf("%s-%s-%d", tilesetName, ws.Name, seed),
		Tileset: tilesetName,
		WangSet: ws.Name,
		Width:   w,
		Height:  h,
		Seed:    seed,
	}
	for _, c := range ws.Colors {
		cfg.Terrains = append(cfg.Terrains, c.Name)
	}
	if ws.Tile >= 0 {
		cfg.Fallback = tileset.TileID(ws.Tile)
	}
	return cfg
}

// Generate creates a layout by thresholding fractal simplex noise at every
// vertex into terrain bands.
func Generate(cfg GenConfig) (*Layout, error) {
	if cfg.Width < 1 || cfg.Height < 1 {
		return nil, fmt.Errorf("invalid layout size %dx%d", cfg.Width, cfg.Height)
	}
	if len(cfg.Terrains) == 0 {
		return nil, fmt.Errorf("layout %q: no terrains to generate from", cfg.Name)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	freq := cfg.Frequency
	if freq == 0 {
		freq = 0.08
	}
	octaves := cfg.Octaves
	if octaves == 0 {
		octaves = 3
	}

	noise := opensimplex.NewNormalized(seed)
	bands := len(cfg.Terrains)

	vertices := make([][]string, cfg.Height+1)
	for y := range vertices {
		vertices[y] = make([]string, cfg.Width+1)
		for x := range vertices[y] {
			v := octaveNoise(noise, float64(x), float64(y), octaves, freq, 0.5)
			// Octave sums bunch around the middle; stretch so outer bands show up.
			v = clamp01((v-0.5)*1.8 + 0.5)
			band := int(v * float64(bands))
			if band >= bands {
				band = bands - 1
			}
			vertices[y][x] = cfg.Terrains[band]
		}
	}

	return &Layout{
		Name:     cfg.Name,
		Tileset:  cfg.Tileset,
		WangSet:  cfg.WangSet,
		Fallback: cfg.Fallback,
		Seed:     seed,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Vertices: vertices,
	}, nil
}

// octaveNoise layers several frequencies of noise, normalized to [0, 1).
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
