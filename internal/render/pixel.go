package render

import (
	"image"
	"image/color"
)

// Pixel represents a single pixel with RGB color and transparency.
type Pixel struct {
	R, G, B     uint8
	Transparent bool
}

// TransparentPixel returns a transparent pixel.
func TransparentPixel() Pixel {
	return Pixel{Transparent: true}
}

// P is a shorthand to create an opaque pixel.
func P(r, g, b uint8) Pixel {
	return Pixel{R: r, G: g, B: b}
}

// PixelFromColor converts any color; alpha below half or pure magenta
// (#FF00FF) is transparent.
func PixelFromColor(c color.Color) Pixel {
	r, g, b, a := c.RGBA()
	r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)
	if a < 0x8000 || (r8 == 0xFF && g8 == 0x00 && b8 == 0xFF) {
		return TransparentPixel()
	}
	return P(r8, g8, b8)
}

// PixelSprite is a W x H grid of pixels, row-major.
type PixelSprite struct {
	W, H int
	Pix  []Pixel
}

// NewPixelSprite creates a fully transparent sprite.
func NewPixelSprite(w, h int) PixelSprite {
	s := PixelSprite{W: w, H: h, Pix: make([]Pixel, w*h)}
	for i := range s.Pix {
		s.Pix[i] = TransparentPixel()
	}
	return s
}

// FillPixelSprite creates a sprite filled with a single color.
func FillPixelSprite(w, h int, p Pixel) PixelSprite {
	s := PixelSprite{W: w, H: h, Pix: make([]Pixel, w*h)}
	for i := range s.Pix {
		s.Pix[i] = p
	}
	return s
}

// At returns the pixel at (x, y); out of range is transparent.
func (s PixelSprite) At(x, y int) Pixel {
	if x < 0 || x >= s.W || y < 0 || y >= s.H {
		return TransparentPixel()
	}
	return s.Pix[y*s.W+x]
}

// Set writes the pixel at (x, y) if in range.
func (s PixelSprite) Set(x, y int, p Pixel) {
	if x < 0 || x >= s.W || y < 0 || y >= s.H {
		return
	}
	s.Pix[y*s.W+x] = p
}

// SpriteFromImage copies the pixels of r within img.
func SpriteFromImage(img image.Image, r image.Rectangle) PixelSprite {
	r = r.Intersect(img.Bounds())
	s := NewPixelSprite(r.Dx(), r.Dy())
	for y := 0; y < s.H; y++ {
		for x := 0; x < s.W; x++ {
			s.Pix[y*s.W+x] = PixelFromColor(img.At(r.Min.X+x, r.Min.Y+y))
		}
	}
	return s
}

// Downscale shrinks the sprite by an integer factor, averaging each block.
// A block with more transparent than opaque pixels becomes transparent.
func (s PixelSprite) Downscale(factor int) PixelSprite {
	if factor <= 1 {
		return s
	}
	w := (s.W + factor - 1) / factor
	h := (s.H + factor - 1) / factor
	out := NewPixelSprite(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b, opaque, total int
			for dy := 0; dy < factor; dy++ {
				for dx := 0; dx < factor; dx++ {
					sx, sy := x*factor+dx, y*factor+dy
					if sx >= s.W || sy >= s.H {
						continue
					}
					total++
					p := s.Pix[sy*s.W+sx]
					if p.Transparent {
						continue
					}
					opaque++
					r += int(p.R)
					g += int(p.G)
					b += int(p.B)
				}
			}
			if opaque == 0 || opaque*2 < total {
				continue
			}
			out.Pix[y*w+x] = P(uint8(r/opaque), uint8(g/opaque), uint8(b/opaque))
		}
	}
	return out
}

// CellSize returns the sprite's footprint in terminal cells: one column per
// pixel, two pixel rows per cell row.
func (s PixelSprite) CellSize() (cols, rows int) {
	return s.W, (s.H + 1) / 2
}
