package mosaic

import (
	"errors"
	"fmt"
	"math"
)

const (
	Quadrants = 4

	// BadgeQuadrant always carries the logo badge.
	BadgeQuadrant = 4

	TilePercent = 90
	TileAspectW = 16
	TileAspectH = 9
	Padding     = 10
)

var (
	ErrInvalidQuadrant = errors.New("invalid quadrant")
	ErrInvalidViewport = errors.New("invalid viewport")
)

// Viewport is the canvas size in CSS pixels.
type Viewport struct {
	Width      int     `json:"width" yaml:"width"`
	Height     int     `json:"height" yaml:"height"`
	PixelRatio float64 `json:"pixelRatio" yaml:"pixel_ratio"`
}

func (v Viewport) Validate() error {
	if v.Width <= 0 || v.Height <= 0 || v.PixelRatio <= 0 || math.IsNaN(v.PixelRatio) || math.IsInf(v.PixelRatio, 0) {
		return fmt.Errorf("%w: %dx%d@%g", ErrInvalidViewport, v.Width, v.Height, v.PixelRatio)
	}
	return nil
}

// Device returns the canvas size in device pixels.
func (v Viewport) Device() (int, int) {
	return int(math.Floor(float64(v.Width) * v.PixelRatio)), int(math.Floor(float64(v.Height) * v.PixelRatio))
}

// CSS converts a device pixel value to CSS pixels.
func (v Viewport) CSS(px int) int {
	return int(math.Floor(float64(px) / v.PixelRatio))
}

type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

type Badge struct {
	Rect
	Radius int
}

// Quadrant is the geometry of one cell. Tile and Badge are relative to the
// cell origin, everything is in device pixels.
type Quadrant struct {
	Cell
	Tile    Rect
	Radius  int
	Padding int
	Badge   *Badge
}

var layout2x2 = Layout2x2{}

// Cells returns the four quadrant cells of the viewport.
func Cells(v Viewport) ([]Cell, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	w, h := v.Device()
	m := NewMosaic(layout2x2)
	cells := m.Cells(w, h)
	return cells, nil
}

// Compute returns the geometry of quadrant index (1 to 4).
func Compute(index int, v Viewport) (Quadrant, error) {
	if index < 1 || index > Quadrants {
		return Quadrant{}, fmt.Errorf("%w: %d", ErrInvalidQuadrant, index)
	}

	cells, err := Cells(v)
	if err != nil {
		return Quadrant{}, err
	}
	cell := cells[index-1]

	w := cell.Width * TilePercent / 100
	h := w * TileAspectH / TileAspectW
	pad := int(math.Floor(Padding * v.PixelRatio))
	radius := cell.Width / 6

	// Tiles hug the center divider.
	farX := max(cell.Width-(w+pad), 0)
	farY := max(cell.Height-(h+pad), 0)

	var x, y int
	switch index {
	case 1:
		x, y = farX, farY
	case 2:
		x, y = pad, farY
	case 3:
		x, y = farX, pad
	case 4:
		x, y = pad, pad
	}

	q := Quadrant{
		Cell:    cell,
		Tile:    Rect{X: x, Y: y, Width: w, Height: h},
		Radius:  radius,
		Padding: pad,
	}

	if index == BadgeQuadrant {
		bw, bh, br := w/2, w/5, radius/2
		q.Badge = &Badge{
			Rect: Rect{
				X:      cell.Width - bw,
				Y:      max(h+br-bh, 0),
				Width:  bw,
				Height: bh,
			},
			Radius: br,
		}
	}

	return q, nil
}
