package mosaic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute1280x720(t *testing.T) {
	q, err := Compute(1, Viewport{Width: 1280, Height: 720, PixelRatio: 1})
	require.NoError(t, err)

	assert.Equal(t, Cell{Index: 1, X: 0, Y: 0, Width: 640, Height: 360}, q.Cell)
	assert.Equal(t, 576, q.Tile.Width)
	assert.Equal(t, 324, q.Tile.Height)
	assert.Equal(t, 106, q.Radius)
	assert.Equal(t, 10, q.Padding)
	assert.Nil(t, q.Badge)

	// Right and bottom padding face the divider.
	assert.Equal(t, 640-576-10, q.Tile.X)
	assert.Equal(t, 360-324-10, q.Tile.Y)
}

func TestComputeTileOffsets(t *testing.T) {
	v := Viewport{Width: 1280, Height: 720, PixelRatio: 1}

	tests := []struct {
		index int
		cell  Cell
		x, y  int
	}{
		{1, Cell{Index: 1, X: 0, Y: 0, Width: 640, Height: 360}, 54, 26},
		{2, Cell{Index: 2, X: 640, Y: 0, Width: 640, Height: 360}, 10, 26},
		{3, Cell{Index: 3, X: 0, Y: 360, Width: 640, Height: 360}, 54, 10},
		{4, Cell{Index: 4, X: 640, Y: 360, Width: 640, Height: 360}, 10, 10},
	}
	for _, tt := range tests {
		q, err := Compute(tt.index, v)
		require.NoError(t, err)
		assert.Equal(t, tt.cell, q.Cell, "quadrant %d", tt.index)
		assert.Equal(t, tt.x, q.Tile.X, "quadrant %d", tt.index)
		assert.Equal(t, tt.y, q.Tile.Y, "quadrant %d", tt.index)
	}
}

func TestComputeBadge(t *testing.T) {
	q, err := Compute(4, Viewport{Width: 1280, Height: 720, PixelRatio: 1})
	require.NoError(t, err)
	require.NotNil(t, q.Badge)

	assert.Equal(t, 288, q.Badge.Width)
	assert.Equal(t, 115, q.Badge.Height)
	assert.Equal(t, 53, q.Badge.Radius)
	assert.Equal(t, 640-288, q.Badge.X)
	assert.Equal(t, 324+53-115, q.Badge.Y)
}

func TestComputePixelRatio(t *testing.T) {
	q, err := Compute(2, Viewport{Width: 1280, Height: 720, PixelRatio: 2})
	require.NoError(t, err)

	assert.Equal(t, Cell{Index: 2, X: 1280, Y: 0, Width: 1280, Height: 720}, q.Cell)
	assert.Equal(t, 1152, q.Tile.Width)
	assert.Equal(t, 648, q.Tile.Height)
	assert.Equal(t, 20, q.Padding)
	assert.Equal(t, 20, q.Tile.X)
}

func TestComputeInvalid(t *testing.T) {
	v := Viewport{Width: 100, Height: 100, PixelRatio: 1}

	_, err := Compute(0, v)
	assert.ErrorIs(t, err, ErrInvalidQuadrant)

	_, err = Compute(5, v)
	assert.ErrorIs(t, err, ErrInvalidQuadrant)

	_, err = Compute(1, Viewport{Width: 0, Height: 100, PixelRatio: 1})
	assert.ErrorIs(t, err, ErrInvalidViewport)

	_, err = Compute(1, Viewport{Width: 100, Height: 100, PixelRatio: 0})
	assert.ErrorIs(t, err, ErrInvalidViewport)
}

func TestCellsTileCanvas(t *testing.T) {
	ratios := []float64{1, 1.25, 1.5, 2, 3}
	sizes := [][2]int{{1280, 720}, {1, 1}, {3, 7}, {1921, 1081}, {333, 999}, {800, 600}}

	for _, r := range ratios {
		for _, size := range sizes {
			v := Viewport{Width: size[0], Height: size[1], PixelRatio: r}
			w, h := v.Device()

			cells, err := Cells(v)
			require.NoError(t, err)
			require.Len(t, cells, Quadrants)

			area := 0
			for _, c := range cells {
				area += c.area()
			}
			assert.Equal(t, w*h, area, "%+v", v)

			// Every pixel belongs to exactly one cell.
			for _, p := range [][2]int{{0, 0}, {w - 1, 0}, {0, h - 1}, {w - 1, h - 1}, {w / 2, h / 2}} {
				n := 0
				for _, c := range cells {
					if c.contains(p[0], p[1]) {
						n++
					}
				}
				assert.Equal(t, 1, n, "%+v pixel %v", v, p)
			}
		}
	}
}

func TestCellsEvenSizesAreEqual(t *testing.T) {
	cells, err := Cells(Viewport{Width: 1000, Height: 500, PixelRatio: 1})
	require.NoError(t, err)

	for _, c := range cells {
		assert.Equal(t, 500, c.Width)
		assert.Equal(t, 250, c.Height)
	}
}

func TestCSS(t *testing.T) {
	v := Viewport{Width: 100, Height: 100, PixelRatio: 1.5}
	assert.Equal(t, 66, v.CSS(100))
	assert.Equal(t, 0, v.CSS(1))
}
