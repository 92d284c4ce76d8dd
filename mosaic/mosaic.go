package mosaic

type (
	// Cell is a device pixel region of the canvas.
	Cell struct {
		Index  int
		X      int
		Y      int
		Width  int
		Height int
	}

	Mosaic struct {
		cells  []Cell
		layout Layout
	}

	Layout interface {
		Count() int
		Update(cells []Cell, w, h int)
	}
)

func NewMosaic(layout Layout) Mosaic {
	m := Mosaic{}
	m.SetLayout(layout)
	return m
}

func (m *Mosaic) SetLayout(layout Layout) {
	m.layout = layout
	m.cells = make([]Cell, layout.Count())
	for i := range m.cells {
		m.cells[i].Index = i + 1
	}
}

// Cells returns the cells for a w x h device pixel canvas. The returned slice
// is reused between calls.
func (m *Mosaic) Cells(w, h int) []Cell {
	m.layout.Update(m.cells, w, h)
	return m.cells
}

func (c Cell) area() int {
	return c.Width * c.Height
}

func (c Cell) contains(x, y int) bool {
	return x >= c.X && x < c.X+c.Width && y >= c.Y && y < c.Y+c.Height
}
