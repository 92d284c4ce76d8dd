package mosaic

type Layout2x2 struct{}

func (l Layout2x2) Count() int {
	return 4
}

// Update splits the canvas at its center. Odd sizes give the spare pixel to
// the right column and bottom row so the cells never leave a seam.
func (l Layout2x2) Update(cells []Cell, w, h int) {
	hw, hh := w/2, h/2
	rw, rh := w-hw, h-hh
	cells[0].X, cells[0].Y, cells[0].Width, cells[0].Height = 0, 0, hw, hh
	cells[1].X, cells[1].Y, cells[1].Width, cells[1].Height = hw, 0, rw, hh
	cells[2].X, cells[2].Y, cells[2].Width, cells[2].Height = 0, hh, hw, rh
	cells[3].X, cells[3].Y, cells[3].Width, cells[3].Height = hw, hh, rw, rh
}
