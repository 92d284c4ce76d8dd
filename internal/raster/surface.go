package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Bitmap is non-premultiplied RGBA pixel data, 4 bytes per pixel, row-major.
type Bitmap struct {
	Width  int
	Height int
	Pix    []byte
}

func (b Bitmap) Empty() bool {
	return b.Width <= 0 || b.Height <= 0 || len(b.Pix) < b.Width*b.Height*4
}

func (b Bitmap) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Surface is an offscreen drawing target.
type Surface struct {
	img *image.RGBA
}

func NewSurface(width, height int) *Surface {
	return &Surface{
		img: image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0))),
	}
}

func (s *Surface) Width() int {
	return s.img.Rect.Dx()
}

func (s *Surface) Height() int {
	return s.img.Rect.Dy()
}

func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Fill replaces every pixel with c.
func (s *Surface) Fill(c color.Color) {
	draw.Draw(s.img, s.img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
}

// FillPath composites c over the area covered by p.
func (s *Surface) FillPath(p *Path, c color.Color) {
	s.drawPath(p, image.NewUniform(c), draw.Over)
}

// Punch removes the area covered by p, leaving transparent pixels where the
// host shows video through.
func (s *Surface) Punch(p *Path) {
	if p.Empty() || s.img.Rect.Empty() {
		return
	}

	mask := image.NewAlpha(s.img.Rect)
	z := vector.NewRasterizer(s.Width(), s.Height())
	z.DrawOp = draw.Src
	p.rasterize(z)
	z.Draw(mask, mask.Rect, image.Opaque, image.Point{})

	// Premultiplied pixels scale uniformly by the uncovered fraction.
	for i, a := range mask.Pix {
		if a == 0 {
			continue
		}
		keep := 0xff - uint32(a)
		px := s.img.Pix[i*4 : i*4+4 : i*4+4]
		for j := range px {
			px[j] = uint8(uint32(px[j]) * keep / 0xff)
		}
	}
}

// StrokeRoundRect outlines a rounded rectangle with a line of the given width
// centered on its edge.
func (s *Surface) StrokeRoundRect(x, y, w, h, r, width float64, c color.Color) {
	if width <= 0 {
		return
	}
	hw := width / 2

	p := RoundRect(x-hw, y-hw, w+width, h+width, r+hw)
	if w > width && h > width {
		p.Append(roundRectReversed(x+hw, y+hw, w-width, h-width, max(r-hw, 0)))
	}
	s.FillPath(p, c)
}

// DrawImage scales img into the w x h box at (x, y).
func (s *Surface) DrawImage(img image.Image, x, y, w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	xdraw.CatmullRom.Scale(s.img, image.Rect(x, y, x+w, y+h), img, img.Bounds(), xdraw.Over, nil)
}

// ReadPixels copies the surface out as a Bitmap.
func (s *Surface) ReadPixels() (Bitmap, error) {
	b := s.img.Rect
	if b.Empty() {
		return Bitmap{}, fmt.Errorf("%w: empty %dx%d surface", ErrSurfaceRead, b.Dx(), b.Dy())
	}

	out := image.NewNRGBA(b)
	draw.Draw(out, b, s.img, b.Min, draw.Src)
	if len(out.Pix) == 0 {
		return Bitmap{}, fmt.Errorf("%w: no pixel data", ErrSurfaceRead)
	}

	return Bitmap{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    out.Pix,
	}, nil
}

func (s *Surface) drawPath(p *Path, src image.Image, op draw.Op) {
	if p.Empty() || s.img.Rect.Empty() {
		return
	}
	z := vector.NewRasterizer(s.Width(), s.Height())
	z.DrawOp = op
	p.rasterize(z)
	z.Draw(s.img, s.img.Rect, src, image.Point{})
}
