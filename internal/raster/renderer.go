package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/ItsNotGoodName/x-immersive/mosaic"
)

var (
	ErrAssetLoad   = errors.New("asset load failed")
	ErrSurfaceRead = errors.New("surface read failed")
)

const DefaultLogoScale = 0.5

// LogoLoader returns the badge logo. A nil image means no logo.
type LogoLoader interface {
	Load(ctx context.Context) (image.Image, error)
}

type Style struct {
	Background  color.Color
	Accent      color.Color
	Border      color.Color
	BorderWidth float64
	LogoScale   float64
}

type Renderer struct {
	logo LogoLoader
}

func NewRenderer(logo LogoLoader) *Renderer {
	return &Renderer{logo: logo}
}

// RenderQuadrant draws the decorative layer of a quadrant: the background, a
// transparent rounded cut-out where the host places video and the badge.
func (r *Renderer) RenderQuadrant(ctx context.Context, q mosaic.Quadrant, style Style) (Bitmap, error) {
	s := NewSurface(q.Width, q.Height)
	s.Fill(style.Background)

	tile := q.Tile
	if tile.Width > 1 && tile.Height > 1 {
		s.Punch(RoundRect(float64(tile.X), float64(tile.Y), float64(tile.Width-1), float64(tile.Height-1), float64(q.Radius)))
	}

	if q.Badge != nil {
		if err := r.drawBadge(ctx, s, *q.Badge, style); err != nil {
			return Bitmap{}, err
		}
	}

	if err := ctx.Err(); err != nil {
		return Bitmap{}, err
	}

	return s.ReadPixels()
}

func (r *Renderer) drawBadge(ctx context.Context, s *Surface, b mosaic.Badge, style Style) error {
	if b.Empty() {
		return nil
	}

	x, y, w, h, rad := float64(b.X), float64(b.Y), float64(b.Width), float64(b.Height), float64(b.Radius)
	s.FillPath(RoundRect(x, y, w, h, rad), style.Accent)
	if style.Border != nil {
		s.StrokeRoundRect(x, y, w, h, rad, style.BorderWidth, style.Border)
	}

	if r.logo == nil {
		return nil
	}

	logo, err := r.logo.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAssetLoad, err)
	}
	if logo == nil {
		return nil
	}

	lw, lh := LogoSize(logo.Bounds(), b.Height, style.LogoScale)
	s.DrawImage(logo, b.X, b.Y, lw, lh)

	return nil
}

// LogoSize scales the logo to scale times the badge height keeping its aspect
// ratio.
func LogoSize(bounds image.Rectangle, badgeHeight int, scale float64) (int, int) {
	if scale <= 0 {
		scale = DefaultLogoScale
	}
	if bounds.Dy() == 0 {
		return 0, 0
	}

	h := int(math.Floor(float64(badgeHeight) * scale))
	w := int(math.Floor(float64(bounds.Dx()) * float64(h) / float64(bounds.Dy())))
	return w, h
}
