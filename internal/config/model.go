package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ItsNotGoodName/x-immersive/internal/raster"
	"github.com/ItsNotGoodName/x-immersive/internal/roster"
	"github.com/ItsNotGoodName/x-immersive/mosaic"
)

var ErrInvalid = errors.New("invalid config")

const (
	RoleHost   = "host"
	RoleViewer = "viewer"
)

var defaultConfig = Config{
	Viewport: mosaic.Viewport{
		Width:      1280,
		Height:     720,
		PixelRatio: 1,
	},
	Background:     "#2D8CFF",
	Accent:         "#2D8CFF",
	Border:         "",
	BorderWidth:    0,
	Logo:           "",
	LogoScale:      raster.DefaultLogoScale,
	ResizeDebounce: "250ms",
	Role:           RoleHost,
	LocalUser: roster.Participant{
		ScreenName: "Host",
		Role:       roster.RoleHost,
	},
	Topics: []string{},
}

type Config struct {
	Viewport       mosaic.Viewport    `json:"viewport" yaml:"viewport"`
	Background     string             `json:"background" yaml:"background"`
	Accent         string             `json:"accent" yaml:"accent"`
	Border         string             `json:"border" yaml:"border"`
	BorderWidth    float64            `json:"border_width" yaml:"border_width"`
	Logo           string             `json:"logo" yaml:"logo"`             // path to a png, jpeg or webp file
	LogoScale      float64            `json:"logo_scale" yaml:"logo_scale"` // fraction of the badge height
	ResizeDebounce string             `json:"resize_debounce" yaml:"resize_debounce"`
	Role           string             `json:"role" yaml:"role"` // [host, viewer]
	LocalUser      roster.Participant `json:"local_user" yaml:"local_user"`
	Topics         []string           `json:"topics" yaml:"topics"`
}

func Default() Config {
	cfg := defaultConfig
	cfg.Topics = []string{}
	return cfg
}

// Style converts the color settings.
func (c Config) Style() (raster.Style, error) {
	var style raster.Style

	background, err := raster.ParseHex(c.Background)
	if err != nil {
		return style, fmt.Errorf("%w: background: %w", ErrInvalid, err)
	}
	accent, err := raster.ParseHex(c.Accent)
	if err != nil {
		return style, fmt.Errorf("%w: accent: %w", ErrInvalid, err)
	}
	style.Background = background
	style.Accent = accent

	if c.Border != "" {
		border, err := raster.ParseHex(c.Border)
		if err != nil {
			return style, fmt.Errorf("%w: border: %w", ErrInvalid, err)
		}
		style.Border = border
		style.BorderWidth = c.BorderWidth
	}

	style.LogoScale = c.LogoScale
	if style.LogoScale <= 0 {
		style.LogoScale = raster.DefaultLogoScale
	}

	return style, nil
}

func (c Config) Debounce() (time.Duration, error) {
	if c.ResizeDebounce == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.ResizeDebounce)
	if err != nil {
		return 0, fmt.Errorf("%w: resize_debounce: %w", ErrInvalid, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: resize_debounce: negative duration", ErrInvalid)
	}
	return d, nil
}

// Validate checks every setting that can fail at startup.
func (c Config) Validate() error {
	var errs []error

	if err := c.Viewport.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: viewport: %w", ErrInvalid, err))
	}
	if _, err := c.Style(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Debounce(); err != nil {
		errs = append(errs, err)
	}
	if c.Role != RoleHost && c.Role != RoleViewer {
		errs = append(errs, fmt.Errorf("%w: role %q", ErrInvalid, c.Role))
	}

	return errors.Join(errs...)
}
