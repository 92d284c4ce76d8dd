// Package host is the contract with the platform that paints the immersive
// canvas. Coordinates crossing this boundary are CSS pixels.
package host

import (
	"context"
	"errors"

	"github.com/ItsNotGoodName/x-immersive/internal/raster"
)

var ErrCommand = errors.New("host command failed")

type ImagePlacement struct {
	Image  raster.Bitmap
	X      int
	Y      int
	ZIndex int
}

type ParticipantPlacement struct {
	ParticipantID string `json:"participantId"`
	X             int    `json:"x"`
	Y             int    `json:"y"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	ZIndex        int    `json:"zIndex"`
}

type Renderer interface {
	ClearScreen(ctx context.Context) error
	DrawImage(ctx context.Context, p ImagePlacement) error
	DrawParticipant(ctx context.Context, p ParticipantPlacement) error
	ClearParticipant(ctx context.Context, participantID string) error
}

type Mode interface {
	IsImmersive() bool
	IsInClient() bool
	IsInMeeting() bool
}

type Host interface {
	Renderer
	Mode
}

// Active reports whether compositing should run at all.
func Active(m Mode) bool {
	return m.IsInClient() && m.IsInMeeting() && m.IsImmersive()
}
