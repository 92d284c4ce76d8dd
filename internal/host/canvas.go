package host

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"slices"
	"sync"

	"github.com/ItsNotGoodName/x-immersive/mosaic"
)

var ParticipantColor = color.NRGBA{R: 0x23, G: 0x23, B: 0x23, A: 0xFF}

const (
	CommandClearScreen      = "clearScreen"
	CommandDrawImage        = "drawImage"
	CommandDrawParticipant  = "drawParticipant"
	CommandClearParticipant = "clearParticipant"
)

// Command is an entry in the Canvas history.
type Command struct {
	Name          string
	X             int
	Y             int
	ZIndex        int
	ParticipantID string
}

type imageKey struct {
	x, y, z int
}

type canvasImage struct {
	ImagePlacement
	seq int
}

type canvasParticipant struct {
	ParticipantPlacement
	seq int
}

// Canvas is an in-memory host. It keeps the current placements and composites
// them into a preview frame, painting participants as solid boxes.
type Canvas struct {
	mu           sync.Mutex
	viewport     mosaic.Viewport
	immersive    bool
	inClient     bool
	inMeeting    bool
	seq          int
	images       map[imageKey]canvasImage
	participants map[string]canvasParticipant
	history      []Command
}

var _ Host = (*Canvas)(nil)

func NewCanvas(viewport mosaic.Viewport) *Canvas {
	return &Canvas{
		viewport:     viewport,
		immersive:    true,
		inClient:     true,
		inMeeting:    true,
		images:       make(map[imageKey]canvasImage),
		participants: make(map[string]canvasParticipant),
	}
}

func (c *Canvas) String() string {
	return "host.Canvas"
}

func (c *Canvas) SetMode(immersive, inClient, inMeeting bool) {
	c.mu.Lock()
	c.immersive, c.inClient, c.inMeeting = immersive, inClient, inMeeting
	c.mu.Unlock()
}

func (c *Canvas) IsImmersive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.immersive
}

func (c *Canvas) IsInClient() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inClient
}

func (c *Canvas) IsInMeeting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inMeeting
}

func (c *Canvas) Resize(viewport mosaic.Viewport) {
	c.mu.Lock()
	c.viewport = viewport
	c.mu.Unlock()
}

func (c *Canvas) ClearScreen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.images)
	clear(c.participants)
	c.history = append(c.history, Command{Name: CommandClearScreen})
	return nil
}

func (c *Canvas) DrawImage(ctx context.Context, p ImagePlacement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Image.Empty() {
		return fmt.Errorf("%w: %s: empty image", ErrCommand, CommandDrawImage)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.images[imageKey{p.X, p.Y, p.ZIndex}] = canvasImage{ImagePlacement: p, seq: c.seq}
	c.history = append(c.history, Command{Name: CommandDrawImage, X: p.X, Y: p.Y, ZIndex: p.ZIndex})
	return nil
}

func (c *Canvas) DrawParticipant(ctx context.Context, p ParticipantPlacement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ParticipantID == "" {
		return fmt.Errorf("%w: %s: missing participant id", ErrCommand, CommandDrawParticipant)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: %s: invalid size %dx%d", ErrCommand, CommandDrawParticipant, p.Width, p.Height)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.participants[p.ParticipantID] = canvasParticipant{ParticipantPlacement: p, seq: c.seq}
	c.history = append(c.history, Command{
		Name:          CommandDrawParticipant,
		X:             p.X,
		Y:             p.Y,
		ZIndex:        p.ZIndex,
		ParticipantID: p.ParticipantID,
	})
	return nil
}

func (c *Canvas) ClearParticipant(ctx context.Context, participantID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.participants, participantID)
	c.history = append(c.history, Command{Name: CommandClearParticipant, ParticipantID: participantID})
	return nil
}

// Images returns the current image placements ordered by stacking order.
func (c *Canvas) Images() []ImagePlacement {
	c.mu.Lock()
	defer c.mu.Unlock()

	images := make([]canvasImage, 0, len(c.images))
	for _, img := range c.images {
		images = append(images, img)
	}
	slices.SortFunc(images, func(a, b canvasImage) int {
		if a.ZIndex != b.ZIndex {
			return a.ZIndex - b.ZIndex
		}
		return a.seq - b.seq
	})

	out := make([]ImagePlacement, len(images))
	for i := range images {
		out[i] = images[i].ImagePlacement
	}
	return out
}

// Participants returns the current participant placements ordered by
// stacking order.
func (c *Canvas) Participants() []ParticipantPlacement {
	c.mu.Lock()
	defer c.mu.Unlock()

	parts := make([]canvasParticipant, 0, len(c.participants))
	for _, p := range c.participants {
		parts = append(parts, p)
	}
	slices.SortFunc(parts, func(a, b canvasParticipant) int {
		if a.ZIndex != b.ZIndex {
			return a.ZIndex - b.ZIndex
		}
		return a.seq - b.seq
	})

	out := make([]ParticipantPlacement, len(parts))
	for i := range parts {
		out[i] = parts[i].ParticipantPlacement
	}
	return out
}

func (c *Canvas) History() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.history)
}

// Frame composites the placements into a device pixel image.
func (c *Canvas) Frame() *image.NRGBA {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, h := c.viewport.Device()
	frame := image.NewNRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	draw.Draw(frame, frame.Rect, image.Black, image.Point{}, draw.Src)

	type layer struct {
		z, seq int
		draw   func()
	}
	var layers []layer

	ratio := c.viewport.PixelRatio
	device := func(v int) int { return int(math.Floor(float64(v) * ratio)) }

	for _, img := range c.images {
		layers = append(layers, layer{img.ZIndex, img.seq, func() {
			src := img.Image.Image()
			at := image.Pt(device(img.X), device(img.Y))
			draw.Draw(frame, src.Rect.Add(at), src, image.Point{}, draw.Over)
		}})
	}
	for _, p := range c.participants {
		layers = append(layers, layer{p.ZIndex, p.seq, func() {
			r := image.Rect(device(p.X), device(p.Y), device(p.X+p.Width), device(p.Y+p.Height))
			draw.Draw(frame, r, image.NewUniform(ParticipantColor), image.Point{}, draw.Over)
		}})
	}

	slices.SortFunc(layers, func(a, b layer) int {
		if a.z != b.z {
			return a.z - b.z
		}
		return a.seq - b.seq
	})
	for _, l := range layers {
		l.draw()
	}

	return frame
}
