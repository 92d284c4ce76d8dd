package compositor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ItsNotGoodName/x-immersive/internal/host"
	"github.com/ItsNotGoodName/x-immersive/internal/raster"
	"github.com/ItsNotGoodName/x-immersive/internal/roster"
	"github.com/ItsNotGoodName/x-immersive/mosaic"
)

// Frame is everything a draw needs. It is copied per draw so later roster or
// resize changes never leak into an in-flight draw.
type Frame struct {
	Viewport mosaic.Viewport
	Style    raster.Style
	Shown    []roster.Participant
}

type task struct {
	seq    uint64
	cancel context.CancelFunc
}

type Compositor struct {
	host     host.Renderer
	renderer *raster.Renderer

	mu      sync.Mutex
	tasks   map[int]*task
	seq     uint64
	floor   uint64
	all     uint64
	latest  map[int]uint64
	cleared chan struct{}
}

func New(h host.Renderer, r *raster.Renderer) *Compositor {
	cleared := make(chan struct{})
	close(cleared)
	return &Compositor{
		host:     h,
		renderer: r,
		tasks:    make(map[int]*task),
		latest:   make(map[int]uint64),
		cleared:  cleared,
	}
}

// Request is a draw stamped with the order it was asked for. A request only
// ever loses to requests stamped after it, no matter when its goroutine runs.
type Request struct {
	c     *Compositor
	seq   uint64
	index int
	// after is closed once the previous full redraw cleared the screen.
	after <-chan struct{}
	// clear is closed once this full redraw cleared the screen.
	clear chan struct{}
}

// RequestAll stamps a full redraw. It supersedes every request stamped
// before it.
func (c *Compositor) RequestAll() *Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.all = c.seq
	r := &Request{c: c, seq: c.seq, after: c.cleared, clear: make(chan struct{})}
	c.cleared = r.clear
	return r
}

// RequestOne stamps a draw of quadrant index. It supersedes earlier requests
// for the same quadrant and runs after the screen clear of any earlier full
// redraw.
func (c *Compositor) RequestOne(index int) *Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.latest[index] = c.seq
	return &Request{c: c, seq: c.seq, index: index, after: c.cleared}
}

// Draw runs the request. It returns context.Canceled when a later request
// superseded it.
func (r *Request) Draw(ctx context.Context, frame Frame) error {
	if r.clear != nil {
		defer r.release()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.after:
	}

	if r.clear == nil {
		return r.c.drawQuadrant(ctx, frame, r.index, r.seq)
	}
	return r.c.drawAll(ctx, frame, r)
}

func (r *Request) release() {
	select {
	case <-r.clear:
	default:
		close(r.clear)
	}
}

// DrawAll clears the host and draws every quadrant in order. A newer DrawAll
// supersedes this one.
func (c *Compositor) DrawAll(ctx context.Context, frame Frame) error {
	return c.RequestAll().Draw(ctx, frame)
}

// DrawOne draws a single quadrant, cancelling any in-flight draw of the same
// quadrant.
func (c *Compositor) DrawOne(ctx context.Context, frame Frame, index int) error {
	return c.RequestOne(index).Draw(ctx, frame)
}

func (c *Compositor) drawAll(ctx context.Context, frame Frame, r *Request) error {
	if !c.restart(r.seq) {
		return context.Canceled
	}

	if err := c.host.ClearScreen(ctx); err != nil {
		return commandError(host.CommandClearScreen, err)
	}
	r.release()

	for i := 1; i <= mosaic.Quadrants; i++ {
		if c.superseded(r.seq) {
			return context.Canceled
		}

		err := c.drawQuadrant(ctx, frame, i, r.seq)
		if err == nil {
			continue
		}
		if ctx.Err() == nil && errors.Is(err, context.Canceled) {
			// A newer DrawOne took over this quadrant.
			slog.Debug("Quadrant superseded", "package", "compositor", "quadrant", i)
			continue
		}
		return fmt.Errorf("quadrant %d: %w", i, err)
	}

	return nil
}

func (c *Compositor) drawQuadrant(ctx context.Context, frame Frame, index int, seq uint64) error {
	q, err := mosaic.Compute(index, frame.Viewport)
	if err != nil {
		return err
	}

	ctx, done, err := c.begin(ctx, index, seq)
	if err != nil {
		return err
	}
	defer done()

	bitmap, err := c.renderer.RenderQuadrant(ctx, q, frame.Style)
	if err != nil {
		return err
	}

	v := frame.Viewport
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.host.DrawImage(ctx, host.ImagePlacement{
		Image:  bitmap,
		X:      v.CSS(q.X),
		Y:      v.CSS(q.Y),
		ZIndex: index + 1,
	}); err != nil {
		return commandError(host.CommandDrawImage, err)
	}

	p, ok := participantAt(frame.Shown, index)
	if !ok {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.host.DrawParticipant(ctx, host.ParticipantPlacement{
		ParticipantID: p.ID,
		X:             v.CSS(q.X + q.Tile.X),
		Y:             v.CSS(q.Y + q.Tile.Y),
		Width:         v.CSS(q.Tile.Width),
		Height:        v.CSS(q.Tile.Height),
		ZIndex:        index,
	}); err != nil {
		return commandError(host.CommandDrawParticipant, err)
	}

	return nil
}

// Cancel stops every in-flight draw and every request not yet running.
func (c *Compositor) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.floor = c.seq
	for index, t := range c.tasks {
		t.cancel()
		delete(c.tasks, index)
	}
}

func (c *Compositor) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

func (c *Compositor) begin(ctx context.Context, index int, seq uint64) (context.Context, func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stale(seq, index) {
		return nil, nil, context.Canceled
	}
	if prev, ok := c.tasks[index]; ok {
		if prev.seq > seq {
			return nil, nil, context.Canceled
		}
		prev.cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	t := &task{seq: seq, cancel: cancel}
	c.tasks[index] = t

	return ctx, func() {
		c.mu.Lock()
		if c.tasks[index] == t {
			delete(c.tasks, index)
		}
		c.mu.Unlock()
		cancel()
	}, nil
}

// restart cancels the in-flight draws stamped before seq. It reports false
// when seq itself is stale.
func (c *Compositor) restart(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stale(seq, 0) {
		return false
	}
	for index, t := range c.tasks {
		if t.seq < seq {
			t.cancel()
			delete(c.tasks, index)
		}
	}
	return true
}

func (c *Compositor) superseded(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale(seq, 0)
}

// stale reports whether a request stamped seq lost to a later one. Index 0
// only checks full redraws. Callers hold mu.
func (c *Compositor) stale(seq uint64, index int) bool {
	if seq <= c.floor || c.all > seq {
		return true
	}
	return index > 0 && c.latest[index] > seq
}

// participantAt returns the participant bound to quadrant index. The badge
// quadrant never carries video.
func participantAt(shown []roster.Participant, index int) (roster.Participant, bool) {
	if index > roster.MaxShown || index > len(shown) {
		return roster.Participant{}, false
	}
	p := shown[index-1]
	return p, p.ID != ""
}

func commandError(command string, err error) error {
	if errors.Is(err, host.ErrCommand) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", host.ErrCommand, command, err)
}
