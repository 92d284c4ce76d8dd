package app

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/ItsNotGoodName/x-immersive/internal/compositor"
	"github.com/ItsNotGoodName/x-immersive/internal/config"
	"github.com/ItsNotGoodName/x-immersive/internal/debounce"
	"github.com/ItsNotGoodName/x-immersive/internal/host"
	"github.com/ItsNotGoodName/x-immersive/internal/message"
	"github.com/ItsNotGoodName/x-immersive/internal/raster"
	"github.com/ItsNotGoodName/x-immersive/internal/relay"
	"github.com/ItsNotGoodName/x-immersive/internal/roster"
	"github.com/ItsNotGoodName/x-immersive/mosaic"
	"github.com/k0kubun/pp"
)

// postTimeout bounds how long one outgoing message may wait on a slow reader.
const postTimeout = 5 * time.Second

type Options struct {
	ClientID string
	Role     string
	Local    roster.Participant
	Viewport mosaic.Viewport
	Style    raster.Style
	Topics   []string
	Debounce time.Duration
}

// Controller owns the roster, the UI state and the viewport. Everything is
// mutated on the Serve goroutine, other goroutines go through Send.
type Controller struct {
	host       host.Host
	compositor *compositor.Compositor
	relay      *relay.Hub
	opts       Options
	log        *slog.Logger

	msgC        chan Msg
	outC        chan relay.Envelope
	relayC      <-chan relay.Envelope
	unsubscribe func()

	// Owned by Serve.
	tracker    *roster.Tracker
	state      State
	style      raster.Style
	viewport   *Signal[mosaic.Viewport]
	background *Signal[color.NRGBA]
	debouncer  *debounce.Debouncer
	redraw     bool
	wg         sync.WaitGroup
}

func New(h host.Host, c *compositor.Compositor, hub *relay.Hub, opts Options) *Controller {
	if opts.Role == "" {
		opts.Role = config.RoleHost
	}

	ctrl := &Controller{
		host:       h,
		compositor: c,
		relay:      hub,
		opts:       opts,
		log:        slog.With("package", "app", "client", opts.ClientID),
		msgC:       make(chan Msg),
		outC:       make(chan relay.Envelope, 64),
		tracker:    roster.NewTracker(),
		style:      opts.Style,
		viewport:   NewSignal(opts.Viewport),
		background: NewSignal(nrgba(opts.Style.Background)),
		state: State{
			ClientID: opts.ClientID,
			Role:     opts.Role,
			Topics:   slices.Clone(opts.Topics),
			Color:    raster.Hex(nrgba(opts.Style.Background)),
			Viewport: opts.Viewport,
		},
	}
	// Subscribed before Serve so nothing posted in between is lost, and kept
	// across restarts.
	ctrl.relayC, ctrl.unsubscribe = hub.Subscribe(opts.ClientID)
	if ctrl.state.Topics == nil {
		ctrl.state.Topics = []string{}
	}

	ctrl.viewport.AddEffect(func() {
		ctrl.state.Viewport = ctrl.viewport.V
		if r, ok := h.(interface{ Resize(mosaic.Viewport) }); ok {
			r.Resize(ctrl.viewport.V)
		}
		if ctrl.debouncer != nil {
			ctrl.debouncer.Trigger()
		}
	})
	ctrl.background.AddEffect(func() {
		ctrl.style.Background = ctrl.background.V
		ctrl.redraw = true
	})

	return ctrl
}

func (c *Controller) String() string {
	return "app.Controller"
}

// Send queues msg for the Serve goroutine.
func (c *Controller) Send(ctx context.Context, msg Msg) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case c.msgC <- msg:
		return nil
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot(ctx context.Context) (State, error) {
	reply := make(chan State, 1)
	if err := c.Send(ctx, snapshot{reply: reply}); err != nil {
		return State{}, err
	}

	select {
	case <-ctx.Done():
		return State{}, ctx.Err()
	case state := <-reply:
		return state, nil
	}
}

// Close drops the relay subscription.
func (c *Controller) Close() {
	c.unsubscribe()
}

func (c *Controller) Serve(ctx context.Context) error {
	c.debouncer = debounce.New(c.opts.Debounce, func() {
		if err := c.Send(ctx, Redraw{}); err != nil {
			c.log.Debug("Dropped redraw", "error", err)
		}
	})
	defer func() {
		c.debouncer.Stop()
		c.debouncer = nil
	}()

	defer c.wg.Wait()
	defer c.compositor.Cancel()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.deliver(ctx)
	}()

	c.log.Info("Controller started", "role", c.opts.Role, "active", host.Active(c.host))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-c.msgC:
			c.update(ctx, msg)
		case env := <-c.relayC:
			c.update(ctx, Relay{Envelope: env})
		}
	}
}

func (c *Controller) update(ctx context.Context, msg Msg) {
	switch m := msg.(type) {
	case ParticipantChange:
		c.log.Debug("Participant change", "events", len(m.Events))
		c.apply(ctx, c.tracker.ApplyChange(m.Events))
		c.publishRoster()
	case Seed:
		c.tracker.Seed(c.opts.Local, m.Participants)
		c.drawAll(ctx)
		c.publishRoster()
	case Resize:
		if err := m.Viewport.Validate(); err != nil {
			c.log.Warn("Ignored resize", "error", err)
			return
		}
		c.viewport.SetValue(m.Viewport)
	case Redraw:
		// A pending resize redraw would draw the same frame.
		c.debouncer.Cancel()
		c.drawAll(ctx)
	case Relay:
		if err := c.receive(m.Envelope.Message); err != nil {
			c.log.Warn("Ignored message", "from", m.Envelope.From, "error", err)
		}
	case Local:
		if err := c.receive(m.Message); err != nil {
			c.log.Warn("Ignored message", "error", err)
			return
		}
		c.post(m.Message)
	case snapshot:
		m.reply <- c.snapshot()
		return
	default:
		c.log.Error("Unknown controller message", "type", fmt.Sprintf("%T", msg))
		return
	}

	if c.redraw {
		c.redraw = false
		c.drawAll(ctx)
	}

	if c.log.Enabled(ctx, slog.LevelDebug) {
		c.log.Debug("State", "msg", fmt.Sprintf("%T", msg), "state", pp.Sprint(c.snapshot()))
	}
}

// receive applies a UI message.
func (c *Controller) receive(msg message.Message) error {
	switch m := msg.(type) {
	case message.Color:
		if err := c.setBackground(m.Color); err != nil {
			return err
		}
		c.state.Color = m.Color
	case message.CustomColor:
		if err := c.setBackground(m.Color); err != nil {
			return err
		}
		c.state.CustomColor = m.Color
	case message.Info:
		c.state.Info = m.Text
	case message.TopicAdd:
		c.state.addTopic(m.Topic)
	case message.Roster:
		if c.opts.Role == config.RoleHost {
			// The host owns the roster.
			return nil
		}
		c.state.Participants = slices.Clone(m.Participants)
	case nil:
		return fmt.Errorf("%w: nil message", message.ErrInvalidPayload)
	default:
		return fmt.Errorf("%w: %T", message.ErrUnknownType, msg)
	}
	return nil
}

func (c *Controller) setBackground(hex string) error {
	background, err := raster.ParseHex(hex)
	if err != nil {
		return err
	}
	c.background.SetValue(background)
	return nil
}

func (c *Controller) apply(ctx context.Context, effects []roster.Effect) {
	for _, effect := range effects {
		switch e := effect.(type) {
		case roster.Draw:
			c.drawOne(ctx, e.Index)
		case roster.Clear:
			if !host.Active(c.host) {
				continue
			}
			if err := c.host.ClearParticipant(ctx, e.ParticipantID); err != nil {
				c.log.Error("Failed to clear participant", "participant", e.ParticipantID, "error", err)
			}
		}
	}
}

// publishRoster shares the roster with the other clients when this client is
// the host.
func (c *Controller) publishRoster() {
	if c.opts.Role != config.RoleHost {
		return
	}

	participants := c.tracker.Roster()
	c.state.Participants = participants
	c.post(message.Roster{Participants: participants})
}

// post queues msg for the other clients without blocking the loop.
func (c *Controller) post(msg message.Message) {
	select {
	case c.outC <- relay.Envelope{From: c.opts.ClientID, Message: msg}:
	default:
		c.log.Warn("Dropped message, relay backed up", "type", msg.Type())
	}
}

// deliver posts queued messages in order.
func (c *Controller) deliver(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-c.outC:
			postCtx, cancel := context.WithTimeout(ctx, postTimeout)
			err := c.relay.Post(postCtx, env)
			cancel()
			if err != nil && ctx.Err() == nil {
				c.log.Error("Failed to post message", "type", env.Message.Type(), "error", err)
			}
		}
	}
}

func (c *Controller) frame() compositor.Frame {
	return compositor.Frame{
		Viewport: c.viewport.V,
		Style:    c.style,
		Shown:    c.tracker.Shown(),
	}
}

func (c *Controller) drawAll(ctx context.Context) {
	if !host.Active(c.host) {
		c.log.Debug("Skipped draw, host inactive")
		return
	}

	// Stamped here so draws supersede each other in the order they were asked for.
	req := c.compositor.RequestAll()
	frame := c.frame()
	c.spawn(ctx, "drawAll", func(ctx context.Context) error {
		return req.Draw(ctx, frame)
	})
}

func (c *Controller) drawOne(ctx context.Context, index int) {
	if !host.Active(c.host) {
		c.log.Debug("Skipped draw, host inactive", "quadrant", index)
		return
	}

	req := c.compositor.RequestOne(index)
	frame := c.frame()
	c.spawn(ctx, fmt.Sprintf("drawOne(%d)", index), func(ctx context.Context) error {
		return req.Draw(ctx, frame)
	})
}

func (c *Controller) spawn(ctx context.Context, name string, fn func(ctx context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		err := fn(ctx)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			c.log.Debug("Draw superseded", "draw", name)
		default:
			c.log.Error("Failed to draw", "draw", name, "error", err)
		}
	}()
}

func nrgba(c color.Color) color.NRGBA {
	if c == nil {
		return color.NRGBA{}
	}
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

func (c *Controller) snapshot() State {
	state := c.state
	state.Active = host.Active(c.host)
	state.Roster = c.tracker.Roster()
	state.Shown = c.tracker.Shown()
	if state.Participants == nil {
		state.Participants = []roster.Participant{}
	}
	return state.clone()
}
