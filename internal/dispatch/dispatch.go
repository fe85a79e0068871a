// Package dispatch routes chat events to running conversations. Events of one
// chat are handled strictly in arrival order by a single worker; different
// chats proceed concurrently.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"tasteit/internal/bot"
	"tasteit/internal/model"
	"tasteit/internal/observability"
)

// Transport delivers effects to the chat platform. Apply returns the ref of a
// sent message, or an empty ref for effects that create none.
type Transport interface {
	Apply(ctx context.Context, chatID int64, e model.Effect) (model.MessageRef, error)
}

// ErrClosed is returned by Dispatch after Shutdown.
var ErrClosed = errors.New("dispatcher closed")

// DefaultFlowTimeout is the inactivity window of a flow.
const DefaultFlowTimeout = 300 * time.Second

var entryCommands = map[string]model.FlowKind{
	"search":    model.FlowSearch,
	"cerca":     model.FlowSearch,
	"favorites": model.FlowFavorites,
	"preferiti": model.FlowFavorites,
	"settings":  model.FlowSettings,
	"lang":      model.FlowLanguage,
}

var cancelCommands = map[string]bool{
	"cancel":  true,
	"annulla": true,
}

// Options configures a Dispatcher.
type Options struct {
	Engine      *bot.Engine
	Transport   Transport
	FlowTimeout time.Duration
	Logger      *slog.Logger
}

// Dispatcher owns the running conversations of every chat.
type Dispatcher struct {
	engine    *bot.Engine
	transport Transport
	timeout   time.Duration
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	chats  map[int64]*chat
	closed bool
}

type chat struct {
	id int64

	mu      sync.Mutex
	queue   []model.Update
	running bool
	// flows is ordered by last activity, most recent last.
	flows []*flow
}

type flow struct {
	conv       *bot.Conversation
	generation uint64
	timer      *time.Timer
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		engine:    opts.Engine,
		transport: opts.Transport,
		timeout:   opts.FlowTimeout,
		logger:    opts.Logger,
		ctx:       ctx,
		cancel:    cancel,
		chats:     make(map[int64]*chat),
	}
	if d.timeout <= 0 {
		d.timeout = DefaultFlowTimeout
	}
	if d.logger == nil {
		d.logger = observability.Logger()
	}
	return d
}

// Dispatch queues u on its chat. It never blocks on the handling itself.
func (d *Dispatcher) Dispatch(u model.Update) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	c, ok := d.chats[u.ChatID]
	if !ok {
		c = &chat{id: u.ChatID}
		d.chats[u.ChatID] = c
	}
	c.mu.Lock()
	c.queue = append(c.queue, u)
	start := !c.running
	c.running = true
	c.mu.Unlock()
	if start {
		d.wg.Add(1)
	}
	d.mu.Unlock()

	if start {
		go d.work(c)
	}
	return nil
}

// Active returns the kinds of the flows running in a chat, most recent last.
func (d *Dispatcher) Active(chatID int64) []model.FlowKind {
	d.mu.Lock()
	c, ok := d.chats[chatID]
	d.mu.Unlock()
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]model.FlowKind, 0, len(c.flows))
	for _, f := range c.flows {
		kinds = append(kinds, f.conv.Kind())
	}
	return kinds
}

// Shutdown stops accepting events, disarms every timer and waits for queued
// events to drain or ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	for _, c := range d.chats {
		c.mu.Lock()
		for _, f := range c.flows {
			if f.timer != nil {
				f.timer.Stop()
			}
		}
		c.mu.Unlock()
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	defer d.cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work(c *chat) {
	defer d.wg.Done()
	for {
		u, ok := d.next(c)
		if !ok {
			return
		}
		d.handle(c, u)
	}
}

// next pops the oldest event of c. When the queue is empty the worker stops,
// and a chat without flows is forgotten.
func (d *Dispatcher) next(c *chat) (model.Update, bool) {
	c.mu.Lock()
	if len(c.queue) > 0 {
		u := c.pop()
		c.mu.Unlock()
		return u, true
	}
	c.mu.Unlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) > 0 {
		return c.pop(), true
	}
	c.running = false
	if len(c.flows) == 0 && d.chats[c.id] == c {
		delete(d.chats, c.id)
	}
	return model.Update{}, false
}

func (d *Dispatcher) handle(c *chat, u model.Update) {
	ctx := observability.WithUpdate(d.ctx, u.ID)
	log := observability.LoggerFromContext(ctx).With("chat_id", c.id, "event", u.Kind.String())

	switch u.Kind {
	case model.EventTimerExpired:
		f := c.find(u.Flow)
		if f == nil || f.generation != u.Generation {
			log.Debug("stale timer ignored", "flow", u.Flow, "generation", u.Generation)
			return
		}
		log.Info("flow timed out", "flow", u.Flow)
		d.apply(ctx, c, f, d.engine.Cancel(f.conv, true))

	case model.EventCallback:
		kind, ok := bot.CallbackFlow(u.Callback)
		if !ok {
			log.Debug("malformed callback", "data", u.Callback)
			return
		}
		f := c.find(kind)
		if f == nil {
			log.Debug("callback for inactive flow", "flow", kind)
			return
		}
		d.run(ctx, c, f, u)

	case model.EventText, model.EventLocation:
		if name, ok := u.Command(); ok {
			d.command(ctx, c, u, name)
			return
		}
		if f := c.accepting(u); f != nil {
			d.run(ctx, c, f, u)
			return
		}
		log.Debug("no flow waiting for input")
	}
}

func (d *Dispatcher) command(ctx context.Context, c *chat, u model.Update, name string) {
	switch {
	case name == "start":
		d.apply(ctx, c, nil, d.engine.Welcome(ctx, u))
	case name == "help":
		d.apply(ctx, c, nil, d.engine.Help(ctx, u))
	case cancelCommands[name]:
		if f := c.latest(); f != nil {
			d.apply(ctx, c, f, d.engine.Cancel(f.conv, false))
		}
	default:
		kind, ok := entryCommands[name]
		if !ok {
			if f := c.latest(); f != nil {
				d.apply(ctx, c, nil, d.engine.UnknownOption(f.conv))
			}
			return
		}
		if f := c.find(kind); f != nil {
			d.apply(ctx, c, nil, d.engine.AlreadyActive(f.conv))
			return
		}
		d.start(ctx, c, kind, u)
	}
}

func (d *Dispatcher) start(ctx context.Context, c *chat, kind model.FlowKind, u model.Update) {
	var (
		conv    *bot.Conversation
		effects []model.Effect
	)
	func() {
		defer func() {
			if v := recover(); v != nil {
				conv = nil
				effects = d.engine.RecoverStart(ctx, kind, u, v)
			}
		}()
		conv, effects = d.engine.Start(ctx, kind, u)
	}()
	if conv == nil {
		d.apply(ctx, c, nil, effects)
		return
	}
	f := &flow{conv: conv}
	if conv.State() != bot.Ended {
		c.push(f)
		d.arm(c, f)
	}
	d.apply(ctx, c, f, effects)
}

// run feeds u to f, turning a panic into an aborted flow.
func (d *Dispatcher) run(ctx context.Context, c *chat, f *flow, u model.Update) {
	var effects []model.Effect
	func() {
		defer func() {
			if v := recover(); v != nil {
				effects = d.engine.Recover(ctx, f.conv, v)
			}
		}()
		effects = f.conv.Handle(ctx, u)
	}()
	if f.conv.State() != bot.Ended {
		c.push(f)
		d.arm(c, f)
	}
	d.apply(ctx, c, f, effects)
}

// apply delivers effects in order. Refs of tracked sends are bound to f.
func (d *Dispatcher) apply(ctx context.Context, c *chat, f *flow, effects []model.Effect) {
	log := observability.LoggerFromContext(ctx)
	for _, e := range effects {
		switch e.Kind {
		case model.EffectNextState:
			if f != nil {
				log.Debug("state changed", "chat_id", c.id, "flow", f.conv.Kind(), "state", e.State)
			}
			continue
		case model.EffectEndFlow:
			if f != nil {
				c.remove(f)
			}
			continue
		}
		ref, err := d.transport.Apply(ctx, c.id, e)
		if err != nil {
			log.Warn("deliver effect", "chat_id", c.id, "effect", e.Kind.String(), "error", err)
			continue
		}
		if e.Track && ref != "" && f != nil {
			f.conv.Track(ref)
		}
	}
}

// arm restarts the inactivity timer of f under a new generation. No timer is
// armed once the dispatcher is closed.
func (d *Dispatcher) arm(c *chat, f *flow) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	if f.timer != nil {
		f.timer.Stop()
	}
	f.generation++
	if d.closed {
		return
	}
	gen, kind, chatID := f.generation, f.conv.Kind(), c.id
	f.timer = time.AfterFunc(d.timeout, func() {
		_ = d.Dispatch(model.Update{ChatID: chatID, Kind: model.EventTimerExpired, Flow: kind, Generation: gen})
	})
}

// pop removes the oldest queued event. c.mu must be held.
func (c *chat) pop() model.Update {
	u := c.queue[0]
	c.queue[0] = model.Update{}
	c.queue = c.queue[1:]
	return u
}

func (c *chat) find(kind model.FlowKind) *flow {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.flows {
		if f.conv.Kind() == kind {
			return f
		}
	}
	return nil
}

func (c *chat) latest() *flow {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.flows) == 0 {
		return nil
	}
	return c.flows[len(c.flows)-1]
}

// accepting returns the most recently active flow waiting for u.
func (c *chat) accepting(u model.Update) *flow {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.flows) - 1; i >= 0; i-- {
		if c.flows[i].conv.Accepts(u) {
			return c.flows[i]
		}
	}
	return nil
}

// push moves f to the most recent position, adding it if absent.
func (c *chat) push(f *flow) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flows = without(c.flows, f)
	c.flows = append(c.flows, f)
}

func (c *chat) remove(f *flow) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
	}
	c.flows = without(c.flows, f)
}

func without(flows []*flow, f *flow) []*flow {
	out := flows[:0]
	for _, g := range flows {
		if g != f {
			out = append(out, g)
		}
	}
	return out
}
