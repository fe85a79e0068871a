// Package bot implements the restaurant-finder conversations as state
// machines that turn chat events into outbound effects.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"tasteit/internal/cursor"
	"tasteit/internal/i18n"
	"tasteit/internal/model"
	"tasteit/internal/observability"
)

// Options configures an Engine.
type Options struct {
	Places   PlacesProvider
	Repo     Repository
	Reporter Reporter
	Logger   *slog.Logger

	DefaultLanguage    string
	DefaultWalkRadius  int
	DefaultDriveRadius int
	PollDuration       time.Duration
	TravelConcurrency  int
}

// Engine builds conversations. It holds no per-chat state and is safe for
// concurrent use.
type Engine struct {
	places   PlacesProvider
	repo     Repository
	reporter Reporter
	logger   *slog.Logger

	defaultLang  string
	walkRadius   int
	driveRadius  int
	pollDuration time.Duration
	travelLimit  int
	now          func() time.Time
}

// New creates an Engine.
func New(opts Options) *Engine {
	e := &Engine{
		places:       opts.Places,
		repo:         opts.Repo,
		reporter:     opts.Reporter,
		logger:       opts.Logger,
		defaultLang:  opts.DefaultLanguage,
		walkRadius:   opts.DefaultWalkRadius,
		driveRadius:  opts.DefaultDriveRadius,
		pollDuration: opts.PollDuration,
		travelLimit:  opts.TravelConcurrency,
		now:          time.Now,
	}
	if e.reporter == nil {
		e.reporter = ReporterFunc(func(context.Context, Incident) {})
	}
	if e.logger == nil {
		e.logger = observability.Logger()
	}
	if !i18n.IsSupported(e.defaultLang) {
		e.defaultLang = i18n.Fallback
	}
	if e.walkRadius <= 0 {
		e.walkRadius = 1000
	}
	if e.driveRadius <= 0 {
		e.driveRadius = 10000
	}
	if e.pollDuration <= 0 {
		e.pollDuration = 5 * time.Minute
	}
	if e.travelLimit <= 0 {
		e.travelLimit = 4
	}
	return e
}

// Conversation is one running flow bound to its session.
type Conversation struct {
	kind    model.FlowKind
	session *Session
	engine  *Engine
}

// Kind returns the flow kind.
func (c *Conversation) Kind() model.FlowKind { return c.kind }

// State returns the current state tag.
func (c *Conversation) State() State { return c.session.State }

// Lang returns the conversation language.
func (c *Conversation) Lang() string { return c.session.Lang }

// Session exposes the conversation state for inspection.
func (c *Conversation) Session() *Session { return c.session }

// Track binds ref as the active message. The dispatcher calls it with the ref
// of every delivered send marked Track.
func (c *Conversation) Track(ref model.MessageRef) {
	c.session.ActiveMessage = ref
}

// Accepts reports whether the conversation is waiting for this text or
// location message.
func (c *Conversation) Accepts(u model.Update) bool {
	switch u.Kind {
	case model.EventLocation:
		return c.session.State == AwaitingOrigin
	case model.EventText:
		switch c.session.State {
		case AwaitingOrigin, AwaitingFood, NamingNewList, EditingWalkRadius, EditingDriveRadius:
			return true
		}
	}
	return false
}

// Handle runs one transition and returns its effects. Failures never escape:
// they become effects and, when fatal, end the flow.
func (c *Conversation) Handle(ctx context.Context, u model.Update) []model.Effect {
	if c.session.State == Ended {
		return nil
	}
	before := c.session.State
	t := &turn{conv: c, s: c.session, e: c.engine, ctx: ctx}

	switch c.kind {
	case model.FlowSearch:
		t.search(u)
	case model.FlowFavorites:
		t.favorites(u)
	case model.FlowSettings:
		t.settings(u)
	case model.FlowLanguage:
		t.language(u)
	}
	if c.session.State != before && !t.ended {
		t.out = append(t.out, model.NextState(string(c.session.State)))
	}
	return t.out
}

// Start bootstraps the chat and opens a flow of the given kind. The returned
// conversation may already be ended, e.g. favorites without lists.
func (e *Engine) Start(ctx context.Context, kind model.FlowKind, u model.Update) (*Conversation, []model.Effect) {
	s := &Session{
		ChatID:      u.ChatID,
		UserID:      u.UserID,
		ChatKind:    u.ChatKind,
		Lang:        e.chatLanguage(ctx, u),
		WalkRadius:  e.walkRadius,
		DriveRadius: e.driveRadius,
	}
	c := &Conversation{kind: kind, session: s, engine: e}
	t := &turn{conv: c, s: s, e: e, ctx: ctx}

	switch kind {
	case model.FlowSearch:
		t.startSearch()
	case model.FlowFavorites:
		t.startFavorites()
	case model.FlowSettings:
		t.startSettings()
	case model.FlowLanguage:
		t.startLanguage()
	default:
		t.fail("start flow", fmt.Errorf("unknown flow %q", kind))
	}
	if !t.ended {
		t.out = append(t.out, model.NextState(string(s.State)))
	}
	return c, t.out
}

// Welcome answers /start.
func (e *Engine) Welcome(ctx context.Context, u model.Update) []model.Effect {
	return []model.Effect{model.SendMessage(i18n.Render("GENERAL_WelcomeString", e.chatLanguage(ctx, u)), nil)}
}

// Help answers /help.
func (e *Engine) Help(ctx context.Context, u model.Update) []model.Effect {
	return []model.Effect{model.SendMessage(i18n.Render("GENERAL_Help", e.chatLanguage(ctx, u)), nil)}
}

// AlreadyActive answers an entry command for a flow that is running.
func (e *Engine) AlreadyActive(c *Conversation) []model.Effect {
	return []model.Effect{model.SendMessage(i18n.Render("ERROR_FlowAlreadyActive", c.Lang()), nil)}
}

// UnknownOption answers a command the running flow does not understand.
func (e *Engine) UnknownOption(c *Conversation) []model.Effect {
	return []model.Effect{model.SendMessage(i18n.Render("ERROR_ChoseAnAvailableOption", c.Lang()), nil)}
}

// Cancel ends c on user request or, when timedOut, on inactivity. Transient
// state is dropped without persisting anything.
func (e *Engine) Cancel(c *Conversation, timedOut bool) []model.Effect {
	if c.session.State == Ended {
		return nil
	}
	id := "GENERAL_OperationCanceled"
	if timedOut {
		id = "GENERAL_ConversationTimedOut"
	}
	t := &turn{conv: c, s: c.session, e: e, ctx: context.Background()}
	t.finish(i18n.Render(id, c.Lang()))
	return t.out
}

// Recover turns a panic raised while handling c into an incident and ends c.
func (e *Engine) Recover(ctx context.Context, c *Conversation, v any) []model.Effect {
	t := &turn{conv: c, s: c.session, e: e, ctx: ctx}
	t.fail("panic", fmt.Errorf("panic: %v", v))
	return t.out
}

// RecoverStart turns a panic raised while opening a flow of kind into an
// incident. The flow is never kept.
func (e *Engine) RecoverStart(ctx context.Context, kind model.FlowKind, u model.Update, v any) []model.Effect {
	s := &Session{ChatID: u.ChatID, UserID: u.UserID, ChatKind: u.ChatKind, Lang: e.userLanguage(u)}
	return e.Recover(ctx, &Conversation{kind: kind, session: s, engine: e}, v)
}

// chatLanguage loads the chat language, registering unknown chats with the
// user's language when supported.
func (e *Engine) chatLanguage(ctx context.Context, u model.Update) string {
	log := observability.LoggerFromContext(ctx)
	lang, ok, err := e.repo.Language(ctx, u.ChatID)
	if err != nil {
		log.Warn("load chat language", "chat_id", u.ChatID, "error", err)
		return e.userLanguage(u)
	}
	if ok && i18n.IsSupported(lang) {
		return lang
	}
	lang = e.userLanguage(u)
	if !ok {
		if err := e.repo.CreateChat(ctx, u.ChatID, lang); err != nil {
			log.Warn("create chat", "chat_id", u.ChatID, "error", err)
		}
	}
	return lang
}

func (e *Engine) userLanguage(u model.Update) string {
	if code, ok := i18n.Match(u.UserLanguage); ok {
		return code
	}
	return e.defaultLang
}

// turn collects the effects of a single transition.
type turn struct {
	conv  *Conversation
	s     *Session
	e     *Engine
	ctx   context.Context
	out   []model.Effect
	ended bool
}

func (t *turn) text(id string, args ...any) string {
	return i18n.Render(id, t.s.Lang, args...)
}

func (t *turn) emit(effects ...model.Effect) {
	t.out = append(t.out, effects...)
}

// show renders into the active message, sending a fresh tracked message when
// there is none yet.
func (t *turn) show(text string, kb model.Keyboard) {
	if t.s.ActiveMessage == "" {
		t.emit(model.SendTracked(text, kb))
		return
	}
	t.emit(model.EditMessage(t.s.ActiveMessage, text, kb))
}

// reset detaches the active message so the next show sends a new one.
func (t *turn) reset() {
	t.s.ActiveMessage = ""
}

// notify sends a standalone informational message.
func (t *turn) notify(id string, args ...any) {
	t.emit(model.SendMessage(t.text(id, args...), nil))
}

// consume deletes the user message that fed the transition.
func (t *turn) consume(u model.Update) {
	if u.MessageRef != "" {
		t.emit(model.DeleteMessage(u.MessageRef))
	}
}

// finish leaves text on the active message and ends the flow.
func (t *turn) finish(text string) {
	t.show(text, nil)
	t.end()
}

func (t *turn) end() {
	t.s.State = Ended
	t.s.Criteria = nil
	t.s.Results = nil
	t.s.Lists = nil
	t.s.Favorite = nil
	t.ended = true
	t.emit(model.EndFlow())
}

// fail reports err to the operator, shows a generic message and ends the flow.
func (t *turn) fail(op string, err error) {
	in := Incident{
		ID:     ulid.Make().String(),
		Time:   t.e.now(),
		ChatID: t.s.ChatID,
		Flow:   t.conv.kind,
		State:  t.s.State,
		Op:     op,
		Err:    err,
	}
	observability.LoggerFromContext(t.ctx).Error("flow aborted",
		"incident", in.ID, "chat_id", in.ChatID, "flow", in.Flow, "state", in.State, "op", op, "error", err)
	t.e.reporter.Report(t.ctx, in)

	id := "ERROR_InternalError"
	var perr *model.ProviderError
	if errors.As(err, &perr) {
		id = "ERROR_GoogleCriticalError"
	}
	t.finish(t.text(id))
}

// invariant handles an error from cursor navigation, which guarded states
// never produce.
func (t *turn) invariant(op string, err error) bool {
	if err == nil {
		return false
	}
	if !errors.Is(err, cursor.ErrEmptyCollection) {
		err = fmt.Errorf("%s: %w", op, err)
	}
	t.fail(op, err)
	return true
}

// navigate moves l by one step unless it has at most one element. It reports
// whether the cursor moved.
func (t *turn) navigate(l interface {
	Len() int
	Advance() error
	Retreat() error
}, forward bool) bool {
	if l.Len() <= 1 {
		return false
	}
	var err error
	if forward {
		err = l.Advance()
	} else {
		err = l.Retreat()
	}
	return !t.invariant("navigate", err)
}
