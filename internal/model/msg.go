package model

import "strings"

// Chat events and outbound effects exchanged with the dispatcher.

// MessageRef is an opaque handle to a message the transport delivered.
type MessageRef string

// EventKind is the kind of inbound event.
type EventKind int

const (
	EventText EventKind = iota
	EventLocation
	EventCallback
	EventTimerExpired
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventLocation:
		return "location"
	case EventCallback:
		return "callback"
	case EventTimerExpired:
		return "timer"
	}
	return "unknown"
}

// Location is a live position shared by the user.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Update is an inbound chat event tagged with its origin.
type Update struct {
	ID           int64
	ChatID       int64
	UserID       int64
	ChatKind     ChatKind
	UserLanguage string

	Kind     EventKind
	Text     string
	Location *Location // nil for an invalid or empty location message
	Callback string

	// MessageRef is the user's message for text and location events, or the
	// message carrying the pressed button for callbacks.
	MessageRef MessageRef

	// Flow and Generation are set on timer events only.
	Flow       FlowKind
	Generation uint64
}

// Command returns the bot command carried by a text update, without the
// leading slash and any @botname suffix.
func (u Update) Command() (string, bool) {
	if u.Kind != EventText || !strings.HasPrefix(u.Text, "/") {
		return "", false
	}
	name := strings.Fields(u.Text[1:])
	if len(name) == 0 {
		return "", false
	}
	cmd, _, _ := strings.Cut(name[0], "@")
	return strings.ToLower(cmd), cmd != ""
}

// Button is an inline keyboard button. Exactly one of Data or URL is set.
type Button struct {
	Text string
	Data string
	URL  string
}

// Keyboard is a grid of inline buttons, one slice per row.
type Keyboard [][]Button

// Poll is a group poll to start in the chat.
type Poll struct {
	Question        string
	Options         []string
	DurationSeconds int
}

// EffectKind is the kind of outbound effect.
type EffectKind int

const (
	EffectSend EffectKind = iota
	EffectEdit
	EffectDelete
	EffectPoll
	EffectNextState
	EffectEndFlow
)

func (k EffectKind) String() string {
	switch k {
	case EffectSend:
		return "send"
	case EffectEdit:
		return "edit"
	case EffectDelete:
		return "delete"
	case EffectPoll:
		return "poll"
	case EffectNextState:
		return "next_state"
	case EffectEndFlow:
		return "end_flow"
	}
	return "unknown"
}

// Effect is one outbound action produced by a transition.
type Effect struct {
	Kind     EffectKind
	Text     string
	Keyboard Keyboard
	Ref      MessageRef
	Poll     *Poll
	State    string

	// Track asks the dispatcher to bind the ref returned for a send as the
	// flow's active message.
	Track bool
}

// SendMessage sends a new message.
func SendMessage(text string, kb Keyboard) Effect {
	return Effect{Kind: EffectSend, Text: text, Keyboard: kb}
}

// SendTracked sends a new message that becomes the flow's active message.
func SendTracked(text string, kb Keyboard) Effect {
	return Effect{Kind: EffectSend, Text: text, Keyboard: kb, Track: true}
}

// EditMessage replaces the text and keyboard of a delivered message.
func EditMessage(ref MessageRef, text string, kb Keyboard) Effect {
	return Effect{Kind: EffectEdit, Ref: ref, Text: text, Keyboard: kb}
}

// DeleteMessage removes a delivered message.
func DeleteMessage(ref MessageRef) Effect {
	return Effect{Kind: EffectDelete, Ref: ref}
}

// StartPoll opens a poll in the chat.
func StartPoll(question string, options []string, durationSeconds int) Effect {
	return Effect{Kind: EffectPoll, Poll: &Poll{Question: question, Options: options, DurationSeconds: durationSeconds}}
}

// NextState records the state tag the flow moved to.
func NextState(tag string) Effect {
	return Effect{Kind: EffectNextState, State: tag}
}

// EndFlow terminates the flow and discards its session.
func EndFlow() Effect {
	return Effect{Kind: EffectEndFlow}
}
