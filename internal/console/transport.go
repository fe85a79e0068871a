package console

import (
	"context"
	"errors"
	"html"
	"regexp"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/oklog/ulid/v2"

	"tasteit/internal/model"
)

var errDetached = errors.New("console transport not attached")

type botMessageMsg struct {
	ref      model.MessageRef
	text     string
	keyboard model.Keyboard
	poll     *model.Poll
}

type editMessageMsg struct {
	ref      model.MessageRef
	text     string
	keyboard model.Keyboard
}

type deleteMessageMsg struct {
	ref model.MessageRef
}

// Transport delivers effects to the terminal chat.
type Transport struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

// NewTransport creates a detached Transport.
func NewTransport() *Transport {
	return &Transport{}
}

// Attach routes effects to send, usually a tea.Program's Send.
func (t *Transport) Attach(send func(tea.Msg)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.send = send
}

// Apply implements the dispatcher transport.
func (t *Transport) Apply(_ context.Context, _ int64, e model.Effect) (model.MessageRef, error) {
	t.mu.RLock()
	send := t.send
	t.mu.RUnlock()
	if send == nil {
		return "", errDetached
	}

	switch e.Kind {
	case model.EffectSend:
		ref := model.MessageRef(ulid.Make().String())
		send(botMessageMsg{ref: ref, text: StripHTML(e.Text), keyboard: e.Keyboard})
		return ref, nil
	case model.EffectEdit:
		send(editMessageMsg{ref: e.Ref, text: StripHTML(e.Text), keyboard: e.Keyboard})
	case model.EffectDelete:
		send(deleteMessageMsg{ref: e.Ref})
	case model.EffectPoll:
		if e.Poll == nil {
			return "", errors.New("poll effect without poll")
		}
		ref := model.MessageRef(ulid.Make().String())
		send(botMessageMsg{ref: ref, text: StripHTML(e.Poll.Question), poll: e.Poll})
		return ref, nil
	}
	return "", nil
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes the HTML markup used by bot messages.
func StripHTML(s string) string {
	s = strings.NewReplacer("<br>", "\n", "<br/>", "\n").Replace(s)
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}
