package telegram

import (
	"context"
	"fmt"
	"strconv"

	"tasteit/internal/model"
)

// Transport applies engine effects through the Bot API.
type Transport struct {
	client *Client
}

// NewTransport creates a Transport.
func NewTransport(c *Client) *Transport {
	return &Transport{client: c}
}

// Apply delivers e to chatID. Sent messages and polls return their ref.
func (t *Transport) Apply(ctx context.Context, chatID int64, e model.Effect) (model.MessageRef, error) {
	switch e.Kind {
	case model.EffectSend:
		id, err := t.client.SendMessage(ctx, chatID, e.Text, e.Keyboard)
		if err != nil {
			return "", err
		}
		return messageRef(id), nil

	case model.EffectEdit:
		id, err := parseRef(e.Ref)
		if err != nil {
			return "", err
		}
		return "", t.client.EditMessageText(ctx, chatID, id, e.Text, e.Keyboard)

	case model.EffectDelete:
		id, err := parseRef(e.Ref)
		if err != nil {
			return "", err
		}
		return "", t.client.DeleteMessage(ctx, chatID, id)

	case model.EffectPoll:
		if e.Poll == nil {
			return "", fmt.Errorf("poll effect without poll")
		}
		id, err := t.client.SendPoll(ctx, chatID, e.Poll.Question, e.Poll.Options, e.Poll.DurationSeconds)
		if err != nil {
			return "", err
		}
		return messageRef(id), nil
	}
	return "", nil
}

func messageRef(id int64) model.MessageRef {
	return model.MessageRef(strconv.FormatInt(id, 10))
}

func parseRef(ref model.MessageRef) (int64, error) {
	id, err := strconv.ParseInt(string(ref), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid message ref %q: %w", ref, err)
	}
	return id, nil
}
