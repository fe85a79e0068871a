// Package telegram talks to the Telegram Bot API: an HTTP client, the effect
// transport, long polling, the webhook server and the operator reporter.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tasteit/internal/model"
	"tasteit/internal/util"
)

// DefaultBaseURL is the Bot API root.
const DefaultBaseURL = "https://api.telegram.org"

const parseModeHTML = "HTML"

var allowedUpdates = []string{"message", "callback_query"}

// APIError is a Bot API failure reply.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// Options configures a Client.
type Options struct {
	Token      string
	BaseURL    string
	Timeout    time.Duration
	Retries    int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is a minimal Bot API client.
type Client struct {
	token      string
	baseURL    string
	retries    int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Bot API client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.HTTPClient == nil {
		// Long polls hold the connection for up to the poll timeout.
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout + time.Minute}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		token:      opts.Token,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		retries:    opts.Retries,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

// SendMessage sends an HTML message and returns its id.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, kb model.Keyboard) (int64, error) {
	var msg Message
	err := c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             parseModeHTML,
		DisableWebPagePreview: true,
		ReplyMarkup:           markup(kb),
	}, &msg)
	return msg.MessageID, err
}

// EditMessageText replaces the text and keyboard of a sent message. Edits that
// change nothing are not errors.
func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, kb model.Keyboard) error {
	err := c.call(ctx, "editMessageText", editMessageTextRequest{
		ChatID:                chatID,
		MessageID:             messageID,
		Text:                  text,
		ParseMode:             parseModeHTML,
		DisableWebPagePreview: true,
		ReplyMarkup:           markup(kb),
	}, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.Contains(apiErr.Description, "message is not modified") {
		return nil
	}
	return err
}

// DeleteMessage deletes a message.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return c.call(ctx, "deleteMessage", deleteMessageRequest{ChatID: chatID, MessageID: messageID}, nil)
}

// SendPoll starts a non-anonymous poll open for openPeriod seconds.
func (c *Client) SendPoll(ctx context.Context, chatID int64, question string, options []string, openPeriod int) (int64, error) {
	var msg Message
	err := c.call(ctx, "sendPoll", sendPollRequest{
		ChatID:     chatID,
		Question:   question,
		Options:    options,
		OpenPeriod: openPeriod,
	}, &msg)
	return msg.MessageID, err
}

// AnswerCallbackQuery acknowledges a button press.
func (c *Client) AnswerCallbackQuery(ctx context.Context, id string) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackQueryRequest{CallbackQueryID: id}, nil)
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	var updates []Update
	err := c.call(ctx, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(timeout.Seconds()),
		AllowedUpdates: allowedUpdates,
	}, &updates)
	return updates, err
}

// SetWebhook registers the webhook URL with its secret token.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secret string) error {
	return c.call(ctx, "setWebhook", setWebhookRequest{
		URL:            webhookURL,
		SecretToken:    secret,
		AllowedUpdates: allowedUpdates,
	}, nil)
}

// DeleteWebhook removes the webhook so long polling can be used.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", struct{}{}, nil)
}

// call posts payload to method and decodes the result into out. Transport
// failures, 5xx and flood waits are retried.
func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram %s: encode request: %w", method, err)
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)

	return util.RetryWithBackoff(ctx, c.retries, 500*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return util.Permanent(fmt.Errorf("telegram %s: request creation failed: %w", method, err))
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			var uerr *url.Error
			if errors.As(err, &uerr) {
				// Keep the bot token out of logs.
				uerr.URL = c.baseURL + "/bot<redacted>/" + method
			}
			if ctx.Err() != nil {
				return util.Permanent(err)
			}
			return fmt.Errorf("telegram %s: network error: %w", method, err)
		}
		defer resp.Body.Close()

		var env apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			decodeErr := fmt.Errorf("telegram %s: status %d: JSON decode error: %w", method, resp.StatusCode, err)
			if resp.StatusCode >= 500 {
				return decodeErr
			}
			return util.Permanent(decodeErr)
		}
		if !env.OK {
			apiErr := &APIError{Method: method, Code: env.ErrorCode, Description: env.Description}
			if env.Parameters != nil && env.Parameters.RetryAfter > 0 {
				apiErr.RetryAfter = time.Duration(env.Parameters.RetryAfter) * time.Second
			}
			switch {
			case apiErr.Code == http.StatusTooManyRequests:
				if err := sleep(ctx, apiErr.RetryAfter); err != nil {
					return util.Permanent(err)
				}
				return apiErr
			case apiErr.Code >= 500:
				return apiErr
			}
			return util.Permanent(apiErr)
		}
		if out == nil || len(env.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(env.Result, out); err != nil {
			return util.Permanent(fmt.Errorf("telegram %s: decode result: %w", method, err))
		}
		return nil
	}, c.logger)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func markup(kb model.Keyboard) *inlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}
	m := &inlineKeyboardMarkup{InlineKeyboard: make([][]inlineKeyboardButton, 0, len(kb))}
	for _, row := range kb {
		buttons := make([]inlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, inlineKeyboardButton{Text: b.Text, CallbackData: b.Data, URL: b.URL})
		}
		m.InlineKeyboard = append(m.InlineKeyboard, buttons)
	}
	return m
}

// ToUpdate converts a Bot API update into a chat event. Updates the bot does
// not handle report false.
func ToUpdate(u Update) (model.Update, bool) {
	out := model.Update{ID: u.UpdateID}
	switch {
	case u.CallbackQuery != nil:
		q := u.CallbackQuery
		if q.Message == nil || q.Data == "" {
			return out, false
		}
		out.Kind = model.EventCallback
		out.Callback = q.Data
		out.ChatID = q.Message.Chat.ID
		out.ChatKind = model.ChatKind(q.Message.Chat.Type)
		out.UserID = q.From.ID
		out.UserLanguage = q.From.LanguageCode
		out.MessageRef = messageRef(q.Message.MessageID)

	case u.Message != nil:
		m := u.Message
		switch {
		case m.Location != nil:
			out.Kind = model.EventLocation
			out.Location = &model.Location{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}
		case m.Text != "":
			out.Kind = model.EventText
			out.Text = m.Text
		default:
			return out, false
		}
		out.ChatID = m.Chat.ID
		out.ChatKind = model.ChatKind(m.Chat.Type)
		out.MessageRef = messageRef(m.MessageID)
		if m.From != nil {
			out.UserID = m.From.ID
			out.UserLanguage = m.From.LanguageCode
		}

	default:
		return out, false
	}
	return out, true
}

// Sink receives converted chat events.
type Sink interface {
	Dispatch(u model.Update) error
}

// ingest converts u and queues it on sink. It returns once the event is
// queued, so events reach the sink in the order they were ingested.
func ingest(sink Sink, u Update, logger *slog.Logger) {
	ev, ok := ToUpdate(u)
	if !ok {
		logger.Debug("update ignored", "update_id", u.UpdateID)
		return
	}
	if err := sink.Dispatch(ev); err != nil {
		logger.Warn("dispatch update", "update_id", u.UpdateID, "error", err)
	}
}

// answer acknowledges a button press so the client stops its spinner.
func answer(ctx context.Context, c *Client, u Update, logger *slog.Logger) {
	q := u.CallbackQuery
	if q == nil || c == nil {
		return
	}
	if err := c.AnswerCallbackQuery(ctx, q.ID); err != nil {
		logger.Warn("answer callback query", "update_id", u.UpdateID, "error", err)
	}
}
