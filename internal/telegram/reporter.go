package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"tasteit/internal/bot"
	"tasteit/internal/util"
)

var _ bot.Reporter = (*Reporter)(nil)

// maxIncidentRunes keeps a report under the message size limit once escaped.
const maxIncidentRunes = 3000

// Reporter sends incidents to the operator chat.
type Reporter struct {
	client *Client
	chatID int64
	logger *slog.Logger
}

// NewReporter creates a Reporter. A zero chatID only logs.
func NewReporter(c *Client, chatID int64, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{client: c, chatID: chatID, logger: logger}
}

// Report implements bot.Reporter.
func (r *Reporter) Report(ctx context.Context, in bot.Incident) {
	if r.chatID == 0 || r.client == nil {
		return
	}
	if _, err := r.client.SendMessage(ctx, r.chatID, FormatIncident(in), nil); err != nil {
		r.logger.Warn("report incident", "incident", in.ID, "error", err)
	}
}

// FormatIncident renders an incident as an HTML preformatted block.
func FormatIncident(in bot.Incident) string {
	errText := "<nil>"
	if in.Err != nil {
		errText = in.Err.Error()
	}
	body := fmt.Sprintf("incident: %s\ntime: %s\nchat: %d\nflow: %s\nstate: %s\nop: %s\nerror: %s",
		in.ID, in.Time.UTC().Format(time.RFC3339), in.ChatID, in.Flow, in.State, in.Op, errText)
	return "<pre>" + html.EscapeString(util.TruncateString(body, maxIncidentRunes)) + "</pre>"
}
