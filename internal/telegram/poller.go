package telegram

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Poller fetches updates with getUpdates long polling.
type Poller struct {
	client  *Client
	sink    Sink
	timeout time.Duration
	logger  *slog.Logger
}

// NewPoller creates a Poller. timeout is the long poll window.
func NewPoller(c *Client, sink Sink, timeout time.Duration, logger *slog.Logger) *Poller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{client: c, sink: sink, timeout: timeout, logger: logger}
}

// Run polls until ctx is done. A registered webhook is removed first.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.client.DeleteWebhook(ctx); err != nil {
		p.logger.Warn("delete webhook", "error", err)
	}

	var offset int64
	for {
		updates, err := p.client.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Code == 401 {
				return err
			}
			p.logger.Warn("get updates", "error", err)
			if err := sleep(ctx, 2*time.Second); err != nil {
				return nil
			}
			continue
		}
		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			ingest(p.sink, u, p.logger)
			answer(context.WithoutCancel(ctx), p.client, u, p.logger)
		}
	}
}
