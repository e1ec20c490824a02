package notify

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/CosmoTheDev/vulnbyhost/internal/config"
	"github.com/CosmoTheDev/vulnbyhost/models"
)

// Dispatcher fans out events to all configured channels.
type Dispatcher struct {
	channels []Channel
	minSev   models.Severity
	filter   bool // minSev only applies when set
}

// NewDispatcher creates a Dispatcher from the given config.
// Only channels with IsConfigured() == true are active.
func NewDispatcher(cfg config.NotifyConfig) *Dispatcher {
	d := &Dispatcher{}
	if cfg.MinSeverity != "" {
		sev, err := models.ParseSeverity(cfg.MinSeverity)
		if err != nil {
			slog.Warn("notify: ignoring min_severity", "value", cfg.MinSeverity, "error", err)
		} else {
			d.minSev, d.filter = sev, true
		}
	}
	d.add(NewSlack(cfg.Slack), NewWebhook(cfg.Webhook))
	return d
}

func (d *Dispatcher) add(channels ...Channel) {
	for _, ch := range channels {
		if ch.IsConfigured() {
			d.channels = append(d.channels, ch)
		}
	}
}

// IsAnyConfigured returns true if at least one channel is ready to send.
func (d *Dispatcher) IsAnyConfigured() bool {
	return len(d.channels) > 0
}

// Notify sends evt to all configured channels concurrently and returns the
// number of channels that accepted it. Errors are logged but never returned.
func (d *Dispatcher) Notify(ctx context.Context, evt Event) int {
	if !d.shouldSend(evt) {
		slog.Debug("notify: below min severity", "event", evt.Type, "severity", evt.Severity)
		return 0
	}
	sent := make([]bool, len(d.channels))
	var g errgroup.Group
	for i, ch := range d.channels {
		g.Go(func() error {
			if err := ch.Send(ctx, evt); err != nil {
				slog.Warn("notify: channel send failed", "channel", ch.Name(), "event", evt.Type, "error", err)
				return nil
			}
			sent[i] = true
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range sent {
		if ok {
			n++
		}
	}
	return n
}

func (d *Dispatcher) shouldSend(evt Event) bool {
	if !d.filter {
		return true
	}
	// A scan with no findings at all never clears a threshold.
	if evt.Counts.Total() == 0 {
		return false
	}
	return evt.Severity >= d.minSev
}
