package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"procurement-be/internal/logger"
	"procurement-be/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type WebhookConfig struct {
	URL        string
	RatePerSec float64
	QueueSize  int
	Timeout    time.Duration
}

// WebhookDispatcher posts events as JSON to an external notification service.
// Events are queued and sent by one background worker; a full queue drops
// the event rather than blocking the caller.
type WebhookDispatcher struct {
	url        string
	httpClient *http.Client
	limiter    *rate.Limiter
	queue      chan Envelope
	metrics    *metrics.Registry
	now        func() time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewWebhookDispatcher(cfg WebhookConfig, reg *metrics.Registry) *WebhookDispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &WebhookDispatcher{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		queue:      make(chan Envelope, cfg.QueueSize),
		metrics:    reg,
		now:        func() time.Time { return time.Now().UTC() },
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	go d.run(ctx)
	return d
}

func (d *WebhookDispatcher) Dispatch(ctx context.Context, events ...Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, e := range events {
		env := Wrap(e, d.now())
		if d.closed {
			d.drop(ctx, env, "dispatcher closed")
			continue
		}
		select {
		case d.queue <- env:
		default:
			d.drop(ctx, env, "notification queue full")
		}
	}
}

func (d *WebhookDispatcher) drop(ctx context.Context, env Envelope, reason string) {
	d.metrics.Inc(metrics.NotificationsDropped)
	logger.FromCtx(ctx).Warn("event dropped",
		zap.String("reason", reason),
		zap.String("type", string(env.Type)),
		zap.String("event_id", env.ID.String()),
	)
}

// Close stops accepting work, delivers what is already queued and waits
// for the worker to exit or ctx to expire.
func (d *WebhookDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}

func (d *WebhookDispatcher) run(ctx context.Context) {
	defer close(d.done)

	for env := range d.queue {
		if err := d.limiter.Wait(ctx); err != nil {
			d.metrics.Inc(metrics.NotificationsDropped)
			continue
		}

		timer := metrics.StartTimer()
		if err := d.send(ctx, env); err != nil {
			d.metrics.Inc(metrics.NotificationsFailed)
			logger.L().Error("failed to deliver notification",
				zap.String("type", string(env.Type)),
				zap.String("event_id", env.ID.String()),
				zap.Duration("elapsed", timer.Duration()),
				zap.Error(err),
			)
			continue
		}
		d.metrics.Inc(metrics.NotificationsSent)
		logger.L().Debug("notification delivered",
			zap.String("type", string(env.Type)),
			zap.Duration("elapsed", timer.Duration()),
		)
	}
}

func (d *WebhookDispatcher) send(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", string(env.Type))
	req.Header.Set("Idempotency-Key", env.ID.String())

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notification service returned %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}
