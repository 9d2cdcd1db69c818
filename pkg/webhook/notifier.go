// Package webhook delivers terminal call notifications to an external
// HTTP endpoint. Payloads are signed with HMAC so receivers can verify
// their origin.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"toolgate/pkg/history"
	"toolgate/pkg/tool"
)

// Event is the payload posted to the webhook endpoint.
type Event struct {
	// Type is call.completed or call.failed.
	Type string `json:"type"`

	// Timestamp is when the event was emitted.
	Timestamp time.Time `json:"timestamp"`

	// Entry is the history entry for the terminal call.
	Entry history.Entry `json:"entry"`
}

// Config configures the notifier.
type Config struct {
	// URL is the endpoint events are posted to.
	URL string `json:"url"`

	// Secret signs each payload when set.
	Secret string `json:"secret"`

	// SignatureHeader carries the signature. Defaults to
	// X-Toolgate-Signature.
	SignatureHeader string `json:"signature_header"`

	// Timeout bounds each delivery attempt. Defaults to 10s.
	Timeout time.Duration `json:"timeout"`

	// MaxAttempts bounds delivery retries per event. Defaults to 3.
	MaxAttempts int `json:"max_attempts"`

	// QueueSize bounds the delivery queue. Events past the bound are
	// dropped. Defaults to 256.
	QueueSize int `json:"queue_size"`
}

// Notifier posts terminal call events to a webhook endpoint. Deliveries
// run on a single background worker so slow receivers never block the
// invocation pipeline.
type Notifier struct {
	cfg    Config
	client *http.Client

	queue  chan Event
	stopCh chan struct{}
	wg     sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewNotifier creates a notifier for the given endpoint.
func NewNotifier(cfg Config) (*Notifier, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid webhook URL %q", cfg.URL)
	}
	if cfg.SignatureHeader == "" {
		cfg.SignatureHeader = "X-Toolgate-Signature"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}

	return &Notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		queue:  make(chan Event, cfg.QueueSize),
		stopCh: make(chan struct{}),
	}, nil
}

// Start launches the delivery worker.
func (n *Notifier) Start() {
	n.startOnce.Do(func() {
		n.wg.Add(1)
		go n.run()
		log.Info().Str("url", n.cfg.URL).Msg("Webhook notifier started")
	})
}

// Stop drains the worker. Queued events not yet delivered are dropped.
func (n *Notifier) Stop() {
	n.stopOnce.Do(func() {
		close(n.stopCh)
		n.wg.Wait()
	})
}

// Notify enqueues a terminal call event. It never blocks; when the queue
// is full the event is dropped and counted in the logs.
func (n *Notifier) Notify(e history.Entry) {
	event := Event{
		Type:      "call.completed",
		Timestamp: time.Now().UTC(),
		Entry:     e,
	}
	if e.Call != nil && e.Call.Status == tool.StatusFailed {
		event.Type = "call.failed"
	}

	select {
	case n.queue <- event:
	default:
		log.Warn().Str("type", event.Type).Msg("Webhook queue full, event dropped")
	}
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for {
		select {
		case event := <-n.queue:
			n.deliver(event)
		case <-n.stopCh:
			return
		}
	}
}

// deliver posts one event, retrying transient failures with backoff.
func (n *Notifier) deliver(event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode webhook event")
		return
	}

	var lastErr error
	for attempt := 1; attempt <= n.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(time.Duration(attempt-1) * 500 * time.Millisecond):
			case <-n.stopCh:
				return
			}
		}

		lastErr = n.post(body)
		if lastErr == nil {
			log.Debug().Str("type", event.Type).Int("attempt", attempt).Msg("Webhook delivered")
			return
		}
	}

	log.Error().
		Err(lastErr).
		Str("url", n.cfg.URL).
		Int("attempts", n.cfg.MaxAttempts).
		Msg("Webhook delivery failed")
}

func (n *Notifier) post(body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), n.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.cfg.Secret != "" {
		req.Header.Set(n.cfg.SignatureHeader, ComputeSignature(body, n.cfg.Secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("endpoint returned %s", resp.Status)
	}
	return nil
}
