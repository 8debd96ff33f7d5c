// Package notify delivers low soil health alerts to an operator webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/grownex/grownex/internal/provider/resilience"
)

// DefaultThreshold is the soil score below which an alert is raised.
const DefaultThreshold = 6.0

// ErrDeliveryFailed is returned when the webhook answers with a non-2xx status.
var ErrDeliveryFailed = errors.New("webhook delivery failed")

// Format selects the webhook payload shape.
type Format string

// Supported formats.
const (
	FormatSlack Format = "slack"
	FormatHTTP  Format = "http"
)

// ParseFormat maps ALERT_WEBHOOK_TYPE to a Format. Empty means slack.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatSlack:
		return FormatSlack, nil
	case FormatHTTP:
		return FormatHTTP, nil
	default:
		return "", fmt.Errorf("unknown webhook type %q", s)
	}
}

// Alert describes an analysis whose score fell below the threshold.
type Alert struct {
	AnalysisID string    `json:"analysis_id"`
	UserID     string    `json:"user_id,omitempty"`
	Location   string    `json:"location"`
	SoilType   string    `json:"soil_type"`
	Score      float64   `json:"soil_score"`
	Threshold  float64   `json:"threshold"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Text renders the alert as a single human readable line.
func (a Alert) Text() string {
	return fmt.Sprintf("Low soil health: analysis %s scored %.1f/10 (threshold %.1f) for %s soil at %s",
		a.AnalysisID, a.Score, a.Threshold, a.SoilType, a.Location)
}

// Notifier sends alerts.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// NoopNotifier drops every alert. Used when no webhook is configured.
type NoopNotifier struct{}

// Notify does nothing.
func (NoopNotifier) Notify(context.Context, Alert) error { return nil }

// WebhookConfig configures a WebhookNotifier.
type WebhookConfig struct {
	URL    string
	Format Format
	Client *resilience.Client
	Logger zerolog.Logger
}

// WebhookNotifier posts alerts to a Slack incoming webhook or a plain JSON endpoint.
type WebhookNotifier struct {
	url    string
	format Format
	client *resilience.Client
	logger zerolog.Logger
}

// NewWebhookNotifier creates a webhook notifier. A nil client gets the
// default resilient client.
func NewWebhookNotifier(cfg WebhookConfig) (*WebhookNotifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook url is required")
	}
	if cfg.Format == "" {
		cfg.Format = FormatSlack
	}

	client := cfg.Client
	if client == nil {
		cbConfig := resilience.DefaultCircuitBreakerConfig("alert-webhook")
		cbConfig.OnStateChange = resilience.LogStateChanges(cfg.Logger)
		clientConfig := resilience.DefaultClientConfig("alert-webhook")
		clientConfig.CircuitBreaker = &cbConfig
		client = resilience.NewClient(clientConfig)
	}

	return &WebhookNotifier{
		url:    cfg.URL,
		format: cfg.Format,
		client: client,
		logger: cfg.Logger,
	}, nil
}

type slackPayload struct {
	Text string `json:"text"`
}

type httpPayload struct {
	Event string `json:"event"`
	Text  string `json:"text"`
	Alert
}

// Notify posts the alert.
func (n *WebhookNotifier) Notify(ctx context.Context, alert Alert) error {
	var payload interface{}
	switch n.format {
	case FormatHTTP:
		payload = httpPayload{Event: "soil.low_score", Text: alert.Text(), Alert: alert}
	default:
		payload = slackPayload{Text: alert.Text()}
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(payload); err != nil {
		return fmt.Errorf("encoding alert: %w", err)
	}

	resp, err := n.client.Send(ctx, resilience.Request{
		Method: http.MethodPost,
		URL:    n.url,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body.Bytes(),
	})
	if err != nil {
		return fmt.Errorf("sending alert: %w", err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: status %d", ErrDeliveryFailed, resp.StatusCode)
	}

	n.logger.Info().
		Str("analysis_id", alert.AnalysisID).
		Float64("soil_score", alert.Score).
		Msg("low score alert sent")
	return nil
}

var (
	_ Notifier = NoopNotifier{}
	_ Notifier = (*WebhookNotifier)(nil)
)
