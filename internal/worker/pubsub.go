package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/grownex/grownex/internal/events"
)

// ErrMalformedMessage is returned for payloads that are not valid JSON messages.
var ErrMalformedMessage = errors.New("malformed message")

// Pinger checks a dependency for the health_check job.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dispatcher routes decoded job messages to their handlers.
type Dispatcher struct {
	alerts  *AlertHandler
	rescore *RescoreJob
	pinger  Pinger
	logger  zerolog.Logger
}

// DispatcherConfig holds the handlers for each job type.
type DispatcherConfig struct {
	Alerts  *AlertHandler
	Rescore *RescoreJob
	Pinger  Pinger
	Logger  zerolog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		alerts:  cfg.Alerts,
		rescore: cfg.Rescore,
		pinger:  cfg.Pinger,
		logger:  cfg.Logger,
	}
}

// Dispatch decodes data and runs the matching job. Unknown job types are
// logged and ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte) error {
	var msg events.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch msg.JobType {
	case events.JobAnalysisCreated, events.JobAnalysisUpdated:
		if d.alerts == nil {
			return nil
		}
		sent, err := d.alerts.Handle(ctx, msg)
		if err != nil {
			return fmt.Errorf("alerting on %s: %w", msg.AnalysisID, err)
		}
		if sent {
			d.logger.Info().
				Str("analysis_id", msg.AnalysisID).
				Float64("soil_score", msg.Score).
				Msg("low score alert dispatched")
		}
		return nil

	case events.JobRescoreAll:
		if d.rescore == nil {
			return nil
		}
		result, err := d.rescore.Run(ctx)
		if errors.Is(err, ErrRescoreInProgress) {
			d.logger.Info().Msg("rescore already running, skipping")
			return nil
		}
		if err != nil {
			return err
		}
		if result.Failed > 0 && result.Failed >= result.Total-result.Failed {
			return fmt.Errorf("too many rescore failures: %d/%d", result.Failed, result.Total)
		}
		return nil

	case events.JobHealthCheck:
		if d.pinger == nil {
			return nil
		}
		if err := d.pinger.Ping(ctx); err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		d.logger.Debug().Msg("health check passed")
		return nil

	default:
		d.logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return nil
	}
}

// PubSubHandler receives job messages from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Dispatcher       *Dispatcher
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       cfg.Dispatcher,
		logger:           cfg.Logger,
	}, nil
}

// Start blocks processing messages until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("job_type", msg.Attributes["job_type"]).
		Logger()

	err := h.dispatcher.Dispatch(ctx, msg.Data)
	switch {
	case errors.Is(err, ErrMalformedMessage):
		// Redelivery cannot fix a bad payload.
		logger.Error().Err(err).Msg("dropping malformed message")
		msg.Ack()
	case err != nil:
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
	default:
		logger.Info().Dur("duration", time.Since(startTime)).Msg("job completed")
		msg.Ack()
	}
}
