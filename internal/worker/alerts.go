package worker

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/grownex/grownex/internal/events"
	"github.com/grownex/grownex/internal/notify"
)

// AlertFlags exposes the runtime switches the alert handler honors.
// Implemented by featureflags.Service.
type AlertFlags interface {
	LowScoreAlertsDisabled(ctx context.Context) bool
	LowScoreAlertThreshold(ctx context.Context) float64
}

// staticAlertFlags is used when no flag service is configured.
type staticAlertFlags struct{}

func (staticAlertFlags) LowScoreAlertsDisabled(context.Context) bool { return false }

func (staticAlertFlags) LowScoreAlertThreshold(context.Context) float64 {
	return notify.DefaultThreshold
}

// AlertHandler turns analysis events into low score alerts.
type AlertHandler struct {
	notifier notify.Notifier
	flags    AlertFlags
	logger   zerolog.Logger
}

// NewAlertHandler creates an alert handler. A nil flags source alerts below
// notify.DefaultThreshold.
func NewAlertHandler(notifier notify.Notifier, flags AlertFlags, logger zerolog.Logger) *AlertHandler {
	if flags == nil {
		flags = staticAlertFlags{}
	}
	return &AlertHandler{
		notifier: notifier,
		flags:    flags,
		logger:   logger,
	}
}

// Handle notifies when the analysis score is below the threshold.
// It reports whether an alert was sent.
func (h *AlertHandler) Handle(ctx context.Context, msg events.Message) (bool, error) {
	if h.flags.LowScoreAlertsDisabled(ctx) {
		h.logger.Debug().Str("analysis_id", msg.AnalysisID).Msg("low score alerts disabled")
		return false, nil
	}

	threshold := h.flags.LowScoreAlertThreshold(ctx)
	if msg.Score >= threshold {
		return false, nil
	}

	err := h.notifier.Notify(ctx, notify.Alert{
		AnalysisID: msg.AnalysisID,
		UserID:     msg.UserID,
		Location:   msg.Location,
		SoilType:   msg.SoilType,
		Score:      msg.Score,
		Threshold:  threshold,
		OccurredAt: msg.OccurredAt,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
