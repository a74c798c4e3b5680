package queue

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/dweeb/marketplace/internal/api/metrics"
	"github.com/dweeb/marketplace/internal/core/domain"
	"github.com/dweeb/marketplace/internal/core/ports"
)

// LogHandler records auth events in the log and in Prometheus.
type LogHandler struct {
	log zerolog.Logger
}

func NewLogHandler(log zerolog.Logger) *LogHandler {
	return &LogHandler{log: log}
}

func (h *LogHandler) Handle(_ context.Context, event domain.AuthEvent) error {
	metrics.AuthEventsTotal.WithLabelValues(string(event.Type)).Inc()
	h.log.Info().
		Str("event", string(event.Type)).
		Str("user_id", event.UserID).
		Str("provider", event.Provider).
		Bool("new_user", event.IsNewUser).
		Time("at", event.Timestamp).
		Msg("auth event")
	return nil
}

// Chain runs every handler in order and joins their errors.
type Chain []ports.EventHandler

func (ch Chain) Handle(ctx context.Context, event domain.AuthEvent) error {
	var errs []error
	for _, h := range ch {
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
