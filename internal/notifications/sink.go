package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/avilesmedina/tiendita-backend/pkg/logger"
)

// Severity grades an event for downstream display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event is one back-office announcement: an order moved, a checkout failed,
// stock ran low. Events are advisory and carry no transactional weight.
type Event struct {
	Kind     string
	Severity Severity
	Message  string
	OrderID  *uuid.UUID
	Meta     map[string]any
}

// Sink receives events fire-and-forget. Implementations must never block the
// caller on delivery and must never return an error into business flow.
type Sink interface {
	Notify(ctx context.Context, event Event)
}

type logSink struct {
	logg *logger.Logger
}

// NewLogSink emits every event as a structured log line. It is the default
// sink; deployments with a real toast/push channel swap in their own.
func NewLogSink(logg *logger.Logger) (Sink, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &logSink{logg: logg}, nil
}

func (s *logSink) Notify(ctx context.Context, event Event) {
	fields := map[string]any{
		"kind":     event.Kind,
		"severity": string(event.Severity),
	}
	if event.OrderID != nil {
		fields["order_id"] = event.OrderID.String()
	}
	for k, v := range event.Meta {
		fields[k] = v
	}

	ctx = s.logg.WithFields(ctx, fields)
	switch event.Severity {
	case SeverityError:
		s.logg.Error(ctx, event.Message, nil)
	case SeverityWarning:
		s.logg.Warn(ctx, event.Message)
	default:
		s.logg.Info(ctx, event.Message)
	}
}
