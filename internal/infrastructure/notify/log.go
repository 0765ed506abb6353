// Package notify holds the delivery channels for order notifications.
package notify

import (
	"context"

	"github.com/Ansuman-Mahapatra/farmdirect/internal/application/notification"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability/logctx"
)

// LogNotifier writes each notice as a structured log line. It stands in for
// email delivery, which is out of scope for this service.
type LogNotifier struct {
	log observability.Logger
}

var _ notification.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger observability.Logger) *LogNotifier {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &LogNotifier{log: logger.With(observability.F("component", "log_notifier"))}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(ctx context.Context, notice notification.Notice) error {
	logctx.FromOr(ctx, n.log).Info("notification_sent",
		observability.F("kind", string(notice.Kind)),
		observability.F("recipient_id", notice.RecipientID),
		observability.F("order_id", notice.OrderID),
		observability.F("total_amount", notice.TotalAmount),
		observability.F("lines", len(notice.Lines)),
	)
	return nil
}
