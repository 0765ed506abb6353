package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	domorder "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
	domoutbox "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/outbox"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability/logctx"
	workerpresentation "github.com/Ansuman-Mahapatra/farmdirect/internal/presentation/worker"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	notificationWorker = "notification_worker"
	useCaseNotify      = "notification.order_confirmed"
	spanPrefix         = "UC."
)

type Worker struct {
	subscriber domoutbox.Subscriber
	notifiers  []Notifier

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	dispatched   observability.Counter   // notifications_dispatched_total{sink,kind,outcome}
}

func NewWorker(
	subscriber domoutbox.Subscriber,
	tel observability.Observability,
	notifiers ...Notifier,
) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Worker{
		subscriber:   subscriber,
		notifiers:    notifiers,
		log:          tel.Logger().With(observability.F("component", notificationWorker)),
		tracer:       tel.Tracer(),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
		dispatched:   tel.Metrics().Counter(observability.MNotificationsDispatched),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || len(w.notifiers) == 0 {
		return
	}
	w.subscriber.Subscribe(domorder.OrderConfirmedEvent{}.EventName(), w.Handle)
}

// Handle delivers every notice to every sink. A failing sink does not stop
// the others; the joined error is returned for the bus to log.
func (w *Worker) Handle(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domorder.OrderConfirmedEvent)
	if !ok {
		return nil
	}

	ctx, span := w.tracer.Start(ctx, spanPrefix+"NotifyOrderConfirmed",
		attribute.String("use_case", useCaseNotify),
		attribute.String("order.id", evt.OrderID),
	)
	ctx = workerpresentation.WithEventContext(ctx, logctx.FromOr(ctx, w.log), e, map[string]string{
		"use_case": useCaseNotify,
	})
	logger := logctx.FromOr(ctx, w.log)

	start := time.Now()
	notices := Notices(evt)
	var failed int
	defer func() {
		lat := time.Since(start).Seconds()
		outcome, statusText := "success", "OK"
		if err != nil {
			outcome, statusText = "error", "NOTIFY_PARTIAL_FAILURE"
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		w.reqCounter.Add(1, observability.L("use_case", useCaseNotify), observability.L("outcome", outcome))
		w.durHistogram.Observe(lat, observability.L("use_case", useCaseNotify))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
			observability.F("notices", len(notices)),
			observability.F("failed", failed),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	var errs []error
	for _, n := range notices {
		for _, sink := range w.notifiers {
			nerr := sink.Notify(ctx, n)
			outcome := "success"
			if nerr != nil {
				outcome = "error"
				failed++
				errs = append(errs, fmt.Errorf("%s to %s: %w", sink.Name(), n.RecipientID, nerr))
				logger.Warn("notification_failed",
					observability.F("sink", sink.Name()),
					observability.F("kind", string(n.Kind)),
					observability.F("recipient_id", n.RecipientID),
					observability.F("error", nerr.Error()),
				)
			}
			w.dispatched.Add(1,
				observability.L("sink", sink.Name()),
				observability.L("kind", string(n.Kind)),
				observability.L("outcome", outcome),
			)
		}
	}
	span.AddEvent("notification.dispatched", trace.WithAttributes(attribute.Int("notification.count", len(notices))))
	return errors.Join(errs...)
}
