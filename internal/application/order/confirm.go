package order

import (
	"context"
	"errors"
	"time"

	"github.com/Ansuman-Mahapatra/farmdirect/internal/application"
	domain "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
	domoutbox "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/outbox"
	dompay "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/payment"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	useCaseOrderConfirm  = "order.confirm_payment"
	endpointPublishEvent = "publish_order_confirmed"
)

var _ application.UseCase[ConfirmPaymentInput, *ConfirmPaymentResult] = (*ConfirmPaymentUseCase)(nil)

type ConfirmPaymentInput struct {
	OrderID   string
	PaymentID string
	Signature string
}

type ConfirmPaymentResult struct {
	OrderID string
	Status  domain.Status
	// AlreadyConfirmed is set when another call won the transition. Nothing
	// is written or published in that case.
	AlreadyConfirmed bool
}

// ConfirmPaymentUseCase verifies the processor's signature and moves the order
// to confirmed. Only the call that performs the transition publishes
// OrderConfirmedEvent.
type ConfirmPaymentUseCase struct {
	repo      domain.Repository
	gateway   dompay.Gateway
	publisher domoutbox.Publisher

	log    observability.Logger
	tracer observability.Tracer

	reqCounter   observability.Counter
	durHistogram observability.Histogram
	extCounter   observability.Counter
	extHistogram observability.Histogram
}

func NewConfirmPaymentUseCase(
	repo domain.Repository,
	gateway dompay.Gateway,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *ConfirmPaymentUseCase {
	baseLog := observability.NopLogger()
	tracer := observability.NopTracer()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		tracer = tel.Tracer()
		metricsProvider = tel.Metrics()
	}

	return &ConfirmPaymentUseCase{
		repo:         repo,
		gateway:      gateway,
		publisher:    publisher,
		log:          baseLog.With(observability.F("service", orderService)),
		tracer:       tracer,
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
		extCounter:   metricsProvider.Counter(observability.MExternalRequests),
		extHistogram: metricsProvider.Histogram(observability.MExternalRequestDuration),
	}
}

func (uc *ConfirmPaymentUseCase) Execute(ctx context.Context, cmd ConfirmPaymentInput) (_ *ConfirmPaymentResult, err error) {
	ctx, logger := logctx.WithFields(ctx, uc.log,
		observability.F("use_case", useCaseOrderConfirm),
		observability.F("order_id", cmd.OrderID),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"ConfirmPayment",
		attribute.String("use_case", useCaseOrderConfirm),
		attribute.String("order.id", cmd.OrderID),
		attribute.String("payment.id", cmd.PaymentID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseOrderConfirm),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseOrderConfirm),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if cmd.OrderID == "" || cmd.PaymentID == "" || cmd.Signature == "" {
		outcome, statusText = "error", "VALIDATION_FAILED"
		return nil, newValidation("order id, payment id and signature are required")
	}

	current, gerr := uc.repo.Get(ctx, cmd.OrderID)
	if gerr != nil {
		outcome, statusText = "error", "ORDER_LOOKUP_FAILED"
		if errors.Is(gerr, domain.ErrNotFound) {
			statusText = "ORDER_NOT_FOUND"
		}
		return nil, wrapRepositoryError(gerr)
	}
	// An order without an intent cannot carry a valid signature.
	if current.IntentID == "" {
		outcome, statusText = "error", "INTENT_MISSING"
		return nil, errors.Join(ErrSignature, errors.New("order has no payment intent"))
	}
	if !uc.gateway.VerifySignature(current.IntentID, cmd.PaymentID, cmd.Signature) {
		outcome, statusText = "error", "SIGNATURE_MISMATCH"
		return nil, ErrSignature
	}
	span.AddEvent("payment.signature_verified")

	updated, terr := uc.repo.TransitionStatus(ctx, cmd.OrderID, domain.ConfirmPayment(cmd.PaymentID))
	if terr != nil {
		if !errors.Is(terr, domain.ErrConflict) && !errors.Is(terr, domain.ErrInvalidStateTransition) {
			outcome, statusText = "error", "REPO_UPDATE_FAILED"
			return nil, wrapRepositoryError(terr)
		}

		latest, lerr := uc.repo.Get(ctx, cmd.OrderID)
		if lerr != nil {
			outcome, statusText = "error", "ORDER_RELOAD_FAILED"
			return nil, wrapRepositoryError(lerr)
		}
		if latest.Status.AtLeast(domain.StatusConfirmed) {
			statusText = "ALREADY_CONFIRMED"
			return &ConfirmPaymentResult{
				OrderID:          latest.ID,
				Status:           latest.Status,
				AlreadyConfirmed: true,
			}, nil
		}
		outcome, statusText = "error", "STATUS_CONFLICT"
		return nil, errors.Join(ErrConflict, terr)
	}

	span.AddEvent("order.confirmed",
		trace.WithAttributes(attribute.String("order.status", string(updated.Status))),
	)
	uc.publish(ctx, logger, updated)

	return &ConfirmPaymentResult{OrderID: updated.ID, Status: updated.Status}, nil
}

// publish never fails the confirmation: the order is already confirmed.
func (uc *ConfirmPaymentUseCase) publish(ctx context.Context, logger observability.Logger, o *domain.Order) {
	if uc.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	start := time.Now()
	err := uc.publisher.Publish(pctx, domain.NewOrderConfirmedEvent(o))
	outcome := "success"
	if err != nil {
		outcome = "error"
		logger.Warn("order_confirmed_publish_failed", observability.F("error", err.Error()))
	}

	uc.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpointPublishEvent),
		observability.L("outcome", outcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", endpointPublishEvent),
	)
}
