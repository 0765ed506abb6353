package order

import (
	"context"
	"errors"
	"time"

	"github.com/Ansuman-Mahapatra/farmdirect/internal/application"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/domain/identity"
	dominv "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/inventory"
	domain "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
	dompay "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/payment"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	useCaseOrderCreate    = "order.create"
	endpointCreateIntent  = "create_intent"
	compensationMetricKey = "reason"
)

var _ application.UseCase[CreateOrderInput, *CreateOrderResult] = (*CreateOrderUseCase)(nil)

type LineRequest struct {
	ProductID string
	Quantity  float64
}

type CreateOrderInput struct {
	Caller          identity.Caller
	Lines           []LineRequest
	DeliveryAddress string
}

type CreateOrderResult struct {
	Order           *domain.Order
	PaymentIntentID string
	// GatewayKeyID is the public key the client needs to complete checkout.
	GatewayKeyID string
}

// reservation is one successful ledger decrement of the current attempt.
type reservation struct {
	productID string
	quantity  float64
}

// CreateOrderUseCase reserves every line, persists the order and opens a payment
// intent. When a step fails after stock was taken, the steps already done are
// undone in reverse order before the error is returned.
type CreateOrderUseCase struct {
	repo        domain.Repository
	catalog     ProductCatalog
	ledger      InventoryLedger
	gateway     dompay.Gateway
	idGenerator IDGenerator
	opts        Options

	log    observability.Logger
	tracer observability.Tracer

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
	compensation observability.Counter   // inventory_compensations_total{reason}
}

func NewCreateOrderUseCase(
	repo domain.Repository,
	catalog ProductCatalog,
	ledger InventoryLedger,
	gateway dompay.Gateway,
	idGen IDGenerator,
	tel observability.Observability,
	opts Options,
) *CreateOrderUseCase {
	baseLog := observability.NopLogger()
	tracer := observability.NopTracer()
	metricsProvider := observability.NopMetrics()
	if tel != nil {
		baseLog = tel.Logger()
		tracer = tel.Tracer()
		metricsProvider = tel.Metrics()
	}

	return &CreateOrderUseCase{
		repo:         repo,
		catalog:      catalog,
		ledger:       ledger,
		gateway:      gateway,
		idGenerator:  idGen,
		opts:         opts.withDefaults(),
		log:          baseLog.With(observability.F("service", orderService)),
		tracer:       tracer,
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
		extCounter:   metricsProvider.Counter(observability.MExternalRequests),
		extHistogram: metricsProvider.Histogram(observability.MExternalRequestDuration),
		compensation: metricsProvider.Counter(observability.MInventoryCompensations),
	}
}

// Execute performs the order creation flow.
func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderInput) (_ *CreateOrderResult, err error) {
	ctx, logger := logctx.WithFields(ctx, uc.log,
		observability.F("use_case", useCaseOrderCreate),
		observability.F("consumer_id", cmd.Caller.UserID),
	)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"CreateOrder",
		attribute.String("use_case", useCaseOrderCreate),
		attribute.String("order.consumer_id", cmd.Caller.UserID),
		attribute.Int("order.lines", len(cmd.Lines)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var orderID string

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseOrderCreate),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseOrderCreate),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if orderID != "" {
			fields = append(fields, observability.F("order_id", orderID))
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

	if !cmd.Caller.Is(identity.RoleConsumer) {
		outcome, statusText = "error", "CALLER_NOT_CONSUMER"
		return nil, errors.Join(ErrAuthorization, errors.New("only consumers can place orders"))
	}
	if verr := validateCreate(cmd); verr != nil {
		outcome, statusText = "error", "VALIDATION_FAILED"
		return nil, verr
	}
	if cerr := ctx.Err(); cerr != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, cerr
	}

	reserved := make([]reservation, 0, len(cmd.Lines))
	lines := make([]domain.Line, 0, len(cmd.Lines))
	for _, req := range cmd.Lines {
		product, lerr := uc.catalog.Get(ctx, req.ProductID)
		if lerr != nil {
			outcome, statusText = "error", "PRODUCT_LOOKUP_FAILED"
			uc.abandonLines(ctx, logger, reserved)
			return nil, wrapInventoryError(req.ProductID, lerr)
		}

		left, rerr := uc.ledger.Reserve(ctx, product.ID, req.Quantity)
		if rerr != nil {
			outcome, statusText = "error", "RESERVE_FAILED"
			if errors.Is(rerr, dominv.ErrInsufficientInventory) {
				statusText = "INSUFFICIENT_INVENTORY"
			}
			uc.abandonLines(ctx, logger, reserved)
			return nil, wrapInventoryError(req.ProductID, rerr)
		}
		logger.Debug("inventory_reserved",
			observability.F("product_id", product.ID),
			observability.F("quantity", req.Quantity),
			observability.F("available", left),
		)

		reserved = append(reserved, reservation{productID: product.ID, quantity: req.Quantity})
		lines = append(lines, domain.Line{
			ProductID: product.ID,
			OwnerID:   product.OwnerID,
			Quantity:  req.Quantity,
			UnitPrice: product.UnitPrice,
		})
	}
	span.AddEvent("order.inventory_reserved",
		trace.WithAttributes(attribute.Int("order.reserved_lines", len(reserved))),
	)

	entity, derr := domain.New(uc.idGenerator.NewID(), cmd.Caller.UserID, cmd.DeliveryAddress, lines)
	if derr != nil {
		outcome, statusText = "error", "TOTAL_INVALID"
		uc.compensate(ctx, logger, "", reserved, dominv.ReleaseReasonInvalidTotal)
		return nil, errors.Join(ErrValidation, derr)
	}
	orderID = entity.ID
	span.SetAttributes(
		attribute.String("order.id", entity.ID),
		attribute.Float64("order.total_amount", entity.TotalAmount),
	)

	if ierr := uc.repo.Insert(ctx, entity); ierr != nil {
		outcome, statusText = "error", "REPO_INSERT_FAILED"
		uc.compensate(ctx, logger, "", reserved, dominv.ReleaseReasonPersistFailed)
		return nil, wrapRepositoryError(ierr)
	}

	intent, gerr := uc.createIntent(ctx, entity)
	if gerr != nil {
		outcome, statusText = "error", "INTENT_CREATE_FAILED"
		if errors.Is(gerr, context.DeadlineExceeded) {
			statusText = "INTENT_CREATE_TIMEOUT"
		}
		uc.compensate(ctx, logger, entity.ID, reserved, dominv.ReleaseReasonIntentFailed)
		return nil, errors.Join(ErrPaymentIntentCreationFailed, gerr)
	}

	stored, aerr := uc.repo.AttachIntent(ctx, entity.ID, intent.ID)
	if aerr != nil {
		outcome, statusText = "error", "INTENT_ATTACH_FAILED"
		uc.compensate(ctx, logger, entity.ID, reserved, dominv.ReleaseReasonPersistFailed)
		return nil, wrapRepositoryError(aerr)
	}

	span.SetAttributes(attribute.String("order.status", string(stored.Status)))
	span.AddEvent("order.created",
		trace.WithAttributes(
			attribute.String("order.id", stored.ID),
			attribute.String("payment.intent_id", intent.ID),
		),
	)

	return &CreateOrderResult{
		Order:           stored,
		PaymentIntentID: intent.ID,
		GatewayKeyID:    uc.gateway.PublicKey(),
	}, nil
}

func (uc *CreateOrderUseCase) createIntent(ctx context.Context, o *domain.Order) (dompay.Intent, error) {
	gctx, cancel := context.WithTimeout(ctx, uc.opts.GatewayTimeout)
	defer cancel()

	start := time.Now()
	intent, err := uc.gateway.CreateIntent(gctx, o.ID, dompay.ToMinorUnits(o.TotalAmount), uc.opts.Currency)
	if err == nil && intent.ID == "" {
		err = errors.New("gateway returned an empty intent id")
	}

	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(gctx.Err(), context.DeadlineExceeded):
		outcome = "timeout"
		if !errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(err, context.DeadlineExceeded)
		}
	default:
		outcome = "error"
	}

	uc.extCounter.Add(1,
		observability.L("peer", gatewayPeer),
		observability.L("endpoint", endpointCreateIntent),
		observability.L("outcome", outcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", gatewayPeer),
		observability.L("endpoint", endpointCreateIntent),
	)
	return intent, err
}

// abandonLines handles lines reserved before a later line failed.
func (uc *CreateOrderUseCase) abandonLines(ctx context.Context, logger observability.Logger, reserved []reservation) {
	if len(reserved) == 0 {
		return
	}
	if uc.opts.ReservationMode == ReservationLegacyPartial {
		logger.Warn("reservation_left_partial",
			observability.F("reserved_lines", len(reserved)),
		)
		return
	}
	uc.compensate(ctx, logger, "", reserved, dominv.ReleaseReasonLineFailed)
}

// compensate releases every reservation once, newest first, then deletes the
// order when one was persisted. It runs detached from the caller's
// cancellation so an abandoned request still restores stock.
func (uc *CreateOrderUseCase) compensate(ctx context.Context, logger observability.Logger, orderID string, reserved []reservation, reason string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.opts.CompensationTimeout)
	defer cancel()

	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		left, err := uc.ledger.Release(cctx, r.productID, r.quantity)
		if err != nil {
			logger.Error("compensation_release_failed",
				observability.F("product_id", r.productID),
				observability.F("quantity", r.quantity),
				observability.F("reason", reason),
				observability.F("error", err.Error()),
			)
			continue
		}
		logger.Info("inventory_released",
			observability.F("product_id", r.productID),
			observability.F("quantity", r.quantity),
			observability.F("available", left),
			observability.F("reason", reason),
		)
	}
	if len(reserved) > 0 {
		uc.compensation.Add(1, observability.L(compensationMetricKey, reason))
	}

	if orderID == "" {
		return
	}
	if err := uc.repo.Delete(cctx, orderID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Error("compensation_order_delete_failed",
			observability.F("order_id", orderID),
			observability.F("reason", reason),
			observability.F("error", err.Error()),
		)
		return
	}
	logger.Info("order_deleted",
		observability.F("order_id", orderID),
		observability.F("reason", reason),
	)
}

func validateCreate(cmd CreateOrderInput) error {
	if cmd.DeliveryAddress == "" {
		return newValidation("delivery address is required")
	}
	if len(cmd.Lines) == 0 {
		return newValidation("at least one line is required")
	}
	seen := make(map[string]struct{}, len(cmd.Lines))
	for _, l := range cmd.Lines {
		if l.ProductID == "" {
			return newValidation("product id is required")
		}
		if l.Quantity <= 0 {
			return newValidation("quantity must be greater than zero")
		}
		if _, dup := seen[l.ProductID]; dup {
			return newValidation("product " + l.ProductID + " appears more than once")
		}
		seen[l.ProductID] = struct{}{}
	}
	return nil
}
