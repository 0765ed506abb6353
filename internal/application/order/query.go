package order

import (
	"context"
	"errors"
	"time"

	"github.com/Ansuman-Mahapatra/farmdirect/internal/application"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/domain/identity"
	domain "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	useCaseOrderGet  = "order.get"
	useCaseOrderList = "order.list"
)

var (
	_ application.UseCase[GetOrderInput, *domain.Order]     = (*GetOrderUseCase)(nil)
	_ application.UseCase[ListOrdersInput, []*domain.Order] = (*ListOrdersUseCase)(nil)
)

type GetOrderInput struct {
	Caller  identity.Caller
	OrderID string
}

type ListOrdersInput struct {
	Caller identity.Caller
}

// queryInstruments is shared by the read use cases; they only differ in name.
type queryInstruments struct {
	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func newQueryInstruments(tel observability.Observability) queryInstruments {
	if tel == nil {
		tel = observability.Nop()
	}
	return queryInstruments{
		log:          tel.Logger().With(observability.F("service", orderService)),
		tracer:       tel.Tracer(),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

// observe starts the span and returns the func that records the outcome.
func (q queryInstruments) observe(ctx context.Context, useCase, spanName, callerID string) (context.Context, func(statusText string, err error)) {
	logger := logctx.FromOr(ctx, q.log).With(
		observability.F("use_case", useCase),
		observability.F("caller_id", callerID),
	)
	ctx, span := q.tracer.Start(ctx, spanPrefix+spanName, attribute.String("use_case", useCase))
	start := time.Now()

	return ctx, func(statusText string, err error) {
		lat := time.Since(start).Seconds()
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		q.reqCounter.Add(1, observability.L("use_case", useCase), observability.L("outcome", outcome))
		q.durHistogram.Observe(lat, observability.L("use_case", useCase))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}
}

type GetOrderUseCase struct {
	repo domain.Repository
	queryInstruments
}

func NewGetOrderUseCase(repo domain.Repository, tel observability.Observability) *GetOrderUseCase {
	return &GetOrderUseCase{repo: repo, queryInstruments: newQueryInstruments(tel)}
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, in GetOrderInput) (_ *domain.Order, err error) {
	ctx, done := uc.observe(ctx, useCaseOrderGet, "GetOrder", in.Caller.UserID)
	statusText := "OK"
	defer func() { done(statusText, err) }()

	if !in.Caller.Is(identity.RoleConsumer) {
		statusText = "CALLER_NOT_CONSUMER"
		return nil, errors.Join(ErrAuthorization, errors.New("only consumers can read orders"))
	}

	o, gerr := uc.repo.Get(ctx, in.OrderID)
	if gerr != nil {
		statusText = "ORDER_LOOKUP_FAILED"
		if errors.Is(gerr, domain.ErrNotFound) {
			statusText = "ORDER_NOT_FOUND"
		}
		return nil, wrapRepositoryError(gerr)
	}
	if !o.OwnedBy(in.Caller.UserID) {
		statusText = "ORDER_NOT_OWNED"
		return nil, errors.Join(ErrAuthorization, errors.New("order belongs to another consumer"))
	}
	return o, nil
}

type ListOrdersUseCase struct {
	repo domain.Repository
	queryInstruments
}

func NewListOrdersUseCase(repo domain.Repository, tel observability.Observability) *ListOrdersUseCase {
	return &ListOrdersUseCase{repo: repo, queryInstruments: newQueryInstruments(tel)}
}

// Execute returns the caller's own orders, newest first.
func (uc *ListOrdersUseCase) Execute(ctx context.Context, in ListOrdersInput) (_ []*domain.Order, err error) {
	ctx, done := uc.observe(ctx, useCaseOrderList, "ListOrders", in.Caller.UserID)
	statusText := "OK"
	defer func() { done(statusText, err) }()

	if !in.Caller.Is(identity.RoleConsumer) {
		statusText = "CALLER_NOT_CONSUMER"
		return nil, errors.Join(ErrAuthorization, errors.New("only consumers can list orders"))
	}

	orders, lerr := uc.repo.ListByConsumer(ctx, in.Caller.UserID)
	if lerr != nil {
		statusText = "REPO_LIST_FAILED"
		return nil, wrapRepositoryError(lerr)
	}
	return orders, nil
}
