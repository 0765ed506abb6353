package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	appOrder "github.com/Ansuman-Mahapatra/farmdirect/internal/application/order"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/domain/identity"
	domainOrder "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
	domainPayment "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/payment"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability/logctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// OrderWorkflow is what the handler needs from the application layer.
type OrderWorkflow interface {
	CreateOrder(ctx context.Context, in appOrder.CreateOrderInput) (*appOrder.CreateOrderResult, error)
	ConfirmPayment(ctx context.Context, in appOrder.ConfirmPaymentInput) (*appOrder.ConfirmPaymentResult, error)
	GetOrder(ctx context.Context, caller identity.Caller, orderID string) (*domainOrder.Order, error)
	ListOrders(ctx context.Context, caller identity.Caller) ([]*domainOrder.Order, error)
}

type Options struct {
	// SignatureDebug exposes the signature helper endpoints. Never enable in production.
	SignatureDebug bool
}

type Handler struct {
	orders  OrderWorkflow
	gateway domainPayment.Gateway
	opts    Options
	log     observability.Logger

	httpRequests observability.Counter
	httpDuration observability.Histogram
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerUserID         = "X-User-ID"
	headerUserRole       = "X-User-Role"
	maxBodyBytes         = 1 << 20
)

func NewHandler(orders OrderWorkflow, gateway domainPayment.Gateway, logger observability.Logger,
	tel observability.Observability, opts Options,
) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = tel.Logger()
	}
	return &Handler{
		orders:       orders,
		gateway:      gateway,
		opts:         opts,
		log:          baseLogger.With(observability.F("component", componentHTTPHandler)),
		httpRequests: tel.Metrics().Counter(observability.MHTTPRequests),
		httpDuration: tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// Trace → ObservabilityMiddleware (request logger) → HTTP metrics → Access log → Handler
	h.muxHandle(mux, http.MethodPost, "/api/consumer/orders", h.handleCreateOrder)
	h.muxHandle(mux, http.MethodGet, "/api/consumer/orders", h.handleListOrders)
	h.muxHandle(mux, http.MethodGet, "/api/consumer/orders/{orderId}", h.handleGetOrder)
	h.muxHandle(mux, http.MethodPost, "/api/consumer/orders/{orderId}/confirm-payment", h.handleConfirmPayment)
	h.muxHandle(mux, http.MethodGet, "/health", h.handleHealth)

	if h.opts.SignatureDebug && h.gateway != nil {
		h.muxHandle(mux, http.MethodPost, "/api/test/generate-test-signature", h.handleGenerateSignature)
		h.muxHandle(mux, http.MethodPost, "/api/test/verify-test-signature", h.handleVerifySignature)
	}

	return mux
}

func (h *Handler) muxHandle(mux *http.ServeMux, method, path string, handler http.HandlerFunc) {
	route := method + " " + path
	wrapped := h.withTrace(
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string {
				return r.Header.Get(headerRequestID)
			},
			func(r *http.Request) string {
				return r.Header.Get(headerUserID)
			},
		)(
			h.withHTTPMetrics(
				h.withAccessLog(handler),
			),
		),
	)

	mux.Handle(route, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Store stable route template for low-cardinality labels
		ctx := contextWithRoute(r.Context(), route)
		wrapped.ServeHTTP(w, r.WithContext(ctx))
	}))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("farmdirect.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := route
		if spanName == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}
		if template == "unknown" || template == "" {
			template = r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r.WithContext(ctxWithSpan))

		span.SetAttributes(attribute.Int("http.status_code", lrw.status))
		if lrw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(lrw.status))
		}
	})
}

// withHTTPMetrics records RED-ish HTTP metrics using injected vectors.
// DO NOT new metrics inside the middleware.
func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		labels := []observability.Label{
			observability.L("method", r.Method),
			observability.L("route", routeFromContext(r.Context())),
			observability.L("status", strconv.Itoa(lrw.status)),
		}
		h.httpRequests.Add(1, labels...)
		h.httpDuration.Observe(time.Since(start).Seconds(), labels...)
	})
}

// callerFromRequest resolves the identity asserted by the upstream auth gateway.
func callerFromRequest(r *http.Request) (identity.Caller, error) {
	return identity.New(
		strings.TrimSpace(r.Header.Get(headerUserID)),
		identity.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(headerUserRole)))),
	)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps the workflow error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, identity.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, appOrder.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, appOrder.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, appOrder.ErrInsufficientInventory):
		return http.StatusConflict
	case errors.Is(err, appOrder.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, appOrder.ErrGateway):
		return http.StatusBadGateway
	case errors.Is(err, appOrder.ErrSignature):
		return http.StatusUnauthorized
	case errors.Is(err, appOrder.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError hides internal causes behind 500s; everything else is
// safe to echo.
func writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, errors.New("internal error"))
		return
	}
	writeError(w, status, err)
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
