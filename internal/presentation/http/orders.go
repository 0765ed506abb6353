package httppresentation

import (
	"errors"
	"net/http"
	"time"

	appOrder "github.com/Ansuman-Mahapatra/farmdirect/internal/application/order"
	domainOrder "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability/logctx"
)

type lineRequest struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
}

type createOrderRequest struct {
	Items           []lineRequest `json:"items"`
	DeliveryAddress string        `json:"delivery_address"`
}

type createOrderResponse struct {
	OrderID         string  `json:"order_id"`
	Status          string  `json:"status"`
	TotalAmount     float64 `json:"total_amount"`
	PaymentIntentID string  `json:"payment_intent_id"`
	GatewayKeyID    string  `json:"gateway_key_id"`
}

type confirmPaymentRequest struct {
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

type confirmPaymentResponse struct {
	OrderID          string `json:"order_id"`
	Status           string `json:"status"`
	AlreadyConfirmed bool   `json:"already_confirmed,omitempty"`
}

type orderLineResponse struct {
	ProductID string  `json:"product_id"`
	OwnerID   string  `json:"owner_id"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type orderResponse struct {
	OrderID         string              `json:"order_id"`
	ConsumerID      string              `json:"consumer_id"`
	Items           []orderLineResponse `json:"items"`
	TotalAmount     float64             `json:"total_amount"`
	Status          string              `json:"status"`
	DeliveryAddress string              `json:"delivery_address"`
	OrderDate       time.Time           `json:"order_date"`
	PaymentIntentID string              `json:"payment_intent_id,omitempty"`
	PaymentID       string              `json:"payment_id,omitempty"`
}

func toOrderResponse(o *domainOrder.Order) orderResponse {
	items := make([]orderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, orderLineResponse{
			ProductID: l.ProductID,
			OwnerID:   l.OwnerID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return orderResponse{
		OrderID:         o.ID,
		ConsumerID:      o.ConsumerID,
		Items:           items,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		DeliveryAddress: o.DeliveryAddress,
		OrderDate:       o.OrderDate,
		PaymentIntentID: o.IntentID,
		PaymentID:       o.PaymentID,
	}
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	lines := make([]appOrder.LineRequest, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, appOrder.LineRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	res, err := h.orders.CreateOrder(r.Context(), appOrder.CreateOrderInput{
		Caller:          caller,
		Lines:           lines,
		DeliveryAddress: req.DeliveryAddress,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createOrderResponse{
		OrderID:         res.Order.ID,
		Status:          string(res.Order.Status),
		TotalAmount:     res.Order.TotalAmount,
		PaymentIntentID: res.PaymentIntentID,
		GatewayKeyID:    res.GatewayKeyID,
	})
}

func (h *Handler) handleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	if _, err := callerFromRequest(r); err != nil {
		writeDomainError(w, err)
		return
	}

	var req confirmPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := h.orders.ConfirmPayment(r.Context(), appOrder.ConfirmPaymentInput{
		OrderID:   r.PathValue("orderId"),
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, confirmPaymentResponse{
		OrderID:          res.OrderID,
		Status:           string(res.Status),
		AlreadyConfirmed: res.AlreadyConfirmed,
	})
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	o, err := h.orders.GetOrder(r.Context(), caller, r.PathValue("orderId"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

type signatureRequest struct {
	IntentID  string `json:"payment_intent_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature,omitempty"`
}

// handleGenerateSignature signs an (intent, payment) pair with the configured
// secret so a checkout can be completed by hand against the sandbox.
func (h *Handler) handleGenerateSignature(w http.ResponseWriter, r *http.Request) {
	var req signatureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.IntentID == "" || req.PaymentID == "" {
		writeError(w, http.StatusBadRequest, errors.New("payment_intent_id and payment_id are required"))
		return
	}

	logctx.FromOr(r.Context(), h.log).Warn("debug_signature_generated",
		observability.F("payment_intent_id", req.IntentID),
	)
	writeJSON(w, http.StatusOK, map[string]string{
		"payment_intent_id": req.IntentID,
		"payment_id":        req.PaymentID,
		"signature":         h.gateway.ComputeSignature(req.IntentID, req.PaymentID),
	})
}

func (h *Handler) handleVerifySignature(w http.ResponseWriter, r *http.Request) {
	var req signatureRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{
		"valid": h.gateway.VerifySignature(req.IntentID, req.PaymentID, req.Signature),
	})
}
