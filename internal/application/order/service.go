package order

import (
	"context"

	"github.com/Ansuman-Mahapatra/farmdirect/internal/domain/identity"
	domain "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/order"
	domoutbox "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/outbox"
	dompay "github.com/Ansuman-Mahapatra/farmdirect/internal/domain/payment"
	"github.com/Ansuman-Mahapatra/farmdirect/internal/observability"
)

type Dependencies struct {
	Orders    domain.Repository
	Catalog   ProductCatalog
	Ledger    InventoryLedger
	Gateway   dompay.Gateway
	IDs       IDGenerator
	Publisher domoutbox.Publisher
	Telemetry observability.Observability
}

// Workflow groups the order use cases behind the operations the transport
// layer calls.
type Workflow struct {
	create  *CreateOrderUseCase
	confirm *ConfirmPaymentUseCase
	get     *GetOrderUseCase
	list    *ListOrdersUseCase
}

func NewWorkflow(deps Dependencies, opts Options) *Workflow {
	return &Workflow{
		create:  NewCreateOrderUseCase(deps.Orders, deps.Catalog, deps.Ledger, deps.Gateway, deps.IDs, deps.Telemetry, opts),
		confirm: NewConfirmPaymentUseCase(deps.Orders, deps.Gateway, deps.Publisher, deps.Telemetry),
		get:     NewGetOrderUseCase(deps.Orders, deps.Telemetry),
		list:    NewListOrdersUseCase(deps.Orders, deps.Telemetry),
	}
}

func (w *Workflow) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	return w.create.Execute(ctx, in)
}

func (w *Workflow) ConfirmPayment(ctx context.Context, in ConfirmPaymentInput) (*ConfirmPaymentResult, error) {
	return w.confirm.Execute(ctx, in)
}

func (w *Workflow) GetOrder(ctx context.Context, caller identity.Caller, orderID string) (*domain.Order, error) {
	return w.get.Execute(ctx, GetOrderInput{Caller: caller, OrderID: orderID})
}

func (w *Workflow) ListOrders(ctx context.Context, caller identity.Caller) ([]*domain.Order, error) {
	return w.list.Execute(ctx, ListOrdersInput{Caller: caller})
}
