package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/matheusmosca/marketplace/internal/apperr"
	"github.com/matheusmosca/marketplace/internal/database"
	"github.com/matheusmosca/marketplace/internal/httpx"
)

const maxOrderNumberAttempts = 5

// ProductInvalidator remove produtos do cache após mudança de estoque
type ProductInvalidator interface {
	Delete(ctx context.Context, ids ...uuid.UUID) error
}

// Pricing são as constantes do checkout
type Pricing struct {
	ShippingFee decimal.Decimal
	TaxRate     decimal.Decimal
}

type orderMetrics struct {
	placed   metric.Int64Counter
	rejected metric.Int64Counter
	amount   metric.Float64Histogram
}

func newOrderMetrics() (*orderMetrics, error) {
	meter := otel.Meter("marketplace/orders")

	placed, err := meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders committed"))
	if err != nil {
		return nil, err
	}
	rejected, err := meter.Int64Counter("orders.rejected",
		metric.WithDescription("Order placements rejected or aborted, by reason"))
	if err != nil {
		return nil, err
	}
	amount, err := meter.Float64Histogram("orders.final_amount",
		metric.WithDescription("Final amount of committed orders"))
	if err != nil {
		return nil, err
	}
	return &orderMetrics{placed: placed, rejected: rejected, amount: amount}, nil
}

// OrderUseCase contém a lógica de negócio dos pedidos
type OrderUseCase struct {
	repository Repository
	cache      ProductInvalidator
	pricing    Pricing
	metrics    *orderMetrics
	now        func() time.Time
	newNumber  func(time.Time) string
}

// NewOrderUseCase cria uma nova instância de OrderUseCase. cache pode ser nil.
func NewOrderUseCase(repository Repository, cache ProductInvalidator, pricing Pricing) (*OrderUseCase, error) {
	metrics, err := newOrderMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to create order metrics: %w", err)
	}
	return &OrderUseCase{
		repository: repository,
		cache:      cache,
		pricing:    pricing,
		metrics:    metrics,
		now:        time.Now,
		newNumber:  NewOrderNumber,
	}, nil
}

// PlaceOrder converte o carrinho do comprador em pedido. Qualquer falha desfaz
// a transação inteira: nenhum pedido, baixa de estoque ou limpeza de carrinho parcial.
func (uc *OrderUseCase) PlaceOrder(ctx context.Context, buyerID uuid.UUID, req PlaceOrderRequest) (*Order, error) {
	order, err := uc.placeOrder(ctx, buyerID, req)
	if err != nil {
		reason := rejectionReason(err)
		uc.metrics.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		slog.WarnContext(ctx, "❌ [PLACE ORDER] rejected", "buyer_id", buyerID, "reason", reason, "error", err)
		return nil, err
	}

	if uc.cache != nil {
		ids := make([]uuid.UUID, len(order.Items))
		for i, it := range order.Items {
			ids[i] = it.ProductID
		}
		if err := uc.cache.Delete(ctx, ids...); err != nil {
			slog.WarnContext(ctx, "⚠️ [PLACE ORDER] cache invalidation failed", "order_id", order.ID, "error", err)
		}
	}

	uc.metrics.placed.Add(ctx, 1)
	uc.metrics.amount.Record(ctx, order.FinalAmount.InexactFloat64())

	slog.InfoContext(ctx, "✅ [PLACE ORDER] order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"items", len(order.Items),
		"final_amount", order.FinalAmount.StringFixed(2),
	)
	return order, nil
}

func (uc *OrderUseCase) placeOrder(ctx context.Context, buyerID uuid.UUID, req PlaceOrderRequest) (*Order, error) {
	paymentMethod := strings.TrimSpace(req.PaymentMethod)
	if paymentMethod == "" {
		return nil, ErrPaymentMethodRequired
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	lines, err := uc.repository.LockCartLines(ctx, tx, buyerID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, l := range lines {
		if l.Quantity > l.Stock {
			return nil, &InsufficientStockError{
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				Requested:   l.Quantity,
				Available:   l.Stock,
			}
		}
	}

	addressID, err := uc.repository.ResolveAddress(ctx, tx, buyerID, req.ShippingAddressID)
	if err != nil {
		return nil, err
	}

	totals := ComputeTotals(lines, uc.pricing.ShippingFee, uc.pricing.TaxRate)
	order := &Order{
		BuyerID:           buyerID,
		TotalAmount:       totals.Subtotal,
		ShippingFee:       totals.ShippingFee,
		TaxAmount:         totals.Tax,
		FinalAmount:       totals.Total,
		PaymentMethod:     paymentMethod,
		ShippingAddressID: &addressID,
		Notes:             req.Notes,
	}

	if err := uc.insertWithUniqueNumber(ctx, tx, order); err != nil {
		return nil, err
	}

	if err := uc.repository.InsertItems(ctx, tx, order.ID, lines); err != nil {
		return nil, err
	}
	for _, l := range lines {
		if err := uc.repository.DecrementStock(ctx, tx, l); err != nil {
			return nil, err
		}
	}
	if err := uc.repository.ClearCart(ctx, tx, buyerID); err != nil {
		return nil, err
	}

	order.Items = itemsFromLines(order.ID, lines)
	event, err := newOrderPlacedEvent(order)
	if err != nil {
		return nil, err
	}
	if err := uc.repository.AddOutboxEvent(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	return order, nil
}

// insertWithUniqueNumber gera um novo order_number a cada colisão, até maxOrderNumberAttempts
func (uc *OrderUseCase) insertWithUniqueNumber(ctx context.Context, tx database.Tx, order *Order) error {
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		order.OrderNumber = uc.newNumber(uc.now())
		err := uc.repository.InsertOrder(ctx, tx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrOrderNumberTaken) {
			return err
		}
		slog.WarnContext(ctx, "🔁 [PLACE ORDER] order number collision",
			"order_number", order.OrderNumber, "attempt", attempt)
	}
	return ErrOrderNumberExhaust
}

func itemsFromLines(orderID uuid.UUID, lines []CartLine) []OrderItem {
	items := make([]OrderItem, len(lines))
	for i, l := range lines {
		items[i] = OrderItem{
			OrderID:     orderID,
			ProductID:   l.ProductID,
			SellerID:    l.SellerID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TotalPrice:  lineTotal(l),
		}
	}
	return items
}

type placedItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	SellerID  uuid.UUID       `json:"seller_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type orderPlacedPayload struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	FinalAmount decimal.Decimal `json:"final_amount"`
	Items       []placedItem    `json:"items"`
	PlacedAt    time.Time       `json:"placed_at"`
}

func newOrderPlacedEvent(order *Order) (OutboxEvent, error) {
	payload := orderPlacedPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		BuyerID:     order.BuyerID,
		FinalAmount: order.FinalAmount,
		Items:       make([]placedItem, len(order.Items)),
		PlacedAt:    order.CreatedAt,
	}
	for i, it := range order.Items {
		payload.Items[i] = placedItem{
			ProductID: it.ProductID,
			SellerID:  it.SellerID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return OutboxEvent{}, fmt.Errorf("failed to marshal order event: %w", err)
	}
	return OutboxEvent{AggregateID: order.ID, EventType: EventOrderPlaced, Payload: raw}, nil
}

func rejectionReason(err error) string {
	var stockErr *InsufficientStockError
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.Is(err, ErrPaymentMethodRequired):
		return "payment_method"
	default:
		return apperr.KindOf(err).String()
	}
}

// ListOrders lista os pedidos do comprador, mais recentes primeiro
func (uc *OrderUseCase) ListOrders(ctx context.Context, buyerID uuid.UUID, f ListFilter) ([]Order, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperr.Validation("Invalid filter",
			apperr.FieldError{Field: "status", Message: "unknown order status"})
	}
	if f.Page.Page < 1 {
		f.Page.Page = 1
	}
	if f.Page.Limit < 1 || f.Page.Limit > httpx.MaxLimit {
		f.Page.Limit = 10
	}
	return uc.repository.ListOrders(ctx, buyerID, f)
}

// GetOrder retorna o pedido com endereço e itens. Pedidos de outros compradores não são encontrados.
func (uc *OrderUseCase) GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*Order, error) {
	order, err := uc.repository.GetOrder(ctx, buyerID, orderID)
	if err != nil {
		return nil, err
	}
	order.Items, err = uc.repository.ListItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.ItemCount = len(order.Items)
	return order, nil
}
