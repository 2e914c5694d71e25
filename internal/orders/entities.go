// Package orders converte o carrinho em pedido dentro de uma única transação
// e publica os eventos de pedido via outbox.
package orders

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matheusmosca/marketplace/internal/apperr"
	"github.com/matheusmosca/marketplace/internal/httpx"
)

// Status representa os possíveis status de um pedido
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

const EventOrderPlaced = "order.placed"

// Order é o registro imutável do pedido. TotalAmount é o subtotal dos itens.
type Order struct {
	ID                uuid.UUID        `json:"order_id"`
	OrderNumber       string           `json:"order_number"`
	BuyerID           uuid.UUID        `json:"buyer_id"`
	TotalAmount       decimal.Decimal  `json:"total_amount"`
	ShippingFee       decimal.Decimal  `json:"shipping_fee"`
	TaxAmount         decimal.Decimal  `json:"tax_amount"`
	FinalAmount       decimal.Decimal  `json:"final_amount"`
	PaymentMethod     string           `json:"payment_method"`
	PaymentStatus     string           `json:"payment_status"`
	Status            Status           `json:"order_status"`
	ShippingAddressID *uuid.UUID       `json:"shipping_address_id"`
	Notes             *string          `json:"notes"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	ItemCount         int              `json:"item_count,omitempty"`
	ShippingAddress   *ShippingAddress `json:"shipping_address,omitempty"`
	Items             []OrderItem      `json:"items,omitempty"`
}

// OrderItem é o snapshot de uma linha comprada
type OrderItem struct {
	ID          uuid.UUID       `json:"order_item_id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Unit        string          `json:"unit,omitempty"`
	ImageURL    *string         `json:"image_url,omitempty"`
}

type ShippingAddress struct {
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
}

// CartLine é uma linha do carrinho lida (e travada) dentro da transação do pedido
type CartLine struct {
	ProductID   uuid.UUID
	SellerID    uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Stock       int
}

// PlaceOrderRequest representa a requisição de fechamento do pedido
type PlaceOrderRequest struct {
	ShippingAddressID *uuid.UUID `json:"shipping_address_id"`
	PaymentMethod     string     `json:"payment_method"`
	Notes             *string    `json:"notes"`
}

// ListFilter filtra a listagem de pedidos do comprador
type ListFilter struct {
	Status Status
	Page   httpx.Page
}

// OutboxEvent é um evento gravado na mesma transação do pedido
type OutboxEvent struct {
	ID          int64
	AggregateID uuid.UUID
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

var (
	ErrPaymentMethodRequired = apperr.Validation("Payment method is required",
		apperr.FieldError{Field: "payment_method", Message: "is required"})
	ErrEmptyCart          = apperr.Validation("Cart is empty")
	ErrOrderNotFound      = apperr.NotFound("Order not found")
	ErrAddressNotFound    = apperr.NotFound("Shipping address not found")
	ErrOrderNumberTaken   = apperr.Conflict("Order number already in use")
	ErrOrderNumberExhaust = apperr.Conflict("Could not allocate a unique order number, please retry")
)

// InsufficientStockError é retornado quando uma linha pede mais do que o estoque atual
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s", e.ProductName)
}

func (e *InsufficientStockError) Kind() apperr.Kind {
	return apperr.KindValidation
}
