// Package sellers expõe as métricas de vendas e os pedidos do vendedor autenticado.
package sellers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matheusmosca/marketplace/internal/httpx"
	"github.com/matheusmosca/marketplace/internal/orders"
)

const (
	statsMonths    = 12
	topProductsMax = 10
)

// Stats agrega catálogo e vendas. Pedidos cancelados ou reembolsados não entram na receita.
type Stats struct {
	TotalProducts   int              `json:"total_products"`
	InStockProducts int              `json:"in_stock_products"`
	UnitsSold       int64            `json:"total_sales"`
	TotalRevenue    decimal.Decimal  `json:"total_revenue"`
	MonthlyRevenue  []MonthlyRevenue `json:"monthly_revenue"`
	TopProducts     []TopProduct     `json:"top_products"`
}

type ProductCounts struct {
	Total   int
	InStock int
}

type MonthlyRevenue struct {
	Month   string          `json:"month"` // YYYY-MM, UTC
	Revenue decimal.Decimal `json:"revenue"`
}

type TopProduct struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image_url"`
	UnitsSold   int64           `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// OrderFilter filtra os pedidos que contêm itens do vendedor
type OrderFilter struct {
	SellerID  uuid.UUID
	Status    orders.Status
	ProductID *uuid.UUID
	Page      httpx.Page
}

// SellerOrder é o pedido visto pelo vendedor: só os itens dele aparecem
type SellerOrder struct {
	OrderID         uuid.UUID         `json:"order_id"`
	OrderNumber     string            `json:"order_number"`
	BuyerID         uuid.UUID         `json:"buyer_id"`
	Status          orders.Status     `json:"order_status"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	BuyerName       string            `json:"buyer_name"`
	BuyerEmail      string            `json:"buyer_email"`
	DeliveryAddress string            `json:"delivery_address"`
	Items           []SellerOrderItem `json:"order_items"`
}

type SellerOrderItem struct {
	OrderID     uuid.UUID       `json:"-"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	ImageURL    *string         `json:"image_url"`
}
