// Package cart mantém as linhas de carrinho de cada usuário.
package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine é a linha persistida (usuário, produto, quantidade)
type CartLine struct {
	ID        uuid.UUID `json:"cart_id"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item é a linha do carrinho enriquecida com os dados atuais do produto
type Item struct {
	ID            uuid.UUID       `json:"cart_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Unit          string          `json:"unit"`
	ImageURL      *string         `json:"image_url,omitempty"`
	Quantity      int             `json:"quantity"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	AddedAt       time.Time       `json:"added_at"`
}

// Summary resume o carrinho
type Summary struct {
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// Cart é o carrinho completo do usuário
type Cart struct {
	Items   []Item  `json:"items"`
	Summary Summary `json:"summary"`
}

// NewCart calcula subtotais e o resumo com aritmética decimal
func NewCart(items []Item) *Cart {
	total := decimal.Zero
	for i := range items {
		items[i].Subtotal = items[i].Price.Mul(decimal.NewFromInt(int64(items[i].Quantity))).Round(2)
		total = total.Add(items[i].Subtotal)
	}
	if items == nil {
		items = []Item{}
	}
	return &Cart{
		Items:   items,
		Summary: Summary{ItemCount: len(items), Total: total.Round(2)},
	}
}

// AddItemRequest adiciona um produto ao carrinho (quantidade padrão 1)
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  *int      `json:"quantity" binding:"omitempty,gte=1"`
}

// UpdateQuantityRequest define a nova quantidade da linha
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,gte=1"`
}
