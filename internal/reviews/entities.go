// Package reviews mantém as avaliações de produtos e o agregado de nota do produto.
package reviews

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matheusmosca/marketplace/internal/httpx"
)

// Review é a avaliação de um usuário para um produto (uma por par usuário/produto)
type Review struct {
	ID                 uuid.UUID `json:"review_id"`
	UserID             uuid.UUID `json:"user_id"`
	ProductID          uuid.UUID `json:"product_id"`
	Rating             int       `json:"rating"`
	Comment            *string   `json:"review_text"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	FirstName          string    `json:"first_name,omitempty"`
	LastName           string    `json:"last_name,omitempty"`
	ProductName        string    `json:"product_name,omitempty"`
}

// Rating é o agregado derivado gravado em products
type Rating struct {
	Average decimal.Decimal `json:"rating_average"`
	Count   int             `json:"total_reviews"`
}

var SortFields = map[string]string{
	"created_at": "r.created_at",
	"rating":     "r.rating",
}

// ProductFilter pagina e ordena as avaliações de um produto
type ProductFilter struct {
	ProductID uuid.UUID
	SortBy    string
	Page      httpx.Page
}

type CreateReviewRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Rating    int       `json:"rating" binding:"required,min=1,max=5"`
	Comment   *string   `json:"comment"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	Comment *string `json:"comment"`
}
