// Package favorites guarda a lista de produtos favoritos de cada usuário.
package favorites

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Favorite struct {
	ID        uuid.UUID `json:"favorite_id"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

// FavoriteProduct é a linha da listagem: o favorito com o resumo do produto
type FavoriteProduct struct {
	FavoriteID    uuid.UUID       `json:"favorite_id"`
	FavoritedAt   time.Time       `json:"favorited_at"`
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Description   *string         `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Unit          string          `json:"unit"`
	StockQuantity int             `json:"stock_quantity"`
	IsOrganic     bool            `json:"is_organic"`
	RatingAverage decimal.Decimal `json:"rating_average"`
	TotalReviews  int             `json:"total_reviews"`
	CategoryName  *string         `json:"category_name"`
	ImageURL      *string         `json:"image_url"`
}

type FavoriteRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
}

// Membership é a resposta de check e toggle
type Membership struct {
	IsFavorite bool `json:"is_favorite"`
}
