// Package catalog expõe produtos, imagens e categorias do marketplace.
package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matheusmosca/marketplace/internal/httpx"
)

// ProductStatus representa o ciclo de vida do produto
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusDeleted  ProductStatus = "deleted"
)

// Product representa um produto anunciado por um vendedor
type Product struct {
	ID            uuid.UUID           `json:"product_id"`
	SellerID      uuid.UUID           `json:"seller_id"`
	CategoryID    *uuid.UUID          `json:"category_id,omitempty"`
	Name          string              `json:"product_name"`
	Description   *string             `json:"description,omitempty"`
	Price         decimal.Decimal     `json:"price"`
	StockQuantity int                 `json:"stock_quantity"`
	Unit          string              `json:"unit"`
	Weight        decimal.NullDecimal `json:"weight"`
	IsOrganic     bool                `json:"is_organic"`
	Origin        *string             `json:"origin,omitempty"`
	HarvestDate   *time.Time          `json:"harvest_date,omitempty"`
	Status        ProductStatus       `json:"product_status"`
	RatingAverage decimal.Decimal     `json:"rating_average"`
	TotalReviews  int                 `json:"total_reviews"`
	TotalSales    int                 `json:"total_sales"`
	ViewsCount    int                 `json:"views_count"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// ProductImage é uma imagem associada ao produto
type ProductImage struct {
	ID           uuid.UUID `json:"image_id"`
	URL          string    `json:"image_url"`
	IsPrimary    bool      `json:"is_primary"`
	DisplayOrder int       `json:"display_order"`
}

// SellerInfo resume o vendedor na página do produto
type SellerInfo struct {
	ID                  uuid.UUID       `json:"seller_id"`
	Name                string          `json:"seller_name"`
	Email               string          `json:"seller_email"`
	BusinessName        *string         `json:"business_name,omitempty"`
	BusinessDescription *string         `json:"business_description,omitempty"`
	Rating              decimal.Decimal `json:"seller_rating"`
}

// ProductDetail é a visão completa de um produto.
// IsFavorite depende do principal e nunca é armazenado no cache.
type ProductDetail struct {
	Product
	CategoryName *string        `json:"category_name,omitempty"`
	Seller       SellerInfo     `json:"seller"`
	Images       []ProductImage `json:"images"`
	IsFavorite   bool           `json:"is_favorite"`
}

// ProductListItem é a linha retornada na listagem de produtos
type ProductListItem struct {
	ID            uuid.UUID           `json:"product_id"`
	SellerID      uuid.UUID           `json:"seller_id"`
	Name          string              `json:"product_name"`
	Description   *string             `json:"description,omitempty"`
	Price         decimal.Decimal     `json:"price"`
	StockQuantity int                 `json:"stock_quantity"`
	Unit          string              `json:"unit"`
	Weight        decimal.NullDecimal `json:"weight"`
	IsOrganic     bool                `json:"is_organic"`
	Origin        *string             `json:"origin,omitempty"`
	RatingAverage decimal.Decimal     `json:"rating_average"`
	TotalReviews  int                 `json:"total_reviews"`
	TotalSales    int                 `json:"total_sales"`
	CreatedAt     time.Time           `json:"created_at"`
	CategoryName  *string             `json:"category_name,omitempty"`
	SellerName    string              `json:"seller_name"`
	BusinessName  *string             `json:"business_name,omitempty"`
	ImageURL      *string             `json:"image_url,omitempty"`
	IsFavorite    bool                `json:"is_favorite"`
}

// Category agrupa produtos
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	ImageURL    *string   `json:"image_url,omitempty"`
}

// SortFields são as colunas aceitas em sort_by
var SortFields = map[string]bool{
	"created_at":     true,
	"price":          true,
	"rating_average": true,
	"total_sales":    true,
	"product_name":   true,
}

// ProductFilter reúne filtros, ordenação e paginação da listagem
type ProductFilter struct {
	Category  string
	Search    string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	IsOrganic *bool
	SellerID  *uuid.UUID
	SortBy    string
	SortDesc  bool
	Page      httpx.Page
	ViewerID  *uuid.UUID
}

// ImageInput é uma imagem enviada na criação do produto
type ImageInput struct {
	URL       string `json:"image_url" binding:"required,url"`
	IsPrimary bool   `json:"is_primary"`
}

// CreateProductRequest representa a requisição de criação de produto
type CreateProductRequest struct {
	CategoryID    *uuid.UUID          `json:"category_id"`
	Name          string              `json:"product_name" binding:"required,max=255"`
	Description   *string             `json:"description"`
	Price         decimal.Decimal     `json:"price"`
	StockQuantity *int                `json:"stock_quantity" binding:"required,gte=0"`
	Unit          string              `json:"unit" binding:"omitempty,max=32"`
	Weight        decimal.NullDecimal `json:"weight"`
	IsOrganic     bool                `json:"is_organic"`
	Origin        *string             `json:"origin"`
	HarvestDate   *string             `json:"harvest_date" binding:"omitempty,datetime=2006-01-02"`
	Images        []ImageInput        `json:"images" binding:"omitempty,dive"`
}

// UpdateProductRequest contém os campos opcionais da atualização
type UpdateProductRequest struct {
	CategoryID    *uuid.UUID       `json:"category_id"`
	Name          *string          `json:"product_name" binding:"omitempty,min=1,max=255"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity *int             `json:"stock_quantity" binding:"omitempty,gte=0"`
	Unit          *string          `json:"unit" binding:"omitempty,max=32"`
	Weight        *decimal.Decimal `json:"weight"`
	IsOrganic     *bool            `json:"is_organic"`
	Origin        *string          `json:"origin"`
	Status        *ProductStatus   `json:"product_status" binding:"omitempty,oneof=active inactive"`
}
