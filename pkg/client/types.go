package client

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// envelope é o formato {success, message, data, errors} de todas as respostas
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []FieldError    `json:"errors"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// ListOptions são os parâmetros de paginação comuns às listagens
type ListOptions struct {
	Page  int
	Limit int
}

type User struct {
	ID        uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	UserType  string    `json:"user_type"`
}

type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type RegisterInput struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Phone     *string `json:"phone,omitempty"`
	UserType  string  `json:"user_type,omitempty"`
}

type Product struct {
	ID            uuid.UUID       `json:"product_id"`
	SellerID      uuid.UUID       `json:"seller_id"`
	Name          string          `json:"product_name"`
	Description   *string         `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Unit          string          `json:"unit"`
	IsOrganic     bool            `json:"is_organic"`
	RatingAverage decimal.Decimal `json:"rating_average"`
	TotalReviews  int             `json:"total_reviews"`
	CategoryName  *string         `json:"category_name,omitempty"`
	ImageURL      *string         `json:"image_url,omitempty"`
	IsFavorite    bool            `json:"is_favorite"`
}

// ProductQuery filtra a listagem de produtos. Campos zero são omitidos.
type ProductQuery struct {
	ListOptions
	Category  string
	Search    string
	IsOrganic *bool
	SortBy    string
	SortOrder string
}

type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

type CartItem struct {
	ID          uuid.UUID       `json:"cart_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type Cart struct {
	Items   []CartItem `json:"items"`
	Summary struct {
		ItemCount int             `json:"item_count"`
		Total     decimal.Decimal `json:"total"`
	} `json:"summary"`
}

type OrderItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type Order struct {
	ID            uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	Status        string          `json:"order_status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ShippingFee   decimal.Decimal `json:"shipping_fee"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
	ItemCount     int             `json:"item_count,omitempty"`
	Items         []OrderItem     `json:"items,omitempty"`
}

type PlaceOrderInput struct {
	ShippingAddressID *uuid.UUID `json:"shipping_address_id,omitempty"`
	PaymentMethod     string     `json:"payment_method"`
	Notes             *string    `json:"notes,omitempty"`
}

type OrderPage struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

type Review struct {
	ID                 uuid.UUID `json:"review_id"`
	ProductID          uuid.UUID `json:"product_id"`
	Rating             int       `json:"rating"`
	Comment            *string   `json:"review_text"`
	IsVerifiedPurchase bool      `json:"is_verified_purchase"`
	CreatedAt          time.Time `json:"created_at"`
}

type ReviewPage struct {
	Reviews    []Review   `json:"reviews"`
	Pagination Pagination `json:"pagination"`
}

type FavoriteProduct struct {
	FavoriteID  uuid.UUID       `json:"favorite_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
}

type FavoritePage struct {
	Favorites  []FavoriteProduct `json:"favorites"`
	Pagination Pagination        `json:"pagination"`
}
