// Package client é o cliente Go da API do marketplace. Login e Register
// guardam o token e o enviam como Bearer nas chamadas seguintes.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const defaultTimeout = 15 * time.Second

// APIError é retornado para qualquer resposta com success=false
type APIError struct {
	StatusCode int
	Message    string
	Fields     []FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketplace api: %d %s", e.StatusCode, e.Message)
}

type Client struct {
	http *resty.Client
}

// New cria o cliente para baseURL (ex.: http://localhost:8080/api)
func New(baseURL string) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json")
	return &Client{http: r}
}

// SetToken define o token enviado nas requisições. Não é seguro chamar
// concorrentemente com requisições em andamento.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

func (c *Client) do(ctx context.Context, method, path string, body any, query url.Values, out any) error {
	var env envelope
	req := c.http.R().
		SetContext(ctx).
		SetResult(&env).
		SetError(&env)
	if body != nil {
		req.SetBody(body)
	}
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return &APIError{StatusCode: resp.StatusCode(), Message: msg, Fields: env.Errors}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	return q
}

// Auth

func (c *Client) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, nil, &s); err != nil {
		return nil, err
	}
	c.SetToken(s.Token)
	return &s, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, nil, &s); err != nil {
		return nil, err
	}
	c.SetToken(s.Token)
	return &s, nil
}

func (c *Client) Profile(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Products

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	values := q.ListOptions.values()
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	if q.IsOrganic != nil {
		values.Set("is_organic", strconv.FormatBool(*q.IsOrganic))
	}
	if q.SortBy != "" {
		values.Set("sort_by", q.SortBy)
	}
	if q.SortOrder != "" {
		values.Set("sort_order", q.SortOrder)
	}

	var page ProductPage
	if err := c.do(ctx, http.MethodGet, "/products", nil, values, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	var out struct {
		Product Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Product, nil
}

// Cart

func (c *Client) GetCart(ctx context.Context) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, http.MethodGet, "/cart", nil, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) AddToCart(ctx context.Context, productID uuid.UUID, quantity int) error {
	body := map[string]any{"product_id": productID, "quantity": quantity}
	return c.do(ctx, http.MethodPost, "/cart", body, nil, nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, cartID uuid.UUID, quantity int) error {
	return c.do(ctx, http.MethodPut, "/cart/"+cartID.String(), map[string]int{"quantity": quantity}, nil, nil)
}

func (c *Client) RemoveCartItem(ctx context.Context, cartID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/cart/"+cartID.String(), nil, nil, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart", nil, nil, nil)
}

// Orders

func (c *Client) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error) {
	var out struct {
		Order Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders", in, nil, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

func (c *Client) ListOrders(ctx context.Context, opts ListOptions, status string) (*OrderPage, error) {
	values := opts.values()
	if status != "" {
		values.Set("status", status)
	}
	var page OrderPage
	if err := c.do(ctx, http.MethodGet, "/orders", nil, values, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	var out struct {
		Order Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders/"+id.String(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

// Favorites

func (c *Client) ListFavorites(ctx context.Context, opts ListOptions) (*FavoritePage, error) {
	var page FavoritePage
	if err := c.do(ctx, http.MethodGet, "/favorites", nil, opts.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ToggleFavorite retorna se o produto ficou nos favoritos
func (c *Client) ToggleFavorite(ctx context.Context, productID uuid.UUID) (bool, error) {
	var out struct {
		IsFavorite bool `json:"is_favorite"`
	}
	body := map[string]uuid.UUID{"product_id": productID}
	if err := c.do(ctx, http.MethodPost, "/favorites/toggle", body, nil, &out); err != nil {
		return false, err
	}
	return out.IsFavorite, nil
}

func (c *Client) IsFavorite(ctx context.Context, productID uuid.UUID) (bool, error) {
	var out struct {
		IsFavorite bool `json:"is_favorite"`
	}
	if err := c.do(ctx, http.MethodGet, "/favorites/check/"+productID.String(), nil, nil, &out); err != nil {
		return false, err
	}
	return out.IsFavorite, nil
}

// Reviews

func (c *Client) ProductReviews(ctx context.Context, productID uuid.UUID, opts ListOptions) (*ReviewPage, error) {
	var page ReviewPage
	if err := c.do(ctx, http.MethodGet, "/reviews/products/"+productID.String(), nil, opts.values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) CreateReview(ctx context.Context, productID uuid.UUID, rating int, comment *string) (*Review, error) {
	body := map[string]any{"product_id": productID, "rating": rating}
	if comment != nil {
		body["comment"] = *comment
	}
	var review Review
	if err := c.do(ctx, http.MethodPost, "/reviews", body, nil, &review); err != nil {
		return nil, err
	}
	return &review, nil
}
