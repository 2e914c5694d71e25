package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/matheusmosca/marketplace/internal/apperr"
	"github.com/matheusmosca/marketplace/internal/auth"
	"github.com/matheusmosca/marketplace/internal/httpx"
)

type MockUseCase struct {
	mock.Mock
}

func (m *MockUseCase) ListProducts(ctx context.Context, f ProductFilter) ([]ProductListItem, int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]ProductListItem), args.Get(1).(int64), args.Error(2)
}

func (m *MockUseCase) GetProduct(ctx context.Context, productID uuid.UUID, viewerID *uuid.UUID) (*ProductDetail, error) {
	args := m.Called(ctx, productID, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ProductDetail), args.Error(1)
}

func (m *MockUseCase) CreateProduct(ctx context.Context, sellerID uuid.UUID, req CreateProductRequest) (*Product, error) {
	args := m.Called(ctx, sellerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockUseCase) UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, req UpdateProductRequest) (*Product, error) {
	args := m.Called(ctx, sellerID, productID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockUseCase) DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error {
	return m.Called(ctx, sellerID, productID).Error(0)
}

func (m *MockUseCase) ListCategories(ctx context.Context) ([]Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Category), args.Error(1)
}

type stubAuthenticator struct {
	principal auth.Principal
}

func (s stubAuthenticator) Authenticate(context.Context, string) (auth.Principal, error) {
	return s.principal, nil
}

func newTestRouter(uc CatalogUseCaseInterface, principal auth.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewCatalogHandler(uc, noop.NewTracerProvider().Tracer("test"))
	h.RegisterRoutes(r.Group("/api"), auth.NewMiddleware(stubAuthenticator{principal: principal}))
	return r
}

func TestParseProductFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	sellerID := uuid.New()
	c.Request = httptest.NewRequest(http.MethodGet,
		"/?category=Fruits&search=+mango+&min_price=1.50&max_price=20&is_organic=true&sort_by=price&sort_order=asc&page=2&limit=5&seller_id="+sellerID.String(), nil)

	f, err := parseProductFilter(c)

	require.NoError(t, err)
	assert.Equal(t, "Fruits", f.Category)
	assert.Equal(t, "mango", f.Search)
	assert.True(t, decimal.RequireFromString("1.5").Equal(*f.MinPrice))
	assert.True(t, decimal.NewFromInt(20).Equal(*f.MaxPrice))
	assert.True(t, *f.IsOrganic)
	assert.Equal(t, "price", f.SortBy)
	assert.False(t, f.SortDesc)
	assert.Equal(t, httpx.Page{Page: 2, Limit: 5}, f.Page)
	assert.Equal(t, sellerID, *f.SellerID)
	assert.Nil(t, f.ViewerID)
}

func TestParseProductFilter_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	f, err := parseProductFilter(c)

	require.NoError(t, err)
	assert.Equal(t, "created_at", f.SortBy)
	assert.True(t, f.SortDesc)
	assert.Equal(t, httpx.Page{Page: 1, Limit: 20}, f.Page)
	assert.Nil(t, f.IsOrganic)
}

func TestParseProductFilter_Invalid(t *testing.T) {
	for _, q := range []string{"min_price=abc", "is_organic=maybe", "seller_id=42", "limit=500"} {
		t.Run(q, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/?"+q, nil)

			_, err := parseProductFilter(c)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestListProducts_Envelope(t *testing.T) {
	uc := new(MockUseCase)
	items := []ProductListItem{{ID: uuid.New(), Name: "Rice", Price: decimal.NewFromInt(3)}}
	uc.On("ListProducts", mock.Anything, mock.Anything).Return(items, int64(41), nil)

	w := httptest.NewRecorder()
	newTestRouter(uc, auth.Principal{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products?limit=20", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Products   []ProductListItem `json:"products"`
			Pagination httpx.Pagination  `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Len(t, body.Data.Products, 1)
	assert.Equal(t, 3, body.Data.Pagination.Pages)
}

func TestGetProduct_PassesViewer(t *testing.T) {
	uc := new(MockUseCase)
	viewer := auth.Principal{UserID: uuid.New(), UserType: auth.UserTypeBuyer}
	productID := uuid.New()

	uc.On("GetProduct", mock.Anything, productID, mock.MatchedBy(func(v *uuid.UUID) bool {
		return v != nil && *v == viewer.UserID
	})).Return(&ProductDetail{Product: Product{ID: productID}, IsFavorite: true}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products/"+productID.String(), nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	newTestRouter(uc, viewer).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_favorite":true`)
}

func TestGetProduct_InvalidID(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(new(MockUseCase), auth.Principal{}).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateProduct_RequiresSeller(t *testing.T) {
	uc := new(MockUseCase)
	buyer := auth.Principal{UserID: uuid.New(), UserType: auth.UserTypeBuyer}

	req := httptest.NewRequest(http.MethodPost, "/api/products",
		strings.NewReader(`{"product_name":"Corn","price":"2.00","stock_quantity":5}`))
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	newTestRouter(uc, buyer).ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	uc.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateProduct_MissingStock(t *testing.T) {
	uc := new(MockUseCase)
	seller := auth.Principal{UserID: uuid.New(), UserType: auth.UserTypeSeller}

	req := httptest.NewRequest(http.MethodPost, "/api/products",
		strings.NewReader(`{"product_name":"Corn","price":"2.00"}`))
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	newTestRouter(uc, seller).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "stock_quantity")
}
