package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/marketplace/internal/apperr"
	"github.com/matheusmosca/marketplace/internal/auth"
	"github.com/matheusmosca/marketplace/internal/httpx"
)

// CatalogUseCaseInterface define a interface para o use case
type CatalogUseCaseInterface interface {
	ListProducts(ctx context.Context, f ProductFilter) ([]ProductListItem, int64, error)
	GetProduct(ctx context.Context, productID uuid.UUID, viewerID *uuid.UUID) (*ProductDetail, error)
	CreateProduct(ctx context.Context, sellerID uuid.UUID, req CreateProductRequest) (*Product, error)
	UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, req UpdateProductRequest) (*Product, error)
	DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error
	ListCategories(ctx context.Context) ([]Category, error)
}

// CatalogHandler contém os handlers HTTP de produtos e categorias
type CatalogHandler struct {
	useCase CatalogUseCaseInterface
	tracer  trace.Tracer
}

func NewCatalogHandler(useCase CatalogUseCaseInterface, tracer trace.Tracer) *CatalogHandler {
	return &CatalogHandler{useCase: useCase, tracer: tracer}
}

func viewerOf(c *gin.Context) *uuid.UUID {
	if p, ok := auth.PrincipalFrom(c); ok {
		id := p.UserID
		return &id
	}
	return nil
}

func queryDecimal(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperr.Validation("Invalid filter",
			apperr.FieldError{Field: name, Message: "must be a number"})
	}
	return &d, nil
}

// parseProductFilter lê filtros, ordenação e paginação da query string
func parseProductFilter(c *gin.Context) (ProductFilter, error) {
	page, err := httpx.ParsePage(c, httpx.DefaultLimit)
	if err != nil {
		return ProductFilter{}, err
	}

	f := ProductFilter{
		Category: c.Query("category"),
		Search:   strings.TrimSpace(c.Query("search")),
		SortBy:   c.DefaultQuery("sort_by", "created_at"),
		SortDesc: !strings.EqualFold(c.Query("sort_order"), "asc"),
		Page:     page,
		ViewerID: viewerOf(c),
	}

	if f.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		return ProductFilter{}, err
	}
	if f.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		return ProductFilter{}, err
	}

	if raw := c.Query("is_organic"); raw != "" {
		organic, err := strconv.ParseBool(raw)
		if err != nil {
			return ProductFilter{}, apperr.Validation("Invalid filter",
				apperr.FieldError{Field: "is_organic", Message: "must be true or false"})
		}
		f.IsOrganic = &organic
	}

	if raw := c.Query("seller_id"); raw != "" {
		sellerID, err := uuid.Parse(raw)
		if err != nil {
			return ProductFilter{}, apperr.Validation("Invalid filter",
				apperr.FieldError{Field: "seller_id", Message: "must be a valid UUID"})
		}
		f.SellerID = &sellerID
	}

	return f, nil
}

// ListProducts lista produtos ativos com filtros e paginação
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "catalog.list_products")
	defer span.End()

	f, err := parseProductFilter(c)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	products, total, err := h.useCase.ListProducts(ctx, f)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("products.total", total))
	httpx.OK(c, "", gin.H{
		"products":   products,
		"pagination": httpx.NewPagination(f.Page, total),
	})
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "catalog.get_product")
	defer span.End()

	productID, err := httpx.ParamUUID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	span.SetAttributes(attribute.String("product_id", productID.String()))

	product, err := h.useCase.GetProduct(ctx, productID, viewerOf(c))
	if err != nil {
		httpx.Error(c, err)
		return
	}

	httpx.OK(c, "", gin.H{"product": product})
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "catalog.create_product")
	defer span.End()

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, httpx.BindError(err))
		return
	}

	product, err := h.useCase.CreateProduct(ctx, auth.MustPrincipal(c).UserID, req)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	httpx.Created(c, "Product created successfully", gin.H{"product": product})
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "catalog.update_product")
	defer span.End()

	productID, err := httpx.ParamUUID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, httpx.BindError(err))
		return
	}

	product, err := h.useCase.UpdateProduct(ctx, auth.MustPrincipal(c).UserID, productID, req)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	httpx.OK(c, "Product updated successfully", gin.H{"product": product})
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "catalog.delete_product")
	defer span.End()

	productID, err := httpx.ParamUUID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	if err := h.useCase.DeleteProduct(ctx, auth.MustPrincipal(c).UserID, productID); err != nil {
		httpx.Error(c, err)
		return
	}

	httpx.OK(c, "Product deleted successfully", nil)
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.useCase.ListCategories(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, "", categories)
}

// RegisterRoutes monta as rotas de /products e /categories
func (h *CatalogHandler) RegisterRoutes(r *gin.RouterGroup, mw *auth.Middleware) {
	products := r.Group("/products")
	products.GET("", mw.OptionalAuth(), h.ListProducts)
	products.GET("/:id", mw.OptionalAuth(), h.GetProduct)
	products.POST("", mw.Authenticate(), mw.RequireSeller(), h.CreateProduct)
	products.PUT("/:id", mw.Authenticate(), mw.RequireSeller(), h.UpdateProduct)
	products.DELETE("/:id", mw.Authenticate(), mw.RequireSeller(), h.DeleteProduct)

	r.GET("/categories", h.ListCategories)
}
