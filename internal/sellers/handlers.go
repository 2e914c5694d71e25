package sellers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/marketplace/internal/apperr"
	"github.com/matheusmosca/marketplace/internal/auth"
	"github.com/matheusmosca/marketplace/internal/httpx"
	"github.com/matheusmosca/marketplace/internal/orders"
)

// SellerUseCaseInterface define a interface para o use case
type SellerUseCaseInterface interface {
	Stats(ctx context.Context, sellerID uuid.UUID) (*Stats, error)
	Orders(ctx context.Context, f OrderFilter) ([]SellerOrder, int64, error)
}

type SellerHandler struct {
	useCase SellerUseCaseInterface
	tracer  trace.Tracer
}

func NewSellerHandler(useCase SellerUseCaseInterface, tracer trace.Tracer) *SellerHandler {
	return &SellerHandler{useCase: useCase, tracer: tracer}
}

func (h *SellerHandler) Stats(c *gin.Context) {
	sellerID := auth.MustPrincipal(c).UserID
	ctx, span := h.tracer.Start(c.Request.Context(), "sellers.stats")
	defer span.End()
	span.SetAttributes(attribute.String("seller_id", sellerID.String()))

	stats, err := h.useCase.Stats(ctx, sellerID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, "", stats)
}

func (h *SellerHandler) Orders(c *gin.Context) {
	page, err := httpx.ParsePage(c, httpx.DefaultLimit)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	f := OrderFilter{
		SellerID: auth.MustPrincipal(c).UserID,
		Status:   orders.Status(c.Query("status")),
		Page:     page,
	}
	raw := c.Query("product_id")
	if raw == "" {
		raw = c.Query("productId")
	}
	if raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Error(c, apperr.Validation("Invalid product_id",
				apperr.FieldError{Field: "product_id", Message: "must be a valid UUID"}))
			return
		}
		f.ProductID = &id
	}

	result, total, err := h.useCase.Orders(c.Request.Context(), f)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	httpx.OK(c, "", gin.H{
		"orders":     result,
		"pagination": httpx.NewPagination(page, total),
	})
}

// RegisterRoutes monta /sellers. Todas as rotas exigem papel de vendedor.
func (h *SellerHandler) RegisterRoutes(r *gin.RouterGroup, mw *auth.Middleware) {
	g := r.Group("/sellers", mw.Authenticate(), mw.RequireSeller())
	g.GET("/stats", h.Stats)
	g.GET("/orders", h.Orders)
}
