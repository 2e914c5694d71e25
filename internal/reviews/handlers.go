package reviews

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/matheusmosca/marketplace/internal/auth"
	"github.com/matheusmosca/marketplace/internal/httpx"
)

const defaultReviewsLimit = 10

// ReviewUseCaseInterface define a interface para o use case
type ReviewUseCaseInterface interface {
	ListForProduct(ctx context.Context, f ProductFilter) ([]Review, int64, error)
	ListMine(ctx context.Context, userID uuid.UUID, page httpx.Page) ([]Review, int64, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateReviewRequest) (*Review, error)
	Update(ctx context.Context, userID, reviewID uuid.UUID, req UpdateReviewRequest) (*Review, error)
	Delete(ctx context.Context, userID, reviewID uuid.UUID) error
}

type ReviewHandler struct {
	useCase ReviewUseCaseInterface
}

func NewReviewHandler(useCase ReviewUseCaseInterface) *ReviewHandler {
	return &ReviewHandler{useCase: useCase}
}

func (h *ReviewHandler) ListForProduct(c *gin.Context) {
	productID, err := httpx.ParamUUID(c, "productId")
	if err != nil {
		httpx.Error(c, err)
		return
	}
	page, err := httpx.ParsePage(c, defaultReviewsLimit)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	f := ProductFilter{ProductID: productID, SortBy: c.DefaultQuery("sort_by", "created_at"), Page: page}
	reviews, total, err := h.useCase.ListForProduct(c.Request.Context(), f)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	httpx.OK(c, "", gin.H{
		"reviews":    reviews,
		"pagination": httpx.NewPagination(page, total),
	})
}

func (h *ReviewHandler) ListMine(c *gin.Context) {
	page, err := httpx.ParsePage(c, defaultReviewsLimit)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	reviews, total, err := h.useCase.ListMine(c.Request.Context(), auth.MustPrincipal(c).UserID, page)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	httpx.OK(c, "", gin.H{
		"reviews":    reviews,
		"pagination": httpx.NewPagination(page, total),
	})
}

func (h *ReviewHandler) Create(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, httpx.BindError(err))
		return
	}

	review, err := h.useCase.Create(c.Request.Context(), auth.MustPrincipal(c).UserID, req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.Created(c, "Review created successfully", review)
}

func (h *ReviewHandler) Update(c *gin.Context) {
	reviewID, err := httpx.ParamUUID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, httpx.BindError(err))
		return
	}

	review, err := h.useCase.Update(c.Request.Context(), auth.MustPrincipal(c).UserID, reviewID, req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, "Review updated successfully", review)
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	reviewID, err := httpx.ParamUUID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	if err := h.useCase.Delete(c.Request.Context(), auth.MustPrincipal(c).UserID, reviewID); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, "Review deleted successfully", nil)
}

// RegisterRoutes monta as rotas de /reviews. A listagem por produto é pública.
func (h *ReviewHandler) RegisterRoutes(r *gin.RouterGroup, mw *auth.Middleware) {
	g := r.Group("/reviews")
	g.GET("/products/:productId", h.ListForProduct)
	g.GET("/user/my-reviews", mw.Authenticate(), h.ListMine)
	g.POST("", mw.Authenticate(), h.Create)
	g.PUT("/:id", mw.Authenticate(), h.Update)
	g.DELETE("/:id", mw.Authenticate(), h.Delete)
}
