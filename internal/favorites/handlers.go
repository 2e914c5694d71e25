package favorites

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/matheusmosca/marketplace/internal/auth"
	"github.com/matheusmosca/marketplace/internal/httpx"
)

// FavoriteUseCaseInterface define a interface para o use case
type FavoriteUseCaseInterface interface {
	List(ctx context.Context, userID uuid.UUID, page httpx.Page) ([]FavoriteProduct, int64, error)
	Add(ctx context.Context, userID, productID uuid.UUID) (*Favorite, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Check(ctx context.Context, userID, productID uuid.UUID) (Membership, error)
	Toggle(ctx context.Context, userID, productID uuid.UUID) (Membership, error)
}

type FavoriteHandler struct {
	useCase FavoriteUseCaseInterface
}

func NewFavoriteHandler(useCase FavoriteUseCaseInterface) *FavoriteHandler {
	return &FavoriteHandler{useCase: useCase}
}

func (h *FavoriteHandler) List(c *gin.Context) {
	page, err := httpx.ParsePage(c, httpx.DefaultLimit)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	favorites, total, err := h.useCase.List(c.Request.Context(), auth.MustPrincipal(c).UserID, page)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	httpx.OK(c, "", gin.H{
		"favorites":  favorites,
		"pagination": httpx.NewPagination(page, total),
	})
}

func (h *FavoriteHandler) Add(c *gin.Context) {
	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, httpx.BindError(err))
		return
	}

	favorite, err := h.useCase.Add(c.Request.Context(), auth.MustPrincipal(c).UserID, req.ProductID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.Created(c, "Product added to favorites", favorite)
}

func (h *FavoriteHandler) Remove(c *gin.Context) {
	productID, err := httpx.ParamUUID(c, "productId")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	if err := h.useCase.Remove(c.Request.Context(), auth.MustPrincipal(c).UserID, productID); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, "Product removed from favorites", nil)
}

func (h *FavoriteHandler) Check(c *gin.Context) {
	productID, err := httpx.ParamUUID(c, "productId")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	membership, err := h.useCase.Check(c.Request.Context(), auth.MustPrincipal(c).UserID, productID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, "", membership)
}

func (h *FavoriteHandler) Toggle(c *gin.Context) {
	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, httpx.BindError(err))
		return
	}

	membership, err := h.useCase.Toggle(c.Request.Context(), auth.MustPrincipal(c).UserID, req.ProductID)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	message := "Product removed from favorites"
	if membership.IsFavorite {
		message = "Product added to favorites"
	}
	httpx.OK(c, message, membership)
}

func (h *FavoriteHandler) RegisterRoutes(r *gin.RouterGroup, mw *auth.Middleware) {
	g := r.Group("/favorites", mw.Authenticate())
	g.GET("", h.List)
	g.POST("", h.Add)
	g.DELETE("/:productId", h.Remove)
	g.GET("/check/:productId", h.Check)
	g.POST("/toggle", h.Toggle)
}
