package cart

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/matheusmosca/marketplace/internal/auth"
	"github.com/matheusmosca/marketplace/internal/httpx"
)

// CartUseCaseInterface define a interface para o use case
type CartUseCaseInterface interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartLine, error)
	UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*CartLine, error)
	RemoveItem(ctx context.Context, userID, lineID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// CartHandler contém os handlers HTTP do carrinho
type CartHandler struct {
	useCase CartUseCaseInterface
}

func NewCartHandler(useCase CartUseCaseInterface) *CartHandler {
	return &CartHandler{useCase: useCase}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.useCase.GetCart(c.Request.Context(), auth.MustPrincipal(c).UserID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, "", cart)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, httpx.BindError(err))
		return
	}

	line, err := h.useCase.AddItem(c.Request.Context(), auth.MustPrincipal(c).UserID, req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.Created(c, "Item added to cart", line)
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	lineID, err := httpx.ParamUUID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, httpx.BindError(err))
		return
	}

	line, err := h.useCase.UpdateQuantity(c.Request.Context(), auth.MustPrincipal(c).UserID, lineID, req.Quantity)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, "Cart updated", line)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	lineID, err := httpx.ParamUUID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	if err := h.useCase.RemoveItem(c.Request.Context(), auth.MustPrincipal(c).UserID, lineID); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, "Item removed from cart", nil)
}

func (h *CartHandler) Clear(c *gin.Context) {
	if err := h.useCase.Clear(c.Request.Context(), auth.MustPrincipal(c).UserID); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, "Cart cleared", nil)
}

// RegisterRoutes monta as rotas de /cart, todas autenticadas
func (h *CartHandler) RegisterRoutes(r *gin.RouterGroup, mw *auth.Middleware) {
	g := r.Group("/cart", mw.Authenticate())
	g.GET("", h.GetCart)
	g.POST("", h.AddItem)
	g.PUT("/:id", h.UpdateQuantity)
	g.DELETE("/:id", h.RemoveItem)
	g.DELETE("", h.Clear)
}
