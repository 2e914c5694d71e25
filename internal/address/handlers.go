package address

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/matheusmosca/marketplace/internal/auth"
	"github.com/matheusmosca/marketplace/internal/httpx"
)

// AddressUseCaseInterface define a interface para o use case
type AddressUseCaseInterface interface {
	List(ctx context.Context, userID uuid.UUID) ([]Address, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateAddressRequest) (*Address, error)
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) error
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}

// AddressHandler contém os handlers HTTP de endereços
type AddressHandler struct {
	useCase AddressUseCaseInterface
}

func NewAddressHandler(useCase AddressUseCaseInterface) *AddressHandler {
	return &AddressHandler{useCase: useCase}
}

func (h *AddressHandler) List(c *gin.Context) {
	addresses, err := h.useCase.List(c.Request.Context(), auth.MustPrincipal(c).UserID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, "", addresses)
}

func (h *AddressHandler) Create(c *gin.Context) {
	var req CreateAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, httpx.BindError(err))
		return
	}

	addr, err := h.useCase.Create(c.Request.Context(), auth.MustPrincipal(c).UserID, req)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.Created(c, "Address created", addr)
}

func (h *AddressHandler) SetDefault(c *gin.Context) {
	addressID, err := httpx.ParamUUID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	if err := h.useCase.SetDefault(c.Request.Context(), auth.MustPrincipal(c).UserID, addressID); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, "Default address updated", nil)
}

func (h *AddressHandler) Delete(c *gin.Context) {
	addressID, err := httpx.ParamUUID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	if err := h.useCase.Delete(c.Request.Context(), auth.MustPrincipal(c).UserID, addressID); err != nil {
		httpx.Error(c, err)
		return
	}
	httpx.OK(c, "Address deleted", nil)
}

// RegisterRoutes monta as rotas de /addresses, todas autenticadas
func (h *AddressHandler) RegisterRoutes(r *gin.RouterGroup, mw *auth.Middleware) {
	g := r.Group("/addresses", mw.Authenticate())
	g.GET("", h.List)
	g.POST("", h.Create)
	g.PUT("/:id/default", h.SetDefault)
	g.DELETE("/:id", h.Delete)
}
