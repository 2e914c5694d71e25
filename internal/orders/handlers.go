package orders

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/marketplace/internal/auth"
	"github.com/matheusmosca/marketplace/internal/httpx"
)

const defaultOrdersLimit = 10

// OrderUseCaseInterface define a interface para o use case
type OrderUseCaseInterface interface {
	PlaceOrder(ctx context.Context, buyerID uuid.UUID, req PlaceOrderRequest) (*Order, error)
	ListOrders(ctx context.Context, buyerID uuid.UUID, f ListFilter) ([]Order, int64, error)
	GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*Order, error)
}

// OrderHandler contém os handlers HTTP
type OrderHandler struct {
	useCase OrderUseCaseInterface
	tracer  trace.Tracer
}

// NewOrderHandler cria uma nova instância de OrderHandler
func NewOrderHandler(useCase OrderUseCaseInterface, tracer trace.Tracer) *OrderHandler {
	return &OrderHandler{useCase: useCase, tracer: tracer}
}

// PlaceOrder fecha o carrinho do usuário autenticado
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "orders.place_order")
	defer span.End()

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, httpx.BindError(err))
		return
	}

	buyer := auth.MustPrincipal(c)
	span.SetAttributes(attribute.String("buyer_id", buyer.UserID.String()))

	order, err := h.useCase.PlaceOrder(ctx, buyer.UserID, req)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	span.SetAttributes(
		attribute.String("order_id", order.ID.String()),
		attribute.String("order_number", order.OrderNumber),
	)
	httpx.Created(c, "Order created successfully", gin.H{"order": order})
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "orders.list_orders")
	defer span.End()

	page, err := httpx.ParsePage(c, defaultOrdersLimit)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	f := ListFilter{Status: Status(c.Query("status")), Page: page}
	orders, total, err := h.useCase.ListOrders(ctx, auth.MustPrincipal(c).UserID, f)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	httpx.OK(c, "", gin.H{
		"orders":     orders,
		"pagination": httpx.NewPagination(page, total),
	})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "orders.get_order")
	defer span.End()

	orderID, err := httpx.ParamUUID(c, "id")
	if err != nil {
		httpx.Error(c, err)
		return
	}

	order, err := h.useCase.GetOrder(ctx, auth.MustPrincipal(c).UserID, orderID)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	httpx.OK(c, "", gin.H{"order": order})
}

// RegisterRoutes monta as rotas de /orders, todas autenticadas
func (h *OrderHandler) RegisterRoutes(r *gin.RouterGroup, mw *auth.Middleware) {
	g := r.Group("/orders", mw.Authenticate())
	g.POST("", h.PlaceOrder)
	g.GET("", h.ListOrders)
	g.GET("/:id", h.GetOrder)
}
