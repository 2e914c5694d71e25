package auth

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/marketplace/internal/httpx"
)

// AuthUseCaseInterface define a interface para o use case
type AuthUseCaseInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*Session, error)
	Login(ctx context.Context, req LoginRequest) (*Session, error)
	Profile(ctx context.Context, userID uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*User, error)
}

// AuthHandler contém os handlers HTTP de autenticação
type AuthHandler struct {
	useCase AuthUseCaseInterface
	tracer  trace.Tracer
}

func NewAuthHandler(useCase AuthUseCaseInterface, tracer trace.Tracer) *AuthHandler {
	return &AuthHandler{useCase: useCase, tracer: tracer}
}

// Register cadastra um novo usuário
func (h *AuthHandler) Register(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "auth.register")
	defer span.End()

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, httpx.BindError(err))
		return
	}

	session, err := h.useCase.Register(ctx, req)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	span.SetAttributes(attribute.String("user_id", session.User.ID.String()))
	httpx.Created(c, "User registered successfully", session)
}

// Login autentica o usuário
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "auth.login")
	defer span.End()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, httpx.BindError(err))
		return
	}

	session, err := h.useCase.Login(ctx, req)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	httpx.OK(c, "Login successful", session)
}

func (h *AuthHandler) Profile(c *gin.Context) {
	principal := MustPrincipal(c)

	user, err := h.useCase.Profile(c.Request.Context(), principal.UserID)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	httpx.OK(c, "", gin.H{"user": user})
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	principal := MustPrincipal(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, httpx.BindError(err))
		return
	}

	user, err := h.useCase.UpdateProfile(c.Request.Context(), principal.UserID, req)
	if err != nil {
		httpx.Error(c, err)
		return
	}

	httpx.OK(c, "Profile updated successfully", gin.H{"user": user})
}

// RegisterRoutes monta as rotas de /auth
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, mw *Middleware) {
	g := r.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.GET("/profile", mw.Authenticate(), h.Profile)
	g.PUT("/profile", mw.Authenticate(), h.UpdateProfile)
}
