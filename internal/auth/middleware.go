package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/marketplace/internal/apperr"
	"github.com/matheusmosca/marketplace/internal/httpx"
)

const principalKey = "auth.principal"

// Authenticator resolve um token no principal correspondente
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (Principal, error)
}

// Middleware agrupa os middlewares gin de autenticação
type Middleware struct {
	authenticator Authenticator
}

func NewMiddleware(authenticator Authenticator) *Middleware {
	return &Middleware{authenticator: authenticator}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// Authenticate exige um bearer token válido de um usuário ativo
func (m *Middleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			httpx.Error(c, apperr.Auth("Access denied. No token provided"))
			return
		}

		principal, err := m.authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			httpx.Error(c, err)
			return
		}

		setPrincipal(c, principal)
		c.Next()
	}
}

// OptionalAuth identifica o principal quando houver token válido, sem nunca rejeitar
func (m *Middleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if principal, err := m.authenticator.Authenticate(c.Request.Context(), token); err == nil {
				setPrincipal(c, principal)
			}
		}
		c.Next()
	}
}

// RequireSeller deve ser encadeado após Authenticate
func (m *Middleware) RequireSeller() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			httpx.Error(c, apperr.Auth("Access denied. No token provided"))
			return
		}
		if !principal.IsSeller() {
			httpx.Error(c, apperr.Forbidden("Access denied. Seller privileges required"))
			return
		}
		c.Next()
	}
}

func setPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
	trace.SpanFromContext(c.Request.Context()).SetAttributes(
		attribute.String("user_id", p.UserID.String()),
	)
}

// PrincipalFrom retorna o principal da requisição, se autenticada
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// MustPrincipal é usado por handlers atrás de Authenticate
func MustPrincipal(c *gin.Context) Principal {
	p, _ := PrincipalFrom(c)
	return p
}
