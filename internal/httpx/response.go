// Package httpx contém o envelope de resposta da API e helpers comuns aos handlers gin.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/marketplace/internal/apperr"
)

// Response é o envelope padrão de todas as respostas
type Response struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Message: message, Data: data})
}

// Error converte o erro em status HTTP e envelope. Erros internos são logados
// e respondidos com mensagem genérica.
func Error(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	ctx := c.Request.Context()

	span := trace.SpanFromContext(ctx)
	span.RecordError(err)

	if kind == apperr.KindInternal {
		slog.ErrorContext(ctx, "❌ request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}

	c.AbortWithStatusJSON(kind.HTTPStatus(), Response{
		Success: false,
		Message: apperr.PublicMessage(err, "Internal server error"),
		Errors:  apperr.FieldsOf(err),
	})
}

// BindError traduz erros de binding do gin em erro de validação com os campos inválidos
func BindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation("Invalid request body")
	}

	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{
			Field:   jsonFieldName(fe.Field()),
			Message: fieldMessage(fe),
		})
	}
	return apperr.Validation("Validation failed", fields...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid":
		return "must be a valid UUID"
	default:
		return "is invalid"
	}
}

// jsonFieldName converte o nome do campo Go (ProductID) para snake_case (product_id)
func jsonFieldName(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && (runes[i-1] < 'A' || runes[i-1] > 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Recovery renderiza panics como 500 no envelope padrão, sem stack trace
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.ErrorContext(c.Request.Context(), "💥 panic recovered",
			"path", c.FullPath(),
			"panic", recovered,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
			Success: false,
			Message: "Internal server error",
		})
	})
}

// NotFoundRoute responde rotas inexistentes com o envelope padrão
func NotFoundRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, Response{Success: false, Message: "Route not found"})
}
