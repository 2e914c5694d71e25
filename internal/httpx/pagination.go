package httpx

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/matheusmosca/marketplace/internal/apperr"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page são os parâmetros de paginação da query string
type Page struct {
	Page  int
	Limit int
}

// Offset retorna o deslocamento correspondente à página
func (p Page) Offset() uint64 {
	return uint64((p.Page - 1) * p.Limit)
}

// Pagination acompanha as listagens paginadas
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func NewPagination(p Page, total int64) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// ParsePage lê page e limit da query string. page >= 1, limit entre 1 e 100.
func ParsePage(c *gin.Context, defaultLimit int) (Page, error) {
	p := Page{Page: 1, Limit: defaultLimit}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Page{}, apperr.Validation("Invalid pagination",
				apperr.FieldError{Field: "page", Message: "must be a positive integer"})
		}
		p.Page = n
	}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxLimit {
			return Page{}, apperr.Validation("Invalid pagination",
				apperr.FieldError{Field: "limit", Message: "must be between 1 and 100"})
		}
		p.Limit = n
	}

	return p, nil
}

// ParamUUID lê um parâmetro de rota como UUID
func ParamUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("Invalid "+name,
			apperr.FieldError{Field: name, Message: "must be a valid UUID"})
	}
	return id, nil
}
