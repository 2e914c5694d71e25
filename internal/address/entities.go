// Package address mantém os endereços de entrega dos usuários.
package address

import (
	"time"

	"github.com/google/uuid"
)

const DefaultCountry = "Malaysia"

// Address é um endereço de entrega. Cada usuário tem no máximo um padrão.
type Address struct {
	ID            uuid.UUID `json:"address_id"`
	UserID        uuid.UUID `json:"user_id"`
	StreetAddress string    `json:"street_address"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	PostalCode    string    `json:"postal_code"`
	Country       string    `json:"country"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateAddressRequest representa a requisição de novo endereço
type CreateAddressRequest struct {
	StreetAddress string `json:"street_address" binding:"required"`
	City          string `json:"city" binding:"required,max=100"`
	State         string `json:"state" binding:"required,max=100"`
	PostalCode    string `json:"postal_code" binding:"required,max=20"`
	Country       string `json:"country" binding:"omitempty,max=100"`
	IsDefault     bool   `json:"is_default"`
}
