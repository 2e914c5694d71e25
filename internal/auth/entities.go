// Package auth cuida de cadastro, login, emissão de tokens e do middleware que identifica o principal.
package auth

import (
	"time"

	"github.com/google/uuid"
)

// UserType representa o papel do usuário no marketplace
type UserType string

const (
	UserTypeBuyer  UserType = "buyer"
	UserTypeSeller UserType = "seller"
	UserTypeBoth   UserType = "both"
)

// CanSell informa se o papel permite operações de vendedor
func (t UserType) CanSell() bool {
	return t == UserTypeSeller || t == UserTypeBoth
}

// User representa um usuário cadastrado
type User struct {
	ID           uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	ProfileImage *string   `json:"profile_image,omitempty"`
	UserType     UserType  `json:"user_type"`
	IsVerified   bool      `json:"is_verified"`
	IsActive     bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal é o usuário autenticado da requisição corrente
type Principal struct {
	UserID    uuid.UUID
	Email     string
	FirstName string
	LastName  string
	UserType  UserType
}

func (p Principal) IsSeller() bool {
	return p.UserType.CanSell()
}

// PrincipalOf monta o principal a partir do usuário carregado
func PrincipalOf(u *User) Principal {
	return Principal{
		UserID:    u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		UserType:  u.UserType,
	}
}

// RegisterRequest representa a requisição de cadastro
type RegisterRequest struct {
	Email     string   `json:"email" binding:"required,email"`
	Password  string   `json:"password" binding:"required,min=6"`
	FirstName string   `json:"first_name" binding:"required"`
	LastName  string   `json:"last_name" binding:"required"`
	Phone     *string  `json:"phone" binding:"omitempty,min=6,max=32"`
	UserType  UserType `json:"user_type" binding:"omitempty,oneof=buyer seller both"`
}

// LoginRequest representa a requisição de login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest contém os campos opcionais do perfil
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,min=1"`
	LastName  *string `json:"last_name" binding:"omitempty,min=1"`
	Phone     *string `json:"phone" binding:"omitempty,min=6,max=32"`
}

// Session é o retorno de cadastro e login
type Session struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
