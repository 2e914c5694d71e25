package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/matheusmosca/marketplace/internal/apperr"
)

var (
	ErrInvalidCredentials = apperr.Auth("Invalid email or password")
	ErrAccountDeactivated = apperr.Forbidden("Account has been deactivated")
)

// AuthUseCase contém a lógica de cadastro e login
type AuthUseCase struct {
	repository Repository
	tokens     *TokenIssuer
	hashCost   int
}

func NewAuthUseCase(repository Repository, tokens *TokenIssuer) *AuthUseCase {
	return &AuthUseCase{
		repository: repository,
		tokens:     tokens,
		hashCost:   bcrypt.DefaultCost,
	}
}

// Register cria o usuário (e o perfil de vendedor, quando aplicável) numa única transação
func (uc *AuthUseCase) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	if req.UserType == "" {
		req.UserType = UserTypeBuyer
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), uc.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        req.Phone,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		UserType:     req.UserType,
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := uc.repository.CreateUser(ctx, tx, user); err != nil {
		return nil, err
	}

	if user.UserType.CanSell() {
		businessName := fmt.Sprintf("%s %s's Store", user.FirstName, user.LastName)
		if err := uc.repository.CreateSellerProfile(ctx, tx, user.ID, businessName); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	token, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "✅ [REGISTER] user created", "user_id", user.ID, "user_type", user.UserType)
	return &Session{User: user, Token: token}, nil
}

// Login valida as credenciais e emite um novo token
func (uc *AuthUseCase) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	user, err := uc.repository.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		slog.InfoContext(ctx, "⚠️ [LOGIN] wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &Session{User: user, Token: token}, nil
}

func (uc *AuthUseCase) Profile(ctx context.Context, userID uuid.UUID) (*User, error) {
	return uc.repository.GetByID(ctx, userID)
}

func (uc *AuthUseCase) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*User, error) {
	user, err := uc.repository.UpdateProfile(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "✅ [PROFILE] updated", "user_id", userID)
	return user, nil
}

// Authenticate resolve o principal a partir de um token bruto
func (uc *AuthUseCase) Authenticate(ctx context.Context, rawToken string) (Principal, error) {
	userID, err := uc.tokens.Parse(rawToken)
	if err != nil {
		return Principal{}, err
	}

	user, err := uc.repository.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Principal{}, apperr.Auth("Invalid token. User not found")
		}
		return Principal{}, err
	}

	if !user.IsActive {
		return Principal{}, ErrAccountDeactivated
	}

	return PrincipalOf(user), nil
}
