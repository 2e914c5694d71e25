package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matheusmosca/marketplace/internal/apperr"
	"github.com/matheusmosca/marketplace/internal/database"
)

var (
	ErrUserNotFound = apperr.NotFound("User not found")
	ErrUserExists   = apperr.Conflict("User with this email or phone already exists")
)

// Repository define a interface para acesso aos usuários
type Repository interface {
	BeginTx(ctx context.Context) (database.Tx, error)
	CreateUser(ctx context.Context, tx database.Tx, user *User) error
	CreateSellerProfile(ctx context.Context, tx database.Tx, sellerID uuid.UUID, businessName string) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*User, error)
}

// UserRepository implementa Repository sobre o pgxpool
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) BeginTx(ctx context.Context) (database.Tx, error) {
	return database.BeginTx(ctx, r.db)
}

const userColumns = `user_id, email, phone, password_hash, first_name, last_name, profile_image,
	user_type, is_verified, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &u.FirstName, &u.LastName, &u.ProfileImage,
		&u.UserType, &u.IsVerified, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser insere o usuário. Violação de UNIQUE em email/phone vira ErrUserExists.
func (r *UserRepository) CreateUser(ctx context.Context, tx database.Tx, user *User) error {
	query := `
		INSERT INTO users (email, phone, password_hash, first_name, last_name, user_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING user_id, is_verified, is_active, created_at, updated_at
	`
	err := database.Conn(tx).QueryRow(ctx, query,
		user.Email, user.Phone, user.PasswordHash, user.FirstName, user.LastName, user.UserType,
	).Scan(&user.ID, &user.IsVerified, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) CreateSellerProfile(ctx context.Context, tx database.Tx, sellerID uuid.UUID, businessName string) error {
	query := `INSERT INTO seller_profiles (seller_id, business_name) VALUES ($1, $2)`
	if _, err := database.Conn(tx).Exec(ctx, query, sellerID, businessName); err != nil {
		return fmt.Errorf("failed to insert seller profile: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfile aplica apenas os campos informados (COALESCE)
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*User, error) {
	query := `
		UPDATE users
		SET first_name = COALESCE($1, first_name),
		    last_name = COALESCE($2, last_name),
		    phone = COALESCE($3, phone),
		    updated_at = NOW()
		WHERE user_id = $4
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, query, req.FirstName, req.LastName, req.Phone, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrUserNotFound
		}
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("Phone number already in use")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}
