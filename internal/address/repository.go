package address

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matheusmosca/marketplace/internal/apperr"
	"github.com/matheusmosca/marketplace/internal/database"
)

var ErrAddressNotFound = apperr.NotFound("Address not found")

// Repository define a interface para acesso aos endereços
type Repository interface {
	BeginTx(ctx context.Context) (database.Tx, error)
	List(ctx context.Context, userID uuid.UUID) ([]Address, error)
	LockUser(ctx context.Context, tx database.Tx, userID uuid.UUID) error
	Count(ctx context.Context, tx database.Tx, userID uuid.UUID) (int, error)
	UnsetDefault(ctx context.Context, tx database.Tx, userID uuid.UUID) error
	Insert(ctx context.Context, tx database.Tx, addr *Address) error
	MarkDefault(ctx context.Context, tx database.Tx, userID, addressID uuid.UUID) error
	Delete(ctx context.Context, tx database.Tx, userID, addressID uuid.UUID) (wasDefault bool, err error)
	PromoteNewest(ctx context.Context, tx database.Tx, userID uuid.UUID) error
}

// AddressRepository implementa Repository sobre o pgxpool
type AddressRepository struct {
	db *pgxpool.Pool
}

func NewAddressRepository(db *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{db: db}
}

func (r *AddressRepository) BeginTx(ctx context.Context) (database.Tx, error) {
	return database.BeginTx(ctx, r.db)
}

func (r *AddressRepository) List(ctx context.Context, userID uuid.UUID) ([]Address, error) {
	query := `
		SELECT address_id, user_id, street_address, city, state, postal_code, country, is_default, created_at
		FROM user_addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	addresses := make([]Address, 0)
	for rows.Next() {
		var a Address
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.StreetAddress, &a.City, &a.State, &a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

// LockUser serializa alterações de endereço padrão do mesmo usuário
func (r *AddressRepository) LockUser(ctx context.Context, tx database.Tx, userID uuid.UUID) error {
	var id uuid.UUID
	err := database.Conn(tx).QueryRow(ctx, `SELECT user_id FROM users WHERE user_id = $1 FOR UPDATE`, userID).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}
	return nil
}

func (r *AddressRepository) Count(ctx context.Context, tx database.Tx, userID uuid.UUID) (int, error) {
	var n int
	if err := database.Conn(tx).QueryRow(ctx, `SELECT COUNT(*) FROM user_addresses WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count addresses: %w", err)
	}
	return n, nil
}

func (r *AddressRepository) UnsetDefault(ctx context.Context, tx database.Tx, userID uuid.UUID) error {
	query := `UPDATE user_addresses SET is_default = false WHERE user_id = $1 AND is_default`
	if _, err := database.Conn(tx).Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to unset default address: %w", err)
	}
	return nil
}

func (r *AddressRepository) Insert(ctx context.Context, tx database.Tx, addr *Address) error {
	query := `
		INSERT INTO user_addresses (user_id, street_address, city, state, postal_code, country, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING address_id, created_at
	`
	err := database.Conn(tx).QueryRow(ctx, query,
		addr.UserID, addr.StreetAddress, addr.City, addr.State, addr.PostalCode, addr.Country, addr.IsDefault,
	).Scan(&addr.ID, &addr.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert address: %w", err)
	}
	return nil
}

func (r *AddressRepository) MarkDefault(ctx context.Context, tx database.Tx, userID, addressID uuid.UUID) error {
	query := `UPDATE user_addresses SET is_default = true WHERE address_id = $1 AND user_id = $2`
	tag, err := database.Conn(tx).Exec(ctx, query, addressID, userID)
	if err != nil {
		return fmt.Errorf("failed to set default address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAddressNotFound
	}
	return nil
}

func (r *AddressRepository) Delete(ctx context.Context, tx database.Tx, userID, addressID uuid.UUID) (bool, error) {
	var wasDefault bool
	query := `DELETE FROM user_addresses WHERE address_id = $1 AND user_id = $2 RETURNING is_default`
	if err := database.Conn(tx).QueryRow(ctx, query, addressID, userID).Scan(&wasDefault); err != nil {
		if database.IsNoRows(err) {
			return false, ErrAddressNotFound
		}
		return false, fmt.Errorf("failed to delete address: %w", err)
	}
	return wasDefault, nil
}

// PromoteNewest marca o endereço mais recente como padrão, se existir
func (r *AddressRepository) PromoteNewest(ctx context.Context, tx database.Tx, userID uuid.UUID) error {
	query := `
		UPDATE user_addresses SET is_default = true
		WHERE address_id = (
			SELECT address_id FROM user_addresses
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT 1
		)
	`
	if _, err := database.Conn(tx).Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to promote default address: %w", err)
	}
	return nil
}
