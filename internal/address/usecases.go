package address

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// AddressUseCase contém a lógica de endereços
type AddressUseCase struct {
	repository Repository
}

func NewAddressUseCase(repository Repository) *AddressUseCase {
	return &AddressUseCase{repository: repository}
}

func (uc *AddressUseCase) List(ctx context.Context, userID uuid.UUID) ([]Address, error) {
	return uc.repository.List(ctx, userID)
}

// Create insere o endereço. O primeiro endereço do usuário sempre vira o padrão,
// e um novo padrão desmarca o anterior na mesma transação.
func (uc *AddressUseCase) Create(ctx context.Context, userID uuid.UUID, req CreateAddressRequest) (*Address, error) {
	country := strings.TrimSpace(req.Country)
	if country == "" {
		country = DefaultCountry
	}

	addr := &Address{
		UserID:        userID,
		StreetAddress: strings.TrimSpace(req.StreetAddress),
		City:          strings.TrimSpace(req.City),
		State:         strings.TrimSpace(req.State),
		PostalCode:    strings.TrimSpace(req.PostalCode),
		Country:       country,
		IsDefault:     req.IsDefault,
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := uc.repository.LockUser(ctx, tx, userID); err != nil {
		return nil, err
	}

	count, err := uc.repository.Count(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		addr.IsDefault = true
	}

	if addr.IsDefault && count > 0 {
		if err := uc.repository.UnsetDefault(ctx, tx, userID); err != nil {
			return nil, err
		}
	}

	if err := uc.repository.Insert(ctx, tx, addr); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit address: %w", err)
	}

	slog.InfoContext(ctx, "🏠 [ADDRESS] created", "user_id", userID, "address_id", addr.ID, "is_default", addr.IsDefault)
	return addr, nil
}

// SetDefault desmarca o padrão atual e marca o informado. Endereço desconhecido não altera nada.
func (uc *AddressUseCase) SetDefault(ctx context.Context, userID, addressID uuid.UUID) error {
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := uc.repository.LockUser(ctx, tx, userID); err != nil {
		return err
	}
	if err := uc.repository.UnsetDefault(ctx, tx, userID); err != nil {
		return err
	}
	if err := uc.repository.MarkDefault(ctx, tx, userID, addressID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit default address: %w", err)
	}

	slog.InfoContext(ctx, "🏠 [ADDRESS] default changed", "user_id", userID, "address_id", addressID)
	return nil
}

// Delete remove o endereço. Se era o padrão, o mais recente restante assume.
func (uc *AddressUseCase) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := uc.repository.LockUser(ctx, tx, userID); err != nil {
		return err
	}

	wasDefault, err := uc.repository.Delete(ctx, tx, userID, addressID)
	if err != nil {
		return err
	}
	if wasDefault {
		if err := uc.repository.PromoteNewest(ctx, tx, userID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit address deletion: %w", err)
	}
	return nil
}
