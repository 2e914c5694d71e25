package favorites

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matheusmosca/marketplace/internal/httpx"
)

type FavoriteUseCase struct {
	repository Repository
}

func NewFavoriteUseCase(repository Repository) *FavoriteUseCase {
	return &FavoriteUseCase{repository: repository}
}

func (uc *FavoriteUseCase) List(ctx context.Context, userID uuid.UUID, page httpx.Page) ([]FavoriteProduct, int64, error) {
	return uc.repository.List(ctx, userID, page)
}

func (uc *FavoriteUseCase) Add(ctx context.Context, userID, productID uuid.UUID) (*Favorite, error) {
	exists, err := uc.repository.ProductExists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrProductNotFound
	}

	favorite, err := uc.repository.Insert(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "❤️ [FAVORITE] added", "user_id", userID, "product_id", productID)
	return favorite, nil
}

func (uc *FavoriteUseCase) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	removed, err := uc.repository.Delete(ctx, userID, productID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrFavoriteNotFound
	}
	return nil
}

func (uc *FavoriteUseCase) Check(ctx context.Context, userID, productID uuid.UUID) (Membership, error) {
	exists, err := uc.repository.Exists(ctx, userID, productID)
	if err != nil {
		return Membership{}, err
	}
	return Membership{IsFavorite: exists}, nil
}

// Toggle inverte o estado e retorna o novo. Remove primeiro: se nada foi
// removido, adiciona.
func (uc *FavoriteUseCase) Toggle(ctx context.Context, userID, productID uuid.UUID) (Membership, error) {
	removed, err := uc.repository.Delete(ctx, userID, productID)
	if err != nil {
		return Membership{}, err
	}
	if removed {
		return Membership{IsFavorite: false}, nil
	}

	_, err = uc.Add(ctx, userID, productID)
	if err != nil && !errors.Is(err, ErrAlreadyFavorite) {
		return Membership{}, err
	}
	return Membership{IsFavorite: true}, nil
}
