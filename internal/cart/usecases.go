package cart

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// CartUseCase contém a lógica de negócio do carrinho
type CartUseCase struct {
	repository Repository
}

func NewCartUseCase(repository Repository) *CartUseCase {
	return &CartUseCase{repository: repository}
}

func (uc *CartUseCase) GetCart(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	items, err := uc.repository.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewCart(items), nil
}

// AddItem adiciona o produto ou soma à linha existente, validando contra o estoque atual
func (uc *CartUseCase) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartLine, error) {
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	stock, err := uc.repository.GetProductStock(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if quantity > stock {
		slog.InfoContext(ctx, "⚠️ [CART] insufficient stock",
			"product_id", req.ProductID, "requested", quantity, "stock", stock)
		return nil, ErrInsufficientStock
	}

	line, err := uc.repository.MergeLine(ctx, userID, req.ProductID, quantity, stock)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "🛒 [CART] item added",
		"user_id", userID, "product_id", req.ProductID, "quantity", line.Quantity)
	return line, nil
}

// UpdateQuantity define a quantidade de uma linha do próprio usuário
func (uc *CartUseCase) UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*CartLine, error) {
	stock, err := uc.repository.GetLineStock(ctx, userID, lineID)
	if err != nil {
		return nil, err
	}
	if quantity > stock {
		return nil, ErrExceedsStock
	}
	return uc.repository.SetQuantity(ctx, userID, lineID, quantity)
}

func (uc *CartUseCase) RemoveItem(ctx context.Context, userID, lineID uuid.UUID) error {
	return uc.repository.RemoveLine(ctx, userID, lineID)
}

func (uc *CartUseCase) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := uc.repository.Clear(ctx, userID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "🛒 [CART] cleared", "user_id", userID)
	return nil
}
