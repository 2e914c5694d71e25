package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matheusmosca/marketplace/internal/apperr"
	"github.com/matheusmosca/marketplace/internal/database"
)

var (
	ErrProductUnavailable = apperr.NotFound("Product not found or not available")
	ErrLineNotFound       = apperr.NotFound("Cart item not found")
	ErrInsufficientStock  = apperr.Validation("Insufficient stock")
	ErrExceedsStock       = apperr.Validation("Total quantity exceeds available stock")
)

// Repository define a interface para acesso ao carrinho
type Repository interface {
	ListItems(ctx context.Context, userID uuid.UUID) ([]Item, error)
	GetProductStock(ctx context.Context, productID uuid.UUID) (int, error)
	MergeLine(ctx context.Context, userID, productID uuid.UUID, quantity, maxQuantity int) (*CartLine, error)
	GetLineStock(ctx context.Context, userID, lineID uuid.UUID) (int, error)
	SetQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*CartLine, error)
	RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

// CartRepository implementa Repository sobre o pgxpool
type CartRepository struct {
	db *pgxpool.Pool
}

func NewCartRepository(db *pgxpool.Pool) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) ListItems(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	query := `
		SELECT c.cart_id, p.product_id, p.product_name, p.price, p.stock_quantity, p.unit,
		       (SELECT pi.image_url FROM product_images pi
		        WHERE pi.product_id = p.product_id AND pi.is_primary LIMIT 1),
		       c.quantity, c.added_at
		FROM cart c
		JOIN products p ON c.product_id = p.product_id
		WHERE c.user_id = $1
		ORDER BY c.added_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(
			&it.ID, &it.ProductID, &it.ProductName, &it.Price, &it.StockQuantity, &it.Unit,
			&it.ImageURL, &it.Quantity, &it.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *CartRepository) GetProductStock(ctx context.Context, productID uuid.UUID) (int, error) {
	var stock int
	query := `SELECT stock_quantity FROM products WHERE product_id = $1 AND product_status = 'active'`
	if err := r.db.QueryRow(ctx, query, productID).Scan(&stock); err != nil {
		if database.IsNoRows(err) {
			return 0, ErrProductUnavailable
		}
		return 0, fmt.Errorf("failed to get product stock: %w", err)
	}
	return stock, nil
}

// MergeLine insere a linha ou soma a quantidade à existente numa única instrução.
// A soma só é aplicada se não ultrapassar maxQuantity.
func (r *CartRepository) MergeLine(ctx context.Context, userID, productID uuid.UUID, quantity, maxQuantity int) (*CartLine, error) {
	query := `
		INSERT INTO cart (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO UPDATE
		SET quantity = cart.quantity + EXCLUDED.quantity, updated_at = NOW()
		WHERE cart.quantity + EXCLUDED.quantity <= $4
		RETURNING cart_id, user_id, product_id, quantity, added_at, updated_at
	`
	var line CartLine
	err := r.db.QueryRow(ctx, query, userID, productID, quantity, maxQuantity).Scan(
		&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.AddedAt, &line.UpdatedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrExceedsStock
		}
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	return &line, nil
}

func (r *CartRepository) GetLineStock(ctx context.Context, userID, lineID uuid.UUID) (int, error) {
	var stock int
	query := `
		SELECT p.stock_quantity
		FROM cart c
		JOIN products p ON c.product_id = p.product_id
		WHERE c.cart_id = $1 AND c.user_id = $2
	`
	if err := r.db.QueryRow(ctx, query, lineID, userID).Scan(&stock); err != nil {
		if database.IsNoRows(err) {
			return 0, ErrLineNotFound
		}
		return 0, fmt.Errorf("failed to get cart item: %w", err)
	}
	return stock, nil
}

func (r *CartRepository) SetQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*CartLine, error) {
	query := `
		UPDATE cart SET quantity = $1, updated_at = NOW()
		WHERE cart_id = $2 AND user_id = $3
		RETURNING cart_id, user_id, product_id, quantity, added_at, updated_at
	`
	var line CartLine
	err := r.db.QueryRow(ctx, query, quantity, lineID, userID).Scan(
		&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.AddedAt, &line.UpdatedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrLineNotFound
		}
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return &line, nil
}

func (r *CartRepository) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart WHERE cart_id = $1 AND user_id = $2`, lineID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM cart WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
