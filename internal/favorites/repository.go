package favorites

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matheusmosca/marketplace/internal/apperr"
	"github.com/matheusmosca/marketplace/internal/database"
	"github.com/matheusmosca/marketplace/internal/httpx"
)

var (
	ErrProductNotFound  = apperr.NotFound("Product not found")
	ErrFavoriteNotFound = apperr.NotFound("Favorite not found")
	ErrAlreadyFavorite  = apperr.Conflict("Product already in favorites")
)

// Repository define a interface para acesso aos favoritos
type Repository interface {
	List(ctx context.Context, userID uuid.UUID, page httpx.Page) ([]FavoriteProduct, int64, error)
	ProductExists(ctx context.Context, productID uuid.UUID) (bool, error)
	Insert(ctx context.Context, userID, productID uuid.UUID) (*Favorite, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

// FavoriteRepository implementa Repository sobre o pgxpool
type FavoriteRepository struct {
	db *pgxpool.Pool
}

func NewFavoriteRepository(db *pgxpool.Pool) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) List(ctx context.Context, userID uuid.UUID, page httpx.Page) ([]FavoriteProduct, int64, error) {
	query, args, err := database.Psql.
		Select(
			"f.favorite_id", "f.created_at",
			"p.product_id", "p.product_name", "p.description", "p.price", "p.unit",
			"p.stock_quantity", "p.is_organic", "p.rating_average", "p.total_reviews",
			"c.category_name",
			"(SELECT pi.image_url FROM product_images pi WHERE pi.product_id = p.product_id AND pi.is_primary LIMIT 1)",
		).
		From("favorites f").
		Join("products p ON p.product_id = f.product_id").
		LeftJoin("categories c ON c.category_id = p.category_id").
		Where(sq.Eq{"f.user_id": userID}).
		OrderBy("f.created_at DESC", "f.favorite_id").
		Limit(uint64(page.Limit)).
		Offset(page.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build favorites query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favorites := make([]FavoriteProduct, 0)
	for rows.Next() {
		var f FavoriteProduct
		if err := rows.Scan(
			&f.FavoriteID, &f.FavoritedAt,
			&f.ProductID, &f.ProductName, &f.Description, &f.Price, &f.Unit,
			&f.StockQuantity, &f.IsOrganic, &f.RatingAverage, &f.TotalReviews,
			&f.CategoryName, &f.ImageURL,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan favorite: %w", err)
		}
		favorites = append(favorites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM favorites WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return favorites, total, nil
}

func (r *FavoriteRepository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM products WHERE product_id = $1 AND product_status <> 'deleted')`
	if err := r.db.QueryRow(ctx, query, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check product: %w", err)
	}
	return exists, nil
}

// Insert cria o favorito. Já existente retorna ErrAlreadyFavorite.
func (r *FavoriteRepository) Insert(ctx context.Context, userID, productID uuid.UUID) (*Favorite, error) {
	query := `
		INSERT INTO favorites (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING
		RETURNING favorite_id, user_id, product_id, created_at
	`
	var f Favorite
	err := r.db.QueryRow(ctx, query, userID, productID).Scan(&f.ID, &f.UserID, &f.ProductID, &f.CreatedAt)
	if database.IsNoRows(err) {
		return nil, ErrAlreadyFavorite
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert favorite: %w", err)
	}
	return &f, nil
}

// Delete remove o favorito e informa se havia algo para remover
func (r *FavoriteRepository) Delete(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return false, fmt.Errorf("failed to delete favorite: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2)`
	if err := r.db.QueryRow(ctx, query, userID, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}
