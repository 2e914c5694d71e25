package reviews

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
	ErrProductNotFound    = apperr.NotFound("Product not found")
	ErrAlreadyReviewed    = apperr.Conflict("You have already reviewed this product")
	ErrReviewNotEditable  = apperr.NotFound("Review not found or you do not have permission to edit it")
	ErrReviewNotDeletable = apperr.NotFound("Review not found or you do not have permission to delete it")
)

// Repository define a interface para acesso às avaliações
type Repository interface {
	BeginTx(ctx context.Context) (database.Tx, error)
	ListForProduct(ctx context.Context, f ProductFilter) ([]Review, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page httpx.Page) ([]Review, int64, error)
	LockProduct(ctx context.Context, tx database.Tx, productID uuid.UUID) error
	HasPurchased(ctx context.Context, tx database.Tx, userID, productID uuid.UUID) (bool, error)
	Insert(ctx context.Context, tx database.Tx, review *Review) error
	GetOwned(ctx context.Context, tx database.Tx, userID, reviewID uuid.UUID) (*Review, error)
	Update(ctx context.Context, tx database.Tx, reviewID uuid.UUID, req UpdateReviewRequest) (*Review, error)
	Delete(ctx context.Context, tx database.Tx, reviewID uuid.UUID) error
	RecomputeRating(ctx context.Context, tx database.Tx, productID uuid.UUID) (Rating, error)
}

// ReviewRepository implementa Repository sobre o pgxpool
type ReviewRepository struct {
	db *pgxpool.Pool
}

func NewReviewRepository(db *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) BeginTx(ctx context.Context) (database.Tx, error) {
	return database.BeginTx(ctx, r.db)
}

const reviewColumns = `r.review_id, r.user_id, r.product_id, r.rating, r.review_text,
	r.is_verified_purchase, r.created_at, r.updated_at`

func (r *ReviewRepository) ListForProduct(ctx context.Context, f ProductFilter) ([]Review, int64, error) {
	sortColumn, ok := SortFields[f.SortBy]
	if !ok {
		sortColumn = SortFields["created_at"]
	}

	query, args, err := database.Psql.
		Select(reviewColumns, "u.first_name", "u.last_name").
		From("reviews r").
		Join("users u ON u.user_id = r.user_id").
		Where(sq.Eq{"r.product_id": f.ProductID}).
		OrderBy(sortColumn+" DESC", "r.review_id").
		Limit(uint64(f.Page.Limit)).
		Offset(f.Page.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build reviews query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]Review, 0)
	for rows.Next() {
		var rv Review
		if err := rows.Scan(
			&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Comment,
			&rv.IsVerifiedPurchase, &rv.CreatedAt, &rv.UpdatedAt, &rv.FirstName, &rv.LastName,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE product_id = $1`, f.ProductID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return reviews, total, nil
}

func (r *ReviewRepository) ListByUser(ctx context.Context, userID uuid.UUID, page httpx.Page) ([]Review, int64, error) {
	query, args, err := database.Psql.
		Select(reviewColumns, "p.product_name").
		From("reviews r").
		Join("products p ON p.product_id = r.product_id").
		Where(sq.Eq{"r.user_id": userID}).
		OrderBy("r.created_at DESC").
		Limit(uint64(page.Limit)).
		Offset(page.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build reviews query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list user reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]Review, 0)
	for rows.Next() {
		var rv Review
		if err := rows.Scan(
			&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Comment,
			&rv.IsVerifiedPurchase, &rv.CreatedAt, &rv.UpdatedAt, &rv.ProductName,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count user reviews: %w", err)
	}
	return reviews, total, nil
}

// LockProduct trava a linha do produto, serializando o recálculo do agregado
func (r *ReviewRepository) LockProduct(ctx context.Context, tx database.Tx, productID uuid.UUID) error {
	var id uuid.UUID
	err := database.Conn(tx).QueryRow(ctx,
		`SELECT product_id FROM products WHERE product_id = $1 AND product_status <> 'deleted' FOR UPDATE`,
		productID,
	).Scan(&id)
	if database.IsNoRows(err) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock product: %w", err)
	}
	return nil
}

func (r *ReviewRepository) HasPurchased(ctx context.Context, tx database.Tx, userID, productID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM order_items oi
			JOIN orders o ON o.order_id = oi.order_id
			WHERE o.buyer_id = $1 AND oi.product_id = $2
		)
	`
	var purchased bool
	if err := database.Conn(tx).QueryRow(ctx, query, userID, productID).Scan(&purchased); err != nil {
		return false, fmt.Errorf("failed to check purchase history: %w", err)
	}
	return purchased, nil
}

func (r *ReviewRepository) Insert(ctx context.Context, tx database.Tx, review *Review) error {
	query := `
		INSERT INTO reviews (user_id, product_id, rating, review_text, is_verified_purchase)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING review_id, created_at, updated_at
	`
	err := database.Conn(tx).QueryRow(ctx, query,
		review.UserID, review.ProductID, review.Rating, review.Comment, review.IsVerifiedPurchase,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return ErrAlreadyReviewed
	}
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// GetOwned busca e trava a avaliação do usuário
func (r *ReviewRepository) GetOwned(ctx context.Context, tx database.Tx, userID, reviewID uuid.UUID) (*Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews r WHERE r.review_id = $1 AND r.user_id = $2 FOR UPDATE`
	var rv Review
	err := database.Conn(tx).QueryRow(ctx, query, reviewID, userID).Scan(
		&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Comment,
		&rv.IsVerifiedPurchase, &rv.CreatedAt, &rv.UpdatedAt,
	)
	if database.IsNoRows(err) {
		return nil, ErrReviewNotEditable
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &rv, nil
}

func (r *ReviewRepository) Update(ctx context.Context, tx database.Tx, reviewID uuid.UUID, req UpdateReviewRequest) (*Review, error) {
	query := `
		UPDATE reviews r
		SET rating = COALESCE($2, r.rating),
		    review_text = COALESCE($3, r.review_text),
		    updated_at = NOW()
		WHERE r.review_id = $1
		RETURNING ` + reviewColumns
	var rv Review
	err := database.Conn(tx).QueryRow(ctx, query, reviewID, req.Rating, req.Comment).Scan(
		&rv.ID, &rv.UserID, &rv.ProductID, &rv.Rating, &rv.Comment,
		&rv.IsVerifiedPurchase, &rv.CreatedAt, &rv.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return &rv, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, tx database.Tx, reviewID uuid.UUID) error {
	if _, err := database.Conn(tx).Exec(ctx, `DELETE FROM reviews WHERE review_id = $1`, reviewID); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

// RecomputeRating regrava rating_average (média com 2 casas) e total_reviews a partir das avaliações
func (r *ReviewRepository) RecomputeRating(ctx context.Context, tx database.Tx, productID uuid.UUID) (Rating, error) {
	query := `
		UPDATE products p
		SET rating_average = agg.avg_rating,
		    total_reviews = agg.review_count
		FROM (
			SELECT COALESCE(ROUND(AVG(rating)::numeric, 2), 0) AS avg_rating,
			       COUNT(*) AS review_count
			FROM reviews
			WHERE product_id = $1
		) agg
		WHERE p.product_id = $1
		RETURNING p.rating_average, p.total_reviews
	`
	var rating Rating
	if err := database.Conn(tx).QueryRow(ctx, query, productID).Scan(&rating.Average, &rating.Count); err != nil {
		return Rating{}, fmt.Errorf("failed to recompute product rating: %w", err)
	}
	return rating, nil
}
