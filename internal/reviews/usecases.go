package reviews

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/matheusmosca/marketplace/internal/apperr"
	"github.com/matheusmosca/marketplace/internal/httpx"
)

// ProductInvalidator remove o produto do cache quando o agregado muda
type ProductInvalidator interface {
	Delete(ctx context.Context, ids ...uuid.UUID) error
}

// ReviewUseCase contém a lógica de avaliações. Toda escrita aceita recalcula
// o agregado do produto na mesma transação.
type ReviewUseCase struct {
	repository Repository
	cache      ProductInvalidator
}

func NewReviewUseCase(repository Repository, cache ProductInvalidator) *ReviewUseCase {
	return &ReviewUseCase{repository: repository, cache: cache}
}

func (uc *ReviewUseCase) ListForProduct(ctx context.Context, f ProductFilter) ([]Review, int64, error) {
	if f.SortBy == "" {
		f.SortBy = "created_at"
	}
	if _, ok := SortFields[f.SortBy]; !ok {
		return nil, 0, apperr.Validation("Invalid sort field",
			apperr.FieldError{Field: "sort_by", Message: "must be one of created_at, rating"})
	}
	return uc.repository.ListForProduct(ctx, f)
}

func (uc *ReviewUseCase) ListMine(ctx context.Context, userID uuid.UUID, page httpx.Page) ([]Review, int64, error) {
	return uc.repository.ListByUser(ctx, userID, page)
}

func (uc *ReviewUseCase) Create(ctx context.Context, userID uuid.UUID, req CreateReviewRequest) (*Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ratingError()
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := uc.repository.LockProduct(ctx, tx, req.ProductID); err != nil {
		return nil, err
	}

	verified, err := uc.repository.HasPurchased(ctx, tx, userID, req.ProductID)
	if err != nil {
		return nil, err
	}

	review := &Review{
		UserID:             userID,
		ProductID:          req.ProductID,
		Rating:             req.Rating,
		Comment:            trimComment(req.Comment),
		IsVerifiedPurchase: verified,
	}
	if err := uc.repository.Insert(ctx, tx, review); err != nil {
		return nil, err
	}

	rating, err := uc.repository.RecomputeRating(ctx, tx, req.ProductID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit review: %w", err)
	}

	uc.invalidate(ctx, req.ProductID)
	slog.InfoContext(ctx, "⭐ [REVIEW] created",
		"review_id", review.ID,
		"product_id", req.ProductID,
		"verified_purchase", verified,
		"rating_average", rating.Average.StringFixed(2),
	)
	return review, nil
}

func (uc *ReviewUseCase) Update(ctx context.Context, userID, reviewID uuid.UUID, req UpdateReviewRequest) (*Review, error) {
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, ratingError()
	}
	req.Comment = trimComment(req.Comment)

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := uc.repository.GetOwned(ctx, tx, userID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := uc.repository.LockProduct(ctx, tx, current.ProductID); err != nil {
		return nil, err
	}

	updated, err := uc.repository.Update(ctx, tx, reviewID, req)
	if err != nil {
		return nil, err
	}
	if _, err := uc.repository.RecomputeRating(ctx, tx, current.ProductID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit review update: %w", err)
	}

	uc.invalidate(ctx, current.ProductID)
	return updated, nil
}

func (uc *ReviewUseCase) Delete(ctx context.Context, userID, reviewID uuid.UUID) error {
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	current, err := uc.repository.GetOwned(ctx, tx, userID, reviewID)
	if errors.Is(err, ErrReviewNotEditable) {
		return ErrReviewNotDeletable
	}
	if err != nil {
		return err
	}

	// produto excluído ainda aceita remoção das avaliações
	if err := uc.repository.LockProduct(ctx, tx, current.ProductID); err != nil && !errors.Is(err, ErrProductNotFound) {
		return err
	}
	if err := uc.repository.Delete(ctx, tx, reviewID); err != nil {
		return err
	}
	if _, err := uc.repository.RecomputeRating(ctx, tx, current.ProductID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review deletion: %w", err)
	}

	uc.invalidate(ctx, current.ProductID)
	return nil
}

func (uc *ReviewUseCase) invalidate(ctx context.Context, productID uuid.UUID) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Delete(ctx, productID); err != nil {
		slog.WarnContext(ctx, "⚠️ [REVIEW] cache invalidation failed", "product_id", productID, "error", err)
	}
}

func trimComment(c *string) *string {
	if c == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*c)
	return &trimmed
}

func ratingError() error {
	return apperr.Validation("Validation failed",
		apperr.FieldError{Field: "rating", Message: "Rating must be between 1 and 5"})
}
