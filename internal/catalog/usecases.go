package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/matheusmosca/marketplace/internal/apperr"
)

// CatalogUseCase contém a lógica de negócio do catálogo
type CatalogUseCase struct {
	repository Repository
	cache      ProductCache
	sfg        singleflight.Group
}

func NewCatalogUseCase(repository Repository, cache ProductCache) *CatalogUseCase {
	if cache == nil {
		cache = NoopProductCache{}
	}
	return &CatalogUseCase{repository: repository, cache: cache}
}

func (uc *CatalogUseCase) ListProducts(ctx context.Context, f ProductFilter) ([]ProductListItem, int64, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, 0, apperr.Validation("min_price must not exceed max_price")
	}
	return uc.repository.ListProducts(ctx, f)
}

// GetProduct lê o produto pelo cache (read-through) e completa os dados do principal
func (uc *CatalogUseCase) GetProduct(ctx context.Context, productID uuid.UUID, viewerID *uuid.UUID) (*ProductDetail, error) {
	v, err, _ := uc.sfg.Do(productID.String(), func() (any, error) {
		cached, err := uc.cache.Get(ctx, productID)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			slog.WarnContext(ctx, "⚠️ [CATALOG] cache get error", "product_id", productID, "error", err)
		}

		product, err := uc.repository.GetProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		product.Images, err = uc.repository.ListImages(ctx, productID)
		if err != nil {
			return nil, err
		}

		if err := uc.cache.Set(ctx, product); err != nil {
			slog.WarnContext(ctx, "⚠️ [CATALOG] cache set error", "product_id", productID, "error", err)
		}
		return product, nil
	})
	if err != nil {
		return nil, err
	}

	// cópia rasa: o valor do singleflight é compartilhado entre chamadas
	detail := *v.(*ProductDetail)
	detail.IsFavorite = false

	if viewerID != nil {
		fav, err := uc.repository.IsFavorite(ctx, *viewerID, productID)
		if err != nil {
			return nil, err
		}
		detail.IsFavorite = fav
	}

	if err := uc.repository.IncrementViews(ctx, productID); err != nil {
		slog.WarnContext(ctx, "⚠️ [CATALOG] failed to increment views", "product_id", productID, "error", err)
	}

	return &detail, nil
}

// CreateProduct cria o produto, suas imagens e atualiza o contador do vendedor numa transação
func (uc *CatalogUseCase) CreateProduct(ctx context.Context, sellerID uuid.UUID, req CreateProductRequest) (*Product, error) {
	if !req.Price.IsPositive() {
		return nil, apperr.Validation("Validation failed",
			apperr.FieldError{Field: "price", Message: "must be greater than 0"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("Validation failed",
			apperr.FieldError{Field: "product_name", Message: "is required"})
	}

	harvest, err := parseHarvestDate(req.HarvestDate)
	if err != nil {
		return nil, err
	}

	unit := req.Unit
	if unit == "" {
		unit = "piece"
	}

	product := &Product{
		SellerID:      sellerID,
		CategoryID:    req.CategoryID,
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Price:         req.Price.Round(2),
		StockQuantity: *req.StockQuantity,
		Unit:          unit,
		Weight:        req.Weight,
		IsOrganic:     req.IsOrganic,
		Origin:        req.Origin,
		HarvestDate:   harvest,
	}

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := uc.repository.CreateProduct(ctx, tx, product); err != nil {
		return nil, err
	}
	if len(req.Images) > 0 {
		if err := uc.repository.AddImages(ctx, tx, product.ID, req.Images); err != nil {
			return nil, err
		}
	}
	if err := uc.repository.AdjustSellerProductCount(ctx, tx, sellerID, 1); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product creation: %w", err)
	}

	slog.InfoContext(ctx, "✅ [CATALOG] product created", "product_id", product.ID, "seller_id", sellerID)
	return product, nil
}

func (uc *CatalogUseCase) UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, req UpdateProductRequest) (*Product, error) {
	if req.Price != nil && !req.Price.IsPositive() {
		return nil, apperr.Validation("Validation failed",
			apperr.FieldError{Field: "price", Message: "must be greater than 0"})
	}
	if req.Price != nil {
		rounded := req.Price.Round(2)
		req.Price = &rounded
	}

	product, err := uc.repository.UpdateProduct(ctx, sellerID, productID, req)
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, productID)
	slog.InfoContext(ctx, "✅ [CATALOG] product updated", "product_id", productID)
	return product, nil
}

// DeleteProduct faz soft delete e decrementa o contador do vendedor
func (uc *CatalogUseCase) DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error {
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := uc.repository.SoftDeleteProduct(ctx, tx, sellerID, productID); err != nil {
		return err
	}
	if err := uc.repository.AdjustSellerProductCount(ctx, tx, sellerID, -1); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product deletion: %w", err)
	}

	uc.invalidate(ctx, productID)
	slog.InfoContext(ctx, "🗑️ [CATALOG] product deleted", "product_id", productID)
	return nil
}

func (uc *CatalogUseCase) ListCategories(ctx context.Context) ([]Category, error) {
	return uc.repository.ListCategories(ctx)
}

func (uc *CatalogUseCase) invalidate(ctx context.Context, productID uuid.UUID) {
	if err := uc.cache.Delete(ctx, productID); err != nil {
		slog.WarnContext(ctx, "⚠️ [CATALOG] cache invalidate error", "product_id", productID, "error", err)
	}
}

// parseHarvestDate converte YYYY-MM-DD em data
func parseHarvestDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *raw)
	if err != nil {
		return nil, apperr.Validation("Validation failed",
			apperr.FieldError{Field: "harvest_date", Message: "must be YYYY-MM-DD"})
	}
	return &t, nil
}
