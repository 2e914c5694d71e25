package sellers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matheusmosca/marketplace/internal/apperr"
)

type SellerUseCase struct {
	repository Repository
	now        func() time.Time
}

func NewSellerUseCase(repository Repository) *SellerUseCase {
	return &SellerUseCase{repository: repository, now: time.Now}
}

// Stats roda as consultas de agregação em paralelo sobre o pool
func (uc *SellerUseCase) Stats(ctx context.Context, sellerID uuid.UUID) (*Stats, error) {
	var (
		stats  Stats
		counts ProductCounts
	)
	since := uc.now().UTC().AddDate(0, -statsMonths, 0)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts, err = uc.repository.ProductCounts(gctx, sellerID)
		return err
	})
	g.Go(func() (err error) {
		stats.UnitsSold, stats.TotalRevenue, err = uc.repository.SalesTotals(gctx, sellerID)
		return err
	})
	g.Go(func() (err error) {
		stats.MonthlyRevenue, err = uc.repository.MonthlyRevenue(gctx, sellerID, since)
		return err
	})
	g.Go(func() (err error) {
		stats.TopProducts, err = uc.repository.TopProducts(gctx, sellerID, topProductsMax)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.TotalProducts = counts.Total
	stats.InStockProducts = counts.InStock
	return &stats, nil
}

// Orders pagina os pedidos com itens do vendedor. Cada pedido traz só os itens dele.
func (uc *SellerUseCase) Orders(ctx context.Context, f OrderFilter) ([]SellerOrder, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, apperr.Validation("Invalid order status",
			apperr.FieldError{Field: "status", Message: "unknown order status"})
	}

	ids, total, err := uc.repository.ListOrderIDs(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []SellerOrder{}, total, nil
	}

	result, err := uc.repository.GetOrders(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	items, err := uc.repository.ListItems(ctx, f.SellerID, ids, f.ProductID)
	if err != nil {
		return nil, 0, err
	}

	byOrder := make(map[uuid.UUID][]SellerOrderItem, len(ids))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range result {
		result[i].Items = byOrder[result[i].OrderID]
		if result[i].Items == nil {
			result[i].Items = []SellerOrderItem{}
		}
	}
	return result, total, nil
}
