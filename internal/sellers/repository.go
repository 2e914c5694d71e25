package sellers

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/matheusmosca/marketplace/internal/database"
)

// statuses que não contam como venda
var excludedStatuses = []string{"cancelled", "refunded"}

// Repository define a interface para as consultas de vendedor
type Repository interface {
	ProductCounts(ctx context.Context, sellerID uuid.UUID) (ProductCounts, error)
	SalesTotals(ctx context.Context, sellerID uuid.UUID) (int64, decimal.Decimal, error)
	MonthlyRevenue(ctx context.Context, sellerID uuid.UUID, since time.Time) ([]MonthlyRevenue, error)
	TopProducts(ctx context.Context, sellerID uuid.UUID, limit int) ([]TopProduct, error)
	ListOrderIDs(ctx context.Context, f OrderFilter) ([]uuid.UUID, int64, error)
	GetOrders(ctx context.Context, orderIDs []uuid.UUID) ([]SellerOrder, error)
	ListItems(ctx context.Context, sellerID uuid.UUID, orderIDs []uuid.UUID, productID *uuid.UUID) ([]SellerOrderItem, error)
}

// SellerRepository implementa Repository sobre o pgxpool
type SellerRepository struct {
	db *pgxpool.Pool
}

func NewSellerRepository(db *pgxpool.Pool) *SellerRepository {
	return &SellerRepository{db: db}
}

func (r *SellerRepository) ProductCounts(ctx context.Context, sellerID uuid.UUID) (ProductCounts, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE stock_quantity > 0)
		FROM products
		WHERE seller_id = $1 AND product_status <> 'deleted'
	`
	var c ProductCounts
	if err := r.db.QueryRow(ctx, query, sellerID).Scan(&c.Total, &c.InStock); err != nil {
		return ProductCounts{}, fmt.Errorf("failed to count seller products: %w", err)
	}
	return c, nil
}

// SalesTotals soma unidades e receita dos itens do vendedor
func (r *SellerRepository) SalesTotals(ctx context.Context, sellerID uuid.UUID) (int64, decimal.Decimal, error) {
	query, args, err := database.Psql.
		Select("COALESCE(SUM(oi.quantity), 0)", "COALESCE(SUM(oi.total_price), 0)").
		From("order_items oi").
		Join("orders o ON o.order_id = oi.order_id").
		Where(sq.Eq{"oi.seller_id": sellerID}).
		Where(sq.NotEq{"o.order_status": excludedStatuses}).
		ToSql()
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to build sales query: %w", err)
	}

	var units int64
	var revenue decimal.Decimal
	if err := r.db.QueryRow(ctx, query, args...).Scan(&units, &revenue); err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to sum seller sales: %w", err)
	}
	return units, revenue, nil
}

func (r *SellerRepository) MonthlyRevenue(ctx context.Context, sellerID uuid.UUID, since time.Time) ([]MonthlyRevenue, error) {
	month := "to_char(DATE_TRUNC('month', o.created_at AT TIME ZONE 'UTC'), 'YYYY-MM')"
	query, args, err := database.Psql.
		Select(month+" AS month", "SUM(oi.total_price)").
		From("order_items oi").
		Join("orders o ON o.order_id = oi.order_id").
		Where(sq.Eq{"oi.seller_id": sellerID}).
		Where(sq.NotEq{"o.order_status": excludedStatuses}).
		Where(sq.GtOrEq{"o.created_at": since}).
		GroupBy("month").
		OrderBy("month DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build monthly revenue query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly revenue: %w", err)
	}
	defer rows.Close()

	months := make([]MonthlyRevenue, 0, statsMonths)
	for rows.Next() {
		var m MonthlyRevenue
		if err := rows.Scan(&m.Month, &m.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan monthly revenue: %w", err)
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

// TopProducts lista os produtos ativos do vendedor por unidades vendidas, incluindo os sem vendas
func (r *SellerRepository) TopProducts(ctx context.Context, sellerID uuid.UUID, limit int) ([]TopProduct, error) {
	query := `
		SELECT p.product_id, p.product_name, p.price,
		       (SELECT pi.image_url FROM product_images pi
		        WHERE pi.product_id = p.product_id AND pi.is_primary LIMIT 1),
		       COALESCE(s.units_sold, 0), COALESCE(s.revenue, 0)
		FROM products p
		LEFT JOIN (
			SELECT oi.product_id, SUM(oi.quantity) AS units_sold, SUM(oi.total_price) AS revenue
			FROM order_items oi
			JOIN orders o ON o.order_id = oi.order_id
			WHERE oi.seller_id = $1 AND o.order_status <> ALL($3)
			GROUP BY oi.product_id
		) s ON s.product_id = p.product_id
		WHERE p.seller_id = $1 AND p.product_status <> 'deleted'
		ORDER BY units_sold DESC NULLS LAST, p.product_name
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, sellerID, limit, excludedStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	products := make([]TopProduct, 0, limit)
	for rows.Next() {
		var p TopProduct
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.Price, &p.ImageURL, &p.UnitsSold, &p.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan top product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *SellerRepository) orderFilter(f OrderFilter) sq.SelectBuilder {
	builder := database.Psql.
		Select().
		From("orders o").
		Join("order_items oi ON oi.order_id = o.order_id").
		Where(sq.Eq{"oi.seller_id": f.SellerID})
	if f.Status != "" {
		builder = builder.Where(sq.Eq{"o.order_status": string(f.Status)})
	}
	if f.ProductID != nil {
		builder = builder.Where(sq.Eq{"oi.product_id": *f.ProductID})
	}
	return builder
}

// ListOrderIDs pagina os pedidos que contêm itens do vendedor, mais recentes primeiro
func (r *SellerRepository) ListOrderIDs(ctx context.Context, f OrderFilter) ([]uuid.UUID, int64, error) {
	query, args, err := r.orderFilter(f).
		Columns("o.order_id", "MAX(o.created_at) AS created_at").
		GroupBy("o.order_id").
		OrderBy("created_at DESC", "o.order_id").
		Limit(uint64(f.Page.Limit)).
		Offset(f.Page.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build seller orders query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list seller orders: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		var createdAt time.Time
		if err := rows.Scan(&id, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan seller order id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery, countArgs, err := r.orderFilter(f).Columns("COUNT(DISTINCT o.order_id)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build seller orders count: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count seller orders: %w", err)
	}
	return ids, total, nil
}

func (r *SellerRepository) GetOrders(ctx context.Context, orderIDs []uuid.UUID) ([]SellerOrder, error) {
	query := `
		SELECT o.order_id, o.order_number, o.buyer_id, o.order_status, o.total_amount,
		       o.created_at, o.updated_at,
		       u.first_name || ' ' || u.last_name, u.email,
		       COALESCE(a.street_address || ', ' || a.city || ', ' || a.state || ' ' ||
		                a.postal_code || ', ' || a.country, 'No address provided')
		FROM orders o
		JOIN users u ON u.user_id = o.buyer_id
		LEFT JOIN user_addresses a ON a.address_id = o.shipping_address_id
		WHERE o.order_id = ANY($1)
		ORDER BY o.created_at DESC, o.order_id
	`
	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get seller orders: %w", err)
	}
	defer rows.Close()

	result := make([]SellerOrder, 0, len(orderIDs))
	for rows.Next() {
		var o SellerOrder
		if err := rows.Scan(
			&o.OrderID, &o.OrderNumber, &o.BuyerID, &o.Status, &o.TotalAmount,
			&o.CreatedAt, &o.UpdatedAt,
			&o.BuyerName, &o.BuyerEmail, &o.DeliveryAddress,
		); err != nil {
			return nil, fmt.Errorf("failed to scan seller order: %w", err)
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

// ListItems retorna apenas os itens do vendedor nos pedidos informados
func (r *SellerRepository) ListItems(ctx context.Context, sellerID uuid.UUID, orderIDs []uuid.UUID, productID *uuid.UUID) ([]SellerOrderItem, error) {
	builder := database.Psql.
		Select(
			"oi.order_id", "oi.product_id", "oi.product_name", "oi.unit_price", "oi.quantity", "oi.total_price",
			"(SELECT pi.image_url FROM product_images pi WHERE pi.product_id = oi.product_id AND pi.is_primary LIMIT 1)",
		).
		From("order_items oi").
		Where("oi.order_id = ANY(?)", orderIDs).
		Where(sq.Eq{"oi.seller_id": sellerID}).
		OrderBy("oi.product_name")
	if productID != nil {
		builder = builder.Where(sq.Eq{"oi.product_id": *productID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build seller items query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list seller order items: %w", err)
	}
	defer rows.Close()

	var items []SellerOrderItem
	for rows.Next() {
		var it SellerOrderItem
		if err := rows.Scan(
			&it.OrderID, &it.ProductID, &it.ProductName, &it.Price, &it.Quantity, &it.TotalPrice, &it.ImageURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan seller order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
