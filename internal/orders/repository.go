package orders

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matheusmosca/marketplace/internal/database"
)

// Repository define a interface para acesso aos pedidos
type Repository interface {
	BeginTx(ctx context.Context) (database.Tx, error)
	LockCartLines(ctx context.Context, tx database.Tx, buyerID uuid.UUID) ([]CartLine, error)
	ResolveAddress(ctx context.Context, tx database.Tx, buyerID uuid.UUID, addressID *uuid.UUID) (uuid.UUID, error)
	InsertOrder(ctx context.Context, tx database.Tx, order *Order) error
	InsertItems(ctx context.Context, tx database.Tx, orderID uuid.UUID, lines []CartLine) error
	DecrementStock(ctx context.Context, tx database.Tx, line CartLine) error
	ClearCart(ctx context.Context, tx database.Tx, buyerID uuid.UUID) error
	AddOutboxEvent(ctx context.Context, tx database.Tx, event OutboxEvent) error
	ListOrders(ctx context.Context, buyerID uuid.UUID, f ListFilter) ([]Order, int64, error)
	GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error)
}

// OrderRepository implementa Repository e OutboxStore sobre o pgxpool
type OrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) BeginTx(ctx context.Context) (database.Tx, error) {
	return database.BeginTx(ctx, r.db)
}

// LockCartLines lê o carrinho com preço e estoque atuais e trava as linhas de produto.
// A ordenação por product_id evita deadlock entre checkouts concorrentes.
func (r *OrderRepository) LockCartLines(ctx context.Context, tx database.Tx, buyerID uuid.UUID) ([]CartLine, error) {
	query := `
		SELECT p.product_id, p.seller_id, p.product_name, c.quantity, p.price, p.stock_quantity
		FROM cart c
		JOIN products p ON p.product_id = c.product_id
		WHERE c.user_id = $1 AND p.product_status = 'active'
		ORDER BY p.product_id
		FOR UPDATE OF p
	`
	rows, err := database.Conn(tx).Query(ctx, query, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart lines: %w", err)
	}
	defer rows.Close()

	var lines []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.ProductID, &l.SellerID, &l.ProductName, &l.Quantity, &l.UnitPrice, &l.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// ResolveAddress valida o endereço informado ou usa o padrão do comprador,
// criando um endereço provisório quando ele não tem nenhum
func (r *OrderRepository) ResolveAddress(ctx context.Context, tx database.Tx, buyerID uuid.UUID, addressID *uuid.UUID) (uuid.UUID, error) {
	conn := database.Conn(tx)
	var id uuid.UUID

	if addressID != nil {
		err := conn.QueryRow(ctx,
			`SELECT address_id FROM user_addresses WHERE address_id = $1 AND user_id = $2`,
			*addressID, buyerID,
		).Scan(&id)
		if database.IsNoRows(err) {
			return uuid.Nil, ErrAddressNotFound
		}
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to load shipping address: %w", err)
		}
		return id, nil
	}

	selectDefault := `SELECT address_id FROM user_addresses WHERE user_id = $1 AND is_default LIMIT 1`
	err := conn.QueryRow(ctx, selectDefault, buyerID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !database.IsNoRows(err) {
		return uuid.Nil, fmt.Errorf("failed to load default address: %w", err)
	}

	insert := `
		INSERT INTO user_addresses (user_id, street_address, city, state, postal_code, country, is_default)
		VALUES ($1, 'Default Address', 'City', 'State', '00000', 'Malaysia', true)
		ON CONFLICT (user_id) WHERE is_default DO NOTHING
		RETURNING address_id
	`
	err = conn.QueryRow(ctx, insert, buyerID).Scan(&id)
	if database.IsNoRows(err) {
		// outra requisição criou o padrão entre o SELECT e o INSERT
		err = conn.QueryRow(ctx, selectDefault, buyerID).Scan(&id)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create default address: %w", err)
	}
	return id, nil
}

// InsertOrder grava o pedido dentro de um savepoint, de modo que uma colisão
// de order_number não invalida a transação externa
func (r *OrderRepository) InsertOrder(ctx context.Context, tx database.Tx, order *Order) error {
	query := `
		INSERT INTO orders (
			buyer_id, order_number, total_amount, shipping_fee,
			tax_amount, final_amount, payment_method, shipping_address_id, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING order_id, order_status, payment_status, created_at, updated_at
	`
	err := database.Savepoint(ctx, tx, func(sp pgx.Tx) error {
		return sp.QueryRow(ctx, query,
			order.BuyerID, order.OrderNumber, order.TotalAmount, order.ShippingFee,
			order.TaxAmount, order.FinalAmount, order.PaymentMethod, order.ShippingAddressID, order.Notes,
		).Scan(&order.ID, &order.Status, &order.PaymentStatus, &order.CreatedAt, &order.UpdatedAt)
	})
	if database.IsUniqueViolation(err) {
		return ErrOrderNumberTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) InsertItems(ctx context.Context, tx database.Tx, orderID uuid.UUID, lines []CartLine) error {
	builder := database.Psql.
		Insert("order_items").
		Columns("order_id", "product_id", "seller_id", "product_name", "quantity", "unit_price", "total_price")
	for _, l := range lines {
		builder = builder.Values(orderID, l.ProductID, l.SellerID, l.ProductName, l.Quantity, l.UnitPrice, lineTotal(l))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build order items insert: %w", err)
	}
	if _, err := database.Conn(tx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	return nil
}

// DecrementStock baixa o estoque de forma condicional; nenhuma linha afetada
// significa que o estoque ficou abaixo da quantidade pedida
func (r *OrderRepository) DecrementStock(ctx context.Context, tx database.Tx, line CartLine) error {
	query := `
		UPDATE products
		SET stock_quantity = stock_quantity - $1,
		    total_sales = total_sales + $1,
		    updated_at = NOW()
		WHERE product_id = $2 AND stock_quantity >= $1
	`
	tag, err := database.Conn(tx).Exec(ctx, query, line.Quantity, line.ProductID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &InsufficientStockError{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Requested:   line.Quantity,
			Available:   line.Stock,
		}
	}
	return nil
}

func (r *OrderRepository) ClearCart(ctx context.Context, tx database.Tx, buyerID uuid.UUID) error {
	if _, err := database.Conn(tx).Exec(ctx, `DELETE FROM cart WHERE user_id = $1`, buyerID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (r *OrderRepository) AddOutboxEvent(ctx context.Context, tx database.Tx, event OutboxEvent) error {
	query := `INSERT INTO outbox_events (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`
	if _, err := database.Conn(tx).Exec(ctx, query, event.AggregateID, event.EventType, event.Payload); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

const orderColumns = `o.order_id, o.order_number, o.buyer_id, o.total_amount, o.shipping_fee,
	o.tax_amount, o.final_amount, o.payment_method, o.payment_status, o.order_status,
	o.shipping_address_id, o.notes, o.created_at, o.updated_at`

func scanOrder(row pgx.Row, o *Order, extra ...any) error {
	dest := []any{
		&o.ID, &o.OrderNumber, &o.BuyerID, &o.TotalAmount, &o.ShippingFee,
		&o.TaxAmount, &o.FinalAmount, &o.PaymentMethod, &o.PaymentStatus, &o.Status,
		&o.ShippingAddressID, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func (r *OrderRepository) ListOrders(ctx context.Context, buyerID uuid.UUID, f ListFilter) ([]Order, int64, error) {
	conds := sq.And{sq.Eq{"o.buyer_id": buyerID}}
	if f.Status != "" {
		conds = append(conds, sq.Eq{"o.order_status": f.Status})
	}

	query, args, err := database.Psql.
		Select(orderColumns, "COUNT(oi.order_item_id) AS item_count").
		From("orders o").
		LeftJoin("order_items oi ON oi.order_id = o.order_id").
		Where(conds).
		GroupBy("o.order_id").
		OrderBy("o.created_at DESC").
		Limit(uint64(f.Page.Limit)).
		Offset(f.Page.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build orders query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o, &o.ItemCount); err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery, countArgs, err := database.Psql.Select("COUNT(*)").From("orders o").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build orders count: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return orders, total, nil
}

// GetOrder busca o pedido do comprador com o endereço de entrega
func (r *OrderRepository) GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + `,
			a.street_address, a.city, a.state, a.postal_code, a.country
		FROM orders o
		LEFT JOIN user_addresses a ON a.address_id = o.shipping_address_id
		WHERE o.order_id = $1 AND o.buyer_id = $2
	`
	var (
		o                               Order
		street, city, state, zip, cntry *string
	)
	err := scanOrder(r.db.QueryRow(ctx, query, orderID, buyerID), &o, &street, &city, &state, &zip, &cntry)
	if database.IsNoRows(err) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if street != nil {
		o.ShippingAddress = &ShippingAddress{
			StreetAddress: *street,
			City:          deref(city),
			State:         deref(state),
			PostalCode:    deref(zip),
			Country:       deref(cntry),
		}
	}
	return &o, nil
}

func (r *OrderRepository) ListItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	query := `
		SELECT oi.order_item_id, oi.order_id, oi.product_id, oi.seller_id, oi.product_name,
		       oi.quantity, oi.unit_price, oi.total_price, p.unit,
		       (SELECT image_url FROM product_images
		        WHERE product_id = oi.product_id AND is_primary LIMIT 1) AS image_url
		FROM order_items oi
		JOIN products p ON p.product_id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.product_name
	`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	items := make([]OrderItem, 0)
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.SellerID, &it.ProductName,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.Unit, &it.ImageURL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// FetchUnprocessed retorna os eventos ainda não publicados, na ordem de gravação
func (r *OrderRepository) FetchUnprocessed(ctx context.Context, limit int) ([]OutboxEvent, error) {
	query := `
		SELECT event_id, aggregate_id, event_type, payload, created_at
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY event_id
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *OrderRepository) MarkProcessed(ctx context.Context, eventID int64) error {
	query := `UPDATE outbox_events SET processed_at = NOW() WHERE event_id = $1`
	if _, err := r.db.Exec(ctx, query, eventID); err != nil {
		return fmt.Errorf("failed to mark outbox event %d: %w", eventID, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
