package catalog

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matheusmosca/marketplace/internal/apperr"
	"github.com/matheusmosca/marketplace/internal/database"
)

var ErrProductNotFound = apperr.NotFound("Product not found")

// Repository define a interface para acesso ao catálogo
type Repository interface {
	BeginTx(ctx context.Context) (database.Tx, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]ProductListItem, int64, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error)
	ListImages(ctx context.Context, productID uuid.UUID) ([]ProductImage, error)
	IsFavorite(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	IncrementViews(ctx context.Context, productID uuid.UUID) error
	CreateProduct(ctx context.Context, tx database.Tx, p *Product) error
	AddImages(ctx context.Context, tx database.Tx, productID uuid.UUID, images []ImageInput) error
	AdjustSellerProductCount(ctx context.Context, tx database.Tx, sellerID uuid.UUID, delta int) error
	UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, req UpdateProductRequest) (*Product, error)
	SoftDeleteProduct(ctx context.Context, tx database.Tx, sellerID, productID uuid.UUID) error
	ListCategories(ctx context.Context) ([]Category, error)
}

// ProductRepository implementa Repository sobre o pgxpool
type ProductRepository struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) BeginTx(ctx context.Context) (database.Tx, error) {
	return database.BeginTx(ctx, r.db)
}

// productConditions monta o WHERE comum à listagem e à contagem
func productConditions(f ProductFilter) sq.And {
	conds := sq.And{sq.Eq{"p.product_status": ProductStatusActive}}

	if f.SellerID != nil {
		conds = append(conds, sq.Eq{"p.seller_id": *f.SellerID})
	}
	if f.Category != "" {
		conds = append(conds, sq.Eq{"c.category_name": f.Category})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		conds = append(conds, sq.Or{
			sq.ILike{"p.product_name": pattern},
			sq.ILike{"p.description": pattern},
		})
	}
	if f.MinPrice != nil {
		conds = append(conds, sq.GtOrEq{"p.price": *f.MinPrice})
	}
	if f.MaxPrice != nil {
		conds = append(conds, sq.LtOrEq{"p.price": *f.MaxPrice})
	}
	if f.IsOrganic != nil {
		conds = append(conds, sq.Eq{"p.is_organic": *f.IsOrganic})
	}
	return conds
}

func (r *ProductRepository) ListProducts(ctx context.Context, f ProductFilter) ([]ProductListItem, int64, error) {
	conds := productConditions(f)

	sortBy := f.SortBy
	if !SortFields[sortBy] {
		sortBy = "created_at"
	}
	direction := "ASC"
	if f.SortDesc {
		direction = "DESC"
	}

	builder := database.Psql.
		Select(
			"p.product_id", "p.seller_id", "p.product_name", "p.description", "p.price", "p.stock_quantity",
			"p.unit", "p.weight", "p.is_organic", "p.origin", "p.rating_average", "p.total_reviews",
			"p.total_sales", "p.created_at", "c.category_name",
			"u.first_name || ' ' || u.last_name AS seller_name",
			"sp.business_name",
			"(SELECT pi.image_url FROM product_images pi WHERE pi.product_id = p.product_id AND pi.is_primary LIMIT 1) AS image_url",
		).
		From("products p").
		LeftJoin("categories c ON p.category_id = c.category_id").
		Join("users u ON p.seller_id = u.user_id").
		LeftJoin("seller_profiles sp ON p.seller_id = sp.seller_id").
		Where(conds).
		OrderBy(fmt.Sprintf("p.%s %s", sortBy, direction), "p.product_id").
		Limit(uint64(f.Page.Limit)).
		Offset(f.Page.Offset())

	if f.ViewerID != nil {
		builder = builder.Column(
			"EXISTS(SELECT 1 FROM favorites f WHERE f.user_id = ? AND f.product_id = p.product_id) AS is_favorite",
			*f.ViewerID,
		)
	} else {
		builder = builder.Column("false AS is_favorite")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build products query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]ProductListItem, 0)
	for rows.Next() {
		var p ProductListItem
		if err := rows.Scan(
			&p.ID, &p.SellerID, &p.Name, &p.Description, &p.Price, &p.StockQuantity,
			&p.Unit, &p.Weight, &p.IsOrganic, &p.Origin, &p.RatingAverage, &p.TotalReviews,
			&p.TotalSales, &p.CreatedAt, &p.CategoryName, &p.SellerName, &p.BusinessName,
			&p.ImageURL, &p.IsFavorite,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate products: %w", err)
	}

	countQuery, countArgs, err := database.Psql.
		Select("COUNT(*)").
		From("products p").
		LeftJoin("categories c ON p.category_id = c.category_id").
		Where(conds).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	return products, total, nil
}

func (r *ProductRepository) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	query := `
		SELECT p.product_id, p.seller_id, p.category_id, p.product_name, p.description, p.price,
		       p.stock_quantity, p.unit, p.weight, p.is_organic, p.origin, p.harvest_date,
		       p.product_status, p.rating_average, p.total_reviews, p.total_sales, p.views_count,
		       p.created_at, p.updated_at,
		       c.category_name,
		       u.first_name || ' ' || u.last_name, u.email,
		       sp.business_name, sp.business_description, COALESCE(sp.rating_average, 0)
		FROM products p
		LEFT JOIN categories c ON p.category_id = c.category_id
		JOIN users u ON p.seller_id = u.user_id
		LEFT JOIN seller_profiles sp ON p.seller_id = sp.seller_id
		WHERE p.product_id = $1 AND p.product_status <> 'deleted'
	`

	var d ProductDetail
	err := r.db.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.SellerID, &d.CategoryID, &d.Name, &d.Description, &d.Price,
		&d.StockQuantity, &d.Unit, &d.Weight, &d.IsOrganic, &d.Origin, &d.HarvestDate,
		&d.Status, &d.RatingAverage, &d.TotalReviews, &d.TotalSales, &d.ViewsCount,
		&d.CreatedAt, &d.UpdatedAt,
		&d.CategoryName,
		&d.Seller.Name, &d.Seller.Email,
		&d.Seller.BusinessName, &d.Seller.BusinessDescription, &d.Seller.Rating,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	d.Seller.ID = d.SellerID

	return &d, nil
}

func (r *ProductRepository) ListImages(ctx context.Context, productID uuid.UUID) ([]ProductImage, error) {
	query := `
		SELECT image_id, image_url, is_primary, display_order
		FROM product_images
		WHERE product_id = $1
		ORDER BY display_order
	`
	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list product images: %w", err)
	}
	defer rows.Close()

	images := make([]ProductImage, 0)
	for rows.Next() {
		var img ProductImage
		if err := rows.Scan(&img.ID, &img.URL, &img.IsPrimary, &img.DisplayOrder); err != nil {
			return nil, fmt.Errorf("failed to scan product image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (r *ProductRepository) IsFavorite(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2)`
	if err := r.db.QueryRow(ctx, query, userID, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return exists, nil
}

func (r *ProductRepository) IncrementViews(ctx context.Context, productID uuid.UUID) error {
	query := `UPDATE products SET views_count = views_count + 1 WHERE product_id = $1`
	if _, err := r.db.Exec(ctx, query, productID); err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

func (r *ProductRepository) CreateProduct(ctx context.Context, tx database.Tx, p *Product) error {
	query := `
		INSERT INTO products (
			seller_id, category_id, product_name, description, price,
			stock_quantity, unit, weight, is_organic, origin, harvest_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING product_id, product_status, rating_average, total_reviews, total_sales,
		          views_count, created_at, updated_at
	`
	err := database.Conn(tx).QueryRow(ctx, query,
		p.SellerID, p.CategoryID, p.Name, p.Description, p.Price,
		p.StockQuantity, p.Unit, p.Weight, p.IsOrganic, p.Origin, p.HarvestDate,
	).Scan(
		&p.ID, &p.Status, &p.RatingAverage, &p.TotalReviews, &p.TotalSales,
		&p.ViewsCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// AddImages insere as imagens na ordem recebida. Sem imagem primária explícita, a primeira assume o papel.
func (r *ProductRepository) AddImages(ctx context.Context, tx database.Tx, productID uuid.UUID, images []ImageInput) error {
	hasPrimary := false
	for _, img := range images {
		hasPrimary = hasPrimary || img.IsPrimary
	}

	query := `
		INSERT INTO product_images (product_id, image_url, is_primary, display_order)
		VALUES ($1, $2, $3, $4)
	`
	for i, img := range images {
		primary := img.IsPrimary || (!hasPrimary && i == 0)
		if _, err := database.Conn(tx).Exec(ctx, query, productID, img.URL, primary, i); err != nil {
			return fmt.Errorf("failed to insert product image: %w", err)
		}
	}
	return nil
}

func (r *ProductRepository) AdjustSellerProductCount(ctx context.Context, tx database.Tx, sellerID uuid.UUID, delta int) error {
	query := `
		UPDATE seller_profiles
		SET total_products = GREATEST(total_products + $1, 0)
		WHERE seller_id = $2
	`
	if _, err := database.Conn(tx).Exec(ctx, query, delta, sellerID); err != nil {
		return fmt.Errorf("failed to update seller product count: %w", err)
	}
	return nil
}

// UpdateProduct aplica o patch apenas em produtos do próprio vendedor
func (r *ProductRepository) UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, req UpdateProductRequest) (*Product, error) {
	query := `
		UPDATE products SET
			category_id = COALESCE($1, category_id),
			product_name = COALESCE($2, product_name),
			description = COALESCE($3, description),
			price = COALESCE($4, price),
			stock_quantity = COALESCE($5, stock_quantity),
			unit = COALESCE($6, unit),
			weight = COALESCE($7, weight),
			is_organic = COALESCE($8, is_organic),
			origin = COALESCE($9, origin),
			product_status = COALESCE($10, product_status),
			updated_at = NOW()
		WHERE product_id = $11 AND seller_id = $12 AND product_status <> 'deleted'
		RETURNING product_id, seller_id, category_id, product_name, description, price,
		          stock_quantity, unit, weight, is_organic, origin, harvest_date, product_status,
		          rating_average, total_reviews, total_sales, views_count, created_at, updated_at
	`

	var p Product
	err := r.db.QueryRow(ctx, query,
		req.CategoryID, req.Name, req.Description, req.Price, req.StockQuantity,
		req.Unit, req.Weight, req.IsOrganic, req.Origin, req.Status,
		productID, sellerID,
	).Scan(
		&p.ID, &p.SellerID, &p.CategoryID, &p.Name, &p.Description, &p.Price,
		&p.StockQuantity, &p.Unit, &p.Weight, &p.IsOrganic, &p.Origin, &p.HarvestDate, &p.Status,
		&p.RatingAverage, &p.TotalReviews, &p.TotalSales, &p.ViewsCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperr.NotFound("Product not found or you do not have permission to edit it")
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepository) SoftDeleteProduct(ctx context.Context, tx database.Tx, sellerID, productID uuid.UUID) error {
	query := `
		UPDATE products
		SET product_status = 'deleted', updated_at = NOW()
		WHERE product_id = $1 AND seller_id = $2 AND product_status <> 'deleted'
	`
	tag, err := database.Conn(tx).Exec(ctx, query, productID, sellerID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Product not found or you do not have permission to delete it")
	}
	return nil
}

func (r *ProductRepository) ListCategories(ctx context.Context) ([]Category, error) {
	query := `
		SELECT category_id, category_name, description, image_url
		FROM categories
		WHERE is_active = true
		ORDER BY category_name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
