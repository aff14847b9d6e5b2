package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pos-billing/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrBarcodeAlreadyExists = errors.New("product with this barcode already exists")
	ErrStockConflict        = errors.New("stock level changed concurrently")
)

// ProductFilter narrows and paginates catalog listings.
type ProductFilter struct {
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	InStock  bool
	Page     int
	Limit    int
}

// ProductRepository is the catalog store.
type ProductRepository interface {
	// WithTx returns a copy of the repository bound to the given transaction.
	WithTx(tx *sql.Tx) ProductRepository

	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error)
	QuickSearch(ctx context.Context, query string, limit int) ([]*domain.Product, error)
	ExistsByBarcode(ctx context.Context, barcode string) (bool, error)

	// FindByIDs returns the subset of requested products that exist. Callers
	// must compare the returned count against the requested count to detect
	// missing products.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Product, error)

	// DecrementStock atomically subtracts quantity from the product's stock.
	// The update is guarded so stock never goes below zero; when the guard
	// rejects the write, ErrStockConflict is returned.
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}

type productRepository struct {
	db DBTX
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) WithTx(tx *sql.Tx) ProductRepository {
	return &productRepository{db: tx}
}

const productColumns = "id, name, barcode, price, tax_percent, stock, created_at, updated_at"

func scanProduct(row interface{ Scan(dest ...any) error }) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Barcode,
		&product.Price,
		&product.TaxPercent,
		&product.Stock,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// Create inserts a new product into the catalog.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, barcode, price, tax_percent, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Barcode,
		product.Price,
		product.TaxPercent,
		product.Stock,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "products_barcode_key") {
			return ErrBarcodeAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update rewrites all mutable product fields.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, barcode = $3, price = $4, tax_percent = $5, stock = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Barcode,
		product.Price,
		product.TaxPercent,
		product.Stock,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "products_barcode_key") {
			return ErrBarcodeAlreadyExists
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product from the catalog. Historical invoices keep their
// own copies of product data and are unaffected.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID.
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindByIDs retrieves the subset of the requested products that exist.
func (r *productRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return []*domain.Product{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(
		`SELECT %s FROM products WHERE id IN (%s)`,
		productColumns, strings.Join(placeholders, ", "),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by IDs: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// DecrementStock subtracts quantity from the product's stock. The WHERE guard
// re-checks the stored value so two concurrent invoices cannot drive stock
// below zero; the losing writer gets ErrStockConflict.
func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	result, err := r.db.ExecContext(ctx, query, id, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrStockConflict
	}

	return nil
}

// ExistsByBarcode reports whether any product carries the given barcode.
func (r *productRepository) ExistsByBarcode(ctx context.Context, barcode string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE barcode = $1)`,
		barcode,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check barcode: %w", err)
	}

	return exists, nil
}

// List retrieves products matching the filter, newest first, with pagination.
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int, error) {
	conditions := []string{}
	args := []any{}
	argIndex := 1

	if strings.TrimSpace(filter.Search) != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}

	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	if filter.InStock {
		conditions = append(conditions, "stock > 0")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// QuickSearch is the point-of-sale lookup: name match, in stock only.
func (r *productRepository) QuickSearch(ctx context.Context, query string, limit int) ([]*domain.Product, error) {
	searchQuery := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE name ILIKE $1 AND stock > 0
		ORDER BY name ASC
		LIMIT $2
	`, productColumns)

	rows, err := r.db.QueryContext(ctx, searchQuery, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}

	return products, nil
}
