package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pos-billing/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrDuplicateInvoiceNumber = errors.New("invoice number already exists")
)

// InvoiceRepository is the durable store of committed invoices. Insert is only
// ever called from within the coordinator's transaction; the read and
// aggregate methods reflect whatever has already been committed.
type InvoiceRepository interface {
	// WithTx returns a copy of the repository bound to the given transaction.
	WithTx(tx *sql.Tx) InvoiceRepository

	Insert(ctx context.Context, invoice *domain.Invoice) error

	// LastNumberForPrefix returns the highest invoice number starting with
	// prefix, or "" when none exists.
	LastNumberForPrefix(ctx context.Context, prefix string) (string, error)

	FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	FindByNumber(ctx context.Context, number string) (*domain.Invoice, error)
	List(ctx context.Context, from, to *time.Time, page, limit int) ([]*domain.Invoice, int, error)

	SalesSummary(ctx context.Context, from, to time.Time) (*domain.SalesSummary, error)
	SalesByPaymentMethod(ctx context.Context, from, to time.Time) ([]domain.PaymentMethodSales, error)
	DailySales(ctx context.Context, from, to time.Time) ([]domain.DailySales, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]domain.ProductSales, error)
}

type invoiceRepository struct {
	db DBTX
}

// NewInvoiceRepository creates a new instance of InvoiceRepository.
func NewInvoiceRepository(db *sql.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) WithTx(tx *sql.Tx) InvoiceRepository {
	return &invoiceRepository{db: tx}
}

// Insert writes the invoice row and its line items. A duplicate invoice
// number surfaces as ErrDuplicateInvoiceNumber so the coordinator can retry
// with a freshly derived number.
func (r *invoiceRepository) Insert(ctx context.Context, invoice *domain.Invoice) error {
	query := `
		INSERT INTO invoices (id, invoice_number, total_amount, tax_amount, discount, grand_total, payment_method, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		invoice.ID,
		invoice.InvoiceNumber,
		invoice.TotalAmount,
		invoice.TaxAmount,
		invoice.Discount,
		invoice.GrandTotal,
		invoice.PaymentMethod,
		invoice.CreatedBy,
		invoice.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "invoices_invoice_number_key") {
			return ErrDuplicateInvoiceNumber
		}
		return fmt.Errorf("failed to insert invoice: %w", err)
	}

	itemQuery := `
		INSERT INTO invoice_items (invoice_id, line_no, product_id, name, quantity, price, tax_percent, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for i, item := range invoice.Items {
		_, err := r.db.ExecContext(
			ctx,
			itemQuery,
			invoice.ID,
			i+1,
			item.ProductID,
			item.Name,
			item.Quantity,
			item.Price,
			item.TaxPercent,
			item.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("failed to insert invoice item %d: %w", i+1, err)
		}
	}

	return nil
}

// LastNumberForPrefix finds the highest existing number for a date prefix.
// Numbers are zero-padded, so lexical ordering matches numeric ordering.
func (r *invoiceRepository) LastNumberForPrefix(ctx context.Context, prefix string) (string, error) {
	query := `
		SELECT invoice_number
		FROM invoices
		WHERE invoice_number LIKE $1
		ORDER BY invoice_number DESC
		LIMIT 1
	`

	var number string
	err := r.db.QueryRowContext(ctx, query, prefix+"%").Scan(&number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to find last invoice number: %w", err)
	}

	return number, nil
}

const invoiceColumns = `
	i.id, i.invoice_number, i.total_amount, i.tax_amount, i.discount, i.grand_total,
	i.payment_method, i.created_by, i.created_at,
	COALESCE(u.first_name || ' ' || u.last_name, ''), COALESCE(u.email, '')
`

func scanInvoice(row interface{ Scan(dest ...any) error }) (*domain.Invoice, error) {
	invoice := &domain.Invoice{}
	err := row.Scan(
		&invoice.ID,
		&invoice.InvoiceNumber,
		&invoice.TotalAmount,
		&invoice.TaxAmount,
		&invoice.Discount,
		&invoice.GrandTotal,
		&invoice.PaymentMethod,
		&invoice.CreatedBy,
		&invoice.CreatedAt,
		&invoice.CreatedByName,
		&invoice.CreatedByEmail,
	)
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// FindByID retrieves an invoice with its line items and creator identity.
func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM invoices i
		LEFT JOIN users u ON u.id = i.created_by
		WHERE i.id = $1
	`, invoiceColumns)

	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to find invoice by ID: %w", err)
	}

	if err := r.loadItems(ctx, []*domain.Invoice{invoice}); err != nil {
		return nil, err
	}

	return invoice, nil
}

// FindByNumber retrieves an invoice by its business number.
func (r *invoiceRepository) FindByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM invoices i
		LEFT JOIN users u ON u.id = i.created_by
		WHERE i.invoice_number = $1
	`, invoiceColumns)

	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, number))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to find invoice by number: %w", err)
	}

	if err := r.loadItems(ctx, []*domain.Invoice{invoice}); err != nil {
		return nil, err
	}

	return invoice, nil
}

// List retrieves invoices in an optional creation-date range, newest first.
func (r *invoiceRepository) List(ctx context.Context, from, to *time.Time, page, limit int) ([]*domain.Invoice, int, error) {
	conditions := []string{}
	args := []any{}
	argIndex := 1

	if from != nil {
		conditions = append(conditions, fmt.Sprintf("i.created_at >= $%d", argIndex))
		args = append(args, *from)
		argIndex++
	}

	if to != nil {
		conditions = append(conditions, fmt.Sprintf("i.created_at <= $%d", argIndex))
		args = append(args, *to)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM invoices i %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	offset := (page - 1) * limit

	query := fmt.Sprintf(`
		SELECT %s
		FROM invoices i
		LEFT JOIN users u ON u.id = i.created_by
		%s
		ORDER BY i.created_at DESC
		LIMIT $%d OFFSET $%d
	`, invoiceColumns, whereClause, argIndex, argIndex+1)

	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := []*domain.Invoice{}
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating invoices: %w", err)
	}

	if err := r.loadItems(ctx, invoices); err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

// loadItems fetches line items for the given invoices in one query.
func (r *invoiceRepository) loadItems(ctx context.Context, invoices []*domain.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Invoice, len(invoices))
	placeholders := make([]string, len(invoices))
	args := make([]any, len(invoices))
	for i, invoice := range invoices {
		invoice.Items = []domain.InvoiceItem{}
		byID[invoice.ID] = invoice
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = invoice.ID
	}

	query := fmt.Sprintf(`
		SELECT invoice_id, product_id, name, quantity, price, tax_percent, subtotal
		FROM invoice_items
		WHERE invoice_id IN (%s)
		ORDER BY invoice_id, line_no
	`, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load invoice items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var invoiceID uuid.UUID
		item := domain.InvoiceItem{}
		err := rows.Scan(
			&invoiceID,
			&item.ProductID,
			&item.Name,
			&item.Quantity,
			&item.Price,
			&item.TaxPercent,
			&item.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("failed to scan invoice item: %w", err)
		}
		if invoice, ok := byID[invoiceID]; ok {
			invoice.Items = append(invoice.Items, item)
		}
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating invoice items: %w", err)
	}

	return nil
}

// SalesSummary aggregates committed invoices over [from, to).
func (r *invoiceRepository) SalesSummary(ctx context.Context, from, to time.Time) (*domain.SalesSummary, error) {
	query := `
		SELECT COALESCE(SUM(grand_total), 0), COALESCE(SUM(tax_amount), 0), COALESCE(SUM(discount), 0), COUNT(*)
		FROM invoices
		WHERE created_at >= $1 AND created_at < $2
	`

	summary := &domain.SalesSummary{}
	err := r.db.QueryRowContext(ctx, query, from, to).Scan(
		&summary.TotalSales,
		&summary.TotalTax,
		&summary.TotalDiscount,
		&summary.InvoiceCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute sales summary: %w", err)
	}

	return summary, nil
}

// SalesByPaymentMethod groups committed invoices by payment method over [from, to).
func (r *invoiceRepository) SalesByPaymentMethod(ctx context.Context, from, to time.Time) ([]domain.PaymentMethodSales, error) {
	query := `
		SELECT payment_method, COALESCE(SUM(grand_total), 0), COUNT(*)
		FROM invoices
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY payment_method
		ORDER BY payment_method
	`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to compute payment method breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := []domain.PaymentMethodSales{}
	for rows.Next() {
		entry := domain.PaymentMethodSales{}
		if err := rows.Scan(&entry.PaymentMethod, &entry.Total, &entry.Count); err != nil {
			return nil, fmt.Errorf("failed to scan payment method sales: %w", err)
		}
		breakdown = append(breakdown, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment method sales: %w", err)
	}

	return breakdown, nil
}

// DailySales groups committed invoices by calendar day over [from, to).
func (r *invoiceRepository) DailySales(ctx context.Context, from, to time.Time) ([]domain.DailySales, error) {
	query := `
		SELECT DATE_TRUNC('day', created_at) AS day, COALESCE(SUM(grand_total), 0), COUNT(*)
		FROM invoices
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to compute daily sales: %w", err)
	}
	defer rows.Close()

	daily := []domain.DailySales{}
	for rows.Next() {
		entry := domain.DailySales{}
		if err := rows.Scan(&entry.Day, &entry.TotalSales, &entry.InvoiceCount); err != nil {
			return nil, fmt.Errorf("failed to scan daily sales: %w", err)
		}
		daily = append(daily, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily sales: %w", err)
	}

	return daily, nil
}

// TopProducts ranks products by quantity sold over [from, to).
func (r *invoiceRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]domain.ProductSales, error) {
	query := `
		SELECT ii.product_id, MIN(ii.name), SUM(ii.quantity) AS total_quantity, COALESCE(SUM(ii.subtotal), 0)
		FROM invoice_items ii
		JOIN invoices i ON i.id = ii.invoice_id
		WHERE i.created_at >= $1 AND i.created_at < $2
		GROUP BY ii.product_id
		ORDER BY total_quantity DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to compute top products: %w", err)
	}
	defer rows.Close()

	top := []domain.ProductSales{}
	for rows.Next() {
		entry := domain.ProductSales{}
		if err := rows.Scan(&entry.ProductID, &entry.ProductName, &entry.TotalQuantity, &entry.TotalRevenue); err != nil {
			return nil, fmt.Errorf("failed to scan product sales: %w", err)
		}
		top = append(top, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product sales: %w", err)
	}

	return top, nil
}
