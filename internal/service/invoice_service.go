package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pos-billing/internal/domain"
	"pos-billing/internal/pricing"
	"pos-billing/internal/repository"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxCreateAttempts bounds the whole-transaction retry loop for invoice
// number collisions and concurrent stock conflicts.
const maxCreateAttempts = 3

var (
	ErrInvalidInvoice         = errors.New("invalid invoice request")
	ErrProductsNotFound       = errors.New("one or more products not found")
	ErrNumberAllocationFailed = errors.New("failed to allocate a unique invoice number")
	ErrConcurrentModification = errors.New("invoice creation conflicted with concurrent requests")
)

// InsufficientStockError names the first product whose requested quantity
// exceeds the available stock.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product: %s. Available: %d", e.ProductName, e.Available)
}

// InvoiceItemInput is one requested line of a new invoice.
type InvoiceItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateInvoiceInput is the full create-invoice request. CreatedBy is the
// authenticated caller identity supplied by the auth layer.
type CreateInvoiceInput struct {
	Items         []InvoiceItemInput
	Discount      decimal.Decimal
	PaymentMethod domain.PaymentMethod
	CreatedBy     uuid.UUID
}

// InvoiceService coordinates invoice creation and lookup.
type InvoiceService interface {
	Create(ctx context.Context, input CreateInvoiceInput) (*domain.Invoice, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*domain.Invoice, error)
	List(ctx context.Context, from, to *time.Time, page, limit int) ([]*domain.Invoice, int, error)
}

type invoiceService struct {
	tx          repository.TxRunner
	productRepo repository.ProductRepository
	invoiceRepo repository.InvoiceRepository
	userRepo    repository.UserRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewInvoiceService creates a new instance of InvoiceService.
func NewInvoiceService(
	tx repository.TxRunner,
	productRepo repository.ProductRepository,
	invoiceRepo repository.InvoiceRepository,
	userRepo repository.UserRepository,
	logger *zap.Logger,
) InvoiceService {
	return &invoiceService{
		tx:          tx,
		productRepo: productRepo,
		invoiceRepo: invoiceRepo,
		userRepo:    userRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Create runs the invoice transaction: validate, snapshot the catalog, check
// stock, price, decrement stock, allocate a number and persist — all inside
// one database transaction. Nothing is applied on any failure path.
//
// Two failure modes are retried with a fresh snapshot, bounded by
// maxCreateAttempts: an invoice-number collision (another request committed
// the same number first) and a stock conflict (the guarded decrement found
// the snapshot stale). Exhausted retries map to ErrNumberAllocationFailed
// and ErrConcurrentModification respectively.
func (s *invoiceService) Create(ctx context.Context, input CreateInvoiceInput) (*domain.Invoice, error) {
	if err := validateCreateInvoiceInput(input); err != nil {
		return nil, err
	}

	var invoice *domain.Invoice

	backoff := retry.WithMaxRetries(maxCreateAttempts-1, retry.NewConstant(20*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		created, err := s.createOnce(ctx, input)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateInvoiceNumber) || errors.Is(err, repository.ErrStockConflict) {
				s.logger.Warn("Invoice creation conflicted, retrying with fresh snapshot", zap.Error(err))
				return retry.RetryableError(err)
			}
			return err
		}
		invoice = created
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateInvoiceNumber):
			return nil, ErrNumberAllocationFailed
		case errors.Is(err, repository.ErrStockConflict):
			return nil, ErrConcurrentModification
		}
		return nil, err
	}

	s.logger.Info("Invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("grand_total", invoice.GrandTotal.String()),
	)

	return invoice, nil
}

// createOnce performs a single all-or-nothing attempt.
func (s *invoiceService) createOnce(ctx context.Context, input CreateInvoiceInput) (*domain.Invoice, error) {
	var invoice *domain.Invoice

	err := s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		products := s.productRepo.WithTx(tx)
		invoices := s.invoiceRepo.WithTx(tx)

		// Consistent snapshot of every referenced product. Duplicate lines
		// for the same product are allowed; quantities are aggregated per
		// product for the stock check and the decrement.
		ids, requested := aggregateQuantities(input.Items)

		snapshot, err := products.FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(snapshot) != len(ids) {
			return ErrProductsNotFound
		}

		byID := make(map[uuid.UUID]*domain.Product, len(snapshot))
		for _, product := range snapshot {
			byID[product.ID] = product
		}

		for _, id := range ids {
			product := byID[id]
			if requested[id] > product.Stock {
				return &InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Available:   product.Stock,
				}
			}
		}

		lines := make([]pricing.Line, 0, len(input.Items))
		items := make([]domain.InvoiceItem, 0, len(input.Items))
		for _, in := range input.Items {
			product := byID[in.ProductID]
			line := pricing.ComputeLine(product.Price, product.TaxPercent, in.Quantity)
			lines = append(lines, line)
			items = append(items, domain.InvoiceItem{
				ProductID:  product.ID,
				Name:       product.Name,
				Quantity:   in.Quantity,
				Price:      product.Price,
				TaxPercent: product.TaxPercent,
				Subtotal:   line.Total,
			})
		}
		totals := pricing.ComputeTotals(lines, input.Discount)

		for _, id := range ids {
			if err := products.DecrementStock(ctx, id, requested[id]); err != nil {
				return err
			}
		}

		now := s.now()
		prefix := invoiceNumberPrefix(now)
		last, err := invoices.LastNumberForPrefix(ctx, prefix)
		if err != nil {
			return err
		}
		number, err := nextInvoiceNumber(prefix, last)
		if err != nil {
			return err
		}

		invoice = &domain.Invoice{
			ID:            uuid.New(),
			InvoiceNumber: number,
			Items:         items,
			TotalAmount:   totals.TotalAmount,
			TaxAmount:     totals.TaxAmount,
			Discount:      input.Discount,
			GrandTotal:    totals.GrandTotal,
			PaymentMethod: input.PaymentMethod,
			CreatedBy:     input.CreatedBy,
			CreatedAt:     now,
		}

		return invoices.Insert(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	// Resolve creator identity metadata for the response. The invoice is
	// already committed; a lookup failure here only degrades the metadata.
	if user, err := s.userRepo.FindByID(ctx, input.CreatedBy); err == nil {
		invoice.CreatedByName = strings.TrimSpace(user.FirstName + " " + user.LastName)
		invoice.CreatedByEmail = user.Email
	} else {
		s.logger.Warn("Failed to resolve invoice creator", zap.Error(err))
	}

	return invoice, nil
}

func validateCreateInvoiceInput(input CreateInvoiceInput) error {
	if len(input.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidInvoice)
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInvoice)
		}
	}
	if !input.PaymentMethod.Valid() {
		return fmt.Errorf("%w: invalid payment method", ErrInvalidInvoice)
	}
	if input.Discount.IsNegative() {
		return fmt.Errorf("%w: discount cannot be negative", ErrInvalidInvoice)
	}
	return nil
}

// aggregateQuantities dedupes product IDs in first-appearance order and sums
// the requested quantity per product.
func aggregateQuantities(items []InvoiceItemInput) ([]uuid.UUID, map[uuid.UUID]int) {
	ids := make([]uuid.UUID, 0, len(items))
	totals := make(map[uuid.UUID]int, len(items))

	for _, item := range items {
		if _, seen := totals[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		totals[item.ProductID] += item.Quantity
	}

	return ids, totals
}

// GetByID retrieves an invoice by ID.
func (s *invoiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	return s.invoiceRepo.FindByID(ctx, id)
}

// GetByNumber retrieves an invoice by its business number.
func (s *invoiceService) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	return s.invoiceRepo.FindByNumber(ctx, number)
}

// List retrieves invoices in an optional creation-date range with pagination.
func (s *invoiceService) List(ctx context.Context, from, to *time.Time, page, limit int) ([]*domain.Invoice, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.invoiceRepo.List(ctx, from, to, page, limit)
}
