package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pos-billing/internal/domain"
	"pos-billing/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrInvalidProduct = errors.New("invalid product")

// quickSearchLimit caps the point-of-sale product lookup.
const quickSearchLimit = 20

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name       string
	Barcode    *string
	Price      decimal.Decimal
	TaxPercent decimal.Decimal
	Stock      int
}

// ProductService implements catalog management.
type ProductService interface {
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)
	QuickSearch(ctx context.Context, query string) ([]*domain.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewProductService creates a new instance of ProductService.
func NewProductService(productRepo repository.ProductRepository, logger *zap.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// Create adds a product to the catalog after checking barcode uniqueness.
func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	if barcode := normalizedBarcode(input.Barcode); barcode != nil {
		exists, err := s.productRepo.ExistsByBarcode(ctx, *barcode)
		if err != nil {
			return nil, fmt.Errorf("failed to check barcode: %w", err)
		}
		if exists {
			return nil, repository.ErrBarcodeAlreadyExists
		}
		input.Barcode = barcode
	} else {
		input.Barcode = nil
	}

	now := time.Now()
	product := &domain.Product{
		ID:         uuid.New(),
		Name:       strings.TrimSpace(input.Name),
		Barcode:    input.Barcode,
		Price:      input.Price,
		TaxPercent: input.TaxPercent,
		Stock:      input.Stock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	return product, nil
}

// Update rewrites a product's fields. The barcode uniqueness check only runs
// when the barcode actually changes.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*domain.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	barcode := normalizedBarcode(input.Barcode)
	if barcode != nil && (product.Barcode == nil || *barcode != *product.Barcode) {
		exists, err := s.productRepo.ExistsByBarcode(ctx, *barcode)
		if err != nil {
			return nil, fmt.Errorf("failed to check barcode: %w", err)
		}
		if exists {
			return nil, repository.ErrBarcodeAlreadyExists
		}
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Barcode = barcode
	product.Price = input.Price
	product.TaxPercent = input.TaxPercent
	product.Stock = input.Stock
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Delete removes a product. Committed invoices carry their own copies of
// product data and remain valid.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

// GetByID retrieves a single product.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// List retrieves catalog entries matching the filter.
func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 10
	}
	return s.productRepo.List(ctx, filter)
}

// QuickSearch finds in-stock products by name for the sales screen.
func (s *productService) QuickSearch(ctx context.Context, query string) ([]*domain.Product, error) {
	return s.productRepo.QuickSearch(ctx, query, quickSearchLimit)
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidProduct)
	}
	if input.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidProduct)
	}
	if input.TaxPercent.IsNegative() || input.TaxPercent.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: tax percent must be between 0 and 100", ErrInvalidProduct)
	}
	if input.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	}
	return nil
}

func normalizedBarcode(barcode *string) *string {
	if barcode == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*barcode)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
