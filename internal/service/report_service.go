package service

import (
	"context"
	"time"

	"pos-billing/internal/domain"
	"pos-billing/internal/repository"
)

// TodaySalesReport summarizes the current calendar day.
type TodaySalesReport struct {
	Summary        domain.SalesSummary         `json:"summary"`
	PaymentMethods []domain.PaymentMethodSales `json:"payment_method_breakdown"`
}

// MonthSalesReport summarizes a calendar month with a per-day breakdown.
type MonthSalesReport struct {
	Summary        domain.SalesSummary         `json:"summary"`
	DailySales     []domain.DailySales         `json:"daily_sales"`
	PaymentMethods []domain.PaymentMethodSales `json:"payment_method_breakdown"`
	Month          int                         `json:"month"`
	Year           int                         `json:"year"`
}

// TopProductsOptions selects the window for the top-products ranking. An
// explicit From/To pair wins; otherwise Month/Year select a calendar month,
// defaulting to the current one.
type TopProductsOptions struct {
	From  *time.Time
	To    *time.Time
	Month int
	Year  int
	Limit int
}

// ReportService produces read-only rollups over committed invoices.
type ReportService interface {
	TodaySales(ctx context.Context) (*TodaySalesReport, error)
	MonthSales(ctx context.Context, month, year int) (*MonthSalesReport, error)
	TopProducts(ctx context.Context, opts TopProductsOptions) ([]domain.ProductSales, error)
}

type reportService struct {
	invoiceRepo repository.InvoiceRepository
	now         func() time.Time
}

// NewReportService creates a new instance of ReportService.
func NewReportService(invoiceRepo repository.InvoiceRepository) ReportService {
	return &reportService{
		invoiceRepo: invoiceRepo,
		now:         time.Now,
	}
}

// TodaySales reports totals and the payment-method breakdown for today.
func (s *reportService) TodaySales(ctx context.Context) (*TodaySalesReport, error) {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, 1)

	summary, err := s.invoiceRepo.SalesSummary(ctx, from, to)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.invoiceRepo.SalesByPaymentMethod(ctx, from, to)
	if err != nil {
		return nil, err
	}

	return &TodaySalesReport{
		Summary:        *summary,
		PaymentMethods: breakdown,
	}, nil
}

// MonthSales reports totals, daily and payment-method breakdowns for a
// calendar month. Zero month/year default to the current month.
func (s *reportService) MonthSales(ctx context.Context, month, year int) (*MonthSalesReport, error) {
	now := s.now()
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}

	from, to := monthRange(month, year, now.Location())

	summary, err := s.invoiceRepo.SalesSummary(ctx, from, to)
	if err != nil {
		return nil, err
	}

	daily, err := s.invoiceRepo.DailySales(ctx, from, to)
	if err != nil {
		return nil, err
	}

	breakdown, err := s.invoiceRepo.SalesByPaymentMethod(ctx, from, to)
	if err != nil {
		return nil, err
	}

	return &MonthSalesReport{
		Summary:        *summary,
		DailySales:     daily,
		PaymentMethods: breakdown,
		Month:          month,
		Year:           year,
	}, nil
}

// TopProducts ranks products by quantity sold over the selected window.
func (s *reportService) TopProducts(ctx context.Context, opts TopProductsOptions) ([]domain.ProductSales, error) {
	limit := opts.Limit
	if limit < 1 || limit > 100 {
		limit = 10
	}

	var from, to time.Time
	switch {
	case opts.From != nil && opts.To != nil:
		from, to = *opts.From, *opts.To
	default:
		now := s.now()
		month, year := opts.Month, opts.Year
		if month < 1 || month > 12 {
			month = int(now.Month())
		}
		if year == 0 {
			year = now.Year()
		}
		from, to = monthRange(month, year, now.Location())
	}

	return s.invoiceRepo.TopProducts(ctx, from, to, limit)
}

// monthRange returns the half-open [first of month, first of next month).
func monthRange(month, year int, loc *time.Location) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 1, 0)
}
