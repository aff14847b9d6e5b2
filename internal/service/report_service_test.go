package service

import (
	"context"
	"testing"
	"time"

	"pos-billing/internal/domain"
)

// recordingInvoiceStore captures the windows the report service asks for.
type recordingInvoiceStore struct {
	*mockInvoiceStore

	summaryFrom, summaryTo time.Time
	topFrom, topTo         time.Time
	topLimit               int
}

func (r *recordingInvoiceStore) SalesSummary(ctx context.Context, from, to time.Time) (*domain.SalesSummary, error) {
	r.summaryFrom, r.summaryTo = from, to
	return &domain.SalesSummary{}, nil
}

func (r *recordingInvoiceStore) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]domain.ProductSales, error) {
	r.topFrom, r.topTo = from, to
	r.topLimit = limit
	return nil, nil
}

func newReportFixture(now time.Time) (ReportService, *recordingInvoiceStore) {
	store := &recordingInvoiceStore{mockInvoiceStore: newMockInvoiceStore()}
	svc := NewReportService(store).(*reportService)
	svc.now = func() time.Time { return now }
	return svc, store
}

func TestReportService_TodaySalesWindow(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	svc, store := newReportFixture(now)

	if _, err := svc.TodaySales(context.Background()); err != nil {
		t.Fatalf("TodaySales failed: %v", err)
	}

	wantFrom := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	if !store.summaryFrom.Equal(wantFrom) || !store.summaryTo.Equal(wantTo) {
		t.Errorf("Expected window [%s, %s), got [%s, %s)", wantFrom, wantTo, store.summaryFrom, store.summaryTo)
	}
}

// Zero month and year select the current calendar month
func TestReportService_MonthSalesDefaults(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	svc, store := newReportFixture(now)

	report, err := svc.MonthSales(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("MonthSales failed: %v", err)
	}

	if report.Month != 1 || report.Year != 2024 {
		t.Errorf("Expected January 2024, got %d/%d", report.Month, report.Year)
	}
	wantFrom := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !store.summaryFrom.Equal(wantFrom) || !store.summaryTo.Equal(wantTo) {
		t.Errorf("Expected window [%s, %s), got [%s, %s)", wantFrom, wantTo, store.summaryFrom, store.summaryTo)
	}
}

func TestReportService_MonthSalesDecemberRollsIntoNextYear(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	svc, store := newReportFixture(now)

	if _, err := svc.MonthSales(context.Background(), 12, 2023); err != nil {
		t.Fatalf("MonthSales failed: %v", err)
	}

	wantTo := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !store.summaryTo.Equal(wantTo) {
		t.Errorf("Expected December window to end at %s, got %s", wantTo, store.summaryTo)
	}
}

func TestReportService_TopProductsExplicitRangeWins(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	svc, store := newReportFixture(now)

	from := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)
	_, err := svc.TopProducts(context.Background(), TopProductsOptions{
		From:  &from,
		To:    &to,
		Month: 6,
		Year:  2020,
		Limit: 5,
	})
	if err != nil {
		t.Fatalf("TopProducts failed: %v", err)
	}

	if !store.topFrom.Equal(from) || !store.topTo.Equal(to) {
		t.Errorf("Expected explicit range [%s, %s), got [%s, %s)", from, to, store.topFrom, store.topTo)
	}
	if store.topLimit != 5 {
		t.Errorf("Expected limit 5, got %d", store.topLimit)
	}
}

func TestReportService_TopProductsLimitClamped(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	svc, store := newReportFixture(now)

	if _, err := svc.TopProducts(context.Background(), TopProductsOptions{Limit: 0}); err != nil {
		t.Fatalf("TopProducts failed: %v", err)
	}
	if store.topLimit != 10 {
		t.Errorf("Expected default limit 10, got %d", store.topLimit)
	}

	if _, err := svc.TopProducts(context.Background(), TopProductsOptions{Limit: 1000}); err != nil {
		t.Fatalf("TopProducts failed: %v", err)
	}
	if store.topLimit != 10 {
		t.Errorf("Expected clamped limit 10, got %d", store.topLimit)
	}
}
