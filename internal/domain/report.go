package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesSummary aggregates committed invoices over a date range.
type SalesSummary struct {
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	InvoiceCount  int             `json:"invoice_count"`
}

// PaymentMethodSales is the per-payment-method slice of a sales summary.
type PaymentMethodSales struct {
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	Count         int             `json:"count"`
}

// DailySales is one day's slice of a monthly report.
type DailySales struct {
	Day          time.Time       `json:"day"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	InvoiceCount int             `json:"invoice_count"`
}

// ProductSales ranks a product by quantity sold over a window.
type ProductSales struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	TotalQuantity int             `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}
