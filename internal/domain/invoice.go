package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is the fixed set of accepted payment methods.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "Cash"
	PaymentCard PaymentMethod = "Card"
	PaymentUPI  PaymentMethod = "UPI"
)

// Valid reports whether the payment method is one of the accepted values.
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentCard, PaymentUPI:
		return true
	}
	return false
}

// InvoiceItem is a line of an invoice. Name, price and tax rate are copied
// from the product at creation time; later catalog edits never alter them.
// Subtotal includes the tax on the line.
type InvoiceItem struct {
	ProductID  uuid.UUID       `json:"product_id" db:"product_id"`
	Name       string          `json:"name" db:"name"`
	Quantity   int             `json:"quantity" db:"quantity"`
	Price      decimal.Decimal `json:"price" db:"price"`
	TaxPercent decimal.Decimal `json:"tax_percent" db:"tax_percent"`
	Subtotal   decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// Invoice is an immutable record of a completed sale. TotalAmount is the sum
// of pre-tax line amounts, TaxAmount the sum of line taxes, and
// GrandTotal = TotalAmount + TaxAmount - Discount.
type Invoice struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	InvoiceNumber  string          `json:"invoice_number" db:"invoice_number"`
	Items          []InvoiceItem   `json:"items"`
	TotalAmount    decimal.Decimal `json:"total_amount" db:"total_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount" db:"tax_amount"`
	Discount       decimal.Decimal `json:"discount" db:"discount"`
	GrandTotal     decimal.Decimal `json:"grand_total" db:"grand_total"`
	PaymentMethod  PaymentMethod   `json:"payment_method" db:"payment_method"`
	CreatedBy      uuid.UUID       `json:"created_by" db:"created_by"`
	CreatedByName  string          `json:"created_by_name,omitempty"`
	CreatedByEmail string          `json:"created_by_email,omitempty"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
