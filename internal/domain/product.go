package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents an entry in the sales catalog. Barcode is optional but
// globally unique when set.
type Product struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	Barcode    *string         `json:"barcode,omitempty" db:"barcode"`
	Price      decimal.Decimal `json:"price" db:"price"`
	TaxPercent decimal.Decimal `json:"tax_percent" db:"tax_percent"`
	Stock      int             `json:"stock" db:"stock"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}
