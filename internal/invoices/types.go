package invoices

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/itqan-platform/itqan-backend/pkg/db/models"
	"github.com/itqan-platform/itqan-backend/pkg/enums"
)

// IssueInput describes a new invoice. TaxRate is a fraction, e.g. 0.15.
type IssueInput struct {
	AccountID     uuid.UUID       `json:"account_id"`
	Description   string          `json:"description"`
	SubtotalCents int64           `json:"subtotal_cents"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
}

// InvoiceDTO is the public projection of an invoice.
type InvoiceDTO struct {
	ID            uuid.UUID           `json:"id"`
	Number        string              `json:"number"`
	AccountID     uuid.UUID           `json:"account_id"`
	Description   string              `json:"description"`
	SubtotalCents int64               `json:"subtotal_cents"`
	TaxRate       decimal.Decimal     `json:"tax_rate"`
	TaxCents      int64               `json:"tax_cents"`
	TotalCents    int64               `json:"total_cents"`
	Status        enums.InvoiceStatus `json:"status"`
	VoidedAt      *time.Time          `json:"voided_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// NewInvoiceDTO maps a stored invoice.
func NewInvoiceDTO(invoice *models.Invoice) InvoiceDTO {
	return InvoiceDTO{
		ID:            invoice.ID,
		Number:        invoice.Number,
		AccountID:     invoice.AccountID,
		Description:   invoice.Description,
		SubtotalCents: invoice.SubtotalCents,
		TaxRate:       invoice.TaxRate,
		TaxCents:      invoice.TaxCents,
		TotalCents:    invoice.TotalCents,
		Status:        invoice.Status,
		VoidedAt:      invoice.VoidedAt,
		CreatedAt:     invoice.CreatedAt,
	}
}
