package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/itqan-platform/itqan-backend/pkg/enums"
)

// Invoice carries an immutable document number; voiding keeps the number.
type Invoice struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Number        string              `gorm:"column:number;type:varchar(64);not null;uniqueIndex:invoices_number_key"`
	AccountID     uuid.UUID           `gorm:"column:account_id;type:uuid;not null;index:invoices_account_id_idx"`
	Description   string              `gorm:"column:description;type:text;not null"`
	SubtotalCents int64               `gorm:"column:subtotal_cents;not null"`
	TaxRate       decimal.Decimal     `gorm:"column:tax_rate;type:numeric(5,4);not null"`
	TaxCents      int64               `gorm:"column:tax_cents;not null"`
	TotalCents    int64               `gorm:"column:total_cents;not null"`
	Status        enums.InvoiceStatus `gorm:"column:status;type:varchar(16);not null"`
	VoidedAt      *time.Time          `gorm:"column:voided_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
