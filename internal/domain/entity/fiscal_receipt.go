package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gastrokasse/fiskal-api/internal/domain/enum"
	"github.com/gastrokasse/fiskal-api/pkg/money"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FiscalReceiptItem is one order line's fiscal breakdown. The totals are
// quantity-scaled and rounded to cents at creation; they are never
// recomputed afterwards.
type FiscalReceiptItem struct {
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	VATRate    float64 `json:"vat_rate"`
	TotalNet   float64 `json:"total_net"`
	TotalVat   float64 `json:"total_vat"`
	TotalGross float64 `json:"total_gross"`
}

// FiscalItems is the receipt's line items as stored in the jsonb items
// column. Legacy rows may carry the array double-encoded as a JSON string,
// so Scan falls back to unquoting once before parsing.
type FiscalItems []FiscalReceiptItem

func (items FiscalItems) Value() (driver.Value, error) {
	return json.Marshal([]FiscalReceiptItem(items))
}

func (items *FiscalItems) Scan(value interface{}) error {
	if value == nil {
		*items = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("fiscal items: unsupported column type %T", value)
	}

	var parsed []FiscalReceiptItem
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// String-wrapped JSON: unquote, then parse the inner document.
		var inner string
		if strErr := json.Unmarshal(raw, &inner); strErr != nil {
			return fmt.Errorf("fiscal items: %w", err)
		}
		if err := json.Unmarshal([]byte(inner), &parsed); err != nil {
			return fmt.Errorf("fiscal items: %w", err)
		}
	}
	*items = parsed
	return nil
}

// FiscalReceipt is the signed compliance record of one completed sale.
// Amounts, items and signature are immutable after creation; only the
// cancelled flag may flip.
type FiscalReceipt struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ReceiptNumber string    `gorm:"size:100;uniqueIndex;not null" json:"receipt_number"`
	TransactionID string    `gorm:"size:100;uniqueIndex;not null" json:"transaction_id"`
	Timestamp     time.Time `gorm:"not null;index" json:"timestamp"`

	Items       FiscalItems `gorm:"type:jsonb;not null" json:"items"`
	SubtotalNet float64     `gorm:"type:numeric(12,2)" json:"subtotal_net"`
	TotalVat    float64     `gorm:"type:numeric(12,2)" json:"total_vat"`
	TotalGross  float64     `gorm:"type:numeric(12,2)" json:"total_gross"`

	PaymentMethod      enum.PaymentMethod `gorm:"size:20;not null;default:cash" json:"payment_method"`
	TSESignature       string             `gorm:"size:64;not null" json:"tse_signature"`
	TSEData            datatypes.JSON     `gorm:"type:jsonb" json:"tse_data,omitempty"`
	FiscalMemorySerial string             `gorm:"size:50;not null" json:"fiscal_memory_serial"`
	CashierName        *string            `gorm:"size:100" json:"cashier_name,omitempty"`
	Cancelled          bool               `gorm:"not null;default:false" json:"cancelled"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate generates a UUID before inserting a new receipt
func (r *FiscalReceipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the FiscalReceipt model
func (FiscalReceipt) TableName() string {
	return "fiscal_receipts"
}

// Reconciles reports whether the receipt-level sums and the item sums
// agree within cent tolerance. Stored receipts always reconcile; this is
// an audit check for data read back from the store.
func (r *FiscalReceipt) Reconciles() bool {
	if !money.Equal2(r.SubtotalNet+r.TotalVat, r.TotalGross) {
		return false
	}
	var itemGross float64
	for _, item := range r.Items {
		if !money.Equal2(item.TotalNet+item.TotalVat, item.TotalGross) {
			return false
		}
		itemGross += item.TotalGross
	}
	return money.Equal2(itemGross, r.TotalGross)
}
