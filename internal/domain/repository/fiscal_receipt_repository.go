package repository

import (
	"context"
	"time"

	"github.com/gastrokasse/fiskal-api/internal/domain/entity"
	"github.com/gastrokasse/fiskal-api/internal/domain/enum"
	"github.com/gastrokasse/fiskal-api/pkg/pagination"
	"github.com/google/uuid"
)

// ExportFilter narrows the receipt set handed to the export formatters.
// Zero values mean "no constraint".
type ExportFilter struct {
	Start         *time.Time
	End           *time.Time
	PaymentMethod *enum.PaymentMethod
}

// FiscalReceiptRepository is the persistence boundary for fiscal receipts.
// Write failures and read failures from the backend bubble up unmodified;
// no method retries.
type FiscalReceiptRepository interface {
	// Create persists a new receipt row.
	Create(ctx context.Context, receipt *entity.FiscalReceipt) error

	// GetByID returns a receipt or nil when no row matches.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.FiscalReceipt, error)

	// List returns receipts ordered newest first, paginated.
	List(ctx context.Context, params *pagination.PaginationParams) ([]entity.FiscalReceipt, int64, error)

	// ListByDateRange returns receipts with timestamp in [start, end]
	// (inclusive bounds), ordered oldest first.
	ListByDateRange(ctx context.Context, start, end time.Time) ([]entity.FiscalReceipt, error)

	// ListForExport returns receipts matching the filter, oldest first.
	ListForExport(ctx context.Context, filter ExportFilter) ([]entity.FiscalReceipt, error)

	// Latest returns the most recently created receipt, or nil when the
	// store is empty. Used to seed the TSE counters at startup.
	Latest(ctx context.Context) (*entity.FiscalReceipt, error)

	// MarkCancelled flips the cancelled flag; every other column of the
	// row stays untouched.
	MarkCancelled(ctx context.Context, id uuid.UUID) error
}
