package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gastrokasse/fiskal-api/internal/domain/entity"
	domainRepo "github.com/gastrokasse/fiskal-api/internal/domain/repository"
	"github.com/gastrokasse/fiskal-api/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fiscalReceiptRepository struct {
	db *gorm.DB
}

// NewFiscalReceiptRepository creates a new fiscal receipt repository
func NewFiscalReceiptRepository(db *gorm.DB) domainRepo.FiscalReceiptRepository {
	return &fiscalReceiptRepository{db: db}
}

func (r *fiscalReceiptRepository) Create(ctx context.Context, receipt *entity.FiscalReceipt) error {
	if err := r.db.WithContext(ctx).Create(receipt).Error; err != nil {
		return fmt.Errorf("store write: %w", err)
	}
	return nil
}

func (r *fiscalReceiptRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.FiscalReceipt, error) {
	var receipt entity.FiscalReceipt
	err := r.db.WithContext(ctx).First(&receipt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store read: %w", err)
	}
	return &receipt, nil
}

func (r *fiscalReceiptRepository) List(ctx context.Context, params *pagination.PaginationParams) ([]entity.FiscalReceipt, int64, error) {
	var receipts []entity.FiscalReceipt
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.FiscalReceipt{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("store read: %w", err)
	}

	err := query.
		Order("timestamp DESC").
		Offset(params.Offset()).
		Limit(params.PerPage).
		Find(&receipts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("store read: %w", err)
	}
	return receipts, total, nil
}

func (r *fiscalReceiptRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]entity.FiscalReceipt, error) {
	var receipts []entity.FiscalReceipt
	err := r.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp <= ?", start, end).
		Order("timestamp ASC").
		Find(&receipts).Error
	if err != nil {
		return nil, fmt.Errorf("store read: %w", err)
	}
	return receipts, nil
}

func (r *fiscalReceiptRepository) ListForExport(ctx context.Context, filter domainRepo.ExportFilter) ([]entity.FiscalReceipt, error) {
	query := r.db.WithContext(ctx).Model(&entity.FiscalReceipt{})

	if filter.Start != nil {
		query = query.Where("timestamp >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("timestamp <= ?", *filter.End)
	}
	if filter.PaymentMethod != nil {
		query = query.Where("payment_method = ?", *filter.PaymentMethod)
	}

	var receipts []entity.FiscalReceipt
	if err := query.Order("timestamp ASC").Find(&receipts).Error; err != nil {
		return nil, fmt.Errorf("store read: %w", err)
	}
	return receipts, nil
}

func (r *fiscalReceiptRepository) Latest(ctx context.Context) (*entity.FiscalReceipt, error) {
	var receipt entity.FiscalReceipt
	err := r.db.WithContext(ctx).Order("created_at DESC").First(&receipt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store read: %w", err)
	}
	return &receipt, nil
}

func (r *fiscalReceiptRepository) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&entity.FiscalReceipt{}).
		Where("id = ?", id).
		Update("cancelled", true)
	if result.Error != nil {
		return fmt.Errorf("store write: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
