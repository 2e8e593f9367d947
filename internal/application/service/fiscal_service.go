package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gastrokasse/fiskal-api/internal/domain/entity"
	"github.com/gastrokasse/fiskal-api/internal/domain/enum"
	"github.com/gastrokasse/fiskal-api/internal/domain/repository"
	"github.com/gastrokasse/fiskal-api/pkg/apperror"
	"github.com/gastrokasse/fiskal-api/pkg/money"
	"github.com/gastrokasse/fiskal-api/pkg/pagination"
	"github.com/gastrokasse/fiskal-api/pkg/tse"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OrderItemInput is one line of a completed order as handed over by the
// order-management collaborator. Price is the gross unit price as charged.
type OrderItemInput struct {
	Name     string
	Quantity int
	Price    float64
	Category enum.ProductCategory // empty defaults to food
}

// CreateReceiptInput is the order-completion payload the builder consumes.
type CreateReceiptInput struct {
	Items         []OrderItemInput
	PaymentMethod enum.PaymentMethod // empty defaults to cash
	CashierName   string
}

// FiscalService builds, signs and persists fiscal receipts.
type FiscalService struct {
	receiptRepo repository.FiscalReceiptRepository
	device      *tse.Device
	now         func() time.Time
}

// NewFiscalService creates a new fiscal service
func NewFiscalService(receiptRepo repository.FiscalReceiptRepository, device *tse.Device) *FiscalService {
	return &FiscalService{
		receiptRepo: receiptRepo,
		device:      device,
		now:         time.Now,
	}
}

// SeedCounters fast-forwards the TSE counters past the latest persisted
// receipt so numbering stays unique across process restarts.
func (s *FiscalService) SeedCounters(ctx context.Context) error {
	latest, err := s.receiptRepo.Latest(ctx)
	if err != nil {
		return err
	}
	if latest == nil {
		return nil
	}

	receiptSeq, err := tse.ParseReceiptSequence(latest.ReceiptNumber)
	if err != nil {
		return err
	}
	txnSeq, err := tse.ParseTransactionNumber(latest.TransactionID)
	if err != nil {
		return err
	}
	s.device.Seed(receiptSeq, txnSeq)
	log.Printf("TSE counters seeded: receipt=%d transaction=%d", receiptSeq, txnSeq)
	return nil
}

// CreateReceipt assembles a fiscal receipt from a completed order, signs
// it and persists it. A persistence failure propagates; the unsaved
// receipt is never returned as if it were durable. Retrying mints a whole
// new receipt number and transaction id.
func (s *FiscalService) CreateReceipt(ctx context.Context, input *CreateReceiptInput) (*entity.FiscalReceipt, error) {
	if len(input.Items) == 0 {
		return nil, apperror.NewBadRequestError("Receipt requires at least one item")
	}

	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = enum.PaymentMethodCash
	}
	if !paymentMethod.Valid() {
		return nil, apperror.NewBadRequestError(fmt.Sprintf("Unknown payment method %q", paymentMethod))
	}

	items := make(entity.FiscalItems, 0, len(input.Items))
	var subtotalNet, totalVat, totalGross float64

	for i, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, apperror.NewBadRequestError(fmt.Sprintf("Invalid quantity at item %d", i))
		}
		if line.Price < 0 {
			return nil, apperror.NewBadRequestError(fmt.Sprintf("Negative price at item %d", i))
		}

		category := line.Category
		if category == "" {
			category = enum.CategoryFood
		}
		breakdown, err := CalculateVAT(line.Price, category)
		if err != nil {
			return nil, err
		}

		qty := float64(line.Quantity)
		item := entity.FiscalReceiptItem{
			Name:       line.Name,
			Quantity:   line.Quantity,
			UnitPrice:  line.Price,
			VATRate:    breakdown.VATRate,
			TotalNet:   money.Round2(breakdown.Net * qty),
			TotalVat:   money.Round2(breakdown.Vat * qty),
			TotalGross: money.Round2(breakdown.Gross * qty),
		}
		items = append(items, item)

		subtotalNet += item.TotalNet
		totalVat += item.TotalVat
		totalGross += item.TotalGross
	}

	receiptNumber := s.device.NextReceiptNumber()
	signature, err := s.device.SignTransaction([]byte(fmt.Sprintf("%s:%.2f", receiptNumber, money.Round2(totalGross))))
	if err != nil {
		return nil, err
	}
	tseData, err := json.Marshal(signature)
	if err != nil {
		return nil, err
	}

	cashier := input.CashierName
	if cashier == "" {
		cashier = "System"
	}

	receipt := &entity.FiscalReceipt{
		ID:                 uuid.New(),
		ReceiptNumber:      receiptNumber,
		TransactionID:      tse.TransactionID(signature.TransactionNumber),
		Timestamp:          s.now(),
		Items:              items,
		SubtotalNet:        money.Round2(subtotalNet),
		TotalVat:           money.Round2(totalVat),
		TotalGross:         money.Round2(totalGross),
		PaymentMethod:      paymentMethod,
		TSESignature:       signature.Signature,
		TSEData:            datatypes.JSON(tseData),
		FiscalMemorySerial: signature.SerialNumber,
		CashierName:        &cashier,
	}

	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		log.Printf("receipt %s not persisted: %v", receiptNumber, err)
		return nil, fmt.Errorf("%w: %v", apperror.ErrReceiptPersistenceFailed, err)
	}
	return receipt, nil
}

// GetReceipt returns one receipt by id.
func (s *FiscalService) GetReceipt(ctx context.Context, id uuid.UUID) (*entity.FiscalReceipt, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	return receipt, nil
}

// ListReceipts returns stored receipts newest first.
func (s *FiscalService) ListReceipts(ctx context.Context, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.FiscalReceipt], error) {
	params.Validate()
	receipts, total, err := s.receiptRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return pagination.NewPaginatedResult(receipts, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}

// ListReceiptsByDateRange returns receipts inside [start, end], oldest first.
func (s *FiscalService) ListReceiptsByDateRange(ctx context.Context, start, end time.Time) ([]entity.FiscalReceipt, error) {
	return s.receiptRepo.ListByDateRange(ctx, start, end)
}

// ExportReceipts returns the receipts matching the export filter, oldest
// first, for the CSV/JSON formatters.
func (s *FiscalService) ExportReceipts(ctx context.Context, filter repository.ExportFilter) ([]entity.FiscalReceipt, error) {
	return s.receiptRepo.ListForExport(ctx, filter)
}

// CancelReceipt soft-cancels a receipt: the cancelled flag flips, the
// signed amounts stay untouched, and cancelled receipts drop out of the
// daily aggregates. Cancelling twice is a conflict.
func (s *FiscalService) CancelReceipt(ctx context.Context, id uuid.UUID) (*entity.FiscalReceipt, error) {
	receipt, err := s.GetReceipt(ctx, id)
	if err != nil {
		return nil, err
	}
	if receipt.Cancelled {
		return nil, apperror.ErrReceiptAlreadyCancelled
	}

	if err := s.receiptRepo.MarkCancelled(ctx, id); err != nil {
		return nil, err
	}
	receipt.Cancelled = true
	return receipt, nil
}
