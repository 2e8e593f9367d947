package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/gastrokasse/fiskal-api/internal/domain/entity"
	"github.com/gastrokasse/fiskal-api/internal/domain/enum"
	"github.com/gastrokasse/fiskal-api/internal/domain/repository"
	"github.com/gastrokasse/fiskal-api/pkg/apperror"
	"github.com/gastrokasse/fiskal-api/pkg/money"
	"github.com/gastrokasse/fiskal-api/pkg/pagination"
	"github.com/gastrokasse/fiskal-api/pkg/tse"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReceiptRepo is an in-memory FiscalReceiptRepository for service tests.
type fakeReceiptRepo struct {
	receipts  []entity.FiscalReceipt
	createErr error
}

func (f *fakeReceiptRepo) Create(_ context.Context, receipt *entity.FiscalReceipt) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.receipts = append(f.receipts, *receipt)
	return nil
}

func (f *fakeReceiptRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.FiscalReceipt, error) {
	for i := range f.receipts {
		if f.receipts[i].ID == id {
			receipt := f.receipts[i]
			return &receipt, nil
		}
	}
	return nil, nil
}

func (f *fakeReceiptRepo) List(_ context.Context, params *pagination.PaginationParams) ([]entity.FiscalReceipt, int64, error) {
	sorted := make([]entity.FiscalReceipt, len(f.receipts))
	copy(sorted, f.receipts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.After(sorted[j].Timestamp) })

	offset := params.Offset()
	if offset > len(sorted) {
		offset = len(sorted)
	}
	end := offset + params.PerPage
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[offset:end], int64(len(f.receipts)), nil
}

func (f *fakeReceiptRepo) ListByDateRange(_ context.Context, start, end time.Time) ([]entity.FiscalReceipt, error) {
	var out []entity.FiscalReceipt
	for _, receipt := range f.receipts {
		if receipt.Timestamp.Before(start) || receipt.Timestamp.After(end) {
			continue
		}
		out = append(out, receipt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (f *fakeReceiptRepo) ListForExport(_ context.Context, filter repository.ExportFilter) ([]entity.FiscalReceipt, error) {
	var out []entity.FiscalReceipt
	for _, receipt := range f.receipts {
		if filter.Start != nil && receipt.Timestamp.Before(*filter.Start) {
			continue
		}
		if filter.End != nil && receipt.Timestamp.After(*filter.End) {
			continue
		}
		if filter.PaymentMethod != nil && receipt.PaymentMethod != *filter.PaymentMethod {
			continue
		}
		out = append(out, receipt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (f *fakeReceiptRepo) Latest(_ context.Context) (*entity.FiscalReceipt, error) {
	if len(f.receipts) == 0 {
		return nil, nil
	}
	latest := f.receipts[0]
	for _, receipt := range f.receipts[1:] {
		if receipt.CreatedAt.After(latest.CreatedAt) {
			latest = receipt
		}
	}
	return &latest, nil
}

func (f *fakeReceiptRepo) MarkCancelled(_ context.Context, id uuid.UUID) error {
	for i := range f.receipts {
		if f.receipts[i].ID == id {
			f.receipts[i].Cancelled = true
			return nil
		}
	}
	return errors.New("record not found")
}

func newTestFiscalService(repo repository.FiscalReceiptRepository) *FiscalService {
	device := tse.NewDevice("TSE-SIM-2024-001", tse.NewSimulatedSigner())
	return NewFiscalService(repo, device)
}

func TestCreateReceiptTotals(t *testing.T) {
	repo := &fakeReceiptRepo{}
	svc := newTestFiscalService(repo)

	receipt, err := svc.CreateReceipt(context.Background(), &CreateReceiptInput{
		Items: []OrderItemInput{
			{Name: "Pizza Margherita", Quantity: 2, Price: 11.90, Category: enum.CategoryFood},
			{Name: "Cola", Quantity: 1, Price: 3.50, Category: enum.CategoryBeverage},
		},
	})
	require.NoError(t, err)

	require.Len(t, receipt.Items, 2)

	pizza := receipt.Items[0]
	assert.Equal(t, 22.24, pizza.TotalNet)
	assert.Equal(t, 1.56, pizza.TotalVat)
	assert.Equal(t, 23.80, pizza.TotalGross)
	assert.Equal(t, VATRateReduced, pizza.VATRate)

	cola := receipt.Items[1]
	assert.Equal(t, 2.94, cola.TotalNet)
	assert.Equal(t, 0.56, cola.TotalVat)
	assert.Equal(t, 3.50, cola.TotalGross)
	assert.Equal(t, VATRateStandard, cola.VATRate)

	assert.Equal(t, 25.18, receipt.SubtotalNet)
	assert.Equal(t, 2.12, receipt.TotalVat)
	assert.Equal(t, 27.30, receipt.TotalGross)
	assert.True(t, money.Equal2(receipt.SubtotalNet+receipt.TotalVat, receipt.TotalGross))

	assert.Regexp(t, `^\d{8}-\d{6}$`, receipt.ReceiptNumber)
	assert.Regexp(t, `^txn-\d+$`, receipt.TransactionID)
	assert.Regexp(t, `^[A-Za-z0-9]{32}$`, receipt.TSESignature)
	assert.Equal(t, "TSE-SIM-2024-001", receipt.FiscalMemorySerial)
	assert.Equal(t, enum.PaymentMethodCash, receipt.PaymentMethod)
	require.NotNil(t, receipt.CashierName)
	assert.Equal(t, "System", *receipt.CashierName)
	assert.False(t, receipt.Cancelled)
	assert.NotEmpty(t, receipt.TSEData)

	require.Len(t, repo.receipts, 1)
}

func TestCreateReceiptDefaultsCategoryToFood(t *testing.T) {
	svc := newTestFiscalService(&fakeReceiptRepo{})

	receipt, err := svc.CreateReceipt(context.Background(), &CreateReceiptInput{
		Items: []OrderItemInput{{Name: "Tagesgericht", Quantity: 1, Price: 10.70}},
	})
	require.NoError(t, err)
	assert.Equal(t, VATRateReduced, receipt.Items[0].VATRate)
}

func TestCreateReceiptInvalidCategory(t *testing.T) {
	svc := newTestFiscalService(&fakeReceiptRepo{})

	_, err := svc.CreateReceipt(context.Background(), &CreateReceiptInput{
		Items: []OrderItemInput{{Name: "Mystery", Quantity: 1, Price: 5.00, Category: "mystery"}},
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidCategory)
}

func TestCreateReceiptValidation(t *testing.T) {
	svc := newTestFiscalService(&fakeReceiptRepo{})
	ctx := context.Background()

	_, err := svc.CreateReceipt(ctx, &CreateReceiptInput{})
	require.Error(t, err)
	assert.Equal(t, 400, apperror.GetAppError(err).Code)

	_, err = svc.CreateReceipt(ctx, &CreateReceiptInput{
		Items: []OrderItemInput{{Name: "Pizza", Quantity: 0, Price: 11.90}},
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperror.GetAppError(err).Code)

	_, err = svc.CreateReceipt(ctx, &CreateReceiptInput{
		Items: []OrderItemInput{{Name: "Pizza", Quantity: 1, Price: -1}},
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperror.GetAppError(err).Code)

	_, err = svc.CreateReceipt(ctx, &CreateReceiptInput{
		Items:         []OrderItemInput{{Name: "Pizza", Quantity: 1, Price: 11.90}},
		PaymentMethod: "barter",
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperror.GetAppError(err).Code)
}

func TestCreateReceiptPaymentMethod(t *testing.T) {
	svc := newTestFiscalService(&fakeReceiptRepo{})

	receipt, err := svc.CreateReceipt(context.Background(), &CreateReceiptInput{
		Items:         []OrderItemInput{{Name: "Espresso", Quantity: 1, Price: 2.80, Category: enum.CategoryBeverage}},
		PaymentMethod: enum.PaymentMethodCard,
		CashierName:   "Anna",
	})
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentMethodCard, receipt.PaymentMethod)
	assert.Equal(t, "Anna", *receipt.CashierName)
}

func TestCreateReceiptPersistenceFailure(t *testing.T) {
	repo := &fakeReceiptRepo{createErr: errors.New("connection refused")}
	svc := newTestFiscalService(repo)

	receipt, err := svc.CreateReceipt(context.Background(), &CreateReceiptInput{
		Items: []OrderItemInput{{Name: "Pizza", Quantity: 1, Price: 11.90}},
	})
	assert.Nil(t, receipt)
	assert.ErrorIs(t, err, apperror.ErrReceiptPersistenceFailed)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCreateReceiptNumbersIncrease(t *testing.T) {
	svc := newTestFiscalService(&fakeReceiptRepo{})
	ctx := context.Background()
	input := &CreateReceiptInput{
		Items: []OrderItemInput{{Name: "Wasser", Quantity: 1, Price: 2.50, Category: enum.CategoryBeverage}},
	}

	first, err := svc.CreateReceipt(ctx, input)
	require.NoError(t, err)
	second, err := svc.CreateReceipt(ctx, input)
	require.NoError(t, err)

	assert.NotEqual(t, first.ReceiptNumber, second.ReceiptNumber)
	assert.NotEqual(t, first.TransactionID, second.TransactionID)
	assert.Greater(t, second.ReceiptNumber, first.ReceiptNumber)
}

func TestSeedCountersResumesNumbering(t *testing.T) {
	repo := &fakeReceiptRepo{}
	svc := newTestFiscalService(repo)
	ctx := context.Background()

	existing := entity.FiscalReceipt{
		ID:            uuid.New(),
		ReceiptNumber: "20240601-000041",
		TransactionID: "txn-17",
		Timestamp:     time.Now(),
		CreatedAt:     time.Now(),
	}
	repo.receipts = append(repo.receipts, existing)

	require.NoError(t, svc.SeedCounters(ctx))

	receipt, err := svc.CreateReceipt(ctx, &CreateReceiptInput{
		Items: []OrderItemInput{{Name: "Pizza", Quantity: 1, Price: 11.90}},
	})
	require.NoError(t, err)

	seq, err := tse.ParseReceiptSequence(receipt.ReceiptNumber)
	require.NoError(t, err)
	assert.Equal(t, int64(42), seq)

	txn, err := tse.ParseTransactionNumber(receipt.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, int64(18), txn)
}

func TestSeedCountersEmptyStore(t *testing.T) {
	svc := newTestFiscalService(&fakeReceiptRepo{})
	require.NoError(t, svc.SeedCounters(context.Background()))
}

func TestGetReceiptNotFound(t *testing.T) {
	svc := newTestFiscalService(&fakeReceiptRepo{})

	_, err := svc.GetReceipt(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, 404, apperror.GetAppError(err).Code)
}

func TestCancelReceipt(t *testing.T) {
	repo := &fakeReceiptRepo{}
	svc := newTestFiscalService(repo)
	ctx := context.Background()

	receipt, err := svc.CreateReceipt(ctx, &CreateReceiptInput{
		Items: []OrderItemInput{{Name: "Pizza", Quantity: 1, Price: 11.90}},
	})
	require.NoError(t, err)

	cancelled, err := svc.CancelReceipt(ctx, receipt.ID)
	require.NoError(t, err)
	assert.True(t, cancelled.Cancelled)
	// Signed amounts stay untouched after cancellation.
	assert.Equal(t, receipt.TotalGross, cancelled.TotalGross)
	assert.Equal(t, receipt.TSESignature, cancelled.TSESignature)

	_, err = svc.CancelReceipt(ctx, receipt.ID)
	assert.ErrorIs(t, err, apperror.ErrReceiptAlreadyCancelled)
}

func TestCancelReceiptNotFound(t *testing.T) {
	svc := newTestFiscalService(&fakeReceiptRepo{})

	_, err := svc.CancelReceipt(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, 404, apperror.GetAppError(err).Code)
}

func TestListReceiptsPagination(t *testing.T) {
	repo := &fakeReceiptRepo{}
	svc := newTestFiscalService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateReceipt(ctx, &CreateReceiptInput{
			Items: []OrderItemInput{{Name: "Kaffee", Quantity: 1, Price: 3.20, Category: enum.CategoryBeverage}},
		})
		require.NoError(t, err)
	}

	result, err := svc.ListReceipts(ctx, &pagination.PaginationParams{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, int64(3), result.Pagination.Total)
}
