package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gastrokasse/fiskal-api/internal/domain/repository"
	"github.com/gastrokasse/fiskal-api/pkg/money"
)

// VATBucket accumulates net/VAT/gross sums for one VAT rate.
type VATBucket struct {
	Net   float64 `json:"net"`
	Vat   float64 `json:"vat"`
	Gross float64 `json:"gross"`
}

// Report is the aggregate over all non-cancelled receipts in a window.
// Derived, never persisted; recomputed per request.
type Report struct {
	StartDate        time.Time            `json:"start_date"`
	EndDate          time.Time            `json:"end_date"`
	TotalSales       float64              `json:"total_sales"`
	TotalVat         float64              `json:"total_vat"`
	TransactionCount int                  `json:"transaction_count"`
	VATBreakdown     map[string]VATBucket `json:"vat_breakdown"`
}

// ReportService aggregates stored receipts into daily and range reports.
type ReportService struct {
	receiptRepo repository.FiscalReceiptRepository
}

// NewReportService creates a new report service
func NewReportService(receiptRepo repository.FiscalReceiptRepository) *ReportService {
	return &ReportService{receiptRepo: receiptRepo}
}

// DayBounds returns the local-day window of date: midnight through
// 23:59:59.999, both inclusive. The end is built from the next calendar
// day, not a 24h offset, so the window stays correct on the 23- and
// 25-hour DST transition days.
func DayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end
}

// GenerateDailyReport aggregates all non-cancelled receipts of the given
// local day.
func (s *ReportService) GenerateDailyReport(ctx context.Context, date time.Time) (*Report, error) {
	start, end := DayBounds(date)
	return s.GenerateRangeReport(ctx, start, end)
}

// GenerateRangeReport aggregates all non-cancelled receipts with a
// timestamp in [start, end]. Totals are summed unrounded and rounded once
// at the end so per-receipt rounding does not compound.
func (s *ReportService) GenerateRangeReport(ctx context.Context, start, end time.Time) (*Report, error) {
	receipts, err := s.receiptRepo.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	report := &Report{
		StartDate:    start,
		EndDate:      end,
		VATBreakdown: map[string]VATBucket{},
	}

	var totalSales, totalVat float64
	for _, receipt := range receipts {
		if receipt.Cancelled {
			continue
		}
		report.TransactionCount++
		totalSales += receipt.TotalGross
		totalVat += receipt.TotalVat

		for _, item := range receipt.Items {
			key := vatRateKey(item.VATRate)
			bucket := report.VATBreakdown[key]
			bucket.Net += item.TotalNet
			bucket.Vat += item.TotalVat
			bucket.Gross += item.TotalGross
			report.VATBreakdown[key] = bucket
		}
	}

	report.TotalSales = money.Round2(totalSales)
	report.TotalVat = money.Round2(totalVat)
	for key, bucket := range report.VATBreakdown {
		bucket.Net = money.Round2(bucket.Net)
		bucket.Vat = money.Round2(bucket.Vat)
		bucket.Gross = money.Round2(bucket.Gross)
		report.VATBreakdown[key] = bucket
	}
	return report, nil
}

// vatRateKey formats a rate fraction as the breakdown key, e.g. 0.19 -> "19%".
func vatRateKey(rate float64) string {
	return fmt.Sprintf("%.0f%%", rate*100)
}
