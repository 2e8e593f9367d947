package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/gastrokasse/fiskal-api/internal/domain/entity"
	"github.com/gastrokasse/fiskal-api/pkg/printer"
	"github.com/google/uuid"
)

// StoreHeader is the business header printed at the top of every receipt.
type StoreHeader struct {
	Name    string
	Address string
	TaxID   string
}

// PrinterService formats fiscal receipts for thermal printing.
type PrinterService struct {
	printer       printer.Printer
	fiscalService *FiscalService
	header        StoreHeader
	printerType   string
}

// NewPrinterService creates a new printer service.
func NewPrinterService(p printer.Printer, fiscalService *FiscalService, header StoreHeader, printerType string) *PrinterService {
	return &PrinterService{
		printer:       p,
		fiscalService: fiscalService,
		header:        header,
		printerType:   printerType,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus() *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printerType != "none" && s.printerType != "",
		Connected:  s.printer.IsConnected(),
		Type:       s.printerType,
	}
}

// PrintReceipt fetches a fiscal receipt and sends it to the printer.
// The receipt is returned so the handler can serve it as JSON when no
// hardware is attached.
func (s *PrinterService) PrintReceipt(ctx context.Context, id uuid.UUID) (*entity.FiscalReceipt, error) {
	receipt, err := s.fiscalService.GetReceipt(ctx, id)
	if err != nil {
		return nil, err
	}

	data := FormatFiscalReceipt(receipt, s.header)
	if err := s.printer.Print(data); err != nil {
		return receipt, fmt.Errorf("printing receipt %s: %w", receipt.ReceiptNumber, err)
	}
	return receipt, nil
}

// FormatFiscalReceipt renders a fiscal receipt as an ESC/POS document:
// store header, line items with VAT class marks, per-rate VAT summary and
// the TSE signature block required on German receipts.
func FormatFiscalReceipt(receipt *entity.FiscalReceipt, header StoreHeader) []byte {
	doc := printer.NewDocument(32)

	doc.SetAlign(printer.AlignCenter).
		SetFontSize(printer.FontDouble).
		Text(header.Name).
		SetFontSize(printer.FontNormal)
	if header.Address != "" {
		doc.Text(header.Address)
	}
	if header.TaxID != "" {
		doc.TextF("USt-IdNr. %s", header.TaxID)
	}
	doc.LineFeed().
		SetBold(true).Text("KASSENBELEG").SetBold(false).
		SetAlign(printer.AlignLeft).
		Separator('-')

	doc.KeyValue("Beleg-Nr.", receipt.ReceiptNumber)
	doc.KeyValue("Datum", receipt.Timestamp.Format("02.01.2006 15:04"))
	if receipt.CashierName != nil {
		doc.KeyValue("Kassierer", *receipt.CashierName)
	}
	doc.Separator('-')

	// Line items; the trailing letter marks the VAT class (A standard, B reduced).
	for _, item := range receipt.Items {
		doc.ItemLine(item.Quantity, item.Name, fmt.Sprintf("%.2f %s", item.TotalGross, vatClassMark(item.VATRate)))
	}
	doc.Separator('-')

	doc.KeyValue("Netto", fmt.Sprintf("%.2f EUR", receipt.SubtotalNet))
	doc.KeyValue("MwSt", fmt.Sprintf("%.2f EUR", receipt.TotalVat))
	doc.SetBold(true).
		KeyValue("SUMME", fmt.Sprintf("%.2f EUR", receipt.TotalGross)).
		SetBold(false)
	doc.KeyValue("Zahlart", receipt.PaymentMethod.String())

	// VAT summary per rate.
	doc.Separator('-')
	for _, line := range vatSummary(receipt.Items) {
		doc.Text(line)
	}

	// TSE block.
	doc.Separator('-')
	doc.TextF("TSE-Seriennr.: %s", receipt.FiscalMemorySerial)
	doc.TextF("TSE-Transaktion: %s", receipt.TransactionID)
	doc.Text("TSE-Signatur:")
	doc.Text(receipt.TSESignature)
	if receipt.Cancelled {
		doc.LineFeed().SetAlign(printer.AlignCenter).SetBold(true).
			Text("*** STORNIERT ***").
			SetBold(false).SetAlign(printer.AlignLeft)
	}

	doc.FeedLines(3).Cut()
	return doc.Bytes()
}

func vatClassMark(rate float64) string {
	if rate == VATRateReduced {
		return "B"
	}
	return "A"
}

// vatSummary renders one "rate: net / vat / gross" line per VAT rate,
// highest rate first.
func vatSummary(items entity.FiscalItems) []string {
	type bucket struct{ net, vat, gross float64 }
	buckets := map[float64]*bucket{}
	for _, item := range items {
		b, ok := buckets[item.VATRate]
		if !ok {
			b = &bucket{}
			buckets[item.VATRate] = b
		}
		b.net += item.TotalNet
		b.vat += item.TotalVat
		b.gross += item.TotalGross
	}

	rates := make([]float64, 0, len(buckets))
	for rate := range buckets {
		rates = append(rates, rate)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(rates)))

	lines := make([]string, 0, len(buckets))
	for _, rate := range rates {
		b := buckets[rate]
		lines = append(lines, fmt.Sprintf("%s %.0f%%: %.2f/%.2f/%.2f",
			vatClassMark(rate), rate*100, b.net, b.vat, b.gross))
	}
	return lines
}
