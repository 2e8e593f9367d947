// Package export formats stored fiscal receipts as CSV or JSON for
// download by audit and accounting tooling. Formatting only; fetching and
// filtering stay with the receipt repository.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gastrokasse/fiskal-api/internal/domain/entity"
)

// Format selects the export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// timestampLayout is ISO-8601 with millisecond precision, the format the
// persistence boundary stores and downstream tooling expects.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// DefaultFields is the full persistence column set, in export order.
var DefaultFields = []string{
	"id",
	"receipt_number",
	"transaction_id",
	"timestamp",
	"items",
	"subtotal_net",
	"total_vat",
	"total_gross",
	"payment_method",
	"tse_signature",
	"fiscal_memory_serial",
	"cashier_name",
	"cancelled",
}

// fieldValue resolves one column of the export row. Unknown field names
// are rejected rather than emitted as empty columns.
func fieldValue(r *entity.FiscalReceipt, field string) (interface{}, error) {
	switch field {
	case "id":
		return r.ID.String(), nil
	case "receipt_number":
		return r.ReceiptNumber, nil
	case "transaction_id":
		return r.TransactionID, nil
	case "timestamp":
		return r.Timestamp.Format(timestampLayout), nil
	case "items":
		return r.Items, nil
	case "subtotal_net":
		return r.SubtotalNet, nil
	case "total_vat":
		return r.TotalVat, nil
	case "total_gross":
		return r.TotalGross, nil
	case "payment_method":
		return r.PaymentMethod.String(), nil
	case "tse_signature":
		return r.TSESignature, nil
	case "fiscal_memory_serial":
		return r.FiscalMemorySerial, nil
	case "cashier_name":
		if r.CashierName == nil {
			return nil, nil
		}
		return *r.CashierName, nil
	case "cancelled":
		return r.Cancelled, nil
	}
	return nil, fmt.Errorf("export: unknown field %q", field)
}

// ToCSV renders receipts as a CSV document: header row from the field
// projection (or all columns), every cell double-quoted with embedded
// quotes doubled. An empty receipt set yields an empty string.
func ToCSV(receipts []entity.FiscalReceipt, fields []string) (string, error) {
	if len(receipts) == 0 {
		return "", nil
	}
	if len(fields) == 0 {
		fields = DefaultFields
	}

	var b strings.Builder
	b.WriteString(strings.Join(fields, ","))

	for i := range receipts {
		b.WriteByte('\n')
		for j, field := range fields {
			value, err := fieldValue(&receipts[i], field)
			if err != nil {
				return "", err
			}
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteCSV(cellString(value)))
		}
	}
	return b.String(), nil
}

// ToJSON renders receipts as a pretty-printed JSON array, timestamps
// normalized to ISO-8601 and the field projection applied per record.
func ToJSON(receipts []entity.FiscalReceipt, fields []string) ([]byte, error) {
	if len(fields) == 0 {
		fields = DefaultFields
	}

	records := make([]map[string]interface{}, 0, len(receipts))
	for i := range receipts {
		record := make(map[string]interface{}, len(fields))
		for _, field := range fields {
			value, err := fieldValue(&receipts[i], field)
			if err != nil {
				return nil, err
			}
			record[field] = value
		}
		records = append(records, record)
	}
	return json.MarshalIndent(records, "", "  ")
}

// cellString flattens a field value for CSV. Structured values (the items
// array) are embedded as their JSON encoding; nil becomes the empty cell.
func cellString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return fmt.Sprintf("%t", v)
	case float64:
		return fmt.Sprintf("%.2f", v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}

// quoteCSV wraps s in double quotes, doubling embedded quotes.
func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
