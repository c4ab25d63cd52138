package export

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/zombor/receipt-ledger/internal/scanning"
)

// byteOrderMark makes spreadsheet applications open the file as UTF-8
const byteOrderMark = "\uFEFF"

var csvHeader = []string{
	"ID",
	"Status",
	"Date",
	"Store Name",
	"Total Amount",
	"Has Invoice",
	"Invoice No",
	"10% Amount",
	"8% Amount",
	"Non-Invoice Amount",
	"Error",
}

// CSV renders the record list in its current order. Store name and error message
// are always quoted; numbers and booleans are written raw, nulls as empty fields.
func CSV(records []scanning.ReceiptRecord) []byte {
	var buf bytes.Buffer
	buf.WriteString(byteOrderMark)
	buf.WriteString(strings.Join(csvHeader, ","))

	for _, r := range records {
		fields := []string{
			strconv.Itoa(r.ID),
			field(string(r.Status)),
			field(deref(r.Date)),
			quoted(deref(r.StoreName)),
			number(r.TotalAmount),
			strconv.FormatBool(r.HasInvoice),
			field(deref(r.InvoiceNumber)),
			number(r.Amount10Percent),
			number(r.Amount8Percent),
			number(r.AmountNonInvoice),
			quoted(deref(r.ErrorMessage)),
		}
		buf.WriteByte('\n')
		buf.WriteString(strings.Join(fields, ","))
	}

	return buf.Bytes()
}

func quoted(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// field quotes s only when it would otherwise break the row
func field(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quoted(s)
	}
	return s
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
