package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zombor/receipt-ledger/internal/scanning"
)

// Media types of the downloadable artifacts
const (
	MediaTypeJSON = "application/json"
	MediaTypeCSV  = "text/csv;charset=utf-8"
	MediaTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Filename returns the download name for an artifact exported at now, e.g.
// receipt_analysis_2024-03-01.csv. The date follows now's location.
func Filename(now time.Time, ext string) string {
	return fmt.Sprintf("receipt_analysis_%s.%s", now.Format("2006-01-02"), ext)
}

// JSON pretty-prints the record list. An empty list encodes as [] rather than null.
// Store names keep &, < and > as written.
func JSON(records []scanning.ReceiptRecord) ([]byte, error) {
	if records == nil {
		records = []scanning.ReceiptRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encoding records: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
