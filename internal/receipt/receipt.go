package receipt

import (
	"time"

	"github.com/zombor/receipt-ledger/internal/scanning"
)

// AnalysisResult is the outcome of one successful pipeline run over an uploaded document
type AnalysisResult struct {
	ID        string                   `json:"id"`
	Filename  string                   `json:"filename"`
	Timestamp time.Time                `json:"timestamp"`
	Pages     int                      `json:"pages"`               // 0 when unknown
	Version   string                   `json:"instruction_version"` // instruction set used for extraction
	Data      []scanning.ReceiptRecord `json:"data"`                // sorted by date, undated last
	Summary   Summary                  `json:"summary"`
}

// Summary holds the aggregate figures shown above the results table
type Summary struct {
	Count           int     `json:"count"`
	SuccessCount    int     `json:"success_count"`
	TotalAmount     float64 `json:"total_amount"`
	Total10Percent  float64 `json:"total_10_percent"`
	Total8Percent   float64 `json:"total_8_percent"`
	TotalNonInvoice float64 `json:"total_non_invoice"`
	UnreconciledIDs []int   `json:"unreconciled_ids"` // successful records whose buckets do not add up to the total
}
