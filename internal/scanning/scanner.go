package scanning

import "context"

// Status is the per-receipt extraction outcome reported by the model
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ReceiptRecord contains the information extracted for one receipt in a document.
// Nullable fields are pointers so that JSON null survives a round trip.
type ReceiptRecord struct {
	ID               int     `json:"id"`
	Status           Status  `json:"status"`
	Date             *string `json:"date"` // YYYY/MM/DD
	StoreName        *string `json:"store_name"`
	TotalAmount      float64 `json:"total_amount"` // tax included
	HasInvoice       bool    `json:"has_invoice"`
	InvoiceNumber    *string `json:"invoice_number"` // T + 13 digits
	Amount10Percent  float64 `json:"amount_10_percent"`
	Amount8Percent   float64 `json:"amount_8_percent"`
	AmountNonInvoice float64 `json:"amount_non_invoice"`
	ErrorMessage     *string `json:"error_message"`
}

// Extractor defines the interface to the external multimodal model
type Extractor interface {
	// Extract sends a document plus instructions to the model and returns its raw text output
	Extract(ctx context.Context, doc Document, instructions InstructionSet) (string, error)
	// Close closes the extractor and releases resources
	Close() error
}
