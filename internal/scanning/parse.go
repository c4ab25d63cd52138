package scanning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// ParseReceipts turns the model's raw text into an ordered record list.
// A bare object is treated as a one-element list. Records are stably sorted by
// date ascending with undated records last.
func ParseReceipts(text string) ([]ReceiptRecord, error) {
	payload, err := receiptPayload(text)
	if err != nil {
		return nil, err
	}

	var records []ReceiptRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, invalidEncoding(text, err)
	}

	for i := range records {
		// An invoice number without a compliant receipt is noise from the model
		if !records[i].HasInvoice {
			records[i].InvoiceNumber = nil
		}
	}

	SortByDate(records)
	return records, nil
}

// SortByDate orders records by date string with null or empty dates last.
// YYYY/MM/DD strings compare lexicographically in chronological order.
func SortByDate(records []ReceiptRecord) {
	slices.SortStableFunc(records, func(a, b ReceiptRecord) int {
		ad, bd := dateKey(a), dateKey(b)
		switch {
		case ad == "" && bd == "":
			return 0
		case ad == "":
			return 1
		case bd == "":
			return -1
		}
		return strings.Compare(ad, bd)
	})
}

func dateKey(r ReceiptRecord) string {
	if r.Date == nil {
		return ""
	}
	return *r.Date
}

// receiptPayload strips markdown fences and returns the JSON as an array
func receiptPayload(text string) ([]byte, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if !json.Valid([]byte(cleaned)) {
		return nil, invalidEncoding(text, fmt.Errorf("response is not valid JSON"))
	}

	raw := []byte(cleaned)
	switch raw[0] {
	case '[':
		return raw, nil
	case '{':
		var buf bytes.Buffer
		buf.WriteByte('[')
		buf.Write(raw)
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return nil, invalidEncoding(text, fmt.Errorf("expected a JSON array or object"))
	}
}
